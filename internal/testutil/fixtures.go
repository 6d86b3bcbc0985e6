package testutil

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dheerajsingh9334/mern-Blog/internal/domain/model"
)

const Currency = "usd"

// CreatePlan inserts an active version 1 plan for the author.
func CreatePlan(t *testing.T, db *gorm.DB, authorID string, price int64, share string) *model.Plan {
	t.Helper()

	plan := &model.Plan{
		ID:           uuid.New(),
		Version:      1,
		AuthorID:     authorID,
		Name:         "Supporter",
		Price:        price,
		Currency:     Currency,
		Interval:     model.IntervalMonth,
		RevenueShare: decimal.RequireFromString(share),
		Active:       true,
	}
	if err := db.Create(plan).Error; err != nil {
		t.Fatalf("Failed to create plan: %v", err)
	}
	return plan
}

// CreateSubscription inserts a subscription to plan in the given state.
func CreateSubscription(t *testing.T, db *gorm.DB, plan *model.Plan, subscriberID string, state model.SubscriptionState, externalRef string) *model.Subscription {
	t.Helper()

	sub := &model.Subscription{
		ID:           uuid.New(),
		SubscriberID: subscriberID,
		PlanID:       plan.ID,
		PlanVersion:  plan.Version,
		State:        state,
	}
	if externalRef != "" {
		sub.ExternalRef = &externalRef
	}
	if err := db.Create(sub).Error; err != nil {
		t.Fatalf("Failed to create subscription: %v", err)
	}
	return sub
}
