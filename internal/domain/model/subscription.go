package model

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
)

// SubscriptionState represents the lifecycle state of a subscription
type SubscriptionState string

const (
	StatePendingActivation SubscriptionState = "pending_activation"
	StateActive            SubscriptionState = "active"
	StatePastDue           SubscriptionState = "past_due"
	StateCanceled          SubscriptionState = "canceled"
)

// Scan implements sql.Scanner interface
func (s *SubscriptionState) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*s = SubscriptionState(v)
	case []byte:
		*s = SubscriptionState(v)
	default:
		*s = StatePendingActivation
	}
	return nil
}

// Value implements driver.Valuer interface
func (s SubscriptionState) Value() (driver.Value, error) {
	return string(s), nil
}

// Subscription binds a subscriber to one plan version
type Subscription struct {
	ID                    uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	SubscriberID          string            `gorm:"size:64;not null;index" json:"subscriber_id"`
	PlanID                uuid.UUID         `gorm:"type:uuid;not null;index" json:"plan_id"`
	PlanVersion           int               `gorm:"not null" json:"plan_version"`
	ExternalRef           *string           `gorm:"size:100;uniqueIndex" json:"external_ref,omitempty"`
	CheckoutSessionID     *string           `gorm:"size:255" json:"checkout_session_id,omitempty"`
	State                 SubscriptionState `gorm:"size:32;not null;index" json:"state"`
	CurrentPeriodStart    *time.Time        `json:"current_period_start,omitempty"`
	CurrentPeriodEnd      *time.Time        `json:"current_period_end,omitempty"`
	CancellationRequested bool              `gorm:"not null" json:"cancellation_requested"`
	CreatedAt             time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Subscription) TableName() string {
	return "subscriptions"
}

// SubscriptionTransition is one row of a subscription's state history
type SubscriptionTransition struct {
	ID             int64             `gorm:"primaryKey;autoIncrement" json:"id"`
	SubscriptionID uuid.UUID         `gorm:"type:uuid;not null;index" json:"subscription_id"`
	FromState      SubscriptionState `gorm:"size:32;not null" json:"from_state"`
	ToState        SubscriptionState `gorm:"size:32;not null" json:"to_state"`
	EventKind      EventKind         `gorm:"size:32;not null" json:"event_kind"`
	PaymentEventID *int64            `gorm:"index" json:"payment_event_id,omitempty"`
	CreatedAt      time.Time         `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for GORM
func (SubscriptionTransition) TableName() string {
	return "subscription_transitions"
}
