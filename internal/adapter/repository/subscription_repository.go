package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	domainErrors "github.com/dheerajsingh9334/mern-Blog/internal/domain/errors"
	"github.com/dheerajsingh9334/mern-Blog/internal/domain/model"
	domainRepo "github.com/dheerajsingh9334/mern-Blog/internal/domain/repository"
)

type subscriptionRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewSubscriptionRepository creates a new subscription repository
func NewSubscriptionRepository(db *gorm.DB, logger *zap.Logger) domainRepo.SubscriptionRepository {
	return &subscriptionRepository{
		db:     db,
		logger: logger,
	}
}

func (r *subscriptionRepository) Create(ctx context.Context, subscription *model.Subscription) error {
	err := conn(ctx, r.db).Create(subscription).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domainErrors.ErrActiveSubscriptionExists
		}
		r.logger.Error("Failed to create subscription",
			zap.String("subscriber_id", subscription.SubscriberID),
			zap.String("plan_id", subscription.PlanID.String()),
			zap.Error(err))
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	return nil
}

func (r *subscriptionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Subscription, error) {
	var subscription model.Subscription

	err := lockedConn(ctx, r.db).Where("id = ?", id).First(&subscription).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainErrors.ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	return &subscription, nil
}

// GetByReference accepts our subscription id or the provider's subscription id
func (r *subscriptionRepository) GetByReference(ctx context.Context, ref string) (*model.Subscription, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return r.GetByID(ctx, id)
	}

	var subscription model.Subscription
	err := lockedConn(ctx, r.db).Where("external_ref = ?", ref).First(&subscription).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainErrors.ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("failed to get subscription by reference: %w", err)
	}

	return &subscription, nil
}

func (r *subscriptionRepository) ListBySubscriber(ctx context.Context, subscriberID string) ([]*model.Subscription, error) {
	var subscriptions []*model.Subscription

	err := conn(ctx, r.db).
		Where("subscriber_id = ?", subscriberID).
		Order("created_at DESC").
		Find(&subscriptions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	return subscriptions, nil
}

func (r *subscriptionRepository) Update(ctx context.Context, subscription *model.Subscription) error {
	result := conn(ctx, r.db).
		Model(&model.Subscription{}).
		Where("id = ?", subscription.ID).
		Updates(map[string]interface{}{
			"state":                  subscription.State,
			"external_ref":           subscription.ExternalRef,
			"checkout_session_id":    subscription.CheckoutSessionID,
			"current_period_start":   subscription.CurrentPeriodStart,
			"current_period_end":     subscription.CurrentPeriodEnd,
			"cancellation_requested": subscription.CancellationRequested,
		})
	if result.Error != nil {
		r.logger.Error("Failed to update subscription",
			zap.String("subscription_id", subscription.ID.String()),
			zap.Error(result.Error))
		return fmt.Errorf("failed to update subscription: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainErrors.ErrSubscriptionNotFound
	}
	return nil
}

func (r *subscriptionRepository) AppendTransition(ctx context.Context, transition *model.SubscriptionTransition) error {
	if err := conn(ctx, r.db).Create(transition).Error; err != nil {
		return fmt.Errorf("failed to record subscription transition: %w", err)
	}
	return nil
}

func (r *subscriptionRepository) ListTransitions(ctx context.Context, subscriptionID uuid.UUID) ([]*model.SubscriptionTransition, error) {
	var transitions []*model.SubscriptionTransition

	err := conn(ctx, r.db).
		Where("subscription_id = ?", subscriptionID).
		Order("id ASC").
		Find(&transitions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list subscription transitions: %w", err)
	}

	return transitions, nil
}
