package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/dheerajsingh9334/mern-Blog/internal/domain/model"
)

type SubscriptionRepository interface {
	// Create returns ErrActiveSubscriptionExists when the subscriber already
	// holds a non-canceled subscription to the plan
	Create(ctx context.Context, subscription *model.Subscription) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Subscription, error)
	// GetByReference resolves our subscription id or the provider's
	// subscription id. The row is locked when called in a transaction.
	GetByReference(ctx context.Context, ref string) (*model.Subscription, error)
	ListBySubscriber(ctx context.Context, subscriberID string) ([]*model.Subscription, error)
	// Update persists state, period, external reference and cancellation flag
	Update(ctx context.Context, subscription *model.Subscription) error
	AppendTransition(ctx context.Context, transition *model.SubscriptionTransition) error
	ListTransitions(ctx context.Context, subscriptionID uuid.UUID) ([]*model.SubscriptionTransition, error)
}
