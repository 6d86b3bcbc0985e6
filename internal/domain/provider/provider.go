package provider

import (
	"context"

	"github.com/google/uuid"

	"github.com/dheerajsingh9334/mern-Blog/internal/domain/model"
)

// EventSource verifies raw provider webhooks and reduces them to normalized events
type EventSource interface {
	// Normalize returns ErrAuthenticity when the signature does not verify.
	// Event types the pipeline does not act on come back with KindUnknown.
	Normalize(payload []byte, signature string) (*model.NormalizedEvent, error)

	// GetProviderName returns the provider name
	GetProviderName() string
}

// CheckoutProvider starts and stops provider-side subscriptions
type CheckoutProvider interface {
	CreateCheckout(ctx context.Context, req *CheckoutRequest) (*CheckoutSession, error)
	// CancelAtPeriodEnd asks the provider to end the subscription when the
	// current period runs out. The local state changes when the provider's
	// cancellation event arrives.
	CancelAtPeriodEnd(ctx context.Context, externalRef string) error
	// ExpireCheckout closes an unpaid checkout session so it can no longer be
	// paid. An already expired session is not an error; a paid one returns
	// ErrCheckoutCompleted.
	ExpireCheckout(ctx context.Context, sessionID string) error
}

// CheckoutRequest represents a provider-agnostic checkout initialization request
type CheckoutRequest struct {
	SubscriptionID  uuid.UUID
	SubscriberID    string
	ProviderPriceID string
	// Inline price terms, used when the plan has no provider price
	PlanName string
	Amount   int64
	Currency string
	Interval model.BillingInterval
}

// CheckoutSession is where the subscriber completes payment
type CheckoutSession struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// PaymentRail moves settled earnings out to an author
type PaymentRail interface {
	// Transfer must be idempotent on req.IdempotencyKey
	Transfer(ctx context.Context, req *TransferRequest) (*TransferResult, error)
}

type TransferRequest struct {
	IdempotencyKey string
	AuthorID       string
	Destination    string
	Amount         int64
	Currency       string
}

type TransferResult struct {
	TransferID string
}
