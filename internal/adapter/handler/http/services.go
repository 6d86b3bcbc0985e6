package http

import (
	"context"
	"iter"

	"github.com/google/uuid"

	"github.com/dheerajsingh9334/mern-Blog/internal/domain/entity"
	"github.com/dheerajsingh9334/mern-Blog/internal/domain/model"
	"github.com/dheerajsingh9334/mern-Blog/internal/usecase"
)

// The handlers depend on these views of the use cases so they can be
// exercised with mocks.

type EventIngester interface {
	Ingest(ctx context.Context, raw usecase.RawEvent) (*usecase.IngestResult, error)
	Replay(ctx context.Context, limit int) (*usecase.ReplaySummary, error)
	ListEvents(ctx context.Context, status model.EventStatus, params entity.PaginationParams) (*entity.Page[*model.PaymentEvent], error)
}

type PlanRegistry interface {
	CreatePlan(ctx context.Context, spec model.PlanSpec) (*model.Plan, error)
	RetirePlan(ctx context.Context, id uuid.UUID) error
	GetPlan(ctx context.Context, id uuid.UUID, version int) (*model.Plan, error)
	ListActivePlans(ctx context.Context) ([]*model.Plan, error)
	ListVersions(ctx context.Context, id uuid.UUID) ([]*model.Plan, error)
}

type SubscriptionManager interface {
	BeginCheckout(ctx context.Context, subscriberID string, planID uuid.UUID, version int) (*usecase.CheckoutResult, error)
	RequestCancellation(ctx context.Context, subscriptionID uuid.UUID, subscriberID string) (*model.Subscription, error)
	GetSubscription(ctx context.Context, id uuid.UUID, subscriberID string) (*model.Subscription, error)
	ListTransitions(ctx context.Context, id uuid.UUID, subscriberID string) ([]*model.SubscriptionTransition, error)
	ListBySubscriber(ctx context.Context, subscriberID string) ([]*model.Subscription, error)
}

type Ledger interface {
	Currency() string
	Balance(ctx context.Context, authorID string, asOfSequence *int64) (int64, error)
	EntriesSince(ctx context.Context, authorID string, sequence int64) iter.Seq2[*model.LedgerEntry, error]
	Reverse(ctx context.Context, sequence int64, reason string) (*model.LedgerEntry, error)
	Adjust(ctx context.Context, authorID string, amount int64, description string) (*model.LedgerEntry, error)
}

type PayoutManager interface {
	Evaluate(ctx context.Context, authorID string) (*model.Eligibility, error)
	RequestPayout(ctx context.Context, authorID string, amount int64) (*model.PayoutRequest, error)
	SettlePayout(ctx context.Context, requestID uuid.UUID) (*model.PayoutRequest, error)
	RejectPayout(ctx context.Context, requestID uuid.UUID, reason string) (*model.PayoutRequest, error)
	GetPayout(ctx context.Context, requestID uuid.UUID) (*model.PayoutRequest, error)
	ListPayouts(ctx context.Context, authorID string, params entity.PaginationParams) (*entity.Page[*model.PayoutRequest], error)
	SetPayoutAccount(ctx context.Context, authorID, providerAccountID string) (*model.PayoutAccount, error)
	GetPayoutAccount(ctx context.Context, authorID string) (*model.PayoutAccount, error)
}

// AuditTrail is both the recorder used by the audit middleware and the
// listing behind the audit endpoint.
type AuditTrail interface {
	Record(ctx context.Context, entry *model.AuditLog)
	List(ctx context.Context, filter model.AuditFilter, params entity.PaginationParams) (*entity.Page[*model.AuditLog], error)
}

var (
	_ AuditTrail          = (*usecase.AuditService)(nil)
	_ EventIngester       = (*usecase.IngestService)(nil)
	_ PlanRegistry        = (*usecase.PlanService)(nil)
	_ SubscriptionManager = (*usecase.SubscriptionService)(nil)
	_ Ledger              = (*usecase.LedgerService)(nil)
	_ PayoutManager       = (*usecase.PayoutService)(nil)
)
