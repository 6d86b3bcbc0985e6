package http

import (
	"context"
	"iter"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dheerajsingh9334/mern-Blog/internal/domain/entity"
	"github.com/dheerajsingh9334/mern-Blog/internal/domain/model"
	"github.com/dheerajsingh9334/mern-Blog/internal/usecase"
)

type mockIngester struct {
	mock.Mock
}

func (m *mockIngester) Ingest(ctx context.Context, raw usecase.RawEvent) (*usecase.IngestResult, error) {
	args := m.Called(ctx, raw)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.IngestResult), args.Error(1)
}

func (m *mockIngester) Replay(ctx context.Context, limit int) (*usecase.ReplaySummary, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.ReplaySummary), args.Error(1)
}

func (m *mockIngester) ListEvents(ctx context.Context, status model.EventStatus, params entity.PaginationParams) (*entity.Page[*model.PaymentEvent], error) {
	args := m.Called(ctx, status, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Page[*model.PaymentEvent]), args.Error(1)
}

type mockPlans struct {
	mock.Mock
}

func (m *mockPlans) CreatePlan(ctx context.Context, spec model.PlanSpec) (*model.Plan, error) {
	args := m.Called(ctx, spec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Plan), args.Error(1)
}

func (m *mockPlans) RetirePlan(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockPlans) GetPlan(ctx context.Context, id uuid.UUID, version int) (*model.Plan, error) {
	args := m.Called(ctx, id, version)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Plan), args.Error(1)
}

func (m *mockPlans) ListActivePlans(ctx context.Context) ([]*model.Plan, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Plan), args.Error(1)
}

func (m *mockPlans) ListVersions(ctx context.Context, id uuid.UUID) ([]*model.Plan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Plan), args.Error(1)
}

type mockSubscriptions struct {
	mock.Mock
}

func (m *mockSubscriptions) BeginCheckout(ctx context.Context, subscriberID string, planID uuid.UUID, version int) (*usecase.CheckoutResult, error) {
	args := m.Called(ctx, subscriberID, planID, version)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.CheckoutResult), args.Error(1)
}

func (m *mockSubscriptions) RequestCancellation(ctx context.Context, subscriptionID uuid.UUID, subscriberID string) (*model.Subscription, error) {
	args := m.Called(ctx, subscriptionID, subscriberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Subscription), args.Error(1)
}

func (m *mockSubscriptions) GetSubscription(ctx context.Context, id uuid.UUID, subscriberID string) (*model.Subscription, error) {
	args := m.Called(ctx, id, subscriberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Subscription), args.Error(1)
}

func (m *mockSubscriptions) ListTransitions(ctx context.Context, id uuid.UUID, subscriberID string) ([]*model.SubscriptionTransition, error) {
	args := m.Called(ctx, id, subscriberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.SubscriptionTransition), args.Error(1)
}

func (m *mockSubscriptions) ListBySubscriber(ctx context.Context, subscriberID string) ([]*model.Subscription, error) {
	args := m.Called(ctx, subscriberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Subscription), args.Error(1)
}

type mockLedger struct {
	mock.Mock
}

func (m *mockLedger) Currency() string {
	return "usd"
}

func (m *mockLedger) Balance(ctx context.Context, authorID string, asOfSequence *int64) (int64, error) {
	args := m.Called(ctx, authorID, asOfSequence)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockLedger) EntriesSince(ctx context.Context, authorID string, sequence int64) iter.Seq2[*model.LedgerEntry, error] {
	args := m.Called(ctx, authorID, sequence)
	entries := args.Get(0).([]*model.LedgerEntry)
	err := args.Error(1)
	return func(yield func(*model.LedgerEntry, error) bool) {
		for _, e := range entries {
			if !yield(e, nil) {
				return
			}
		}
		if err != nil {
			yield(nil, err)
		}
	}
}

func (m *mockLedger) Reverse(ctx context.Context, sequence int64, reason string) (*model.LedgerEntry, error) {
	args := m.Called(ctx, sequence, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.LedgerEntry), args.Error(1)
}

func (m *mockLedger) Adjust(ctx context.Context, authorID string, amount int64, description string) (*model.LedgerEntry, error) {
	args := m.Called(ctx, authorID, amount, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.LedgerEntry), args.Error(1)
}

type mockPayouts struct {
	mock.Mock
}

func (m *mockPayouts) Evaluate(ctx context.Context, authorID string) (*model.Eligibility, error) {
	args := m.Called(ctx, authorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Eligibility), args.Error(1)
}

func (m *mockPayouts) RequestPayout(ctx context.Context, authorID string, amount int64) (*model.PayoutRequest, error) {
	args := m.Called(ctx, authorID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PayoutRequest), args.Error(1)
}

func (m *mockPayouts) SettlePayout(ctx context.Context, requestID uuid.UUID) (*model.PayoutRequest, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PayoutRequest), args.Error(1)
}

func (m *mockPayouts) RejectPayout(ctx context.Context, requestID uuid.UUID, reason string) (*model.PayoutRequest, error) {
	args := m.Called(ctx, requestID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PayoutRequest), args.Error(1)
}

func (m *mockPayouts) GetPayout(ctx context.Context, requestID uuid.UUID) (*model.PayoutRequest, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PayoutRequest), args.Error(1)
}

func (m *mockPayouts) ListPayouts(ctx context.Context, authorID string, params entity.PaginationParams) (*entity.Page[*model.PayoutRequest], error) {
	args := m.Called(ctx, authorID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Page[*model.PayoutRequest]), args.Error(1)
}

func (m *mockPayouts) SetPayoutAccount(ctx context.Context, authorID, providerAccountID string) (*model.PayoutAccount, error) {
	args := m.Called(ctx, authorID, providerAccountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PayoutAccount), args.Error(1)
}

func (m *mockPayouts) GetPayoutAccount(ctx context.Context, authorID string) (*model.PayoutAccount, error) {
	args := m.Called(ctx, authorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PayoutAccount), args.Error(1)
}

type mockAudit struct {
	mock.Mock
}

func (m *mockAudit) Record(ctx context.Context, entry *model.AuditLog) {
	m.Called(ctx, entry)
}

func (m *mockAudit) List(ctx context.Context, filter model.AuditFilter, params entity.PaginationParams) (*entity.Page[*model.AuditLog], error) {
	args := m.Called(ctx, filter, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Page[*model.AuditLog]), args.Error(1)
}
