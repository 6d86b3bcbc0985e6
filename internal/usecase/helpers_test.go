package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	domainErrors "github.com/dheerajsingh9334/mern-Blog/internal/domain/errors"
	"github.com/dheerajsingh9334/mern-Blog/internal/domain/model"
	"github.com/dheerajsingh9334/mern-Blog/internal/domain/provider"
	"github.com/dheerajsingh9334/mern-Blog/internal/infrastructure/database"
	"github.com/dheerajsingh9334/mern-Blog/internal/infrastructure/lock"
	"github.com/dheerajsingh9334/mern-Blog/internal/testutil"
)

const validSignature = "t=1,v1=valid"

// fakeEvent is the wire format understood by fakeSource
type fakeEvent struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Kind        model.EventKind `json:"kind"`
	Ref         string          `json:"ref"`
	ProviderRef string          `json:"provider_ref,omitempty"`
	Amount      int64           `json:"amount,omitempty"`
	Currency    string          `json:"currency,omitempty"`
	Malformed   string          `json:"malformed,omitempty"`
}

// fakeSource verifies a fixed signature and decodes fakeEvent payloads
type fakeSource struct{}

func (fakeSource) GetProviderName() string { return "fake" }

func (fakeSource) Normalize(payload []byte, signature string) (*model.NormalizedEvent, error) {
	if signature != validSignature {
		return nil, fmt.Errorf("%w: bad signature", domainErrors.ErrAuthenticity)
	}

	var e fakeEvent
	if err := json.Unmarshal(payload, &e); err != nil {
		return nil, fmt.Errorf("%w: %v", domainErrors.ErrAuthenticity, err)
	}

	sum := sha256.Sum256(payload)
	return &model.NormalizedEvent{
		ExternalID:              e.ID,
		Provider:                "fake",
		Type:                    e.Type,
		Kind:                    e.Kind,
		SubscriptionRef:         e.Ref,
		ProviderSubscriptionRef: e.ProviderRef,
		Amount:                  e.Amount,
		Currency:                e.Currency,
		OccurredAt:              time.Now().UTC(),
		Payload:                 payload,
		Checksum:                hex.EncodeToString(sum[:]),
		RejectReason:            e.Malformed,
	}, nil
}

func rawEvent(t *testing.T, e fakeEvent) RawEvent {
	t.Helper()
	payload, err := json.Marshal(e)
	require.NoError(t, err)
	return RawEvent{Payload: payload, Signature: validSignature}
}

func checkoutEvent(id string, sub *model.Subscription, providerRef string) fakeEvent {
	return fakeEvent{
		ID:          id,
		Type:        "checkout.session.completed",
		Kind:        model.KindCheckoutCompleted,
		Ref:         sub.ID.String(),
		ProviderRef: providerRef,
	}
}

func invoicePaidEvent(id, providerRef string, amount int64) fakeEvent {
	return fakeEvent{
		ID:       id,
		Type:     "invoice.paid",
		Kind:     model.KindInvoicePaid,
		Ref:      providerRef,
		Amount:   amount,
		Currency: testutil.Currency,
	}
}

func invoiceFailedEvent(id, providerRef string) fakeEvent {
	return fakeEvent{
		ID:       id,
		Type:     "invoice.payment_failed",
		Kind:     model.KindInvoiceFailed,
		Ref:      providerRef,
		Amount:   1000,
		Currency: testutil.Currency,
	}
}

type published struct {
	Channel string
	Message interface{}
}

// recordingPublisher keeps every published message
type recordingPublisher struct {
	mu       sync.Mutex
	messages []published
}

func (p *recordingPublisher) Publish(_ context.Context, channel string, message interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, published{Channel: channel, Message: message})
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) channels() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.messages))
	for _, m := range p.messages {
		out = append(out, m.Channel)
	}
	return out
}

type mockRail struct {
	mock.Mock
}

func (m *mockRail) Transfer(ctx context.Context, req *provider.TransferRequest) (*provider.TransferResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.TransferResult), args.Error(1)
}

type mockCheckout struct {
	mock.Mock
}

func (m *mockCheckout) CreateCheckout(ctx context.Context, req *provider.CheckoutRequest) (*provider.CheckoutSession, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.CheckoutSession), args.Error(1)
}

func (m *mockCheckout) CancelAtPeriodEnd(ctx context.Context, externalRef string) error {
	args := m.Called(ctx, externalRef)
	return args.Error(0)
}

func (m *mockCheckout) ExpireCheckout(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}

type testEnv struct {
	db        *gorm.DB
	repos     *database.Repositories
	ledger    *LedgerService
	ingest    *IngestService
	plans     *PlanService
	subs      *SubscriptionService
	payouts   *PayoutService
	publisher *recordingPublisher
	rail      *mockRail
	checkout  *mockCheckout
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWithAttempts(t, 5)
}

func newTestEnvWithAttempts(t *testing.T, maxAttempts int) *testEnv {
	t.Helper()

	logger := zap.NewNop()
	db := testutil.SetupTestDB(t)
	repos := database.NewRepositories(db, logger)
	locker := lock.NewLocalLocker(5 * time.Second)
	publisher := &recordingPublisher{}
	rail := &mockRail{}
	checkout := &mockCheckout{}

	ledger := NewLedgerService(repos.Ledger, repos.Transactor, locker, testutil.Currency, logger)

	return &testEnv{
		db:     db,
		repos:  repos,
		ledger: ledger,
		ingest: NewIngestService(fakeSource{}, repos.PaymentEvent, repos.Subscription, repos.Plan,
			repos.Transactor, ledger, locker, publisher,
			IngestConfig{MaxAttempts: maxAttempts, BatchSize: 50}, logger),
		plans: NewPlanService(repos.Plan, repos.Transactor, locker, testutil.Currency, logger),
		subs: NewSubscriptionService(repos.Subscription, repos.Plan, repos.Transactor,
			checkout, locker, publisher, logger),
		payouts: NewPayoutService(repos.Payout, repos.PayoutAccount, repos.Ledger, repos.Transactor,
			ledger, rail, locker, publisher,
			PayoutConfig{MinimumAmount: 100, RailTimeout: time.Second}, logger),
		publisher: publisher,
		rail:      rail,
		checkout:  checkout,
	}
}

func (e *testEnv) balance(t *testing.T, authorID string) int64 {
	t.Helper()
	balance, err := e.ledger.Balance(context.Background(), authorID, nil)
	require.NoError(t, err)
	return balance
}

func (e *testEnv) entries(t *testing.T, authorID string) []*model.LedgerEntry {
	t.Helper()
	var out []*model.LedgerEntry
	for entry, err := range e.ledger.EntriesSince(context.Background(), authorID, 0) {
		require.NoError(t, err)
		out = append(out, entry)
	}
	return out
}
