package http

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dheerajsingh9334/mern-Blog/internal/domain/entity"
	domainErrors "github.com/dheerajsingh9334/mern-Blog/internal/domain/errors"
	"github.com/dheerajsingh9334/mern-Blog/internal/domain/model"
)

func earningsServer(ledger *mockLedger, payouts *mockPayouts) http.Handler {
	e := newTestEcho()
	h := NewEarningsHandler(zap.NewNop(), ledger, payouts)
	e.GET("/earnings/balance", h.GetBalance)
	e.GET("/earnings/entries", h.GetEntries)
	e.GET("/earnings/eligibility", h.GetEligibility)
	e.POST("/earnings/payouts", h.RequestPayout)
	e.GET("/earnings/payouts", h.ListPayouts)
	e.GET("/earnings/payout-account", h.GetPayoutAccount)
	e.PUT("/earnings/payout-account", h.SetPayoutAccount)
	return e
}

func TestEarningsHandler_GetBalance(t *testing.T) {
	ledger := new(mockLedger)
	srv := earningsServer(ledger, new(mockPayouts))

	ledger.On("Balance", mock.Anything, "author-1", (*int64)(nil)).Return(int64(700), nil).Once()
	rec := do(t, srv, testRequest{method: http.MethodGet, path: "/earnings/balance", user: "author-1"})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, float64(700), body["balance"])
	assert.Equal(t, "usd", body["currency"])
	assert.NotContains(t, body, "as_of_sequence")

	ledger.On("Balance", mock.Anything, "author-1", mock.MatchedBy(func(asOf *int64) bool {
		return asOf != nil && *asOf == 3
	})).Return(int64(100), nil).Once()
	rec = do(t, srv, testRequest{method: http.MethodGet, path: "/earnings/balance?as_of=3", user: "author-1"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(3), decode(t, rec)["as_of_sequence"])

	rec = do(t, srv, testRequest{method: http.MethodGet, path: "/earnings/balance?as_of=x", user: "author-1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, testRequest{method: http.MethodGet, path: "/earnings/balance"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	ledger.AssertExpectations(t)
}

func TestEarningsHandler_GetEntriesPages(t *testing.T) {
	ledger := new(mockLedger)
	srv := earningsServer(ledger, new(mockPayouts))

	entries := []*model.LedgerEntry{
		{Sequence: 4, AuthorID: "author-1", Kind: model.EntryKindCredit, Amount: 700},
		{Sequence: 9, AuthorID: "author-1", Kind: model.EntryKindCredit, Amount: 700},
		{Sequence: 12, AuthorID: "author-1", Kind: model.EntryKindDebit, Amount: -1000},
	}
	ledger.On("EntriesSince", mock.Anything, "author-1", int64(0)).Return(entries, nil).Once()
	ledger.On("EntriesSince", mock.Anything, "author-1", int64(9)).Return(entries[2:], nil).Once()

	rec := do(t, srv, testRequest{method: http.MethodGet, path: "/earnings/entries?limit=2", user: "author-1"})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Len(t, body["entries"], 2)
	assert.Equal(t, float64(9), body["next_since"])

	rec = do(t, srv, testRequest{method: http.MethodGet, path: "/earnings/entries?since=9&limit=2", user: "author-1"})
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.Len(t, body["entries"], 1)
	assert.NotContains(t, body, "next_since")

	ledger.AssertExpectations(t)
}

func TestEarningsHandler_GetEligibility(t *testing.T) {
	payouts := new(mockPayouts)
	srv := earningsServer(new(mockLedger), payouts)
	pending := uuid.New()

	payouts.On("Evaluate", mock.Anything, "author-1").Return(&model.Eligibility{
		AuthorID:        "author-1",
		Eligible:        false,
		Amount:          700,
		Currency:        "usd",
		PendingPayoutID: &pending,
	}, nil).Once()

	rec := do(t, srv, testRequest{method: http.MethodGet, path: "/earnings/eligibility", user: "author-1"})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, false, body["eligible"])
	assert.Equal(t, pending.String(), body["pending_payout_id"])
}

func TestEarningsHandler_RequestPayout(t *testing.T) {
	payouts := new(mockPayouts)
	srv := earningsServer(new(mockLedger), payouts)

	payouts.On("RequestPayout", mock.Anything, "author-1", int64(500)).
		Return(&model.PayoutRequest{ID: uuid.New(), AuthorID: "author-1", Amount: 500, Status: model.PayoutStatusPending}, nil).Once()
	rec := do(t, srv, testRequest{method: http.MethodPost, path: "/earnings/payouts", body: `{"amount":500}`, user: "author-1"})
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "pending", decode(t, rec)["status"])

	payouts.On("RequestPayout", mock.Anything, "author-1", int64(5000)).
		Return(nil, domainErrors.NewInsufficientBalanceError(5000, 700)).Once()
	rec = do(t, srv, testRequest{method: http.MethodPost, path: "/earnings/payouts", body: `{"amount":5000}`, user: "author-1"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "FAILED_PRECONDITION", errorCode(t, rec))

	payouts.On("RequestPayout", mock.Anything, "author-1", int64(100)).
		Return(nil, domainErrors.ErrPayoutInProgress).Once()
	rec = do(t, srv, testRequest{method: http.MethodPost, path: "/earnings/payouts", body: `{"amount":100}`, user: "author-1"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, srv, testRequest{method: http.MethodPost, path: "/earnings/payouts", body: `{"amount":0}`, user: "author-1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	payouts.On("RequestPayout", mock.Anything, "author-1", int64(7)).
		Return(nil, domainErrors.ErrLockContention).Once()
	rec = do(t, srv, testRequest{method: http.MethodPost, path: "/earnings/payouts", body: `{"amount":7}`, user: "author-1"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	payouts.AssertExpectations(t)
}

func TestEarningsHandler_ListPayouts(t *testing.T) {
	payouts := new(mockPayouts)
	srv := earningsServer(new(mockLedger), payouts)

	params := entity.PaginationParams{Page: 2, Limit: 5}
	payouts.On("ListPayouts", mock.Anything, "author-1", params).
		Return(entity.NewPage([]*model.PayoutRequest{}, params, 6), nil).Once()

	rec := do(t, srv, testRequest{method: http.MethodGet, path: "/earnings/payouts?page=2&limit=5", user: "author-1"})
	require.Equal(t, http.StatusOK, rec.Code)
	pagination := decode(t, rec)["pagination"].(map[string]interface{})
	assert.Equal(t, float64(2), pagination["total_pages"])
	payouts.AssertExpectations(t)
}

func TestEarningsHandler_PayoutAccount(t *testing.T) {
	payouts := new(mockPayouts)
	srv := earningsServer(new(mockLedger), payouts)

	payouts.On("SetPayoutAccount", mock.Anything, "author-1", "acct_123").
		Return(&model.PayoutAccount{AuthorID: "author-1", ProviderAccountID: "acct_123"}, nil).Once()
	rec := do(t, srv, testRequest{method: http.MethodPut, path: "/earnings/payout-account", body: `{"provider_account_id":"acct_123"}`, user: "author-1"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, srv, testRequest{method: http.MethodPut, path: "/earnings/payout-account", body: `{}`, user: "author-1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	payouts.On("GetPayoutAccount", mock.Anything, "author-2").Return(nil, domainErrors.ErrPayoutAccountNotFound).Once()
	rec = do(t, srv, testRequest{method: http.MethodGet, path: "/earnings/payout-account", user: "author-2"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	payouts.AssertExpectations(t)
}
