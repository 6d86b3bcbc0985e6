package http

import (
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domainErrors "github.com/dheerajsingh9334/mern-Blog/internal/domain/errors"
	"github.com/dheerajsingh9334/mern-Blog/internal/domain/model"
)

func adminServer(ledger *mockLedger, payouts *mockPayouts) http.Handler {
	e := newTestEcho()
	h := NewAdminHandler(zap.NewNop(), ledger, payouts)
	e.GET("/internal/payouts/:id", h.GetPayout)
	e.POST("/internal/payouts/:id/settle", h.SettlePayout)
	e.POST("/internal/payouts/:id/reject", h.RejectPayout)
	e.POST("/internal/ledger/adjustments", h.AdjustLedger)
	e.POST("/internal/ledger/entries/:sequence/reverse", h.ReverseEntry)
	e.GET("/internal/ledger/authors/:authorId/balance", h.GetAuthorBalance)
	return e
}

func TestAdminHandler_SettlePayout(t *testing.T) {
	payouts := new(mockPayouts)
	srv := adminServer(new(mockLedger), payouts)
	id := uuid.New()
	transfer := "tr_123"

	payouts.On("SettlePayout", mock.Anything, id).
		Return(&model.PayoutRequest{ID: id, Status: model.PayoutStatusSettled, ProviderTransferID: &transfer}, nil).Once()
	rec := do(t, srv, testRequest{method: http.MethodPost, path: "/internal/payouts/" + id.String() + "/settle", user: "ops-1", role: "admin"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "settled", decode(t, rec)["status"])

	// a rail failure comes back as a rejected request, not an error
	reason := "account restricted"
	payouts.On("SettlePayout", mock.Anything, id).
		Return(&model.PayoutRequest{ID: id, Status: model.PayoutStatusRejected, RejectReason: &reason}, nil).Once()
	rec = do(t, srv, testRequest{method: http.MethodPost, path: "/internal/payouts/" + id.String() + "/settle"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "rejected", decode(t, rec)["status"])

	payouts.On("SettlePayout", mock.Anything, id).Return(nil, domainErrors.ErrPayoutNotPending).Once()
	rec = do(t, srv, testRequest{method: http.MethodPost, path: "/internal/payouts/" + id.String() + "/settle"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	payouts.AssertExpectations(t)
}

func TestAdminHandler_RejectPayout(t *testing.T) {
	payouts := new(mockPayouts)
	srv := adminServer(new(mockLedger), payouts)
	id := uuid.New()

	rec := do(t, srv, testRequest{method: http.MethodPost, path: "/internal/payouts/" + id.String() + "/reject", body: `{}`})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	reason := "manual review failed"
	payouts.On("RejectPayout", mock.Anything, id, reason).
		Return(&model.PayoutRequest{ID: id, Status: model.PayoutStatusRejected, RejectReason: &reason}, nil).Once()
	rec = do(t, srv, testRequest{method: http.MethodPost, path: "/internal/payouts/" + id.String() + "/reject", body: `{"reason":"manual review failed"}`})
	assert.Equal(t, http.StatusOK, rec.Code)

	payouts.On("GetPayout", mock.Anything, id).Return(nil, domainErrors.ErrPayoutNotFound).Once()
	rec = do(t, srv, testRequest{method: http.MethodGet, path: "/internal/payouts/" + id.String()})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	payouts.AssertExpectations(t)
}

func TestAdminHandler_AdjustLedger(t *testing.T) {
	ledger := new(mockLedger)
	srv := adminServer(ledger, new(mockPayouts))

	ledger.On("Adjust", mock.Anything, "author-1", int64(-250), "chargeback fee").
		Return(&model.LedgerEntry{Sequence: 14, AuthorID: "author-1", Kind: model.EntryKindDebit, Amount: -250}, nil).Once()
	rec := do(t, srv, testRequest{
		method: http.MethodPost,
		path:   "/internal/ledger/adjustments",
		body:   `{"author_id":"author-1","amount":-250,"description":"chargeback fee"}`,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, float64(14), decode(t, rec)["sequence"])

	rec = do(t, srv, testRequest{
		method: http.MethodPost,
		path:   "/internal/ledger/adjustments",
		body:   `{"author_id":"author-1","amount":0,"description":"nothing"}`,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	ledger.On("Adjust", mock.Anything, "author-1", int64(-9000), "too much").
		Return(nil, domainErrors.NewInsufficientBalanceError(9000, 450)).Once()
	rec = do(t, srv, testRequest{
		method: http.MethodPost,
		path:   "/internal/ledger/adjustments",
		body:   `{"author_id":"author-1","amount":-9000,"description":"too much"}`,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	ledger.AssertExpectations(t)
}

func TestAdminHandler_ReverseEntry(t *testing.T) {
	ledger := new(mockLedger)
	srv := adminServer(ledger, new(mockPayouts))
	original := int64(4)

	ledger.On("Reverse", mock.Anything, int64(4), "refund").
		Return(&model.LedgerEntry{Sequence: 20, Kind: model.EntryKindReversal, Amount: -700, ReversesSequence: &original}, nil).Once()
	rec := do(t, srv, testRequest{method: http.MethodPost, path: "/internal/ledger/entries/4/reverse", body: `{"reason":"refund"}`})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, float64(4), decode(t, rec)["reverses_sequence"])

	ledger.On("Reverse", mock.Anything, int64(4), "").Return(nil, domainErrors.ErrEntryAlreadyReversed).Once()
	rec = do(t, srv, testRequest{method: http.MethodPost, path: "/internal/ledger/entries/4/reverse"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, srv, testRequest{method: http.MethodPost, path: "/internal/ledger/entries/0/reverse"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	ledger.On("Reverse", mock.Anything, int64(5), "").Return(nil, errors.New("deadlock detected")).Once()
	rec = do(t, srv, testRequest{method: http.MethodPost, path: "/internal/ledger/entries/5/reverse"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "deadlock")

	ledger.AssertExpectations(t)
}

func TestAdminHandler_GetAuthorBalance(t *testing.T) {
	ledger := new(mockLedger)
	srv := adminServer(ledger, new(mockPayouts))

	ledger.On("Balance", mock.Anything, "author-9", (*int64)(nil)).Return(int64(1234), nil).Once()
	rec := do(t, srv, testRequest{method: http.MethodGet, path: "/internal/ledger/authors/author-9/balance"})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "author-9", body["author_id"])
	assert.Equal(t, float64(1234), body["balance"])

	ledger.AssertExpectations(t)
}
