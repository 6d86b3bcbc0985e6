package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/dheerajsingh9334/mern-Blog/internal/domain/model"
)

const (
	defaultEntriesLimit = 100
	maxEntriesLimit     = 500
)

// EarningsHandler serves an author's own ledger and payouts
type EarningsHandler struct {
	logger  *zap.Logger
	ledger  Ledger
	payouts PayoutManager
}

func NewEarningsHandler(logger *zap.Logger, ledger Ledger, payouts PayoutManager) *EarningsHandler {
	return &EarningsHandler{
		logger:  logger,
		ledger:  ledger,
		payouts: payouts,
	}
}

type BalanceResponse struct {
	AuthorID     string `json:"author_id"`
	Balance      int64  `json:"balance"`
	Currency     string `json:"currency"`
	AsOfSequence *int64 `json:"as_of_sequence,omitempty"`
}

type EntriesResponse struct {
	Entries []*model.LedgerEntry `json:"entries"`
	// NextSince resumes the listing; absent when the end was reached
	NextSince *int64 `json:"next_since,omitempty"`
}

type RequestPayoutRequest struct {
	Amount int64 `json:"amount" validate:"gt=0"`
}

type PayoutAccountRequest struct {
	ProviderAccountID string `json:"provider_account_id" validate:"required,max=100"`
}

// GetBalance handles GET /api/v1/earnings/balance?as_of=<sequence>
func (h *EarningsHandler) GetBalance(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	return h.balance(c, userID)
}

func (h *EarningsHandler) balance(c echo.Context, authorID string) error {
	var asOf *int64
	if c.QueryParam("as_of") != "" {
		seq, err := queryInt64(c, "as_of", 0)
		if err != nil {
			return err
		}
		asOf = &seq
	}

	balance, err := h.ledger.Balance(c.Request().Context(), authorID, asOf)
	if err != nil {
		return errorResponse(h.logger, "Failed to compute balance", err, zap.String("author_id", authorID))
	}

	return c.JSON(http.StatusOK, BalanceResponse{
		AuthorID:     authorID,
		Balance:      balance,
		Currency:     h.ledger.Currency(),
		AsOfSequence: asOf,
	})
}

// GetEntries handles GET /api/v1/earnings/entries?since=<sequence>&limit=<n>
func (h *EarningsHandler) GetEntries(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	since, err := queryInt64(c, "since", 0)
	if err != nil {
		return err
	}
	limit, err := queryInt64(c, "limit", defaultEntriesLimit)
	if err != nil {
		return err
	}
	if limit == 0 || limit > maxEntriesLimit {
		limit = maxEntriesLimit
	}

	resp := EntriesResponse{Entries: make([]*model.LedgerEntry, 0, limit)}
	for entry, err := range h.ledger.EntriesSince(c.Request().Context(), userID, since) {
		if err != nil {
			return errorResponse(h.logger, "Failed to list ledger entries", err, zap.String("author_id", userID))
		}
		if int64(len(resp.Entries)) == limit {
			last := resp.Entries[len(resp.Entries)-1].Sequence
			resp.NextSince = &last
			break
		}
		resp.Entries = append(resp.Entries, entry)
	}

	return c.JSON(http.StatusOK, resp)
}

// GetEligibility handles GET /api/v1/earnings/eligibility
func (h *EarningsHandler) GetEligibility(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	eligibility, err := h.payouts.Evaluate(c.Request().Context(), userID)
	if err != nil {
		return errorResponse(h.logger, "Failed to evaluate payout eligibility", err, zap.String("author_id", userID))
	}
	return c.JSON(http.StatusOK, eligibility)
}

// RequestPayout handles POST /api/v1/earnings/payouts
func (h *EarningsHandler) RequestPayout(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req RequestPayoutRequest
	if err := bindAndValidate(c, h.logger, &req); err != nil {
		return err
	}

	payout, err := h.payouts.RequestPayout(c.Request().Context(), userID, req.Amount)
	if err != nil {
		return errorResponse(h.logger, "Failed to request payout", err,
			zap.String("author_id", userID), zap.Int64("amount", req.Amount))
	}
	return c.JSON(http.StatusCreated, payout)
}

// ListPayouts handles GET /api/v1/earnings/payouts
func (h *EarningsHandler) ListPayouts(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	params, err := paginationParams(c)
	if err != nil {
		return err
	}

	page, err := h.payouts.ListPayouts(c.Request().Context(), userID, params)
	if err != nil {
		return errorResponse(h.logger, "Failed to list payouts", err, zap.String("author_id", userID))
	}
	return c.JSON(http.StatusOK, page)
}

// GetPayoutAccount handles GET /api/v1/earnings/payout-account
func (h *EarningsHandler) GetPayoutAccount(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	account, err := h.payouts.GetPayoutAccount(c.Request().Context(), userID)
	if err != nil {
		return errorResponse(h.logger, "Failed to get payout account", err, zap.String("author_id", userID))
	}
	return c.JSON(http.StatusOK, account)
}

// SetPayoutAccount handles PUT /api/v1/earnings/payout-account
func (h *EarningsHandler) SetPayoutAccount(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req PayoutAccountRequest
	if err := bindAndValidate(c, h.logger, &req); err != nil {
		return err
	}

	account, err := h.payouts.SetPayoutAccount(c.Request().Context(), userID, req.ProviderAccountID)
	if err != nil {
		return errorResponse(h.logger, "Failed to set payout account", err, zap.String("author_id", userID))
	}
	return c.JSON(http.StatusOK, account)
}
