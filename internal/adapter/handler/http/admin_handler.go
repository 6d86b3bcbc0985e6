package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/dheerajsingh9334/mern-Blog/internal/middleware/auth"
)

// AdminHandler serves the operator endpoints under /api/v1/internal
type AdminHandler struct {
	logger   *zap.Logger
	ledger   Ledger
	payouts  PayoutManager
	earnings *EarningsHandler
}

func NewAdminHandler(logger *zap.Logger, ledger Ledger, payouts PayoutManager) *AdminHandler {
	return &AdminHandler{
		logger:   logger,
		ledger:   ledger,
		payouts:  payouts,
		earnings: NewEarningsHandler(logger, ledger, payouts),
	}
}

type RejectPayoutRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// AdjustmentRequest is a manual ledger correction. Positive amounts credit
// the author, negative amounts debit.
type AdjustmentRequest struct {
	AuthorID    string `json:"author_id" validate:"required,max=64"`
	Amount      int64  `json:"amount" validate:"ne=0"`
	Description string `json:"description" validate:"required,max=255"`
}

type ReverseEntryRequest struct {
	Reason string `json:"reason" validate:"max=255"`
}

// GetPayout handles GET /api/v1/internal/payouts/:id
func (h *AdminHandler) GetPayout(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	payout, err := h.payouts.GetPayout(c.Request().Context(), id)
	if err != nil {
		return errorResponse(h.logger, "Failed to get payout", err, zap.String("payout_id", id.String()))
	}
	return c.JSON(http.StatusOK, payout)
}

// SettlePayout handles POST /api/v1/internal/payouts/:id/settle. A rail
// failure is not an error here: the request comes back rejected.
func (h *AdminHandler) SettlePayout(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	payout, err := h.payouts.SettlePayout(c.Request().Context(), id)
	if err != nil {
		return errorResponse(h.logger, "Failed to settle payout", err, zap.String("payout_id", id.String()))
	}

	h.logger.Info("Payout settlement finished",
		zap.String("payout_id", id.String()),
		zap.String("status", string(payout.Status)),
		zap.String("operator", h.operator(c)))
	return c.JSON(http.StatusOK, payout)
}

// RejectPayout handles POST /api/v1/internal/payouts/:id/reject
func (h *AdminHandler) RejectPayout(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	var req RejectPayoutRequest
	if err := bindAndValidate(c, h.logger, &req); err != nil {
		return err
	}

	payout, err := h.payouts.RejectPayout(c.Request().Context(), id, req.Reason)
	if err != nil {
		return errorResponse(h.logger, "Failed to reject payout", err, zap.String("payout_id", id.String()))
	}

	h.logger.Info("Payout rejected by operator",
		zap.String("payout_id", id.String()),
		zap.String("operator", h.operator(c)))
	return c.JSON(http.StatusOK, payout)
}

// AdjustLedger handles POST /api/v1/internal/ledger/adjustments
func (h *AdminHandler) AdjustLedger(c echo.Context) error {
	var req AdjustmentRequest
	if err := bindAndValidate(c, h.logger, &req); err != nil {
		return err
	}

	entry, err := h.ledger.Adjust(c.Request().Context(), req.AuthorID, req.Amount, req.Description)
	if err != nil {
		return errorResponse(h.logger, "Failed to adjust ledger", err,
			zap.String("author_id", req.AuthorID), zap.Int64("amount", req.Amount))
	}

	h.logger.Info("Ledger adjusted",
		zap.String("author_id", req.AuthorID),
		zap.Int64("sequence", entry.Sequence),
		zap.Int64("amount", entry.Amount),
		zap.String("operator", h.operator(c)))
	return c.JSON(http.StatusCreated, entry)
}

// ReverseEntry handles POST /api/v1/internal/ledger/entries/:sequence/reverse
func (h *AdminHandler) ReverseEntry(c echo.Context) error {
	sequence, err := int64Param(c, "sequence")
	if err != nil {
		return err
	}

	var req ReverseEntryRequest
	if err := bindAndValidate(c, h.logger, &req); err != nil {
		return err
	}

	entry, err := h.ledger.Reverse(c.Request().Context(), sequence, req.Reason)
	if err != nil {
		return errorResponse(h.logger, "Failed to reverse ledger entry", err, zap.Int64("sequence", sequence))
	}

	h.logger.Info("Ledger entry reversed",
		zap.Int64("sequence", sequence),
		zap.Int64("reversal_sequence", entry.Sequence),
		zap.String("operator", h.operator(c)))
	return c.JSON(http.StatusCreated, entry)
}

// GetAuthorBalance handles GET /api/v1/internal/ledger/authors/:authorId/balance
func (h *AdminHandler) GetAuthorBalance(c echo.Context) error {
	authorID := c.Param("authorId")
	if authorID == "" || len(authorID) > 64 {
		return invalidParam("authorId", "is required")
	}
	return h.earnings.balance(c, authorID)
}

func (h *AdminHandler) operator(c echo.Context) string {
	id, _ := auth.GetUserID(c)
	return id
}
