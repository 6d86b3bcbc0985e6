package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	domainErrors "github.com/dheerajsingh9334/mern-Blog/internal/domain/errors"
	"github.com/dheerajsingh9334/mern-Blog/internal/domain/model"
	"github.com/dheerajsingh9334/mern-Blog/internal/usecase"
)

// maxWebhookBodyBytes bounds a single provider delivery
const maxWebhookBodyBytes = 65536

type WebhookHandler struct {
	logger *zap.Logger
	ingest EventIngester
}

func NewWebhookHandler(logger *zap.Logger, ingest EventIngester) *WebhookHandler {
	return &WebhookHandler{
		logger: logger,
		ingest: ingest,
	}
}

// HandleWebhook handles POST /webhook.
// Recorded events answer 200 so the provider stops redelivering; a deferred
// event answers 202 and is replayed locally.
func (h *WebhookHandler) HandleWebhook(c echo.Context) error {
	body, err := io.ReadAll(http.MaxBytesReader(c.Response(), c.Request().Body, maxWebhookBodyBytes))
	if err != nil {
		h.logger.Error("Error reading request body", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Error reading request body"})
	}

	sig := c.Request().Header.Get("Stripe-Signature")

	result, err := h.ingest.Ingest(c.Request().Context(), usecase.RawEvent{
		Payload:   body,
		Signature: sig,
	})
	if err != nil {
		if errors.Is(err, domainErrors.ErrAuthenticity) {
			h.logger.Warn("Webhook signature verification failed", zap.Error(err))
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "Webhook signature verification failed",
				"code":  "INVALID_SIGNATURE",
			})
		}
		return errorResponse(h.logger, "Webhook processing failed", err)
	}

	h.logger.Info("Webhook event handled",
		zap.String("external_id", result.ExternalID),
		zap.String("kind", string(result.Kind)),
		zap.String("outcome", string(result.Outcome)),
	)

	if result.Outcome == usecase.OutcomeDeferred {
		return c.JSON(http.StatusAccepted, result)
	}
	return c.JSON(http.StatusOK, result)
}

// ReplayEvents handles POST /api/v1/internal/webhook-events/replay
func (h *WebhookHandler) ReplayEvents(c echo.Context) error {
	limit, err := queryInt64(c, "limit", 0)
	if err != nil {
		return err
	}

	summary, err := h.ingest.Replay(c.Request().Context(), int(limit))
	if err != nil {
		return errorResponse(h.logger, "Replay failed", err)
	}
	return c.JSON(http.StatusOK, summary)
}

// ListEvents handles GET /api/v1/internal/webhook-events?status=failed
func (h *WebhookHandler) ListEvents(c echo.Context) error {
	status := model.EventStatus(c.QueryParam("status"))
	switch status {
	case "", model.EventStatusPending, model.EventStatusFailed, model.EventStatusProcessed,
		model.EventStatusRejected, model.EventStatusIgnored:
	default:
		return invalidParam("status", "is not a known event status")
	}

	params, err := paginationParams(c)
	if err != nil {
		return err
	}

	page, err := h.ingest.ListEvents(c.Request().Context(), status, params)
	if err != nil {
		return errorResponse(h.logger, "Failed to list payment events", err)
	}
	return c.JSON(http.StatusOK, page)
}
