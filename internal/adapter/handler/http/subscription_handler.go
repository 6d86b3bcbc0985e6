package http

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type SubscriptionHandler struct {
	logger        *zap.Logger
	subscriptions SubscriptionManager
}

func NewSubscriptionHandler(logger *zap.Logger, subscriptions SubscriptionManager) *SubscriptionHandler {
	return &SubscriptionHandler{
		logger:        logger,
		subscriptions: subscriptions,
	}
}

type CreateSubscriptionRequest struct {
	PlanID      uuid.UUID `json:"plan_id" validate:"required"`
	PlanVersion int       `json:"plan_version" validate:"gte=1"`
}

// CreateSubscription handles POST /api/v1/subscriptions. It starts a
// provider checkout; the subscription activates when the checkout completes.
func (h *SubscriptionHandler) CreateSubscription(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req CreateSubscriptionRequest
	if err := bindAndValidate(c, h.logger, &req); err != nil {
		return err
	}

	result, err := h.subscriptions.BeginCheckout(c.Request().Context(), userID, req.PlanID, req.PlanVersion)
	if err != nil {
		return errorResponse(h.logger, "Failed to begin checkout", err,
			zap.String("subscriber_id", userID),
			zap.String("plan_id", req.PlanID.String()))
	}

	return c.JSON(http.StatusCreated, result)
}

// ListSubscriptions handles GET /api/v1/subscriptions
func (h *SubscriptionHandler) ListSubscriptions(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	subs, err := h.subscriptions.ListBySubscriber(c.Request().Context(), userID)
	if err != nil {
		return errorResponse(h.logger, "Failed to list subscriptions", err, zap.String("subscriber_id", userID))
	}
	return c.JSON(http.StatusOK, echo.Map{"subscriptions": subs})
}

// GetSubscription handles GET /api/v1/subscriptions/:id
func (h *SubscriptionHandler) GetSubscription(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	sub, err := h.subscriptions.GetSubscription(c.Request().Context(), id, userID)
	if err != nil {
		return errorResponse(h.logger, "Failed to get subscription", err, zap.String("subscription_id", id.String()))
	}
	return c.JSON(http.StatusOK, sub)
}

// ListTransitions handles GET /api/v1/subscriptions/:id/transitions
func (h *SubscriptionHandler) ListTransitions(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	transitions, err := h.subscriptions.ListTransitions(c.Request().Context(), id, userID)
	if err != nil {
		return errorResponse(h.logger, "Failed to list transitions", err, zap.String("subscription_id", id.String()))
	}
	return c.JSON(http.StatusOK, echo.Map{"transitions": transitions})
}

// CancelSubscription handles DELETE /api/v1/subscriptions/:id
func (h *SubscriptionHandler) CancelSubscription(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	sub, err := h.subscriptions.RequestCancellation(c.Request().Context(), id, userID)
	if err != nil {
		return errorResponse(h.logger, "Failed to cancel subscription", err, zap.String("subscription_id", id.String()))
	}

	h.logger.Info("Subscription cancellation requested",
		zap.String("subscription_id", id.String()),
		zap.String("state", string(sub.State)))
	return c.JSON(http.StatusOK, sub)
}
