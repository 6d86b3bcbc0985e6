package http

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/dheerajsingh9334/mern-Blog/internal/domain/model"
)

type PlansHandler struct {
	logger *zap.Logger
	plans  PlanRegistry
}

func NewPlansHandler(logger *zap.Logger, plans PlanRegistry) *PlansHandler {
	return &PlansHandler{
		logger: logger,
		plans:  plans,
	}
}

// CreatePlanRequest is the body of POST /api/v1/internal/plans. Setting
// plan_id publishes a new version of an existing plan.
type CreatePlanRequest struct {
	PlanID          *uuid.UUID      `json:"plan_id"`
	AuthorID        string          `json:"author_id" validate:"required,max=64"`
	Name            string          `json:"name" validate:"required,max=200"`
	Price           int64           `json:"price" validate:"gt=0"`
	Currency        string          `json:"currency" validate:"required,len=3"`
	Interval        string          `json:"interval" validate:"required"`
	RevenueShare    decimal.Decimal `json:"revenue_share"`
	ProviderPriceID *string         `json:"provider_price_id"`
}

// GetPlans handles GET /api/v1/plans
func (h *PlansHandler) GetPlans(c echo.Context) error {
	plans, err := h.plans.ListActivePlans(c.Request().Context())
	if err != nil {
		return errorResponse(h.logger, "Failed to list plans", err)
	}

	h.logger.Debug("Plans fetched", zap.Int("active_plans", len(plans)))
	return c.JSON(http.StatusOK, echo.Map{"plans": plans})
}

// GetPlanVersion handles GET /api/v1/plans/:id/versions/:version
func (h *PlansHandler) GetPlanVersion(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	version, err := strconv.Atoi(c.Param("version"))
	if err != nil || version < 1 {
		return invalidParam("version", "must be a positive integer")
	}

	plan, err := h.plans.GetPlan(c.Request().Context(), id, version)
	if err != nil {
		return errorResponse(h.logger, "Failed to get plan", err,
			zap.String("plan_id", id.String()), zap.Int("version", version))
	}
	return c.JSON(http.StatusOK, plan)
}

// GetPlanVersions handles GET /api/v1/plans/:id/versions
func (h *PlansHandler) GetPlanVersions(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	versions, err := h.plans.ListVersions(c.Request().Context(), id)
	if err != nil {
		return errorResponse(h.logger, "Failed to list plan versions", err, zap.String("plan_id", id.String()))
	}
	return c.JSON(http.StatusOK, echo.Map{"versions": versions})
}

// CreatePlan handles POST /api/v1/internal/plans
func (h *PlansHandler) CreatePlan(c echo.Context) error {
	var req CreatePlanRequest
	if err := bindAndValidate(c, h.logger, &req); err != nil {
		return err
	}

	plan, err := h.plans.CreatePlan(c.Request().Context(), model.PlanSpec{
		PlanID:          req.PlanID,
		AuthorID:        req.AuthorID,
		Name:            req.Name,
		Price:           req.Price,
		Currency:        req.Currency,
		Interval:        model.BillingInterval(req.Interval),
		RevenueShare:    req.RevenueShare,
		ProviderPriceID: req.ProviderPriceID,
	})
	if err != nil {
		return errorResponse(h.logger, "Failed to create plan", err, zap.String("author_id", req.AuthorID))
	}

	h.logger.Info("Plan published",
		zap.String("plan_id", plan.ID.String()),
		zap.Int("version", plan.Version),
		zap.String("author_id", plan.AuthorID))
	return c.JSON(http.StatusCreated, plan)
}

// RetirePlan handles DELETE /api/v1/internal/plans/:id
func (h *PlansHandler) RetirePlan(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.plans.RetirePlan(c.Request().Context(), id); err != nil {
		return errorResponse(h.logger, "Failed to retire plan", err, zap.String("plan_id", id.String()))
	}

	h.logger.Info("Plan retired", zap.String("plan_id", id.String()))
	return c.NoContent(http.StatusNoContent)
}
