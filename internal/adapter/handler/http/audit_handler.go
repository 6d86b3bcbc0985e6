package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/dheerajsingh9334/mern-Blog/internal/domain/model"
)

type AuditHandler struct {
	logger *zap.Logger
	audit  AuditTrail
}

func NewAuditHandler(logger *zap.Logger, audit AuditTrail) *AuditHandler {
	return &AuditHandler{
		logger: logger,
		audit:  audit,
	}
}

// ListAuditLog handles GET /api/v1/internal/audit-log?actor=&action=
func (h *AuditHandler) ListAuditLog(c echo.Context) error {
	params, err := paginationParams(c)
	if err != nil {
		return err
	}

	filter := model.AuditFilter{
		ActorID: c.QueryParam("actor"),
		Action:  c.QueryParam("action"),
	}

	page, err := h.audit.List(c.Request().Context(), filter, params)
	if err != nil {
		return errorResponse(h.logger, "Failed to list audit log", err)
	}
	return c.JSON(http.StatusOK, page)
}
