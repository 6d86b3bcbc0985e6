package http

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/dheerajsingh9334/mern-Blog/internal/domain/entity"
	"github.com/dheerajsingh9334/mern-Blog/internal/middleware/auth"
	apperrors "github.com/dheerajsingh9334/mern-Blog/pkg/errors"
)

// RequestValidator adapts validator/v10 to echo's Validator
type RequestValidator struct {
	validate *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	return &RequestValidator{validate: validator.New()}
}

func (v *RequestValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

// bindAndValidate decodes the body into req and runs its validate tags.
func bindAndValidate(c echo.Context, logger *zap.Logger, req interface{}) error {
	if err := c.Bind(req); err != nil {
		logger.Debug("Failed to bind request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, echo.Map{
			"error": "Invalid request format",
			"code":  "INVALID_REQUEST",
		})
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, echo.Map{
			"error":   "Validation failed",
			"code":    "VALIDATION_FAILED",
			"details": err.Error(),
		})
	}
	return nil
}

// errorResponse converts a use case error into the JSON error response,
// logging it with its code.
func errorResponse(logger *zap.Logger, msg string, err error, fields ...zap.Field) error {
	apperrors.LogError(logger, err, msg, fields...)
	return apperrors.ToHTTPError(err)
}

func currentUserID(c echo.Context) (string, error) {
	user, err := auth.GetUserFromContext(c)
	if err != nil {
		return "", echo.NewHTTPError(http.StatusUnauthorized, echo.Map{
			"error": "Authentication required",
			"code":  "AUTH_REQUIRED",
		})
	}
	return user.UserID, nil
}

func uuidParam(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, invalidParam(name, "must be a UUID")
	}
	return id, nil
}

func int64Param(c echo.Context, name string) (int64, error) {
	n, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || n <= 0 {
		return 0, invalidParam(name, "must be a positive integer")
	}
	return n, nil
}

// queryInt64 parses an optional non-negative integer query parameter.
func queryInt64(c echo.Context, name string, def int64) (int64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		return 0, invalidParam(name, "must be a non-negative integer")
	}
	return n, nil
}

func paginationParams(c echo.Context) (entity.PaginationParams, error) {
	var params entity.PaginationParams
	page, err := queryInt64(c, "page", entity.DefaultPage)
	if err != nil {
		return params, err
	}
	limit, err := queryInt64(c, "limit", entity.DefaultPageSize)
	if err != nil {
		return params, err
	}
	params.Page = int(page)
	params.Limit = int(limit)
	params.Validate()
	return params, nil
}

func invalidParam(name, reason string) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusBadRequest, echo.Map{
		"error": name + " " + reason,
		"code":  apperrors.ErrInvalidArgument,
	})
}
