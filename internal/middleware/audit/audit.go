// Package audit records state-changing operator requests.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dheerajsingh9334/mern-Blog/internal/domain/model"
	"github.com/dheerajsingh9334/mern-Blog/internal/middleware/auth"
)

// Recorder persists audit entries. Implementations must not fail the request.
type Recorder interface {
	Record(ctx context.Context, entry *model.AuditLog)
}

// resourceParams are the route parameters that identify what was acted on
var resourceParams = []string{"id", "sequence", "authorId"}

// Middleware records every non-read request after its handler returns,
// including the ones that failed. It must run after JWTMiddleware.
func Middleware(recorder Recorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)

			switch c.Request().Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return err
			}

			entry := &model.AuditLog{
				Action:    c.Request().Method + " " + c.Path(),
				Status:    status(c, err),
				RequestID: c.Response().Header().Get(echo.HeaderXRequestID),
				IPAddress: c.RealIP(),
			}
			if actor, userErr := auth.GetUserID(c); userErr == nil {
				entry.ActorID = actor
			}
			if query := c.QueryParams(); len(query) > 0 {
				if raw, jsonErr := json.Marshal(query); jsonErr == nil {
					entry.Metadata = raw
				}
			}
			for _, name := range resourceParams {
				if v := c.Param(name); v != "" {
					entry.ResourceID = v
					break
				}
			}

			recorder.Record(context.WithoutCancel(c.Request().Context()), entry)
			return err
		}
	}
}

func status(c echo.Context, err error) int {
	if err == nil {
		return c.Response().Status
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return http.StatusInternalServerError
}
