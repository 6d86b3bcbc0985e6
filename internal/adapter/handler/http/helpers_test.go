package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dheerajsingh9334/mern-Blog/internal/middleware/auth"
	"github.com/dheerajsingh9334/mern-Blog/pkg/logger"
)

const (
	testUserHeader = "X-Test-User"
	testRoleHeader = "X-Test-Role"
)

// newTestEcho builds an echo instance with the production validator and
// error handler. Requests carrying X-Test-User are treated as authenticated.
func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewRequestValidator()
	logger.WithEchoLogger(e, zap.NewNop())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if id := c.Request().Header.Get(testUserHeader); id != "" {
				auth.WithUser(c, &auth.AuthUser{UserID: id, Role: c.Request().Header.Get(testRoleHeader)})
			}
			return next(c)
		}
	})
	return e
}

type testRequest struct {
	method string
	path   string
	body   string
	user   string
	role   string
	header map[string]string
}

func do(t *testing.T, h http.Handler, r testRequest) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if r.body != "" {
		body = strings.NewReader(r.body)
	}
	req := httptest.NewRequest(r.method, r.path, body)
	if r.body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if r.user != "" {
		req.Header.Set(testUserHeader, r.user)
		req.Header.Set(testRoleHeader, r.role)
	}
	for k, v := range r.header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	code, _ := decode(t, rec)["code"].(string)
	return code
}
