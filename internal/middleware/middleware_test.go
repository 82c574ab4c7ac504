package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"contact-service/pkg/config"
	"contact-service/pkg/jwtutil"
	"contact-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var testJWT = jwtutil.NewJWTUtil(&config.JWTConfig{SigningKey: "test-key", ExpirationHours: 1})

type resolved struct {
	org    uint
	ok     bool
	userID *uint
}

func newEcho(authRequired bool, got *resolved) *echo.Echo {
	e := echo.New()
	e.Use(RequestIDMiddleware)
	e.GET("/contacts", func(c echo.Context) error {
		got.org, got.ok = OrganizationID(c)
		got.userID = UserID(c)
		return c.NoContent(http.StatusNoContent)
	}, OrganizationMiddleware(testJWT, authRequired))
	return e
}

func serve(e *echo.Echo, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/contacts", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func token(t *testing.T, org *uint) string {
	t.Helper()
	tok, err := testJWT.GenerateTokenWithOrganization("ann@example.com", 7, org, "admin")
	require.NoError(t, err)
	return "Bearer " + tok
}

func TestOrganization_FromHeader(t *testing.T) {
	var got resolved
	rec := serve(newEcho(false, &got), map[string]string{OrganizationHeader: "42"})

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, got.ok)
	assert.Equal(t, uint(42), got.org)
	assert.Nil(t, got.userID)
}

func TestOrganization_TokenWinsOverHeader(t *testing.T) {
	var got resolved
	org := uint(5)
	rec := serve(newEcho(false, &got), map[string]string{
		echo.HeaderAuthorization: token(t, &org),
		OrganizationHeader:       "42",
	})

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, uint(5), got.org)
	require.NotNil(t, got.userID)
	assert.Equal(t, uint(7), *got.userID)
}

func TestOrganization_Rejections(t *testing.T) {
	tests := []struct {
		name         string
		authRequired bool
		headers      map[string]string
		status       int
	}{
		{"missing header", false, nil, http.StatusBadRequest},
		{"non numeric header", false, map[string]string{OrganizationHeader: "abc"}, http.StatusBadRequest},
		{"zero header", false, map[string]string{OrganizationHeader: "0"}, http.StatusBadRequest},
		{"token required", true, map[string]string{OrganizationHeader: "42"}, http.StatusUnauthorized},
		{"malformed authorization", false, map[string]string{echo.HeaderAuthorization: "Token abc"}, http.StatusUnauthorized},
		{"bad token", false, map[string]string{echo.HeaderAuthorization: "Bearer not-a-jwt"}, http.StatusUnauthorized},
		{"token without organization", false, map[string]string{echo.HeaderAuthorization: token(t, nil)}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got resolved
			rec := serve(newEcho(tt.authRequired, &got), tt.headers)
			assert.Equal(t, tt.status, rec.Code)
			assert.False(t, got.ok)
			assert.Contains(t, rec.Body.String(), `"success":false`)
		})
	}
}

func TestRequestID_ReusesCallerID(t *testing.T) {
	var got resolved
	e := newEcho(false, &got)

	rec := serve(e, map[string]string{OrganizationHeader: "1", echo.HeaderXRequestID: "req-1"})
	assert.Equal(t, "req-1", rec.Header().Get(echo.HeaderXRequestID))

	rec = serve(e, map[string]string{OrganizationHeader: "1"})
	assert.Len(t, rec.Header().Get(echo.HeaderXRequestID), 36)
}

func TestRequestLoggerCarriesOrganization(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	zap.ReplaceGlobals(zap.New(core))
	t.Cleanup(func() { zap.ReplaceGlobals(zap.NewNop()) })

	e := echo.New()
	e.Use(RequestIDMiddleware)
	e.GET("/contacts", func(c echo.Context) error {
		logger.FromContext(c.Request().Context()).Info("listing")
		return c.NoContent(http.StatusNoContent)
	}, OrganizationMiddleware(testJWT, false))

	serve(e, map[string]string{OrganizationHeader: "9", echo.HeaderXRequestID: "req-9"})

	entries := logs.FilterMessage("listing").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, uint64(9), fields["organization_id"])
	assert.Equal(t, "req-9", fields["request_id"])
}

func TestMetricsMiddleware_PassesThrough(t *testing.T) {
	e := echo.New()
	e.Use(MetricsMiddleware)
	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
