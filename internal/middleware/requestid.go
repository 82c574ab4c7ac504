package middleware

import (
	"contact-service/pkg/logger"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Context keys set by the middleware in this package
const (
	RequestIDKey      = "request_id"
	OrganizationIDKey = "organization_id"
	UserIDKey         = "user_id"
)

// RequestIDMiddleware tags each request with an id, reusing the caller's X-Request-ID when sent
func RequestIDMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := c.Request().Header.Get(echo.HeaderXRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Request().Header.Set(echo.HeaderXRequestID, requestID)
		c.Response().Header().Set(echo.HeaderXRequestID, requestID)
		c.Set(RequestIDKey, requestID)

		log := logger.GetLogger().With(zap.String("request_id", requestID))
		setLogger(c, log)

		return next(c)
	}
}

// setLogger stores log in the echo context and in the request's context.Context,
// so services called with c.Request().Context() log with the same fields
func setLogger(c echo.Context, log *zap.Logger) {
	logger.SetEcho(c, log)
	req := c.Request()
	c.SetRequest(req.WithContext(logger.WithContext(req.Context(), log)))
}
