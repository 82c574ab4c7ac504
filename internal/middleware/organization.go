package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"contact-service/internal/dto"
	"contact-service/pkg/jwtutil"
	"contact-service/pkg/logger"
	"contact-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// OrganizationHeader carries the organization id when no bearer token is sent
const OrganizationHeader = "X-Organization-ID"

// OrganizationMiddleware resolves the organization every tenant-scoped request
// works in. A bearer token wins over the header; with authRequired the token
// is mandatory.
func OrganizationMiddleware(jwt *jwtutil.JWTUtil, authRequired bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromEcho(c)

			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader != "" {
				parts := strings.Split(authHeader, " ")
				if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
					log.Warn("Invalid Authorization header format")
					return reject(c, http.StatusUnauthorized, "invalid_auth_header", "Invalid authorization format, expected Bearer token")
				}

				claims, err := jwt.ValidateToken(parts[1])
				if err != nil {
					log.Warn("Invalid JWT token", zap.Error(err))
					return reject(c, http.StatusUnauthorized, "invalid_token", "Invalid or expired token")
				}
				if claims.OrganizationID == nil || *claims.OrganizationID == 0 {
					log.Warn("JWT token does not contain organization_id", zap.Uint("user_id", claims.UserID))
					return reject(c, http.StatusBadRequest, "missing_claim", "organization_id is required in the token")
				}

				c.Set(UserIDKey, claims.UserID)
				return proceed(c, next, *claims.OrganizationID)
			}

			if authRequired {
				log.Warn("Missing Authorization header")
				return reject(c, http.StatusUnauthorized, "missing_token", "Missing authorization token")
			}

			raw := strings.TrimSpace(c.Request().Header.Get(OrganizationHeader))
			if raw == "" {
				return reject(c, http.StatusBadRequest, "missing_header", "Organization ID is required")
			}
			id, err := strconv.ParseUint(raw, 10, 64)
			if err != nil || id == 0 {
				log.Warn("Invalid organization header", zap.String("value", raw))
				return reject(c, http.StatusBadRequest, "invalid_header", "Invalid organization ID: "+raw)
			}

			return proceed(c, next, uint(id))
		}
	}
}

func proceed(c echo.Context, next echo.HandlerFunc, organizationID uint) error {
	c.Set(OrganizationIDKey, organizationID)
	setLogger(c, logger.FromEcho(c).With(zap.Uint("organization_id", organizationID)))
	return next(c)
}

func reject(c echo.Context, status int, reason, message string) error {
	prometheus.RecordOrganizationResolutionError(reason)
	return c.JSON(status, dto.ErrorResponse{Success: false, Message: message})
}

// OrganizationID returns the organization resolved for the request
func OrganizationID(c echo.Context) (uint, bool) {
	id, ok := c.Get(OrganizationIDKey).(uint)
	return id, ok && id != 0
}

// UserID returns the authenticated user, or nil for header-only requests
func UserID(c echo.Context) *uint {
	id, ok := c.Get(UserIDKey).(uint)
	if !ok || id == 0 {
		return nil
	}
	return &id
}
