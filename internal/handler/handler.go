// Package handler exposes the contact service over HTTP with echo.
package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"contact-service/internal/apperrors"
	"contact-service/internal/dto"
	mid "contact-service/internal/middleware"
	"contact-service/internal/service"
	"contact-service/internal/validation"
	"contact-service/pkg/jwtutil"
	"contact-service/pkg/logger"
	"contact-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Handler serves the REST API on top of the services
type Handler struct {
	svc            *service.Services
	jwt            *jwtutil.JWTUtil
	maxUploadBytes int64
}

// New creates a handler. maxUploadBytes caps the size of an import file.
func New(svc *service.Services, jwt *jwtutil.JWTUtil, maxUploadBytes int64) *Handler {
	return &Handler{svc: svc, jwt: jwt, maxUploadBytes: maxUploadBytes}
}

// Configure installs the request validator and the error envelope on e
func Configure(e *echo.Echo) {
	e.Validator = validation.New()
	e.HTTPErrorHandler = ErrorHandler
}

// Register mounts every /api/v1 route. Tenant-scoped routes run behind orgMiddleware;
// login and the organization and user registries do not.
func (h *Handler) Register(e *echo.Echo, orgMiddleware echo.MiddlewareFunc) {
	e.GET("/health", HealthCheck)
	e.GET("/metrics", echo.WrapHandler(prometheus.GetPrometheusHandler()))

	api := e.Group("/api/v1")
	api.POST("/auth/login", h.Login)

	h.registerOrganizations(api.Group("/organizations"))
	h.registerUsers(api.Group("/users"))

	scoped := api.Group("", orgMiddleware)
	h.registerContacts(scoped)
	h.registerAttributes(scoped)
	h.registerTags(scoped)
	h.registerNotes(scoped)
	h.registerProjects(scoped.Group("/projects"))
	h.registerMembers(scoped.Group("/members"))
}

// ErrorHandler renders every error in the failure envelope. System errors are
// logged in full and reach the caller only as a generic message.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		writeError(c, httpErr.Code, dto.ErrorResponse{Message: fmt.Sprint(httpErr.Message)})
		return
	}

	appErr := apperrors.As(err)
	prometheus.RecordErrorResponse(string(appErr.Kind))

	resp := dto.ErrorResponse{Message: appErr.Message, Errors: appErr.Fields, Data: appErr.Data}
	if appErr.Kind == apperrors.KindSystem {
		logger.FromEcho(c).Error("Request failed", zap.Error(err))
		resp = dto.ErrorResponse{Message: apperrors.GenericSystemMessage}
	}
	writeError(c, appErr.HTTPStatus(), resp)
}

func writeError(c echo.Context, status int, resp dto.ErrorResponse) {
	resp.Success = false
	var err error
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, resp)
	}
	if err != nil {
		logger.FromEcho(c).Error("Failed to write error response", zap.Error(err))
	}
}

// bind decodes the request into req and validates it
func bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		logger.FromEcho(c).Warn("Invalid request data", zap.Error(err))
		return apperrors.Validation("Invalid request data")
	}
	return c.Validate(req)
}

// idParam reads a positive numeric path parameter
func idParam(c echo.Context, name string) (uint, error) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.FieldValidation("Invalid path parameter", map[string]string{name: "must be a positive integer"})
	}
	return uint(id), nil
}

// organizationID returns the organization resolved by the middleware
func organizationID(c echo.Context) (uint, error) {
	id, found := mid.OrganizationID(c)
	if !found {
		return 0, apperrors.Validation("Organization ID is required")
	}
	return id, nil
}

// scope reads the organization and the :id path parameter of a tenant-scoped route
func scope(c echo.Context) (uint, uint, error) {
	org, err := organizationID(c)
	if err != nil {
		return 0, 0, err
	}
	id, err := idParam(c, "id")
	if err != nil {
		return 0, 0, err
	}
	return org, id, nil
}

func ok(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, dto.OK(data))
}

func created(c echo.Context, message string, data interface{}) error {
	return c.JSON(http.StatusCreated, dto.OKMessage(message, data))
}

func deleted(c echo.Context, message string) error {
	return c.JSON(http.StatusOK, dto.OKMessage(message, nil))
}
