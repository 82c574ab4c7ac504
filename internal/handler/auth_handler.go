package handler

import (
	"errors"

	"contact-service/internal/apperrors"
	"contact-service/internal/dto"
	"contact-service/internal/service"
	"contact-service/pkg/logger"
	"contact-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Login exchanges user credentials for a token carrying the organization_id
// claim. The user must be an active member of that organization.
func (h *Handler) Login(c echo.Context) error {
	log := logger.FromEcho(c)

	var req dto.LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	user, err := h.svc.Users.Authenticate(ctx, req.Email, req.Password, c.RealIP())
	if err != nil {
		outcome := "denied"
		if errors.Is(err, service.ErrInvalidCredentials) {
			outcome = "invalid_credentials"
		}
		prometheus.RecordLogin(outcome)
		log.Warn("Login failed", zap.String("email", req.Email), zap.String("outcome", outcome))
		return err
	}

	member, err := h.svc.Organizations.Membership(ctx, req.OrganizationID, user.ID)
	if err != nil {
		prometheus.RecordLogin("denied")
		log.Warn("Login refused for organization",
			zap.Uint("user_id", user.ID),
			zap.Uint("organization_id", req.OrganizationID),
			zap.Error(err))
		return err
	}

	token, err := h.jwt.GenerateTokenWithOrganization(user.Email, user.ID, &req.OrganizationID, string(member.Role))
	if err != nil {
		return apperrors.System("Failed to generate token", err)
	}

	prometheus.RecordLogin("success")
	log.Info("User logged in", zap.Uint("user_id", user.ID), zap.Uint("organization_id", req.OrganizationID))

	return ok(c, dto.LoginResponse{
		Token:          token,
		UserID:         user.ID,
		Email:          user.Email,
		OrganizationID: req.OrganizationID,
		Role:           string(member.Role),
	})
}
