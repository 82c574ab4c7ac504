package handler

import (
	"contact-service/internal/apperrors"
	"contact-service/internal/dto"
	mid "contact-service/internal/middleware"

	"github.com/labstack/echo/v4"
)

func (h *Handler) registerMembers(g *echo.Group) {
	g.POST("", h.AddMember)
	g.GET("", h.ListMembers)
	g.PUT("/:userId", h.UpdateMember)
	g.DELETE("/:userId", h.RemoveMember)
}

// requireManager lets a token caller change membership only as an owner or
// admin of the organization. Header-only requests carry no user and pass.
func (h *Handler) requireManager(c echo.Context, org uint) error {
	userID := mid.UserID(c)
	if userID == nil {
		return nil
	}
	member, err := h.svc.Organizations.Membership(c.Request().Context(), org, *userID)
	if err != nil {
		return err
	}
	if !member.Role.CanManage() {
		return apperrors.AccessDenied("Only owners and admins can manage members")
	}
	return nil
}

func (h *Handler) AddMember(c echo.Context) error {
	org, err := organizationID(c)
	if err != nil {
		return err
	}
	if err := h.requireManager(c, org); err != nil {
		return err
	}

	var req dto.MemberRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	member, err := h.svc.Organizations.AddMember(c.Request().Context(), org, req)
	if err != nil {
		return err
	}
	return created(c, "Member added successfully", member)
}

func (h *Handler) ListMembers(c echo.Context) error {
	org, err := organizationID(c)
	if err != nil {
		return err
	}

	members, err := h.svc.Organizations.ListMembers(c.Request().Context(), org)
	if err != nil {
		return err
	}
	return ok(c, members)
}

func (h *Handler) UpdateMember(c echo.Context) error {
	org, err := organizationID(c)
	if err != nil {
		return err
	}
	userID, err := idParam(c, "userId")
	if err != nil {
		return err
	}
	if err := h.requireManager(c, org); err != nil {
		return err
	}

	var req dto.UpdateMemberRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	member, err := h.svc.Organizations.UpdateMember(c.Request().Context(), org, userID, req)
	if err != nil {
		return err
	}
	return ok(c, member)
}

func (h *Handler) RemoveMember(c echo.Context) error {
	org, err := organizationID(c)
	if err != nil {
		return err
	}
	userID, err := idParam(c, "userId")
	if err != nil {
		return err
	}
	if err := h.requireManager(c, org); err != nil {
		return err
	}

	if err := h.svc.Organizations.RemoveMember(c.Request().Context(), org, userID); err != nil {
		return err
	}
	return deleted(c, "Member removed successfully")
}
