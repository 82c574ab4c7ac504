package handler

import (
	"context"
	"net/http"

	"contact-service/internal/dto"
	mid "contact-service/internal/middleware"
	"contact-service/internal/model"

	"github.com/labstack/echo/v4"
)

func (h *Handler) registerProjects(g *echo.Group) {
	g.POST("", h.CreateProject)
	g.GET("", h.ListProjects)
	g.GET("/:id", h.GetProject)
	g.PUT("/:id", h.UpdateProject)
	g.POST("/:id/archive", h.ArchiveProject)
	g.POST("/:id/restore", h.RestoreProject)
	g.DELETE("/:id", h.DeleteProject)
}

func (h *Handler) registerOrganizations(g *echo.Group) {
	g.POST("", h.CreateOrganization)
	g.GET("", h.ListOrganizations)
	g.GET("/uuid/:uuid", h.GetOrganizationByUUID)
	g.GET("/slug/:slug", h.GetOrganizationBySlug)
	g.GET("/:id", h.GetOrganization)
	g.PUT("/:id", h.UpdateOrganization)
	g.DELETE("/:id", h.DeleteOrganization)
	g.DELETE("/:id/hard", h.HardDeleteOrganization)
}

func (h *Handler) registerUsers(g *echo.Group) {
	g.POST("", h.CreateUser)
	g.GET("", h.ListUsers)
	g.GET("/:id", h.GetUser)
	g.PUT("/:id", h.UpdateUser)
	g.POST("/:id/verify-email", h.VerifyUserEmail)
	g.POST("/:id/verify-phone", h.VerifyUserPhone)
	g.POST("/:id/block", h.BlockUser)
	g.POST("/:id/unblock", h.UnblockUser)
	g.DELETE("/:id", h.DeleteUser)
	g.DELETE("/:id/hard", h.HardDeleteUser)
}

func (h *Handler) CreateProject(c echo.Context) error {
	org, err := organizationID(c)
	if err != nil {
		return err
	}

	var req dto.ProjectRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	project, err := h.svc.Projects.Create(c.Request().Context(), org, req, mid.UserID(c))
	if err != nil {
		return err
	}
	return created(c, "Project created successfully", project)
}

func (h *Handler) ListProjects(c echo.Context) error {
	org, err := organizationID(c)
	if err != nil {
		return err
	}

	var params dto.ProjectListParams
	if err := bind(c, &params); err != nil {
		return err
	}

	page, err := h.svc.Projects.List(c.Request().Context(), org, params)
	if err != nil {
		return err
	}
	return ok(c, page)
}

func (h *Handler) GetProject(c echo.Context) error {
	org, id, err := scope(c)
	if err != nil {
		return err
	}

	project, err := h.svc.Projects.Get(c.Request().Context(), org, id)
	if err != nil {
		return err
	}
	return ok(c, project)
}

func (h *Handler) UpdateProject(c echo.Context) error {
	org, id, err := scope(c)
	if err != nil {
		return err
	}

	var req dto.UpdateProjectRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	project, err := h.svc.Projects.Update(c.Request().Context(), org, id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.OKMessage("Project updated successfully", project))
}

func (h *Handler) ArchiveProject(c echo.Context) error {
	org, id, err := scope(c)
	if err != nil {
		return err
	}

	project, err := h.svc.Projects.Archive(c.Request().Context(), org, id, mid.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.OKMessage("Project archived successfully", project))
}

func (h *Handler) RestoreProject(c echo.Context) error {
	org, id, err := scope(c)
	if err != nil {
		return err
	}

	project, err := h.svc.Projects.Restore(c.Request().Context(), org, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.OKMessage("Project restored successfully", project))
}

func (h *Handler) DeleteProject(c echo.Context) error {
	org, id, err := scope(c)
	if err != nil {
		return err
	}

	if err := h.svc.Projects.SoftDelete(c.Request().Context(), org, id); err != nil {
		return err
	}
	return deleted(c, "Project deleted successfully")
}

func (h *Handler) CreateOrganization(c echo.Context) error {
	var req dto.OrganizationRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	org, err := h.svc.Organizations.Create(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return created(c, "Organization created successfully", org)
}

func (h *Handler) ListOrganizations(c echo.Context) error {
	var params dto.OrganizationListParams
	if err := bind(c, &params); err != nil {
		return err
	}

	page, err := h.svc.Organizations.List(c.Request().Context(), params)
	if err != nil {
		return err
	}
	return ok(c, page)
}

func (h *Handler) GetOrganization(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}

	org, err := h.svc.Organizations.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return ok(c, org)
}

func (h *Handler) GetOrganizationByUUID(c echo.Context) error {
	org, err := h.svc.Organizations.GetByUUID(c.Request().Context(), c.Param("uuid"))
	if err != nil {
		return err
	}
	return ok(c, org)
}

func (h *Handler) GetOrganizationBySlug(c echo.Context) error {
	org, err := h.svc.Organizations.GetBySlug(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return err
	}
	return ok(c, org)
}

func (h *Handler) UpdateOrganization(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}

	var req dto.UpdateOrganizationRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	org, err := h.svc.Organizations.Update(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.OKMessage("Organization updated successfully", org))
}

// DeleteOrganization marks the organization cancelled and soft deletes it
func (h *Handler) DeleteOrganization(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.svc.Organizations.SoftDelete(c.Request().Context(), id); err != nil {
		return err
	}
	return deleted(c, "Organization deleted successfully")
}

// HardDeleteOrganization removes an organization that no longer has contacts
func (h *Handler) HardDeleteOrganization(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.svc.Organizations.HardDelete(c.Request().Context(), id); err != nil {
		return err
	}
	return deleted(c, "Organization permanently deleted")
}

func (h *Handler) CreateUser(c echo.Context) error {
	var req dto.UserRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.svc.Users.Create(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return created(c, "User created successfully", user)
}

func (h *Handler) ListUsers(c echo.Context) error {
	var params dto.ListParams
	if err := bind(c, &params); err != nil {
		return err
	}

	page, err := h.svc.Users.List(c.Request().Context(), params)
	if err != nil {
		return err
	}
	return ok(c, page)
}

func (h *Handler) GetUser(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}

	user, err := h.svc.Users.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return ok(c, user)
}

func (h *Handler) UpdateUser(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}

	var req dto.UpdateUserRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.svc.Users.Update(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.OKMessage("User updated successfully", user))
}

func (h *Handler) VerifyUserEmail(c echo.Context) error {
	return h.userAction(c, "Email verified successfully", h.svc.Users.VerifyEmail)
}

func (h *Handler) VerifyUserPhone(c echo.Context) error {
	return h.userAction(c, "Phone verified successfully", h.svc.Users.VerifyPhone)
}

func (h *Handler) BlockUser(c echo.Context) error {
	return h.userAction(c, "User blocked successfully", h.svc.Users.Block)
}

func (h *Handler) UnblockUser(c echo.Context) error {
	return h.userAction(c, "User unblocked successfully", h.svc.Users.Unblock)
}

// userAction runs a status transition on the user in the path
func (h *Handler) userAction(c echo.Context, message string, fn func(context.Context, uint) (*model.User, error)) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}

	user, err := fn(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.OKMessage(message, user))
}

func (h *Handler) DeleteUser(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.svc.Users.SoftDelete(c.Request().Context(), id); err != nil {
		return err
	}
	return deleted(c, "User deleted successfully")
}

func (h *Handler) HardDeleteUser(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.svc.Users.HardDelete(c.Request().Context(), id); err != nil {
		return err
	}
	return deleted(c, "User permanently deleted")
}
