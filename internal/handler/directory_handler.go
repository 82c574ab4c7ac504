package handler

import (
	"net/http"
	"strconv"
	"strings"

	"contact-service/internal/apperrors"
	"contact-service/internal/dto"
	mid "contact-service/internal/middleware"
	"contact-service/internal/model"

	"github.com/labstack/echo/v4"
)

func (h *Handler) registerTags(g *echo.Group) {
	tags := g.Group("/contact-tags")
	tags.POST("", h.CreateTag)
	tags.GET("", h.ListTags)
	tags.GET("/:id", h.GetTag)
	tags.PUT("/:id", h.UpdateTag)
	tags.DELETE("/:id", h.DeleteTag)

	assignments := g.Group("/contact-tag-assignments")
	assignments.POST("", h.AssignTag)
	assignments.GET("", h.ListTagAssignments)
	assignments.DELETE("/:id", h.DeleteTagAssignment)
	assignments.DELETE("/contact/:contactId/tag/:tagId", h.UnassignTag)
}

func (h *Handler) registerNotes(g *echo.Group) {
	g.POST("/contacts/:id/notes", h.CreateNote)
	g.GET("/contacts/:id/notes", h.ListNotes)
	g.GET("/notes/:id", h.GetNote)
	g.PUT("/notes/:id", h.UpdateNote)
	g.DELETE("/notes/:id", h.DeleteNote)
}

func (h *Handler) CreateTag(c echo.Context) error {
	org, err := organizationID(c)
	if err != nil {
		return err
	}

	var req dto.TagRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	tag, err := h.svc.Tags.Create(c.Request().Context(), org, req, mid.UserID(c))
	if err != nil {
		return err
	}
	return created(c, "Tag created successfully", tag)
}

// ListTags lists the organization's tags, filtered by ?active= when given
func (h *Handler) ListTags(c echo.Context) error {
	org, err := organizationID(c)
	if err != nil {
		return err
	}

	var active *bool
	if raw := strings.TrimSpace(c.QueryParam("active")); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return apperrors.FieldValidation("Invalid query parameter", map[string]string{"active": "must be true or false"})
		}
		active = &v
	}

	tags, err := h.svc.Tags.List(c.Request().Context(), org, active)
	if err != nil {
		return err
	}
	return ok(c, tags)
}

func (h *Handler) GetTag(c echo.Context) error {
	org, id, err := scope(c)
	if err != nil {
		return err
	}

	tag, err := h.svc.Tags.Get(c.Request().Context(), org, id)
	if err != nil {
		return err
	}
	return ok(c, tag)
}

func (h *Handler) UpdateTag(c echo.Context) error {
	org, id, err := scope(c)
	if err != nil {
		return err
	}

	var req dto.UpdateTagRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	tag, err := h.svc.Tags.Update(c.Request().Context(), org, id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.OKMessage("Tag updated successfully", tag))
}

func (h *Handler) DeleteTag(c echo.Context) error {
	org, id, err := scope(c)
	if err != nil {
		return err
	}

	if err := h.svc.Tags.Delete(c.Request().Context(), org, id); err != nil {
		return err
	}
	return deleted(c, "Tag deleted successfully")
}

func (h *Handler) AssignTag(c echo.Context) error {
	org, err := organizationID(c)
	if err != nil {
		return err
	}

	var req dto.TagAssignmentRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	assignment, err := h.svc.Tags.Assign(c.Request().Context(), req.ContactID, req.TagID, org, mid.UserID(c))
	if err != nil {
		return err
	}
	return created(c, "Tag assigned successfully", assignment)
}

// ListTagAssignments lists assignments by ?contactId= or ?tagId=
func (h *Handler) ListTagAssignments(c echo.Context) error {
	org, err := organizationID(c)
	if err != nil {
		return err
	}

	var assignments []model.ContactTagAssignment
	switch {
	case c.QueryParam("contactId") != "":
		contactID, err := queryID(c, "contactId")
		if err != nil {
			return err
		}
		assignments, err = h.svc.Tags.ListByContact(c.Request().Context(), org, contactID)
		if err != nil {
			return err
		}
	case c.QueryParam("tagId") != "":
		tagID, err := queryID(c, "tagId")
		if err != nil {
			return err
		}
		assignments, err = h.svc.Tags.ListByTag(c.Request().Context(), org, tagID)
		if err != nil {
			return err
		}
	default:
		return apperrors.Validation("contactId or tagId is required")
	}
	return ok(c, assignments)
}

func (h *Handler) DeleteTagAssignment(c echo.Context) error {
	org, id, err := scope(c)
	if err != nil {
		return err
	}

	if err := h.svc.Tags.DeleteAssignment(c.Request().Context(), org, id); err != nil {
		return err
	}
	return deleted(c, "Tag assignment deleted successfully")
}

func (h *Handler) UnassignTag(c echo.Context) error {
	org, err := organizationID(c)
	if err != nil {
		return err
	}
	contactID, err := idParam(c, "contactId")
	if err != nil {
		return err
	}
	tagID, err := idParam(c, "tagId")
	if err != nil {
		return err
	}

	if err := h.svc.Tags.Unassign(c.Request().Context(), org, contactID, tagID); err != nil {
		return err
	}
	return deleted(c, "Tag unassigned successfully")
}

// CreateNote adds a note to the contact in the path
func (h *Handler) CreateNote(c echo.Context) error {
	org, contactID, err := scope(c)
	if err != nil {
		return err
	}

	var req dto.NoteRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	note, err := h.svc.Notes.Create(c.Request().Context(), org, contactID, req, mid.UserID(c))
	if err != nil {
		return err
	}
	return created(c, "Note created successfully", note)
}

// ListNotes lists a contact's notes, newest first
func (h *Handler) ListNotes(c echo.Context) error {
	org, contactID, err := scope(c)
	if err != nil {
		return err
	}

	notes, err := h.svc.Notes.ListByContact(c.Request().Context(), org, contactID)
	if err != nil {
		return err
	}
	return ok(c, notes)
}

func (h *Handler) GetNote(c echo.Context) error {
	org, id, err := scope(c)
	if err != nil {
		return err
	}

	note, err := h.svc.Notes.Get(c.Request().Context(), org, id)
	if err != nil {
		return err
	}
	return ok(c, note)
}

func (h *Handler) UpdateNote(c echo.Context) error {
	org, id, err := scope(c)
	if err != nil {
		return err
	}

	var req dto.UpdateNoteRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	note, err := h.svc.Notes.Update(c.Request().Context(), org, id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.OKMessage("Note updated successfully", note))
}

func (h *Handler) DeleteNote(c echo.Context) error {
	org, id, err := scope(c)
	if err != nil {
		return err
	}

	if err := h.svc.Notes.Delete(c.Request().Context(), org, id); err != nil {
		return err
	}
	return deleted(c, "Note deleted successfully")
}

// queryID reads a positive numeric query parameter
func queryID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.QueryParam(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.FieldValidation("Invalid query parameter", map[string]string{name: "must be a positive integer"})
	}
	return uint(id), nil
}
