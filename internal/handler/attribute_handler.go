package handler

import (
	"net/http"

	"contact-service/internal/apperrors"
	"contact-service/internal/dto"
	mid "contact-service/internal/middleware"

	"github.com/labstack/echo/v4"
)

func (h *Handler) registerAttributes(g *echo.Group) {
	defs := g.Group("/attribute-definitions")
	defs.POST("", h.CreateAttributeDefinition)
	defs.GET("", h.ListAttributeDefinitions)
	defs.GET("/:id", h.GetAttributeDefinition)
	defs.PUT("/:id", h.UpdateAttributeDefinition)
	defs.DELETE("/:id", h.DeleteAttributeDefinition)
	defs.POST("/:id/options", h.CreateAttributeOption)
	defs.GET("/:id/options", h.ListAttributeOptions)

	options := g.Group("/attribute-options")
	options.GET("/:id", h.GetAttributeOption)
	options.PUT("/:id", h.UpdateAttributeOption)
	options.DELETE("/:id", h.DeleteAttributeOption)

	values := g.Group("/contact-attribute-values")
	values.POST("", h.UpsertAttributeValue)
	values.GET("", h.ListAttributeValues)
	values.GET("/:id", h.GetAttributeValue)
	values.DELETE("/:id", h.DeleteAttributeValue)
}

func (h *Handler) CreateAttributeDefinition(c echo.Context) error {
	org, err := organizationID(c)
	if err != nil {
		return err
	}

	var req dto.AttributeDefinitionRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	def, err := h.svc.Schema.Create(c.Request().Context(), org, req, mid.UserID(c))
	if err != nil {
		return err
	}
	return created(c, "Attribute definition created successfully", def)
}

func (h *Handler) ListAttributeDefinitions(c echo.Context) error {
	org, err := organizationID(c)
	if err != nil {
		return err
	}

	defs, err := h.svc.Schema.ListByOrganization(c.Request().Context(), org)
	if err != nil {
		return err
	}
	return ok(c, defs)
}

func (h *Handler) GetAttributeDefinition(c echo.Context) error {
	org, id, err := scope(c)
	if err != nil {
		return err
	}

	def, err := h.svc.Schema.Get(c.Request().Context(), org, id)
	if err != nil {
		return err
	}
	return ok(c, def)
}

func (h *Handler) UpdateAttributeDefinition(c echo.Context) error {
	org, id, err := scope(c)
	if err != nil {
		return err
	}

	var req dto.UpdateAttributeDefinitionRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	def, err := h.svc.Schema.Update(c.Request().Context(), org, id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.OKMessage("Attribute definition updated successfully", def))
}

// DeleteAttributeDefinition removes a definition with its options and values
func (h *Handler) DeleteAttributeDefinition(c echo.Context) error {
	org, id, err := scope(c)
	if err != nil {
		return err
	}

	if err := h.svc.Schema.Delete(c.Request().Context(), org, id); err != nil {
		return err
	}
	return deleted(c, "Attribute definition deleted successfully")
}

func (h *Handler) CreateAttributeOption(c echo.Context) error {
	org, id, err := scope(c)
	if err != nil {
		return err
	}

	var req dto.AttributeOptionRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	option, err := h.svc.Schema.CreateOption(c.Request().Context(), org, id, req)
	if err != nil {
		return err
	}
	return created(c, "Attribute option created successfully", option)
}

func (h *Handler) ListAttributeOptions(c echo.Context) error {
	org, id, err := scope(c)
	if err != nil {
		return err
	}

	options, err := h.svc.Schema.ListOptions(c.Request().Context(), org, id)
	if err != nil {
		return err
	}
	return ok(c, options)
}

func (h *Handler) GetAttributeOption(c echo.Context) error {
	org, id, err := scope(c)
	if err != nil {
		return err
	}

	option, err := h.svc.Schema.GetOption(c.Request().Context(), org, id)
	if err != nil {
		return err
	}
	return ok(c, option)
}

func (h *Handler) UpdateAttributeOption(c echo.Context) error {
	org, id, err := scope(c)
	if err != nil {
		return err
	}

	var req dto.UpdateAttributeOptionRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	option, err := h.svc.Schema.UpdateOption(c.Request().Context(), org, id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.OKMessage("Attribute option updated successfully", option))
}

func (h *Handler) DeleteAttributeOption(c echo.Context) error {
	org, id, err := scope(c)
	if err != nil {
		return err
	}

	if err := h.svc.Schema.DeleteOption(c.Request().Context(), org, id); err != nil {
		return err
	}
	return deleted(c, "Attribute option deleted successfully")
}

// UpsertAttributeValue sets one attribute of a contact, by definition id or key
func (h *Handler) UpsertAttributeValue(c echo.Context) error {
	org, err := organizationID(c)
	if err != nil {
		return err
	}

	var req dto.AttributeValueRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.AttributeDefinitionID == 0 && req.AttributeKey == "" {
		return apperrors.FieldValidation("Attribute is required", map[string]string{
			"attributeDefinitionId": "attributeDefinitionId or attributeKey is required",
		})
	}

	value, err := h.svc.Values.UpsertRequest(c.Request().Context(), org, req)
	if err != nil {
		return err
	}
	return ok(c, value)
}

// ListAttributeValues lists the values of the contact in ?contactId=
func (h *Handler) ListAttributeValues(c echo.Context) error {
	org, err := organizationID(c)
	if err != nil {
		return err
	}

	contactID, err := queryID(c, "contactId")
	if err != nil {
		return err
	}

	values, err := h.svc.Values.ListByContact(c.Request().Context(), org, contactID)
	if err != nil {
		return err
	}
	return ok(c, values)
}

func (h *Handler) GetAttributeValue(c echo.Context) error {
	org, id, err := scope(c)
	if err != nil {
		return err
	}

	value, err := h.svc.Values.Get(c.Request().Context(), org, id)
	if err != nil {
		return err
	}
	return ok(c, value)
}

func (h *Handler) DeleteAttributeValue(c echo.Context) error {
	org, id, err := scope(c)
	if err != nil {
		return err
	}

	if err := h.svc.Values.Delete(c.Request().Context(), org, id); err != nil {
		return err
	}
	return deleted(c, "Attribute value deleted successfully")
}
