package handler

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"contact-service/internal/apperrors"
	"contact-service/internal/csvio"
	"contact-service/internal/dto"
	mid "contact-service/internal/middleware"
	"contact-service/internal/query"
	"contact-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const csvContentType = "text/csv; charset=utf-8"

func (h *Handler) registerContacts(g *echo.Group) {
	g.POST("/contacts", h.CreateContact)
	g.GET("/contacts", h.ListContacts)
	g.POST("/contacts/search", h.SearchContacts)
	g.POST("/contacts/import", h.ImportContacts)
	g.GET("/contacts/export", h.ExportContacts)
	g.GET("/contacts/sample-csv", h.SampleCSV)
	g.GET("/contacts/count", h.CountContacts)
	g.GET("/contacts/:id", h.GetContact)
	g.PUT("/contacts/:id", h.UpdateContact)
	g.DELETE("/contacts/:id", h.DeleteContact)
}

// CreateContact handles creating a contact with its attributes, tags and first note
func (h *Handler) CreateContact(c echo.Context) error {
	org, err := organizationID(c)
	if err != nil {
		return err
	}

	var req dto.CreateContactRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	detail, err := h.svc.Contacts.Create(c.Request().Context(), org, req, mid.UserID(c))
	if err != nil {
		return err
	}
	return created(c, "Contact created successfully", detail)
}

// GetContact returns the detail shape of one contact
func (h *Handler) GetContact(c echo.Context) error {
	org, id, err := scope(c)
	if err != nil {
		return err
	}

	detail, err := h.svc.Contacts.Get(c.Request().Context(), org, id)
	if err != nil {
		return err
	}
	return ok(c, detail)
}

// ListContacts searches contacts with criteria taken from the query string
func (h *Handler) ListContacts(c echo.Context) error {
	org, err := organizationID(c)
	if err != nil {
		return err
	}

	criteria, err := criteriaFromQuery(c)
	if err != nil {
		return err
	}
	return h.search(c, org, criteria)
}

// SearchContacts searches contacts with criteria sent as a JSON body
func (h *Handler) SearchContacts(c echo.Context) error {
	org, err := organizationID(c)
	if err != nil {
		return err
	}

	var criteria query.Criteria
	if err := c.Bind(&criteria); err != nil {
		logger.FromEcho(c).Warn("Invalid search request", zap.Error(err))
		return apperrors.Validation("Invalid request data")
	}
	return h.search(c, org, criteria)
}

func (h *Handler) search(c echo.Context, org uint, criteria query.Criteria) error {
	page, err := h.svc.Contacts.Search(c.Request().Context(), org, criteria)
	if err != nil {
		return err
	}
	return ok(c, page)
}

// UpdateContact replaces the name, phone and, when sent, the attributes and tags of a contact
func (h *Handler) UpdateContact(c echo.Context) error {
	org, id, err := scope(c)
	if err != nil {
		return err
	}

	var req dto.UpdateContactRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	detail, err := h.svc.Contacts.Update(c.Request().Context(), org, id, req, mid.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.OKMessage("Contact updated successfully", detail))
}

// DeleteContact removes a contact with its values, tag assignments and notes
func (h *Handler) DeleteContact(c echo.Context) error {
	org, id, err := scope(c)
	if err != nil {
		return err
	}

	if err := h.svc.Contacts.Delete(c.Request().Context(), org, id); err != nil {
		return err
	}
	return deleted(c, "Contact deleted successfully")
}

// CountContacts returns the number of contacts in the organization
func (h *Handler) CountContacts(c echo.Context) error {
	org, err := organizationID(c)
	if err != nil {
		return err
	}

	n, err := h.svc.Contacts.Count(c.Request().Context(), org)
	if err != nil {
		return err
	}
	return ok(c, dto.CountResponse{Count: n})
}

// ImportContacts handles a multipart CSV upload in the "file" field
func (h *Handler) ImportContacts(c echo.Context) error {
	org, err := organizationID(c)
	if err != nil {
		return err
	}
	log := logger.FromEcho(c)

	fh, err := c.FormFile("file")
	if err != nil {
		log.Warn("Import request without file", zap.Error(err))
		return apperrors.FieldValidation("File is required", map[string]string{"file": "is required"})
	}
	if !strings.EqualFold(filepath.Ext(fh.Filename), ".csv") {
		return apperrors.FieldValidation("Only CSV files are supported", map[string]string{"file": "must be a .csv file"})
	}
	if h.maxUploadBytes > 0 && fh.Size > h.maxUploadBytes {
		return apperrors.FieldValidation(
			fmt.Sprintf("File exceeds the maximum size of %d bytes", h.maxUploadBytes),
			map[string]string{"file": "is too large"},
		)
	}

	opts := dto.DefaultImportOptions()
	if opts.UpdateExisting, err = formBool(c, "updateExisting", opts.UpdateExisting); err != nil {
		return err
	}
	if opts.CreateNewAttributes, err = formBool(c, "createNewAttributes", opts.CreateNewAttributes); err != nil {
		return err
	}

	f, err := fh.Open()
	if err != nil {
		return apperrors.System("Failed to read uploaded file", err)
	}
	defer f.Close()

	log.Info("Importing contacts",
		zap.String("file", fh.Filename),
		zap.Int64("size", fh.Size),
		zap.Bool("update_existing", opts.UpdateExisting),
		zap.Bool("create_new_attributes", opts.CreateNewAttributes))

	summary, err := h.svc.Import.Import(c.Request().Context(), org, f, opts)
	if err != nil {
		return err
	}
	return ok(c, summary)
}

// ExportContacts streams every contact of the organization as CSV
func (h *Handler) ExportContacts(c echo.Context) error {
	org, err := organizationID(c)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	n, err := h.svc.Export.Export(c.Request().Context(), org, &buf)
	if err != nil {
		return err
	}

	logger.FromEcho(c).Info("Contacts exported", zap.Int("count", n))
	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename=contacts.csv")
	return c.Blob(http.StatusOK, csvContentType, buf.Bytes())
}

// SampleCSV returns the import template
func (h *Handler) SampleCSV(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename=sample_contacts.csv")
	return c.Blob(http.StatusOK, csvContentType, csvio.Sample())
}

// criteriaFromQuery reads a contact search from the query string.
// tagIds may repeat or be comma separated; dates are RFC3339 or YYYY-MM-DD,
// and a date upper bound includes that whole day.
func criteriaFromQuery(c echo.Context) (query.Criteria, error) {
	var criteria query.Criteria
	err := echo.QueryParamsBinder(c).
		String("search", &criteria.Search).
		String("phone", &criteria.Phone).
		String("source", &criteria.Source).
		String("attributeKey", &criteria.AttributeKey).
		String("attributeValue", &criteria.AttributeValue).
		String("attributeMatch", &criteria.AttributeMatch).
		Int("page", &criteria.Page).
		Int("size", &criteria.Size).
		String("sortBy", &criteria.SortBy).
		String("sortDirection", &criteria.SortDirection).
		BindError()
	if err != nil {
		var bindErr *echo.BindingError
		if errors.As(err, &bindErr) {
			return criteria, apperrors.FieldValidation("Invalid query parameter", map[string]string{bindErr.Field: "is invalid"})
		}
		return criteria, apperrors.Validation("Invalid query parameter")
	}

	if criteria.TagIDs, err = uintList(c.QueryParams()["tagIds"]); err != nil {
		return criteria, apperrors.FieldValidation("Invalid query parameter", map[string]string{"tagIds": "must be a list of positive integers"})
	}

	dates := []struct {
		name  string
		upper bool
		dst   **time.Time
	}{
		{"createdFrom", false, &criteria.CreatedFrom},
		{"createdTo", true, &criteria.CreatedTo},
		{"lastSeenFrom", false, &criteria.LastSeenFrom},
		{"lastSeenTo", true, &criteria.LastSeenTo},
	}
	for _, d := range dates {
		raw := strings.TrimSpace(c.QueryParam(d.name))
		if raw == "" {
			continue
		}
		t, err := query.ParseBound(raw, d.upper)
		if err != nil {
			return criteria, apperrors.FieldValidation("Invalid query parameter", map[string]string{d.name: "must be an RFC3339 timestamp or a YYYY-MM-DD date"})
		}
		*d.dst = &t
	}

	return criteria, nil
}

func uintList(values []string) ([]uint, error) {
	var ids []uint
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseUint(part, 10, 64)
			if err != nil || id == 0 {
				return nil, fmt.Errorf("invalid id %q", part)
			}
			ids = append(ids, uint(id))
		}
	}
	return ids, nil
}

// formBool reads an optional boolean form field
func formBool(c echo.Context, name string, fallback bool) (bool, error) {
	raw := strings.TrimSpace(c.FormValue(name))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, apperrors.FieldValidation("Invalid form field", map[string]string{name: "must be true or false"})
	}
	return v, nil
}
