// Package service implements the contact directory: attribute schema and
// values, contacts with their tags and notes, search, bulk CSV import and
// export, and the organization, user and project registries.
//
// Every operation that touches more than one row runs inside
// database.Transaction; services always reach the database through
// database.Conn so that nested calls join the caller's transaction.
package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"contact-service/internal/apperrors"
	"contact-service/internal/dto"
	"contact-service/internal/phone"
	"contact-service/internal/query"
	"contact-service/pkg/database"
	"contact-service/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Services bundles every service over one database
type Services struct {
	Schema        *AttributeSchemaService
	Values        *AttributeValueService
	Tags          *TagService
	Notes         *NoteService
	Contacts      *ContactService
	Assembler     *Assembler
	Import        *ImportService
	Export        *ExportService
	Organizations *OrganizationService
	Users         *UserService
	Projects      *ProjectService
}

// New wires all services. countryCode is prepended to 10-digit phone numbers.
func New(db *gorm.DB, countryCode string) *Services {
	normalizer := phone.NewNormalizer(countryCode)

	projects := NewProjectService(db)
	schema := NewAttributeSchemaService(db)
	values := NewAttributeValueService(db, schema)
	tags := NewTagService(db)
	notes := NewNoteService(db, projects)
	assembler := NewAssembler(db, values)

	return &Services{
		Schema:        schema,
		Values:        values,
		Tags:          tags,
		Notes:         notes,
		Contacts:      NewContactService(db, normalizer, schema, values, tags, notes, assembler),
		Assembler:     assembler,
		Import:        NewImportService(db, normalizer, schema, values),
		Export:        NewExportService(db, values),
		Organizations: NewOrganizationService(db),
		Users:         NewUserService(db),
		Projects:      projects,
	}
}

// normalizePhone normalizes raw to E.164 and warns about numbers that have
// the right shape but are not dialable in their region
func normalizePhone(ctx context.Context, n *phone.Normalizer, raw string) (string, error) {
	e164, err := n.Normalize(raw)
	if err != nil {
		return "", err
	}
	if !phone.IsValid(e164) {
		logger.FromContext(ctx).Warn("Phone number is not dialable",
			zap.String("phone", e164),
			zap.String("region", phone.Region(e164)))
	}
	return e164, nil
}

// dbError wraps a storage failure; not-found is left to the caller
func dbError(msg string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.System(msg, err)
}

// notFoundOr maps gorm's not-found onto a NotFound error and wraps anything else
func notFoundOr(err error, resource string, id interface{}, msg string) error {
	if database.IsNotFound(err) {
		return apperrors.NotFound(resource, id)
	}
	return dbError(msg, err)
}

func pageParams(p dto.ListParams) (int, int, error) {
	if p.Page < 0 {
		return 0, 0, apperrors.FieldValidation("Invalid pagination", map[string]string{"page": "must be at least 0"})
	}
	size := p.Size
	if size == 0 {
		size = query.DefaultPageSize
	}
	if size < 1 || size > query.MaxPageSize {
		return 0, 0, apperrors.FieldValidation("Invalid pagination", map[string]string{"size": "must be between 1 and 500"})
	}
	return p.Page, size, nil
}

// jsonOr returns raw as a JSON column value, or fallback when raw is empty
func jsonOr(raw []byte, fallback string) datatypes.JSON {
	if len(raw) == 0 || string(raw) == "null" {
		if fallback == "" {
			return nil
		}
		return datatypes.JSON(fallback)
	}
	return datatypes.JSON(raw)
}

var slugNoise = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify turns "Acme Corp, Ltd." into "acme-corp-ltd"
func Slugify(s string) string {
	s = slugNoise.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "-")
	s = strings.Trim(s, "-")
	if len(s) > 100 {
		s = strings.TrimRight(s[:100], "-")
	}
	return s
}

func uniqueUints(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// chunk splits ids so IN lists stay under driver parameter limits
func chunk(ids []uint, size int) [][]uint {
	var out [][]uint
	for len(ids) > size {
		out = append(out, ids[:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		out = append(out, ids)
	}
	return out
}

const inChunkSize = 500
