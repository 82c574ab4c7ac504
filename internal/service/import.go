package service

import (
	"context"
	"io"
	"time"

	"contact-service/internal/apperrors"
	"contact-service/internal/csvio"
	"contact-service/internal/dto"
	"contact-service/internal/model"
	"contact-service/internal/phone"
	"contact-service/pkg/database"
	"contact-service/pkg/logger"
	"contact-service/prometheus"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type rowOutcome int

const (
	rowCreated rowOutcome = iota
	rowUpdated
	rowSkipped
)

// ImportService loads contacts in bulk from CSV
type ImportService struct {
	db         *gorm.DB
	normalizer *phone.Normalizer
	schema     *AttributeSchemaService
	values     *AttributeValueService
}

func NewImportService(db *gorm.DB, normalizer *phone.Normalizer, schema *AttributeSchemaService, values *AttributeValueService) *ImportService {
	return &ImportService{db: db, normalizer: normalizer, schema: schema, values: values}
}

// importState is shared by the rows of one import. Entries are added only
// after a row's savepoint has been released.
type importState struct {
	organizationID uint
	opts           dto.ImportOptions
	contacts       map[string]*model.Contact
	definitions    map[string]*model.AttributeDefinition
}

// Import parses r and imports its rows into the organization
func (s *ImportService) Import(ctx context.Context, organizationID uint, r io.Reader, opts dto.ImportOptions) (*dto.ImportSummary, error) {
	doc, err := csvio.Parse(r)
	if err != nil {
		logger.FromContext(ctx).Warn("Rejected import file",
			zap.Uint("organization_id", organizationID),
			zap.Error(err))
		return nil, err
	}
	return s.ImportDocument(ctx, organizationID, doc, opts)
}

// ImportDocument imports parsed rows in one transaction. Each row runs in
// its own savepoint, so a failing row is rolled back and reported while the
// others commit together.
func (s *ImportService) ImportDocument(ctx context.Context, organizationID uint, doc *csvio.Document, opts dto.ImportOptions) (*dto.ImportSummary, error) {
	log := logger.FromContext(ctx)
	start := time.Now()
	defer prometheus.TrackDBOperation("contact_import")(start)

	log.Info("Starting contact import",
		zap.Uint("organization_id", organizationID),
		zap.String("format", string(doc.Format)),
		zap.Int("rows", len(doc.Rows)),
		zap.Strings("attribute_keys", doc.AttributeKeys),
		zap.Bool("update_existing", opts.UpdateExisting),
		zap.Bool("create_new_attributes", opts.CreateNewAttributes))

	summary := &dto.ImportSummary{Errors: []dto.ImportError{}}

	err := database.Transaction(ctx, s.db, func(ctx context.Context, tx *gorm.DB) error {
		state, err := s.preload(ctx, organizationID, opts)
		if err != nil {
			return err
		}

		for _, row := range doc.Rows {
			summary.TotalProcessed++

			outcome, err := s.importRow(ctx, state, row)
			if err != nil {
				summary.FailedCount++
				summary.Errors = append(summary.Errors, s.rowError(ctx, row, err))
				continue
			}

			summary.SuccessCount++
			switch outcome {
			case rowCreated:
				summary.CreatedCount++
			case rowUpdated:
				summary.UpdatedCount++
			case rowSkipped:
				summary.SkippedCount++
			}
		}
		return nil
	})
	if err != nil {
		log.Error("Contact import failed",
			zap.Uint("organization_id", organizationID),
			zap.Error(err))
		return nil, dbError("Failed to import contacts", err)
	}

	prometheus.ImportDuration.Observe(time.Since(start).Seconds())
	prometheus.RecordImportRows(summary.CreatedCount, summary.UpdatedCount, summary.SkippedCount, summary.FailedCount)

	log.Info("Contact import completed",
		zap.Uint("organization_id", organizationID),
		zap.Int("total", summary.TotalProcessed),
		zap.Int("success", summary.SuccessCount),
		zap.Int("failed", summary.FailedCount),
		zap.Int("created", summary.CreatedCount),
		zap.Int("updated", summary.UpdatedCount),
		zap.Int("skipped", summary.SkippedCount),
		zap.Duration("duration", time.Since(start)))
	return summary, nil
}

func (s *ImportService) preload(ctx context.Context, organizationID uint, opts dto.ImportOptions) (*importState, error) {
	conn := database.Conn(ctx, s.db)

	var contacts []model.Contact
	if err := conn.Where("organization_id = ?", organizationID).Find(&contacts).Error; err != nil {
		return nil, dbError("Failed to load contacts", err)
	}
	var defs []model.AttributeDefinition
	if err := conn.Where("organization_id = ?", organizationID).Find(&defs).Error; err != nil {
		return nil, dbError("Failed to load attribute definitions", err)
	}

	state := &importState{
		organizationID: organizationID,
		opts:           opts,
		contacts:       make(map[string]*model.Contact, len(contacts)),
		definitions:    make(map[string]*model.AttributeDefinition, len(defs)),
	}
	for i := range contacts {
		state.contacts[contacts[i].PhoneNumber] = &contacts[i]
	}
	for i := range defs {
		state.definitions[defs[i].Key] = &defs[i]
	}
	return state, nil
}

func (s *ImportService) importRow(ctx context.Context, state *importState, row csvio.Row) (rowOutcome, error) {
	e164, err := normalizePhone(ctx, s.normalizer, row.Phone)
	if err != nil {
		return 0, err
	}

	existing := state.contacts[e164]
	if existing != nil && !state.opts.UpdateExisting {
		logger.FromContext(ctx).Debug("Skipped existing contact",
			zap.Int("row", row.Number),
			zap.String("phone", e164))
		return rowSkipped, nil
	}

	var (
		contact *model.Contact
		outcome rowOutcome
		created = make(map[string]*model.AttributeDefinition)
	)
	err = database.Transaction(ctx, s.db, func(ctx context.Context, tx *gorm.DB) error {
		if existing != nil {
			updated := *existing
			updated.DisplayName = row.Name
			if err := tx.Save(&updated).Error; err != nil {
				return dbError("Failed to update contact", err)
			}
			contact, outcome = &updated, rowUpdated
		} else {
			now := time.Now().UTC()
			fresh := &model.Contact{
				OrganizationID: state.organizationID,
				PhoneNumber:    e164,
				WaID:           phone.WaID(e164),
				DisplayName:    row.Name,
				Source:         model.ContactSourceImport,
				FirstSeenAt:    &now,
			}
			err := tx.Create(fresh).Error
			if database.IsUniqueViolation(err) {
				return apperrors.Duplicate("Contact with phone number " + e164 + " already exists")
			}
			if err != nil {
				return dbError("Failed to create contact", err)
			}
			contact, outcome = fresh, rowCreated
		}

		for _, attr := range row.Attributes {
			def, err := s.definition(ctx, state, created, attr.Key)
			if err != nil {
				return err
			}
			if def == nil {
				continue
			}
			if _, err := s.values.Upsert(ctx, contact.ID, def, attr.Value, model.UpdatedSourceIntegration); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	state.contacts[e164] = contact
	for k, def := range created {
		state.definitions[k] = def
	}
	return outcome, nil
}

// definition resolves key from the import cache, creating it when allowed.
// A nil definition means the column is ignored for this import.
func (s *ImportService) definition(ctx context.Context, state *importState, created map[string]*model.AttributeDefinition, key string) (*model.AttributeDefinition, error) {
	if def, ok := state.definitions[key]; ok {
		return def, nil
	}
	if def, ok := created[key]; ok {
		return def, nil
	}
	if !state.opts.CreateNewAttributes {
		logger.FromContext(ctx).Warn("Attribute definition not found and creation disabled",
			zap.Uint("organization_id", state.organizationID),
			zap.String("key", key))
		return nil, nil
	}

	def, err := s.schema.ResolveOrCreate(ctx, state.organizationID, key, true)
	if err != nil {
		return nil, err
	}
	created[key] = def
	return def, nil
}

func (s *ImportService) rowError(ctx context.Context, row csvio.Row, err error) dto.ImportError {
	appErr := apperrors.As(err)
	out := dto.ImportError{
		RowNumber:    row.Number,
		PhoneNumber:  row.Phone,
		Name:         row.Name,
		ErrorMessage: appErr.Message,
	}

	switch appErr.Kind {
	case apperrors.KindValidation, apperrors.KindInvalidAttributeValue:
		out.ErrorType = dto.ImportErrorValidation
	case apperrors.KindDuplicate:
		out.ErrorType = dto.ImportErrorDuplicate
	default:
		out.ErrorType = dto.ImportErrorSystem
		out.ErrorMessage = "System error: " + appErr.Message
		logger.FromContext(ctx).Error("Import row failed",
			zap.Int("row", row.Number),
			zap.String("phone", row.Phone),
			zap.Error(err))
		return out
	}

	logger.FromContext(ctx).Debug("Import row rejected",
		zap.Int("row", row.Number),
		zap.String("phone", row.Phone),
		zap.String("error_type", out.ErrorType),
		zap.String("error", out.ErrorMessage))
	return out
}
