package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"contact-service/internal/apperrors"
	"contact-service/internal/attrtype"
	"contact-service/internal/dto"
	"contact-service/internal/model"
	"contact-service/internal/query"
	"contact-service/pkg/database"
	"contact-service/pkg/logger"
	"contact-service/prometheus"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AttributeSchemaService owns the per-organization attribute definitions and their options
type AttributeSchemaService struct {
	db *gorm.DB
}

func NewAttributeSchemaService(db *gorm.DB) *AttributeSchemaService {
	return &AttributeSchemaService{db: db}
}

// FindByKey returns the definition for key, or nil when the organization has none
func (s *AttributeSchemaService) FindByKey(ctx context.Context, organizationID uint, key string) (*model.AttributeDefinition, error) {
	key = attrtype.NormalizeKey(key)

	var def model.AttributeDefinition
	err := database.Conn(ctx, s.db).
		Where("organization_id = ? AND attr_key = ?", organizationID, key).
		First(&def).Error
	if database.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, dbError("Failed to load attribute definition", err)
	}
	return &def, nil
}

// ResolveOrCreate returns the definition for key. A missing definition is
// created as user-defined text when shouldCreate is set; otherwise the
// result is AttributeNotFound. Concurrent creators of the same key all end
// up with the single row that won the unique index.
func (s *AttributeSchemaService) ResolveOrCreate(ctx context.Context, organizationID uint, key string, shouldCreate bool) (*model.AttributeDefinition, error) {
	key = attrtype.NormalizeKey(key)
	if key == "" {
		return nil, apperrors.FieldValidation("Attribute key is required", map[string]string{"key": "is required"})
	}

	def, err := s.FindByKey(ctx, organizationID, key)
	if err != nil {
		return nil, err
	}
	if def != nil {
		return def, nil
	}
	if !shouldCreate {
		return nil, apperrors.AttributeNotFound(organizationID, key)
	}

	def = &model.AttributeDefinition{
		OrganizationID: organizationID,
		Key:            key,
		Label:          attrtype.LabelFromKey(key),
		Category:       model.AttributeCategoryUserDefined,
		DataType:       model.DataTypeText,
		IsEditable:     true,
		IsRequired:     false,
		IsSearchable:   true,
	}

	err = database.Transaction(ctx, s.db, func(ctx context.Context, tx *gorm.DB) error {
		return tx.Create(def).Error
	})
	if database.IsUniqueViolation(err) {
		logger.FromContext(ctx).Info("Attribute definition created concurrently, using existing row",
			zap.Uint("organization_id", organizationID),
			zap.String("key", key))
		winner, findErr := s.FindByKey(ctx, organizationID, key)
		if findErr != nil {
			return nil, findErr
		}
		if winner == nil {
			return nil, apperrors.System("Attribute definition vanished after conflict", err)
		}
		return winner, nil
	}
	if err != nil {
		return nil, dbError("Failed to create attribute definition", err)
	}

	prometheus.RecordAttributeAutoCreated()
	logger.FromContext(ctx).Info("Attribute definition auto-created",
		zap.Uint("organization_id", organizationID),
		zap.Uint("definition_id", def.ID),
		zap.String("key", key))
	return def, nil
}

// Lookup adapts FindByKey to the search builder
func (s *AttributeSchemaService) Lookup(ctx context.Context, organizationID uint) query.AttributeLookup {
	return func(key string) (*model.AttributeDefinition, error) {
		return s.FindByKey(ctx, organizationID, key)
	}
}

// ListByOrganization returns the organization's definitions ordered by key
func (s *AttributeSchemaService) ListByOrganization(ctx context.Context, organizationID uint) ([]model.AttributeDefinition, error) {
	defer prometheus.TrackDBOperation("attribute_definition_list")(time.Now())

	var defs []model.AttributeDefinition
	err := database.Conn(ctx, s.db).
		Where("organization_id = ?", organizationID).
		Order("attr_key ASC").
		Find(&defs).Error
	if err != nil {
		return nil, dbError("Failed to list attribute definitions", err)
	}
	return defs, nil
}

// Create adds an explicitly described definition together with its options
func (s *AttributeSchemaService) Create(ctx context.Context, organizationID uint, req dto.AttributeDefinitionRequest, createdBy *uint) (*model.AttributeDefinition, error) {
	key := attrtype.NormalizeKey(req.Key)
	if key == "" {
		return nil, apperrors.FieldValidation("Attribute key is required", map[string]string{"key": "is required"})
	}

	dataType := model.AttributeDataType(req.DataType)
	if dataType == "" {
		dataType = model.DataTypeText
	}
	if !dataType.Valid() {
		return nil, apperrors.FieldValidation("Invalid data type", map[string]string{"dataType": "is not supported"})
	}
	if len(req.Options) > 0 && !dataType.IsSelect() {
		return nil, apperrors.Validationf("Options are only allowed on select attributes, %s is %s", key, dataType)
	}

	category := model.AttributeCategory(req.Category)
	if category == "" {
		category = model.AttributeCategoryUserDefined
	}
	label := req.Label
	if label == "" {
		label = attrtype.LabelFromKey(key)
	}

	def := &model.AttributeDefinition{
		OrganizationID: organizationID,
		Key:            key,
		Label:          label,
		Description:    req.Description,
		Category:       category,
		DataType:       dataType,
		IsEditable:     boolOr(req.IsEditable, true),
		IsRequired:     boolOr(req.IsRequired, false),
		IsSearchable:   boolOr(req.IsSearchable, true),
		DefaultValue:   jsonOr(req.DefaultValue, ""),
		Validation:     jsonOr(req.Validation, ""),
		CreatedBy:      createdBy,
	}

	defer prometheus.TrackDBOperation("attribute_definition_create")(time.Now())

	err := database.Transaction(ctx, s.db, func(ctx context.Context, tx *gorm.DB) error {
		existing, err := s.FindByKey(ctx, organizationID, key)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperrors.Duplicate(fmt.Sprintf("Attribute definition with key %s already exists", key))
		}

		if err := database.Conn(ctx, s.db).Create(def).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return apperrors.Duplicate(fmt.Sprintf("Attribute definition with key %s already exists", key))
			}
			return dbError("Failed to create attribute definition", err)
		}

		for _, opt := range req.Options {
			if _, err := s.createOption(ctx, def, opt); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("Attribute definition created",
		zap.Uint("organization_id", organizationID),
		zap.Uint("definition_id", def.ID),
		zap.String("key", def.Key),
		zap.String("data_type", string(def.DataType)))
	return def, nil
}

// Get returns a definition of the organization
func (s *AttributeSchemaService) Get(ctx context.Context, organizationID, id uint) (*model.AttributeDefinition, error) {
	var def model.AttributeDefinition
	err := database.Conn(ctx, s.db).
		Where("id = ? AND organization_id = ?", id, organizationID).
		First(&def).Error
	if err != nil {
		return nil, notFoundOr(err, "Attribute definition", id, "Failed to load attribute definition")
	}
	return &def, nil
}

// Update changes the provided fields. The data type can only change while
// no contact holds a value for the definition.
func (s *AttributeSchemaService) Update(ctx context.Context, organizationID, id uint, req dto.UpdateAttributeDefinitionRequest) (*model.AttributeDefinition, error) {
	var def *model.AttributeDefinition

	err := database.Transaction(ctx, s.db, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		def, err = s.Get(ctx, organizationID, id)
		if err != nil {
			return err
		}

		if req.Label != nil {
			def.Label = *req.Label
		}
		if req.Description != nil {
			def.Description = *req.Description
		}
		if req.IsEditable != nil {
			def.IsEditable = *req.IsEditable
		}
		if req.IsRequired != nil {
			def.IsRequired = *req.IsRequired
		}
		if req.IsSearchable != nil {
			def.IsSearchable = *req.IsSearchable
		}
		if req.DefaultValue != nil {
			def.DefaultValue = jsonOr(req.DefaultValue, "")
		}
		if req.Validation != nil {
			def.Validation = jsonOr(req.Validation, "")
		}

		if req.DataType != nil && model.AttributeDataType(*req.DataType) != def.DataType {
			newType := model.AttributeDataType(*req.DataType)
			if !newType.Valid() {
				return apperrors.FieldValidation("Invalid data type", map[string]string{"dataType": "is not supported"})
			}

			var count int64
			if err := tx.Model(&model.ContactAttributeValue{}).
				Where("attribute_definition_id = ?", def.ID).
				Count(&count).Error; err != nil {
				return dbError("Failed to count attribute values", err)
			}
			if count > 0 {
				return apperrors.Validationf("Cannot change data type of attribute %s: %d contacts have values", def.Key, count)
			}

			if def.DataType.IsSelect() && !newType.IsSelect() {
				if err := tx.Where("attribute_definition_id = ?", def.ID).Delete(&model.AttributeOption{}).Error; err != nil {
					return dbError("Failed to delete attribute options", err)
				}
			}
			def.DataType = newType
		}

		if err := tx.Save(def).Error; err != nil {
			return dbError("Failed to update attribute definition", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("Attribute definition updated",
		zap.Uint("definition_id", def.ID),
		zap.String("key", def.Key))
	return def, nil
}

// Delete removes a definition with its options and every value that uses it
func (s *AttributeSchemaService) Delete(ctx context.Context, organizationID, id uint) error {
	return database.Transaction(ctx, s.db, func(ctx context.Context, tx *gorm.DB) error {
		def, err := s.Get(ctx, organizationID, id)
		if err != nil {
			return err
		}

		valueIDs := tx.Model(&model.ContactAttributeValue{}).Select("id").Where("attribute_definition_id = ?", def.ID)
		if err := tx.Where("contact_attribute_value_id IN (?)", valueIDs).Delete(&model.ContactAttributeValueOption{}).Error; err != nil {
			return dbError("Failed to delete attribute value options", err)
		}
		if err := tx.Where("attribute_definition_id = ?", def.ID).Delete(&model.ContactAttributeValue{}).Error; err != nil {
			return dbError("Failed to delete attribute values", err)
		}
		if err := tx.Where("attribute_definition_id = ?", def.ID).Delete(&model.AttributeOption{}).Error; err != nil {
			return dbError("Failed to delete attribute options", err)
		}
		if err := tx.Delete(def).Error; err != nil {
			return dbError("Failed to delete attribute definition", err)
		}

		logger.FromContext(ctx).Info("Attribute definition deleted",
			zap.Uint("definition_id", def.ID),
			zap.String("key", def.Key))
		return nil
	})
}

// CreateOption adds an option to a select definition
func (s *AttributeSchemaService) CreateOption(ctx context.Context, organizationID, definitionID uint, req dto.AttributeOptionRequest) (*model.AttributeOption, error) {
	var opt *model.AttributeOption
	err := database.Transaction(ctx, s.db, func(ctx context.Context, tx *gorm.DB) error {
		def, err := s.Get(ctx, organizationID, definitionID)
		if err != nil {
			return err
		}
		opt, err = s.createOption(ctx, def, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return opt, nil
}

func (s *AttributeSchemaService) createOption(ctx context.Context, def *model.AttributeDefinition, req dto.AttributeOptionRequest) (*model.AttributeOption, error) {
	if !def.DataType.IsSelect() {
		return nil, apperrors.Validationf("Options are only allowed on select attributes, %s is %s", def.Key, def.DataType)
	}

	opt := &model.AttributeOption{
		AttributeDefinitionID: def.ID,
		OptionKey:             req.OptionKey,
		OptionLabel:           req.OptionLabel,
		IsActive:              boolOr(req.IsActive, true),
	}
	if opt.OptionLabel == "" {
		opt.OptionLabel = attrtype.LabelFromKey(opt.OptionKey)
	}
	if req.SortOrder != nil {
		opt.SortOrder = *req.SortOrder
	}

	err := database.Transaction(ctx, s.db, func(ctx context.Context, tx *gorm.DB) error {
		return tx.Create(opt).Error
	})
	if database.IsUniqueViolation(err) {
		return nil, apperrors.Duplicate(fmt.Sprintf("Option %s already exists for attribute %s", opt.OptionKey, def.Key))
	}
	if err != nil {
		return nil, dbError("Failed to create attribute option", err)
	}
	return opt, nil
}

// ListOptions returns a definition's options by sort order
func (s *AttributeSchemaService) ListOptions(ctx context.Context, organizationID, definitionID uint) ([]model.AttributeOption, error) {
	if _, err := s.Get(ctx, organizationID, definitionID); err != nil {
		return nil, err
	}

	var opts []model.AttributeOption
	err := database.Conn(ctx, s.db).
		Where("attribute_definition_id = ?", definitionID).
		Order("sort_order ASC, id ASC").
		Find(&opts).Error
	if err != nil {
		return nil, dbError("Failed to list attribute options", err)
	}
	return opts, nil
}

// GetOption returns an option whose definition belongs to the organization
func (s *AttributeSchemaService) GetOption(ctx context.Context, organizationID, optionID uint) (*model.AttributeOption, error) {
	var opt model.AttributeOption
	err := database.Conn(ctx, s.db).
		Joins("JOIN attribute_definitions ad ON ad.id = attribute_options.attribute_definition_id").
		Where("attribute_options.id = ? AND ad.organization_id = ?", optionID, organizationID).
		First(&opt).Error
	if err != nil {
		return nil, notFoundOr(err, "Attribute option", optionID, "Failed to load attribute option")
	}
	return &opt, nil
}

// UpdateOption changes the provided fields of an option
func (s *AttributeSchemaService) UpdateOption(ctx context.Context, organizationID, optionID uint, req dto.UpdateAttributeOptionRequest) (*model.AttributeOption, error) {
	opt, err := s.GetOption(ctx, organizationID, optionID)
	if err != nil {
		return nil, err
	}

	if req.OptionLabel != nil {
		opt.OptionLabel = *req.OptionLabel
	}
	if req.SortOrder != nil {
		opt.SortOrder = *req.SortOrder
	}
	if req.IsActive != nil {
		opt.IsActive = *req.IsActive
	}

	if err := database.Conn(ctx, s.db).Save(opt).Error; err != nil {
		return nil, dbError("Failed to update attribute option", err)
	}
	return opt, nil
}

// DeleteOption removes an option and its links to stored values. Values that
// chose it keep their remaining options; a value left with none is deleted.
func (s *AttributeSchemaService) DeleteOption(ctx context.Context, organizationID, optionID uint) error {
	return database.Transaction(ctx, s.db, func(ctx context.Context, tx *gorm.DB) error {
		opt, err := s.GetOption(ctx, organizationID, optionID)
		if err != nil {
			return err
		}

		var valueIDs []uint
		if err := tx.Model(&model.ContactAttributeValueOption{}).
			Where("attribute_option_id = ?", opt.ID).
			Pluck("contact_attribute_value_id", &valueIDs).Error; err != nil {
			return dbError("Failed to load attribute value options", err)
		}
		if err := tx.Where("attribute_option_id = ?", opt.ID).Delete(&model.ContactAttributeValueOption{}).Error; err != nil {
			return dbError("Failed to delete attribute value options", err)
		}
		if err := tx.Delete(opt).Error; err != nil {
			return dbError("Failed to delete attribute option", err)
		}
		return s.rewriteSelectValues(ctx, valueIDs)
	})
}

// rewriteSelectValues recomputes value_text of select values from the
// options still linked to them, in canonical option order
func (s *AttributeSchemaService) rewriteSelectValues(ctx context.Context, valueIDs []uint) error {
	tx := database.Conn(ctx, s.db)
	for _, id := range valueIDs {
		var keys []string
		if err := tx.Model(&model.AttributeOption{}).
			Joins("JOIN contact_attribute_value_options cavo ON cavo.attribute_option_id = attribute_options.id").
			Where("cavo.contact_attribute_value_id = ?", id).
			Order("attribute_options.sort_order ASC, attribute_options.id ASC").
			Pluck("attribute_options.option_key", &keys).Error; err != nil {
			return dbError("Failed to load attribute options", err)
		}

		if len(keys) == 0 {
			if err := tx.Delete(&model.ContactAttributeValue{}, id).Error; err != nil {
				return dbError("Failed to delete attribute value", err)
			}
			continue
		}
		if err := tx.Model(&model.ContactAttributeValue{}).
			Where("id = ?", id).
			Update("value_text", strings.Join(keys, ",")).Error; err != nil {
			return dbError("Failed to update attribute value", err)
		}
	}

	if len(valueIDs) > 0 {
		logger.FromContext(ctx).Info("Select values rewritten after option removal", zap.Int("values", len(valueIDs)))
	}
	return nil
}

// definitionsByID loads definitions for a set of ids in one query per chunk
func (s *AttributeSchemaService) definitionsByID(ctx context.Context, ids []uint) (map[uint]*model.AttributeDefinition, error) {
	out := make(map[uint]*model.AttributeDefinition, len(ids))
	for _, part := range chunk(uniqueUints(ids), inChunkSize) {
		var defs []model.AttributeDefinition
		if err := database.Conn(ctx, s.db).Where("id IN ?", part).Find(&defs).Error; err != nil {
			return nil, dbError("Failed to load attribute definitions", err)
		}
		for i := range defs {
			out[defs[i].ID] = &defs[i]
		}
	}
	return out, nil
}

func boolOr(b *bool, fallback bool) bool {
	if b == nil {
		return fallback
	}
	return *b
}
