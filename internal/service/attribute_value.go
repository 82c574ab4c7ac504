package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"contact-service/internal/apperrors"
	"contact-service/internal/attrtype"
	"contact-service/internal/dto"
	"contact-service/internal/model"
	"contact-service/pkg/database"
	"contact-service/pkg/logger"
	"contact-service/prometheus"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AttributeValueService stores typed attribute values of contacts
type AttributeValueService struct {
	db     *gorm.DB
	schema *AttributeSchemaService
}

func NewAttributeValueService(db *gorm.DB, schema *AttributeSchemaService) *AttributeValueService {
	return &AttributeValueService{db: db, schema: schema}
}

// Upsert parses raw per the definition's data type and stores it in the
// matching column, replacing any previous value of the pair. Select types
// also rewrite the links to their chosen options.
func (s *AttributeValueService) Upsert(ctx context.Context, contactID uint, def *model.AttributeDefinition, raw string, source model.UpdatedSource) (*model.ContactAttributeValue, error) {
	parsed, err := attrtype.Parse(def.DataType, raw)
	if err != nil {
		return nil, apperrors.InvalidAttributeValue(def.Key, string(def.DataType), raw, err)
	}

	var options []model.AttributeOption
	if def.DataType.IsSelect() {
		options, err = s.resolveOptions(ctx, def, parsed.(string))
		if err != nil {
			return nil, err
		}
		keys := make([]string, len(options))
		for i, o := range options {
			keys[i] = o.OptionKey
		}
		parsed = strings.Join(keys, ",")
	}
	if source == "" {
		source = model.UpdatedSourceUser
	}

	var value model.ContactAttributeValue
	err = database.Transaction(ctx, s.db, func(ctx context.Context, tx *gorm.DB) error {
		err := tx.Where("contact_id = ? AND attribute_definition_id = ?", contactID, def.ID).First(&value).Error
		switch {
		case database.IsNotFound(err):
			value = model.ContactAttributeValue{ContactID: contactID, AttributeDefinitionID: def.ID}
			attrtype.Assign(&value, def.DataType, parsed)
			value.UpdatedSource = source
			if err := s.insert(ctx, &value); err != nil {
				return err
			}
		case err != nil:
			return dbError("Failed to load attribute value", err)
		default:
			attrtype.Assign(&value, def.DataType, parsed)
			value.UpdatedSource = source
			if err := tx.Save(&value).Error; err != nil {
				return dbError("Failed to update attribute value", err)
			}
		}

		if def.DataType.IsSelect() {
			return s.linkOptions(ctx, value.ID, options)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &value, nil
}

// insert creates value in a savepoint; losing a race to a concurrent
// insert of the same pair turns into an update of the winner's row
func (s *AttributeValueService) insert(ctx context.Context, value *model.ContactAttributeValue) error {
	err := database.Transaction(ctx, s.db, func(ctx context.Context, tx *gorm.DB) error {
		return tx.Create(value).Error
	})
	if !database.IsUniqueViolation(err) {
		return dbError("Failed to create attribute value", err)
	}

	conn := database.Conn(ctx, s.db)
	var winner model.ContactAttributeValue
	if err := conn.Where("contact_id = ? AND attribute_definition_id = ?", value.ContactID, value.AttributeDefinitionID).
		First(&winner).Error; err != nil {
		return dbError("Failed to load attribute value", err)
	}
	value.ID = winner.ID
	value.CreatedAt = winner.CreatedAt
	return dbError("Failed to update attribute value", conn.Save(value).Error)
}

func (s *AttributeValueService) resolveOptions(ctx context.Context, def *model.AttributeDefinition, raw string) ([]model.AttributeOption, error) {
	keys := attrtype.SplitOptionKeys(raw)
	if len(keys) == 0 {
		return nil, apperrors.InvalidAttributeValue(def.Key, string(def.DataType), raw, fmt.Errorf("an option is required"))
	}
	if def.DataType == model.DataTypeSingleSelect && len(keys) > 1 {
		return nil, apperrors.InvalidAttributeValue(def.Key, string(def.DataType), raw, fmt.Errorf("only one option may be chosen"))
	}

	var options []model.AttributeOption
	err := database.Conn(ctx, s.db).
		Where("attribute_definition_id = ? AND option_key IN ? AND is_active = ?", def.ID, keys, true).
		Order("sort_order ASC, id ASC").
		Find(&options).Error
	if err != nil {
		return nil, dbError("Failed to load attribute options", err)
	}

	if len(options) != len(keys) {
		found := make(map[string]struct{}, len(options))
		for _, o := range options {
			found[o.OptionKey] = struct{}{}
		}
		for _, k := range keys {
			if _, ok := found[k]; !ok {
				return nil, apperrors.InvalidAttributeValue(def.Key, string(def.DataType), raw, fmt.Errorf("unknown option %q", k))
			}
		}
	}
	return options, nil
}

func (s *AttributeValueService) linkOptions(ctx context.Context, valueID uint, options []model.AttributeOption) error {
	conn := database.Conn(ctx, s.db)
	if err := conn.Where("contact_attribute_value_id = ?", valueID).Delete(&model.ContactAttributeValueOption{}).Error; err != nil {
		return dbError("Failed to clear attribute value options", err)
	}
	if len(options) == 0 {
		return nil
	}

	links := make([]model.ContactAttributeValueOption, len(options))
	for i, o := range options {
		links[i] = model.ContactAttributeValueOption{ContactAttributeValueID: valueID, AttributeOptionID: o.ID}
	}
	return dbError("Failed to link attribute value options", conn.Create(&links).Error)
}

// ReplaceAll deletes every value of the contact and stores attrs instead.
// Keys without a definition are created when createMissing is set and
// skipped otherwise. Empty values are not stored.
func (s *AttributeValueService) ReplaceAll(ctx context.Context, contactID, organizationID uint, attrs map[string]string, createMissing bool, source model.UpdatedSource) ([]model.ContactAttributeValue, error) {
	defer prometheus.TrackDBOperation("attribute_value_replace")(time.Now())

	var values []model.ContactAttributeValue
	err := database.Transaction(ctx, s.db, func(ctx context.Context, tx *gorm.DB) error {
		if err := s.deleteByContact(ctx, contactID); err != nil {
			return err
		}
		var err error
		values, err = s.Merge(ctx, contactID, organizationID, attrs, createMissing, source)
		return err
	})
	if err != nil {
		return nil, err
	}
	return values, nil
}

// Merge upserts each key of attrs and leaves the contact's other values untouched
func (s *AttributeValueService) Merge(ctx context.Context, contactID, organizationID uint, attrs map[string]string, createMissing bool, source model.UpdatedSource) ([]model.ContactAttributeValue, error) {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var values []model.ContactAttributeValue
	err := database.Transaction(ctx, s.db, func(ctx context.Context, tx *gorm.DB) error {
		for _, k := range keys {
			raw := strings.TrimSpace(attrs[k])
			if raw == "" {
				continue
			}

			def, err := s.schema.ResolveOrCreate(ctx, organizationID, k, createMissing)
			if err != nil {
				if !createMissing && apperrors.KindOf(err) == apperrors.KindNotFound {
					logger.FromContext(ctx).Warn("Attribute definition not found and creation disabled",
						zap.Uint("organization_id", organizationID),
						zap.String("key", k))
					continue
				}
				return err
			}

			v, err := s.Upsert(ctx, contactID, def, raw, source)
			if err != nil {
				return err
			}
			values = append(values, *v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return values, nil
}

// deleteByContact removes all values of a contact with their option links
func (s *AttributeValueService) deleteByContact(ctx context.Context, contactID uint) error {
	conn := database.Conn(ctx, s.db)
	valueIDs := conn.Model(&model.ContactAttributeValue{}).Select("id").Where("contact_id = ?", contactID)
	if err := conn.Where("contact_attribute_value_id IN (?)", valueIDs).Delete(&model.ContactAttributeValueOption{}).Error; err != nil {
		return dbError("Failed to delete attribute value options", err)
	}
	if err := conn.Where("contact_id = ?", contactID).Delete(&model.ContactAttributeValue{}).Error; err != nil {
		return dbError("Failed to delete attribute values", err)
	}
	return nil
}

// BatchLoad returns the values of many contacts keyed by contact id
func (s *AttributeValueService) BatchLoad(ctx context.Context, contactIDs []uint) (map[uint][]model.ContactAttributeValue, error) {
	defer prometheus.TrackDBOperation("attribute_value_batch_load")(time.Now())

	out := make(map[uint][]model.ContactAttributeValue, len(contactIDs))
	for _, part := range chunk(uniqueUints(contactIDs), inChunkSize) {
		var values []model.ContactAttributeValue
		err := database.Conn(ctx, s.db).
			Where("contact_id IN ?", part).
			Order("contact_id ASC, id ASC").
			Find(&values).Error
		if err != nil {
			return nil, dbError("Failed to load attribute values", err)
		}
		for _, v := range values {
			out[v.ContactID] = append(out[v.ContactID], v)
		}
	}
	return out, nil
}

// DisplayValue is the single-string projection of a stored value
func DisplayValue(v *model.ContactAttributeValue) string {
	return attrtype.Display(v)
}

// UpsertRequest stores one value addressed by definition id or key
func (s *AttributeValueService) UpsertRequest(ctx context.Context, organizationID uint, req dto.AttributeValueRequest) (*dto.AttributeValue, error) {
	if req.AttributeDefinitionID == 0 && strings.TrimSpace(req.AttributeKey) == "" {
		return nil, apperrors.FieldValidation("Attribute is required", map[string]string{
			"attributeDefinitionId": "either attributeDefinitionId or attributeKey is required",
		})
	}

	var out *dto.AttributeValue
	err := database.Transaction(ctx, s.db, func(ctx context.Context, tx *gorm.DB) error {
		if err := requireContact(ctx, s.db, organizationID, req.ContactID); err != nil {
			return err
		}

		var def *model.AttributeDefinition
		var err error
		if req.AttributeDefinitionID != 0 {
			def, err = s.definitionForOrganization(ctx, organizationID, req.AttributeDefinitionID)
		} else {
			def, err = s.schema.ResolveOrCreate(ctx, organizationID, req.AttributeKey, true)
		}
		if err != nil {
			return err
		}

		v, err := s.Upsert(ctx, req.ContactID, def, req.Value, model.UpdatedSource(req.UpdatedSource))
		if err != nil {
			return err
		}
		out, err = s.describe(ctx, v, def)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *AttributeValueService) definitionForOrganization(ctx context.Context, organizationID, id uint) (*model.AttributeDefinition, error) {
	var def model.AttributeDefinition
	if err := database.Conn(ctx, s.db).First(&def, id).Error; err != nil {
		return nil, notFoundOr(err, "Attribute definition", id, "Failed to load attribute definition")
	}
	if def.OrganizationID != organizationID {
		return nil, apperrors.AccessDenied("Attribute definition does not belong to this organization")
	}
	return &def, nil
}

// ListByContact returns the contact's values with their definitions
func (s *AttributeValueService) ListByContact(ctx context.Context, organizationID, contactID uint) ([]dto.AttributeValue, error) {
	if err := requireContact(ctx, s.db, organizationID, contactID); err != nil {
		return nil, err
	}

	byContact, err := s.BatchLoad(ctx, []uint{contactID})
	if err != nil {
		return nil, err
	}
	values := byContact[contactID]

	defIDs := make([]uint, len(values))
	valueIDs := make([]uint, len(values))
	for i, v := range values {
		defIDs[i] = v.AttributeDefinitionID
		valueIDs[i] = v.ID
	}
	defs, err := s.schema.definitionsByID(ctx, defIDs)
	if err != nil {
		return nil, err
	}
	options, err := optionKeysByValue(ctx, s.db, valueIDs)
	if err != nil {
		return nil, err
	}

	out := make([]dto.AttributeValue, 0, len(values))
	for i := range values {
		def, ok := defs[values[i].AttributeDefinitionID]
		if !ok {
			continue
		}
		out = append(out, attributeValueDTO(&values[i], def, options[values[i].ID]))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// Get returns one value of a contact in the organization
func (s *AttributeValueService) Get(ctx context.Context, organizationID, id uint) (*dto.AttributeValue, error) {
	v, def, err := s.load(ctx, organizationID, id)
	if err != nil {
		return nil, err
	}
	return s.describe(ctx, v, def)
}

// Delete removes one value with its option links
func (s *AttributeValueService) Delete(ctx context.Context, organizationID, id uint) error {
	return database.Transaction(ctx, s.db, func(ctx context.Context, tx *gorm.DB) error {
		v, _, err := s.load(ctx, organizationID, id)
		if err != nil {
			return err
		}
		if err := tx.Where("contact_attribute_value_id = ?", v.ID).Delete(&model.ContactAttributeValueOption{}).Error; err != nil {
			return dbError("Failed to delete attribute value options", err)
		}
		return dbError("Failed to delete attribute value", tx.Delete(v).Error)
	})
}

func (s *AttributeValueService) load(ctx context.Context, organizationID, id uint) (*model.ContactAttributeValue, *model.AttributeDefinition, error) {
	var v model.ContactAttributeValue
	err := database.Conn(ctx, s.db).
		Joins("JOIN contacts c ON c.id = contact_attribute_values.contact_id").
		Where("contact_attribute_values.id = ? AND c.organization_id = ?", id, organizationID).
		First(&v).Error
	if err != nil {
		return nil, nil, notFoundOr(err, "Attribute value", id, "Failed to load attribute value")
	}

	var def model.AttributeDefinition
	if err := database.Conn(ctx, s.db).First(&def, v.AttributeDefinitionID).Error; err != nil {
		return nil, nil, notFoundOr(err, "Attribute definition", v.AttributeDefinitionID, "Failed to load attribute definition")
	}
	return &v, &def, nil
}

func (s *AttributeValueService) describe(ctx context.Context, v *model.ContactAttributeValue, def *model.AttributeDefinition) (*dto.AttributeValue, error) {
	options, err := optionKeysByValue(ctx, s.db, []uint{v.ID})
	if err != nil {
		return nil, err
	}
	out := attributeValueDTO(v, def, options[v.ID])
	return &out, nil
}

// optionKeysByValue returns the chosen option keys of select values
func optionKeysByValue(ctx context.Context, db *gorm.DB, valueIDs []uint) (map[uint][]string, error) {
	type link struct {
		ContactAttributeValueID uint
		OptionKey               string
	}

	out := make(map[uint][]string)
	for _, part := range chunk(uniqueUints(valueIDs), inChunkSize) {
		var links []link
		err := database.Conn(ctx, db).
			Table("contact_attribute_value_options cavo").
			Select("cavo.contact_attribute_value_id, ao.option_key").
			Joins("JOIN attribute_options ao ON ao.id = cavo.attribute_option_id").
			Where("cavo.contact_attribute_value_id IN ?", part).
			Order("ao.sort_order ASC, ao.id ASC").
			Scan(&links).Error
		if err != nil {
			return nil, dbError("Failed to load attribute value options", err)
		}
		for _, l := range links {
			out[l.ContactAttributeValueID] = append(out[l.ContactAttributeValueID], l.OptionKey)
		}
	}
	return out, nil
}

func attributeValueDTO(v *model.ContactAttributeValue, def *model.AttributeDefinition, options []string) dto.AttributeValue {
	return dto.AttributeValue{
		ID:                    v.ID,
		ContactID:             v.ContactID,
		AttributeDefinitionID: def.ID,
		Key:                   def.Key,
		Label:                 def.Label,
		DataType:              string(def.DataType),
		Value:                 attrtype.Display(v),
		Options:               options,
		UpdatedSource:         string(v.UpdatedSource),
		UpdatedAt:             v.UpdatedAt,
	}
}

// requireContact fails with NotFound unless the contact exists in the organization
func requireContact(ctx context.Context, db *gorm.DB, organizationID, contactID uint) error {
	var count int64
	err := database.Conn(ctx, db).Model(&model.Contact{}).
		Where("id = ? AND organization_id = ?", contactID, organizationID).
		Count(&count).Error
	if err != nil {
		return dbError("Failed to load contact", err)
	}
	if count == 0 {
		return apperrors.NotFound("Contact", contactID)
	}
	return nil
}
