package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// AttributeCategory records where an attribute definition came from
type AttributeCategory string

const (
	AttributeCategorySystem      AttributeCategory = "system"
	AttributeCategoryUserDefined AttributeCategory = "user_defined"
	AttributeCategoryIntegration AttributeCategory = "integration"
)

// AttributeDataType is the declared type of an attribute's values
type AttributeDataType string

const (
	DataTypeText         AttributeDataType = "text"
	DataTypeNumber       AttributeDataType = "number"
	DataTypeDecimal      AttributeDataType = "decimal"
	DataTypeBoolean      AttributeDataType = "boolean"
	DataTypeDate         AttributeDataType = "date"
	DataTypeDatetime     AttributeDataType = "datetime"
	DataTypeJSON         AttributeDataType = "json"
	DataTypeSingleSelect AttributeDataType = "single_select"
	DataTypeMultiSelect  AttributeDataType = "multi_select"
)

// Valid reports whether t is a known data type
func (t AttributeDataType) Valid() bool {
	switch t {
	case DataTypeText, DataTypeNumber, DataTypeDecimal, DataTypeBoolean, DataTypeDate,
		DataTypeDatetime, DataTypeJSON, DataTypeSingleSelect, DataTypeMultiSelect:
		return true
	}
	return false
}

// IsSelect reports whether values of this type reference AttributeOptions
func (t AttributeDataType) IsSelect() bool {
	return t == DataTypeSingleSelect || t == DataTypeMultiSelect
}

// UpdatedSource records who last wrote an attribute value
type UpdatedSource string

const (
	UpdatedSourceSystem      UpdatedSource = "system"
	UpdatedSourceUser        UpdatedSource = "user"
	UpdatedSourceIntegration UpdatedSource = "integration"
)

// AttributeDefinition is the per-organization schema of one custom field
type AttributeDefinition struct {
	ID             uint              `json:"id" gorm:"primaryKey"`
	OrganizationID uint              `json:"organizationId" gorm:"not null;uniqueIndex:uk_attribute_definitions_org_key,priority:1"`
	Key            string            `json:"key" gorm:"column:attr_key;type:varchar(100);not null;uniqueIndex:uk_attribute_definitions_org_key,priority:2"`
	Label          string            `json:"label" gorm:"type:varchar(150);not null"`
	Description    string            `json:"description,omitempty" gorm:"type:text"`
	Category       AttributeCategory `json:"category" gorm:"type:varchar(20);not null;default:user_defined"`
	DataType       AttributeDataType `json:"dataType" gorm:"type:varchar(20);not null;default:text"`
	IsEditable     bool              `json:"isEditable" gorm:"not null"`
	IsRequired     bool              `json:"isRequired" gorm:"not null;default:false"`
	IsSearchable   bool              `json:"isSearchable" gorm:"not null"`
	DefaultValue   datatypes.JSON    `json:"defaultValue,omitempty" gorm:"type:json"`
	Validation     datatypes.JSON    `json:"validation,omitempty" gorm:"type:json"`
	CreatedBy      *uint             `json:"createdBy,omitempty"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

// AttributeOption is one enumerated choice of a select-type definition
type AttributeOption struct {
	ID                    uint      `json:"id" gorm:"primaryKey"`
	AttributeDefinitionID uint      `json:"attributeDefinitionId" gorm:"not null;uniqueIndex:uk_attribute_options_def_key,priority:1"`
	OptionKey             string    `json:"optionKey" gorm:"type:varchar(100);not null;uniqueIndex:uk_attribute_options_def_key,priority:2"`
	OptionLabel           string    `json:"optionLabel" gorm:"type:varchar(150);not null"`
	SortOrder             int       `json:"sortOrder" gorm:"not null;default:0"`
	IsActive              bool      `json:"isActive" gorm:"not null"`
	CreatedAt             time.Time `json:"createdAt"`
	UpdatedAt             time.Time `json:"updatedAt"`
}

// ContactAttributeValue holds the value of one attribute for one contact.
// Exactly one typed column is set, chosen by the definition's data type.
type ContactAttributeValue struct {
	ID                    uint                `json:"id" gorm:"primaryKey"`
	ContactID             uint                `json:"contactId" gorm:"not null;uniqueIndex:uk_contact_attribute_values_contact_def,priority:1"`
	AttributeDefinitionID uint                `json:"attributeDefinitionId" gorm:"not null;uniqueIndex:uk_contact_attribute_values_contact_def,priority:2;index"`
	ValueText             *string             `json:"valueText,omitempty" gorm:"type:varchar(1024)"`
	ValueNumber           *int64              `json:"valueNumber,omitempty"`
	ValueDecimal          decimal.NullDecimal `json:"valueDecimal" gorm:"type:decimal(18,6)"`
	ValueBool             *bool               `json:"valueBool,omitempty"`
	ValueDate             *datatypes.Date     `json:"valueDate,omitempty" gorm:"type:date"`
	ValueDatetime         *time.Time          `json:"valueDatetime,omitempty"`
	ValueJSON             datatypes.JSON      `json:"valueJson,omitempty" gorm:"column:value_json;type:json"`
	UpdatedSource         UpdatedSource       `json:"updatedSource" gorm:"type:varchar(20);not null;default:user"`
	CreatedAt             time.Time           `json:"createdAt"`
	UpdatedAt             time.Time           `json:"updatedAt"`
}

// ContactAttributeValueOption links a select-type value to its chosen options
type ContactAttributeValueOption struct {
	ID                      uint      `json:"id" gorm:"primaryKey"`
	ContactAttributeValueID uint      `json:"contactAttributeValueId" gorm:"not null;uniqueIndex:uk_cav_options_value_option,priority:1"`
	AttributeOptionID       uint      `json:"attributeOptionId" gorm:"not null;uniqueIndex:uk_cav_options_value_option,priority:2;index"`
	CreatedAt               time.Time `json:"createdAt"`
}
