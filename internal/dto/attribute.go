package dto

import (
	"encoding/json"
	"time"
)

// AttributeDefinitionRequest creates a definition, optionally with its options
type AttributeDefinitionRequest struct {
	Key          string                   `json:"key" validate:"required,max=100,attrkey"`
	Label        string                   `json:"label" validate:"max=150"`
	Description  string                   `json:"description"`
	Category     string                   `json:"category" validate:"omitempty,oneof=system user_defined integration"`
	DataType     string                   `json:"dataType" validate:"omitempty,oneof=text number decimal boolean date datetime json single_select multi_select"`
	IsEditable   *bool                    `json:"isEditable"`
	IsRequired   *bool                    `json:"isRequired"`
	IsSearchable *bool                    `json:"isSearchable"`
	DefaultValue json.RawMessage          `json:"defaultValue"`
	Validation   json.RawMessage          `json:"validation"`
	Options      []AttributeOptionRequest `json:"options" validate:"dive"`
}

// UpdateAttributeDefinitionRequest changes the provided fields only
type UpdateAttributeDefinitionRequest struct {
	Label        *string         `json:"label" validate:"omitempty,max=150"`
	Description  *string         `json:"description"`
	DataType     *string         `json:"dataType" validate:"omitempty,oneof=text number decimal boolean date datetime json single_select multi_select"`
	IsEditable   *bool           `json:"isEditable"`
	IsRequired   *bool           `json:"isRequired"`
	IsSearchable *bool           `json:"isSearchable"`
	DefaultValue json.RawMessage `json:"defaultValue"`
	Validation   json.RawMessage `json:"validation"`
}

// AttributeOptionRequest creates one select option
type AttributeOptionRequest struct {
	OptionKey   string `json:"optionKey" validate:"required,max=100"`
	OptionLabel string `json:"optionLabel" validate:"max=150"`
	SortOrder   *int   `json:"sortOrder"`
	IsActive    *bool  `json:"isActive"`
}

// UpdateAttributeOptionRequest changes the provided fields only
type UpdateAttributeOptionRequest struct {
	OptionLabel *string `json:"optionLabel" validate:"omitempty,max=150"`
	SortOrder   *int    `json:"sortOrder"`
	IsActive    *bool   `json:"isActive"`
}

// AttributeValueRequest upserts one value, addressed by definition id or by key
type AttributeValueRequest struct {
	ContactID             uint   `json:"contactId" validate:"required"`
	AttributeDefinitionID uint   `json:"attributeDefinitionId"`
	AttributeKey          string `json:"attributeKey" validate:"max=100"`
	Value                 string `json:"value"`
	UpdatedSource         string `json:"updatedSource" validate:"omitempty,oneof=system user integration"`
}

// AttributeValue is the standalone value resource
type AttributeValue struct {
	ID                    uint      `json:"id"`
	ContactID             uint      `json:"contactId"`
	AttributeDefinitionID uint      `json:"attributeDefinitionId"`
	Key                   string    `json:"key"`
	Label                 string    `json:"label"`
	DataType              string    `json:"dataType"`
	Value                 string    `json:"value"`
	Options               []string  `json:"options,omitempty"`
	UpdatedSource         string    `json:"updatedSource"`
	UpdatedAt             time.Time `json:"updatedAt"`
}
