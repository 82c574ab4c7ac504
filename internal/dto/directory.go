package dto

// TagRequest creates a tag
type TagRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Color       string `json:"color" validate:"omitempty,tagcolor"`
	Description string `json:"description" validate:"max=500"`
	IsActive    *bool  `json:"isActive"`
}

// UpdateTagRequest changes the provided fields only
type UpdateTagRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=100"`
	Color       *string `json:"color" validate:"omitempty,tagcolor"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	IsActive    *bool   `json:"isActive"`
}

// TagAssignmentRequest assigns a tag to a contact
type TagAssignmentRequest struct {
	ContactID uint `json:"contactId" validate:"required"`
	TagID     uint `json:"tagId" validate:"required"`
}

// NoteRequest creates a note on a contact
type NoteRequest struct {
	NoteText   string `json:"noteText" validate:"required,max=5000"`
	Visibility string `json:"visibility" validate:"omitempty,oneof=private team"`
	ProjectID  *uint  `json:"projectId"`
}

// UpdateNoteRequest changes the provided fields only
type UpdateNoteRequest struct {
	NoteText   *string `json:"noteText" validate:"omitempty,min=1,max=5000"`
	Visibility *string `json:"visibility" validate:"omitempty,oneof=private team"`
}
