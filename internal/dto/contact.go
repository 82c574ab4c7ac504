package dto

import "time"

// CreateContactRequest creates a contact with its attributes, tags and an optional first note
type CreateContactRequest struct {
	Name        string            `json:"name" validate:"required,max=150"`
	PhoneNumber string            `json:"phoneNumber" validate:"required,max=32"`
	Attributes  map[string]string `json:"attributes"`
	TagIDs      []uint            `json:"tagIds"`
	Note        string            `json:"note" validate:"max=5000"`
	ProjectID   *uint             `json:"projectId"`
}

// UpdateContactRequest replaces a contact. A nil Attributes or TagIDs
// leaves that part untouched; an empty one clears it.
type UpdateContactRequest struct {
	Name        string            `json:"name" validate:"required,max=150"`
	PhoneNumber string            `json:"phoneNumber" validate:"required,max=32"`
	Attributes  map[string]string `json:"attributes"`
	TagIDs      []uint            `json:"tagIds"`
}

// ContactAttribute is one attribute in the detail shape
type ContactAttribute struct {
	ID                    uint      `json:"id"`
	AttributeDefinitionID uint      `json:"attributeDefinitionId"`
	Key                   string    `json:"key"`
	Label                 string    `json:"label"`
	DataType              string    `json:"dataType"`
	Value                 string    `json:"value"`
	Options               []string  `json:"options,omitempty"`
	UpdatedSource         string    `json:"updatedSource"`
	UpdatedAt             time.Time `json:"updatedAt"`
}

// ContactTag is one tag in the detail shape
type ContactTag struct {
	ID         uint      `json:"id"`
	Name       string    `json:"name"`
	Color      string    `json:"color"`
	AssignedAt time.Time `json:"assignedAt"`
}

// NoteSummary is one of the recent notes in the detail shape
type NoteSummary struct {
	ID         uint      `json:"id"`
	NoteText   string    `json:"noteText"`
	CreatedBy  *uint     `json:"createdBy,omitempty"`
	Visibility string    `json:"visibility"`
	ProjectID  *uint     `json:"projectId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ContactDetail is the full single-contact response
type ContactDetail struct {
	ID             uint               `json:"id"`
	OrganizationID uint               `json:"organizationId"`
	PhoneNumber    string             `json:"phoneNumber"`
	WaID           string             `json:"waId"`
	Region         string             `json:"region,omitempty"`
	DisplayName    string             `json:"displayName"`
	Source         string             `json:"source"`
	FirstSeenAt    *time.Time         `json:"firstSeenAt,omitempty"`
	LastSeenAt     *time.Time         `json:"lastSeenAt,omitempty"`
	CreatedAt      time.Time          `json:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt"`
	Attributes     []ContactAttribute `json:"attributes"`
	Tags           []ContactTag       `json:"tags"`
	RecentNotes    []NoteSummary      `json:"recentNotes"`
}

// AttributeSummary is a key/value pair in the list shape
type AttributeSummary struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// TagSummary is a tag in the list shape
type TagSummary struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// ContactListItem is the lossy per-row shape of a contact page
type ContactListItem struct {
	ID          uint               `json:"id"`
	PhoneNumber string             `json:"phoneNumber"`
	WaID        string             `json:"waId"`
	DisplayName string             `json:"displayName"`
	Source      string             `json:"source"`
	LastSeenAt  *time.Time         `json:"lastSeenAt,omitempty"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
	Attributes  []AttributeSummary `json:"attributes"`
	Tags        []TagSummary       `json:"tags"`
	NoteCount   int64              `json:"noteCount"`
}

// ImportOptions controls how an import treats existing contacts and unknown attributes
type ImportOptions struct {
	UpdateExisting      bool `json:"updateExisting"`
	CreateNewAttributes bool `json:"createNewAttributes"`
}

// DefaultImportOptions updates existing contacts and creates unknown attributes
func DefaultImportOptions() ImportOptions {
	return ImportOptions{UpdateExisting: true, CreateNewAttributes: true}
}

// Import error types
const (
	ImportErrorValidation = "VALIDATION"
	ImportErrorDuplicate  = "DUPLICATE"
	ImportErrorSystem     = "SYSTEM"
)

// ImportError describes one failed row
type ImportError struct {
	RowNumber    int    `json:"rowNumber"`
	PhoneNumber  string `json:"phoneNumber"`
	Name         string `json:"name"`
	ErrorMessage string `json:"errorMessage"`
	ErrorType    string `json:"errorType"`
}

// ImportSummary is the result of a bulk import
type ImportSummary struct {
	TotalProcessed int           `json:"totalProcessed"`
	SuccessCount   int           `json:"successCount"`
	FailedCount    int           `json:"failedCount"`
	CreatedCount   int           `json:"createdCount"`
	UpdatedCount   int           `json:"updatedCount"`
	SkippedCount   int           `json:"skippedCount"`
	Errors         []ImportError `json:"errors"`
}
