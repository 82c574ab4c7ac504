package model

import (
	"strings"
	"time"
)

// ContactSource records how a contact entered the directory
type ContactSource string

const (
	ContactSourceManual      ContactSource = "manual"
	ContactSourceImport      ContactSource = "import"
	ContactSourceIntegration ContactSource = "integration"
	ContactSourceInbound     ContactSource = "inbound"
)

// ParseContactSource maps user input onto a source, ignoring case and surrounding space
func ParseContactSource(s string) (ContactSource, bool) {
	switch ContactSource(strings.ToLower(strings.TrimSpace(s))) {
	case ContactSourceManual:
		return ContactSourceManual, true
	case ContactSourceImport:
		return ContactSourceImport, true
	case ContactSourceIntegration:
		return ContactSourceIntegration, true
	case ContactSourceInbound:
		return ContactSourceInbound, true
	}
	return "", false
}

// Contact is a person reachable by phone within one organization
type Contact struct {
	ID             uint          `json:"id" gorm:"primaryKey"`
	OrganizationID uint          `json:"organizationId" gorm:"not null;uniqueIndex:uk_contacts_org_phone,priority:1"`
	PhoneNumber    string        `json:"phoneNumber" gorm:"column:phone_e164;type:varchar(20);not null;uniqueIndex:uk_contacts_org_phone,priority:2"`
	WaID           string        `json:"waId" gorm:"type:varchar(64);index"`
	DisplayName    string        `json:"displayName" gorm:"type:varchar(150);not null"`
	Source         ContactSource `json:"source" gorm:"type:varchar(20);not null;default:manual;index"`
	FirstSeenAt    *time.Time    `json:"firstSeenAt,omitempty"`
	LastSeenAt     *time.Time    `json:"lastSeenAt,omitempty" gorm:"index"`
	CreatedAt      time.Time     `json:"createdAt" gorm:"index"`
	UpdatedAt      time.Time     `json:"updatedAt" gorm:"index"`
}

// ContactTag is a per-organization label
type ContactTag struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	OrganizationID uint      `json:"organizationId" gorm:"not null;uniqueIndex:uk_contact_tags_org_name,priority:1"`
	Name           string    `json:"name" gorm:"type:varchar(100);not null;uniqueIndex:uk_contact_tags_org_name,priority:2"`
	Color          string    `json:"color" gorm:"type:varchar(20);not null;default:#4F46E5"`
	Description    string    `json:"description,omitempty" gorm:"type:varchar(500)"`
	IsSystem       bool      `json:"isSystem" gorm:"not null;default:false"`
	IsActive       bool      `json:"isActive" gorm:"not null"`
	CreatedBy      *uint     `json:"createdBy,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// DefaultTagColor is applied when a tag is created without a color
const DefaultTagColor = "#4F46E5"

// ContactTagAssignment joins a contact to a tag
type ContactTagAssignment struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	ContactID  uint      `json:"contactId" gorm:"not null;uniqueIndex:uk_contact_tag_assignments_contact_tag,priority:1"`
	TagID      uint      `json:"tagId" gorm:"not null;uniqueIndex:uk_contact_tag_assignments_contact_tag,priority:2;index"`
	AssignedBy *uint     `json:"assignedBy,omitempty"`
	AssignedAt time.Time `json:"assignedAt"`
}

// NoteVisibility controls who can read a note
type NoteVisibility string

const (
	NoteVisibilityPrivate NoteVisibility = "private"
	NoteVisibilityTeam    NoteVisibility = "team"
)

// ContactNote is a free-text note on a contact
type ContactNote struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	OrganizationID uint           `json:"organizationId" gorm:"not null;index"`
	ContactID      uint           `json:"contactId" gorm:"not null;index"`
	ProjectID      *uint          `json:"projectId,omitempty" gorm:"index"`
	NoteText       string         `json:"noteText" gorm:"type:text;not null"`
	Visibility     NoteVisibility `json:"visibility" gorm:"type:varchar(20);not null;default:team"`
	CreatedBy      *uint          `json:"createdBy,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// All returns every model in migration order
func All() []interface{} {
	return []interface{}{
		&Organization{},
		&User{},
		&OrganizationMember{},
		&Project{},
		&AttributeDefinition{},
		&AttributeOption{},
		&Contact{},
		&ContactAttributeValue{},
		&ContactAttributeValueOption{},
		&ContactTag{},
		&ContactTagAssignment{},
		&ContactNote{},
	}
}
