package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ProjectStatus is the lifecycle state of a project
type ProjectStatus string

const (
	ProjectStatusActive   ProjectStatus = "active"
	ProjectStatusArchived ProjectStatus = "archived"
	ProjectStatusDeleted  ProjectStatus = "deleted"
)

// ProjectVisibility controls who can see a project
type ProjectVisibility string

const (
	ProjectVisibilityPrivate      ProjectVisibility = "private"
	ProjectVisibilityOrganization ProjectVisibility = "organization"
	ProjectVisibilityPublic       ProjectVisibility = "public"
)

// Project is an organization-scoped workspace
type Project struct {
	ID             uint              `json:"id" gorm:"primaryKey"`
	UUID           string            `json:"uuid" gorm:"type:varchar(36);uniqueIndex:uk_projects_uuid;not null"`
	OrganizationID uint              `json:"organizationId" gorm:"not null;uniqueIndex:uk_projects_org_slug,priority:1"`
	Name           string            `json:"name" gorm:"type:varchar(150);not null"`
	Slug           string            `json:"slug" gorm:"type:varchar(100);not null;uniqueIndex:uk_projects_org_slug,priority:2"`
	Description    string            `json:"description,omitempty" gorm:"type:text"`
	Color          string            `json:"color,omitempty" gorm:"type:varchar(20)"`
	Icon           string            `json:"icon,omitempty" gorm:"type:varchar(50)"`
	Status         ProjectStatus     `json:"status" gorm:"type:varchar(20);not null;default:active;index"`
	Visibility     ProjectVisibility `json:"visibility" gorm:"type:varchar(20);not null;default:organization"`
	Settings       datatypes.JSON    `json:"settings,omitempty" gorm:"type:json"`
	Metadata       datatypes.JSON    `json:"metadata,omitempty" gorm:"type:json"`
	CreatedBy      *uint             `json:"createdBy,omitempty"`
	ArchivedBy     *uint             `json:"archivedBy,omitempty"`
	ArchivedAt     *time.Time        `json:"archivedAt,omitempty"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
	DeletedAt      gorm.DeletedAt    `json:"deletedAt,omitempty" gorm:"index"`
}
