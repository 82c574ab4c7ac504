package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// OrganizationType classifies an organization in the reseller hierarchy
type OrganizationType string

const (
	OrganizationTypePlatform     OrganizationType = "platform"
	OrganizationTypeOrganization OrganizationType = "organization"
	OrganizationTypeReseller     OrganizationType = "reseller"
	OrganizationTypeCustomer     OrganizationType = "customer"
)

// OrganizationStatus is the lifecycle state of an organization
type OrganizationStatus string

const (
	OrganizationStatusActive    OrganizationStatus = "active"
	OrganizationStatusSuspended OrganizationStatus = "suspended"
	OrganizationStatusTrial     OrganizationStatus = "trial"
	OrganizationStatusCancelled OrganizationStatus = "cancelled"
)

// PricingStrategy decides whether a reseller inherits or overrides parent pricing
type PricingStrategy string

const (
	PricingStrategyInherit  PricingStrategy = "inherit"
	PricingStrategyOverride PricingStrategy = "override"
)

// Organization is the tenant boundary; everything else hangs off its ID
type Organization struct {
	ID                   uint               `json:"id" gorm:"primaryKey"`
	ParentOrganizationID *uint              `json:"parentOrganizationId,omitempty" gorm:"index"`
	UUID                 string             `json:"uuid" gorm:"type:varchar(36);uniqueIndex:uk_organizations_uuid;not null"`
	Slug                 string             `json:"slug" gorm:"type:varchar(100);uniqueIndex:uk_organizations_slug;not null"`
	Name                 string             `json:"name" gorm:"type:varchar(150);not null"`
	DisplayName          string             `json:"displayName,omitempty" gorm:"type:varchar(150)"`
	Description          string             `json:"description,omitempty" gorm:"type:text"`
	LogoURL              string             `json:"logoUrl,omitempty" gorm:"type:varchar(500)"`
	Website              string             `json:"website,omitempty" gorm:"type:varchar(255)"`
	OrganizationType     OrganizationType   `json:"organizationType" gorm:"type:varchar(20);not null;default:customer"`
	ResellerLevel        int                `json:"resellerLevel" gorm:"not null;default:0"`
	PricingStrategy      PricingStrategy    `json:"pricingStrategy" gorm:"type:varchar(20);not null;default:inherit"`
	MaxChildResellers    *int               `json:"maxChildResellers,omitempty"`
	OwnerUserID          *uint              `json:"ownerUserId,omitempty" gorm:"index"`
	Status               OrganizationStatus `json:"status" gorm:"type:varchar(20);not null;default:active;index"`
	TrialEndsAt          *time.Time         `json:"trialEndsAt,omitempty"`
	Metadata             datatypes.JSON     `json:"metadata" gorm:"type:json"`
	CreatedAt            time.Time          `json:"createdAt"`
	UpdatedAt            time.Time          `json:"updatedAt"`
	DeletedAt            gorm.DeletedAt     `json:"deletedAt,omitempty" gorm:"index"`
}

// MemberRole is a user's role within one organization
type MemberRole string

const (
	MemberRoleOwner  MemberRole = "owner"
	MemberRoleAdmin  MemberRole = "admin"
	MemberRoleMember MemberRole = "member"
)

// CanManage reports whether the role may change the organization's membership
func (r MemberRole) CanManage() bool {
	return r == MemberRoleOwner || r == MemberRoleAdmin
}

// OrganizationMember grants a user access to an organization. Tokens are only
// issued for organizations the user is an active member of.
type OrganizationMember struct {
	ID             uint       `json:"id" gorm:"primaryKey"`
	OrganizationID uint       `json:"organizationId" gorm:"not null;uniqueIndex:uk_organization_members_org_user,priority:1"`
	UserID         uint       `json:"userId" gorm:"not null;index;uniqueIndex:uk_organization_members_org_user,priority:2"`
	Role           MemberRole `json:"role" gorm:"type:varchar(20);not null;default:member"`
	Active         bool       `json:"active" gorm:"not null;default:true"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}
