package dto

import (
	"encoding/json"
	"time"
)

// OrganizationRequest creates an organization
type OrganizationRequest struct {
	ParentOrganizationID *uint           `json:"parentOrganizationId"`
	Name                 string          `json:"name" validate:"required,max=150"`
	Slug                 string          `json:"slug" validate:"omitempty,max=100,slug"`
	DisplayName          string          `json:"displayName" validate:"max=150"`
	Description          string          `json:"description"`
	LogoURL              string          `json:"logoUrl" validate:"omitempty,url,max=500"`
	Website              string          `json:"website" validate:"omitempty,url,max=255"`
	OrganizationType     string          `json:"organizationType" validate:"omitempty,oneof=platform organization reseller customer"`
	ResellerLevel        int             `json:"resellerLevel" validate:"min=0"`
	PricingStrategy      string          `json:"pricingStrategy" validate:"omitempty,oneof=inherit override"`
	MaxChildResellers    *int            `json:"maxChildResellers" validate:"omitempty,min=0"`
	OwnerUserID          *uint           `json:"ownerUserId"`
	Status               string          `json:"status" validate:"omitempty,oneof=active suspended trial cancelled"`
	TrialEndsAt          *time.Time      `json:"trialEndsAt"`
	Metadata             json.RawMessage `json:"metadata"`
}

// UpdateOrganizationRequest changes the provided fields only
type UpdateOrganizationRequest struct {
	Name              *string         `json:"name" validate:"omitempty,min=1,max=150"`
	DisplayName       *string         `json:"displayName" validate:"omitempty,max=150"`
	Description       *string         `json:"description"`
	LogoURL           *string         `json:"logoUrl" validate:"omitempty,url,max=500"`
	Website           *string         `json:"website" validate:"omitempty,url,max=255"`
	OrganizationType  *string         `json:"organizationType" validate:"omitempty,oneof=platform organization reseller customer"`
	PricingStrategy   *string         `json:"pricingStrategy" validate:"omitempty,oneof=inherit override"`
	MaxChildResellers *int            `json:"maxChildResellers" validate:"omitempty,min=0"`
	OwnerUserID       *uint           `json:"ownerUserId"`
	Status            *string         `json:"status" validate:"omitempty,oneof=active suspended trial cancelled"`
	TrialEndsAt       *time.Time      `json:"trialEndsAt"`
	Metadata          json.RawMessage `json:"metadata"`
}

// OrganizationListParams filters the organization list
type OrganizationListParams struct {
	ListParams
	Status               string `query:"status" validate:"omitempty,oneof=active suspended trial cancelled"`
	OrganizationType     string `query:"type" validate:"omitempty,oneof=platform organization reseller customer"`
	ParentOrganizationID uint   `query:"parentId"`
}

// UserRequest creates a user
type UserRequest struct {
	Name      string `json:"name" validate:"required,max=150"`
	Email     string `json:"email" validate:"required,email,max=255"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	RoleID    *uint  `json:"roleId"`
	AvatarURL string `json:"avatarUrl" validate:"omitempty,url,max=500"`
	Timezone  string `json:"timezone" validate:"max=64"`
	Locale    string `json:"locale" validate:"max=16"`
	Phone     string `json:"phone" validate:"max=32"`
}

// UpdateUserRequest changes the provided fields only
type UpdateUserRequest struct {
	Name      *string `json:"name" validate:"omitempty,min=1,max=150"`
	Email     *string `json:"email" validate:"omitempty,email,max=255"`
	Password  *string `json:"password" validate:"omitempty,min=8,max=72"`
	RoleID    *uint   `json:"roleId"`
	AvatarURL *string `json:"avatarUrl" validate:"omitempty,url,max=500"`
	Timezone  *string `json:"timezone" validate:"omitempty,max=64"`
	Locale    *string `json:"locale" validate:"omitempty,max=16"`
	Phone     *string `json:"phone" validate:"omitempty,max=32"`
}

// ProjectRequest creates a project
type ProjectRequest struct {
	Name        string          `json:"name" validate:"required,max=150"`
	Slug        string          `json:"slug" validate:"omitempty,max=100,slug"`
	Description string          `json:"description"`
	Color       string          `json:"color" validate:"omitempty,tagcolor"`
	Icon        string          `json:"icon" validate:"max=50"`
	Visibility  string          `json:"visibility" validate:"omitempty,oneof=private organization public"`
	Settings    json.RawMessage `json:"settings"`
	Metadata    json.RawMessage `json:"metadata"`
}

// UpdateProjectRequest changes the provided fields only
type UpdateProjectRequest struct {
	Name        *string         `json:"name" validate:"omitempty,min=1,max=150"`
	Description *string         `json:"description"`
	Color       *string         `json:"color" validate:"omitempty,tagcolor"`
	Icon        *string         `json:"icon" validate:"omitempty,max=50"`
	Visibility  *string         `json:"visibility" validate:"omitempty,oneof=private organization public"`
	Settings    json.RawMessage `json:"settings"`
	Metadata    json.RawMessage `json:"metadata"`
}

// ProjectListParams filters the project list
type ProjectListParams struct {
	ListParams
	Status string `query:"status" validate:"omitempty,oneof=active archived deleted"`
}

// LoginRequest exchanges credentials for a token scoped to one organization
type LoginRequest struct {
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required"`
	OrganizationID uint   `json:"organizationId" validate:"required"`
}

// LoginResponse carries the signed token
type LoginResponse struct {
	Token          string `json:"token"`
	UserID         uint   `json:"userId"`
	Email          string `json:"email"`
	OrganizationID uint   `json:"organizationId"`
	Role           string `json:"role"`
}

// MemberRequest adds a user to an organization
type MemberRequest struct {
	UserID uint   `json:"userId" validate:"required"`
	Role   string `json:"role" validate:"omitempty,oneof=owner admin member"`
}

// UpdateMemberRequest changes a membership's role or active flag
type UpdateMemberRequest struct {
	Role   *string `json:"role" validate:"omitempty,oneof=owner admin member"`
	Active *bool   `json:"active"`
}
