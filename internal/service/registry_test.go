package service

import (
	"context"
	"testing"
	"time"

	"contact-service/internal/apperrors"
	"contact-service/internal/dto"
	"contact-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrganization_Lifecycle(t *testing.T) {
	svc, _ := newServices(t)
	ctx := context.Background()

	org, err := svc.Organizations.Create(ctx, dto.OrganizationRequest{Name: "Acme Corp"})
	require.NoError(t, err)
	assert.Equal(t, "acme-corp", org.Slug)
	assert.Len(t, org.UUID, 36)
	assert.Equal(t, model.OrganizationStatusActive, org.Status)
	assert.Equal(t, model.OrganizationTypeCustomer, org.OrganizationType)
	assert.JSONEq(t, `{}`, string(org.Metadata))

	_, err = svc.Organizations.Create(ctx, dto.OrganizationRequest{Name: "ACME corp"})
	requireKind(t, err, apperrors.KindDuplicate)

	missing := uint(999)
	_, err = svc.Organizations.Create(ctx, dto.OrganizationRequest{Name: "Child", ParentOrganizationID: &missing})
	requireKind(t, err, apperrors.KindNotFound)

	child, err := svc.Organizations.Create(ctx, dto.OrganizationRequest{Name: "Child", ParentOrganizationID: &org.ID, OrganizationType: "reseller"})
	require.NoError(t, err)

	byUUID, err := svc.Organizations.GetByUUID(ctx, org.UUID)
	require.NoError(t, err)
	assert.Equal(t, org.ID, byUUID.ID)
	bySlug, err := svc.Organizations.GetBySlug(ctx, "child")
	require.NoError(t, err)
	assert.Equal(t, child.ID, bySlug.ID)

	page, err := svc.Organizations.List(ctx, dto.OrganizationListParams{ParentOrganizationID: org.ID})
	require.NoError(t, err)
	require.Len(t, page.Content, 1)
	assert.Equal(t, child.ID, page.Content[0].ID)

	name := "Acme Corporation"
	updated, err := svc.Organizations.Update(ctx, org.ID, dto.UpdateOrganizationRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Acme Corporation", updated.Name)
	assert.Equal(t, "acme-corp", updated.Slug)

	require.NoError(t, svc.Organizations.SoftDelete(ctx, child.ID))
	_, err = svc.Organizations.Get(ctx, child.ID)
	requireKind(t, err, apperrors.KindNotFound)

	page, err = svc.Organizations.List(ctx, dto.OrganizationListParams{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.TotalElements)

	page, err = svc.Organizations.List(ctx, dto.OrganizationListParams{ListParams: dto.ListParams{IncludeDeleted: true}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.TotalElements)

	// The slug of a deleted organization stays taken
	_, err = svc.Organizations.Create(ctx, dto.OrganizationRequest{Name: "Child"})
	requireKind(t, err, apperrors.KindDuplicate)
}

func TestOrganization_HardDelete(t *testing.T) {
	svc, db := newServices(t)
	ctx := context.Background()

	org, err := svc.Organizations.Create(ctx, dto.OrganizationRequest{Name: "Acme"})
	require.NoError(t, err)
	c := createContact(t, svc, org.ID, "John", "9876543210", map[string]string{"city": "Delhi"})

	err = svc.Organizations.HardDelete(ctx, org.ID)
	requireKind(t, err, apperrors.KindValidation)

	require.NoError(t, svc.Contacts.Delete(ctx, org.ID, c.ID))
	require.NoError(t, svc.Organizations.HardDelete(ctx, org.ID))

	var orgs, defs int64
	require.NoError(t, db.Unscoped().Model(&model.Organization{}).Count(&orgs).Error)
	require.NoError(t, db.Model(&model.AttributeDefinition{}).Count(&defs).Error)
	assert.Zero(t, orgs)
	assert.Zero(t, defs)
}

func TestUser_Lifecycle(t *testing.T) {
	svc, _ := newServices(t)
	ctx := context.Background()

	user, err := svc.Users.Create(ctx, dto.UserRequest{Name: "Ann", Email: " Ann@Example.com ", Password: "s3cret-pass", Phone: "+919876543210"})
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", user.Email)
	assert.Equal(t, model.UserStatusPendingVerification, user.Status)
	assert.NotEqual(t, "s3cret-pass", user.PasswordHash)
	assert.Equal(t, "UTC", user.Timezone)

	_, err = svc.Users.Create(ctx, dto.UserRequest{Name: "Ann", Email: "ANN@example.com", Password: "another-pass"})
	requireKind(t, err, apperrors.KindDuplicate)

	_, err = svc.Users.Create(ctx, dto.UserRequest{Name: "Bob", Email: "bob@example.com", Password: "short"})
	requireKind(t, err, apperrors.KindValidation)

	user, err = svc.Users.VerifyEmail(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.UserStatusActive, user.Status)
	assert.NotNil(t, user.EmailVerifiedAt)

	user, err = svc.Users.VerifyPhone(ctx, user.ID)
	require.NoError(t, err)
	assert.NotNil(t, user.PhoneVerifiedAt)

	byEmail, err := svc.Users.GetByEmail(ctx, "ANN@EXAMPLE.COM")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	user, err = svc.Users.Block(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.UserStatusBlocked, user.Status)
	_, err = svc.Users.Authenticate(ctx, "ann@example.com", "s3cret-pass", "10.0.0.1")
	requireKind(t, err, apperrors.KindAccessDenied)

	user, err = svc.Users.Unblock(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.UserStatusActive, user.Status)

	require.NoError(t, svc.Users.SoftDelete(ctx, user.ID))
	_, err = svc.Users.Get(ctx, user.ID)
	requireKind(t, err, apperrors.KindNotFound)

	page, err := svc.Users.List(ctx, dto.ListParams{IncludeDeleted: true})
	require.NoError(t, err)
	require.Len(t, page.Content, 1)
	assert.Equal(t, model.UserStatusDeleted, page.Content[0].Status)

	require.NoError(t, svc.Users.HardDelete(ctx, user.ID))
	err = svc.Users.HardDelete(ctx, user.ID)
	requireKind(t, err, apperrors.KindNotFound)
}

func TestUser_LoginLockout(t *testing.T) {
	svc, _ := newServices(t)
	ctx := context.Background()

	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	svc.Users.now = func() time.Time { return now }

	user, err := svc.Users.Create(ctx, dto.UserRequest{Name: "Ann", Email: "ann@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)

	for i := 0; i < model.MaxFailedLoginAttempts; i++ {
		_, err := svc.Users.Authenticate(ctx, "ann@example.com", "wrong-pass", "10.0.0.1")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	}

	locked, err := svc.Users.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.MaxFailedLoginAttempts, locked.FailedLoginAttempts)
	require.NotNil(t, locked.LockedUntil)
	assert.True(t, locked.IsLocked(now))

	// Right password while locked is still refused
	_, err = svc.Users.Authenticate(ctx, "ann@example.com", "s3cret-pass", "10.0.0.1")
	requireKind(t, err, apperrors.KindAccessDenied)

	now = now.Add(model.LoginLockDuration + time.Minute)
	ok, err := svc.Users.Authenticate(ctx, "ann@example.com", "s3cret-pass", "10.0.0.1")
	require.NoError(t, err)
	assert.Zero(t, ok.FailedLoginAttempts)
	assert.Nil(t, ok.LockedUntil)
	assert.NotNil(t, ok.LastLoginAt)
	assert.Equal(t, "10.0.0.1", ok.LastLoginIP)

	_, err = svc.Users.Authenticate(ctx, "nobody@example.com", "whatever", "10.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestProject_Lifecycle(t *testing.T) {
	svc, _ := newServices(t)
	ctx := context.Background()

	p, err := svc.Projects.Create(ctx, orgA, dto.ProjectRequest{Name: "Spring Launch"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "spring-launch", p.Slug)
	assert.Equal(t, model.ProjectStatusActive, p.Status)
	assert.Equal(t, model.ProjectVisibilityOrganization, p.Visibility)

	_, err = svc.Projects.Create(ctx, orgA, dto.ProjectRequest{Name: "Spring Launch"}, nil)
	requireKind(t, err, apperrors.KindDuplicate)
	_, err = svc.Projects.Create(ctx, orgB, dto.ProjectRequest{Name: "Spring Launch"}, nil)
	require.NoError(t, err)

	_, err = svc.Projects.Get(ctx, orgB, p.ID)
	requireKind(t, err, apperrors.KindNotFound)

	by := uint(3)
	archived, err := svc.Projects.Archive(ctx, orgA, p.ID, &by)
	require.NoError(t, err)
	assert.Equal(t, model.ProjectStatusArchived, archived.Status)
	assert.NotNil(t, archived.ArchivedAt)

	_, err = svc.Projects.Archive(ctx, orgA, p.ID, &by)
	requireKind(t, err, apperrors.KindValidation)

	page, err := svc.Projects.List(ctx, orgA, dto.ProjectListParams{Status: "archived"})
	require.NoError(t, err)
	require.Len(t, page.Content, 1)

	restored, err := svc.Projects.Restore(ctx, orgA, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ProjectStatusActive, restored.Status)
	assert.Nil(t, restored.ArchivedAt)

	require.NoError(t, svc.Projects.SoftDelete(ctx, orgA, p.ID))
	_, err = svc.Projects.Get(ctx, orgA, p.ID)
	requireKind(t, err, apperrors.KindNotFound)

	page, err = svc.Projects.List(ctx, orgA, dto.ProjectListParams{Status: "deleted"})
	require.NoError(t, err)
	require.Len(t, page.Content, 1)
}

func TestOrganization_Membership(t *testing.T) {
	svc, db := newServices(t)
	ctx := context.Background()

	ann, err := svc.Users.Create(ctx, dto.UserRequest{Name: "Ann", Email: "ann@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	eve, err := svc.Users.Create(ctx, dto.UserRequest{Name: "Eve", Email: "eve@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)

	org, err := svc.Organizations.Create(ctx, dto.OrganizationRequest{Name: "Acme", OwnerUserID: &ann.ID})
	require.NoError(t, err)

	owner, err := svc.Organizations.Membership(ctx, org.ID, ann.ID)
	require.NoError(t, err)
	assert.Equal(t, model.MemberRoleOwner, owner.Role)

	_, err = svc.Organizations.Membership(ctx, org.ID, eve.ID)
	assert.ErrorIs(t, err, ErrNotMember)
	requireKind(t, err, apperrors.KindAccessDenied)

	_, err = svc.Organizations.Membership(ctx, 99, ann.ID)
	requireKind(t, err, apperrors.KindNotFound)

	_, err = svc.Organizations.AddMember(ctx, org.ID, dto.MemberRequest{UserID: eve.ID, Role: "superuser"})
	requireKind(t, err, apperrors.KindValidation)
	_, err = svc.Organizations.AddMember(ctx, org.ID, dto.MemberRequest{UserID: 999})
	requireKind(t, err, apperrors.KindNotFound)

	member, err := svc.Organizations.AddMember(ctx, org.ID, dto.MemberRequest{UserID: eve.ID})
	require.NoError(t, err)
	assert.Equal(t, model.MemberRoleMember, member.Role)
	assert.True(t, member.Active)

	_, err = svc.Organizations.AddMember(ctx, org.ID, dto.MemberRequest{UserID: eve.ID})
	requireKind(t, err, apperrors.KindDuplicate)

	inactive := false
	_, err = svc.Organizations.UpdateMember(ctx, org.ID, eve.ID, dto.UpdateMemberRequest{Active: &inactive})
	require.NoError(t, err)
	_, err = svc.Organizations.Membership(ctx, org.ID, eve.ID)
	assert.ErrorIs(t, err, ErrNotMember)

	members, err := svc.Organizations.ListMembers(ctx, org.ID)
	require.NoError(t, err)
	assert.Len(t, members, 2)

	require.NoError(t, svc.Organizations.RemoveMember(ctx, org.ID, eve.ID))
	err = svc.Organizations.RemoveMember(ctx, org.ID, eve.ID)
	requireKind(t, err, apperrors.KindNotFound)

	require.NoError(t, svc.Users.HardDelete(ctx, ann.ID))
	var left int64
	require.NoError(t, db.Model(&model.OrganizationMember{}).Where("user_id = ?", ann.ID).Count(&left).Error)
	assert.Zero(t, left)
}
