package service

import (
	"context"
	"fmt"

	"contact-service/internal/apperrors"
	"contact-service/internal/dto"
	"contact-service/internal/model"
	"contact-service/pkg/database"
	"contact-service/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrNotMember is returned when a user has no active membership in the organization
var ErrNotMember = apperrors.AccessDenied("User is not a member of this organization")

// AddMember grants a user access to the organization
func (s *OrganizationService) AddMember(ctx context.Context, organizationID uint, req dto.MemberRequest) (*model.OrganizationMember, error) {
	role := model.MemberRoleMember
	if req.Role != "" {
		var err error
		if role, err = memberRole(req.Role); err != nil {
			return nil, err
		}
	}
	member := &model.OrganizationMember{
		OrganizationID: organizationID,
		UserID:         req.UserID,
		Role:           role,
		Active:         true,
	}

	err := database.Transaction(ctx, s.db, func(ctx context.Context, tx *gorm.DB) error {
		if _, err := s.Get(ctx, organizationID); err != nil {
			return err
		}
		return s.insertMember(ctx, tx, member)
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("Organization member added",
		zap.Uint("organization_id", organizationID),
		zap.Uint("user_id", member.UserID),
		zap.String("role", string(member.Role)))
	return member, nil
}

func (s *OrganizationService) insertMember(ctx context.Context, tx *gorm.DB, member *model.OrganizationMember) error {
	var user model.User
	if err := tx.Select("id").First(&user, member.UserID).Error; err != nil {
		return notFoundOr(err, "User", member.UserID, "Failed to load user")
	}

	var count int64
	if err := tx.Model(&model.OrganizationMember{}).
		Where("organization_id = ? AND user_id = ?", member.OrganizationID, member.UserID).
		Count(&count).Error; err != nil {
		return dbError("Failed to check membership", err)
	}
	if count > 0 {
		return duplicateMember(member.UserID)
	}

	err := database.Transaction(ctx, s.db, func(ctx context.Context, tx *gorm.DB) error {
		return tx.Create(member).Error
	})
	if database.IsUniqueViolation(err) {
		return duplicateMember(member.UserID)
	}
	return dbError("Failed to add member", err)
}

func memberRole(raw string) (model.MemberRole, error) {
	switch role := model.MemberRole(raw); role {
	case model.MemberRoleOwner, model.MemberRoleAdmin, model.MemberRoleMember:
		return role, nil
	}
	return "", apperrors.FieldValidation("Invalid member role", map[string]string{"role": "must be one of owner admin member"})
}

func duplicateMember(userID uint) error {
	return apperrors.Duplicate(fmt.Sprintf("User %d is already a member of this organization", userID))
}

// ListMembers returns the organization's memberships ordered by id
func (s *OrganizationService) ListMembers(ctx context.Context, organizationID uint) ([]model.OrganizationMember, error) {
	var members []model.OrganizationMember
	if err := database.Conn(ctx, s.db).
		Where("organization_id = ?", organizationID).
		Order("id ASC").
		Find(&members).Error; err != nil {
		return nil, dbError("Failed to list members", err)
	}
	return members, nil
}

// GetMember returns one membership regardless of its active flag
func (s *OrganizationService) GetMember(ctx context.Context, organizationID, userID uint) (*model.OrganizationMember, error) {
	var member model.OrganizationMember
	if err := database.Conn(ctx, s.db).
		Where("organization_id = ? AND user_id = ?", organizationID, userID).
		First(&member).Error; err != nil {
		return nil, notFoundOr(err, "Member", userID, "Failed to load member")
	}
	return &member, nil
}

// Membership returns the user's active membership in a live organization,
// or ErrNotMember
func (s *OrganizationService) Membership(ctx context.Context, organizationID, userID uint) (*model.OrganizationMember, error) {
	if _, err := s.Get(ctx, organizationID); err != nil {
		return nil, err
	}
	member, err := s.GetMember(ctx, organizationID, userID)
	if apperrors.KindOf(err) == apperrors.KindNotFound {
		return nil, ErrNotMember
	}
	if err != nil {
		return nil, err
	}
	if !member.Active {
		return nil, ErrNotMember
	}
	return member, nil
}

// UpdateMember changes the role or active flag of a membership
func (s *OrganizationService) UpdateMember(ctx context.Context, organizationID, userID uint, req dto.UpdateMemberRequest) (*model.OrganizationMember, error) {
	var member *model.OrganizationMember
	err := database.Transaction(ctx, s.db, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		if member, err = s.GetMember(ctx, organizationID, userID); err != nil {
			return err
		}
		updates := map[string]interface{}{}
		if req.Role != nil {
			if member.Role, err = memberRole(*req.Role); err != nil {
				return err
			}
			updates["role"] = member.Role
		}
		if req.Active != nil {
			member.Active = *req.Active
			updates["active"] = member.Active
		}
		if len(updates) == 0 {
			return nil
		}
		return dbError("Failed to update member", tx.Model(member).Updates(updates).Error)
	})
	if err != nil {
		return nil, err
	}
	return member, nil
}

// RemoveMember revokes the user's access to the organization
func (s *OrganizationService) RemoveMember(ctx context.Context, organizationID, userID uint) error {
	res := database.Conn(ctx, s.db).
		Where("organization_id = ? AND user_id = ?", organizationID, userID).
		Delete(&model.OrganizationMember{})
	if res.Error != nil {
		return dbError("Failed to remove member", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("Member", userID)
	}
	logger.FromContext(ctx).Info("Organization member removed",
		zap.Uint("organization_id", organizationID),
		zap.Uint("user_id", userID))
	return nil
}
