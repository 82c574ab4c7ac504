package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"contact-service/internal/apperrors"
	"contact-service/internal/dto"
	"contact-service/internal/model"
	"contact-service/pkg/database"
	"contact-service/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TagService manages contact tags and their assignments
type TagService struct {
	db *gorm.DB
}

func NewTagService(db *gorm.DB) *TagService {
	return &TagService{db: db}
}

// Create adds a tag; names are unique per organization
func (s *TagService) Create(ctx context.Context, organizationID uint, req dto.TagRequest, createdBy *uint) (*model.ContactTag, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.FieldValidation("Tag name is required", map[string]string{"name": "is required"})
	}

	tag := &model.ContactTag{
		OrganizationID: organizationID,
		Name:           name,
		Color:          req.Color,
		Description:    req.Description,
		IsActive:       boolOr(req.IsActive, true),
		CreatedBy:      createdBy,
	}
	if tag.Color == "" {
		tag.Color = model.DefaultTagColor
	}

	err := database.Transaction(ctx, s.db, func(ctx context.Context, tx *gorm.DB) error {
		if err := s.checkNameFree(ctx, organizationID, name, 0); err != nil {
			return err
		}
		return tx.Create(tag).Error
	})
	if database.IsUniqueViolation(err) {
		return nil, duplicateTag(name)
	}
	if err != nil {
		return nil, dbError("Failed to create tag", err)
	}

	logger.FromContext(ctx).Info("Tag created",
		zap.Uint("organization_id", organizationID),
		zap.Uint("tag_id", tag.ID),
		zap.String("name", tag.Name))
	return tag, nil
}

func (s *TagService) checkNameFree(ctx context.Context, organizationID uint, name string, exceptID uint) error {
	var count int64
	err := database.Conn(ctx, s.db).Model(&model.ContactTag{}).
		Where("organization_id = ? AND name = ? AND id <> ?", organizationID, name, exceptID).
		Count(&count).Error
	if err != nil {
		return dbError("Failed to check tag name", err)
	}
	if count > 0 {
		return duplicateTag(name)
	}
	return nil
}

func duplicateTag(name string) error {
	return apperrors.Duplicate(fmt.Sprintf("Tag with name %s already exists", name))
}

// List returns the organization's tags by name, optionally only active or inactive ones
func (s *TagService) List(ctx context.Context, organizationID uint, active *bool) ([]model.ContactTag, error) {
	q := database.Conn(ctx, s.db).Where("organization_id = ?", organizationID)
	if active != nil {
		q = q.Where("is_active = ?", *active)
	}

	var tags []model.ContactTag
	if err := q.Order("name ASC").Find(&tags).Error; err != nil {
		return nil, dbError("Failed to list tags", err)
	}
	return tags, nil
}

// Get returns a tag of the organization
func (s *TagService) Get(ctx context.Context, organizationID, id uint) (*model.ContactTag, error) {
	var tag model.ContactTag
	err := database.Conn(ctx, s.db).
		Where("id = ? AND organization_id = ?", id, organizationID).
		First(&tag).Error
	if err != nil {
		return nil, notFoundOr(err, "Tag", id, "Failed to load tag")
	}
	return &tag, nil
}

// Update changes the provided fields; a rename must stay unique
func (s *TagService) Update(ctx context.Context, organizationID, id uint, req dto.UpdateTagRequest) (*model.ContactTag, error) {
	var tag *model.ContactTag
	err := database.Transaction(ctx, s.db, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		tag, err = s.Get(ctx, organizationID, id)
		if err != nil {
			return err
		}

		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return apperrors.FieldValidation("Tag name is required", map[string]string{"name": "is required"})
			}
			if name != tag.Name {
				if err := s.checkNameFree(ctx, organizationID, name, tag.ID); err != nil {
					return err
				}
				tag.Name = name
			}
		}
		if req.Color != nil {
			tag.Color = *req.Color
		}
		if req.Description != nil {
			tag.Description = *req.Description
		}
		if req.IsActive != nil {
			tag.IsActive = *req.IsActive
		}
		return tx.Save(tag).Error
	})
	if database.IsUniqueViolation(err) {
		return nil, duplicateTag(tag.Name)
	}
	if err != nil {
		return nil, dbError("Failed to update tag", err)
	}
	return tag, nil
}

// Delete removes a tag and all of its assignments. System tags cannot be deleted.
func (s *TagService) Delete(ctx context.Context, organizationID, id uint) error {
	return database.Transaction(ctx, s.db, func(ctx context.Context, tx *gorm.DB) error {
		tag, err := s.Get(ctx, organizationID, id)
		if err != nil {
			return err
		}
		if tag.IsSystem {
			return apperrors.Validationf("System tag %s cannot be deleted", tag.Name)
		}
		if err := tx.Where("tag_id = ?", tag.ID).Delete(&model.ContactTagAssignment{}).Error; err != nil {
			return dbError("Failed to delete tag assignments", err)
		}
		if err := tx.Delete(tag).Error; err != nil {
			return dbError("Failed to delete tag", err)
		}

		logger.FromContext(ctx).Info("Tag deleted", zap.Uint("tag_id", tag.ID), zap.String("name", tag.Name))
		return nil
	})
}

// Assign links a tag to a contact. The tag must belong to the contact's
// organization and the pair must not be assigned already.
func (s *TagService) Assign(ctx context.Context, contactID, tagID, organizationID uint, assignedBy *uint) (*model.ContactTagAssignment, error) {
	var assignment *model.ContactTagAssignment
	err := database.Transaction(ctx, s.db, func(ctx context.Context, tx *gorm.DB) error {
		if err := requireContact(ctx, s.db, organizationID, contactID); err != nil {
			return err
		}

		var tag model.ContactTag
		if err := tx.First(&tag, tagID).Error; err != nil {
			return notFoundOr(err, "Tag", tagID, "Failed to load tag")
		}
		if tag.OrganizationID != organizationID {
			logger.FromContext(ctx).Warn("Cross-organization tag assignment rejected",
				zap.Uint("organization_id", organizationID),
				zap.Uint("tag_organization_id", tag.OrganizationID),
				zap.Uint("tag_id", tagID))
			return apperrors.AccessDenied("Tag does not belong to this organization")
		}

		var count int64
		if err := tx.Model(&model.ContactTagAssignment{}).
			Where("contact_id = ? AND tag_id = ?", contactID, tagID).
			Count(&count).Error; err != nil {
			return dbError("Failed to check tag assignment", err)
		}
		if count > 0 {
			return duplicateAssignment()
		}

		assignment = &model.ContactTagAssignment{
			ContactID:  contactID,
			TagID:      tagID,
			AssignedBy: assignedBy,
			AssignedAt: time.Now().UTC(),
		}
		err := database.Transaction(ctx, s.db, func(ctx context.Context, tx *gorm.DB) error {
			return tx.Create(assignment).Error
		})
		if database.IsUniqueViolation(err) {
			return duplicateAssignment()
		}
		return dbError("Failed to assign tag", err)
	})
	if err != nil {
		return nil, err
	}
	return assignment, nil
}

func duplicateAssignment() error {
	return apperrors.Duplicate("Tag is already assigned to this contact")
}

// ReplaceAssignments makes tagIDs the contact's exact tag set
func (s *TagService) ReplaceAssignments(ctx context.Context, contactID, organizationID uint, tagIDs []uint, assignedBy *uint) error {
	return database.Transaction(ctx, s.db, func(ctx context.Context, tx *gorm.DB) error {
		if err := tx.Where("contact_id = ?", contactID).Delete(&model.ContactTagAssignment{}).Error; err != nil {
			return dbError("Failed to clear tag assignments", err)
		}
		for _, tagID := range uniqueUints(tagIDs) {
			if _, err := s.Assign(ctx, contactID, tagID, organizationID, assignedBy); err != nil {
				return err
			}
		}
		return nil
	})
}

// Unassign removes the assignment of tagID from contactID
func (s *TagService) Unassign(ctx context.Context, organizationID, contactID, tagID uint) error {
	if err := requireContact(ctx, s.db, organizationID, contactID); err != nil {
		return err
	}

	res := database.Conn(ctx, s.db).
		Where("contact_id = ? AND tag_id = ?", contactID, tagID).
		Delete(&model.ContactTagAssignment{})
	if res.Error != nil {
		return dbError("Failed to unassign tag", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFoundf("Tag %d is not assigned to contact %d", tagID, contactID)
	}
	return nil
}

// DeleteAssignment removes an assignment by id
func (s *TagService) DeleteAssignment(ctx context.Context, organizationID, assignmentID uint) error {
	var assignment model.ContactTagAssignment
	err := database.Conn(ctx, s.db).
		Joins("JOIN contacts c ON c.id = contact_tag_assignments.contact_id").
		Where("contact_tag_assignments.id = ? AND c.organization_id = ?", assignmentID, organizationID).
		First(&assignment).Error
	if err != nil {
		return notFoundOr(err, "Tag assignment", assignmentID, "Failed to load tag assignment")
	}
	return dbError("Failed to delete tag assignment", database.Conn(ctx, s.db).Delete(&assignment).Error)
}

// ListByContact returns a contact's assignments, oldest first
func (s *TagService) ListByContact(ctx context.Context, organizationID, contactID uint) ([]model.ContactTagAssignment, error) {
	if err := requireContact(ctx, s.db, organizationID, contactID); err != nil {
		return nil, err
	}

	var assignments []model.ContactTagAssignment
	err := database.Conn(ctx, s.db).
		Where("contact_id = ?", contactID).
		Order("assigned_at ASC, id ASC").
		Find(&assignments).Error
	if err != nil {
		return nil, dbError("Failed to list tag assignments", err)
	}
	return assignments, nil
}

// ListByTag returns the assignments of a tag, oldest first
func (s *TagService) ListByTag(ctx context.Context, organizationID, tagID uint) ([]model.ContactTagAssignment, error) {
	if _, err := s.Get(ctx, organizationID, tagID); err != nil {
		return nil, err
	}

	var assignments []model.ContactTagAssignment
	err := database.Conn(ctx, s.db).
		Where("tag_id = ?", tagID).
		Order("assigned_at ASC, id ASC").
		Find(&assignments).Error
	if err != nil {
		return nil, dbError("Failed to list tag assignments", err)
	}
	return assignments, nil
}
