package service

import (
	"context"
	"fmt"
	"strings"

	"contact-service/internal/apperrors"
	"contact-service/internal/dto"
	"contact-service/internal/model"
	"contact-service/internal/query"
	"contact-service/pkg/database"
	"contact-service/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OrganizationService is the tenant registry
type OrganizationService struct {
	db *gorm.DB
}

func NewOrganizationService(db *gorm.DB) *OrganizationService {
	return &OrganizationService{db: db}
}

// Create registers an organization. The slug is derived from the name when
// absent and must be unique among all organizations, deleted ones included.
// An owner user becomes the organization's first member.
func (s *OrganizationService) Create(ctx context.Context, req dto.OrganizationRequest) (*model.Organization, error) {
	slug := req.Slug
	if slug == "" {
		slug = Slugify(req.Name)
	}
	if slug == "" {
		return nil, apperrors.FieldValidation("Invalid organization slug", map[string]string{"slug": "cannot be derived from name"})
	}

	org := &model.Organization{
		ParentOrganizationID: req.ParentOrganizationID,
		UUID:                 uuid.New().String(),
		Slug:                 slug,
		Name:                 strings.TrimSpace(req.Name),
		DisplayName:          req.DisplayName,
		Description:          req.Description,
		LogoURL:              req.LogoURL,
		Website:              req.Website,
		OrganizationType:     model.OrganizationTypeCustomer,
		ResellerLevel:        req.ResellerLevel,
		PricingStrategy:      model.PricingStrategyInherit,
		MaxChildResellers:    req.MaxChildResellers,
		OwnerUserID:          req.OwnerUserID,
		Status:               model.OrganizationStatusActive,
		TrialEndsAt:          req.TrialEndsAt,
		Metadata:             jsonOr(req.Metadata, "{}"),
	}
	if req.OrganizationType != "" {
		org.OrganizationType = model.OrganizationType(req.OrganizationType)
	}
	if req.PricingStrategy != "" {
		org.PricingStrategy = model.PricingStrategy(req.PricingStrategy)
	}
	if req.Status != "" {
		org.Status = model.OrganizationStatus(req.Status)
	}

	err := database.Transaction(ctx, s.db, func(ctx context.Context, tx *gorm.DB) error {
		var count int64
		if err := tx.Unscoped().Model(&model.Organization{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
			return dbError("Failed to check organization slug", err)
		}
		if count > 0 {
			return duplicateOrganization(slug)
		}

		if req.ParentOrganizationID != nil {
			if _, err := s.Get(ctx, *req.ParentOrganizationID); err != nil {
				return err
			}
		}
		if err := tx.Create(org).Error; err != nil {
			return err
		}
		if req.OwnerUserID == nil {
			return nil
		}
		return s.insertMember(ctx, tx, &model.OrganizationMember{
			OrganizationID: org.ID,
			UserID:         *req.OwnerUserID,
			Role:           model.MemberRoleOwner,
			Active:         true,
		})
	})
	if database.IsUniqueViolation(err) {
		return nil, duplicateOrganization(slug)
	}
	if err != nil {
		return nil, dbError("Failed to create organization", err)
	}

	logger.FromContext(ctx).Info("Organization created",
		zap.Uint("organization_id", org.ID),
		zap.String("uuid", org.UUID),
		zap.String("slug", org.Slug))
	return org, nil
}

func duplicateOrganization(slug string) error {
	return apperrors.Duplicate(fmt.Sprintf("Organization with slug %s already exists", slug))
}

// Get returns a live organization by id
func (s *OrganizationService) Get(ctx context.Context, id uint) (*model.Organization, error) {
	var org model.Organization
	if err := database.Conn(ctx, s.db).First(&org, id).Error; err != nil {
		return nil, notFoundOr(err, "Organization", id, "Failed to load organization")
	}
	return &org, nil
}

// GetByUUID returns a live organization by its public id
func (s *OrganizationService) GetByUUID(ctx context.Context, id string) (*model.Organization, error) {
	var org model.Organization
	if err := database.Conn(ctx, s.db).Where("uuid = ?", id).First(&org).Error; err != nil {
		return nil, notFoundOr(err, "Organization", id, "Failed to load organization")
	}
	return &org, nil
}

// GetBySlug returns a live organization by slug
func (s *OrganizationService) GetBySlug(ctx context.Context, slug string) (*model.Organization, error) {
	var org model.Organization
	if err := database.Conn(ctx, s.db).Where("slug = ?", slug).First(&org).Error; err != nil {
		return nil, notFoundOr(err, "Organization", slug, "Failed to load organization")
	}
	return &org, nil
}

// List returns a page of organizations ordered by id
func (s *OrganizationService) List(ctx context.Context, params dto.OrganizationListParams) (*query.Page[model.Organization], error) {
	page, size, err := pageParams(params.ListParams)
	if err != nil {
		return nil, err
	}

	q := database.Conn(ctx, s.db).Model(&model.Organization{})
	if params.IncludeDeleted {
		q = q.Unscoped()
	}
	if params.Status != "" {
		q = q.Where("status = ?", params.Status)
	}
	if params.OrganizationType != "" {
		q = q.Where("organization_type = ?", params.OrganizationType)
	}
	if params.ParentOrganizationID != 0 {
		q = q.Where("parent_organization_id = ?", params.ParentOrganizationID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, dbError("Failed to count organizations", err)
	}

	var orgs []model.Organization
	if err := q.Order("id ASC").Limit(size).Offset(page * size).Find(&orgs).Error; err != nil {
		return nil, dbError("Failed to list organizations", err)
	}

	result := query.NewPage(orgs, total, page, size)
	return &result, nil
}

// Update changes the provided fields
func (s *OrganizationService) Update(ctx context.Context, id uint, req dto.UpdateOrganizationRequest) (*model.Organization, error) {
	var org *model.Organization
	err := database.Transaction(ctx, s.db, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		if org, err = s.Get(ctx, id); err != nil {
			return err
		}
		if req.Name != nil {
			org.Name = strings.TrimSpace(*req.Name)
		}
		if req.DisplayName != nil {
			org.DisplayName = *req.DisplayName
		}
		if req.Description != nil {
			org.Description = *req.Description
		}
		if req.LogoURL != nil {
			org.LogoURL = *req.LogoURL
		}
		if req.Website != nil {
			org.Website = *req.Website
		}
		if req.OrganizationType != nil {
			org.OrganizationType = model.OrganizationType(*req.OrganizationType)
		}
		if req.PricingStrategy != nil {
			org.PricingStrategy = model.PricingStrategy(*req.PricingStrategy)
		}
		if req.MaxChildResellers != nil {
			org.MaxChildResellers = req.MaxChildResellers
		}
		if req.OwnerUserID != nil {
			org.OwnerUserID = req.OwnerUserID
		}
		if req.Status != nil {
			org.Status = model.OrganizationStatus(*req.Status)
		}
		if req.TrialEndsAt != nil {
			org.TrialEndsAt = req.TrialEndsAt
		}
		if len(req.Metadata) > 0 {
			org.Metadata = jsonOr(req.Metadata, "{}")
		}
		return dbError("Failed to update organization", tx.Save(org).Error)
	})
	if err != nil {
		return nil, err
	}
	return org, nil
}

// SoftDelete cancels the organization and hides it from default queries
func (s *OrganizationService) SoftDelete(ctx context.Context, id uint) error {
	return database.Transaction(ctx, s.db, func(ctx context.Context, tx *gorm.DB) error {
		org, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.Model(org).Update("status", model.OrganizationStatusCancelled).Error; err != nil {
			return dbError("Failed to delete organization", err)
		}
		if err := tx.Delete(org).Error; err != nil {
			return dbError("Failed to delete organization", err)
		}
		logger.FromContext(ctx).Info("Organization deleted", zap.Uint("organization_id", id))
		return nil
	})
}

// HardDelete removes the organization row with its schema, tags, members and
// projects. It is refused while the organization still has contacts.
func (s *OrganizationService) HardDelete(ctx context.Context, id uint) error {
	return database.Transaction(ctx, s.db, func(ctx context.Context, tx *gorm.DB) error {
		var org model.Organization
		if err := tx.Unscoped().First(&org, id).Error; err != nil {
			return notFoundOr(err, "Organization", id, "Failed to load organization")
		}

		var contacts int64
		if err := tx.Model(&model.Contact{}).Where("organization_id = ?", id).Count(&contacts).Error; err != nil {
			return dbError("Failed to count contacts", err)
		}
		if contacts > 0 {
			return apperrors.Validationf("Organization %d still has %d contacts", id, contacts)
		}

		defIDs := tx.Model(&model.AttributeDefinition{}).Select("id").Where("organization_id = ?", id)
		if err := tx.Where("attribute_definition_id IN (?)", defIDs).Delete(&model.AttributeOption{}).Error; err != nil {
			return dbError("Failed to delete attribute options", err)
		}
		for _, m := range []interface{}{&model.AttributeDefinition{}, &model.ContactTag{}, &model.OrganizationMember{}} {
			if err := tx.Where("organization_id = ?", id).Delete(m).Error; err != nil {
				return dbError("Failed to delete organization data", err)
			}
		}
		if err := tx.Unscoped().Where("organization_id = ?", id).Delete(&model.Project{}).Error; err != nil {
			return dbError("Failed to delete projects", err)
		}
		if err := tx.Unscoped().Delete(&org).Error; err != nil {
			return dbError("Failed to delete organization", err)
		}

		logger.FromContext(ctx).Warn("Organization permanently deleted",
			zap.Uint("organization_id", id),
			zap.String("slug", org.Slug))
		return nil
	})
}
