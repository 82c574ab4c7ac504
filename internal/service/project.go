package service

import (
	"context"
	"fmt"
	"strings"
	"time"

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

// ProjectService is the organization-scoped project registry
type ProjectService struct {
	db *gorm.DB
}

func NewProjectService(db *gorm.DB) *ProjectService {
	return &ProjectService{db: db}
}

// Create adds a project; the slug is derived from the name when absent
func (s *ProjectService) Create(ctx context.Context, organizationID uint, req dto.ProjectRequest, createdBy *uint) (*model.Project, error) {
	slug := req.Slug
	if slug == "" {
		slug = Slugify(req.Name)
	}
	if slug == "" {
		return nil, apperrors.FieldValidation("Invalid project slug", map[string]string{"slug": "cannot be derived from name"})
	}

	project := &model.Project{
		UUID:           uuid.New().String(),
		OrganizationID: organizationID,
		Name:           strings.TrimSpace(req.Name),
		Slug:           slug,
		Description:    req.Description,
		Color:          req.Color,
		Icon:           req.Icon,
		Status:         model.ProjectStatusActive,
		Visibility:     model.ProjectVisibilityOrganization,
		Settings:       jsonOr(req.Settings, "{}"),
		Metadata:       jsonOr(req.Metadata, "{}"),
		CreatedBy:      createdBy,
	}
	if req.Visibility != "" {
		project.Visibility = model.ProjectVisibility(req.Visibility)
	}

	err := database.Transaction(ctx, s.db, func(ctx context.Context, tx *gorm.DB) error {
		var count int64
		if err := tx.Unscoped().Model(&model.Project{}).
			Where("organization_id = ? AND slug = ?", organizationID, slug).
			Count(&count).Error; err != nil {
			return dbError("Failed to check project slug", err)
		}
		if count > 0 {
			return duplicateProject(slug)
		}
		return tx.Create(project).Error
	})
	if database.IsUniqueViolation(err) {
		return nil, duplicateProject(slug)
	}
	if err != nil {
		return nil, dbError("Failed to create project", err)
	}

	logger.FromContext(ctx).Info("Project created",
		zap.Uint("organization_id", organizationID),
		zap.Uint("project_id", project.ID),
		zap.String("slug", project.Slug))
	return project, nil
}

func duplicateProject(slug string) error {
	return apperrors.Duplicate(fmt.Sprintf("Project with slug %s already exists", slug))
}

// Get returns a project of the organization; other organizations' projects are not found
func (s *ProjectService) Get(ctx context.Context, organizationID, id uint) (*model.Project, error) {
	var project model.Project
	err := database.Conn(ctx, s.db).
		Where("id = ? AND organization_id = ?", id, organizationID).
		First(&project).Error
	if err != nil {
		return nil, notFoundOr(err, "Project", id, "Failed to load project")
	}
	return &project, nil
}

// List returns a page of the organization's projects ordered by name
func (s *ProjectService) List(ctx context.Context, organizationID uint, params dto.ProjectListParams) (*query.Page[model.Project], error) {
	page, size, err := pageParams(params.ListParams)
	if err != nil {
		return nil, err
	}

	q := database.Conn(ctx, s.db).Model(&model.Project{}).Where("organization_id = ?", organizationID)
	if params.IncludeDeleted || params.Status == string(model.ProjectStatusDeleted) {
		q = q.Unscoped()
	}
	if params.Status != "" {
		q = q.Where("status = ?", params.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, dbError("Failed to count projects", err)
	}

	var projects []model.Project
	if err := q.Order("name ASC, id ASC").Limit(size).Offset(page * size).Find(&projects).Error; err != nil {
		return nil, dbError("Failed to list projects", err)
	}

	result := query.NewPage(projects, total, page, size)
	return &result, nil
}

// Update changes the provided fields
func (s *ProjectService) Update(ctx context.Context, organizationID, id uint, req dto.UpdateProjectRequest) (*model.Project, error) {
	var project *model.Project
	err := database.Transaction(ctx, s.db, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		if project, err = s.Get(ctx, organizationID, id); err != nil {
			return err
		}
		if req.Name != nil {
			project.Name = strings.TrimSpace(*req.Name)
		}
		if req.Description != nil {
			project.Description = *req.Description
		}
		if req.Color != nil {
			project.Color = *req.Color
		}
		if req.Icon != nil {
			project.Icon = *req.Icon
		}
		if req.Visibility != nil {
			project.Visibility = model.ProjectVisibility(*req.Visibility)
		}
		if len(req.Settings) > 0 {
			project.Settings = jsonOr(req.Settings, "{}")
		}
		if len(req.Metadata) > 0 {
			project.Metadata = jsonOr(req.Metadata, "{}")
		}
		return dbError("Failed to update project", tx.Save(project).Error)
	})
	if err != nil {
		return nil, err
	}
	return project, nil
}

// Archive marks an active project archived
func (s *ProjectService) Archive(ctx context.Context, organizationID, id uint, archivedBy *uint) (*model.Project, error) {
	var project *model.Project
	err := database.Transaction(ctx, s.db, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		if project, err = s.Get(ctx, organizationID, id); err != nil {
			return err
		}
		if project.Status == model.ProjectStatusArchived {
			return apperrors.Validationf("Project %d is already archived", id)
		}
		now := time.Now().UTC()
		project.Status = model.ProjectStatusArchived
		project.ArchivedBy = archivedBy
		project.ArchivedAt = &now
		return dbError("Failed to archive project", tx.Save(project).Error)
	})
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("Project archived", zap.Uint("project_id", id))
	return project, nil
}

// Restore makes an archived project active again
func (s *ProjectService) Restore(ctx context.Context, organizationID, id uint) (*model.Project, error) {
	var project *model.Project
	err := database.Transaction(ctx, s.db, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		if project, err = s.Get(ctx, organizationID, id); err != nil {
			return err
		}
		if project.Status != model.ProjectStatusArchived {
			return apperrors.Validationf("Project %d is not archived", id)
		}
		project.Status = model.ProjectStatusActive
		project.ArchivedBy = nil
		project.ArchivedAt = nil
		return dbError("Failed to restore project", tx.Save(project).Error)
	})
	if err != nil {
		return nil, err
	}
	return project, nil
}

// SoftDelete marks the project deleted and hides it from default queries
func (s *ProjectService) SoftDelete(ctx context.Context, organizationID, id uint) error {
	return database.Transaction(ctx, s.db, func(ctx context.Context, tx *gorm.DB) error {
		project, err := s.Get(ctx, organizationID, id)
		if err != nil {
			return err
		}
		if err := tx.Model(project).Update("status", model.ProjectStatusDeleted).Error; err != nil {
			return dbError("Failed to delete project", err)
		}
		if err := tx.Delete(project).Error; err != nil {
			return dbError("Failed to delete project", err)
		}
		logger.FromContext(ctx).Info("Project deleted", zap.Uint("project_id", id))
		return nil
	})
}
