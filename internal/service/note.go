package service

import (
	"context"
	"strings"

	"contact-service/internal/apperrors"
	"contact-service/internal/dto"
	"contact-service/internal/model"
	"contact-service/pkg/database"
	"contact-service/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NoteService manages free-text notes on contacts
type NoteService struct {
	db       *gorm.DB
	projects *ProjectService
}

func NewNoteService(db *gorm.DB, projects *ProjectService) *NoteService {
	return &NoteService{db: db, projects: projects}
}

// Create adds a note to a contact. A project scope must be a live project of the same organization.
func (s *NoteService) Create(ctx context.Context, organizationID, contactID uint, req dto.NoteRequest, createdBy *uint) (*model.ContactNote, error) {
	text := strings.TrimSpace(req.NoteText)
	if text == "" {
		return nil, apperrors.FieldValidation("Note text is required", map[string]string{"noteText": "is required"})
	}

	visibility := model.NoteVisibilityTeam
	if req.Visibility != "" {
		visibility = model.NoteVisibility(req.Visibility)
	}

	note := &model.ContactNote{
		OrganizationID: organizationID,
		ContactID:      contactID,
		ProjectID:      req.ProjectID,
		NoteText:       text,
		Visibility:     visibility,
		CreatedBy:      createdBy,
	}

	err := database.Transaction(ctx, s.db, func(ctx context.Context, tx *gorm.DB) error {
		if err := requireContact(ctx, s.db, organizationID, contactID); err != nil {
			return err
		}
		if req.ProjectID != nil {
			if err := s.requireLiveProject(ctx, organizationID, *req.ProjectID); err != nil {
				return err
			}
		}
		return dbError("Failed to create note", tx.Create(note).Error)
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("Note created",
		zap.Uint("organization_id", organizationID),
		zap.Uint("contact_id", contactID),
		zap.Uint("note_id", note.ID))
	return note, nil
}

func (s *NoteService) requireLiveProject(ctx context.Context, organizationID, projectID uint) error {
	project, err := s.projects.Get(ctx, organizationID, projectID)
	if err != nil {
		return err
	}
	if project.Status == model.ProjectStatusDeleted {
		return apperrors.NotFound("Project", projectID)
	}
	return nil
}

// ListByContact returns a contact's notes, newest first
func (s *NoteService) ListByContact(ctx context.Context, organizationID, contactID uint) ([]model.ContactNote, error) {
	if err := requireContact(ctx, s.db, organizationID, contactID); err != nil {
		return nil, err
	}

	var notes []model.ContactNote
	err := database.Conn(ctx, s.db).
		Where("contact_id = ? AND organization_id = ?", contactID, organizationID).
		Order("created_at DESC, id DESC").
		Find(&notes).Error
	if err != nil {
		return nil, dbError("Failed to list notes", err)
	}
	return notes, nil
}

// Get returns a note of the organization
func (s *NoteService) Get(ctx context.Context, organizationID, id uint) (*model.ContactNote, error) {
	var note model.ContactNote
	err := database.Conn(ctx, s.db).
		Where("id = ? AND organization_id = ?", id, organizationID).
		First(&note).Error
	if err != nil {
		return nil, notFoundOr(err, "Note", id, "Failed to load note")
	}
	return &note, nil
}

// Update changes the text or visibility of a note
func (s *NoteService) Update(ctx context.Context, organizationID, id uint, req dto.UpdateNoteRequest) (*model.ContactNote, error) {
	var note *model.ContactNote
	err := database.Transaction(ctx, s.db, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		if note, err = s.Get(ctx, organizationID, id); err != nil {
			return err
		}
		if req.NoteText != nil {
			text := strings.TrimSpace(*req.NoteText)
			if text == "" {
				return apperrors.FieldValidation("Note text is required", map[string]string{"noteText": "is required"})
			}
			note.NoteText = text
		}
		if req.Visibility != nil {
			note.Visibility = model.NoteVisibility(*req.Visibility)
		}
		return dbError("Failed to update note", tx.Save(note).Error)
	})
	if err != nil {
		return nil, err
	}
	return note, nil
}

// Delete removes a note
func (s *NoteService) Delete(ctx context.Context, organizationID, id uint) error {
	note, err := s.Get(ctx, organizationID, id)
	if err != nil {
		return err
	}
	return dbError("Failed to delete note", database.Conn(ctx, s.db).Delete(note).Error)
}
