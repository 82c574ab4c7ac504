package service

import (
	"context"
	"strings"
	"time"

	"contact-service/internal/apperrors"
	"contact-service/internal/dto"
	"contact-service/internal/model"
	"contact-service/internal/phone"
	"contact-service/internal/query"
	"contact-service/pkg/database"
	"contact-service/pkg/logger"
	"contact-service/prometheus"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ContactService is the contact directory of an organization
type ContactService struct {
	db         *gorm.DB
	normalizer *phone.Normalizer
	schema     *AttributeSchemaService
	values     *AttributeValueService
	tags       *TagService
	notes      *NoteService
	assembler  *Assembler
}

func NewContactService(
	db *gorm.DB,
	normalizer *phone.Normalizer,
	schema *AttributeSchemaService,
	values *AttributeValueService,
	tags *TagService,
	notes *NoteService,
	assembler *Assembler,
) *ContactService {
	return &ContactService{
		db:         db,
		normalizer: normalizer,
		schema:     schema,
		values:     values,
		tags:       tags,
		notes:      notes,
		assembler:  assembler,
	}
}

// Create registers a contact with its attributes, tags and optional first note
func (s *ContactService) Create(ctx context.Context, organizationID uint, req dto.CreateContactRequest, createdBy *uint) (*dto.ContactDetail, error) {
	defer prometheus.TrackDBOperation("contact_create")(time.Now())
	log := logger.FromContext(ctx)

	e164, err := normalizePhone(ctx, s.normalizer, req.PhoneNumber)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.FieldValidation("Name is required", map[string]string{"name": "is required"})
	}

	now := time.Now().UTC()
	contact := &model.Contact{
		OrganizationID: organizationID,
		PhoneNumber:    e164,
		WaID:           phone.WaID(e164),
		DisplayName:    name,
		Source:         model.ContactSourceManual,
		FirstSeenAt:    &now,
	}

	// Begin transaction
	err = database.Transaction(ctx, s.db, func(ctx context.Context, tx *gorm.DB) error {
		existing, err := s.findByPhone(ctx, organizationID, e164)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperrors.DuplicateContact(e164, existing.ID)
		}

		if err := s.insert(ctx, contact); err != nil {
			return err
		}

		if _, err := s.values.Merge(ctx, contact.ID, organizationID, req.Attributes, true, model.UpdatedSourceUser); err != nil {
			return err
		}

		for _, tagID := range uniqueUints(req.TagIDs) {
			if _, err := s.tags.Assign(ctx, contact.ID, tagID, organizationID, createdBy); err != nil {
				return err
			}
		}

		if strings.TrimSpace(req.Note) != "" {
			note := dto.NoteRequest{
				NoteText:   req.Note,
				Visibility: string(model.NoteVisibilityTeam),
				ProjectID:  req.ProjectID,
			}
			if _, err := s.notes.Create(ctx, organizationID, contact.ID, note, createdBy); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Warn("Contact creation failed",
			zap.Uint("organization_id", organizationID),
			zap.String("phone", e164),
			zap.Error(err))
		return nil, err
	}

	prometheus.RecordContactOperation("create")
	log.Info("Contact created",
		zap.Uint("organization_id", organizationID),
		zap.Uint("contact_id", contact.ID),
		zap.String("phone", e164))

	return s.Get(ctx, organizationID, contact.ID)
}

// insert creates the contact in a savepoint. Losing a race to a concurrent
// create of the same phone reports the winner as a duplicate.
func (s *ContactService) insert(ctx context.Context, contact *model.Contact) error {
	err := database.Transaction(ctx, s.db, func(ctx context.Context, tx *gorm.DB) error {
		return tx.Create(contact).Error
	})
	if !database.IsUniqueViolation(err) {
		return dbError("Failed to create contact", err)
	}

	winner, findErr := s.findByPhone(ctx, contact.OrganizationID, contact.PhoneNumber)
	if findErr != nil {
		return findErr
	}
	if winner == nil {
		return apperrors.System("Failed to create contact", err)
	}
	return apperrors.DuplicateContact(contact.PhoneNumber, winner.ID)
}

func (s *ContactService) findByPhone(ctx context.Context, organizationID uint, e164 string) (*model.Contact, error) {
	var contact model.Contact
	err := database.Conn(ctx, s.db).
		Where("organization_id = ? AND phone_e164 = ?", organizationID, e164).
		First(&contact).Error
	if database.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, dbError("Failed to load contact", err)
	}
	return &contact, nil
}

// Update replaces the contact's name and phone. Attributes and tags are
// replaced in full when provided and left alone when nil.
func (s *ContactService) Update(ctx context.Context, organizationID, id uint, req dto.UpdateContactRequest, updatedBy *uint) (*dto.ContactDetail, error) {
	defer prometheus.TrackDBOperation("contact_update")(time.Now())

	e164, err := normalizePhone(ctx, s.normalizer, req.PhoneNumber)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.FieldValidation("Name is required", map[string]string{"name": "is required"})
	}

	err = database.Transaction(ctx, s.db, func(ctx context.Context, tx *gorm.DB) error {
		contact, err := s.FindByID(ctx, organizationID, id)
		if err != nil {
			return err
		}

		if e164 != contact.PhoneNumber {
			other, err := s.findByPhone(ctx, organizationID, e164)
			if err != nil {
				return err
			}
			if other != nil && other.ID != contact.ID {
				return apperrors.DuplicateContact(e164, other.ID)
			}
			contact.PhoneNumber = e164
			contact.WaID = phone.WaID(e164)
		}
		contact.DisplayName = name

		err = database.Transaction(ctx, s.db, func(ctx context.Context, tx *gorm.DB) error {
			return tx.Save(contact).Error
		})
		if database.IsUniqueViolation(err) {
			winner, findErr := s.findByPhone(ctx, organizationID, e164)
			if findErr != nil {
				return findErr
			}
			if winner != nil {
				return apperrors.DuplicateContact(e164, winner.ID)
			}
		}
		if err != nil {
			return dbError("Failed to update contact", err)
		}

		if req.Attributes != nil {
			if _, err := s.values.ReplaceAll(ctx, contact.ID, organizationID, req.Attributes, true, model.UpdatedSourceUser); err != nil {
				return err
			}
		}
		if req.TagIDs != nil {
			if err := s.tags.ReplaceAssignments(ctx, contact.ID, organizationID, req.TagIDs, updatedBy); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	prometheus.RecordContactOperation("update")
	logger.FromContext(ctx).Info("Contact updated",
		zap.Uint("organization_id", organizationID),
		zap.Uint("contact_id", id))

	return s.Get(ctx, organizationID, id)
}

// Delete removes the contact with its values, tag assignments and notes
func (s *ContactService) Delete(ctx context.Context, organizationID, id uint) error {
	defer prometheus.TrackDBOperation("contact_delete")(time.Now())

	err := database.Transaction(ctx, s.db, func(ctx context.Context, tx *gorm.DB) error {
		contact, err := s.FindByID(ctx, organizationID, id)
		if err != nil {
			return err
		}

		// Values and their option links
		if err := s.values.deleteByContact(ctx, contact.ID); err != nil {
			return err
		}
		if err := tx.Where("contact_id = ?", contact.ID).Delete(&model.ContactTagAssignment{}).Error; err != nil {
			return dbError("Failed to delete tag assignments", err)
		}
		if err := tx.Where("contact_id = ?", contact.ID).Delete(&model.ContactNote{}).Error; err != nil {
			return dbError("Failed to delete notes", err)
		}
		return dbError("Failed to delete contact", tx.Delete(contact).Error)
	})
	if err != nil {
		return err
	}

	prometheus.RecordContactOperation("delete")
	logger.FromContext(ctx).Info("Contact deleted",
		zap.Uint("organization_id", organizationID),
		zap.Uint("contact_id", id))
	return nil
}

// FindByID returns the contact row of the organization
func (s *ContactService) FindByID(ctx context.Context, organizationID, id uint) (*model.Contact, error) {
	var contact model.Contact
	err := database.Conn(ctx, s.db).
		Where("id = ? AND organization_id = ?", id, organizationID).
		First(&contact).Error
	if err != nil {
		return nil, notFoundOr(err, "Contact", id, "Failed to load contact")
	}
	return &contact, nil
}

// Get returns the detail shape of a contact
func (s *ContactService) Get(ctx context.Context, organizationID, id uint) (*dto.ContactDetail, error) {
	contact, err := s.FindByID(ctx, organizationID, id)
	if err != nil {
		return nil, err
	}
	return s.assembler.Detail(ctx, contact)
}

// Search returns one page of contacts matching the criteria
func (s *ContactService) Search(ctx context.Context, organizationID uint, criteria query.Criteria) (*query.Page[dto.ContactListItem], error) {
	defer prometheus.TrackDBOperation("contact_search")(time.Now())

	plan, err := query.Build(organizationID, criteria, s.schema.Lookup(ctx, organizationID))
	if err != nil {
		return nil, err
	}

	q, err := query.Where(database.Conn(ctx, s.db), plan)
	if err != nil {
		logger.FromContext(ctx).Error("Refusing unanchored contact query", zap.Error(err))
		return nil, err
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, dbError("Failed to count contacts", err)
	}

	var contacts []model.Contact
	if err := query.Paginate(q, plan).Find(&contacts).Error; err != nil {
		return nil, dbError("Failed to search contacts", err)
	}

	items, err := s.assembler.List(ctx, contacts)
	if err != nil {
		return nil, err
	}

	page := query.NewPage(items, total, plan.Page, plan.Size)
	return &page, nil
}

// Count returns the number of contacts in the organization
func (s *ContactService) Count(ctx context.Context, organizationID uint) (int64, error) {
	var total int64
	err := database.Conn(ctx, s.db).Model(&model.Contact{}).
		Where("organization_id = ?", organizationID).
		Count(&total).Error
	if err != nil {
		return 0, dbError("Failed to count contacts", err)
	}
	return total, nil
}
