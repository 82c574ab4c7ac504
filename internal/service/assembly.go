package service

import (
	"context"
	"sort"
	"time"

	"contact-service/internal/dto"
	"contact-service/internal/model"
	"contact-service/internal/phone"
	"contact-service/pkg/database"
	"contact-service/prometheus"

	"gorm.io/gorm"
)

const (
	recentNoteLimit    = 5
	listAttributeLimit = 5
)

// Assembler builds API shapes for contacts with a fixed number of queries
// per call, whatever the number of contacts.
type Assembler struct {
	db     *gorm.DB
	values *AttributeValueService
}

func NewAssembler(db *gorm.DB, values *AttributeValueService) *Assembler {
	return &Assembler{db: db, values: values}
}

// Detail returns the full shape of one contact
func (a *Assembler) Detail(ctx context.Context, c *model.Contact) (*dto.ContactDetail, error) {
	defer prometheus.TrackDBOperation("contact_assemble_detail")(time.Now())

	attrs, err := a.attributes(ctx, []uint{c.ID})
	if err != nil {
		return nil, err
	}
	tags, err := a.tags(ctx, []uint{c.ID})
	if err != nil {
		return nil, err
	}

	var notes []model.ContactNote
	err = database.Conn(ctx, a.db).
		Where("contact_id = ?", c.ID).
		Order("created_at DESC, id DESC").
		Limit(recentNoteLimit).
		Find(&notes).Error
	if err != nil {
		return nil, dbError("Failed to load notes", err)
	}

	detail := &dto.ContactDetail{
		ID:             c.ID,
		OrganizationID: c.OrganizationID,
		PhoneNumber:    c.PhoneNumber,
		WaID:           c.WaID,
		Region:         phone.Region(c.PhoneNumber),
		DisplayName:    c.DisplayName,
		Source:         string(c.Source),
		FirstSeenAt:    c.FirstSeenAt,
		LastSeenAt:     c.LastSeenAt,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
		Attributes:     attrs[c.ID],
		Tags:           tags[c.ID],
		RecentNotes:    make([]dto.NoteSummary, len(notes)),
	}
	if detail.Attributes == nil {
		detail.Attributes = []dto.ContactAttribute{}
	}
	if detail.Tags == nil {
		detail.Tags = []dto.ContactTag{}
	}
	for i, n := range notes {
		detail.RecentNotes[i] = dto.NoteSummary{
			ID:         n.ID,
			NoteText:   n.NoteText,
			CreatedBy:  n.CreatedBy,
			Visibility: string(n.Visibility),
			ProjectID:  n.ProjectID,
			CreatedAt:  n.CreatedAt,
		}
	}
	return detail, nil
}

// List returns the list shape of contacts, in the given order
func (a *Assembler) List(ctx context.Context, contacts []model.Contact) ([]dto.ContactListItem, error) {
	defer prometheus.TrackDBOperation("contact_assemble_list")(time.Now())

	if len(contacts) == 0 {
		return []dto.ContactListItem{}, nil
	}

	ids := make([]uint, len(contacts))
	for i, c := range contacts {
		ids[i] = c.ID
	}

	attrs, err := a.attributes(ctx, ids)
	if err != nil {
		return nil, err
	}
	tags, err := a.tags(ctx, ids)
	if err != nil {
		return nil, err
	}
	counts, err := a.noteCounts(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]dto.ContactListItem, len(contacts))
	for i, c := range contacts {
		item := dto.ContactListItem{
			ID:          c.ID,
			PhoneNumber: c.PhoneNumber,
			WaID:        c.WaID,
			DisplayName: c.DisplayName,
			Source:      string(c.Source),
			LastSeenAt:  c.LastSeenAt,
			CreatedAt:   c.CreatedAt,
			UpdatedAt:   c.UpdatedAt,
			Attributes:  []dto.AttributeSummary{},
			Tags:        []dto.TagSummary{},
			NoteCount:   counts[c.ID],
		}
		for _, attr := range attrs[c.ID] {
			if len(item.Attributes) == listAttributeLimit {
				break
			}
			item.Attributes = append(item.Attributes, dto.AttributeSummary{Key: attr.Key, Value: attr.Value})
		}
		for _, t := range tags[c.ID] {
			item.Tags = append(item.Tags, dto.TagSummary{ID: t.ID, Name: t.Name, Color: t.Color})
		}
		out[i] = item
	}
	return out, nil
}

// attributes loads values, definitions and option links, sorted by key per contact
func (a *Assembler) attributes(ctx context.Context, contactIDs []uint) (map[uint][]dto.ContactAttribute, error) {
	byContact, err := a.values.BatchLoad(ctx, contactIDs)
	if err != nil {
		return nil, err
	}

	var defIDs, valueIDs []uint
	for _, values := range byContact {
		for _, v := range values {
			defIDs = append(defIDs, v.AttributeDefinitionID)
			valueIDs = append(valueIDs, v.ID)
		}
	}
	if len(valueIDs) == 0 {
		return map[uint][]dto.ContactAttribute{}, nil
	}

	defs, err := a.values.schema.definitionsByID(ctx, defIDs)
	if err != nil {
		return nil, err
	}
	options, err := optionKeysByValue(ctx, a.db, valueIDs)
	if err != nil {
		return nil, err
	}

	out := make(map[uint][]dto.ContactAttribute, len(byContact))
	for contactID, values := range byContact {
		attrs := make([]dto.ContactAttribute, 0, len(values))
		for i := range values {
			v := &values[i]
			def, ok := defs[v.AttributeDefinitionID]
			if !ok {
				continue
			}
			attrs = append(attrs, dto.ContactAttribute{
				ID:                    v.ID,
				AttributeDefinitionID: def.ID,
				Key:                   def.Key,
				Label:                 def.Label,
				DataType:              string(def.DataType),
				Value:                 DisplayValue(v),
				Options:               options[v.ID],
				UpdatedSource:         string(v.UpdatedSource),
				UpdatedAt:             v.UpdatedAt,
			})
		}
		sort.Slice(attrs, func(i, j int) bool { return attrs[i].Key < attrs[j].Key })
		out[contactID] = attrs
	}
	return out, nil
}

// tags loads assignments and their tags, ordered by tag name per contact
func (a *Assembler) tags(ctx context.Context, contactIDs []uint) (map[uint][]dto.ContactTag, error) {
	var assignments []model.ContactTagAssignment
	for _, part := range chunk(uniqueUints(contactIDs), inChunkSize) {
		var batch []model.ContactTagAssignment
		if err := database.Conn(ctx, a.db).Where("contact_id IN ?", part).Find(&batch).Error; err != nil {
			return nil, dbError("Failed to load tag assignments", err)
		}
		assignments = append(assignments, batch...)
	}
	if len(assignments) == 0 {
		return map[uint][]dto.ContactTag{}, nil
	}

	tagIDs := make([]uint, len(assignments))
	for i, as := range assignments {
		tagIDs[i] = as.TagID
	}
	tagsByID := make(map[uint]model.ContactTag, len(tagIDs))
	for _, part := range chunk(uniqueUints(tagIDs), inChunkSize) {
		var batch []model.ContactTag
		if err := database.Conn(ctx, a.db).Where("id IN ?", part).Find(&batch).Error; err != nil {
			return nil, dbError("Failed to load tags", err)
		}
		for _, t := range batch {
			tagsByID[t.ID] = t
		}
	}

	out := make(map[uint][]dto.ContactTag)
	for _, as := range assignments {
		t, ok := tagsByID[as.TagID]
		if !ok {
			continue
		}
		out[as.ContactID] = append(out[as.ContactID], dto.ContactTag{
			ID:         t.ID,
			Name:       t.Name,
			Color:      t.Color,
			AssignedAt: as.AssignedAt,
		})
	}
	for _, tags := range out {
		sort.Slice(tags, func(i, j int) bool {
			if tags[i].Name != tags[j].Name {
				return tags[i].Name < tags[j].Name
			}
			return tags[i].ID < tags[j].ID
		})
	}
	return out, nil
}

func (a *Assembler) noteCounts(ctx context.Context, contactIDs []uint) (map[uint]int64, error) {
	type row struct {
		ContactID uint
		Total     int64
	}

	out := make(map[uint]int64, len(contactIDs))
	for _, part := range chunk(uniqueUints(contactIDs), inChunkSize) {
		var rows []row
		err := database.Conn(ctx, a.db).Model(&model.ContactNote{}).
			Select("contact_id, COUNT(*) AS total").
			Where("contact_id IN ?", part).
			Group("contact_id").
			Scan(&rows).Error
		if err != nil {
			return nil, dbError("Failed to count notes", err)
		}
		for _, r := range rows {
			out[r.ContactID] = r.Total
		}
	}
	return out, nil
}
