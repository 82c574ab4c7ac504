package query

import (
	"strings"
	"time"

	"contact-service/internal/apperrors"
	"contact-service/internal/attrtype"
	"contact-service/internal/model"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

// Criteria is the raw input of a contact search
type Criteria struct {
	Search         string     `json:"search"`
	Phone          string     `json:"phone"`
	Source         string     `json:"source"`
	TagIDs         []uint     `json:"tagIds"`
	AttributeKey   string     `json:"attributeKey"`
	AttributeValue string     `json:"attributeValue"`
	AttributeMatch string     `json:"attributeMatch"`
	CreatedFrom    *time.Time `json:"createdFrom"`
	CreatedTo      *time.Time `json:"createdTo"`
	LastSeenFrom   *time.Time `json:"lastSeenFrom"`
	LastSeenTo     *time.Time `json:"lastSeenTo"`
	Page           int        `json:"page"`
	Size           int        `json:"size"`
	SortBy         string     `json:"sortBy"`
	SortDirection  string     `json:"sortDirection"`
}

// AttributeLookup finds a definition by normalized key; nil means unknown
type AttributeLookup func(key string) (*model.AttributeDefinition, error)

// Plan is a fully resolved search: filters, sort and page
type Plan struct {
	Filters []Filter
	Sort    Sort
	Page    int
	Size    int
}

// Offset is the row offset of the plan's page
func (p *Plan) Offset() int {
	return p.Page * p.Size
}

// OrganizationID returns the organization the plan is anchored to
func (p *Plan) OrganizationID() (uint, bool) {
	if len(p.Filters) == 0 || p.Filters[0].Kind != KindOrganization || p.Filters[0].OrganizationID == 0 {
		return 0, false
	}
	return p.Filters[0].OrganizationID, true
}

// Build validates criteria and turns them into a plan anchored to organizationID
func Build(organizationID uint, c Criteria, lookup AttributeLookup) (*Plan, error) {
	if organizationID == 0 {
		return nil, apperrors.Validation("Organization ID is required")
	}

	sort, err := ParseSort(c.SortBy, c.SortDirection)
	if err != nil {
		return nil, err
	}

	page, size, err := normalizePage(c.Page, c.Size)
	if err != nil {
		return nil, err
	}

	plan := &Plan{
		Filters: []Filter{OrganizationEquals(organizationID)},
		Sort:    sort,
		Page:    page,
		Size:    size,
	}

	if term := strings.TrimSpace(c.Search); term != "" {
		plan.Filters = append(plan.Filters, NameOrPhoneContains(term))
	}

	if term := strings.TrimSpace(c.Phone); term != "" {
		plan.Filters = append(plan.Filters, PhoneContains(term))
	}

	if raw := strings.TrimSpace(c.Source); raw != "" {
		if source, ok := model.ParseContactSource(raw); ok {
			plan.Filters = append(plan.Filters, SourceEquals(source))
		} else {
			plan.Filters = append(plan.Filters, MatchNothing("unknown source "+raw))
		}
	}

	if len(c.TagIDs) > 0 {
		plan.Filters = append(plan.Filters, HasAnyTag(c.TagIDs...))
	}

	if key := attrtype.NormalizeKey(c.AttributeKey); key != "" {
		f, err := buildAttributeFilter(key, c.AttributeValue, c.AttributeMatch, lookup)
		if err != nil {
			return nil, err
		}
		plan.Filters = append(plan.Filters, f)
	} else if strings.TrimSpace(c.AttributeValue) != "" {
		return nil, apperrors.FieldValidation("attributeValue requires attributeKey",
			map[string]string{"attributeKey": "is required when attributeValue is set"})
	}

	if c.CreatedFrom != nil || c.CreatedTo != nil {
		if err := checkRange("created", c.CreatedFrom, c.CreatedTo); err != nil {
			return nil, err
		}
		plan.Filters = append(plan.Filters, CreatedBetween(c.CreatedFrom, c.CreatedTo))
	}

	if c.LastSeenFrom != nil || c.LastSeenTo != nil {
		if err := checkRange("lastSeen", c.LastSeenFrom, c.LastSeenTo); err != nil {
			return nil, err
		}
		plan.Filters = append(plan.Filters, LastSeenBetween(c.LastSeenFrom, c.LastSeenTo))
	}

	return plan, nil
}

func buildAttributeFilter(key, rawValue, rawMatch string, lookup AttributeLookup) (Filter, error) {
	match, ok := ParseAttributeMatch(rawMatch)
	if !ok {
		return Filter{}, apperrors.FieldValidation("Invalid attribute match",
			map[string]string{"attributeMatch": "must be one of equals, contains, exists"})
	}

	if lookup == nil {
		return Filter{}, apperrors.System("attribute lookup not configured", nil)
	}
	def, err := lookup(key)
	if err != nil {
		return Filter{}, err
	}
	if def == nil {
		return MatchNothing("unknown attribute " + key), nil
	}

	value := strings.TrimSpace(rawValue)
	if value == "" {
		match = MatchExists
	}

	attr := AttributeFilter{
		DefinitionID: def.ID,
		Key:          key,
		Column:       attrtype.Column(def.DataType),
		Match:        match,
	}

	switch {
	case match == MatchExists:
	case attrtype.IsTextual(def.DataType):
		attr.Value = value
	default:
		// Numbers, booleans and dates only compare by equality
		parsed, err := attrtype.Parse(def.DataType, value)
		if err != nil {
			return Filter{}, apperrors.InvalidAttributeValue(key, string(def.DataType), value, err)
		}
		attr.Match = MatchEquals
		attr.Value = parsed
	}

	return HasAttribute(attr), nil
}

func checkRange(field string, from, to *time.Time) error {
	if from != nil && to != nil && from.After(*to) {
		return apperrors.FieldValidation("Invalid date range",
			map[string]string{field: "from must not be after to"})
	}
	return nil
}

func normalizePage(page, size int) (int, int, error) {
	if page < 0 {
		return 0, 0, apperrors.FieldValidation("Invalid page", map[string]string{"page": "must be 0 or greater"})
	}
	if size == 0 {
		size = DefaultPageSize
	}
	if size < 1 || size > MaxPageSize {
		return 0, 0, apperrors.FieldValidation("Invalid page size", map[string]string{"size": "must be between 1 and 500"})
	}
	return page, size, nil
}
