package query

import (
	"errors"
	"strings"

	"contact-service/internal/apperrors"
	"contact-service/internal/attrtype"
	"contact-service/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrUnanchored is returned when a plan lacks its organization filter
var ErrUnanchored = errors.New("query plan is not anchored to an organization")

const contactsTable = "contacts"

// Where lowers the plan's filters into a query over contacts
func Where(db *gorm.DB, plan *Plan) (*gorm.DB, error) {
	if plan == nil {
		return nil, apperrors.System("nil query plan", ErrUnanchored)
	}
	if _, ok := plan.OrganizationID(); !ok {
		return nil, apperrors.System("contact search without organization", ErrUnanchored)
	}

	q := db.Model(&model.Contact{})
	for _, f := range plan.Filters {
		sql, args := lowerFilter(f)
		q = q.Where(sql, args...)
	}
	return q, nil
}

// Paginate adds the plan's order, limit and offset
func Paginate(db *gorm.DB, plan *Plan) *gorm.DB {
	desc := plan.Sort.Direction == Desc
	return db.
		Order(clause.OrderByColumn{Column: clause.Column{Table: contactsTable, Name: plan.Sort.Column}, Desc: desc}).
		Order(clause.OrderByColumn{Column: clause.Column{Table: contactsTable, Name: "id"}, Desc: desc}).
		Limit(plan.Size).
		Offset(plan.Offset())
}

func lowerFilter(f Filter) (string, []interface{}) {
	switch f.Kind {
	case KindOrganization:
		return "contacts.organization_id = ?", []interface{}{f.OrganizationID}
	case KindNameOrPhone:
		return "(LOWER(contacts.display_name) LIKE ? ESCAPE '\\' OR contacts.phone_e164 LIKE ? ESCAPE '\\')",
			[]interface{}{likePattern(strings.ToLower(f.Term)), likePattern(f.Term)}
	case KindPhone:
		return "contacts.phone_e164 LIKE ? ESCAPE '\\'", []interface{}{likePattern(f.Term)}
	case KindSource:
		return "contacts.source = ?", []interface{}{string(f.Source)}
	case KindAnyTag:
		return "EXISTS (SELECT 1 FROM contact_tag_assignments cta WHERE cta.contact_id = contacts.id AND cta.tag_id IN ?)",
			[]interface{}{f.TagIDs}
	case KindAttribute:
		return lowerAttribute(f.Attribute)
	case KindCreatedBetween:
		return lowerRange("contacts.created_at", f)
	case KindLastSeenBetween:
		return lowerRange("contacts.last_seen_at", f)
	}
	return "1 = 0", nil
}

func lowerAttribute(a *AttributeFilter) (string, []interface{}) {
	var b strings.Builder
	b.WriteString("EXISTS (SELECT 1 FROM contact_attribute_values cav WHERE cav.contact_id = contacts.id AND cav.attribute_definition_id = ?")
	args := []interface{}{a.DefinitionID}

	column := "cav." + a.Column
	text := column
	if a.Column == attrtype.ColumnJSON {
		text = "CAST(" + column + " AS TEXT)"
	}

	switch a.Match {
	case MatchExists:
		b.WriteString(" AND " + column + " IS NOT NULL")
	case MatchContains:
		b.WriteString(" AND LOWER(" + text + ") LIKE ? ESCAPE '\\'")
		args = append(args, likePattern(strings.ToLower(a.Value.(string))))
	case MatchEquals:
		if s, ok := a.Value.(string); ok {
			b.WriteString(" AND LOWER(" + text + ") = ?")
			args = append(args, strings.ToLower(s))
		} else {
			b.WriteString(" AND " + column + " = ?")
			args = append(args, a.Value)
		}
	}

	b.WriteString(")")
	return b.String(), args
}

func lowerRange(column string, f Filter) (string, []interface{}) {
	var parts []string
	var args []interface{}
	if f.From != nil {
		parts = append(parts, column+" >= ?")
		args = append(args, f.From.UTC())
	}
	if f.To != nil {
		parts = append(parts, column+" <= ?")
		args = append(args, f.To.UTC())
	}
	if len(parts) == 0 {
		return "1 = 1", nil
	}
	return strings.Join(parts, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}
