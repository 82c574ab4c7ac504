// Package query builds contact searches as a plain list of filters that can
// be inspected and tested on its own, and lowers that list into gorm clauses.
package query

import (
	"fmt"
	"strings"
	"time"

	"contact-service/internal/model"
)

// FilterKind names one predicate of a contact search
type FilterKind string

const (
	KindOrganization    FilterKind = "organization"
	KindNameOrPhone     FilterKind = "name_or_phone"
	KindPhone           FilterKind = "phone"
	KindSource          FilterKind = "source"
	KindAnyTag          FilterKind = "any_tag"
	KindAttribute       FilterKind = "attribute"
	KindCreatedBetween  FilterKind = "created_between"
	KindLastSeenBetween FilterKind = "last_seen_between"
	KindMatchNothing    FilterKind = "match_nothing"
)

// AttributeMatch is how an attribute filter compares values
type AttributeMatch string

const (
	MatchExists   AttributeMatch = "exists"
	MatchEquals   AttributeMatch = "equals"
	MatchContains AttributeMatch = "contains"
)

// ParseAttributeMatch accepts "", eq, equals, contains and exists
func ParseAttributeMatch(s string) (AttributeMatch, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "contains", "like":
		return MatchContains, true
	case "eq", "equals":
		return MatchEquals, true
	case "exists":
		return MatchExists, true
	}
	return "", false
}

// AttributeFilter is an existence check against the value table,
// correlated by contact id and definition id
type AttributeFilter struct {
	DefinitionID uint
	Key          string
	Column       string
	Match        AttributeMatch
	Value        interface{}
}

// Filter is one predicate. Only the fields of its Kind are set.
type Filter struct {
	Kind           FilterKind
	OrganizationID uint
	Term           string
	Source         model.ContactSource
	TagIDs         []uint
	Attribute      *AttributeFilter
	From           *time.Time
	To             *time.Time
	Reason         string
}

func (f Filter) String() string {
	switch f.Kind {
	case KindOrganization:
		return fmt.Sprintf("organization=%d", f.OrganizationID)
	case KindNameOrPhone, KindPhone:
		return fmt.Sprintf("%s~%q", f.Kind, f.Term)
	case KindSource:
		return fmt.Sprintf("source=%s", f.Source)
	case KindAnyTag:
		return fmt.Sprintf("tag in %v", f.TagIDs)
	case KindAttribute:
		return fmt.Sprintf("attribute %s %s %v", f.Attribute.Key, f.Attribute.Match, f.Attribute.Value)
	case KindCreatedBetween, KindLastSeenBetween:
		return fmt.Sprintf("%s[%s,%s]", f.Kind, formatBound(f.From), formatBound(f.To))
	case KindMatchNothing:
		return fmt.Sprintf("nothing (%s)", f.Reason)
	}
	return string(f.Kind)
}

func formatBound(t *time.Time) string {
	if t == nil {
		return "*"
	}
	return t.UTC().Format(time.RFC3339)
}

func OrganizationEquals(organizationID uint) Filter {
	return Filter{Kind: KindOrganization, OrganizationID: organizationID}
}

func NameOrPhoneContains(term string) Filter {
	return Filter{Kind: KindNameOrPhone, Term: term}
}

func PhoneContains(term string) Filter {
	return Filter{Kind: KindPhone, Term: term}
}

func SourceEquals(source model.ContactSource) Filter {
	return Filter{Kind: KindSource, Source: source}
}

// HasAnyTag keeps contacts assigned at least one of tagIDs
func HasAnyTag(tagIDs ...uint) Filter {
	return Filter{Kind: KindAnyTag, TagIDs: tagIDs}
}

func HasAttribute(attr AttributeFilter) Filter {
	return Filter{Kind: KindAttribute, Attribute: &attr}
}

func CreatedBetween(from, to *time.Time) Filter {
	return Filter{Kind: KindCreatedBetween, From: from, To: to}
}

func LastSeenBetween(from, to *time.Time) Filter {
	return Filter{Kind: KindLastSeenBetween, From: from, To: to}
}

// MatchNothing short-circuits a search that can have no results
func MatchNothing(reason string) Filter {
	return Filter{Kind: KindMatchNothing, Reason: reason}
}
