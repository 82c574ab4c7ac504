package query

import (
	"strings"

	"contact-service/internal/apperrors"
)

// Direction of a sort
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// Sort orders contacts by one whitelisted column
type Sort struct {
	Field     string
	Column    string
	Direction Direction
}

var sortColumns = map[string]string{
	"name":        "display_name",
	"displayname": "display_name",
	"phone":       "phone_e164",
	"phonenumber": "phone_e164",
	"createdat":   "created_at",
	"updatedat":   "updated_at",
	"lastseenat":  "last_seen_at",
}

// DefaultSort is updatedAt descending
var DefaultSort = Sort{Field: "updatedAt", Column: "updated_at", Direction: Desc}

// ParseSort resolves a sort field and direction; unknown values are rejected
func ParseSort(field, direction string) (Sort, error) {
	s := DefaultSort

	if f := strings.TrimSpace(field); f != "" {
		column, ok := sortColumns[strings.ToLower(f)]
		if !ok {
			return Sort{}, apperrors.FieldValidation("Invalid sort field",
				map[string]string{"sortBy": "must be one of name, phone, createdAt, updatedAt, lastSeenAt"})
		}
		s.Field = f
		s.Column = column
	}

	switch strings.ToUpper(strings.TrimSpace(direction)) {
	case "":
	case "ASC":
		s.Direction = Asc
	case "DESC":
		s.Direction = Desc
	default:
		return Sort{}, apperrors.FieldValidation("Invalid sort direction",
			map[string]string{"sortDirection": "must be ASC or DESC"})
	}

	return s, nil
}
