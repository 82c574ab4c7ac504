// Package attrtype holds the typed-column rules of contact attribute values:
// key normalization, parsing raw input per declared data type, and the
// single-string projection used in responses and exports.
package attrtype

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"contact-service/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// MaxTextLength is the capacity of the value_text column
const MaxTextLength = 1024

const dateLayout = "2006-01-02"

var datetimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Column names of the typed value table
const (
	ColumnText     = "value_text"
	ColumnNumber   = "value_number"
	ColumnDecimal  = "value_decimal"
	ColumnBool     = "value_bool"
	ColumnDate     = "value_date"
	ColumnDatetime = "value_datetime"
	ColumnJSON     = "value_json"
)

// NormalizeKey lower-cases a key and joins its words with underscores
func NormalizeKey(key string) string {
	return strings.ToLower(strings.Join(strings.Fields(key), "_"))
}

// LabelFromKey turns "company_name" into "Company Name"
func LabelFromKey(key string) string {
	words := strings.Fields(strings.ReplaceAll(key, "_", " "))
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

// Column returns the value column that stores values of dataType
func Column(dataType model.AttributeDataType) string {
	switch dataType {
	case model.DataTypeNumber:
		return ColumnNumber
	case model.DataTypeDecimal:
		return ColumnDecimal
	case model.DataTypeBoolean:
		return ColumnBool
	case model.DataTypeDate:
		return ColumnDate
	case model.DataTypeDatetime:
		return ColumnDatetime
	case model.DataTypeJSON:
		return ColumnJSON
	}
	return ColumnText
}

// IsTextual reports whether values of dataType support substring matching
func IsTextual(dataType model.AttributeDataType) bool {
	switch Column(dataType) {
	case ColumnText, ColumnJSON:
		return true
	}
	return false
}

// Parse converts raw input into the Go value stored for dataType. Select
// types return the trimmed option key list as text; option resolution is
// the caller's job.
func Parse(dataType model.AttributeDataType, raw string) (interface{}, error) {
	s := strings.TrimSpace(raw)

	switch dataType {
	case model.DataTypeText, model.DataTypeSingleSelect, model.DataTypeMultiSelect:
		if utf8.RuneCountInString(s) > MaxTextLength {
			return nil, fmt.Errorf("longer than %d characters", MaxTextLength)
		}
		return s, nil
	case model.DataTypeNumber:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, errors.New("not an integer")
		}
		return n, nil
	case model.DataTypeDecimal:
		d, err := decimal.NewFromString(s)
		if err != nil {
			return nil, errors.New("not a decimal number")
		}
		return d.Round(6), nil
	case model.DataTypeBoolean:
		b, ok := parseBool(s)
		if !ok {
			return nil, errors.New("not a boolean")
		}
		return b, nil
	case model.DataTypeDate:
		t, err := time.ParseInLocation(dateLayout, s, time.UTC)
		if err != nil {
			return nil, errors.New("expected YYYY-MM-DD")
		}
		return datatypes.Date(t), nil
	case model.DataTypeDatetime:
		t, ok := parseDatetime(s)
		if !ok {
			return nil, errors.New("expected RFC3339 or YYYY-MM-DD HH:MM:SS")
		}
		return t, nil
	case model.DataTypeJSON:
		if !json.Valid([]byte(s)) {
			return nil, errors.New("not valid JSON")
		}
		return datatypes.JSON(s), nil
	}

	return nil, fmt.Errorf("unknown data type %q", dataType)
}

// Assign clears every value column of v and stores parsed in the column of dataType
func Assign(v *model.ContactAttributeValue, dataType model.AttributeDataType, parsed interface{}) {
	v.ValueText = nil
	v.ValueNumber = nil
	v.ValueDecimal = decimal.NullDecimal{}
	v.ValueBool = nil
	v.ValueDate = nil
	v.ValueDatetime = nil
	v.ValueJSON = nil

	switch p := parsed.(type) {
	case string:
		v.ValueText = &p
	case int64:
		v.ValueNumber = &p
	case decimal.Decimal:
		v.ValueDecimal = decimal.NullDecimal{Decimal: p, Valid: true}
	case bool:
		v.ValueBool = &p
	case datatypes.Date:
		v.ValueDate = &p
	case time.Time:
		v.ValueDatetime = &p
	case datatypes.JSON:
		v.ValueJSON = p
	}
}

// Display projects a value onto one string. The first populated column wins,
// in the order text, number, decimal, bool, date, datetime, json.
func Display(v *model.ContactAttributeValue) string {
	switch {
	case v == nil:
		return ""
	case v.ValueText != nil:
		return *v.ValueText
	case v.ValueNumber != nil:
		return strconv.FormatInt(*v.ValueNumber, 10)
	case v.ValueDecimal.Valid:
		return v.ValueDecimal.Decimal.String()
	case v.ValueBool != nil:
		return strconv.FormatBool(*v.ValueBool)
	case v.ValueDate != nil:
		return time.Time(*v.ValueDate).Format(dateLayout)
	case v.ValueDatetime != nil:
		return v.ValueDatetime.UTC().Format(time.RFC3339)
	case len(v.ValueJSON) > 0:
		return string(v.ValueJSON)
	}
	return ""
}

// SplitOptionKeys splits a multi-select input into distinct keys, preserving order
func SplitOptionKeys(raw string) []string {
	seen := make(map[string]struct{})
	var keys []string
	for _, part := range strings.Split(raw, ",") {
		k := strings.TrimSpace(part)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	return keys
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "true", "yes", "y", "1":
		return true, true
	case "false", "no", "n", "0":
		return false, true
	}
	return false, false
}

func parseDatetime(s string) (time.Time, bool) {
	for _, layout := range datetimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
