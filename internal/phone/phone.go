// Package phone normalizes user-entered phone numbers to E.164.
package phone

import (
	"regexp"
	"strings"

	"contact-service/internal/apperrors"

	"github.com/ttacon/libphonenumber"
)

// DefaultCountryCode is prepended to bare 10-digit national numbers
const DefaultCountryCode = "91"

const waIDSuffix = "@s.whatsapp.net"

var (
	e164Pattern  = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)
	digitPattern = regexp.MustCompile(`^\d+$`)
	stripPattern = regexp.MustCompile(`[^0-9+]`)
)

// Normalizer turns raw input into E.164 using a default country code
type Normalizer struct {
	CountryCode string
}

// NewNormalizer returns a normalizer for the given country code, falling back to DefaultCountryCode
func NewNormalizer(countryCode string) *Normalizer {
	countryCode = strings.TrimPrefix(strings.TrimSpace(countryCode), "+")
	if countryCode == "" {
		countryCode = DefaultCountryCode
	}
	return &Normalizer{CountryCode: countryCode}
}

// Normalize accepts a 10-digit national number, the same number prefixed
// with the country code, or a full E.164 number. Separators are ignored.
func (n *Normalizer) Normalize(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", apperrors.Validation("Phone number is required")
	}

	cleaned := stripPattern.ReplaceAllString(raw, "")

	if strings.HasPrefix(cleaned, "+") {
		if !e164Pattern.MatchString(cleaned) {
			return "", apperrors.Validationf("Invalid E.164 phone number format: %s", raw)
		}
		return cleaned, nil
	}

	if !digitPattern.MatchString(cleaned) {
		return "", apperrors.Validationf("Invalid phone number format: %s", raw)
	}

	switch {
	case len(cleaned) == 10:
		return "+" + n.CountryCode + cleaned, nil
	case len(cleaned) == len(n.CountryCode)+10 && strings.HasPrefix(cleaned, n.CountryCode):
		return "+" + cleaned, nil
	}

	return "", apperrors.Validation("Phone number must be either 10 digits or valid E.164 format")
}

var defaultNormalizer = NewNormalizer(DefaultCountryCode)

// Normalize uses DefaultCountryCode
func Normalize(raw string) (string, error) {
	return defaultNormalizer.Normalize(raw)
}

// WaID derives the messaging-platform id of an E.164 number
func WaID(e164 string) string {
	return strings.TrimPrefix(e164, "+") + waIDSuffix
}

// Region returns the ISO region code of an E.164 number, or "" when unknown
func Region(e164 string) string {
	num, err := libphonenumber.Parse(e164, "")
	if err != nil {
		return ""
	}
	return libphonenumber.GetRegionCodeForNumber(num)
}

// IsValid reports whether libphonenumber considers the number dialable
func IsValid(e164 string) bool {
	num, err := libphonenumber.Parse(e164, "")
	if err != nil {
		return false
	}
	return libphonenumber.IsValidNumber(num)
}
