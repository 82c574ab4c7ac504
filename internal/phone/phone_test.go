package phone

import (
	"testing"

	"contact-service/internal/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"ten digits", "9876543210", "+919876543210"},
		{"ten digits with separators", " 98765-43210 ", "+919876543210"},
		{"country code without plus", "919876543210", "+919876543210"},
		{"e164", "+919876543210", "+919876543210"},
		{"e164 other country", "+14155552671", "+14155552671"},
		{"e164 with spaces", "+1 (415) 555-2671", "+14155552671"},
		{"short e164", "+12", "+12"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize_Invalid(t *testing.T) {
	for _, in := range []string{
		"",
		"   ",
		"12345",
		"98765432101",
		"+0123456789",
		"+1234567890123456",
		"abc",
		"98+76543210",
		"929876543210",
	} {
		t.Run(in, func(t *testing.T) {
			_, err := Normalize(in)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	for _, in := range []string{"9876543210", "919876543210", "+14155552671", "+44 7911 123456"} {
		once, err := Normalize(in)
		require.NoError(t, err)
		twice, err := Normalize(once)
		require.NoError(t, err)
		assert.Equal(t, once, twice)
	}
}

func TestNormalizer_CustomCountryCode(t *testing.T) {
	n := NewNormalizer("+1")

	got, err := n.Normalize("4155552671")
	require.NoError(t, err)
	assert.Equal(t, "+14155552671", got)

	got, err = n.Normalize("14155552671")
	require.NoError(t, err)
	assert.Equal(t, "+14155552671", got)

	assert.Equal(t, DefaultCountryCode, NewNormalizer("").CountryCode)
}

func TestWaID(t *testing.T) {
	assert.Equal(t, "919876543210@s.whatsapp.net", WaID("+919876543210"))
}

func TestRegion(t *testing.T) {
	assert.Equal(t, "IN", Region("+919876543210"))
	assert.Equal(t, "FR", Region("+33612345678"))
	assert.Equal(t, "", Region("not a number"))
}

func TestIsValid(t *testing.T) {
	assert.True(t, IsValid("+919876543210"))
	assert.True(t, IsValid("+33612345678"))
	assert.False(t, IsValid("+910000000000"))
	assert.False(t, IsValid("not a number"))
}
