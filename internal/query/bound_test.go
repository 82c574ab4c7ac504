package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBound(t *testing.T) {
	tests := []struct {
		raw   string
		upper bool
		want  time.Time
	}{
		{"2024-03-05", false, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
		{"2024-03-05", true, time.Date(2024, 3, 5, 23, 59, 59, 999999000, time.UTC)},
		{"2024-03-05T10:30:00", true, time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC)},
		{"2024-03-05T10:30:00+05:30", false, time.Date(2024, 3, 5, 5, 0, 0, 0, time.UTC)},
		{"2024-12-31", true, time.Date(2024, 12, 31, 23, 59, 59, 999999000, time.UTC)},
	}
	for _, tt := range tests {
		got, err := ParseBound(tt.raw, tt.upper)
		require.NoError(t, err, tt.raw)
		assert.True(t, tt.want.Equal(got), "%s upper=%v: got %s", tt.raw, tt.upper, got)
	}

	_, err := ParseBound("05/03/2024", false)
	assert.Error(t, err)
}
