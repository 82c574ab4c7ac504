package query

import "time"

const dateLayout = "2006-01-02"

var boundLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", dateLayout}

// ParseBound parses a range bound given as an RFC3339 timestamp, a local
// timestamp taken as UTC, or a date. A date used as an upper bound covers the
// whole day: it resolves to the last microsecond before the next midnight.
func ParseBound(raw string, upper bool) (time.Time, error) {
	var err error
	for _, layout := range boundLayouts {
		var t time.Time
		if t, err = time.Parse(layout, raw); err != nil {
			continue
		}
		t = t.UTC()
		if layout == dateLayout && upper {
			t = t.AddDate(0, 0, 1).Add(-time.Microsecond)
		}
		return t, nil
	}
	return time.Time{}, err
}
