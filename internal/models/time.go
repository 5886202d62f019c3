package models

import (
	"fmt"
	"strings"
	"time"
)

// The marketplace backend serializes timestamps as zone-less local
// date-times ("2024-01-01T10:00:00"). APITime accepts that layout as well
// as RFC 3339 and always marshals back to the backend's layout.
const wireTimeLayout = "2006-01-02T15:04:05"

// APITime wraps time.Time with the backend's wire layout.
type APITime struct {
	time.Time
}

// NewAPITime truncates to second precision to match the wire layout.
func NewAPITime(t time.Time) APITime {
	return APITime{Time: t.Truncate(time.Second)}
}

// UnmarshalJSON parses the backend layout first, then RFC 3339.
func (t *APITime) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}

	if parsed, err := time.Parse(wireTimeLayout, s); err == nil {
		t.Time = parsed
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("models: parse time %q: %w", s, err)
	}
	t.Time = parsed
	return nil
}

// MarshalJSON emits the backend layout.
func (t APITime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.Format(wireTimeLayout) + `"`), nil
}
