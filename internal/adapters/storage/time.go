package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// storedLayout is fixed width so stored instants sort lexically.
const storedLayout = "2006-01-02T15:04:05.000000000Z07:00"

// FormatTime renders t in the single stored representation: UTC, nanosecond precision.
func FormatTime(t time.Time) string {
	return t.UTC().Format(storedLayout)
}

// NullTime formats t, or returns nil for the zero time so the column stays NULL.
func NullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return FormatTime(t)
}

// ParseTime reads any timestamp layout older rows may hold and returns it in UTC.
// Every store parses through here so the domain only sees one instant type.
func ParseTime(value string) (time.Time, error) {
	if idx := strings.Index(value, " m="); idx != -1 {
		value = value[:idx]
	}
	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05.999999999 -0700 MST",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported time format: %q", value)
}

// ParseNullTime parses a nullable column; NULL or empty yields the zero time.
func ParseNullTime(value sql.NullString) (time.Time, error) {
	if !value.Valid || value.String == "" {
		return time.Time{}, nil
	}
	return ParseTime(value.String)
}

// JoinList stores a string set as a comma-separated column.
func JoinList(values []string) string {
	return strings.Join(values, ",")
}

// SplitList reverses JoinList, dropping empty entries.
func SplitList(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// BoolToInt maps a bool to SQLite's integer representation.
func BoolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
