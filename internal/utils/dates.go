package utils

import (
	"fmt"
	"strings"
	"time"
)

// ParseDate parses a user-supplied date. It accepts YYYY-MM-DD (midnight
// in loc), "YYYY-MM-DD HH:MM" (in loc), or a full RFC 3339 timestamp. The
// result is in UTC.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if loc == nil {
		loc = time.Local
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range []string{time.DateOnly, "2006-01-02 15:04", "2006-01-02T15:04"} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD, \"YYYY-MM-DD HH:MM\", or RFC 3339)", s)
}
