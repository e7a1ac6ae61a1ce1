package domain

import (
	"fmt"
	"strings"
	"time"
)

var dateLayouts = []string{"2006-01-02", "2006/01/02"}

// ParseDate accepts YYYY-MM-DD or YYYY/MM/DD. An empty string yields nil.
func ParseDate(raw string) (*time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, trimmed); err == nil {
			date := parsed.UTC()
			return &date, nil
		}
	}
	return nil, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", raw)
}

// DateOnly truncates t to midnight UTC.
func DateOnly(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
