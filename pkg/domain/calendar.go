package domain

import (
	"time"

	dErrors "sankalp/pkg/domain-errors"
)

// DateLayout is the wire and storage layout of calendar dates.
const DateLayout = "2006-01-02"

// ParseDate parses a calendar date (no time zone) at a trust boundary.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, dErrors.New(dErrors.CodeInvalidInput, "date must use YYYY-MM-DD")
	}
	return t, nil
}

// FormatDate renders a date in DateLayout, or "" for nil.
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(DateLayout)
}
