package utils

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// ParsedDate is the outcome of a best-effort date parse. Valid is false when
// the input could not be understood; Time is then the zero value.
type ParsedDate struct {
	Raw   string
	Time  time.Time
	Valid bool
}

// ParseDate reads free-form date text ("2025-01-10 08:00", "Jan 10 2025",
// "10/01/2025 8am", ...) in loc. Blank input is never valid.
func ParseDate(raw string, loc *time.Location) ParsedDate {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ParsedDate{Raw: raw}
	}
	if loc == nil {
		loc = time.Local
	}
	t, err := dateparse.ParseIn(trimmed, loc)
	if err != nil {
		return ParsedDate{Raw: raw}
	}
	return ParsedDate{Raw: raw, Time: t, Valid: true}
}

// SameDayOrAfter reports whether t falls on or after ref's calendar day,
// comparing in ref's location.
func SameDayOrAfter(t, ref time.Time) bool {
	t = t.In(ref.Location())
	ty, tm, td := t.Date()
	ry, rm, rd := ref.Date()
	return !time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC).Before(time.Date(ry, rm, rd, 0, 0, 0, 0, time.UTC))
}
