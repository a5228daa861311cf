package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDate(t *testing.T) {
	loc := time.UTC

	p := ParseDate("2025-01-10 08:00", loc)
	assert.True(t, p.Valid)
	assert.Equal(t, time.Date(2025, 1, 10, 8, 0, 0, 0, loc), p.Time)

	p = ParseDate("2025-01-05", loc)
	assert.True(t, p.Valid)
	assert.Equal(t, 5, p.Time.Day())

	for _, bad := range []string{"", "   ", "next tuesday-ish", "not a date"} {
		p = ParseDate(bad, loc)
		assert.False(t, p.Valid, "input %q", bad)
		assert.True(t, p.Time.IsZero())
		assert.Equal(t, bad, p.Raw)
	}
}

func TestSameDayOrAfter(t *testing.T) {
	ref := time.Date(2025, 1, 1, 18, 30, 0, 0, time.UTC)

	assert.True(t, SameDayOrAfter(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), ref))
	assert.True(t, SameDayOrAfter(time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), ref))
	assert.False(t, SameDayOrAfter(time.Date(2024, 12, 31, 23, 59, 0, 0, time.UTC), ref))
}
