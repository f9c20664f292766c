package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPreviousPeriod(t *testing.T) {
	year, month := PreviousPeriod(2026, 5)
	assert.Equal(t, 2026, year)
	assert.Equal(t, 4, month)

	year, month = PreviousPeriod(2026, 1)
	assert.Equal(t, 2025, year)
	assert.Equal(t, 12, month)
}

func TestNextPeriod(t *testing.T) {
	year, month := NextPeriod(2026, 11)
	assert.Equal(t, 2026, year)
	assert.Equal(t, 12, month)

	year, month = NextPeriod(2026, 12)
	assert.Equal(t, 2027, year)
	assert.Equal(t, 1, month)
}

func TestCurrentAcademicYear(t *testing.T) {
	// Session runs April through March
	assert.Equal(t, "2026-2027", CurrentAcademicYear(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2026-2027", CurrentAcademicYear(time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2026-2027", CurrentAcademicYear(time.Date(2027, 3, 31, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2027-2028", CurrentAcademicYear(time.Date(2027, 4, 1, 0, 0, 0, 0, time.UTC)))
}

func TestDefaultDueDate(t *testing.T) {
	assert.Equal(t, time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC), DefaultDueDate(2026, 4, 10))

	// Day clamps to the month's last day
	assert.Equal(t, time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), DefaultDueDate(2026, 2, 31))
	assert.Equal(t, time.Date(2028, 2, 29, 0, 0, 0, 0, time.UTC), DefaultDueDate(2028, 2, 31))
}

func TestDaysBetween(t *testing.T) {
	start := time.Date(2026, 4, 10, 23, 0, 0, 0, time.UTC)
	end := time.Date(2026, 4, 13, 1, 0, 0, 0, time.UTC)
	assert.Equal(t, 3, DaysBetween(start, end))
	assert.Equal(t, 0, DaysBetween(start, start))
}
