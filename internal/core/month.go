package core

import (
	"fmt"
	"strings"
	"time"
)

// MonthDateLayout is the single textual format used for anchor values and
// month columns in the external store.
const MonthDateLayout = "01/02/2006" // MM/DD/YYYY

// Month identifies one calendar month. It carries a representative date
// (the day observed in source data, typically month-end) used for
// formatting; ordering and identity consider only (year, month).
type Month struct {
	time.Time
}

// NewMonth creates a Month from year, month, day.
func NewMonth(year, month, day int) Month {
	return Month{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// MonthEnd returns the Month represented by the last calendar day of
// the given year and month.
func MonthEnd(year, month int) Month {
	return NewMonth(year, month, lastDayOfMonth(year, time.Month(month)))
}

// ParseMonthDate parses a Month from MM/DD/YYYY text. Failures are
// reported, never coerced.
func ParseMonthDate(s string) (Month, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(MonthDateLayout, s)
	if err != nil {
		return Month{}, fmt.Errorf("parse month date %q: expected MM/DD/YYYY: %w", s, err)
	}
	return Month{Time: t}, nil
}

// FormatMonthDate renders the Month in MM/DD/YYYY.
func FormatMonthDate(m Month) string {
	return m.Format(MonthDateLayout)
}

func (m Month) String() string {
	return FormatMonthDate(m)
}

// SameMonth reports whether both values fall in the same calendar month,
// regardless of the representative day.
func (m Month) SameMonth(o Month) bool {
	return m.Year() == o.Year() && m.Month() == o.Month()
}

// CompareMonths orders by (year, month) only. It returns a negative value
// when a is chronologically before b, zero when they are the same month.
func CompareMonths(a, b Month) int {
	return monthIndex(a) - monthIndex(b)
}

// AddMonths adds n whole months (n may be negative). When the receiver
// sits on the last calendar day of its month the result sticks to the
// last day of the target month; otherwise the day-of-month is preserved,
// capped at the target month's length.
func (m Month) AddMonths(n int) Month {
	year, month, day := m.Date()
	target := time.Date(year, month+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	targetLast := lastDayOfMonth(target.Year(), target.Month())
	if day >= lastDayOfMonth(year, month) || day > targetLast {
		day = targetLast
	}
	return NewMonth(target.Year(), int(target.Month()), day)
}

// MonthsBetween returns the whole-month distance from a to b, ignoring
// day-of-month. Positive when b is chronologically after a.
func MonthsBetween(a, b Month) int {
	return monthIndex(b) - monthIndex(a)
}

func monthIndex(m Month) int {
	return m.Year()*12 + int(m.Month()) - 1
}

func lastDayOfMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
