package core

import (
	"fmt"
	"strings"
	"time"
)

// Period is a date bucket relative to the current time, as offered by the
// date-range dropdowns of list pages.
type Period string

// Supported periods.
const (
	PeriodAny         Period = ""
	PeriodToday       Period = "today"
	PeriodThisWeek    Period = "this_week"
	PeriodThisMonth   Period = "this_month"
	PeriodLast30Days  Period = "last_30_days"
	PeriodThisQuarter Period = "this_quarter"
	PeriodThisYear    Period = "this_year"
	PeriodOverdue     Period = "overdue"
)

// Periods lists every selectable period except PeriodAny.
func Periods() []Period {
	return []Period{
		PeriodToday, PeriodThisWeek, PeriodThisMonth, PeriodLast30Days,
		PeriodThisQuarter, PeriodThisYear, PeriodOverdue,
	}
}

// ParsePeriod converts a string to a Period. "all" and "" map to PeriodAny.
func ParsePeriod(s string) (Period, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if IsAll(s) || s == "any" {
		return PeriodAny, nil
	}
	s = strings.ReplaceAll(s, "-", "_")
	for _, p := range Periods() {
		if string(p) == s {
			return p, nil
		}
	}
	return PeriodAny, fmt.Errorf("unknown period %q", s)
}

// Contains reports whether t falls in the period as seen at now.
// Comparisons use whole calendar days; t's own date is taken as a date in
// now's location so that date-only values never shift across midnight.
func (p Period) Contains(t, now time.Time) bool {
	today := truncateDay(now)
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, now.Location())

	switch p {
	case PeriodAny:
		return true
	case PeriodToday:
		return day.Equal(today)
	case PeriodThisWeek:
		// Weeks start on Monday.
		offset := (int(today.Weekday()) + 6) % 7
		start := today.AddDate(0, 0, -offset)
		return !day.Before(start) && day.Before(start.AddDate(0, 0, 7))
	case PeriodThisMonth:
		return day.Year() == today.Year() && day.Month() == today.Month()
	case PeriodLast30Days:
		return !day.Before(today.AddDate(0, 0, -29)) && !day.After(today)
	case PeriodThisQuarter:
		return day.Year() == today.Year() && quarterOf(day.Month()) == quarterOf(today.Month())
	case PeriodThisYear:
		return day.Year() == today.Year()
	case PeriodOverdue:
		return day.Before(today)
	default:
		return false
	}
}

func quarterOf(m time.Month) int {
	return (int(m)-1)/3 + 1
}
