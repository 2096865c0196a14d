package core

import (
	"fmt"
	"strings"
	"time"
)

// AllSentinel is the filter value that disables a filter dimension.
const AllSentinel = "all"

// IsAll reports whether a filter selection disables its dimension.
// The empty string and any casing of "all" both count.
func IsAll(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.EqualFold(v, AllSentinel)
}

// =============================================================================
// Direction
// =============================================================================

// Direction is the order applied to a sort key.
type Direction int

// Sort directions.
const (
	// DirNone leaves records in their original order.
	DirNone Direction = iota
	// DirAsc sorts ascending.
	DirAsc
	// DirDesc sorts descending.
	DirDesc
)

// String returns the string representation of the direction.
func (d Direction) String() string {
	switch d {
	case DirAsc:
		return "asc"
	case DirDesc:
		return "desc"
	default:
		return "none"
	}
}

// ParseDirection converts a string to a Direction.
// Returns the direction and true if valid, or DirNone and false if invalid.
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc", "ascending", "up":
		return DirAsc, true
	case "desc", "descending", "down":
		return DirDesc, true
	case "none", "":
		return DirNone, true
	default:
		return DirNone, false
	}
}

// Next returns the direction that follows d when a column header is
// clicked again: none -> asc -> desc -> none.
func (d Direction) Next() Direction {
	switch d {
	case DirNone:
		return DirAsc
	case DirAsc:
		return DirDesc
	default:
		return DirNone
	}
}

// MarshalText implements encoding.TextMarshaler.
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Direction) UnmarshalText(b []byte) error {
	dir, ok := ParseDirection(string(b))
	if !ok {
		return fmt.Errorf("invalid sort direction %q", string(b))
	}
	*d = dir
	return nil
}

// =============================================================================
// SortSpec
// =============================================================================

// SortSpec selects the sort key and direction of a view.
type SortSpec struct {
	Field     string    `json:"field,omitempty"`
	Direction Direction `json:"direction"`
}

// IsZero reports whether the sort leaves records unsorted.
func (s SortSpec) IsZero() bool {
	return s.Field == "" || s.Direction == DirNone
}

// String renders the sort as "field:dir".
func (s SortSpec) String() string {
	if s.Field == "" {
		return ""
	}
	return s.Field + ":" + s.Direction.String()
}

// Toggle returns the sort after a click on the header of field.
// A different column starts ascending; the same column cycles its direction.
func (s SortSpec) Toggle(field string) SortSpec {
	if s.Field != field {
		return SortSpec{Field: field, Direction: DirAsc}
	}
	return SortSpec{Field: field, Direction: s.Direction.Next()}
}

// ParseSortSpec parses "field", "field:asc" or "field:desc".
// A bare field name sorts ascending; the empty string means no sort.
func ParseSortSpec(s string) (SortSpec, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return SortSpec{}, nil
	}
	field, dir, found := strings.Cut(s, ":")
	if !found {
		return SortSpec{Field: field, Direction: DirAsc}, nil
	}
	d, ok := ParseDirection(dir)
	if !ok {
		return SortSpec{}, fmt.Errorf("invalid sort direction %q in %q (use asc or desc)", dir, s)
	}
	if field == "" {
		return SortSpec{}, fmt.Errorf("sort field is required in %q", s)
	}
	return SortSpec{Field: field, Direction: d}, nil
}

// =============================================================================
// Criteria
// =============================================================================

// DateRange restricts a date field to an inclusive range.
// Either bound may be nil.
type DateRange struct {
	Field string     `json:"field"`
	From  *time.Time `json:"from,omitempty"`
	To    *time.Time `json:"to,omitempty"`
}

// Contains reports whether t falls within the range, comparing by day.
func (r DateRange) Contains(t time.Time) bool {
	day := truncateDay(t)
	if r.From != nil && day.Before(truncateDay(*r.From)) {
		return false
	}
	if r.To != nil && day.After(truncateDay(*r.To)) {
		return false
	}
	return true
}

// Criteria is the user's current search and filter selection.
type Criteria struct {
	// Search is matched case-insensitively against every searchable field.
	Search string `json:"search,omitempty"`
	// Filters maps a field name to the selected value, or "all".
	Filters map[string]string `json:"filters,omitempty"`
	// Range optionally restricts a date field to an inclusive range.
	Range *DateRange `json:"range,omitempty"`
	// Period optionally restricts PeriodField to a relative date bucket.
	Period      Period `json:"period,omitempty"`
	PeriodField string `json:"period_field,omitempty"`
}

// IsZero reports whether the criteria match every record.
func (c Criteria) IsZero() bool {
	if strings.TrimSpace(c.Search) != "" {
		return false
	}
	for _, v := range c.Filters {
		if !IsAll(v) {
			return false
		}
	}
	if c.Range != nil && (c.Range.From != nil || c.Range.To != nil) {
		return false
	}
	period, err := ParsePeriod(string(c.Period))
	return err == nil && period == PeriodAny
}

// =============================================================================
// Pagination
// =============================================================================

// PageRequest selects a 1-based page of Size records.
// Size 0 disables paging.
type PageRequest struct {
	Page int `json:"page,omitempty"`
	Size int `json:"size,omitempty"`
}

// PageInfo describes the page actually returned.
type PageInfo struct {
	Page  int `json:"page"`
	Size  int `json:"size"`
	Pages int `json:"pages"`
}

// =============================================================================
// Query
// =============================================================================

// Query is a complete view request: criteria, ordering, paging and the
// statistics to compute.
type Query struct {
	Criteria Criteria    `json:"criteria"`
	Sort     SortSpec    `json:"sort"`
	Page     PageRequest `json:"page"`
	Stats    []StatSpec  `json:"stats,omitempty"`
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
