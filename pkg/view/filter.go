package view

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/leapstack-labs/leapview/pkg/core"
)

// Predicate decides whether a record belongs to a view.
type Predicate[T any] func(T) bool

// matchAll is the predicate of empty criteria.
func matchAll[T any](T) bool { return true }

// Compile validates criteria against the schema and returns the predicate
// that implements them. now anchors relative periods.
//
// A record matches when the search text is empty or is a case-insensitive
// substring of at least one searchable field, and every active filter,
// range and period dimension matches. Dimensions set to "all" are ignored.
func Compile[T any](s *Schema[T], c core.Criteria, now time.Time) (Predicate[T], error) {
	var tests []Predicate[T]

	if search := strings.ToLower(strings.TrimSpace(c.Search)); search != "" {
		fields := s.SearchFields()
		tests = append(tests, func(rec T) bool {
			for _, f := range fields {
				v := f.Value(rec)
				if v.IsNull() && v.Kind != core.KindDate {
					continue
				}
				if strings.Contains(strings.ToLower(v.Display()), search) {
					return true
				}
				// Parsed dates are also matched in the form they were entered.
				if v.Str != "" && strings.Contains(strings.ToLower(v.Str), search) {
					return true
				}
			}
			return false
		})
	}

	// Sorted keys keep error reporting deterministic.
	keys := make([]string, 0, len(c.Filters))
	for k := range c.Filters {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, name := range keys {
		selected := c.Filters[name]
		if core.IsAll(selected) {
			continue
		}
		f, err := s.Lookup(name)
		if err != nil {
			return nil, err
		}
		if !f.Filterable {
			return nil, fmt.Errorf("%w: %s", ErrNotFilterable, f.Name)
		}
		eq, err := equalTo(f.Kind, selected)
		if err != nil {
			return nil, fmt.Errorf("filter %s: %w", f.Name, err)
		}
		tests = append(tests, func(rec T) bool {
			return eq(f.Value(rec))
		})
	}

	if r := c.Range; r != nil && (r.From != nil || r.To != nil) {
		f, err := s.date(r.Field)
		if err != nil {
			return nil, fmt.Errorf("date range: %w", err)
		}
		rng := *r
		tests = append(tests, func(rec T) bool {
			v := f.Value(rec)
			return v.Valid && rng.Contains(v.Time)
		})
	}

	period, err := core.ParsePeriod(string(c.Period))
	if err != nil {
		return nil, err
	}
	if period != core.PeriodAny {
		f, err := s.date(c.PeriodField)
		if err != nil {
			return nil, fmt.Errorf("period %s: %w", period, err)
		}
		tests = append(tests, func(rec T) bool {
			v := f.Value(rec)
			return v.Valid && period.Contains(v.Time, now)
		})
	}

	switch len(tests) {
	case 0:
		return matchAll[T], nil
	case 1:
		return tests[0], nil
	}
	return func(rec T) bool {
		for _, test := range tests {
			if !test(rec) {
				return false
			}
		}
		return true
	}, nil
}

// equalTo returns the equality test for a selected filter value.
// Missing values never match an active filter.
func equalTo(kind core.Kind, selected string) (func(core.Value) bool, error) {
	selected = strings.TrimSpace(selected)
	switch kind {
	case core.KindNumber:
		want, err := strconv.ParseFloat(selected, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", selected)
		}
		return func(v core.Value) bool { return v.Valid && v.Num == want }, nil
	case core.KindDate:
		want, ok := core.ParseDate(selected, nil)
		if !ok {
			return nil, fmt.Errorf("%q is not a date", selected)
		}
		return func(v core.Value) bool {
			return v.Valid && sameDay(v.Time, want)
		}, nil
	case core.KindBool:
		want, err := strconv.ParseBool(selected)
		if err != nil {
			return nil, fmt.Errorf("%q is not a boolean", selected)
		}
		return func(v core.Value) bool { return v.Valid && v.Bool == want }, nil
	default:
		return func(v core.Value) bool {
			return v.Valid && strings.EqualFold(strings.TrimSpace(v.Str), selected)
		}, nil
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Filter returns the records that satisfy pred, in their original order.
// The input slice is not modified; a nil predicate keeps every record.
func Filter[T any](records []T, pred Predicate[T]) []T {
	if pred == nil {
		return slices.Clone(records)
	}
	out := make([]T, 0, len(records))
	for _, rec := range records {
		if pred(rec) {
			out = append(out, rec)
		}
	}
	return out
}

// FilterBy compiles criteria against the schema and filters records.
func FilterBy[T any](records []T, s *Schema[T], c core.Criteria, now time.Time) ([]T, error) {
	pred, err := Compile(s, c, now)
	if err != nil {
		return nil, err
	}
	return Filter(records, pred), nil
}
