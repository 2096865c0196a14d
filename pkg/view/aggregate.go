package view

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/leapstack-labs/leapview/pkg/core"
)

// noGroup is the group key of records whose grouping field is missing.
const noGroup = "(none)"

// Compute evaluates specs against a view. filtered is the list that matches
// the current criteria and all is the full dataset; each spec selects its
// list through Scope and, for percentages, its denominator through Of.
//
// Every statistic is recomputed from the given lists. Missing values add 0
// to sums and are excluded from averages, minimums and maximums.
func Compute[T any](filtered, all []T, s *Schema[T], specs []core.StatSpec, now time.Time) ([]core.Statistic, error) {
	out := make([]core.Statistic, 0, len(specs))
	for _, spec := range specs {
		st, err := computeOne(filtered, all, s, spec, now)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

func computeOne[T any](filtered, all []T, s *Schema[T], spec core.StatSpec, now time.Time) (core.Statistic, error) {
	if err := spec.Validate(); err != nil {
		return core.Statistic{}, err
	}
	kind, _ := core.ParseStatKind(string(spec.Kind))
	spec.Kind = kind

	st := core.Statistic{
		Name:   spec.Name,
		Label:  spec.DisplayLabel(),
		Kind:   kind,
		Format: spec.EffectiveFormat(),
	}

	scope, _ := core.ParseStatScope(string(spec.Scope))
	base := pick(filtered, all, scope)

	keep, err := narrowing(s, spec, now)
	if err != nil {
		return st, fmt.Errorf("stat %s: %w", spec.Name, err)
	}
	list := Filter(base, keep)

	switch kind {
	case core.StatCount:
		st.Value = float64(len(list))

	case core.StatSum, core.StatAverage, core.StatMin, core.StatMax:
		vals, err := numbers(list, s, spec.Field)
		if err != nil {
			return st, fmt.Errorf("stat %s: %w", spec.Name, err)
		}
		switch kind {
		case core.StatSum:
			st.Value = Sum(vals)
		case core.StatAverage:
			st.Value = Average(vals)
		case core.StatMin:
			st.Value = Min(vals)
		case core.StatMax:
			st.Value = Max(vals)
		}

	case core.StatPercentage:
		part, err := measure(list, s, spec.Field)
		if err != nil {
			return st, fmt.Errorf("stat %s: %w", spec.Name, err)
		}
		of := scope
		if spec.Of != "" {
			of, _ = core.ParseStatScope(string(spec.Of))
		}
		// A baseline field is a ratio over the same narrowed records; without
		// one the part is compared to the un-narrowed total.
		denominator, wholeList := spec.Field, pick(filtered, all, of)
		if spec.Baseline != "" {
			denominator = spec.Baseline
			wholeList = Filter(wholeList, keep)
		}
		whole, err := measure(wholeList, s, denominator)
		if err != nil {
			return st, fmt.Errorf("stat %s: %w", spec.Name, err)
		}
		st.Value = Percentage(part, whole)

	case core.StatDelta:
		current, err := numbers(list, s, spec.Field)
		if err != nil {
			return st, fmt.Errorf("stat %s: %w", spec.Name, err)
		}
		baseline, err := numbers(list, s, spec.Baseline)
		if err != nil {
			return st, fmt.Errorf("stat %s: %w", spec.Name, err)
		}
		st.Baseline = Sum(baseline)
		st.Delta, st.DeltaPercent = Delta(Sum(current), st.Baseline)
		st.DeltaPercent = Round(st.DeltaPercent, 1)
		st.Value = st.Delta

	case core.StatGroupCount, core.StatGroupSum:
		groups, err := group(list, s, spec)
		if err != nil {
			return st, fmt.Errorf("stat %s: %w", spec.Name, err)
		}
		st.Groups = groups
		for _, g := range groups {
			if kind == core.StatGroupSum {
				st.Value += g.Sum
			} else {
				st.Value += float64(g.Count)
			}
		}

	case core.StatOverdue:
		f, err := s.date(spec.Field)
		if err != nil {
			return st, fmt.Errorf("stat %s: %w", spec.Name, err)
		}
		n := 0
		for _, rec := range list {
			if v := f.Value(rec); v.Valid && core.PeriodOverdue.Contains(v.Time, now) {
				n++
			}
		}
		st.Value = float64(n)
	}

	st.Value = Round(st.Value, spec.EffectivePrecision())
	return st, nil
}

func pick[T any](filtered, all []T, scope core.StatScope) []T {
	if scope == core.ScopeAll {
		return all
	}
	return filtered
}

// narrowing compiles the Where, Present and Period clauses of a spec. A
// Where clause matches when the field equals any of the listed values.
func narrowing[T any](s *Schema[T], spec core.StatSpec, now time.Time) (Predicate[T], error) {
	var tests []Predicate[T]

	keys := make([]string, 0, len(spec.Where))
	for k := range spec.Where {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, name := range keys {
		f, err := s.Lookup(name)
		if err != nil {
			return nil, err
		}
		var matchers []func(core.Value) bool
		for _, want := range spec.Where[name] {
			eq, err := equalTo(f.Kind, want)
			if err != nil {
				return nil, fmt.Errorf("where %s: %w", f.Name, err)
			}
			matchers = append(matchers, eq)
		}
		tests = append(tests, func(rec T) bool {
			v := f.Value(rec)
			for _, eq := range matchers {
				if eq(v) {
					return true
				}
			}
			return false
		})
	}

	for _, name := range spec.Present {
		f, err := s.Lookup(name)
		if err != nil {
			return nil, err
		}
		tests = append(tests, func(rec T) bool {
			return !f.Value(rec).IsNull()
		})
	}

	if period, _ := core.ParsePeriod(string(spec.Period)); period != core.PeriodAny {
		f, err := s.date(spec.PeriodField)
		if err != nil {
			return nil, err
		}
		tests = append(tests, func(rec T) bool {
			v := f.Value(rec)
			return v.Valid && period.Contains(v.Time, now)
		})
	}

	if len(tests) == 0 {
		return nil, nil
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

// numbers returns the present values of a numeric field.
func numbers[T any](records []T, s *Schema[T], name string) ([]float64, error) {
	f, err := s.numeric(name)
	if err != nil {
		return nil, err
	}
	out := make([]float64, 0, len(records))
	for _, rec := range records {
		if v := f.Value(rec); v.Valid {
			out = append(out, v.Num)
		}
	}
	return out, nil
}

// measure is the count of records when name is empty, otherwise the sum of
// the named field.
func measure[T any](records []T, s *Schema[T], name string) (float64, error) {
	if name == "" {
		return float64(len(records)), nil
	}
	vals, err := numbers(records, s, name)
	if err != nil {
		return 0, err
	}
	return Sum(vals), nil
}

// group breaks records down by spec.By. Enum groups follow the declared
// value order; other keys are ordered alphabetically. The group of missing
// keys is last.
func group[T any](records []T, s *Schema[T], spec core.StatSpec) ([]core.Group, error) {
	by, err := s.Lookup(spec.By)
	if err != nil {
		return nil, err
	}
	var sum Field[T]
	if spec.Kind == core.StatGroupSum {
		if sum, err = s.numeric(spec.Field); err != nil {
			return nil, err
		}
	}

	index := make(map[string]int)
	var groups []core.Group
	for _, rec := range records {
		key := noGroup
		if v := by.Value(rec); !v.IsNull() {
			key = v.Display()
		}
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, core.Group{Key: key})
		}
		groups[i].Count++
		if spec.Kind == core.StatGroupSum {
			if v := sum.Value(rec); v.Valid {
				groups[i].Sum += v.Num
			}
		}
	}

	rank := make(map[string]int, len(by.Values))
	for i, v := range by.Values {
		rank[strings.ToLower(v)] = i
	}
	slices.SortStableFunc(groups, func(a, b core.Group) int {
		if a.Key == noGroup || b.Key == noGroup {
			return compareBool(a.Key == noGroup, b.Key == noGroup)
		}
		ra, oka := rank[strings.ToLower(a.Key)]
		rb, okb := rank[strings.ToLower(b.Key)]
		switch {
		case oka && okb:
			return cmp.Compare(ra, rb)
		case oka:
			return -1
		case okb:
			return 1
		}
		return strings.Compare(a.Key, b.Key)
	})
	return groups, nil
}
