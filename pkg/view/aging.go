package view

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/leapstack-labs/leapview/pkg/core"
)

// AgingSpec names the fields an aging report is built from.
type AgingSpec struct {
	DueField    string
	AmountField string
	// GroupField optionally breaks the report down by a field, such as the
	// customer name.
	GroupField string
}

// Aging builds the receivables aging report of records as of asOf. Each
// record is placed in a bucket by the number of whole days its due date
// lies before asOf; records due today or later are current. Missing amounts
// count as 0 and records without a due date are only counted as undated.
func Aging[T any](records []T, s *Schema[T], spec AgingSpec, asOf time.Time) (*core.AgingReport, error) {
	due, err := s.date(spec.DueField)
	if err != nil {
		return nil, err
	}
	amount, err := s.numeric(spec.AmountField)
	if err != nil {
		return nil, err
	}
	var by Field[T]
	if spec.GroupField != "" {
		if by, err = s.Lookup(spec.GroupField); err != nil {
			return nil, err
		}
	}

	r := &core.AgingReport{AsOf: asOf, Buckets: core.AgingBuckets()}
	groups := make(map[string]int)
	for _, rec := range records {
		d := due.Value(rec)
		if !d.Valid {
			r.Undated++
			continue
		}
		var amt float64
		if v := amount.Value(rec); v.Valid {
			amt = v.Num
		}
		days := -Remaining(d.Time, asOf)
		bucket := slices.IndexFunc(r.Buckets, func(b core.AgingBucket) bool {
			return b.Contains(days)
		})
		r.Buckets[bucket].Count++
		r.Buckets[bucket].Amount += amt

		r.Count++
		r.Amount += amt
		if days > 0 {
			r.OverdueCount++
			r.OverdueAmount += amt
		}

		if spec.GroupField == "" {
			continue
		}
		key := noGroup
		if v := by.Value(rec); !v.IsNull() {
			key = v.Display()
		}
		i, ok := groups[key]
		if !ok {
			i = len(r.Groups)
			groups[key] = i
			r.Groups = append(r.Groups, core.AgingGroup{Key: key, Amounts: make([]float64, len(r.Buckets))})
		}
		r.Groups[i].Amounts[bucket] += amt
		r.Groups[i].Total += amt
	}

	slices.SortStableFunc(r.Groups, func(a, b core.AgingGroup) int {
		if c := cmp.Compare(b.Total, a.Total); c != 0 {
			return c
		}
		return strings.Compare(a.Key, b.Key)
	})
	return r, nil
}

// Remaining returns the number of calendar days from now until deadline.
// It is negative once the deadline has passed. The deadline's date is read
// in now's location.
func Remaining(deadline, now time.Time) int {
	loc := now.Location()
	d := time.Date(deadline.Year(), deadline.Month(), deadline.Day(), 0, 0, 0, 0, loc)
	y, m, day := now.Date()
	today := time.Date(y, m, day, 0, 0, 0, 0, loc)
	// Rounding absorbs DST transitions.
	return int(d.Sub(today).Round(24*time.Hour) / (24 * time.Hour))
}

// SLA is the state of a record against its deadline.
type SLA string

// SLA states.
const (
	SLANone     SLA = ""
	SLAOnTrack  SLA = "on_track"
	SLAAtRisk   SLA = "at_risk"
	SLABreached SLA = "breached"
)

// SLAState classifies a deadline as seen at now. A deadline within
// warnDays days is at risk; a missing deadline has no state.
func SLAState(deadline core.Value, now time.Time, warnDays int) SLA {
	if !deadline.Valid {
		return SLANone
	}
	switch left := Remaining(deadline.Time, now); {
	case left < 0:
		return SLABreached
	case left <= warnDays:
		return SLAAtRisk
	default:
		return SLAOnTrack
	}
}

// SLAReport checks every record's deadline field as of now. keyField
// identifies records in the report items.
func SLAReport[T any](records []T, s *Schema[T], keyField, deadlineField string, now time.Time, warnDays int) (*core.SLAReport, error) {
	key, err := s.Lookup(keyField)
	if err != nil {
		return nil, err
	}
	deadline, err := s.date(deadlineField)
	if err != nil {
		return nil, err
	}

	r := &core.SLAReport{AsOf: now, WarnDays: warnDays}
	for _, rec := range records {
		d := deadline.Value(rec)
		state := SLAState(d, now, warnDays)
		switch state {
		case SLANone:
			r.Undated++
			continue
		case SLAOnTrack:
			r.OnTrack++
			continue
		case SLAAtRisk:
			r.AtRisk++
		case SLABreached:
			r.Breached++
		}
		r.Items = append(r.Items, core.SLAItem{
			Key:       key.Value(rec).Display(),
			Deadline:  d.Time,
			Remaining: Remaining(d.Time, now),
			State:     string(state),
		})
	}
	slices.SortStableFunc(r.Items, func(a, b core.SLAItem) int {
		return cmp.Compare(a.Remaining, b.Remaining)
	})
	return r, nil
}
