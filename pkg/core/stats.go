package core

import (
	"fmt"
	"strings"
)

// =============================================================================
// StatKind
// =============================================================================

// StatKind identifies an aggregate computed over a list of records.
type StatKind string

// Statistic kinds.
const (
	StatCount      StatKind = "count"
	StatSum        StatKind = "sum"
	StatAverage    StatKind = "average"
	StatMin        StatKind = "min"
	StatMax        StatKind = "max"
	StatPercentage StatKind = "percentage"
	StatDelta      StatKind = "delta"
	StatGroupCount StatKind = "group_count"
	StatGroupSum   StatKind = "group_sum"
	StatOverdue    StatKind = "overdue"
)

// StatKinds lists every supported statistic kind.
func StatKinds() []StatKind {
	return []StatKind{
		StatCount, StatSum, StatAverage, StatMin, StatMax,
		StatPercentage, StatDelta, StatGroupCount, StatGroupSum, StatOverdue,
	}
}

// ParseStatKind converts a string to a StatKind.
func ParseStatKind(s string) (StatKind, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "avg", "mean":
		return StatAverage, true
	case "total":
		return StatSum, true
	case "pct", "percent":
		return StatPercentage, true
	case "variance":
		return StatDelta, true
	}
	for _, k := range StatKinds() {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// NeedsField reports whether the kind requires a field to aggregate.
func (k StatKind) NeedsField() bool {
	switch k {
	case StatSum, StatAverage, StatMin, StatMax, StatDelta,
		StatGroupSum, StatOverdue:
		return true
	default:
		return false
	}
}

// =============================================================================
// StatScope
// =============================================================================

// StatScope selects which list a statistic is computed over.
type StatScope string

// Statistic scopes.
const (
	// ScopeFiltered computes over the records matching the current criteria.
	ScopeFiltered StatScope = "filtered"
	// ScopeAll computes over the full dataset regardless of criteria.
	ScopeAll StatScope = "all"
)

// ParseStatScope converts a string to a StatScope. The empty string is
// ScopeFiltered.
func ParseStatScope(s string) (StatScope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "filtered", "view":
		return ScopeFiltered, nil
	case "all", "dataset", "full":
		return ScopeAll, nil
	default:
		return "", fmt.Errorf("unknown stat scope %q (use filtered or all)", s)
	}
}

// =============================================================================
// StatSpec
// =============================================================================

// Display formats for statistic values.
const (
	FormatNumber   = "number"
	FormatCount    = "count"
	FormatCurrency = "currency"
	FormatPercent  = "percent"
	FormatDays     = "days"
)

// StatSpec describes one statistic to compute over a list of records.
//
// Field is the aggregated field. For percentage, Baseline optionally names a
// different denominator field; for delta it names the baseline field that
// Field is compared against. By names the grouping field of group_count and
// group_sum. Where, Present and Period narrow the list before the
// statistic is computed (the part of a percentage); the denominator of a
// percentage is computed over the un-narrowed list selected by Of.
type StatSpec struct {
	Name        string              `json:"name" yaml:"name" koanf:"name"`
	Label       string              `json:"label,omitempty" yaml:"label" koanf:"label"`
	Kind        StatKind            `json:"kind" yaml:"kind" koanf:"kind"`
	Field       string              `json:"field,omitempty" yaml:"field" koanf:"field"`
	Baseline    string              `json:"baseline,omitempty" yaml:"baseline" koanf:"baseline"`
	By          string              `json:"by,omitempty" yaml:"by" koanf:"by"`
	Where       map[string][]string `json:"where,omitempty" yaml:"where" koanf:"where"`
	Present     []string            `json:"present,omitempty" yaml:"present" koanf:"present"`
	Period      Period              `json:"period,omitempty" yaml:"period" koanf:"period"`
	PeriodField string              `json:"period_field,omitempty" yaml:"period_field" koanf:"period_field"`
	Scope       StatScope           `json:"scope,omitempty" yaml:"scope" koanf:"scope"`
	Of          StatScope           `json:"of,omitempty" yaml:"of" koanf:"of"`
	Precision   *int                `json:"precision,omitempty" yaml:"precision" koanf:"precision"`
	Format      string              `json:"format,omitempty" yaml:"format" koanf:"format"`
}

// DisplayLabel returns Label, falling back to Name.
func (s StatSpec) DisplayLabel() string {
	if s.Label != "" {
		return s.Label
	}
	return s.Name
}

// EffectivePrecision returns the number of decimals the value is rounded to,
// or -1 when the value is kept as computed.
func (s StatSpec) EffectivePrecision() int {
	if s.Precision != nil {
		return *s.Precision
	}
	switch s.Kind {
	case StatPercentage:
		return 1
	case StatAverage:
		return 2
	default:
		return -1
	}
}

// EffectiveFormat returns Format, defaulting by kind.
func (s StatSpec) EffectiveFormat() string {
	if s.Format != "" {
		return s.Format
	}
	switch s.Kind {
	case StatCount, StatGroupCount, StatOverdue:
		return FormatCount
	case StatPercentage:
		return FormatPercent
	default:
		return FormatNumber
	}
}

// Validate checks the statistic for structural errors. Field names are checked
// against a schema elsewhere.
func (s StatSpec) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("stat name is required")
	}
	kind, ok := ParseStatKind(string(s.Kind))
	if !ok {
		return fmt.Errorf("stat %s: unknown kind %q", s.Name, s.Kind)
	}
	if kind.NeedsField() && s.Field == "" {
		return fmt.Errorf("stat %s: kind %s requires a field", s.Name, kind)
	}
	if kind == StatDelta && s.Baseline == "" {
		return fmt.Errorf("stat %s: delta requires a baseline field", s.Name)
	}
	if (kind == StatGroupCount || kind == StatGroupSum) && s.By == "" {
		return fmt.Errorf("stat %s: %s requires a grouping field", s.Name, kind)
	}
	period, err := ParsePeriod(string(s.Period))
	if err != nil {
		return fmt.Errorf("stat %s: %w", s.Name, err)
	}
	if period != PeriodAny && s.PeriodField == "" {
		return fmt.Errorf("stat %s: period %s requires a period field", s.Name, s.Period)
	}
	if _, err := ParseStatScope(string(s.Scope)); err != nil {
		return fmt.Errorf("stat %s: %w", s.Name, err)
	}
	if _, err := ParseStatScope(string(s.Of)); err != nil {
		return fmt.Errorf("stat %s: %w", s.Name, err)
	}
	return nil
}

// =============================================================================
// Statistic
// =============================================================================

// Group is one bucket of a group_count or group_sum breakdown.
type Group struct {
	Key   string  `json:"key"`
	Count int     `json:"count"`
	Sum   float64 `json:"sum"`
}

// Statistic is a computed aggregate.
type Statistic struct {
	Name   string   `json:"name"`
	Label  string   `json:"label"`
	Kind   StatKind `json:"kind"`
	Format string   `json:"format"`
	Value  float64  `json:"value"`

	// Delta fields are set for StatDelta.
	Baseline     float64 `json:"baseline,omitempty"`
	Delta        float64 `json:"delta,omitempty"`
	DeltaPercent float64 `json:"delta_percent,omitempty"`

	Groups []Group `json:"groups,omitempty"`
}
