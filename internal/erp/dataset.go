// Package erp defines the ERP record types LeapView serves and the catalog
// of loaded datasets.
//
// Each dataset is one flat record type with a view.Schema, a default sort
// and the statistics shown on its list page. Datasets are loaded from data
// files and are immutable once loaded; the catalog swaps whole datasets on
// reload.
package erp

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/leapstack-labs/leapview/internal/loader"
	"github.com/leapstack-labs/leapview/pkg/core"
	"github.com/leapstack-labs/leapview/pkg/view"
)

var (
	// ErrUnknownDataset is returned for a dataset name the catalog does not hold.
	ErrUnknownDataset = errors.New("unknown dataset")
	// ErrNotSupported is returned when a dataset has no such report.
	ErrNotSupported = errors.New("report not supported for dataset")
)

// Info describes a loaded dataset.
type Info struct {
	Name         string        `json:"name"`
	Title        string        `json:"title"`
	Description  string        `json:"description,omitempty"`
	Source       string        `json:"source,omitempty"`
	Format       loader.Format `json:"format,omitempty"`
	Records      int           `json:"records"`
	LoadedAt     time.Time     `json:"loaded_at"`
	DateField    string        `json:"date_field,omitempty"`
	SearchFields []string      `json:"search_fields"`
	DefaultSort  string        `json:"default_sort,omitempty"`
	Aging        bool          `json:"aging,omitempty"`
	SLA          bool          `json:"sla,omitempty"`
}

// Dataset is a loaded record set behind a type-erased interface.
type Dataset interface {
	Info() Info
	Columns() []core.Column
	// DefaultQuery returns the default sort, page size and statistics.
	DefaultQuery() core.Query
	// Run filters, sorts, aggregates and paginates the records.
	Run(q core.Query, opts view.Options) (*core.Table, error)
	// Aging returns the receivables aging report, or ErrNotSupported.
	Aging(asOf time.Time) (*core.AgingReport, error)
	// SLA checks open records against their deadlines, or returns
	// ErrNotSupported.
	SLA(now time.Time, warnDays int) (*core.SLAReport, error)
}

// DefaultWarnDays is the at-risk window of the SLA report when none is
// given.
const DefaultWarnDays = 3

// Settings overrides dataset defaults from configuration.
type Settings struct {
	DefaultSort  string
	PageSize     int
	SearchFields []string
}

// AgingSpec configures the aging report of a dataset. Include selects the
// receivable records.
type AgingSpec[T any] struct {
	view.AgingSpec
	Include func(T) bool
}

// SLASpec configures the deadline report of a dataset. Include selects the
// records still open.
type SLASpec[T any] struct {
	KeyField      string
	DeadlineField string
	Include       func(T) bool
}

// Definition declares a dataset over record type T.
type Definition[T any] struct {
	Name        string
	Title       string
	Description string
	Schema      *view.Schema[T]
	// DateField is the default field of date ranges and periods.
	DateField   string
	DefaultSort core.SortSpec
	Stats       []core.StatSpec
	Aging       *AgingSpec[T]
	SLA         *SLASpec[T]
}

// Opener loads a dataset from a data file.
type Opener interface {
	DatasetName() string
	Open(path string, s Settings) (Dataset, error)
}

// Definitions returns every known dataset definition.
func Definitions() []Opener {
	return []Opener{reimbursements, budget, issues, invoices}
}

// DatasetName returns the dataset name.
func (d *Definition[T]) DatasetName() string {
	return d.Name
}

// Open loads the dataset from a data file.
func (d *Definition[T]) Open(path string, s Settings) (Dataset, error) {
	records, err := loader.LoadFile[T](path)
	if err != nil {
		return nil, err
	}
	format, _ := loader.FormatOf(path)
	ds, err := d.FromRecords(records, s)
	if err != nil {
		return nil, err
	}
	ds.info.Source = path
	ds.info.Format = format
	return ds, nil
}

// FromRecords builds the dataset from records already in memory.
func (d *Definition[T]) FromRecords(records []T, s Settings) (*Table[T], error) {
	schema := d.Schema
	if len(s.SearchFields) > 0 {
		var err error
		if schema, err = schema.WithSearch(s.SearchFields...); err != nil {
			return nil, fmt.Errorf("dataset %s: search fields: %w", d.Name, err)
		}
	}

	sort := d.DefaultSort
	if s.DefaultSort != "" {
		var err error
		if sort, err = core.ParseSortSpec(s.DefaultSort); err != nil {
			return nil, fmt.Errorf("dataset %s: default sort: %w", d.Name, err)
		}
	}
	if !sort.IsZero() {
		f, err := schema.Lookup(sort.Field)
		if err != nil {
			return nil, fmt.Errorf("dataset %s: default sort: %w", d.Name, err)
		}
		if !f.Sortable {
			return nil, fmt.Errorf("dataset %s: default sort: %w: %s", d.Name, view.ErrNotSortable, f.Name)
		}
	}

	var search []string
	for _, f := range schema.SearchFields() {
		search = append(search, f.Name)
	}

	return &Table[T]{
		def:      d,
		schema:   schema,
		records:  slices.Clip(records),
		sort:     sort,
		pageSize: s.PageSize,
		info: Info{
			Name:         d.Name,
			Title:        d.Title,
			Description:  d.Description,
			Records:      len(records),
			LoadedAt:     time.Now(),
			DateField:    d.DateField,
			SearchFields: search,
			DefaultSort:  sort.String(),
			Aging:        d.Aging != nil,
			SLA:          d.SLA != nil,
		},
	}, nil
}

// Table is a loaded dataset of records of type T.
type Table[T any] struct {
	def      *Definition[T]
	schema   *view.Schema[T]
	records  []T
	sort     core.SortSpec
	pageSize int
	info     Info
}

// Info returns the dataset description.
func (t *Table[T]) Info() Info {
	return t.info
}

// Columns returns the dataset columns.
func (t *Table[T]) Columns() []core.Column {
	return t.schema.Columns()
}

// Records returns the loaded records. The slice must not be modified.
func (t *Table[T]) Records() []T {
	return t.records
}

// DefaultQuery returns the default sort, page size and statistics.
func (t *Table[T]) DefaultQuery() core.Query {
	return core.Query{
		Sort:  t.sort,
		Page:  core.PageRequest{Page: 1, Size: t.pageSize},
		Stats: slices.Clone(t.def.Stats),
	}
}

// Run filters, sorts, aggregates and paginates the records. Range and
// period criteria without a field use the dataset's date field.
func (t *Table[T]) Run(q core.Query, opts view.Options) (*core.Table, error) {
	if q.Criteria.Range != nil && q.Criteria.Range.Field == "" {
		r := *q.Criteria.Range
		r.Field = t.def.DateField
		q.Criteria.Range = &r
	}
	if q.Criteria.Period != core.PeriodAny && q.Criteria.PeriodField == "" {
		q.Criteria.PeriodField = t.def.DateField
	}

	res, err := view.Run(t.records, t.schema, q, opts)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", t.def.Name, err)
	}
	return res.Table(t.def.Name, t.schema), nil
}

// Aging returns the receivables aging report as of asOf.
func (t *Table[T]) Aging(asOf time.Time) (*core.AgingReport, error) {
	spec := t.def.Aging
	if spec == nil {
		return nil, fmt.Errorf("%w: aging: %s", ErrNotSupported, t.def.Name)
	}
	return view.Aging(t.include(spec.Include), t.schema, spec.AgingSpec, asOf)
}

// SLA checks open records against their deadlines as of now.
func (t *Table[T]) SLA(now time.Time, warnDays int) (*core.SLAReport, error) {
	spec := t.def.SLA
	if spec == nil {
		return nil, fmt.Errorf("%w: sla: %s", ErrNotSupported, t.def.Name)
	}
	return view.SLAReport(t.include(spec.Include), t.schema, spec.KeyField, spec.DeadlineField, now, warnDays)
}

func (t *Table[T]) include(keep func(T) bool) []T {
	if keep == nil {
		return t.records
	}
	return view.Filter(t.records, keep)
}

// SelectStats returns the named statistics of a dataset, in the order
// given. An empty list selects every default statistic.
func SelectStats(ds Dataset, names []string) ([]core.StatSpec, error) {
	defaults := ds.DefaultQuery().Stats
	if len(names) == 0 {
		return defaults, nil
	}
	out := make([]core.StatSpec, 0, len(names))
	for _, name := range names {
		i := slices.IndexFunc(defaults, func(s core.StatSpec) bool {
			return strings.EqualFold(s.Name, name)
		})
		if i < 0 {
			return nil, fmt.Errorf("unknown statistic %q for dataset %s", name, ds.Info().Name)
		}
		out = append(out, defaults[i])
	}
	return out, nil
}

// WithScope returns specs with every scope set to scope.
func WithScope(specs []core.StatSpec, scope core.StatScope) []core.StatSpec {
	out := slices.Clone(specs)
	for i := range out {
		out[i].Scope = scope
	}
	return out
}

// parseEnum matches s case-insensitively against values.
func parseEnum[E ~string](s string, values []E) (E, bool) {
	s = strings.TrimSpace(s)
	for _, v := range values {
		if strings.EqualFold(string(v), s) {
			return v, true
		}
	}
	return "", false
}

func intp(i int) *int { return &i }
