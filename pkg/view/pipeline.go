package view

import (
	"fmt"
	"time"

	"github.com/leapstack-labs/leapview/pkg/core"
	"golang.org/x/text/language"
)

// Options carries the environment of a pipeline run.
type Options struct {
	// Now returns the reference time for periods and overdue checks.
	// Defaults to time.Now.
	Now func() time.Time
	// Language selects the collation of text sort keys. Defaults to English.
	Language language.Tag
	// Location is the time zone "today" is evaluated in. Defaults to the
	// location of Now.
	Location *time.Location
}

func (o Options) now() time.Time {
	now := time.Now()
	if o.Now != nil {
		now = o.Now()
	}
	if o.Location != nil {
		now = now.In(o.Location)
	}
	return now
}

func (o Options) language() language.Tag {
	if o.Language == language.Und {
		return language.English
	}
	return o.Language
}

// Result is the outcome of a pipeline run.
type Result[T any] struct {
	// Records is the requested page of the filtered, sorted list.
	Records []T
	// Total is the size of the dataset and Matched the size of the
	// filtered list before paging.
	Total   int
	Matched int
	Page    core.PageInfo
	Sort    core.SortSpec
	Stats   []core.Statistic
}

// Run applies q to records: the criteria select records, the sort orders
// them, statistics are computed over the filtered list (or the whole
// dataset for ScopeAll) and the result is paginated. records is not
// modified.
func Run[T any](records []T, s *Schema[T], q core.Query, opts Options) (*Result[T], error) {
	now := opts.now()

	pred, err := Compile(s, q.Criteria, now)
	if err != nil {
		return nil, fmt.Errorf("failed to compile criteria: %w", err)
	}
	filtered := Filter(records, pred)

	sorted, err := Sort(filtered, s, q.Sort, opts.language())
	if err != nil {
		return nil, fmt.Errorf("failed to sort: %w", err)
	}

	stats, err := Compute(sorted, records, s, q.Stats, now)
	if err != nil {
		return nil, fmt.Errorf("failed to compute statistics: %w", err)
	}

	page, info := Paginate(sorted, q.Page)
	return &Result[T]{
		Records: page,
		Total:   len(records),
		Matched: len(sorted),
		Page:    info,
		Sort:    q.Sort,
		Stats:   stats,
	}, nil
}

// Paginate returns the requested 1-based page of records. Pages below 1
// select the first page and pages past the end select the last one. A
// size of 0 or less returns every record as a single page. The returned
// slice shares its backing array with records.
func Paginate[T any](records []T, req core.PageRequest) ([]T, core.PageInfo) {
	if req.Size <= 0 {
		return records, core.PageInfo{Page: 1, Size: 0, Pages: 1}
	}
	pages := (len(records) + req.Size - 1) / req.Size
	pages = max(pages, 1)
	page := min(max(req.Page, 1), pages)

	start := min((page-1)*req.Size, len(records))
	end := min(start+req.Size, len(records))
	return records[start:end], core.PageInfo{Page: page, Size: req.Size, Pages: pages}
}

// Table converts a result into its type-erased rendering form.
func (r *Result[T]) Table(dataset string, s *Schema[T]) *core.Table {
	rows := make([][]core.Value, len(r.Records))
	for i, rec := range r.Records {
		rows[i] = s.Row(rec)
	}
	return &core.Table{
		Dataset: dataset,
		Columns: s.Columns(),
		Rows:    rows,
		Total:   r.Total,
		Matched: r.Matched,
		Page:    r.Page,
		Sort:    r.Sort,
		Stats:   r.Stats,
	}
}
