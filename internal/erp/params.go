package erp

import (
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/leapstack-labs/leapview/pkg/core"
)

// Params is a list request in its textual form, as typed on the command
// line or sent as URL parameters.
type Params struct {
	Search    string
	Filters   map[string]string
	From      string
	To        string
	DateField string
	Period    string
	Sort      string
	Page      int
	Size      int
	// Stats selects default statistics by name; empty means all.
	Stats []string
	Scope string
}

// Query builds the query of p against ds. Unset sort and page size fall
// back to the dataset defaults. Dates are read in loc.
func (p Params) Query(ds Dataset, loc *time.Location) (core.Query, error) {
	q := ds.DefaultQuery()
	q.Criteria.Search = strings.TrimSpace(p.Search)
	if len(p.Filters) > 0 {
		q.Criteria.Filters = maps.Clone(p.Filters)
	}

	if p.From != "" || p.To != "" {
		r := &core.DateRange{Field: p.DateField}
		if p.From != "" {
			t, ok := core.ParseDate(p.From, loc)
			if !ok {
				return q, fmt.Errorf("invalid from date %q", p.From)
			}
			r.From = &t
		}
		if p.To != "" {
			t, ok := core.ParseDate(p.To, loc)
			if !ok {
				return q, fmt.Errorf("invalid to date %q", p.To)
			}
			r.To = &t
		}
		q.Criteria.Range = r
	}

	if p.Period != "" {
		period, err := core.ParsePeriod(p.Period)
		if err != nil {
			return q, err
		}
		q.Criteria.Period = period
		q.Criteria.PeriodField = p.DateField
	}

	if p.Sort != "" {
		sort, err := core.ParseSortSpec(p.Sort)
		if err != nil {
			return q, err
		}
		q.Sort = sort
	}

	if p.Page > 0 {
		q.Page.Page = p.Page
	}
	if p.Size != 0 {
		q.Page.Size = max(p.Size, 0)
	}

	stats, err := SelectStats(ds, p.Stats)
	if err != nil {
		return q, err
	}
	if p.Scope != "" {
		scope, err := core.ParseStatScope(p.Scope)
		if err != nil {
			return q, err
		}
		stats = WithScope(stats, scope)
	}
	q.Stats = stats
	return q, nil
}

// ParseFilters reads "field=value" pairs.
func ParseFilters(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		field, value, ok := strings.Cut(pair, "=")
		field = strings.TrimSpace(field)
		if !ok || field == "" {
			return nil, fmt.Errorf("invalid filter %q (use field=value)", pair)
		}
		out[field] = strings.TrimSpace(value)
	}
	return out, nil
}
