package view

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapview/pkg/core"
)

var testNow = time.Date(2025, 3, 15, 10, 30, 0, 0, time.UTC)

func day(s string) *time.Time {
	t, err := time.Parse(core.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestFilterBy(t *testing.T) {
	tests := []struct {
		name     string
		criteria core.Criteria
		want     []string
	}{
		{
			name: "no criteria keeps everything",
			want: []string{"INV-1", "INV-2", "INV-3"},
		},
		{
			name:     "search is case insensitive",
			criteria: core.Criteria{Search: "  priya "},
			want:     []string{"INV-2"},
		},
		{
			name:     "search matches any searchable field",
			criteria: core.Criteria{Search: "inv-3"},
			want:     []string{"INV-3"},
		},
		{
			name:     "search ignores non searchable fields",
			criteria: core.Criteria{Search: "200"},
			want:     []string{},
		},
		{
			name:     "enum filter",
			criteria: core.Criteria{Filters: map[string]string{"cat": "a"}},
			want:     []string{"INV-1", "INV-3"},
		},
		{
			name:     "all disables a dimension",
			criteria: core.Criteria{Filters: map[string]string{"cat": "All", "owner": ""}},
			want:     []string{"INV-1", "INV-2", "INV-3"},
		},
		{
			name:     "filters combine with AND",
			criteria: core.Criteria{Filters: map[string]string{"cat": "A", "paid": "true"}},
			want:     []string{"INV-1"},
		},
		{
			name:     "search and filter combine with AND",
			criteria: core.Criteria{Search: "priya", Filters: map[string]string{"cat": "A"}},
			want:     []string{},
		},
		{
			name:     "number filter",
			criteria: core.Criteria{Filters: map[string]string{"amount": "50"}},
			want:     []string{"INV-3"},
		},
		{
			name:     "date filter compares by day",
			criteria: core.Criteria{Filters: map[string]string{"due": "Feb 1, 2025"}},
			want:     []string{"INV-3"},
		},
		{
			name: "date range is inclusive",
			criteria: core.Criteria{Range: &core.DateRange{
				Field: "due", From: day("2025-02-01"), To: day("2025-03-01"),
			}},
			want: []string{"INV-2", "INV-3"},
		},
		{
			name:     "open ended range",
			criteria: core.Criteria{Range: &core.DateRange{Field: "due", To: day("2025-01-31")}},
			want:     []string{"INV-1"},
		},
		{
			name:     "period this month",
			criteria: core.Criteria{Period: core.PeriodThisMonth, PeriodField: "due"},
			want:     []string{"INV-2"},
		},
		{
			name:     "period overdue",
			criteria: core.Criteria{Period: core.PeriodOverdue, PeriodField: "due"},
			want:     []string{"INV-1", "INV-2", "INV-3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FilterBy(sampleItems(), itemSchema, tt.criteria, testNow)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, ids(got)); diff != "" {
				t.Errorf("FilterBy() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name     string
		criteria core.Criteria
		wantErr  error
		contains string
	}{
		{
			name:     "unknown field",
			criteria: core.Criteria{Filters: map[string]string{"colour": "red"}},
			wantErr:  ErrUnknownField,
		},
		{
			name:     "not filterable",
			criteria: core.Criteria{Filters: map[string]string{"budget": "10"}},
			wantErr:  ErrNotFilterable,
		},
		{
			name:     "bad number",
			criteria: core.Criteria{Filters: map[string]string{"amount": "lots"}},
			contains: "not a number",
		},
		{
			name:     "range on text field",
			criteria: core.Criteria{Range: &core.DateRange{Field: "owner", From: day("2025-01-01")}},
			wantErr:  ErrNotDate,
		},
		{
			name:     "period without field",
			criteria: core.Criteria{Period: core.PeriodToday},
			wantErr:  ErrUnknownField,
		},
		{
			name:     "unknown period",
			criteria: core.Criteria{Period: "fortnight", PeriodField: "due"},
			contains: "unknown period",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(itemSchema, tt.criteria, testNow)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.contains != "" {
				assert.Contains(t, err.Error(), tt.contains)
			}
		})
	}
}

func TestFilter_UnparseableDatesFailSoft(t *testing.T) {
	items := append(sampleItems(), item{ID: "INV-4", Cat: catC, Due: "sometime soon"})

	got, err := FilterBy(items, itemSchema, core.Criteria{
		Range: &core.DateRange{Field: "due", From: day("2024-01-01")},
	}, testNow)
	require.NoError(t, err)
	assert.Equal(t, []string{"INV-1", "INV-2", "INV-3"}, ids(got))

	// The raw text of an unparseable date is still searchable.
	got, err = FilterBy(items, MustSchema(
		Date("due", "Due", func(i item) string { return i.Due }).Search(),
	), core.Criteria{Search: "soon"}, testNow)
	require.NoError(t, err)
	assert.Equal(t, []string{"INV-4"}, ids(got))
}

func TestFilter_SearchDateAsEntered(t *testing.T) {
	items := append(sampleItems(), item{ID: "INV-4", Cat: catC, Due: "15 Aug 2024"})
	dueSearch := MustSchema(
		Date("due", "Due", func(i item) string { return i.Due }).Search(),
	)

	got, err := FilterBy(items, dueSearch, core.Criteria{Search: "AUG"}, testNow)
	require.NoError(t, err)
	assert.Equal(t, []string{"INV-4"}, ids(got))

	got, err = FilterBy(items, dueSearch, core.Criteria{Search: "2024-08-15"}, testNow)
	require.NoError(t, err)
	assert.Equal(t, []string{"INV-4"}, ids(got))
}

func TestFilter_PeriodFromJSON(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{
			name: "all disables the period",
			body: `{"period":"all","period_field":"due"}`,
			want: []string{"INV-1", "INV-2", "INV-3"},
		},
		{
			name: "any disables the period",
			body: `{"period":"Any","period_field":"due"}`,
			want: []string{"INV-1", "INV-2", "INV-3"},
		},
		{
			name: "mixed case period",
			body: `{"period":"This_Month","period_field":"due"}`,
			want: []string{"INV-2"},
		},
		{
			name: "dashed period",
			body: `{"period":"this-month","period_field":"due"}`,
			want: []string{"INV-2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c core.Criteria
			require.NoError(t, json.Unmarshal([]byte(tt.body), &c))

			got, err := FilterBy(sampleItems(), itemSchema, c, testNow)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestFilter_Properties(t *testing.T) {
	items := sampleItems()
	before := sampleItems()
	pred, err := Compile(itemSchema, core.Criteria{Filters: map[string]string{"cat": "A"}}, testNow)
	require.NoError(t, err)

	got := Filter(items, pred)
	assert.LessOrEqual(t, len(got), len(items))
	for _, it := range got {
		assert.True(t, pred(it))
		assert.Contains(t, items, it)
	}
	assert.Equal(t, before, items, "input must not be mutated")

	all := Filter(items, nil)
	assert.Equal(t, items, all)
	all[0].ID = "changed"
	assert.Equal(t, "INV-1", items[0].ID, "nil predicate returns a copy")
}

func TestFilter_Scenario(t *testing.T) {
	items := []item{
		{ID: "1", Cat: catA, Amount: 100},
		{ID: "2", Cat: catB, Amount: 200},
		{ID: "3", Cat: catA, Amount: 50},
	}
	got, err := FilterBy(items, itemSchema, core.Criteria{Filters: map[string]string{"cat": "A"}}, testNow)
	require.NoError(t, err)
	assert.Equal(t, []item{items[0], items[2]}, got)
}
