package view

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapview/pkg/core"
)

func TestNumericReducers(t *testing.T) {
	assert.Equal(t, 0.0, Sum(nil))
	assert.Equal(t, 0.0, Average(nil))
	assert.Equal(t, 0.0, Min(nil))
	assert.Equal(t, 0.0, Max(nil))

	vals := []float64{100, 200, 50}
	assert.Equal(t, 350.0, Sum(vals))
	assert.InDelta(t, 116.67, Average(vals), 0.01)
	assert.Equal(t, 50.0, Min(vals))
	assert.Equal(t, 200.0, Max(vals))
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, 0.0, Percentage(0, 0))
	assert.Equal(t, 0.0, Percentage(10, 0))
	assert.Equal(t, 50.0, Percentage(1, 2))
	assert.Equal(t, 42.9, Round(Percentage(150, 350), 1))
}

func TestDelta(t *testing.T) {
	tests := []struct {
		name              string
		current, baseline float64
		diff, pct         float64
	}{
		{"increase", 120, 100, 20, 20},
		{"decrease", 80, 100, -20, -20},
		{"zero baseline", 50, 0, 50, 0},
		{"negative baseline improves", -50, -100, 50, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diff, pct := Delta(tt.current, tt.baseline)
			assert.Equal(t, tt.diff, diff)
			assert.Equal(t, tt.pct, pct)
		})
	}
}

func TestRound(t *testing.T) {
	assert.Equal(t, 42.9, Round(42.857, 1))
	assert.Equal(t, 3.0, Round(2.5, 0))
	assert.Equal(t, 1.23456, Round(1.23456, -1))
	assert.Equal(t, 0.0, Round(math.NaN(), 2))
	assert.Equal(t, 0.0, Round(math.Inf(1), -1))
}

func TestCompute_Scenario(t *testing.T) {
	all := []item{
		{ID: "1", Cat: catA, Amount: 100},
		{ID: "2", Cat: catB, Amount: 200},
		{ID: "3", Cat: catA, Amount: 50},
	}
	filtered, err := FilterBy(all, itemSchema, core.Criteria{Filters: map[string]string{"cat": "A"}}, testNow)
	require.NoError(t, err)

	stats, err := Compute(filtered, all, itemSchema, []core.StatSpec{
		{Name: "count", Kind: core.StatCount},
		{Name: "sum", Kind: core.StatSum, Field: "amount"},
		{Name: "avg", Kind: core.StatAverage, Field: "amount"},
		{Name: "share", Kind: core.StatPercentage, Field: "amount", Of: core.ScopeAll},
	}, testNow)
	require.NoError(t, err)
	require.Len(t, stats, 4)

	assert.Equal(t, 2.0, stats[0].Value)
	assert.Equal(t, 150.0, stats[1].Value)
	assert.Equal(t, 75.0, stats[2].Value)
	assert.Equal(t, 42.9, stats[3].Value)
	assert.Equal(t, core.FormatPercent, stats[3].Format)
}

func TestCompute_MissingValues(t *testing.T) {
	items := sampleItems()
	stats, err := Compute(items, items, itemSchema, []core.StatSpec{
		{Name: "sum", Kind: core.StatSum, Field: "score"},
		{Name: "avg", Kind: core.StatAverage, Field: "score"},
		{Name: "min", Kind: core.StatMin, Field: "score"},
		{Name: "max", Kind: core.StatMax, Field: "score"},
		{Name: "scored", Kind: core.StatCount, Present: []string{"score"}},
	}, testNow)
	require.NoError(t, err)

	assert.Equal(t, 6.0, stats[0].Value, "missing scores add 0")
	assert.Equal(t, 3.0, stats[1].Value, "average over present scores")
	assert.Equal(t, 2.0, stats[2].Value)
	assert.Equal(t, 4.0, stats[3].Value)
	assert.Equal(t, 2.0, stats[4].Value)
}

func TestCompute_Empty(t *testing.T) {
	stats, err := Compute(nil, nil, itemSchema, []core.StatSpec{
		{Name: "count", Kind: core.StatCount},
		{Name: "avg", Kind: core.StatAverage, Field: "amount"},
		{Name: "pct", Kind: core.StatPercentage},
		{Name: "delta", Kind: core.StatDelta, Field: "amount", Baseline: "budget"},
	}, testNow)
	require.NoError(t, err)
	for _, st := range stats {
		assert.Zero(t, st.Value, st.Name)
		assert.False(t, math.IsNaN(st.DeltaPercent))
	}
}

func TestCompute_PercentageOfCount(t *testing.T) {
	items := sampleItems()
	stats, err := Compute(items, items, itemSchema, []core.StatSpec{
		{Name: "paid", Kind: core.StatPercentage, Where: map[string][]string{"paid": {"true"}}},
		{Name: "utilization", Kind: core.StatPercentage, Field: "amount", Baseline: "budget", Precision: intPtr(0)},
		{Name: "a_or_b", Kind: core.StatCount, Where: map[string][]string{"cat": {"a", "B"}}},
	}, testNow)
	require.NoError(t, err)

	assert.Equal(t, 33.3, stats[0].Value)
	assert.Equal(t, 109.0, stats[1].Value)
	assert.Equal(t, 3.0, stats[2].Value)
}

func TestCompute_PercentageBaselineNarrowed(t *testing.T) {
	items := sampleItems()
	catA := map[string][]string{"cat": {"A"}}
	stats, err := Compute(items, items, itemSchema, []core.StatSpec{
		// amount over budget of the category A records only: 150 / 170
		{Name: "a_utilization", Kind: core.StatPercentage, Field: "amount", Baseline: "budget", Where: catA},
		// category A amount against every record's amount: 150 / 350
		{Name: "a_share", Kind: core.StatPercentage, Field: "amount", Where: catA},
	}, testNow)
	require.NoError(t, err)

	assert.Equal(t, 88.2, stats[0].Value)
	assert.Equal(t, 42.9, stats[1].Value)
}

func intPtr(i int) *int { return &i }

func TestCompute_Scope(t *testing.T) {
	all := sampleItems()
	filtered := all[:1]
	stats, err := Compute(filtered, all, itemSchema, []core.StatSpec{
		{Name: "filtered", Kind: core.StatSum, Field: "amount"},
		{Name: "all", Kind: core.StatSum, Field: "amount", Scope: core.ScopeAll},
	}, testNow)
	require.NoError(t, err)
	assert.Equal(t, 100.0, stats[0].Value)
	assert.Equal(t, 350.0, stats[1].Value)
}

func TestCompute_Delta(t *testing.T) {
	items := sampleItems()
	stats, err := Compute(items, items, itemSchema, []core.StatSpec{
		{Name: "variance", Kind: core.StatDelta, Field: "amount", Baseline: "budget"},
	}, testNow)
	require.NoError(t, err)

	st := stats[0]
	assert.Equal(t, 320.0, st.Baseline)
	assert.Equal(t, 30.0, st.Delta)
	assert.Equal(t, 30.0, st.Value)
	assert.Equal(t, 9.4, st.DeltaPercent)
}

func TestCompute_Groups(t *testing.T) {
	items := append(sampleItems(), item{ID: "INV-4", Amount: 5})
	stats, err := Compute(items, items, itemSchema, []core.StatSpec{
		{Name: "by_cat", Kind: core.StatGroupCount, By: "cat"},
		{Name: "amount_by_cat", Kind: core.StatGroupSum, By: "cat", Field: "amount"},
		{Name: "by_owner", Kind: core.StatGroupCount, By: "owner"},
	}, testNow)
	require.NoError(t, err)

	assert.Equal(t, []core.Group{
		{Key: "A", Count: 2},
		{Key: "B", Count: 1},
		{Key: "(none)", Count: 1},
	}, stats[0].Groups)
	assert.Equal(t, 4.0, stats[0].Value)

	assert.Equal(t, []core.Group{
		{Key: "A", Count: 2, Sum: 150},
		{Key: "B", Count: 1, Sum: 200},
		{Key: "(none)", Count: 1, Sum: 5},
	}, stats[1].Groups)
	assert.Equal(t, 355.0, stats[1].Value)

	keys := make([]string, len(stats[2].Groups))
	for i, g := range stats[2].Groups {
		keys[i] = g.Key
	}
	assert.Equal(t, []string{"", "Amit Patel", "Priya Sharma", "Rajesh Kumar"}, keys)
}

func TestCompute_Overdue(t *testing.T) {
	items := append(sampleItems(), item{ID: "INV-4", Due: "2025-04-01"}, item{ID: "INV-5", Due: "??"})
	stats, err := Compute(items, items, itemSchema, []core.StatSpec{
		{Name: "overdue", Kind: core.StatOverdue, Field: "due", Where: map[string][]string{"paid": {"false"}}},
	}, testNow)
	require.NoError(t, err)
	assert.Equal(t, 2.0, stats[0].Value)
}

func TestCompute_Errors(t *testing.T) {
	items := sampleItems()
	tests := []struct {
		name    string
		spec    core.StatSpec
		wantErr error
	}{
		{"unknown field", core.StatSpec{Name: "x", Kind: core.StatSum, Field: "nope"}, ErrUnknownField},
		{"text field", core.StatSpec{Name: "x", Kind: core.StatSum, Field: "owner"}, ErrNotNumeric},
		{"overdue on number", core.StatSpec{Name: "x", Kind: core.StatOverdue, Field: "amount"}, ErrNotDate},
		{"unknown where field", core.StatSpec{Name: "x", Kind: core.StatCount, Where: map[string][]string{"nope": {"1"}}}, ErrUnknownField},
		{"missing field", core.StatSpec{Name: "x", Kind: core.StatSum}, nil},
		{"unknown kind", core.StatSpec{Name: "x", Kind: "median"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compute(items, items, itemSchema, []core.StatSpec{tt.spec}, testNow)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestCompute_SumOfFilteredNotAboveTotal(t *testing.T) {
	all := sampleItems()
	for _, c := range []string{"A", "B", "C", "all"} {
		filtered, err := FilterBy(all, itemSchema, core.Criteria{Filters: map[string]string{"cat": c}}, testNow)
		require.NoError(t, err)
		stats, err := Compute(filtered, all, itemSchema, []core.StatSpec{
			{Name: "part", Kind: core.StatSum, Field: "amount"},
			{Name: "total", Kind: core.StatSum, Field: "amount", Scope: core.ScopeAll},
		}, testNow)
		require.NoError(t, err)
		assert.LessOrEqual(t, stats[0].Value, stats[1].Value, c)
	}
}

func TestCompute_Period(t *testing.T) {
	items := sampleItems()
	stats, err := Compute(items, items, itemSchema, []core.StatSpec{
		{Name: "due_this_month", Kind: core.StatSum, Field: "amount", Period: core.PeriodThisMonth, PeriodField: "due"},
		{Name: "due_this_year", Kind: core.StatCount, Period: "this-year", PeriodField: "due"},
	}, testNow)
	require.NoError(t, err)
	assert.Equal(t, 200.0, stats[0].Value)
	assert.Equal(t, 3.0, stats[1].Value)
}
