package view

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/leapview/pkg/core"
)

func TestSort(t *testing.T) {
	items := []item{
		{ID: "a", Owner: "cherry", Amount: 30, Score: ptr(1), Due: "2025-01-01"},
		{ID: "b", Owner: "Blueberry", Amount: 10, Due: "2025-03-01"},
		{ID: "c", Owner: "apple", Amount: 20, Score: ptr(3), Due: "Feb 1, 2025"},
		{ID: "d", Owner: "banana", Amount: 10, Score: ptr(2), Due: "not a date"},
	}

	tests := []struct {
		name string
		spec core.SortSpec
		want []string
	}{
		{"none keeps order", core.SortSpec{Field: "amount"}, []string{"a", "b", "c", "d"}},
		{"number asc is stable", core.SortSpec{Field: "amount", Direction: core.DirAsc}, []string{"b", "d", "c", "a"}},
		{"number desc is stable", core.SortSpec{Field: "amount", Direction: core.DirDesc}, []string{"a", "c", "b", "d"}},
		{"text uses collation", core.SortSpec{Field: "owner", Direction: core.DirAsc}, []string{"c", "d", "b", "a"}},
		{"dates parse display formats", core.SortSpec{Field: "due", Direction: core.DirAsc}, []string{"a", "c", "b", "d"}},
		{"unparseable dates last in desc", core.SortSpec{Field: "due", Direction: core.DirDesc}, []string{"b", "c", "a", "d"}},
		{"missing numbers last asc", core.SortSpec{Field: "score", Direction: core.DirAsc}, []string{"a", "d", "c", "b"}},
		{"missing numbers last desc", core.SortSpec{Field: "score", Direction: core.DirDesc}, []string{"c", "d", "a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Sort(items, itemSchema, tt.spec, language.English)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, ids(got)); diff != "" {
				t.Errorf("Sort() mismatch (-want +got):\n%s", diff)
			}
		})
	}
	assert.Equal(t, "a", items[0].ID, "input must not be mutated")
}

func TestSort_TextCollationTiesAreStable(t *testing.T) {
	items := []item{
		{ID: "1", Owner: "banana"},
		{ID: "2", Owner: "Banana"},
		{ID: "3", Owner: "apple"},
	}
	got, err := Sort(items, itemSchema, core.SortSpec{Field: "owner", Direction: core.DirAsc}, language.English)
	require.NoError(t, err)
	assert.Equal(t, "3", got[0].ID)
}

func TestSort_DatesScenario(t *testing.T) {
	items := []item{
		{ID: "jan", Due: "2025-01-01"},
		{ID: "mar", Due: "2025-03-01"},
		{ID: "feb", Due: "2025-02-01"},
	}
	got, err := Sort(items, itemSchema, core.SortSpec{Field: "due", Direction: core.DirDesc}, language.English)
	require.NoError(t, err)

	dues := make([]string, len(got))
	for i, it := range got {
		dues[i] = it.Due
	}
	assert.Equal(t, []string{"2025-03-01", "2025-02-01", "2025-01-01"}, dues)
}

func TestSort_Idempotent(t *testing.T) {
	for _, field := range []string{"id", "cat", "owner", "amount", "score", "due"} {
		for _, dir := range []core.Direction{core.DirAsc, core.DirDesc} {
			spec := core.SortSpec{Field: field, Direction: dir}
			once, err := Sort(sampleItems(), itemSchema, spec, language.English)
			require.NoError(t, err)
			twice, err := Sort(once, itemSchema, spec, language.English)
			require.NoError(t, err)
			assert.Equal(t, ids(once), ids(twice), spec.String())
		}
	}
}

func TestSort_Errors(t *testing.T) {
	_, err := Sort(sampleItems(), itemSchema, core.SortSpec{Field: "paid", Direction: core.DirAsc}, language.English)
	require.ErrorIs(t, err, ErrNotSortable)

	_, err = Sort(sampleItems(), itemSchema, core.SortSpec{Field: "missing", Direction: core.DirAsc}, language.English)
	require.ErrorIs(t, err, ErrUnknownField)
}

func TestNewComparator_Bool(t *testing.T) {
	c := NewComparator(core.KindBool, language.English)
	assert.Negative(t, c(core.Bool(false), core.Bool(true)))
	assert.Positive(t, c(core.Bool(true), core.Bool(false)))
	assert.Zero(t, c(core.Bool(true), core.Bool(true)))
}
