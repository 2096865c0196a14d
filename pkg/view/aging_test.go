package view

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapview/pkg/core"
)

func TestAging(t *testing.T) {
	asOf := time.Date(2025, 6, 30, 17, 0, 0, 0, time.UTC)
	items := []item{
		{ID: "due-later", Amount: 10, Due: "2025-07-15"},
		{ID: "due-today", Amount: 20, Due: "2025-06-30"},
		{ID: "1-day", Amount: 30, Due: "2025-06-29"},
		{ID: "30-days", Amount: 40, Due: "2025-05-31"},
		{ID: "31-days", Amount: 50, Due: "2025-05-30"},
		{ID: "75-days", Amount: 60, Due: "2025-04-16"},
		{ID: "120-days", Amount: 70, Due: "2025-03-02"},
		{ID: "undated", Amount: 80, Due: "TBD"},
	}

	r, err := Aging(items, itemSchema, AgingSpec{DueField: "due", AmountField: "amount"}, asOf)
	require.NoError(t, err)

	type bucket struct {
		Label  string
		Count  int
		Amount float64
	}
	var got []bucket
	for _, b := range r.Buckets {
		got = append(got, bucket{b.Label, b.Count, b.Amount})
	}
	assert.Equal(t, []bucket{
		{"Current", 2, 30},
		{"1-30 days", 2, 70},
		{"31-60 days", 1, 50},
		{"61-90 days", 1, 60},
		{"90+ days", 1, 70},
	}, got)

	assert.Equal(t, 7, r.Count)
	assert.Equal(t, 280.0, r.Amount)
	assert.Equal(t, 5, r.OverdueCount)
	assert.Equal(t, 250.0, r.OverdueAmount)
	assert.Equal(t, 1, r.Undated)
	assert.Empty(t, r.Groups)
}

func TestAging_Groups(t *testing.T) {
	asOf := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	items := []item{
		{ID: "1", Owner: "Acme", Amount: 100, Due: "2025-07-01"},
		{ID: "2", Owner: "Globex", Amount: 500, Due: "2025-06-01"},
		{ID: "3", Owner: "Acme", Amount: 50, Due: "2025-03-01"},
	}
	r, err := Aging(items, itemSchema, AgingSpec{DueField: "due", AmountField: "amount", GroupField: "owner"}, asOf)
	require.NoError(t, err)

	assert.Equal(t, []core.AgingGroup{
		{Key: "Globex", Amounts: []float64{0, 500, 0, 0, 0}, Total: 500},
		{Key: "Acme", Amounts: []float64{100, 0, 0, 0, 50}, Total: 150},
	}, r.Groups)
}

func TestAging_FieldErrors(t *testing.T) {
	_, err := Aging(sampleItems(), itemSchema, AgingSpec{DueField: "amount", AmountField: "amount"}, testNow)
	require.ErrorIs(t, err, ErrNotDate)

	_, err = Aging(sampleItems(), itemSchema, AgingSpec{DueField: "due", AmountField: "owner"}, testNow)
	require.ErrorIs(t, err, ErrNotNumeric)

	_, err = Aging(sampleItems(), itemSchema, AgingSpec{DueField: "due", AmountField: "amount", GroupField: "nope"}, testNow)
	require.ErrorIs(t, err, ErrUnknownField)
}

func TestRemaining(t *testing.T) {
	now := time.Date(2025, 3, 15, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, 0, Remaining(*day("2025-03-15"), now))
	assert.Equal(t, 1, Remaining(*day("2025-03-16"), now))
	assert.Equal(t, -14, Remaining(*day("2025-03-01"), now))
}

func TestRemaining_AcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata not available")
	}
	now := time.Date(2025, 3, 8, 12, 0, 0, 0, loc)
	assert.Equal(t, 2, Remaining(*day("2025-03-10"), now))
}

func TestSLAState(t *testing.T) {
	tests := []struct {
		name     string
		deadline core.Value
		want     SLA
	}{
		{"missing", core.DateString("", nil), SLANone},
		{"breached", core.DateString("2025-03-14", nil), SLABreached},
		{"due today is at risk", core.DateString("2025-03-15", nil), SLAAtRisk},
		{"within window", core.DateString("2025-03-18", nil), SLAAtRisk},
		{"on track", core.DateString("2025-04-01", nil), SLAOnTrack},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SLAState(tt.deadline, testNow, 3))
		})
	}
}

func TestSLAReport(t *testing.T) {
	items := []item{
		{ID: "ok", Due: "2025-04-30"},
		{ID: "late", Due: "2025-03-10"},
		{ID: "soon", Due: "2025-03-16"},
		{ID: "later", Due: "2025-03-01"},
		{ID: "none", Due: ""},
	}
	r, err := SLAReport(items, itemSchema, "id", "due", testNow, 3)
	require.NoError(t, err)

	assert.Equal(t, 1, r.OnTrack)
	assert.Equal(t, 1, r.AtRisk)
	assert.Equal(t, 2, r.Breached)
	assert.Equal(t, 1, r.Undated)

	var keys []string
	for _, it := range r.Items {
		keys = append(keys, it.Key+"="+it.State)
	}
	assert.Equal(t, []string{"later=breached", "late=breached", "soon=at_risk"}, keys)
	assert.Equal(t, -14, r.Items[0].Remaining)
}
