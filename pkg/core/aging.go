package core

import (
	"math"
	"time"
)

// AgingBucket is one overdue band of a receivables aging report.
// MaxDays is -1 for the open-ended last bucket.
type AgingBucket struct {
	Label   string  `json:"label"`
	MinDays int     `json:"min_days"`
	MaxDays int     `json:"max_days"`
	Count   int     `json:"count"`
	Amount  float64 `json:"amount"`
}

// Contains reports whether a record overdue by days belongs to the bucket.
func (b AgingBucket) Contains(days int) bool {
	return days >= b.MinDays && (b.MaxDays < 0 || days <= b.MaxDays)
}

// AgingReport groups outstanding amounts by how long they are overdue.
type AgingReport struct {
	AsOf    time.Time     `json:"as_of"`
	Buckets []AgingBucket `json:"buckets"`

	Count         int     `json:"count"`
	Amount        float64 `json:"amount"`
	OverdueCount  int     `json:"overdue_count"`
	OverdueAmount float64 `json:"overdue_amount"`
	// Undated counts records without a parseable due date. They are not
	// part of any bucket.
	Undated int `json:"undated,omitempty"`

	Groups []AgingGroup `json:"groups,omitempty"`
}

// AgingBuckets returns the empty standard buckets: current, then 1-30,
// 31-60, 61-90 and more than 90 days overdue.
func AgingBuckets() []AgingBucket {
	return []AgingBucket{
		{Label: "Current", MinDays: math.MinInt, MaxDays: 0},
		{Label: "1-30 days", MinDays: 1, MaxDays: 30},
		{Label: "31-60 days", MinDays: 31, MaxDays: 60},
		{Label: "61-90 days", MinDays: 61, MaxDays: 90},
		{Label: "90+ days", MinDays: 91, MaxDays: -1},
	}
}

// AgingGroup is the aging breakdown of one group, such as a customer.
// Amounts holds one entry per report bucket, in bucket order.
type AgingGroup struct {
	Key     string    `json:"key"`
	Amounts []float64 `json:"amounts"`
	Total   float64   `json:"total"`
}

// =============================================================================
// SLA
// =============================================================================

// SLAItem is one record checked against its deadline.
type SLAItem struct {
	Key       string    `json:"key"`
	Deadline  time.Time `json:"deadline"`
	Remaining int       `json:"remaining_days"`
	State     string    `json:"state"`
}

// SLAReport counts records by their state against a deadline. Items lists
// the breached and at-risk records, most urgent first.
type SLAReport struct {
	AsOf     time.Time `json:"as_of"`
	WarnDays int       `json:"warn_days"`
	OnTrack  int       `json:"on_track"`
	AtRisk   int       `json:"at_risk"`
	Breached int       `json:"breached"`
	Undated  int       `json:"undated,omitempty"`
	Items    []SLAItem `json:"items,omitempty"`
}
