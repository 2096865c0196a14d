package erp

import (
	"github.com/leapstack-labs/leapview/pkg/core"
	"github.com/leapstack-labs/leapview/pkg/view"
)

// Snapshot computes the statistics of q over ds for recording. viewName
// is empty for ad hoc queries.
func Snapshot(ds Dataset, q core.Query, opts view.Options, viewName string) (*core.Snapshot, error) {
	if len(q.Stats) == 0 {
		q.Stats = ds.DefaultQuery().Stats
	}
	q.Page = core.PageRequest{Page: 1, Size: 1}
	t, err := ds.Run(q, opts)
	if err != nil {
		return nil, err
	}
	return &core.Snapshot{
		Dataset:  ds.Info().Name,
		ViewName: viewName,
		Total:    t.Total,
		Matched:  t.Matched,
		Stats:    t.Stats,
	}, nil
}
