package state

import (
	"github.com/leapstack-labs/leapview/pkg/core"
	"github.com/leapstack-labs/leapview/pkg/view"
)

// DiffSnapshots compares the statistics of two snapshots. Changes follow
// the statistic order of after; statistics only present in before are
// appended as removed.
func DiffSnapshots(before, after *core.Snapshot) []core.StatChange {
	var out []core.StatChange
	seen := make(map[string]bool, len(after.Stats))
	for _, st := range after.Stats {
		seen[st.Name] = true
		c := core.StatChange{Name: st.Name, Label: st.Label, Format: st.Format, After: st.Value}
		prev, ok := before.Stat(st.Name)
		if !ok {
			c.Change = core.ChangeAdded
			out = append(out, c)
			continue
		}
		c.Before = prev.Value
		c.Delta, c.DeltaPercent = view.Delta(st.Value, prev.Value)
		c.DeltaPercent = view.Round(c.DeltaPercent, 1)
		c.Change = core.ChangeChanged
		if c.Delta == 0 {
			c.Change = core.ChangeUnchanged
		}
		out = append(out, c)
	}
	for _, st := range before.Stats {
		if seen[st.Name] {
			continue
		}
		out = append(out, core.StatChange{
			Name:   st.Name,
			Label:  st.Label,
			Format: st.Format,
			Before: st.Value,
			Change: core.ChangeRemoved,
		})
	}
	return out
}
