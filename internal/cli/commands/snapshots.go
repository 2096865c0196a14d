package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapview/internal/cli/output"
	"github.com/leapstack-labs/leapview/internal/erp"
	"github.com/leapstack-labs/leapview/internal/state"
	"github.com/leapstack-labs/leapview/pkg/core"
)

// NewSnapshotCommand creates the snapshot command and its subcommands.
func NewSnapshotCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Record and compare dataset statistics over time",
		Long: `Record the statistics of a dataset or saved view in the state database,
and compare two recordings to see what changed.`,
	}
	cmd.AddCommand(
		newSnapshotTakeCommand(),
		newSnapshotListCommand(),
		newSnapshotDiffCommand(),
	)
	return cmd
}

func newSnapshotTakeCommand() *cobra.Command {
	opts := &QueryOptions{}
	var viewName string

	cmd := &cobra.Command{
		Use:   "take <dataset>",
		Short: "Record the current statistics of a dataset",
		Example: `  # Snapshot every budget statistic
  leapview snapshot take budget

  # Snapshot a saved view
  leapview snapshot take reimbursements --view eng-claims`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeDatasets,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			ds, q, err := buildQuery(cc, args[0], opts)
			if err != nil {
				return err
			}

			store, err := cc.OpenStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if viewName != "" {
				v, err := store.GetView(viewName)
				if err != nil {
					return fmt.Errorf("view %s: %w", viewName, err)
				}
				if v.Dataset != ds.Info().Name {
					return fmt.Errorf("view %s is defined on %s, not %s", viewName, v.Dataset, ds.Info().Name)
				}
				q = v.Query
			}

			snap, err := erp.Snapshot(ds, q, cc.Options, viewName)
			if err != nil {
				return err
			}
			if err := store.RecordSnapshot(snap); err != nil {
				return fmt.Errorf("failed to record snapshot: %w", err)
			}

			r := cc.Renderer
			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(snap)
			}
			r.Success(fmt.Sprintf("Recorded snapshot %s of %s (%d of %d records)", snap.ID, snap.Dataset, snap.Matched, snap.Total))
			return r.Stats(snap.Stats)
		},
	}
	addQueryFlags(cmd, opts, false)
	cmd.Flags().StringVar(&viewName, "view", "", "Snapshot a saved view instead of the given criteria")
	return cmd
}

func newSnapshotListCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list <dataset>",
		Short: "List the snapshots of a dataset, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := NewCommandContextWithoutCatalog(cmd)
			if err != nil {
				return err
			}
			store, err := cc.OpenStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			snaps, err := store.ListSnapshots(args[0], limit)
			if err != nil {
				return err
			}
			r := cc.Renderer
			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(snaps)
			}
			if len(snaps) == 0 {
				r.Muted("No snapshots of " + args[0])
				return nil
			}
			rows := make([][]string, len(snaps))
			for i, s := range snaps {
				rows[i] = []string{
					s.ID, s.TakenAt.In(cc.Cfg.Location()).Format("2006-01-02 15:04:05"), s.ViewName,
					strconv.Itoa(s.Matched), strconv.Itoa(s.Total), strconv.Itoa(len(s.Stats)),
				}
			}
			return r.Grid([]string{"ID", "Taken", "View", "Matched", "Total", "Stats"}, rows)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of snapshots to list")
	return cmd
}

func newSnapshotDiffCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff <dataset> [from-id to-id]",
		Short: "Compare two snapshots",
		Long: `Compare two snapshots statistic by statistic. Without ids the two latest
snapshots of the dataset are compared.`,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) != 1 && len(args) != 3 {
				return fmt.Errorf("accepts a dataset and optionally two snapshot ids, received %d args", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := NewCommandContextWithoutCatalog(cmd)
			if err != nil {
				return err
			}
			store, err := cc.OpenStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			before, after, err := snapshotPair(store, args)
			if err != nil {
				return err
			}
			changes := state.DiffSnapshots(before, after)

			r := cc.Renderer
			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(map[string]any{"before": before.ID, "after": after.ID, "changes": changes})
			}
			loc := cc.Cfg.Location()
			r.Header(1, fmt.Sprintf("%s: %s to %s", after.Dataset,
				before.TakenAt.In(loc).Format("2006-01-02 15:04"), after.TakenAt.In(loc).Format("2006-01-02 15:04")))
			return r.Changes(changes)
		},
	}
	return cmd
}

func snapshotPair(store core.Store, args []string) (*core.Snapshot, *core.Snapshot, error) {
	if len(args) == 3 {
		before, err := store.GetSnapshot(args[1])
		if err != nil {
			return nil, nil, fmt.Errorf("snapshot %s: %w", args[1], err)
		}
		after, err := store.GetSnapshot(args[2])
		if err != nil {
			return nil, nil, fmt.Errorf("snapshot %s: %w", args[2], err)
		}
		return before, after, nil
	}
	latest, err := store.LatestSnapshots(args[0], 2)
	if err != nil {
		return nil, nil, err
	}
	if len(latest) < 2 {
		return nil, nil, fmt.Errorf("%w: dataset %s needs two snapshots to compare", state.ErrNotFound, args[0])
	}
	return latest[0], latest[1], nil
}
