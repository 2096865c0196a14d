package commands

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapview/internal/cli/output"
	"github.com/leapstack-labs/leapview/pkg/core"
)

// NewViewCommand creates the view command and its subcommands.
func NewViewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Manage saved views",
		Long: `Save a dataset's criteria, sort and statistics under a name and run them
again later. Views are kept in the state database.`,
	}
	cmd.AddCommand(
		newViewSaveCommand(),
		newViewListCommand(),
		newViewShowCommand(),
		newViewRunCommand(),
		newViewDeleteCommand(),
	)
	return cmd
}

func newViewSaveCommand() *cobra.Command {
	opts := &QueryOptions{}
	var description string

	cmd := &cobra.Command{
		Use:   "save <name> <dataset>",
		Short: "Save the given criteria as a view",
		Example: `  # Engineering claims, largest first
  leapview view save eng-claims reimbursements -f department=Engineering --sort amount:desc`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			ds, q, err := buildQuery(cc, args[1], opts)
			if err != nil {
				return err
			}
			// A failing run rejects views over unknown or unsortable fields.
			if _, err := ds.Run(q, cc.Options); err != nil {
				return err
			}

			store, err := cc.OpenStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			v := &core.SavedView{Name: args[0], Dataset: ds.Info().Name, Description: description, Query: q}
			if err := store.SaveView(v); err != nil {
				return fmt.Errorf("failed to save view: %w", err)
			}
			cc.Logger.Debug("saved view", "view", v.Name, "dataset", v.Dataset)
			cc.Renderer.Success(fmt.Sprintf("Saved view %s on %s", v.Name, v.Dataset))
			return nil
		},
	}
	addQueryFlags(cmd, opts, true)
	cmd.Flags().StringVar(&description, "description", "", "Description of the view")
	return cmd
}

func newViewListCommand() *cobra.Command {
	var dataset string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved views",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, err := NewCommandContextWithoutCatalog(cmd)
			if err != nil {
				return err
			}
			store, err := cc.OpenStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			views, err := store.ListViews(dataset)
			if err != nil {
				return err
			}
			r := cc.Renderer
			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(views)
			}
			if len(views) == 0 {
				r.Muted("No saved views")
				return nil
			}
			rows := make([][]string, len(views))
			for i, v := range views {
				rows[i] = []string{v.Name, v.Dataset, v.Query.Sort.String(), v.Description, v.UpdatedAt.Format("2006-01-02 15:04")}
			}
			return r.Grid([]string{"Name", "Dataset", "Sort", "Description", "Updated"}, rows)
		},
	}
	cmd.Flags().StringVar(&dataset, "dataset", "", "Only views on this dataset")
	return cmd
}

func newViewShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Show a saved view",
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

			v, err := store.GetView(args[0])
			if err != nil {
				return fmt.Errorf("view %s: %w", args[0], err)
			}
			r := cc.Renderer
			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(v)
			}
			describeView(r, v)
			return nil
		},
	}
}

func describeView(r *output.Renderer, v *core.SavedView) {
	r.Header(1, v.Name)
	if v.Description != "" {
		r.Muted(v.Description)
		r.Println()
	}
	c := v.Query.Criteria
	r.KeyValue("Dataset", v.Dataset)
	if c.Search != "" {
		r.KeyValue("Search", c.Search)
	}
	for _, field := range slices.Sorted(maps.Keys(c.Filters)) {
		r.KeyValue("Filter", field+" = "+c.Filters[field])
	}
	if c.Range != nil {
		from, to := "", ""
		if c.Range.From != nil {
			from = c.Range.From.Format(core.DateLayout)
		}
		if c.Range.To != nil {
			to = c.Range.To.Format(core.DateLayout)
		}
		r.KeyValue("Range", fmt.Sprintf("%s %s..%s", c.Range.Field, from, to))
	}
	if c.Period != core.PeriodAny {
		r.KeyValue("Period", string(c.Period))
	}
	if !v.Query.Sort.IsZero() {
		r.KeyValue("Sort", v.Query.Sort.String())
	}
	if v.Query.Page.Size > 0 {
		r.KeyValue("Page size", strconv.Itoa(v.Query.Page.Size))
	}
	names := make([]string, len(v.Query.Stats))
	for i, s := range v.Query.Stats {
		names[i] = s.Name
	}
	r.KeyValue("Statistics", strings.Join(names, ", "))
	r.KeyValue("Updated", v.UpdatedAt.Format("2006-01-02 15:04:05"))
}

func newViewRunCommand() *cobra.Command {
	var page, size int

	cmd := &cobra.Command{
		Use:   "run <name>",
		Short: "Run a saved view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			store, err := cc.OpenStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			v, err := store.GetView(args[0])
			if err != nil {
				return fmt.Errorf("view %s: %w", args[0], err)
			}
			ds, err := cc.Dataset(v.Dataset)
			if err != nil {
				return err
			}
			q := v.Query
			if page > 0 {
				q.Page.Page = page
			}
			if size > 0 {
				q.Page.Size = size
			}
			t, err := ds.Run(q, cc.Options)
			if err != nil {
				return err
			}

			r := cc.Renderer
			if err := r.Records(t); err != nil {
				return err
			}
			if m := r.EffectiveMode(); m == output.ModeJSON || m == output.ModeCSV || len(t.Stats) == 0 {
				return nil
			}
			r.Println()
			return r.Stats(t.Stats)
		},
	}
	cmd.Flags().IntVar(&page, "page", 0, "Page number, starting at 1")
	cmd.Flags().IntVar(&size, "size", 0, "Page size")
	return cmd
}

func newViewDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <name>",
		Aliases: []string{"rm"},
		Short:   "Delete a saved view",
		Args:    cobra.ExactArgs(1),
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

			if err := store.DeleteView(args[0]); err != nil {
				return fmt.Errorf("view %s: %w", args[0], err)
			}
			cc.Renderer.Success("Deleted view " + args[0])
			return nil
		},
	}
}
