package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapview/internal/cli/output"
	"github.com/leapstack-labs/leapview/internal/erp"
	"github.com/leapstack-labs/leapview/pkg/core"
)

// QueryOptions holds the list criteria shared by query-like commands.
type QueryOptions struct {
	Search    string
	Filters   []string
	From      string
	To        string
	DateField string
	Period    string
	Sort      string
	Page      int
	Size      int
	Stats     []string
	Scope     string
}

// addQueryFlags registers the list criteria flags on cmd.
func addQueryFlags(cmd *cobra.Command, opts *QueryOptions, paging bool) {
	f := cmd.Flags()
	f.StringVarP(&opts.Search, "search", "s", "", "Case-insensitive search over the dataset's search fields")
	f.StringArrayVarP(&opts.Filters, "filter", "f", nil, "Exact filter as field=value; repeatable, \"all\" disables")
	f.StringVar(&opts.From, "from", "", "Start of the date range (inclusive)")
	f.StringVar(&opts.To, "to", "", "End of the date range (inclusive)")
	f.StringVar(&opts.DateField, "date-field", "", "Date field of --from/--to/--period (default: the dataset's date field)")
	f.StringVar(&opts.Period, "period", "", "Relative period: today, this_week, this_month, last_30_days, this_quarter, this_year, overdue")
	f.StringVar(&opts.Sort, "sort", "", "Sort as field[:asc|desc]")
	f.StringSliceVar(&opts.Stats, "stat", nil, "Statistics to compute by name (default: all)")
	f.StringVar(&opts.Scope, "scope", "", "Compute statistics over the filtered list or all records (filtered|all)")
	if paging {
		f.IntVar(&opts.Page, "page", 0, "Page number, starting at 1")
		f.IntVar(&opts.Size, "size", 0, "Page size (-1 for no paging)")
	}

	_ = cmd.RegisterFlagCompletionFunc("period", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		periods := make([]string, 0, len(core.Periods()))
		for _, p := range core.Periods() {
			periods = append(periods, string(p))
		}
		return periods, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("scope", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{string(core.ScopeFiltered), string(core.ScopeAll)}, cobra.ShellCompDirectiveNoFileComp
	})
}

// Params converts the options to a list request.
func (o *QueryOptions) Params() (erp.Params, error) {
	filters, err := erp.ParseFilters(o.Filters)
	if err != nil {
		return erp.Params{}, err
	}
	return erp.Params{
		Search:    o.Search,
		Filters:   filters,
		From:      o.From,
		To:        o.To,
		DateField: o.DateField,
		Period:    o.Period,
		Sort:      o.Sort,
		Page:      o.Page,
		Size:      o.Size,
		Stats:     o.Stats,
		Scope:     o.Scope,
	}, nil
}

// buildQuery resolves a dataset and builds its query from opts.
func buildQuery(cc *CommandContext, name string, opts *QueryOptions) (erp.Dataset, core.Query, error) {
	ds, err := cc.Dataset(name)
	if err != nil {
		return nil, core.Query{}, err
	}
	params, err := opts.Params()
	if err != nil {
		return nil, core.Query{}, err
	}
	q, err := params.Query(ds, cc.Cfg.Location())
	if err != nil {
		return nil, core.Query{}, err
	}
	return ds, q, nil
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	opts := &QueryOptions{}
	var noStats bool

	cmd := &cobra.Command{
		Use:   "query <dataset>",
		Short: "Filter, sort and page through a dataset",
		Long: `Filter, sort and page through the records of a dataset, followed by the
dataset's statistics computed over the result.

Output adapts to environment:
  - Terminal: Styled table and stat cards
  - Piped/Scripted: Markdown tables (agent-friendly)

Use --output to override: auto, text, markdown, json, csv`,
		Example: `  # Reimbursements mentioning "rao", largest first
  leapview query reimbursements -s rao --sort amount:desc

  # Medical claims submitted this month
  leapview query reimbursements -f claim_type=Medical --period this-month

  # Invoices due in March, as CSV
  leapview query invoices --date-field due_date --from 2025-03-01 --to 2025-03-31 -o csv`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeDatasets,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args[0], opts, noStats)
		},
	}
	addQueryFlags(cmd, opts, true)
	cmd.Flags().BoolVar(&noStats, "no-stats", false, "Skip statistics")
	return cmd
}

func runQuery(cmd *cobra.Command, name string, opts *QueryOptions, noStats bool) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	ds, q, err := buildQuery(cc, name, opts)
	if err != nil {
		return err
	}
	if noStats {
		q.Stats = nil
	}

	t, err := ds.Run(q, cc.Options)
	if err != nil {
		return err
	}
	cc.Logger.Debug("ran query", "dataset", name, "matched", t.Matched, "total", t.Total)

	r := cc.Renderer
	if err := r.Records(t); err != nil {
		return err
	}
	switch r.EffectiveMode() {
	case output.ModeJSON, output.ModeCSV:
		return nil
	}
	if len(t.Stats) > 0 {
		r.Println()
		return r.Stats(t.Stats)
	}
	return nil
}

// NewStatsCommand creates the stats command.
func NewStatsCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "stats <dataset>",
		Short: "Compute a dataset's statistics",
		Long: `Compute the statistics of a dataset over the records matching the given
criteria. Statistics with scope "all" ignore the criteria.`,
		Example: `  # All budget statistics
  leapview stats budget

  # Open issue counts in the Safety category
  leapview stats issues -f category=Safety --stat open,critical`,
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
			snap, err := erp.Snapshot(ds, q, cc.Options, "")
			if err != nil {
				return err
			}

			r := cc.Renderer
			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(snap)
			}
			r.Header(1, fmt.Sprintf("%s: %d of %d records", ds.Info().Title, snap.Matched, snap.Total))
			return r.Stats(snap.Stats)
		},
	}
	addQueryFlags(cmd, opts, false)
	return cmd
}

// completeDatasets completes dataset names from the configured data directory.
func completeDatasets(cmd *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return cc.Catalog.Names(), cobra.ShellCompDirectiveNoFileComp
}
