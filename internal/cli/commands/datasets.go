package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapview/internal/cli/output"
	"github.com/leapstack-labs/leapview/internal/erp"
	"github.com/leapstack-labs/leapview/pkg/core"
)

// datasetDetail is the JSON form of `datasets <name>`.
type datasetDetail struct {
	erp.Info
	Columns []core.Column   `json:"columns"`
	Stats   []core.StatSpec `json:"stats"`
}

// NewDatasetsCommand creates the datasets command.
func NewDatasetsCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "datasets [name]",
		Aliases: []string{"ls"},
		Short:   "List the loaded datasets or describe one",
		Long: `List every dataset found in the data directory, or show the columns and
statistics of one dataset.

A dataset is loaded from <name>.csv, <name>.json, <name>.yaml or <name>.xlsx.`,
		Example: `  # List datasets
  leapview datasets

  # Columns and statistics of the invoices dataset
  leapview datasets invoices -o json`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeDatasets,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			if len(args) == 0 {
				return listDatasets(cc)
			}
			ds, err := cc.Dataset(args[0])
			if err != nil {
				return err
			}
			return describeDataset(cc.Renderer, ds)
		},
	}
}

func listDatasets(cc *CommandContext) error {
	r := cc.Renderer
	all := cc.Catalog.All()

	if r.EffectiveMode() == output.ModeJSON {
		infos := make([]erp.Info, len(all))
		for i, ds := range all {
			infos[i] = ds.Info()
		}
		return r.JSON(infos)
	}

	if len(all) == 0 {
		r.Warning("no datasets found in " + cc.Cfg.DataDir)
		return nil
	}
	if r.EffectiveMode() != output.ModeCSV {
		r.Header(1, fmt.Sprintf("Datasets (%d total)", len(all)))
	}
	rows := make([][]string, len(all))
	for i, ds := range all {
		info := ds.Info()
		rows[i] = []string{info.Name, info.Title, strconv.Itoa(info.Records), string(info.Format), reports(info)}
	}
	return r.Grid([]string{"Name", "Title", "Records", "Format", "Reports"}, rows)
}

func reports(info erp.Info) string {
	var out []string
	if info.Aging {
		out = append(out, "aging")
	}
	if info.SLA {
		out = append(out, "sla")
	}
	return strings.Join(out, ", ")
}

func describeDataset(r *output.Renderer, ds erp.Dataset) error {
	info := ds.Info()
	stats := ds.DefaultQuery().Stats

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(datasetDetail{Info: info, Columns: ds.Columns(), Stats: stats})
	}

	r.Header(1, info.Title)
	if info.Description != "" {
		r.Muted(info.Description)
		r.Println()
	}
	r.KeyValue("Source", info.Source)
	r.KeyValue("Records", strconv.Itoa(info.Records))
	r.KeyValue("Loaded", info.LoadedAt.Format("2006-01-02 15:04:05"))
	if info.DateField != "" {
		r.KeyValue("Date field", info.DateField)
	}
	if info.DefaultSort != "" {
		r.KeyValue("Default sort", info.DefaultSort)
	}
	r.KeyValue("Search fields", strings.Join(info.SearchFields, ", "))
	r.Println()

	r.Header(2, "Columns")
	rows := make([][]string, 0, len(ds.Columns()))
	for _, c := range ds.Columns() {
		rows = append(rows, []string{
			c.Name, c.Label, c.Kind.String(),
			capabilities(c), strings.Join(c.Values, ", "),
		})
	}
	if err := r.Grid([]string{"Name", "Label", "Kind", "Capabilities", "Values"}, rows); err != nil {
		return err
	}

	r.Println()
	r.Header(2, "Statistics")
	rows = make([][]string, 0, len(stats))
	for _, s := range stats {
		scope := s.Scope
		if scope == "" {
			scope = core.ScopeFiltered
		}
		rows = append(rows, []string{s.Name, s.DisplayLabel(), string(s.Kind), s.Field, string(scope)})
	}
	return r.Grid([]string{"Name", "Label", "Kind", "Field", "Scope"}, rows)
}

func capabilities(c core.Column) string {
	var out []string
	if c.Searchable {
		out = append(out, "search")
	}
	if c.Filterable {
		out = append(out, "filter")
	}
	if c.Sortable {
		out = append(out, "sort")
	}
	return strings.Join(out, ", ")
}
