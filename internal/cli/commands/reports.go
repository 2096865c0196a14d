package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapview/internal/erp"
	"github.com/leapstack-labs/leapview/pkg/core"
)

// NewAgingCommand creates the aging command.
func NewAgingCommand() *cobra.Command {
	var asOf string

	cmd := &cobra.Command{
		Use:   "aging [dataset]",
		Short: "Show the receivables aging report",
		Long: `Group outstanding receivables by how long they are overdue: current,
1-30, 31-60, 61-90 and more than 90 days, with a breakdown per customer.`,
		Example: `  # Aging of sales invoices today
  leapview aging

  # Aging at the end of the quarter
  leapview aging invoices --as-of 2025-03-31`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeDatasets,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			ds, err := cc.Dataset(datasetArg(args, "invoices"))
			if err != nil {
				return err
			}
			at := cc.Now()
			if asOf != "" {
				t, ok := core.ParseDate(asOf, cc.Cfg.Location())
				if !ok {
					return fmt.Errorf("invalid --as-of date %q", asOf)
				}
				at = t
			}
			report, err := ds.Aging(at)
			if err != nil {
				return fmt.Errorf("%s: %w", ds.Info().Name, err)
			}
			return cc.Renderer.Aging(report)
		},
	}
	cmd.Flags().StringVar(&asOf, "as-of", "", "Date the report is computed at (default: today)")
	return cmd
}

// NewSLACommand creates the sla command.
func NewSLACommand() *cobra.Command {
	var warnDays int

	cmd := &cobra.Command{
		Use:   "sla [dataset]",
		Short: "Check open records against their deadlines",
		Long: `Count open records that are on track, at risk of missing their deadline
or already past it, and list the at-risk and breached records.`,
		Example: `  # Open issues against their target resolution date
  leapview sla

  # Flag everything due within a week
  leapview sla issues --warn-days 7`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeDatasets,
		RunE: func(cmd *cobra.Command, args []string) error {
			if warnDays < 0 {
				return fmt.Errorf("--warn-days must not be negative, got %d", warnDays)
			}
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			ds, err := cc.Dataset(datasetArg(args, "issues"))
			if err != nil {
				return err
			}
			report, err := ds.SLA(cc.Now(), warnDays)
			if err != nil {
				return fmt.Errorf("%s: %w", ds.Info().Name, err)
			}
			return cc.Renderer.SLA(report)
		},
	}
	cmd.Flags().IntVar(&warnDays, "warn-days", erp.DefaultWarnDays, "Days before the deadline a record counts as at risk")
	return cmd
}

func datasetArg(args []string, fallback string) string {
	if len(args) > 0 {
		return args[0]
	}
	return fallback
}
