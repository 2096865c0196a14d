package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapview/internal/export"
	"github.com/leapstack-labs/leapview/pkg/core"
)

// NewExportCommand creates the export command.
func NewExportCommand() *cobra.Command {
	opts := &QueryOptions{}
	var (
		format  string
		outPath string
	)

	cmd := &cobra.Command{
		Use:   "export <dataset>",
		Short: "Export the matching records to CSV or Excel",
		Long: `Export every record matching the criteria, ignoring paging. Excel
workbooks get a second sheet with the statistics.

Without --out the file is written to the current directory as
<dataset>_<date>.<format>; use --out - for standard output.`,
		Example: `  # All overdue invoices as an Excel workbook
  leapview export invoices --period overdue --format xlsx

  # Engineering reimbursements to stdout
  leapview export reimbursements -f department=Engineering --out -`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeDatasets,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			ds, q, err := buildQuery(cc, args[0], opts)
			if err != nil {
				return err
			}
			q.Page = core.PageRequest{}
			if f == export.FormatCSV {
				q.Stats = nil
			}
			t, err := ds.Run(q, cc.Options)
			if err != nil {
				return err
			}

			if outPath == "-" {
				return export.Write(cmd.OutOrStdout(), f, t)
			}
			if outPath == "" {
				outPath = export.FileName(ds.Info().Name, f, cc.Now())
			}
			if err := writeFile(outPath, func(w io.Writer) error { return export.Write(w, f, t) }); err != nil {
				return err
			}
			cc.Renderer.Success(fmt.Sprintf("Exported %d records to %s", len(t.Rows), outPath))
			return nil
		},
	}
	addQueryFlags(cmd, opts, false)
	cmd.Flags().StringVar(&format, "format", string(export.FormatCSV), "Export format (csv|xlsx)")
	cmd.Flags().StringVar(&outPath, "out", "", "Output file, or - for standard output")
	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{string(export.FormatCSV), string(export.FormatXLSX)}, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

// writeFile writes to a temporary file next to path and renames it into place.
func writeFile(path string, write func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := write(tmp); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
