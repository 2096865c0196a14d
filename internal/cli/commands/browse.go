package commands

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapview/internal/tui"
)

// NewBrowseCommand creates the browse command.
func NewBrowseCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "browse <dataset>",
		Short: "Browse a dataset interactively",
		Long: `Open a full-screen table of a dataset. Typing a search narrows the
records as you type, and any column can be sorted in either direction.
The statistics below the table follow every change.

Keys:
  /               search (esc or enter to leave the search box)
  tab, shift+tab  move between columns
  s               cycle the sort of the current column
  x               reset search and sort
  q               quit`,
		Example: `  # Browse invoices
  leapview browse invoices

  # Browse unpaid invoices only
  leapview browse invoices -f status=POSTED`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeDatasets,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			if !cc.Renderer.IsTTY() {
				return errors.New("browse needs an interactive terminal; use query instead")
			}
			ds, q, err := buildQuery(cc, args[0], opts)
			if err != nil {
				return err
			}

			m := tui.New(ds, q, cc.Options, cc.Renderer.Formatter())
			p := tea.NewProgram(m,
				tea.WithAltScreen(),
				tea.WithContext(cmd.Context()),
				tea.WithInput(cmd.InOrStdin()),
				tea.WithOutput(cmd.OutOrStdout()),
			)
			if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
				return fmt.Errorf("browser failed: %w", err)
			}
			return nil
		},
	}
	addQueryFlags(cmd, opts, false)
	return cmd
}
