// Package cli provides the command-line interface for leapview.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapview/internal/cli/commands"
	"github.com/leapstack-labs/leapview/internal/cli/config"
	"github.com/leapstack-labs/leapview/internal/cli/output"
)

var cfgFile string

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// configKey is used to store config in context.
type configKey struct{}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "leapview",
		Short: "leapview - ERP list filtering, sorting and statistics",
		Long: `leapview loads ERP lists (invoices, reimbursements, budgets, issues)
from CSV, JSON, YAML or Excel files and lets you search, filter, sort and
page through them, with the statistics of each list computed alongside.

It also produces aging and SLA reports, exports to CSV and Excel, keeps
saved views and statistic snapshots, and serves everything over HTTP.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.LoadConfig(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			logger := config.NewLogger(cmd.ErrOrStderr(), cfg.Verbose)
			ctx := context.WithValue(cmd.Context(), configKey{}, cfg)
			ctx = config.WithLogger(ctx, logger)
			cmd.SetContext(ctx)

			if cfg.Verbose {
				if configFile := config.GetConfigFileUsed(); configFile != "" {
					logger.Debug("using config file", "path", configFile)
				}
				logger.Debug("resolved paths", "data_dir", cfg.DataDir, "state_path", cfg.StatePath)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
Client-side ERP list filtering, sorting and aggregation
`)

	// Global persistent flags
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: ./leapview.yaml)")
	pf.String("data-dir", "", "Directory holding the dataset files")
	pf.String("state", "", "Path to the state database (:memory: for none)")
	pf.StringP("output", "o", "", "Output format (auto|text|markdown|json|csv)")
	pf.BoolP("verbose", "v", false, "Verbose output")
	pf.String("locale", "", "Locale for numbers, e.g. en-IN")
	pf.String("currency", "", "ISO 4217 currency code for amounts, e.g. INR")
	pf.String("timezone", "", "IANA time zone for dates and periods")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		modes := output.Modes()
		out := make([]string, len(modes))
		for i, m := range modes {
			out[i] = string(m)
		}
		return out, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.MarkPersistentFlagDirname("data-dir")

	rootCmd.AddCommand(
		commands.NewVersionCommand(commands.BuildInfo{Version: Version, GitCommit: GitCommit, BuildDate: BuildDate}),
		commands.NewDatasetsCommand(),
		commands.NewQueryCommand(),
		commands.NewStatsCommand(),
		commands.NewAgingCommand(),
		commands.NewSLACommand(),
		commands.NewExportCommand(),
		commands.NewViewCommand(),
		commands.NewSnapshotCommand(),
		commands.NewSQLCommand(),
		commands.NewServeCommand(),
		commands.NewBrowseCommand(),
		NewCompletionCommand(),
	)

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// GetConfig retrieves the config from the command context.
func GetConfig(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	// Return default config if none in context
	return &config.Config{
		DataDir:      config.DefaultDataDir,
		StatePath:    config.DefaultStateFile,
		OutputFormat: config.DefaultOutput,
		Locale:       config.DefaultLocale,
		Currency:     config.DefaultCurrency,
	}
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for leapview. Dataset names complete
from the configured data directory.

To load completions:

Bash:
  $ source <(leapview completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ leapview completion bash > /etc/bash_completion.d/leapview
  # macOS:
  $ leapview completion bash > $(brew --prefix)/etc/bash_completion.d/leapview

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. Execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ leapview completion zsh > "${fpath[1]}/_leapview"

Fish:
  $ leapview completion fish | source

  # To load completions for each session, execute once:
  $ leapview completion fish > ~/.config/fish/completions/leapview.fish

PowerShell:
  PS> leapview completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(w)
			case "zsh":
				return cmd.Root().GenZshCompletion(w)
			case "fish":
				return cmd.Root().GenFishCompletion(w, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(w)
			}
			return nil
		},
	}
	return cmd
}
