package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapview/internal/adapter"
	"github.com/leapstack-labs/leapview/internal/cli/output"
)

const (
	sqlPrompt     = "leapview> "
	sqlContPrompt = "     ...> "
)

// NewSQLCommand creates the sql command.
func NewSQLCommand() *cobra.Command {
	var (
		engine  string
		execute string
	)

	cmd := &cobra.Command{
		Use:   "sql [statement]",
		Short: "Run SQL over the loaded datasets",
		Long: `Load every dataset into an embedded SQL engine, one table per dataset,
and run ad-hoc SQL over them.

Without a statement an interactive shell starts. Statements end with a
semicolon; type .help inside the shell for its commands.`,
		Example: `  # Interactive shell
  leapview sql

  # Unpaid amount per customer
  leapview sql "SELECT customer, sum(amount) FROM invoices WHERE status <> 'Paid' GROUP BY 1"

  # Use SQLite instead of DuckDB
  leapview sql --engine sqlite -e "SELECT count(*) FROM issues"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				if execute != "" {
					return errors.New("pass the statement either as an argument or with --execute, not both")
				}
				execute = args[0]
			}

			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			db, err := adapter.New(engine, cc.Logger)
			if err != nil {
				return err
			}
			if err := db.Connect(ctx, ""); err != nil {
				return fmt.Errorf("failed to start %s: %w", engine, err)
			}
			defer func() { _ = db.Close() }()

			if err := adapter.LoadCatalog(ctx, db, cc.Catalog, cc.Logger); err != nil {
				return err
			}

			if execute != "" {
				return runStatement(ctx, cc.Renderer, db, strings.TrimSuffix(strings.TrimSpace(execute), ";"))
			}
			return runSQLShell(ctx, cc, db)
		},
	}

	cmd.Flags().StringVar(&engine, "engine", "duckdb", "SQL engine ("+strings.Join(adapter.Engines(), "|")+")")
	cmd.Flags().StringVarP(&execute, "execute", "e", "", "Run one statement and exit")
	_ = cmd.RegisterFlagCompletionFunc("engine", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return adapter.Engines(), cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

func runStatement(ctx context.Context, r *output.Renderer, db adapter.Adapter, stmt string) error {
	res, err := db.Query(ctx, stmt)
	if err != nil {
		return err
	}
	if len(res.Columns) == 0 {
		r.Success("OK")
		return nil
	}
	if err := r.Grid(res.Columns, res.StringRows()); err != nil {
		return err
	}
	if m := r.EffectiveMode(); m == output.ModeText || m == output.ModeMarkdown {
		r.Muted(rowCount(len(res.Rows)))
	}
	return nil
}

func rowCount(n int) string {
	if n == 1 {
		return "1 row"
	}
	return strconv.Itoa(n) + " rows"
}

func runSQLShell(ctx context.Context, cc *CommandContext, db adapter.Adapter) error {
	r := cc.Renderer
	tables, err := db.Tables(ctx)
	if err != nil {
		return err
	}

	cfg := &readline.Config{
		Prompt:          sqlPrompt,
		AutoComplete:    newTableCompleter(tables),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
		Stdout:          r.Writer(),
		Stderr:          r.ErrWriter(),
	}
	if cc.Cfg.StatePath != "" && cc.Cfg.StatePath != ":memory:" {
		cfg.HistoryFile = filepath.Join(filepath.Dir(cc.Cfg.StatePath), "sql_history")
	}
	rl, err := readline.NewEx(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize SQL shell: %w", err)
	}
	defer func() { _ = rl.Close() }()

	r.Printf("leapview SQL shell (%s, %d tables)\n", db.Engine(), len(tables))
	r.Println("Type .help for commands, .quit to exit")
	r.Println()

	var buf strings.Builder
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			buf.Reset()
			rl.SetPrompt(sqlPrompt)
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if buf.Len() == 0 && strings.HasPrefix(line, ".") {
			if quit := handleDotCommand(ctx, r, db, line); quit {
				return nil
			}
			continue
		}

		buf.WriteString(line)
		if !strings.HasSuffix(line, ";") {
			buf.WriteString(" ")
			rl.SetPrompt(sqlContPrompt)
			continue
		}
		rl.SetPrompt(sqlPrompt)

		stmt := strings.TrimSuffix(buf.String(), ";")
		buf.Reset()
		if err := runStatement(ctx, r, db, stmt); err != nil {
			r.Warning(err.Error())
		}
		r.Println()
	}
}

// handleDotCommand runs a shell command and reports whether the shell
// should exit.
func handleDotCommand(ctx context.Context, r *output.Renderer, db adapter.Adapter, line string) bool {
	parts := strings.Fields(line)
	switch strings.ToLower(parts[0]) {
	case ".quit", ".exit":
		return true

	case ".help":
		printShellHelp(r.Writer())

	case ".tables":
		tables, err := db.Tables(ctx)
		if err != nil {
			r.Warning(err.Error())
			return false
		}
		rows := make([][]string, len(tables))
		for i, t := range tables {
			rows[i] = []string{t}
		}
		_ = r.Grid([]string{"Table"}, rows)

	case ".schema":
		if len(parts) < 2 {
			r.Warning("usage: .schema <table>")
			return false
		}
		meta, err := db.Describe(ctx, parts[1])
		if err != nil {
			r.Warning(err.Error())
			return false
		}
		rows := make([][]string, len(meta.Columns))
		for i, c := range meta.Columns {
			rows[i] = []string{c.Name, c.Type, strconv.FormatBool(c.Nullable)}
		}
		_ = r.Grid([]string{"Column", "Type", "Nullable"}, rows)
		r.Muted(rowCount(int(meta.RowCount)))

	default:
		r.Warning(fmt.Sprintf("unknown command %s (type .help for commands)", parts[0]))
	}
	return false
}

func printShellHelp(w io.Writer) {
	_, _ = fmt.Fprint(w, `
Commands:
  .help           Show this help message
  .tables         List the dataset tables
  .schema <name>  Show the columns of a table
  .quit / .exit   Exit the shell

Statements end with a semicolon (;) and may span several lines.
Tab completes table names.

`)
}

func newTableCompleter(tables []string) *readline.PrefixCompleter {
	items := make([]readline.PrefixCompleterInterface, 0, len(tables)+4)
	for _, t := range tables {
		items = append(items, readline.PcItem(t))
	}
	schema := make([]readline.PrefixCompleterInterface, 0, len(tables))
	for _, t := range tables {
		schema = append(schema, readline.PcItem(t))
	}
	items = append(items,
		readline.PcItem(".help"),
		readline.PcItem(".tables"),
		readline.PcItem(".schema", schema...),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
	return readline.NewPrefixCompleter(items...)
}
