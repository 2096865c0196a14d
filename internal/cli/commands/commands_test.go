// Package commands tests the CLI command constructors and helpers.
package commands

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapview/internal/adapter"
	"github.com/leapstack-labs/leapview/internal/cli/testutil"
	"github.com/leapstack-labs/leapview/internal/state"
	"github.com/leapstack-labs/leapview/pkg/core"
)

var queryFlags = []string{"search", "filter", "from", "to", "date-field", "period", "sort", "stat", "scope"}

func TestNewQueryCommand(t *testing.T) {
	cmd := NewQueryCommand()

	assert.Equal(t, "query <dataset>", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")

	for _, flag := range append(queryFlags, "page", "size", "no-stats") {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
	assert.Equal(t, "s", cmd.Flags().Lookup("search").Shorthand)
	assert.Equal(t, "f", cmd.Flags().Lookup("filter").Shorthand)
}

func TestNewStatsCommand(t *testing.T) {
	cmd := NewStatsCommand()

	assert.Equal(t, "stats <dataset>", cmd.Use)
	for _, flag := range queryFlags {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
	// Statistics cover every matching record, so there is no paging.
	assert.Nil(t, cmd.Flags().Lookup("page"))
}

func TestNewDatasetsCommand(t *testing.T) {
	cmd := NewDatasetsCommand()

	assert.Equal(t, "datasets [name]", cmd.Use)
	assert.Equal(t, []string{"ls"}, cmd.Aliases)
	assert.NoError(t, cmd.Args(cmd, nil))
	assert.Error(t, cmd.Args(cmd, []string{"a", "b"}))
}

func TestNewReportCommands(t *testing.T) {
	aging := NewAgingCommand()
	assert.Equal(t, "aging [dataset]", aging.Use)
	assert.NotNil(t, aging.Flags().Lookup("as-of"))

	sla := NewSLACommand()
	assert.Equal(t, "sla [dataset]", sla.Use)
	f := sla.Flags().Lookup("warn-days")
	require.NotNil(t, f)
	assert.Equal(t, "3", f.DefValue)
}

func TestNewExportCommand(t *testing.T) {
	cmd := NewExportCommand()

	assert.Equal(t, "export <dataset>", cmd.Use)
	for _, flag := range append(queryFlags, "format", "out") {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
	assert.Equal(t, "csv", cmd.Flags().Lookup("format").DefValue)
	assert.Nil(t, cmd.Flags().Lookup("size"), "exports ignore paging")
}

func TestNewViewCommand(t *testing.T) {
	cmd := NewViewCommand()

	assert.Equal(t, "view", cmd.Use)
	names := make([]string, 0, len(cmd.Commands()))
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"save", "list", "show", "run", "delete"}, names)

	save, _, err := cmd.Find([]string{"save"})
	require.NoError(t, err)
	assert.NotNil(t, save.Flags().Lookup("description"))
	assert.NotNil(t, save.Flags().Lookup("page"))

	rm, _, err := cmd.Find([]string{"rm"})
	require.NoError(t, err)
	assert.Equal(t, "delete", rm.Name())
}

func TestNewSnapshotCommand(t *testing.T) {
	cmd := NewSnapshotCommand()

	diff, _, err := cmd.Find([]string{"diff"})
	require.NoError(t, err)
	assert.NoError(t, diff.Args(diff, []string{"invoices"}))
	assert.NoError(t, diff.Args(diff, []string{"invoices", "a", "b"}))
	assert.Error(t, diff.Args(diff, []string{"invoices", "a"}))

	take, _, err := cmd.Find([]string{"take"})
	require.NoError(t, err)
	assert.NotNil(t, take.Flags().Lookup("view"))

	list, _, err := cmd.Find([]string{"list"})
	require.NoError(t, err)
	assert.Equal(t, "20", list.Flags().Lookup("limit").DefValue)
}

func TestNewServeCommand(t *testing.T) {
	cmd := NewServeCommand()

	assert.Equal(t, "serve", cmd.Use)
	for _, flag := range []string{"port", "watch", "no-state", "open"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
	assert.Equal(t, "true", cmd.Flags().Lookup("watch").DefValue)
}

func TestNewSQLCommand(t *testing.T) {
	cmd := NewSQLCommand()

	assert.Equal(t, "sql [statement]", cmd.Use)
	assert.Equal(t, "duckdb", cmd.Flags().Lookup("engine").DefValue)
	assert.Equal(t, "e", cmd.Flags().Lookup("execute").Shorthand)
}

func TestNewBrowseCommand(t *testing.T) {
	cmd := NewBrowseCommand()

	assert.Equal(t, "browse <dataset>", cmd.Use)
	assert.Contains(t, cmd.Long, "tab, shift+tab")
	assert.Nil(t, cmd.Flags().Lookup("page"))
}

func TestQueryOptions_Params(t *testing.T) {
	opts := &QueryOptions{
		Search:  " rao ",
		Filters: []string{"department=Engineering", "claim_type=all"},
		Period:  "this-month",
		Sort:    "amount:desc",
		Size:    -1,
		Stats:   []string{"total_claims"},
	}
	p, err := opts.Params()
	require.NoError(t, err)
	assert.Equal(t, " rao ", p.Search)
	assert.Equal(t, map[string]string{"department": "Engineering", "claim_type": "all"}, p.Filters)
	assert.Equal(t, "amount:desc", p.Sort)
	assert.Equal(t, -1, p.Size)
	assert.Equal(t, []string{"total_claims"}, p.Stats)

	_, err = (&QueryOptions{Filters: []string{"department"}}).Params()
	assert.Error(t, err)
}

func TestDatasetArg(t *testing.T) {
	assert.Equal(t, "invoices", datasetArg(nil, "invoices"))
	assert.Equal(t, "bills", datasetArg([]string{"bills"}, "invoices"))
}

func TestCapabilities(t *testing.T) {
	assert.Equal(t, "search, sort", capabilities(core.Column{Searchable: true, Sortable: true}))
	assert.Equal(t, "filter", capabilities(core.Column{Filterable: true}))
	assert.Equal(t, "", capabilities(core.Column{}))
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")

	require.NoError(t, writeFile(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "a,b\n")
		return err
	}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(data))

	// A failed write leaves the existing file untouched and no temp files.
	err = writeFile(path, func(io.Writer) error { return errors.New("boom") })
	require.Error(t, err)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSnapshotPair(t *testing.T) {
	store := state.NewSQLiteStore()
	require.NoError(t, store.Open(":memory:"))
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.InitSchema())

	_, _, err := snapshotPair(store, []string{"invoices"})
	assert.ErrorIs(t, err, state.ErrNotFound)

	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"s1", "s2", "s3"} {
		require.NoError(t, store.RecordSnapshot(&core.Snapshot{
			ID: id, Dataset: "invoices", TakenAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	before, after, err := snapshotPair(store, []string{"invoices"})
	require.NoError(t, err)
	assert.Equal(t, "s2", before.ID)
	assert.Equal(t, "s3", after.ID)

	before, after, err = snapshotPair(store, []string{"invoices", "s1", "s3"})
	require.NoError(t, err)
	assert.Equal(t, "s1", before.ID)
	assert.Equal(t, "s3", after.ID)

	_, _, err = snapshotPair(store, []string{"invoices", "s1", "missing"})
	assert.ErrorIs(t, err, state.ErrNotFound)
}

func TestHandleDotCommand(t *testing.T) {
	ctx := context.Background()
	db, err := adapter.New("sqlite", nil)
	require.NoError(t, err)
	require.NoError(t, db.Connect(ctx, ""))
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Exec(ctx, "CREATE TABLE invoices (invoice_number TEXT, amount REAL)"))
	require.NoError(t, db.Exec(ctx, "INSERT INTO invoices VALUES ('INV-1', 10.5)"))

	tr := testutil.NewTestRendererMarkdown()

	assert.False(t, handleDotCommand(ctx, tr.Renderer, db, ".tables"))
	assert.Contains(t, tr.Output(), "invoices")

	tr.Reset()
	assert.False(t, handleDotCommand(ctx, tr.Renderer, db, ".schema invoices"))
	assert.Contains(t, tr.Output(), "invoice_number")
	assert.Contains(t, tr.Output(), "1 row")

	tr.Reset()
	assert.False(t, handleDotCommand(ctx, tr.Renderer, db, ".schema"))
	assert.Contains(t, tr.ErrorOutput(), "usage: .schema <table>")

	tr.Reset()
	assert.False(t, handleDotCommand(ctx, tr.Renderer, db, ".bogus"))
	assert.Contains(t, tr.ErrorOutput(), "unknown command .bogus")

	assert.True(t, handleDotCommand(ctx, tr.Renderer, db, ".quit"))
	assert.True(t, handleDotCommand(ctx, tr.Renderer, db, ".EXIT"))
}

func TestRunStatement(t *testing.T) {
	ctx := context.Background()
	db, err := adapter.New("sqlite", nil)
	require.NoError(t, err)
	require.NoError(t, db.Connect(ctx, ""))
	t.Cleanup(func() { _ = db.Close() })

	tr := testutil.NewTestRendererMarkdown()
	require.NoError(t, runStatement(ctx, tr.Renderer, db, "SELECT 1 AS one, 'a' AS letter"))
	out := tr.Output()
	assert.Contains(t, strings.ToLower(out), "| one")
	assert.Contains(t, out, "1 row")

	tr = testutil.NewTestRendererJSON()
	require.NoError(t, runStatement(ctx, tr.Renderer, db, "SELECT 2 AS two"))
	assert.JSONEq(t, `[{"two":"2"}]`, tr.Output())

	assert.Error(t, runStatement(ctx, tr.Renderer, db, "SELECT * FROM missing"))
}

func TestRowCount(t *testing.T) {
	assert.Equal(t, "0 rows", rowCount(0))
	assert.Equal(t, "1 row", rowCount(1))
	assert.Equal(t, "12 rows", rowCount(12))
}

func TestNewTableCompleter(t *testing.T) {
	c := newTableCompleter([]string{"budget", "invoices"})
	names := make([]string, 0, len(c.GetChildren()))
	for _, child := range c.GetChildren() {
		names = append(names, string(child.GetName()))
	}
	assert.Contains(t, names, "budget ")
	assert.Contains(t, names, ".schema ")
}
