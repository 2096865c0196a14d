// Package adapter loads datasets into an embedded SQL engine so analysts can
// run ad-hoc SQL over them.
package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/leapstack-labs/leapview/pkg/core"
)

// Column describes one column of a loaded table.
type Column struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
	Position int    `json:"position"`
}

// Metadata describes a loaded table.
type Metadata struct {
	Name     string   `json:"name"`
	Columns  []Column `json:"columns"`
	RowCount int64    `json:"row_count"`
}

// Adapter is an embedded SQL engine.
type Adapter interface {
	// Connect opens the database. Use ":memory:" or "" for an in-memory one.
	Connect(ctx context.Context, path string) error
	Close() error

	// Exec executes a statement that returns no rows.
	Exec(ctx context.Context, sql string) error
	// Query executes a statement and reads every row.
	Query(ctx context.Context, sql string) (*Result, error)

	// Tables lists the user tables in name order.
	Tables(ctx context.Context) ([]string, error)
	// Describe returns the columns and row count of a table.
	Describe(ctx context.Context, table string) (*Metadata, error)

	// LoadTable creates or replaces a table holding the rows of t.
	LoadTable(ctx context.Context, name string, t *core.Table) error

	// Engine returns the registered engine name.
	Engine() string
}

// CSVLoader is implemented by engines that can read CSV files natively.
type CSVLoader interface {
	LoadCSV(ctx context.Context, table, path string) error
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]func(*slog.Logger) Adapter)
)

// Register adds an engine factory to the registry.
func Register(name string, factory func(*slog.Logger) Adapter) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// New creates an engine by name. A nil logger discards output.
func New(name string, logger *slog.Logger) (Adapter, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, &UnknownEngineError{Engine: name, Available: Engines()}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return factory(logger), nil
}

// Engines returns every registered engine name, sorted.
func Engines() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// UnknownEngineError is returned for an engine name that is not registered.
type UnknownEngineError struct {
	Engine    string
	Available []string
}

func (e *UnknownEngineError) Error() string {
	return fmt.Sprintf("unknown SQL engine %q (available: %v)", e.Engine, e.Available)
}

func init() {
	Register("duckdb", func(l *slog.Logger) Adapter { return NewDuckDB(l) })
	Register("sqlite", func(l *slog.Logger) Adapter { return NewSQLite(l) })
}
