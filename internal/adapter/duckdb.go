package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/leapview/pkg/core"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

// DuckDB is the default engine. CSV files are read natively.
type DuckDB struct {
	base
}

// NewDuckDB creates a DuckDB engine.
func NewDuckDB(logger *slog.Logger) *DuckDB {
	return &DuckDB{base: base{
		Logger: logger,
		types: map[core.Kind]string{
			core.KindText:   "VARCHAR",
			core.KindEnum:   "VARCHAR",
			core.KindNumber: "DOUBLE",
			core.KindDate:   "DATE",
			core.KindBool:   "BOOLEAN",
		},
	}}
}

// Engine returns "duckdb".
func (a *DuckDB) Engine() string {
	return "duckdb"
}

// Connect opens DuckDB. Use ":memory:" or "" for an in-memory database.
func (a *DuckDB) Connect(ctx context.Context, path string) error {
	if path == ":memory:" {
		path = ""
	}
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return fmt.Errorf("failed to open duckdb connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping duckdb: %w", err)
	}
	a.DB = db
	return nil
}

// Tables lists the tables of the main schema.
func (a *DuckDB) Tables(ctx context.Context) ([]string, error) {
	res, err := a.Query(ctx, `
		SELECT table_name FROM information_schema.tables
		WHERE table_schema = 'main'
		ORDER BY table_name`)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(res.Rows))
	for _, row := range res.Rows {
		names = append(names, formatCell(row[0]))
	}
	return names, nil
}

// Describe returns the columns and row count of a table.
func (a *DuckDB) Describe(ctx context.Context, table string) (*Metadata, error) {
	if a.DB == nil {
		return nil, errNotConnected
	}

	rows, err := a.DB.QueryContext(ctx, `
		SELECT column_name, data_type, is_nullable, ordinal_position
		FROM information_schema.columns
		WHERE table_schema = 'main' AND table_name = ?
		ORDER BY ordinal_position`, table)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var columns []Column
	for rows.Next() {
		var col Column
		var nullable string
		if err := rows.Scan(&col.Name, &col.Type, &nullable, &col.Position); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		col.Nullable = nullable == "YES"
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s not found", table)
	}

	return &Metadata{Name: table, Columns: columns, RowCount: a.count(ctx, table)}, nil
}

// LoadCSV loads a CSV file into a table, letting DuckDB infer the schema.
func (a *DuckDB) LoadCSV(ctx context.Context, table, path string) error {
	if a.DB == nil {
		return errNotConnected
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	query := fmt.Sprintf(
		"CREATE OR REPLACE TABLE %s AS SELECT * FROM read_csv_auto('%s', header=true)",
		quoteIdent(table),
		strings.ReplaceAll(absPath, "'", "''"),
	)
	if err := a.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to load CSV: %w", err)
	}
	a.Logger.Debug("loaded CSV", "table", table, "path", absPath)
	return nil
}

var (
	_ Adapter   = (*DuckDB)(nil)
	_ CSVLoader = (*DuckDB)(nil)
)
