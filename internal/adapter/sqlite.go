package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapview/pkg/core"

	_ "modernc.org/sqlite" // SQLite driver (pure Go)
)

// SQLite is a pure Go engine for hosts without DuckDB. Every dataset is
// loaded through LoadTable.
type SQLite struct {
	base
}

// NewSQLite creates a SQLite engine.
func NewSQLite(logger *slog.Logger) *SQLite {
	return &SQLite{base: base{
		Logger: logger,
		types: map[core.Kind]string{
			core.KindText:   "TEXT",
			core.KindEnum:   "TEXT",
			core.KindNumber: "REAL",
			core.KindDate:   "TEXT",
			core.KindBool:   "INTEGER",
		},
	}}
}

// Engine returns "sqlite".
func (a *SQLite) Engine() string {
	return "sqlite"
}

// Connect opens SQLite. Use ":memory:" or "" for an in-memory database.
func (a *SQLite) Connect(ctx context.Context, path string) error {
	if path == "" {
		path = ":memory:"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open sqlite connection: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite: %w", err)
	}
	a.DB = db
	return nil
}

// Tables lists the user tables.
func (a *SQLite) Tables(ctx context.Context) ([]string, error) {
	res, err := a.Query(ctx, `
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name`)
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
func (a *SQLite) Describe(ctx context.Context, table string) (*Metadata, error) {
	if a.DB == nil {
		return nil, errNotConnected
	}

	rows, err := a.DB.QueryContext(ctx, `SELECT cid, name, type, "notnull" FROM pragma_table_info(?)`, table)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var columns []Column
	for rows.Next() {
		var col Column
		var notNull int
		if err := rows.Scan(&col.Position, &col.Name, &col.Type, &notNull); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		col.Position++
		col.Nullable = notNull == 0
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

var _ Adapter = (*SQLite)(nil)
