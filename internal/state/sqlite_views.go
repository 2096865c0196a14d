package state

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/leapstack-labs/leapview/pkg/core"
)

// SaveView creates or replaces a saved view. CreatedAt is kept when an
// existing view is replaced.
func (s *SQLiteStore) SaveView(v *core.SavedView) error {
	if s.db == nil {
		return errNotOpen
	}
	if v.Name == "" {
		return errors.New("view name is required")
	}
	if v.Dataset == "" {
		return fmt.Errorf("view %s: dataset is required", v.Name)
	}

	query, err := json.Marshal(v.Query)
	if err != nil {
		return fmt.Errorf("failed to encode query: %w", err)
	}

	now := s.now().UTC()
	if v.CreatedAt.IsZero() {
		v.CreatedAt = now
	}
	v.UpdatedAt = now

	_, err = s.db.Exec(`
		INSERT INTO saved_views (name, dataset, description, query, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			dataset = excluded.dataset,
			description = excluded.description,
			query = excluded.query,
			updated_at = excluded.updated_at`,
		v.Name, v.Dataset, v.Description, string(query), formatTime(v.CreatedAt), formatTime(v.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save view: %w", err)
	}
	return nil
}

// GetView returns the named view.
func (s *SQLiteStore) GetView(name string) (*core.SavedView, error) {
	if s.db == nil {
		return nil, errNotOpen
	}

	row := s.db.QueryRow(`
		SELECT name, dataset, description, query, created_at, updated_at
		FROM saved_views WHERE name = ?`, name)
	v, err := scanView(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("view %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get view: %w", err)
	}
	return v, nil
}

// ListViews returns the saved views of a dataset ordered by name. An empty
// dataset lists every view.
func (s *SQLiteStore) ListViews(dataset string) ([]*core.SavedView, error) {
	if s.db == nil {
		return nil, errNotOpen
	}

	rows, err := s.db.Query(`
		SELECT name, dataset, description, query, created_at, updated_at
		FROM saved_views
		WHERE ? = '' OR dataset = ?
		ORDER BY name`, dataset, dataset)
	if err != nil {
		return nil, fmt.Errorf("failed to list views: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var views []*core.SavedView
	for rows.Next() {
		v, err := scanView(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan view: %w", err)
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return views, nil
}

// DeleteView removes the named view.
func (s *SQLiteStore) DeleteView(name string) error {
	if s.db == nil {
		return errNotOpen
	}

	res, err := s.db.Exec(`DELETE FROM saved_views WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete view: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete view: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("view %s: %w", name, ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanView(row scanner) (*core.SavedView, error) {
	var (
		v                core.SavedView
		query            string
		created, updated string
	)
	if err := row.Scan(&v.Name, &v.Dataset, &v.Description, &query, &created, &updated); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(query), &v.Query); err != nil {
		return nil, fmt.Errorf("view %s: invalid query: %w", v.Name, err)
	}
	var err error
	if v.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if v.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &v, nil
}
