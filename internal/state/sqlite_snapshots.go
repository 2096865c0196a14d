package state

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/leapstack-labs/leapview/pkg/core"
)

// RecordSnapshot stores a snapshot. A missing ID or TakenAt is filled in.
func (s *SQLiteStore) RecordSnapshot(snap *core.Snapshot) error {
	if s.db == nil {
		return errNotOpen
	}
	if snap.Dataset == "" {
		return errors.New("snapshot dataset is required")
	}
	if snap.ID == "" {
		snap.ID = generateID()
	}
	if snap.TakenAt.IsZero() {
		snap.TakenAt = s.now().UTC()
	}

	stats, err := json.Marshal(snap.Stats)
	if err != nil {
		return fmt.Errorf("failed to encode statistics: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO snapshots (id, dataset, view_name, taken_at, total, matched, stats)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.Dataset, snap.ViewName, formatTime(snap.TakenAt), snap.Total, snap.Matched, string(stats),
	)
	if err != nil {
		return fmt.Errorf("failed to record snapshot: %w", err)
	}
	return nil
}

// GetSnapshot returns a snapshot by ID.
func (s *SQLiteStore) GetSnapshot(id string) (*core.Snapshot, error) {
	if s.db == nil {
		return nil, errNotOpen
	}

	row := s.db.QueryRow(`
		SELECT id, dataset, view_name, taken_at, total, matched, stats
		FROM snapshots WHERE id = ?`, id)
	snap, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("snapshot %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return snap, nil
}

// ListSnapshots returns the snapshots of a dataset, newest first. A limit
// of 0 or less returns every snapshot.
func (s *SQLiteStore) ListSnapshots(dataset string, limit int) ([]*core.Snapshot, error) {
	if s.db == nil {
		return nil, errNotOpen
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.Query(`
		SELECT id, dataset, view_name, taken_at, total, matched, stats
		FROM snapshots
		WHERE dataset = ?
		ORDER BY taken_at DESC, id
		LIMIT ?`, dataset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var snaps []*core.Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return snaps, nil
}

// LatestSnapshots returns the n most recent snapshots of a dataset in
// chronological order, oldest first.
func (s *SQLiteStore) LatestSnapshots(dataset string, n int) ([]*core.Snapshot, error) {
	if n <= 0 {
		return nil, nil
	}
	snaps, err := s.ListSnapshots(dataset, n)
	if err != nil {
		return nil, err
	}
	slices.Reverse(snaps)
	return snaps, nil
}

func scanSnapshot(row scanner) (*core.Snapshot, error) {
	var (
		snap         core.Snapshot
		taken, stats string
	)
	if err := row.Scan(&snap.ID, &snap.Dataset, &snap.ViewName, &taken, &snap.Total, &snap.Matched, &stats); err != nil {
		return nil, err
	}
	var err error
	if snap.TakenAt, err = parseTime(taken); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(stats), &snap.Stats); err != nil {
		return nil, fmt.Errorf("snapshot %s: invalid statistics: %w", snap.ID, err)
	}
	return &snap, nil
}
