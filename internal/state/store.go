// Package state persists saved views and statistic snapshots in SQLite.
//
// A saved view is a named query against a dataset. A snapshot records the
// statistics of a view at one point in time so that later runs can be
// compared against it.
package state

import (
	"errors"

	"github.com/leapstack-labs/leapview/pkg/core"
)

// Store is the state store interface implemented by SQLiteStore.
type Store = core.Store

// ErrNotFound is returned when a view or snapshot does not exist.
var ErrNotFound = errors.New("not found")

var _ Store = (*SQLiteStore)(nil)
