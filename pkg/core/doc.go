// Package core defines the shared language of the LeapView system.
//
// This package contains:
//   - Scalar values and their kinds (Value, Kind)
//   - View requests (Criteria, SortSpec, PageRequest, Query)
//   - Statistic definitions and results (StatSpec, Statistic)
//   - Persistence DTOs and the Store interface (SavedView, Snapshot)
//
// The Golden Rule: pkg/core imports ONLY stdlib and small parsing helpers.
// All other packages depend on core, not the reverse.
package core
