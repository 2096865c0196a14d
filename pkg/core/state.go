package core

import "time"

// Store defines the interface for state management operations.
type Store interface {
	Open(path string) error
	Close() error
	InitSchema() error

	// Saved view operations
	SaveView(view *SavedView) error
	GetView(name string) (*SavedView, error)
	ListViews(dataset string) ([]*SavedView, error)
	DeleteView(name string) error

	// Snapshot operations
	RecordSnapshot(snap *Snapshot) error
	GetSnapshot(id string) (*Snapshot, error)
	ListSnapshots(dataset string, limit int) ([]*Snapshot, error)
	LatestSnapshots(dataset string, n int) ([]*Snapshot, error)
}

// SavedView is a named query against a dataset.
type SavedView struct {
	Name        string    `json:"name"`
	Dataset     string    `json:"dataset"`
	Description string    `json:"description,omitempty"`
	Query       Query     `json:"query"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Snapshot records the statistics of a view at a point in time, so later
// snapshots can be compared against it.
type Snapshot struct {
	ID       string      `json:"id"`
	Dataset  string      `json:"dataset"`
	ViewName string      `json:"view_name,omitempty"`
	TakenAt  time.Time   `json:"taken_at"`
	Total    int         `json:"total"`
	Matched  int         `json:"matched"`
	Stats    []Statistic `json:"stats"`
}

// Stat returns the named statistic of the snapshot.
func (s *Snapshot) Stat(name string) (Statistic, bool) {
	for _, st := range s.Stats {
		if st.Name == name {
			return st, true
		}
	}
	return Statistic{}, false
}

// =============================================================================
// Result DTOs
// =============================================================================

// Column describes one field of a dataset for rendering.
type Column struct {
	Name       string `json:"name"`
	Label      string `json:"label"`
	Kind       Kind   `json:"kind"`
	Searchable bool   `json:"searchable,omitempty"`
	Filterable bool   `json:"filterable,omitempty"`
	Sortable   bool   `json:"sortable,omitempty"`
	// Values lists the allowed values of an enum field.
	Values []string `json:"values,omitempty"`
}

// Table is a type-erased view result ready for rendering or export.
type Table struct {
	Dataset string      `json:"dataset"`
	Columns []Column    `json:"columns"`
	Rows    [][]Value   `json:"rows"`
	Total   int         `json:"total"`
	Matched int         `json:"matched"`
	Page    PageInfo    `json:"page"`
	Sort    SortSpec    `json:"sort"`
	Stats   []Statistic `json:"stats,omitempty"`
}

// StringRows renders every cell with Value.Display.
func (t *Table) StringRows() [][]string {
	out := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = v.Display()
		}
		out[i] = cells
	}
	return out
}

// Headers returns the column labels in order.
func (t *Table) Headers() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Label
	}
	return out
}

// Change states of a statistic between two snapshots.
const (
	ChangeAdded     = "added"
	ChangeRemoved   = "removed"
	ChangeChanged   = "changed"
	ChangeUnchanged = "unchanged"
)

// StatChange compares one statistic of two snapshots.
type StatChange struct {
	Name         string  `json:"name"`
	Label        string  `json:"label"`
	Format       string  `json:"format"`
	Before       float64 `json:"before"`
	After        float64 `json:"after"`
	Delta        float64 `json:"delta"`
	DeltaPercent float64 `json:"delta_percent"`
	Change       string  `json:"change"`
}
