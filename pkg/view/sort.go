package view

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/leapstack-labs/leapview/pkg/core"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Comparator orders two values of the same kind.
type Comparator func(a, b core.Value) int

// NewComparator returns the comparator for a field kind. Text and enum
// values use locale-aware collation for lang with numeric runs compared by
// value, so "ISS-9" sorts before "ISS-10". The returned comparator must not
// be shared between goroutines.
func NewComparator(kind core.Kind, lang language.Tag) Comparator {
	switch kind {
	case core.KindNumber:
		return func(a, b core.Value) int { return cmp.Compare(a.Num, b.Num) }
	case core.KindDate:
		return func(a, b core.Value) int { return a.Time.Compare(b.Time) }
	case core.KindBool:
		return func(a, b core.Value) int { return compareBool(a.Bool, b.Bool) }
	default:
		c := collate.New(lang, collate.Numeric)
		return func(a, b core.Value) int { return c.CompareString(a.Str, b.Str) }
	}
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

type keyed[T any] struct {
	rec T
	key core.Value
}

// Sort returns records ordered by spec. The sort is stable: records with
// equal keys keep their relative order. Missing values, including dates
// that could not be parsed, are placed last in either direction. DirNone
// returns a copy in the original order. The input slice is not modified.
func Sort[T any](records []T, s *Schema[T], spec core.SortSpec, lang language.Tag) ([]T, error) {
	if spec.IsZero() {
		return slices.Clone(records), nil
	}
	f, err := s.Lookup(spec.Field)
	if err != nil {
		return nil, err
	}
	if !f.Sortable {
		return nil, fmt.Errorf("%w: %s", ErrNotSortable, f.Name)
	}

	items := make([]keyed[T], len(records))
	for i, rec := range records {
		items[i] = keyed[T]{rec: rec, key: f.Value(rec)}
	}

	compare := NewComparator(f.Kind, lang)
	desc := spec.Direction == core.DirDesc
	slices.SortStableFunc(items, func(a, b keyed[T]) int {
		an, bn := a.key.IsNull(), b.key.IsNull()
		switch {
		case an && bn:
			return 0
		case an:
			return 1
		case bn:
			return -1
		}
		c := compare(a.key, b.key)
		if desc {
			return -c
		}
		return c
	})

	out := make([]T, len(items))
	for i, it := range items {
		out[i] = it.rec
	}
	return out, nil
}
