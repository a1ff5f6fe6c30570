package store

import (
	"context"

	"github.com/elliotchance/orderedmap/v2"
	"github.com/google/uuid"
)

// ChangeType classifies one row change.
type ChangeType int

const (
	ChangeAdd ChangeType = iota
	ChangeModify
	ChangeRemove
)

func (t ChangeType) String() string {
	switch t {
	case ChangeAdd:
		return "add"
	case ChangeModify:
		return "modify"
	case ChangeRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// Change describes one row added, modified or removed by a Modify call.
// Values holds "+N" entries for the new row's columns and "-N" entries for
// the replaced or removed row's columns, N being the column position.
type Change struct {
	Type   ChangeType
	Table  string
	Values *orderedmap.OrderedMap[string, any]
}

// New returns the new value of column i (Add and Modify changes).
func (c Change) New(i int) (any, bool) {
	return c.Values.Get(newKey(i))
}

// Old returns the previous value of column i (Modify and Remove changes).
func (c Change) Old(i int) (any, bool) {
	return c.Values.Get(oldKey(i))
}

// ChangeBatch is every change made to one table by one Modify call. Batches
// are delivered once the enclosing transaction has committed.
type ChangeBatch struct {
	ID      uuid.UUID
	Table   string
	Changes []Change
}

// Suggestion tells a listener that rows of Table referencing the given key
// values may need refreshing. Keys maps the referencing table's foreign key
// columns to the referenced row's values.
type Suggestion struct {
	Table string
	Keys  *orderedmap.OrderedMap[string, any]
}

// SuggestFunc receives update suggestions while a Modify call is running.
// Returning an error aborts the call.
type SuggestFunc func(ctx context.Context, s Suggestion) error

// ChangeFunc receives the change batches of one committed Modify call:
// the batch of the modified table first, then those of cascaded tables.
// Batches without changes are left out.
type ChangeFunc func(batches []ChangeBatch)

// OnSuggestUpdate registers a suggestion listener.
func (s *Store) OnSuggestUpdate(fn SuggestFunc) {
	s.suggestListeners = append(s.suggestListeners, fn)
}

// OnChanges registers a change listener.
func (s *Store) OnChanges(fn ChangeFunc) {
	s.changeListeners = append(s.changeListeners, fn)
}

func (s *Store) suggest(ctx context.Context, sg Suggestion) error {
	for _, fn := range s.suggestListeners {
		if err := fn(ctx, sg); err != nil {
			return err
		}
	}
	return nil
}

// deliver hands the pending batches to every change listener in one call
// and clears them. Nothing is delivered when no row changed.
func (s *Store) deliver() {
	pending := s.pending
	s.pending = nil

	batches := make([]ChangeBatch, 0, len(pending))
	for _, b := range pending {
		if len(b.Changes) == 0 {
			continue
		}
		s.log.WithBatch(b.ID).WithTable(b.Table).Debugw("delivering changes", "changes", len(b.Changes))
		batches = append(batches, *b)
	}
	if len(batches) == 0 {
		return
	}
	for _, fn := range s.changeListeners {
		fn(batches)
	}
}
