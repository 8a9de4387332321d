package history

import (
	"time"

	"github.com/google/uuid"

	"github.com/dshills/editcore/internal/engine/selection"
	"github.com/dshills/editcore/internal/engine/transaction"
)

// Entry is one undoable step.
type Entry struct {
	// Transaction is what was applied; redo applies it again.
	Transaction transaction.Transaction
	// Inverse undoes Transaction.
	Inverse transaction.Transaction
	// Before is the selection of the editing view before the edit.
	Before selection.Selection
	// View identifies the editing view. Zero when the caller has no views.
	View uuid.UUID
	// Time is when the entry was last extended. Zero means now.
	Time time.Time
	// Key groups commits for coalescing. Empty never coalesces.
	Key string
}

// merge extends e with next, which was applied right after it.
func (e Entry) merge(next Entry) (Entry, error) {
	tx, err := e.Transaction.Compose(next.Transaction)
	if err != nil {
		return e, err
	}
	inv, err := next.Inverse.Compose(e.Inverse)
	if err != nil {
		return e, err
	}
	return Entry{
		Transaction: tx,
		Inverse:     inv,
		Before:      e.Before,
		View:        e.View,
		Time:        next.Time,
		Key:         e.Key,
	}, nil
}

// Info describes an entry for display.
type Info struct {
	Key     string
	Time    time.Time
	Edits   int
	Applied bool // false for entries on the redo side
}

func (e Entry) info(applied bool) Info {
	return Info{
		Key:     e.Key,
		Time:    e.Time,
		Edits:   len(e.Transaction.Changes()),
		Applied: applied,
	}
}
