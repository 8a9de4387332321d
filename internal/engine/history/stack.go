package history

import (
	"log/slog"
	"sync"
	"time"

	"github.com/dshills/editcore/internal/engine/selection"
	"github.com/dshills/editcore/internal/engine/transaction"
)

// History is a linear undo/redo stack. Entries before the cursor are
// applied; entries from the cursor on can be redone.
type History struct {
	mu sync.Mutex

	entries []Entry
	cursor  int

	// sealed blocks coalescing into the current top entry.
	sealed bool

	// Grouping state
	grouping bool
	group    *Entry

	maxEntries int
	window     time.Duration
	now        func() time.Time
	logger     *slog.Logger
}

// New creates an empty history.
func New(opts ...Option) *History {
	h := &History{
		maxEntries: DefaultMaxEntries,
		window:     DefaultCoalesceWindow,
		now:        time.Now,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Commit records an applied edit. Entries past the cursor are discarded.
// The entry is merged into the top entry when both share a non-empty key,
// no checkpoint came between them, and the gap is shorter than the
// coalescing window.
func (h *History) Commit(e Entry) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if e.Time.IsZero() {
		e.Time = h.now()
	}

	if h.grouping {
		if h.group == nil {
			h.group = &e
			return nil
		}
		merged, err := h.group.merge(e)
		if err != nil {
			return err
		}
		*h.group = merged
		return nil
	}

	return h.commitLocked(e)
}

// CommitTransaction records tx with its inverse, the selection before it,
// and a coalescing key.
func (h *History) CommitTransaction(tx, inverse transaction.Transaction, before selection.Selection, key string) error {
	return h.Commit(Entry{Transaction: tx, Inverse: inverse, Before: before, Key: key})
}

func (h *History) commitLocked(e Entry) error {
	h.entries = h.entries[:h.cursor]

	if h.canCoalesce(e) {
		top := &h.entries[h.cursor-1]
		merged, err := top.merge(e)
		if err != nil {
			return err
		}
		h.logger.Debug("history coalesce", slog.String("key", e.Key), slog.Int("entries", len(h.entries)))
		*top = merged
		return nil
	}

	h.entries = append(h.entries, e)
	h.cursor = len(h.entries)
	h.sealed = false

	if excess := len(h.entries) - h.maxEntries; excess > 0 {
		h.entries = append([]Entry(nil), h.entries[excess:]...)
		h.cursor -= excess
	}
	return nil
}

func (h *History) canCoalesce(e Entry) bool {
	if h.cursor == 0 || h.sealed || e.Key == "" || h.window <= 0 {
		return false
	}
	top := h.entries[h.cursor-1]
	return top.Key == e.Key && top.View == e.View && e.Time.Sub(top.Time) < h.window
}

// Checkpoint seals the top entry; the next commit starts a new entry.
func (h *History) Checkpoint() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sealed = true
}

// Undo moves the cursor back one entry and returns it; the caller applies
// its Inverse. ok is false when there is nothing to undo.
func (h *History) Undo() (Entry, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cursor == 0 {
		return Entry{}, false
	}
	h.cursor--
	h.sealed = true
	return h.entries[h.cursor], true
}

// Redo moves the cursor forward one entry and returns it; the caller
// applies its Transaction. ok is false when there is nothing to redo.
func (h *History) Redo() (Entry, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cursor == len(h.entries) {
		return Entry{}, false
	}
	h.cursor++
	h.sealed = true
	return h.entries[h.cursor-1], true
}

// UndoN undoes up to n entries and returns them newest first, the order
// their inverses must be applied in.
func (h *History) UndoN(n int) []Entry {
	h.mu.Lock()
	defer h.mu.Unlock()

	n = min(n, h.cursor)
	if n <= 0 {
		return nil
	}
	out := make([]Entry, n)
	for i := range out {
		h.cursor--
		out[i] = h.entries[h.cursor]
	}
	h.sealed = true
	return out
}

// RedoN redoes up to n entries and returns them oldest first.
func (h *History) RedoN(n int) []Entry {
	h.mu.Lock()
	defer h.mu.Unlock()

	n = min(n, len(h.entries)-h.cursor)
	if n <= 0 {
		return nil
	}
	out := make([]Entry, n)
	copy(out, h.entries[h.cursor:h.cursor+n])
	h.cursor += n
	h.sealed = true
	return out
}

// Restore pushes back entries returned by Undo or UndoN that the caller
// failed to apply, leaving the history as it was before the call.
func (h *History) Restore(undone int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cursor = min(h.cursor+max(undone, 0), len(h.entries))
}

// Rewind takes back entries returned by Redo or RedoN that the caller
// failed to apply.
func (h *History) Rewind(redone int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cursor = max(h.cursor-max(redone, 0), 0)
}

// CanUndo returns true if undo is available.
func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cursor > 0
}

// CanRedo returns true if redo is available.
func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cursor < len(h.entries)
}

// UndoCount returns the number of undo steps available.
func (h *History) UndoCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cursor
}

// RedoCount returns the number of redo steps available.
func (h *History) RedoCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries) - h.cursor
}

// Entries describes every entry, oldest first.
func (h *History) Entries() []Info {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Info, len(h.entries))
	for i, e := range h.entries {
		out[i] = e.info(i < h.cursor)
	}
	return out
}

// PeekUndo returns the entry Undo would return without moving the cursor.
func (h *History) PeekUndo() (Entry, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cursor == 0 {
		return Entry{}, false
	}
	return h.entries[h.cursor-1], true
}

// Clear removes all entries.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = nil
	h.cursor = 0
	h.sealed = false
	h.grouping = false
	h.group = nil
}

// MaxEntries returns the bound on entries.
func (h *History) MaxEntries() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.maxEntries
}

// SetMaxEntries changes the bound. Applied entries are dropped oldest
// first; redo entries go only when that is not enough.
func (h *History) SetMaxEntries(n int) {
	if n <= 0 {
		n = DefaultMaxEntries
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.maxEntries = n
	excess := len(h.entries) - n
	if excess <= 0 {
		return
	}
	drop := min(excess, h.cursor)
	h.entries = append([]Entry(nil), h.entries[drop:]...)
	h.cursor -= drop
	if len(h.entries) > n {
		h.entries = h.entries[:n]
	}
}
