package history

import (
	"fmt"
	"log/slog"

	"github.com/dshills/editcore/internal/engine/buffer"
	"github.com/dshills/editcore/internal/engine/transaction"
)

// Rebase rewrites every entry so that it still applies after cs, an edit
// that was applied to the buffer without being recorded. after is the
// buffer cs produced. Undo then reverts only what the entries changed and
// leaves the unrecorded edit in place. On error the history is unchanged.
//
// Applied entries are walked newest first, redo entries oldest first.
// Each applied entry's transaction is rebuilt by inverting its rebased
// inverse, so undo followed by redo returns to the same text.
func (h *History) Rebase(cs transaction.ChangeSet, after buffer.Buffer) error {
	if cs.IsIdentity() {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	entries := make([]Entry, len(h.entries))
	copy(entries, h.entries)
	c, buf := cs, after

	var group *Entry
	if h.group != nil {
		g, nc, nb, err := rebaseApplied(*h.group, c, buf)
		if err != nil {
			return fmt.Errorf("rebase group: %w", err)
		}
		group, c, buf = &g, nc, nb
	}

	baseC, baseBuf := c, buf
	for i := h.cursor - 1; i >= 0; i-- {
		var err error
		entries[i], c, buf, err = rebaseApplied(entries[i], c, buf)
		if err != nil {
			return fmt.Errorf("rebase entry %d: %w", i, err)
		}
	}

	c, buf = baseC, baseBuf
	for i := h.cursor; i < len(entries); i++ {
		var err error
		entries[i], c, buf, err = rebaseUndone(entries[i], c, buf)
		if err != nil {
			return fmt.Errorf("rebase redo entry %d: %w", i, err)
		}
	}

	h.entries = entries
	if group != nil {
		h.group = group
	}
	h.sealed = true
	h.logger.Debug("history rebase", slog.Int("entries", len(entries)))
	return nil
}

// rebaseApplied rebases an entry whose transaction is applied. c applies
// to the buffer after the entry and buf is that buffer with c applied.
// It returns the entry, c moved to the buffer before the entry, and buf
// with the rebased inverse applied.
func rebaseApplied(e Entry, c transaction.ChangeSet, buf buffer.Buffer) (Entry, transaction.ChangeSet, buffer.Buffer, error) {
	inv := e.Inverse.ChangeSet()
	invP, err := inv.Transform(c, true)
	if err != nil {
		return e, c, buf, err
	}
	below, err := c.Transform(inv, false)
	if err != nil {
		return e, c, buf, err
	}
	txP, err := invP.Invert(buf)
	if err != nil {
		return e, c, buf, err
	}
	prev, err := invP.Apply(buf)
	if err != nil {
		return e, c, buf, err
	}

	tx := e.Transaction.WithChangeSet(txP)
	if sel, ok := e.Transaction.Selection(); ok {
		tx = tx.WithSelection(sel.Map(c))
	}
	e.Transaction = tx
	e.Inverse = e.Inverse.WithChangeSet(invP)
	e.Before = e.Before.Map(below)
	return e, below, prev, nil
}

// rebaseUndone rebases an entry on the redo side. c applies to the buffer
// before the entry and buf is that buffer with c applied. It returns the
// entry, c moved past the entry, and buf with the rebased transaction
// applied.
func rebaseUndone(e Entry, c transaction.ChangeSet, buf buffer.Buffer) (Entry, transaction.ChangeSet, buffer.Buffer, error) {
	tx := e.Transaction.ChangeSet()
	txP, err := tx.Transform(c, true)
	if err != nil {
		return e, c, buf, err
	}
	above, err := c.Transform(tx, false)
	if err != nil {
		return e, c, buf, err
	}
	invP, err := txP.Invert(buf)
	if err != nil {
		return e, c, buf, err
	}
	next, err := txP.Apply(buf)
	if err != nil {
		return e, c, buf, err
	}

	rebased := e.Transaction.WithChangeSet(txP)
	if sel, ok := e.Transaction.Selection(); ok {
		rebased = rebased.WithSelection(sel.Map(above))
	}
	e.Transaction = rebased
	e.Inverse = e.Inverse.WithChangeSet(invP)
	e.Before = e.Before.Map(c)
	return e, above, next, nil
}
