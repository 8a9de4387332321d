package transaction

import (
	"fmt"

	"github.com/dshills/editcore/internal/engine/buffer"
	"github.com/dshills/editcore/internal/engine/selection"
)

// Transaction is a ChangeSet plus the selection to install after it is
// applied. Transactions are values.
type Transaction struct {
	changes     ChangeSet
	selection   selection.Selection
	hasSel      bool
	nonUndoable bool
}

// New wraps cs in a transaction without a selection.
func New(cs ChangeSet) Transaction {
	return Transaction{changes: cs}
}

// WithSelection returns the transaction with sel as its post-apply selection.
func (t Transaction) WithSelection(sel selection.Selection) Transaction {
	t.selection = sel
	t.hasSel = true
	return t
}

// NonUndoable returns the transaction marked to bypass history.
func (t Transaction) NonUndoable() Transaction {
	t.nonUndoable = true
	return t
}

// WithChangeSet returns the transaction with its operations replaced by cs.
// The selection and flags are kept.
func (t Transaction) WithChangeSet(cs ChangeSet) Transaction {
	t.changes = cs
	return t
}

// ChangeSet returns the underlying operations.
func (t Transaction) ChangeSet() ChangeSet { return t.changes }

// Changes returns the edit descriptors of the transaction.
func (t Transaction) Changes() []Change { return t.changes.Changes() }

// Selection returns the post-apply selection, if one was set.
func (t Transaction) Selection() (selection.Selection, bool) {
	return t.selection, t.hasSel
}

// Undoable reports whether the transaction should be recorded in history.
func (t Transaction) Undoable() bool { return !t.nonUndoable }

// IsEmpty returns true if the transaction has no operations.
func (t Transaction) IsEmpty() bool { return t.changes.IsEmpty() }

// IsIdentity returns true if the transaction does not change text.
func (t Transaction) IsIdentity() bool { return t.changes.IsIdentity() }

// Apply applies the changes to buf.
func (t Transaction) Apply(buf buffer.Buffer) (buffer.Buffer, error) {
	return t.changes.Apply(buf)
}

// Invert returns the transaction that undoes t. The inverse carries no
// selection; callers restore the selection they recorded.
func (t Transaction) Invert(pre buffer.Buffer) (Transaction, error) {
	inv, err := t.changes.Invert(pre)
	if err != nil {
		return Transaction{}, err
	}
	return Transaction{changes: inv, nonUndoable: t.nonUndoable}, nil
}

// Compose returns a transaction equivalent to t followed by next. The
// resulting selection is next's when set, otherwise t's mapped through next.
func (t Transaction) Compose(next Transaction) (Transaction, error) {
	cs, err := t.changes.Compose(next.changes)
	if err != nil {
		return Transaction{}, err
	}
	out := Transaction{changes: cs, nonUndoable: t.nonUndoable && next.nonUndoable}
	switch {
	case next.hasSel:
		out = out.WithSelection(next.selection)
	case t.hasSel:
		out = out.WithSelection(t.selection.Map(next.changes))
	}
	return out, nil
}

// FromEdits builds a ChangeSet from replacements expressed against buf. The
// edits must be sorted by position and must not overlap; several
// insertions at the same position are allowed and keep their order.
func FromEdits(buf buffer.Buffer, edits []buffer.Edit) (ChangeSet, error) {
	n := buf.LenChars()
	ops := make([]Operation, 0, 3*len(edits)+1)
	pos := 0
	for i, e := range edits {
		if e.From < 0 || e.To > n || e.From > e.To {
			return ChangeSet{}, fmt.Errorf("edit %d %v with %d chars: %w", i, e, n, buffer.ErrOutOfBounds)
		}
		if e.From < pos {
			return ChangeSet{}, fmt.Errorf("edit %d %v starts before %d: %w", i, e, pos, ErrInvalidEditSet)
		}
		ops = append(ops, Retain(e.From-pos), Delete(e.To-e.From), InsertText(e.Text))
		pos = e.To
	}
	ops = append(ops, Retain(n-pos))
	return NewChangeSet(ops...), nil
}

// ChangeBySelection builds a transaction with one edit per selected range,
// as produced by fn. The post-apply selection is the input mapped through
// the changes.
func ChangeBySelection(buf buffer.Buffer, sel selection.Selection, fn func(selection.Range) buffer.Edit) (Transaction, error) {
	ranges := sel.Ranges()
	edits := make([]buffer.Edit, len(ranges))
	for i, r := range ranges {
		edits[i] = fn(r)
	}
	cs, err := FromEdits(buf, edits)
	if err != nil {
		return Transaction{}, err
	}
	return New(cs).WithSelection(sel.Map(cs)), nil
}

// Insert inserts text at the head of every range. Cursors end up after the
// inserted text.
func Insert(buf buffer.Buffer, sel selection.Selection, text string) (Transaction, error) {
	return ChangeBySelection(buf, sel, func(r selection.Range) buffer.Edit {
		return buffer.NewInsert(r.Head, text)
	})
}

// DeleteBySelection deletes the text of every range. Cursors delete the
// grapheme cluster under them.
func DeleteBySelection(buf buffer.Buffer, sel selection.Selection) (Transaction, error) {
	var edits []buffer.Edit
	for _, r := range sel.Ranges() {
		wide, err := r.MinWidth1(buf)
		if err != nil {
			return Transaction{}, err
		}
		if wide.IsEmpty() {
			continue
		}
		// Widened cursors may run into the next range.
		if last := len(edits) - 1; last >= 0 && wide.From() <= edits[last].To {
			edits[last].To = max(edits[last].To, wide.To())
			continue
		}
		edits = append(edits, buffer.NewDelete(wide.From(), wide.To()))
	}
	cs, err := FromEdits(buf, edits)
	if err != nil {
		return Transaction{}, err
	}
	return New(cs).WithSelection(sel.Map(cs)), nil
}
