package buffer

import (
	"errors"
	"fmt"
)

// ErrEditsOverlap is returned by ApplyEdits when edits are unsorted or
// overlap.
var ErrEditsOverlap = errors.New("edits overlap or are not in ascending order")

// Edit replaces the characters in [From, To) with Text.
type Edit struct {
	From int
	To   int
	Text string
}

// NewInsert creates an Edit that inserts text at pos.
func NewInsert(pos int, text string) Edit {
	return Edit{From: pos, To: pos, Text: text}
}

// NewDelete creates an Edit that deletes [from, to).
func NewDelete(from, to int) Edit {
	return Edit{From: from, To: to}
}

// String returns a human-readable representation of the edit.
func (e Edit) String() string {
	switch {
	case e.From == e.To:
		return fmt.Sprintf("Insert(%d, %q)", e.From, e.Text)
	case e.Text == "":
		return fmt.Sprintf("Delete[%d, %d)", e.From, e.To)
	default:
		return fmt.Sprintf("Replace[%d, %d) with %q", e.From, e.To, e.Text)
	}
}

// IsNoOp returns true if this edit does nothing.
func (e Edit) IsNoOp() bool {
	return e.From == e.To && e.Text == ""
}

// Delta returns the change in character count caused by this edit.
func (e Edit) Delta() int {
	return charCount(e.Text) - (e.To - e.From)
}
