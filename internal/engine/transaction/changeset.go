package transaction

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dshills/editcore/internal/engine/buffer"
)

// Errors returned when building, combining or applying changes.
var (
	ErrLengthMismatch = errors.New("changeset length does not match")
	ErrInvalidEditSet = errors.New("edits are unsorted or overlap")
)

// OpKind identifies an operation.
type OpKind uint8

const (
	OpRetain OpKind = iota
	OpInsert
	OpDelete
)

// String returns the operation name.
func (k OpKind) String() string {
	switch k {
	case OpRetain:
		return "retain"
	case OpInsert:
		return "insert"
	case OpDelete:
		return "delete"
	}
	return "unknown"
}

// Operation is one step of a ChangeSet. N counts characters for Retain and
// Delete; Text holds the inserted text for Insert.
type Operation struct {
	Kind OpKind
	N    int
	Text string
}

// Retain keeps n characters.
func Retain(n int) Operation { return Operation{Kind: OpRetain, N: n} }

// InsertText inserts text.
func InsertText(text string) Operation { return Operation{Kind: OpInsert, Text: text} }

// Delete removes n characters.
func Delete(n int) Operation { return Operation{Kind: OpDelete, N: n} }

// String returns a compact representation of the operation.
func (o Operation) String() string {
	if o.Kind == OpInsert {
		return fmt.Sprintf("insert(%q)", o.Text)
	}
	return fmt.Sprintf("%s(%d)", o.Kind, o.N)
}

// ChangeSet is an ordered list of operations that covers one buffer
// revision end to end: the Retain and Delete counts sum to LenBefore.
// ChangeSets are values and never change once built.
type ChangeSet struct {
	ops       []Operation
	lenBefore int
	lenAfter  int
}

// NewChangeSet builds a ChangeSet from ops. Adjacent operations of the same
// kind are merged and empty ones dropped; an insertion is always ordered
// before a deletion at the same position.
func NewChangeSet(ops ...Operation) ChangeSet {
	var cs ChangeSet
	for _, op := range ops {
		cs.push(op)
	}
	return cs
}

// Identity returns the ChangeSet that keeps all n characters.
func Identity(n int) ChangeSet {
	return NewChangeSet(Retain(n))
}

// Operations returns a copy of the operations.
func (cs ChangeSet) Operations() []Operation {
	out := make([]Operation, len(cs.ops))
	copy(out, cs.ops)
	return out
}

// LenBefore returns the length of the buffer the changes apply to.
func (cs ChangeSet) LenBefore() int { return cs.lenBefore }

// LenAfter returns the length of the buffer the changes produce.
func (cs ChangeSet) LenAfter() int { return cs.lenAfter }

// IsEmpty returns true if there are no operations at all.
func (cs ChangeSet) IsEmpty() bool { return len(cs.ops) == 0 }

// IsIdentity returns true if applying the changes leaves any buffer of the
// right length unchanged.
func (cs ChangeSet) IsIdentity() bool {
	for _, op := range cs.ops {
		if op.Kind != OpRetain {
			return false
		}
	}
	return true
}

// String returns the operations in order.
func (cs ChangeSet) String() string {
	parts := make([]string, len(cs.ops))
	for i, op := range cs.ops {
		parts[i] = op.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func (cs *ChangeSet) push(op Operation) {
	switch op.Kind {
	case OpRetain:
		if op.N <= 0 {
			return
		}
		cs.lenBefore += op.N
		cs.lenAfter += op.N
	case OpDelete:
		if op.N <= 0 {
			return
		}
		cs.lenBefore += op.N
	case OpInsert:
		if op.Text == "" {
			return
		}
		n := utf8.RuneCountInString(op.Text)
		cs.lenAfter += n
		if last := len(cs.ops) - 1; last >= 0 && cs.ops[last].Kind == OpDelete {
			// Keep inserts in front of deletes so equal edits have equal ops.
			del := cs.ops[last]
			cs.ops = cs.ops[:last]
			cs.appendOp(op)
			cs.ops = append(cs.ops, del)
			return
		}
	}
	cs.appendOp(op)
}

func (cs *ChangeSet) appendOp(op Operation) {
	if last := len(cs.ops) - 1; last >= 0 && cs.ops[last].Kind == op.Kind {
		if op.Kind == OpInsert {
			cs.ops[last].Text += op.Text
		} else {
			cs.ops[last].N += op.N
		}
		return
	}
	cs.ops = append(cs.ops, op)
}

// Edits returns the changes as a flat list of replacements, expressed
// against the buffer before the change and sorted by position.
func (cs ChangeSet) Edits() []buffer.Edit {
	var edits []buffer.Edit
	pos := 0
	inRun := false
	for _, op := range cs.ops {
		switch op.Kind {
		case OpRetain:
			pos += op.N
			inRun = false
		case OpInsert:
			if !inRun {
				edits = append(edits, buffer.Edit{From: pos, To: pos})
				inRun = true
			}
			edits[len(edits)-1].Text += op.Text
		case OpDelete:
			if !inRun {
				edits = append(edits, buffer.Edit{From: pos, To: pos})
				inRun = true
			}
			pos += op.N
			edits[len(edits)-1].To = pos
		}
	}
	return edits
}

// Apply applies the changes to buf and returns the new revision. buf must be
// exactly LenBefore characters long; the receiver and buf are unchanged.
// A ChangeSet without operations returns buf itself.
func (cs ChangeSet) Apply(buf buffer.Buffer) (buffer.Buffer, error) {
	n := buf.LenChars()
	if cs.lenBefore > n {
		return buffer.Buffer{}, fmt.Errorf("changes consume %d of %d chars: %w", cs.lenBefore, n, buffer.ErrOutOfBounds)
	}
	if cs.lenBefore != n && !cs.IsEmpty() {
		return buffer.Buffer{}, fmt.Errorf("changes cover %d of %d chars: %w", cs.lenBefore, n, ErrLengthMismatch)
	}
	edits := cs.Edits()
	if len(edits) == 0 {
		return buf, nil
	}
	return buf.ApplyEdits(edits)
}

// Invert returns the ChangeSet that undoes cs. pre must be the buffer cs was
// applied to; it supplies the deleted text.
func (cs ChangeSet) Invert(pre buffer.Buffer) (ChangeSet, error) {
	if cs.IsEmpty() {
		return ChangeSet{}, nil
	}
	if pre.LenChars() != cs.lenBefore {
		return ChangeSet{}, fmt.Errorf("invert against %d chars, changes cover %d: %w", pre.LenChars(), cs.lenBefore, ErrLengthMismatch)
	}

	var inv ChangeSet
	pos := 0
	for _, op := range cs.ops {
		switch op.Kind {
		case OpRetain:
			inv.push(Retain(op.N))
			pos += op.N
		case OpDelete:
			text, err := pre.Slice(pos, pos+op.N)
			if err != nil {
				return ChangeSet{}, fmt.Errorf("invert delete at %d: %w", pos, err)
			}
			inv.push(InsertText(text))
			pos += op.N
		case OpInsert:
			inv.push(Delete(utf8.RuneCountInString(op.Text)))
		}
	}
	return inv, nil
}

// Compose returns the ChangeSet equivalent to applying cs and then next.
// The zero ChangeSet composes as a no-op on either side.
func (cs ChangeSet) Compose(next ChangeSet) (ChangeSet, error) {
	if cs.IsEmpty() {
		return next, nil
	}
	if next.IsEmpty() {
		return cs, nil
	}
	if cs.lenAfter != next.lenBefore {
		return ChangeSet{}, fmt.Errorf("compose %d -> %d with %d -> %d: %w",
			cs.lenBefore, cs.lenAfter, next.lenBefore, next.lenAfter, ErrLengthMismatch)
	}

	var out ChangeSet
	a, b := newOpCursor(cs.ops), newOpCursor(next.ops)
	for {
		opA, okA := a.peek()
		opB, okB := b.peek()

		switch {
		case !okA && !okB:
			return out, nil
		case okA && opA.Kind == OpDelete:
			out.push(opA)
			a.advance()
		case okB && opB.Kind == OpInsert:
			out.push(opB)
			b.advance()
		case !okA || !okB:
			return ChangeSet{}, fmt.Errorf("compose ran out of operations: %w", ErrLengthMismatch)
		default:
			// opA is Retain or Insert; opB is Retain or Delete.
			n := min(opLen(opA), opLen(opB))
			headA := a.take(n)
			b.take(n)
			switch {
			case opB.Kind == OpRetain:
				out.push(headA)
			case opA.Kind == OpRetain:
				out.push(Delete(n))
			}
			// Insert followed by Delete cancels out.
		}
	}
}

// Transform rebases cs over other, a ChangeSet for the same buffer. The
// result applies to the buffer other produces and keeps the intent of cs:
// text deleted by both stays deleted, and retained text that other deleted
// is skipped. Where both insert at one position, cs's text comes first
// when first is true. Applying other then the result is equivalent to
// applying cs then other.Transform(cs, !first).
func (cs ChangeSet) Transform(other ChangeSet, first bool) (ChangeSet, error) {
	if cs.IsEmpty() || other.IsEmpty() {
		return cs, nil
	}
	if cs.lenBefore != other.lenBefore {
		return ChangeSet{}, fmt.Errorf("transform %d chars over %d: %w", cs.lenBefore, other.lenBefore, ErrLengthMismatch)
	}

	var out ChangeSet
	a, b := newOpCursor(cs.ops), newOpCursor(other.ops)
	for {
		opA, okA := a.peek()
		opB, okB := b.peek()

		switch {
		case !okA && !okB:
			return out, nil
		case okA && opA.Kind == OpInsert && (first || !okB || opB.Kind != OpInsert):
			out.push(opA)
			a.advance()
		case okB && opB.Kind == OpInsert:
			out.push(Retain(opLen(opB)))
			b.advance()
		case !okA || !okB:
			return ChangeSet{}, fmt.Errorf("transform ran out of operations: %w", ErrLengthMismatch)
		default:
			// Both are Retain or Delete over the same characters.
			n := min(opLen(opA), opLen(opB))
			a.take(n)
			b.take(n)
			if opB.Kind == OpRetain {
				out.push(Operation{Kind: opA.Kind, N: n})
			}
		}
	}
}

// opLen returns how many characters an op spans on the side being composed.
func opLen(op Operation) int {
	if op.Kind == OpInsert {
		return utf8.RuneCountInString(op.Text)
	}
	return op.N
}

// opCursor walks a list of operations and can split the current one.
type opCursor struct {
	ops []Operation
	i   int
	cur Operation
	ok  bool
}

func newOpCursor(ops []Operation) *opCursor {
	c := &opCursor{ops: ops, i: -1}
	c.advance()
	return c
}

func (c *opCursor) peek() (Operation, bool) {
	return c.cur, c.ok
}

func (c *opCursor) advance() {
	c.i++
	c.ok = c.i < len(c.ops)
	if c.ok {
		c.cur = c.ops[c.i]
	}
}

// take consumes n characters of the current operation and returns them as
// an operation of the same kind.
func (c *opCursor) take(n int) Operation {
	op := c.cur
	if opLen(op) == n {
		c.advance()
		return op
	}
	if op.Kind == OpInsert {
		cut := charToByte(op.Text, n)
		c.cur = InsertText(op.Text[cut:])
		return InsertText(op.Text[:cut])
	}
	c.cur.N -= n
	return Operation{Kind: op.Kind, N: n}
}

func charToByte(s string, n int) int {
	for i := range s {
		if n == 0 {
			return i
		}
		n--
	}
	return len(s)
}
