package selection

import (
	"fmt"

	"github.com/dshills/editcore/internal/engine/buffer"
)

// Assoc decides where a position lands when text is inserted exactly at it.
type Assoc uint8

const (
	// Before keeps the position in front of the inserted text.
	Before Assoc = iota
	// After moves the position past the inserted text.
	After
)

// String returns "before" or "after".
func (a Assoc) String() string {
	if a == Before {
		return "before"
	}
	return "after"
}

// Mapper maps positions of one buffer revision onto the next.
// transaction.ChangeSet implements it.
type Mapper interface {
	MapPos(pos int, assoc Assoc) int
}

// BatchMapper is a Mapper that can map many positions in one pass.
type BatchMapper interface {
	Mapper
	MapPositions(positions []int, assocs []Assoc) []int
}

// Direction is the direction a range extends in.
type Direction uint8

const (
	Forward Direction = iota
	Backward
)

// Range is an anchor/head pair of character positions.
type Range struct {
	Anchor int
	Head   int
}

// NewRange creates a range from anchor to head.
func NewRange(anchor, head int) Range {
	return Range{Anchor: anchor, Head: head}
}

// Point creates a zero-width range (a cursor) at pos.
func Point(pos int) Range {
	return Range{Anchor: pos, Head: pos}
}

// From returns the lower bound of the range.
func (r Range) From() int {
	return min(r.Anchor, r.Head)
}

// To returns the upper bound of the range.
func (r Range) To() int {
	return max(r.Anchor, r.Head)
}

// Len returns the number of characters covered.
func (r Range) Len() int {
	return r.To() - r.From()
}

// IsEmpty returns true if the range is a cursor.
func (r Range) IsEmpty() bool {
	return r.Anchor == r.Head
}

// Direction returns Backward when the head precedes the anchor.
func (r Range) Direction() Direction {
	if r.Head < r.Anchor {
		return Backward
	}
	return Forward
}

// WithDirection returns the same span extending in dir.
func (r Range) WithDirection(dir Direction) Range {
	if r.Direction() == dir {
		return r
	}
	return r.Flip()
}

// Flip swaps anchor and head.
func (r Range) Flip() Range {
	return Range{Anchor: r.Head, Head: r.Anchor}
}

// Extend returns a range grown to cover [from, to), keeping direction.
func (r Range) Extend(from, to int) Range {
	lo, hi := min(r.From(), from), max(r.To(), to)
	if r.Direction() == Backward {
		return Range{Anchor: hi, Head: lo}
	}
	return Range{Anchor: lo, Head: hi}
}

// PutCursor moves the head to pos. With extend false the anchor follows.
func (r Range) PutCursor(pos int, extend bool) Range {
	if extend {
		return Range{Anchor: r.Anchor, Head: pos}
	}
	return Point(pos)
}

// Cursor returns the head position.
func (r Range) Cursor() int {
	return r.Head
}

// Contains reports whether pos lies in [From, To).
func (r Range) Contains(pos int) bool {
	return pos >= r.From() && pos < r.To()
}

// Overlaps reports whether two ranges share a character, or start at the
// same position. Ranges that merely touch do not overlap.
func (r Range) Overlaps(other Range) bool {
	return r.From() == other.From() || (r.To() > other.From() && other.To() > r.From())
}

// Merge returns the smallest range covering both. The result is backward
// only when both inputs are.
func (r Range) Merge(other Range) Range {
	lo, hi := min(r.From(), other.From()), max(r.To(), other.To())
	if r.Direction() == Backward && other.Direction() == Backward {
		return Range{Anchor: hi, Head: lo}
	}
	return Range{Anchor: lo, Head: hi}
}

// Map maps the range through an edit. Cursors use assoc. A non-empty range
// keeps text inserted at its edges outside of it. A range whose span is
// deleted collapses to a cursor.
func (r Range) Map(m Mapper, assoc Assoc) Range {
	if r.IsEmpty() {
		return Point(m.MapPos(r.Head, assoc))
	}
	return r.mapped(m.MapPos(r.From(), After), m.MapPos(r.To(), Before))
}

// mapped rebuilds the range from its mapped bounds, keeping direction.
func (r Range) mapped(from, to int) Range {
	if r.IsEmpty() {
		return Point(from)
	}
	if to < from {
		to = from
	}
	if r.Direction() == Backward {
		return Range{Anchor: to, Head: from}
	}
	return Range{Anchor: from, Head: to}
}

// Fragment returns the text covered by the range.
func (r Range) Fragment(buf buffer.Buffer) (string, error) {
	return buf.Slice(r.From(), r.To())
}

// MinWidth1 widens a cursor to cover the grapheme cluster under it, so
// commands that act on "the selected text" have something to act on.
// Non-empty ranges and cursors at the end of the buffer are returned as is.
func (r Range) MinWidth1(buf buffer.Buffer) (Range, error) {
	if !r.IsEmpty() || r.Head >= buf.LenChars() {
		return r, nil
	}
	next, err := buf.NextGraphemeBoundary(r.Head)
	if err != nil {
		return r, err
	}
	return Range{Anchor: r.Head, Head: next}, nil
}

// String returns a string representation of the range.
func (r Range) String() string {
	if r.IsEmpty() {
		return fmt.Sprintf("Cursor(%d)", r.Head)
	}
	dir := "→"
	if r.Direction() == Backward {
		dir = "←"
	}
	return fmt.Sprintf("Range(%d%s%d)", r.Anchor, dir, r.Head)
}
