package buffer

import (
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/dshills/editcore/internal/engine/rope"
)

// ErrOutOfBounds is returned when a position, line or range lies outside the
// buffer.
var ErrOutOfBounds = errors.New("position out of bounds")

// Buffer is one immutable revision of a document's text.
// The zero value is an empty buffer at revision 0.
type Buffer struct {
	rope       rope.Rope
	revision   Revision
	lineEnding LineEnding
}

// New creates a buffer holding text.
func New(text string, opts ...Option) Buffer {
	b := Buffer{
		rope:       rope.FromString(text),
		revision:   NewRevision(),
		lineEnding: LineEndingLF,
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// FromReader creates a buffer from the contents of r.
func FromReader(r io.Reader, opts ...Option) (Buffer, error) {
	rp, err := rope.FromReader(r)
	if err != nil {
		return Buffer{}, fmt.Errorf("read buffer: %w", err)
	}
	b := Buffer{
		rope:       rp,
		revision:   NewRevision(),
		lineEnding: LineEndingLF,
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b, nil
}

// Rope returns the underlying rope.
func (b Buffer) Rope() rope.Rope {
	return b.rope
}

// Revision returns the buffer's revision number.
func (b Buffer) Revision() Revision {
	return b.revision
}

// LineEnding returns the line ending recorded for the buffer.
func (b Buffer) LineEnding() LineEnding {
	return b.lineEnding
}

// String returns the full text.
func (b Buffer) String() string {
	return b.rope.String()
}

// Equal reports whether two buffers hold the same text.
// Revisions and line endings are not compared.
func (b Buffer) Equal(other Buffer) bool {
	return b.rope.Equals(other.rope)
}

// IsEmpty returns true if the buffer holds no text.
func (b Buffer) IsEmpty() bool {
	return b.rope.IsEmpty()
}

// LenChars returns the number of characters.
func (b Buffer) LenChars() int {
	return int(b.rope.CharLen())
}

// LenBytes returns the UTF-8 byte length.
func (b Buffer) LenBytes() int {
	return int(b.rope.Len())
}

// LenLines returns the number of lines. An empty buffer has one line, and
// a trailing newline starts a final empty line.
func (b Buffer) LenLines() int {
	return int(b.rope.LineCount())
}

// Slice returns the text in the character range [from, to).
func (b Buffer) Slice(from, to int) (string, error) {
	if err := b.checkRange(from, to); err != nil {
		return "", err
	}
	return b.rope.Slice(b.byteOf(from), b.byteOf(to)), nil
}

// CharAt returns the character at pos.
func (b Buffer) CharAt(pos int) (rune, error) {
	if pos < 0 || pos >= b.LenChars() {
		return utf8.RuneError, fmt.Errorf("char %d of %d: %w", pos, b.LenChars(), ErrOutOfBounds)
	}
	it := b.rope.RunesFrom(b.byteOf(pos))
	if !it.Next() {
		return utf8.RuneError, fmt.Errorf("char %d: %w", pos, ErrOutOfBounds)
	}
	return it.Rune(), nil
}

// Replace returns a new revision with the characters in [from, to)
// replaced by text. The receiver is not modified.
func (b Buffer) Replace(from, to int, text string) (Buffer, error) {
	return b.ApplyEdits([]Edit{{From: from, To: to, Text: text}})
}

// ApplyEdits returns a new revision with all edits applied. Edit ranges are
// expressed against the receiver and must be sorted and non-overlapping;
// adjacent edits are allowed. Either every edit applies or none does.
func (b Buffer) ApplyEdits(edits []Edit) (Buffer, error) {
	n := b.LenChars()
	prev := 0
	for i, e := range edits {
		if err := b.checkRange(e.From, e.To); err != nil {
			return Buffer{}, fmt.Errorf("edit %d: %w", i, err)
		}
		if e.From < prev {
			return Buffer{}, fmt.Errorf("edit %d at %d precedes %d: %w", i, e.From, prev, ErrEditsOverlap)
		}
		prev = e.To
	}
	if prev > n {
		return Buffer{}, fmt.Errorf("edit end %d of %d: %w", prev, n, ErrOutOfBounds)
	}

	next := rope.New()
	consumed := rope.ByteOffset(0)
	for _, e := range edits {
		start, end := b.byteOf(e.From), b.byteOf(e.To)
		next = next.Concat(b.subRope(consumed, start))
		if e.Text != "" {
			next = next.Concat(rope.FromString(e.Text))
		}
		consumed = end
	}
	next = next.Concat(b.subRope(consumed, b.rope.Len()))

	return Buffer{
		rope:       next,
		revision:   NewRevision(),
		lineEnding: b.lineEnding,
	}, nil
}

// subRope returns the bytes [start, end) as a rope sharing b's chunks.
func (b Buffer) subRope(start, end rope.ByteOffset) rope.Rope {
	if start >= end {
		return rope.New()
	}
	_, rest := b.rope.Split(start)
	sub, _ := rest.Split(end - start)
	return sub
}

func (b Buffer) checkRange(from, to int) error {
	if from < 0 || to < from || to > b.LenChars() {
		return fmt.Errorf("range [%d, %d) of %d chars: %w", from, to, b.LenChars(), ErrOutOfBounds)
	}
	return nil
}

func (b Buffer) checkPos(pos int) error {
	if pos < 0 || pos > b.LenChars() {
		return fmt.Errorf("position %d of %d chars: %w", pos, b.LenChars(), ErrOutOfBounds)
	}
	return nil
}

func (b Buffer) byteOf(pos int) rope.ByteOffset {
	return b.rope.CharToByte(uint64(pos))
}
