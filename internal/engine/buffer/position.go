package buffer

import (
	"fmt"
	"sync/atomic"
	"unicode/utf8"

	"github.com/dshills/editcore/internal/engine/rope"
)

// Point represents a line and column position.
// Both Line and Column are 0-indexed; Column is measured in bytes from the
// start of the line, which is what the syntax parser expects.
type Point struct {
	Line   uint32
	Column uint32
}

// String returns a human-readable representation of the point.
func (p Point) String() string {
	return fmt.Sprintf("(%d:%d)", p.Line, p.Column)
}

// Compare returns -1 if p < other, 0 if p == other, 1 if p > other.
func (p Point) Compare(other Point) int {
	switch {
	case p.Line != other.Line:
		return cmpUint32(p.Line, other.Line)
	default:
		return cmpUint32(p.Column, other.Column)
	}
}

// PointUTF16 is a line and column position where the column is measured in
// UTF-16 code units, as language server clients count them.
type PointUTF16 struct {
	Line   uint32
	Column uint32
}

// String returns a human-readable representation of the point.
func (p PointUTF16) String() string {
	return fmt.Sprintf("(%d:%d utf16)", p.Line, p.Column)
}

func cmpUint32(a, b uint32) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Revision identifies one buffer revision. Every buffer produced by New,
// FromReader or an edit gets a fresh, strictly larger number.
type Revision uint64

var revisionCounter atomic.Uint64

// NewRevision returns the next revision number.
func NewRevision() Revision {
	return Revision(revisionCounter.Add(1))
}

// CharToLine returns the line containing pos.
func (b Buffer) CharToLine(pos int) (int, error) {
	if err := b.checkPos(pos); err != nil {
		return 0, err
	}
	return int(b.rope.ByteToLine(b.byteOf(pos))), nil
}

// LineToChar returns the position of the first character of line.
func (b Buffer) LineToChar(line int) (int, error) {
	if err := b.checkLine(line); err != nil {
		return 0, err
	}
	return int(b.rope.ByteToChar(b.rope.LineStartOffset(uint32(line)))), nil
}

// LineEndChar returns the position just past the last character of line,
// excluding its line break ("\n" or "\r\n").
func (b Buffer) LineEndChar(line int) (int, error) {
	if err := b.checkLine(line); err != nil {
		return 0, err
	}
	end := b.lineContentEnd(uint32(line))
	return int(b.rope.ByteToChar(end)), nil
}

// Line returns the text of line without its line break.
func (b Buffer) Line(line int) (string, error) {
	if err := b.checkLine(line); err != nil {
		return "", err
	}
	start := b.rope.LineStartOffset(uint32(line))
	return b.rope.Slice(start, b.lineContentEnd(uint32(line))), nil
}

func (b Buffer) lineContentEnd(line uint32) rope.ByteOffset {
	start := b.rope.LineStartOffset(line)
	end := b.rope.LineEndOffset(line)
	if end > start && line+1 < b.rope.LineCount() {
		if c, ok := b.rope.ByteAt(end - 1); ok && c == '\r' {
			end--
		}
	}
	return end
}

func (b Buffer) checkLine(line int) error {
	if line < 0 || line >= b.LenLines() {
		return fmt.Errorf("line %d of %d: %w", line, b.LenLines(), ErrOutOfBounds)
	}
	return nil
}

// CharToByte converts a character position to a byte offset.
func (b Buffer) CharToByte(pos int) (int, error) {
	if err := b.checkPos(pos); err != nil {
		return 0, err
	}
	return int(b.byteOf(pos)), nil
}

// ByteToChar converts a byte offset to a character position. Offsets inside
// a multi-byte character round up to the next character.
func (b Buffer) ByteToChar(offset int) (int, error) {
	if offset < 0 || offset > b.LenBytes() {
		return 0, fmt.Errorf("byte %d of %d: %w", offset, b.LenBytes(), ErrOutOfBounds)
	}
	return int(b.rope.ByteToChar(rope.ByteOffset(offset))), nil
}

// CharToPoint converts a character position to a line and byte column.
func (b Buffer) CharToPoint(pos int) (Point, error) {
	if err := b.checkPos(pos); err != nil {
		return Point{}, err
	}
	p := b.rope.OffsetToPoint(b.byteOf(pos))
	return Point{Line: p.Line, Column: p.Column}, nil
}

// PointToChar converts a line and byte column to a character position.
// Columns past the end of the line clamp to the line end.
func (b Buffer) PointToChar(p Point) (int, error) {
	if err := b.checkLine(int(p.Line)); err != nil {
		return 0, err
	}
	offset := b.rope.PointToOffset(rope.Point{Line: p.Line, Column: p.Column})
	return int(b.rope.ByteToChar(offset)), nil
}

// CharToUTF16 converts a character position to a line and UTF-16 column.
func (b Buffer) CharToUTF16(pos int) (PointUTF16, error) {
	if err := b.checkPos(pos); err != nil {
		return PointUTF16{}, err
	}
	offset := b.byteOf(pos)
	line := b.rope.ByteToLine(offset)
	lineStart := b.rope.LineStartOffset(line)
	col := b.rope.ByteToUTF16(offset) - b.rope.ByteToUTF16(lineStart)
	return PointUTF16{Line: line, Column: uint32(col)}, nil
}

// UTF16ToChar converts a line and UTF-16 column to a character position.
// Columns past the end of the line clamp to the line end.
func (b Buffer) UTF16ToChar(p PointUTF16) (int, error) {
	if err := b.checkLine(int(p.Line)); err != nil {
		return 0, err
	}
	lineStart, err := b.LineToChar(int(p.Line))
	if err != nil {
		return 0, err
	}
	text, err := b.Line(int(p.Line))
	if err != nil {
		return 0, err
	}

	var units uint32
	pos := lineStart
	for _, r := range text {
		if units >= p.Column {
			break
		}
		units += uint32(utf16Len(r))
		pos++
	}
	return pos, nil
}

func utf16Len(r rune) int {
	if r >= 0x10000 {
		return 2
	}
	return 1
}

func charCount(s string) int {
	return utf8.RuneCountInString(s)
}
