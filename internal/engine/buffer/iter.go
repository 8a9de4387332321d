package buffer

import (
	"github.com/rivo/uniseg"

	"github.com/dshills/editcore/internal/engine/rope"
)

// graphemeWindow bounds how many characters a boundary search looks at.
// Clusters longer than this are split.
const graphemeWindow = 64

// CharIterator walks characters forward from a position.
type CharIterator struct {
	runes *rope.RuneIterator
	pos   int
}

// Chars returns an iterator over the characters starting at from.
// A from outside the buffer yields nothing.
func (b Buffer) Chars(from int) *CharIterator {
	if b.checkPos(from) != nil {
		return &CharIterator{runes: rope.New().Runes(), pos: from - 1}
	}
	return &CharIterator{runes: b.rope.RunesFrom(b.byteOf(from)), pos: from - 1}
}

// Next advances to the next character.
func (it *CharIterator) Next() bool {
	if !it.runes.Next() {
		return false
	}
	it.pos++
	return true
}

// Rune returns the current character.
func (it *CharIterator) Rune() rune {
	return it.runes.Rune()
}

// Pos returns the position of the current character.
func (it *CharIterator) Pos() int {
	return it.pos
}

// ReverseCharIterator walks characters backward from a position.
type ReverseCharIterator struct {
	runes *rope.ReverseRuneIterator
	pos   int
}

// CharsBefore returns an iterator over the characters before pos, nearest
// first. A pos outside the buffer yields nothing.
func (b Buffer) CharsBefore(pos int) *ReverseCharIterator {
	if b.checkPos(pos) != nil {
		return &ReverseCharIterator{runes: rope.New().ReverseRunes()}
	}
	return &ReverseCharIterator{runes: b.rope.ReverseRunesFrom(b.byteOf(pos)), pos: pos}
}

// Next moves to the previous character.
func (it *ReverseCharIterator) Next() bool {
	if !it.runes.Next() {
		return false
	}
	it.pos--
	return true
}

// Rune returns the current character.
func (it *ReverseCharIterator) Rune() rune {
	return it.runes.Rune()
}

// Pos returns the position of the current character.
func (it *ReverseCharIterator) Pos() int {
	return it.pos
}

// NextGraphemeBoundary returns the position after the grapheme cluster that
// starts at pos. At the end of the buffer it returns pos.
func (b Buffer) NextGraphemeBoundary(pos int) (int, error) {
	if err := b.checkPos(pos); err != nil {
		return 0, err
	}
	end := min(pos+graphemeWindow, b.LenChars())
	if end == pos {
		return pos, nil
	}
	text := b.rope.Slice(b.byteOf(pos), b.byteOf(end))
	cluster, _, _, _ := uniseg.FirstGraphemeClusterInString(text, -1)
	return pos + charCount(cluster), nil
}

// PrevGraphemeBoundary returns the start of the grapheme cluster that ends
// at pos. At the start of the buffer it returns 0.
func (b Buffer) PrevGraphemeBoundary(pos int) (int, error) {
	if err := b.checkPos(pos); err != nil {
		return 0, err
	}
	if pos == 0 {
		return 0, nil
	}
	start := max(pos-graphemeWindow, 0)
	text := b.rope.Slice(b.byteOf(start), b.byteOf(pos))

	boundary := start
	state := -1
	for text != "" {
		var cluster string
		cluster, text, _, state = uniseg.FirstGraphemeClusterInString(text, state)
		if text == "" {
			break
		}
		boundary += charCount(cluster)
	}
	return boundary, nil
}

// IsGraphemeBoundary reports whether pos falls between two grapheme
// clusters.
func (b Buffer) IsGraphemeBoundary(pos int) (bool, error) {
	if err := b.checkPos(pos); err != nil {
		return false, err
	}
	if pos == 0 || pos == b.LenChars() {
		return true, nil
	}
	prev, err := b.PrevGraphemeBoundary(pos)
	if err != nil {
		return false, err
	}
	next, err := b.NextGraphemeBoundary(prev)
	if err != nil {
		return false, err
	}
	return next == pos, nil
}
