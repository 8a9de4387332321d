package syntax

import (
	"github.com/dshills/editcore/internal/engine/buffer"
	"github.com/dshills/editcore/internal/grammar"
)

// bracketScanLimit bounds how far MatchingBracketPlain looks.
const bracketScanLimit = 10_000

// MatchingBracket returns the position of the bracket paired with the one at
// pos. Brackets are paired by the tree, so brackets inside strings and
// comments are never matched against code.
func (t *Tree) MatchingBracket(pos int) (int, bool) {
	ch, err := t.buf.CharAt(pos)
	if err != nil {
		return 0, false
	}
	pair, open, ok := findPair(t.lang.BracketPairs(), ch)
	if !ok {
		return 0, false
	}
	node, ok := t.NodeAt(pos)
	if !ok || node.Kind() != string(ch) || node.ChildCount() != 0 {
		return 0, false
	}

	want := string(pair.Close)
	step := Node.NextSibling
	if !open {
		want = string(pair.Open)
		step = Node.PrevSibling
	}
	for sib, ok := step(node); ok; sib, ok = step(sib) {
		if sib.Kind() != want {
			continue
		}
		if sib.IsMissing() {
			return 0, false
		}
		from, _ := sib.CharRange()
		return from, true
	}
	return 0, false
}

// MatchingBracketPlain pairs brackets by counting, without a syntax tree.
// Strings and comments are not recognised. The scan gives up after a fixed
// number of characters.
func MatchingBracketPlain(buf buffer.Buffer, pos int, pairs []grammar.BracketPair) (int, bool) {
	ch, err := buf.CharAt(pos)
	if err != nil {
		return 0, false
	}
	pair, open, ok := findPair(pairs, ch)
	if !ok {
		return 0, false
	}

	depth := 0
	if open {
		it := buf.Chars(pos)
		for n := 0; n < bracketScanLimit && it.Next(); n++ {
			switch it.Rune() {
			case pair.Open:
				depth++
			case pair.Close:
				depth--
				if depth == 0 {
					return it.Pos(), true
				}
			}
		}
		return 0, false
	}

	it := buf.CharsBefore(pos + 1)
	for n := 0; n < bracketScanLimit && it.Next(); n++ {
		switch it.Rune() {
		case pair.Close:
			depth++
		case pair.Open:
			depth--
			if depth == 0 {
				return it.Pos(), true
			}
		}
	}
	return 0, false
}

// findPair reports the pair ch belongs to and whether it opens it.
func findPair(pairs []grammar.BracketPair, ch rune) (grammar.BracketPair, bool, bool) {
	for _, p := range pairs {
		switch ch {
		case p.Open:
			return p, true, true
		case p.Close:
			return p, false, true
		}
	}
	return grammar.BracketPair{}, false, false
}
