package transaction

import (
	"sort"
	"unicode/utf8"

	"github.com/dshills/editcore/internal/engine/selection"
)

// Assoc decides where a position lands when text is inserted exactly at it.
type Assoc = selection.Assoc

const (
	Before = selection.Before
	After  = selection.After
)

// Change describes one contiguous edit: the characters [OldStart, OldEnd)
// of the old buffer were replaced by NewLen characters.
type Change struct {
	OldStart int
	OldEnd   int
	NewLen   int
}

// Changes returns the edit descriptors of cs, sorted and non-adjacent.
func (cs ChangeSet) Changes() []Change {
	edits := cs.Edits()
	out := make([]Change, len(edits))
	for i, e := range edits {
		out[i] = Change{OldStart: e.From, OldEnd: e.To, NewLen: utf8.RuneCountInString(e.Text)}
	}
	return out
}

// MapPositions maps positions of the old buffer through changes:
//
//   - a position before a change is unaffected by it
//   - a position after a change shifts by NewLen minus the deleted length
//   - a position inside a deleted span collapses to the start of the span
//   - a position exactly where text is inserted uses its assoc
//
// changes must be sorted and non-overlapping, as Changes returns them.
// assocs holds one entry per position, or a single entry for all.
func MapPositions(changes []Change, positions []int, assocs []Assoc) []int {
	out := make([]int, len(positions))
	order := make([]int, len(positions))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return positions[order[a]] < positions[order[b]] })

	ci, delta := 0, 0
	for _, idx := range order {
		pos := positions[idx]
		assoc := After
		switch {
		case len(assocs) == 1:
			assoc = assocs[0]
		case idx < len(assocs):
			assoc = assocs[idx]
		}

		for ci < len(changes) && changes[ci].OldEnd <= pos && changes[ci].OldStart < pos {
			c := changes[ci]
			delta += c.NewLen - (c.OldEnd - c.OldStart)
			ci++
		}

		if ci == len(changes) || pos < changes[ci].OldStart {
			out[idx] = pos + delta
			continue
		}

		start := changes[ci].OldStart + delta
		if assoc == Before {
			out[idx] = start
		} else {
			out[idx] = start + changes[ci].NewLen
		}
	}
	return out
}

// MapPos maps a single position through the changes.
func (cs ChangeSet) MapPos(pos int, assoc Assoc) int {
	return MapPositions(cs.Changes(), []int{pos}, []Assoc{assoc})[0]
}

// MapPositions maps many positions in one pass.
func (cs ChangeSet) MapPositions(positions []int, assocs []Assoc) []int {
	return MapPositions(cs.Changes(), positions, assocs)
}
