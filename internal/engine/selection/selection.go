package selection

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Errors returned when building or validating a selection.
var (
	ErrEmpty        = errors.New("selection has no ranges")
	ErrPrimaryIndex = errors.New("primary index out of range")
	ErrOutOfBounds  = errors.New("range outside buffer")
)

// Selection is an ordered set of non-overlapping ranges with one primary.
// The zero value is a single cursor at 0.
type Selection struct {
	ranges  []Range
	primary int
}

// Single creates a selection holding one range.
func Single(anchor, head int) Selection {
	return Selection{ranges: []Range{{Anchor: anchor, Head: head}}}
}

// FromPoint creates a selection holding one cursor at pos.
func FromPoint(pos int) Selection {
	return Single(pos, pos)
}

// New creates a selection from ranges, merging overlaps. primary indexes
// into ranges as given; after merging, the primary is whichever range
// absorbed it.
func New(ranges []Range, primary int) (Selection, error) {
	if len(ranges) == 0 {
		return Selection{}, ErrEmpty
	}
	if primary < 0 || primary >= len(ranges) {
		return Selection{}, fmt.Errorf("primary %d of %d ranges: %w", primary, len(ranges), ErrPrimaryIndex)
	}
	rs := make([]Range, len(ranges))
	copy(rs, ranges)
	return normalize(rs, primary), nil
}

// Ranges returns a copy of the ranges in document order.
func (s Selection) Ranges() []Range {
	if len(s.ranges) == 0 {
		return []Range{{}}
	}
	out := make([]Range, len(s.ranges))
	copy(out, s.ranges)
	return out
}

// Len returns the number of ranges.
func (s Selection) Len() int {
	return max(len(s.ranges), 1)
}

// At returns the i-th range in document order.
func (s Selection) At(i int) Range {
	if len(s.ranges) == 0 {
		return Range{}
	}
	return s.ranges[i]
}

// Primary returns the primary range.
func (s Selection) Primary() Range {
	return s.At(s.primary)
}

// PrimaryIndex returns the index of the primary range.
func (s Selection) PrimaryIndex() int {
	return s.primary
}

// SetPrimary returns the selection with the i-th range as primary.
func (s Selection) SetPrimary(i int) (Selection, error) {
	if i < 0 || i >= s.Len() {
		return s, fmt.Errorf("primary %d of %d ranges: %w", i, s.Len(), ErrPrimaryIndex)
	}
	return Selection{ranges: s.Ranges(), primary: i}, nil
}

// Push adds a range and makes it primary, merging overlaps.
func (s Selection) Push(r Range) Selection {
	rs := append(s.Ranges(), r)
	return normalize(rs, len(rs)-1)
}

// Remove drops the i-th range. The last range cannot be removed.
func (s Selection) Remove(i int) (Selection, error) {
	if s.Len() == 1 {
		return s, ErrEmpty
	}
	if i < 0 || i >= s.Len() {
		return s, fmt.Errorf("remove %d of %d ranges: %w", i, s.Len(), ErrPrimaryIndex)
	}
	rs := s.Ranges()
	rs = append(rs[:i], rs[i+1:]...)
	primary := s.primary
	if primary > i || primary == len(rs) {
		primary--
	}
	return Selection{ranges: rs, primary: primary}, nil
}

// IntoSingle keeps only the primary range.
func (s Selection) IntoSingle() Selection {
	return Selection{ranges: []Range{s.Primary()}}
}

// Replace swaps the i-th range and re-normalizes.
func (s Selection) Replace(i int, r Range) Selection {
	rs := s.Ranges()
	rs[i] = r
	return normalize(rs, s.primary)
}

// Transform applies f to every range and re-normalizes.
func (s Selection) Transform(f func(Range) Range) Selection {
	rs := s.Ranges()
	for i, r := range rs {
		rs[i] = f(r)
	}
	return normalize(rs, s.primary)
}

// Cursors collapses every range to a cursor at its head.
func (s Selection) Cursors() Selection {
	return s.Transform(func(r Range) Range { return Point(r.Head) })
}

// Map maps every range through an edit. Cursors sitting exactly where text
// is inserted land after it.
func (s Selection) Map(m Mapper) Selection {
	return s.MapAssoc(m, After)
}

// MapAssoc maps every range through an edit using assoc for cursors.
func (s Selection) MapAssoc(m Mapper, assoc Assoc) Selection {
	bm, ok := m.(BatchMapper)
	if !ok || s.Len() == 1 {
		return s.Transform(func(r Range) Range { return r.Map(m, assoc) })
	}

	rs := s.Ranges()
	positions := make([]int, 0, 2*len(rs))
	assocs := make([]Assoc, 0, 2*len(rs))
	for _, r := range rs {
		if r.IsEmpty() {
			positions = append(positions, r.Head, r.Head)
			assocs = append(assocs, assoc, assoc)
			continue
		}
		positions = append(positions, r.From(), r.To())
		assocs = append(assocs, After, Before)
	}
	mapped := bm.MapPositions(positions, assocs)
	for i, r := range rs {
		rs[i] = r.mapped(mapped[2*i], mapped[2*i+1])
	}
	return normalize(rs, s.primary)
}

// Contains reports whether every range of other lies inside some range of s.
func (s Selection) Contains(other Selection) bool {
	for _, o := range other.Ranges() {
		inside := false
		for _, r := range s.Ranges() {
			if o.From() >= r.From() && o.To() <= r.To() {
				inside = true
				break
			}
		}
		if !inside {
			return false
		}
	}
	return true
}

// Validate checks that every range lies within a buffer of length n.
func (s Selection) Validate(n int) error {
	for i, r := range s.Ranges() {
		if r.From() < 0 || r.To() > n {
			return fmt.Errorf("range %d %v with %d chars: %w", i, r, n, ErrOutOfBounds)
		}
	}
	return nil
}

// Equal reports whether two selections have the same ranges and primary.
func (s Selection) Equal(other Selection) bool {
	if s.Len() != other.Len() || s.primary != other.primary {
		return false
	}
	for i := 0; i < s.Len(); i++ {
		if s.At(i) != other.At(i) {
			return false
		}
	}
	return true
}

// String returns a string representation of the selection; the primary
// range is starred.
func (s Selection) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, r := range s.Ranges() {
		if i > 0 {
			sb.WriteString(", ")
		}
		if i == s.primary {
			sb.WriteByte('*')
		}
		sb.WriteString(r.String())
	}
	sb.WriteByte(']')
	return sb.String()
}

// normalize sorts ranges and merges overlapping ones, keeping track of the
// range that holds the primary.
func normalize(ranges []Range, primary int) Selection {
	if len(ranges) == 1 {
		return Selection{ranges: ranges}
	}

	type tagged struct {
		r       Range
		primary bool
	}
	items := make([]tagged, len(ranges))
	for i, r := range ranges {
		items[i] = tagged{r: r, primary: i == primary}
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].r.From() != items[j].r.From() {
			return items[i].r.From() < items[j].r.From()
		}
		return items[i].r.To() < items[j].r.To()
	})

	out := make([]Range, 0, len(items))
	newPrimary := 0
	for _, it := range items {
		if n := len(out); n > 0 && out[n-1].Overlaps(it.r) {
			out[n-1] = out[n-1].Merge(it.r)
		} else {
			out = append(out, it.r)
		}
		if it.primary {
			newPrimary = len(out) - 1
		}
	}
	return Selection{ranges: out, primary: newPrimary}
}
