package syntax

import (
	"cmp"
	"slices"

	sitter "github.com/smacker/go-tree-sitter"
)

// HighlightEvent colours one span of bytes with a capture name such as
// "keyword" or "function.call".
type HighlightEvent struct {
	Range   ByteRange
	Capture string
}

// HighlightIterator yields highlight events in document order. Events never
// overlap; bytes without a capture produce no event.
type HighlightIterator struct {
	events []HighlightEvent
	pos    int
}

// Next advances to the next event.
func (it *HighlightIterator) Next() bool {
	if it.pos >= len(it.events) {
		return false
	}
	it.pos++
	return true
}

// Event returns the current event.
func (it *HighlightIterator) Event() HighlightEvent {
	return it.events[it.pos-1]
}

// Collect drains the iterator.
func (it *HighlightIterator) Collect() []HighlightEvent {
	out := it.events[it.pos:]
	it.pos = len(it.events)
	return out
}

type capture struct {
	start, end int
	pattern    uint16
	seq        int
	name       string
}

// Highlights runs the language's highlight query over r. Where captures
// overlap, the innermost one wins; on the same node the pattern that comes
// later in the query wins. A language without a query yields no events.
func (t *Tree) Highlights(r ByteRange) (*HighlightIterator, error) {
	q, err := t.lang.HighlightQuery()
	if err != nil {
		return nil, err
	}
	if q == nil {
		return &HighlightIterator{}, nil
	}
	r.Start = max(r.Start, 0)
	r.End = min(r.End, len(t.src))
	if r.Start >= r.End {
		return &HighlightIterator{}, nil
	}

	caps := t.captures(q, r)
	return &HighlightIterator{events: resolve(caps)}, nil
}

func (t *Tree) captures(q *sitter.Query, r ByteRange) []capture {
	t.mu.Lock()
	defer t.mu.Unlock()

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.SetPointRange(t.pointAt(r.Start), t.pointAt(r.End))
	qc.Exec(q, t.tree.RootNode())

	var caps []capture
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		m = qc.FilterPredicates(m, t.src)
		for _, c := range m.Captures {
			name := q.CaptureNameForId(c.Index)
			if name == "" || name[0] == '_' {
				continue
			}
			start := max(int(c.Node.StartByte()), r.Start)
			end := min(int(c.Node.EndByte()), r.End)
			if start >= end {
				continue
			}
			caps = append(caps, capture{
				start:   start,
				end:     end,
				pattern: m.PatternIndex,
				seq:     len(caps),
				name:    name,
			})
		}
	}
	return caps
}

// resolve flattens overlapping captures into disjoint events. Captures are
// pushed outermost first, so the top of the stack is always the most
// specific capture covering the current byte.
func resolve(caps []capture) []HighlightEvent {
	slices.SortFunc(caps, func(a, b capture) int {
		return cmp.Or(
			cmp.Compare(a.start, b.start),
			cmp.Compare(b.end, a.end),
			cmp.Compare(a.pattern, b.pattern),
			cmp.Compare(a.seq, b.seq),
		)
	})

	var (
		out   []HighlightEvent
		stack []capture
		pos   int
	)
	emit := func(from, to int, name string) {
		if from >= to {
			return
		}
		if n := len(out); n > 0 && out[n-1].Range.End == from && out[n-1].Capture == name {
			out[n-1].Range.End = to
			return
		}
		out = append(out, HighlightEvent{Range: ByteRange{Start: from, End: to}, Capture: name})
	}
	pop := func(until int) {
		for len(stack) > 0 {
			top := stack[len(stack)-1]
			if top.end > until {
				return
			}
			emit(pos, top.end, top.name)
			pos = max(pos, top.end)
			stack = stack[:len(stack)-1]
		}
	}

	for _, c := range caps {
		pop(c.start)
		if len(stack) > 0 {
			emit(pos, c.start, stack[len(stack)-1].name)
		}
		pos = max(pos, c.start)
		stack = append(stack, c)
	}
	pop(int(^uint(0) >> 1))
	return out
}
