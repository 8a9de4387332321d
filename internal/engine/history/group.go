package history

// GroupScope closes a group opened with GroupScope, typically via defer:
//
//	defer h.GroupScope().End()
type GroupScope struct {
	history *History
	active  bool
}

// GroupScope starts a group and returns a handle that ends it.
func (h *History) GroupScope() *GroupScope {
	h.BeginGroup()
	return &GroupScope{history: h, active: true}
}

// End ends the group. Only the first call has effect.
func (g *GroupScope) End() error {
	if !g.active {
		return nil
	}
	g.active = false
	return g.history.EndGroup()
}

// Cancel ends the group without recording it. Edits already applied stay
// in the buffer; the caller is responsible for reverting them.
func (g *GroupScope) Cancel() {
	if g.active {
		g.history.CancelGroup()
		g.active = false
	}
}

// BeginGroup starts collecting commits into a single entry. Nested calls
// are ignored.
func (h *History) BeginGroup() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.grouping {
		return
	}
	h.grouping = true
	h.group = nil
}

// EndGroup commits the collected entry, if any.
func (h *History) EndGroup() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.grouping {
		return nil
	}
	h.grouping = false
	g := h.group
	h.group = nil
	if g == nil {
		return nil
	}
	// A group is its own undo step.
	h.sealed = true
	err := h.commitLocked(*g)
	h.sealed = true
	return err
}

// CancelGroup drops the collected entry.
func (h *History) CancelGroup() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.grouping = false
	h.group = nil
}

// IsGrouping returns true while a group is open.
func (h *History) IsGrouping() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.grouping
}

// Mark is a position in history that can be returned to.
type Mark struct {
	depth int
}

// Mark returns the current position.
func (h *History) Mark() Mark {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Mark{depth: h.cursor}
}

// UndoTo undoes every entry committed after m and returns them newest
// first. Returns nil if m is not behind the cursor.
func (h *History) UndoTo(m Mark) []Entry {
	return h.UndoN(h.UndoCount() - m.depth)
}
