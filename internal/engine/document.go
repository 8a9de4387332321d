package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/editcore/internal/engine/buffer"
	"github.com/dshills/editcore/internal/engine/history"
	"github.com/dshills/editcore/internal/engine/notify"
	"github.com/dshills/editcore/internal/engine/selection"
	"github.com/dshills/editcore/internal/engine/syntax"
	"github.com/dshills/editcore/internal/engine/transaction"
	"github.com/dshills/editcore/internal/grammar"
)

// ViewID identifies one view of a document. Each view has its own
// selection.
type ViewID uuid.UUID

// String returns the canonical UUID form.
func (id ViewID) String() string { return uuid.UUID(id).String() }

// Document is an editable text with undo history, syntax tree and any
// number of views.
//
// A Document has a single writer: Apply, Undo, Redo, SetText, SetSelection,
// SetLanguage and the view methods must not be called concurrently. Buffer,
// Revision, Language, Syntax, SyntaxStale, WaitSyntax, Highlights and
// MatchingBracket may be called from any goroutine.
type Document struct {
	buf     atomic.Pointer[buffer.Buffer]
	views   map[ViewID]selection.Selection
	history *history.History
	syntax  atomic.Pointer[syntaxState]

	notifier *notify.Notifier
	logger   *slog.Logger
	closed   bool

	// Configuration
	initText    string
	initLang    *grammar.Language
	lineEnding  buffer.LineEnding
	tabWidth    int
	historyOpts []history.Option
	originAssoc selection.Assoc
	idleDelay   time.Duration
	lexer       string
}

// New creates a document. With a language the initial text is parsed in
// the background right away.
func New(opts ...Option) *Document {
	d := &Document{
		views:       make(map[ViewID]selection.Selection),
		logger:      slog.New(slog.DiscardHandler),
		lineEnding:  buffer.LineEndingLF,
		tabWidth:    DefaultTabWidth,
		originAssoc: selection.Before,
	}
	for _, opt := range opts {
		opt(d)
	}

	buf := buffer.New(d.initText, buffer.WithLineEnding(d.lineEnding))
	d.buf.Store(&buf)
	d.history = history.New(append([]history.Option{history.WithLogger(d.logger)}, d.historyOpts...)...)

	d.syntax.Store(d.startSyntax(d.initLang))
	return d
}

// syntaxState is everything that depends on the document's language.
// SetLanguage swaps it whole so readers see one consistent set.
type syntaxState struct {
	lang  *grammar.Language
	sup   *syntax.Supervisor // nil in plain mode
	plain *syntax.PlainHighlighter
}

// startSyntax builds the state for lang. With a language it starts a
// supervisor and submits a full parse of the current buffer.
func (d *Document) startSyntax(lang *grammar.Language) *syntaxState {
	st := &syntaxState{lang: lang, plain: syntax.NewPlainHighlighter(d.plainName(lang))}
	if lang == nil {
		return st
	}
	st.sup = syntax.NewSupervisor(lang,
		syntax.WithIdleDelay(d.idleDelay),
		syntax.WithLogger(d.logger),
		syntax.OnInstall(func(t *syntax.Tree) {
			d.emit(notify.Event{Kind: notify.KindSyntax, Revision: t.Revision()})
		}),
	)
	if err := st.sup.Submit(d.Buffer(), nil); err != nil {
		d.logger.Warn("parse not started", "language", lang.Name, "error", err)
	}
	return st
}

// SetLanguage switches the document to lang, or to plain mode when lang is
// nil. The old tree is dropped and the text is parsed from scratch. It is
// the hook for grammar.Registry.OnChange when a highlight query reloads.
func (d *Document) SetLanguage(lang *grammar.Language) error {
	if d.closed {
		return ErrClosed
	}
	old := d.syntax.Swap(d.startSyntax(lang))
	if old.sup != nil {
		old.sup.Close()
	}
	return nil
}

// Buffer returns the current buffer revision.
func (d *Document) Buffer() buffer.Buffer { return *d.buf.Load() }

// Revision returns the current buffer revision number.
func (d *Document) Revision() buffer.Revision { return d.Buffer().Revision() }

// LineEnding returns the line ending the document was created with.
func (d *Document) LineEnding() buffer.LineEnding { return d.Buffer().LineEnding() }

// TabWidth returns the tab width.
func (d *Document) TabWidth() int { return d.tabWidth }

// Language returns the document's language, or nil in plain mode.
func (d *Document) Language() *grammar.Language { return d.syntax.Load().lang }

// History returns the undo history.
func (d *Document) History() *history.History { return d.history }

// ============================================================================
// Views
// ============================================================================

// OpenView adds a view with a cursor at the start of the buffer.
func (d *Document) OpenView() ViewID {
	id := ViewID(uuid.New())
	d.views[id] = selection.FromPoint(0)
	d.logger.Debug("view opened", "view", id)
	return id
}

// CloseView removes a view.
func (d *Document) CloseView(id ViewID) error {
	if _, ok := d.views[id]; !ok {
		return fmt.Errorf("close view %s: %w", id, ErrUnknownView)
	}
	delete(d.views, id)
	return nil
}

// Views returns the number of open views.
func (d *Document) Views() int { return len(d.views) }

// Selection returns the selection of a view.
func (d *Document) Selection(id ViewID) (selection.Selection, error) {
	sel, ok := d.views[id]
	if !ok {
		return selection.Selection{}, fmt.Errorf("selection of view %s: %w", id, ErrUnknownView)
	}
	return sel, nil
}

// SetSelection replaces the selection of a view. A selection that reaches
// past the end of the buffer is rejected.
func (d *Document) SetSelection(id ViewID, sel selection.Selection) error {
	if _, ok := d.views[id]; !ok {
		return fmt.Errorf("set selection of view %s: %w", id, ErrUnknownView)
	}
	if err := sel.Validate(d.Buffer().LenChars()); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSelection, err)
	}
	d.views[id] = sel
	d.emit(notify.Event{Kind: notify.KindSelection, Revision: d.Revision(), View: id.String()})
	return nil
}

// ============================================================================
// Editing
// ============================================================================

// Apply applies tx on behalf of view. Either everything happens or nothing
// does: the buffer advances, every view's selection is mapped through the
// change, the edit is recorded for undo unless tx is non-undoable, and a
// reparse is requested. The editing view takes the selection carried by
// tx; without one its cursors are mapped with the origin assoc.
func (d *Document) Apply(tx transaction.Transaction, view ViewID) (buffer.Revision, error) {
	return d.ApplyKeyed(tx, view, "")
}

// ApplyKeyed is Apply with a coalescing key. Consecutive edits sharing a
// non-empty key within the history's window undo as one.
func (d *Document) ApplyKeyed(tx transaction.Transaction, view ViewID, key string) (buffer.Revision, error) {
	if d.closed {
		return d.Revision(), ErrClosed
	}
	before, ok := d.views[view]
	if !ok {
		return d.Revision(), fmt.Errorf("apply: view %s: %w", view, ErrUnknownView)
	}

	s := d.stage()
	if err := s.apply(tx, view, nil); err != nil {
		return d.Revision(), fmt.Errorf("apply: %w", err)
	}
	if s.buf.Revision() == d.Revision() {
		return d.publishSelections(s, view), nil
	}

	if tx.Undoable() {
		inv, err := tx.Invert(d.Buffer())
		if err != nil {
			return d.Revision(), fmt.Errorf("apply: %w", err)
		}
		e := history.Entry{Transaction: tx, Inverse: inv, Before: before, View: uuid.UUID(view), Key: key}
		if err := d.history.Commit(e); err != nil {
			return d.Revision(), fmt.Errorf("apply: record history: %w", err)
		}
	} else if err := d.history.Rebase(tx.ChangeSet(), s.buf); err != nil {
		return d.Revision(), fmt.Errorf("apply: rebase history: %w", err)
	}
	return d.publish(s, notify.KindEdit, view), nil
}

// SetText replaces the whole text with text, as an undoable edit made by
// view. Only the differing regions change, so selections and the syntax
// tree outside them survive.
func (d *Document) SetText(view ViewID, text string) (buffer.Revision, error) {
	old := d.Buffer()
	tx := transaction.New(transaction.FromDiff(old, buffer.New(text)))
	rev, err := d.Apply(tx, view)
	if err != nil {
		return rev, fmt.Errorf("set text: %w", err)
	}
	d.emit(notify.Event{Kind: notify.KindReload, Revision: rev, View: view.String()})
	return rev, nil
}

// Checkpoint ends the current undo step; the next edit starts a new one.
func (d *Document) Checkpoint() { d.history.Checkpoint() }

// Undo reverts the most recent undo step. The view that made the step gets
// back the selection it had before it. With nothing to undo the revision
// is unchanged and the error is nil.
func (d *Document) Undo(view ViewID) (buffer.Revision, error) {
	return d.UndoN(view, 1)
}

// Redo reapplies the most recently undone step.
func (d *Document) Redo(view ViewID) (buffer.Revision, error) {
	return d.RedoN(view, 1)
}

// UndoN reverts up to n steps. The view that made each step gets back the
// selection it had before; every other view, including the caller when it
// is not that view, is mapped through the undo.
func (d *Document) UndoN(view ViewID, n int) (buffer.Revision, error) {
	if d.closed {
		return d.Revision(), ErrClosed
	}
	if _, ok := d.views[view]; !ok {
		return d.Revision(), fmt.Errorf("undo: view %s: %w", view, ErrUnknownView)
	}

	entries := d.history.UndoN(n)
	if len(entries) == 0 {
		return d.Revision(), nil
	}
	s := d.stage()
	for _, e := range entries {
		if err := s.apply(e.Inverse, ViewID(e.View), &e.Before); err != nil {
			d.history.Restore(len(entries))
			return d.Revision(), fmt.Errorf("undo: %w", err)
		}
	}
	return d.publish(s, notify.KindUndo, view), nil
}

// RedoN reapplies up to n undone steps.
func (d *Document) RedoN(view ViewID, n int) (buffer.Revision, error) {
	if d.closed {
		return d.Revision(), ErrClosed
	}
	if _, ok := d.views[view]; !ok {
		return d.Revision(), fmt.Errorf("redo: view %s: %w", view, ErrUnknownView)
	}

	entries := d.history.RedoN(n)
	if len(entries) == 0 {
		return d.Revision(), nil
	}
	s := d.stage()
	for _, e := range entries {
		if err := s.apply(e.Transaction, ViewID(e.View), nil); err != nil {
			d.history.Rewind(len(entries))
			return d.Revision(), fmt.Errorf("redo: %w", err)
		}
	}
	return d.publish(s, notify.KindRedo, view), nil
}

// stage collects the effect of one or more transactions without touching
// the document.
type stage struct {
	d       *Document
	start   buffer.Buffer
	buf     buffer.Buffer
	views   map[ViewID]selection.Selection
	edits   []syntax.InputEdit
	changes []transaction.Change
}

func (d *Document) stage() *stage {
	buf := d.Buffer()
	return &stage{d: d, start: buf, buf: buf, views: maps.Clone(d.views)}
}

// apply runs tx against the staged buffer. When sel is not nil it becomes
// the selection of view.
func (s *stage) apply(tx transaction.Transaction, view ViewID, sel *selection.Selection) error {
	updated, err := tx.Apply(s.buf)
	if err != nil {
		return err
	}
	cs := tx.ChangeSet()
	for id, cur := range s.views {
		switch {
		case id != view:
			s.views[id] = cur.Map(cs)
		case sel != nil:
			s.views[id] = *sel
		default:
			if txSel, ok := tx.Selection(); ok {
				s.views[id] = txSel
			} else {
				s.views[id] = cur.MapAssoc(cs, s.d.originAssoc)
			}
		}
	}
	if cur, ok := s.views[view]; ok {
		if err := cur.Validate(updated.LenChars()); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidSelection, err)
		}
	}

	if updated.Revision() != s.buf.Revision() {
		if s.d.syntax.Load().sup != nil {
			edits, err := syntax.EditsFromChangeSet(cs, s.buf, updated)
			if err != nil {
				return err
			}
			s.edits = append(s.edits, edits...)
		}
		s.changes = append(s.changes, cs.Changes()...)
	}
	s.buf = updated
	return nil
}

// publish installs a stage. Nothing after this point can fail.
func (d *Document) publish(s *stage, kind notify.Kind, view ViewID) buffer.Revision {
	d.buf.Store(&s.buf)
	d.views = s.views
	rev := s.buf.Revision()

	if sup := d.syntax.Load().sup; sup != nil {
		if err := sup.Submit(s.buf, s.edits); err != nil {
			d.logger.Warn("reparse not started", "revision", rev, "error", err)
		}
	}
	d.logger.Debug("document changed", "kind", kind, "revision", rev, "changes", len(s.changes))
	d.emit(notify.Event{Kind: kind, Revision: rev, View: view.String(), Changes: s.changes})
	return rev
}

// publishSelections installs the selections of a stage that left the text
// unchanged.
func (d *Document) publishSelections(s *stage, view ViewID) buffer.Revision {
	changed := !s.views[view].Equal(d.views[view])
	d.views = s.views
	if changed {
		d.emit(notify.Event{Kind: notify.KindSelection, Revision: d.Revision(), View: view.String()})
	}
	return d.Revision()
}

func (d *Document) emit(ev notify.Event) {
	if d.notifier != nil {
		d.notifier.Notify(ev)
	}
}

// ============================================================================
// Syntax
// ============================================================================

// Syntax returns the latest installed syntax tree. It may belong to an
// older revision than Buffer; see SyntaxStale. It is nil in plain mode and
// until the first parse finishes.
func (d *Document) Syntax() *syntax.Tree {
	sup := d.syntax.Load().sup
	if sup == nil {
		return nil
	}
	return sup.Current()
}

// SyntaxStale reports whether the syntax tree lags behind the buffer.
func (d *Document) SyntaxStale() bool {
	sup := d.syntax.Load().sup
	return sup != nil && sup.Stale()
}

// WaitSyntax blocks until the syntax tree matches the buffer. In plain
// mode it returns at once. A language switch while waiting moves the wait
// to the new parser.
func (d *Document) WaitSyntax(ctx context.Context) error {
	for {
		st := d.syntax.Load()
		if st.sup == nil {
			return nil
		}
		err := st.sup.Wait(ctx)
		if errors.Is(err, syntax.ErrSupervisorClosed) && d.syntax.Load() != st {
			continue
		}
		return err
	}
}

// freshTree returns the syntax tree if it matches the current buffer.
func (d *Document) freshTree() (*syntax.Tree, bool) {
	t := d.Syntax()
	if t == nil || t.Revision() != d.Revision() {
		return nil, false
	}
	return t, true
}

// Highlights returns highlight events for r. A document whose tree is not
// ready, or that has no language, is highlighted by a lexer instead.
func (d *Document) Highlights(r syntax.ByteRange) (*syntax.HighlightIterator, error) {
	if t, ok := d.freshTree(); ok {
		return t.Highlights(r)
	}
	return d.syntax.Load().plain.Highlights(d.Buffer(), r)
}

func (d *Document) plainName(lang *grammar.Language) string {
	if d.lexer != "" {
		return d.lexer
	}
	if lang != nil {
		return lang.Name
	}
	return ""
}

// MatchingBracket returns the bracket paired with the one at pos, using
// the syntax tree when it is current and counting otherwise.
func (d *Document) MatchingBracket(pos int) (int, bool) {
	if t, ok := d.freshTree(); ok {
		return t.MatchingBracket(pos)
	}
	return syntax.MatchingBracketPlain(d.Buffer(), pos, d.Language().BracketPairs())
}

// ============================================================================
// Lifecycle
// ============================================================================

// Close stops background parsing. Later edits fail with ErrClosed; the
// buffer and last syntax tree stay readable.
func (d *Document) Close() {
	if d.closed {
		return
	}
	d.closed = true
	if sup := d.syntax.Load().sup; sup != nil {
		sup.Close()
	}
	d.emit(notify.Event{Kind: notify.KindClose, Revision: d.Revision()})
}
