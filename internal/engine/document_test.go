package engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dshills/editcore/internal/engine/buffer"
	"github.com/dshills/editcore/internal/engine/history"
	"github.com/dshills/editcore/internal/engine/notify"
	"github.com/dshills/editcore/internal/engine/selection"
	"github.com/dshills/editcore/internal/engine/syntax"
	"github.com/dshills/editcore/internal/engine/transaction"
	"github.com/dshills/editcore/internal/grammar"
)

// ============================================================================
// Helpers
// ============================================================================

func newDoc(t *testing.T, text string, opts ...Option) (*Document, ViewID) {
	t.Helper()
	d := New(append([]Option{WithText(text)}, opts...)...)
	t.Cleanup(d.Close)
	return d, d.OpenView()
}

func mustSelection(t *testing.T, d *Document, view ViewID) selection.Selection {
	t.Helper()
	sel, err := d.Selection(view)
	if err != nil {
		t.Fatalf("selection: %v", err)
	}
	return sel
}

func cursors(t *testing.T, d *Document, view ViewID) []int {
	t.Helper()
	var out []int
	for _, r := range mustSelection(t, d, view).Ranges() {
		out = append(out, r.Head)
	}
	return out
}

func insertAt(t *testing.T, d *Document, view ViewID, text string) buffer.Revision {
	t.Helper()
	tx, err := transaction.Insert(d.Buffer(), mustSelection(t, d, view), text)
	if err != nil {
		t.Fatalf("build insert: %v", err)
	}
	rev, err := d.Apply(tx, view)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	return rev
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ============================================================================
// Construction and Views
// ============================================================================

func TestNew(t *testing.T) {
	d, view := newDoc(t, "hello", WithLineEnding(buffer.LineEndingCRLF), WithTabWidth(8))

	if got := d.Buffer().String(); got != "hello" {
		t.Errorf("expected %q, got %q", "hello", got)
	}
	if d.LineEnding() != buffer.LineEndingCRLF {
		t.Errorf("expected crlf, got %v", d.LineEnding())
	}
	if d.TabWidth() != 8 {
		t.Errorf("expected tab width 8, got %d", d.TabWidth())
	}
	if d.Syntax() != nil || d.SyntaxStale() {
		t.Error("plain document should have no syntax")
	}
	if got := cursors(t, d, view); !equalInts(got, []int{0}) {
		t.Errorf("new view should have a cursor at 0, got %v", got)
	}
}

func TestViews(t *testing.T) {
	d, a := newDoc(t, "abc")
	b := d.OpenView()
	if a == b {
		t.Fatal("view IDs must be unique")
	}
	if d.Views() != 2 {
		t.Errorf("expected 2 views, got %d", d.Views())
	}

	if err := d.CloseView(b); err != nil {
		t.Fatalf("close view: %v", err)
	}
	if err := d.CloseView(b); !errors.Is(err, ErrUnknownView) {
		t.Errorf("expected ErrUnknownView, got %v", err)
	}
	if _, err := d.Selection(b); !errors.Is(err, ErrUnknownView) {
		t.Errorf("expected ErrUnknownView, got %v", err)
	}
	tx, _ := transaction.Insert(d.Buffer(), selection.FromPoint(0), "x")
	if _, err := d.Apply(tx, b); !errors.Is(err, ErrUnknownView) {
		t.Errorf("expected ErrUnknownView, got %v", err)
	}
}

func TestSetSelection(t *testing.T) {
	d, view := newDoc(t, "abcdef")

	if err := d.SetSelection(view, selection.Single(1, 4)); err != nil {
		t.Fatalf("set selection: %v", err)
	}
	if got := mustSelection(t, d, view).Primary(); got != selection.NewRange(1, 4) {
		t.Errorf("expected 1..4, got %v", got)
	}

	err := d.SetSelection(view, selection.Single(2, 10))
	if !errors.Is(err, ErrInvalidSelection) {
		t.Errorf("expected ErrInvalidSelection, got %v", err)
	}
	if got := mustSelection(t, d, view).Primary(); got != selection.NewRange(1, 4) {
		t.Errorf("rejected selection must not be installed, got %v", got)
	}
}

// ============================================================================
// Apply
// ============================================================================

func TestScenarioInsertAtCursor(t *testing.T) {
	d, view := newDoc(t, "hello world")
	other := d.OpenView()

	before := d.Revision()
	rev := insertAt(t, d, view, "xyz")

	if got := d.Buffer().String(); got != "xyzhello world" {
		t.Errorf("expected %q, got %q", "xyzhello world", got)
	}
	if rev == before || rev != d.Revision() {
		t.Errorf("expected a new revision, got %d (was %d)", rev, before)
	}
	if got := cursors(t, d, view); !equalInts(got, []int{3}) {
		t.Errorf("editing cursor: expected [3], got %v", got)
	}
	if got := cursors(t, d, other); !equalInts(got, []int{3}) {
		t.Errorf("other view: expected [3], got %v", got)
	}
}

func TestScenarioDeleteAtCursors(t *testing.T) {
	d, view := newDoc(t, "abcdef")
	sel, _ := selection.New([]selection.Range{selection.Point(2), selection.Point(4)}, 0)
	if err := d.SetSelection(view, sel); err != nil {
		t.Fatal(err)
	}

	tx, err := transaction.DeleteBySelection(d.Buffer(), sel)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.Apply(tx, view); err != nil {
		t.Fatal(err)
	}

	if got := d.Buffer().String(); got != "abdf" {
		t.Errorf("expected %q, got %q", "abdf", got)
	}
	if got := cursors(t, d, view); !equalInts(got, []int{2, 3}) {
		t.Errorf("expected cursors [2 3], got %v", got)
	}
}

func TestOriginAssoc(t *testing.T) {
	tests := []struct {
		name  string
		assoc selection.Assoc
		want  int
	}{
		{"default keeps the cursor before", selection.Before, 0},
		{"after", selection.After, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, view := newDoc(t, "abc", WithOriginAssoc(tt.assoc))
			other := d.OpenView()

			tx := transaction.New(transaction.NewChangeSet(transaction.InsertText("xy"), transaction.Retain(3)))
			if _, err := d.Apply(tx, view); err != nil {
				t.Fatal(err)
			}
			if got := cursors(t, d, view); !equalInts(got, []int{tt.want}) {
				t.Errorf("editing view: expected [%d], got %v", tt.want, got)
			}
			if got := cursors(t, d, other); !equalInts(got, []int{2}) {
				t.Errorf("other views land after: got %v", got)
			}
		})
	}
}

func TestApplyIsAllOrNothing(t *testing.T) {
	d, view := newDoc(t, "abc")
	rev := d.Revision()

	bad := transaction.New(transaction.NewChangeSet(transaction.Retain(10)))
	if _, err := d.Apply(bad, view); !errors.Is(err, buffer.ErrOutOfBounds) {
		t.Errorf("expected ErrOutOfBounds, got %v", err)
	}

	outside := transaction.New(transaction.NewChangeSet(transaction.Retain(3), transaction.InsertText("d"))).
		WithSelection(selection.FromPoint(9))
	if _, err := d.Apply(outside, view); !errors.Is(err, ErrInvalidSelection) {
		t.Errorf("expected ErrInvalidSelection, got %v", err)
	}

	if d.Revision() != rev || d.Buffer().String() != "abc" {
		t.Error("failed applies must leave the document untouched")
	}
	if d.History().CanUndo() {
		t.Error("failed applies must not reach the history")
	}
}

func TestIdentityTransaction(t *testing.T) {
	d, view := newDoc(t, "abc")
	_ = d.SetSelection(view, selection.Single(0, 2))
	rev := d.Revision()

	got, err := d.Apply(transaction.New(transaction.Identity(3)), view)
	if err != nil {
		t.Fatal(err)
	}
	if got != rev {
		t.Errorf("identity must keep revision %d, got %d", rev, got)
	}
	if p := mustSelection(t, d, view).Primary(); p != selection.NewRange(0, 2) {
		t.Errorf("identity must keep selection, got %v", p)
	}
	if d.History().CanUndo() {
		t.Error("identity must not be recorded")
	}
}

func TestNonUndoable(t *testing.T) {
	d, view := newDoc(t, "abc")
	tx, _ := transaction.Insert(d.Buffer(), selection.FromPoint(3), "d")
	if _, err := d.Apply(tx.NonUndoable(), view); err != nil {
		t.Fatal(err)
	}
	if d.History().CanUndo() {
		t.Error("non-undoable transactions must not be recorded")
	}
}

// ============================================================================
// Undo / Redo
// ============================================================================

func TestScenarioUndoAtBottom(t *testing.T) {
	d, view := newDoc(t, "abc")
	rev := d.Revision()

	got, err := d.Undo(view)
	if err != nil {
		t.Fatalf("undo at bottom must not fail: %v", err)
	}
	if got != rev {
		t.Errorf("expected unchanged revision %d, got %d", rev, got)
	}
	if got, err := d.Redo(view); err != nil || got != rev {
		t.Errorf("redo at top: got %d, %v", got, err)
	}
}

func TestUndoRedo(t *testing.T) {
	d, view := newDoc(t, "hello")
	_ = d.SetSelection(view, selection.FromPoint(5))
	insertAt(t, d, view, " world")

	if _, err := d.Undo(view); err != nil {
		t.Fatal(err)
	}
	if got := d.Buffer().String(); got != "hello" {
		t.Errorf("after undo expected %q, got %q", "hello", got)
	}
	if got := cursors(t, d, view); !equalInts(got, []int{5}) {
		t.Errorf("undo restores the selection, got %v", got)
	}

	if _, err := d.Redo(view); err != nil {
		t.Fatal(err)
	}
	if got := d.Buffer().String(); got != "hello world" {
		t.Errorf("after redo expected %q, got %q", "hello world", got)
	}
	if got := cursors(t, d, view); !equalInts(got, []int{11}) {
		t.Errorf("redo reinstalls the selection, got %v", got)
	}
}

func TestCoalescingAndCheckpoint(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	d, view := newDoc(t, "", WithHistory(history.WithClock(clock), history.WithCoalesceWindow(time.Second)))

	typeKey := func(s string) {
		t.Helper()
		tx, _ := transaction.Insert(d.Buffer(), mustSelection(t, d, view), s)
		if _, err := d.ApplyKeyed(tx, view, "insert"); err != nil {
			t.Fatal(err)
		}
	}
	typeKey("a")
	typeKey("b")
	d.Checkpoint()
	typeKey("c")
	typeKey("d")

	if n := d.History().UndoCount(); n != 2 {
		t.Fatalf("expected 2 undo steps, got %d", n)
	}
	if _, err := d.Undo(view); err != nil {
		t.Fatal(err)
	}
	if got := d.Buffer().String(); got != "ab" {
		t.Errorf("expected %q, got %q", "ab", got)
	}
	if _, err := d.UndoN(view, 5); err != nil {
		t.Fatal(err)
	}
	if got := d.Buffer().String(); got != "" {
		t.Errorf("expected empty buffer, got %q", got)
	}
	if _, err := d.RedoN(view, 2); err != nil {
		t.Fatal(err)
	}
	if got := d.Buffer().String(); got != "abcd" {
		t.Errorf("expected %q, got %q", "abcd", got)
	}
}

func TestUndoMapsOtherViews(t *testing.T) {
	d, view := newDoc(t, "abc")
	other := d.OpenView()
	_ = d.SetSelection(other, selection.FromPoint(3))

	insertAt(t, d, view, "xx")
	if got := cursors(t, d, other); !equalInts(got, []int{5}) {
		t.Fatalf("expected [5], got %v", got)
	}
	if _, err := d.Undo(view); err != nil {
		t.Fatal(err)
	}
	if got := cursors(t, d, other); !equalInts(got, []int{3}) {
		t.Errorf("expected [3] after undo, got %v", got)
	}
}

func TestUndoFromAnotherView(t *testing.T) {
	d, view := newDoc(t, "abc")
	other := d.OpenView()
	_ = d.SetSelection(view, selection.FromPoint(1))
	_ = d.SetSelection(other, selection.FromPoint(3))

	insertAt(t, d, view, "xx")
	if _, err := d.Undo(other); err != nil {
		t.Fatal(err)
	}
	if got := d.Buffer().String(); got != "abc" {
		t.Fatalf("expected %q, got %q", "abc", got)
	}
	if got := cursors(t, d, view); !equalInts(got, []int{1}) {
		t.Errorf("editing view gets its old selection back, got %v", got)
	}
	if got := cursors(t, d, other); !equalInts(got, []int{3}) {
		t.Errorf("undoing view is mapped, got %v", got)
	}
}

func applyEdits(t *testing.T, d *Document, view ViewID, undoable bool, edits ...buffer.Edit) {
	t.Helper()
	cs, err := transaction.FromEdits(d.Buffer(), edits)
	if err != nil {
		t.Fatalf("build edits: %v", err)
	}
	tx := transaction.New(cs)
	if !undoable {
		tx = tx.NonUndoable()
	}
	if _, err := d.Apply(tx, view); err != nil {
		t.Fatalf("apply: %v", err)
	}
}

func TestUndoAfterNonUndoableEdit(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		recorded []buffer.Edit
		outside  []buffer.Edit
		wantMid  string
		wantUndo string
	}{
		{
			name:     "outside edit removes neighbouring text",
			text:     "ab",
			recorded: []buffer.Edit{{From: 0, To: 1, Text: "X"}},
			outside:  []buffer.Edit{{From: 0, To: 1}, {From: 2, To: 2, Text: "Y"}},
			wantMid:  "bY",
			wantUndo: "abY",
		},
		{
			name:     "outside edit grows the buffer",
			text:     "",
			recorded: []buffer.Edit{{From: 0, To: 0, Text: "b"}},
			outside:  []buffer.Edit{{From: 0, To: 0, Text: "Z"}},
			wantMid:  "Zb",
			wantUndo: "Z",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, view := newDoc(t, tt.text)
			applyEdits(t, d, view, true, tt.recorded...)
			applyEdits(t, d, view, false, tt.outside...)
			if got := d.Buffer().String(); got != tt.wantMid {
				t.Fatalf("expected %q, got %q", tt.wantMid, got)
			}

			if _, err := d.Undo(view); err != nil {
				t.Fatalf("undo: %v", err)
			}
			if got := d.Buffer().String(); got != tt.wantUndo {
				t.Errorf("after undo expected %q, got %q", tt.wantUndo, got)
			}
			if _, err := d.Redo(view); err != nil {
				t.Fatalf("redo: %v", err)
			}
			if got := d.Buffer().String(); got != tt.wantMid {
				t.Errorf("after redo expected %q, got %q", tt.wantMid, got)
			}
		})
	}
}

func TestSetText(t *testing.T) {
	d, view := newDoc(t, "one\ntwo\nthree\n")
	_ = d.SetSelection(view, selection.FromPoint(10))

	if _, err := d.SetText(view, "one\nTWO\nthree\n"); err != nil {
		t.Fatal(err)
	}
	if got := d.Buffer().String(); got != "one\nTWO\nthree\n" {
		t.Errorf("unexpected text %q", got)
	}
	if got := cursors(t, d, view); !equalInts(got, []int{10}) {
		t.Errorf("cursor outside the change should stay, got %v", got)
	}
	if _, err := d.Undo(view); err != nil {
		t.Fatal(err)
	}
	if got := d.Buffer().String(); got != "one\ntwo\nthree\n" {
		t.Errorf("reload should undo, got %q", got)
	}
}

// ============================================================================
// Notifications and Lifecycle
// ============================================================================

func TestNotifications(t *testing.T) {
	n := notify.New()
	defer n.Close()

	var (
		mu    sync.Mutex
		kinds []notify.Kind
	)
	n.Subscribe(func(ev notify.Event) {
		mu.Lock()
		kinds = append(kinds, ev.Kind)
		mu.Unlock()
	})

	d := New(WithText("abc"), WithNotifier(n))
	view := d.OpenView()
	insertAt(t, d, view, "x")
	_, _ = d.Undo(view)
	_, _ = d.Redo(view)
	_ = d.SetSelection(view, selection.FromPoint(0))
	d.Close()

	mu.Lock()
	defer mu.Unlock()
	want := []notify.Kind{notify.KindEdit, notify.KindUndo, notify.KindRedo, notify.KindSelection, notify.KindClose}
	if len(kinds) != len(want) {
		t.Fatalf("expected %v, got %v", want, kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("event %d: expected %v, got %v", i, want[i], kinds[i])
		}
	}
}

func TestClose(t *testing.T) {
	d := New(WithText("abc"))
	view := d.OpenView()
	d.Close()
	d.Close()

	tx, _ := transaction.Insert(d.Buffer(), selection.FromPoint(0), "x")
	if _, err := d.Apply(tx, view); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if d.Buffer().String() != "abc" {
		t.Error("buffer should stay readable")
	}
}

// ============================================================================
// Syntax
// ============================================================================

func waitSyntax(t *testing.T, d *Document) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.WaitSyntax(ctx); err != nil {
		t.Fatalf("wait syntax: %v", err)
	}
}

func TestSyntaxFollowsEdits(t *testing.T) {
	d, view := newDoc(t, "package main\n", WithLanguage(grammar.Go()))
	waitSyntax(t, d)

	_ = d.SetSelection(view, selection.FromPoint(d.Buffer().LenChars()))
	insertAt(t, d, view, "\nfunc main() {}\n")
	insertAt(t, d, view, "\nvar x = 1\n")
	waitSyntax(t, d)

	tree := d.Syntax()
	if tree == nil || tree.Revision() != d.Revision() {
		t.Fatal("tree should match the buffer")
	}
	if d.SyntaxStale() {
		t.Error("tree should not be stale after WaitSyntax")
	}
	fresh, err := syntax.Parse(context.Background(), grammar.Go(), d.Buffer())
	if err != nil {
		t.Fatal(err)
	}
	if tree.String() != fresh.String() {
		t.Errorf("incremental tree differs:\n%s\n%s", tree.String(), fresh.String())
	}

	if _, err := d.Undo(view); err != nil {
		t.Fatal(err)
	}
	waitSyntax(t, d)
	if d.Syntax().Revision() != d.Revision() {
		t.Error("undo should reparse")
	}
}

func TestHighlightsWithAndWithoutGrammar(t *testing.T) {
	src := "package main\n"
	r := syntax.ByteRange{Start: 0, End: len(src)}

	d, _ := newDoc(t, src, WithLanguage(grammar.Go()))
	waitSyntax(t, d)
	it, err := d.Highlights(r)
	if err != nil {
		t.Fatal(err)
	}
	events := it.Collect()
	if len(events) == 0 || events[0].Capture != "keyword" {
		t.Errorf("expected tree highlights, got %v", events)
	}

	plain, _ := newDoc(t, src, WithLexer("go"))
	it, err = plain.Highlights(r)
	if err != nil {
		t.Fatal(err)
	}
	events = it.Collect()
	if len(events) == 0 || events[0].Capture != "keyword" {
		t.Errorf("expected lexer highlights, got %v", events)
	}
}

func TestMatchingBracket(t *testing.T) {
	src := "package main\n\nfunc f() { _ = \"}\" }\n"
	d, _ := newDoc(t, src, WithLanguage(grammar.Go()))
	waitSyntax(t, d)

	open := strings.Index(src, "{")
	if got, ok := d.MatchingBracket(open); !ok || got != len(src)-2 {
		t.Errorf("tree match: expected %d, got %d %v", len(src)-2, got, ok)
	}

	plain, _ := newDoc(t, "(a [b] c)")
	if got, ok := plain.MatchingBracket(0); !ok || got != 8 {
		t.Errorf("plain match: expected 8, got %d %v", got, ok)
	}
}

func TestSetLanguage(t *testing.T) {
	d, _ := newDoc(t, "package main\n")
	if d.Syntax() != nil {
		t.Fatal("plain document should have no tree")
	}

	if err := d.SetLanguage(grammar.Go()); err != nil {
		t.Fatal(err)
	}
	waitSyntax(t, d)
	if tree := d.Syntax(); tree == nil || tree.Revision() != d.Revision() {
		t.Fatal("switching language should parse the current text")
	}

	if err := d.SetLanguage(nil); err != nil {
		t.Fatal(err)
	}
	if d.Syntax() != nil || d.Language() != nil {
		t.Error("nil language should return to plain mode")
	}

	d.Close()
	if err := d.SetLanguage(grammar.Go()); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestSetLanguageWithConcurrentReaders(t *testing.T) {
	d, _ := newDoc(t, "package main\n\nfunc main() { println(\"hi\") }\n")
	defer d.Close()

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				_ = d.Syntax()
				_ = d.SyntaxStale()
				_ = d.Language()
				_, _ = d.MatchingBracket(25)
				if _, err := d.Highlights(syntax.ByteRange{Start: 0, End: 40}); err != nil {
					t.Errorf("Highlights: %v", err)
					return
				}
				ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
				err := d.WaitSyntax(ctx)
				cancel()
				if err != nil && !errors.Is(err, context.DeadlineExceeded) {
					t.Errorf("WaitSyntax: %v", err)
					return
				}
			}
		}()
	}

	for i := range 50 {
		lang := grammar.Go()
		if i%2 == 1 {
			lang = nil
		}
		if err := d.SetLanguage(lang); err != nil {
			t.Error(err)
			break
		}
	}
	close(stop)
	wg.Wait()

	if d.Language() != nil || d.Syntax() != nil {
		t.Error("last switch was to plain mode")
	}
}
