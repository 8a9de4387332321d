package engine

import (
	"strings"
	"testing"

	"github.com/dshills/editcore/internal/engine/selection"
	"github.com/dshills/editcore/internal/engine/syntax"
	"github.com/dshills/editcore/internal/engine/transaction"
	"github.com/dshills/editcore/internal/grammar"
)

// ============================================================================
// Setup Helpers
// ============================================================================

func setupLargeDocument(b *testing.B, lines int, opts ...Option) (*Document, ViewID) {
	b.Helper()
	var sb strings.Builder
	line := strings.Repeat("x", 80) + "\n"
	for i := 0; i < lines; i++ {
		sb.WriteString(line)
	}
	d := New(append([]Option{WithText(sb.String())}, opts...)...)
	b.Cleanup(d.Close)
	return d, d.OpenView()
}

func goSource(funcs int) string {
	var sb strings.Builder
	sb.WriteString("package bench\n\n")
	for i := 0; i < funcs; i++ {
		sb.WriteString("func f() int {\n\tx := []int{1, 2, 3}\n\treturn len(x)\n}\n\n")
	}
	return sb.String()
}

// ============================================================================
// Edit Benchmarks
// ============================================================================

func BenchmarkDocumentTyping(b *testing.B) {
	d, view := setupLargeDocument(b, 10000)
	_ = d.SetSelection(view, selection.FromPoint(d.Buffer().LenChars()/2))
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		sel, _ := d.Selection(view)
		tx, err := transaction.Insert(d.Buffer(), sel, "a")
		if err != nil {
			b.Fatal(err)
		}
		if _, err := d.ApplyKeyed(tx, view, "insert"); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDocumentMultiCursorDelete(b *testing.B) {
	d, view := setupLargeDocument(b, 1000)
	ranges := make([]selection.Range, 0, 100)
	for i := 0; i < 100; i++ {
		ranges = append(ranges, selection.Point(i*810+40))
	}
	sel, _ := selection.New(ranges, 0)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if err := d.SetSelection(view, sel); err != nil {
			b.Fatal(err)
		}
		tx, err := transaction.DeleteBySelection(d.Buffer(), sel)
		if err != nil {
			b.Fatal(err)
		}
		if _, err := d.Apply(tx, view); err != nil {
			b.Fatal(err)
		}
		if _, err := d.Undo(view); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDocumentUndoRedo(b *testing.B) {
	d, view := setupLargeDocument(b, 10000)
	tx, _ := transaction.Insert(d.Buffer(), selection.FromPoint(0), "hello")
	_, _ = d.Apply(tx, view)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_, _ = d.Undo(view)
		_, _ = d.Redo(view)
	}
}

// ============================================================================
// Syntax Benchmarks
// ============================================================================

func BenchmarkHighlights(b *testing.B) {
	src := goSource(500)
	tree, err := syntax.Parse(b.Context(), grammar.Go(), New(WithText(src)).Buffer())
	if err != nil {
		b.Fatal(err)
	}
	r := syntax.ByteRange{Start: len(src) / 2, End: len(src)/2 + 4096}
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		it, err := tree.Highlights(r)
		if err != nil {
			b.Fatal(err)
		}
		_ = it.Collect()
	}
}

func BenchmarkIncrementalReparse(b *testing.B) {
	d, view := setupLargeDocument(b, 0, WithText(goSource(500)), WithLanguage(grammar.Go()))
	if err := d.WaitSyntax(b.Context()); err != nil {
		b.Fatal(err)
	}
	_ = d.SetSelection(view, selection.FromPoint(d.Buffer().LenChars()/2))
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		sel, _ := d.Selection(view)
		tx, _ := transaction.Insert(d.Buffer(), sel, " ")
		if _, err := d.Apply(tx, view); err != nil {
			b.Fatal(err)
		}
		if err := d.WaitSyntax(b.Context()); err != nil {
			b.Fatal(err)
		}
	}
}
