package transaction

import (
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/dshills/editcore/internal/engine/buffer"
)

var dmp = diffmatchpatch.New()

// FromDiff returns a ChangeSet that turns old into updated. Lines are compared
// first; each replaced block of lines is then refined character by
// character so small edits stay small.
func FromDiff(old, updated buffer.Buffer) ChangeSet {
	oldText, newText := old.String(), updated.String()
	if oldText == newText {
		return Identity(old.LenChars())
	}

	a, b, lines := dmp.DiffLinesToChars(oldText, newText)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var ops []Operation
	for i := 0; i < len(diffs); i++ {
		d := diffs[i]
		if d.Type == diffmatchpatch.DiffDelete && i+1 < len(diffs) && diffs[i+1].Type == diffmatchpatch.DiffInsert {
			for _, fine := range dmp.DiffMain(d.Text, diffs[i+1].Text, false) {
				ops = append(ops, diffOp(fine))
			}
			i++
			continue
		}
		ops = append(ops, diffOp(d))
	}
	return NewChangeSet(ops...)
}

func diffOp(d diffmatchpatch.Diff) Operation {
	switch d.Type {
	case diffmatchpatch.DiffInsert:
		return InsertText(d.Text)
	case diffmatchpatch.DiffDelete:
		return Delete(utf8.RuneCountInString(d.Text))
	default:
		return Retain(utf8.RuneCountInString(d.Text))
	}
}
