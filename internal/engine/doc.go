// Package engine is the editing core's composition root.
//
// A Document ties together the pieces in the sub-packages:
//
//   - rope: B+ tree rope with byte, char, line and UTF-16 metrics
//   - buffer: immutable, character-addressed buffer revisions
//   - selection: multi-range selections and position mapping
//   - transaction: ChangeSets that compose, invert and map positions
//   - history: linear undo stack with coalescing
//   - syntax: incremental tree-sitter trees and highlighting
//   - notify: observers for document events
//
// # Editing
//
// Every change goes through Document.Apply. The command layer builds a
// Transaction against the current buffer and hands it over together with
// the view it came from:
//
//	doc := engine.New(engine.WithText("hello world"))
//	view := doc.OpenView()
//
//	sel, _ := doc.Selection(view)
//	tx, _ := transaction.Insert(doc.Buffer(), sel, "xyz")
//	rev, err := doc.Apply(tx, view)
//
// Apply is all or nothing. On success the buffer has a new revision, the
// selection of every view has been mapped through the change, the change
// is on the undo stack and a reparse has been requested.
//
// # Views
//
// A document can be shown in several views, each with its own selection.
// The view passed to Apply receives the selection carried by the
// transaction. Cursors in other views move after text inserted at their
// position.
//
// # Undo
//
// Undo and Redo walk the history. Undo also restores the editing view's
// selection from before the step. Undoing past the oldest step does
// nothing and is not an error. Use ApplyKeyed to let consecutive edits of
// one kind coalesce into a single step, and Checkpoint to end a step.
//
// # Syntax
//
// With WithLanguage the document keeps a syntax tree. Reparsing happens in
// the background; Syntax returns the newest complete tree, which may lag
// one or more revisions behind. WaitSyntax blocks until it catches up.
// Highlights and MatchingBracket fall back to a lexer and to bracket
// counting while there is no current tree.
//
// # Concurrency
//
// A Document has a single writer. Buffer values are immutable and may be
// handed to other goroutines freely.
package engine
