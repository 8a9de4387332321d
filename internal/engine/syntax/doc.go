// Package syntax maintains a tree-sitter syntax tree for a buffer.
//
// A Tree is an immutable parse of one buffer revision. After an edit the
// tree is brought up to date incrementally: EditsFromChangeSet translates a
// ChangeSet into tree-sitter edit descriptors, Tree.Edit applies them to a
// copy, and Tree.Reparse parses the new revision reusing the old tree.
//
// The Supervisor runs reparses off the caller's goroutine. Only one
// reparse per document is in flight; a newer edit cancels the running one
// and a result for a revision that is no longer current is discarded.
// Readers always see a complete tree, possibly one revision behind.
//
// Without a grammar there is no tree. MatchingBracketPlain and
// PlainHighlighter provide scan-based and lexer-based fallbacks.
//
// Positions on the public API are character offsets, as in package buffer;
// ByteRange is used where tree-sitter's byte offsets are the natural unit.
package syntax
