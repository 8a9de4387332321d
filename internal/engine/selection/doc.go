// Package selection provides ranges and multi-range selections over buffer
// character positions.
//
// A Range is an anchor/head pair. The head is the end that moves; the
// anchor stays put until explicitly reset. Anchor == Head is an ordinary
// zero-width cursor.
//
// A Selection is a non-empty, sorted list of non-overlapping ranges with
// exactly one primary range. Overlapping ranges are merged whenever a
// selection is built or mapped, and the primary follows the range it
// merged into rather than its old index.
//
//	sel := selection.Single(2, 2)
//	sel = sel.Push(selection.Point(4)) // two cursors, the new one primary
//	mapped := sel.Map(changes)           // follow an edit
//
// Selections are values; every method returns a new Selection.
package selection
