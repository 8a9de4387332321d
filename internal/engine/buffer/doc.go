// Package buffer provides the immutable, revisioned text buffer of the
// editing core.
//
// A Buffer is a value: a rope, a revision number and the line ending the
// document was opened with. Edits never modify a Buffer; they return a new
// one that shares all untouched text with its parent. Copying a Buffer is
// therefore O(1) and any past revision can be read from another goroutine
// while the live document moves on.
//
// All positions are character offsets (Unicode scalar values), never byte
// offsets:
//
//	buf := buffer.New("hello wörld")
//	next, err := buf.Replace(6, 11, "there") // "hello there"
//	line, _ := next.CharToLine(8)            // 0
//
// Byte offsets and line/byte-column points are available through
// CharToByte and CharToPoint for collaborators such as the syntax parser,
// and CharToUTF16 serves protocol clients that count UTF-16 code units.
//
// Out-of-range positions are programmer errors. They are reported as
// ErrOutOfBounds and are never clamped.
package buffer
