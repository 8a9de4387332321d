// Package rope provides an immutable rope data structure for text storage.
//
// A rope is a B+ tree whose leaves hold bounded UTF-8 chunks and whose
// internal nodes cache aggregated metrics (bytes, characters, newlines,
// UTF-16 code units) for every child. Any position metric can be converted
// into any other by a single root-to-leaf descent, so all conversions and
// edits are O(log n).
//
// Ropes are values. Every edit returns a new Rope that shares all untouched
// subtrees with the original, which makes a snapshot a plain copy and makes
// old revisions safe to read from other goroutines while newer revisions are
// being produced.
//
//	r := rope.FromString("hello world")
//	r2 := r.Insert(5, ",")     // "hello, world"; r is unchanged
//	b := r2.CharToByte(7)      // byte offset of the 8th character
//	line := r2.ByteToLine(b)   // 0
package rope
