// Package transaction describes edits to a buffer as data.
//
// A ChangeSet is a list of Retain, Insert and Delete operations that walks
// one buffer revision from start to end. ChangeSets can be applied,
// inverted against the buffer they were applied to, composed with a
// following ChangeSet, and used to map positions from the old revision to
// the new one.
//
// A Transaction wraps a ChangeSet with the selection to install once it is
// applied. The builders FromEdits, ChangeBySelection, Insert and
// DeleteBySelection produce transactions from flat edit lists or from a
// selection; FromDiff produces one from two complete texts.
//
// Positions are character offsets, as in package buffer.
package transaction
