// Package history provides linear undo/redo for the document engine.
//
// Every committed edit is stored as an Entry holding the transaction that
// was applied, its inverse, and the selection before the edit. Undo hands
// back the entry whose Inverse should be applied; Redo hands back the entry
// whose Transaction should be applied. History never touches a buffer
// itself.
//
// # Coalescing
//
// Consecutive commits that share a non-empty key and arrive within the
// coalescing window are merged into one entry, so a run of typed
// characters undoes in one step:
//
//	h := history.New(history.WithCoalesceWindow(time.Second))
//	h.Commit(history.Entry{Transaction: tx, Inverse: inv, Key: "insert"})
//
// Checkpoint seals the top entry so the next commit starts a new one.
//
// # Groups
//
// BeginGroup and EndGroup merge every commit between them into one entry
// regardless of keys or timing:
//
//	defer h.GroupScope().End()
package history
