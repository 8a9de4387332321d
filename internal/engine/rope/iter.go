package rope

import "unicode/utf8"

// chunkIterFrame represents a position in the tree traversal for chunk iteration.
type chunkIterFrame struct {
	node     *Node
	childIdx int        // Next child index to visit (for internal nodes)
	chunkIdx int        // Next chunk index to visit (for leaf nodes)
	offset   ByteOffset // Absolute byte offset at start of this node
}

// ChunkIterator iterates over chunks in a rope.
type ChunkIterator struct {
	rope       Rope
	stack      []chunkIterFrame
	started    bool
	seeked     bool // stack already points at the first chunk to yield
	chunk      Chunk
	chunkStart ByteOffset
}

// Chunks returns an iterator over all chunks in the rope.
func (r Rope) Chunks() *ChunkIterator {
	return &ChunkIterator{
		rope:  r,
		stack: make([]chunkIterFrame, 0, 16),
	}
}

// ChunksFrom returns an iterator whose first chunk is the one containing
// the byte offset. The starting chunk is found by descending the tree, so
// seeking costs O(log n). An offset at or past the end yields nothing.
func (r Rope) ChunksFrom(offset ByteOffset) *ChunkIterator {
	it := &ChunkIterator{rope: r, stack: make([]chunkIterFrame, 0, 16), started: true}
	if r.root == nil || offset >= r.Len() {
		return it
	}

	node, base := r.root, ByteOffset(0)
	for !node.IsLeaf() {
		idx, start := 0, base
		for idx < len(node.children)-1 && offset >= start+node.childSummaries[idx].Bytes {
			start += node.childSummaries[idx].Bytes
			idx++
		}
		it.stack = append(it.stack, chunkIterFrame{node: node, childIdx: idx, offset: base})
		node, base = node.children[idx], start
	}

	idx, start := 0, base
	for idx < len(node.chunks)-1 && offset >= start+ByteOffset(node.chunks[idx].Len()) {
		start += ByteOffset(node.chunks[idx].Len())
		idx++
	}
	it.stack = append(it.stack, chunkIterFrame{node: node, chunkIdx: idx, offset: base})
	it.seeked = true
	return it
}

// Next advances to the next chunk.
// Returns true if there is a chunk, false if iteration is complete.
func (it *ChunkIterator) Next() bool {
	if it.seeked {
		it.seeked = false
		return it.findNextChunk()
	}
	if !it.started {
		it.started = true
		if it.rope.root == nil {
			return false
		}
		// Initialize stack with root
		it.stack = append(it.stack, chunkIterFrame{
			node:     it.rope.root,
			childIdx: 0,
			chunkIdx: 0,
			offset:   0,
		})
		return it.findNextChunk()
	}

	// Advance to next chunk by incrementing chunkIdx in current leaf
	if len(it.stack) > 0 {
		frame := &it.stack[len(it.stack)-1]
		if frame.node.IsLeaf() {
			frame.chunkIdx++
		}
	}
	return it.findNextChunk()
}

// findNextChunk finds the next available chunk.
func (it *ChunkIterator) findNextChunk() bool {
	for len(it.stack) > 0 {
		frame := &it.stack[len(it.stack)-1]
		node := frame.node

		if node.IsLeaf() {
			if frame.chunkIdx < len(node.chunks) {
				// Calculate offset of this chunk within the leaf
				chunkOffset := frame.offset
				for i := 0; i < frame.chunkIdx; i++ {
					chunkOffset += ByteOffset(node.chunks[i].Len())
				}
				it.chunk = node.chunks[frame.chunkIdx]
				it.chunkStart = chunkOffset
				return true
			}
			// Done with this leaf, pop
			it.stack = it.stack[:len(it.stack)-1]
			// After popping, increment parent's childIdx
			if len(it.stack) > 0 {
				it.stack[len(it.stack)-1].childIdx++
			}
			continue
		}

		// Internal node - descend to next unvisited child
		if frame.childIdx < len(node.children) {
			// Calculate offset at start of this child
			childOffset := frame.offset
			for i := 0; i < frame.childIdx; i++ {
				childOffset += node.childSummaries[i].Bytes
			}

			child := node.children[frame.childIdx]
			it.stack = append(it.stack, chunkIterFrame{
				node:     child,
				childIdx: 0,
				chunkIdx: 0,
				offset:   childOffset,
			})
			continue
		}

		// Done with this internal node, pop
		it.stack = it.stack[:len(it.stack)-1]
		// After popping, increment parent's childIdx
		if len(it.stack) > 0 {
			it.stack[len(it.stack)-1].childIdx++
		}
	}

	return false
}

// Chunk returns the current chunk.
func (it *ChunkIterator) Chunk() Chunk {
	return it.chunk
}

// Offset returns the byte offset of the start of the current chunk.
func (it *ChunkIterator) Offset() ByteOffset {
	return it.chunkStart
}

// RuneIterator iterates over runes in a rope.
// Chunks never split a character, so decoding stays within one chunk.
type RuneIterator struct {
	chunks  *ChunkIterator
	data    string
	base    ByteOffset
	idx     int
	current rune
	size    int
}

// Runes returns an iterator over all runes in the rope.
func (r Rope) Runes() *RuneIterator {
	return &RuneIterator{chunks: r.Chunks()}
}

// RunesFrom returns an iterator over runes starting at the given byte offset,
// which must lie on a character boundary. Seeking costs O(log n).
func (r Rope) RunesFrom(offset ByteOffset) *RuneIterator {
	it := &RuneIterator{chunks: r.ChunksFrom(offset)}
	if it.chunks.Next() {
		it.data = it.chunks.Chunk().String()
		it.base = it.chunks.Offset()
		it.idx = int(offset - it.base)
	}
	return it
}

// Next advances to the next rune.
// Returns true if there is a rune, false if iteration is complete.
func (it *RuneIterator) Next() bool {
	it.idx += it.size
	it.size = 0
	for it.idx >= len(it.data) {
		if !it.chunks.Next() {
			return false
		}
		it.data = it.chunks.Chunk().String()
		it.base = it.chunks.Offset()
		it.idx = 0
	}
	it.current, it.size = utf8.DecodeRuneInString(it.data[it.idx:])
	return true
}

// Rune returns the current rune.
func (it *RuneIterator) Rune() rune {
	return it.current
}

// Size returns the byte size of the current rune.
func (it *RuneIterator) Size() int {
	return it.size
}

// Offset returns the byte offset of the current rune.
func (it *RuneIterator) Offset() ByteOffset {
	return it.base + ByteOffset(it.idx)
}

// ReverseRuneIterator iterates over runes from the end towards the start.
type ReverseRuneIterator struct {
	rope    Rope
	data    string
	base    ByteOffset
	end     int // runes before this index of data are still to come
	current rune
	size    int
}

// ReverseRunes returns an iterator over all runes in reverse order.
func (r Rope) ReverseRunes() *ReverseRuneIterator {
	return r.ReverseRunesFrom(r.Len())
}

// ReverseRunesFrom returns an iterator over the runes before the given byte
// offset, nearest first. The offset must lie on a character boundary.
// Each chunk is found by descending the tree.
func (r Rope) ReverseRunesFrom(offset ByteOffset) *ReverseRuneIterator {
	it := &ReverseRuneIterator{rope: r}
	it.load(min(offset, r.Len()))
	return it
}

// load positions the iterator at the end of the text before offset.
func (it *ReverseRuneIterator) load(offset ByteOffset) {
	it.data, it.base, it.end = "", offset, 0
	if offset == 0 {
		return
	}
	chunks := it.rope.ChunksFrom(offset - 1)
	if !chunks.Next() {
		return
	}
	it.data = chunks.Chunk().String()
	it.base = chunks.Offset()
	it.end = int(offset - it.base)
}

// Next moves to the previous rune.
// Returns true if there is a rune, false at the start of the rope.
func (it *ReverseRuneIterator) Next() bool {
	for it.end == 0 {
		if it.base == 0 {
			return false
		}
		it.load(it.base)
		if it.data == "" {
			return false
		}
	}
	it.current, it.size = utf8.DecodeLastRuneInString(it.data[:it.end])
	it.end -= it.size
	return true
}

// Rune returns the current rune.
func (it *ReverseRuneIterator) Rune() rune {
	return it.current
}

// Size returns the byte size of the current rune.
func (it *ReverseRuneIterator) Size() int {
	return it.size
}

// Offset returns the byte offset of the current rune.
func (it *ReverseRuneIterator) Offset() ByteOffset {
	return it.base + ByteOffset(it.end)
}
