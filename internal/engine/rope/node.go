package rope

import "strings"

// Tree structure constants
const (
	// MaxChildren is the maximum children per internal node before splitting.
	MaxChildren = 8

	// MaxChunksPerLeaf is the maximum chunks in a leaf node.
	MaxChunksPerLeaf = 4
)

// Node represents a node in the rope B+ tree.
// Leaf nodes (height == 0) contain text chunks.
// Internal nodes (height > 0) contain child node references, all of the
// same height. Nodes are never mutated after construction.
type Node struct {
	height  uint8       // 0 for leaves, >0 for internal
	summary TextSummary // Aggregated metrics for entire subtree

	// Internal node fields (height > 0)
	children       []*Node       // Child nodes
	childSummaries []TextSummary // Per-child summaries for efficient seeking

	// Leaf node fields (height == 0)
	chunks []Chunk // Text chunks in this leaf
}

// newLeafNode creates an empty leaf node.
func newLeafNode() *Node {
	return &Node{summary: TextSummary{Flags: FlagASCII}}
}

// newLeafNodeWithChunks creates a leaf node with the given chunks.
func newLeafNodeWithChunks(chunks []Chunk) *Node {
	n := &Node{chunks: chunks, summary: TextSummary{Flags: FlagASCII}}
	for _, chunk := range chunks {
		n.summary = n.summary.Add(chunk.Summary())
	}
	return n
}

// newInternalNode creates an internal node with the given children.
// All children must share the same height.
func newInternalNode(children []*Node) *Node {
	if len(children) == 0 {
		return newLeafNode()
	}

	summaries := make([]TextSummary, len(children))
	total := TextSummary{Flags: FlagASCII}
	for i, child := range children {
		summaries[i] = child.summary
		total = total.Add(child.summary)
	}

	return &Node{
		height:         children[0].height + 1,
		summary:        total,
		children:       children,
		childSummaries: summaries,
	}
}

// IsLeaf returns true if this is a leaf node.
func (n *Node) IsLeaf() bool {
	return n.height == 0
}

// Len returns the byte length of text in this subtree.
func (n *Node) Len() ByteOffset {
	return n.summary.Bytes
}

// appendRange appends text in the byte range [start, end) to the builder.
func (n *Node) appendRange(sb *strings.Builder, start, end ByteOffset) {
	if start >= end {
		return
	}

	if n.IsLeaf() {
		offset := ByteOffset(0)
		for _, chunk := range n.chunks {
			chunkEnd := offset + ByteOffset(chunk.Len())
			if chunkEnd <= start {
				offset = chunkEnd
				continue
			}
			if offset >= end {
				break
			}

			lo := 0
			if start > offset {
				lo = int(start - offset)
			}
			hi := chunk.Len()
			if end < chunkEnd {
				hi = int(end - offset)
			}
			sb.WriteString(chunk.String()[lo:hi])
			offset = chunkEnd
		}
		return
	}

	offset := ByteOffset(0)
	for i, child := range n.children {
		childLen := n.childSummaries[i].Bytes
		childEnd := offset + childLen
		if childEnd <= start {
			offset = childEnd
			continue
		}
		if offset >= end {
			break
		}

		lo := ByteOffset(0)
		if start > offset {
			lo = start - offset
		}
		hi := childLen
		if end < childEnd {
			hi = end - offset
		}
		child.appendRange(sb, lo, hi)
		offset = childEnd
	}
}

// split splits the node at the given byte offset.
// Returns two nodes: left contains [0, offset), right contains [offset, end).
func (n *Node) split(offset ByteOffset) (*Node, *Node) {
	if offset == 0 {
		return newLeafNode(), n
	}
	if offset >= n.Len() {
		return n, newLeafNode()
	}

	if n.IsLeaf() {
		return n.splitLeaf(offset)
	}
	return n.splitInternal(offset)
}

// splitLeaf splits a leaf node at the given offset.
func (n *Node) splitLeaf(offset ByteOffset) (*Node, *Node) {
	var leftChunks, rightChunks []Chunk
	current := ByteOffset(0)

	for _, chunk := range n.chunks {
		chunkLen := ByteOffset(chunk.Len())
		switch {
		case current+chunkLen <= offset:
			leftChunks = append(leftChunks, chunk)
		case current >= offset:
			rightChunks = append(rightChunks, chunk)
		default:
			left, right := chunk.Split(int(offset - current))
			if !left.IsEmpty() {
				leftChunks = append(leftChunks, left)
			}
			if !right.IsEmpty() {
				rightChunks = append(rightChunks, right)
			}
		}
		current += chunkLen
	}

	return newLeafNodeWithChunks(leftChunks), newLeafNodeWithChunks(rightChunks)
}

// splitInternal splits an internal node at the given offset.
// The partial child is concatenated back with concat so that the resulting
// nodes keep uniform child heights.
func (n *Node) splitInternal(offset ByteOffset) (*Node, *Node) {
	current := ByteOffset(0)
	for i, child := range n.children {
		childLen := n.childSummaries[i].Bytes
		if current+childLen <= offset {
			current += childLen
			continue
		}

		leftChild, rightChild := child.split(offset - current)
		left := concat(nodeFromSiblings(n.children[:i]), leftChild)
		right := concat(rightChild, nodeFromSiblings(n.children[i+1:]))
		return left, right
	}
	return n, newLeafNode()
}

// nodeFromSiblings builds a subtree from same-height siblings.
func nodeFromSiblings(children []*Node) *Node {
	switch len(children) {
	case 0:
		return newLeafNode()
	case 1:
		return children[0]
	}
	if len(children) <= MaxChildren {
		return newInternalNode(copyNodes(children))
	}

	var parents []*Node
	for i := 0; i < len(children); i += MaxChildren {
		end := min(i+MaxChildren, len(children))
		parents = append(parents, newInternalNode(copyNodes(children[i:end])))
	}
	return nodeFromSiblings(parents)
}

func copyNodes(nodes []*Node) []*Node {
	out := make([]*Node, len(nodes))
	copy(out, nodes)
	return out
}

// concat concatenates two nodes, keeping the tree balanced: the shorter
// tree is grafted onto the matching edge of the taller one.
func concat(left, right *Node) *Node {
	if left == nil || left.Len() == 0 {
		if right == nil {
			return newLeafNode()
		}
		return right
	}
	if right == nil || right.Len() == 0 {
		return left
	}

	switch {
	case left.height == right.height:
		return mergeSameHeight(left, right)
	case left.height > right.height:
		last := len(left.children) - 1
		merged := concat(left.children[last], right)
		children := copyNodes(left.children[:last])
		if merged.height == left.height {
			children = append(children, merged.children...)
		} else {
			children = append(children, merged)
		}
		return packChildren(children)
	default:
		merged := concat(left, right.children[0])
		var children []*Node
		if merged.height == right.height {
			children = append(children, merged.children...)
		} else {
			children = append(children, merged)
		}
		children = append(children, right.children[1:]...)
		return packChildren(children)
	}
}

// mergeSameHeight merges two nodes of equal height.
func mergeSameHeight(left, right *Node) *Node {
	if left.IsLeaf() {
		chunks := make([]Chunk, 0, len(left.chunks)+len(right.chunks))
		chunks = append(chunks, left.chunks...)
		chunks = append(chunks, right.chunks...)
		if len(chunks) <= MaxChunksPerLeaf {
			return newLeafNodeWithChunks(chunks)
		}
		return newInternalNode([]*Node{left, right})
	}

	children := make([]*Node, 0, len(left.children)+len(right.children))
	children = append(children, left.children...)
	children = append(children, right.children...)
	return packChildren(children)
}

// packChildren wraps same-height children into one node, or into a parent of
// two nodes when they exceed MaxChildren.
func packChildren(children []*Node) *Node {
	if len(children) <= MaxChildren {
		return newInternalNode(children)
	}
	mid := len(children) / 2
	return newInternalNode([]*Node{
		newInternalNode(copyNodes(children[:mid])),
		newInternalNode(copyNodes(children[mid:])),
	})
}

// prefixSummary returns the summary of the text in [0, offset).
func (n *Node) prefixSummary(offset ByteOffset) TextSummary {
	sum := TextSummary{Flags: FlagASCII}
	node := n
	for !node.IsLeaf() {
		idx := len(node.children) - 1
		for i, cs := range node.childSummaries {
			if offset < cs.Bytes {
				idx = i
				break
			}
			if i == len(node.childSummaries)-1 {
				break
			}
			offset -= cs.Bytes
			sum = sum.Add(cs)
		}
		node = node.children[idx]
	}

	for _, chunk := range node.chunks {
		chunkLen := ByteOffset(chunk.Len())
		if offset >= chunkLen {
			sum = sum.Add(chunk.Summary())
			offset -= chunkLen
			continue
		}
		sum = sum.Add(ComputeSummary(chunk.String()[:offset]))
		break
	}
	return sum
}

// byteOfChar returns the byte offset of the given character index.
func (n *Node) byteOfChar(char uint64) ByteOffset {
	var bytes ByteOffset
	node := n
	for !node.IsLeaf() {
		idx := len(node.children) - 1
		for i, cs := range node.childSummaries {
			if char < cs.Chars || i == len(node.childSummaries)-1 {
				idx = i
				break
			}
			char -= cs.Chars
			bytes += cs.Bytes
		}
		node = node.children[idx]
	}

	for _, chunk := range node.chunks {
		cs := chunk.Summary()
		if char >= cs.Chars {
			char -= cs.Chars
			bytes += cs.Bytes
			continue
		}
		return bytes + ByteOffset(chunk.CharToByte(char))
	}
	return bytes
}

// byteOfLine returns the byte offset at which the given line starts.
// line must be within [1, Lines].
func (n *Node) byteOfLine(line uint32) ByteOffset {
	var bytes ByteOffset
	node := n
	for !node.IsLeaf() {
		idx := len(node.children) - 1
		for i, cs := range node.childSummaries {
			if line <= cs.Lines || i == len(node.childSummaries)-1 {
				idx = i
				break
			}
			line -= cs.Lines
			bytes += cs.Bytes
		}
		node = node.children[idx]
	}

	for _, chunk := range node.chunks {
		cs := chunk.Summary()
		if line > cs.Lines {
			line -= cs.Lines
			bytes += cs.Bytes
			continue
		}
		if i := nthNewline(chunk.String(), line); i >= 0 {
			return bytes + ByteOffset(i+1)
		}
	}
	return bytes
}
