package syntax

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// Node is a node of a Tree. The zero Node is not part of any tree.
type Node struct {
	n *sitter.Node
	t *Tree
}

// wrap must be called with t.mu held.
func (t *Tree) wrap(n *sitter.Node) Node {
	if n == nil || n.IsNull() {
		return Node{}
	}
	return Node{n: n, t: t}
}

// IsZero reports whether n is the zero Node.
func (n Node) IsZero() bool { return n.n == nil }

func (n Node) lock() func() {
	n.t.mu.Lock()
	return n.t.mu.Unlock
}

// Kind returns the grammar type of the node, such as "identifier" or "(".
func (n Node) Kind() string {
	defer n.lock()()
	return n.n.Type()
}

// IsNamed reports whether the node is a named node.
func (n Node) IsNamed() bool {
	defer n.lock()()
	return n.n.IsNamed()
}

// IsMissing reports whether the parser inserted the node to recover.
func (n Node) IsMissing() bool {
	defer n.lock()()
	return n.n.IsMissing()
}

// HasError reports whether the node contains a syntax error.
func (n Node) HasError() bool {
	defer n.lock()()
	return n.n.HasError()
}

// ByteRange returns the bytes the node spans.
func (n Node) ByteRange() ByteRange {
	defer n.lock()()
	return ByteRange{Start: int(n.n.StartByte()), End: int(n.n.EndByte())}
}

// CharRange returns the character positions the node spans.
func (n Node) CharRange() (from, to int) {
	r := n.ByteRange()
	return n.t.charOf(r.Start), n.t.charOf(r.End)
}

// Text returns the source text of the node.
func (n Node) Text() string {
	r := n.ByteRange()
	return string(n.t.src[r.Start:r.End])
}

// String returns the node as an S-expression.
func (n Node) String() string {
	defer n.lock()()
	return n.n.String()
}

// Parent returns the parent node; ok is false for the root.
func (n Node) Parent() (Node, bool) {
	defer n.lock()()
	p := n.t.wrap(n.n.Parent())
	return p, !p.IsZero()
}

// ChildCount returns the number of children, named or not.
func (n Node) ChildCount() int {
	defer n.lock()()
	return int(n.n.ChildCount())
}

// Child returns the i-th child.
func (n Node) Child(i int) (Node, bool) {
	defer n.lock()()
	if i < 0 || i >= int(n.n.ChildCount()) {
		return Node{}, false
	}
	c := n.t.wrap(n.n.Child(i))
	return c, !c.IsZero()
}

// NamedChild returns the i-th named child.
func (n Node) NamedChild(i int) (Node, bool) {
	defer n.lock()()
	if i < 0 || i >= int(n.n.NamedChildCount()) {
		return Node{}, false
	}
	c := n.t.wrap(n.n.NamedChild(i))
	return c, !c.IsZero()
}

// Children returns all children in order.
func (n Node) Children() []Node {
	defer n.lock()()
	count := int(n.n.ChildCount())
	out := make([]Node, 0, count)
	for i := 0; i < count; i++ {
		if c := n.t.wrap(n.n.Child(i)); !c.IsZero() {
			out = append(out, c)
		}
	}
	return out
}

// NamedChildren returns the named children in order.
func (n Node) NamedChildren() []Node {
	defer n.lock()()
	count := int(n.n.NamedChildCount())
	out := make([]Node, 0, count)
	for i := 0; i < count; i++ {
		if c := n.t.wrap(n.n.NamedChild(i)); !c.IsZero() {
			out = append(out, c)
		}
	}
	return out
}

// NextSibling returns the following sibling.
func (n Node) NextSibling() (Node, bool) {
	defer n.lock()()
	s := n.t.wrap(n.n.NextSibling())
	return s, !s.IsZero()
}

// PrevSibling returns the preceding sibling.
func (n Node) PrevSibling() (Node, bool) {
	defer n.lock()()
	s := n.t.wrap(n.n.PrevSibling())
	return s, !s.IsZero()
}

// NextNamedSibling returns the following named sibling.
func (n Node) NextNamedSibling() (Node, bool) {
	defer n.lock()()
	s := n.t.wrap(n.n.NextNamedSibling())
	return s, !s.IsZero()
}

// PrevNamedSibling returns the preceding named sibling.
func (n Node) PrevNamedSibling() (Node, bool) {
	defer n.lock()()
	s := n.t.wrap(n.n.PrevNamedSibling())
	return s, !s.IsZero()
}

// Equal reports whether both values denote the same node.
func (n Node) Equal(other Node) bool {
	if n.IsZero() || other.IsZero() {
		return n.IsZero() == other.IsZero()
	}
	if n.t != other.t {
		return false
	}
	defer n.lock()()
	return n.n.StartByte() == other.n.StartByte() &&
		n.n.EndByte() == other.n.EndByte() &&
		n.n.Symbol() == other.n.Symbol()
}

// NodeAt returns the smallest node that contains the character at pos.
// At the end of the buffer the root is returned.
func (t *Tree) NodeAt(pos int) (Node, bool) {
	b, err := t.byteOf(pos)
	if err != nil {
		return Node{}, false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.wrap(descendant(t.tree.RootNode(), b, b)), true
}

// DescendantForByteRange returns the smallest node that spans [start, end).
func (t *Tree) DescendantForByteRange(start, end int) Node {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.wrap(descendant(t.tree.RootNode(), start, end))
}

// descendant walks down from n to the smallest node covering [start, end).
// An empty range selects the node containing the byte at start.
func descendant(n *sitter.Node, start, end int) *sitter.Node {
	for {
		var next *sitter.Node
		count := int(n.ChildCount())
		for i := 0; i < count; i++ {
			c := n.Child(i)
			if c == nil {
				continue
			}
			cs, ce := int(c.StartByte()), int(c.EndByte())
			if cs > start {
				break
			}
			if ce == cs {
				continue
			}
			if start == end && start < ce {
				next = c
				break
			}
			if start < end && end <= ce {
				next = c
				break
			}
		}
		if next == nil {
			return n
		}
		n = next
	}
}
