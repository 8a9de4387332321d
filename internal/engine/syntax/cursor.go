package syntax

// TreeCursor walks a tree one node at a time. Moves that are not possible
// leave the cursor where it is and return false.
type TreeCursor struct {
	tree *Tree
	node Node
}

// Cursor returns a cursor at the root.
func (t *Tree) Cursor() *TreeCursor {
	return &TreeCursor{tree: t, node: t.Root()}
}

// Node returns the node under the cursor.
func (c *TreeCursor) Node() Node { return c.node }

func (c *TreeCursor) move(n Node, ok bool) bool {
	if !ok {
		return false
	}
	c.node = n
	return true
}

// GotoParent moves to the parent node.
func (c *TreeCursor) GotoParent() bool {
	return c.move(c.node.Parent())
}

// GotoParentWith moves up to the nearest ancestor accepted by pred.
func (c *TreeCursor) GotoParentWith(pred func(Node) bool) bool {
	for n, ok := c.node.Parent(); ok; n, ok = n.Parent() {
		if pred(n) {
			c.node = n
			return true
		}
	}
	return false
}

// GotoFirstChild moves to the first child.
func (c *TreeCursor) GotoFirstChild() bool {
	return c.move(c.node.Child(0))
}

// GotoFirstNamedChild moves to the first named child.
func (c *TreeCursor) GotoFirstNamedChild() bool {
	return c.move(c.node.NamedChild(0))
}

// GotoNextSibling moves to the next sibling.
func (c *TreeCursor) GotoNextSibling() bool {
	return c.move(c.node.NextSibling())
}

// GotoPrevSibling moves to the previous sibling.
func (c *TreeCursor) GotoPrevSibling() bool {
	return c.move(c.node.PrevSibling())
}

// GotoNextNamedSibling moves to the next named sibling.
func (c *TreeCursor) GotoNextNamedSibling() bool {
	return c.move(c.node.NextNamedSibling())
}

// GotoPrevNamedSibling moves to the previous named sibling.
func (c *TreeCursor) GotoPrevNamedSibling() bool {
	return c.move(c.node.PrevNamedSibling())
}

// ResetToByteRange moves to the smallest node spanning [start, end).
func (c *TreeCursor) ResetToByteRange(start, end int) {
	c.node = c.tree.DescendantForByteRange(start, end)
}

// FirstContainedChild moves to the first child that lies entirely inside r.
func (c *TreeCursor) FirstContainedChild(r ByteRange) bool {
	for _, ch := range c.node.Children() {
		br := ch.ByteRange()
		if br.Start >= r.Start && br.End <= r.End {
			c.node = ch
			return true
		}
	}
	return false
}

// Children returns the children of the current node.
func (c *TreeCursor) Children() []Node { return c.node.Children() }

// NamedChildren returns the named children of the current node.
func (c *TreeCursor) NamedChildren() []Node { return c.node.NamedChildren() }
