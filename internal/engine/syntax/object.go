package syntax

import (
	"github.com/dshills/editcore/internal/engine/selection"
)

// ExpandSelection grows every range to the smallest node that strictly
// contains it.
func (t *Tree) ExpandSelection(sel selection.Selection) (selection.Selection, error) {
	return t.transform(sel, func(c *TreeCursor, r ByteRange) bool {
		for c.Node().ByteRange() == r {
			if !c.GotoParent() {
				return false
			}
		}
		return true
	})
}

// ShrinkSelection narrows every range to the first child node inside it.
func (t *Tree) ShrinkSelection(sel selection.Selection) (selection.Selection, error) {
	return t.transform(sel, func(c *TreeCursor, r ByteRange) bool {
		if c.Node().ByteRange() == r {
			return c.GotoFirstChild()
		}
		return c.FirstContainedChild(r)
	})
}

// SelectNextSibling moves every range to the next named sibling of its node,
// climbing to ancestors when the node is the last of its parent.
func (t *Tree) SelectNextSibling(sel selection.Selection) (selection.Selection, error) {
	return t.transform(sel, func(c *TreeCursor, _ ByteRange) bool {
		for !c.GotoNextNamedSibling() {
			if !c.GotoParent() {
				return false
			}
		}
		return true
	})
}

// SelectPrevSibling is SelectNextSibling in the other direction.
func (t *Tree) SelectPrevSibling(sel selection.Selection) (selection.Selection, error) {
	return t.transform(sel, func(c *TreeCursor, _ ByteRange) bool {
		for !c.GotoPrevNamedSibling() {
			if !c.GotoParent() {
				return false
			}
		}
		return true
	})
}

// transform places a cursor on the node spanning each range and lets move
// pick the new node. Ranges whose move fails are kept.
func (t *Tree) transform(sel selection.Selection, move func(*TreeCursor, ByteRange) bool) (selection.Selection, error) {
	if err := sel.Validate(t.buf.LenChars()); err != nil {
		return selection.Selection{}, err
	}
	c := t.Cursor()
	return sel.Transform(func(r selection.Range) selection.Range {
		start, _ := t.byteOf(r.From())
		end, _ := t.byteOf(r.To())
		br := ByteRange{Start: start, End: end}

		c.ResetToByteRange(start, end)
		if !move(c, br) {
			return r
		}
		from, to := c.Node().CharRange()
		return selection.NewRange(from, to).WithDirection(r.Direction())
	}), nil
}
