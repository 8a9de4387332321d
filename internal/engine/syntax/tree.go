package syntax

import (
	"context"
	"errors"
	"fmt"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/dshills/editcore/internal/engine/buffer"
	"github.com/dshills/editcore/internal/engine/transaction"
	"github.com/dshills/editcore/internal/grammar"
)

// ErrNoLanguage is returned when parsing without a language.
var ErrNoLanguage = errors.New("no language")

// ByteRange is a half-open range of byte offsets.
type ByteRange struct {
	Start int
	End   int
}

// Len returns the number of bytes covered.
func (r ByteRange) Len() int { return r.End - r.Start }

// Contains reports whether b lies in [Start, End).
func (r ByteRange) Contains(b int) bool { return b >= r.Start && b < r.End }

// InputEdit describes one edit in tree-sitter terms.
type InputEdit = sitter.EditInput

// Parser parses buffers of one language. A Parser is not safe for
// concurrent use.
type Parser struct {
	lang *grammar.Language
	p    *sitter.Parser
}

// NewParser creates a parser for lang.
func NewParser(lang *grammar.Language) *Parser {
	p := sitter.NewParser()
	if lang != nil {
		p.SetLanguage(lang.Sitter)
	}
	return &Parser{lang: lang, p: p}
}

// Language returns the parser's language.
func (p *Parser) Language() *grammar.Language { return p.lang }

// Parse parses buf from scratch.
func (p *Parser) Parse(ctx context.Context, buf buffer.Buffer) (*Tree, error) {
	return p.parse(ctx, nil, buf)
}

// Close releases the parser.
func (p *Parser) Close() { p.p.Close() }

func (p *Parser) parse(ctx context.Context, old *sitter.Tree, buf buffer.Buffer) (*Tree, error) {
	if p.lang == nil {
		return nil, ErrNoLanguage
	}
	src := []byte(buf.String())
	tree, err := p.p.ParseCtx(ctx, old, src)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("parse %s: %w", p.lang.Name, ctx.Err())
		}
		return nil, fmt.Errorf("parse %s: %w", p.lang.Name, err)
	}
	if tree == nil {
		return nil, fmt.Errorf("parse %s: no tree", p.lang.Name)
	}
	return &Tree{tree: tree, lang: p.lang, buf: buf, src: src}, nil
}

// Parse parses buf with a one-off parser.
func Parse(ctx context.Context, lang *grammar.Language, buf buffer.Buffer) (*Tree, error) {
	p := NewParser(lang)
	defer p.Close()
	return p.Parse(ctx, buf)
}

// Tree is the syntax tree of one buffer revision. Trees never change once
// built; Edit and Reparse return new trees. A Tree may be read from many
// goroutines.
type Tree struct {
	// mu serializes access to the underlying tree, which caches nodes.
	mu   sync.Mutex
	tree *sitter.Tree
	lang *grammar.Language
	buf  buffer.Buffer
	src  []byte
}

// Revision returns the revision of the buffer the tree was parsed from.
func (t *Tree) Revision() buffer.Revision { return t.buf.Revision() }

// Buffer returns the buffer the tree was parsed from.
func (t *Tree) Buffer() buffer.Buffer { return t.buf }

// Language returns the tree's language.
func (t *Tree) Language() *grammar.Language { return t.lang }

// Root returns the root node.
func (t *Tree) Root() Node {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.wrap(t.tree.RootNode())
}

// String returns the tree as an S-expression.
func (t *Tree) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tree.RootNode().String()
}

// Edit returns a copy of the tree with edits applied. The receiver is not
// modified. The result only serves as the base of a Reparse.
func (t *Tree) Edit(edits []InputEdit) *Tree {
	t.mu.Lock()
	c := t.tree.Copy()
	t.mu.Unlock()

	for _, e := range edits {
		c.Edit(e)
	}
	return &Tree{tree: c, lang: t.lang, buf: t.buf, src: t.src}
}

// Reparse parses buf incrementally. edits lead from the tree's revision to
// buf, as returned by EditsFromChangeSet.
func (t *Tree) Reparse(ctx context.Context, p *Parser, buf buffer.Buffer, edits []InputEdit) (*Tree, error) {
	edited := t.Edit(edits)
	return p.parse(ctx, edited.tree, buf)
}

// EditsFromChangeSet converts the changes that turned old into updated
// into tree-sitter edits. Each edit is expressed in the coordinates left by
// the edits before it, which is how tree-sitter applies them.
func EditsFromChangeSet(cs transaction.ChangeSet, old, updated buffer.Buffer) ([]InputEdit, error) {
	changes := cs.Changes()
	edits := make([]InputEdit, 0, len(changes))
	delta := 0
	for _, c := range changes {
		start := c.OldStart + delta
		startByte, err := updated.CharToByte(start)
		if err != nil {
			return nil, err
		}
		startPt, err := updated.CharToPoint(start)
		if err != nil {
			return nil, err
		}
		deleted, err := old.Slice(c.OldStart, c.OldEnd)
		if err != nil {
			return nil, err
		}
		newEndByte, err := updated.CharToByte(start + c.NewLen)
		if err != nil {
			return nil, err
		}
		newEndPt, err := updated.CharToPoint(start + c.NewLen)
		if err != nil {
			return nil, err
		}

		edits = append(edits, InputEdit{
			StartIndex:  uint32(startByte),
			OldEndIndex: uint32(startByte + len(deleted)),
			NewEndIndex: uint32(newEndByte),
			StartPoint:  toPoint(startPt),
			OldEndPoint: advance(toPoint(startPt), deleted),
			NewEndPoint: toPoint(newEndPt),
		})
		delta += c.NewLen - (c.OldEnd - c.OldStart)
	}
	return edits, nil
}

func toPoint(p buffer.Point) sitter.Point {
	return sitter.Point{Row: p.Line, Column: p.Column}
}

// advance returns the point reached by writing text at p.
func advance(p sitter.Point, text string) sitter.Point {
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			p.Row++
			p.Column = 0
		} else {
			p.Column++
		}
	}
	return p
}

// byteOf converts a character position of the tree's buffer to a byte
// offset.
func (t *Tree) byteOf(pos int) (int, error) {
	return t.buf.CharToByte(pos)
}

// charOf converts a byte offset to a character position.
func (t *Tree) charOf(b int) int {
	pos, err := t.buf.ByteToChar(b)
	if err != nil {
		return t.buf.LenChars()
	}
	return pos
}

// pointAt returns the row and byte column of byte offset b. Offsets inside
// a multi-byte character resolve to the start of that character.
func (t *Tree) pointAt(b int) sitter.Point {
	pos := t.charOf(b)
	if at, err := t.byteOf(pos); err == nil && at > b && pos > 0 {
		pos--
	}
	p, err := t.buf.CharToPoint(pos)
	if err != nil {
		return sitter.Point{}
	}
	return toPoint(p)
}
