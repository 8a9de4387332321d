package syntax

import (
	"fmt"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"

	"github.com/dshills/editcore/internal/engine/buffer"
)

// PlainHighlighter highlights with a regular-expression lexer. It serves
// buffers that have no grammar and produces the same capture names as the
// tree highlighter where the token kinds line up.
type PlainHighlighter struct {
	lexer chroma.Lexer
}

// NewPlainHighlighter picks a lexer by language name, then by file name.
// Unknown names get a lexer that emits no captures.
func NewPlainHighlighter(name string) *PlainHighlighter {
	lexer := lexers.Get(name)
	if lexer == nil {
		lexer = lexers.Match(name)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	return &PlainHighlighter{lexer: chroma.Coalesce(lexer)}
}

// Name returns the lexer's name.
func (h *PlainHighlighter) Name() string {
	return h.lexer.Config().Name
}

// Highlights lexes buf and returns the events that intersect r.
func (h *PlainHighlighter) Highlights(buf buffer.Buffer, r ByteRange) (*HighlightIterator, error) {
	src := buf.String()
	r.Start = max(r.Start, 0)
	r.End = min(r.End, len(src))
	if r.Start >= r.End {
		return &HighlightIterator{}, nil
	}

	// CRLF must survive lexing or byte offsets drift.
	it, err := h.lexer.Tokenise(&chroma.TokeniseOptions{State: "root"}, src)
	if err != nil {
		return nil, fmt.Errorf("lex %s: %w", h.Name(), err)
	}

	var caps []capture
	offset := 0
	for _, tok := range it.Tokens() {
		start, end := offset, offset+len(tok.Value)
		offset = end
		if start >= r.End {
			break
		}
		name := tokenCapture(tok.Type)
		start, end = max(start, r.Start), min(end, r.End)
		if name == "" || start >= end {
			continue
		}
		caps = append(caps, capture{start: start, end: end, seq: len(caps), name: name})
	}
	return &HighlightIterator{events: resolve(caps)}, nil
}

func tokenCapture(t chroma.TokenType) string {
	switch {
	case t == chroma.KeywordType:
		return "type"
	case t.InCategory(chroma.Keyword):
		return "keyword"
	case t.InCategory(chroma.Comment):
		return "comment"
	case t.InSubCategory(chroma.LiteralString):
		return "string"
	case t.InSubCategory(chroma.LiteralNumber):
		return "number"
	case t == chroma.NameFunction:
		return "function"
	case t == chroma.NameBuiltin:
		return "function.builtin"
	case t == chroma.NameClass:
		return "type"
	case t.InCategory(chroma.Operator):
		return "operator"
	case t.InCategory(chroma.Punctuation):
		return "punctuation"
	}
	return ""
}
