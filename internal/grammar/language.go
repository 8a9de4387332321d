package grammar

import (
	"fmt"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
)

// BracketPair is an opening and closing bracket.
type BracketPair struct {
	Open  rune
	Close rune
}

// DefaultBrackets are used when a language does not name its own.
var DefaultBrackets = []BracketPair{{'(', ')'}, {'[', ']'}, {'{', '}'}}

// Language is a parser plus the data that drives highlighting and bracket
// matching. A Language must not be modified once registered.
type Language struct {
	Name       string
	Sitter     *sitter.Language
	Highlights string
	Brackets   []BracketPair
	Extensions []string

	once     sync.Once
	query    *sitter.Query
	queryErr error
}

// HighlightQuery compiles the highlight query on first use. A language
// without a query returns nil and no error.
func (l *Language) HighlightQuery() (*sitter.Query, error) {
	l.once.Do(func() {
		if l.Highlights == "" {
			return
		}
		l.query, l.queryErr = sitter.NewQuery([]byte(l.Highlights), l.Sitter)
		if l.queryErr != nil {
			l.queryErr = fmt.Errorf("highlight query for %s: %w", l.Name, l.queryErr)
		}
	})
	return l.query, l.queryErr
}

// BracketPairs returns the language's brackets or DefaultBrackets.
func (l *Language) BracketPairs() []BracketPair {
	if l == nil || len(l.Brackets) == 0 {
		return DefaultBrackets
	}
	return l.Brackets
}

// withHighlights returns a copy of l using a different query.
func (l *Language) withHighlights(src string) *Language {
	return &Language{
		Name:       l.Name,
		Sitter:     l.Sitter,
		Highlights: src,
		Brackets:   l.Brackets,
		Extensions: l.Extensions,
	}
}
