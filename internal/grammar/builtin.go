package grammar

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
)

// Parsers compiled into the binary, by grammar name.
var builtinParsers = map[string]func() *sitter.Language{
	"go": golang.GetLanguage,
}

// goHighlights lists generic patterns first; a later pattern on the same
// node takes precedence.
const goHighlights = `
(identifier) @variable
(field_identifier) @property
(type_identifier) @type
(package_identifier) @namespace

(function_declaration name: (identifier) @function)
(method_declaration name: (field_identifier) @function.method)
(call_expression function: (identifier) @function.call)

(interpreted_string_literal) @string
(raw_string_literal) @string
(int_literal) @number
(float_literal) @number
(comment) @comment

[
  "break" "case" "const" "continue" "default" "defer" "else" "for" "func"
  "go" "if" "import" "interface" "map" "package" "range" "return" "struct"
  "switch" "type" "var"
] @keyword
`

// Go returns the bundled Go language.
func Go() *Language {
	return &Language{
		Name:       "go",
		Sitter:     golang.GetLanguage(),
		Highlights: goHighlights,
		Brackets:   DefaultBrackets,
		Extensions: []string{".go"},
	}
}
