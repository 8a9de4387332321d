// Package grammar holds the languages the syntax layer can parse.
//
// A Language pairs a tree-sitter parser with its highlight query and
// bracket pairs. Parsers are compiled into the binary and registered by
// name; queries are plain data and can be loaded from a YAML manifest and
// reloaded from disk while the editor runs:
//
//	reg := grammar.NewRegistry()
//	if err := reg.LoadManifest("languages.yaml"); err != nil { ... }
//	w, err := reg.Watch()
//	defer w.Close()
//
// Registries are passed explicitly; there is no global instance.
package grammar
