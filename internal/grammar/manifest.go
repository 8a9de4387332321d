package grammar

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// Manifest lists languages to register. Query paths are relative to the
// manifest file.
//
//	languages:
//	  - name: go
//	    grammar: go
//	    extensions: [".go"]
//	    highlights: queries/go/highlights.scm
//	    brackets: ["()", "[]", "{}"]
type Manifest struct {
	Languages []ManifestLanguage `yaml:"languages"`
}

// ManifestLanguage is one entry of a Manifest.
type ManifestLanguage struct {
	Name       string   `yaml:"name"`
	Grammar    string   `yaml:"grammar"`
	Extensions []string `yaml:"extensions"`
	Highlights string   `yaml:"highlights"`
	Brackets   []string `yaml:"brackets"`
}

// ParseManifest decodes a YAML manifest.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}

// LoadManifest reads a manifest and registers every language in it.
// Languages whose query file changes later can be reloaded with Watch.
func (r *Registry) LoadManifest(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}
	m, err := ParseManifest(data)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	var errs []error
	for _, ml := range m.Languages {
		lang, queryFile, err := ml.build(dir)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := r.Register(lang); err != nil {
			errs = append(errs, fmt.Errorf("language %q: %w", ml.Name, err))
			continue
		}
		if queryFile != "" {
			r.mu.Lock()
			r.queryPath[lang.Name] = queryFile
			r.mu.Unlock()
		}
	}
	return errors.Join(errs...)
}

func (ml ManifestLanguage) build(dir string) (*Language, string, error) {
	grammarName := ml.Grammar
	if grammarName == "" {
		grammarName = ml.Name
	}
	parser, ok := builtinParsers[grammarName]
	if !ok {
		return nil, "", fmt.Errorf("language %q grammar %q: %w", ml.Name, grammarName, ErrUnknownParser)
	}

	brackets, err := parseBrackets(ml.Brackets)
	if err != nil {
		return nil, "", fmt.Errorf("language %q: %w", ml.Name, err)
	}

	lang := &Language{
		Name:       ml.Name,
		Sitter:     parser(),
		Brackets:   brackets,
		Extensions: ml.Extensions,
	}

	var queryFile string
	if ml.Highlights != "" {
		queryFile = ml.Highlights
		if !filepath.IsAbs(queryFile) {
			queryFile = filepath.Join(dir, queryFile)
		}
		src, err := os.ReadFile(queryFile)
		if err != nil {
			return nil, "", fmt.Errorf("language %q: %w", ml.Name, err)
		}
		lang.Highlights = string(src)
	}
	return lang, queryFile, nil
}

func parseBrackets(pairs []string) ([]BracketPair, error) {
	out := make([]BracketPair, 0, len(pairs))
	for _, p := range pairs {
		if utf8.RuneCountInString(p) != 2 {
			return nil, fmt.Errorf("bracket pair %q must be two characters", p)
		}
		open, n := utf8.DecodeRuneInString(p)
		closing, _ := utf8.DecodeRuneInString(p[n:])
		out = append(out, BracketPair{Open: open, Close: closing})
	}
	return out, nil
}
