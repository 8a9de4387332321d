package grammar

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"
)

// Errors returned by the registry.
var (
	ErrUnknownLanguage = errors.New("unknown language")
	ErrUnknownParser   = errors.New("no parser compiled in for grammar")
	ErrInvalidLanguage = errors.New("language needs a name and a parser")
)

// Registry maps language names and file extensions to languages. It is
// safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	langs     map[string]*Language
	byExt     map[string]string
	queryPath map[string]string // language name -> highlight query file
	listeners []func(*Language)

	logger *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger for reload messages.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithLanguages registers languages at creation.
func WithLanguages(langs ...*Language) Option {
	return func(r *Registry) {
		for _, l := range langs {
			if err := r.Register(l); err != nil {
				r.logger.Warn("skip language", slog.Any("error", err))
			}
		}
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		langs:     make(map[string]*Language),
		byExt:     make(map[string]string),
		queryPath: make(map[string]string),
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds or replaces a language. Listeners are told about
// replacements.
func (r *Registry) Register(lang *Language) error {
	if lang == nil || lang.Name == "" || lang.Sitter == nil {
		return ErrInvalidLanguage
	}

	r.mu.Lock()
	_, replaced := r.langs[lang.Name]
	r.langs[lang.Name] = lang
	for _, ext := range lang.Extensions {
		r.byExt[normalizeExt(ext)] = lang.Name
	}
	listeners := slices.Clone(r.listeners)
	r.mu.Unlock()

	if replaced {
		for _, fn := range listeners {
			fn(lang)
		}
	}
	return nil
}

// Lookup returns the language registered under name.
func (r *Registry) Lookup(name string) (*Language, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lang, ok := r.langs[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownLanguage)
	}
	return lang, nil
}

// ForPath returns the language for a file, chosen by extension.
func (r *Registry) ForPath(path string) (*Language, error) {
	r.mu.RLock()
	name, ok := r.byExt[normalizeExt(filepath.Ext(path))]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("no language for %q: %w", path, ErrUnknownLanguage)
	}
	return r.Lookup(name)
}

// Names returns the registered language names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.langs))
	for name := range r.langs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// OnChange registers fn to be called whenever a registered language is
// replaced, for example after its query file changed on disk.
func (r *Registry) OnChange(fn func(*Language)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
