package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dshills/editcore/internal/engine"
	"github.com/dshills/editcore/internal/engine/buffer"
	"github.com/dshills/editcore/internal/engine/history"
	"github.com/dshills/editcore/internal/grammar"
)

// Config holds the settings of the editing core.
type Config struct {
	History  HistoryConfig  `toml:"history" yaml:"history"`
	Document DocumentConfig `toml:"document" yaml:"document"`
	Syntax   SyntaxConfig   `toml:"syntax" yaml:"syntax"`
	Log      LogConfig      `toml:"log" yaml:"log"`

	// dir is the directory of the last file loaded. Relative paths in the
	// settings resolve against it.
	dir string
}

// HistoryConfig configures the undo history.
type HistoryConfig struct {
	MaxEntries     int      `toml:"max_entries" yaml:"max_entries"`
	CoalesceWindow Duration `toml:"coalesce_window" yaml:"coalesce_window"`
}

// DocumentConfig configures new documents.
type DocumentConfig struct {
	LineEnding string `toml:"line_ending" yaml:"line_ending"`
	TabWidth   int    `toml:"tab_width" yaml:"tab_width"`
}

// SyntaxConfig configures parsing and highlighting.
type SyntaxConfig struct {
	// Language names a registered grammar. Empty means plain text.
	Language string `toml:"language" yaml:"language"`
	// IdleDelay postpones reparsing until edits pause.
	IdleDelay Duration `toml:"idle_delay" yaml:"idle_delay"`
	// Grammars is the path of a grammar manifest.
	Grammars string `toml:"grammars" yaml:"grammars"`
	// Lexer picks the fallback highlighter.
	Lexer string `toml:"lexer" yaml:"lexer"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
}

// Duration is a time.Duration written as a string such as "500ms".
type Duration time.Duration

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidValue, err)
	}
	*d = Duration(v)
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalYAML parses a duration scalar.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	return d.UnmarshalText([]byte(node.Value))
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		History: HistoryConfig{
			MaxEntries:     history.DefaultMaxEntries,
			CoalesceWindow: Duration(history.DefaultCoalesceWindow),
		},
		Document: DocumentConfig{
			LineEnding: buffer.LineEndingLF.String(),
			TabWidth:   engine.DefaultTabWidth,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks every setting and reports all problems at once.
func (c Config) Validate() error {
	var errs []error
	invalid := func(key string, v any) {
		errs = append(errs, fmt.Errorf("%s = %v: %w", key, v, ErrInvalidValue))
	}

	if c.History.MaxEntries < 1 {
		invalid("history.max_entries", c.History.MaxEntries)
	}
	if c.History.CoalesceWindow < 0 {
		invalid("history.coalesce_window", time.Duration(c.History.CoalesceWindow))
	}
	if _, ok := buffer.ParseLineEnding(c.Document.LineEnding); !ok {
		invalid("document.line_ending", c.Document.LineEnding)
	}
	if c.Document.TabWidth < 1 {
		invalid("document.tab_width", c.Document.TabWidth)
	}
	if c.Syntax.IdleDelay < 0 {
		invalid("syntax.idle_delay", time.Duration(c.Syntax.IdleDelay))
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		invalid("log.level", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		invalid("log.format", c.Log.Format)
	}
	return errors.Join(errs...)
}

// Registry builds a grammar registry holding the bundled grammars and the
// languages of the configured manifest. Languages that fail to load are
// reported while the rest stay usable.
func (c Config) Registry(logger *slog.Logger) (*grammar.Registry, error) {
	reg := grammar.NewRegistry(grammar.WithLogger(logger), grammar.WithLanguages(grammar.Go()))
	if c.Syntax.Grammars == "" {
		return reg, nil
	}
	if err := reg.LoadManifest(c.resolve(c.Syntax.Grammars)); err != nil {
		return reg, fmt.Errorf("syntax.grammars: %w", err)
	}
	return reg, nil
}

// Options converts the settings to document options. reg resolves
// syntax.language and may be nil when no language is configured.
func (c Config) Options(reg *grammar.Registry) ([]engine.Option, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	le, _ := buffer.ParseLineEnding(c.Document.LineEnding)

	opts := []engine.Option{
		engine.WithHistory(
			history.WithMaxEntries(c.History.MaxEntries),
			history.WithCoalesceWindow(time.Duration(c.History.CoalesceWindow)),
		),
		engine.WithLineEnding(le),
		engine.WithTabWidth(c.Document.TabWidth),
		engine.WithIdleDelay(time.Duration(c.Syntax.IdleDelay)),
	}
	if c.Syntax.Lexer != "" {
		opts = append(opts, engine.WithLexer(c.Syntax.Lexer))
	}
	if c.Syntax.Language != "" {
		if reg == nil {
			return nil, fmt.Errorf("syntax.language %q: %w", c.Syntax.Language, grammar.ErrUnknownLanguage)
		}
		lang, err := reg.Lookup(c.Syntax.Language)
		if err != nil {
			return nil, fmt.Errorf("syntax.language: %w", err)
		}
		opts = append(opts, engine.WithLanguage(lang))
	}
	return opts, nil
}

// Logger creates a logger writing to w at the configured level.
func (c Config) Logger(w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func (c Config) resolve(path string) string {
	if filepath.IsAbs(path) || c.dir == "" {
		return path
	}
	return filepath.Join(c.dir, path)
}
