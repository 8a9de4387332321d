package engine

import (
	"log/slog"
	"time"

	"github.com/dshills/editcore/internal/engine/buffer"
	"github.com/dshills/editcore/internal/engine/history"
	"github.com/dshills/editcore/internal/engine/notify"
	"github.com/dshills/editcore/internal/engine/selection"
	"github.com/dshills/editcore/internal/grammar"
)

// Default configuration values.
const (
	DefaultTabWidth = 4
)

// Option configures a Document during creation.
type Option func(*Document)

// WithText sets the initial text of the document.
func WithText(text string) Option {
	return func(d *Document) {
		d.initText = text
	}
}

// WithLineEnding records the line ending the document was loaded with.
func WithLineEnding(ending buffer.LineEnding) Option {
	return func(d *Document) {
		d.lineEnding = ending
	}
}

// WithTabWidth sets the tab width for the document.
func WithTabWidth(width int) Option {
	return func(d *Document) {
		if width > 0 {
			d.tabWidth = width
		}
	}
}

// WithLanguage enables syntax support. A nil language leaves the document
// in plain mode.
func WithLanguage(lang *grammar.Language) Option {
	return func(d *Document) {
		d.initLang = lang
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Document) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithHistory passes options to the undo history.
func WithHistory(opts ...history.Option) Option {
	return func(d *Document) {
		d.historyOpts = append(d.historyOpts, opts...)
	}
}

// WithNotifier sends document events to n. The caller owns n; Close does
// not close it.
func WithNotifier(n *notify.Notifier) Option {
	return func(d *Document) {
		d.notifier = n
	}
}

// WithOriginAssoc sets where the cursors of the editing view land relative
// to text inserted at their position, for transactions that carry no
// selection of their own. Cursors of other views always land after.
func WithOriginAssoc(assoc selection.Assoc) Option {
	return func(d *Document) {
		d.originAssoc = assoc
	}
}

// WithIdleDelay delays reparsing until edits pause for d.
func WithIdleDelay(delay time.Duration) Option {
	return func(d *Document) {
		if delay >= 0 {
			d.idleDelay = delay
		}
	}
}

// WithLexer names the lexer used to highlight while no syntax tree is
// available: a language name such as "python" or a file name such as
// "main.py".
func WithLexer(name string) Option {
	return func(d *Document) {
		d.lexer = name
	}
}
