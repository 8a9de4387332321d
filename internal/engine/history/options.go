package history

import (
	"log/slog"
	"time"
)

// Default configuration values.
const (
	DefaultMaxEntries     = 1000
	DefaultCoalesceWindow = time.Second
)

// Option configures a History during creation.
type Option func(*History)

// WithMaxEntries bounds the number of entries kept. The oldest entries are
// dropped first.
func WithMaxEntries(max int) Option {
	return func(h *History) {
		if max > 0 {
			h.maxEntries = max
		}
	}
}

// WithCoalesceWindow sets the longest gap between two commits that may
// still be merged. Zero disables coalescing.
func WithCoalesceWindow(d time.Duration) Option {
	return func(h *History) {
		if d >= 0 {
			h.window = d
		}
	}
}

// WithClock sets the time source used to stamp entries.
func WithClock(now func() time.Time) Option {
	return func(h *History) {
		if now != nil {
			h.now = now
		}
	}
}

// WithLogger sets the logger for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(h *History) {
		if logger != nil {
			h.logger = logger
		}
	}
}
