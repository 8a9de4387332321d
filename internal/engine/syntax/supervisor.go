package syntax

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/editcore/internal/engine/buffer"
	"github.com/dshills/editcore/internal/grammar"
)

// ErrSupervisorClosed is returned once a Supervisor has been closed.
var ErrSupervisorClosed = errors.New("syntax supervisor closed")

// SupervisorOption configures a Supervisor.
type SupervisorOption func(*Supervisor)

// WithIdleDelay waits d after a submission before parsing. A submission
// arriving within d restarts the wait.
func WithIdleDelay(d time.Duration) SupervisorOption {
	return func(s *Supervisor) { s.idle = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) SupervisorOption {
	return func(s *Supervisor) {
		if l != nil {
			s.logger = l
		}
	}
}

// OnInstall registers fn to run after each tree is installed. fn runs on
// the parsing goroutine.
func OnInstall(fn func(*Tree)) SupervisorOption {
	return func(s *Supervisor) { s.onInstall = fn }
}

// Supervisor keeps a syntax tree up to date with a stream of buffer
// revisions. At most one parse is in flight: each Submit cancels the one
// before it. A finished parse is installed only if its revision is still
// the latest one submitted, so Current never goes backwards.
type Supervisor struct {
	lang      *grammar.Language
	logger    *slog.Logger
	idle      time.Duration
	onInstall func(*Tree)

	current atomic.Pointer[Tree]

	mu        sync.Mutex
	target    buffer.Buffer
	hasTarget bool
	// pending leads from current's revision to target.
	pending []InputEdit
	cancel  context.CancelFunc
	failed  error
	changed chan struct{}
	closed  bool
	wg      sync.WaitGroup

	// beforeParse runs on the job goroutine just before parsing.
	beforeParse func(buffer.Revision)
}

// NewSupervisor creates a supervisor for lang. Nothing is parsed until the
// first Submit.
func NewSupervisor(lang *grammar.Language, opts ...SupervisorOption) *Supervisor {
	s := &Supervisor{
		lang:    lang,
		logger:  slog.New(slog.DiscardHandler),
		changed: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type job struct {
	base  *Tree
	edits []InputEdit
	buf   buffer.Buffer
}

// Submit asks for a tree of buf. edits lead from the previously submitted
// buffer to buf; they are ignored while no tree has been installed.
func (s *Supervisor) Submit(buf buffer.Buffer, edits []InputEdit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSupervisorClosed
	}

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.target = buf
	s.hasTarget = true
	s.failed = nil

	base := s.current.Load()
	if base != nil && base.Revision() == buf.Revision() {
		s.pending = nil
		return nil
	}
	if base != nil {
		s.pending = append(s.pending, edits...)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	j := job{base: base, edits: slices.Clone(s.pending), buf: buf}
	s.wg.Add(1)
	go s.run(ctx, j)
	return nil
}

func (s *Supervisor) run(ctx context.Context, j job) {
	defer s.wg.Done()
	rev := j.buf.Revision()

	if s.idle > 0 {
		timer := time.NewTimer(s.idle)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
	if s.beforeParse != nil {
		s.beforeParse(rev)
	}

	p := NewParser(s.lang)
	defer p.Close()

	var (
		tree *Tree
		err  error
	)
	start := time.Now()
	if j.base == nil {
		tree, err = p.Parse(ctx, j.buf)
	} else {
		tree, err = j.base.Reparse(ctx, p, j.buf, j.edits)
	}
	if err != nil {
		if ctx.Err() != nil {
			s.logger.Debug("parse superseded", "revision", rev)
			return
		}
		s.fail(rev, err)
		return
	}
	s.logger.Debug("parsed",
		"language", s.lang.Name,
		"revision", rev,
		"incremental", j.base != nil,
		"duration", time.Since(start))
	s.install(tree)
}

func (s *Supervisor) install(tree *Tree) {
	s.mu.Lock()
	if s.closed || !s.hasTarget || tree.Revision() != s.target.Revision() {
		s.mu.Unlock()
		s.logger.Debug("stale tree rejected", "revision", tree.Revision())
		return
	}
	s.current.Store(tree)
	s.pending = nil
	s.signal()
	s.mu.Unlock()

	if s.onInstall != nil {
		s.onInstall(tree)
	}
}

func (s *Supervisor) fail(rev buffer.Revision, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasTarget || rev != s.target.Revision() {
		return
	}
	s.logger.Warn("parse failed", "language", s.lang.Name, "revision", rev, "error", err)
	s.failed = err
	s.signal()
}

// signal must be called with s.mu held.
func (s *Supervisor) signal() {
	close(s.changed)
	s.changed = make(chan struct{})
}

// Current returns the installed tree, which may lag behind the latest
// submission. It is nil until the first parse completes.
func (s *Supervisor) Current() *Tree {
	return s.current.Load()
}

// Target returns the revision of the latest submission.
func (s *Supervisor) Target() buffer.Revision {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target.Revision()
}

// Stale reports whether a submitted revision has no tree yet.
func (s *Supervisor) Stale() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.staleLocked()
}

func (s *Supervisor) staleLocked() bool {
	if !s.hasTarget {
		return false
	}
	cur := s.current.Load()
	return cur == nil || cur.Revision() != s.target.Revision()
}

// Wait blocks until the latest submission has been installed. It returns
// the parse error if that submission failed.
func (s *Supervisor) Wait(ctx context.Context) error {
	for {
		s.mu.Lock()
		switch {
		case !s.staleLocked():
			s.mu.Unlock()
			return nil
		case s.closed:
			s.mu.Unlock()
			return ErrSupervisorClosed
		case s.failed != nil:
			err := s.failed
			s.mu.Unlock()
			return err
		}
		ch := s.changed
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ch:
		}
	}
}

// Close cancels any parse in flight and waits for it to stop. The last
// installed tree stays readable.
func (s *Supervisor) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.cancel != nil {
		s.cancel()
	}
	s.signal()
	s.mu.Unlock()
	s.wg.Wait()
}
