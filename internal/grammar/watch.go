package grammar

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// ErrWatcherClosed is returned when using a closed watcher.
var ErrWatcherClosed = errors.New("watcher closed")

// ReloadQuery re-reads the highlight query of a manifest language from
// disk. A query that fails to compile leaves the registered language in
// place.
func (r *Registry) ReloadQuery(name string) error {
	r.mu.RLock()
	path, ok := r.queryPath[name]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%q has no query file: %w", name, ErrUnknownLanguage)
	}

	old, err := r.Lookup(name)
	if err != nil {
		return err
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reload %s: %w", name, err)
	}
	if string(src) == old.Highlights {
		return nil
	}

	lang := old.withHighlights(string(src))
	if _, err := lang.HighlightQuery(); err != nil {
		return err
	}
	r.logger.Info("highlight query reloaded", slog.String("language", name), slog.String("path", path))
	return r.Register(lang)
}

// Watcher reloads query files when they change on disk.
type Watcher struct {
	reg *Registry
	fsw *fsnotify.Watcher

	// query file -> language names
	files map[string][]string

	mu       sync.Mutex
	closed   bool
	closeCh  chan struct{}
	closedWg sync.WaitGroup
}

// Watch starts watching the query files of every manifest language.
// Directories are watched rather than files so that editors which save
// by renaming are picked up.
func (r *Registry) Watch() (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		reg:     r,
		fsw:     fsw,
		files:   make(map[string][]string),
		closeCh: make(chan struct{}),
	}

	r.mu.RLock()
	dirs := make(map[string]bool)
	for name, path := range r.queryPath {
		abs, err := filepath.Abs(path)
		if err != nil {
			continue
		}
		w.files[abs] = append(w.files[abs], name)
		dirs[filepath.Dir(abs)] = true
	}
	r.mu.RUnlock()

	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	w.closedWg.Add(1)
	go w.processLoop()
	return w, nil
}

func (w *Watcher) processLoop() {
	defer w.closedWg.Done()

	for {
		select {
		case <-w.closeCh:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			abs, err := filepath.Abs(ev.Name)
			if err != nil {
				continue
			}
			for _, name := range w.files[abs] {
				if err := w.reg.ReloadQuery(name); err != nil {
					w.reg.logger.Warn("highlight query reload failed", slog.String("language", name), slog.Any("error", err))
				}
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.reg.logger.Warn("grammar watcher", slog.Any("error", err))
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrWatcherClosed
	}
	w.closed = true
	close(w.closeCh)
	w.mu.Unlock()

	w.closedWg.Wait()
	return w.fsw.Close()
}
