// Package watch keeps generated pages current: it regenerates when data or template
// files change and, optionally, republishes on a fixed schedule.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/syllabi/internal/logfields"
)

// Watcher calls a handler once changes to a set of files have settled.
type Watcher struct {
	files    map[string]struct{}
	dirs     []string
	debounce time.Duration
	handle   func(ctx context.Context) error

	watcher *fsnotify.Watcher
	trigger chan struct{}
	// running serializes handler invocations.
	running sync.Mutex
}

// NewWatcher watches paths. The directories holding them are watched rather than the
// files, so editors that replace files on save are handled.
func NewWatcher(paths []string, debounce time.Duration, handle func(ctx context.Context) error) (*Watcher, error) {
	w := &Watcher{
		files:    make(map[string]struct{}, len(paths)),
		debounce: debounce,
		handle:   handle,
		trigger:  make(chan struct{}, 1),
	}
	dirs := make(map[string]struct{})
	for _, p := range paths {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve watched path %s: %w", p, err)
		}
		w.files[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for d := range dirs {
		w.dirs = append(w.dirs, d)
	}
	sort.Strings(w.dirs)
	return w, nil
}

// Files returns the watched files, sorted.
func (w *Watcher) Files() []string {
	out := make([]string, 0, len(w.files))
	for f := range w.files {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Run watches until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() {
		if err := fw.Close(); err != nil {
			slog.Error("Error closing file watcher", logfields.Error(err))
		}
	}()
	for _, d := range w.dirs {
		if err := fw.Add(d); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", d, err)
		}
	}
	w.watcher = fw
	slog.Info("Watching for changes", logfields.Count(len(w.files)), slog.Duration("debounce", w.debounce))

	done := make(chan struct{})
	go func() {
		defer close(done)
		w.debounceLoop(ctx)
	}()
	w.watchLoop(ctx)
	<-done
	// Wait for an in-flight handler.
	w.running.Lock()
	w.running.Unlock() //nolint:staticcheck // empty critical section
	return nil
}

func (w *Watcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if _, watched := w.files[filepath.Clean(event.Name)]; !watched {
				continue
			}
			switch {
			case event.Has(fsnotify.Write), event.Has(fsnotify.Create), event.Has(fsnotify.Rename):
				slog.Debug("Change detected", logfields.File(event.Name), slog.String("op", event.Op.String()))
				w.triggerChange()
			case event.Has(fsnotify.Remove):
				slog.Warn("Watched file removed", logfields.File(event.Name))
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("File watcher error", logfields.Error(err))
		}
	}
}

// debounceLoop restarts the quiet window on every change and runs the handler
// once it expires.
func (w *Watcher) debounceLoop(ctx context.Context) {
	var timer *time.Timer
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case <-w.trigger:
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() { w.run(ctx) })
		}
	}
}

func (w *Watcher) triggerChange() {
	select {
	case w.trigger <- struct{}{}:
	default:
	}
}

func (w *Watcher) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	w.running.Lock()
	defer w.running.Unlock()
	if err := w.handle(ctx); err != nil {
		slog.Error("Regeneration failed", logfields.Error(err))
	}
}
