// Package watcher re-renders reports when their grouping files change.
package watcher

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// RenderFunc rebuilds the reports for one grouping file.
type RenderFunc func(path string) error

// Watcher monitors grouping files and calls a RenderFunc after they settle.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	render    RenderFunc
	// Debounce delay for triggering a render after events
	debounceDelay time.Duration
	// How long after a render to ignore events for the same file
	eventCooldown time.Duration

	// Watched grouping files, keyed by cleaned path
	files map[string]*watchedFile

	// Per-file timers push the file path here when they fire
	renderChan chan string

	// Channel for timestamped events from event goroutine
	eventChan chan TimestampedEvent

	// Closed when the watcher is stopping to unblock goroutines
	done chan struct{}
}

type watchedFile struct {
	timer         *time.Timer
	lastCompleted time.Time
}

// TimestampedEvent wraps an fsnotify event with its receive time.
type TimestampedEvent struct {
	Event fsnotify.Event
	Time  time.Time
}

// New creates a Watcher for the given grouping files. Their parent
// directories are watched so editors that save by rename are still seen.
func New(paths []string, debounce time.Duration, render RenderFunc) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsWatcher:     fsw,
		render:        render,
		debounceDelay: debounce,
		eventCooldown: debounce,
		files:         make(map[string]*watchedFile),
		renderChan:    make(chan string),
		eventChan:     make(chan TimestampedEvent, 100),
		done:          make(chan struct{}),
	}

	dirs := make(map[string]bool)
	for _, p := range paths {
		clean := filepath.Clean(p)
		if _, ok := w.files[clean]; ok {
			continue
		}
		w.files[clean] = &watchedFile{timer: w.newTimer(clean)}

		dir := filepath.Dir(clean)
		if dirs[dir] {
			continue
		}
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, err
		}
		dirs[dir] = true
	}
	return w, nil
}

// newTimer creates a stopped timer that queues path for rendering.
func (w *Watcher) newTimer(path string) *time.Timer {
	timer := time.AfterFunc(time.Hour, func() {
		select {
		case w.renderChan <- path:
		case <-w.done:
		}
	})
	timer.Stop()
	return timer
}

// WatchCount returns the number of grouping files being watched.
func (w *Watcher) WatchCount() int {
	return len(w.files)
}

// eventLoop reads from fsnotify and timestamps events before forwarding.
func (w *Watcher) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			te := TimestampedEvent{
				Event: event,
				Time:  time.Now(),
			}
			select {
			case w.eventChan <- te:
			case <-w.done:
				return
			}
		}
	}
}

// Run starts the watcher and blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	slog.Info("watcher started", "files", len(w.files), "debounce", w.debounceDelay)

	go w.eventLoop(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("watcher stopping")
			close(w.done)
			for _, f := range w.files {
				f.timer.Stop()
			}
			return w.fsWatcher.Close()

		case event := <-w.eventChan:
			w.schedule(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("watcher error", "error", err)

		case path := <-w.renderChan:
			w.execute(path)
		}
	}
}

// schedule resets the debounce timer of the file an event refers to.
// Events that arrive during the cooldown after a render are ignored.
func (w *Watcher) schedule(event TimestampedEvent) {
	if !event.Event.Has(fsnotify.Write) && !event.Event.Has(fsnotify.Create) && !event.Event.Has(fsnotify.Rename) {
		return
	}
	path := filepath.Clean(event.Event.Name)
	f, ok := w.files[path]
	if !ok {
		return
	}

	if event.Time.Before(f.lastCompleted.Add(w.eventCooldown)) {
		slog.Debug("ignoring event during cooldown", "path", path)
		return
	}

	slog.Debug("scheduling render", "path", path, "op", event.Event.Op.String())
	f.timer.Reset(w.debounceDelay)
}

func (w *Watcher) execute(path string) {
	if err := w.render(path); err != nil {
		slog.Error("render failed", "path", path, "error", err)
	}
	w.files[path].lastCompleted = time.Now()
}
