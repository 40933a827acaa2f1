package pong

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/oriumgames/decs"
)

const debounce = 100 * time.Millisecond

// Watcher reloads a settings file whenever it changes on disk. Reloaded
// settings are applied to the world between ticks by Apply.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	log     *slog.Logger

	mu      sync.Mutex
	pending *Settings

	closeOnce sync.Once
}

// NewWatcher watches the directory of path. Editors often replace a file
// instead of writing it, which a watch on the file itself would miss.
func NewWatcher(path string, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("pong: watch %s: %w", path, err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("pong: watch %s: %w", path, err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("pong: watch %s: %w", path, err)
	}

	return &Watcher{
		path:    abs,
		watcher: fw,
		log:     logger,
	}, nil
}

// Close stops watching.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		err = w.watcher.Close()
	})
	return err
}

// Run processes file events until ctx is done or the watcher is closed.
// Bursts of events are coalesced and the file is reloaded once they settle.
// A file that fails to load is logged and skipped; the previous settings
// stay in effect.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.Close()

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("pong: settings watcher error", "path", w.path, "error", err)
		}
	}
}

func (w *Watcher) reload() {
	s, err := LoadSettings(w.path)
	if err != nil {
		w.log.Warn("pong: settings reload failed", "path", w.path, "error", err)
		return
	}
	w.mu.Lock()
	w.pending = &s
	w.mu.Unlock()
	w.log.Info("pong: settings reloaded", "path", w.path, "paddle_speed", s.PaddleSpeed, "clamp", s.Clamp)
}

// Apply copies the latest reloaded settings, if any, into the world's
// Settings resource. It must only run between ticks; use it as a runner
// BeforeTick hook.
func (w *Watcher) Apply(world *decs.World) error {
	w.mu.Lock()
	s := w.pending
	w.pending = nil
	w.mu.Unlock()
	if s == nil {
		return nil
	}
	*decs.FetchMut[Settings](world) = *s
	return nil
}
