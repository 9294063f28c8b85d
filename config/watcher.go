package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 250 * time.Millisecond

// Watcher reloads a settings file whenever it changes on disk and hands the
// result to a callback. Rapid successive writes are debounced into one
// reload.
type Watcher struct {
	logger   *zap.Logger
	watcher  *fsnotify.Watcher
	onChange func(Settings)

	path     string
	debounce time.Duration
	done     chan struct{}
	started  atomic.Bool
	stopOnce sync.Once
}

// NewWatcher creates a watcher for path. onChange runs on the watcher
// goroutine.
func NewWatcher(path string, logger *zap.Logger, onChange func(Settings)) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}

	return &Watcher{
		logger:   logger,
		watcher:  watcher,
		onChange: onChange,
		path:     abs,
		debounce: defaultDebounce,
		done:     make(chan struct{}),
	}, nil
}

// SetDebounce changes the quiet period before a reload. Call before Start.
func (w *Watcher) SetDebounce(d time.Duration) {
	if d > 0 {
		w.debounce = d
	}
}

// Start watches the file's directory so that editors which replace the file
// are still seen. It returns once the watch is installed.
func (w *Watcher) Start(ctx context.Context) error {
	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w.started.Store(true)
	w.logger.Info("Started watching settings", zap.String("path", w.path))

	debounceTimer := time.NewTimer(0)
	<-debounceTimer.C // drain the timer

	go func() {
		defer close(w.done)
		defer debounceTimer.Stop()

		for {
			select {
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if w.shouldProcessEvent(event) {
					w.logger.Debug("Settings change detected",
						zap.String("file", event.Name),
						zap.String("op", event.Op.String()))
					debounceTimer.Reset(w.debounce)
				}

			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.logger.Error("Watcher error", zap.Error(err))

			case <-debounceTimer.C:
				w.reload()

			case <-ctx.Done():
				w.logger.Info("Stopping settings watcher")
				return
			}
		}
	}()

	return nil
}

// Stop closes the underlying watcher and waits for the goroutine to exit
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		err = w.watcher.Close()
	})
	if w.started.Load() {
		<-w.done
	}
	return err
}

func (w *Watcher) shouldProcessEvent(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return false
	}
	name, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	return name == w.path
}

func (w *Watcher) reload() {
	settings, err := Load(w.path, w.logger)
	if err != nil {
		// Keep running on the previous settings
		w.logger.Warn("Failed to reload settings", zap.Error(err))
		return
	}
	w.logger.Info("Settings reloaded", zap.String("path", w.path))
	if w.onChange != nil {
		w.onChange(settings)
	}
}
