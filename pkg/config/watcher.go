package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/marmos91/workersvc/internal/logger"
)

// DefaultDebounce coalesces the burst of events an editor produces on save.
const DefaultDebounce = 250 * time.Millisecond

// ReloadFunc receives each reloaded configuration. cfg is nil when err is set.
type ReloadFunc func(cfg *Config, files []string, err error)

// Watcher reloads the layered configuration whenever one of its files is
// written, created, renamed or removed. The directory is watched rather than
// the files so layers created after startup are picked up.
type Watcher struct {
	src      Source
	onReload ReloadFunc
	debounce time.Duration
	w        *fsnotify.Watcher
}

// NewWatcher starts watching src.Dir. Call Run to process events.
func NewWatcher(src Source, onReload ReloadFunc) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create config watcher: %w", err)
	}
	if err := fw.Add(src.Dir); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("failed to watch config dir %s: %w", src.Dir, err)
	}

	return &Watcher{
		src:      src,
		onReload: onReload,
		debounce: DefaultDebounce,
		w:        fw,
	}, nil
}

// Run processes events until ctx is cancelled, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) {
	defer func() { _ = w.w.Close() }()

	var (
		timer   *time.Timer
		timerCh <-chan time.Time
	)

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case err, ok := <-w.w.Errors:
			if !ok {
				return
			}
			logger.Warn("Config watcher error", logger.Err(err))

		case evt, ok := <-w.w.Events:
			if !ok {
				return
			}
			if !w.relevant(evt) {
				continue
			}
			logger.Debug("Config file changed", logger.KeyPath, evt.Name, "op", evt.Op.String())

			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerCh = timer.C

		case <-timerCh:
			timerCh = nil
			cfg, files, err := LoadFrom(w.src)
			w.onReload(cfg, files, err)
		}
	}
}

func (w *Watcher) relevant(evt fsnotify.Event) bool {
	const ops = fsnotify.Write | fsnotify.Create | fsnotify.Rename | fsnotify.Remove
	if evt.Op&ops == 0 {
		return false
	}
	return w.src.Matches(filepath.Base(evt.Name))
}
