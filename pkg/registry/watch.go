package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch starts watching the override directory and triggers a full reload on
// change, handing the fresh Store to reloadFn. The Store itself stays
// immutable; a reload produces a new one. Watch returns once the watcher is
// running; it stops when ctx is cancelled.
func (l *Loader) Watch(ctx context.Context, overrideDir string, reloadFn func(*Store) error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	if err := watcher.Add(overrideDir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", overrideDir, err)
	}

	go l.processEvents(ctx, watcher, overrideDir, reloadFn)

	l.logger.Info().
		Str("dir", overrideDir).
		Msg("Watching registry overrides")

	return nil
}

// processEvents processes file system events and triggers debounced reloads.
func (l *Loader) processEvents(ctx context.Context, watcher *fsnotify.Watcher, overrideDir string, reloadFn func(*Store) error) {
	var reloadTimer *time.Timer
	reloadDelay := 500 * time.Millisecond

	for {
		select {
		case <-ctx.Done():
			_ = watcher.Close()
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove) == 0 {
				continue
			}
			if !isYAML(event.Name) {
				continue
			}

			l.logger.Debug().
				Str("file", event.Name).
				Str("op", event.Op.String()).
				Msg("Registry override changed")

			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			reloadTimer = time.AfterFunc(reloadDelay, func() {
				store, err := l.Load(overrideDir)
				if err != nil {
					l.logger.Error().Err(err).Msg("Failed to reload registries")
					return
				}
				if err := reloadFn(store); err != nil {
					l.logger.Error().Err(err).Msg("Registry reload callback failed")
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			l.logger.Warn().Err(err).Msg("Registry watcher error")
		}
	}
}
