package override

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch starts an fsnotify watcher on the directory holding the overrides
// file and reloads the store whenever the file changes on disk, so edits
// made outside the API (a curator fixing the JSON by hand, a deploy shipping
// a new collection) are picked up without a restart. It blocks until ctx is
// cancelled.
//
// Reloads are debounced because an atomic write shows up as a burst of
// create/rename events. cb (if non-nil) is called after each successful
// reload.
func Watch(ctx context.Context, store *Store, path string, logger *slog.Logger, cb func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	logger.Info("override watcher: started", slog.String("file", abs))

	var reloadTimer *time.Timer
	var reloadCh <-chan time.Time

	scheduleReload := func() {
		if reloadTimer == nil {
			reloadTimer = time.NewTimer(200 * time.Millisecond)
			reloadCh = reloadTimer.C
		} else {
			reloadTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			logger.Info("override watcher: stopped")
			return nil

		case <-reloadCh:
			if err := store.Reload(); err != nil {
				logger.Warn("override watcher: reload failed", slog.String("error", err.Error()))
				continue
			}
			logger.Debug("override watcher: reloaded", slog.String("file", abs))
			if cb != nil {
				cb()
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				scheduleReload()
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("override watcher: error", slog.String("error", err.Error()))
		}
	}
}
