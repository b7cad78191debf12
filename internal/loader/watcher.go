package loader

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadAll tears down the loaded set, clears the content store, and
// runs a fresh LoadAll. Watch-mode uses it because manifest or patch
// edits can change the resolved order of every mod.
func (l *Loader) ReloadAll() error {
	l.UnloadAll()
	return l.LoadAll()
}

// Watch starts an fsnotify watcher on the mods root and triggers a
// debounced full reload whenever anything under it changes, until ctx
// is cancelled. Newly created directories are added to the watch list.
func (l *Loader) Watch(ctx context.Context, debounce time.Duration) error {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, l.root); err != nil {
		return err
	}

	l.logger.Info("watcher: started", slog.String("root", l.root))

	var reloadTimer *time.Timer
	var reloadCh <-chan time.Time

	scheduleReload := func() {
		if reloadTimer == nil {
			reloadTimer = time.NewTimer(debounce)
			reloadCh = reloadTimer.C
		} else {
			reloadTimer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			l.logger.Info("watcher: stopped")
			return nil

		case <-reloadCh:
			l.logger.Info("watcher: change detected, reloading mods")
			if err := l.ReloadAll(); err != nil {
				// Resolution failures leave nothing loaded; keep
				// watching so a fixed manifest recovers on save.
				l.logger.Error("watcher: reload failed",
					slog.String("error", err.Error()))
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						l.logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
				}
			}
			scheduleReload()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			l.logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
