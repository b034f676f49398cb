// Package watch rebuilds published content when graph files change.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDirs are the graph directories watched when none are given.
var DefaultDirs = []string{"pages", "journals", "logseq"}

// DefaultDebounce is the quiet period used when debounce is not positive.
const DefaultDebounce = 300 * time.Millisecond

// RebuildFunc receives the root-relative paths changed since the last call.
type RebuildFunc func(ctx context.Context, changed []string)

// Watch watches dirs under root (recursively) until ctx is cancelled. After
// a burst of .md or .edn changes settles for debounce, rebuild is called
// once with every path touched in the burst. Directories created at runtime
// are added to the watch list. Missing dirs are ignored; when none exist
// root itself is watched.
func Watch(ctx context.Context, root string, dirs []string, debounce time.Duration, logger *slog.Logger, rebuild RebuildFunc) error {
	if len(dirs) == 0 {
		dirs = DefaultDirs
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	watched := 0
	for _, d := range dirs {
		abs := filepath.Join(root, d)
		if info, statErr := os.Stat(abs); statErr != nil || !info.IsDir() {
			continue
		}
		if err := addDirsRecursive(w, abs); err != nil {
			return err
		}
		watched++
	}
	if watched == 0 {
		if err := w.Add(root); err != nil {
			return err
		}
	}

	logger.Info("watcher: started", slog.String("root", root), slog.Int("dirs", watched))

	var timer *time.Timer
	var fire <-chan time.Time
	pending := make(map[string]struct{})

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			fire = timer.C
		} else {
			timer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-fire:
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			sort.Strings(changed)
			clear(pending)
			logger.Info("watcher: rebuilding", slog.Int("changed", len(changed)))
			rebuild(ctx, changed)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					} else {
						logger.Debug("watcher: watching new dir", slog.String("path", ev.Name))
					}
					continue
				}
			}

			if !relevant(ev.Name) || ev.Op == fsnotify.Chmod {
				continue
			}
			rel, relErr := filepath.Rel(root, ev.Name)
			if relErr != nil {
				continue
			}
			rel = filepath.ToSlash(rel)
			logger.Debug("watcher: change", slog.String("path", rel), slog.String("op", ev.Op.String()))
			pending[rel] = struct{}{}
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func relevant(path string) bool {
	switch filepath.Ext(path) {
	case ".md", ".edn":
		return true
	}
	return false
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
