// Package watch reports documents dropped into an inbox directory tree.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Config controls what is watched and when a path is reported
type Config struct {
	Dir         string                 // Inbox root, watched recursively
	Accept      func(path string) bool // nil accepts every regular file
	InitialScan bool                   // Report files already present at start
	Debounce    time.Duration          // Quiet period before a written file is reported
}

// Watch reports settled document paths until ctx ends. Each burst of writes to
// one file is reported once, after Debounce passes with no further events.
// The returned channel is closed when watching stops.
func Watch(ctx context.Context, cfg Config, logger *slog.Logger) (<-chan string, error) {
	if cfg.Dir == "" {
		return nil, errors.New("no directory to watch")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Accept == nil {
		cfg.Accept = func(string) bool { return true }
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	var initial []string
	if err := addTree(w, cfg.Dir, func(path string) {
		if cfg.InitialScan && cfg.Accept(path) {
			initial = append(initial, path)
		}
	}); err != nil {
		_ = w.Close()
		return nil, err
	}

	out := make(chan string, 64)
	go run(ctx, w, cfg, initial, out, logger)
	return out, nil
}

func run(ctx context.Context, w *fsnotify.Watcher, cfg Config, initial []string, out chan<- string, logger *slog.Logger) {
	defer close(out)
	defer func() { _ = w.Close() }()

	emit := func(path string) bool {
		select {
		case out <- path:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for _, p := range initial {
		if !emit(p) {
			return
		}
	}

	pending := make(map[string]struct{})
	var timer *time.Timer
	var timerC <-chan time.Time

	schedule := func(path string) {
		pending[path] = struct{}{}
		if cfg.Debounce <= 0 {
			return
		}
		if timer == nil {
			timer = time.NewTimer(cfg.Debounce)
		} else {
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(cfg.Debounce)
		}
		timerC = timer.C
	}

	flush := func() bool {
		paths := make([]string, 0, len(pending))
		for p := range pending {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		for _, p := range paths {
			delete(pending, p)
			// Files can vanish between the event and the flush
			if fi, err := os.Stat(p); err != nil || !fi.Mode().IsRegular() {
				continue
			}
			if !emit(p) {
				return false
			}
		}
		return true
	}

	for {
		select {
		case <-ctx.Done():
			return

		case e, ok := <-w.Events:
			if !ok {
				return
			}
			if !e.Has(fsnotify.Create) && !e.Has(fsnotify.Write) {
				continue
			}

			// A new directory is watched too, with anything already inside it
			if fi, err := os.Stat(e.Name); err == nil && fi.IsDir() {
				if err := addTree(w, e.Name, func(path string) {
					if cfg.Accept(path) {
						schedule(path)
					}
				}); err != nil {
					logger.Warn("failed to watch new directory", "path", e.Name, "error", err)
				}
			} else if cfg.Accept(e.Name) {
				schedule(e.Name)
			}

			if cfg.Debounce <= 0 && !flush() {
				return
			}

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			logger.Warn("watcher error", "error", err)

		case <-timerC:
			timerC = nil
			if !flush() {
				return
			}
		}
	}
}

// addTree watches root and its non-hidden subdirectories, calling file for every
// regular file found
func addTree(w *fsnotify.Watcher, root string, file func(path string)) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return w.Add(path)
		}
		if d.Type().IsRegular() {
			file(path)
		}
		return nil
	})
}
