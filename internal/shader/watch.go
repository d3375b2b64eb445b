package shader

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher rebuilds file-backed programs of a Library when their sources
// change. fsnotify events arrive on a background goroutine; the rebuilds
// happen in Apply, which must be called on the context thread.
type Watcher struct {
	lib     *Library
	log     *slog.Logger
	fsw     *fsnotify.Watcher
	watched []string
	changed chan string
	done    chan struct{}

	closeOnce sync.Once
	closeErr  error
}

// NewWatcher watches the directories holding every source file the library
// currently references. Directories are watched rather than files so that
// editors replacing a file on save are still noticed.
func NewWatcher(lib *Library) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("shader watcher: %w", err)
	}
	w := &Watcher{
		lib:     lib,
		log:     lib.log,
		fsw:     fsw,
		watched: lib.paths(),
		changed: make(chan string, 16),
		done:    make(chan struct{}),
	}
	var dirs []string
	for _, p := range w.watched {
		dir := filepath.Dir(p)
		if slices.Contains(dirs, dir) {
			continue
		}
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("shader watcher: watch %q: %w", dir, err)
		}
		dirs = append(dirs, dir)
	}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			path := filepath.Clean(ev.Name)
			if !slices.Contains(w.watched, path) {
				continue
			}
			select {
			case w.changed <- path:
			case <-w.done:
				return
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Error("shader watcher", "err", err)
		case <-w.done:
			return
		}
	}
}

// Apply rebuilds the programs whose sources changed since the last call and
// returns the names of those that rebuilt successfully. A failed rebuild is
// logged and leaves the previous program in the library. It never blocks.
func (w *Watcher) Apply() []string {
	var paths []string
drain:
	for {
		select {
		case p := <-w.changed:
			if !slices.Contains(paths, p) {
				paths = append(paths, p)
			}
		default:
			break drain
		}
	}

	var names []string
	for _, p := range paths {
		for _, name := range w.lib.namesUsing(p) {
			if !slices.Contains(names, name) {
				names = append(names, name)
			}
		}
	}
	slices.Sort(names)
	var rebuilt []string
	for _, name := range names {
		if _, err := w.lib.Reload(name); err != nil {
			w.log.Error("shader reload failed", "program", name, "err", err)
			continue
		}
		rebuilt = append(rebuilt, name)
	}
	return rebuilt
}

// Close stops watching. Later calls return the first call's result.
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() {
		close(w.done)
		w.closeErr = w.fsw.Close()
	})
	return w.closeErr
}
