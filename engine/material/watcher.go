package material

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/Carmen-Shannon/oxy-trace/common"
	"github.com/fsnotify/fsnotify"
)

type watcher struct {
	mu sync.Mutex

	path     string
	table    Table
	fsw      *fsnotify.Watcher
	onReload func(rules []BindingRule)
	done     chan struct{}
	wg       sync.WaitGroup
	closed   bool
}

// Watcher keeps a Table in sync with its mapping file on disk.
type Watcher interface {
	// Path returns the watched mapping file.
	Path() string

	// Close stops watching. Safe to call more than once.
	//
	// Returns:
	//   - error: error from the underlying file watcher
	Close() error
}

// WatcherOption configures a Watcher.
type WatcherOption func(*watcher)

// WithReloadCallback registers a function invoked after every successful reload
// that changed the table.
//
// Parameters:
//   - cb: the callback receiving the new rule set
//
// Returns:
//   - WatcherOption: option function to apply
func WithReloadCallback(cb func(rules []BindingRule)) WatcherOption {
	return func(w *watcher) {
		w.onReload = cb
	}
}

// NewWatcher starts watching path and replaces table's rules whenever the file changes.
// The containing directory is watched so that editors which save via rename are handled.
//
// Parameters:
//   - path: the mapping file to watch
//   - table: the table to update
//   - options: functional options
//
// Returns:
//   - Watcher: the running watcher
//   - error: error if the file watcher cannot be created
func NewWatcher(path string, table Table, options ...WatcherOption) (Watcher, error) {
	if table == nil {
		panic("material: NewWatcher requires a non-nil Table")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create material watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", abs, err)
	}

	w := &watcher{
		path:  abs,
		table: table,
		fsw:   fsw,
		done:  make(chan struct{}),
	}
	for _, opt := range options {
		opt(w)
	}

	w.wg.Add(1)
	go w.loop()
	return w, nil
}

func (w *watcher) Path() string {
	return w.path
}

func (w *watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.done)
	w.mu.Unlock()

	err := w.fsw.Close()
	w.wg.Wait()
	return err
}

func (w *watcher) loop() {
	defer w.wg.Done()
	log := common.Logger()
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			w.reload()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Warn("material watcher error", "path", w.path, "err", err)
		}
	}
}

// reload re-reads the mapping file. A file that fails to decode leaves the table unchanged.
func (w *watcher) reload() {
	log := common.Logger()
	rules, err := LoadRules(w.path)
	if err != nil {
		log.Warn("material mappings not reloaded", "path", w.path, "err", err)
		return
	}
	if Equal(rules, w.table.Rules()) {
		return
	}
	w.table.Replace(rules)
	log.Info("material mappings reloaded", "path", w.path, "rules", len(rules))
	if w.onReload != nil {
		w.onReload(rules)
	}
}
