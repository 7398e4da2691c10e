// Package watcher monitors the directories explorer sessions are viewing and broadcasts changes via callbacks.
package watcher

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// EventType represents the type of file system event
type EventType int

// File system event types.
const (
	EventCreate EventType = iota
	EventWrite
	EventRemove
	EventRename
)

func (t EventType) String() string {
	switch t {
	case EventCreate:
		return "create"
	case EventWrite:
		return "update"
	case EventRemove:
		return "remove"
	case EventRename:
		return "rename"
	default:
		return "unknown"
	}
}

// Event represents a change inside a watched directory
type Event struct {
	Type EventType
	Path string // changed child
	Dir  string // watched directory containing Path
}

// Callback is a function called when a watched directory changes
type Callback func(Event)

// Watcher watches directories without recursing. Each directory is watched
// while at least one caller holds it.
type Watcher struct {
	watcher   *fsnotify.Watcher
	log       *zap.Logger
	refs      map[string]int
	callbacks []Callback
	mu        sync.RWMutex
	done      chan struct{}
	stopOnce  sync.Once
}

// New creates a new directory watcher
func New(log *zap.Logger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Watcher{
		watcher: w,
		log:     log,
		refs:    make(map[string]int),
		done:    make(chan struct{}),
	}, nil
}

// OnChange registers a callback for change events
func (w *Watcher) OnChange(cb Callback) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, cb)
}

// Watch starts watching dir, or adds a reference if it is already watched.
func (w *Watcher) Watch(dir string) error {
	dir = filepath.Clean(dir)

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.refs[dir] == 0 {
		if err := w.watcher.Add(dir); err != nil {
			return err
		}
	}
	w.refs[dir]++
	return nil
}

// Unwatch drops one reference to dir and stops watching it at zero.
func (w *Watcher) Unwatch(dir string) {
	dir = filepath.Clean(dir)

	w.mu.Lock()
	defer w.mu.Unlock()

	n, ok := w.refs[dir]
	if !ok {
		return
	}
	if n > 1 {
		w.refs[dir] = n - 1
		return
	}
	delete(w.refs, dir)
	if err := w.watcher.Remove(dir); err != nil {
		// The directory may already be gone, which removes the watch.
		w.log.Debug("cannot unwatch directory", zap.String("dir", dir), zap.Error(err))
	}
}

// Watched reports whether dir currently has a watch.
func (w *Watcher) Watched(dir string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.refs[filepath.Clean(dir)] > 0
}

// Start begins dispatching events
func (w *Watcher) Start() {
	go w.eventLoop()
}

// Stop stops the watcher
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.watcher.Close()
	})
	return err
}

func (w *Watcher) eventLoop() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	var eventType EventType
	switch {
	case event.Op&fsnotify.Create == fsnotify.Create:
		eventType = EventCreate
	case event.Op&fsnotify.Write == fsnotify.Write:
		eventType = EventWrite
	case event.Op&fsnotify.Remove == fsnotify.Remove:
		eventType = EventRemove
	case event.Op&fsnotify.Rename == fsnotify.Rename:
		eventType = EventRename
	default:
		return
	}

	e := Event{
		Type: eventType,
		Path: event.Name,
		Dir:  filepath.Dir(event.Name),
	}

	w.mu.RLock()
	callbacks := make([]Callback, len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.RUnlock()

	for _, cb := range callbacks {
		cb(e)
	}
}
