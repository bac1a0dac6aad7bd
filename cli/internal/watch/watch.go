// Package watch re-runs a callback when a file changes on disk.
package watch

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches one file and invokes a callback on modification, with a
// debounce so editors that write in bursts trigger once.
type Watcher struct {
	file     string
	callback func() error
	watcher  *fsnotify.Watcher
	done     chan struct{}
}

// New creates a watcher for file. The callback runs once immediately when
// Start is called, then again after every write.
func New(file string, callback func() error) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	abs, err := filepath.Abs(file)
	if err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}
	// Watch the directory; editors often replace the file.
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch directory: %w", err)
	}

	return &Watcher{
		file:     abs,
		callback: callback,
		watcher:  fw,
		done:     make(chan struct{}),
	}, nil
}

// Start runs the callback once, then blocks dispatching changes until
// Stop is called.
func (w *Watcher) Start() error {
	if err := w.callback(); err != nil {
		return err
	}

	debounce := time.NewTimer(0)
	if !debounce.Stop() {
		<-debounce.C
	}
	var pending <-chan time.Time

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if abs, err := filepath.Abs(event.Name); err == nil && abs == w.file {
				debounce.Reset(500 * time.Millisecond)
				pending = debounce.C
			}

		case <-pending:
			pending = nil
			if err := w.callback(); err != nil {
				return err
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch error: %w", err)

		case <-w.done:
			return nil
		}
	}
}

// Stop ends the watch loop and releases the OS watcher.
func (w *Watcher) Stop() {
	close(w.done)
	w.watcher.Close()
}
