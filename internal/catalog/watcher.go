package catalog

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/user/dns-switcher/internal/logger"
)

// DefaultDebounce is how long bursts of events are coalesced before the
// callback fires.
const DefaultDebounce = 250 * time.Millisecond

const rewatchInterval = 100 * time.Millisecond

// Watcher notifies a callback when the catalog file is written, replaced or
// removed. Only the file itself is watched: on macOS every watched directory
// entry costs a descriptor and the catalog usually lives in $HOME. Saves that
// replace the file drop the watch, so it is added again on the new file.
type Watcher struct {
	mu       sync.Mutex
	path     string
	target   string
	debounce time.Duration
	onChange func()
	timer    *time.Timer
	running  bool
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewWatcher creates a watcher for the catalog at path.
func NewWatcher(path string, debounce time.Duration, onChange func()) *Watcher {
	return &Watcher{
		path:     filepath.Clean(path),
		debounce: debounce,
		onChange: onChange,
	}
}

// Start begins watching. A symlinked catalog is watched at its target.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	target, err := resolveTarget(w.path)
	if err != nil {
		return err
	}
	target = filepath.Clean(target)

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fw.Add(target); err != nil {
		fw.Close()
		return fmt.Errorf("failed to watch %s: %w", target, err)
	}

	w.target = target
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	go w.loop(fw, w.stopCh, w.doneCh)
	return nil
}

// Stop stops watching and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stopCh)
	if w.timer != nil {
		w.timer.Stop()
	}
	done := w.doneCh
	w.mu.Unlock()

	<-done
}

func (w *Watcher) loop(fw *fsnotify.Watcher, stopCh, doneCh chan struct{}) {
	defer close(doneCh)
	defer fw.Close()
	defer logger.Recover("catalog-watcher")

	// non-nil while the file is gone and the watch must be re-added
	var retry <-chan time.Time

	for {
		select {
		case <-stopCh:
			return
		case <-retry:
			retry = w.rewatch(fw)
		case ev, ok := <-fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.target {
				continue
			}
			logger.Debug("catalog event: %s", ev)
			if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
				w.schedule()
				retry = w.rewatch(fw)
				continue
			}
			if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
				continue
			}
			w.schedule()
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			logger.Warning("catalog watcher: %v", err)
		}
	}
}

// rewatch adds the watch on the current file at the target path. It returns
// a timer channel to try again when the file is not back yet.
func (w *Watcher) rewatch(fw *fsnotify.Watcher) <-chan time.Time {
	if err := fw.Add(w.target); err != nil {
		logger.Debug("catalog not back yet, retrying: %v", err)
		return time.After(rewatchInterval)
	}
	w.schedule()
	return nil
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		defer logger.Recover("catalog-watcher-callback")
		if w.onChange != nil {
			w.onChange()
		}
	})
}
