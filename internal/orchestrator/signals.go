package orchestrator

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const cancelSignal = "cancel"

// SignalWatcher observes the workspace signals directory for a cancel
// file, so a running session can be stopped from another terminal.
type SignalWatcher struct {
	signalsDir string

	mu       sync.RWMutex
	canceled bool

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewSignalWatcher creates a watcher over the given signals directory,
// creating it if needed. If the fsnotify watcher cannot be started the
// watcher still works, falling back to stat checks in ShouldCancel.
func NewSignalWatcher(signalsDir string) (*SignalWatcher, error) {
	if err := os.MkdirAll(signalsDir, 0755); err != nil {
		return nil, err
	}

	sw := &SignalWatcher{
		signalsDir: signalsDir,
		done:       make(chan struct{}),
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		// Continue without watcher - ShouldCancel stats the file directly
		return sw, nil
	}
	sw.watcher = watcher

	if err := watcher.Add(signalsDir); err != nil {
		watcher.Close()
		sw.watcher = nil
		return sw, nil
	}

	go sw.watch()

	return sw, nil
}

// watch monitors the signals directory for the cancel file.
func (sw *SignalWatcher) watch() {
	for {
		select {
		case <-sw.done:
			return
		case event, ok := <-sw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) == cancelSignal && (event.Op&fsnotify.Create != 0 || event.Op&fsnotify.Write != 0) {
				sw.mu.Lock()
				sw.canceled = true
				sw.mu.Unlock()
			}
		case <-sw.watcher.Errors:
			// Ignore errors, keep watching
		}
	}
}

// ShouldCancel returns true if a cancel signal has been received.
func (sw *SignalWatcher) ShouldCancel() bool {
	// Also check the file directly in case the watcher missed it
	if _, err := os.Stat(filepath.Join(sw.signalsDir, cancelSignal)); err == nil {
		sw.mu.Lock()
		sw.canceled = true
		sw.mu.Unlock()
	}

	sw.mu.RLock()
	defer sw.mu.RUnlock()
	return sw.canceled
}

// Clear removes the cancel file and resets state. Call at session start
// so a stale signal from an earlier run does not stop the new one.
func (sw *SignalWatcher) Clear() {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	sw.canceled = false
	os.Remove(filepath.Join(sw.signalsDir, cancelSignal))
}

// Close shuts down the watcher.
func (sw *SignalWatcher) Close() {
	close(sw.done)
	if sw.watcher != nil {
		sw.watcher.Close()
	}
}

// SendCancel writes a cancel signal file into the given signals
// directory, creating the directory if needed.
func SendCancel(signalsDir string) error {
	if err := os.MkdirAll(signalsDir, 0755); err != nil {
		return err
	}
	path := filepath.Join(signalsDir, cancelSignal)
	return os.WriteFile(path, []byte(time.Now().Format(time.RFC3339)), 0644)
}
