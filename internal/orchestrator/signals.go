package orchestrator

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// SignalManager lets an operator stop in-flight runs through the .nexus
// directory. Specialist loops poll ShouldStop before each reasoning step.
type SignalManager struct {
	nexusDir string

	mu         sync.RWMutex
	stopSignal bool

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewSignalManager creates a signal manager rooted at the given directory.
func NewSignalManager(baseDir string) (*SignalManager, error) {
	nexusDir := filepath.Join(baseDir, ".nexus")
	signalsDir := filepath.Join(nexusDir, "signals")
	if err := os.MkdirAll(signalsDir, 0755); err != nil {
		return nil, err
	}

	sm := &SignalManager{
		nexusDir: nexusDir,
		done:     make(chan struct{}),
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		// Continue without watcher; ShouldStop falls back to stat polling.
		return sm, nil
	}
	sm.watcher = watcher

	if err := watcher.Add(signalsDir); err != nil {
		watcher.Close()
		sm.watcher = nil
		return sm, nil
	}

	go sm.watchSignals()

	return sm, nil
}

// watchSignals monitors the signals directory for a stop file.
func (sm *SignalManager) watchSignals() {
	for {
		select {
		case <-sm.done:
			return
		case event, ok := <-sm.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) == "stop" &&
				(event.Op&fsnotify.Create != 0 || event.Op&fsnotify.Write != 0) {
				sm.mu.Lock()
				sm.stopSignal = true
				sm.mu.Unlock()
			}
		case <-sm.watcher.Errors:
			// Keep watching.
		}
	}
}

// ShouldStop returns true if a stop signal has been received.
func (sm *SignalManager) ShouldStop() bool {
	// Check the file directly in case the watcher missed it.
	stopPath := filepath.Join(sm.nexusDir, "signals", "stop")
	if _, err := os.Stat(stopPath); err == nil {
		sm.mu.Lock()
		sm.stopSignal = true
		sm.mu.Unlock()
	}

	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.stopSignal
}

// SendStop creates the stop signal file.
func (sm *SignalManager) SendStop() error {
	path := filepath.Join(sm.nexusDir, "signals", "stop")
	return os.WriteFile(path, []byte(time.Now().Format(time.RFC3339)), 0644)
}

// ClearSignals removes the signal file and resets signal state.
func (sm *SignalManager) ClearSignals() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.stopSignal = false
	os.Remove(filepath.Join(sm.nexusDir, "signals", "stop"))
}

// Close shuts down the signal manager.
func (sm *SignalManager) Close() {
	close(sm.done)
	if sm.watcher != nil {
		sm.watcher.Close()
	}
}
