package store

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bizzkoot/copilot-tracker/internal/logger"
)

// debounceInterval coalesces the burst of fsnotify events an editor or
// atomic rename produces for a single logical change.
const debounceInterval = 100 * time.Millisecond

// watcher watches a single file and invokes onChange (debounced) when it
// is written or recreated. The containing directory is watched so file
// replacement via rename is seen too.
type watcher struct {
	fsw      *fsnotify.Watcher
	path     string
	onChange func()
	onError  func(error)

	mu            sync.Mutex
	debounceTimer *time.Timer
	stopChan      chan struct{}
}

func newWatcher(path string, onChange func(), onError func(error)) (*watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := fsw.Add(filepath.Dir(path)); err != nil {
		if closeErr := fsw.Close(); closeErr != nil {
			logger.Error("failed to close watcher", "error", closeErr)
		}
		return nil, err
	}

	w := &watcher{
		fsw:      fsw,
		path:     path,
		onChange: onChange,
		onError:  onError,
		stopChan: make(chan struct{}),
	}

	go w.loop()
	return w, nil
}

func (w *watcher) loop() {
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}

			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.mu.Lock()
				if w.debounceTimer != nil {
					w.debounceTimer.Stop()
				}
				w.debounceTimer = time.AfterFunc(debounceInterval, w.onChange)
				w.mu.Unlock()
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.onError(err)

		case <-w.stopChan:
			return
		}
	}
}

func (w *watcher) Close() error {
	close(w.stopChan)

	w.mu.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.mu.Unlock()

	return w.fsw.Close()
}
