package cli

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// fileWatcher reports writes to a single file. It watches the parent
// directory so editors that save by rename are still seen.
type fileWatcher struct {
	watcher *fsnotify.Watcher
	target  string
}

func newFileWatcher(path string) (*fileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}
	return &fileWatcher{watcher: w, target: abs}, nil
}

// run calls onChange for every write or re-creation of the target until ctx
// is cancelled. The watcher is closed on return.
func (fw *fileWatcher) run(ctx context.Context, onChange func()) error {
	defer fw.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != fw.target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			onChange()
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("[watch] Error: %v", err)
		}
	}
}
