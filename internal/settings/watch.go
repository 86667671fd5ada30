package settings

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/escalatedhq/ticketbridge/internal/debug"
)

// Watch reloads the settings file whenever it changes on disk and invokes
// onChange with the fresh settings. It blocks until ctx is cancelled.
//
// The parent directory is watched rather than the file itself: most editors
// and config tools replace the file (write temp, rename over), which drops
// a watch held on the old inode.
func Watch(ctx context.Context, path string, onChange func(*Settings)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	name := filepath.Base(path)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			debug.Logf("settings changed on disk, reloading\n")
			onChange(Load(path))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			debug.Logf("settings watcher error: %v\n", err)
		}
	}
}
