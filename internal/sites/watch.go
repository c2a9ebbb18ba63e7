package sites

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settle is how long the file must stay quiet before it is reloaded.
const settle = 250 * time.Millisecond

// Watch reloads the catalog at path into s whenever the file is written or
// replaced. A reload that fails keeps the previous catalog. Blocks until
// ctx is cancelled.
func Watch(ctx context.Context, path string, s *Store, logger *slog.Logger) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer fsw.Close()

	// Editors replace files, so watch the directory.
	dir := filepath.Dir(path)
	if err := fsw.Add(dir); err != nil {
		return fmt.Errorf("watch dir %s: %w", dir, err)
	}
	name := filepath.Clean(path)
	logger.Info("site catalog watcher started", "path", path)

	reload := time.NewTimer(settle)
	reload.Stop()
	defer reload.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			reload.Reset(settle)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Error("site catalog watcher error", "error", err)

		case <-reload.C:
			if err := s.Load(path, logger); err != nil {
				logger.Warn("site catalog reload failed, keeping previous", "path", path, "error", err)
			}
		}
	}
}
