package prompts

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch reloads the store whenever its file is written or replaced, until ctx
// is done. Reload failures are logged and the previous templates are kept.
// When SetPath moves the store to another directory, the watch follows it.
func (s *Store) Watch(ctx context.Context, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create template watcher: %w", err)
	}
	defer watcher.Close()

	// Editors often replace files by rename, so watch the directory.
	dir := filepath.Dir(filepath.Clean(s.Path()))
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-s.moved:
			next := filepath.Dir(filepath.Clean(s.Path()))
			if next == dir {
				continue
			}
			if err := watcher.Add(next); err != nil {
				logger.Warn("prompt watcher cannot follow new path", zap.String("dir", next), zap.Error(err))
				continue
			}
			_ = watcher.Remove(dir)
			logger.Info("prompt watcher moved", zap.String("from", dir), zap.String("to", next))
			dir = next

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(s.Path()) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := s.Reload(); err != nil {
				logger.Warn("prompt reload failed", zap.String("path", event.Name), zap.Error(err))
				continue
			}
			logger.Info("prompts reloaded", zap.String("path", event.Name))

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("prompt watcher error", zap.Error(err))
		}
	}
}
