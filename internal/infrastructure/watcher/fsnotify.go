// Package watcher reports new and changed files in a folder.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/kirillkom/docdesk/internal/core/domain"
)

type FSNotifyWatcher struct {
	watcher    *fsnotify.Watcher
	extensions []string
	logger     *slog.Logger
}

func NewFSNotifyWatcher(extensions []string, logger *slog.Logger) (*FSNotifyWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if len(extensions) == 0 {
		extensions = []string{".txt", ".pdf", ".docx"}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FSNotifyWatcher{
		watcher:    w,
		extensions: extensions,
		logger:     logger,
	}, nil
}

// Watch starts monitoring dir. The returned channel is closed when ctx is
// done or the watcher is stopped.
func (w *FSNotifyWatcher) Watch(ctx context.Context, dir string) (<-chan domain.FileEvent, error) {
	if err := w.watcher.Add(dir); err != nil {
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	events := make(chan domain.FileEvent, 100)

	go func() {
		defer close(events)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if !w.isWatchedExtension(event.Name) {
					continue
				}

				var op domain.FileOperation
				switch {
				case event.Has(fsnotify.Create):
					op = domain.FileCreated
				case event.Has(fsnotify.Write):
					op = domain.FileModified
				case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
					op = domain.FileDeleted
				default:
					continue
				}

				select {
				case events <- domain.FileEvent{Path: event.Name, Operation: op}:
				case <-ctx.Done():
					return
				}
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.logger.Warn("watch_error", "dir", dir, "error", err)
			}
		}
	}()

	return events, nil
}

func (w *FSNotifyWatcher) Stop() error {
	return w.watcher.Close()
}

func (w *FSNotifyWatcher) isWatchedExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range w.extensions {
		if ext == e {
			return true
		}
	}
	return false
}
