package usecase

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/kirillkom/docdesk/internal/core/domain"
	"github.com/kirillkom/docdesk/internal/core/ports"
)

type WatchUploadOptions struct {
	Settle time.Duration
	Logger *slog.Logger
}

// WatchUploadUseCase turns folder events into desk uploads. A file is
// uploaded once no event has touched it for the settle delay; files that
// settle together go out in one upload.
type WatchUploadUseCase struct {
	desk   ports.Desk
	loader ports.FileLoader
	settle time.Duration
	logger *slog.Logger
}

func NewWatchUploadUseCase(desk ports.Desk, loader ports.FileLoader, opts WatchUploadOptions) *WatchUploadUseCase {
	settle := opts.Settle
	if settle <= 0 {
		settle = 500 * time.Millisecond
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &WatchUploadUseCase{desk: desk, loader: loader, settle: settle, logger: logger}
}

// Run consumes events until ctx is done or events is closed. Pending files
// are flushed when events closes.
func (uc *WatchUploadUseCase) Run(ctx context.Context, events <-chan domain.FileEvent) error {
	pending := make(map[string]time.Time)
	ticker := time.NewTicker(max(uc.settle/2, time.Millisecond))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-events:
			if !ok {
				uc.flush(ctx, pending, time.Time{})
				return nil
			}
			switch event.Operation {
			case domain.FileCreated, domain.FileModified:
				pending[event.Path] = time.Now()
			case domain.FileDeleted:
				delete(pending, event.Path)
			}
		case now := <-ticker.C:
			uc.flush(ctx, pending, now.Add(-uc.settle))
		}
	}
}

// flush uploads pending files last touched before cutoff. A zero cutoff
// takes every pending file.
func (uc *WatchUploadUseCase) flush(ctx context.Context, pending map[string]time.Time, cutoff time.Time) {
	var ready []string
	for path, touched := range pending {
		if cutoff.IsZero() || !touched.After(cutoff) {
			ready = append(ready, path)
		}
	}
	if len(ready) == 0 {
		return
	}
	sort.Strings(ready)

	files := make([]domain.UploadFile, 0, len(ready))
	for _, path := range ready {
		delete(pending, path)
		file, err := uc.loader.Load(ctx, path)
		if err != nil {
			uc.logger.Warn("watch_load_failed", "path", path, "error", err)
			continue
		}
		files = append(files, file)
	}
	if len(files) == 0 {
		return
	}

	uc.logger.Info("watch_upload", "files", len(files))
	uc.desk.Upload(ctx, files)
}
