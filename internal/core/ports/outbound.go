package ports

import (
	"context"
	"time"

	"github.com/kirillkom/docdesk/internal/core/domain"
)

// Backend performs the one-shot HTTP calls. Non-2xx responses are returned
// as *domain.BackendStatusError; anything else is a transport failure.
type Backend interface {
	Upload(ctx context.Context, files []domain.UploadFile) (domain.RawDocument, error)
	Query(ctx context.Context, req domain.QueryRequest) (*domain.QueryResponse, error)
	Report(ctx context.Context) (domain.RawDocument, error)
}

// View is the rendering surface. Implementations treat unknown regions and
// controls as no-ops.
type View interface {
	SetStatus(region domain.Region, text string)
	SetControlEnabled(control domain.Control, enabled bool)
	Alert(message string)

	AppendBlock(block domain.Block)
	// ReplacePlaceholder swaps the whole placeholder element for block and
	// reports false when the placeholder is gone (the transcript was cleared).
	ReplacePlaceholder(id string, block domain.Block) bool
	// FillPlaceholder replaces only the contents of the placeholder element;
	// the element keeps its id. body is already escaped.
	FillPlaceholder(id string, body string)
	ClearTranscript()
	ScrollToEnd()

	ClearQuestionInput()
}

// ReportExporter writes a report document to path.
type ReportExporter interface {
	Export(ctx context.Context, report domain.RawDocument, path string) error
}

// ActionRecorder observes action lifecycles.
type ActionRecorder interface {
	StartAction(action domain.Action)
	FinishAction(action domain.Action, outcome string, duration time.Duration)
	// SkipAction records an action that never started.
	SkipAction(action domain.Action, outcome string)
}

// FileWatcher emits changes to files in a folder until ctx is done.
type FileWatcher interface {
	Watch(ctx context.Context, dir string) (<-chan domain.FileEvent, error)
	Stop() error
}

// FileLoader reads a local file into an upload part.
type FileLoader interface {
	Load(ctx context.Context, path string) (domain.UploadFile, error)
}

// FileBatchLoader reads several paths in order; the error names the first
// path that could not be read.
type FileBatchLoader interface {
	LoadAll(ctx context.Context, paths []string) ([]domain.UploadFile, error)
}

// ActionJournal stores or forwards action events.
type ActionJournal interface {
	Append(ctx context.Context, event domain.ActionEvent) error
}

// ActionHistory reads back journaled events, newest first.
type ActionHistory interface {
	Recent(ctx context.Context, limit int) ([]domain.ActionEvent, error)
}
