package ports

import (
	"context"

	"github.com/kirillkom/docdesk/internal/core/domain"
)

// Desk is the inbound contract for the three user actions and the transcript
// clear. Every method reports its outcome through the view, never through a
// returned error.
type Desk interface {
	Upload(ctx context.Context, files []domain.UploadFile)
	Ask(ctx context.Context, question string)
	Clear()
	Report(ctx context.Context)
}

// ReportExportingDesk additionally writes a fetched report to a file.
type ReportExportingDesk interface {
	Desk
	ExportReport(ctx context.Context, path string) error
}
