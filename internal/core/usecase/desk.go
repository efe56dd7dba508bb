package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/kirillkom/docdesk/internal/core/domain"
	"github.com/kirillkom/docdesk/internal/core/ports"
)

const (
	msgSelectFiles       = "Select files to upload."
	msgUploading         = "Uploading..."
	msgUploadNetworkFail = "Upload failed (network error)."
	msgThinking          = "Thinking..."
	msgRequestFailed     = "Request failed."
	msgFetchingReport    = "Fetching report..."
	msgReportFailed      = "Failed to fetch report."
)

const (
	OutcomeSuccess        = "success"
	OutcomeHTTPError      = "http_error"
	OutcomeTransportError = "transport_error"
	OutcomeInvalidInput   = "invalid_input"
	OutcomeDropped        = "dropped"
)

type DeskOptions struct {
	Logger   *slog.Logger
	Recorder ports.ActionRecorder
	Exporter ports.ReportExporter
	Now      func() time.Time
}

// DeskUseCase binds the backend calls to the view. Each action is an
// independent Idle -> In-flight -> Idle machine; a repeated call of an action
// that is already in flight is dropped.
type DeskUseCase struct {
	backend  ports.Backend
	view     ports.View
	logger   *slog.Logger
	recorder ports.ActionRecorder
	exporter ports.ReportExporter
	ids      *placeholderIDs

	mu       sync.Mutex
	inFlight map[domain.Action]bool
}

func NewDeskUseCase(backend ports.Backend, view ports.View, opts DeskOptions) *DeskUseCase {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &DeskUseCase{
		backend:  backend,
		view:     view,
		logger:   logger,
		recorder: opts.Recorder,
		exporter: opts.Exporter,
		ids:      &placeholderIDs{now: now},
		inFlight: make(map[domain.Action]bool),
	}
}

func (uc *DeskUseCase) Upload(ctx context.Context, files []domain.UploadFile) {
	if len(files) == 0 {
		uc.view.Alert(msgSelectFiles)
		uc.skip(domain.ActionUpload, OutcomeInvalidInput)
		return
	}

	finish, ok := uc.begin(domain.ActionUpload)
	if !ok {
		return
	}
	outcome := OutcomeSuccess
	defer func() { finish(outcome) }()

	uc.view.SetStatus(domain.RegionUploadStatus, msgUploading)

	result, err := uc.backend.Upload(ctx, files)
	if err != nil {
		if statusErr, ok := domain.AsStatusError(err); ok {
			outcome = OutcomeHTTPError
			uc.view.SetStatus(domain.RegionUploadStatus, fmt.Sprintf("Upload failed: %d %s", statusErr.StatusCode, statusErr.Body))
			return
		}
		outcome = OutcomeTransportError
		uc.view.SetStatus(domain.RegionUploadStatus, msgUploadNetworkFail)
		uc.logger.Error("upload_failed", "files", len(files), "error", err)
		return
	}

	uc.view.SetStatus(domain.RegionUploadStatus, result.Pretty())
}

func (uc *DeskUseCase) Ask(ctx context.Context, question string) {
	question = strings.TrimSpace(question)
	if question == "" {
		return
	}

	finish, ok := uc.begin(domain.ActionAsk)
	if !ok {
		return
	}
	outcome := OutcomeSuccess
	defer func() { finish(outcome) }()

	uc.view.AppendBlock(domain.Block{Kind: domain.BlockUser, Body: EscapeHTML(question)})
	uc.view.ClearQuestionInput()
	loadingID := uc.ids.next()
	uc.view.AppendBlock(domain.Block{ID: loadingID, Kind: domain.BlockPlaceholder, Body: msgThinking})
	uc.view.ScrollToEnd()

	answer, err := uc.backend.Query(ctx, domain.QueryRequest{Question: question})
	if err != nil {
		if statusErr, ok := domain.AsStatusError(err); ok {
			outcome = OutcomeHTTPError
			uc.view.FillPlaceholder(loadingID, fmt.Sprintf("Error: %d %s", statusErr.StatusCode, EscapeHTML(statusErr.Body)))
			return
		}
		outcome = OutcomeTransportError
		uc.view.FillPlaceholder(loadingID, msgRequestFailed)
		uc.logger.Error("ask_failed", "placeholder_id", loadingID, "error", err)
		return
	}

	if !uc.view.ReplacePlaceholder(loadingID, domain.Block{Kind: domain.BlockAssistant, Body: EscapeHTML(answer.Answer)}) {
		uc.logger.Debug("ask_answer_dropped", "placeholder_id", loadingID)
		return
	}
	for _, source := range answer.Sources {
		uc.view.AppendBlock(domain.Block{Kind: domain.BlockSource, Body: EscapeHTML(source)})
	}
	uc.view.ScrollToEnd()
}

func (uc *DeskUseCase) Clear() {
	uc.view.ClearTranscript()
}

func (uc *DeskUseCase) Report(ctx context.Context) {
	_, _ = uc.fetchReport(ctx)
}

// ExportReport runs the report flow and writes a successful report to path.
func (uc *DeskUseCase) ExportReport(ctx context.Context, path string) error {
	if uc.exporter == nil {
		return domain.WrapError(domain.ErrInvalidInput, "export report", fmt.Errorf("no exporter configured"))
	}
	if strings.TrimSpace(path) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "export report", fmt.Errorf("path is required"))
	}

	report, ok := uc.fetchReport(ctx)
	if !ok {
		return fmt.Errorf("export report: report unavailable")
	}
	if err := uc.exporter.Export(ctx, report, path); err != nil {
		return fmt.Errorf("export report: %w", err)
	}
	return nil
}

func (uc *DeskUseCase) fetchReport(ctx context.Context) (domain.RawDocument, bool) {
	finish, ok := uc.begin(domain.ActionReport)
	if !ok {
		return nil, false
	}
	outcome := OutcomeSuccess
	defer func() { finish(outcome) }()

	uc.view.SetStatus(domain.RegionReport, msgFetchingReport)

	report, err := uc.backend.Report(ctx)
	if err != nil {
		if statusErr, ok := domain.AsStatusError(err); ok {
			outcome = OutcomeHTTPError
			uc.view.SetStatus(domain.RegionReport, fmt.Sprintf("Failed: %d %s", statusErr.StatusCode, statusErr.Body))
			return nil, false
		}
		outcome = OutcomeTransportError
		uc.view.SetStatus(domain.RegionReport, msgReportFailed)
		uc.logger.Error("report_failed", "error", err)
		return nil, false
	}

	uc.view.SetStatus(domain.RegionReport, report.Pretty())
	return report, true
}

// begin moves action to In-flight and disables its control. The returned
// finish func re-enables the control and must run on every path.
func (uc *DeskUseCase) begin(action domain.Action) (func(outcome string), bool) {
	uc.mu.Lock()
	if uc.inFlight[action] {
		uc.mu.Unlock()
		uc.logger.Debug("action_dropped_in_flight", "action", string(action))
		uc.skip(action, OutcomeDropped)
		return nil, false
	}
	uc.inFlight[action] = true
	uc.mu.Unlock()

	start := time.Now()
	if uc.recorder != nil {
		uc.recorder.StartAction(action)
	}
	uc.view.SetControlEnabled(action.Control(), false)

	return func(outcome string) {
		uc.view.SetControlEnabled(action.Control(), true)

		uc.mu.Lock()
		delete(uc.inFlight, action)
		uc.mu.Unlock()

		if uc.recorder != nil {
			uc.recorder.FinishAction(action, outcome, time.Since(start))
		}
	}, true
}

func (uc *DeskUseCase) skip(action domain.Action, outcome string) {
	if uc.recorder == nil {
		return
	}
	uc.recorder.SkipAction(action, outcome)
}
