package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kirillkom/docdesk/internal/core/domain"
)

type viewFake struct {
	mu         sync.Mutex
	ops        []string
	status     map[domain.Region]string
	enabled    map[domain.Control]bool
	alerts     []string
	blocks     []domain.Block
	inputClear int
	scrolls    int
}

func newViewFake() *viewFake {
	return &viewFake{
		status:  make(map[domain.Region]string),
		enabled: make(map[domain.Control]bool),
	}
}

func (v *viewFake) log(format string, args ...any) {
	v.ops = append(v.ops, fmt.Sprintf(format, args...))
}

func (v *viewFake) SetStatus(region domain.Region, text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.status[region] = text
	v.log("status %s=%s", region, text)
}

func (v *viewFake) SetControlEnabled(control domain.Control, enabled bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.enabled[control] = enabled
	v.log("enabled %s=%t", control, enabled)
}

func (v *viewFake) Alert(message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.alerts = append(v.alerts, message)
	v.log("alert %s", message)
}

func (v *viewFake) AppendBlock(block domain.Block) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.blocks = append(v.blocks, block)
	v.log("append %s %s", block.Kind, block.Body)
}

func (v *viewFake) ReplacePlaceholder(id string, block domain.Block) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.log("replace %s", id)
	for i := range v.blocks {
		if v.blocks[i].ID == id {
			v.blocks[i] = block
			return true
		}
	}
	return false
}

func (v *viewFake) FillPlaceholder(id string, body string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i := range v.blocks {
		if v.blocks[i].ID == id {
			v.blocks[i].Kind = domain.BlockAssistant
			v.blocks[i].Body = body
		}
	}
	v.log("fill %s", id)
}

func (v *viewFake) ClearTranscript() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.blocks = nil
	v.log("clear")
}

func (v *viewFake) ScrollToEnd() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.scrolls++
}

func (v *viewFake) ClearQuestionInput() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.inputClear++
}

func (v *viewFake) snapshot() []domain.Block {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]domain.Block(nil), v.blocks...)
}

type backendFake struct {
	mu sync.Mutex

	uploads   [][]domain.UploadFile
	questions []string
	reports   int

	uploadResult domain.RawDocument
	queryResult  *domain.QueryResponse
	reportResult domain.RawDocument
	err          error

	// block, when set, holds every call until it is closed.
	block   chan struct{}
	entered chan domain.Action
}

func (b *backendFake) wait(ctx context.Context, action domain.Action) {
	if b.entered != nil {
		b.entered <- action
	}
	if b.block == nil {
		return
	}
	select {
	case <-b.block:
	case <-ctx.Done():
	}
}

func (b *backendFake) Upload(ctx context.Context, files []domain.UploadFile) (domain.RawDocument, error) {
	b.mu.Lock()
	b.uploads = append(b.uploads, files)
	b.mu.Unlock()
	b.wait(ctx, domain.ActionUpload)
	if b.err != nil {
		return nil, b.err
	}
	return b.uploadResult, nil
}

func (b *backendFake) Query(ctx context.Context, req domain.QueryRequest) (*domain.QueryResponse, error) {
	b.mu.Lock()
	b.questions = append(b.questions, req.Question)
	b.mu.Unlock()
	b.wait(ctx, domain.ActionAsk)
	if b.err != nil {
		return nil, b.err
	}
	return b.queryResult, nil
}

func (b *backendFake) Report(ctx context.Context) (domain.RawDocument, error) {
	b.mu.Lock()
	b.reports++
	b.mu.Unlock()
	b.wait(ctx, domain.ActionReport)
	if b.err != nil {
		return nil, b.err
	}
	return b.reportResult, nil
}

type recorderFake struct {
	mu       sync.Mutex
	started  []domain.Action
	finished map[domain.Action]string
	skipped  map[domain.Action]string
}

func newRecorderFake() *recorderFake {
	return &recorderFake{
		finished: make(map[domain.Action]string),
		skipped:  make(map[domain.Action]string),
	}
}

func (r *recorderFake) StartAction(action domain.Action) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, action)
}

func (r *recorderFake) FinishAction(action domain.Action, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished[action] = outcome
}

func (r *recorderFake) SkipAction(action domain.Action, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.skipped[action] = outcome
}

type exporterFake struct {
	path   string
	report domain.RawDocument
	err    error
}

func (e *exporterFake) Export(_ context.Context, report domain.RawDocument, path string) error {
	if e.err != nil {
		return e.err
	}
	e.path = path
	e.report = report
	return nil
}
