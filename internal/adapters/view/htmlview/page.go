// Package htmlview keeps the desk page as an in-memory model that can be
// rendered to HTML at any time. It is safe for concurrent use: actions update
// it from background goroutines while requests render it.
package htmlview

import (
	"log/slog"
	"sync"

	"github.com/kirillkom/docdesk/internal/core/domain"
)

var textRegions = map[domain.Region]bool{
	domain.RegionUploadStatus: true,
	domain.RegionReport:       true,
}

var knownControls = []domain.Control{
	domain.ControlUpload,
	domain.ControlAsk,
	domain.ControlReport,
}

type Page struct {
	logger *slog.Logger

	mu            sync.Mutex
	status        map[domain.Region]string
	disabled      map[domain.Control]bool
	alerts        []string
	blocks        []domain.Block
	question      string
	scrollPending bool
}

func NewPage(logger *slog.Logger) *Page {
	if logger == nil {
		logger = slog.Default()
	}
	return &Page{
		logger:   logger,
		status:   make(map[domain.Region]string),
		disabled: make(map[domain.Control]bool),
	}
}

func (p *Page) SetStatus(region domain.Region, text string) {
	if !textRegions[region] {
		p.logger.Debug("view_unknown_region", "region", string(region))
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status[region] = text
}

func (p *Page) SetControlEnabled(control domain.Control, enabled bool) {
	if !isKnownControl(control) {
		p.logger.Debug("view_unknown_control", "control", string(control))
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if enabled {
		delete(p.disabled, control)
		return
	}
	p.disabled[control] = true
}

func (p *Page) Alert(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.alerts = append(p.alerts, message)
}

func (p *Page) AppendBlock(block domain.Block) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.blocks = append(p.blocks, block)
}

func (p *Page) ReplacePlaceholder(id string, block domain.Block) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := p.indexOf(id)
	if i < 0 {
		p.logger.Debug("view_placeholder_missing", "placeholder_id", id)
		return false
	}
	p.blocks[i] = block
	return true
}

func (p *Page) FillPlaceholder(id string, body string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := p.indexOf(id)
	if i < 0 {
		p.logger.Debug("view_placeholder_missing", "placeholder_id", id)
		return
	}
	p.blocks[i] = domain.Block{ID: id, Kind: domain.BlockAssistant, Body: body}
}

func (p *Page) ClearTranscript() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.blocks = nil
}

func (p *Page) ScrollToEnd() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scrollPending = true
}

func (p *Page) ClearQuestionInput() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.question = ""
}

// SetQuestion records the question field value as typed by the user.
func (p *Page) SetQuestion(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.question = text
}

// Busy reports whether any action is in flight.
func (p *Page) Busy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.disabled) > 0
}

func (p *Page) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i := range p.blocks {
		if p.blocks[i].ID == id {
			return i
		}
	}
	return -1
}

func isKnownControl(control domain.Control) bool {
	for _, c := range knownControls {
		if c == control {
			return true
		}
	}
	return false
}

// State is a point-in-time copy of the page model.
type State struct {
	Status   map[string]string `json:"status"`
	Disabled map[string]bool   `json:"disabled"`
	Alerts   []string          `json:"alerts"`
	Blocks   []domain.Block    `json:"blocks"`
	Question string            `json:"question"`
	Busy     bool              `json:"busy"`
}

func (p *Page) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stateLocked()
}

func (p *Page) stateLocked() State {
	s := State{
		Status:   make(map[string]string, len(textRegions)),
		Disabled: make(map[string]bool, len(knownControls)),
		Alerts:   append([]string{}, p.alerts...),
		Blocks:   append([]domain.Block{}, p.blocks...),
		Question: p.question,
		Busy:     len(p.disabled) > 0,
	}
	for region := range textRegions {
		s.Status[string(region)] = p.status[region]
	}
	for _, control := range knownControls {
		s.Disabled[string(control)] = p.disabled[control]
	}
	return s
}
