// Package terminal renders the desk as a stream of lines.
package terminal

import (
	"fmt"
	"html"
	"io"
	"strings"
	"sync"

	"github.com/kirillkom/docdesk/internal/core/domain"
)

// View prints every view update as it happens. Block bodies arrive escaped
// and are unescaped for display.
type View struct {
	mu  sync.Mutex
	out io.Writer

	placeholders map[string]bool
}

func New(out io.Writer) *View {
	return &View{out: out, placeholders: make(map[string]bool)}
}

func (v *View) SetStatus(region domain.Region, text string) {
	var label string
	switch region {
	case domain.RegionUploadStatus:
		label = "upload"
	case domain.RegionReport:
		label = "report"
	default:
		return
	}
	v.printf("[%s] %s\n", label, text)
}

func (v *View) SetControlEnabled(domain.Control, bool) {}

func (v *View) Alert(message string) {
	v.printf("! %s\n", message)
}

func (v *View) AppendBlock(block domain.Block) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if block.Kind == domain.BlockPlaceholder && block.ID != "" {
		v.placeholders[block.ID] = true
	}
	v.writeBlock(block)
}

func (v *View) ReplacePlaceholder(id string, block domain.Block) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.placeholders[id] {
		return false
	}
	delete(v.placeholders, id)
	v.writeBlock(block)
	return true
}

func (v *View) FillPlaceholder(id string, body string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.placeholders[id] {
		return
	}
	delete(v.placeholders, id)
	v.writeBlock(domain.Block{ID: id, Kind: domain.BlockAssistant, Body: body})
}

func (v *View) ClearTranscript() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.placeholders = make(map[string]bool)
	fmt.Fprintln(v.out, "-- transcript cleared --")
}

func (v *View) ScrollToEnd() {}

func (v *View) ClearQuestionInput() {}

func (v *View) printf(format string, args ...any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintf(v.out, format, args...)
}

func (v *View) writeBlock(block domain.Block) {
	body := html.UnescapeString(block.Body)
	switch block.Kind {
	case domain.BlockUser:
		fmt.Fprintf(v.out, "%s %s\n", domain.LabelUser, body)
	case domain.BlockAssistant:
		fmt.Fprintf(v.out, "%s %s\n", domain.LabelAssistant, body)
	case domain.BlockPlaceholder:
		fmt.Fprintf(v.out, "... %s\n", body)
	case domain.BlockSource:
		fmt.Fprintf(v.out, "  source: %s\n", indentContinuation(body))
	default:
		fmt.Fprintln(v.out, body)
	}
}

func indentContinuation(s string) string {
	return strings.ReplaceAll(s, "\n", "\n          ")
}
