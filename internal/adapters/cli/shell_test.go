package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirillkom/docdesk/internal/core/domain"
)

type deskFake struct {
	calls     []string
	uploads   [][]domain.UploadFile
	exportErr error
}

func (d *deskFake) Upload(_ context.Context, files []domain.UploadFile) {
	d.calls = append(d.calls, "upload")
	d.uploads = append(d.uploads, files)
}
func (d *deskFake) Ask(_ context.Context, q string) { d.calls = append(d.calls, "ask:"+q) }
func (d *deskFake) Clear()                          { d.calls = append(d.calls, "clear") }
func (d *deskFake) Report(context.Context)          { d.calls = append(d.calls, "report") }
func (d *deskFake) ExportReport(_ context.Context, path string) error {
	d.calls = append(d.calls, "export:"+path)
	return d.exportErr
}

type loaderFake map[string]string

func (l loaderFake) LoadAll(_ context.Context, paths []string) ([]domain.UploadFile, error) {
	files := make([]domain.UploadFile, 0, len(paths))
	for _, path := range paths {
		data, ok := l[path]
		if !ok {
			return nil, fmt.Errorf("%s: %w", path, errors.New("no such file"))
		}
		files = append(files, domain.UploadFile{Name: path, Data: []byte(data)})
	}
	return files, nil
}

func TestRunDispatchesCommandsUntilQuit(t *testing.T) {
	desk := &deskFake{}
	var out bytes.Buffer
	shell := NewShell(desk, loaderFake{"a.txt": "A", "b.pdf": "B"}, &out)

	input := strings.Join([]string{
		"upload a.txt b.pdf",
		"ask   what is in a?  ",
		"",
		"report",
		"export out/report.xlsx",
		"clear",
		"quit",
		"ask never",
	}, "\n")
	require.NoError(t, shell.Run(context.Background(), strings.NewReader(input)))

	assert.Equal(t, []string{"upload", "ask:what is in a?", "report", "export:out/report.xlsx", "clear"}, desk.calls)
	require.Len(t, desk.uploads, 1)
	assert.Equal(t, "a.txt", desk.uploads[0][0].Name)
	assert.Equal(t, "b.pdf", desk.uploads[0][1].Name)
	assert.Contains(t, out.String(), "report saved to out/report.xlsx")
}

func TestUploadWithoutPathsStillReachesDesk(t *testing.T) {
	desk := &deskFake{}
	shell := NewShell(desk, loaderFake{}, &bytes.Buffer{})

	shell.Exec(context.Background(), "upload")

	require.Len(t, desk.uploads, 1)
	assert.Empty(t, desk.uploads[0])
}

func TestUploadUnreadableFileIsReportedLocally(t *testing.T) {
	desk := &deskFake{}
	var out bytes.Buffer
	shell := NewShell(desk, loaderFake{"a.txt": "A"}, &out)

	shell.Exec(context.Background(), "upload a.txt missing.txt")

	assert.Empty(t, desk.calls)
	assert.Contains(t, out.String(), "cannot read missing.txt")
}

func TestExportFailureAndUnknownCommand(t *testing.T) {
	desk := &deskFake{exportErr: errors.New("report unavailable")}
	var out bytes.Buffer
	shell := NewShell(desk, loaderFake{}, &out)

	assert.False(t, shell.Exec(context.Background(), "export r.xlsx"))
	assert.False(t, shell.Exec(context.Background(), "dance"))
	assert.False(t, shell.Exec(context.Background(), "help"))
	assert.True(t, shell.Exec(context.Background(), "EXIT"))

	assert.Contains(t, out.String(), "export failed: report unavailable")
	assert.Contains(t, out.String(), `unknown command "dance"`)
	assert.Contains(t, out.String(), "upload <path>...")
}

type historyFake struct {
	events []domain.ActionEvent
	limit  int
	err    error
}

func (h *historyFake) Recent(_ context.Context, limit int) ([]domain.ActionEvent, error) {
	h.limit = limit
	if h.err != nil {
		return nil, h.err
	}
	return h.events, nil
}

func TestHistoryListsJournaledActions(t *testing.T) {
	history := &historyFake{events: []domain.ActionEvent{
		{Action: domain.ActionReport, Outcome: "http_error", DurationMS: 30, At: time.Date(2026, 10, 15, 12, 0, 1, 0, time.UTC)},
		{Action: domain.ActionUpload, Outcome: "success", DurationMS: 900, At: time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)},
	}}
	var out bytes.Buffer
	shell := NewShell(&deskFake{}, loaderFake{}, &out).WithHistory(history)

	shell.Exec(context.Background(), "history 5")

	assert.Equal(t, 5, history.limit)
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "2026-10-15T12:00:01Z  report  http_error       30ms", lines[0])
	assert.Equal(t, "2026-10-15T12:00:00Z  upload  success          900ms", lines[1])
}

func TestHistoryWithoutJournalOrBadCount(t *testing.T) {
	var out bytes.Buffer
	NewShell(&deskFake{}, loaderFake{}, &out).Exec(context.Background(), "history")
	assert.Contains(t, out.String(), "history is not recorded")

	out.Reset()
	history := &historyFake{}
	shell := NewShell(&deskFake{}, loaderFake{}, &out).WithHistory(history)
	shell.Exec(context.Background(), "history zero")
	assert.Contains(t, out.String(), `history: invalid count "zero"`)

	out.Reset()
	shell.Exec(context.Background(), "history")
	assert.Equal(t, 10, history.limit)
	assert.Contains(t, out.String(), "no actions recorded yet")

	out.Reset()
	history.err = errors.New("db down")
	shell.Exec(context.Background(), "history")
	assert.Contains(t, out.String(), "history failed: db down")
}
