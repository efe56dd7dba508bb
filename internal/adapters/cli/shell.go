// Package cli drives the desk from line-oriented input.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/kirillkom/docdesk/internal/core/ports"
)

const helpText = `commands:
  upload <path>...     upload local files
  ask <question>       ask the indexed documents
  clear                clear the transcript
  report               fetch the evaluation report
  export <file.xlsx>   fetch the report and save it as a spreadsheet
  history [n]          show the last n journaled actions (default 10)
  help                 show this help
  quit                 leave
`

// Shell runs one command per input line. Commands run to completion before
// the next line is read.
type Shell struct {
	desk    ports.ReportExportingDesk
	files   ports.FileBatchLoader
	history ports.ActionHistory
	out     io.Writer
	prompt  string
}

func NewShell(desk ports.ReportExportingDesk, files ports.FileBatchLoader, out io.Writer) *Shell {
	return &Shell{desk: desk, files: files, out: out, prompt: "> "}
}

// WithHistory enables the history command.
func (s *Shell) WithHistory(history ports.ActionHistory) *Shell {
	s.history = history
	return s
}

func (s *Shell) Run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	fmt.Fprint(s.out, s.prompt)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if quit := s.Exec(ctx, scanner.Text()); quit {
			return nil
		}
		fmt.Fprint(s.out, s.prompt)
	}
	return scanner.Err()
}

// Exec runs a single command line and reports whether the shell should stop.
func (s *Shell) Exec(ctx context.Context, line string) bool {
	command, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(command) {
	case "":
	case "upload":
		s.upload(ctx, strings.Fields(rest))
	case "ask":
		s.desk.Ask(ctx, rest)
	case "clear":
		s.desk.Clear()
	case "report":
		s.desk.Report(ctx)
	case "export":
		if err := s.desk.ExportReport(ctx, rest); err != nil {
			fmt.Fprintf(s.out, "export failed: %v\n", err)
			return false
		}
		fmt.Fprintf(s.out, "report saved to %s\n", rest)
	case "history":
		s.showHistory(ctx, rest)
	case "help", "?":
		fmt.Fprint(s.out, helpText)
	case "quit", "exit":
		return true
	default:
		fmt.Fprintf(s.out, "unknown command %q, type help\n", command)
	}
	return false
}

func (s *Shell) upload(ctx context.Context, paths []string) {
	files, err := s.files.LoadAll(ctx, paths)
	if err != nil {
		fmt.Fprintf(s.out, "cannot read %v\n", err)
		return
	}
	s.desk.Upload(ctx, files)
}

func (s *Shell) showHistory(ctx context.Context, arg string) {
	if s.history == nil {
		fmt.Fprintln(s.out, "history is not recorded, set JOURNAL_POSTGRES_DSN")
		return
	}
	limit := 10
	if arg != "" {
		n, err := strconv.Atoi(arg)
		if err != nil || n <= 0 {
			fmt.Fprintf(s.out, "history: invalid count %q\n", arg)
			return
		}
		limit = n
	}

	events, err := s.history.Recent(ctx, limit)
	if err != nil {
		fmt.Fprintf(s.out, "history failed: %v\n", err)
		return
	}
	if len(events) == 0 {
		fmt.Fprintln(s.out, "no actions recorded yet")
		return
	}
	for _, event := range events {
		fmt.Fprintf(s.out, "%s  %-6s  %-15s  %dms\n",
			event.At.UTC().Format(time.RFC3339), event.Action, event.Outcome, event.DurationMS)
	}
}
