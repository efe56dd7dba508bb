// Package mcptools exposes the desk actions as Model Context Protocol tools.
package mcptools

import (
	"bytes"
	"context"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/docdesk/internal/core/ports"
)

// Transcript collects what the desk prints for the tool call in progress.
type Transcript struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (t *Transcript) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.buf.Write(p)
}

func (t *Transcript) take() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := t.buf.String()
	t.buf.Reset()
	return out
}

// Server runs one tool call at a time so each result carries only the
// output of its own action.
type Server struct {
	desk       ports.Desk
	files      ports.FileBatchLoader
	transcript *Transcript

	mu  sync.Mutex
	mcp *server.MCPServer
}

// New builds the tool server. transcript must be the writer behind the
// desk's view.
func New(desk ports.Desk, files ports.FileBatchLoader, transcript *Transcript, version string) *Server {
	s := &Server{desk: desk, files: files, transcript: transcript}

	s.mcp = server.NewMCPServer("docdesk", version, server.WithToolCapabilities(false))
	s.mcp.AddTool(mcp.NewTool("upload_files",
		mcp.WithDescription("Upload local txt, pdf or docx files to the document index."),
		mcp.WithString("paths", mcp.Required(), mcp.Description("Comma or newline separated file paths.")),
	), s.uploadFiles)
	s.mcp.AddTool(mcp.NewTool("ask",
		mcp.WithDescription("Ask a question about the indexed documents."),
		mcp.WithString("question", mcp.Required()),
	), s.ask)
	s.mcp.AddTool(mcp.NewTool("report",
		mcp.WithDescription("Fetch the index evaluation report."),
	), s.report)
	s.mcp.AddTool(mcp.NewTool("clear",
		mcp.WithDescription("Clear the conversation transcript."),
	), s.clear)
	return s
}

func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) uploadFiles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("paths")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	paths := splitPaths(raw)

	files, err := s.files.LoadAll(ctx, paths)
	if err != nil {
		return mcp.NewToolResultError("cannot read " + err.Error()), nil
	}
	return s.run(func() { s.desk.Upload(ctx, files) }), nil
}

func (s *Server) ask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := req.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.run(func() { s.desk.Ask(ctx, question) }), nil
}

func (s *Server) report(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.run(func() { s.desk.Report(ctx) }), nil
}

func (s *Server) clear(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.run(s.desk.Clear), nil
}

func (s *Server) run(action func()) *mcp.CallToolResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transcript.take()
	action()
	out := strings.TrimSpace(s.transcript.take())
	if out == "" {
		out = "done"
	}
	return mcp.NewToolResultText(out)
}

func splitPaths(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == '\n' })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
