// Package mockbackend serves the document question-answering contract from
// memory. It backs local development (cmd/mockbackend) and the tests of
// packages that talk to the backend.
package mockbackend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/kirillkom/docdesk/internal/contract"
	"github.com/kirillkom/docdesk/internal/infrastructure/chunking"
	"github.com/kirillkom/docdesk/internal/infrastructure/extractor"
)

const (
	MaxFileSize        = 10 << 20
	TopK               = 3
	NoContextAnswer    = "No relevant information found in indexed documents."
	UploadSuccessText  = "Documents uploaded successfully"
	maxMultipartMemory = 32 << 20
)

var allowedExtensions = map[string]bool{"txt": true, "pdf": true, "docx": true}

type Options struct {
	Logger *slog.Logger
}

type injectedFailure struct {
	status int
	body   string
}

type Server struct {
	validator *contract.Validator
	splitter  *chunking.Splitter
	index     *index
	logger    *slog.Logger

	mu       sync.Mutex
	failures map[string]injectedFailure
}

func New(ctx context.Context, opts Options) (*Server, error) {
	validator, err := contract.NewValidator(ctx)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		validator: validator,
		splitter:  chunking.NewSplitter(chunking.DefaultChunkSize, chunking.DefaultOverlap),
		index:     &index{},
		logger:    logger,
		failures:  make(map[string]injectedFailure),
	}, nil
}

// FailNext makes the next request to path answer with status and a plain
// text body.
func (s *Server) FailNext(path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = injectedFailure{status: status, body: body}
}

func (s *Server) takeFailure(path string) (injectedFailure, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.failures[path]
	if ok {
		delete(s.failures, path)
	}
	return f, ok
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/upload", s.upload)
	mux.HandleFunc("/query", s.query)
	mux.HandleFunc("/report", s.report)
	return s.contractMiddleware(mux)
}

func (s *Server) contractMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if f, ok := s.takeFailure(r.URL.Path); ok {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(f.status)
			_, _ = io.WriteString(w, f.body)
			return
		}
		if err := s.validator.ValidateRequest(r); err != nil {
			s.logger.Warn("contract_violation", "method", r.Method, "path", r.URL.Path, "error", err)
			status := http.StatusBadRequest
			if r.URL.Path != "/upload" && r.URL.Path != "/query" && r.URL.Path != "/report" {
				status = http.StatusNotFound
			}
			writeDetail(w, status, err.Error())
			return
		}

		rec := &responseBuffer{header: make(http.Header), status: http.StatusOK}
		next.ServeHTTP(rec, r)
		if err := s.validator.ValidateResponse(r, rec.status, rec.header, rec.body.Bytes()); err != nil {
			s.logger.Error("contract_response_violation", "method", r.Method, "path", r.URL.Path, "status", rec.status, "error", err)
			writeDetail(w, http.StatusInternalServerError, "response violates contract")
			return
		}
		rec.flushTo(w)
	})
}

// responseBuffer holds a handler's reply until it has been checked.
type responseBuffer struct {
	header      http.Header
	status      int
	wroteHeader bool
	body        bytes.Buffer
}

func (b *responseBuffer) Header() http.Header { return b.header }

func (b *responseBuffer) WriteHeader(status int) {
	if b.wroteHeader {
		return
	}
	b.wroteHeader = true
	b.status = status
}

func (b *responseBuffer) Write(p []byte) (int, error) {
	b.WriteHeader(http.StatusOK)
	return b.body.Write(p)
}

func (b *responseBuffer) flushTo(w http.ResponseWriter) {
	for key, values := range b.header {
		w.Header()[key] = values
	}
	w.WriteHeader(b.status)
	_, _ = w.Write(b.body.Bytes())
}

func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeDetail(w, http.StatusBadRequest, "No files uploaded")
		return
	}

	totalChunks := 0
	for _, fh := range files {
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fh.Filename), "."))
		if !allowedExtensions[ext] {
			writeDetail(w, http.StatusBadRequest, "Invalid file type: "+fh.Filename)
			return
		}
		if fh.Size > MaxFileSize {
			writeDetail(w, http.StatusBadRequest, "File too large: "+fh.Filename)
			return
		}

		f, err := fh.Open()
		if err != nil {
			writeDetail(w, http.StatusInternalServerError, "Failed to process "+fh.Filename)
			return
		}
		raw, err := io.ReadAll(io.LimitReader(f, MaxFileSize+1))
		_ = f.Close()
		if err != nil {
			writeDetail(w, http.StatusInternalServerError, "Failed to process "+fh.Filename)
			return
		}

		s.index.save()

		text, err := extractor.Extract(fh.Filename, raw)
		if err != nil {
			s.logger.Warn("extract_failed", "filename", fh.Filename, "error", err)
			continue
		}
		chunks := s.splitter.Split(text)
		if len(chunks) == 0 {
			continue
		}
		s.index.add(document{ID: uuid.NewString(), Filename: filepath.Base(fh.Filename), Chunks: chunks})
		totalChunks += len(chunks)
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message":      UploadSuccessText,
		"total_chunks": totalChunks,
	})
}

func (s *Server) query(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Question) == "" {
		writeDetail(w, http.StatusBadRequest, "Question is required")
		return
	}

	sources := s.index.search(req.Question, TopK)
	if len(sources) == 0 {
		writeJSON(w, http.StatusOK, map[string]any{"answer": NoContextAnswer, "sources": []string{}})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"answer":  fmt.Sprintf("Found %d relevant passage(s) for %q.", len(sources), req.Question),
		"sources": sources,
	})
}

func (s *Server) report(w http.ResponseWriter, _ *http.Request) {
	documents, chunks := s.index.stats()
	writeJSON(w, http.StatusOK, map[string]any{
		"total_documents":   documents,
		"total_chunks":      chunks,
		"top_k":             TopK,
		"context_precision": 0.9,
		"faithfulness":      0.85,
	})
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
