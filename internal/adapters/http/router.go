package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/kirillkom/docdesk/internal/adapters/view/htmlview"
	"github.com/kirillkom/docdesk/internal/core/domain"
	"github.com/kirillkom/docdesk/internal/core/ports"
)

const maxUploadMemory = 32 << 20

type MetricsMiddleware interface {
	Middleware(next http.Handler) http.Handler
	Handler() http.Handler
}

type RouterOptions struct {
	Logger           *slog.Logger
	Metrics          MetricsMiddleware
	RateLimitRPS     float64
	RateLimitBurst   int
	MaxInFlight      int
	BackpressureWait time.Duration
}

// Router serves the desk page. Action posts start the action in the
// background and redirect back to the page, which refreshes itself while
// any action is in flight.
type Router struct {
	desk   ports.Desk
	page   *htmlview.Page
	opts   RouterOptions
	logger *slog.Logger

	baseCtx context.Context
	actions sync.WaitGroup
}

func NewRouter(ctx context.Context, desk ports.Desk, page *htmlview.Page, opts RouterOptions) *Router {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.BackpressureWait <= 0 {
		opts.BackpressureWait = 250 * time.Millisecond
	}
	return &Router{
		desk:    desk,
		page:    page,
		opts:    opts,
		logger:  logger,
		baseCtx: ctx,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", rt.index)
	mux.HandleFunc("GET /healthz", rt.healthz)
	mux.HandleFunc("GET /state", rt.state)
	mux.HandleFunc("POST /actions/upload", rt.upload)
	mux.HandleFunc("POST /actions/ask", rt.ask)
	mux.HandleFunc("POST /actions/clear", rt.clear)
	mux.HandleFunc("POST /actions/report", rt.report)
	if rt.opts.Metrics != nil {
		mux.Handle("GET /metrics", rt.opts.Metrics.Handler())
	}

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.opts.MaxInFlight, rt.opts.BackpressureWait)
	handler = rateLimitMiddleware(handler, rt.opts.RateLimitRPS, rt.opts.RateLimitBurst)
	if rt.opts.Metrics != nil {
		handler = rt.opts.Metrics.Middleware(handler)
	}
	handler = accessLogMiddleware(rt.logger, handler)
	return requestIDMiddleware(handler)
}

// Wait blocks until every background action has finished.
func (rt *Router) Wait() {
	rt.actions.Wait()
}

func (rt *Router) index(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := rt.page.Render(w); err != nil {
		rt.logger.Error("render_page_failed", "error", err)
	}
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) state(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, rt.page.State())
}

func (rt *Router) upload(w http.ResponseWriter, r *http.Request) {
	files, err := readUploadFiles(r)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	rt.run(r, domain.ActionUpload, func(ctx context.Context) { rt.desk.Upload(ctx, files) })
	redirectHome(w, r)
}

func (rt *Router) ask(w http.ResponseWriter, r *http.Request) {
	question := r.FormValue("question")
	rt.page.SetQuestion(question)
	rt.run(r, domain.ActionAsk, func(ctx context.Context) { rt.desk.Ask(ctx, question) })
	redirectHome(w, r)
}

func (rt *Router) clear(w http.ResponseWriter, r *http.Request) {
	rt.desk.Clear()
	redirectHome(w, r)
}

func (rt *Router) report(w http.ResponseWriter, r *http.Request) {
	rt.run(r, domain.ActionReport, func(ctx context.Context) { rt.desk.Report(ctx) })
	redirectHome(w, r)
}

// run starts fn detached from the request so the action outlives the
// redirect. The action is bound to the router's base context instead.
func (rt *Router) run(r *http.Request, action domain.Action, fn func(ctx context.Context)) {
	requestID := requestIDFromContext(r.Context())
	rt.actions.Add(1)
	go func() {
		defer rt.actions.Done()
		rt.logger.Debug("action_started", "action", string(action), "request_id", requestID)
		fn(rt.baseCtx)
	}()
}

func readUploadFiles(r *http.Request) ([]domain.UploadFile, error) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, domain.WrapError(domain.ErrInvalidInput, "read upload form", err)
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	files := make([]domain.UploadFile, 0, len(headers))
	for _, fh := range headers {
		if strings.TrimSpace(fh.Filename) == "" {
			continue
		}
		file, err := readPart(fh)
		if err != nil {
			return nil, domain.WrapError(domain.ErrInvalidInput, "read upload form", err)
		}
		files = append(files, file)
	}
	return files, nil
}

func readPart(fh *multipart.FileHeader) (domain.UploadFile, error) {
	f, err := fh.Open()
	if err != nil {
		return domain.UploadFile{}, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer f.Close()

	raw, err := io.ReadAll(f)
	if err != nil {
		return domain.UploadFile{}, fmt.Errorf("read %s: %w", fh.Filename, err)
	}
	return domain.UploadFile{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        raw,
	}, nil
}

func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
