package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/docdesk/internal/core/domain"
	"github.com/kirillkom/docdesk/internal/infrastructure/resilience"
)

func TestUploadSendsRepeatedFilesFieldInOrder(t *testing.T) {
	var names []string
	var bodies []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/upload" {
			http.NotFound(w, r)
			return
		}
		reader, err := r.MultipartReader()
		if err != nil {
			t.Errorf("MultipartReader() error = %v", err)
			return
		}
		for {
			part, err := reader.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				t.Errorf("NextPart() error = %v", err)
				return
			}
			if part.FormName() != "files" {
				t.Errorf("unexpected field %q", part.FormName())
			}
			raw, _ := io.ReadAll(part)
			names = append(names, part.FileName())
			bodies = append(bodies, string(raw))
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"message":"Documents uploaded successfully","total_chunks":2}`))
	}))
	defer server.Close()

	client := New(server.URL)
	result, err := client.Upload(context.Background(), []domain.UploadFile{
		{Name: "b.txt", ContentType: "text/plain", Data: []byte("second")},
		{Name: "a.pdf", Data: []byte("first")},
	})
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if strings.Join(names, ",") != "b.txt,a.pdf" {
		t.Fatalf("expected selection order, got %v", names)
	}
	if strings.Join(bodies, ",") != "second,first" {
		t.Fatalf("unexpected bodies %v", bodies)
	}

	var decoded map[string]any
	if err := json.Unmarshal(result, &decoded); err != nil {
		t.Fatalf("result is not json: %v", err)
	}
	if decoded["total_chunks"] != float64(2) {
		t.Fatalf("unexpected result %s", result)
	}
}

func TestQueryPostsQuestionJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/query" || r.Header.Get("Content-Type") != "application/json" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		var payload map[string]string
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"answer":  "echo: " + payload["question"],
			"sources": []string{"doc1", "doc2"},
		})
	}))
	defer server.Close()

	resp, err := New(server.URL).Query(context.Background(), domain.QueryRequest{Question: "What is X?"})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if resp.Answer != "echo: What is X?" {
		t.Fatalf("unexpected answer %q", resp.Answer)
	}
	if len(resp.Sources) != 2 || resp.Sources[0] != "doc1" {
		t.Fatalf("unexpected sources %v", resp.Sources)
	}
}

func TestReportNonSuccessReturnsStatusErrorWithBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("db down"))
	}))
	defer server.Close()

	_, err := New(server.URL).Report(context.Background())
	statusErr, ok := domain.AsStatusError(err)
	if !ok {
		t.Fatalf("expected status error, got %v", err)
	}
	if statusErr.StatusCode != http.StatusInternalServerError || statusErr.Body != "db down" {
		t.Fatalf("unexpected status error %+v", statusErr)
	}
}

func TestTransportFailureIsWrapped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := New(url).Report(context.Background())
	if err == nil {
		t.Fatalf("expected error")
	}
	if _, ok := domain.AsStatusError(err); ok {
		t.Fatalf("transport failure must not look like a status error")
	}
	if !domain.IsKind(err, domain.ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
}

func TestUndecodableSuccessBodyIsTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer server.Close()

	_, err := New(server.URL).Query(context.Background(), domain.QueryRequest{Question: "q"})
	if !domain.IsKind(err, domain.ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
}

func TestDefaultBaseURL(t *testing.T) {
	client := New("  ")
	if client.BaseURL() != "http://127.0.0.1:8000" {
		t.Fatalf("unexpected default base url %s", client.BaseURL())
	}
	if New("http://backend:8000/").BaseURL() != "http://backend:8000" {
		t.Fatalf("expected trailing slash trimmed")
	}
}

func TestOpenBreakerFailsFastAsBackendUnavailable(t *testing.T) {
	calls := 0
	transport := roundTripFunc(func(*http.Request) (*http.Response, error) {
		calls++
		return nil, errors.New("connection refused")
	})

	client := NewWithOptions("http://backend.invalid", Options{
		HTTP: &http.Client{Transport: transport},
		Executor: resilience.NewExecutor(resilience.Config{
			BreakerEnabled:          true,
			BreakerMinRequests:      2,
			BreakerFailureRatio:     0.5,
			BreakerOpenTimeout:      time.Minute,
			BreakerHalfOpenMaxCalls: 1,
		}),
	})

	for i := 0; i < 2; i++ {
		if _, err := client.Report(context.Background()); err == nil {
			t.Fatalf("expected transport error on call %d", i)
		}
	}
	_, err := client.Report(context.Background())
	if !domain.IsKind(err, domain.ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("open breaker must not reach the backend, got %d calls", calls)
	}
}

func TestServerErrorsNeverOpenBreaker(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "db down", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewWithOptions(server.URL, Options{
		Executor: resilience.NewExecutor(resilience.Config{
			BreakerEnabled:      true,
			BreakerMinRequests:  2,
			BreakerFailureRatio: 0.5,
			BreakerOpenTimeout:  time.Minute,
		}),
	})

	for i := 0; i < 6; i++ {
		_, err := client.Report(context.Background())
		statusErr, ok := domain.AsStatusError(err)
		if !ok || statusErr.StatusCode != http.StatusInternalServerError {
			t.Fatalf("call %d: expected 500 status error, got %v", i, err)
		}
	}
	if calls != 6 {
		t.Fatalf("every call must reach the backend, got %d", calls)
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func TestClassifyBackendError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		record bool
	}{
		{name: "client status", err: &domain.BackendStatusError{StatusCode: 400}, record: false},
		{name: "server status", err: &domain.BackendStatusError{StatusCode: 502}, record: false},
		{name: "too many requests", err: &domain.BackendStatusError{StatusCode: 429}, record: false},
		{name: "transport", err: domain.WrapError(domain.ErrTransport, "op", errors.New("refused")), record: true},
		{name: "canceled", err: context.Canceled, record: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := classifyBackendError(tc.err).RecordFailure; got != tc.record {
				t.Fatalf("RecordFailure = %t, want %t", got, tc.record)
			}
		})
	}
}
