package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/docdesk/internal/core/domain"
)

func scrape(t *testing.T, m *DeskMetrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	return string(body)
}

func TestActionLifecycleUpdatesGaugeAndCounters(t *testing.T) {
	m := NewDeskMetrics("desk-test")

	m.StartAction(domain.ActionAsk)
	out := scrape(t, m)
	if !strings.Contains(out, `docdesk_action_in_flight{action="ask",service="desk-test"} 1`) {
		t.Fatalf("expected ask in flight:\n%s", out)
	}

	m.FinishAction(domain.ActionAsk, "success", 120*time.Millisecond)
	out = scrape(t, m)
	if !strings.Contains(out, `docdesk_action_in_flight{action="ask",service="desk-test"} 0`) {
		t.Fatalf("expected ask gauge back to zero:\n%s", out)
	}
	if !strings.Contains(out, `docdesk_action_total{action="ask",outcome="success",service="desk-test"} 1`) {
		t.Fatalf("expected one successful ask:\n%s", out)
	}
	if !strings.Contains(out, `docdesk_action_duration_seconds_count{action="ask",outcome="success",service="desk-test"} 1`) {
		t.Fatalf("expected one duration sample:\n%s", out)
	}
}

func TestSkipActionLeavesGaugeUntouched(t *testing.T) {
	m := NewDeskMetrics("desk-test")

	m.SkipAction(domain.ActionUpload, "invalid_input")
	out := scrape(t, m)
	if strings.Contains(out, `docdesk_action_in_flight{action="upload"`) {
		t.Fatalf("skipped action must not touch the in-flight gauge:\n%s", out)
	}
	if !strings.Contains(out, `docdesk_action_total{action="upload",outcome="invalid_input",service="desk-test"} 1`) {
		t.Fatalf("expected skipped upload to be counted:\n%s", out)
	}
}

func TestMiddlewareRecordsStatusAndNormalizesPath(t *testing.T) {
	m := NewDeskMetrics("desk-test")
	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusSeeOther)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/actions/ask", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/random/path", nil))

	out := scrape(t, m)
	if !strings.Contains(out, `docdesk_http_requests_total{method="POST",path="/actions/ask",service="desk-test",status="303"} 1`) {
		t.Fatalf("expected counted action request:\n%s", out)
	}
	if !strings.Contains(out, `docdesk_http_requests_total{method="GET",path="other",service="desk-test",status="303"} 1`) {
		t.Fatalf("expected unknown path folded into other:\n%s", out)
	}
}

func TestNormalizePath(t *testing.T) {
	cases := map[string]string{
		"/":              "/",
		"/healthz":       "/healthz",
		"/actions/clear": "/actions/clear",
		"/actions/x":     "/actions/{unknown}",
		"/favicon.ico":   "other",
	}
	for in, want := range cases {
		if got := normalizePath(in); got != want {
			t.Fatalf("normalizePath(%q) = %q, want %q", in, got, want)
		}
	}
}
