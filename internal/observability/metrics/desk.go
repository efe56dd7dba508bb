package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kirillkom/docdesk/internal/core/domain"
)

// DeskMetrics records desk actions and, when the desk is served over HTTP,
// the requests of the UI server. It satisfies ports.ActionRecorder.
type DeskMetrics struct {
	registry *prometheus.Registry
	service  string

	actionTotal    *prometheus.CounterVec
	actionDuration *prometheus.HistogramVec
	actionInFlight *prometheus.GaugeVec

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge
}

func NewDeskMetrics(service string) *DeskMetrics {
	registry := prometheus.NewRegistry()

	actionTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docdesk",
			Name:      "action_total",
			Help:      "Total desk actions by outcome.",
		},
		[]string{"service", "action", "outcome"},
	)
	actionDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docdesk",
			Name:      "action_duration_seconds",
			Help:      "Duration of completed desk actions in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"service", "action", "outcome"},
	)
	actionInFlight := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "docdesk",
			Name:      "action_in_flight",
			Help:      "Desk actions currently waiting on the backend.",
		},
		[]string{"service", "action"},
	)
	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docdesk",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docdesk",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "docdesk",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	registry.MustRegister(
		actionTotal,
		actionDuration,
		actionInFlight,
		requestTotal,
		requestDuration,
		requestInFlight,
	)

	return &DeskMetrics{
		registry:        registry,
		service:         service,
		actionTotal:     actionTotal,
		actionDuration:  actionDuration,
		actionInFlight:  actionInFlight,
		requestTotal:    requestTotal,
		requestDuration: requestDuration,
		requestInFlight: requestInFlight,
	}
}

func (m *DeskMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *DeskMetrics) StartAction(action domain.Action) {
	m.actionInFlight.WithLabelValues(m.service, string(action)).Inc()
}

func (m *DeskMetrics) FinishAction(action domain.Action, outcome string, duration time.Duration) {
	m.actionInFlight.WithLabelValues(m.service, string(action)).Dec()
	if outcome == "" {
		outcome = "unknown"
	}
	m.actionTotal.WithLabelValues(m.service, string(action), outcome).Inc()
	m.actionDuration.WithLabelValues(m.service, string(action), outcome).Observe(duration.Seconds())
}

// SkipAction counts an action that never reached the backend.
func (m *DeskMetrics) SkipAction(action domain.Action, outcome string) {
	m.actionTotal.WithLabelValues(m.service, string(action), outcome).Inc()
}
