package nats

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/docdesk/internal/core/domain"
	"github.com/kirillkom/docdesk/internal/infrastructure/resilience"
)

type publisherFake struct {
	subjects []string
	payloads [][]byte
	err      error
}

func (f *publisherFake) Publish(subject string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.subjects = append(f.subjects, subject)
	f.payloads = append(f.payloads, data)
	return nil
}

func TestAppendPublishesEventJSON(t *testing.T) {
	fake := &publisherFake{}
	pub := newPublisher(fake, "", nil)

	at := time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)
	err := pub.Append(context.Background(), domain.ActionEvent{
		ID: "ev-1", Service: "docdesk", Action: domain.ActionUpload, Outcome: "success", DurationMS: 42, At: at,
	})
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if len(fake.subjects) != 1 || fake.subjects[0] != DefaultSubject {
		t.Fatalf("unexpected subjects %v", fake.subjects)
	}

	var decoded domain.ActionEvent
	if err := json.Unmarshal(fake.payloads[0], &decoded); err != nil {
		t.Fatalf("payload is not json: %v", err)
	}
	if decoded.ID != "ev-1" || decoded.Action != domain.ActionUpload || !decoded.At.Equal(at) {
		t.Fatalf("unexpected payload %+v", decoded)
	}
}

func TestAppendConnectionFailureIsUnavailable(t *testing.T) {
	pub := newPublisher(&publisherFake{err: nats.ErrConnectionClosed}, "desk.events", nil)
	if pub.Subject() != "desk.events" {
		t.Fatalf("unexpected subject %s", pub.Subject())
	}

	err := pub.Append(context.Background(), domain.ActionEvent{ID: "ev-1"})
	if !domain.IsKind(err, domain.ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
}

func TestAppendOpenBreakerSkipsPublish(t *testing.T) {
	fake := &publisherFake{err: errors.New("permissions violation")}
	executor := resilience.NewExecutor(resilience.Config{
		BreakerEnabled:      true,
		BreakerMinRequests:  1,
		BreakerFailureRatio: 0.5,
		BreakerOpenTimeout:  time.Minute,
	})
	pub := newPublisher(fake, "", executor)

	first := pub.Append(context.Background(), domain.ActionEvent{ID: "ev-1"})
	if first == nil || domain.IsKind(first, domain.ErrBackendUnavailable) {
		t.Fatalf("expected plain publish error, got %v", first)
	}

	second := pub.Append(context.Background(), domain.ActionEvent{ID: "ev-2"})
	if !domain.IsKind(second, domain.ErrBackendUnavailable) {
		t.Fatalf("expected open breaker to report unavailable, got %v", second)
	}
	if executor.State("nats.publish") != "open" {
		t.Fatalf("expected open breaker, got %s", executor.State("nats.publish"))
	}
}

func TestClassifyNATSError(t *testing.T) {
	if classifyNATSError(context.Canceled).RecordFailure {
		t.Fatalf("cancellation must not count against the broker")
	}
	if !classifyNATSError(nats.ErrTimeout).RecordFailure {
		t.Fatalf("timeout must count against the broker")
	}
}
