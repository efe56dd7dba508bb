package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/docdesk/internal/core/domain"
	"github.com/kirillkom/docdesk/internal/core/ports"
)

type JournalOptions struct {
	Service string
	Logger  *slog.Logger
	// Buffer bounds queued events; when full, new events are dropped.
	Buffer        int
	AppendTimeout time.Duration
	Now           func() time.Time
}

// JournalRecorder forwards lifecycle calls to next and hands every finished
// or skipped action to the journals from a single background goroutine, so a
// slow journal never holds up an action.
type JournalRecorder struct {
	next     ports.ActionRecorder
	journals []ports.ActionJournal
	opts     JournalOptions
	logger   *slog.Logger

	mu     sync.Mutex
	closed bool
	events chan domain.ActionEvent
	done   chan struct{}
}

func NewJournalRecorder(next ports.ActionRecorder, journals []ports.ActionJournal, opts JournalOptions) *JournalRecorder {
	if opts.Buffer <= 0 {
		opts.Buffer = 256
	}
	if opts.AppendTimeout <= 0 {
		opts.AppendTimeout = 5 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	r := &JournalRecorder{
		next:     next,
		journals: journals,
		opts:     opts,
		logger:   logger,
		events:   make(chan domain.ActionEvent, opts.Buffer),
		done:     make(chan struct{}),
	}
	go r.loop()
	return r
}

func (r *JournalRecorder) StartAction(action domain.Action) {
	if r.next != nil {
		r.next.StartAction(action)
	}
}

func (r *JournalRecorder) FinishAction(action domain.Action, outcome string, duration time.Duration) {
	if r.next != nil {
		r.next.FinishAction(action, outcome, duration)
	}
	r.enqueue(action, outcome, duration)
}

func (r *JournalRecorder) SkipAction(action domain.Action, outcome string) {
	if r.next != nil {
		r.next.SkipAction(action, outcome)
	}
	r.enqueue(action, outcome, 0)
}

// Close stops accepting events and waits until queued ones are written.
func (r *JournalRecorder) Close() {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.events)
	}
	r.mu.Unlock()
	<-r.done
}

func (r *JournalRecorder) enqueue(action domain.Action, outcome string, duration time.Duration) {
	event := domain.ActionEvent{
		ID:         uuid.NewString(),
		Service:    r.opts.Service,
		Action:     action,
		Outcome:    outcome,
		DurationMS: duration.Milliseconds(),
		At:         r.opts.Now().UTC(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	select {
	case r.events <- event:
	default:
		r.logger.Warn("journal_buffer_full", "action", string(action), "outcome", outcome)
	}
}

func (r *JournalRecorder) loop() {
	defer close(r.done)
	for event := range r.events {
		for _, journal := range r.journals {
			ctx, cancel := context.WithTimeout(context.Background(), r.opts.AppendTimeout)
			if err := journal.Append(ctx, event); err != nil {
				r.logger.Warn("journal_append_failed", "action", string(event.Action), "event_id", event.ID, "error", err)
			}
			cancel()
		}
	}
}
