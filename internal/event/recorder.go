package event

import (
	"context"
	"time"

	"github.com/nerrad567/airfleet-core/internal/infrastructure/logging"
)

// Notifier pushes recorded events to connected UI clients.
// Implemented by the websocket hub.
type Notifier interface {
	Broadcast(channel string, payload any)
}

// Recorder persists events and fans them out over the websocket hub.
type Recorder struct {
	repo     Repository
	notifier Notifier
	logger   *logging.Logger
}

// NewRecorder creates an event recorder. The notifier may be nil, in which
// case events are only persisted.
func NewRecorder(repo Repository, notifier Notifier, logger *logging.Logger) *Recorder {
	return &Recorder{
		repo:     repo,
		notifier: notifier,
		logger:   logger.With("component", "event-recorder"),
	}
}

// Record appends an event and broadcasts it. Failures are logged, never
// returned: an unavailable activity log must not fail telemetry ingestion
// or an API command.
func (r *Recorder) Record(ctx context.Context, level, message string) {
	ev := &Event{
		Level:     normaliseLevel(level),
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
	if err := r.repo.Create(ctx, ev); err != nil {
		r.logger.Error("Failed to persist event", "message", message, "error", err)
		return
	}
	if r.notifier != nil {
		r.notifier.Broadcast("event", ev)
	}
}

// List returns the most recent events, newest first.
func (r *Recorder) List(ctx context.Context, limit int) ([]Event, error) {
	return r.repo.List(ctx, limit)
}
