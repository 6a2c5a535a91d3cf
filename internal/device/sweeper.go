package device

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/airfleet-core/internal/infrastructure/logging"
)

// Notifier pushes fleet state changes to connected UI clients.
// Implemented by the websocket hub.
type Notifier interface {
	Broadcast(channel string, payload any)
}

// EventSink records controller events. Implemented by the event recorder.
type EventSink interface {
	Record(ctx context.Context, level, message string)
}

// Sweeper periodically transitions stale devices to offline.
// A device is stale when its last-seen timestamp is older than the
// configured threshold. Each transition is re-validated under the registry
// lock, so telemetry arriving mid-sweep is never overwritten.
type Sweeper struct {
	registry  *Registry
	notifier  Notifier
	events    EventSink
	interval  time.Duration
	threshold time.Duration
	logger    *logging.Logger
}

// NewSweeper creates a liveness sweeper. The notifier and event sink may be
// nil, in which case transitions are only persisted and logged.
func NewSweeper(registry *Registry, notifier Notifier, events EventSink,
	interval, threshold time.Duration, logger *logging.Logger) *Sweeper {
	return &Sweeper{
		registry:  registry,
		notifier:  notifier,
		events:    events,
		interval:  interval,
		threshold: threshold,
		logger:    logger.With("component", "sweeper"),
	}
}

// Run executes the sweep loop until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	s.logger.Info("Liveness sweeper started",
		"interval", s.interval.String(), "threshold", s.threshold.String())

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Liveness sweeper stopped")
			return
		case now := <-ticker.C:
			s.sweepOnce(ctx, now)
		}
	}
}

// sweepOnce performs one pass over the fleet. An error on one device does
// not abort the sweep for the rest.
func (s *Sweeper) sweepOnce(ctx context.Context, now time.Time) {
	cutoff := now.Add(-s.threshold)

	var transitioned []Device
	for _, d := range s.registry.List() {
		if d.Status != StatusOnline || !d.LastSeen.Before(cutoff) {
			continue
		}
		changed, err := s.registry.MarkOfflineIfStale(ctx, d.ID, cutoff)
		if err != nil {
			s.logger.Error("Failed to mark device offline",
				"device_id", d.ID, "error", err)
			continue
		}
		if changed {
			transitioned = append(transitioned, d)
		}
	}

	if len(transitioned) == 0 {
		return
	}

	for _, d := range transitioned {
		s.logger.Warn("Device went offline", "device_id", d.ID, "name", d.Name)
		if s.events != nil {
			s.events.Record(ctx, "warn", fmt.Sprintf("AP %s went offline", d.Name))
		}
	}
	if s.notifier != nil {
		s.notifier.Broadcast("devices:update", s.registry.List())
	}
}
