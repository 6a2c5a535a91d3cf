package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nerrad567/airfleet-core/internal/device"
	"github.com/nerrad567/airfleet-core/internal/infrastructure/logging"
)

// MetricsSink mirrors per-report counters to a time-series store.
// Implemented by the InfluxDB writer; nil disables history.
type MetricsSink interface {
	WriteDeviceMetrics(deviceID, name string, clients, traffic int, ts time.Time)
}

// report is the wire format of one telemetry datagram or MQTT message.
// Only the id is mandatory; every other field has a default.
type report struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Status      string         `json:"status"`
	Clients     int            `json:"clients"`
	Traffic     int            `json:"traffic"`
	ClientsList []clientReport `json:"clients_list"`
}

type clientReport struct {
	Name string `json:"name"`
	IP   string `json:"ip"`
}

// Service turns raw telemetry payloads into registry updates and fan-out.
type Service struct {
	registry   *device.Registry
	notifier   device.Notifier
	events     device.EventSink
	metrics    MetricsSink
	provenance *provenance
	logger     *logging.Logger
}

// NewService creates the telemetry ingestion service. The notifier, event
// sink and metrics sink may each be nil.
func NewService(registry *device.Registry, notifier device.Notifier,
	events device.EventSink, metrics MetricsSink,
	provenanceLimit int, logger *logging.Logger) *Service {
	return &Service{
		registry:   registry,
		notifier:   notifier,
		events:     events,
		metrics:    metrics,
		provenance: newProvenance(provenanceLimit),
		logger:     logger.With("component", "telemetry"),
	}
}

// Ingest processes one raw telemetry payload. Malformed payloads and
// payloads without a device id are dropped with a warning naming the
// sender; the error return is for the caller's accounting only, the
// sender is never answered.
func (s *Service) Ingest(ctx context.Context, payload []byte, origin Origin) error {
	var rep report
	if err := json.Unmarshal(payload, &rep); err != nil {
		s.logger.Warn("Dropping malformed telemetry",
			"transport", origin.Transport, "source", origin.Source, "error", err)
		return fmt.Errorf("decoding telemetry: %w", err)
	}
	if rep.ID == "" {
		s.logger.Warn("Dropping telemetry without device id",
			"transport", origin.Transport, "source", origin.Source)
		return device.ErrInvalidID
	}

	now := time.Now().UTC()
	up := device.TelemetryUpdate{
		Name:       rep.Name,
		Status:     device.ParseStatus(rep.Status),
		Clients:    rep.Clients,
		Traffic:    rep.Traffic,
		ObservedAt: now,
	}
	if up.Name == "" {
		up.Name = rep.ID
	}

	known := s.registry.Count()
	d, err := s.registry.UpsertFromTelemetry(ctx, rep.ID, up)
	if err != nil {
		s.logger.Error("Telemetry upsert failed", "device_id", rep.ID, "error", err)
		return err
	}

	if rep.ClientsList != nil {
		reports := make([]device.ClientReport, 0, len(rep.ClientsList))
		for _, c := range rep.ClientsList {
			reports = append(reports, device.ClientReport{Name: c.Name, IP: c.IP})
		}
		if err := s.registry.ReplaceClients(ctx, rep.ID, reports); err != nil {
			s.logger.Error("Client snapshot replace failed",
				"device_id", rep.ID, "error", err)
		}
	}

	origin.ReportedAt = now
	s.provenance.record(rep.ID, origin)

	if s.events != nil {
		if s.registry.Count() > known {
			s.events.Record(ctx, "info", fmt.Sprintf("Discovered AP %s", d.Name))
		} else {
			s.events.Record(ctx, "debug", fmt.Sprintf("Telemetry from %s", d.Name))
		}
	}
	if s.notifier != nil {
		s.notifier.Broadcast("telemetry", d)
		s.notifier.Broadcast("devices:update", s.registry.List())
	}
	if s.metrics != nil {
		s.metrics.WriteDeviceMetrics(d.ID, d.Name, d.Clients, d.Traffic, now)
	}

	s.logger.Debug("Telemetry ingested",
		"device_id", d.ID, "status", string(d.Status),
		"clients", d.Clients, "transport", origin.Transport)
	return nil
}

// Origin returns the last-report origin for a device, if known.
func (s *Service) Origin(deviceID string) (Origin, bool) {
	return s.provenance.get(deviceID)
}

// TrackedOrigins returns how many devices have provenance entries.
func (s *Service) TrackedOrigins() int {
	return s.provenance.len()
}
