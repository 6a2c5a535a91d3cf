package device

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/airfleet-core/internal/infrastructure/logging"
)

// Registry is the single source of truth for access points.
// It keeps an in-memory cache of devices in front of the repository and
// serialises all mutations through a write lock, so concurrent telemetry
// reports, adoptions, VLAN assignments and liveness sweeps for the same
// device apply in a total order.
type Registry struct {
	mu      sync.RWMutex
	devices map[string]*Device
	repo    Repository
	logger  *logging.Logger
}

// NewRegistry creates a registry and loads the current device set from the
// repository.
func NewRegistry(ctx context.Context, repo Repository, logger *logging.Logger) (*Registry, error) {
	r := &Registry{
		devices: make(map[string]*Device),
		repo:    repo,
		logger:  logger.With("component", "device-registry"),
	}
	if err := r.RefreshCache(ctx); err != nil {
		return nil, fmt.Errorf("loading device cache: %w", err)
	}
	r.logger.Info("Device registry initialised", "devices", len(r.devices))
	return r, nil
}

// RefreshCache reloads the in-memory cache from the repository.
func (r *Registry) RefreshCache(ctx context.Context) error {
	devices, err := r.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("listing devices: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.devices = make(map[string]*Device, len(devices))
	for i := range devices {
		d := devices[i]
		r.devices[d.ID] = &d
	}
	return nil
}

// Get returns a copy of the device with the given ID.
func (r *Registry) Get(id string) (*Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.devices[id]
	if !ok {
		return nil, ErrDeviceNotFound
	}
	return d.Copy(), nil
}

// List returns copies of all known devices.
func (r *Registry) List() []Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	devices := make([]Device, 0, len(r.devices))
	for _, d := range r.devices {
		devices = append(devices, *d.Copy())
	}
	return devices
}

// Count returns the number of known devices.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices)
}

// UpsertFromTelemetry applies one telemetry report. Unknown devices are
// created, known devices have their name, status, counters and last-seen
// timestamp overwritten. The VLAN assignment and adoption timestamp are
// controller-owned and never touched by telemetry.
func (r *Registry) UpsertFromTelemetry(ctx context.Context, id string, up TelemetryUpdate) (*Device, error) {
	if id == "" {
		return nil, ErrInvalidID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.devices[id]
	if !ok {
		d := &Device{
			ID:       id,
			Name:     up.Name,
			Status:   up.Status,
			Clients:  up.Clients,
			Traffic:  up.Traffic,
			LastSeen: up.ObservedAt,
		}
		if err := r.repo.Create(ctx, d); err != nil {
			return nil, fmt.Errorf("creating device from telemetry: %w", err)
		}
		r.devices[id] = d
		r.logger.Info("New device discovered", "device_id", id, "name", d.Name)
		return d.Copy(), nil
	}

	existing.Name = up.Name
	existing.Status = up.Status
	existing.Clients = up.Clients
	existing.Traffic = up.Traffic
	existing.LastSeen = up.ObservedAt
	if err := r.repo.Update(ctx, existing); err != nil {
		return nil, fmt.Errorf("updating device from telemetry: %w", err)
	}
	return existing.Copy(), nil
}

// Adopt registers a device manually, ahead of its first telemetry report.
// Returns ErrDeviceExists if the ID is already known.
func (r *Registry) Adopt(ctx context.Context, id, name string) (*Device, error) {
	if id == "" {
		return nil, ErrInvalidID
	}
	if name == "" {
		name = id
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.devices[id]; ok {
		return nil, ErrDeviceExists
	}

	now := time.Now().UTC()
	d := &Device{
		ID:        id,
		Name:      name,
		Status:    StatusOnline,
		LastSeen:  now,
		AdoptedAt: &now,
	}
	if err := r.repo.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("adopting device: %w", err)
	}
	r.devices[id] = d
	r.logger.Info("Device adopted", "device_id", id, "name", name)
	return d.Copy(), nil
}

// AssignVLAN sets or clears the VLAN assignment of a device. Pushing
// configuration counts as contact, so the last-seen timestamp is refreshed.
func (r *Registry) AssignVLAN(ctx context.Context, id string, vlan *int) (*Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.devices[id]
	if !ok {
		return nil, ErrDeviceNotFound
	}

	if vlan != nil {
		v := *vlan
		d.VLAN = &v
	} else {
		d.VLAN = nil
	}
	d.LastSeen = time.Now().UTC()
	if err := r.repo.Update(ctx, d); err != nil {
		return nil, fmt.Errorf("assigning vlan: %w", err)
	}
	return d.Copy(), nil
}

// MarkOfflineIfStale transitions a device to offline if it is still online
// and its last-seen timestamp predates the cutoff. The staleness condition
// is re-checked under the registry lock, so a telemetry report that arrives
// between the sweep's snapshot and this call wins and the transition is
// skipped. Returns true when the device was transitioned.
func (r *Registry) MarkOfflineIfStale(ctx context.Context, id string, cutoff time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.devices[id]
	if !ok {
		return false, ErrDeviceNotFound
	}
	if d.Status == StatusOffline || !d.LastSeen.Before(cutoff) {
		return false, nil
	}

	if err := r.repo.UpdateStatus(ctx, id, StatusOffline); err != nil {
		return false, fmt.Errorf("marking device offline: %w", err)
	}
	d.Status = StatusOffline
	return true, nil
}

// ReplaceClients replaces the client snapshot of an AP with the reported
// list. Row identity and last-seen timestamps are assigned here.
func (r *Registry) ReplaceClients(ctx context.Context, apID string, reports []ClientReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.devices[apID]; !ok {
		return ErrDeviceNotFound
	}

	now := time.Now().UTC()
	clients := make([]Client, 0, len(reports))
	for _, rep := range reports {
		name := rep.Name
		if name == "" {
			name = "client"
		}
		clients = append(clients, Client{
			Name:     name,
			APID:     apID,
			IP:       rep.IP,
			LastSeen: now,
		})
	}
	if err := r.repo.ReplaceClients(ctx, apID, clients); err != nil {
		return fmt.Errorf("replacing clients: %w", err)
	}
	return nil
}

// ListClients returns all known client records across the fleet.
func (r *Registry) ListClients(ctx context.Context) ([]Client, error) {
	return r.repo.ListClients(ctx)
}

// ListClientsByAP returns the client snapshot of one AP.
func (r *Registry) ListClientsByAP(ctx context.Context, apID string) ([]Client, error) {
	return r.repo.ListClientsByAP(ctx, apID)
}
