package device

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/airfleet-core/internal/infrastructure/logging"
)

// MockRepository is an in-memory Repository for registry tests.
type MockRepository struct {
	mu      sync.Mutex
	devices map[string]*Device
	clients map[string][]Client

	failUpdateStatus bool
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		devices: make(map[string]*Device),
		clients: make(map[string][]Client),
	}
}

func (m *MockRepository) GetByID(_ context.Context, id string) (*Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.devices[id]
	if !ok {
		return nil, ErrDeviceNotFound
	}
	return d.Copy(), nil
}

func (m *MockRepository) List(_ context.Context) ([]Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Device, 0, len(m.devices))
	for _, d := range m.devices {
		out = append(out, *d.Copy())
	}
	return out, nil
}

func (m *MockRepository) Create(_ context.Context, device *Device) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.devices[device.ID]; ok {
		return ErrDeviceExists
	}
	m.devices[device.ID] = device.Copy()
	return nil
}

func (m *MockRepository) Update(_ context.Context, device *Device) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.devices[device.ID]; !ok {
		return ErrDeviceNotFound
	}
	m.devices[device.ID] = device.Copy()
	return nil
}

func (m *MockRepository) UpdateStatus(_ context.Context, id string, status Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUpdateStatus {
		return errors.New("mock: update status failed")
	}
	d, ok := m.devices[id]
	if !ok {
		return ErrDeviceNotFound
	}
	d.Status = status
	return nil
}

func (m *MockRepository) ReplaceClients(_ context.Context, apID string, clients []Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clients[apID] = append([]Client(nil), clients...)
	return nil
}

func (m *MockRepository) ListClients(_ context.Context) ([]Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Client
	for _, cs := range m.clients {
		out = append(out, cs...)
	}
	return out, nil
}

func (m *MockRepository) ListClientsByAP(_ context.Context, apID string) ([]Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Client(nil), m.clients[apID]...), nil
}

func testRegistry(t *testing.T) (*Registry, *MockRepository) {
	t.Helper()
	repo := NewMockRepository()
	reg, err := NewRegistry(context.Background(), repo, logging.Default())
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	return reg, repo
}

func telemetryAt(t time.Time) TelemetryUpdate {
	return TelemetryUpdate{
		Name:       "lobby-ap",
		Status:     StatusOnline,
		Clients:    4,
		Traffic:    1024,
		ObservedAt: t,
	}
}

func TestUpsertFromTelemetryCreatesUnknownDevice(t *testing.T) {
	reg, _ := testRegistry(t)
	ctx := context.Background()
	now := time.Now().UTC()

	d, err := reg.UpsertFromTelemetry(ctx, "ap-01", telemetryAt(now))
	if err != nil {
		t.Fatalf("UpsertFromTelemetry() error = %v", err)
	}
	if d.ID != "ap-01" || d.Name != "lobby-ap" {
		t.Errorf("device = %q/%q, want ap-01/lobby-ap", d.ID, d.Name)
	}
	if d.Status != StatusOnline {
		t.Errorf("status = %q, want online", d.Status)
	}
	if d.VLAN != nil {
		t.Errorf("vlan = %v, want nil for fresh device", *d.VLAN)
	}
	if d.AdoptedAt != nil {
		t.Error("adopted_at should be nil for telemetry-discovered device")
	}
	if reg.Count() != 1 {
		t.Errorf("Count() = %d, want 1", reg.Count())
	}
}

func TestUpsertFromTelemetryIsIdempotent(t *testing.T) {
	reg, _ := testRegistry(t)
	ctx := context.Background()
	now := time.Now().UTC()

	first, err := reg.UpsertFromTelemetry(ctx, "ap-01", telemetryAt(now))
	if err != nil {
		t.Fatalf("first upsert error = %v", err)
	}
	second, err := reg.UpsertFromTelemetry(ctx, "ap-01", telemetryAt(now))
	if err != nil {
		t.Fatalf("second upsert error = %v", err)
	}
	if reg.Count() != 1 {
		t.Errorf("Count() = %d, want 1 after duplicate report", reg.Count())
	}
	if *first != *second {
		t.Errorf("identical reports produced different devices: %+v vs %+v", first, second)
	}
}

func TestUpsertFromTelemetryPreservesControllerOwnedFields(t *testing.T) {
	reg, _ := testRegistry(t)
	ctx := context.Background()

	if _, err := reg.Adopt(ctx, "ap-01", "lobby"); err != nil {
		t.Fatalf("Adopt() error = %v", err)
	}
	vlan := 20
	if _, err := reg.AssignVLAN(ctx, "ap-01", &vlan); err != nil {
		t.Fatalf("AssignVLAN() error = %v", err)
	}

	d, err := reg.UpsertFromTelemetry(ctx, "ap-01", telemetryAt(time.Now().UTC()))
	if err != nil {
		t.Fatalf("UpsertFromTelemetry() error = %v", err)
	}
	if d.VLAN == nil || *d.VLAN != 20 {
		t.Errorf("vlan = %v, want 20 preserved across telemetry", d.VLAN)
	}
	if d.AdoptedAt == nil {
		t.Error("adopted_at lost after telemetry upsert")
	}
}

func TestUpsertFromTelemetryRejectsEmptyID(t *testing.T) {
	reg, _ := testRegistry(t)
	_, err := reg.UpsertFromTelemetry(context.Background(), "", telemetryAt(time.Now()))
	if !errors.Is(err, ErrInvalidID) {
		t.Errorf("error = %v, want ErrInvalidID", err)
	}
}

func TestAdoptDuplicateFails(t *testing.T) {
	reg, _ := testRegistry(t)
	ctx := context.Background()

	if _, err := reg.Adopt(ctx, "ap-01", "lobby"); err != nil {
		t.Fatalf("first Adopt() error = %v", err)
	}
	_, err := reg.Adopt(ctx, "ap-01", "other-name")
	if !errors.Is(err, ErrDeviceExists) {
		t.Errorf("duplicate adopt error = %v, want ErrDeviceExists", err)
	}
	if reg.Count() != 1 {
		t.Errorf("Count() = %d, want 1 after failed duplicate adopt", reg.Count())
	}
}

func TestAdoptDefaultsNameToID(t *testing.T) {
	reg, _ := testRegistry(t)

	d, err := reg.Adopt(context.Background(), "ap-02", "")
	if err != nil {
		t.Fatalf("Adopt() error = %v", err)
	}
	if d.Name != "ap-02" {
		t.Errorf("name = %q, want id fallback ap-02", d.Name)
	}
	if d.AdoptedAt == nil {
		t.Error("adopted_at not set on manual adoption")
	}
}

func TestAssignVLANUnknownDevice(t *testing.T) {
	reg, _ := testRegistry(t)
	vlan := 10
	_, err := reg.AssignVLAN(context.Background(), "ghost", &vlan)
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("error = %v, want ErrDeviceNotFound", err)
	}
}

func TestAssignVLANSetAndClear(t *testing.T) {
	reg, _ := testRegistry(t)
	ctx := context.Background()

	if _, err := reg.Adopt(ctx, "ap-01", "lobby"); err != nil {
		t.Fatalf("Adopt() error = %v", err)
	}

	vlan := 30
	d, err := reg.AssignVLAN(ctx, "ap-01", &vlan)
	if err != nil {
		t.Fatalf("AssignVLAN(set) error = %v", err)
	}
	if d.VLAN == nil || *d.VLAN != 30 {
		t.Errorf("vlan = %v, want 30", d.VLAN)
	}

	d, err = reg.AssignVLAN(ctx, "ap-01", nil)
	if err != nil {
		t.Fatalf("AssignVLAN(clear) error = %v", err)
	}
	if d.VLAN != nil {
		t.Errorf("vlan = %v, want cleared", *d.VLAN)
	}
}

func TestMarkOfflineIfStale(t *testing.T) {
	reg, _ := testRegistry(t)
	ctx := context.Background()
	now := time.Now().UTC()

	stale := telemetryAt(now.Add(-time.Minute))
	if _, err := reg.UpsertFromTelemetry(ctx, "ap-01", stale); err != nil {
		t.Fatalf("UpsertFromTelemetry() error = %v", err)
	}

	changed, err := reg.MarkOfflineIfStale(ctx, "ap-01", now.Add(-30*time.Second))
	if err != nil {
		t.Fatalf("MarkOfflineIfStale() error = %v", err)
	}
	if !changed {
		t.Fatal("expected stale device to transition offline")
	}

	d, _ := reg.Get("ap-01")
	if d.Status != StatusOffline {
		t.Errorf("status = %q, want offline", d.Status)
	}

	// Second call is a no-op: the device is already offline.
	changed, err = reg.MarkOfflineIfStale(ctx, "ap-01", now)
	if err != nil {
		t.Fatalf("second MarkOfflineIfStale() error = %v", err)
	}
	if changed {
		t.Error("offline device transitioned again")
	}
}

func TestMarkOfflineIfStaleSkipsFreshTelemetry(t *testing.T) {
	reg, _ := testRegistry(t)
	ctx := context.Background()
	now := time.Now().UTC()

	// Telemetry arrived after the sweep took its snapshot: the re-check
	// under the lock must skip the transition.
	if _, err := reg.UpsertFromTelemetry(ctx, "ap-01", telemetryAt(now)); err != nil {
		t.Fatalf("UpsertFromTelemetry() error = %v", err)
	}

	changed, err := reg.MarkOfflineIfStale(ctx, "ap-01", now.Add(-30*time.Second))
	if err != nil {
		t.Fatalf("MarkOfflineIfStale() error = %v", err)
	}
	if changed {
		t.Error("fresh device transitioned offline")
	}
	d, _ := reg.Get("ap-01")
	if d.Status != StatusOnline {
		t.Errorf("status = %q, want online", d.Status)
	}
}

func TestReplaceClientsUnknownAP(t *testing.T) {
	reg, _ := testRegistry(t)
	err := reg.ReplaceClients(context.Background(), "ghost", nil)
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("error = %v, want ErrDeviceNotFound", err)
	}
}

func TestReplaceClientsDefaultsName(t *testing.T) {
	reg, _ := testRegistry(t)
	ctx := context.Background()

	if _, err := reg.Adopt(ctx, "ap-01", "lobby"); err != nil {
		t.Fatalf("Adopt() error = %v", err)
	}
	reports := []ClientReport{
		{Name: "laptop", IP: "10.0.0.5"},
		{Name: "", IP: ""},
	}
	if err := reg.ReplaceClients(ctx, "ap-01", reports); err != nil {
		t.Fatalf("ReplaceClients() error = %v", err)
	}

	clients, err := reg.ListClientsByAP(ctx, "ap-01")
	if err != nil {
		t.Fatalf("ListClientsByAP() error = %v", err)
	}
	if len(clients) != 2 {
		t.Fatalf("len(clients) = %d, want 2", len(clients))
	}
	names := map[string]bool{}
	for _, c := range clients {
		names[c.Name] = true
		if c.APID != "ap-01" {
			t.Errorf("client ap_id = %q, want ap-01", c.APID)
		}
	}
	if !names["laptop"] || !names["client"] {
		t.Errorf("client names = %v, want laptop and client fallback", names)
	}
}

func TestListReturnsCopies(t *testing.T) {
	reg, _ := testRegistry(t)
	ctx := context.Background()

	vlan := 10
	if _, err := reg.Adopt(ctx, "ap-01", "lobby"); err != nil {
		t.Fatalf("Adopt() error = %v", err)
	}
	if _, err := reg.AssignVLAN(ctx, "ap-01", &vlan); err != nil {
		t.Fatalf("AssignVLAN() error = %v", err)
	}

	list := reg.List()
	*list[0].VLAN = 999
	list[0].Name = "mutated"

	d, _ := reg.Get("ap-01")
	if *d.VLAN != 10 || d.Name != "lobby" {
		t.Error("mutating a listed device reached the registry cache")
	}
}

func TestConcurrentUpsertsNoLostUpdates(t *testing.T) {
	reg, _ := testRegistry(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			up := telemetryAt(time.Now().UTC())
			up.Clients = n
			if _, err := reg.UpsertFromTelemetry(ctx, "ap-01", up); err != nil {
				t.Errorf("concurrent upsert error = %v", err)
			}
		}(i)
	}
	wg.Wait()

	if reg.Count() != 1 {
		t.Errorf("Count() = %d, want 1 after concurrent upserts of one id", reg.Count())
	}
}
