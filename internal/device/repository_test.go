package device

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("opening in-memory database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schema := `
	CREATE TABLE devices (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		status     TEXT NOT NULL DEFAULT 'online',
		vlan       INTEGER,
		clients    INTEGER NOT NULL DEFAULT 0,
		traffic    INTEGER NOT NULL DEFAULT 0,
		last_seen  TEXT NOT NULL,
		adopted_at TEXT
	);
	CREATE TABLE clients (
		id        TEXT PRIMARY KEY,
		name      TEXT NOT NULL DEFAULT 'client',
		ap_id     TEXT NOT NULL REFERENCES devices(id) ON DELETE CASCADE,
		ip        TEXT,
		last_seen TEXT NOT NULL
	);`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("creating schema: %v", err)
	}
	return db
}

func testDevice(id string) *Device {
	return &Device{
		ID:       id,
		Name:     "test-" + id,
		Status:   StatusOnline,
		Clients:  3,
		Traffic:  512,
		LastSeen: time.Now().UTC().Truncate(time.Second),
	}
}

func TestSQLiteRepositoryCreateAndGet(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	vlan := 42
	adopted := time.Now().UTC().Truncate(time.Second)
	d := testDevice("ap-01")
	d.VLAN = &vlan
	d.AdoptedAt = &adopted

	if err := repo.Create(ctx, d); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := repo.GetByID(ctx, "ap-01")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Name != d.Name || got.Status != d.Status {
		t.Errorf("got %q/%q, want %q/%q", got.Name, got.Status, d.Name, d.Status)
	}
	if got.VLAN == nil || *got.VLAN != 42 {
		t.Errorf("vlan = %v, want 42", got.VLAN)
	}
	if got.AdoptedAt == nil || !got.AdoptedAt.Equal(adopted) {
		t.Errorf("adopted_at = %v, want %v", got.AdoptedAt, adopted)
	}
	if !got.LastSeen.Equal(d.LastSeen) {
		t.Errorf("last_seen = %v, want %v", got.LastSeen, d.LastSeen)
	}
}

func TestSQLiteRepositoryGetMissing(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	_, err := repo.GetByID(context.Background(), "ghost")
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("error = %v, want ErrDeviceNotFound", err)
	}
}

func TestSQLiteRepositoryCreateDuplicate(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	if err := repo.Create(ctx, testDevice("ap-01")); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	err := repo.Create(ctx, testDevice("ap-01"))
	if !errors.Is(err, ErrDeviceExists) {
		t.Errorf("duplicate create error = %v, want ErrDeviceExists", err)
	}
}

func TestSQLiteRepositoryUpdate(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	d := testDevice("ap-01")
	if err := repo.Create(ctx, d); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	d.Name = "renamed"
	d.Clients = 9
	vlan := 7
	d.VLAN = &vlan
	if err := repo.Update(ctx, d); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := repo.GetByID(ctx, "ap-01")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Name != "renamed" || got.Clients != 9 || got.VLAN == nil || *got.VLAN != 7 {
		t.Errorf("update not persisted: %+v", got)
	}

	if err := repo.Update(ctx, testDevice("ghost")); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("update missing device error = %v, want ErrDeviceNotFound", err)
	}
}

func TestSQLiteRepositoryUpdateStatus(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	if err := repo.Create(ctx, testDevice("ap-01")); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := repo.UpdateStatus(ctx, "ap-01", StatusOffline); err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}

	got, _ := repo.GetByID(ctx, "ap-01")
	if got.Status != StatusOffline {
		t.Errorf("status = %q, want offline", got.Status)
	}

	if err := repo.UpdateStatus(ctx, "ghost", StatusOffline); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("missing device error = %v, want ErrDeviceNotFound", err)
	}
}

func TestSQLiteRepositoryListOrdering(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	for _, id := range []string{"ap-03", "ap-01", "ap-02"} {
		if err := repo.Create(ctx, testDevice(id)); err != nil {
			t.Fatalf("Create(%s) error = %v", id, err)
		}
	}

	devices, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(devices) != 3 {
		t.Fatalf("len = %d, want 3", len(devices))
	}
	for i, want := range []string{"ap-01", "ap-02", "ap-03"} {
		if devices[i].ID != want {
			t.Errorf("devices[%d].ID = %q, want %q", i, devices[i].ID, want)
		}
	}
}

func TestSQLiteRepositoryReplaceClients(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	for _, id := range []string{"ap-01", "ap-02"} {
		if err := repo.Create(ctx, testDevice(id)); err != nil {
			t.Fatalf("Create(%s) error = %v", id, err)
		}
	}

	first := []Client{
		{Name: "laptop", APID: "ap-01", IP: "10.0.0.5", LastSeen: now},
		{Name: "phone", APID: "ap-01", LastSeen: now},
	}
	if err := repo.ReplaceClients(ctx, "ap-01", first); err != nil {
		t.Fatalf("ReplaceClients() error = %v", err)
	}
	other := []Client{{Name: "printer", APID: "ap-02", LastSeen: now}}
	if err := repo.ReplaceClients(ctx, "ap-02", other); err != nil {
		t.Fatalf("ReplaceClients(ap-02) error = %v", err)
	}

	// A fresh report for ap-01 fully replaces its snapshot and leaves
	// ap-02's rows intact.
	second := []Client{{Name: "tablet", APID: "ap-01", LastSeen: now}}
	if err := repo.ReplaceClients(ctx, "ap-01", second); err != nil {
		t.Fatalf("second ReplaceClients() error = %v", err)
	}

	ap1, err := repo.ListClientsByAP(ctx, "ap-01")
	if err != nil {
		t.Fatalf("ListClientsByAP(ap-01) error = %v", err)
	}
	if len(ap1) != 1 || ap1[0].Name != "tablet" {
		t.Errorf("ap-01 snapshot = %+v, want single tablet row", ap1)
	}
	if ap1[0].ID == "" {
		t.Error("client row id was not generated")
	}

	ap2, err := repo.ListClientsByAP(ctx, "ap-02")
	if err != nil {
		t.Fatalf("ListClientsByAP(ap-02) error = %v", err)
	}
	if len(ap2) != 1 || ap2[0].Name != "printer" {
		t.Errorf("ap-02 snapshot disturbed: %+v", ap2)
	}

	all, err := repo.ListClients(ctx)
	if err != nil {
		t.Fatalf("ListClients() error = %v", err)
	}
	if len(all) != 2 {
		t.Errorf("fleet client count = %d, want 2", len(all))
	}
}

func TestSQLiteRepositoryReplaceClientsEmptyList(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()
	now := time.Now().UTC()

	if err := repo.Create(ctx, testDevice("ap-01")); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := repo.ReplaceClients(ctx, "ap-01",
		[]Client{{Name: "laptop", APID: "ap-01", LastSeen: now}}); err != nil {
		t.Fatalf("ReplaceClients() error = %v", err)
	}
	if err := repo.ReplaceClients(ctx, "ap-01", nil); err != nil {
		t.Fatalf("ReplaceClients(empty) error = %v", err)
	}

	clients, err := repo.ListClientsByAP(ctx, "ap-01")
	if err != nil {
		t.Fatalf("ListClientsByAP() error = %v", err)
	}
	if len(clients) != 0 {
		t.Errorf("snapshot = %+v, want empty after empty report", clients)
	}
}
