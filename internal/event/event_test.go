package event

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/nerrad567/airfleet-core/internal/infrastructure/logging"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("opening in-memory database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schema := `
	CREATE TABLE events (
		id      TEXT PRIMARY KEY,
		ts      TEXT NOT NULL,
		level   TEXT NOT NULL DEFAULT 'info',
		message TEXT NOT NULL
	);`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("creating schema: %v", err)
	}
	return db
}

func TestCreateGeneratesIdentity(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))

	ev := &Event{Level: "info", Message: "Controller started"}
	if err := repo.Create(context.Background(), ev); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if !strings.HasPrefix(ev.ID, "evt-") {
		t.Errorf("id = %q, want evt- prefix", ev.ID)
	}
	if ev.CreatedAt.IsZero() {
		t.Error("created_at not set")
	}
}

func TestCreateNormalisesLevel(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))

	ev := &Event{Level: "critical", Message: "odd level"}
	if err := repo.Create(context.Background(), ev); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if ev.Level != LevelInfo {
		t.Errorf("level = %q, want info fallback", ev.Level)
	}
}

func TestListNewestFirstAndClamped(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour)

	for i := 0; i < 250; i++ {
		ev := &Event{
			Level:     LevelInfo,
			Message:   fmt.Sprintf("event %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		if err := repo.Create(ctx, ev); err != nil {
			t.Fatalf("Create(%d) error = %v", i, err)
		}
	}

	events, err := repo.List(ctx, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(events) != 200 {
		t.Fatalf("len = %d, want clamp at 200", len(events))
	}
	if events[0].Message != "event 249" {
		t.Errorf("first = %q, want newest event 249", events[0].Message)
	}
	for i := 1; i < len(events); i++ {
		if events[i].CreatedAt.After(events[i-1].CreatedAt) {
			t.Fatalf("events not newest-first at index %d", i)
		}
	}

	limited, err := repo.List(ctx, 5)
	if err != nil {
		t.Fatalf("List(5) error = %v", err)
	}
	if len(limited) != 5 {
		t.Errorf("len = %d, want 5", len(limited))
	}

	over, err := repo.List(ctx, 10000)
	if err != nil {
		t.Fatalf("List(10000) error = %v", err)
	}
	if len(over) != 200 {
		t.Errorf("len = %d, want clamp at 200", len(over))
	}
}

func TestListEmptyLog(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	events, err := repo.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if events == nil || len(events) != 0 {
		t.Errorf("events = %v, want empty non-nil slice", events)
	}
}

type captureNotifier struct {
	mu       sync.Mutex
	channels []string
	payloads []any
}

func (n *captureNotifier) Broadcast(channel string, payload any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.channels = append(n.channels, channel)
	n.payloads = append(n.payloads, payload)
}

type failingRepo struct{}

func (failingRepo) Create(context.Context, *Event) error { return errors.New("disk full") }
func (failingRepo) List(context.Context, int) ([]Event, error) {
	return nil, errors.New("disk full")
}

func TestRecorderBroadcastsEvent(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	notifier := &captureNotifier{}
	rec := NewRecorder(repo, notifier, logging.Default())

	rec.Record(context.Background(), LevelWarn, "AP lobby went offline")

	if len(notifier.channels) != 1 || notifier.channels[0] != "event" {
		t.Fatalf("broadcasts = %v, want single event channel", notifier.channels)
	}
	ev, ok := notifier.payloads[0].(*Event)
	if !ok {
		t.Fatalf("payload type = %T, want *Event", notifier.payloads[0])
	}
	if ev.Level != LevelWarn || ev.Message != "AP lobby went offline" {
		t.Errorf("broadcast event = %+v", ev)
	}

	events, err := rec.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(events) != 1 {
		t.Errorf("persisted events = %d, want 1", len(events))
	}
}

func TestRecorderSwallowsPersistenceFailure(t *testing.T) {
	notifier := &captureNotifier{}
	rec := NewRecorder(failingRepo{}, notifier, logging.Default())

	// Must not panic or broadcast a phantom event.
	rec.Record(context.Background(), LevelInfo, "ignored")

	if len(notifier.channels) != 0 {
		t.Errorf("broadcasts = %v, want none after failed persist", notifier.channels)
	}
}
