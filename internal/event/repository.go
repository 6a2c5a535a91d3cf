package event

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// maxListLimit caps how many events a single query returns.
const maxListLimit = 200

// Repository defines persistence operations for the activity log.
type Repository interface {
	// Create appends an event. ID and CreatedAt are generated if empty.
	Create(ctx context.Context, ev *Event) error

	// List returns the most recent events, newest first. The limit is
	// clamped to 200; zero or negative requests the maximum.
	List(ctx context.Context, limit int) ([]Event, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed event repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create appends an event. The ID and CreatedAt are generated if empty.
func (r *SQLiteRepository) Create(ctx context.Context, ev *Event) error {
	if ev.ID == "" {
		ev.ID = "evt-" + uuid.NewString()[:8]
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	ev.Level = normaliseLevel(ev.Level)

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO events (id, ts, level, message) VALUES (?, ?, ?, ?)",
		ev.ID, ev.CreatedAt.Format(time.RFC3339Nano), ev.Level, ev.Message,
	)
	if err != nil {
		return fmt.Errorf("inserting event: %w", err)
	}
	return nil
}

// List returns the most recent events, newest first.
func (r *SQLiteRepository) List(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT id, ts, level, message FROM events ORDER BY ts DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		var ev Event
		var ts string
		if err := rows.Scan(&ev.ID, &ts, &ev.Level, &ev.Message); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		ev.CreatedAt, err = time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("parsing event timestamp %q: %w", ts, err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating events: %w", err)
	}
	return events, nil
}
