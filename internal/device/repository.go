package device

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for device and client persistence.
// This abstraction allows for different implementations (SQLite, mock, etc.)
// and enables unit testing without database dependencies.
type Repository interface {
	// GetByID retrieves a device by its unique identifier.
	// Returns ErrDeviceNotFound if the device does not exist.
	GetByID(ctx context.Context, id string) (*Device, error)

	// List retrieves all devices.
	List(ctx context.Context) ([]Device, error)

	// Create inserts a new device.
	// Returns ErrDeviceExists if a device with the same ID already exists.
	Create(ctx context.Context, device *Device) error

	// Update overwrites an existing device row.
	// Returns ErrDeviceNotFound if the device does not exist.
	Update(ctx context.Context, device *Device) error

	// UpdateStatus updates only the status column of a device.
	// This is optimised for the liveness sweep.
	UpdateStatus(ctx context.Context, id string, status Status) error

	// ReplaceClients transactionally replaces the client snapshot for an AP:
	// all existing rows for apID are deleted and the given rows inserted in
	// a single transaction. Rows for other APs are untouched.
	ReplaceClients(ctx context.Context, apID string, clients []Client) error

	// ListClients retrieves all client records, most recently seen first.
	ListClients(ctx context.Context) ([]Client, error)

	// ListClientsByAP retrieves the client snapshot for one AP.
	ListClientsByAP(ctx context.Context, apID string) ([]Client, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
// The db parameter should be an open SQLite connection.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const deviceColumns = "id, name, status, vlan, clients, traffic, last_seen, adopted_at"

// GetByID retrieves a device by its unique identifier.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Device, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+deviceColumns+" FROM devices WHERE id = ?", id)

	device, err := scanDevice(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeviceNotFound
		}
		return nil, fmt.Errorf("querying device by id: %w", err)
	}
	return device, nil
}

// List retrieves all devices ordered by id.
func (r *SQLiteRepository) List(ctx context.Context) ([]Device, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+deviceColumns+" FROM devices ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("querying devices: %w", err)
	}
	defer rows.Close()

	var devices []Device
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning device: %w", err)
		}
		devices = append(devices, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating devices: %w", err)
	}
	return devices, nil
}

// Create inserts a new device.
func (r *SQLiteRepository) Create(ctx context.Context, device *Device) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO devices (id, name, status, vlan, clients, traffic, last_seen, adopted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		device.ID, device.Name, string(device.Status),
		nullableInt(device.VLAN),
		device.Clients, device.Traffic,
		device.LastSeen.UTC().Format(time.RFC3339Nano),
		nullableTime(device.AdoptedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDeviceExists
		}
		return fmt.Errorf("inserting device: %w", err)
	}
	return nil
}

// Update overwrites an existing device row.
func (r *SQLiteRepository) Update(ctx context.Context, device *Device) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE devices
		 SET name = ?, status = ?, vlan = ?, clients = ?, traffic = ?, last_seen = ?, adopted_at = ?
		 WHERE id = ?`,
		device.Name, string(device.Status),
		nullableInt(device.VLAN),
		device.Clients, device.Traffic,
		device.LastSeen.UTC().Format(time.RFC3339Nano),
		nullableTime(device.AdoptedAt),
		device.ID,
	)
	if err != nil {
		return fmt.Errorf("updating device: %w", err)
	}
	return requireRow(result)
}

// UpdateStatus updates only the status column of a device.
func (r *SQLiteRepository) UpdateStatus(ctx context.Context, id string, status Status) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE devices SET status = ? WHERE id = ?", string(status), id)
	if err != nil {
		return fmt.Errorf("updating device status: %w", err)
	}
	return requireRow(result)
}

// ReplaceClients transactionally replaces the client snapshot for an AP.
func (r *SQLiteRepository) ReplaceClients(ctx context.Context, apID string, clients []Client) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting client replace transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	if _, err := tx.ExecContext(ctx, "DELETE FROM clients WHERE ap_id = ?", apID); err != nil {
		return fmt.Errorf("deleting stale clients: %w", err)
	}

	for i := range clients {
		c := &clients[i]
		if c.ID == "" {
			c.ID = "cli-" + uuid.NewString()[:8]
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO clients (id, name, ap_id, ip, last_seen) VALUES (?, ?, ?, ?, ?)`,
			c.ID, c.Name, apID,
			nullableString(c.IP),
			c.LastSeen.UTC().Format(time.RFC3339Nano),
		); err != nil {
			return fmt.Errorf("inserting client: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing client replace: %w", err)
	}
	return nil
}

// ListClients retrieves all client records, most recently seen first.
func (r *SQLiteRepository) ListClients(ctx context.Context) ([]Client, error) {
	return r.queryClients(ctx,
		"SELECT id, name, ap_id, ip, last_seen FROM clients ORDER BY last_seen DESC")
}

// ListClientsByAP retrieves the client snapshot for one AP.
func (r *SQLiteRepository) ListClientsByAP(ctx context.Context, apID string) ([]Client, error) {
	return r.queryClients(ctx,
		"SELECT id, name, ap_id, ip, last_seen FROM clients WHERE ap_id = ? ORDER BY last_seen DESC",
		apID)
}

// queryClients executes a client query and scans the results.
func (r *SQLiteRepository) queryClients(ctx context.Context, query string, args ...any) ([]Client, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying clients: %w", err)
	}
	defer rows.Close()

	var clients []Client
	for rows.Next() {
		var c Client
		var ip sql.NullString
		var lastSeen string
		if err := rows.Scan(&c.ID, &c.Name, &c.APID, &ip, &lastSeen); err != nil {
			return nil, fmt.Errorf("scanning client: %w", err)
		}
		if ip.Valid {
			c.IP = ip.String
		}
		c.LastSeen, err = parseTimestamp(lastSeen)
		if err != nil {
			return nil, fmt.Errorf("parsing client timestamp: %w", err)
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating clients: %w", err)
	}
	return clients, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanDevice scans a device row into a Device struct.
func scanDevice(row rowScanner) (*Device, error) {
	var d Device
	var status string
	var vlan sql.NullInt64
	var lastSeen string
	var adoptedAt sql.NullString

	if err := row.Scan(&d.ID, &d.Name, &status, &vlan, &d.Clients, &d.Traffic, &lastSeen, &adoptedAt); err != nil {
		return nil, err
	}

	d.Status = Status(status)
	if vlan.Valid {
		v := int(vlan.Int64)
		d.VLAN = &v
	}

	var err error
	d.LastSeen, err = parseTimestamp(lastSeen)
	if err != nil {
		return nil, fmt.Errorf("parsing last_seen: %w", err)
	}
	if adoptedAt.Valid {
		t, err := parseTimestamp(adoptedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parsing adopted_at: %w", err)
		}
		d.AdoptedAt = &t
	}

	return &d, nil
}

// parseTimestamp parses an RFC3339 timestamp, with or without fractional
// seconds.
func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Parse(time.RFC3339, s)
	}
	return t, nil
}

// requireRow converts a zero-rows-affected result into ErrDeviceNotFound.
func requireRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrDeviceNotFound
	}
	return nil
}

// nullableString returns nil for empty strings, for nullable TEXT columns.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// nullableInt returns nil for nil pointers, for nullable INTEGER columns.
func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

// nullableTime returns nil for nil pointers, for nullable timestamp columns.
func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// isUniqueViolation reports whether err is a SQLite unique constraint error.
func isUniqueViolation(err error) bool {
	return err != nil &&
		(strings.Contains(err.Error(), "UNIQUE constraint failed") ||
			strings.Contains(err.Error(), "PRIMARY KEY constraint failed"))
}
