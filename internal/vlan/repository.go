package vlan

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Repository defines persistence operations for VLANs and AP membership.
type Repository interface {
	// CreateOrReplace upserts a VLAN definition and replaces its
	// membership with the given AP list, in one transaction.
	CreateOrReplace(ctx context.Context, v *VLAN) error

	// Get retrieves a VLAN with its membership.
	// Returns ErrVLANNotFound if the id does not exist.
	Get(ctx context.Context, id int) (*VLAN, error)

	// List retrieves all VLANs with membership, ordered by id.
	List(ctx context.Context) ([]VLAN, error)

	// AddMember records that an AP has received configuration for a VLAN.
	// Adding an existing member is a no-op.
	AddMember(ctx context.Context, vlanID int, apID string) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed VLAN repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// CreateOrReplace upserts a VLAN definition and replaces its membership.
func (r *SQLiteRepository) CreateOrReplace(ctx context.Context, v *VLAN) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting vlan transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO vlans (id, ssid) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET ssid = excluded.ssid`,
		v.ID, v.SSID,
	); err != nil {
		return fmt.Errorf("upserting vlan: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM vlan_members WHERE vlan_id = ?", v.ID); err != nil {
		return fmt.Errorf("clearing vlan membership: %w", err)
	}
	for _, apID := range v.Members {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO vlan_members (vlan_id, ap_id) VALUES (?, ?)",
			v.ID, apID,
		); err != nil {
			return fmt.Errorf("inserting vlan member: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing vlan: %w", err)
	}
	return nil
}

// Get retrieves a VLAN with its membership.
func (r *SQLiteRepository) Get(ctx context.Context, id int) (*VLAN, error) {
	var v VLAN
	err := r.db.QueryRowContext(ctx,
		"SELECT id, ssid FROM vlans WHERE id = ?", id).Scan(&v.ID, &v.SSID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrVLANNotFound
		}
		return nil, fmt.Errorf("querying vlan: %w", err)
	}

	v.Members, err = r.members(ctx, id)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// List retrieves all VLANs with membership, ordered by id.
func (r *SQLiteRepository) List(ctx context.Context) ([]VLAN, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, ssid FROM vlans ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("querying vlans: %w", err)
	}
	defer rows.Close()

	var vlans []VLAN
	for rows.Next() {
		var v VLAN
		if err := rows.Scan(&v.ID, &v.SSID); err != nil {
			return nil, fmt.Errorf("scanning vlan: %w", err)
		}
		vlans = append(vlans, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating vlans: %w", err)
	}

	for i := range vlans {
		vlans[i].Members, err = r.members(ctx, vlans[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return vlans, nil
}

// AddMember records that an AP has received configuration for a VLAN.
func (r *SQLiteRepository) AddMember(ctx context.Context, vlanID int, apID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO vlan_members (vlan_id, ap_id) VALUES (?, ?)
		 ON CONFLICT(vlan_id, ap_id) DO NOTHING`,
		vlanID, apID,
	)
	if err != nil {
		return fmt.Errorf("adding vlan member: %w", err)
	}
	return nil
}

// members returns the AP ids configured for a VLAN, never nil.
func (r *SQLiteRepository) members(ctx context.Context, vlanID int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT ap_id FROM vlan_members WHERE vlan_id = ? ORDER BY ap_id", vlanID)
	if err != nil {
		return nil, fmt.Errorf("querying vlan members: %w", err)
	}
	defer rows.Close()

	members := []string{}
	for rows.Next() {
		var apID string
		if err := rows.Scan(&apID); err != nil {
			return nil, fmt.Errorf("scanning vlan member: %w", err)
		}
		members = append(members, apID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating vlan members: %w", err)
	}
	return members, nil
}
