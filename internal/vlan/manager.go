package vlan

import (
	"context"
	"errors"
	"fmt"

	"github.com/nerrad567/airfleet-core/internal/infrastructure/logging"
)

// 802.1Q usable VLAN id range.
const (
	minVLANID = 1
	maxVLANID = 4094
)

// Manager validates and executes VLAN operations on top of the repository.
type Manager struct {
	repo   Repository
	logger *logging.Logger
}

// NewManager creates a VLAN manager.
func NewManager(repo Repository, logger *logging.Logger) *Manager {
	return &Manager{
		repo:   repo,
		logger: logger.With("component", "vlan-manager"),
	}
}

// CreateOrReplace validates and stores a VLAN definition. An existing id
// has its SSID and membership replaced.
func (m *Manager) CreateOrReplace(ctx context.Context, v *VLAN) (*VLAN, error) {
	if err := Validate(v); err != nil {
		return nil, err
	}
	if v.Members == nil {
		v.Members = []string{}
	}
	if err := m.repo.CreateOrReplace(ctx, v); err != nil {
		return nil, err
	}
	m.logger.Info("VLAN stored", "vlan_id", v.ID, "ssid", v.SSID, "members", len(v.Members))
	return v.Copy(), nil
}

// Get retrieves a VLAN with its membership.
func (m *Manager) Get(ctx context.Context, id int) (*VLAN, error) {
	return m.repo.Get(ctx, id)
}

// List retrieves all VLANs with membership.
// Returns an empty slice, not nil, when no VLANs exist.
func (m *Manager) List(ctx context.Context) ([]VLAN, error) {
	vlans, err := m.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if vlans == nil {
		vlans = []VLAN{}
	}
	return vlans, nil
}

// RecordMembership marks an AP as configured for a VLAN after a config
// push. Unknown VLAN ids are accepted and created implicitly with an
// empty SSID, matching the push-first workflow where an operator assigns
// a VLAN id before defining it.
func (m *Manager) RecordMembership(ctx context.Context, vlanID int, apID string) error {
	if vlanID < minVLANID || vlanID > maxVLANID {
		return fmt.Errorf("%w: id %d out of range", ErrInvalidVLAN, vlanID)
	}
	if _, err := m.repo.Get(ctx, vlanID); err != nil {
		if !errors.Is(err, ErrVLANNotFound) {
			return err
		}
		if err := m.repo.CreateOrReplace(ctx, &VLAN{ID: vlanID, Members: []string{}}); err != nil {
			return err
		}
	}
	return m.repo.AddMember(ctx, vlanID, apID)
}

// Validate checks a VLAN definition for a usable id and a non-empty SSID.
func Validate(v *VLAN) error {
	if v == nil {
		return fmt.Errorf("%w: nil vlan", ErrInvalidVLAN)
	}
	if v.ID < minVLANID || v.ID > maxVLANID {
		return fmt.Errorf("%w: id %d out of range %d-%d", ErrInvalidVLAN, v.ID, minVLANID, maxVLANID)
	}
	if v.SSID == "" {
		return fmt.Errorf("%w: ssid is required", ErrInvalidVLAN)
	}
	return nil
}
