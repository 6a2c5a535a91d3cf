package vlan

import "errors"

var (
	// ErrVLANNotFound is returned when a VLAN id does not exist.
	ErrVLANNotFound = errors.New("vlan: not found")

	// ErrInvalidVLAN is returned when a VLAN definition is missing its id
	// or SSID, or the id is out of the 802.1Q range.
	ErrInvalidVLAN = errors.New("vlan: invalid definition")
)
