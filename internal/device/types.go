package device

import "time"

// Status is the liveness state of an access point.
type Status string

// Status constants.
const (
	StatusOnline  Status = "online"
	StatusOffline Status = "offline"
)

// ParseStatus normalises a reported status string.
// Anything other than an explicit "offline" counts as online; receiving
// telemetry at all implies the device is alive.
func ParseStatus(s string) Status {
	if s == string(StatusOffline) {
		return StatusOffline
	}
	return StatusOnline
}

// Device represents a managed access point.
type Device struct {
	// ID is the stable device identifier reported by the AP agent.
	ID   string `json:"id"`
	Name string `json:"name"`

	Status Status `json:"status"`

	// VLAN is the assigned VLAN id, nil when unassigned.
	VLAN *int `json:"vlan,omitempty"`

	// Clients is the last-reported associated client count.
	Clients int `json:"clients"`

	// Traffic is the last-reported traffic counter. It is opaque: monotonic
	// per device but reset by reboots, so it is stored, never accumulated.
	Traffic int `json:"traffic"`

	// LastSeen is the time of the last successful telemetry ingestion,
	// adoption, or configuration command for this device.
	LastSeen time.Time `json:"last_seen"`

	// AdoptedAt is set when the device was manually adopted, nil for
	// devices first seen via telemetry.
	AdoptedAt *time.Time `json:"adopted_at,omitempty"`
}

// Copy returns an independent copy of the Device.
// Pointer fields are cloned so modifications to the copy do not reach
// the registry cache.
func (d *Device) Copy() *Device {
	if d == nil {
		return nil
	}
	cpy := *d
	if d.VLAN != nil {
		v := *d.VLAN
		cpy.VLAN = &v
	}
	if d.AdoptedAt != nil {
		t := *d.AdoptedAt
		cpy.AdoptedAt = &t
	}
	return &cpy
}

// Client is an ephemeral association record: a wireless client last seen
// on a particular AP. The set of clients for an AP is a snapshot, fully
// replaced whenever the AP reports a fresh list.
type Client struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	APID     string    `json:"ap_id"`
	IP       string    `json:"ip,omitempty"`
	LastSeen time.Time `json:"last_seen"`
}

// TelemetryUpdate carries the normalised fields of one telemetry report.
// Defaults have already been applied by the ingestion layer: Name falls
// back to the device id, Status to online, counters to zero.
type TelemetryUpdate struct {
	Name       string
	Status     Status
	Clients    int
	Traffic    int
	ObservedAt time.Time
}

// ClientReport is one entry of a reported client list, before the
// registry assigns row identity and timestamps.
type ClientReport struct {
	Name string
	IP   string
}
