package vlan

// VLAN is a named layer-2 segment pushed to member access points.
type VLAN struct {
	// ID is the 802.1Q VLAN id.
	ID int `json:"id"`

	// SSID is the network name broadcast for this VLAN.
	SSID string `json:"ssid"`

	// Members lists the AP ids that have received configuration for
	// this VLAN. Never nil in API responses.
	Members []string `json:"aps"`
}

// Copy returns an independent copy of the VLAN.
func (v *VLAN) Copy() *VLAN {
	if v == nil {
		return nil
	}
	cpy := *v
	cpy.Members = append([]string(nil), v.Members...)
	return &cpy
}
