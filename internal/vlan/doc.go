// Package vlan manages VLAN definitions and AP membership for AirFleet Core.
//
// A VLAN is a numeric id plus an SSID label. Membership records which APs
// have been pushed configuration for a VLAN. Creating a VLAN with an
// existing id replaces its definition and membership wholesale; the
// distributed-enforcement question (whether the APs actually apply the
// config) is out of scope for the controller, which records intent only.
//
// Membership and per-device VLAN assignment are tracked independently:
// assigning a VLAN to a device records membership here, but a later
// assignment to a different VLAN does not retract the old row. The
// membership list answers "which APs were ever configured for this VLAN",
// the device record answers "what is this AP's current assignment".
package vlan
