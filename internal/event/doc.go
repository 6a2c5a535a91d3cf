// Package event implements the controller activity log for AirFleet Core.
//
// Events are append-only, human-readable records of fleet activity: device
// discovery, adoption, offline transitions, VLAN pushes. Each event is
// persisted to SQLite and fanned out to connected UI clients over the
// websocket hub. Event recording is best-effort: a persistence failure is
// logged and never propagated to the operation that produced the event.
package event
