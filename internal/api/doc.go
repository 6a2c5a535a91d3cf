// Package api provides the HTTP REST API and WebSocket server for
// AirFleet Core.
//
// The REST surface exposes the device registry, VLAN management, the
// fleet-wide client list and the activity log to dashboards and tooling.
// The WebSocket endpoint pushes live fleet updates: device list changes,
// VLAN changes, raw telemetry, activity events and configuration pushes.
//
// The server follows the same lifecycle pattern as the other
// infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
package api
