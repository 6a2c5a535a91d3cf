// Package device implements the access-point registry for AirFleet Core.
//
// The registry is the single source of truth for Device and Client records.
// It wraps a Repository (SQLite persistence) with an in-memory cache and a
// write lock that linearises all per-device mutations: concurrent telemetry
// upserts, adoptions, VLAN assignments and liveness sweeps touching the same
// device take effect in a total order, so no update is lost.
//
// The registry is a pure state component. It performs no event recording or
// broadcasting; callers (telemetry ingestion, the API server, the sweeper)
// surface state changes to the event hub themselves.
//
// The liveness sweeper lives here too: a periodic scan that transitions
// devices to offline once their last-seen timestamp passes a staleness
// threshold. The transition is guarded by a re-check under the registry
// lock, so a telemetry upsert racing the sweep can never be overwritten
// by a stale offline decision.
package device
