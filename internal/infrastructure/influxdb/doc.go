// Package influxdb provides the optional telemetry history sink for
// AirFleet Core.
//
// The live registry only holds the latest counters per access point; when
// InfluxDB is enabled, every ingested telemetry report also lands as a
// time-series point, giving dashboards per-AP client count and traffic
// history. Writes are non-blocking and batched, and a write failure never
// affects telemetry ingestion.
package influxdb
