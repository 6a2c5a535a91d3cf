// Package telemetry ingests access-point status reports for AirFleet Core.
//
// The primary ingress is a UDP listener: AP agents fire single-datagram
// JSON reports at the controller and never wait for a reply. A report that
// fails to decode or lacks a device id is dropped with a warning naming the
// sender; ingestion never replies to or penalises a misbehaving agent.
//
// An optional MQTT ingress accepts the same JSON payloads published to the
// broker, for agents behind NAT that cannot reach the controller directly.
// Both ingresses funnel into the same Service, so a device may switch
// transports freely between reports.
//
// The service tracks sender provenance (which address or topic last spoke
// for each device) in a bounded in-memory map, and optionally mirrors the
// per-report client and traffic counters to InfluxDB for history.
package telemetry
