package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/airfleet-core/internal/device"
	"github.com/nerrad567/airfleet-core/internal/event"
	"github.com/nerrad567/airfleet-core/internal/infrastructure/mqtt"
)

// mqttConfigTopic returns the broker topic for a device's config pushes.
func mqttConfigTopic(deviceID string) string {
	return mqtt.Topics{}.Config(deviceID)
}

// handleListDevices returns all known access points.
func (s *Server) handleListDevices(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.List())
}

// deviceDetail is the single-device response, optionally annotated with
// where the last telemetry report came from.
type deviceDetail struct {
	device.Device
	Origin any `json:"origin,omitempty"`
}

// handleGetDevice returns one access point by id.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	d, err := s.registry.Get(id)
	if err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		writeInternalError(w, "failed to load device")
		return
	}

	detail := deviceDetail{Device: *d}
	if s.telemetry != nil {
		if origin, ok := s.telemetry.Origin(id); ok {
			detail.Origin = origin
		}
	}
	writeJSON(w, http.StatusOK, detail)
}

// adoptRequest is the body of POST /api/devices/adopt.
type adoptRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// handleAdoptDevice registers a device ahead of its first telemetry report.
func (s *Server) handleAdoptDevice(w http.ResponseWriter, r *http.Request) {
	var req adoptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.ID == "" {
		writeBadRequest(w, "id is required")
		return
	}

	d, err := s.registry.Adopt(r.Context(), req.ID, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, device.ErrDeviceExists):
			writeConflict(w, "device already exists")
		case errors.Is(err, device.ErrInvalidID):
			writeBadRequest(w, "invalid device id")
		default:
			writeInternalError(w, "failed to adopt device")
		}
		return
	}

	s.recordEvent(r, event.LevelInfo, fmt.Sprintf("Adopted AP %s", d.Name))
	s.broadcastDevices()

	writeJSON(w, http.StatusCreated, d)
}

// configRequest is the body of POST /api/devices/{id}/config.
// A null vlan clears the assignment.
type configRequest struct {
	VLAN *int `json:"vlan"`
}

// handlePushConfig assigns or clears a device's VLAN and pushes the new
// configuration out: a push:config broadcast for connected agents and,
// when the broker is up, a publish on the device's config topic.
func (s *Server) handlePushConfig(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req configRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	d, err := s.registry.AssignVLAN(r.Context(), id, req.VLAN)
	if err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		writeInternalError(w, "failed to assign vlan")
		return
	}

	if req.VLAN != nil {
		if err := s.vlans.RecordMembership(r.Context(), *req.VLAN, id); err != nil {
			s.logger.Warn("Failed to record vlan membership",
				"device_id", id, "vlan_id", *req.VLAN, "error", err)
		}
		s.recordEvent(r, event.LevelInfo,
			fmt.Sprintf("Pushed VLAN %d to AP %s", *req.VLAN, d.Name))
	} else {
		s.recordEvent(r, event.LevelInfo,
			fmt.Sprintf("Cleared VLAN on AP %s", d.Name))
	}

	s.pushConfig(d)
	s.broadcastDevices()
	s.broadcastVLANs(r)

	writeJSON(w, http.StatusOK, d)
}

// pushConfig delivers a config push to the device's agents: always a
// websocket broadcast, plus an MQTT publish when the broker is connected.
func (s *Server) pushConfig(d *device.Device) {
	payload := map[string]any{
		"id":   d.ID,
		"vlan": d.VLAN,
	}
	if s.hub != nil {
		s.hub.Broadcast("push:config", payload)
	}
	if s.mqtt != nil && s.mqtt.IsConnected() {
		data, err := json.Marshal(payload)
		if err != nil {
			return
		}
		if err := s.mqtt.Publish(mqttConfigTopic(d.ID), data, 1, true); err != nil {
			s.logger.Warn("Config publish to broker failed",
				"device_id", d.ID, "error", err)
		}
	}
}

// handleListDeviceClients returns the client snapshot of one access point.
func (s *Server) handleListDeviceClients(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if _, err := s.registry.Get(id); err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		writeInternalError(w, "failed to load device")
		return
	}

	clients, err := s.registry.ListClientsByAP(r.Context(), id)
	if err != nil {
		writeInternalError(w, "failed to load clients")
		return
	}
	if clients == nil {
		clients = []device.Client{}
	}
	writeJSON(w, http.StatusOK, clients)
}

// recordEvent appends to the activity log if a recorder is wired.
func (s *Server) recordEvent(r *http.Request, level, message string) {
	if s.events != nil {
		s.events.Record(r.Context(), level, message)
	}
}

// broadcastDevices pushes the current device list to UI clients.
func (s *Server) broadcastDevices() {
	if s.hub != nil {
		s.hub.Broadcast("devices:update", s.registry.List())
	}
}

// broadcastVLANs pushes the current VLAN list to UI clients.
func (s *Server) broadcastVLANs(r *http.Request) {
	if s.hub == nil {
		return
	}
	vlans, err := s.vlans.List(r.Context())
	if err != nil {
		s.logger.Warn("Failed to list vlans for broadcast", "error", err)
		return
	}
	s.hub.Broadcast("vlans:update", vlans)
}
