package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/nerrad567/airfleet-core/internal/event"
	"github.com/nerrad567/airfleet-core/internal/vlan"
)

// vlanRequest is the body of POST /api/vlan.
type vlanRequest struct {
	ID   int      `json:"id"`
	SSID string   `json:"ssid"`
	APs  []string `json:"aps"`
}

// handleCreateVLAN creates or replaces a VLAN definition.
// An existing id has its SSID and membership replaced wholesale.
func (s *Server) handleCreateVLAN(w http.ResponseWriter, r *http.Request) {
	var req vlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	v, err := s.vlans.CreateOrReplace(r.Context(), &vlan.VLAN{
		ID:      req.ID,
		SSID:    req.SSID,
		Members: req.APs,
	})
	if err != nil {
		if errors.Is(err, vlan.ErrInvalidVLAN) {
			writeBadRequest(w, err.Error())
			return
		}
		writeInternalError(w, "failed to store vlan")
		return
	}

	s.recordEvent(r, event.LevelInfo,
		fmt.Sprintf("VLAN %d (%s) configured", v.ID, v.SSID))
	s.broadcastVLANs(r)

	writeJSON(w, http.StatusCreated, v)
}

// handleListVLANs returns all VLANs with their AP membership.
func (s *Server) handleListVLANs(w http.ResponseWriter, r *http.Request) {
	vlans, err := s.vlans.List(r.Context())
	if err != nil {
		writeInternalError(w, "failed to list vlans")
		return
	}
	writeJSON(w, http.StatusOK, vlans)
}
