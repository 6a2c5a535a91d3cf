package api

import (
	"net/http"

	"github.com/nerrad567/airfleet-core/internal/device"
)

// handleListClients returns the fleet-wide wireless client list, most
// recently seen first.
func (s *Server) handleListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := s.registry.ListClients(r.Context())
	if err != nil {
		writeInternalError(w, "failed to list clients")
		return
	}
	if clients == nil {
		clients = []device.Client{}
	}
	writeJSON(w, http.StatusOK, clients)
}
