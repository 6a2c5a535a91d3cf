package api

import (
	"net/http"
	"strconv"
)

// handleListLogs returns the most recent activity log entries, newest
// first. The limit query parameter is clamped to 200.
func (s *Server) handleListLogs(w http.ResponseWriter, r *http.Request) {
	if s.events == nil {
		writeJSON(w, http.StatusOK, []any{})
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeBadRequest(w, "limit must be an integer")
			return
		}
		limit = parsed
	}

	events, err := s.events.List(r.Context(), limit)
	if err != nil {
		writeInternalError(w, "failed to list events")
		return
	}
	writeJSON(w, http.StatusOK, events)
}
