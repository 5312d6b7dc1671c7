package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// handleHealth reports liveness plus the state of each wired backend.
// Unwired backends are omitted; a failing one degrades the status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := "ok"
	checks := map[string]string{}

	if s.db != nil {
		if err := s.db.Ping(); err != nil {
			checks["database"] = "down"
			status = "degraded"
		} else {
			checks["database"] = "up"
		}
	}

	if s.redis != nil {
		if err := s.redis.Ping(ctx); err != nil {
			checks["redis"] = "down"
			status = "degraded"
		} else {
			checks["redis"] = "up"
		}
	}

	resp := map[string]interface{}{
		"status": status,
		"checks": checks,
	}
	if s.triggers != nil {
		resp["active_triggers"] = s.triggers.ActiveCount()
	}
	if s.states != nil {
		resp["tracked_symbols"] = s.states.Len()
	}
	if s.broker != nil {
		resp["sse_clients"] = s.broker.ClientCount()
	}
	if s.hub != nil {
		resp["ws_clients"] = s.hub.ClientCount()
	}

	w.Header().Set("Content-Type", "application/json")
	if status != "ok" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(resp)
}
