package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Imaddindepf/tradeul-sub005/market"
	"github.com/Imaddindepf/tradeul-sub005/triggers"
)

// handleListTriggers returns every trigger persisted for a user.
func (s *Server) handleListTriggers(w http.ResponseWriter, r *http.Request) {
	if s.triggers == nil {
		respondWithError(w, http.StatusServiceUnavailable, "trigger engine not available", nil)
		return
	}

	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		respondWithError(w, http.StatusBadRequest, "user_id is required", nil)
		return
	}

	list, err := s.triggers.List(r.Context(), userID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to list triggers", err)
		return
	}
	if list == nil {
		list = []*triggers.Trigger{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(list)
}

// handleCreateTrigger registers a new trigger. The engine assigns an id
// when the body carries none.
func (s *Server) handleCreateTrigger(w http.ResponseWriter, r *http.Request) {
	if s.triggers == nil {
		respondWithError(w, http.StatusServiceUnavailable, "trigger engine not available", nil)
		return
	}

	var t triggers.Trigger
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if err := t.Validate(); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	if err := s.triggers.Register(r.Context(), &t); err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to save trigger", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(t)
}

// handleUpdateTrigger replaces the trigger named in the path.
func (s *Server) handleUpdateTrigger(w http.ResponseWriter, r *http.Request) {
	if s.triggers == nil {
		respondWithError(w, http.StatusServiceUnavailable, "trigger engine not available", nil)
		return
	}

	var t triggers.Trigger
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	t.ID = r.PathValue("id") // Ensure ID matches path
	if err := t.Validate(); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	if err := s.triggers.Register(r.Context(), &t); err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to save trigger", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(t)
}

// handleDeleteTrigger removes one trigger from a user's registry.
func (s *Server) handleDeleteTrigger(w http.ResponseWriter, r *http.Request) {
	if s.triggers == nil {
		respondWithError(w, http.StatusServiceUnavailable, "trigger engine not available", nil)
		return
	}

	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		respondWithError(w, http.StatusBadRequest, "user_id is required", nil)
		return
	}

	found, err := s.triggers.Unregister(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to delete trigger", err)
		return
	}
	if !found {
		respondWithError(w, http.StatusNotFound, "trigger not found", nil)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleGetAlerts returns the newest entries from a user's alert stream.
func (s *Server) handleGetAlerts(w http.ResponseWriter, r *http.Request) {
	if s.redis == nil {
		respondWithError(w, http.StatusServiceUnavailable, "alert storage not available", nil)
		return
	}

	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		respondWithError(w, http.StatusBadRequest, "user_id is required", nil)
		return
	}

	limitMin, limitMax := 1, 1000
	limit := getIntParam(r, "limit", 50, &limitMin, &limitMax)

	msgs, err := s.redis.RevRangeN(r.Context(), market.AlertStream(userID), int64(limit))
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to read alerts", err)
		return
	}

	alerts := make([]map[string]interface{}, 0, len(msgs))
	for _, msg := range msgs {
		entry := make(map[string]interface{}, len(msg.Values)+1)
		entry["id"] = msg.ID
		for k, v := range msg.Values {
			entry[k] = v
		}
		alerts = append(alerts, entry)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(alerts)
}
