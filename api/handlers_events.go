package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/Imaddindepf/tradeul-sub005/database"
	"github.com/Imaddindepf/tradeul-sub005/market"
	"github.com/Imaddindepf/tradeul-sub005/tracker"
)

const (
	defaultEventLimit = 100
	maxEventLimit     = 1000
)

// parseEventFilter maps query parameters onto a repository filter.
// Unparseable timestamps are ignored rather than rejected.
func parseEventFilter(r *http.Request) database.EventFilter {
	q := r.URL.Query()

	limitMin, limitMax := 1, maxEventLimit
	f := database.EventFilter{
		Symbol:    strings.ToUpper(strings.TrimSpace(q.Get("symbol"))),
		EventType: strings.TrimSpace(q.Get("event_type")),
		RuleID:    strings.TrimSpace(q.Get("rule_id")),
		Limit:     getIntParam(r, "limit", defaultEventLimit, &limitMin, &limitMax),
	}

	if v := q.Get("since"); v != "" {
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			f.Since = ts
		}
	}
	if v := q.Get("until"); v != "" {
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			f.Until = ts
		}
	}
	return f
}

// handleGetEvents returns persisted events, newest first, with optional
// symbol / event_type / rule_id / since / until / limit filters.
func (s *Server) handleGetEvents(w http.ResponseWriter, r *http.Request) {
	if s.repo == nil {
		respondWithError(w, http.StatusServiceUnavailable, "event storage not available", nil)
		return
	}

	events, err := s.repo.RecentEvents(r.Context(), parseEventFilter(r))
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to query events", err)
		return
	}
	if events == nil {
		events = []database.MarketEvent{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(events)
}

// handleGetEventStats returns per-type counts over a lookback window
// (hours parameter, default 24).
func (s *Server) handleGetEventStats(w http.ResponseWriter, r *http.Request) {
	if s.repo == nil {
		respondWithError(w, http.StatusServiceUnavailable, "event storage not available", nil)
		return
	}

	hoursMin, hoursMax := 1, 24*30
	hours := getIntParam(r, "hours", 24, &hoursMin, &hoursMax)
	since := time.Now().Add(-time.Duration(hours) * time.Hour)

	stats, err := s.repo.EventStats(r.Context(), since)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to aggregate event stats", err)
		return
	}
	if stats == nil {
		stats = []database.EventTypeCount{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"since": since,
		"stats": stats,
	})
}

// symbolState is the live view of one symbol: the latest normalized
// snapshot plus the rolling-window readings backing the detectors.
type symbolState struct {
	State  *market.TickerState `json:"state"`
	Prices priceWindows        `json:"price_windows"`
	Volume volumeWindows       `json:"volume_windows"`
}

type priceWindows struct {
	Change1m   *float64 `json:"change_1m_pct,omitempty"`
	Change5m   *float64 `json:"change_5m_pct,omitempty"`
	Change10m  *float64 `json:"change_10m_pct,omitempty"`
	Change15m  *float64 `json:"change_15m_pct,omitempty"`
	Change30m  *float64 `json:"change_30m_pct,omitempty"`
	Price5mAgo *float64 `json:"price_5m_ago,omitempty"`
}

type volumeWindows struct {
	Vol1m  *int64 `json:"vol_1m,omitempty"`
	Vol5m  *int64 `json:"vol_5m,omitempty"`
	Vol10m *int64 `json:"vol_10m,omitempty"`
	Vol15m *int64 `json:"vol_15m,omitempty"`
	Vol30m *int64 `json:"vol_30m,omitempty"`
}

func toPriceWindows(pc tracker.PriceChanges) priceWindows {
	return priceWindows{
		Change1m:   pc.Change1m,
		Change5m:   pc.Change5m,
		Change10m:  pc.Change10m,
		Change15m:  pc.Change15m,
		Change30m:  pc.Change30m,
		Price5mAgo: pc.Price5mAgo,
	}
}

func toVolumeWindows(vw tracker.VolumeWindows) volumeWindows {
	return volumeWindows{
		Vol1m:  vw.Vol1m,
		Vol5m:  vw.Vol5m,
		Vol10m: vw.Vol10m,
		Vol15m: vw.Vol15m,
		Vol30m: vw.Vol30m,
	}
}

// handleGetSymbolState returns the cached state and window readings for
// one symbol.
func (s *Server) handleGetSymbolState(w http.ResponseWriter, r *http.Request) {
	if s.states == nil || s.windows == nil {
		respondWithError(w, http.StatusServiceUnavailable, "state cache not available", nil)
		return
	}

	symbol := strings.ToUpper(strings.TrimSpace(r.PathValue("symbol")))
	if symbol == "" {
		respondWithError(w, http.StatusBadRequest, "symbol is required", nil)
		return
	}

	st, ok := s.states.Get(symbol)
	if !ok {
		respondWithError(w, http.StatusNotFound, "symbol not tracked", nil)
		return
	}

	resp := symbolState{
		State:  st,
		Prices: toPriceWindows(s.windows.PriceChanges(symbol)),
		Volume: toVolumeWindows(s.windows.VolumeWindows(symbol)),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
