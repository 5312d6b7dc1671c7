package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Imaddindepf/tradeul-sub005/market"
	"github.com/Imaddindepf/tradeul-sub005/tracker"
	"github.com/Imaddindepf/tradeul-sub005/triggers"
)

func TestParseEventFilter(t *testing.T) {
	tests := []struct {
		name          string
		query         string
		wantSymbol    string
		wantEventType string
		wantLimit     int
		wantSince     bool
	}{
		{
			name:      "defaults",
			query:     "/api/events",
			wantLimit: 100,
		},
		{
			name:       "symbol is uppercased",
			query:      "/api/events?symbol=aapl",
			wantSymbol: "AAPL",
			wantLimit:  100,
		},
		{
			name:          "type and limit",
			query:         "/api/events?event_type=HALT&limit=25",
			wantEventType: "HALT",
			wantLimit:     25,
		},
		{
			name:      "limit above cap falls back to default",
			query:     "/api/events?limit=5000",
			wantLimit: 100,
		},
		{
			name:      "unparseable limit falls back to default",
			query:     "/api/events?limit=abc",
			wantLimit: 100,
		},
		{
			name:      "since parses RFC3339",
			query:     "/api/events?since=2026-02-10T14:30:00Z",
			wantLimit: 100,
			wantSince: true,
		},
		{
			name:      "bad since is ignored",
			query:     "/api/events?since=yesterday",
			wantLimit: 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, tt.query, nil)
			f := parseEventFilter(r)

			if f.Symbol != tt.wantSymbol {
				t.Errorf("expected symbol %q, got %q", tt.wantSymbol, f.Symbol)
			}
			if f.EventType != tt.wantEventType {
				t.Errorf("expected event_type %q, got %q", tt.wantEventType, f.EventType)
			}
			if f.Limit != tt.wantLimit {
				t.Errorf("expected limit %d, got %d", tt.wantLimit, f.Limit)
			}
			if tt.wantSince && f.Since.IsZero() {
				t.Error("expected since to be parsed")
			}
			if !tt.wantSince && !f.Since.IsZero() {
				t.Errorf("expected zero since, got %v", f.Since)
			}
		})
	}
}

func TestHandleGetSymbolState(t *testing.T) {
	states := market.NewStateCache(16, time.Hour)
	windows := tracker.New(16, 360)

	now := time.Now().Unix()
	states.Put(&market.TickerState{
		Symbol:    "AAPL",
		Timestamp: time.Unix(now, 0),
		Price:     185.30,
		Volume:    3_000_000,
	})
	windows.Update("AAPL", 184.00, 2_900_000, now-60)
	windows.Update("AAPL", 185.30, 3_000_000, now)

	s := NewServer(Deps{States: states, Windows: windows})

	t.Run("tracked symbol", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/symbols/aapl/state", nil)
		r.SetPathValue("symbol", "aapl")
		w := httptest.NewRecorder()

		s.handleGetSymbolState(w, r)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var resp symbolState
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unexpected unmarshal error: %v", err)
		}
		if resp.State == nil || resp.State.Symbol != "AAPL" {
			t.Fatalf("expected AAPL state, got %+v", resp.State)
		}
		if resp.Prices.Change1m == nil {
			t.Fatal("expected 1m change to resolve")
		}
		if *resp.Prices.Change1m < 0.70 || *resp.Prices.Change1m > 0.71 {
			t.Errorf("expected ~0.707%% 1m change, got %v", *resp.Prices.Change1m)
		}
		if resp.Volume.Vol1m == nil || *resp.Volume.Vol1m != 100_000 {
			t.Errorf("expected 1m volume delta 100000, got %v", resp.Volume.Vol1m)
		}
	})

	t.Run("unknown symbol", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/symbols/ZZZZ/state", nil)
		r.SetPathValue("symbol", "ZZZZ")
		w := httptest.NewRecorder()

		s.handleGetSymbolState(w, r)

		if w.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", w.Code)
		}
	})
}

// hashStore is an in-memory triggers.Store for handler tests.
type hashStore struct {
	hashes map[string]map[string]string
}

func newHashStore() *hashStore {
	return &hashStore{hashes: make(map[string]map[string]string)}
}

func (s *hashStore) HSet(ctx context.Context, key, field string, value interface{}) error {
	if s.hashes[key] == nil {
		s.hashes[key] = make(map[string]string)
	}
	switch v := value.(type) {
	case string:
		s.hashes[key][field] = v
	case []byte:
		s.hashes[key][field] = string(v)
	}
	return nil
}

func (s *hashStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	out := make(map[string]string, len(s.hashes[key]))
	for k, v := range s.hashes[key] {
		out[k] = v
	}
	return out, nil
}

func (s *hashStore) HDel(ctx context.Context, key string, fields ...string) error {
	for _, f := range fields {
		delete(s.hashes[key], f)
	}
	return nil
}

func (s *hashStore) ScanKeys(ctx context.Context, pattern string) ([]string, error) {
	keys := make([]string, 0, len(s.hashes))
	for k := range s.hashes {
		keys = append(keys, k)
	}
	return keys, nil
}

func (s *hashStore) XAdd(ctx context.Context, stream string, maxLen int64, values []interface{}) error {
	return nil
}

func (s *hashStore) EnsureGroup(ctx context.Context, stream, group string) error { return nil }

func (s *hashStore) ReadGroup(ctx context.Context, stream, group, consumer string, count int64, block time.Duration) ([]redis.XMessage, error) {
	return nil, nil
}

func (s *hashStore) Ack(ctx context.Context, stream, group string, ids ...string) error { return nil }

func TestTriggerHandlers(t *testing.T) {
	engine := triggers.New(newHashStore(), nil)
	s := NewServer(Deps{Triggers: engine})

	body := `{"user_id":"u-1","name":"tsla rvol","event_types":["RVOL_SPIKE"],"action":"alert","enabled":true}`
	r := httptest.NewRequest(http.MethodPost, "/api/triggers", strings.NewReader(body))
	w := httptest.NewRecorder()
	s.handleCreateTrigger(w, r)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var created triggers.Trigger
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("unexpected unmarshal error: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected server-assigned trigger id")
	}

	t.Run("rejects invalid body", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/api/triggers", strings.NewReader(`{"name":"no user"}`))
		w := httptest.NewRecorder()
		s.handleCreateTrigger(w, r)
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
	})

	t.Run("list requires user_id", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/triggers", nil)
		w := httptest.NewRecorder()
		s.handleListTriggers(w, r)
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
	})

	t.Run("list returns created trigger", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/triggers?user_id=u-1", nil)
		w := httptest.NewRecorder()
		s.handleListTriggers(w, r)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var list []triggers.Trigger
		if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
			t.Fatalf("unexpected unmarshal error: %v", err)
		}
		if len(list) != 1 || list[0].ID != created.ID {
			t.Errorf("expected the created trigger, got %+v", list)
		}
	})

	t.Run("delete then 404", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodDelete, "/api/triggers/"+created.ID+"?user_id=u-1", nil)
		r.SetPathValue("id", created.ID)
		w := httptest.NewRecorder()
		s.handleDeleteTrigger(w, r)
		if w.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", w.Code)
		}

		r = httptest.NewRequest(http.MethodDelete, "/api/triggers/"+created.ID+"?user_id=u-1", nil)
		r.SetPathValue("id", created.ID)
		w = httptest.NewRecorder()
		s.handleDeleteTrigger(w, r)
		if w.Code != http.StatusNotFound {
			t.Errorf("expected 404 on second delete, got %d", w.Code)
		}
	})
}

func TestHandleHealthWithoutBackends(t *testing.T) {
	s := NewServer(Deps{})
	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	s.handleHealth(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unexpected unmarshal error: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("expected status ok, got %v", resp["status"])
	}
}

func TestCORSPreflight(t *testing.T) {
	s := NewServer(Deps{})
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("expected preflight to short-circuit before the handler")
	})

	r := httptest.NewRequest(http.MethodOptions, "/api/events", nil)
	w := httptest.NewRecorder()
	s.corsMiddleware(next).ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected wildcard origin, got %q", got)
	}
}
