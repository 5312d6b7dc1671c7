// Package api exposes the HTTP surface: event history queries, trigger
// CRUD, alert reads, live SSE/WebSocket feeds, health and metrics.
package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Imaddindepf/tradeul-sub005/cache"
	"github.com/Imaddindepf/tradeul-sub005/database"
	"github.com/Imaddindepf/tradeul-sub005/market"
	"github.com/Imaddindepf/tradeul-sub005/realtime"
	"github.com/Imaddindepf/tradeul-sub005/tracker"
	"github.com/Imaddindepf/tradeul-sub005/triggers"
)

// Server handles HTTP API requests
type Server struct {
	repo     *database.EventRepository
	db       *database.Database
	redis    *cache.RedisClient
	broker   *realtime.Broker
	hub      *realtime.Hub
	triggers *triggers.Engine
	states   *market.StateCache
	windows  *tracker.RollingWindowTracker

	httpSrv *http.Server
}

// Deps carries the collaborators the handlers read from. Any field may
// be nil; the affected endpoints then answer 503.
type Deps struct {
	Repo     *database.EventRepository
	DB       *database.Database
	Redis    *cache.RedisClient
	Broker   *realtime.Broker
	Hub      *realtime.Hub
	Triggers *triggers.Engine
	States   *market.StateCache
	Windows  *tracker.RollingWindowTracker
}

// NewServer creates a new API server instance
func NewServer(deps Deps) *Server {
	return &Server{
		repo:     deps.Repo,
		db:       deps.DB,
		redis:    deps.Redis,
		broker:   deps.Broker,
		hub:      deps.Hub,
		triggers: deps.Triggers,
		states:   deps.States,
		windows:  deps.Windows,
	}
}

// Start starts the HTTP server on the specified port. Blocks until
// Shutdown is called or the listener fails.
func (s *Server) Start(port int) error {
	mux := http.NewServeMux()

	// Event history and live feeds
	mux.HandleFunc("GET /api/events", s.handleGetEvents)
	mux.HandleFunc("GET /api/events/stats", s.handleGetEventStats)
	if s.broker != nil {
		mux.Handle("GET /api/events/stream", s.broker) // SSE endpoint
	}
	if s.hub != nil {
		mux.HandleFunc("GET /ws/events", s.hub.ServeWS)
	}

	// Trigger management
	mux.HandleFunc("GET /api/triggers", s.handleListTriggers)
	mux.HandleFunc("POST /api/triggers", s.handleCreateTrigger)
	mux.HandleFunc("PUT /api/triggers/{id}", s.handleUpdateTrigger)
	mux.HandleFunc("DELETE /api/triggers/{id}", s.handleDeleteTrigger)
	mux.HandleFunc("GET /api/alerts", s.handleGetAlerts)

	// Live symbol state
	mux.HandleFunc("GET /api/symbols/{symbol}/state", s.handleGetSymbolState)

	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /health", s.handleHealth)

	// Add middleware
	handler := s.corsMiddleware(s.loggingMiddleware(mux))

	serverAddr := fmt.Sprintf("0.0.0.0:%d", port)
	// No WriteTimeout: it would cut long-lived SSE responses.
	s.httpSrv = &http.Server{
		Addr:        serverAddr,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	log.Printf("🚀 API server starting on %s", serverAddr)
	return s.httpSrv.ListenAndServe()
}

// Shutdown stops accepting connections and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

// Middleware
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %v", r.Method, r.URL.Path, time.Since(start))
	})
}

// Handlers are distributed across multiple files:
// - handlers_events.go: event history, stats, symbol state
// - handlers_triggers.go: trigger CRUD, alert reads
// - handlers_health.go: health check
