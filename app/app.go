// Package app wires the event pipeline together: storage, arenas,
// detection engine, sinks, trigger engine and the HTTP surface, with
// graceful shutdown in pipeline order.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Imaddindepf/tradeul-sub005/api"
	"github.com/Imaddindepf/tradeul-sub005/cache"
	"github.com/Imaddindepf/tradeul-sub005/config"
	"github.com/Imaddindepf/tradeul-sub005/database"
	"github.com/Imaddindepf/tradeul-sub005/detectors"
	"github.com/Imaddindepf/tradeul-sub005/engine"
	"github.com/Imaddindepf/tradeul-sub005/ingest"
	"github.com/Imaddindepf/tradeul-sub005/market"
	"github.com/Imaddindepf/tradeul-sub005/orchestrator"
	"github.com/Imaddindepf/tradeul-sub005/realtime"
	"github.com/Imaddindepf/tradeul-sub005/tracker"
	"github.com/Imaddindepf/tradeul-sub005/triggers"
	"github.com/Imaddindepf/tradeul-sub005/writer"
)

// App represents the main application
type App struct {
	config *config.Config

	db    *database.Database
	redis *cache.RedisClient
	repo  *database.EventRepository

	states   *market.StateCache
	windows  *tracker.RollingWindowTracker
	registry *detectors.Registry

	broker      *realtime.Broker
	hub         *realtime.Hub
	eventWriter *writer.Writer
	engine      *engine.Engine
	triggers    *triggers.Engine
	ingestor    *ingest.Ingestor
	watcher     *SessionWatcher
	apiServer   *api.Server
}

// New creates a new application instance
func New(cfg *config.Config) *App {
	return &App{config: cfg}
}

// Start brings the pipeline up and blocks until a shutdown signal.
func (a *App) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := a.config

	// 1. Database connection
	log.Println("🗄️  Connecting to database...")
	db, err := database.Connect(database.Config{
		Host:     cfg.DatabaseHost,
		Port:     cfg.DatabasePort,
		User:     cfg.DatabaseUser,
		Password: cfg.DatabasePassword,
		DBName:   cfg.DatabaseName,
	})
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	a.db = db
	a.repo = database.NewEventRepository(db, cfg.Writer.RetentionDays, cfg.Writer.CompressionAfterDays)

	// 2. Redis connection. The pipeline runs without it: ingestion,
	// stream fan-out and triggers go dark but the API stays up.
	log.Println("🧠 Connecting to Redis...")
	a.redis = cache.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword)
	if a.redis == nil {
		log.Println("⚠️  Redis connection failed. Ingestion and triggers disabled.")
	}

	// 3. Per-symbol arenas, pre-allocated at configured capacity
	a.windows = tracker.New(cfg.Engine.MaxSymbols, cfg.Engine.WindowSizeSeconds)
	a.states = market.NewStateCache(cfg.Engine.MaxSymbols, time.Duration(cfg.Engine.CacheMaxAgeMin)*time.Minute)
	go a.states.RunSweeper(ctx)

	// 4. Broadcast transports
	a.broker = realtime.NewBroker()
	go a.broker.Run()
	a.hub = realtime.NewHub()
	go a.hub.Run()

	// 5. Event writer over the hypertable. Schema creation is retried
	// inside the flush loop, so a cold TimescaleDB does not block startup.
	a.eventWriter = writer.New(writer.Config{
		FlushInterval: time.Duration(cfg.Writer.FlushIntervalSeconds) * time.Second,
		MaxBuffer:     cfg.Writer.MaxBuffer,
		MaxBatch:      cfg.Writer.MaxBatch,
	}, a.repo)
	a.eventWriter.Start(ctx)

	// 6. Detector registry and the engine
	a.registry = detectors.NewRegistry(detectors.Config{
		DefaultCooldown: time.Duration(cfg.Engine.DefaultCooldownSeconds) * time.Second,
	})
	var stream engine.StreamAppender
	if a.redis != nil {
		stream = a.redis
	}
	a.engine = engine.New(engine.Config{
		Workers:   cfg.Engine.Workers,
		QueueSize: cfg.Engine.QueueSize,
	}, engine.Deps{
		Cache:    a.states,
		Tracker:  a.windows,
		Registry: a.registry,
		Writer:   a.eventWriter,
		Broker:   realtime.Fanout{a.broker, a.hub},
		Stream:   stream,
	})
	a.engine.Start(ctx)

	// 7. Trigger engine over the event stream consumer group
	if cfg.Triggers.Enabled && a.redis != nil {
		var orch triggers.Invoker
		if cfg.Orchestrator.Enabled && cfg.Orchestrator.Endpoint != "" {
			orch = orchestrator.NewClient(cfg.Orchestrator.Endpoint, cfg.Orchestrator.APIKey, cfg.Orchestrator.RatePerSecond)
			log.Println("✅ Workflow orchestrator ENABLED")
		} else {
			log.Println("ℹ️  Workflow orchestrator DISABLED, alert triggers only")
		}
		a.triggers = triggers.New(a.redis, orch)
		if err := a.triggers.LoadAll(ctx); err != nil {
			log.Printf("⚠️ Trigger hydration failed: %v", err)
		}
		if err := a.triggers.Start(ctx); err != nil {
			return fmt.Errorf("trigger engine start failed: %w", err)
		}
	} else {
		log.Println("ℹ️  Trigger engine DISABLED")
	}

	// 8. Snapshot ingestor
	a.ingestor = ingest.New(a.redis, cfg.SnapshotChannel, a.engine)
	a.ingestor.Start(ctx)

	// 9. Session watcher for the trading-day rollover
	a.watcher = NewSessionWatcher(a.engine)
	go a.watcher.Start()

	// 10. API server
	a.apiServer = api.NewServer(api.Deps{
		Repo:     a.repo,
		DB:       a.db,
		Redis:    a.redis,
		Broker:   a.broker,
		Hub:      a.hub,
		Triggers: a.triggers,
		States:   a.states,
		Windows:  a.windows,
	})
	go func() {
		if err := a.apiServer.Start(cfg.APIPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("⚠️  API server failed: %v", err)
		}
	}()

	// 11. Wait for interrupt and perform graceful shutdown
	return a.gracefulShutdown(cancel)
}

// gracefulShutdown stops the pipeline in flow order once a signal
// arrives: ingest first, sinks last, 10 seconds before a forced exit.
func (a *App) gracefulShutdown(cancel context.CancelFunc) error {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	<-interrupt
	log.Println("🛑 Shutdown signal received, initiating graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	shutdownComplete := make(chan struct{})
	go func() {
		// Stop accepting new snapshots, then drain the shards.
		a.ingestor.Stop()
		a.engine.Stop()

		// Final flush of buffered events.
		a.eventWriter.Stop()

		if a.triggers != nil {
			a.triggers.Stop()
			log.Println("✅ Trigger engine stopped")
		}

		a.watcher.Stop()
		a.hub.Stop()
		a.broker.Stop()

		if err := a.apiServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error shutting down API server: %v", err)
		}

		if a.db != nil {
			if err := a.db.Close(); err != nil {
				log.Printf("Error closing database: %v", err)
			} else {
				log.Println("✅ Database connection closed")
			}
		}
		if a.redis != nil {
			if err := a.redis.Close(); err != nil {
				log.Printf("Error closing redis: %v", err)
			} else {
				log.Println("✅ Redis connection closed")
			}
		}

		close(shutdownComplete)
	}()

	// Cancel the run context only after the drain: the writer's flush and
	// the engine's stream publishes still use it while draining.
	defer cancel()

	select {
	case <-shutdownComplete:
		log.Println("✅ Graceful shutdown completed")
		return nil
	case <-shutdownCtx.Done():
		log.Println("⚠️  Shutdown timeout exceeded, forcing exit")
		return fmt.Errorf("shutdown timeout")
	}
}
