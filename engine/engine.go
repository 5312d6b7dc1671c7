// Package engine is the detection core: it serializes snapshots per
// symbol onto hashed shards, runs the detector registry over each
// prev -> curr transition, applies deduplication and cooldowns, and
// fans surviving events out to the writer, the broadcast bus and the
// trigger stream. Nothing in here blocks on a sink; overload always
// resolves by dropping and counting.
package engine

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Imaddindepf/tradeul-sub005/detectors"
	"github.com/Imaddindepf/tradeul-sub005/market"
	"github.com/Imaddindepf/tradeul-sub005/metrics"
	"github.com/Imaddindepf/tradeul-sub005/tracker"
)

// Broadcaster delivers events to live subscribers (SSE, websockets).
type Broadcaster interface {
	Broadcast(event string, payload interface{})
}

// EventSink buffers events for batch persistence.
type EventSink interface {
	Buffer(ev *market.EventRecord)
}

// StreamAppender publishes events onto the trigger input stream.
type StreamAppender interface {
	AppendEvent(ctx context.Context, ev *market.EventRecord) error
}

// Config tunes the engine's concurrency and suppression windows.
type Config struct {
	// Workers is the shard count. Symbols hash onto shards, so per-symbol
	// processing is single-threaded while distinct symbols run parallel.
	Workers int

	// QueueSize bounds each shard's inbox.
	QueueSize int

	// DedupeWindow suppresses duplicate (symbol, rule, bucket) fires from
	// near-simultaneous identical snapshots.
	DedupeWindow time.Duration
}

func (c *Config) applyDefaults() {
	if c.Workers <= 0 {
		c.Workers = 8
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 1024
	}
	if c.DedupeWindow <= 0 {
		c.DedupeWindow = 2 * time.Second
	}
}

// Deps wires the engine to its collaborators. Writer, Broker and
// Stream are optional; a nil sink is skipped during fan-out.
type Deps struct {
	Cache    *market.StateCache
	Tracker  *tracker.RollingWindowTracker
	Registry *detectors.Registry
	Writer   EventSink
	Broker   Broadcaster
	Stream   StreamAppender
}

// Engine owns the shard workers and the stream publisher.
type Engine struct {
	cfg    Config
	deps   Deps
	shards []*shard
	pubCh  chan *market.EventRecord
	wg     sync.WaitGroup
	pubWG  sync.WaitGroup
	closed atomic.Bool
}

// New builds an engine around the given arenas and sinks.
func New(cfg Config, deps Deps) *Engine {
	cfg.applyDefaults()
	e := &Engine{
		cfg:   cfg,
		deps:  deps,
		pubCh: make(chan *market.EventRecord, 4096),
	}
	for i := 0; i < cfg.Workers; i++ {
		e.shards = append(e.shards, newShard(e, i))
	}
	return e
}

// Start launches the shard workers and, when a stream sink is wired,
// the publisher goroutine. ctx bounds in-flight stream appends.
func (e *Engine) Start(ctx context.Context) {
	log.Printf("🚀 Event engine starting: %d shards, %d rules", len(e.shards), e.deps.Registry.Len())
	for _, sh := range e.shards {
		e.wg.Add(1)
		go func(sh *shard) {
			defer e.wg.Done()
			sh.run()
		}(sh)
	}
	if e.deps.Stream != nil {
		e.pubWG.Add(1)
		go func() {
			defer e.pubWG.Done()
			e.runStreamPublisher(ctx)
		}()
	}
}

// Submit routes a normalized snapshot to its symbol's shard. It never
// blocks: a full shard inbox drops the snapshot with a counter. Callers
// must stop submitting before Stop.
func (e *Engine) Submit(st *market.TickerState) {
	if st == nil || e.closed.Load() {
		return
	}
	sh := e.shards[shardFor(st.Symbol, len(e.shards))]
	select {
	case sh.in <- st:
	default:
		metrics.EngineQueueDropped.Inc()
	}
}

// ResetDay clears the rolling-window arenas and asks every shard to
// reset its detector memos. Called by the session watcher at the
// trading-day boundary.
func (e *Engine) ResetDay() {
	log.Printf("🔄 Trading day rollover: clearing windows and detector memos")
	e.deps.Tracker.ClearAll()
	for _, sh := range e.shards {
		select {
		case sh.reset <- struct{}{}:
		default:
		}
	}
}

// Stop drains every shard queue, then flushes the pending stream
// publishes. Safe to call once; later calls are no-ops.
func (e *Engine) Stop() {
	if !e.closed.CompareAndSwap(false, true) {
		return
	}
	for _, sh := range e.shards {
		close(sh.in)
	}
	e.wg.Wait()
	close(e.pubCh)
	e.pubWG.Wait()
	log.Printf("✅ Event engine stopped")
}

func (e *Engine) runStreamPublisher(ctx context.Context) {
	for ev := range e.pubCh {
		if err := e.deps.Stream.AppendEvent(ctx, ev); err != nil {
			metrics.StreamPublishErrors.Inc()
		}
	}
}

// publish fans one admitted event out to the sinks. The stream sink
// goes through a buffered channel so a slow store never stalls a shard.
func (e *Engine) publish(ev *market.EventRecord) {
	metrics.EventsEmitted.WithLabelValues(string(ev.EventType)).Inc()
	if e.deps.Broker != nil {
		e.deps.Broker.Broadcast("market_event", ev)
	}
	if e.deps.Writer != nil {
		e.deps.Writer.Buffer(ev)
	}
	if e.deps.Stream != nil {
		select {
		case e.pubCh <- ev:
		default:
			metrics.StreamPublishDropped.Inc()
		}
	}
}

// shardFor hashes a symbol to a stable shard index (FNV-1a), so one
// symbol always serializes through the same worker.
func shardFor(symbol string, n int) int {
	h := uint32(2166136261)
	for i := 0; i < len(symbol); i++ {
		h ^= uint32(symbol[i])
		h *= 16777619
	}
	return int(h % uint32(n))
}
