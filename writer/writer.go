// Package writer batches events into the time-series store. The buffer
// is bounded and drop-oldest: persistence never applies backpressure to
// detection, and at most one flush interval of events is at risk on a
// crash.
package writer

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/Imaddindepf/tradeul-sub005/market"
	"github.com/Imaddindepf/tradeul-sub005/metrics"
)

// Store is the persistence boundary. EnsureSchema is retried across
// flush ticks until it succeeds; InsertEvents reports the rows actually
// written (conflicts excluded).
type Store interface {
	EnsureSchema(ctx context.Context) error
	InsertEvents(ctx context.Context, events []*market.EventRecord) (int64, error)
}

// Config tunes batching. Zero values take the production defaults.
type Config struct {
	FlushInterval time.Duration
	MaxBuffer     int
	MaxBatch      int
}

func (c *Config) applyDefaults() {
	if c.FlushInterval <= 0 {
		c.FlushInterval = 5 * time.Second
	}
	if c.MaxBuffer <= 0 {
		c.MaxBuffer = 50_000
	}
	if c.MaxBatch <= 0 {
		c.MaxBatch = 10_000
	}
}

// Writer accumulates events and flushes them on a fixed tick.
type Writer struct {
	cfg   Config
	store Store

	mu          sync.Mutex
	buf         []*market.EventRecord
	schemaReady bool

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New builds a writer over the given store.
func New(cfg Config, store Store) *Writer {
	cfg.applyDefaults()
	return &Writer{
		cfg:   cfg,
		store: store,
		done:  make(chan struct{}),
	}
}

// Buffer enqueues one event. Never blocks: at capacity the oldest
// buffered event is evicted to make room, and the eviction is counted.
func (w *Writer) Buffer(ev *market.EventRecord) {
	if ev == nil {
		return
	}
	w.mu.Lock()
	if len(w.buf) >= w.cfg.MaxBuffer {
		w.buf = w.buf[1:]
		metrics.WriterDroppedOldest.Inc()
	}
	w.buf = append(w.buf, ev)
	w.mu.Unlock()
	metrics.WriterBuffered.Inc()
}

// Pending reports the buffered row count.
func (w *Writer) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.buf)
}

// Start launches the flush loop.
func (w *Writer) Start(ctx context.Context) {
	log.Printf("🚀 Event writer starting: flush every %v, buffer %d, batch %d",
		w.cfg.FlushInterval, w.cfg.MaxBuffer, w.cfg.MaxBatch)
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		ticker := time.NewTicker(w.cfg.FlushInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				w.flush(ctx)
			case <-w.done:
				// Final drain gets its own context: the run context is
				// usually already cancelled during shutdown.
				w.flush(context.Background())
				return
			}
		}
	}()
}

// Stop drains the buffer and stops the loop.
func (w *Writer) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
	})
	w.wg.Wait()
	log.Printf("✅ Event writer stopped, buffer drained")
}

// flush writes the whole buffer in MaxBatch chunks. Schema failures
// leave the buffer intact for the next tick; a failed insert drops just
// that batch.
func (w *Writer) flush(ctx context.Context) {
	if !w.ensureSchema(ctx) {
		return
	}
	for {
		batch := w.takeBatch()
		if len(batch) == 0 {
			return
		}
		n, err := w.store.InsertEvents(ctx, batch)
		if err != nil {
			log.Printf("🛑 Event batch insert failed, dropping %d rows: %v", len(batch), err)
			metrics.WriterInsertFailures.Inc()
			return
		}
		metrics.WriterInserted.Add(float64(n))
		if len(batch) < w.cfg.MaxBatch {
			return
		}
	}
}

func (w *Writer) ensureSchema(ctx context.Context) bool {
	w.mu.Lock()
	ready := w.schemaReady
	w.mu.Unlock()
	if ready {
		return true
	}
	if err := w.store.EnsureSchema(ctx); err != nil {
		log.Printf("⚠️ Event schema not ready, keeping %d rows buffered: %v", w.Pending(), err)
		return false
	}
	w.mu.Lock()
	w.schemaReady = true
	w.mu.Unlock()
	log.Printf("✅ Event schema ready")
	return true
}

func (w *Writer) takeBatch() []*market.EventRecord {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := len(w.buf)
	if n == 0 {
		return nil
	}
	if n > w.cfg.MaxBatch {
		n = w.cfg.MaxBatch
	}
	batch := make([]*market.EventRecord, n)
	copy(batch, w.buf)
	w.buf = w.buf[n:]
	if len(w.buf) == 0 {
		w.buf = nil
	}
	return batch
}
