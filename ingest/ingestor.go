// Package ingest consumes the upstream enriched-snapshot feed and turns
// each field bag into a normalized TickerState for the engine. Messages
// are processed sequentially by one goroutine, which preserves
// per-symbol order across ticks; the engine's shards parallelize across
// symbols behind it.
package ingest

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/Imaddindepf/tradeul-sub005/cache"
	"github.com/Imaddindepf/tradeul-sub005/market"
	"github.com/Imaddindepf/tradeul-sub005/metrics"
)

// Sink receives normalized states. Satisfied by the event engine.
type Sink interface {
	Submit(st *market.TickerState)
}

// Ingestor subscribes to the snapshot pub/sub channel and feeds the sink.
type Ingestor struct {
	redis   *cache.RedisClient
	channel string
	sink    Sink

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates an ingestor reading from the given channel. The Redis
// client may be nil; Start then logs a warning and ingestion is off.
func New(redis *cache.RedisClient, channel string, sink Sink) *Ingestor {
	return &Ingestor{
		redis:   redis,
		channel: channel,
		sink:    sink,
		done:    make(chan struct{}),
	}
}

// Start launches the consumer loop.
func (in *Ingestor) Start(ctx context.Context) {
	if in.redis == nil {
		log.Println("⚠️ Redis unavailable, snapshot ingestion disabled")
		return
	}
	in.wg.Add(1)
	go func() {
		defer in.wg.Done()
		in.run(ctx)
	}()
}

// Stop makes the ingestor stop accepting ticks and waits for the
// in-flight tick to finish. First step of the shutdown cascade.
func (in *Ingestor) Stop() {
	in.stopOnce.Do(func() {
		close(in.done)
	})
	in.wg.Wait()
	log.Println("✅ Snapshot ingestor stopped")
}

func (in *Ingestor) run(ctx context.Context) {
	sub := in.redis.Subscribe(ctx, in.channel)
	if sub == nil {
		return
	}
	defer sub.Close()

	ch := sub.Channel()
	log.Printf("🚀 Snapshot ingestor subscribed to %s", in.channel)
	for {
		select {
		case <-ctx.Done():
			return
		case <-in.done:
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			in.processTick([]byte(msg.Payload), time.Now())
		}
	}
}

// processTick decodes one broadcast tick: a JSON object mapping symbol
// to its enriched field bag. Rows that fail extraction are dropped with
// a counter; symbol order within a tick is unspecified.
func (in *Ingestor) processTick(payload []byte, now time.Time) int {
	var tick map[string]map[string]interface{}
	if err := json.Unmarshal(payload, &tick); err != nil {
		metrics.SnapshotsInvalid.Inc()
		return 0
	}

	accepted := 0
	for symbol, bag := range tick {
		st, err := market.ExtractState(symbol, bag, now)
		if err != nil {
			metrics.SnapshotsInvalid.Inc()
			continue
		}
		in.sink.Submit(st)
		accepted++
	}
	if accepted > 0 {
		metrics.SnapshotsIngested.Add(float64(accepted))
	}
	return accepted
}
