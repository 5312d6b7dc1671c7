package market

import (
	"context"
	"hash/fnv"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Imaddindepf/tradeul-sub005/metrics"
)

const cacheShardCount = 32

// StateCache is a bounded symbol -> latest TickerState mapping. Writes for
// one symbol always come from the same engine shard, so readers observe a
// snapshot reference that is never partially updated.
type StateCache struct {
	shards     [cacheShardCount]cacheShard
	maxSymbols int
	maxAge     time.Duration
	size       atomic.Int64
}

type cacheShard struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
}

type cacheEntry struct {
	state   *TickerState
	touched time.Time // wall clock of last write, drives eviction
}

// NewStateCache builds a cache bounded at maxSymbols entries; entries idle
// longer than maxAge become eligible for the background sweep.
func NewStateCache(maxSymbols int, maxAge time.Duration) *StateCache {
	c := &StateCache{maxSymbols: maxSymbols, maxAge: maxAge}
	for i := range c.shards {
		c.shards[i].entries = make(map[string]*cacheEntry)
	}
	return c
}

func (c *StateCache) shard(symbol string) *cacheShard {
	h := fnv.New32a()
	h.Write([]byte(symbol))
	return &c.shards[h.Sum32()%cacheShardCount]
}

// Get returns the most recent state for symbol.
func (c *StateCache) Get(symbol string) (*TickerState, bool) {
	s := c.shard(symbol)
	s.mu.RLock()
	e, ok := s.entries[symbol]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return e.state, true
}

// Put stores the state as the symbol's latest. It returns false when the
// symbol is new and the cache is at capacity; existing symbols always
// update.
func (c *StateCache) Put(st *TickerState) bool {
	s := c.shard(st.Symbol)
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[st.Symbol]; ok {
		e.state = st
		e.touched = time.Now()
		return true
	}
	if int(c.size.Load()) >= c.maxSymbols {
		return false
	}
	s.entries[st.Symbol] = &cacheEntry{state: st, touched: time.Now()}
	c.size.Add(1)
	metrics.CacheSize.Set(float64(c.size.Load()))
	return true
}

// AtCapacity reports whether a previously unseen symbol would be refused.
func (c *StateCache) AtCapacity(symbol string) bool {
	if int(c.size.Load()) < c.maxSymbols {
		return false
	}
	_, exists := c.Get(symbol)
	return !exists
}

// Len returns the number of cached symbols.
func (c *StateCache) Len() int {
	return int(c.size.Load())
}

// Sweep removes entries idle longer than maxAge. Eviction emits no events.
func (c *StateCache) Sweep(now time.Time) int {
	if c.maxAge <= 0 {
		return 0
	}
	evicted := 0
	cutoff := now.Add(-c.maxAge)
	for i := range c.shards {
		s := &c.shards[i]
		s.mu.Lock()
		for sym, e := range s.entries {
			if e.touched.Before(cutoff) {
				delete(s.entries, sym)
				evicted++
			}
		}
		s.mu.Unlock()
	}
	if evicted > 0 {
		c.size.Add(int64(-evicted))
		metrics.CacheSize.Set(float64(c.size.Load()))
		metrics.CacheEvicted.Add(float64(evicted))
	}
	return evicted
}

// RunSweeper evicts stale entries once a minute until the context ends.
func (c *StateCache) RunSweeper(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	log.Println("🧹 State cache sweeper started")
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := c.Sweep(now); n > 0 {
				log.Printf("🧹 Evicted %d stale symbols from state cache", n)
			}
		}
	}
}
