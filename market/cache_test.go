package market

import (
	"fmt"
	"testing"
	"time"
)

func stateFor(symbol string, price float64, ts time.Time) *TickerState {
	return &TickerState{Symbol: symbol, Price: price, Timestamp: ts}
}

func TestStateCachePutGet(t *testing.T) {
	c := NewStateCache(100, 5*time.Minute)

	now := time.Now()
	if _, ok := c.Get("TSLA"); ok {
		t.Fatal("expected miss on empty cache")
	}

	c.Put(stateFor("TSLA", 250.00, now))
	st, ok := c.Get("TSLA")
	if !ok || st.Price != 250.00 {
		t.Fatalf("Get after Put = (%v, %v), want price 250", st, ok)
	}

	// A newer state replaces the old one wholesale
	c.Put(stateFor("TSLA", 250.50, now.Add(time.Second)))
	st, _ = c.Get("TSLA")
	if st.Price != 250.50 {
		t.Errorf("price after update = %v, want 250.50", st.Price)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}

func TestStateCacheCapacity(t *testing.T) {
	c := NewStateCache(3, 5*time.Minute)
	now := time.Now()

	for i := 0; i < 3; i++ {
		sym := fmt.Sprintf("SYM%d", i)
		if !c.Put(stateFor(sym, 10, now)) {
			t.Fatalf("Put(%s) refused below capacity", sym)
		}
	}

	if c.Put(stateFor("OVERFLOW", 10, now)) {
		t.Error("expected refusal for new symbol at capacity")
	}
	if !c.AtCapacity("OVERFLOW") {
		t.Error("AtCapacity should report true for unseen symbol")
	}

	// Existing symbols keep updating at capacity
	if !c.Put(stateFor("SYM0", 11, now)) {
		t.Error("existing symbol refused at capacity")
	}
	if c.AtCapacity("SYM0") {
		t.Error("AtCapacity should report false for a cached symbol")
	}
}

func TestStateCacheSweep(t *testing.T) {
	c := NewStateCache(100, 50*time.Millisecond)
	now := time.Now()

	c.Put(stateFor("STALE", 10, now))

	// Nothing stale yet
	if n := c.Sweep(time.Now()); n != 0 {
		t.Fatalf("Sweep evicted %d, want 0", n)
	}

	// Let STALE idle past the horizon, keep FRESH recently written
	time.Sleep(100 * time.Millisecond)
	c.Put(stateFor("FRESH", 10, now))

	if n := c.Sweep(time.Now()); n != 1 {
		t.Fatalf("Sweep evicted %d, want 1", n)
	}
	if _, ok := c.Get("STALE"); ok {
		t.Error("stale entry survived the sweep")
	}
	if _, ok := c.Get("FRESH"); !ok {
		t.Error("fresh entry was evicted")
	}

	// Evicted symbols can re-enter
	if !c.Put(stateFor("STALE", 12, now)) {
		t.Error("re-admission after eviction refused")
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
}
