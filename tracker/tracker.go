// Package tracker maintains per-symbol circular buffers of per-second
// price and cumulative-volume samples and answers point-in-time lookback
// queries over 1/5/10/15/30-minute windows.
package tracker

import (
	"sync"

	"github.com/Imaddindepf/tradeul-sub005/metrics"
)

// freshnessSlackSec bounds how far past the nominal window the lookback
// anchor may sit. Without it a thin after-hours ticker whose nearest
// earlier sample is 40 minutes old would report that gap as a 5-minute
// accumulation.
const freshnessSlackSec = 15

// Lookback windows in seconds, shortest first.
var windows = [5]int64{60, 300, 600, 900, 1800}

// PriceChanges holds the percent moves over each window plus the raw price
// five minutes ago. Nil slots mean the window could not be resolved under
// the freshness guard.
type PriceChanges struct {
	Change1m   *float64
	Change5m   *float64
	Change10m  *float64
	Change15m  *float64
	Change30m  *float64
	Price5mAgo *float64
}

// VolumeWindows holds cumulative-volume deltas over each window.
type VolumeWindows struct {
	Vol1m  *int64
	Vol5m  *int64
	Vol10m *int64
	Vol15m *int64
	Vol30m *int64
}

// RollingWindowTracker owns one pre-allocated arena for up to maxSymbols
// symbols; nothing allocates on the update path. All arena writes for a
// symbol must come from the same goroutine (the engine shards by symbol);
// the mutex only guards slot assignment and the day reset.
type RollingWindowTracker struct {
	maxSymbols int
	size       int

	mu    sync.RWMutex
	slots map[string]int

	ts    []int64
	price []float64
	vol   []int64
	head  []int
	count []int
}

// New builds a tracker with capacity maxSymbols and windowSize samples per
// symbol. At the defaults (10000 x 1801) the arena is roughly 275 MB.
func New(maxSymbols, windowSize int) *RollingWindowTracker {
	total := maxSymbols * windowSize
	return &RollingWindowTracker{
		maxSymbols: maxSymbols,
		size:       windowSize,
		slots:      make(map[string]int, maxSymbols),
		ts:         make([]int64, total),
		price:      make([]float64, total),
		vol:        make([]int64, total),
		head:       make([]int, maxSymbols),
		count:      make([]int, maxSymbols),
	}
}

// Update upserts the sample for the current second and reports whether a
// new second was appended (false on intra-second overwrite, stale input,
// or a capacity refusal). The read lock is held across the arena write:
// slots are symbol-disjoint, so concurrent updates never touch the same
// memory, and the day reset excludes them with the write lock.
func (t *RollingWindowTracker) Update(symbol string, price float64, cumVolume int64, tsSec int64) bool {
	t.mu.RLock()
	slot, ok := t.slots[symbol]
	if !ok {
		t.mu.RUnlock()
		var allocated bool
		slot, allocated = t.allocate(symbol)
		if !allocated {
			metrics.SnapshotsRefused.Inc()
			return false
		}
		t.mu.RLock()
	}
	defer t.mu.RUnlock()

	base := slot * t.size
	if t.count[slot] > 0 {
		h := base + t.head[slot]
		switch {
		case tsSec == t.ts[h]:
			t.price[h] = price
			t.vol[h] = cumVolume
			return false
		case tsSec < t.ts[h]:
			return false
		}
	}

	next := 0
	if t.count[slot] > 0 {
		next = (t.head[slot] + 1) % t.size
	}
	t.head[slot] = next
	idx := base + next
	t.ts[idx] = tsSec
	t.price[idx] = price
	t.vol[idx] = cumVolume
	if t.count[slot] < t.size {
		t.count[slot]++
	}
	return true
}

func (t *RollingWindowTracker) allocate(symbol string) (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if slot, ok := t.slots[symbol]; ok {
		return slot, true
	}
	if len(t.slots) >= t.maxSymbols {
		return 0, false
	}
	slot := len(t.slots)
	t.slots[symbol] = slot
	return slot, true
}

// PriceChanges resolves the percent change over each window, anchored on
// the tracker's own most recent sample for the symbol.
func (t *RollingWindowTracker) PriceChanges(symbol string) PriceChanges {
	t.mu.RLock()
	defer t.mu.RUnlock()
	slot, ok := t.slots[symbol]

	var pc PriceChanges
	if !ok || t.count[slot] < 2 {
		return pc
	}

	latest := t.price[slot*t.size+t.head[slot]]
	dst := [5]**float64{&pc.Change1m, &pc.Change5m, &pc.Change10m, &pc.Change15m, &pc.Change30m}
	for i, w := range windows {
		idx, found := t.anchor(slot, w)
		if !found {
			continue
		}
		then := t.price[idx]
		if then <= 0 {
			continue
		}
		change := (latest - then) / then * 100
		*dst[i] = &change
		if w == 300 {
			p := then
			pc.Price5mAgo = &p
		}
	}
	return pc
}

// VolumeWindows resolves cumulative-volume deltas over each window under
// the same freshness guard.
func (t *RollingWindowTracker) VolumeWindows(symbol string) VolumeWindows {
	t.mu.RLock()
	defer t.mu.RUnlock()
	slot, ok := t.slots[symbol]

	var vw VolumeWindows
	if !ok || t.count[slot] < 2 {
		return vw
	}

	latest := t.vol[slot*t.size+t.head[slot]]
	dst := [5]**int64{&vw.Vol1m, &vw.Vol5m, &vw.Vol10m, &vw.Vol15m, &vw.Vol30m}
	for i, w := range windows {
		idx, found := t.anchor(slot, w)
		if !found {
			continue
		}
		delta := latest - t.vol[idx]
		*dst[i] = &delta
	}
	return vw
}

// anchor walks backward from the head to the first sample old enough for
// the window, then applies the freshness guard: the anchor's age relative
// to the latest sample may exceed the window by at most 15 seconds.
func (t *RollingWindowTracker) anchor(slot int, windowSec int64) (int, bool) {
	n := t.count[slot]
	base := slot * t.size
	head := t.head[slot]
	ref := t.ts[base+head]
	target := ref - windowSec

	for i := 1; i < n; i++ {
		idx := base + (head-i+t.size)%t.size
		if t.ts[idx] <= target {
			if ref-t.ts[idx] > windowSec+freshnessSlackSec {
				return 0, false
			}
			return idx, true
		}
	}
	return 0, false
}

// ClearSymbol forgets a symbol's samples but keeps its arena slot.
func (t *RollingWindowTracker) ClearSymbol(symbol string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if slot, ok := t.slots[symbol]; ok {
		t.head[slot] = 0
		t.count[slot] = 0
	}
}

// ClearAll wipes every symbol's samples for the new-trading-day reset.
// Slot assignments survive so the arena never fragments.
func (t *RollingWindowTracker) ClearAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.head {
		t.head[i] = 0
		t.count[i] = 0
	}
}

// Symbols returns how many arena slots are assigned.
func (t *RollingWindowTracker) Symbols() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.slots)
}
