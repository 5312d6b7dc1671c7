package detectors

import (
	"github.com/Imaddindepf/tradeul-sub005/market"
)

// SeedFunc supplies the starting reference for an extreme tracker, read
// from the first snapshot the detector sees: the feed's intraday high,
// pre-market low, 52-week high and so on. Returning zero means the feed
// carries no reference yet and the first print becomes the extreme.
type SeedFunc func(st *market.TickerState) float64

// NewExtreme fires every time price prints past the running extreme.
// The reference seeds once per session from the snapshot's own field,
// then advances only on fires: trusting the feed's running high after
// seeding would swallow the very crossing we are here to report,
// because enriched snapshots usually fold the fresh print into the
// intraday high before we see it.
type NewExtreme struct {
	base
	typ     market.EventType
	high    bool
	seed    SeedFunc
	session market.Session
}

// NewHighTracker tracks running maxima of price. session restricts
// evaluation to one session phase; empty means every phase.
func NewHighTracker(typ market.EventType, seed SeedFunc, session market.Session) *NewExtreme {
	return &NewExtreme{typ: typ, high: true, seed: seed, session: session}
}

// NewLowTracker tracks running minima of price.
func NewLowTracker(typ market.EventType, seed SeedFunc, session market.Session) *NewExtreme {
	return &NewExtreme{typ: typ, high: false, seed: seed, session: session}
}

func (d *NewExtreme) EventTypes() []market.EventType { return []market.EventType{d.typ} }

func (d *NewExtreme) InitialSafe() bool { return true }

func (d *NewExtreme) Evaluate(prev, curr *market.TickerState, memo *Memo) []market.EventRecord {
	if curr.Price <= 0 {
		return nil
	}
	if d.session != "" && curr.Session != d.session {
		return nil
	}

	if !memo.Seen {
		memo.Seen = true
		ref := d.seed(curr)
		if ref <= 0 {
			ref = curr.Price
		}
		if d.high && curr.Price > ref {
			ref = curr.Price
		}
		if !d.high && curr.Price < ref {
			ref = curr.Price
		}
		memo.Extreme = ref
		return nil
	}

	ref := memo.Extreme
	fired := false
	if d.high {
		fired = curr.Price > ref
	} else {
		fired = curr.Price < ref
	}
	if !fired {
		return nil
	}

	// Every new extreme is a genuinely new event: no dedupe bucket.
	memo.Extreme = curr.Price

	ev := newEvent(d.typ, curr, "")
	ev.PrevValue = market.Ptr(ref)
	ev.NewValue = market.Ptr(curr.Price)
	ev.Delta = market.Ptr(curr.Price - ref)
	if ref != 0 {
		ev.DeltaPercent = market.Ptr((curr.Price - ref) / ref * 100)
	}
	return []market.EventRecord{ev}
}
