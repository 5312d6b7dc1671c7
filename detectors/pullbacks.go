package detectors

import (
	"fmt"

	"github.com/Imaddindepf/tradeul-sub005/market"
)

// AnchorFunc reads the base of the move a pullback retraces against:
// the intraday low, the day open or the previous close. Zero disables
// the rule for the tick.
type AnchorFunc func(st *market.TickerState) float64

// Pullback fires when price retraces a fraction of the move from an
// anchor to the running session extreme. The extreme tracks price
// prints like the new-extreme family; every new extreme re-arms the
// rule, and a fire disarms it until the extreme advances again, so one
// leg yields one event per fraction.
type Pullback struct {
	base
	typ      market.EventType
	fromHigh bool
	fraction float64
	anchor   AnchorFunc
}

// NewPullback builds a retracement detector. fromHigh selects the
// direction of the preceding move; fraction is the retraced share of
// the anchor-to-extreme distance, in (0, 1].
func NewPullback(typ market.EventType, fromHigh bool, fraction float64, anchor AnchorFunc) *Pullback {
	return &Pullback{typ: typ, fromHigh: fromHigh, fraction: fraction, anchor: anchor}
}

func (d *Pullback) EventTypes() []market.EventType { return []market.EventType{d.typ} }

func (d *Pullback) InitialSafe() bool { return true }

func (d *Pullback) Evaluate(prev, curr *market.TickerState, memo *Memo) []market.EventRecord {
	price := curr.Price
	if price <= 0 {
		return nil
	}

	if !memo.Seen {
		memo.Seen = true
		seed := price
		if d.fromHigh && curr.IntradayHigh > seed {
			seed = curr.IntradayHigh
		}
		if !d.fromHigh && curr.IntradayLow > 0 && curr.IntradayLow < seed {
			seed = curr.IntradayLow
		}
		memo.Extreme = seed
		memo.Armed = true
		return nil
	}

	// A fresh extreme re-arms and never fires on its own tick.
	if d.fromHigh && price > memo.Extreme {
		memo.Extreme = price
		memo.Armed = true
		return nil
	}
	if !d.fromHigh && price < memo.Extreme {
		memo.Extreme = price
		memo.Armed = true
		return nil
	}
	if !memo.Armed {
		return nil
	}

	anchor := d.anchor(curr)
	if anchor <= 0 {
		return nil
	}

	var retraceLevel float64
	if d.fromHigh {
		if anchor >= memo.Extreme {
			return nil
		}
		retraceLevel = memo.Extreme - d.fraction*(memo.Extreme-anchor)
		if price > retraceLevel {
			return nil
		}
	} else {
		if anchor <= memo.Extreme {
			return nil
		}
		retraceLevel = memo.Extreme + d.fraction*(anchor-memo.Extreme)
		if price < retraceLevel {
			return nil
		}
	}

	memo.Armed = false
	memo.Segment++

	ev := newEvent(d.typ, curr, fmt.Sprintf("leg:%d", memo.Segment))
	ev.PrevValue = market.Ptr(memo.Extreme)
	ev.NewValue = market.Ptr(price)
	ev.Delta = market.Ptr(price - memo.Extreme)
	if memo.Extreme != 0 {
		ev.DeltaPercent = market.Ptr((price - memo.Extreme) / memo.Extreme * 100)
	}
	ev.Details = map[string]interface{}{
		"anchor":        anchor,
		"retrace_level": retraceLevel,
		"fraction":      d.fraction,
	}
	return []market.EventRecord{ev}
}
