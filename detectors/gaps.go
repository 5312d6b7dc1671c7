package detectors

import (
	"fmt"

	"github.com/Imaddindepf/tradeul-sub005/market"
)

// GapReversal fires when a symbol that gapped at the open trades back
// through the previous close against the gap. The first session tick
// records the gap sign; the cross itself only arms the rule, and the
// fire waits for one more tick holding the far side so open-auction
// noise does not trip it. One fire per session.
type GapReversal struct {
	base
	typ market.EventType
	up  bool
}

// NewGapReversal builds a reversal detector. up means the symbol gapped
// down and recovers above the previous close.
func NewGapReversal(typ market.EventType, up bool) *GapReversal {
	return &GapReversal{typ: typ, up: up}
}

func (d *GapReversal) EventTypes() []market.EventType { return []market.EventType{d.typ} }

func (d *GapReversal) InitialSafe() bool { return false }

func (d *GapReversal) Evaluate(prev, curr *market.TickerState, memo *Memo) []market.EventRecord {
	pc := curr.PrevClose
	if pc <= 0 || curr.Price <= 0 {
		return nil
	}

	if !memo.Seen {
		memo.Seen = true
		switch {
		case curr.GapPercent > 0:
			memo.Direction = 1
		case curr.GapPercent < 0:
			memo.Direction = -1
		}
	}

	// The up rule only applies to symbols that gapped down, and vice
	// versa.
	if d.up && memo.Direction != -1 {
		return nil
	}
	if !d.up && memo.Direction != 1 {
		return nil
	}
	if memo.Fired {
		return nil
	}

	if memo.Pending == 0 {
		var crossed bool
		if d.up {
			crossed = prev.Price <= pc && curr.Price > pc
		} else {
			crossed = prev.Price >= pc && curr.Price < pc
		}
		if crossed {
			memo.Pending = 1
		}
		return nil
	}

	// Confirmation tick: the price must still hold the far side of the
	// previous close, otherwise the cross was noise and we re-arm.
	var held bool
	if d.up {
		held = curr.Price > pc
	} else {
		held = curr.Price < pc
	}
	if !held {
		memo.Pending = 0
		return nil
	}

	memo.Pending = 0
	memo.Fired = true
	memo.Segment++

	ev := newEvent(d.typ, curr, fmt.Sprintf("rev:%d", memo.Segment))
	ev.PrevValue = market.Ptr(pc)
	ev.NewValue = market.Ptr(curr.Price)
	ev.Delta = market.Ptr(curr.Price - pc)
	ev.DeltaPercent = market.Ptr((curr.Price - pc) / pc * 100)
	ev.Details = map[string]interface{}{
		"gap_percent": curr.GapPercent,
		"prev_close":  pc,
	}
	return []market.EventRecord{ev}
}
