package detectors

import (
	"fmt"
	"time"

	"github.com/Imaddindepf/tradeul-sub005/market"
)

// OpeningRangeBreakout freezes the session's high and low at the
// N-minute mark after the regular open, then fires once per direction
// when price crosses out of that range. The range builds from price
// prints; if the feed publishes its own opening range it wins at freeze
// time, which also covers symbols first seen after the mark.
type OpeningRangeBreakout struct {
	base
	typ     market.EventType
	up      bool
	minutes int
}

// NewOpeningRangeBreakout builds an ORB detector for one direction.
// minutes is the opening-range length.
func NewOpeningRangeBreakout(typ market.EventType, up bool, minutes int) *OpeningRangeBreakout {
	return &OpeningRangeBreakout{typ: typ, up: up, minutes: minutes}
}

func (d *OpeningRangeBreakout) EventTypes() []market.EventType {
	return []market.EventType{d.typ}
}

func (d *OpeningRangeBreakout) InitialSafe() bool { return true }

func (d *OpeningRangeBreakout) Evaluate(prev, curr *market.TickerState, memo *Memo) []market.EventRecord {
	if curr.Session != market.SessionMarketOpen || curr.Price <= 0 {
		return nil
	}
	elapsed := curr.Timestamp.Sub(market.SessionOpen(curr.Timestamp))

	if !memo.Frozen {
		if elapsed < time.Duration(d.minutes)*time.Minute {
			if memo.BandHigh == 0 || curr.Price > memo.BandHigh {
				memo.BandHigh = curr.Price
			}
			if memo.BandLow == 0 || curr.Price < memo.BandLow {
				memo.BandLow = curr.Price
			}
			return nil
		}
		if curr.ORHigh > 0 && curr.ORLow > 0 {
			memo.BandHigh = curr.ORHigh
			memo.BandLow = curr.ORLow
		}
		if memo.BandHigh <= 0 || memo.BandLow <= 0 {
			// First seen after the mark with no feed range: nothing to
			// break out of today.
			return nil
		}
		memo.Frozen = true
		memo.Armed = true
	}

	if !memo.Armed {
		return nil
	}

	band := memo.BandLow
	if d.up {
		band = memo.BandHigh
	}
	var crossed bool
	if prev == nil {
		crossed = false
	} else if d.up {
		crossed = prev.Price <= band && curr.Price > band
	} else {
		crossed = prev.Price >= band && curr.Price < band
	}
	if !crossed {
		return nil
	}

	memo.Armed = false
	memo.Segment++

	ev := newEvent(d.typ, curr, fmt.Sprintf("orb:%d", memo.Segment))
	ev.PrevValue = market.Ptr(band)
	ev.NewValue = market.Ptr(curr.Price)
	ev.Delta = market.Ptr(curr.Price - band)
	ev.DeltaPercent = market.Ptr((curr.Price - band) / band * 100)
	ev.Details = map[string]interface{}{
		"or_high":       memo.BandHigh,
		"or_low":        memo.BandLow,
		"range_minutes": d.minutes,
	}
	return []market.EventRecord{ev}
}

// ConsolidationBreakout watches closed 5-minute bars: a bar whose range
// is under half the symbol's ATR counts toward a consolidation, and
// once minBars consecutive tight bars have stacked up, a print outside
// the accumulated band fires. Any wide bar or a fire resets the count.
type ConsolidationBreakout struct {
	base
	typ     market.EventType
	up      bool
	minBars int
	ratio   float64
}

// NewConsolidationBreakout builds a CB detector for one direction.
// minBars is the number of consecutive tight bars required; ratio is
// the bar-range-to-ATR ceiling that defines tight.
func NewConsolidationBreakout(typ market.EventType, up bool, minBars int, ratio float64) *ConsolidationBreakout {
	return &ConsolidationBreakout{typ: typ, up: up, minBars: minBars, ratio: ratio}
}

func (d *ConsolidationBreakout) EventTypes() []market.EventType {
	return []market.EventType{d.typ}
}

func (d *ConsolidationBreakout) InitialSafe() bool { return true }

func (d *ConsolidationBreakout) Evaluate(prev, curr *market.TickerState, memo *Memo) []market.EventRecord {
	if curr.Price <= 0 || curr.ATR <= 0 {
		return nil
	}

	if memo.BarIndex != curr.Bar5m {
		if memo.BarIndex != 0 && memo.BarHigh > 0 {
			d.closeBar(memo, curr.ATR)
		}
		memo.BarIndex = curr.Bar5m
		memo.BarHigh = curr.Price
		memo.BarLow = curr.Price
	} else {
		if curr.Price > memo.BarHigh {
			memo.BarHigh = curr.Price
		}
		if memo.BarLow == 0 || curr.Price < memo.BarLow {
			memo.BarLow = curr.Price
		}
	}

	if memo.Count < d.minBars || memo.BandHigh <= 0 {
		return nil
	}

	band := memo.BandLow
	if d.up {
		band = memo.BandHigh
	}
	var crossed bool
	if d.up {
		crossed = curr.Price > band
	} else {
		crossed = curr.Price < band
	}
	if !crossed {
		return nil
	}

	bars := memo.Count
	bandHigh, bandLow := memo.BandHigh, memo.BandLow
	memo.Count = 0
	memo.BandHigh = 0
	memo.BandLow = 0
	memo.Segment++

	ev := newEvent(d.typ, curr, fmt.Sprintf("cb:%d", memo.Segment))
	ev.PrevValue = market.Ptr(band)
	ev.NewValue = market.Ptr(curr.Price)
	ev.Delta = market.Ptr(curr.Price - band)
	ev.DeltaPercent = market.Ptr((curr.Price - band) / band * 100)
	ev.Details = map[string]interface{}{
		"band_high": bandHigh,
		"band_low":  bandLow,
		"bars":      bars,
	}
	return []market.EventRecord{ev}
}

// closeBar folds the finished bar into the consolidation tally.
func (d *ConsolidationBreakout) closeBar(memo *Memo, atr float64) {
	barRange := memo.BarHigh - memo.BarLow
	if barRange/atr >= d.ratio {
		memo.Count = 0
		memo.BandHigh = 0
		memo.BandLow = 0
		return
	}
	memo.Count++
	if memo.Count == 1 {
		memo.BandHigh = memo.BarHigh
		memo.BandLow = memo.BarLow
		return
	}
	if memo.BarHigh > memo.BandHigh {
		memo.BandHigh = memo.BarHigh
	}
	if memo.BarLow < memo.BandLow {
		memo.BandLow = memo.BarLow
	}
}
