package detectors

import (
	"fmt"

	"github.com/Imaddindepf/tradeul-sub005/market"
)

// LevelFunc extracts the reference level a LevelCross compares price
// against. Returning zero means the level is unknown for this tick and
// the detector stays silent.
type LevelFunc func(st *market.TickerState) float64

// LevelCross fires when price crosses a per-symbol reference level in
// one direction. Crossing is an edge: the previous price must sit
// strictly on the far side and the current price on or past the level,
// so a symbol parked exactly on its VWAP does not fire on every tick.
// A reverse crossing re-arms the detector immediately because the next
// same-direction edge is by definition preceded by prices on the far
// side again.
type LevelCross struct {
	base
	typ   market.EventType
	up    bool
	level LevelFunc
}

// NewLevelCross builds a single-direction level crossing detector.
func NewLevelCross(typ market.EventType, up bool, level LevelFunc) *LevelCross {
	return &LevelCross{typ: typ, up: up, level: level}
}

func (d *LevelCross) EventTypes() []market.EventType { return []market.EventType{d.typ} }

func (d *LevelCross) InitialSafe() bool { return false }

func (d *LevelCross) Evaluate(prev, curr *market.TickerState, memo *Memo) []market.EventRecord {
	prevLevel := d.level(prev)
	currLevel := d.level(curr)
	if prevLevel <= 0 || currLevel <= 0 || prev.Price <= 0 || curr.Price <= 0 {
		return nil
	}

	var crossed bool
	if d.up {
		crossed = prev.Price < prevLevel && curr.Price >= currLevel
	} else {
		crossed = prev.Price > prevLevel && curr.Price <= currLevel
	}
	if !crossed {
		return nil
	}

	memo.Segment++
	dir := "down"
	if d.up {
		dir = "up"
	}

	ev := newEvent(d.typ, curr, fmt.Sprintf("%s:%d", dir, memo.Segment))
	ev.PrevValue = market.Ptr(prev.Price)
	ev.NewValue = market.Ptr(curr.Price)
	ev.Delta = market.Ptr(curr.Price - currLevel)
	if currLevel != 0 {
		ev.DeltaPercent = market.Ptr((curr.Price - currLevel) / currLevel * 100)
	}
	ev.Details = map[string]interface{}{"level": currLevel}
	return []market.EventRecord{ev}
}
