package detectors

import (
	"fmt"

	"github.com/Imaddindepf/tradeul-sub005/market"
)

// BarCross fires on the edge where one 5-minute series crosses another
// (SMA8 over SMA20, MACD over its signal line, stochastic through a
// fixed band). Indicator values only move when a bar closes but
// snapshots arrive every second, so a fire additionally requires the
// 5-minute bar index to have advanced since the rule's last fire; that
// suppresses intra-bar flapping when a cross sits right on the line.
type BarCross struct {
	base
	typ market.EventType
	up  bool
	lhs MetricFunc
	rhs MetricFunc
}

// NewBarCross builds a two-series cross detector on 5-minute values.
// up fires when lhs moves from at-or-below rhs to strictly above.
func NewBarCross(typ market.EventType, up bool, lhs, rhs MetricFunc) *BarCross {
	return &BarCross{typ: typ, up: up, lhs: lhs, rhs: rhs}
}

// ConstLevel adapts a fixed band edge (stochastic 80/20, RSI 70/30,
// the MACD zero line) into a MetricFunc.
func ConstLevel(v float64) MetricFunc {
	return func(*market.TickerState) (float64, bool) { return v, true }
}

func (d *BarCross) EventTypes() []market.EventType { return []market.EventType{d.typ} }

func (d *BarCross) InitialSafe() bool { return false }

func (d *BarCross) Evaluate(prev, curr *market.TickerState, memo *Memo) []market.EventRecord {
	pl, ok := d.lhs(prev)
	if !ok {
		return nil
	}
	pr, ok := d.rhs(prev)
	if !ok {
		return nil
	}
	cl, ok := d.lhs(curr)
	if !ok {
		return nil
	}
	cr, ok := d.rhs(curr)
	if !ok {
		return nil
	}

	var crossed bool
	if d.up {
		crossed = pl <= pr && cl > cr
	} else {
		crossed = pl >= pr && cl < cr
	}
	if !crossed {
		return nil
	}
	if curr.Bar5m <= memo.BarIndex {
		return nil
	}

	memo.BarIndex = curr.Bar5m
	memo.Segment++
	dir := "down"
	if d.up {
		dir = "up"
	}

	ev := newEvent(d.typ, curr, fmt.Sprintf("%s:%d", dir, memo.Segment))
	ev.PrevValue = market.Ptr(pl)
	ev.NewValue = market.Ptr(cl)
	ev.Delta = market.Ptr(cl - cr)
	ev.Details = map[string]interface{}{"crossed": cr}
	return []market.EventRecord{ev}
}

// 5-minute series extractors. Indicators arrive pre-computed in the
// snapshot bag; zero doubles as absent for the strictly positive ones,
// and the MACD pair counts as present once either leg is nonzero.

func SMA8x5mMetric(st *market.TickerState) (float64, bool)  { return st.SMA8x5m, st.SMA8x5m > 0 }
func SMA20x5mMetric(st *market.TickerState) (float64, bool) { return st.SMA20x5m, st.SMA20x5m > 0 }

func MACD5mMetric(st *market.TickerState) (float64, bool) {
	return st.MACD5m, st.MACD5m != 0 || st.MACDSignal5m != 0
}

func MACDSignal5mMetric(st *market.TickerState) (float64, bool) {
	return st.MACDSignal5m, st.MACD5m != 0 || st.MACDSignal5m != 0
}

func StochK5mMetric(st *market.TickerState) (float64, bool) { return st.StochK5m, st.StochK5m > 0 }
func RSI5mMetric(st *market.TickerState) (float64, bool)    { return st.RSI5m, st.RSI5m > 0 }
