package detectors

import (
	"fmt"

	"github.com/Imaddindepf/tradeul-sub005/market"
)

// MetricFunc reads one scalar from a snapshot. ok=false means the
// metric is not computable yet (missing enrichment, empty window) and
// the detector stays silent for the tick.
type MetricFunc func(st *market.TickerState) (value float64, ok bool)

// WindowThreshold fires on the tick where a metric crosses a fixed
// threshold: above rules need prev < T <= curr, below rules prev > T >=
// curr. Staying past the threshold is silent; the metric must come back
// across before the rule can fire again, which makes each fire the
// start of a fresh excursion.
type WindowThreshold struct {
	base
	typ       market.EventType
	threshold float64
	above     bool
	metric    MetricFunc
}

// NewWindowThreshold builds a threshold crossing detector. above
// selects the crossing direction.
func NewWindowThreshold(typ market.EventType, threshold float64, above bool, metric MetricFunc) *WindowThreshold {
	return &WindowThreshold{typ: typ, threshold: threshold, above: above, metric: metric}
}

func (d *WindowThreshold) EventTypes() []market.EventType { return []market.EventType{d.typ} }

func (d *WindowThreshold) InitialSafe() bool { return false }

func (d *WindowThreshold) Evaluate(prev, curr *market.TickerState, memo *Memo) []market.EventRecord {
	pv, ok := d.metric(prev)
	if !ok {
		return nil
	}
	cv, ok := d.metric(curr)
	if !ok {
		return nil
	}

	var crossed bool
	if d.above {
		crossed = pv < d.threshold && cv >= d.threshold
	} else {
		crossed = pv > d.threshold && cv <= d.threshold
	}
	if !crossed {
		return nil
	}

	memo.Segment++
	side := "below"
	if d.above {
		side = "above"
	}

	ev := newEvent(d.typ, curr, fmt.Sprintf("%s:%d", side, memo.Segment))
	ev.PrevValue = market.Ptr(pv)
	ev.NewValue = market.Ptr(cv)
	ev.Delta = market.Ptr(cv - pv)
	ev.Details = map[string]interface{}{"threshold": d.threshold}
	return []market.EventRecord{ev}
}

// Metric extractors shared by the threshold registrations.

// RVOLMetric reads relative volume; zero means not yet enriched.
func RVOLMetric(st *market.TickerState) (float64, bool) {
	return st.RVOL, st.RVOL > 0
}

// ChangePercentMetric reads the day change; it needs a previous close
// to be meaningful.
func ChangePercentMetric(st *market.TickerState) (float64, bool) {
	return st.ChangePercent, st.PrevClose > 0
}

// Change10mMetric reads the 10-minute rolling change, nil while the
// window is still filling.
func Change10mMetric(st *market.TickerState) (float64, bool) {
	if st.Change10mPct == nil {
		return 0, false
	}
	return *st.Change10mPct, true
}

// VolumeSurgeMetric is 1-minute volume over its trailing average.
func VolumeSurgeMetric(st *market.TickerState) (float64, bool) {
	if st.Vol1m == nil || st.AvgVolume1m <= 0 {
		return 0, false
	}
	return float64(*st.Vol1m) / st.AvgVolume1m, true
}

// PrintRateMetric is the 1-minute trade count over its trailing
// average.
func PrintRateMetric(st *market.TickerState) (float64, bool) {
	if st.TradeRate1m <= 0 || st.AvgTradeRate <= 0 {
		return 0, false
	}
	return st.TradeRate1m / st.AvgTradeRate, true
}

// NotionalMetric is the dollar size of the last trade.
func NotionalMetric(st *market.TickerState) (float64, bool) {
	return st.LastTradeNotional, st.LastTradeNotional > 0
}
