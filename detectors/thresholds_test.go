package detectors

import (
	"testing"

	"github.com/Imaddindepf/tradeul-sub005/market"
)

func rvolTick(sec int64, rvol float64) *market.TickerState {
	st := tick("GME", sec, 25.00)
	st.RVOL = rvol
	return st
}

func TestRVOLSpikeCrossingNotState(t *testing.T) {
	d := NewWindowThreshold(market.EventRVOLSpike, 3.0, true, RVOLMetric)
	memo := &Memo{}

	ticks := []*market.TickerState{
		rvolTick(0, 2.5),
		rvolTick(1, 4.0),
		rvolTick(2, 4.5),
		rvolTick(3, 2.0),
		rvolTick(4, 3.5),
	}

	tests := []struct {
		name   string
		prev   *market.TickerState
		curr   *market.TickerState
		fires  bool
		bucket string
	}{
		{"first entry fires", ticks[0], ticks[1], true, "above:1"},
		{"still in the spike", ticks[1], ticks[2], false, ""},
		{"falling out disarms", ticks[2], ticks[3], false, ""},
		{"re-entry fires again", ticks[3], ticks[4], true, "above:2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evs := d.Evaluate(tt.prev, tt.curr, memo)
			if tt.fires != (len(evs) == 1) {
				t.Fatalf("expected fires=%v, got %d events", tt.fires, len(evs))
			}
			if tt.fires && evs[0].Bucket != tt.bucket {
				t.Errorf("expected bucket %q, got %q", tt.bucket, evs[0].Bucket)
			}
		})
	}
}

func TestThresholdFireReportsValues(t *testing.T) {
	d := NewWindowThreshold(market.EventRVOLSpike, 3.0, true, RVOLMetric)
	memo := &Memo{}

	evs := d.Evaluate(rvolTick(0, 2.5), rvolTick(1, 4.0), memo)
	if len(evs) != 1 {
		t.Fatalf("expected one event, got %d", len(evs))
	}
	ev := evs[0]
	if *ev.PrevValue != 2.5 || *ev.NewValue != 4.0 {
		t.Errorf("expected prev 2.5 new 4.0, got %v %v", *ev.PrevValue, *ev.NewValue)
	}
	if ev.Details["threshold"] != 3.0 {
		t.Errorf("expected threshold 3.0 in details, got %v", ev.Details["threshold"])
	}
}

func TestThresholdBelowDirection(t *testing.T) {
	d := NewWindowThreshold(market.EventPercentDown5, -5, false, ChangePercentMetric)
	memo := &Memo{}

	mk := func(sec int64, chg float64) *market.TickerState {
		st := tick("XYZ", sec, 50.00)
		st.PrevClose = 52.00
		st.ChangePercent = chg
		return st
	}

	if evs := d.Evaluate(mk(0, -3.0), mk(1, -4.5), memo); len(evs) != 0 {
		t.Fatalf("expected no fire above the floor, got %d events", len(evs))
	}
	evs := d.Evaluate(mk(1, -4.5), mk(2, -5.5), memo)
	if len(evs) != 1 {
		t.Fatalf("expected fire crossing below -5, got %d events", len(evs))
	}
	if evs[0].Bucket != "below:1" {
		t.Errorf("expected bucket below:1, got %q", evs[0].Bucket)
	}
}

func TestThresholdSilentWithoutMetric(t *testing.T) {
	d := NewWindowThreshold(market.EventRVOLSpike, 3.0, true, RVOLMetric)
	memo := &Memo{}

	// RVOL missing on the previous tick: no baseline, no fire.
	if evs := d.Evaluate(rvolTick(0, 0), rvolTick(1, 4.0), memo); len(evs) != 0 {
		t.Errorf("expected silence without a baseline metric, got %d events", len(evs))
	}
}

func TestWindowMetricExtractors(t *testing.T) {
	st := tick("TSLA", 0, 250.00)

	if _, ok := VolumeSurgeMetric(st); ok {
		t.Errorf("expected volume surge unavailable without window data")
	}
	vol := int64(600_000)
	st.Vol1m = &vol
	st.AvgVolume1m = 100_000
	v, ok := VolumeSurgeMetric(st)
	if !ok || v != 6.0 {
		t.Errorf("expected surge 6.0, got %v ok=%v", v, ok)
	}

	st.TradeRate1m = 900
	st.AvgTradeRate = 100
	r, ok := PrintRateMetric(st)
	if !ok || r != 9.0 {
		t.Errorf("expected print rate 9.0, got %v ok=%v", r, ok)
	}

	if _, ok := Change10mMetric(st); ok {
		t.Errorf("expected running change unavailable while the window fills")
	}
	chg := 3.4
	st.Change10mPct = &chg
	c, ok := Change10mMetric(st)
	if !ok || c != 3.4 {
		t.Errorf("expected change 3.4, got %v ok=%v", c, ok)
	}
}
