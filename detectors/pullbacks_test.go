package detectors

import (
	"testing"

	"github.com/Imaddindepf/tradeul-sub005/market"
)

func pbTick(sec int64, price float64) *market.TickerState {
	st := tick("PB", sec, price)
	st.DayOpen = 100.00
	st.PrevClose = 100.00
	return st
}

func TestPullbackFromHighFiresOncePerLeg(t *testing.T) {
	d := NewPullback(market.EventPullback25FromHighOpen, true, 0.25,
		func(st *market.TickerState) float64 { return st.DayOpen })
	memo := &Memo{}

	seed := pbTick(0, 100.00)
	if evs := d.Evaluate(nil, seed, memo); len(evs) != 0 {
		t.Fatalf("expected silent seed, got %d events", len(evs))
	}

	// Run to 110: each new extreme re-arms, never fires.
	high := pbTick(1, 110.00)
	if evs := d.Evaluate(seed, high, memo); len(evs) != 0 {
		t.Fatalf("expected no fire on a fresh extreme, got %d events", len(evs))
	}

	// 25% of the 100 -> 110 move is given back at 107.50.
	if evs := d.Evaluate(high, pbTick(2, 108.00), memo); len(evs) != 0 {
		t.Fatalf("expected no fire above the retrace level, got %d events", len(evs))
	}
	evs := d.Evaluate(high, pbTick(3, 107.40), memo)
	if len(evs) != 1 {
		t.Fatalf("expected one pullback fire, got %d events", len(evs))
	}
	ev := evs[0]
	if *ev.PrevValue != 110.00 || *ev.NewValue != 107.40 {
		t.Errorf("expected prev 110.00 new 107.40, got %v %v", *ev.PrevValue, *ev.NewValue)
	}
	if ev.Details["retrace_level"] != 107.50 {
		t.Errorf("expected retrace_level 107.50, got %v", ev.Details["retrace_level"])
	}
	if ev.Details["anchor"] != 100.00 {
		t.Errorf("expected anchor 100.00, got %v", ev.Details["anchor"])
	}

	// Disarmed until the extreme advances.
	if evs := d.Evaluate(high, pbTick(4, 107.00), memo); len(evs) != 0 {
		t.Errorf("expected no repeat fire while disarmed, got %d events", len(evs))
	}

	// New extreme re-arms; the next retrace fires against it.
	d.Evaluate(high, pbTick(5, 111.00), memo)
	evs = d.Evaluate(high, pbTick(6, 108.20), memo)
	if len(evs) != 1 {
		t.Fatalf("expected fire on the new leg, got %d events", len(evs))
	}
	if *evs[0].PrevValue != 111.00 {
		t.Errorf("expected prev 111.00, got %v", *evs[0].PrevValue)
	}
}

func TestPullbackFromLow(t *testing.T) {
	d := NewPullback(market.EventPullback25FromLowClose, false, 0.25,
		func(st *market.TickerState) float64 { return st.PrevClose })
	memo := &Memo{}

	seed := pbTick(0, 98.00)
	d.Evaluate(nil, seed, memo)

	low := pbTick(1, 90.00)
	if evs := d.Evaluate(seed, low, memo); len(evs) != 0 {
		t.Fatalf("expected no fire on a fresh low, got %d events", len(evs))
	}

	// 25% back of the 100 -> 90 drop is 92.50.
	if evs := d.Evaluate(low, pbTick(2, 92.00), memo); len(evs) != 0 {
		t.Fatalf("expected no fire below the retrace level, got %d events", len(evs))
	}
	evs := d.Evaluate(low, pbTick(3, 92.60), memo)
	if len(evs) != 1 {
		t.Fatalf("expected one bounce fire, got %d events", len(evs))
	}
	if *evs[0].PrevValue != 90.00 || *evs[0].NewValue != 92.60 {
		t.Errorf("expected prev 90.00 new 92.60, got %v %v", *evs[0].PrevValue, *evs[0].NewValue)
	}
}

func TestPullbackNeedsRealMove(t *testing.T) {
	d := NewPullback(market.EventPullback25FromHighOpen, true, 0.25,
		func(st *market.TickerState) float64 { return st.DayOpen })
	memo := &Memo{}

	// Price never exceeds the anchor: no move, no retrace.
	seed := pbTick(0, 99.00)
	d.Evaluate(nil, seed, memo)
	if evs := d.Evaluate(seed, pbTick(1, 98.00), memo); len(evs) != 0 {
		t.Errorf("expected silence with the extreme under the anchor, got %d events", len(evs))
	}
}
