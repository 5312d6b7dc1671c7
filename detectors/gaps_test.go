package detectors

import (
	"testing"

	"github.com/Imaddindepf/tradeul-sub005/market"
)

func gapTick(sec int64, price, prevClose, gapPct float64) *market.TickerState {
	st := tick("GAP", sec, price)
	st.PrevClose = prevClose
	st.GapPercent = gapPct
	return st
}

func TestGapReversalUpNeedsConfirmation(t *testing.T) {
	d := NewGapReversal(market.EventGapReversalUp, true)
	memo := &Memo{}

	ticks := []*market.TickerState{
		gapTick(0, 96.00, 100.00, -4.0),
		gapTick(1, 97.00, 100.00, -4.0),
		gapTick(2, 100.20, 100.00, -4.0),
		gapTick(3, 100.50, 100.00, -4.0),
		gapTick(4, 101.00, 100.00, -4.0),
	}

	if evs := d.Evaluate(ticks[0], ticks[1], memo); len(evs) != 0 {
		t.Fatalf("expected no event below the prior close, got %d", len(evs))
	}
	// The cross arms the rule but does not fire.
	if evs := d.Evaluate(ticks[1], ticks[2], memo); len(evs) != 0 {
		t.Fatalf("expected the crossing tick to stay silent, got %d", len(evs))
	}

	evs := d.Evaluate(ticks[2], ticks[3], memo)
	if len(evs) != 1 {
		t.Fatalf("expected the confirming tick to fire, got %d events", len(evs))
	}
	ev := evs[0]
	if *ev.PrevValue != 100.00 || *ev.NewValue != 100.50 {
		t.Errorf("expected prev 100.00 new 100.50, got %v %v", *ev.PrevValue, *ev.NewValue)
	}
	if ev.Details["gap_percent"] != -4.0 {
		t.Errorf("expected gap_percent -4.0 in details, got %v", ev.Details["gap_percent"])
	}

	// One reversal per session.
	if evs := d.Evaluate(ticks[3], ticks[4], memo); len(evs) != 0 {
		t.Errorf("expected no second fire in the session, got %d", len(evs))
	}
}

func TestGapReversalFalseBreakRearms(t *testing.T) {
	d := NewGapReversal(market.EventGapReversalUp, true)
	memo := &Memo{}

	d.Evaluate(gapTick(0, 96.00, 100.00, -4.0), gapTick(1, 100.20, 100.00, -4.0), memo)
	// Confirmation fails: back under the prior close.
	if evs := d.Evaluate(gapTick(1, 100.20, 100.00, -4.0), gapTick(2, 99.50, 100.00, -4.0), memo); len(evs) != 0 {
		t.Fatalf("expected a failed confirmation to stay silent, got %d events", len(evs))
	}

	d.Evaluate(gapTick(2, 99.50, 100.00, -4.0), gapTick(3, 100.30, 100.00, -4.0), memo)
	evs := d.Evaluate(gapTick(3, 100.30, 100.00, -4.0), gapTick(4, 100.60, 100.00, -4.0), memo)
	if len(evs) != 1 {
		t.Fatalf("expected fire after the second confirmed cross, got %d events", len(evs))
	}
}

func TestGapReversalIgnoresWrongGapSign(t *testing.T) {
	up := NewGapReversal(market.EventGapReversalUp, true)
	memo := &Memo{}

	// Gapped up: the up rule never applies, however price moves.
	d0 := gapTick(0, 104.00, 100.00, 4.0)
	d1 := gapTick(1, 99.00, 100.00, 4.0)
	d2 := gapTick(2, 100.50, 100.00, 4.0)
	up.Evaluate(d0, d1, memo)
	up.Evaluate(d1, d2, memo)
	if evs := up.Evaluate(d2, gapTick(3, 101.00, 100.00, 4.0), memo); len(evs) != 0 {
		t.Errorf("expected up rule silent for an up gap, got %d events", len(evs))
	}
}

func TestGapReversalDown(t *testing.T) {
	d := NewGapReversal(market.EventGapReversalDown, false)
	memo := &Memo{}

	d.Evaluate(gapTick(0, 103.00, 100.00, 3.0), gapTick(1, 99.80, 100.00, 3.0), memo)
	evs := d.Evaluate(gapTick(1, 99.80, 100.00, 3.0), gapTick(2, 99.40, 100.00, 3.0), memo)
	if len(evs) != 1 || evs[0].EventType != market.EventGapReversalDown {
		t.Fatalf("expected one GAP_REVERSAL_DOWN, got %v", evs)
	}
}

func TestGapReversalSilentWithoutGap(t *testing.T) {
	d := NewGapReversal(market.EventGapReversalUp, true)
	memo := &Memo{}

	d.Evaluate(gapTick(0, 99.90, 100.00, 0), gapTick(1, 100.20, 100.00, 0), memo)
	if evs := d.Evaluate(gapTick(1, 100.20, 100.00, 0), gapTick(2, 100.40, 100.00, 0), memo); len(evs) != 0 {
		t.Errorf("expected flat open to never reverse, got %d events", len(evs))
	}
}
