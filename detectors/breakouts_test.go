package detectors

import (
	"testing"
	"time"

	"github.com/Imaddindepf/tradeul-sub005/market"
)

// sessionBase is a Monday regular-session open, 09:30 ET.
var sessionBase = time.Date(2025, 6, 2, 13, 30, 0, 0, time.UTC)

func orbTick(offsetSec int64, price float64) *market.TickerState {
	ts := sessionBase.Add(time.Duration(offsetSec) * time.Second)
	return &market.TickerState{
		Symbol:    "ORB",
		Timestamp: ts,
		Price:     price,
		Session:   market.SessionMarketOpen,
		Bar5m:     ts.Unix() / 300,
	}
}

func TestOpeningRangeBreakoutUp(t *testing.T) {
	d := NewOpeningRangeBreakout(market.EventORBreakoutUp, true, 5)
	memo := &Memo{}

	t0 := orbTick(0, 100.00)
	t1 := orbTick(60, 101.00)
	t2 := orbTick(120, 99.50)
	t3 := orbTick(300, 100.80)
	t4 := orbTick(360, 101.20)
	t5 := orbTick(420, 101.50)

	// Range builds silently before the mark.
	if evs := d.Evaluate(nil, t0, memo); len(evs) != 0 {
		t.Fatalf("expected silent range build, got %d events", len(evs))
	}
	d.Evaluate(t0, t1, memo)
	d.Evaluate(t1, t2, memo)

	// At the mark the range freezes; no cross yet.
	if evs := d.Evaluate(t2, t3, memo); len(evs) != 0 {
		t.Fatalf("expected no fire inside the frozen range, got %d events", len(evs))
	}

	evs := d.Evaluate(t3, t4, memo)
	if len(evs) != 1 {
		t.Fatalf("expected one breakout, got %d events", len(evs))
	}
	ev := evs[0]
	if *ev.PrevValue != 101.00 || *ev.NewValue != 101.20 {
		t.Errorf("expected band 101.00 and price 101.20, got %v %v", *ev.PrevValue, *ev.NewValue)
	}
	if ev.Details["or_high"] != 101.00 || ev.Details["or_low"] != 99.50 {
		t.Errorf("expected frozen range 99.50..101.00, got %v", ev.Details)
	}

	// One fire per session per direction.
	if evs := d.Evaluate(t4, t5, memo); len(evs) != 0 {
		t.Errorf("expected no second breakout, got %d events", len(evs))
	}
}

func TestOpeningRangeFromFeed(t *testing.T) {
	d := NewOpeningRangeBreakout(market.EventORBreakoutUp, true, 5)
	memo := &Memo{}

	// Symbol first seen after the mark: the feed's opening range wins.
	first := orbTick(360, 100.80)
	first.ORHigh = 101.00
	first.ORLow = 99.50
	if evs := d.Evaluate(nil, first, memo); len(evs) != 0 {
		t.Fatalf("expected freeze without fire, got %d events", len(evs))
	}

	second := orbTick(420, 101.20)
	second.ORHigh = 101.00
	second.ORLow = 99.50
	evs := d.Evaluate(first, second, memo)
	if len(evs) != 1 {
		t.Fatalf("expected breakout against the feed range, got %d events", len(evs))
	}
}

func TestOpeningRangeIgnoresOtherSessions(t *testing.T) {
	d := NewOpeningRangeBreakout(market.EventORBreakoutUp, true, 5)
	memo := &Memo{}

	pre := orbTick(0, 100.00)
	pre.Session = market.SessionPreMarket
	if evs := d.Evaluate(nil, pre, memo); len(evs) != 0 {
		t.Errorf("expected pre-market ignored, got %d events", len(evs))
	}
	if memo.BandHigh != 0 {
		t.Errorf("expected no range built off-session, got %v", memo.BandHigh)
	}
}

func consTick(offsetSec int64, price float64) *market.TickerState {
	st := orbTick(offsetSec, price)
	st.Symbol = "CB"
	st.ATR = 1.00
	return st
}

func TestConsolidationBreakoutUp(t *testing.T) {
	d := NewConsolidationBreakout(market.EventConsolidationBreakUp, true, 3, 0.5)
	memo := &Memo{}

	// Three 5-minute bars, each well inside half an ATR.
	seq := []*market.TickerState{
		consTick(0, 100.00), consTick(60, 100.20), consTick(120, 99.95),
		consTick(300, 100.10), consTick(400, 100.30),
		consTick(600, 100.05), consTick(700, 100.25),
		consTick(900, 100.00),
	}
	var prev *market.TickerState
	for _, st := range seq {
		if evs := d.Evaluate(prev, st, memo); len(evs) != 0 {
			t.Fatalf("expected no fire while consolidating, got %d events at %v", len(evs), st.Timestamp)
		}
		prev = st
	}

	breakout := consTick(950, 100.45)
	evs := d.Evaluate(prev, breakout, memo)
	if len(evs) != 1 {
		t.Fatalf("expected one breakout, got %d events", len(evs))
	}
	ev := evs[0]
	if *ev.PrevValue != 100.30 || *ev.NewValue != 100.45 {
		t.Errorf("expected band 100.30 and price 100.45, got %v %v", *ev.PrevValue, *ev.NewValue)
	}
	if ev.Details["bars"] != 3 {
		t.Errorf("expected 3 consolidation bars, got %v", ev.Details["bars"])
	}

	// The fire resets the consolidation.
	if evs := d.Evaluate(breakout, consTick(1000, 100.60), memo); len(evs) != 0 {
		t.Errorf("expected no fire right after reset, got %d events", len(evs))
	}
}

func TestConsolidationResetOnWideBar(t *testing.T) {
	d := NewConsolidationBreakout(market.EventConsolidationBreakUp, true, 2, 0.5)
	memo := &Memo{}

	seq := []*market.TickerState{
		consTick(0, 100.00), consTick(120, 100.20), // tight bar
		consTick(300, 100.10), consTick(400, 100.90), // wide bar: range 0.8
		consTick(600, 100.50),
	}
	var prev *market.TickerState
	for _, st := range seq {
		d.Evaluate(prev, st, memo)
		prev = st
	}
	if memo.Count != 0 {
		t.Errorf("expected the wide bar to reset the count, got %d", memo.Count)
	}
}

func TestConsolidationSilentWithoutATR(t *testing.T) {
	d := NewConsolidationBreakout(market.EventConsolidationBreakUp, true, 3, 0.5)
	memo := &Memo{}

	st := consTick(0, 100.00)
	st.ATR = 0
	if evs := d.Evaluate(nil, st, memo); len(evs) != 0 {
		t.Errorf("expected silence without ATR, got %d events", len(evs))
	}
}
