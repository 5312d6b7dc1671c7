package tracker

import (
	"testing"
)

func TestUpdateAppendAndOverwrite(t *testing.T) {
	tr := New(10, 100)

	if appended := tr.Update("TSLA", 250.00, 1000, 1000); !appended {
		t.Error("first sample should append")
	}
	// Same second replaces the head in place
	if appended := tr.Update("TSLA", 250.10, 1100, 1000); appended {
		t.Error("same-second update should overwrite, not append")
	}
	if appended := tr.Update("TSLA", 250.20, 1200, 1001); !appended {
		t.Error("next second should append")
	}
	// Stale seconds are ignored
	if appended := tr.Update("TSLA", 249.00, 900, 999); appended {
		t.Error("stale sample should be ignored")
	}
}

func TestPriceChangesWindows(t *testing.T) {
	tr := New(10, 1801)

	// 31 minutes of one-second samples, price climbing 0.25/s from 100.00
	start := int64(10_000)
	for i := int64(0); i <= 1860; i++ {
		tr.Update("AAPL", 100.00+float64(i)*0.25, 1000*i, start+i)
	}

	pc := tr.PriceChanges("AAPL")
	for name, got := range map[string]*float64{
		"1m":  pc.Change1m,
		"5m":  pc.Change5m,
		"10m": pc.Change10m,
		"15m": pc.Change15m,
		"30m": pc.Change30m,
	} {
		if got == nil {
			t.Errorf("window %s unresolved with full history", name)
		}
	}

	// Latest is 565.00; 5 minutes back is 490.00
	if pc.Price5mAgo == nil || *pc.Price5mAgo != 490.00 {
		t.Fatalf("Price5mAgo = %v, want 490.00", pc.Price5mAgo)
	}
	want := (565.00 - 490.00) / 490.00 * 100
	if *pc.Change5m != want {
		t.Errorf("Change5m = %v, want %v", *pc.Change5m, want)
	}
	if *pc.Change1m <= 0 || *pc.Change30m <= *pc.Change5m {
		t.Errorf("monotone climb should give increasing window changes: 1m=%v 5m=%v 30m=%v",
			*pc.Change1m, *pc.Change5m, *pc.Change30m)
	}
}

func TestFreshnessGuardRejectsStaleAnchors(t *testing.T) {
	tr := New(10, 1801)

	// A burst of samples, then a 40-minute quiet gap, then one print.
	// The nearest anchor for every lookback is 40 minutes old, far past
	// the window+15s guard, so every window must be unavailable.
	for i := int64(0); i < 10; i++ {
		tr.Update("THIN", 5.00, 100*i, 1000+i)
	}
	tr.Update("THIN", 5.50, 2000, 1009+2400)

	pc := tr.PriceChanges("THIN")
	if pc.Change5m != nil || pc.Change30m != nil || pc.Change1m != nil {
		t.Errorf("expected all windows nil after gap, got %+v", pc)
	}
	vw := tr.VolumeWindows("THIN")
	if vw.Vol5m != nil || vw.Vol30m != nil {
		t.Errorf("expected all volume windows nil after gap, got %+v", vw)
	}
}

func TestFreshnessGuardSlack(t *testing.T) {
	tr := New(10, 1801)

	// Anchor lands 10s beyond the 60s window: inside the 15s slack.
	tr.Update("SLCK", 100.00, 1000, 5000)
	tr.Update("SLCK", 101.00, 2000, 5070)
	pc := tr.PriceChanges("SLCK")
	if pc.Change1m == nil {
		t.Fatal("anchor within window+15s should resolve")
	}
	if *pc.Change1m != 1.0 {
		t.Errorf("Change1m = %v, want 1.0", *pc.Change1m)
	}

	// Anchor 16s beyond the window: outside the slack.
	tr.Update("WIDE", 100.00, 1000, 5000)
	tr.Update("WIDE", 101.00, 2000, 5076)
	if pc := tr.PriceChanges("WIDE"); pc.Change1m != nil {
		t.Errorf("anchor past window+15s should be nil, got %v", *pc.Change1m)
	}
}

func TestVolumeWindowDeltas(t *testing.T) {
	tr := New(10, 1801)

	// Cumulative volume grows 500/s
	for i := int64(0); i <= 700; i++ {
		tr.Update("GME", 20.00, 500*i, 2000+i)
	}

	vw := tr.VolumeWindows("GME")
	if vw.Vol1m == nil || *vw.Vol1m != 500*60 {
		t.Errorf("Vol1m = %v, want %d", vw.Vol1m, 500*60)
	}
	if vw.Vol5m == nil || *vw.Vol5m != 500*300 {
		t.Errorf("Vol5m = %v, want %d", vw.Vol5m, 500*300)
	}
	if vw.Vol30m != nil {
		t.Errorf("Vol30m should be nil with only ~11m of history, got %v", *vw.Vol30m)
	}
}

func TestCapacityRefusal(t *testing.T) {
	tr := New(2, 100)

	if !tr.Update("AAA", 1, 1, 1) {
		t.Fatal("first symbol refused")
	}
	if !tr.Update("BBB", 1, 1, 1) {
		t.Fatal("second symbol refused")
	}
	if tr.Update("CCC", 1, 1, 1) {
		t.Error("third symbol should be refused at capacity")
	}
	// Existing symbols continue unaffected
	if !tr.Update("AAA", 2, 2, 2) {
		t.Error("existing symbol refused after capacity reached")
	}
	if tr.Symbols() != 2 {
		t.Errorf("Symbols = %d, want 2", tr.Symbols())
	}
}

func TestClear(t *testing.T) {
	tr := New(4, 100)
	for i := int64(0); i < 70; i++ {
		tr.Update("AAA", 10+float64(i), 100*i, 1000+i)
		tr.Update("BBB", 20, 100*i, 1000+i)
	}

	tr.ClearSymbol("AAA")
	if pc := tr.PriceChanges("AAA"); pc.Change1m != nil {
		t.Error("cleared symbol should have no windows")
	}
	if pc := tr.PriceChanges("BBB"); pc.Change1m == nil {
		t.Error("other symbols should survive ClearSymbol")
	}

	// Cleared symbols accept new samples without re-allocation
	tr.Update("AAA", 50, 100, 5000)
	tr.Update("AAA", 51, 200, 5060)
	if pc := tr.PriceChanges("AAA"); pc.Change1m == nil {
		t.Error("cleared symbol should track again after new samples")
	}

	tr.ClearAll()
	if pc := tr.PriceChanges("BBB"); pc.Change1m != nil {
		t.Error("ClearAll should wipe all histories")
	}
	if tr.Symbols() != 2 {
		t.Errorf("slot assignments should survive ClearAll, Symbols = %d", tr.Symbols())
	}
}

func TestRingWrapAround(t *testing.T) {
	// Depth of 120 seconds: the 1-minute window must stay correct after
	// the ring wraps several times over.
	tr := New(1, 120)
	for i := int64(0); i < 500; i++ {
		tr.Update("WRAP", 100+float64(i%7), 100*i, 3000+i)
	}

	pc := tr.PriceChanges("WRAP")
	if pc.Change1m == nil {
		t.Fatal("1m window unresolved after wrap")
	}
	vw := tr.VolumeWindows("WRAP")
	if vw.Vol1m == nil || *vw.Vol1m != 100*60 {
		t.Errorf("Vol1m after wrap = %v, want %d", vw.Vol1m, 100*60)
	}
	// Depth is only 2 minutes; 5-minute lookback can never resolve
	if pc.Change5m != nil {
		t.Error("5m window should not resolve in a 120-slot ring")
	}
}
