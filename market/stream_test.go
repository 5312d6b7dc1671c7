package market

import (
	"testing"
	"time"
)

func TestStreamValuesOmitNulls(t *testing.T) {
	ev := &EventRecord{
		ID:        "abc",
		EventType: EventNewHigh,
		RuleID:    "event:system:new_high",
		Symbol:    "TSLA",
		Timestamp: time.Unix(1700000000, 0).UTC(),
		Price:     250.50,
	}

	vals := ev.StreamValues()
	fields := make(map[string]bool)
	for i := 0; i < len(vals); i += 2 {
		fields[vals[i].(string)] = true
	}
	for _, want := range []string{"id", "event_type", "rule_id", "symbol", "ts", "price"} {
		if !fields[want] {
			t.Errorf("expected field %q present", want)
		}
	}
	for _, absent := range []string{"prev_value", "delta", "details", "context", "session"} {
		if fields[absent] {
			t.Errorf("expected empty field %q omitted", absent)
		}
	}
}

func TestStreamRoundTrip(t *testing.T) {
	ev := &EventRecord{
		ID:           "id-1",
		EventType:    EventRVOLSpike,
		RuleID:       "event:system:rvol_spike_3x",
		Symbol:       "GME",
		Timestamp:    time.Unix(1700000000, 250_000_000).UTC(),
		Price:        25.00,
		PrevValue:    Ptr(2.5),
		NewValue:     Ptr(4.0),
		Delta:        Ptr(1.5),
		DeltaPercent: Ptr(60.0),
		Session:      SessionMarketOpen,
		Details:      map[string]interface{}{"threshold": 3.0},
		Context:      map[string]interface{}{"rvol": 4.0},
	}

	vals := ev.StreamValues()
	m := make(map[string]interface{}, len(vals)/2)
	for i := 0; i < len(vals); i += 2 {
		m[vals[i].(string)] = vals[i+1]
	}

	got, err := ParseStreamEvent(m)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if got.EventType != EventRVOLSpike || got.Symbol != "GME" || got.RuleID != ev.RuleID {
		t.Errorf("identity fields mangled: %+v", got)
	}
	if !got.Timestamp.Equal(ev.Timestamp) {
		t.Errorf("expected ts %v, got %v", ev.Timestamp, got.Timestamp)
	}
	if *got.PrevValue != 2.5 || *got.NewValue != 4.0 {
		t.Errorf("expected prev 2.5 new 4.0, got %v %v", *got.PrevValue, *got.NewValue)
	}
	if got.Details["threshold"] != 3.0 {
		t.Errorf("expected details to survive the JSON hop, got %v", got.Details)
	}
	if got.Session != SessionMarketOpen {
		t.Errorf("expected session preserved, got %q", got.Session)
	}
}

func TestParseStreamEventRejectsGarbage(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]interface{}
	}{
		{"empty", map[string]interface{}{}},
		{"missing ts", map[string]interface{}{"symbol": "A", "event_type": "NEW_HIGH"}},
		{"bad price", map[string]interface{}{
			"symbol": "A", "event_type": "NEW_HIGH", "ts": "1700000000000", "price": "soup",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseStreamEvent(tt.values); err == nil {
				t.Errorf("expected error, got none")
			}
		})
	}
}
