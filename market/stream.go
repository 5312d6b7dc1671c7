package market

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// EventStream is the append-only stream every fired event lands on.
// TriggerConsumerGroup is the consumer group the trigger engine reads
// it through, auto-created with MKSTREAM on first start.
const (
	EventStream          = "stream:events:market"
	TriggerConsumerGroup = "trigger-engine"
)

// AlertStream names the per-user alert stream trigger matches land on.
func AlertStream(userID string) string {
	return "stream:alerts:" + userID
}

// StreamValues flattens an event into alternating field/value pairs for
// a stream append. Field order is stable and append-only: consumers may
// rely on existing positions forever. Nil fields are omitted; details
// and context travel as JSON strings.
func (ev *EventRecord) StreamValues() []interface{} {
	vals := make([]interface{}, 0, 28)
	add := func(k string, v interface{}) {
		vals = append(vals, k, v)
	}

	add("id", ev.ID)
	add("event_type", string(ev.EventType))
	add("rule_id", ev.RuleID)
	add("symbol", ev.Symbol)
	add("ts", strconv.FormatInt(ev.Timestamp.UnixMilli(), 10))
	add("price", strconv.FormatFloat(ev.Price, 'f', -1, 64))
	if ev.PrevValue != nil {
		add("prev_value", strconv.FormatFloat(*ev.PrevValue, 'f', -1, 64))
	}
	if ev.NewValue != nil {
		add("new_value", strconv.FormatFloat(*ev.NewValue, 'f', -1, 64))
	}
	if ev.Delta != nil {
		add("delta", strconv.FormatFloat(*ev.Delta, 'f', -1, 64))
	}
	if ev.DeltaPercent != nil {
		add("delta_percent", strconv.FormatFloat(*ev.DeltaPercent, 'f', -1, 64))
	}
	if ev.Session != "" {
		add("session", string(ev.Session))
	}
	if len(ev.Details) > 0 {
		if b, err := json.Marshal(ev.Details); err == nil {
			add("details", string(b))
		}
	}
	if len(ev.Context) > 0 {
		if b, err := json.Marshal(ev.Context); err == nil {
			add("context", string(b))
		}
	}
	return vals
}

// ParseStreamEvent rebuilds an event from the string field map a stream
// consumer receives. Unknown fields are ignored so producers can append
// columns without breaking older consumers.
func ParseStreamEvent(values map[string]interface{}) (*EventRecord, error) {
	getS := func(k string) string {
		if v, ok := values[k].(string); ok {
			return v
		}
		return ""
	}

	ev := &EventRecord{
		ID:        getS("id"),
		EventType: EventType(getS("event_type")),
		RuleID:    getS("rule_id"),
		Symbol:    getS("symbol"),
		Session:   Session(getS("session")),
	}
	if ev.Symbol == "" || ev.EventType == "" {
		return nil, fmt.Errorf("stream event missing symbol or event_type")
	}

	ms, err := strconv.ParseInt(getS("ts"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("stream event ts: %w", err)
	}
	ev.Timestamp = time.UnixMilli(ms).UTC()

	if ev.Price, err = strconv.ParseFloat(getS("price"), 64); err != nil {
		return nil, fmt.Errorf("stream event price: %w", err)
	}

	parseOpt := func(k string) *float64 {
		s := getS(k)
		if s == "" {
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		return &f
	}
	ev.PrevValue = parseOpt("prev_value")
	ev.NewValue = parseOpt("new_value")
	ev.Delta = parseOpt("delta")
	ev.DeltaPercent = parseOpt("delta_percent")

	if s := getS("details"); s != "" {
		_ = json.Unmarshal([]byte(s), &ev.Details)
	}
	if s := getS("context"); s != "" {
		_ = json.Unmarshal([]byte(s), &ev.Context)
	}
	return ev, nil
}
