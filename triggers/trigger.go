// Package triggers evaluates fired market events against user-registered
// reactive rules and dispatches alerts or workflow invocations.
package triggers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Imaddindepf/tradeul-sub005/helpers"
	"github.com/Imaddindepf/tradeul-sub005/market"
)

// Action kinds a trigger can dispatch.
const (
	ActionAlert    = "alert"
	ActionWorkflow = "workflow"
)

// defaultMessageTemplate is used when an alert trigger carries no
// template of its own.
const defaultMessageTemplate = "{symbol} {event_type} at {price}"

// Trigger is one user-scoped reactive rule. Stored as JSON in the
// per-user registry hash; last_fired is rewritten best-effort on every
// dispatch.
type Trigger struct {
	ID      string `json:"id"`
	UserID  string `json:"user_id"`
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`

	// Condition predicate, AND-combined. Empty lists match everything.
	EventTypes     []string `json:"event_types,omitempty"`
	Symbols        []string `json:"symbols,omitempty"`
	ExcludeSymbols []string `json:"exclude_symbols,omitempty"`
	MinPrice       float64  `json:"min_price,omitempty"`
	MinVolume      float64  `json:"min_volume,omitempty"`
	MinRVOL        float64  `json:"min_rvol,omitempty"`

	Action          string `json:"action"`
	WorkflowID      string `json:"workflow_id,omitempty"`
	MessageTemplate string `json:"message_template,omitempty"`

	CooldownSeconds int   `json:"cooldown_seconds"`
	LastFired       int64 `json:"last_fired,omitempty"` // unix seconds
}

// Validate checks a trigger before registration and normalizes symbol
// filters to upper case.
func (t *Trigger) Validate() error {
	if t.UserID == "" {
		return fmt.Errorf("trigger user_id is required")
	}
	if t.Name == "" {
		return fmt.Errorf("trigger name is required")
	}

	switch t.Action {
	case ActionAlert:
	case ActionWorkflow:
		if t.WorkflowID == "" {
			return fmt.Errorf("workflow trigger requires a workflow_id")
		}
	default:
		return fmt.Errorf("unknown trigger action %q", t.Action)
	}

	if t.CooldownSeconds < 0 {
		return fmt.Errorf("trigger cooldown must not be negative")
	}

	for _, et := range t.EventTypes {
		if !market.ValidEventType(et) {
			return fmt.Errorf("unknown event type %q", et)
		}
		if market.EventType(et).IsDeprecated() {
			return fmt.Errorf("event type %q is no longer emitted", et)
		}
	}

	upper := func(ss []string) {
		for i, s := range ss {
			ss[i] = strings.ToUpper(strings.TrimSpace(s))
		}
	}
	upper(t.Symbols)
	upper(t.ExcludeSymbols)

	return nil
}

// Matches reports whether the event fires this trigger. Cooldown is
// measured in event time so replayed history behaves like live traffic;
// a zero last_fired means the trigger has never fired.
func (t *Trigger) Matches(ev *market.EventRecord) bool {
	if !t.Enabled {
		return false
	}

	if t.CooldownSeconds > 0 && t.LastFired > 0 &&
		ev.Timestamp.Unix()-t.LastFired < int64(t.CooldownSeconds) {
		return false
	}

	if len(t.EventTypes) > 0 && !contains(t.EventTypes, string(ev.EventType)) {
		return false
	}

	if len(t.Symbols) > 0 && !contains(t.Symbols, ev.Symbol) {
		return false
	}
	if contains(t.ExcludeSymbols, ev.Symbol) {
		return false
	}

	if t.MinPrice > 0 && ev.Price < t.MinPrice {
		return false
	}
	if t.MinVolume > 0 {
		vol, ok := contextNumber(ev, "volume")
		if !ok || vol < t.MinVolume {
			return false
		}
	}
	if t.MinRVOL > 0 {
		rvol, ok := contextNumber(ev, "rvol")
		if !ok || rvol < t.MinRVOL {
			return false
		}
	}

	return true
}

// RenderMessage substitutes event fields into the alert template.
// Unresolvable placeholders are left as-is.
func (t *Trigger) RenderMessage(ev *market.EventRecord) string {
	tpl := t.MessageTemplate
	if tpl == "" {
		tpl = defaultMessageTemplate
	}

	pairs := []string{
		"{symbol}", ev.Symbol,
		"{event_type}", string(ev.EventType),
		"{price}", helpers.FormatPrice(ev.Price),
		"{rule_id}", ev.RuleID,
		"{session}", string(ev.Session),
		"{trigger_name}", t.Name,
	}
	if v, ok := contextNumber(ev, "change_percent"); ok {
		pairs = append(pairs, "{change_percent}", helpers.FormatPercent(v))
	}
	if v, ok := contextNumber(ev, "rvol"); ok {
		pairs = append(pairs, "{rvol}", strconv.FormatFloat(v, 'f', 1, 64)+"x")
	}
	if v, ok := contextNumber(ev, "volume"); ok {
		pairs = append(pairs, "{volume}", helpers.FormatCompact(v))
	}

	return strings.NewReplacer(pairs...).Replace(tpl)
}

// contextNumber reads a numeric context field. Values arrive as float64
// after a stream round-trip but may still be native ints in-process.
func contextNumber(ev *market.EventRecord, key string) (float64, bool) {
	v, ok := ev.Context[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
