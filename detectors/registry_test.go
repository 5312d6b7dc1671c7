package detectors

import (
	"strings"
	"testing"
	"time"

	"github.com/Imaddindepf/tradeul-sub005/market"
)

func TestRegistryComposition(t *testing.T) {
	r := NewRegistry(Config{})

	if r.Len() != 80 {
		t.Fatalf("expected 80 registered rules, got %d", r.Len())
	}

	seen := make(map[string]bool)
	for _, rule := range r.Rules() {
		if !strings.HasPrefix(rule.ID, "event:system:") {
			t.Errorf("rule id %q missing the system prefix", rule.ID)
		}
		if seen[rule.ID] {
			t.Errorf("duplicate rule id %q", rule.ID)
		}
		seen[rule.ID] = true

		if len(rule.Detector.EventTypes()) == 0 {
			t.Errorf("rule %q declares no event types", rule.ID)
		}
		for _, typ := range rule.Detector.EventTypes() {
			if !market.ValidEventType(string(typ)) {
				t.Errorf("rule %q emits unknown type %q", rule.ID, typ)
			}
			if typ.IsDeprecated() {
				t.Errorf("rule %q emits deprecated type %q", rule.ID, typ)
			}
		}
	}
}

func TestRegistryCooldownFloor(t *testing.T) {
	r := NewRegistry(Config{DefaultCooldown: 120 * time.Second})

	vwap, ok := r.Lookup("event:system:vwap_cross_up")
	if !ok {
		t.Fatal("vwap_cross_up not registered")
	}
	if vwap.Cooldown != 120*time.Second {
		t.Errorf("expected floor to lift the cooldown to 120s, got %v", vwap.Cooldown)
	}

	rvol, ok := r.Lookup("event:system:rvol_spike_3x")
	if !ok {
		t.Fatal("rvol_spike_3x not registered")
	}
	if rvol.Cooldown != 300*time.Second {
		t.Errorf("expected declared 300s kept above the floor, got %v", rvol.Cooldown)
	}
}

func TestRegistryHaltRuleExemptFromCooldown(t *testing.T) {
	r := NewRegistry(Config{DefaultCooldown: 120 * time.Second})

	halt, ok := r.Lookup("event:system:halt_resume")
	if !ok {
		t.Fatal("halt_resume not registered")
	}
	if halt.Cooldown != 0 {
		t.Errorf("expected the halt state machine uncooled, got %v", halt.Cooldown)
	}
	types := halt.Detector.EventTypes()
	if len(types) != 2 || types[0] != market.EventHalt || types[1] != market.EventResume {
		t.Errorf("expected HALT and RESUME from one rule, got %v", types)
	}
}

func TestRegistryInitialSafety(t *testing.T) {
	r := NewRegistry(Config{})

	tests := []struct {
		id   string
		safe bool
	}{
		{"event:system:new_high", true},
		{"event:system:halt_resume", true},
		{"event:system:pullback_25_from_high", true},
		{"event:system:orb_breakout_up", true},
		{"event:system:vwap_cross_up", false},
		{"event:system:rvol_spike_3x", false},
		{"event:system:gap_reversal_up", false},
		{"event:system:macd_cross_up_5m", false},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			rule, ok := r.Lookup(tt.id)
			if !ok {
				t.Fatalf("rule %q not registered", tt.id)
			}
			if rule.Detector.InitialSafe() != tt.safe {
				t.Errorf("expected InitialSafe=%v", tt.safe)
			}
		})
	}
}

func TestRegistryEvaluationOrderStable(t *testing.T) {
	a := NewRegistry(Config{})
	b := NewRegistry(Config{})

	for i := range a.Rules() {
		if a.Rules()[i].ID != b.Rules()[i].ID {
			t.Fatalf("registration order differs at %d: %s vs %s", i, a.Rules()[i].ID, b.Rules()[i].ID)
		}
	}
}
