package detectors

import (
	"fmt"

	"github.com/Imaddindepf/tradeul-sub005/market"
)

// HaltTracker is the one real state machine in the set: ACTIVE and
// HALTED, transitioning on the snapshot halt flag. The rising edge
// emits HALT, the falling edge RESUME with the measured duration. Both
// edges come from the same rule so a cooldown can never swallow the
// RESUME that follows a short halt; the rule registers with cooldown
// zero for the same reason.
type HaltTracker struct {
	base
}

// NewHaltTracker builds the halt/resume state machine.
func NewHaltTracker() *HaltTracker { return &HaltTracker{} }

func (d *HaltTracker) EventTypes() []market.EventType {
	return []market.EventType{market.EventHalt, market.EventResume}
}

func (d *HaltTracker) InitialSafe() bool { return true }

func (d *HaltTracker) Evaluate(prev, curr *market.TickerState, memo *Memo) []market.EventRecord {
	ts := curr.Timestamp.Unix()

	if !memo.Seen {
		memo.Seen = true
		memo.Halted = curr.Halted
		if curr.Halted {
			// Joined mid-halt: report it, measure the duration from here.
			memo.HaltedAt = ts
			memo.Segment++
			ev := newEvent(market.EventHalt, curr, fmt.Sprintf("halt:%d", memo.Segment))
			ev.Details = map[string]interface{}{}
			return []market.EventRecord{ev}
		}
		return nil
	}

	switch {
	case curr.Halted && !memo.Halted:
		memo.Halted = true
		memo.HaltedAt = ts
		memo.Segment++
		ev := newEvent(market.EventHalt, curr, fmt.Sprintf("halt:%d", memo.Segment))
		ev.Details = map[string]interface{}{}
		return []market.EventRecord{ev}

	case !curr.Halted && memo.Halted:
		memo.Halted = false
		memo.Segment++
		ev := newEvent(market.EventResume, curr, fmt.Sprintf("resume:%d", memo.Segment))
		ev.Details = map[string]interface{}{
			"duration_seconds": ts - memo.HaltedAt,
		}
		return []market.EventRecord{ev}
	}
	return nil
}
