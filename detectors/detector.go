// Package detectors implements the event detector families evaluated by
// the engine on every per-symbol state transition: level crossings, new
// extremes, window thresholds, pullbacks, gap reversals, halt tracking,
// 5-minute indicator crosses and range breakouts.
package detectors

import (
	"github.com/Imaddindepf/tradeul-sub005/market"
)

// Detector evaluates one rule against a symbol's previous and current
// state. Detectors are pure with respect to shared state: the only thing
// they may mutate is the memo handed to them, which the engine keys by
// (symbol, rule) and never shares across detectors.
type Detector interface {
	// EventTypes lists the tags this detector may emit.
	EventTypes() []market.EventType

	// InitialSafe reports whether the detector may run on a symbol's
	// first-ever snapshot, when prev is nil. Edge detectors that compare
	// prev against curr are not initial-safe and are skipped on first
	// sight.
	InitialSafe() bool

	// Evaluate returns zero or more events for the prev -> curr
	// transition. prev is nil only for initial-safe detectors.
	Evaluate(prev, curr *market.TickerState, memo *Memo) []market.EventRecord

	// ResetSession clears the memo's session-scoped state at the start of
	// a new trading day.
	ResetSession(memo *Memo)
}

// Memo is the per-(symbol, rule) scratch state surviving between ticks.
// One flat struct serves every family; each detector touches only the
// fields its family documents.
type Memo struct {
	// Seen marks that the detector has observed at least one tick and
	// seeded its references.
	Seen bool

	// Extreme and Anchor serve the new-extreme and pullback families.
	Extreme float64
	Anchor  float64

	// Armed/Fired gate one-shot fires (pullback re-arm on new extreme,
	// once-per-session rules).
	Armed bool
	Fired bool

	// Direction holds a recorded sign: the opening gap for reversals.
	Direction int

	// Pending is a reversal cross awaiting its confirmation tick.
	Pending int

	// Halt state machine
	Halted   bool
	HaltedAt int64

	// Range state for the breakout family
	Frozen   bool
	BandHigh float64
	BandLow  float64
	BarHigh  float64
	BarLow   float64
	BarIndex int64
	Count    int

	// Segment counts fires to key deduplication buckets: each contiguous
	// direction segment or above-threshold interval gets a fresh bucket.
	Segment int64
}

// base supplies the wipe-everything session reset shared by most
// detectors.
type base struct{}

func (base) ResetSession(memo *Memo) {
	*memo = Memo{}
}

// newEvent fills the fields every family sets the same way. The engine
// assigns the id, rule id and context after admission.
func newEvent(typ market.EventType, st *market.TickerState, bucket string) market.EventRecord {
	return market.EventRecord{
		EventType: typ,
		Symbol:    st.Symbol,
		Timestamp: st.Timestamp,
		Price:     st.Price,
		Session:   st.Session,
		Bucket:    bucket,
		Snapshot:  st.Raw,
	}
}
