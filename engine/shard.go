package engine

import (
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/Imaddindepf/tradeul-sub005/detectors"
	"github.com/Imaddindepf/tradeul-sub005/market"
	"github.com/Imaddindepf/tradeul-sub005/metrics"
)

// shard owns the mutable per-symbol state for its slice of the symbol
// space: detector memos, dedupe buckets and cooldown stamps. Only the
// shard's own goroutine touches them, which is what makes detector
// evaluation race-free without locks.
type shard struct {
	id    int
	eng   *Engine
	in    chan *market.TickerState
	reset chan struct{}

	// symbol -> one memo slot per registry rule, allocated lazily
	memos  map[string][]*detectors.Memo
	dedupe map[string]int64 // symbol|rule|bucket -> last admit, unix ms
	cool   map[string]int64 // symbol|rule -> last fire, unix sec
}

func newShard(e *Engine, id int) *shard {
	return &shard{
		id:     id,
		eng:    e,
		in:     make(chan *market.TickerState, e.cfg.QueueSize),
		reset:  make(chan struct{}, 1),
		memos:  make(map[string][]*detectors.Memo),
		dedupe: make(map[string]int64),
		cool:   make(map[string]int64),
	}
}

func (sh *shard) run() {
	for {
		select {
		case st, ok := <-sh.in:
			if !ok {
				return
			}
			sh.process(st)
		case <-sh.reset:
			sh.resetDay()
		}
	}
}

// process is the per-symbol serialized region: tracker update, window
// attachment, detection, admission and fan-out all happen here, in
// arrival order for the symbol.
func (sh *shard) process(st *market.TickerState) {
	e := sh.eng

	prev, ok := e.deps.Cache.Get(st.Symbol)
	if ok && st.Timestamp.Before(prev.Timestamp) {
		metrics.SnapshotsOutOfOrder.Inc()
		return
	}
	if !ok && e.deps.Cache.AtCapacity(st.Symbol) {
		metrics.SnapshotsRefused.Inc()
		return
	}

	e.deps.Tracker.Update(st.Symbol, st.Price, st.Volume, st.Timestamp.Unix())
	sh.attachWindows(st)

	events := sh.detect(prev, st)
	e.deps.Cache.Put(st)

	for i := range events {
		e.publish(&events[i])
	}
}

// attachWindows folds the tracker's rolling readings into the state so
// detectors and the context capture see them as plain fields.
func (sh *shard) attachWindows(st *market.TickerState) {
	pc := sh.eng.deps.Tracker.PriceChanges(st.Symbol)
	st.Change1mPct = pc.Change1m
	st.Change5mPct = pc.Change5m
	st.Change10mPct = pc.Change10m
	st.Change15mPct = pc.Change15m
	st.Change30mPct = pc.Change30m
	st.Price5mAgo = pc.Price5mAgo

	vw := sh.eng.deps.Tracker.VolumeWindows(st.Symbol)
	st.Vol1m = vw.Vol1m
	st.Vol5m = vw.Vol5m
	st.Vol10m = vw.Vol10m
	st.Vol15m = vw.Vol15m
	st.Vol30m = vw.Vol30m
}

func (sh *shard) detect(prev, curr *market.TickerState) []market.EventRecord {
	var out []market.EventRecord
	rules := sh.eng.deps.Registry.Rules()
	for i := range rules {
		rule := &rules[i]
		if prev == nil && !rule.Detector.InitialSafe() {
			continue
		}
		memo := sh.memo(curr.Symbol, i, len(rules))
		evs := sh.evalRule(rule, prev, curr, memo)
		for j := range evs {
			ev := &evs[j]
			if !sh.admit(ev, rule) {
				continue
			}
			sh.finalize(ev, rule, curr)
			out = append(out, *ev)
		}
	}
	return out
}

func (sh *shard) memo(symbol string, idx, rules int) *detectors.Memo {
	slots := sh.memos[symbol]
	if slots == nil {
		slots = make([]*detectors.Memo, rules)
		sh.memos[symbol] = slots
	}
	if slots[idx] == nil {
		slots[idx] = &detectors.Memo{}
	}
	return slots[idx]
}

// evalRule isolates one detector: a panic is logged and counted, the
// remaining detectors still run.
func (sh *shard) evalRule(rule *detectors.Rule, prev, curr *market.TickerState, memo *detectors.Memo) (evs []market.EventRecord) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("⚠️ Detector %s panicked on %s: %v", rule.ID, curr.Symbol, r)
			metrics.DetectorErrors.WithLabelValues(rule.ID).Inc()
			evs = nil
		}
	}()
	return rule.Detector.Evaluate(prev, curr, memo)
}

// admit applies bucket deduplication then the rule cooldown. Suppressed
// matches do not advance the cooldown stamp; only fires do.
func (sh *shard) admit(ev *market.EventRecord, rule *detectors.Rule) bool {
	if ev.Bucket != "" {
		key := ev.Symbol + "|" + rule.ID + "|" + ev.Bucket
		if last, ok := sh.dedupe[key]; ok && ev.Timestamp.UnixMilli()-last < sh.eng.cfg.DedupeWindow.Milliseconds() {
			metrics.EventsDeduplicated.Inc()
			return false
		}
		sh.dedupe[key] = ev.Timestamp.UnixMilli()
	}
	if rule.Cooldown > 0 {
		key := ev.Symbol + "|" + rule.ID
		if last, ok := sh.cool[key]; ok && ev.Timestamp.Unix()-last < int64(rule.Cooldown/time.Second) {
			metrics.EventsCooldownSuppressed.Inc()
			return false
		}
		sh.cool[key] = ev.Timestamp.Unix()
	}
	return true
}

func (sh *shard) finalize(ev *market.EventRecord, rule *detectors.Rule, curr *market.TickerState) {
	ev.ID = uuid.NewString()
	ev.RuleID = rule.ID
	if ev.Session == "" {
		ev.Session = curr.Session
	}
	ev.Context = market.CaptureContext(curr)
}

// resetDay runs each rule's session reset over the shard's memos and
// forgets suppression state from the finished day.
func (sh *shard) resetDay() {
	rules := sh.eng.deps.Registry.Rules()
	for _, slots := range sh.memos {
		for i, m := range slots {
			if m != nil {
				rules[i].Detector.ResetSession(m)
			}
		}
	}
	sh.dedupe = make(map[string]int64)
	sh.cool = make(map[string]int64)
	log.Printf("🧹 Shard %d reset %d symbols for the new session", sh.id, len(sh.memos))
}
