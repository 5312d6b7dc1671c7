package app

import (
	"log"
	"time"

	"github.com/Imaddindepf/tradeul-sub005/market"
)

// dayResetter is the slice of the engine the watcher drives.
type dayResetter interface {
	ResetDay()
}

// SessionWatcher fires the trading-day rollover: when a new exchange day
// enters PRE_MARKET, the rolling windows and detector memos from the
// previous day are cleared. Checks every 30 seconds.
type SessionWatcher struct {
	engine dayResetter
	done   chan bool

	// lastReset is the trading-day key of the most recent rollover.
	lastReset string
}

// NewSessionWatcher creates a watcher over the given engine. The watcher
// starts with today's key so a mid-day restart does not wipe state.
func NewSessionWatcher(engine dayResetter) *SessionWatcher {
	return &SessionWatcher{
		engine:    engine,
		done:      make(chan bool),
		lastReset: market.TradingDay(time.Now()),
	}
}

// Start runs the watcher loop. Call in a goroutine.
func (w *SessionWatcher) Start() {
	log.Println("🕐 Session watcher started")
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.check(time.Now())
		case <-w.done:
			return
		}
	}
}

// Stop stops the watcher loop.
func (w *SessionWatcher) Stop() {
	close(w.done)
}

// check triggers the reset on the first PRE_MARKET observation of a new
// trading day. Weekends and overnight hours pass through untouched.
func (w *SessionWatcher) check(now time.Time) {
	if market.SessionAt(now) != market.SessionPreMarket {
		return
	}
	day := market.TradingDay(now)
	if day == w.lastReset {
		return
	}
	log.Printf("🌅 New trading day %s", day)
	w.lastReset = day
	w.engine.ResetDay()
}
