package detectors

import (
	"time"

	"github.com/Imaddindepf/tradeul-sub005/market"
)

// tick builds a minimal regular-session state for detector tests.
// Individual tests fill in the fields their detector reads.
func tick(symbol string, sec int64, price float64) *market.TickerState {
	return &market.TickerState{
		Symbol:    symbol,
		Timestamp: time.Unix(sec, 0).UTC(),
		Price:     price,
		Session:   market.SessionMarketOpen,
		Bar5m:     sec / 300,
	}
}
