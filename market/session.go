package market

import (
	"time"
)

// US equity session hours (Eastern Time)
const (
	PreMarketOpenHour   = 4  // 04:00 ET
	MarketOpenHour      = 9  // 09:30 ET
	MarketOpenMinute    = 30
	MarketCloseHour     = 16 // 16:00 ET
	PostMarketCloseHour = 20 // 20:00 ET
	MarketTimeZone      = "America/New_York"
)

// marketLocation resolves the exchange timezone once; the fixed-offset
// fallback ignores DST but keeps the service running without tzdata.
func marketLocation() *time.Location {
	loc, err := time.LoadLocation(MarketTimeZone)
	if err != nil {
		return time.FixedZone("ET", -5*60*60)
	}
	return loc
}

// SessionAt derives the trading session for an instant. Used when the
// upstream field bag carries no session tag.
func SessionAt(t time.Time) Session {
	et := t.In(marketLocation())

	if et.Weekday() == time.Saturday || et.Weekday() == time.Sunday {
		return SessionClosed
	}

	minutes := et.Hour()*60 + et.Minute()
	switch {
	case minutes < PreMarketOpenHour*60:
		return SessionClosed
	case minutes < MarketOpenHour*60+MarketOpenMinute:
		return SessionPreMarket
	case minutes < MarketCloseHour*60:
		return SessionMarketOpen
	case minutes < PostMarketCloseHour*60:
		return SessionPostMarket
	default:
		return SessionClosed
	}
}

// SessionOpen returns the regular-session open (09:30 ET) of the trading
// day containing t. Used by the opening-range detectors.
func SessionOpen(t time.Time) time.Time {
	et := t.In(marketLocation())
	return time.Date(et.Year(), et.Month(), et.Day(), MarketOpenHour, MarketOpenMinute, 0, 0, et.Location())
}

// TradingDay returns the YYYY-MM-DD key of the trading day containing t,
// in exchange time. A new key marks the boundary where session extremes,
// rolling windows and detector memos reset.
func TradingDay(t time.Time) string {
	return t.In(marketLocation()).Format("2006-01-02")
}

// ParseSession maps an upstream session tag onto the closed session set.
// Unknown tags fall back to time-derived classification.
func ParseSession(tag string, ts time.Time) Session {
	switch Session(tag) {
	case SessionPreMarket, SessionMarketOpen, SessionPostMarket, SessionClosed:
		return Session(tag)
	default:
		return SessionAt(ts)
	}
}
