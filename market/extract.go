package market

import (
	"encoding/json"
	"fmt"
	"time"
)

// Canonical extraction from the upstream enriched field bag. The bag is a
// ~90-field map per symbol: nested quote objects (day, min, prevDay,
// lastTrade) plus flat pre-computed analytics. Only the fields below are
// consumed for detection; everything else rides along in Raw and ends up
// in the writer's context payload.

// ExtractState normalizes one field bag into a TickerState. It returns an
// error for invalid rows: empty symbol, or no positive price under any of
// the known fallback paths.
func ExtractState(symbol string, bag map[string]interface{}, now time.Time) (*TickerState, error) {
	if symbol == "" {
		return nil, fmt.Errorf("empty symbol")
	}

	// price: lastTrade.p -> day.c -> prevDay.c
	price := nestedNum(bag, "lastTrade", "p")
	if price <= 0 {
		price = nestedNum(bag, "day", "c")
	}
	if price <= 0 {
		price = nestedNum(bag, "prevDay", "c")
	}
	if price <= 0 {
		return nil, fmt.Errorf("no positive price for %s", symbol)
	}

	// volume: min.av -> day.v -> 0
	volume := int64(nestedNum(bag, "min", "av"))
	if volume <= 0 {
		volume = int64(nestedNum(bag, "day", "v"))
	}
	if volume < 0 {
		volume = 0
	}

	ts := extractTimestamp(bag, now)

	st := &TickerState{
		Symbol:    symbol,
		Timestamp: ts,
		Price:     price,
		Volume:    volume,

		DayOpen:   nestedNum(bag, "day", "o"),
		DayHigh:   nestedNum(bag, "day", "h"),
		DayLow:    nestedNum(bag, "day", "l"),
		PrevClose: nestedNum(bag, "prevDay", "c"),
		VWAP:      num(bag, "vwap"),

		IntradayHigh:   num(bag, "intraday_high"),
		IntradayLow:    num(bag, "intraday_low"),
		PreMarketHigh:  num(bag, "premarket_high"),
		PreMarketLow:   num(bag, "premarket_low"),
		PostMarketHigh: num(bag, "postmarket_high"),
		PostMarketLow:  num(bag, "postmarket_low"),
		High52W:        num(bag, "high_52w"),
		Low52W:         num(bag, "low_52w"),

		ChangePercent: num(bag, "change_percent"),
		GapPercent:    num(bag, "gap_percent"),
		RVOL:          num(bag, "rvol"),
		ATR:           num(bag, "atr"),
		ATRPercent:    num(bag, "atr_percent"),
		TradeCount:    int64(num(bag, "trade_count")),

		LastTradeSize: int64(nestedNum(bag, "lastTrade", "s")),
		TradeRate1m:   num(bag, "trades_1m"),
		AvgTradeRate:  num(bag, "avg_trades_1m"),
		AvgVolume1m:   num(bag, "avg_volume_1m"),

		RSI:        num(bag, "rsi"),
		SMA8:       num(bag, "sma_8"),
		SMA20:      num(bag, "sma_20"),
		SMA50:      num(bag, "sma_50"),
		SMA200:     num(bag, "sma_200"),
		EMA20:      num(bag, "ema_20"),
		EMA50:      num(bag, "ema_50"),
		MACD:       num(bag, "macd"),
		MACDSignal: num(bag, "macd_signal"),
		MACDHist:   num(bag, "macd_hist"),
		BBUpper:    num(bag, "bb_upper"),
		BBMiddle:   num(bag, "bb_middle"),
		BBLower:    num(bag, "bb_lower"),
		StochK:     num(bag, "stoch_k"),
		StochD:     num(bag, "stoch_d"),
		ADX:        num(bag, "adx"),

		RSI5m:        num(bag, "rsi_5m"),
		SMA8x5m:      num(bag, "sma_8_5m"),
		SMA20x5m:     num(bag, "sma_20_5m"),
		MACD5m:       num(bag, "macd_5m"),
		MACDSignal5m: num(bag, "macd_signal_5m"),
		MACDHist5m:   num(bag, "macd_hist_5m"),
		StochK5m:     num(bag, "stoch_k_5m"),
		StochD5m:     num(bag, "stoch_d_5m"),

		DailySMA20:  num(bag, "sma_20_daily"),
		DailySMA50:  num(bag, "sma_50_daily"),
		DailySMA200: num(bag, "sma_200_daily"),

		MarketCap:    num(bag, "market_cap"),
		SharesFloat:  num(bag, "shares_float"),
		Sector:       str(bag, "sector"),
		Industry:     str(bag, "industry"),
		SecurityType: str(bag, "security_type"),

		Session: ParseSession(str(bag, "session"), ts),
		Halted:  boolean(bag, "halted"),

		ORHigh: num(bag, "or_high"),
		ORLow:  num(bag, "or_low"),

		Bar5m: ts.Unix() / 300,
		Raw:   bag,
	}

	if st.LastTradeSize > 0 {
		st.LastTradeNotional = float64(st.LastTradeSize) * price
	}

	// Derive what the upstream left blank where the inputs allow it.
	if st.IntradayHigh == 0 {
		st.IntradayHigh = st.DayHigh
	}
	if st.IntradayLow == 0 {
		st.IntradayLow = st.DayLow
	}
	if st.ChangePercent == 0 && st.PrevClose > 0 {
		st.ChangePercent = (price - st.PrevClose) / st.PrevClose * 100
	}
	if st.GapPercent == 0 && st.PrevClose > 0 && st.DayOpen > 0 {
		st.GapPercent = (st.DayOpen - st.PrevClose) / st.PrevClose * 100
	}
	if st.ATRPercent == 0 && st.ATR > 0 {
		st.ATRPercent = st.ATR / price * 100
	}

	return st, nil
}

// extractTimestamp prefers the snapshot's own clock: "updated" in epoch
// nanoseconds, then the last trade time, then the receive time.
func extractTimestamp(bag map[string]interface{}, now time.Time) time.Time {
	if ns := num(bag, "updated"); ns > 0 {
		return time.Unix(0, int64(ns)).UTC()
	}
	if ns := nestedNum(bag, "lastTrade", "t"); ns > 0 {
		return time.Unix(0, int64(ns)).UTC()
	}
	return now.UTC()
}

func num(bag map[string]interface{}, key string) float64 {
	v, ok := bag[key]
	if !ok {
		return 0
	}
	return toFloat(v)
}

func nestedNum(bag map[string]interface{}, outer, inner string) float64 {
	v, ok := bag[outer]
	if !ok {
		return 0
	}
	m, ok := v.(map[string]interface{})
	if !ok {
		return 0
	}
	return toFloat(m[inner])
}

func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		f, _ := n.Float64()
		return f
	default:
		return 0
	}
}

func str(bag map[string]interface{}, key string) string {
	if v, ok := bag[key].(string); ok {
		return v
	}
	return ""
}

func boolean(bag map[string]interface{}, key string) bool {
	switch v := bag[key].(type) {
	case bool:
		return v
	case string:
		return v == "true" || v == "T" || v == "1"
	case float64:
		return v != 0
	default:
		return false
	}
}
