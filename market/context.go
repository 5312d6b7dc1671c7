package market

// CaptureContext copies the deterministic scalar subset of a state into
// an event's context payload. The capture runs inside the engine's
// per-symbol serialized region, so the values are exactly the state
// that produced the fire. Zero and nil fields are omitted to keep
// stored rows compact.
func CaptureContext(st *TickerState) map[string]interface{} {
	ctx := make(map[string]interface{}, 48)

	putF := func(k string, v float64) {
		if v != 0 {
			ctx[k] = v
		}
	}
	putI := func(k string, v int64) {
		if v != 0 {
			ctx[k] = v
		}
	}
	putPF := func(k string, v *float64) {
		if v != nil {
			ctx[k] = *v
		}
	}
	putPI := func(k string, v *int64) {
		if v != nil {
			ctx[k] = *v
		}
	}
	putS := func(k, v string) {
		if v != "" {
			ctx[k] = v
		}
	}

	putF("change_percent", st.ChangePercent)
	putF("gap_percent", st.GapPercent)
	putF("rvol", st.RVOL)
	putI("volume", st.Volume)
	putF("vwap", st.VWAP)
	putF("atr", st.ATR)
	putF("atr_percent", st.ATRPercent)
	putF("rsi", st.RSI)
	putF("sma_8", st.SMA8)
	putF("sma_20", st.SMA20)
	putF("sma_50", st.SMA50)
	putF("sma_200", st.SMA200)
	putF("ema_20", st.EMA20)
	putF("ema_50", st.EMA50)
	putF("macd", st.MACD)
	putF("macd_signal", st.MACDSignal)
	putF("macd_hist", st.MACDHist)
	putF("bb_upper", st.BBUpper)
	putF("bb_middle", st.BBMiddle)
	putF("bb_lower", st.BBLower)
	putF("stoch_k", st.StochK)
	putF("stoch_d", st.StochD)
	putF("adx", st.ADX)
	putF("market_cap", st.MarketCap)
	putF("shares_float", st.SharesFloat)
	putS("sector", st.Sector)
	putS("industry", st.Industry)
	putS("security_type", st.SecurityType)
	putF("day_open", st.DayOpen)
	putF("day_high", st.DayHigh)
	putF("day_low", st.DayLow)
	putF("prev_close", st.PrevClose)
	putF("intraday_high", st.IntradayHigh)
	putF("intraday_low", st.IntradayLow)
	putF("high_52w", st.High52W)
	putF("low_52w", st.Low52W)
	putPF("change_1m_pct", st.Change1mPct)
	putPF("change_5m_pct", st.Change5mPct)
	putPF("change_10m_pct", st.Change10mPct)
	putPF("change_15m_pct", st.Change15mPct)
	putPF("change_30m_pct", st.Change30mPct)
	putPI("vol_1m", st.Vol1m)
	putPI("vol_5m", st.Vol5m)
	putPI("vol_10m", st.Vol10m)
	putPI("vol_15m", st.Vol15m)
	putPI("vol_30m", st.Vol30m)
	putI("trade_count", st.TradeCount)
	putS("session", string(st.Session))
	if st.Halted {
		ctx["halted"] = true
	}
	return ctx
}
