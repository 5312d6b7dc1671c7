// Package market defines the canonical per-symbol state and event types
// shared by the ingestor, detectors, engine, writer and trigger engine.
package market

import (
	"time"
)

// Session labels the trading session a snapshot belongs to.
type Session string

const (
	SessionPreMarket  Session = "PRE_MARKET"
	SessionMarketOpen Session = "MARKET_OPEN"
	SessionPostMarket Session = "POST_MARKET"
	SessionClosed     Session = "CLOSED"
)

// TickerState is the normalized per-symbol snapshot consumed by detectors.
// A state update replaces its predecessor atomically; detectors see either
// the full old state or the full new state, never a mix.
type TickerState struct {
	Symbol    string    `json:"symbol"`
	Timestamp time.Time `json:"timestamp"`

	// Core quote fields
	Price     float64 `json:"price"`
	Volume    int64   `json:"volume"` // cumulative day volume
	DayOpen   float64 `json:"day_open,omitempty"`
	DayHigh   float64 `json:"day_high,omitempty"`
	DayLow    float64 `json:"day_low,omitempty"`
	PrevClose float64 `json:"prev_close,omitempty"`
	VWAP      float64 `json:"vwap,omitempty"`

	// Intraday extremes, including pre/post-market prints
	IntradayHigh   float64 `json:"intraday_high,omitempty"`
	IntradayLow    float64 `json:"intraday_low,omitempty"`
	PreMarketHigh  float64 `json:"premarket_high,omitempty"`
	PreMarketLow   float64 `json:"premarket_low,omitempty"`
	PostMarketHigh float64 `json:"postmarket_high,omitempty"`
	PostMarketLow  float64 `json:"postmarket_low,omitempty"`
	High52W        float64 `json:"high_52w,omitempty"`
	Low52W         float64 `json:"low_52w,omitempty"`

	// Day statistics
	ChangePercent float64 `json:"change_percent,omitempty"`
	GapPercent    float64 `json:"gap_percent,omitempty"`
	RVOL          float64 `json:"rvol,omitempty"`
	ATR           float64 `json:"atr,omitempty"`
	ATRPercent    float64 `json:"atr_percent,omitempty"`
	TradeCount    int64   `json:"trade_count,omitempty"`

	// Last print, used by block-trade and unusual-print detection
	LastTradeSize     int64   `json:"last_trade_size,omitempty"`
	LastTradeNotional float64 `json:"last_trade_notional,omitempty"`
	TradeRate1m       float64 `json:"trades_1m,omitempty"`
	AvgTradeRate      float64 `json:"avg_trades_1m,omitempty"`
	AvgVolume1m       float64 `json:"avg_volume_1m,omitempty"`

	// Rolling windows, populated from the tracker. Nil means the lookback
	// could not be resolved under the freshness guard.
	Change1mPct  *float64 `json:"change_1m_pct,omitempty"`
	Change5mPct  *float64 `json:"change_5m_pct,omitempty"`
	Change10mPct *float64 `json:"change_10m_pct,omitempty"`
	Change15mPct *float64 `json:"change_15m_pct,omitempty"`
	Change30mPct *float64 `json:"change_30m_pct,omitempty"`
	Price5mAgo   *float64 `json:"price_5m_ago,omitempty"`
	Vol1m        *int64   `json:"vol_1m,omitempty"`
	Vol5m        *int64   `json:"vol_5m,omitempty"`
	Vol10m       *int64   `json:"vol_10m,omitempty"`
	Vol15m       *int64   `json:"vol_15m,omitempty"`
	Vol30m       *int64   `json:"vol_30m,omitempty"`

	// Intraday technicals (1-minute timeframe)
	RSI        float64 `json:"rsi,omitempty"`
	SMA8       float64 `json:"sma_8,omitempty"`
	SMA20      float64 `json:"sma_20,omitempty"`
	SMA50      float64 `json:"sma_50,omitempty"`
	SMA200     float64 `json:"sma_200,omitempty"`
	EMA20      float64 `json:"ema_20,omitempty"`
	EMA50      float64 `json:"ema_50,omitempty"`
	MACD       float64 `json:"macd,omitempty"`
	MACDSignal float64 `json:"macd_signal,omitempty"`
	MACDHist   float64 `json:"macd_hist,omitempty"`
	BBUpper    float64 `json:"bb_upper,omitempty"`
	BBMiddle   float64 `json:"bb_middle,omitempty"`
	BBLower    float64 `json:"bb_lower,omitempty"`
	StochK     float64 `json:"stoch_k,omitempty"`
	StochD     float64 `json:"stoch_d,omitempty"`
	ADX        float64 `json:"adx,omitempty"`

	// 5-minute timeframe technicals
	RSI5m        float64 `json:"rsi_5m,omitempty"`
	SMA8x5m      float64 `json:"sma_8_5m,omitempty"`
	SMA20x5m     float64 `json:"sma_20_5m,omitempty"`
	MACD5m       float64 `json:"macd_5m,omitempty"`
	MACDSignal5m float64 `json:"macd_signal_5m,omitempty"`
	MACDHist5m   float64 `json:"macd_hist_5m,omitempty"`
	StochK5m     float64 `json:"stoch_k_5m,omitempty"`
	StochD5m     float64 `json:"stoch_d_5m,omitempty"`

	// Daily technicals
	DailySMA20  float64 `json:"sma_20_daily,omitempty"`
	DailySMA50  float64 `json:"sma_50_daily,omitempty"`
	DailySMA200 float64 `json:"sma_200_daily,omitempty"`

	// Fundamentals and classification, consumed as-is from upstream
	MarketCap    float64 `json:"market_cap,omitempty"`
	SharesFloat  float64 `json:"shares_float,omitempty"`
	Sector       string  `json:"sector,omitempty"`
	Industry     string  `json:"industry,omitempty"`
	SecurityType string  `json:"security_type,omitempty"`

	Session Session `json:"session"`
	Halted  bool    `json:"halted"`

	// Opening-range boundaries when the upstream pre-computes them
	ORHigh float64 `json:"or_high,omitempty"`
	ORLow  float64 `json:"or_low,omitempty"`

	// Bar5m is the absolute 5-minute bar index of the snapshot timestamp,
	// used by bar-cross detectors to suppress intra-bar flapping.
	Bar5m int64 `json:"-"`

	// Raw is the original enriched field bag the state was extracted from.
	// Carried to the writer only; never broadcast.
	Raw map[string]interface{} `json:"-"`
}

// Unix returns the snapshot timestamp in unix seconds.
func (s *TickerState) Unix() int64 {
	return s.Timestamp.Unix()
}

// EventRecord is an immutable artifact describing a single detected event.
type EventRecord struct {
	ID           string                 `json:"id"`
	EventType    EventType              `json:"event_type"`
	RuleID       string                 `json:"rule_id"`
	Symbol       string                 `json:"symbol"`
	Timestamp    time.Time              `json:"ts"`
	Price        float64                `json:"price"`
	PrevValue    *float64               `json:"prev_value,omitempty"`
	NewValue     *float64               `json:"new_value,omitempty"`
	Delta        *float64               `json:"delta,omitempty"`
	DeltaPercent *float64               `json:"delta_percent,omitempty"`
	Session      Session                `json:"session,omitempty"`
	Context      map[string]interface{} `json:"context,omitempty"`
	Details      map[string]interface{} `json:"details,omitempty"`

	// Bucket keys the engine's duplicate suppression: events from the same
	// (symbol, rule, bucket) within the suppression window collapse to one.
	// Empty means every fire is a fresh bucket (new-extreme family).
	Bucket string `json:"-"`

	// Snapshot is the full enriched field bag at fire time, carried to the
	// writer but excluded from the broadcast payload.
	Snapshot map[string]interface{} `json:"-"`
}

// Ptr returns a pointer to v. Convenience for optional event fields.
func Ptr(v float64) *float64 { return &v }
