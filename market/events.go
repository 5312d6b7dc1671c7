package market

// EventType is the closed tag set of detectable market events. New tags
// append at the end; existing tags are never repurposed, so stored events
// deserialize forever.
type EventType string

const (
	// New extremes
	EventNewHigh        EventType = "NEW_HIGH"
	EventNewLow         EventType = "NEW_LOW"
	EventPreMarketHigh  EventType = "PRE_MARKET_HIGH"
	EventPreMarketLow   EventType = "PRE_MARKET_LOW"
	EventPostMarketHigh EventType = "POST_MARKET_HIGH"
	EventPostMarketLow  EventType = "POST_MARKET_LOW"
	EventHigh52W        EventType = "HIGH_52W"
	EventLow52W         EventType = "LOW_52W"

	// Level crossings (intraday 1-minute levels)
	EventVWAPCrossUp        EventType = "VWAP_CROSS_UP"
	EventVWAPCrossDown      EventType = "VWAP_CROSS_DOWN"
	EventOpenCrossUp        EventType = "OPEN_CROSS_UP"
	EventOpenCrossDown      EventType = "OPEN_CROSS_DOWN"
	EventPrevCloseCrossUp   EventType = "PREV_CLOSE_CROSS_UP"
	EventPrevCloseCrossDown EventType = "PREV_CLOSE_CROSS_DOWN"
	EventSMA8CrossUp        EventType = "SMA8_CROSS_UP"
	EventSMA8CrossDown      EventType = "SMA8_CROSS_DOWN"
	EventSMA20CrossUp       EventType = "SMA20_CROSS_UP"
	EventSMA20CrossDown     EventType = "SMA20_CROSS_DOWN"
	EventSMA50CrossUp       EventType = "SMA50_CROSS_UP"
	EventSMA50CrossDown     EventType = "SMA50_CROSS_DOWN"
	EventSMA200CrossUp      EventType = "SMA200_CROSS_UP"
	EventSMA200CrossDown    EventType = "SMA200_CROSS_DOWN"
	EventEMA20CrossUp       EventType = "EMA20_CROSS_UP"
	EventEMA20CrossDown     EventType = "EMA20_CROSS_DOWN"
	EventEMA50CrossUp       EventType = "EMA50_CROSS_UP"
	EventEMA50CrossDown     EventType = "EMA50_CROSS_DOWN"

	// Level crossings (daily moving averages)
	EventDailySMA20CrossUp    EventType = "DAILY_SMA20_CROSS_UP"
	EventDailySMA20CrossDown  EventType = "DAILY_SMA20_CROSS_DOWN"
	EventDailySMA50CrossUp    EventType = "DAILY_SMA50_CROSS_UP"
	EventDailySMA50CrossDown  EventType = "DAILY_SMA50_CROSS_DOWN"
	EventDailySMA200CrossUp   EventType = "DAILY_SMA200_CROSS_UP"
	EventDailySMA200CrossDown EventType = "DAILY_SMA200_CROSS_DOWN"

	// Bollinger band breaks
	EventBollingerBreakUp   EventType = "BOLLINGER_BREAK_UP"
	EventBollingerBreakDown EventType = "BOLLINGER_BREAK_DOWN"

	// Window thresholds
	EventRVOLSpike     EventType = "RVOL_SPIKE"
	EventVolumeSurge   EventType = "VOLUME_SURGE"
	EventUnusualPrints EventType = "UNUSUAL_PRINTS"
	EventBlockTrade    EventType = "BLOCK_TRADE"
	EventPercentUp5    EventType = "PERCENT_UP_5"
	EventPercentUp10   EventType = "PERCENT_UP_10"
	EventPercentDown5  EventType = "PERCENT_DOWN_5"
	EventPercentDown10 EventType = "PERCENT_DOWN_10"
	EventRunningUp     EventType = "RUNNING_UP"
	EventRunningDown   EventType = "RUNNING_DOWN"

	// Pullbacks: retrace of 25% or 75% of the move from an anchor to the
	// session extreme. The unsuffixed variants anchor at the opposite
	// intraday extreme; _OPEN anchors at day open, _CLOSE at previous close.
	EventPullback25FromHigh      EventType = "PULLBACK_25_FROM_HIGH"
	EventPullback75FromHigh      EventType = "PULLBACK_75_FROM_HIGH"
	EventPullback25FromHighOpen  EventType = "PULLBACK_25_FROM_HIGH_OPEN"
	EventPullback75FromHighOpen  EventType = "PULLBACK_75_FROM_HIGH_OPEN"
	EventPullback25FromHighClose EventType = "PULLBACK_25_FROM_HIGH_CLOSE"
	EventPullback75FromHighClose EventType = "PULLBACK_75_FROM_HIGH_CLOSE"
	EventPullback25FromLow       EventType = "PULLBACK_25_FROM_LOW"
	EventPullback75FromLow       EventType = "PULLBACK_75_FROM_LOW"
	EventPullback25FromLowOpen   EventType = "PULLBACK_25_FROM_LOW_OPEN"
	EventPullback75FromLowOpen   EventType = "PULLBACK_75_FROM_LOW_OPEN"
	EventPullback25FromLowClose  EventType = "PULLBACK_25_FROM_LOW_CLOSE"
	EventPullback75FromLowClose  EventType = "PULLBACK_75_FROM_LOW_CLOSE"

	// Gap reversals
	EventGapReversalUp   EventType = "GAP_REVERSAL_UP"
	EventGapReversalDown EventType = "GAP_REVERSAL_DOWN"

	// Trading halts
	EventHalt   EventType = "HALT"
	EventResume EventType = "RESUME"

	// Indicator crosses on 5-minute bars
	EventSMA8x20CrossUp5m    EventType = "SMA8X20_CROSS_UP_5M"
	EventSMA8x20CrossDown5m  EventType = "SMA8X20_CROSS_DOWN_5M"
	EventMACDCrossUp5m       EventType = "MACD_CROSS_UP_5M"
	EventMACDCrossDown5m     EventType = "MACD_CROSS_DOWN_5M"
	EventMACDZeroCrossUp5m   EventType = "MACD_ZERO_CROSS_UP_5M"
	EventMACDZeroCrossDown5m EventType = "MACD_ZERO_CROSS_DOWN_5M"
	EventStochOverbought5m   EventType = "STOCH_OVERBOUGHT_5M"
	EventStochOversold5m     EventType = "STOCH_OVERSOLD_5M"
	EventRSIOverbought5m     EventType = "RSI_OVERBOUGHT_5M"
	EventRSIOversold5m       EventType = "RSI_OVERSOLD_5M"

	// Range breakouts
	EventORBreakoutUp           EventType = "ORB_BREAKOUT_UP"
	EventORBreakoutDown         EventType = "ORB_BREAKOUT_DOWN"
	EventConsolidationBreakUp   EventType = "CONSOLIDATION_BREAKOUT_UP"
	EventConsolidationBreakDown EventType = "CONSOLIDATION_BREAKOUT_DOWN"

	// Deprecated 1-minute MA crosses. Kept so stored events deserialize;
	// no detector is registered for them and they are never emitted.
	EventSMA8x20CrossUp1m   EventType = "SMA8X20_CROSS_UP_1M"
	EventSMA8x20CrossDown1m EventType = "SMA8X20_CROSS_DOWN_1M"
	EventMACDCrossUp1m      EventType = "MACD_CROSS_UP_1M"
	EventMACDCrossDown1m    EventType = "MACD_CROSS_DOWN_1M"
)

// AllEventTypes lists every tag in the closed set, deprecated ones included.
var AllEventTypes = []EventType{
	EventNewHigh, EventNewLow,
	EventPreMarketHigh, EventPreMarketLow,
	EventPostMarketHigh, EventPostMarketLow,
	EventHigh52W, EventLow52W,
	EventVWAPCrossUp, EventVWAPCrossDown,
	EventOpenCrossUp, EventOpenCrossDown,
	EventPrevCloseCrossUp, EventPrevCloseCrossDown,
	EventSMA8CrossUp, EventSMA8CrossDown,
	EventSMA20CrossUp, EventSMA20CrossDown,
	EventSMA50CrossUp, EventSMA50CrossDown,
	EventSMA200CrossUp, EventSMA200CrossDown,
	EventEMA20CrossUp, EventEMA20CrossDown,
	EventEMA50CrossUp, EventEMA50CrossDown,
	EventDailySMA20CrossUp, EventDailySMA20CrossDown,
	EventDailySMA50CrossUp, EventDailySMA50CrossDown,
	EventDailySMA200CrossUp, EventDailySMA200CrossDown,
	EventBollingerBreakUp, EventBollingerBreakDown,
	EventRVOLSpike, EventVolumeSurge, EventUnusualPrints, EventBlockTrade,
	EventPercentUp5, EventPercentUp10, EventPercentDown5, EventPercentDown10,
	EventRunningUp, EventRunningDown,
	EventPullback25FromHigh, EventPullback75FromHigh,
	EventPullback25FromHighOpen, EventPullback75FromHighOpen,
	EventPullback25FromHighClose, EventPullback75FromHighClose,
	EventPullback25FromLow, EventPullback75FromLow,
	EventPullback25FromLowOpen, EventPullback75FromLowOpen,
	EventPullback25FromLowClose, EventPullback75FromLowClose,
	EventGapReversalUp, EventGapReversalDown,
	EventHalt, EventResume,
	EventSMA8x20CrossUp5m, EventSMA8x20CrossDown5m,
	EventMACDCrossUp5m, EventMACDCrossDown5m,
	EventMACDZeroCrossUp5m, EventMACDZeroCrossDown5m,
	EventStochOverbought5m, EventStochOversold5m,
	EventRSIOverbought5m, EventRSIOversold5m,
	EventORBreakoutUp, EventORBreakoutDown,
	EventConsolidationBreakUp, EventConsolidationBreakDown,
	EventSMA8x20CrossUp1m, EventSMA8x20CrossDown1m,
	EventMACDCrossUp1m, EventMACDCrossDown1m,
}

// deprecatedEventTypes can appear in stored data but are never produced.
var deprecatedEventTypes = map[EventType]bool{
	EventSMA8x20CrossUp1m:   true,
	EventSMA8x20CrossDown1m: true,
	EventMACDCrossUp1m:      true,
	EventMACDCrossDown1m:    true,
}

// IsDeprecated reports whether the tag is retained for stored-event
// compatibility only.
func (t EventType) IsDeprecated() bool {
	return deprecatedEventTypes[t]
}

// ValidEventType reports whether s is a member of the closed tag set.
func ValidEventType(s string) bool {
	for _, t := range AllEventTypes {
		if string(t) == s {
			return true
		}
	}
	return false
}
