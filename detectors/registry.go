package detectors

import (
	"time"

	"github.com/Imaddindepf/tradeul-sub005/market"
)

// rulePrefix namespaces every rule id so trigger conditions and stored
// events can tell detector rules apart from user-defined sources.
const rulePrefix = "event:system:"

// Rule pairs a detector with its registry identity and effective
// cooldown. The engine keys memos, cooldowns and dedupe state by the
// rule id, so ids are stable across releases.
type Rule struct {
	ID       string
	Cooldown time.Duration
	Detector Detector
}

// Registry holds the rule set in registration order. Evaluation order
// within a symbol follows this order, which keeps per-symbol output
// deterministic.
type Registry struct {
	rules []Rule
	byID  map[string]int
}

// Config tunes registry construction.
type Config struct {
	// DefaultCooldown is the floor applied to every rule that declares a
	// nonzero cooldown. Zero-cooldown rules (the halt state machine) are
	// exempt: suppressing one edge of an edge pair corrupts the pair.
	DefaultCooldown time.Duration

	// OpeningRangeMinutes is the ORB freeze mark after the regular open.
	OpeningRangeMinutes int

	// ConsolidationBars is the consecutive tight-bar count a
	// consolidation needs before its breakout arms.
	ConsolidationBars int
}

func (c *Config) applyDefaults() {
	if c.DefaultCooldown <= 0 {
		c.DefaultCooldown = 60 * time.Second
	}
	if c.OpeningRangeMinutes <= 0 {
		c.OpeningRangeMinutes = 5
	}
	if c.ConsolidationBars <= 0 {
		c.ConsolidationBars = 3
	}
}

// Rules returns the rule set in registration order. Callers must not
// mutate it.
func (r *Registry) Rules() []Rule { return r.rules }

// Len reports the number of registered rules.
func (r *Registry) Len() int { return len(r.rules) }

// Lookup finds a rule by its full id.
func (r *Registry) Lookup(id string) (Rule, bool) {
	i, ok := r.byID[id]
	if !ok {
		return Rule{}, false
	}
	return r.rules[i], true
}

func (r *Registry) add(name string, cooldown time.Duration, d Detector) {
	r.byID[rulePrefix+name] = len(r.rules)
	r.rules = append(r.rules, Rule{
		ID:       rulePrefix + name,
		Cooldown: cooldown,
		Detector: d,
	})
}

// NewRegistry assembles the full production rule set: level crossings,
// session extremes, window thresholds, pullbacks, gap reversals, the
// halt state machine, 5-minute indicator crosses and range breakouts.
func NewRegistry(cfg Config) *Registry {
	cfg.applyDefaults()
	r := &Registry{byID: make(map[string]int)}

	cd := func(d time.Duration) time.Duration {
		if d < cfg.DefaultCooldown {
			return cfg.DefaultCooldown
		}
		return d
	}

	// Intraday level crossings. Levels drift with the feed, so each tick
	// compares against its own level value.
	levels := []struct {
		name  string
		typ   market.EventType
		up    bool
		level LevelFunc
	}{
		{"vwap_cross_up", market.EventVWAPCrossUp, true, func(st *market.TickerState) float64 { return st.VWAP }},
		{"vwap_cross_down", market.EventVWAPCrossDown, false, func(st *market.TickerState) float64 { return st.VWAP }},
		{"open_cross_up", market.EventOpenCrossUp, true, func(st *market.TickerState) float64 { return st.DayOpen }},
		{"open_cross_down", market.EventOpenCrossDown, false, func(st *market.TickerState) float64 { return st.DayOpen }},
		{"prev_close_cross_up", market.EventPrevCloseCrossUp, true, func(st *market.TickerState) float64 { return st.PrevClose }},
		{"prev_close_cross_down", market.EventPrevCloseCrossDown, false, func(st *market.TickerState) float64 { return st.PrevClose }},
		{"sma8_cross_up", market.EventSMA8CrossUp, true, func(st *market.TickerState) float64 { return st.SMA8 }},
		{"sma8_cross_down", market.EventSMA8CrossDown, false, func(st *market.TickerState) float64 { return st.SMA8 }},
		{"sma20_cross_up", market.EventSMA20CrossUp, true, func(st *market.TickerState) float64 { return st.SMA20 }},
		{"sma20_cross_down", market.EventSMA20CrossDown, false, func(st *market.TickerState) float64 { return st.SMA20 }},
		{"sma50_cross_up", market.EventSMA50CrossUp, true, func(st *market.TickerState) float64 { return st.SMA50 }},
		{"sma50_cross_down", market.EventSMA50CrossDown, false, func(st *market.TickerState) float64 { return st.SMA50 }},
		{"sma200_cross_up", market.EventSMA200CrossUp, true, func(st *market.TickerState) float64 { return st.SMA200 }},
		{"sma200_cross_down", market.EventSMA200CrossDown, false, func(st *market.TickerState) float64 { return st.SMA200 }},
		{"ema20_cross_up", market.EventEMA20CrossUp, true, func(st *market.TickerState) float64 { return st.EMA20 }},
		{"ema20_cross_down", market.EventEMA20CrossDown, false, func(st *market.TickerState) float64 { return st.EMA20 }},
		{"ema50_cross_up", market.EventEMA50CrossUp, true, func(st *market.TickerState) float64 { return st.EMA50 }},
		{"ema50_cross_down", market.EventEMA50CrossDown, false, func(st *market.TickerState) float64 { return st.EMA50 }},
		{"daily_sma20_cross_up", market.EventDailySMA20CrossUp, true, func(st *market.TickerState) float64 { return st.DailySMA20 }},
		{"daily_sma20_cross_down", market.EventDailySMA20CrossDown, false, func(st *market.TickerState) float64 { return st.DailySMA20 }},
		{"daily_sma50_cross_up", market.EventDailySMA50CrossUp, true, func(st *market.TickerState) float64 { return st.DailySMA50 }},
		{"daily_sma50_cross_down", market.EventDailySMA50CrossDown, false, func(st *market.TickerState) float64 { return st.DailySMA50 }},
		{"daily_sma200_cross_up", market.EventDailySMA200CrossUp, true, func(st *market.TickerState) float64 { return st.DailySMA200 }},
		{"daily_sma200_cross_down", market.EventDailySMA200CrossDown, false, func(st *market.TickerState) float64 { return st.DailySMA200 }},
		{"bollinger_break_up", market.EventBollingerBreakUp, true, func(st *market.TickerState) float64 { return st.BBUpper }},
		{"bollinger_break_down", market.EventBollingerBreakDown, false, func(st *market.TickerState) float64 { return st.BBLower }},
	}
	for _, l := range levels {
		r.add(l.name, cd(60*time.Second), NewLevelCross(l.typ, l.up, l.level))
	}

	// Session extremes.
	r.add("new_high", cd(60*time.Second), NewHighTracker(market.EventNewHigh,
		func(st *market.TickerState) float64 { return st.IntradayHigh }, ""))
	r.add("new_low", cd(60*time.Second), NewLowTracker(market.EventNewLow,
		func(st *market.TickerState) float64 { return st.IntradayLow }, ""))
	r.add("premarket_high", cd(60*time.Second), NewHighTracker(market.EventPreMarketHigh,
		func(st *market.TickerState) float64 { return st.PreMarketHigh }, market.SessionPreMarket))
	r.add("premarket_low", cd(60*time.Second), NewLowTracker(market.EventPreMarketLow,
		func(st *market.TickerState) float64 { return st.PreMarketLow }, market.SessionPreMarket))
	r.add("postmarket_high", cd(60*time.Second), NewHighTracker(market.EventPostMarketHigh,
		func(st *market.TickerState) float64 { return st.PostMarketHigh }, market.SessionPostMarket))
	r.add("postmarket_low", cd(60*time.Second), NewLowTracker(market.EventPostMarketLow,
		func(st *market.TickerState) float64 { return st.PostMarketLow }, market.SessionPostMarket))
	r.add("high_52w", cd(300*time.Second), NewHighTracker(market.EventHigh52W,
		func(st *market.TickerState) float64 { return st.High52W }, ""))
	r.add("low_52w", cd(300*time.Second), NewLowTracker(market.EventLow52W,
		func(st *market.TickerState) float64 { return st.Low52W }, ""))

	// Window thresholds. Tiers of the same signal share an event tag and
	// differ by rule id and threshold.
	r.add("rvol_spike_3x", cd(300*time.Second), NewWindowThreshold(market.EventRVOLSpike, 3, true, RVOLMetric))
	r.add("rvol_spike_5x", cd(300*time.Second), NewWindowThreshold(market.EventRVOLSpike, 5, true, RVOLMetric))
	r.add("rvol_spike_10x", cd(300*time.Second), NewWindowThreshold(market.EventRVOLSpike, 10, true, RVOLMetric))
	r.add("volume_surge_5x", cd(300*time.Second), NewWindowThreshold(market.EventVolumeSurge, 5, true, VolumeSurgeMetric))
	r.add("volume_surge_10x", cd(300*time.Second), NewWindowThreshold(market.EventVolumeSurge, 10, true, VolumeSurgeMetric))
	r.add("unusual_prints", cd(300*time.Second), NewWindowThreshold(market.EventUnusualPrints, 5, true, PrintRateMetric))
	r.add("unusual_prints_extreme", cd(300*time.Second), NewWindowThreshold(market.EventUnusualPrints, 10, true, PrintRateMetric))
	r.add("block_trade", cd(60*time.Second), NewWindowThreshold(market.EventBlockTrade, 1_000_000, true, NotionalMetric))
	r.add("block_trade_xl", cd(60*time.Second), NewWindowThreshold(market.EventBlockTrade, 5_000_000, true, NotionalMetric))
	r.add("percent_up_5", cd(300*time.Second), NewWindowThreshold(market.EventPercentUp5, 5, true, ChangePercentMetric))
	r.add("percent_up_10", cd(300*time.Second), NewWindowThreshold(market.EventPercentUp10, 10, true, ChangePercentMetric))
	r.add("percent_down_5", cd(300*time.Second), NewWindowThreshold(market.EventPercentDown5, -5, false, ChangePercentMetric))
	r.add("percent_down_10", cd(300*time.Second), NewWindowThreshold(market.EventPercentDown10, -10, false, ChangePercentMetric))
	r.add("running_up_3", cd(300*time.Second), NewWindowThreshold(market.EventRunningUp, 3, true, Change10mMetric))
	r.add("running_up_5", cd(300*time.Second), NewWindowThreshold(market.EventRunningUp, 5, true, Change10mMetric))
	r.add("running_down_3", cd(300*time.Second), NewWindowThreshold(market.EventRunningDown, -3, false, Change10mMetric))
	r.add("running_down_5", cd(300*time.Second), NewWindowThreshold(market.EventRunningDown, -5, false, Change10mMetric))

	// Pullbacks: {25%, 75%} x {from high, from low} x three anchors.
	intradayLow := func(st *market.TickerState) float64 { return st.IntradayLow }
	intradayHigh := func(st *market.TickerState) float64 { return st.IntradayHigh }
	dayOpen := func(st *market.TickerState) float64 { return st.DayOpen }
	prevClose := func(st *market.TickerState) float64 { return st.PrevClose }

	r.add("pullback_25_from_high", cd(300*time.Second), NewPullback(market.EventPullback25FromHigh, true, 0.25, intradayLow))
	r.add("pullback_75_from_high", cd(300*time.Second), NewPullback(market.EventPullback75FromHigh, true, 0.75, intradayLow))
	r.add("pullback_25_from_high_open", cd(300*time.Second), NewPullback(market.EventPullback25FromHighOpen, true, 0.25, dayOpen))
	r.add("pullback_75_from_high_open", cd(300*time.Second), NewPullback(market.EventPullback75FromHighOpen, true, 0.75, dayOpen))
	r.add("pullback_25_from_high_close", cd(300*time.Second), NewPullback(market.EventPullback25FromHighClose, true, 0.25, prevClose))
	r.add("pullback_75_from_high_close", cd(300*time.Second), NewPullback(market.EventPullback75FromHighClose, true, 0.75, prevClose))
	r.add("pullback_25_from_low", cd(300*time.Second), NewPullback(market.EventPullback25FromLow, false, 0.25, intradayHigh))
	r.add("pullback_75_from_low", cd(300*time.Second), NewPullback(market.EventPullback75FromLow, false, 0.75, intradayHigh))
	r.add("pullback_25_from_low_open", cd(300*time.Second), NewPullback(market.EventPullback25FromLowOpen, false, 0.25, dayOpen))
	r.add("pullback_75_from_low_open", cd(300*time.Second), NewPullback(market.EventPullback75FromLowOpen, false, 0.75, dayOpen))
	r.add("pullback_25_from_low_close", cd(300*time.Second), NewPullback(market.EventPullback25FromLowClose, false, 0.25, prevClose))
	r.add("pullback_75_from_low_close", cd(300*time.Second), NewPullback(market.EventPullback75FromLowClose, false, 0.75, prevClose))

	// Gap reversals.
	r.add("gap_reversal_up", cd(900*time.Second), NewGapReversal(market.EventGapReversalUp, true))
	r.add("gap_reversal_down", cd(900*time.Second), NewGapReversal(market.EventGapReversalDown, false))

	// Halt state machine: cooldown-exempt so RESUME always follows HALT.
	r.add("halt_resume", 0, NewHaltTracker())

	// 5-minute indicator crosses.
	r.add("sma8x20_cross_up_5m", cd(300*time.Second), NewBarCross(market.EventSMA8x20CrossUp5m, true, SMA8x5mMetric, SMA20x5mMetric))
	r.add("sma8x20_cross_down_5m", cd(300*time.Second), NewBarCross(market.EventSMA8x20CrossDown5m, false, SMA8x5mMetric, SMA20x5mMetric))
	r.add("macd_cross_up_5m", cd(300*time.Second), NewBarCross(market.EventMACDCrossUp5m, true, MACD5mMetric, MACDSignal5mMetric))
	r.add("macd_cross_down_5m", cd(300*time.Second), NewBarCross(market.EventMACDCrossDown5m, false, MACD5mMetric, MACDSignal5mMetric))
	r.add("macd_zero_cross_up_5m", cd(300*time.Second), NewBarCross(market.EventMACDZeroCrossUp5m, true, MACD5mMetric, ConstLevel(0)))
	r.add("macd_zero_cross_down_5m", cd(300*time.Second), NewBarCross(market.EventMACDZeroCrossDown5m, false, MACD5mMetric, ConstLevel(0)))
	r.add("stoch_overbought_5m", cd(300*time.Second), NewBarCross(market.EventStochOverbought5m, true, StochK5mMetric, ConstLevel(80)))
	r.add("stoch_oversold_5m", cd(300*time.Second), NewBarCross(market.EventStochOversold5m, false, StochK5mMetric, ConstLevel(20)))
	r.add("rsi_overbought_5m", cd(300*time.Second), NewBarCross(market.EventRSIOverbought5m, true, RSI5mMetric, ConstLevel(70)))
	r.add("rsi_oversold_5m", cd(300*time.Second), NewBarCross(market.EventRSIOversold5m, false, RSI5mMetric, ConstLevel(30)))

	// Range breakouts.
	r.add("orb_breakout_up", cd(900*time.Second), NewOpeningRangeBreakout(market.EventORBreakoutUp, true, cfg.OpeningRangeMinutes))
	r.add("orb_breakout_down", cd(900*time.Second), NewOpeningRangeBreakout(market.EventORBreakoutDown, false, cfg.OpeningRangeMinutes))
	r.add("consolidation_breakout_up", cd(900*time.Second), NewConsolidationBreakout(market.EventConsolidationBreakUp, true, cfg.ConsolidationBars, 0.5))
	r.add("consolidation_breakout_down", cd(900*time.Second), NewConsolidationBreakout(market.EventConsolidationBreakDown, false, cfg.ConsolidationBars, 0.5))

	return r
}
