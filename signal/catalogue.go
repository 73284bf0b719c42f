package signal

import (
	"time"

	"vantage/state"
)

// EarningsEnriched carries the earnings-surprise context consumed by the
// "Earnings Beat + Gap Up" signal (spec.md §8 scenario S2). It is populated
// by the data-source layer from whichever provider surfaces earnings
// surprise data and is not itself part of the persisted data model.
type EarningsEnriched struct {
	Beat               string  // "BEAT" | "MISS" | "INLINE" | ""
	SurprisePct        float64
	AfterHoursChangePct float64
}

// EvalInput bundles every fact an Evaluator may read. It is built once per
// ticker per cycle by the engine and passed by value to every evaluator.
type EvalInput struct {
	Ticker   string
	Quote    state.Quote
	Tech     state.Technicals
	Options  state.OptionsFacts
	Market   state.MarketFacts
	Tick     *state.TickSummary
	Regime   state.Regime
	Session  state.Session
	News     []state.NewsHeadline
	Earnings *EarningsEnriched
}

// Contribution is what an Evaluator produces: a directional vote (possibly
// "neutral" for an informational-only entry) and a detail string.
type Contribution struct {
	Direction state.Direction
	Detail    string
	// Informational signals fire with Direction == neutral and are still
	// recorded in the output (spec.md §4.4 "Output invariants"), but never
	// contribute to bull/bear weight.
}

// Evaluator is the signal catalogue's polymorphism point (spec.md §9):
// concrete indicators implement Evaluate over a shared EvalInput. Name must
// be stable — it is the lookup key into VersionWeights.Weights and the
// session-multiplier / regime-dampening tables.
type Evaluator interface {
	Name() string
	BaseWeight() float64
	Evaluate(in EvalInput) (Contribution, bool) // bool reports whether it fired at all
}

// simpleEvaluator adapts a plain function into an Evaluator, grounded on the
// teacher's preference for small composable functions over class hierarchies
// (decision/localfunc.go's local-function dispatch).
type simpleEvaluator struct {
	name string
	base float64
	fn   func(EvalInput) (Contribution, bool)
}

func (s simpleEvaluator) Name() string       { return s.name }
func (s simpleEvaluator) BaseWeight() float64 { return s.base }
func (s simpleEvaluator) Evaluate(in EvalInput) (Contribution, bool) { return s.fn(in) }

func eval(name string, base float64, fn func(EvalInput) (Contribution, bool)) Evaluator {
	return simpleEvaluator{name: name, base: base, fn: fn}
}

func bull(detail string) (Contribution, bool) { return Contribution{Direction: state.DirectionBullish, Detail: detail}, true }
func bear(detail string) (Contribution, bool) { return Contribution{Direction: state.DirectionBearish, Detail: detail}, true }
func info(detail string) (Contribution, bool) { return Contribution{Direction: state.DirectionNeutral, Detail: detail}, true }
func noFire() (Contribution, bool)            { return Contribution{}, false }

// DefaultCatalogue is the full ~60-entry signal catalogue (spec.md §4.4a),
// grouped by theme. Every evaluator is pure given its EvalInput.
func DefaultCatalogue() []Evaluator {
	var cat []Evaluator
	cat = append(cat, rsiSignals()...)
	cat = append(cat, emaMacdSignals()...)
	cat = append(cat, bollingerATRSignals()...)
	cat = append(cat, adxDivergenceSignals()...)
	cat = append(cat, patternSignals()...)
	cat = append(cat, optionsFlowSignals()...)
	cat = append(cat, darkPoolGammaSignals()...)
	cat = append(cat, fundamentalEventSignals()...)
	cat = append(cat, marketContextSignals()...)
	cat = append(cat, tickFlowSignals()...)
	return cat
}

// --- RSI family ---

func rsiSignals() []Evaluator {
	return []Evaluator{
		eval("rsi-oversold", 3, func(in EvalInput) (Contribution, bool) {
			if in.Tech.InsufficientData {
				return noFire()
			}
			if in.Tech.RSI <= 30 {
				// In a strong uptrend RSI>70 is continuation, not reversal
				// (spec.md §4.4a); symmetrically RSI<30 in a strong
				// downtrend is continuation rather than a bullish reversal.
				if in.Regime == state.RegimeTrendingDown && in.Tech.ADX.Strength == state.TrendStrong {
					return info("RSI oversold treated as downtrend continuation")
				}
				return bull("RSI Oversold")
			}
			return noFire()
		}),
		eval("rsi-overbought", 3, func(in EvalInput) (Contribution, bool) {
			if in.Tech.InsufficientData {
				return noFire()
			}
			if in.Tech.RSI >= 70 {
				if in.Regime == state.RegimeTrendingUp && in.Tech.ADX.Strength == state.TrendStrong {
					return info("RSI overbought treated as uptrend continuation")
				}
				return bear("RSI Overbought")
			}
			return noFire()
		}),
		eval("rsi-bullish-slope", 1, func(in EvalInput) (Contribution, bool) {
			if in.Tech.InsufficientData || in.Tech.RSISlope <= 1 {
				return noFire()
			}
			return bull("RSI Rising")
		}),
		eval("rsi-bearish-slope", 1, func(in EvalInput) (Contribution, bool) {
			if in.Tech.InsufficientData || in.Tech.RSISlope >= -1 {
				return noFire()
			}
			return bear("RSI Falling")
		}),
		eval("rsi-midline-cross-up", 1.5, func(in EvalInput) (Contribution, bool) {
			if in.Tech.InsufficientData || in.Tech.RSI < 50 || in.Tech.RSI > 55 {
				return noFire()
			}
			return bull("RSI Crossed Above 50")
		}),
		eval("rsi-midline-cross-down", 1.5, func(in EvalInput) (Contribution, bool) {
			if in.Tech.InsufficientData || in.Tech.RSI > 50 || in.Tech.RSI < 45 {
				return noFire()
			}
			return bear("RSI Crossed Below 50")
		}),
	}
}

// --- EMA / MACD family ---

func emaMacdSignals() []Evaluator {
	return []Evaluator{
		eval("ema-alignment-bull", 3, func(in EvalInput) (Contribution, bool) {
			if in.Tech.InsufficientData || in.Tech.EMABias != state.EMABullish {
				return noFire()
			}
			return bull("EMA Alignment Bullish (9>20>50)")
		}),
		// Regime-dampened (spec.md §4.4a): EMA alignment bear, MACD
		// negative, and RSI bearish are attenuated 0.25-0.4x when ranging.
		eval("ema-alignment-bear", 3, func(in EvalInput) (Contribution, bool) {
			if in.Tech.InsufficientData || in.Tech.EMABias != state.EMABearish {
				return noFire()
			}
			return bear("EMA Alignment Bearish (9<20<50)")
		}),
		eval("macd-positive", 2, func(in EvalInput) (Contribution, bool) {
			if in.Tech.InsufficientData || in.Tech.MACD.HistogramSuppressed || in.Tech.MACD.Histogram <= 0 {
				return noFire()
			}
			return bull("MACD Positive")
		}),
		eval("macd-negative", 2, func(in EvalInput) (Contribution, bool) {
			if in.Tech.InsufficientData || in.Tech.MACD.HistogramSuppressed || in.Tech.MACD.Histogram >= 0 {
				return noFire()
			}
			return bear("MACD Negative")
		}),
		eval("macd-acceleration-bull", 1, func(in EvalInput) (Contribution, bool) {
			if in.Tech.InsufficientData || in.Tech.MACDAcceleration <= 0 {
				return noFire()
			}
			return bull("MACD Accelerating Up")
		}),
		eval("macd-acceleration-bear", 1, func(in EvalInput) (Contribution, bool) {
			if in.Tech.InsufficientData || in.Tech.MACDAcceleration >= 0 {
				return noFire()
			}
			return bear("MACD Accelerating Down")
		}),
		eval("vwap-reclaim", 2, func(in EvalInput) (Contribution, bool) {
			if in.Tech.InsufficientData || in.Quote.Last <= in.Tech.VWAP {
				return noFire()
			}
			return bull("Price Reclaimed VWAP")
		}),
		eval("vwap-rejection", 2, func(in EvalInput) (Contribution, bool) {
			if in.Tech.InsufficientData || in.Quote.Last >= in.Tech.VWAP {
				return noFire()
			}
			return bear("Price Below VWAP")
		}),
	}
}

// --- Bollinger / ATR family ---

func bollingerATRSignals() []Evaluator {
	return []Evaluator{
		eval("bb-dip-buy-vol", 2, func(in EvalInput) (Contribution, bool) {
			if in.Tech.InsufficientData || in.Tech.Bollinger.Position > 0.1 || !in.Tech.VolumeSpike {
				return noFire()
			}
			return bull("BB Dip Buy (Vol)")
		}),
		eval("bb-top-fade-vol", 2, func(in EvalInput) (Contribution, bool) {
			if in.Tech.InsufficientData || in.Tech.Bollinger.Position < 0.9 || !in.Tech.VolumeSpike {
				return noFire()
			}
			return bear("BB Top Fade (Vol)")
		}),
		eval("bb-squeeze", 0, func(in EvalInput) (Contribution, bool) {
			if in.Tech.InsufficientData || in.Tech.Bollinger.Bandwidth >= 0.04 {
				return noFire()
			}
			return info("BB Squeeze (low volatility, watch for breakout)")
		}),
		eval("atr-expansion", 1, func(in EvalInput) (Contribution, bool) {
			if in.Tech.InsufficientData || in.Tech.ATRChange < 0.25 {
				return noFire()
			}
			if in.Tech.EMABias == state.EMABullish {
				return bull("ATR Expanding With Uptrend")
			}
			if in.Tech.EMABias == state.EMABearish {
				return bear("ATR Expanding With Downtrend")
			}
			return info("ATR Expanding, No Clear Direction")
		}),
		eval("volume-spike", 1.5, func(in EvalInput) (Contribution, bool) {
			if in.Tech.InsufficientData || !in.Tech.VolumeSpike {
				return noFire()
			}
			if in.Tech.VWAP > 0 && in.Quote.Last > in.Tech.VWAP {
				return bull("Volume Spike Above VWAP")
			}
			if in.Tech.VWAP > 0 && in.Quote.Last < in.Tech.VWAP {
				return bear("Volume Spike Below VWAP")
			}
			return info("Volume Spike")
		}),
	}
}

// --- ADX / divergence family ---

func adxDivergenceSignals() []Evaluator {
	return []Evaluator{
		eval("adx-strong-trend", 1.5, func(in EvalInput) (Contribution, bool) {
			if in.Tech.InsufficientData || in.Tech.ADX.Strength != state.TrendStrong && in.Tech.ADX.Strength != state.TrendExtreme {
				return noFire()
			}
			if in.Tech.ADX.PlusDI > in.Tech.ADX.MinusDI {
				return bull("ADX Strong Uptrend")
			}
			return bear("ADX Strong Downtrend")
		}),
		eval("rsi-divergence", 2.5, func(in EvalInput) (Contribution, bool) {
			if in.Tech.InsufficientData || len(in.Tech.Divergences) == 0 {
				return noFire()
			}
			d := in.Tech.Divergences[len(in.Tech.Divergences)-1]
			switch d.Type {
			case state.DivergenceRegularBull, state.DivergenceHiddenBull:
				return bull("RSI Divergence: " + d.Detail)
			default:
				return bear("RSI Divergence: " + d.Detail)
			}
		}),
		eval("fib-proximity", 1, func(in EvalInput) (Contribution, bool) {
			if in.Tech.InsufficientData || in.Tech.Fibonacci.SwingHigh == 0 {
				return noFire()
			}
			near, level := nearestFibLevel(in.Tech.Fibonacci, in.Quote.Last)
			if !near {
				return noFire()
			}
			if in.Tech.Fibonacci.Direction == "up" {
				return bull("Near Fibonacci Support " + level)
			}
			return bear("Near Fibonacci Resistance " + level)
		}),
		eval("pivot-breakout", 1.5, func(in EvalInput) (Contribution, bool) {
			if in.Tech.InsufficientData || in.Tech.Pivots.R1 == 0 || in.Quote.Last <= in.Tech.Pivots.R1 {
				return noFire()
			}
			return bull("Trading Above Pivot R1")
		}),
		eval("pivot-breakdown", 1.5, func(in EvalInput) (Contribution, bool) {
			if in.Tech.InsufficientData || in.Tech.Pivots.S1 == 0 || in.Quote.Last >= in.Tech.Pivots.S1 {
				return noFire()
			}
			return bear("Trading Below Pivot S1")
		}),
	}
}

// --- Candlestick pattern family ---

func patternSignals() []Evaluator {
	return []Evaluator{
		eval("candle-pattern", 2, func(in EvalInput) (Contribution, bool) {
			if in.Tech.InsufficientData || len(in.Tech.Patterns) == 0 {
				return noFire()
			}
			p := in.Tech.Patterns[len(in.Tech.Patterns)-1]
			if p.Direction == "bull" {
				return bull("Pattern: " + p.Name)
			}
			return bear("Pattern: " + p.Name)
		}),
	}
}

// --- Options flow / dark pool / gamma family ---

func optionsFlowSignals() []Evaluator {
	return []Evaluator{
		eval("call-put-premium-skew", 2.5, func(in EvalInput) (Contribution, bool) {
			ratio := callPutPremiumRatio(in.Options)
			if ratio == 0 {
				return noFire()
			}
			if ratio >= 1.5 {
				return bull("Call Premium Dominant")
			}
			if ratio <= 0.67 {
				return bear("Put Premium Dominant")
			}
			return noFire()
		}),
		eval("sweep-alert", 3, func(in EvalInput) (Contribution, bool) {
			for i := len(in.Options.FlowAlerts) - 1; i >= 0 && i >= len(in.Options.FlowAlerts)-3; i-- {
				a := in.Options.FlowAlerts[i]
				if a.Sweep && a.Premium >= 250000 {
					if a.Type == "call" {
						return bull("Aggressive Call Sweep")
					}
					return bear("Aggressive Put Sweep")
				}
			}
			return noFire()
		}),
		eval("iv-rank-extreme", 1, func(in EvalInput) (Contribution, bool) {
			if in.Options.IVRank1Y <= 0 {
				return noFire()
			}
			if in.Options.IVRank1Y >= 80 {
				return info("IV Rank Elevated (event risk priced in)")
			}
			return noFire()
		}),
		eval("iv-contango", 0, func(in EvalInput) (Contribution, bool) {
			if len(in.Options.VolTermStructure) < 2 {
				return noFire()
			}
			if in.Options.VolTermStructure[0].IV < in.Options.VolTermStructure[len(in.Options.VolTermStructure)-1].IV {
				return info("IV Contango")
			}
			return info("IV Backwardation (event risk near-dated)")
		}),
		eval("risk-reversal-skew", 1.5, func(in EvalInput) (Contribution, bool) {
			if in.Options.RiskReversalSkew == 0 {
				return noFire()
			}
			if in.Options.RiskReversalSkew > 0.05 {
				return bull("Call Skew (Risk Reversal)")
			}
			if in.Options.RiskReversalSkew < -0.05 {
				return bear("Put Skew (Risk Reversal)")
			}
			return noFire()
		}),
		eval("nope-scalar", 1.5, func(in EvalInput) (Contribution, bool) {
			if in.Options.NOPE == 0 {
				return noFire()
			}
			if in.Options.NOPE > 0.1 {
				return bull("NOPE Positive (dealer buy pressure)")
			}
			if in.Options.NOPE < -0.1 {
				return bear("NOPE Negative (dealer sell pressure)")
			}
			return noFire()
		}),
		eval("oi-change-bullish", 1, func(in EvalInput) (Contribution, bool) {
			if in.Options.OIChange <= 0.1 {
				return noFire()
			}
			return info("Open Interest Building")
		}),
		eval("net-premium-trend", 2, func(in EvalInput) (Contribution, bool) {
			pts := in.Options.NetPremiumSeries
			if len(pts) < 3 {
				return noFire()
			}
			delta := pts[len(pts)-1].NetPremium - pts[0].NetPremium
			if delta >= 100000 {
				return bull("Net Premium Rising")
			}
			if delta <= -100000 {
				return bear("Net Premium Falling")
			}
			return noFire()
		}),
		eval("flow-expiry-near-dated", 1, func(in EvalInput) (Contribution, bool) {
			flows := in.Options.FlowPerExpiry
			if len(flows) < 2 {
				return noFire()
			}
			var total, nearest float64
			for i, f := range flows {
				prem := f.CallPremium + f.PutPremium
				total += prem
				if i == 0 {
					nearest = prem
				}
			}
			if total <= 0 || nearest/total < 0.6 {
				return noFire()
			}
			return info("Near-Dated Flow Concentration (event positioning)")
		}),
		eval("strike-volume-magnet", 1, func(in EvalInput) (Contribution, bool) {
			if in.Quote.Last == 0 || len(in.Options.FlowPerStrike) == 0 {
				return noFire()
			}
			top := in.Options.FlowPerStrike[0]
			for _, f := range in.Options.FlowPerStrike[1:] {
				if f.Volume > top.Volume {
					top = f
				}
			}
			if top.Volume == 0 || absPct(in.Quote.Last, top.Strike) > 0.01 {
				return noFire()
			}
			return info("High-Volume Strike At Spot (magnet)")
		}),
		eval("iv-rich-vs-realized", 1, func(in EvalInput) (Contribution, bool) {
			if in.Options.RealizedVol <= 0 || len(in.Options.VolTermStructure) == 0 {
				return noFire()
			}
			ratio := in.Options.VolTermStructure[0].IV / in.Options.RealizedVol
			if ratio >= 1.4 {
				return info("Implied Rich vs Realized")
			}
			if ratio <= 0.7 {
				return info("Implied Cheap vs Realized")
			}
			return noFire()
		}),
	}
}

func darkPoolGammaSignals() []Evaluator {
	return []Evaluator{
		eval("gamma-wall-proximity", 2, func(in EvalInput) (Contribution, bool) {
			wall, ok := nearestGammaWall(in.Options, in.Quote.Last)
			if !ok {
				return noFire()
			}
			if wall.Strike > in.Quote.Last {
				return info("Gamma Wall Above (pin risk)")
			}
			return info("Gamma Wall Below (support)")
		}),
		eval("gamma-pin-near-spot", 0, func(in EvalInput) (Contribution, bool) {
			if in.Options.MaxPainStrike == 0 || in.Quote.Last == 0 {
				return noFire()
			}
			distPct := absPct(in.Quote.Last, in.Options.MaxPainStrike)
			if distPct > 0.01 {
				return noFire()
			}
			return info("Gamma Pin Near Spot (max pain)")
		}),
		eval("short-interest-squeeze", 2, func(in EvalInput) (Contribution, bool) {
			if in.Options.ShortInterestPct > 100 {
				// Invariant violation (spec.md §7): refuse to score, emit
				// neutral informational entry instead.
				return info("Short Interest Invalid (>100%), Signal Suppressed")
			}
			if in.Options.ShortInterestPct >= 20 {
				return bull("High Short Interest (Squeeze Risk)")
			}
			return noFire()
		}),
		eval("spot-gamma-sign", 1.5, func(in EvalInput) (Contribution, bool) {
			var total float64
			for _, p := range in.Options.GEXPerStrike {
				total += p.GEX
			}
			if total == 0 {
				return noFire()
			}
			if total > 0 {
				return info("Positive Gamma Regime (dealers dampen moves)")
			}
			return bear("Negative Gamma Regime (dealers amplify moves)")
		}),
		eval("max-pain-magnet", 1, func(in EvalInput) (Contribution, bool) {
			if in.Options.MaxPainStrike == 0 || in.Quote.Last == 0 {
				return noFire()
			}
			diff := (in.Options.MaxPainStrike - in.Quote.Last) / in.Quote.Last
			if diff >= 0.03 {
				return bull("Max Pain Above Spot (expiry pull up)")
			}
			if diff <= -0.03 {
				return bear("Max Pain Below Spot (expiry pull down)")
			}
			return noFire()
		}),
		eval("dealer-delta-tilt", 1, func(in EvalInput) (Contribution, bool) {
			d := in.Options.SpotGreeks.Delta
			if d >= 0.3 {
				return bull("Dealer Delta Long Tilt")
			}
			if d <= -0.3 {
				return bear("Dealer Delta Short Tilt")
			}
			return noFire()
		}),
	}
}

func fundamentalEventSignals() []Evaluator {
	return []Evaluator{
		eval("earnings-beat-gap-up", 4, func(in EvalInput) (Contribution, bool) {
			if in.Earnings == nil || in.Earnings.Beat != "BEAT" {
				return noFire()
			}
			if in.Earnings.SurprisePct >= 5 && in.Earnings.AfterHoursChangePct >= 2 {
				return bull("Earnings Beat + Gap Up")
			}
			return noFire()
		}),
		eval("earnings-miss-gap-down", 4, func(in EvalInput) (Contribution, bool) {
			if in.Earnings == nil || in.Earnings.Beat != "MISS" {
				return noFire()
			}
			if in.Earnings.SurprisePct <= -5 && in.Earnings.AfterHoursChangePct <= -2 {
				return bear("Earnings Miss + Gap Down")
			}
			return noFire()
		}),
		eval("news-sentiment", 1.5, func(in EvalInput) (Contribution, bool) {
			if len(in.News) == 0 {
				return noFire()
			}
			avg := averageSentiment(in.News)
			if avg >= 0.3 {
				return bull("Positive News Sentiment")
			}
			if avg <= -0.3 {
				return bear("Negative News Sentiment")
			}
			return noFire()
		}),
		eval("insider-buying", 1.5, func(in EvalInput) (Contribution, bool) {
			net := netInsiderValue(in.Market.InsiderTransactions, in.Ticker)
			if net > 0 {
				return bull("Net Insider Buying")
			}
			if net < 0 {
				return bear("Net Insider Selling")
			}
			return noFire()
		}),
		eval("congress-track-record", 1.5, func(in EvalInput) (Contribution, bool) {
			t, ok := latestCongressTrade(in.Market.CongressTrades, in.Ticker)
			if !ok || t.TrackRecord.TotalTrades < 5 {
				return noFire()
			}
			if t.TrackRecord.WinRate < 60 {
				return noFire()
			}
			if t.Type == "buy" {
				return bull("Congress Buy (Strong Track Record)")
			}
			return bear("Congress Sell (Strong Track Record)")
		}),
		eval("fda-catalyst-pending", 1, func(in EvalInput) (Contribution, bool) {
			for _, e := range in.Market.FDACalendar {
				if e.Ticker == in.Ticker {
					return info("FDA Catalyst Pending (binary event risk)")
				}
			}
			return noFire()
		}),
		eval("econ-event-imminent", 0, func(in EvalInput) (Contribution, bool) {
			if in.Quote.UpdatedAt.IsZero() {
				return noFire()
			}
			for _, e := range in.Market.EconCalendar {
				if e.Impact != "high" {
					continue
				}
				lead := e.Time.Sub(in.Quote.UpdatedAt)
				if lead >= 0 && lead <= 24*time.Hour {
					return info("High-Impact Econ Event Imminent")
				}
			}
			return noFire()
		}),
	}
}

func marketContextSignals() []Evaluator {
	return []Evaluator{
		eval("market-tide-bull", 1, func(in EvalInput) (Contribution, bool) {
			if in.Market.Tide.BullPremium <= in.Market.Tide.BearPremium {
				return noFire()
			}
			return bull("Market Tide Bullish")
		}),
		eval("market-tide-bear", 1, func(in EvalInput) (Contribution, bool) {
			if in.Market.Tide.BearPremium <= in.Market.Tide.BullPremium {
				return noFire()
			}
			return bear("Market Tide Bearish")
		}),
		eval("vix-spike-risk-off", 2, func(in EvalInput) (Contribution, bool) {
			if !in.Market.VIX.Spiking {
				return noFire()
			}
			return bear("VIX Spiking (Risk-Off)")
		}),
		eval("vix-elevated", 1, func(in EvalInput) (Contribution, bool) {
			if in.Market.VIX.Spiking || in.Market.VIX.Value < 25 {
				return noFire()
			}
			return info("VIX Elevated (defensive tape)")
		}),
		eval("etf-flow-tailwind", 1, func(in EvalInput) (Contribution, bool) {
			var net float64
			for _, f := range in.Market.ETFFlows {
				net += f.NetFlowUSD
			}
			if net >= 1e9 {
				return bull("Broad ETF Inflows (risk appetite)")
			}
			if net <= -1e9 {
				return bear("Broad ETF Outflows (de-risking)")
			}
			return noFire()
		}),
	}
}

func tickFlowSignals() []Evaluator {
	return []Evaluator{
		eval("tick-flow-imbalance", 2, func(in EvalInput) (Contribution, bool) {
			if in.Tick == nil || staleTick(*in.Tick) {
				return noFire()
			}
			if in.Tick.FlowImbalance >= 0.3 {
				return bull("Tick Flow Buy-Imbalanced")
			}
			if in.Tick.FlowImbalance <= -0.3 {
				return bear("Tick Flow Sell-Imbalanced")
			}
			return noFire()
		}),
		eval("large-block-pressure", 1.5, func(in EvalInput) (Contribution, bool) {
			if in.Tick == nil || staleTick(*in.Tick) {
				return noFire()
			}
			if in.Tick.LargeBlockBuys > in.Tick.LargeBlockSells*2 {
				return bull("Large Block Buy Pressure")
			}
			if in.Tick.LargeBlockSells > in.Tick.LargeBlockBuys*2 {
				return bear("Large Block Sell Pressure")
			}
			return noFire()
		}),
		eval("day-range-breakout", 1.5, func(in EvalInput) (Contribution, bool) {
			if in.Tick == nil || staleTick(*in.Tick) {
				return noFire()
			}
			if in.Tick.HighOfDay > 0 && in.Tick.LastPrice >= in.Tick.HighOfDay {
				return bull("New High of Day")
			}
			if in.Tick.LowOfDay > 0 && in.Tick.LastPrice <= in.Tick.LowOfDay {
				return bear("New Low of Day")
			}
			return noFire()
		}),
		eval("tick-vwap-stretch", 1, func(in EvalInput) (Contribution, bool) {
			if in.Tick == nil || staleTick(*in.Tick) || in.Tick.VWAP <= 0 {
				return noFire()
			}
			dev := (in.Tick.LastPrice - in.Tick.VWAP) / in.Tick.VWAP
			if dev >= 0.02 {
				return bear("Stretched Above VWAP (mean reversion)")
			}
			if dev <= -0.02 {
				return bull("Stretched Below VWAP (mean reversion)")
			}
			return noFire()
		}),
	}
}
