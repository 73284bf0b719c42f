package scheduler

import (
	"context"
	"math"
	"sort"
	"time"

	"vantage/logger"
	"vantage/ml"
	"vantage/provider"
	"vantage/signal"
	"vantage/state"
	"vantage/ta"
)

// maxSetupSignals caps how many of a SignalScore's contributions are copied
// onto a TradeSetup's Signals display list — the full contribution list can
// run to dozens of entries, most of them noise once the top few have
// established direction.
const maxSetupSignals = 6

// scoreStage recomputes technicals and a signal score for every watched
// ticker, folds in this cycle's news/earnings context, and generates a
// TradeSetup (and, if gating clears, a paper trade) for any ticker whose
// confidence and direction warrant one.
func (s *Scheduler) scoreStage(tickers []string, contexts map[string]provider.TickerContext, session state.Session, now time.Time) {
	market := s.Store.MarketFacts()
	versions := s.Store.SignalVersions()
	vw := signal.ActiveWeights(versions)

	for _, ticker := range tickers {
		candles, ok := s.Store.Candles(ticker, provider.CandleTimeframe)
		if !ok {
			continue
		}
		tech := ta.Analyze(ticker, candles, now)
		s.Store.SetTechnicals(tech)
		if tech.InsufficientData {
			continue
		}

		quote, _ := s.Store.Quote(ticker)
		opts, _ := s.Store.OptionsFacts(ticker)
		regime := signal.DetermineRegime(tech.ADX, market.VIX, market.Tide)

		var tick *state.TickSummary
		if ts, ok := s.Store.TickSummary(ticker); ok {
			tick = &ts
		}

		in := signal.EvalInput{
			Ticker:   ticker,
			Quote:    quote,
			Tech:     tech,
			Options:  opts,
			Market:   market,
			Tick:     tick,
			Regime:   regime,
			Session:  session,
			News:     newsFor(ticker, market, contexts),
			Earnings: earningsFor(ticker, contexts),
		}

		score := s.Engine.Score(in, versions, now)
		s.Store.SetSignalScore(score)

		s.maybeBuildSetup(ticker, score, tech, opts, quote, versions, vw, session, now)
	}
}

// newsFor combines market-wide headlines tagged for ticker with whatever
// ticker-scoped headlines this cycle's fetch returned.
func newsFor(ticker string, market state.MarketFacts, contexts map[string]provider.TickerContext) []state.NewsHeadline {
	var out []state.NewsHeadline
	for _, n := range market.News {
		if n.Ticker == ticker {
			out = append(out, n)
		}
	}
	if contexts != nil {
		out = append(out, contexts[ticker].News...)
	}
	return out
}

func earningsFor(ticker string, contexts map[string]provider.TickerContext) *signal.EarningsEnriched {
	if contexts == nil {
		return nil
	}
	rep := contexts[ticker].Earnings
	if rep == nil {
		return nil
	}
	return &signal.EarningsEnriched{
		Beat:                rep.Beat,
		SurprisePct:         rep.SurprisePct,
		AfterHoursChangePct: rep.AfterHoursChangePct,
	}
}

// maybeBuildSetup derives a TradeSetup from score once it clears the
// version's confidence gate, blends in the ML calibrator's estimate, and
// attempts to open a paper trade once the blended confidence also clears
// the gate (spec.md §4.4c, §4.6).
func (s *Scheduler) maybeBuildSetup(ticker string, score state.SignalScore, tech state.Technicals, opts state.OptionsFacts, quote state.Quote, versions state.SignalVersionConfig, vw state.VersionWeights, session state.Session, now time.Time) {
	minConf := signal.MinConfidenceForSetup(vw)
	if score.Confidence < minConf || score.Direction == state.DirectionNeutral {
		return
	}

	direction := state.DirectionLong
	if score.Direction == state.DirectionBearish {
		direction = state.DirectionShort
	}

	entry := quote.Last
	strikes := extractStrikes(opts)
	atrTarget, atrStop := signal.ATRTargetStop(direction, entry, tech.ATR)
	target1, target2, stop, snap := signal.SnapTargetsAndStop(direction, entry, atrTarget, atrStop, tech.Fibonacci, tech.Pivots, strikes)
	rr := riskReward(entry, target1, stop)

	_, horizon := signal.HorizonProfile(session)

	mlConfidence, blended := s.blendConfidence(horizon, score.Confidence, score.Features)

	setup := state.TradeSetup{
		Ticker:        ticker,
		Direction:     direction,
		Entry:         entry,
		Target1:       target1,
		Target2:       target2,
		Stop:          stop,
		RiskReward:    rr,
		Horizon:       horizon,
		ATRMultiplier: tech.ATR,
		Confidence: state.TradeConfidence{
			Technical: score.Confidence,
			ML:        mlConfidence,
			Blended:   blended,
		},
		Signals:   topSignalNames(score.Signals),
		Structure: &snap,
	}
	s.Store.SetTradeSetup(setup)
	s.Journal.LogSetup(setup, score, now)

	if setup.Confidence.Blended < minConf {
		return
	}

	pt, opened := s.Journal.OpenPaperTrade(setup, now, versions.ActiveVersion, signal.ConsecutiveLossLimit(vw), s.PaperTradeCooldown)
	if !opened {
		logger.Debugf("scheduler: auto entry refused for %s %s (duplicate pending, cooldown, or loss streak)",
			ticker, direction)
		return
	}
	if s.Notifier != nil {
		s.Notifier.NotifySetup(context.Background(), setup)
		_ = pt
	}
}

// blendConfidence reads the horizon-appropriate classifier's prediction (if
// trained) and blends it with the rule engine's technical confidence.
func (s *Scheduler) blendConfidence(horizon state.Horizon, technical int, features [state.FeatureCount]float64) (mlConfidence, blended int) {
	if s.ML == nil {
		return 0, technical
	}
	prob, ok := s.ML.Predict(horizon, features)
	if !ok {
		return 0, technical
	}
	samples := trainedSamplesFor(s.ML, horizon)
	return int(prob * 100), ml.BlendConfidence(technical, prob, samples)
}

// trainedSamplesFor mirrors ml's internal horizon-class bucketing (scalp,
// day, day-volatile, intraday train the faster classifier; swing and
// extended-hours train the slower one) since that split is unexported.
func trainedSamplesFor(c *ml.Classifier, horizon state.Horizon) int {
	switch horizon {
	case state.HorizonScalp, state.HorizonDay, state.HorizonDayVolatile, state.HorizonIntraday:
		return c.DayTrade.Samples
	default:
		return c.Swing.Samples
	}
}

func extractStrikes(o state.OptionsFacts) []float64 {
	seen := make(map[float64]bool)
	var out []float64
	add := func(strike float64) {
		if strike == 0 || seen[strike] {
			return
		}
		seen[strike] = true
		out = append(out, strike)
	}
	for _, p := range o.GEXPerStrike {
		add(p.Strike)
	}
	for _, f := range o.FlowPerStrike {
		add(f.Strike)
	}
	return out
}

// riskReward computes the reward:risk ratio for a target/stop pair.
func riskReward(entry, target1, stop float64) float64 {
	risk := math.Abs(entry - stop)
	if risk == 0 {
		return 0
	}
	return math.Abs(target1-entry) / risk
}

func topSignalNames(signals []state.SignalContribution) []string {
	// Score.Signals preserves catalogue evaluation order, so rank a copy
	// by weight before taking the display subset.
	ranked := make([]state.SignalContribution, len(signals))
	copy(ranked, signals)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Weight > ranked[j].Weight })

	n := len(ranked)
	if n > maxSetupSignals {
		n = maxSetupSignals
	}
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, ranked[i].Name)
	}
	return out
}
