package scheduler

import (
	"context"
	"fmt"
	"time"

	"vantage/discovery"
	"vantage/provider"
	"vantage/signal"
	"vantage/state"
	"vantage/ta"
)

// ValidateTicker fetches a fresh quote for ticker without touching the
// watchlist or the store, for the API's "/api/validate-ticker" endpoint
// (spec.md §6) — operators use this to check a symbol is tradeable on the
// configured providers before adding it.
func (s *Scheduler) ValidateTicker(ctx context.Context, ticker string) (state.Quote, error) {
	normalized, ok := state.NormalizeTicker(ticker)
	if !ok {
		return state.Quote{}, fmt.Errorf("invalid ticker symbol %q", ticker)
	}
	if s.FanIn == nil {
		return state.Quote{}, fmt.Errorf("no data source configured")
	}
	ctx, cancel := context.WithTimeout(ctx, provider.DefaultTimeout)
	defer cancel()
	return s.FanIn.Source.Quote(ctx, normalized)
}

// ScanLowFloat runs the volatility-runner screener on demand, outside its
// normal WARM-tier cadence, for the API's "/api/scan-low-float" endpoint
// (spec.md §6). It funnels through the same Sink as the scheduled pass so a
// manually-triggered hit is tracked and auto-subscribed identically, and it
// returns every non-watchlist hit it tracked, whether or not the hit also
// clears the Sink's auto-setup gate.
func (s *Scheduler) ScanLowFloat(ctx context.Context, now time.Time) ([]state.Discovery, error) {
	if s.FanIn == nil || s.Sink == nil {
		return nil, fmt.Errorf("discovery pipeline not configured")
	}
	candidates, err := s.FanIn.Source.VolatilityCandidates(ctx)
	if err != nil {
		return nil, err
	}

	versions := s.Store.SignalVersions()
	vw := signal.ActiveWeights(versions)
	lossLimit := signal.ConsecutiveLossLimit(vw)

	var runner discovery.VolatilityRunner
	var tracked []state.Discovery
	for _, d := range runner.Run(candidates, now) {
		if s.isWatchlistOrBlacklisted(d.Ticker) {
			continue
		}
		s.Sink.Track(d, now, lossLimit)
		tracked = append(tracked, d)
		s.scoreDiscoveredTicker(ctx, d, versions, now)
	}
	return tracked, nil
}

// AutoEnterTicker forces a trade setup and paper-trade open for ticker on
// demand, for the API's "/api/options-paper/auto-enter/{ticker}" endpoint
// (spec.md §6). It scores ticker fresh (so a manual auto-enter never trades
// on a stale signal) and then reuses the same setup-building and
// consecutive-loss-guarded open path the scheduled loop uses, bypassing
// only the setup confidence gate (MinConfidenceForSetup) since this is an
// explicit operator request rather than an automated promotion.
func (s *Scheduler) AutoEnterTicker(ctx context.Context, ticker string, now time.Time) (*state.PaperTrade, error) {
	normalized, ok := state.NormalizeTicker(ticker)
	if !ok {
		return nil, fmt.Errorf("invalid ticker symbol %q", ticker)
	}
	if s.FanIn == nil {
		return nil, fmt.Errorf("no data source configured")
	}

	// A manual auto-enter refreshes every tier at once (COLD), since an
	// operator forcing an entry wants the fullest possible picture rather
	// than whatever the automated cycle's cadence happened to last fetch.
	if _, err := s.FanIn.RefreshTicker(ctx, normalized, COLD); err != nil {
		return nil, err
	}

	candles, ok := s.Store.Candles(normalized, "5m")
	if !ok || len(candles) < state.MinCandlesForTA {
		return nil, fmt.Errorf("insufficient candle history for %s", normalized)
	}
	tech := ta.Analyze(normalized, candles, now)
	s.Store.SetTechnicals(tech)
	if tech.InsufficientData {
		return nil, fmt.Errorf("insufficient data for %s", normalized)
	}

	quote, _ := s.Store.Quote(normalized)
	opts, _ := s.Store.OptionsFacts(normalized)
	market := s.Store.MarketFacts()
	regime := signal.DetermineRegime(tech.ADX, market.VIX, market.Tide)
	session := signal.SessionForTime(now)
	versions := s.Store.SignalVersions()

	in := signal.EvalInput{
		Ticker:  normalized,
		Quote:   quote,
		Tech:    tech,
		Options: opts,
		Market:  market,
		Regime:  regime,
		Session: session,
	}
	score := s.Engine.Score(in, versions, now)
	s.Store.SetSignalScore(score)

	if score.Direction == state.DirectionNeutral {
		return nil, fmt.Errorf("%s has no directional edge right now", normalized)
	}

	direction := state.DirectionLong
	if score.Direction == state.DirectionBearish {
		direction = state.DirectionShort
	}
	entry := quote.Last
	strikes := extractStrikes(opts)
	atrTarget, atrStop := signal.ATRTargetStop(direction, entry, tech.ATR)
	target1, target2, stop, snap := signal.SnapTargetsAndStop(direction, entry, atrTarget, atrStop, tech.Fibonacci, tech.Pivots, strikes)
	_, horizon := signal.HorizonProfile(session)
	mlConfidence, blended := s.blendConfidence(horizon, score.Confidence, score.Features)

	setup := state.TradeSetup{
		Ticker:        normalized,
		Direction:     direction,
		Entry:         entry,
		Target1:       target1,
		Target2:       target2,
		Stop:          stop,
		RiskReward:    riskReward(entry, target1, stop),
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

	vw := signal.ActiveWeights(versions)
	pt, opened := s.Journal.OpenPaperTrade(setup, now, versions.ActiveVersion, signal.ConsecutiveLossLimit(vw), s.PaperTradeCooldown)
	if !opened {
		return nil, fmt.Errorf("%s: blocked by cooldown, duplicate pending trade, or consecutive-loss guard", normalized)
	}
	if s.Notifier != nil {
		s.Notifier.NotifySetup(ctx, setup)
	}
	return pt, nil
}
