package scheduler

import (
	"context"
	"time"

	"vantage/discovery"
	"vantage/logger"
	"vantage/metrics"
	"vantage/signal"
	"vantage/state"
	"vantage/ta"
)

// discoveryStage runs the cycle-driven discovery producers — scanner,
// volatility runner, gap analyzer (spec.md §4.7; halt-resume has its own
// poller goroutine, see RunHaltPoller) — against freshly-fetched screener
// feeds, funnels every surfaced candidate through the shared Sink, and
// fully scores any ticker the Sink tracks so it enters the normal scoring
// loop on the very next cycle. It also runs the 15-minute expiry sweep.
func (s *Scheduler) discoveryStage(ctx context.Context, now time.Time) {
	if s.FanIn == nil || s.Sink == nil {
		return
	}
	source := s.FanIn.Source

	versions := s.Store.SignalVersions()
	vw := signal.ActiveWeights(versions)
	lossLimit := signal.ConsecutiveLossLimit(vw)

	var tracked []state.Discovery

	if candidates, err := source.ScanCandidates(ctx); err != nil {
		logger.Warnf("scheduler: scanner candidates fetch failed: %v", err)
	} else {
		for _, d := range s.scanner.Run(candidates, now) {
			if !s.isWatchlistOrBlacklisted(d.Ticker) && s.Sink.Track(d, now, lossLimit) {
				tracked = append(tracked, d)
			}
		}
	}

	if candidates, err := source.VolatilityCandidates(ctx); err != nil {
		logger.Warnf("scheduler: volatility candidates fetch failed: %v", err)
	} else {
		for _, d := range s.volatility.Run(candidates, now) {
			if !s.isWatchlistOrBlacklisted(d.Ticker) && s.Sink.Track(d, now, lossLimit) {
				tracked = append(tracked, d)
			}
		}
	}

	if candidates, err := source.GapCandidates(ctx); err != nil {
		logger.Warnf("scheduler: gap candidates fetch failed: %v", err)
	} else {
		for _, d := range s.gap.Run(candidates, now) {
			if !s.isWatchlistOrBlacklisted(d.Ticker) && s.Sink.Track(d, now, lossLimit) {
				tracked = append(tracked, d)
			}
		}
	}

	s.processTracked(ctx, tracked, versions, now)

	expiredDiscoveries, expiredSubs := discovery.Sweep(s.Store, now)
	if len(expiredDiscoveries) > 0 || len(expiredSubs) > 0 {
		logger.Debugf("scheduler: swept %d expired discoveries, %d expired subscriptions",
			len(expiredDiscoveries), len(expiredSubs))
	}
	for _, t := range expiredSubs {
		if s.Tick != nil {
			s.Tick.Unsubscribe(t)
		}
	}
}

// processTracked runs the shared post-discovery pipeline for every newly
// tracked ticker: full scoring, metrics, alerting, and the sqlite
// performance ledger.
func (s *Scheduler) processTracked(ctx context.Context, tracked []state.Discovery, versions state.SignalVersionConfig, now time.Time) {
	for _, d := range tracked {
		s.scoreDiscoveredTicker(ctx, d, versions, now)
		metrics.RecordDiscovery(string(d.Source))
		if s.Notifier != nil {
			s.Notifier.NotifyDiscovery(ctx, d)
		}
		if s.SQLStore != nil {
			if err := s.SQLStore.RecordDiscovery(d); err != nil {
				logger.Warnf("scheduler: failed to record discovery performance row for %s: %v", d.Ticker, err)
			}
		}
	}
}

// RunHaltPoller drives the halt-resume producer on its own fixed 60s
// cadence, independent of the refresh cycle (spec.md §5 "continuous
// subscribers"), so a halt resuming during a quiet overnight interval is
// still caught within a minute rather than waiting for the next WARM cycle.
func (s *Scheduler) RunHaltPoller(ctx context.Context) {
	ticker := time.NewTicker(discovery.HaltResumePollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.pollHalts(ctx, now)
		}
	}
}

// pollHalts fetches the halt feed once and funnels any halted -> resumed
// transition through the shared sink and post-discovery pipeline. Unlike
// the other producers, halt-resume candidates bypass the watchlist filter
// (scenario: a watched ticker halting and resuming is still alert-worthy;
// it just never re-enters the watchlist, which it is already on).
func (s *Scheduler) pollHalts(ctx context.Context, now time.Time) {
	if s.FanIn == nil || s.Sink == nil || !s.halt.Poll(now) {
		return
	}
	events, err := s.FanIn.Source.HaltEvents(ctx)
	if err != nil {
		logger.Warnf("scheduler: halt events fetch failed: %v", err)
		return
	}

	versions := s.Store.SignalVersions()
	lossLimit := signal.ConsecutiveLossLimit(signal.ActiveWeights(versions))

	var tracked []state.Discovery
	for _, d := range s.halt.Run(events, now) {
		if s.Sink.Track(d, now, lossLimit) {
			tracked = append(tracked, d)
		}
	}
	s.processTracked(ctx, tracked, versions, now)
}

// isWatchlistOrBlacklisted keeps the discovery producers from re-surfacing
// a ticker the scheduler already scores every cycle as part of the
// watchlist (spec.md §4.7 "Filters out watchlist tickers"). Halt-resume
// candidates are exempt per scenario S3 ("does NOT enter the watchlist" —
// it is scored and alerted regardless of watchlist membership).
func (s *Scheduler) isWatchlistOrBlacklisted(ticker string) bool {
	return s.Store.IsWatched(ticker)
}

// scoreDiscoveredTicker runs the full technical+signal scoring pass for a
// freshly-discovered ticker using whatever quote/candle/options data the
// FanIn single-ticker refresh can retrieve immediately, so a discovery is
// never left with only its producer's crude confidence estimate.
func (s *Scheduler) scoreDiscoveredTicker(ctx context.Context, d state.Discovery, versions state.SignalVersionConfig, now time.Time) {
	if s.Tick != nil {
		s.Tick.Subscribe(d.Ticker)
	}

	// A freshly discovered ticker has no prior cycle's WARM/COLD fields
	// sitting in the store, so its first refresh pulls every tier at once
	// rather than waiting up to 15 cycles for a complete options picture.
	tc, err := s.FanIn.RefreshTicker(ctx, d.Ticker, COLD)
	if err != nil {
		logger.Warnf("scheduler: discovery refresh failed for %s: %v", d.Ticker, err)
		return
	}

	candles, ok := s.Store.Candles(d.Ticker, "5m")
	if !ok {
		return
	}
	tech := ta.Analyze(d.Ticker, candles, now)
	s.Store.SetTechnicals(tech)
	if tech.InsufficientData {
		return
	}

	quote, _ := s.Store.Quote(d.Ticker)
	opts, _ := s.Store.OptionsFacts(d.Ticker)
	market := s.Store.MarketFacts()
	regime := signal.DetermineRegime(tech.ADX, market.VIX, market.Tide)
	session := signal.SessionForTime(now)

	in := signal.EvalInput{
		Ticker:  d.Ticker,
		Quote:   quote,
		Tech:    tech,
		Options: opts,
		Market:  market,
		Regime:  regime,
		Session: session,
		News:    tc.News,
	}
	if tc.Earnings != nil {
		in.Earnings = &signal.EarningsEnriched{
			Beat:                tc.Earnings.Beat,
			SurprisePct:         tc.Earnings.SurprisePct,
			AfterHoursChangePct: tc.Earnings.AfterHoursChangePct,
		}
	}

	score := s.Engine.Score(in, versions, now)
	s.Store.SetSignalScore(score)

	vw := signal.ActiveWeights(versions)
	s.maybeBuildSetup(d.Ticker, score, tech, opts, quote, versions, vw, session, now)
}
