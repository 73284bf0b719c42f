// Package scheduler drives the single refresh/score/trade cycle that is
// vantage's heartbeat (spec.md §4.1): fetch market data, recompute
// technicals, score every watched ticker, blend in the ML calibrator,
// generate and manage paper trades, run the discovery producers, and
// persist state — all on a cadence tied to the current trading session.
//
// The outer loop is grounded on the teacher's AutoTrader scan loop
// (trader/auto_trader.go: time.NewTicker + select over the ticker channel
// and a stop channel), generalized from one fixed interval to the spec's
// session-dependent RefreshInterval.
package scheduler

import (
	"context"
	"time"

	"vantage/config"
	"vantage/discovery"
	"vantage/journal"
	"vantage/logger"
	"vantage/metrics"
	"vantage/ml"
	"vantage/provider"
	"vantage/signal"
	"vantage/state"
)

// Notifier is the scheduler's outbound-alert dependency, implemented by
// package notify's Notifier. Declared here, at the point of use, so
// scheduler never imports notify (notify sits above scheduler in the
// dependency order) — cmd wires the concrete implementation in.
type Notifier interface {
	NotifyDiscovery(ctx context.Context, d state.Discovery)
	NotifySetup(ctx context.Context, setup state.TradeSetup)
	NotifyTradeClosed(ctx context.Context, pt state.PaperTrade)
	SendDailyBrief(ctx context.Context, brief state.DailyBrief)
	ResetBrief()
}

// Broadcaster is the scheduler's push-to-websocket dependency, implemented
// by package api's hub.
type Broadcaster interface {
	Broadcast(event string, payload interface{})
}

// Scheduler owns every moving part of one refresh/score/trade cycle.
type Scheduler struct {
	Store   *state.Store
	FanIn   *provider.FanIn
	Tick    *provider.TickSubscriber
	Engine  *signal.Engine
	ML      *ml.Classifier
	Journal *journal.Journal
	Sink    *discovery.Sink
	Config  *config.Config
	Layout  state.Layout

	// SQLStore is optional; a nil SQLStore simply skips the sqlite rollup
	// writes (spec.md §12 is a supplemented feature, not a hard
	// dependency of the core loop).
	SQLStore *state.SQLStore

	// Notifier and Broadcaster are optional; either may be nil.
	Notifier    Notifier
	Broadcaster Broadcaster

	// PaperTradeCooldown is the minimum gap between closing a trade on a
	// ticker and auto-opening a new one in the same direction (spec.md
	// §4.6 "paperTrade(setup, entryPrice, cooldownMs, ...)"), passed
	// through to every Journal.OpenPaperTrade call this scheduler makes.
	PaperTradeCooldown time.Duration

	scanner    discovery.MarketScanner
	volatility discovery.VolatilityRunner
	halt       discovery.HaltResume
	gap        discovery.GapAnalyzer

	lastRetrainDate  string
	lastEODDate      string
	lastBriefSession state.Session
	lastClosedLogDay string
}

// New builds a Scheduler from its dependencies.
func New(store *state.Store, fanIn *provider.FanIn, tick *provider.TickSubscriber, engine *signal.Engine, classifier *ml.Classifier, j *journal.Journal, sink *discovery.Sink, cfg *config.Config, layout state.Layout) *Scheduler {
	return &Scheduler{
		Store:              store,
		FanIn:              fanIn,
		Tick:               tick,
		Engine:             engine,
		ML:                 classifier,
		Journal:            j,
		Sink:               sink,
		Config:             cfg,
		Layout:             layout,
		PaperTradeCooldown: journal.DefaultOpenCooldown,
	}
}

// Run drives the scheduler until ctx is canceled, re-arming a timer to the
// current session's RefreshInterval after every cycle so the cadence
// tightens during active hours and relaxes overnight (spec.md §4.1).
func (s *Scheduler) Run(ctx context.Context) error {
	cycle := s.Store.Scheduler().CycleCount

	for {
		now := time.Now()
		interval := signal.RefreshInterval(signal.SessionForTime(now))
		timer := time.NewTimer(interval)

		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
			if err := s.RunCycle(ctx, cycle); err != nil {
				logger.Errorf("scheduler: cycle %d failed: %v", cycle, err)
			}
			cycle++
		}
	}
}

// RunCycle executes one full pipeline pass. Errors from individual stages
// are logged and swallowed where spec.md calls for fault tolerance; RunCycle
// itself only returns an error for a failure that should abort the cycle
// entirely (currently none — every stage degrades gracefully).
func (s *Scheduler) RunCycle(ctx context.Context, cycle int) error {
	start := time.Now()
	now := start
	tier := TierForCycle(cycle)
	session := signal.SessionForTime(now)

	s.resetDailyBudgetIfNeeded(now)

	if closed, reason := s.marketClosed(now); closed {
		s.logMarketClosed(now, reason)
		s.advanceCycle(cycle, session, now)
		return nil
	}

	tickers := s.Store.Watchlist()
	tickerContexts := s.fetchStage(ctx, tickers, tier, now)

	s.scoreStage(tickers, tickerContexts, session, now)
	s.tradeLifecycleStage(now)

	if runsWarmWork(tier) {
		s.discoveryStage(ctx, now)
	}
	if runsColdWork(tier) {
		s.persistStage(now)
	}

	s.maybeSendDailyBrief(ctx, session)
	s.maybeRetrainNightly(now)
	s.maybeGenerateEODReport(now)

	sched := s.advanceCycle(cycle, session, now)
	s.recordMetrics(tier, sched)

	// The snapshot is written every cycle so the UI survives a restart
	// with at most one cycle's staleness; the heavier journal/ML/version
	// writes stay on the COLD cadence in persistStage.
	if err := s.Store.SaveSnapshot(s.Layout); err != nil {
		logger.Errorf("scheduler: failed to save state snapshot: %v", err)
	}

	if s.Broadcaster != nil {
		s.Broadcaster.Broadcast("full_state", s.Store.Snapshot())
	}

	metrics.RecordCycle(tierName(tier), time.Since(start).Seconds())
	return nil
}

// advanceCycle bumps the persisted cycle counter and session bookkeeping.
// It runs even on skipped (holiday/early-close) cycles so the counter stays
// monotonic with exactly one increment per fired cycle.
func (s *Scheduler) advanceCycle(cycle int, session state.Session, now time.Time) state.SchedulerState {
	sched := s.Store.Scheduler()
	s.Store.SetScheduler(state.SchedulerState{
		CycleCount:      cycle + 1,
		DailyCallCount:  sched.DailyCallCount,
		DailyLimit:      s.Config.DailyCallLimit,
		LastResetDate:   etDateString(now),
		SessionName:     session,
		SessionInterval: signal.RefreshInterval(session).Milliseconds(),
	})
	return sched
}

// maybeSendDailyBrief pushes the once-per-session watchlist summary the
// first cycle that observes a new session, resetting the notifier's brief
// flag at the rollover so each session gets exactly one brief.
func (s *Scheduler) maybeSendDailyBrief(ctx context.Context, session state.Session) {
	if session == s.lastBriefSession {
		return
	}
	s.lastBriefSession = session
	if s.Notifier == nil {
		return
	}
	s.Notifier.ResetBrief()

	open := 0
	for _, t := range s.Store.PaperTrades() {
		if t.Status == state.StatusPending {
			open++
		}
	}
	winRate := 0.0
	if s.Journal != nil {
		winRate = s.Journal.GetStats("").WinRate
	}
	s.Notifier.SendDailyBrief(ctx, state.DailyBrief{
		Session:     session,
		Watchlist:   len(s.Store.Watchlist()),
		Discoveries: len(s.Store.Discoveries()),
		OpenTrades:  open,
		WinRate:     winRate,
	})
}

func tierName(t Tier) string {
	switch t {
	case COLD:
		return "cold"
	case WARM:
		return "warm"
	default:
		return "hot"
	}
}

// recordMetrics refreshes the gauges that summarize current store/journal/ML
// state, called once per cycle rather than on every mutation (spec.md §10).
func (s *Scheduler) recordMetrics(tier Tier, sched state.SchedulerState) {
	metrics.SetDailyCallBudgetUsed(sched.DailyCallCount, sched.DailyLimit)

	if s.Journal != nil {
		stats := s.Journal.GetStats("")
		metrics.SetWinRate("", stats.WinRate)
		open := 0
		for _, t := range s.Store.PaperTrades() {
			if t.Status == state.StatusPending {
				open++
			}
		}
		metrics.SetOpenTrades(open)
	}

	if s.ML != nil {
		metrics.SetTrainingSamples("day", len(s.ML.Dataset.DayTrade))
		metrics.SetTrainingSamples("swing", len(s.ML.Dataset.Swing))
	}

	for _, score := range s.Store.SignalScores() {
		metrics.RecordSignalScore(string(score.Direction), score.Confidence)
	}
}
