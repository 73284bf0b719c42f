// Package provider is the data-source abstraction: a small capability
// interface that every external feed (quotes, candles, options flow, market
// facts, discovery screeners) implements, plus a fan-in orchestrator that
// refreshes the whole watchlist in parallel each cycle (spec.md §4.2).
//
// Concrete adapters are grounded on the teacher's retry-with-backoff HTTP
// fetch pattern (provider.GetTopWinnersData / fetchMoversData in
// provider/data_provider.go), generalized from crypto/AI-score feeds to an
// equities options-flow/dark-pool/GEX/short-interest/news domain.
package provider

import (
	"context"
	"time"

	"vantage/discovery"
	"vantage/state"
)

// EarningsReport carries the earnings-surprise context a provider surfaces
// for a ticker, mirroring signal.EarningsEnriched's shape without importing
// package signal (provider sits below signal in the dependency order).
type EarningsReport struct {
	Beat                string // "BEAT" | "MISS" | "INLINE"
	SurprisePct         float64
	AfterHoursChangePct float64
}

// Provider is the capability interface every data source implements
// (spec.md §4.2: getQuote, getFlow, getDarkPool, getGEX, getShortInterest,
// …, consolidated here into the same aggregated bundles package state
// already groups them into).
type Provider interface {
	// Quote fetches the latest price snapshot for ticker.
	Quote(ctx context.Context, ticker string) (state.Quote, error)
	// Candles fetches a candle sequence of the given timeframe, at least
	// lookback bars (fewer is tolerated; the caller checks
	// state.MinCandlesForTA).
	Candles(ctx context.Context, ticker, timeframe string, lookback int) ([]state.Candle, error)
	// OptionsFactsHot fetches the HOT-tier options fields (spec.md §4.1:
	// flow, dark pool, GEX) — called every cycle.
	OptionsFactsHot(ctx context.Context, ticker string) (state.OptionsFacts, error)
	// OptionsFactsWarm fetches the WARM-tier options fields (spec.md §4.1:
	// IV rank, max pain, OI change, Greeks, Greek flow, spot exposures,
	// NOPE, ATM chains) — called every 5th cycle.
	OptionsFactsWarm(ctx context.Context, ticker string) (state.OptionsFacts, error)
	// OptionsFactsCold fetches the COLD-tier options fields (spec.md §4.1:
	// short interest, realized vol, term structure, risk-reversal skew) —
	// called every 15th cycle.
	OptionsFactsCold(ctx context.Context, ticker string) (state.OptionsFacts, error)
	// Earnings fetches the most recent earnings-surprise reading for
	// ticker, if any is available near the current session.
	Earnings(ctx context.Context, ticker string) (EarningsReport, bool, error)
	// News fetches recent ticker-scoped headlines.
	News(ctx context.Context, ticker string) ([]state.NewsHeadline, error)
	// MarketFacts fetches the market-wide bundle (tide, VIX, sector/ETF
	// tides, calendars, insider/congress feeds, market-wide news).
	MarketFacts(ctx context.Context) (state.MarketFacts, error)

	// ScanCandidates fetches the raw market-scanner feed for the discovery
	// pipeline's MarketScanner producer.
	ScanCandidates(ctx context.Context) ([]discovery.ScanCandidate, error)
	// VolatilityCandidates fetches the options-flow screener feed for the
	// VolatilityRunner producer.
	VolatilityCandidates(ctx context.Context) ([]discovery.VolatilityCandidate, error)
	// HaltEvents fetches the halt/resume feed for the HaltResume producer.
	HaltEvents(ctx context.Context) ([]discovery.HaltResumeEvent, error)
	// GapCandidates fetches the pre-market/open gap feed for the
	// GapAnalyzer producer.
	GapCandidates(ctx context.Context) ([]discovery.GapCandidate, error)
}

// DefaultTimeout bounds every single provider call (spec.md §5 "context
// deadlines on every external call").
const DefaultTimeout = 10 * time.Second
