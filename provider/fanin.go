package provider

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"vantage/logger"
	"vantage/state"
)

// CandleLookback is how many bars of history FanIn requests per refresh —
// comfortably above state.MinCandlesForTA so ta.Analyze never starves.
const CandleLookback = 120

// CandleTimeframe is the bar size FanIn refreshes on every cycle. It is the
// only timeframe fetched: no tier requests longer-timeframe candles.
const CandleTimeframe = "5m"

// TickerContext carries the parts of a per-ticker refresh that the store has
// no slot for (news headlines, earnings surprise) but that the scheduler
// needs the same cycle to assemble a signal.EvalInput.
type TickerContext struct {
	News     []state.NewsHeadline
	Earnings *EarningsReport
}

// FanIn refreshes the whole watchlist each cycle by fanning calls to Source
// out across an errgroup, one ticker at a time, and writing results
// straight into Store. A single ticker's failed sub-call is logged and
// swallowed rather than failing the whole cycle — the previous cycle's
// value for that field is left in place (spec.md §5: "the cycle waits for
// all [fetches] to finish, tolerating individual provider failures").
type FanIn struct {
	Source Provider
	Store  *state.Store
}

// NewFanIn builds a FanIn over source, writing into store.
func NewFanIn(source Provider, store *state.Store) *FanIn {
	return &FanIn{Source: source, Store: store}
}

// RefreshTicker fetches quote, candles, this cycle's tier-appropriate
// options-facts fields, and news for ticker in parallel (earnings is fetched
// only on tier COLD, per spec.md §4.1's COLD field list), merging whichever
// calls succeed into Store, and returns the parts (news, earnings) Store has
// no slot for.
func (f *FanIn) RefreshTicker(ctx context.Context, ticker string, tier Tier) (TickerContext, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	var mu sync.Mutex
	var tc TickerContext

	g.Go(func() error {
		q, err := f.Source.Quote(gctx, ticker)
		if err != nil {
			logger.Warnf("provider: quote fetch failed for %s: %v", ticker, err)
			return nil
		}
		if q.Ticker == "" {
			q.Ticker = ticker
		}
		f.Store.SetQuote(q)
		return nil
	})

	g.Go(func() error {
		candles, err := f.Source.Candles(gctx, ticker, CandleTimeframe, CandleLookback)
		if err != nil {
			logger.Warnf("provider: candle fetch failed for %s: %v", ticker, err)
			return nil
		}
		if len(candles) > 0 {
			f.Store.SetCandles(ticker, CandleTimeframe, candles)
		}
		return nil
	})

	g.Go(func() error {
		facts, err := f.Source.OptionsFactsHot(gctx, ticker)
		if err != nil {
			logger.Warnf("provider: HOT options facts fetch failed for %s: %v", ticker, err)
			return nil
		}
		f.Store.MergeOptionsFacts(ticker, func(o *state.OptionsFacts) {
			o.AsOf = time.Now()
			o.FlowAlerts = facts.FlowAlerts
			o.NetPremiumSeries = facts.NetPremiumSeries
			o.FlowPerStrike = facts.FlowPerStrike
			o.FlowPerExpiry = facts.FlowPerExpiry
			o.GEXPerStrike = facts.GEXPerStrike
			o.GEXPerExpiry = facts.GEXPerExpiry
		})
		return nil
	})

	if runsWarm(tier) {
		g.Go(func() error {
			facts, err := f.Source.OptionsFactsWarm(gctx, ticker)
			if err != nil {
				logger.Warnf("provider: WARM options facts fetch failed for %s: %v", ticker, err)
				return nil
			}
			f.Store.MergeOptionsFacts(ticker, func(o *state.OptionsFacts) {
				o.GreekExposures = facts.GreekExposures
				o.SpotGreeks = facts.SpotGreeks
				o.MaxPainStrike = facts.MaxPainStrike
				o.OIChange = facts.OIChange
				o.IVRank1Y = facts.IVRank1Y
				o.IVSurface = facts.IVSurface
				o.NOPE = facts.NOPE
			})
			return nil
		})
	}

	if runsCold(tier) {
		g.Go(func() error {
			facts, err := f.Source.OptionsFactsCold(gctx, ticker)
			if err != nil {
				logger.Warnf("provider: COLD options facts fetch failed for %s: %v", ticker, err)
				return nil
			}
			f.Store.MergeOptionsFacts(ticker, func(o *state.OptionsFacts) {
				o.ShortInterestPct = facts.ShortInterestPct
				o.RealizedVol = facts.RealizedVol
				o.VolTermStructure = facts.VolTermStructure
				o.RiskReversalSkew = facts.RiskReversalSkew
			})
			return nil
		})

		g.Go(func() error {
			rep, ok, err := f.Source.Earnings(gctx, ticker)
			if err != nil {
				logger.Warnf("provider: earnings fetch failed for %s: %v", ticker, err)
				return nil
			}
			if ok {
				mu.Lock()
				tc.Earnings = &rep
				mu.Unlock()
			}
			return nil
		})
	}

	g.Go(func() error {
		news, err := f.Source.News(gctx, ticker)
		if err != nil {
			logger.Warnf("provider: news fetch failed for %s: %v", ticker, err)
			return nil
		}
		mu.Lock()
		tc.News = news
		mu.Unlock()
		return nil
	})

	// Every inner Go func always returns nil — errors are logged and
	// swallowed in place — so g.Wait() returns nil; a canceled caller
	// context shows up only as the logged per-call failures.
	err := g.Wait()
	return tc, err
}

// runsWarm reports whether tier's cycle should refresh the WARM-tier
// options fields. COLD cycles always include WARM work (spec.md §4.1).
func runsWarm(t Tier) bool { return t == WARM || t == COLD }

// runsCold reports whether tier's cycle should refresh the COLD-tier
// options fields and the earnings call.
func runsCold(t Tier) bool { return t == COLD }

// RefreshMarket fetches the market-wide facts bundle and writes it into
// Store.
func (f *FanIn) RefreshMarket(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	facts, err := f.Source.MarketFacts(ctx)
	if err != nil {
		logger.Warnf("provider: market facts fetch failed: %v", err)
		return nil
	}
	f.Store.SetMarketFacts(facts)
	return nil
}

// RefreshAll refreshes every ticker in tickers plus the market-wide bundle,
// all in parallel, tolerating individual ticker failures, gating WARM/COLD
// options fields and the earnings call on tier. It returns the per-ticker
// TickerContext bundles keyed by ticker for the scheduler to fold into this
// cycle's signal.EvalInput values.
func (f *FanIn) RefreshAll(ctx context.Context, tickers []string, tier Tier) (map[string]TickerContext, error) {
	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	contexts := make(map[string]TickerContext, len(tickers))

	g.Go(func() error {
		return f.RefreshMarket(gctx)
	})
	for _, t := range tickers {
		ticker := t
		g.Go(func() error {
			tc, err := f.RefreshTicker(gctx, ticker, tier)
			if err != nil {
				return err
			}
			mu.Lock()
			contexts[ticker] = tc
			mu.Unlock()
			return nil
		})
	}

	err := g.Wait()
	logger.Debugf("provider: refreshed %d tickers in %s (tier %d)", len(tickers), time.Since(start), tier)
	return contexts, err
}
