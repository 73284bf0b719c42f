package scheduler

import (
	"context"
	"time"

	"vantage/provider"
)

// fetchStage refreshes the watchlist's quotes/candles/options/earnings/news
// and the market-wide bundle, honoring the daily call budget. When the
// budget is exhausted it skips the fetch entirely and the cycle falls back
// to scoring against whatever the previous cycle last wrote into the store
// — liveness over freshness, rather than stalling the whole pipeline.
func (s *Scheduler) fetchStage(ctx context.Context, tickers []string, tier Tier, now time.Time) map[string]provider.TickerContext {
	if s.FanIn == nil {
		return nil
	}
	if !s.withinBudget(estimateFetchCalls(len(tickers), tier)) {
		return nil
	}

	contexts, err := s.FanIn.RefreshAll(ctx, tickers, tier)
	if err != nil {
		return contexts
	}
	return contexts
}
