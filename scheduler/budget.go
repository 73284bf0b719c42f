package scheduler

import (
	"time"

	"vantage/logger"
)

// budgetCeilingFraction is the fraction of the daily call budget beyond
// which the fetch stage is skipped for the remainder of the day rather than
// exhausting the provider quota entirely (spec.md §4.1 "90% ceiling").
const budgetCeilingFraction = 0.9

// etLocation mirrors the small tzdata-fallback helper duplicated across
// signal/journal — every package that needs ET wall-clock math carries its
// own copy rather than depending on another package purely for this.
func etLocation() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.FixedZone("ET", -5*3600)
	}
	return loc
}

func etDateString(t time.Time) string {
	return t.In(etLocation()).Format("2006-01-02")
}

// resetDailyBudgetIfNeeded zeroes the daily call counter the first cycle
// that observes a new ET calendar day.
func (s *Scheduler) resetDailyBudgetIfNeeded(now time.Time) {
	sched := s.Store.Scheduler()
	today := etDateString(now)
	if sched.LastResetDate == today {
		return
	}
	sched.DailyCallCount = 0
	sched.LastResetDate = today
	sched.DailyLimit = s.Config.DailyCallLimit
	s.Store.SetScheduler(sched)
}

// earlyCloseMinute is 13:00 ET, the close on exchange half days.
const earlyCloseMinute = 13 * 60

// marketClosed reports whether now falls on a market-holiday closed day, or
// past the early close on a half day, either of which skips the whole cycle
// (spec.md §4.1). The calendar comes from the market-wide facts bundle
// (Holidays, EarlyCloses) that RefreshMarket fetches on every fetched
// cycle; an empty calendar never skips.
func (s *Scheduler) marketClosed(now time.Time) (bool, string) {
	facts := s.Store.MarketFacts()
	today := etDateString(now)
	for _, d := range facts.Holidays {
		if d == today {
			return true, "market holiday"
		}
	}
	nowET := now.In(etLocation())
	if nowET.Hour()*60+nowET.Minute() >= earlyCloseMinute {
		for _, d := range facts.EarlyCloses {
			if d == today {
				return true, "past early close"
			}
		}
	}
	return false, ""
}

// logMarketClosed announces a closed-day skip once per ET day rather than
// once per would-be cycle.
func (s *Scheduler) logMarketClosed(now time.Time, reason string) {
	today := etDateString(now)
	if s.lastClosedLogDay == today {
		return
	}
	s.lastClosedLogDay = today
	logger.Infof("scheduler: market closed today (%s), skipping cycles", reason)
}

// withinBudget reports whether spending an additional estimatedCalls this
// cycle would stay under budgetCeilingFraction of the daily limit, and if
// so records the spend.
func (s *Scheduler) withinBudget(estimatedCalls int) bool {
	sched := s.Store.Scheduler()
	ceiling := int(float64(sched.DailyLimit) * budgetCeilingFraction)
	if sched.DailyCallCount+estimatedCalls > ceiling {
		logger.Warnf("scheduler: daily call budget ceiling reached (%d/%d), skipping this cycle's fetch",
			sched.DailyCallCount, sched.DailyLimit)
		return false
	}
	sched.DailyCallCount += estimatedCalls
	s.Store.SetScheduler(sched)
	return true
}

// estimateHotCallsPerTicker is the number of external requests
// FanIn.RefreshTicker issues for one ticker on a HOT cycle: quote, candles,
// OptionsFactsHot, news (spec.md §4.1).
const estimateHotCallsPerTicker = 4

// estimateWarmCallsPerTicker is the additional request OptionsFactsWarm adds
// on WARM (and COLD) cycles.
const estimateWarmCallsPerTicker = 1

// estimateColdCallsPerTicker is the additional requests OptionsFactsCold and
// Earnings add on COLD cycles.
const estimateColdCallsPerTicker = 2

// estimateMarketCalls is the request count for one RefreshMarket call.
const estimateMarketCalls = 1

// estimateFetchCalls sizes this cycle's expected external-call spend against
// the daily budget, scaling the per-ticker estimate to tier's additional
// WARM/COLD options-facts fetches (spec.md §4.1).
func estimateFetchCalls(tickerCount int, tier Tier) int {
	perTicker := estimateHotCallsPerTicker
	if runsWarmWork(tier) {
		perTicker += estimateWarmCallsPerTicker
	}
	if runsColdWork(tier) {
		perTicker += estimateColdCallsPerTicker
	}
	return tickerCount*perTicker + estimateMarketCalls
}
