package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vantage/state"
)

// countingProvider wraps fakeProvider to count Quote calls, so tests can
// assert a skipped cycle really fetched nothing.
type countingProvider struct {
	fakeProvider
	mu         sync.Mutex
	quoteCalls int
}

func (c *countingProvider) Quote(ctx context.Context, ticker string) (state.Quote, error) {
	c.mu.Lock()
	c.quoteCalls++
	c.mu.Unlock()
	return c.fakeProvider.Quote(ctx, ticker)
}

// briefRecorder implements the scheduler's Notifier interface and records
// only the brief traffic.
type briefRecorder struct {
	briefs []state.DailyBrief
	resets int
}

func (b *briefRecorder) NotifyDiscovery(ctx context.Context, d state.Discovery)     {}
func (b *briefRecorder) NotifySetup(ctx context.Context, setup state.TradeSetup)    {}
func (b *briefRecorder) NotifyTradeClosed(ctx context.Context, pt state.PaperTrade) {}
func (b *briefRecorder) SendDailyBrief(ctx context.Context, brief state.DailyBrief) {
	b.briefs = append(b.briefs, brief)
}
func (b *briefRecorder) ResetBrief() { b.resets++ }

// etTime builds a wall-clock instant at the given ET hour/minute.
func etTime(hour, minute int) time.Time {
	return time.Date(2026, 7, 21, hour, minute, 0, 0, etLocation())
}

func TestTierForCycle(t *testing.T) {
	for cycle := 0; cycle < 60; cycle++ {
		want := HOT
		switch {
		case cycle%15 == 14:
			want = COLD
		case cycle%5 == 4:
			want = WARM
		}
		assert.Equal(t, want, TierForCycle(cycle), "cycle %d", cycle)
	}
}

func TestEstimateFetchCallsScalesWithTier(t *testing.T) {
	hot := estimateFetchCalls(10, HOT)
	warm := estimateFetchCalls(10, WARM)
	cold := estimateFetchCalls(10, COLD)

	assert.Equal(t, 10*estimateHotCallsPerTicker+estimateMarketCalls, hot)
	assert.Equal(t, hot+10*estimateWarmCallsPerTicker, warm)
	assert.Equal(t, warm+10*estimateColdCallsPerTicker, cold)
}

func TestWithinBudgetEnforcesCeiling(t *testing.T) {
	sched := newTestScheduler(&fakeProvider{})
	sched.Config.DailyCallLimit = 100
	st := sched.Store.Scheduler()
	st.DailyLimit = 100
	st.DailyCallCount = 85
	sched.Store.SetScheduler(st)

	// 85 + 10 > 90 (the 90% ceiling): the spend must be refused and the
	// counter left untouched.
	assert.False(t, sched.withinBudget(10))
	assert.Equal(t, 85, sched.Store.Scheduler().DailyCallCount)

	assert.True(t, sched.withinBudget(5))
	assert.Equal(t, 90, sched.Store.Scheduler().DailyCallCount)
}

func TestDailyBudgetResetsOnNewETDay(t *testing.T) {
	sched := newTestScheduler(&fakeProvider{})
	st := sched.Store.Scheduler()
	st.DailyCallCount = 9000
	st.LastResetDate = "2026-07-20"
	sched.Store.SetScheduler(st)

	sched.resetDailyBudgetIfNeeded(etTime(0, 1))

	got := sched.Store.Scheduler()
	assert.Equal(t, 0, got.DailyCallCount)
	assert.Equal(t, "2026-07-21", got.LastResetDate)

	// Same day again: counter survives.
	got.DailyCallCount = 42
	sched.Store.SetScheduler(got)
	sched.resetDailyBudgetIfNeeded(etTime(12, 0))
	assert.Equal(t, 42, sched.Store.Scheduler().DailyCallCount)
}

func TestMarketClosedCalendar(t *testing.T) {
	sched := newTestScheduler(&fakeProvider{})
	sched.Store.SetMarketFacts(state.MarketFacts{
		Holidays:    []string{"2026-07-21"},
		EarlyCloses: []string{"2026-07-22"},
	})

	closed, reason := sched.marketClosed(etTime(10, 30))
	assert.True(t, closed)
	assert.Equal(t, "market holiday", reason)

	// Early-close day: open in the morning, closed after 13:00 ET.
	earlyMorning := time.Date(2026, 7, 22, 10, 0, 0, 0, etLocation())
	closed, _ = sched.marketClosed(earlyMorning)
	assert.False(t, closed)

	afternoon := time.Date(2026, 7, 22, 13, 30, 0, 0, etLocation())
	closed, reason = sched.marketClosed(afternoon)
	assert.True(t, closed)
	assert.Equal(t, "past early close", reason)

	// Ordinary day with an empty calendar never skips.
	ordinary := time.Date(2026, 7, 23, 13, 30, 0, 0, etLocation())
	closed, _ = sched.marketClosed(ordinary)
	assert.False(t, closed)
}

func TestRunCycleSkipsHolidayWithoutFetching(t *testing.T) {
	p := &countingProvider{fakeProvider: fakeProvider{quote: state.Quote{Last: 10}, candles: flatCandles(40, 10)}}
	sched := newTestScheduler(p)
	sched.Store.AddTicker("AAPL")
	sched.Store.SetMarketFacts(state.MarketFacts{Holidays: []string{etDateString(time.Now())}})

	before := sched.Store.Scheduler().CycleCount
	require.NoError(t, sched.RunCycle(context.Background(), before))

	assert.Equal(t, 0, p.quoteCalls, "a holiday cycle must not fetch")
	assert.Equal(t, before+1, sched.Store.Scheduler().CycleCount,
		"the cycle counter still advances exactly once on a skipped cycle")
}

func TestRunCyclePersistsSnapshotAndAdvancesCounter(t *testing.T) {
	p := &countingProvider{fakeProvider: fakeProvider{quote: state.Quote{Last: 10}, candles: flatCandles(40, 10)}}
	sched := newTestScheduler(p)
	sched.Layout = state.Layout{Dir: t.TempDir()}
	sched.Store.AddTicker("AAPL")

	before := sched.Store.Scheduler().CycleCount
	require.NoError(t, sched.RunCycle(context.Background(), before))
	require.NoError(t, sched.RunCycle(context.Background(), before+1))

	assert.Equal(t, before+2, sched.Store.Scheduler().CycleCount)
	assert.Positive(t, p.quoteCalls)
	assert.FileExists(t, sched.Layout.StateSnapshot())
}

func TestDailyBriefSentOncePerSessionRollover(t *testing.T) {
	sched := newTestScheduler(&fakeProvider{})
	rec := &briefRecorder{}
	sched.Notifier = rec
	sched.Store.AddTicker("AAPL")

	sched.maybeSendDailyBrief(context.Background(), state.SessionPreMarket)
	sched.maybeSendDailyBrief(context.Background(), state.SessionPreMarket)
	require.Len(t, rec.briefs, 1, "same session must not re-send")
	assert.Equal(t, state.SessionPreMarket, rec.briefs[0].Session)
	assert.Equal(t, 1, rec.briefs[0].Watchlist)

	sched.maybeSendDailyBrief(context.Background(), state.SessionOpenRush)
	require.Len(t, rec.briefs, 2, "session rollover sends a fresh brief")
	assert.Equal(t, 2, rec.resets)
}
