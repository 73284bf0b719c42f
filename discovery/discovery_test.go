package discovery

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vantage/journal"
	"vantage/state"
)

func TestMarketScannerDefersWithinCooldown(t *testing.T) {
	var m MarketScanner
	now := time.Now()
	candidates := []ScanCandidate{{Ticker: "GME", Price: 20, Volume: 1_000_000, AvgVolume: 100_000, PriceChangePct: 15}}

	first := m.Run(candidates, now)
	require.Len(t, first, 1)
	assert.Equal(t, state.DirectionBullish, first[0].Direction)

	second := m.Run(candidates, now.Add(10*time.Second))
	assert.Nil(t, second, "scanner must defer within ScannerPostCycleDefer")

	third := m.Run(candidates, now.Add(ScannerPostCycleDefer+time.Second))
	assert.Len(t, third, 1)
}

func TestMarketScannerFiltersBelowFloors(t *testing.T) {
	var m MarketScanner
	candidates := []ScanCandidate{{Ticker: "QUIET", Price: 50, Volume: 110_000, AvgVolume: 100_000, PriceChangePct: 1}}
	out := m.Run(candidates, time.Now())
	assert.Empty(t, out)
}

func TestVolatilityRunnerTopNAndCooldown(t *testing.T) {
	var v VolatilityRunner
	now := time.Now()
	candidates := []VolatilityCandidate{
		{Ticker: "A", PremiumTotal: 500000, IVRank: 80, VolumeOIRatio: 2, Sweep: true},
		{Ticker: "B", PremiumTotal: 200000, IVRank: 70, VolumeOIRatio: 1.5},
		{Ticker: "C", PremiumTotal: 150000, IVRank: 65, VolumeOIRatio: 1.2},
	}
	out := v.Run(candidates, now)
	assert.Len(t, out, VolatilityTopN)

	// same candidates immediately after: all should be cooling down.
	out2 := v.Run(candidates, now.Add(time.Minute))
	assert.Empty(t, out2)
}

func TestHaltResumePollRateLimits(t *testing.T) {
	var h HaltResume
	now := time.Now()
	assert.True(t, h.Poll(now))
	assert.False(t, h.Poll(now.Add(10*time.Second)))
	assert.True(t, h.Poll(now.Add(HaltResumePollInterval+time.Second)))
}

func TestHaltResumeOnlyAlertsObservedTransitions(t *testing.T) {
	var h HaltResume
	now := time.Now()

	// First poll: all three rows halted, nothing fires.
	out := h.Run([]HaltResumeEvent{
		{Ticker: "A", PreHaltPct: 30},
		{Ticker: "B", PreHaltPct: 25},
		{Ticker: "C", PreHaltPct: -10},
	}, now)
	assert.Empty(t, out)

	// Second poll: A and C transitioned to resumed, B is still halted, and
	// D appears already resumed (never seen halted — stale, stays silent).
	resumeTime := now.Add(time.Minute)
	out = h.Run([]HaltResumeEvent{
		{Ticker: "A", ResumeTime: &resumeTime, PreHaltPct: 30},
		{Ticker: "B", PreHaltPct: 25},
		{Ticker: "C", ResumeTime: &resumeTime, PreHaltPct: -10},
		{Ticker: "D", ResumeTime: &resumeTime, PreHaltPct: 50},
	}, resumeTime)
	require.Len(t, out, 2)
	assert.Equal(t, "A", out[0].Ticker)

	// Third poll: the same resumed rows do not re-fire.
	out = h.Run([]HaltResumeEvent{
		{Ticker: "A", ResumeTime: &resumeTime, PreHaltPct: 30},
		{Ticker: "C", ResumeTime: &resumeTime, PreHaltPct: -10},
	}, resumeTime.Add(time.Minute))
	assert.Empty(t, out)
}

func TestGapAnalyzerClassifiesPersonality(t *testing.T) {
	var g GapAnalyzer
	candidates := []GapCandidate{
		{Ticker: "HIVOL", PrevClose: 100, Open: 110, Volume: 5_000_000, AvgVolume: 1_000_000, ATR: 2},
		{Ticker: "QUIET", PrevClose: 100, Open: 101, Volume: 100_000, AvgVolume: 100_000, ATR: 2},
	}
	out := g.Run(candidates, time.Now())
	require.Len(t, out, 1) // QUIET's 1% gap is below gapMinPct
	assert.Equal(t, "HIVOL", out[0].Ticker)
	assert.Equal(t, state.DirectionBullish, out[0].Direction)
	assert.Equal(t, string(GapAndGo), out[0].Meta["personality"])
}

func TestSinkTrackGatesAutoSetupOnConfidence(t *testing.T) {
	store := state.New(nil, 100)
	j := journal.New(store, state.Layout{})
	sink := NewSink(store, j)
	now := time.Now()

	lowConf := state.Discovery{Ticker: "AAPL", Confidence: 50}
	assert.False(t, sink.Track(lowConf, now, 3))

	highConf := state.Discovery{Ticker: "MSFT", Confidence: 80}
	assert.True(t, sink.Track(highConf, now, 3))

	d, ok := store.Discovery("MSFT")
	require.True(t, ok)
	assert.Equal(t, now.Add(state.DiscoveryTTL), d.ExpiresAt)
}

func TestSinkTrackBlockedByConsecutiveLossGuard(t *testing.T) {
	store := state.New(nil, 100)
	j := journal.New(store, state.Layout{})
	sink := NewSink(store, j)
	now := time.Now()

	for i := 0; i < 3; i++ {
		store.AppendPaperTrade(state.PaperTrade{Ticker: "TSLA", Direction: state.DirectionLong, Status: state.StatusLossStop})
	}

	highConf := state.Discovery{Ticker: "TSLA", Confidence: 90}
	assert.False(t, sink.Track(highConf, now, 3))
}
