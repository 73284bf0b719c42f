package journal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vantage/state"
)

func longSetup(ticker string) state.TradeSetup {
	return state.TradeSetup{
		Ticker:     ticker,
		Direction:  state.DirectionLong,
		Entry:      100,
		Target1:    105,
		Target2:    110,
		Stop:       97,
		RiskReward: 1.67,
		Horizon:    state.HorizonDay,
		Confidence: state.TradeConfidence{Blended: 70},
	}
}

func TestOpenPaperTradeRejectsDuplicatePending(t *testing.T) {
	store := state.New(nil, 100)
	j := New(store, state.Layout{})
	now := time.Date(2026, 7, 29, 10, 0, 0, 0, time.UTC)

	_, ok := j.OpenPaperTrade(longSetup("AAPL"), now, "v1", 3, DefaultOpenCooldown)
	require.True(t, ok)

	_, ok = j.OpenPaperTrade(longSetup("AAPL"), now, "v1", 3, DefaultOpenCooldown)
	assert.False(t, ok, "duplicate pending trade in same direction must be rejected")
}

func TestOpenPaperTradeRespectsConsecutiveLossGuard(t *testing.T) {
	store := state.New(nil, 100)
	j := New(store, state.Layout{})
	now := time.Date(2026, 7, 29, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		store.AppendPaperTrade(state.PaperTrade{
			Ticker: "MSFT", Direction: state.DirectionLong, Status: state.StatusLossStop,
			EntryPrice: 100, Stop: 98,
		})
	}

	_, ok := j.OpenPaperTrade(longSetup("MSFT"), now, "v1", 3, DefaultOpenCooldown)
	assert.False(t, ok, "3 consecutive losses at limit 3 must block new entries")
}

func TestConsecutiveLossesResetsOnWin(t *testing.T) {
	store := state.New(nil, 100)
	j := New(store, state.Layout{})
	store.AppendPaperTrade(state.PaperTrade{Ticker: "TSLA", Direction: state.DirectionLong, Status: state.StatusLossStop})
	store.AppendPaperTrade(state.PaperTrade{Ticker: "TSLA", Direction: state.DirectionLong, Status: state.StatusWinT1})
	store.AppendPaperTrade(state.PaperTrade{Ticker: "TSLA", Direction: state.DirectionLong, Status: state.StatusLossStop})
	assert.Equal(t, 1, j.ConsecutiveLosses("TSLA", state.DirectionLong))
}

func TestCheckOutcomesLongWinT1(t *testing.T) {
	store := state.New(nil, 100)
	j := New(store, state.Layout{})
	store.AppendPaperTrade(state.PaperTrade{
		ID: "1", Ticker: "AAPL", Direction: state.DirectionLong,
		EntryPrice: 100, Stop: 97, Target1: 105, Target2: 110, Shares: 10,
		Status: state.StatusPending,
	})
	bars := map[string]state.Candle{"AAPL": {High: 106, Low: 101, Close: 105}}
	closed := j.CheckOutcomes(bars, time.Now())
	require.Len(t, closed, 1)
	assert.Equal(t, state.StatusWinT1, closed[0].Status)
	require.NotNil(t, closed[0].PnLPoints)
	assert.InDelta(t, 5.0, *closed[0].PnLPoints, 0.001)
}

func TestCheckOutcomesSameBarAmbiguityResolvesToStop(t *testing.T) {
	store := state.New(nil, 100)
	j := New(store, state.Layout{})
	store.AppendPaperTrade(state.PaperTrade{
		ID: "1", Ticker: "AAPL", Direction: state.DirectionLong,
		EntryPrice: 100, Stop: 97, Target1: 105, Target2: 110, Shares: 10,
		Status: state.StatusPending,
	})
	// single bar spans both stop and target1
	bars := map[string]state.Candle{"AAPL": {High: 106, Low: 95, Close: 100}}
	closed := j.CheckOutcomes(bars, time.Now())
	require.Len(t, closed, 1)
	assert.Equal(t, state.StatusLossStop, closed[0].Status)
}

func TestShortTradePnLPointsPositiveForWins(t *testing.T) {
	store := state.New(nil, 100)
	j := New(store, state.Layout{})
	store.AppendPaperTrade(state.PaperTrade{
		ID: "1", Ticker: "AAPL", Direction: state.DirectionShort,
		EntryPrice: 100, Stop: 103, Target1: 95, Target2: 90, Shares: 10,
		Status: state.StatusPending,
	})
	bars := map[string]state.Candle{"AAPL": {High: 101, Low: 94, Close: 95}}
	closed := j.CheckOutcomes(bars, time.Now())
	require.Len(t, closed, 1)
	require.NotNil(t, closed[0].PnLPoints)
	assert.Greater(t, *closed[0].PnLPoints, 0.0, "a winning short must report positive pnlPoints")
}

func TestCloseIntradayTradesForceClosesAfter1555ET(t *testing.T) {
	store := state.New(nil, 100)
	j := New(store, state.Layout{})
	store.AppendPaperTrade(state.PaperTrade{
		ID: "1", Ticker: "AAPL", Direction: state.DirectionLong, Horizon: state.HorizonDay,
		EntryPrice: 100, Status: state.StatusPending, Shares: 5,
	})
	loc, _ := time.LoadLocation("America/New_York")
	before := time.Date(2026, 7, 29, 15, 50, 0, 0, loc)
	after := time.Date(2026, 7, 29, 15, 56, 0, 0, loc)

	closed := j.CloseIntradayTrades(before, map[string]float64{"AAPL": 101})
	assert.Empty(t, closed)

	closed = j.CloseIntradayTrades(after, map[string]float64{"AAPL": 101})
	require.Len(t, closed, 1)
	assert.Equal(t, state.StatusClosedEOD, closed[0].Status)
}

func TestCalculateKellySizeCapsAtCeiling(t *testing.T) {
	setup := longSetup("AAPL")
	setup.Confidence.Blended = 95
	setup.RiskReward = 5
	kelly := calculateKellySize(setup)
	assert.LessOrEqual(t, kelly.Pct, KellyCeiling)
	assert.GreaterOrEqual(t, kelly.Pct, 0.0)
	assert.LessOrEqual(t, kelly.Size, FixedRiskBudget, "dollar risk must never exceed the fixed per-trade risk budget")
}

func TestCalculateKellySizeIgnoresAccountSize(t *testing.T) {
	setup := longSetup("AAPL")
	setup.Confidence.Blended = 80
	low := calculateKellySize(setup)
	setup.Stop = 50 // wildly different entry-stop distance, still no equity input anywhere
	wide := calculateKellySize(setup)
	assert.Equal(t, low.Size, wide.Size, "dollar risk is a function of confidence only, not any simulated account size")
}

func TestGetStatsComputesWinRate(t *testing.T) {
	store := state.New(nil, 100)
	j := New(store, state.Layout{})
	win := 5.0
	loss := -3.0
	store.AppendPaperTrade(state.PaperTrade{Ticker: "AAPL", Status: state.StatusWinT1, EntryPrice: 100, Stop: 97, PnLPoints: &win})
	store.AppendPaperTrade(state.PaperTrade{Ticker: "AAPL", Status: state.StatusLossStop, EntryPrice: 100, Stop: 97, PnLPoints: &loss})
	stats := j.GetStats("AAPL")
	assert.Equal(t, 2, stats.TotalTrades)
	assert.Equal(t, 50.0, stats.WinRate)
}
