package eod

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vantage/journal"
	"vantage/state"
)

func ptrF(v float64) *float64 { return &v }

func TestGenerateJoinsSignalsAndComputesWinRate(t *testing.T) {
	entryTime := time.Date(2026, 7, 29, 14, 0, 0, 0, time.UTC)
	setupTime := entryTime.Add(-time.Minute)

	setups := []journal.SetupRecord{
		{
			Setup:     state.TradeSetup{Ticker: "AAPL", Direction: state.DirectionLong, Entry: 100},
			Signals:   []string{"RSI Oversold", "EMA Bullish"},
			Timestamp: setupTime,
		},
	}

	trades := []state.PaperTrade{
		{
			ID: "t1", Ticker: "AAPL", Direction: state.DirectionLong,
			EntryPrice: 100, EntryTime: entryTime, Status: state.StatusWinT1,
			PnLTotal: ptrF(150),
		},
	}

	report := Generate("2026-07-29", trades, setups, entryTime.Add(time.Hour))
	require.Equal(t, 1, report.TotalTrades)
	assert.Equal(t, 1, report.Wins)
	assert.Equal(t, 100.0, report.WinRate)
	require.Len(t, report.SignalAccuracy, 2)
	for _, a := range report.SignalAccuracy {
		assert.Equal(t, 1, a.Appearances)
		assert.Equal(t, 1, a.Wins)
	}
}

func TestGenerateFiltersToDate(t *testing.T) {
	inDate := time.Date(2026, 7, 29, 10, 0, 0, 0, time.UTC)
	outOfDate := time.Date(2026, 7, 28, 10, 0, 0, 0, time.UTC)

	trades := []state.PaperTrade{
		{ID: "a", Ticker: "MSFT", EntryTime: inDate, Status: state.StatusLossStop, EntryPrice: 50, Stop: 49},
		{ID: "b", Ticker: "MSFT", EntryTime: outOfDate, Status: state.StatusLossStop, EntryPrice: 50, Stop: 49},
	}

	report := Generate("2026-07-29", trades, nil, inDate)
	assert.Equal(t, 1, report.TotalTrades)
}

func TestRecommendationsRequireMinimumSampleSize(t *testing.T) {
	accuracy := []SignalAccuracy{
		{Name: "Thin Signal", Appearances: 2, Wins: 0, Losses: 2, WinRate: 0},
		{Name: "Proven Loser", Appearances: 10, Wins: 2, Losses: 8, WinRate: 20},
	}
	recs := recommendations(accuracy)
	require.Len(t, recs, 1)
	assert.Contains(t, recs[0], "Proven Loser")
}
