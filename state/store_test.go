package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTicker(t *testing.T) {
	n, ok := NormalizeTicker("aapl")
	assert.True(t, ok)
	assert.Equal(t, "AAPL", n)

	_, ok = NormalizeTicker("toolong1")
	assert.False(t, ok)

	_, ok = NormalizeTicker("")
	assert.False(t, ok)
}

func TestMergeQuotePreferenceOrder(t *testing.T) {
	snapshot := Quote{Ticker: "AAPL", Last: 100, Source: SourceSnapshot}
	hist := Quote{Ticker: "AAPL", Last: 90, Source: SourceHistoricalClose}
	stream := Quote{Ticker: "AAPL", Last: 105, Source: SourceRealTimeStream}

	// real-time supersedes snapshot
	merged := MergeQuote(&snapshot, stream)
	assert.Equal(t, SourceRealTimeStream, merged.Source)
	assert.Equal(t, 105.0, merged.Last)

	// historical never supersedes snapshot
	merged = MergeQuote(&snapshot, hist)
	assert.Equal(t, SourceSnapshot, merged.Source)
	assert.Equal(t, 100.0, merged.Last)

	// nil existing always takes incoming
	merged = MergeQuote(nil, hist)
	assert.Equal(t, SourceHistoricalClose, merged.Source)
}

func TestStoreWatchlistRoundTrip(t *testing.T) {
	s := New([]string{"aapl", "MSFT"}, 1000)
	assert.ElementsMatch(t, []string{"AAPL", "MSFT"}, s.Watchlist())
	assert.True(t, s.IsWatched("AAPL"))

	assert.True(t, s.AddTicker("tsla"))
	assert.False(t, s.AddTicker("TSLA")) // already present
	assert.True(t, s.RemoveTicker("msft"))
	assert.False(t, s.RemoveTicker("msft"))

	assert.ElementsMatch(t, []string{"AAPL", "TSLA"}, s.Watchlist())
}

func TestStoreQuoteMerge(t *testing.T) {
	s := New(nil, 1000)
	s.SetQuote(Quote{Ticker: "AAPL", Last: 100, Source: SourceSnapshot})
	s.SetQuote(Quote{Ticker: "AAPL", Last: 90, Source: SourceHistoricalClose})
	q, ok := s.Quote("AAPL")
	require.True(t, ok)
	assert.Equal(t, 100.0, q.Last, "historical must not override snapshot")

	s.SetQuote(Quote{Ticker: "AAPL", Last: 101, Source: SourceRealTimeStream})
	q, _ = s.Quote("AAPL")
	assert.Equal(t, 101.0, q.Last)
}

func TestDiscoveryExpiryAndSweep(t *testing.T) {
	s := New(nil, 1000)
	now := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	s.TrackDiscovery(Discovery{Ticker: "GME", DiscoveredAt: now, ExpiresAt: now.Add(DiscoveryTTL)})

	removed := s.SweepExpiredDiscoveries(now.Add(1 * time.Hour))
	assert.Empty(t, removed)

	removed = s.SweepExpiredDiscoveries(now.Add(DiscoveryTTL + time.Minute))
	assert.Equal(t, []string{"GME"}, removed)

	_, ok := s.Discovery("GME")
	assert.False(t, ok)
}

func TestSubscriptionSweep(t *testing.T) {
	s := New(nil, 1000)
	now := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	s.Subscribe("GME", now)
	s.SetTickSummary(TickSummary{Ticker: "GME", LastPrice: 20, UpdatedAt: now})

	removed := s.SweepExpiredSubscriptions(now.Add(DiscoveryTTL + DiscoverySweepInterval))
	assert.Equal(t, []string{"GME"}, removed)

	_, ok := s.TickSummary("GME")
	assert.False(t, ok, "tick summary must be removed alongside its subscription")
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := New([]string{"AAPL"}, 1000)
	s.SetQuote(Quote{Ticker: "AAPL", Last: 190, Source: SourceSnapshot})
	s.SetSignalScore(SignalScore{Ticker: "AAPL", Direction: DirectionBullish, Confidence: 70})
	s.AppendPaperTrade(PaperTrade{ID: "1", Ticker: "AAPL", Status: StatusPending})

	snap := s.Snapshot()

	restored := New(nil, 1000)
	restored.Restore(snap)

	assert.Equal(t, s.Watchlist(), restored.Watchlist())
	q, ok := restored.Quote("AAPL")
	require.True(t, ok)
	assert.Equal(t, 190.0, q.Last)
	sc, ok := restored.SignalScore("AAPL")
	require.True(t, ok)
	assert.Equal(t, 70, sc.Confidence)
	assert.Len(t, restored.PaperTrades(), 1)
}

func TestAtomicWriteJSONRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/sub/watchlist.json"

	type payload struct {
		Tickers []string `json:"tickers"`
	}
	want := payload{Tickers: []string{"AAPL", "MSFT"}}
	require.NoError(t, AtomicWriteJSON(path, want))

	var got payload
	ok, err := ReadJSON(path, &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)

	// a missing file is not an error and reports ok=false
	ok, err = ReadJSON(dir+"/missing.json", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}
