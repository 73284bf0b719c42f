package state

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLStoreVersionHistoryAndDiscoveryPerformance(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "vantage.db")
	store, err := OpenSQLStore(dbPath)
	require.NoError(t, err)
	defer store.Close()

	now := time.Date(2026, 1, 2, 9, 30, 0, 0, time.UTC)
	require.NoError(t, store.RecordVersionActivation("v2", "aggressive-momentum", now))

	history, err := store.VersionHistory()
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "v2", history[0].VersionKey)

	require.NoError(t, store.RecordDiscovery(Discovery{
		Source: DiscoveryScanner, Ticker: "GME", DiscoveredAt: now, Confidence: 80,
	}))
	require.NoError(t, store.RecordDiscovery(Discovery{
		Source: DiscoveryScanner, Ticker: "AMC", DiscoveredAt: now, Confidence: 60,
	}))

	perf, err := store.DiscoveryPerformance()
	require.NoError(t, err)
	require.Len(t, perf, 1)
	assert.Equal(t, "Scanner", perf[0].Source)
	assert.Equal(t, 2, perf[0].Count)
	assert.InDelta(t, 70, perf[0].AvgConfidence, 0.01)
}
