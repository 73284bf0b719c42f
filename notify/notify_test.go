package notify

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vantage/state"
)

type recordingTransport struct {
	mu       sync.Mutex
	messages []string
}

func (r *recordingTransport) Send(ctx context.Context, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
	return nil
}

func (r *recordingTransport) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.messages)
}

func TestNotifyDiscoveryRespectsConfidenceFloor(t *testing.T) {
	transport := &recordingTransport{}
	n := New(transport)

	n.NotifyDiscovery(context.Background(), state.Discovery{Ticker: "AAPL", Confidence: 40})
	assert.Equal(t, 0, transport.count())

	n.NotifyDiscovery(context.Background(), state.Discovery{Ticker: "AAPL", Confidence: 55})
	assert.Equal(t, 1, transport.count())
}

func TestNotifyDiscoveryCooldownDeduplicates(t *testing.T) {
	transport := &recordingTransport{}
	n := New(transport)

	d := state.Discovery{Ticker: "MSFT", Confidence: 80}
	n.NotifyDiscovery(context.Background(), d)
	n.NotifyDiscovery(context.Background(), d)
	require.Equal(t, 1, transport.count(), "second call within cooldown should be suppressed")
}

func TestSendDailyBriefOncePerSession(t *testing.T) {
	transport := &recordingTransport{}
	n := New(transport)

	brief := state.DailyBrief{Session: state.SessionMidday, Watchlist: 10}
	n.SendDailyBrief(context.Background(), brief)
	n.SendDailyBrief(context.Background(), brief)
	assert.Equal(t, 1, transport.count())

	n.ResetBrief()
	n.SendDailyBrief(context.Background(), brief)
	assert.Equal(t, 2, transport.count())
}

func TestNotifyTradeClosedIncludesPnL(t *testing.T) {
	transport := &recordingTransport{}
	n := New(transport)
	pnl := 12.5

	n.NotifyTradeClosed(context.Background(), state.PaperTrade{
		ID: "t1", Ticker: "NVDA", Direction: state.DirectionLong,
		Status: state.StatusWinT1, PnLPct: &pnl,
	})
	require.Equal(t, 1, transport.count())
	assert.Contains(t, transport.messages[0], "NVDA")
}

func TestNoTransportsIsNoOp(t *testing.T) {
	n := New()
	assert.NotPanics(t, func() {
		n.NotifyDiscovery(context.Background(), state.Discovery{Ticker: "TSLA", Confidence: 90})
	})
}
