package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vantage/config"
	"vantage/discovery"
	"vantage/journal"
	"vantage/ml"
	"vantage/provider"
	"vantage/scheduler"
	tradesignal "vantage/signal"
	"vantage/state"
)

// fakeProvider is a minimal vantage/provider.Provider stub, so these tests
// never reach the network.
type fakeProvider struct {
	quote   state.Quote
	candles []state.Candle
}

func (f *fakeProvider) Quote(ctx context.Context, ticker string) (state.Quote, error) {
	q := f.quote
	q.Ticker = ticker
	return q, nil
}
func (f *fakeProvider) Candles(ctx context.Context, ticker, timeframe string, lookback int) ([]state.Candle, error) {
	return f.candles, nil
}
func (f *fakeProvider) OptionsFactsHot(ctx context.Context, ticker string) (state.OptionsFacts, error) {
	return state.OptionsFacts{Ticker: ticker}, nil
}
func (f *fakeProvider) OptionsFactsWarm(ctx context.Context, ticker string) (state.OptionsFacts, error) {
	return state.OptionsFacts{Ticker: ticker}, nil
}
func (f *fakeProvider) OptionsFactsCold(ctx context.Context, ticker string) (state.OptionsFacts, error) {
	return state.OptionsFacts{Ticker: ticker}, nil
}
func (f *fakeProvider) Earnings(ctx context.Context, ticker string) (provider.EarningsReport, bool, error) {
	return provider.EarningsReport{}, false, nil
}
func (f *fakeProvider) News(ctx context.Context, ticker string) ([]state.NewsHeadline, error) {
	return nil, nil
}
func (f *fakeProvider) MarketFacts(ctx context.Context) (state.MarketFacts, error) {
	return state.MarketFacts{}, nil
}
func (f *fakeProvider) ScanCandidates(ctx context.Context) ([]discovery.ScanCandidate, error) {
	return nil, nil
}
func (f *fakeProvider) VolatilityCandidates(ctx context.Context) ([]discovery.VolatilityCandidate, error) {
	return nil, nil
}
func (f *fakeProvider) HaltEvents(ctx context.Context) ([]discovery.HaltResumeEvent, error) {
	return nil, nil
}
func (f *fakeProvider) GapCandidates(ctx context.Context) ([]discovery.GapCandidate, error) {
	return nil, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	layout := state.Layout{Dir: t.TempDir()}
	store := state.New(nil, 100)
	fanIn := provider.NewFanIn(&fakeProvider{}, store)
	j := journal.New(store, layout)
	sink := discovery.NewSink(store, j)
	classifier := &ml.Classifier{}
	engine := tradesignal.NewEngine()
	sched := scheduler.New(store, fanIn, nil, engine, classifier, j, sink, nil, layout)
	return NewServer(store, j, classifier, sink, sched, nil, nil, layout, nil)
}

func doJSON(t *testing.T, s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestPostTickersAddAndRemove(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/tickers", tickerActionRequest{Ticker: "aapl", Action: "add"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, s.Store.IsWatched("AAPL"))

	rec = doJSON(t, s, http.MethodPost, "/api/tickers", tickerActionRequest{Ticker: "aapl", Action: "remove"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, s.Store.IsWatched("AAPL"))
}

func TestPostTickersRejectsBadAction(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodPost, "/api/tickers", tickerActionRequest{Ticker: "AAPL", Action: "frobnicate"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPostTickersRejectsBadTicker(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodPost, "/api/tickers", tickerActionRequest{Ticker: "not a ticker", Action: "add"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPostPaperTradeOpensAndRejectsDuplicate(t *testing.T) {
	s := newTestServer(t)
	req := paperTradeRequest{
		Ticker: "AAPL", Direction: state.DirectionLong,
		Entry: 100, Target1: 105, Stop: 97,
	}
	rec := doJSON(t, s, http.MethodPost, "/api/paper-trades", req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, s, http.MethodPost, "/api/paper-trades", req)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "duplicate pending trade must be rejected")
}

func TestPostClosePaperTrade(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodPost, "/api/paper-trades", paperTradeRequest{
		Ticker: "MSFT", Direction: state.DirectionLong, Entry: 50, Target1: 55, Stop: 48,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var opened state.PaperTrade
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &opened))

	rec = doJSON(t, s, http.MethodPost, "/api/paper-trades/close", closePaperTradeRequest{ID: opened.ID, ExitPrice: 53})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var closed state.PaperTrade
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &closed))
	assert.Equal(t, state.StatusClosedManual, closed.Status)
}

func TestPostBacktest(t *testing.T) {
	s := newTestServer(t)
	candles := []state.Candle{
		{Date: time.Now(), Open: 100, High: 106, Low: 96, Close: 105},
	}
	rec := doJSON(t, s, http.MethodPost, "/api/backtest", backtestRequest{
		Ticker: "AAPL", Direction: state.DirectionLong,
		Entry: 100, Target1: 105, Stop: 97, Candles: candles,
	})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestPostBacktestRejectsEmptyCandles(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodPost, "/api/backtest", backtestRequest{
		Ticker: "AAPL", Direction: state.DirectionLong, Entry: 100, Target1: 105, Stop: 97,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPostValidateTicker(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodPost, "/api/validate-ticker", validateTickerRequest{Ticker: "aapl"})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["valid"])
}

func TestPostChatWithoutTickerPrompts(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodPost, "/api/chat", chatRequest{Message: "how's it going"})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp["reply"], "ticker")
}

func TestPostWebhookTradingViewBroadcasts(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodPost, "/webhook/tradingview", tradingViewAlert{
		Ticker: "AAPL", Message: "breakout", Price: 150, Direction: "long",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPostWebhookXAlertTracksDiscovery(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodPost, "/webhook/x-alert", xAlert{
		Ticker: "GME", Price: 20, Direction: "bullish", Confidence: 90, Detail: "unusual flow",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	_, ok := s.Store.Discovery("GME")
	assert.True(t, ok)
}

func TestPostMLRetrain(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodPost, "/api/ml/retrain", nil)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestPostChatSurfacesRateLimitAfterBackoff(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer backend.Close()

	s := newTestServer(t)
	s.Config = &config.Config{ChatBackendURL: backend.URL}

	saved := chatBackoff
	chatBackoff = []time.Duration{0, 0, 0}
	defer func() { chatBackoff = saved }()

	rec := doJSON(t, s, http.MethodPost, "/api/chat", chatRequest{Message: "outlook on AAPL?"})
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "rate limited", resp["error"])
}

func TestPostChatForwardsToBackend(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"reply":"looks constructive"}`))
	}))
	defer backend.Close()

	s := newTestServer(t)
	s.Config = &config.Config{ChatBackendURL: backend.URL}

	rec := doJSON(t, s, http.MethodPost, "/api/chat", chatRequest{Message: "outlook on AAPL?"})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "looks constructive", resp["reply"])
}
