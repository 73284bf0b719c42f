package state

import (
	"sort"
	"sync"
	"time"
)

// Store is the single owning structure for all process-wide state
// (spec.md §9 "Global mutable state"). It is safe for concurrent use: one
// RWMutex serializes every mutator; readers needing a consistent view take
// Snapshot(), which copies the snapshotted fields under one read lock.
type Store struct {
	mu sync.RWMutex

	watchlist map[string]bool
	watchOrder []string

	quotes      map[string]Quote
	candles     map[string]map[string][]Candle // ticker -> timeframe -> candles
	technicals  map[string]Technicals
	options     map[string]OptionsFacts
	market      MarketFacts

	discoveries map[string]Discovery
	ticks       map[string]TickSummary
	subs        map[string]TickSubscription

	signals map[string]SignalScore
	setups  map[string]TradeSetup

	paperTrades []PaperTrade

	scheduler SchedulerState
	versions  SignalVersionConfig
}

// New creates an empty Store with the given default watchlist.
func New(defaultWatchlist []string, dailyLimit int) *Store {
	s := &Store{
		watchlist:  make(map[string]bool),
		quotes:     make(map[string]Quote),
		candles:    make(map[string]map[string][]Candle),
		technicals: make(map[string]Technicals),
		options:    make(map[string]OptionsFacts),
		discoveries: make(map[string]Discovery),
		ticks:       make(map[string]TickSummary),
		subs:        make(map[string]TickSubscription),
		signals:     make(map[string]SignalScore),
		setups:      make(map[string]TradeSetup),
		scheduler: SchedulerState{
			DailyLimit: dailyLimit,
		},
		versions: DefaultSignalVersions(),
	}
	for _, t := range defaultWatchlist {
		if n, ok := NormalizeTicker(t); ok {
			s.watchlist[n] = true
			s.watchOrder = append(s.watchOrder, n)
		}
	}
	return s
}

// --- Watchlist ---

// AddTicker adds a ticker to the watchlist. Returns false if already present
// or invalid.
func (s *Store) AddTicker(raw string) bool {
	n, ok := NormalizeTicker(raw)
	if !ok {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watchlist[n] {
		return false
	}
	s.watchlist[n] = true
	s.watchOrder = append(s.watchOrder, n)
	return true
}

// RemoveTicker removes a ticker from the watchlist. Returns false if absent.
func (s *Store) RemoveTicker(raw string) bool {
	n, ok := NormalizeTicker(raw)
	if !ok {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.watchlist[n] {
		return false
	}
	delete(s.watchlist, n)
	for i, t := range s.watchOrder {
		if t == n {
			s.watchOrder = append(s.watchOrder[:i], s.watchOrder[i+1:]...)
			break
		}
	}
	return true
}

// Watchlist returns a copy of the watchlist in insertion order.
func (s *Store) Watchlist() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.watchOrder))
	copy(out, s.watchOrder)
	return out
}

// IsWatched reports whether a ticker is on the watchlist.
func (s *Store) IsWatched(ticker string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.watchlist[ticker]
}

// --- Quotes ---

// SetQuote merges an incoming quote per provider-preference order and stores it.
func (s *Store) SetQuote(q Quote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.quotes[q.Ticker]
	if !ok {
		s.quotes[q.Ticker] = q
		return
	}
	s.quotes[q.Ticker] = MergeQuote(&existing, q)
}

// Quote returns the current quote for a ticker, if any.
func (s *Store) Quote(ticker string) (Quote, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.quotes[ticker]
	return q, ok
}

// Quotes returns a copy of every tracked quote, keyed by ticker.
func (s *Store) Quotes() map[string]Quote {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]Quote, len(s.quotes))
	for k, v := range s.quotes {
		out[k] = v
	}
	return out
}

// --- Candles ---

// SetCandles replaces the candle sequence for ticker/timeframe.
func (s *Store) SetCandles(ticker, timeframe string, candles []Candle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.candles[ticker] == nil {
		s.candles[ticker] = make(map[string][]Candle)
	}
	s.candles[ticker][timeframe] = candles
}

// Candles returns the candle sequence for ticker/timeframe.
func (s *Store) Candles(ticker, timeframe string) ([]Candle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byTF, ok := s.candles[ticker]
	if !ok {
		return nil, false
	}
	c, ok := byTF[timeframe]
	return c, ok
}

// --- Technicals ---

// SetTechnicals stores the derived indicator bundle for a ticker.
func (s *Store) SetTechnicals(t Technicals) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.technicals[t.Ticker] = t
}

// Technicals returns the indicator bundle for a ticker.
func (s *Store) Technicals(ticker string) (Technicals, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.technicals[ticker]
	return t, ok
}

// --- Options / Market facts ---

// SetOptionsFacts stores the options bundle for a ticker.
func (s *Store) SetOptionsFacts(o OptionsFacts) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.options[o.Ticker] = o
}

// OptionsFacts returns the options bundle for a ticker.
func (s *Store) OptionsFacts(ticker string) (OptionsFacts, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.options[ticker]
	return o, ok
}

// MergeOptionsFacts applies a partial options-facts fetch (one tier's worth
// of fields, per spec.md §4.1) onto whatever is already stored for ticker,
// so fields belonging to tiers not refreshed this cycle keep their
// previously-fetched values instead of being zeroed out by a full
// overwrite.
func (s *Store) MergeOptionsFacts(ticker string, apply func(*OptionsFacts)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := s.options[ticker]
	o.Ticker = ticker
	apply(&o)
	s.options[ticker] = o
}

// SetMarketFacts replaces the market-wide facts bundle.
func (s *Store) SetMarketFacts(m MarketFacts) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.market = m
}

// MarketFacts returns the current market-wide facts bundle.
func (s *Store) MarketFacts() MarketFacts {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.market
}

// --- Discoveries ---

// TrackDiscovery inserts or upgrades (re-scores) a discovery in place
// (spec.md §4.7, §9 "Ownership of discovery entries").
func (s *Store) TrackDiscovery(d Discovery) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.discoveries[d.Ticker] = d
}

// Discovery looks up a discovery by ticker. Consumers must tolerate a
// missing key (spec.md §9).
func (s *Store) Discovery(ticker string) (Discovery, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.discoveries[ticker]
	return d, ok
}

// Discoveries returns every tracked discovery.
func (s *Store) Discoveries() []Discovery {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Discovery, 0, len(s.discoveries))
	for _, d := range s.discoveries {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DiscoveredAt.After(out[j].DiscoveredAt) })
	return out
}

// SweepExpiredDiscoveries removes discoveries whose TTL has elapsed and
// returns the tickers removed.
func (s *Store) SweepExpiredDiscoveries(now time.Time) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed []string
	for t, d := range s.discoveries {
		if d.Expired(now) {
			delete(s.discoveries, t)
			removed = append(removed, t)
		}
	}
	return removed
}

// --- Tick subscriptions & summaries ---

// SetTickSummary updates the rolling tick summary for a ticker. Called from
// the tick-stream subscriber goroutine concurrently with the refresh loop.
func (s *Store) SetTickSummary(t TickSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ticks[t.Ticker] = t
}

// TickSummary returns the rolling tick summary for a ticker.
func (s *Store) TickSummary(ticker string) (TickSummary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.ticks[ticker]
	return t, ok
}

// Subscribe auto-subscribes a ticker to the tick stream with a fresh 2h TTL.
func (s *Store) Subscribe(ticker string, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[ticker] = TickSubscription{Ticker: ticker, ExpiresAt: now.Add(DiscoveryTTL)}
}

// SweepExpiredSubscriptions removes subscriptions past their TTL and returns
// the removed tickers (spec.md testable property 9).
func (s *Store) SweepExpiredSubscriptions(now time.Time) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed []string
	for t, sub := range s.subs {
		if !now.Before(sub.ExpiresAt) {
			delete(s.subs, t)
			delete(s.ticks, t)
			removed = append(removed, t)
		}
	}
	return removed
}

// Subscriptions returns every active tick subscription.
func (s *Store) Subscriptions() []TickSubscription {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]TickSubscription, 0, len(s.subs))
	for _, sub := range s.subs {
		out = append(out, sub)
	}
	return out
}

// --- Signals & setups ---

// SetSignalScore stores the latest score for a ticker.
func (s *Store) SetSignalScore(sc SignalScore) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signals[sc.Ticker] = sc
}

// SignalScore returns the latest score for a ticker.
func (s *Store) SignalScore(ticker string) (SignalScore, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sc, ok := s.signals[ticker]
	return sc, ok
}

// SignalScores returns every tracked signal score.
func (s *Store) SignalScores() map[string]SignalScore {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]SignalScore, len(s.signals))
	for k, v := range s.signals {
		out[k] = v
	}
	return out
}

// SetTradeSetup stores the latest trade setup for a ticker.
func (s *Store) SetTradeSetup(ts TradeSetup) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setups[ts.Ticker] = ts
}

// TradeSetup returns the latest trade setup for a ticker.
func (s *Store) TradeSetup(ticker string) (TradeSetup, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ts, ok := s.setups[ticker]
	return ts, ok
}

// --- Paper trades ---

// AppendPaperTrade appends a new paper trade to the in-memory journal mirror.
func (s *Store) AppendPaperTrade(pt PaperTrade) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paperTrades = append(s.paperTrades, pt)
}

// ReplacePaperTrades atomically replaces the whole paper-trade slice (used
// by journal after mutating a trade in place).
func (s *Store) ReplacePaperTrades(trades []PaperTrade) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paperTrades = trades
}

// PaperTrades returns a copy of every paper trade.
func (s *Store) PaperTrades() []PaperTrade {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]PaperTrade, len(s.paperTrades))
	copy(out, s.paperTrades)
	return out
}

// --- Scheduler & versions ---

// Scheduler returns a copy of the current scheduler state.
func (s *Store) Scheduler() SchedulerState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scheduler
}

// SetScheduler replaces the scheduler state.
func (s *Store) SetScheduler(st SchedulerState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduler = st
}

// SignalVersions returns a copy of the signal-version configuration.
func (s *Store) SignalVersions() SignalVersionConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.versions
}

// SetSignalVersions replaces the signal-version configuration.
func (s *Store) SetSignalVersions(v SignalVersionConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.versions = v
}

// DefaultSignalVersions returns built-in fallback weights used when no
// persisted signal-version file is found or it is malformed (spec.md §7
// Configuration error).
func DefaultSignalVersions() SignalVersionConfig {
	return SignalVersionConfig{
		ActiveVersion: "v1",
		Versions: map[string]VersionWeights{
			"v1": {
				Label: "baseline",
				Weights: map[string]float64{},
			},
		},
	}
}
