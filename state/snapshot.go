package state

// Snapshot is the JSON-serializable view of the Store, used for the
// `GET /api/state` endpoint, the websocket "full_state" broadcast, and the
// warm-start disk mirror (spec.md §6). It carries the watchlist, quotes,
// technicals, options and market facts, discoveries, signal scores, paper
// trades, scheduler state and signal versions, and each of those
// round-trips through Restore (spec.md §8); candles, tick summaries, tick
// subscriptions and trade setups are not included.
type Snapshot struct {
	Watchlist   []string                `json:"watchlist"`
	Quotes      map[string]Quote        `json:"quotes"`
	Technicals  map[string]Technicals   `json:"technicals"`
	Options     map[string]OptionsFacts `json:"options"`
	Market      MarketFacts             `json:"market"`
	Discoveries []Discovery             `json:"discoveries"`
	Signals     map[string]SignalScore  `json:"signals"`
	PaperTrades []PaperTrade            `json:"paperTrades"`
	Scheduler   SchedulerState          `json:"scheduler"`
	Versions    SignalVersionConfig     `json:"signalVersions"`
}

// Snapshot takes a consistent read-locked copy of the fields listed on the
// Snapshot type. Maps and slices are copied at the top level; slices and
// maps inside their values (e.g. a SignalScore's Signals) stay shared with
// the store.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	watch := make([]string, len(s.watchOrder))
	copy(watch, s.watchOrder)

	quotes := make(map[string]Quote, len(s.quotes))
	for k, v := range s.quotes {
		quotes[k] = v
	}
	technicals := make(map[string]Technicals, len(s.technicals))
	for k, v := range s.technicals {
		technicals[k] = v
	}
	options := make(map[string]OptionsFacts, len(s.options))
	for k, v := range s.options {
		options[k] = v
	}
	discoveries := make([]Discovery, 0, len(s.discoveries))
	for _, d := range s.discoveries {
		discoveries = append(discoveries, d)
	}
	signals := make(map[string]SignalScore, len(s.signals))
	for k, v := range s.signals {
		signals[k] = v
	}
	trades := make([]PaperTrade, len(s.paperTrades))
	copy(trades, s.paperTrades)

	return Snapshot{
		Watchlist:   watch,
		Quotes:      quotes,
		Technicals:  technicals,
		Options:     options,
		Market:      s.market,
		Discoveries: discoveries,
		Signals:     signals,
		PaperTrades: trades,
		Scheduler:   s.scheduler,
		Versions:    s.versions,
	}
}

// Restore replaces the store's contents from a previously-saved Snapshot
// (warm start, spec.md §4.1 "persists the state snapshot to disk at the end
// so the UI survives restarts").
func (s *Store) Restore(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.watchlist = make(map[string]bool, len(snap.Watchlist))
	s.watchOrder = make([]string, 0, len(snap.Watchlist))
	for _, t := range snap.Watchlist {
		if n, ok := NormalizeTicker(t); ok {
			s.watchlist[n] = true
			s.watchOrder = append(s.watchOrder, n)
		}
	}

	s.quotes = snap.Quotes
	if s.quotes == nil {
		s.quotes = make(map[string]Quote)
	}
	s.technicals = snap.Technicals
	if s.technicals == nil {
		s.technicals = make(map[string]Technicals)
	}
	s.options = snap.Options
	if s.options == nil {
		s.options = make(map[string]OptionsFacts)
	}
	s.market = snap.Market

	s.discoveries = make(map[string]Discovery, len(snap.Discoveries))
	for _, d := range snap.Discoveries {
		s.discoveries[d.Ticker] = d
	}

	s.signals = snap.Signals
	if s.signals == nil {
		s.signals = make(map[string]SignalScore)
	}
	s.paperTrades = snap.PaperTrades
	s.scheduler = snap.Scheduler
	if snap.Versions.Versions != nil {
		s.versions = snap.Versions
	}
}
