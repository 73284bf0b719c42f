// Package discovery finds tickers outside the configured watchlist worth
// scoring, via four independent producers, and promotes them into the
// scoring loop with a bounded TTL (spec.md §4.7).
package discovery

import "time"

// ScanCandidate is one raw market-scanner read: a ticker's current price
// action relative to its own baseline, supplied by the data-source layer.
type ScanCandidate struct {
	Ticker         string
	Price          float64
	Volume         float64
	AvgVolume      float64
	PriceChangePct float64
}

// VolatilityCandidate is one raw options-flow-screener read, in the style of
// an unusual-whales-type screener feed (spec.md §4.7).
type VolatilityCandidate struct {
	Ticker        string
	Price         float64
	PremiumTotal  float64
	IVRank        float64
	VolumeOIRatio float64
	Sweep         bool
}

// HaltResumeEvent is one trading-halt lifecycle event from an RSS-style
// regulatory feed.
type HaltResumeEvent struct {
	Ticker     string
	HaltTime   time.Time
	ResumeTime *time.Time
	Reason     string
	PreHaltPct float64 // price change into the halt, for ranking
}

// GapCandidate is one raw pre-market/open gap read.
type GapCandidate struct {
	Ticker    string
	PrevClose float64
	Open      float64
	Volume    float64
	AvgVolume float64
	ATR       float64
	Catalyst  string // news headline or earnings tag, if known; may be empty
}
