package state

import "time"

// FlowAlert is one notable options-flow print.
type FlowAlert struct {
	Time      time.Time `json:"time"`
	Strike    float64   `json:"strike"`
	Expiry    string    `json:"expiry"`
	Type      string    `json:"type"` // "call" | "put"
	Premium   float64   `json:"premium"`
	Size      int       `json:"size"`
	Sweep     bool       `json:"sweep"`
	Direction Direction `json:"direction"`
}

// NetPremiumPoint is one timestamped sample of net call/put premium.
type NetPremiumPoint struct {
	Time       time.Time `json:"time"`
	NetPremium float64   `json:"netPremium"`
}

// StrikeFlow aggregates flow at one strike.
type StrikeFlow struct {
	Strike      float64 `json:"strike"`
	CallPremium float64 `json:"callPremium"`
	PutPremium  float64 `json:"putPremium"`
	Volume      int     `json:"volume"`
}

// ExpiryFlow aggregates flow at one expiry.
type ExpiryFlow struct {
	Expiry      string  `json:"expiry"`
	CallPremium float64 `json:"callPremium"`
	PutPremium  float64 `json:"putPremium"`
}

// GreekExposure is net dealer Greek exposure at one strike/expiry bucket.
type GreekExposure struct {
	Strike float64 `json:"strike"`
	Expiry string  `json:"expiry"`
	Delta  float64 `json:"delta"`
	Gamma  float64 `json:"gamma"`
	Theta  float64 `json:"theta"`
	Vega   float64 `json:"vega"`
}

// SpotGreeks is the interpolated Greek read at the current underlying price.
type SpotGreeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
}

// GEXPoint is gamma exposure at one strike or one expiry-strike bucket.
type GEXPoint struct {
	Strike float64 `json:"strike"`
	Expiry string  `json:"expiry,omitempty"`
	GEX    float64 `json:"gex"`
}

// VolPoint is one point on the vol term structure or IV surface.
type VolPoint struct {
	Tenor string  `json:"tenor"` // e.g. "7d", "30d", "60d"
	IV    float64 `json:"iv"`
}

// OptionsFacts bundles every options-derived fact for one ticker.
type OptionsFacts struct {
	Ticker            string            `json:"ticker"`
	AsOf              time.Time         `json:"asOf"`
	FlowAlerts        []FlowAlert       `json:"flowAlerts"`
	NetPremiumSeries  []NetPremiumPoint `json:"netPremiumSeries"`
	FlowPerStrike     []StrikeFlow      `json:"flowPerStrike"`
	FlowPerExpiry     []ExpiryFlow      `json:"flowPerExpiry"`
	GreekExposures    []GreekExposure   `json:"greekExposures"`
	SpotGreeks        SpotGreeks        `json:"spotGreeks"`
	GEXPerStrike      []GEXPoint        `json:"gexPerStrike"`
	GEXPerExpiry      []GEXPoint        `json:"gexPerExpiry"`
	MaxPainStrike     float64           `json:"maxPainStrike"`
	OIChange          float64           `json:"oiChange"`
	IVRank1Y          float64           `json:"ivRank1y"`
	IVSurface         []VolPoint        `json:"ivSurface"`
	RiskReversalSkew  float64           `json:"riskReversalSkew"`
	RealizedVol       float64           `json:"realizedVol"`
	VolTermStructure  []VolPoint        `json:"volTermStructure"`
	NOPE              float64           `json:"nope"`
	ShortInterestPct  float64           `json:"shortInterestPct"`
}

// MarketTide is aggregate bull/bear options volume and premium for the whole
// market (or a sector/ETF, reused by SectorTide/ETFTide below).
type MarketTide struct {
	Name          string    `json:"name"`
	AsOf          time.Time `json:"asOf"`
	BullVolume    float64   `json:"bullVolume"`
	BearVolume    float64   `json:"bearVolume"`
	BullPremium   float64   `json:"bullPremium"`
	BearPremium   float64   `json:"bearPremium"`
}

// VIXSpike flags an abnormal VIX move.
type VIXSpike struct {
	Value     float64   `json:"value"`
	ChangePct float64   `json:"changePct"`
	Spiking   bool      `json:"spiking"`
	AsOf      time.Time `json:"asOf"`
}

// ETFFlow is net creation/redemption flow for one ETF.
type ETFFlow struct {
	Symbol    string  `json:"symbol"`
	NetFlowUSD float64 `json:"netFlowUsd"`
}

// CalendarEvent is one economic or FDA-catalyst calendar entry.
type CalendarEvent struct {
	Time    time.Time `json:"time"`
	Name    string    `json:"name"`
	Ticker  string    `json:"ticker,omitempty"`
	Impact  string    `json:"impact,omitempty"` // "high" | "medium" | "low"
}

// NetPremiumImpact is one row of the top-net-premium-impact list.
type NetPremiumImpact struct {
	Ticker     string  `json:"ticker"`
	NetPremium float64 `json:"netPremium"`
}

// InsiderTransaction is one Form-4-style insider trade.
type InsiderTransaction struct {
	Ticker   string    `json:"ticker"`
	Insider  string    `json:"insider"`
	Role     string    `json:"role"`
	Type     string    `json:"type"` // "buy" | "sell"
	Shares   int       `json:"shares"`
	Value    float64   `json:"value"`
	Time     time.Time `json:"time"`
}

// TrackRecord summarizes a politician's historical trade performance, used
// to enrich CongressTrade entries (spec.md §3).
type TrackRecord struct {
	TotalTrades int     `json:"totalTrades"`
	WinRate     float64 `json:"winRate"`
	AvgReturn   float64 `json:"avgReturnPct"`
}

// CongressTrade is one disclosed congressional transaction.
type CongressTrade struct {
	Ticker      string      `json:"ticker"`
	Politician  string      `json:"politician"`
	Chamber     string      `json:"chamber"` // "house" | "senate"
	Type        string      `json:"type"`    // "buy" | "sell"
	AmountRange string      `json:"amountRange"`
	Time        time.Time   `json:"time"`
	TrackRecord TrackRecord `json:"trackRecord"`
}

// NewsHeadline is one news item, optionally ticker-scoped.
type NewsHeadline struct {
	Time      time.Time `json:"time"`
	Headline  string    `json:"headline"`
	Ticker    string    `json:"ticker,omitempty"`
	Sentiment float64   `json:"sentiment"` // [-1,1]
	Source    string    `json:"source"`
}

// MarketFacts bundles every market-wide (non-ticker-scoped) fact.
type MarketFacts struct {
	AsOf                time.Time            `json:"asOf"`
	Tide                MarketTide           `json:"tide"`
	VIX                 VIXSpike             `json:"vix"`
	SectorTides         map[string]MarketTide `json:"sectorTides"`
	ETFTides            map[string]MarketTide `json:"etfTides"`
	ETFFlows            []ETFFlow            `json:"etfFlows"`
	EconCalendar        []CalendarEvent      `json:"econCalendar"`
	FDACalendar         []CalendarEvent      `json:"fdaCalendar"`
	TopNetPremiumImpact []NetPremiumImpact   `json:"topNetPremiumImpact"`
	InsiderTransactions []InsiderTransaction `json:"insiderTransactions"`
	CongressTrades      []CongressTrade      `json:"congressTrades"`
	News                []NewsHeadline       `json:"news"`
	Holidays            []string             `json:"holidays"`    // YYYY-MM-DD
	EarlyCloses         []string             `json:"earlyCloses"` // YYYY-MM-DD, 13:00 ET close
}

// TickSummary is the rolling, asynchronously-updated per-ticker tick
// summary maintained by the tick-stream subscriber (spec.md §4.2).
type TickSummary struct {
	Ticker          string    `json:"ticker"`
	LastPrice       float64   `json:"lastPrice"`
	Bid             float64   `json:"bid"`
	Ask             float64   `json:"ask"`
	VWAP            float64   `json:"vwap"`
	BuyVolumePct    float64   `json:"buyVolumePct"`
	SellVolumePct   float64   `json:"sellVolumePct"`
	FlowImbalance   float64   `json:"flowImbalance"` // [-1,1]
	LargeBlockBuys  int       `json:"largeBlockBuys"`
	LargeBlockSells int       `json:"largeBlockSells"`
	TotalVolume     float64   `json:"totalVolume"`
	HighOfDay       float64   `json:"highOfDay"`
	LowOfDay        float64   `json:"lowOfDay"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// TickSubscription tracks an auto-subscribed discovery ticker's TTL
// (spec.md §4.7, testable property 9).
type TickSubscription struct {
	Ticker    string    `json:"ticker"`
	ExpiresAt time.Time `json:"expiresAt"`
}
