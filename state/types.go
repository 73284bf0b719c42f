// Package state defines vantage's shared data model and the single
// in-memory store that holds it. Every other package reads and mutates this
// state through *Store; there are no package-level globals (spec.md §9).
package state

import (
	"regexp"
	"time"
)

var tickerPattern = regexp.MustCompile(`^[A-Z]{1,5}$`)

// NormalizeTicker upper-cases and validates a ticker symbol against the
// canonical 1-5 uppercase-letter form used as the key of every ticker-keyed
// map in the system.
func NormalizeTicker(raw string) (string, bool) {
	t := toUpper(raw)
	return t, tickerPattern.MatchString(t)
}

func toUpper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}

// PriceSource tags where a Quote's live fields came from.
type PriceSource string

const (
	SourceRealTimeStream  PriceSource = "real-time-stream"
	SourceSnapshot        PriceSource = "snapshot"
	SourceHistoricalClose PriceSource = "historical-close"
)

// AnnounceTime is the earnings-announcement daypart.
type AnnounceTime string

const (
	AnnounceBMO     AnnounceTime = "bmo"
	AnnounceAMC     AnnounceTime = "amc"
	AnnounceUnknown AnnounceTime = "unknown"
)

// Quote is the latest pricing snapshot for one ticker. When a real-time
// stream value is available it supersedes snapshot/historical values; the
// chosen value and its Source are both retained (spec.md §3 Quote invariant).
type Quote struct {
	Ticker           string       `json:"ticker"`
	Last             float64      `json:"last"`
	Open             float64      `json:"open"`
	High             float64      `json:"high"`
	Low              float64      `json:"low"`
	PrevClose        float64      `json:"prevClose"`
	Volume           float64      `json:"volume"`
	VWAP             float64      `json:"vwap"`
	Bid              float64      `json:"bid"`
	Ask              float64      `json:"ask"`
	Source           PriceSource  `json:"source"`
	EarningsNextDate *time.Time   `json:"earningsNextDate,omitempty"`
	AnnounceTime     AnnounceTime `json:"announceTime,omitempty"`
	UpdatedAt        time.Time    `json:"updatedAt"`
}

// MergeQuote applies provider preference order: real-time stream > REST
// snapshot > historical aggregate (spec.md §4.2). The incoming quote wins
// only if its source outranks (or equals, i.e. refreshes) the existing one.
func MergeQuote(existing *Quote, incoming Quote) Quote {
	if existing == nil {
		return incoming
	}
	if sourceRank(incoming.Source) >= sourceRank(existing.Source) {
		return incoming
	}
	return *existing
}

func sourceRank(s PriceSource) int {
	switch s {
	case SourceRealTimeStream:
		return 3
	case SourceSnapshot:
		return 2
	case SourceHistoricalClose:
		return 1
	default:
		return 0
	}
}

// Candle is one OHLCV bar. Granularity is tracked out-of-band by the map key
// under which a candle sequence is stored (state.Store.Candles).
type Candle struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// MinCandlesForTA is the minimum sequence length before indicators compute
// (spec.md §3, §8 boundary behavior).
const MinCandlesForTA = 30

// EMABias is the tri-state EMA ordering read.
type EMABias string

const (
	EMABullish EMABias = "bullish"
	EMABearish EMABias = "bearish"
	EMANeutral EMABias = "neutral"
)

// MACDState carries the MACD line, signal, and histogram plus its slope.
type MACDState struct {
	MACD      float64 `json:"macd"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
	// HistogramSuppressed is true when |histogram| <= 0.5% * ATR, in which
	// case the signal engine must not fire on it (spec.md §4.3).
	HistogramSuppressed bool    `json:"histogramSuppressed"`
	Slope               float64 `json:"slope"`
}

// BollingerBands carries the band levels and derived position/bandwidth.
type BollingerBands struct {
	Upper     float64 `json:"upper"`
	Middle    float64 `json:"middle"`
	Lower     float64 `json:"lower"`
	Position  float64 `json:"position"`  // clamped to [0,1]
	Bandwidth float64 `json:"bandwidth"` // (upper-lower)/middle
}

// TrendStrength classifies ADX magnitude.
type TrendStrength string

const (
	TrendAbsent   TrendStrength = "absent"   // ADX < 18
	TrendForming  TrendStrength = "forming"  // 18 <= ADX < 25
	TrendStrong   TrendStrength = "strong"   // 25 <= ADX < 40
	TrendExtreme  TrendStrength = "extreme"  // ADX >= 40
)

// ADXState carries the ADX value, directional indicators, and strength class.
type ADXState struct {
	Value    float64       `json:"value"`
	PlusDI   float64       `json:"plusDI"`
	MinusDI  float64       `json:"minusDI"`
	Strength TrendStrength `json:"strength"`
}

// FibLevels holds retracement and extension prices anchored to the most
// recent detectable swing (spec.md §4.3).
type FibLevels struct {
	SwingHigh   float64            `json:"swingHigh"`
	SwingLow    float64            `json:"swingLow"`
	Direction   string             `json:"direction"` // "up" | "down"
	Retracement map[string]float64 `json:"retracement"`
	Extension   map[string]float64 `json:"extension"`
}

// PivotPoints are classic floor-trader pivots computed from the prior period.
type PivotPoints struct {
	PP float64 `json:"pp"`
	S1 float64 `json:"s1"`
	S2 float64 `json:"s2"`
	R1 float64 `json:"r1"`
	R2 float64 `json:"r2"`
}

// CandlePattern is one recognized candlestick pattern with direction and
// strength; patterns with strength < 0.3 are omitted by the scanner
// (spec.md §4.3).
type CandlePattern struct {
	Name      string  `json:"name"`
	Direction string  `json:"direction"` // "bull" | "bear"
	Strength  float64 `json:"strength"`  // [0,1]
}

// DivergenceType enumerates the four RSI-divergence classes.
type DivergenceType string

const (
	DivergenceRegularBull DivergenceType = "regular-bull"
	DivergenceRegularBear DivergenceType = "regular-bear"
	DivergenceHiddenBull  DivergenceType = "hidden-bull"
	DivergenceHiddenBear  DivergenceType = "hidden-bear"
)

// Divergence is one RSI-vs-price divergence detected in the last 5 swing
// pivots. Regular divergences carry full weight; hidden divergences 60%
// (spec.md §4.3).
type Divergence struct {
	Type     DivergenceType `json:"type"`
	Strength float64        `json:"strength"`
	Detail   string         `json:"detail"`
}

// WeightMultiplier returns the weight multiplier for this divergence's type:
// 1.0 for regular, 0.6 for hidden.
func (d Divergence) WeightMultiplier() float64 {
	switch d.Type {
	case DivergenceRegularBull, DivergenceRegularBear:
		return 1.0
	default:
		return 0.6
	}
}

// Technicals is the full derived indicator bundle for one ticker, computed
// by package ta from a >=30-candle sequence.
type Technicals struct {
	Ticker            string          `json:"ticker"`
	AsOf              time.Time       `json:"asOf"`
	RSI               float64         `json:"rsi"`
	RSISlope          float64         `json:"rsiSlope"`
	EMA9              float64         `json:"ema9"`
	EMA20             float64         `json:"ema20"`
	EMA50             float64         `json:"ema50"`
	EMABias           EMABias         `json:"emaBias"`
	MACD              MACDState       `json:"macd"`
	MACDAcceleration  float64         `json:"macdAcceleration"`
	ATR               float64         `json:"atr"`
	ATRSeries         []float64       `json:"atrSeries"`
	ATRChange         float64         `json:"atrChange"`
	Bollinger         BollingerBands  `json:"bollinger"`
	ADX               ADXState        `json:"adx"`
	Fibonacci         FibLevels       `json:"fibonacci"`
	Pivots            PivotPoints     `json:"pivots"`
	Patterns          []CandlePattern `json:"patterns"`
	Divergences       []Divergence    `json:"divergences"`
	SwingHigh         float64         `json:"swingHigh"`
	SwingLow          float64         `json:"swingLow"`
	VolumeSpike       bool            `json:"volumeSpike"`
	VWAP              float64         `json:"vwap"`
	InsufficientData  bool            `json:"insufficientData"`
}

// Regime is the coarse market-state label.
type Regime string

const (
	RegimeTrendingUp   Regime = "trending-up"
	RegimeTrendingDown Regime = "trending-down"
	RegimeRanging      Regime = "ranging"
	RegimeVolatile     Regime = "volatile"
	RegimeUnknown      Regime = "unknown"
)

// Session is the wall-clock ET trading-day classification.
type Session string

const (
	SessionPreMarket  Session = "pre-market"
	SessionOpenRush   Session = "open-rush"
	SessionPowerOpen  Session = "power-open"
	SessionMidday     Session = "midday"
	SessionPowerHour  Session = "power-hour"
	SessionAfterHours Session = "after-hours"
	SessionOvernight  Session = "overnight"
)

// Horizon is the expected holding duration for a setup.
type Horizon string

const (
	HorizonScalp         Horizon = "scalp"
	HorizonDay            Horizon = "day"
	HorizonDayVolatile     Horizon = "day-volatile"
	HorizonSwing           Horizon = "swing"
	HorizonIntraday        Horizon = "intraday"
	HorizonExtendedHours   Horizon = "extended-hours"
)

// Direction is a signal/trade directional label.
type Direction string

const (
	DirectionBullish Direction = "bullish"
	DirectionBearish Direction = "bearish"
	DirectionNeutral Direction = "neutral"
	DirectionLong    Direction = "long"
	DirectionShort   Direction = "short"
)

// SignalContribution is one catalogue indicator's weighted contribution to a
// SignalScore.
type SignalContribution struct {
	Name      string    `json:"name"`
	Direction Direction `json:"direction"`
	Weight    float64   `json:"weight"`
	Detail    string    `json:"detail"`
}

// FeatureCount is the length of the ML feature vector (spec.md §4.4c).
const FeatureCount = 25

// SignalScore is the signal engine's verdict for one ticker.
type SignalScore struct {
	Ticker        string                 `json:"ticker"`
	Direction     Direction              `json:"direction"`
	Confidence    int                    `json:"confidence"` // [0,95]
	BullWeight    float64                `json:"bullWeight"`
	BearWeight    float64                `json:"bearWeight"`
	Spread        float64                `json:"spread"`
	Signals       []SignalContribution   `json:"signals"`
	Features      [FeatureCount]float64  `json:"features"`
	ShadowScores  map[string]int         `json:"shadowScores"`
	MatchedSetups []string               `json:"matchedSetups"`
	Session       Session                `json:"session"`
	Timestamp     time.Time              `json:"timestamp"`
}

// StructureSnap records whether a target or stop was snapped to a structural
// level and the source label of each (e.g. "fib_1.272|atr_target_2x",
// "pivot_s1", "strike").
type StructureSnap struct {
	Snapped      bool   `json:"snapped"`
	TargetSource string `json:"targetSource,omitempty"`
	StopSource   string `json:"stopSource,omitempty"`
}

// TradeConfidence splits a trade's confidence into its three constituent
// readings (spec.md §3 Trade setup).
type TradeConfidence struct {
	Technical int `json:"technical"`
	ML        int `json:"ml"`
	Blended   int `json:"blended"`
}

// TradeSetup is a fully-formed, risk-sized trading idea derived from a
// SignalScore plus structure-snapped target/stop.
type TradeSetup struct {
	Ticker        string          `json:"ticker"`
	Direction     Direction       `json:"direction"` // long | short
	Entry         float64         `json:"entry"`
	Target1       float64         `json:"target1"`
	Target2       float64         `json:"target2"`
	Stop          float64         `json:"stop"`
	RiskReward    float64         `json:"riskReward"`
	Horizon       Horizon         `json:"horizon"`
	ATRMultiplier float64         `json:"atrMultiplier"`
	Confidence    TradeConfidence `json:"confidence"`
	KellySizing   KellySizing     `json:"kellySizing"`
	Signals       []string        `json:"signals"`
	Structure     *StructureSnap  `json:"structureSnap,omitempty"`
}

// KellySizing is the deterministic position-sizing result.
type KellySizing struct {
	Pct   float64 `json:"pct"`   // Kelly fraction, half-Kelly capped
	Size  float64 `json:"size"`  // dollar risk allocated
	Shares int    `json:"shares"`
}

// PaperTradeStatus enumerates the lifecycle states of a paper trade.
type PaperTradeStatus string

const (
	StatusPending     PaperTradeStatus = "pending"
	StatusWinT1       PaperTradeStatus = "win-t1"
	StatusWinT2       PaperTradeStatus = "win-t2"
	StatusLossStop    PaperTradeStatus = "loss-stop"
	StatusClosedEOD   PaperTradeStatus = "closed-eod"
	StatusClosedManual PaperTradeStatus = "closed-manual"
)

// PaperTrade is one simulated trade with full lifecycle bookkeeping.
type PaperTrade struct {
	ID                string           `json:"id"`
	Ticker            string           `json:"ticker"`
	Direction         Direction        `json:"direction"` // long | short
	EntryPrice        float64          `json:"entryPrice"`
	EntryTime         time.Time        `json:"entryTime"`
	Stop              float64          `json:"stop"`
	Target1           float64          `json:"target1"`
	Target2           float64          `json:"target2"`
	Horizon           Horizon          `json:"horizon"`
	Confidence        int              `json:"confidence"`
	Status            PaperTradeStatus `json:"status"`
	ExitPrice         *float64         `json:"exitPrice,omitempty"`
	ExitTime          *time.Time       `json:"exitTime,omitempty"`
	PnLPoints         *float64         `json:"pnlPoints,omitempty"`
	PnLPct            *float64         `json:"pnlPct,omitempty"`
	PnLTotal          *float64         `json:"pnlTotal,omitempty"`
	UnrealizedPnLPct  float64          `json:"unrealizedPnlPct"`
	UnrealizedPnLUSD  float64          `json:"unrealizedPnlTotal"`
	SignalVersion     string           `json:"signalVersion"`
	Shares            int              `json:"shares"`
}

// DiscoverySource enumerates discovery producers.
type DiscoverySource string

const (
	DiscoveryScanner         DiscoverySource = "Scanner"
	DiscoveryVolatilityRunner DiscoverySource = "VolatilityRunner"
	DiscoveryHaltResume       DiscoverySource = "HaltResume"
	DiscoveryGapAnalyzer      DiscoverySource = "GapAnalyzer"
)

// DiscoveryTTL is how long a discovery lives before expiry (spec.md §4.7).
const DiscoveryTTL = 2 * time.Hour

// DiscoverySweepInterval is how often expired discoveries/subscriptions are
// swept (spec.md §4.7, testable property 9).
const DiscoverySweepInterval = 15 * time.Minute

// Discovery is a non-watchlist ticker promoted into the scoring loop.
type Discovery struct {
	Ticker       string                 `json:"ticker"`
	Source       DiscoverySource        `json:"source"`
	DiscoveredAt time.Time              `json:"discoveredAt"`
	Price        float64                `json:"price"`
	Direction    Direction              `json:"direction"`
	Confidence   int                    `json:"confidence"`
	TopSignals   []string               `json:"topSignals"`
	Meta         map[string]interface{} `json:"meta,omitempty"`
	ExpiresAt    time.Time              `json:"expiresAt"`
}

// Expired reports whether this discovery should be removed as of now.
func (d Discovery) Expired(now time.Time) bool {
	return !now.Before(d.ExpiresAt)
}

// SchedulerState is the persisted scheduler bookkeeping (spec.md §3).
type SchedulerState struct {
	CycleCount      int       `json:"cycleCount"`
	DailyCallCount  int       `json:"dailyCallCount"`
	DailyLimit      int       `json:"dailyLimit"`
	LastResetDate   string    `json:"lastResetDate"` // YYYY-MM-DD in ET
	SessionName     Session   `json:"sessionName"`
	SessionInterval int64     `json:"sessionIntervalMs"`
}

// DailyBrief summarizes watchlist state for the once-per-session outbound
// brief (spec.md §4.9).
type DailyBrief struct {
	Session     Session `json:"session"`
	Watchlist   int     `json:"watchlist"`
	Discoveries int     `json:"discoveries"`
	OpenTrades  int     `json:"openTrades"`
	WinRate     float64 `json:"winRate"`
}

// VersionWeights is one signal-version's tunable parameters.
type VersionWeights struct {
	Label            string                        `json:"label"`
	Weights          map[string]float64            `json:"weights"`
	WeightsScalp     map[string]float64             `json:"weightsScalp,omitempty"`
	WeightsDay       map[string]float64             `json:"weightsDay,omitempty"`
	WeightsSwing     map[string]float64             `json:"weightsSwing,omitempty"`
	TickerOverrides  map[string]map[string]float64  `json:"tickerOverrides,omitempty"`
	Gating           map[string]float64             `json:"gating,omitempty"`
}

// SignalVersionConfig permits live A/B comparison of weight sets without
// code changes (spec.md §3).
type SignalVersionConfig struct {
	ActiveVersion string                     `json:"activeVersion"`
	Versions      map[string]VersionWeights  `json:"versions"`
}
