package provider

// Tier classifies how much of a ticker's options-facts bundle a fetch should
// refresh this cycle (spec.md §4.1): HOT fields move every cycle (flow, dark
// pool, GEX), WARM fields move every 5th cycle (IV rank, max pain, OI change,
// Greeks, NOPE), COLD fields move every 15th cycle (short interest, realized
// vol, term structure, risk-reversal skew) alongside the Earnings call. Tier
// is defined here, below scheduler in the dependency order, so FanIn can
// gate its fetches on the same classification the scheduler's cycle counter
// produces without scheduler importing provider's consumer (it already
// does) or provider importing scheduler (it must not).
type Tier int

const (
	HOT Tier = iota
	WARM
	COLD
)
