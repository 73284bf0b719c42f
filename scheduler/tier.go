package scheduler

import "vantage/provider"

// Tier names how much work a cycle takes on beyond the always-on quote/
// candle/score refresh, grounded on the teacher's AutoTrader loop
// (trader/auto_trader.go) which itself only ever ran one cadence — this is
// the spec's generalization of that single loop into three nested cadences
// so expensive work (discovery feeds, disk persistence, WARM/COLD options
// fields) doesn't run on every 10-20 second tick.
//
// Tier is an alias of provider.Tier rather than a distinct type: FanIn needs
// the same cycle-derived classification to decide which options-facts
// fields to fetch this cycle (spec.md §4.1), and provider sits below
// scheduler in the dependency order, so the canonical definition lives
// there and scheduler reuses it under its own established names.
type Tier = provider.Tier

const (
	// HOT runs every cycle: quote/candle refresh, TA, signal scoring, ML
	// blend, paper-trade lifecycle, and the HOT-tier options fields (flow,
	// dark pool, GEX).
	HOT = provider.HOT
	// WARM runs every 5th cycle in addition to HOT: the three cycle-driven
	// discovery producers (scanner, volatility runner, gap analyzer; the
	// halt-resume producer polls on its own timer) against freshly fetched
	// screener feeds, and the WARM-tier options fields (IV rank, max pain,
	// OI change, Greeks, NOPE).
	WARM = provider.WARM
	// COLD runs every 15th cycle in addition to WARM: watchlist, signal
	// version, journal, setup-log and ML persistence to disk (the state
	// snapshot is written every cycle), the scanner-performance export from
	// the sqlite ledger, and the COLD-tier options fields (short interest,
	// realized vol, term structure, skew) plus the earnings call.
	COLD = provider.COLD
)

// TierForCycle classifies a 0-based cycle count into its tier. WARM and COLD
// are both multiples-minus-one so cycle 4 is WARM-only and cycle 14 is both
// WARM and COLD-eligible (COLD is checked first, so it is COLD).
func TierForCycle(cycle int) Tier {
	if cycle%15 == 14 {
		return COLD
	}
	if cycle%5 == 4 {
		return WARM
	}
	return HOT
}

// runsWarmWork reports whether t's cycle should run the WARM-tier work
// (discovery producers). COLD cycles always include WARM work.
func runsWarmWork(t Tier) bool { return t == WARM || t == COLD }

// runsColdWork reports whether t's cycle should run the COLD-tier work
// (disk/sqlite persistence).
func runsColdWork(t Tier) bool { return t == COLD }
