package signal

import (
	"sort"

	"vantage/state"
)

// ActiveWeights resolves the currently active VersionWeights, falling back
// to an empty struct (all-default weights) if the active key is missing so
// a misconfigured version never panics the scoring loop (spec.md §7
// Configuration error handling).
func ActiveWeights(cfg state.SignalVersionConfig) state.VersionWeights {
	return cfg.Versions[cfg.ActiveVersion]
}

// GatingValue reads a named gating threshold from a version's Gating map,
// returning def when unset (spec.md §3 SignalVersionConfig).
func GatingValue(vw state.VersionWeights, key string, def float64) float64 {
	if vw.Gating == nil {
		return def
	}
	if v, ok := vw.Gating[key]; ok {
		return v
	}
	return def
}

// MinConfidenceForSetup is the confidence floor below which the engine will
// not emit a TradeSetup for a SignalScore, tunable per version via Gating.
func MinConfidenceForSetup(vw state.VersionWeights) int {
	return int(GatingValue(vw, "minConfidenceForSetup", 65))
}

// ConsecutiveLossLimit is how many consecutive losses on one (ticker,
// direction) pause new paper trades in that direction until a closed
// non-loss resets the streak (spec.md §4.6).
func ConsecutiveLossLimit(vw state.VersionWeights) int {
	return int(GatingValue(vw, "consecutiveLossLimit", 3))
}

// ListVersionKeys returns every configured version key, sorted, for display
// and shadow-scoring iteration order.
func ListVersionKeys(cfg state.SignalVersionConfig) []string {
	keys := make([]string, 0, len(cfg.Versions))
	for k := range cfg.Versions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// TickerOverrideWeight returns the per-ticker multiplier for a named signal,
// or 1.0 when no override is configured.
func TickerOverrideWeight(vw state.VersionWeights, ticker, signalName string) float64 {
	if byTicker, ok := vw.TickerOverrides[ticker]; ok {
		if mult, ok := byTicker[signalName]; ok {
			return mult
		}
	}
	return 1.0
}
