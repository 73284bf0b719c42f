package signal

import "vantage/state"

// DetermineRegime derives the coarse market-state label from VIX and the
// ticker's ADX reading (spec.md §4.4, GLOSSARY "Regime"); the tide argument
// is accepted but not consulted. It is deliberately simple: a single, explainable rule chain
// rather than a trained classifier, matching the rule-engine nature of the
// rest of the signal layer.
func DetermineRegime(adx state.ADXState, vix state.VIXSpike, tide state.MarketTide) state.Regime {
	if vix.Spiking {
		return state.RegimeVolatile
	}
	if adx.Value == 0 {
		return state.RegimeUnknown
	}
	if adx.Value < 18 {
		return state.RegimeRanging
	}
	if adx.PlusDI >= adx.MinusDI {
		return state.RegimeTrendingUp
	}
	return state.RegimeTrendingDown
}

// isRanging is a convenience used throughout the signal catalogue for
// regime-dampening decisions (spec.md §4.4a).
func isRanging(r state.Regime) bool { return r == state.RegimeRanging }
