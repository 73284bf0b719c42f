package signal

import "vantage/state"

// setupPattern is a named multi-condition overlay checked after the weighted
// catalogue runs. A matched setup overrides the weighted direction outright
// (spec.md §4.4 "Setup overlay"): traders think in named patterns ("oversold
// bounce off support"), not raw indicator sums, so a recognized pattern
// should win even when the weighted vote disagrees.
type setupPattern struct {
	name   string
	detect func(in EvalInput) (float64, bool) // returns strength [0,1]
}

var setupCatalogue = []setupPattern{
	{
		name: "oversold-bounce",
		detect: func(in EvalInput) (float64, bool) {
			if in.Tech.InsufficientData || in.Tech.RSI > 32 {
				return 0, false
			}
			if in.Tech.Bollinger.Position > 0.15 {
				return 0, false
			}
			strength := (32 - in.Tech.RSI) / 32
			if in.Tech.VolumeSpike {
				strength += 0.15
			}
			return clamp01(strength), true
		},
	},
	{
		name: "overbought-fade",
		detect: func(in EvalInput) (float64, bool) {
			if in.Tech.InsufficientData || in.Tech.RSI < 68 {
				return 0, false
			}
			if in.Tech.Bollinger.Position < 0.85 {
				return 0, false
			}
			strength := (in.Tech.RSI - 68) / 32
			if in.Tech.VolumeSpike {
				strength += 0.15
			}
			return clamp01(strength), true
		},
	},
	{
		name: "trend-continuation-bull",
		detect: func(in EvalInput) (float64, bool) {
			if in.Tech.InsufficientData || in.Tech.EMABias != state.EMABullish {
				return 0, false
			}
			if in.Tech.ADX.Strength != state.TrendStrong && in.Tech.ADX.Strength != state.TrendExtreme {
				return 0, false
			}
			if in.Tech.MACD.Histogram <= 0 {
				return 0, false
			}
			strength := in.Tech.ADX.Value / 60
			return clamp01(strength), true
		},
	},
	{
		name: "trend-continuation-bear",
		detect: func(in EvalInput) (float64, bool) {
			if in.Tech.InsufficientData || in.Tech.EMABias != state.EMABearish {
				return 0, false
			}
			if in.Tech.ADX.Strength != state.TrendStrong && in.Tech.ADX.Strength != state.TrendExtreme {
				return 0, false
			}
			if in.Tech.MACD.Histogram >= 0 {
				return 0, false
			}
			strength := in.Tech.ADX.Value / 60
			return clamp01(strength), true
		},
	},
	{
		name: "earnings-gap-momentum",
		detect: func(in EvalInput) (float64, bool) {
			if in.Earnings == nil || in.Earnings.Beat == "" {
				return 0, false
			}
			if in.Earnings.Beat == "BEAT" && in.Earnings.AfterHoursChangePct >= 2 {
				return clamp01(in.Earnings.SurprisePct / 20), true
			}
			return 0, false
		},
	},
	{
		name: "gamma-squeeze-setup",
		detect: func(in EvalInput) (float64, bool) {
			ratio := callPutPremiumRatio(in.Options)
			if ratio < 2 || in.Options.ShortInterestPct < 15 {
				return 0, false
			}
			return clamp01(ratio / 5), true
		},
	},
}

// clamp01 is shared with package ta's indicator clamping logic but kept
// local so signal has no compile-time dependency on ta's unexported helpers.
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// applySetupOverlay mutates score in place: a matched setup's direction wins
// over the weighted vote, with confidence 60+30*strength capped at 95 and a
// +5 bonus when the weighted direction agrees. With no match the weighted
// confidence is capped at 55 — context only, no edge (spec.md §4.4 "Setup
// overlay").
func applySetupOverlay(score *state.SignalScore, in EvalInput) {
	var best setupPattern
	var bestStrength float64
	matched := false
	for _, sp := range setupCatalogue {
		strength, ok := sp.detect(in)
		if !ok {
			continue
		}
		if !matched || strength > bestStrength {
			best, bestStrength, matched = sp, strength, true
		}
	}
	if !matched {
		if score.Confidence > 55 {
			score.Confidence = 55
		}
		return
	}

	setupDirection := setupDirectionOf(best.name)
	score.MatchedSetups = []string{best.name}

	conf := 60 + int(30*bestStrength)
	if conf > 95 {
		conf = 95
	}
	if setupDirection == score.Direction {
		conf += 5
		if conf > 95 {
			conf = 95
		}
	}

	score.Direction = setupDirection
	score.Confidence = conf
}

func setupDirectionOf(name string) state.Direction {
	switch name {
	case "oversold-bounce", "trend-continuation-bull", "earnings-gap-momentum", "gamma-squeeze-setup":
		return state.DirectionBullish
	default:
		return state.DirectionBearish
	}
}
