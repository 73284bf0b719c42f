package signal

import "vantage/state"

// buildFeatures assembles the fixed 25-dim feature vector consumed by
// package ml (spec.md §4.4c). Every slot is a bounded, pre-normalized
// float so the classifier never needs to rescale at inference time; slots
// default to 0 when their source data is unavailable (e.g. InsufficientData,
// no options facts) rather than NaN, keeping gradient descent well-behaved.
func buildFeatures(in EvalInput, bullWeight, bearWeight float64) [state.FeatureCount]float64 {
	var f [state.FeatureCount]float64
	t := in.Tech

	f[0] = norm(t.RSI, 0, 100)
	f[1] = norm(t.RSISlope, -10, 10)
	f[2] = emaBiasFeature(t.EMABias)
	f[3] = sign(t.MACD.Histogram)
	f[4] = norm(t.MACDAcceleration, -2, 2)
	f[5] = t.Bollinger.Position
	f[6] = norm(t.Bollinger.Bandwidth, 0, 0.2)
	f[7] = norm(t.ADX.Value, 0, 60)
	f[8] = norm(t.ADX.PlusDI-t.ADX.MinusDI, -40, 40)
	f[9] = boolFeature(t.VolumeSpike)
	f[10] = norm(t.ATRChange, -1, 1)
	f[11] = boolFeature(len(t.Divergences) > 0)
	f[12] = boolFeature(len(t.Patterns) > 0)
	f[13] = sessionFeature(in.Session)
	f[14] = regimeFeature(in.Regime)
	f[15] = norm(bullWeight, 0, 40)
	f[16] = norm(bearWeight, 0, 40)
	f[17] = norm(bullWeight-bearWeight, -40, 40)
	f[18] = norm(callPutPremiumRatio(in.Options), 0, 5)
	f[19] = norm(in.Options.IVRank1Y, 0, 100)
	f[20] = norm(in.Options.NOPE, -1, 1)
	f[21] = norm(in.Options.ShortInterestPct, 0, 50)
	f[22] = norm(in.Market.Tide.BullPremium-in.Market.Tide.BearPremium, -1e7, 1e7)
	f[23] = boolFeature(in.Market.VIX.Spiking)
	f[24] = tickFeature(in.Tick)

	return f
}

func norm(v, lo, hi float64) float64 {
	if hi == lo {
		return 0
	}
	n := (v - lo) / (hi - lo)
	return clamp01(n)
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func emaBiasFeature(b state.EMABias) float64 {
	switch b {
	case state.EMABullish:
		return 1
	case state.EMABearish:
		return -1
	default:
		return 0
	}
}

func sessionFeature(s state.Session) float64 {
	order := map[state.Session]float64{
		state.SessionPreMarket:  0,
		state.SessionOpenRush:   1.0 / 6,
		state.SessionPowerOpen:  2.0 / 6,
		state.SessionMidday:     3.0 / 6,
		state.SessionPowerHour:  4.0 / 6,
		state.SessionAfterHours: 5.0 / 6,
		state.SessionOvernight:  1,
	}
	return order[s]
}

func regimeFeature(r state.Regime) float64 {
	switch r {
	case state.RegimeTrendingUp:
		return 1
	case state.RegimeTrendingDown:
		return -1
	case state.RegimeVolatile:
		return 0.5
	case state.RegimeRanging:
		return 0
	default:
		return 0
	}
}

func tickFeature(t *state.TickSummary) float64 {
	if t == nil || staleTick(*t) {
		return 0
	}
	return norm(t.FlowImbalance, -1, 1)
}
