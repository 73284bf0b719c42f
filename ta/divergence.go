package ta

import "vantage/state"

// maxDivergencePivots bounds how many of the most recent swing pivots are
// inspected for RSI divergence (spec.md §4.3: "last 5 swing pivots").
const maxDivergencePivots = 5

// pivot is one local price/RSI extreme used for divergence comparison.
type pivot struct {
	index int
	price float64
	rsi   float64
	isLow bool
}

// findPivots collects every local high and low over the candle series (a
// bar can be both), pairing each with its RSI reading, most recent last,
// and keeps only the last maxDivergencePivots of them.
func findPivots(candles []state.Candle, rsi []float64, wing int) []pivot {
	var pivots []pivot
	n := len(candles)
	for i := wing; i < n-wing; i++ {
		isHigh, isLow := true, true
		for w := 1; w <= wing; w++ {
			if candles[i].High < candles[i-w].High || candles[i].High < candles[i+w].High {
				isHigh = false
			}
			if candles[i].Low > candles[i-w].Low || candles[i].Low > candles[i+w].Low {
				isLow = false
			}
		}
		if isHigh {
			pivots = append(pivots, pivot{index: i, price: candles[i].High, rsi: rsi[i], isLow: false})
		}
		if isLow {
			pivots = append(pivots, pivot{index: i, price: candles[i].Low, rsi: rsi[i], isLow: true})
		}
	}
	if len(pivots) > maxDivergencePivots {
		pivots = pivots[len(pivots)-maxDivergencePivots:]
	}
	return pivots
}

// divergences inspects the last maxDivergencePivots swing pivots for RSI
// divergence, classifying each as regular or hidden, bull or bear
// (spec.md §4.3, §3 Technicals.RSI divergences).
func divergences(candles []state.Candle, rsi []float64) []state.Divergence {
	lows := filterPivots(findPivots(candles, rsi, 2), true)
	highs := filterPivots(findPivots(candles, rsi, 2), false)

	var out []state.Divergence
	if len(lows) >= 2 {
		a, b := lows[len(lows)-2], lows[len(lows)-1]
		if b.price < a.price && b.rsi > a.rsi {
			out = append(out, state.Divergence{
				Type: state.DivergenceRegularBull, Strength: 0.8,
				Detail: "price lower low, RSI higher low",
			})
		}
		if b.price > a.price && b.rsi < a.rsi {
			out = append(out, state.Divergence{
				Type: state.DivergenceHiddenBull, Strength: 0.6,
				Detail: "price higher low, RSI lower low",
			})
		}
	}
	if len(highs) >= 2 {
		a, b := highs[len(highs)-2], highs[len(highs)-1]
		if b.price > a.price && b.rsi < a.rsi {
			out = append(out, state.Divergence{
				Type: state.DivergenceRegularBear, Strength: 0.8,
				Detail: "price higher high, RSI lower high",
			})
		}
		if b.price < a.price && b.rsi > a.rsi {
			out = append(out, state.Divergence{
				Type: state.DivergenceHiddenBear, Strength: 0.6,
				Detail: "price lower high, RSI higher high",
			})
		}
	}
	return out
}

func filterPivots(pivots []pivot, wantLow bool) []pivot {
	var out []pivot
	for _, p := range pivots {
		if p.isLow == wantLow {
			out = append(out, p)
		}
	}
	return out
}
