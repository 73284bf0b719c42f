package ta

import (
	"fmt"

	"vantage/state"
)

// pivotPoints computes classic floor-trader pivots from the most recently
// completed bar (treated as the "prior period").
func pivotPoints(candles []state.Candle) state.PivotPoints {
	if len(candles) < 2 {
		return state.PivotPoints{}
	}
	prior := candles[len(candles)-2]
	pp := (prior.High + prior.Low + prior.Close) / 3
	r1 := 2*pp - prior.Low
	s1 := 2*pp - prior.High
	r2 := pp + (prior.High - prior.Low)
	s2 := pp - (prior.High - prior.Low)
	return state.PivotPoints{PP: pp, S1: s1, S2: s2, R1: r1, R2: r2}
}

// swingPoints scans the last lookback bars for the most recent swing high
// and swing low, each a local extreme (ties allowed) over a window of size
// wing on both sides.
func swingPoints(candles []state.Candle, lookback, wing int) (highIdx, lowIdx int, ok bool) {
	n := len(candles)
	start := n - lookback
	if start < wing {
		start = wing
	}
	highIdx, lowIdx = -1, -1

	for i := start; i < n-wing; i++ {
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
			highIdx = i
		}
		if isLow {
			lowIdx = i
		}
	}
	return highIdx, lowIdx, highIdx >= 0 && lowIdx >= 0
}

var fibRetraceRatios = []float64{0.236, 0.382, 0.5, 0.618, 0.786}
var fibExtendRatios = []float64{1.0, 1.272, 1.414, 1.618, 2.0}

// fibonacciLevels anchors retracement/extension levels to the most recent
// detectable swing (spec.md §4.3). Extensions are surfaced for the
// long-direction target (swing low -> swing high projected further).
func fibonacciLevels(candles []state.Candle) state.FibLevels {
	highIdx, lowIdx, ok := swingPoints(candles, 60, 3)
	if !ok {
		return state.FibLevels{}
	}
	high, low := candles[highIdx].High, candles[lowIdx].Low
	direction := "up"
	if lowIdx > highIdx {
		direction = "down"
	}
	rng := high - low

	retr := make(map[string]float64, len(fibRetraceRatios))
	for _, r := range fibRetraceRatios {
		retr[fmt.Sprintf("%.3f", r)] = high - rng*r
	}
	ext := make(map[string]float64, len(fibExtendRatios))
	for _, r := range fibExtendRatios {
		ext[fmt.Sprintf("%.3f", r)] = low + rng*r
	}

	return state.FibLevels{
		SwingHigh:   high,
		SwingLow:    low,
		Direction:   direction,
		Retracement: retr,
		Extension:   ext,
	}
}
