package ta

import (
	"math"

	"vantage/state"
)

// minPatternStrength is the floor below which a detected pattern is
// omitted from the output (spec.md §4.3).
const minPatternStrength = 0.3

// candlePatterns scans the last few bars for a small curated catalogue of
// recognizable candlestick patterns. Each detector returns a strength in
// [0,1]; patterns below minPatternStrength are dropped before returning.
func candlePatterns(candles []state.Candle) []state.CandlePattern {
	if len(candles) < 3 {
		return nil
	}
	var out []state.CandlePattern
	last := candles[len(candles)-1]
	prev := candles[len(candles)-2]
	prev2 := candles[len(candles)-3]

	add := func(name, direction string, strength float64) {
		if strength >= minPatternStrength {
			out = append(out, state.CandlePattern{Name: name, Direction: direction, Strength: strength})
		}
	}

	if s, ok := bullishEngulfing(prev, last); ok {
		add("bullish-engulfing", "bull", s)
	}
	if s, ok := bearishEngulfing(prev, last); ok {
		add("bearish-engulfing", "bear", s)
	}
	if s, ok := hammer(last); ok {
		add("hammer", "bull", s)
	}
	if s, ok := shootingStar(last); ok {
		add("shooting-star", "bear", s)
	}
	if s, ok := doji(last); ok {
		add("doji", "bull", s * 0.5) // informational, weak either-way signal
	}
	if s, ok := morningStar(prev2, prev, last); ok {
		add("morning-star", "bull", s)
	}
	if s, ok := eveningStar(prev2, prev, last); ok {
		add("evening-star", "bear", s)
	}
	return out
}

func bodySize(c state.Candle) float64  { return math.Abs(c.Close - c.Open) }
func candleRange(c state.Candle) float64 { return c.High - c.Low }
func isBullish(c state.Candle) bool    { return c.Close > c.Open }
func isBearish(c state.Candle) bool    { return c.Close < c.Open }

func bullishEngulfing(prev, last state.Candle) (float64, bool) {
	if !isBearish(prev) || !isBullish(last) {
		return 0, false
	}
	if last.Open > prev.Close || last.Close < prev.Open {
		return 0, false
	}
	if bodySize(prev) == 0 {
		return 0, false
	}
	ratio := bodySize(last) / bodySize(prev)
	return clamp01(ratio - 0.5), true
}

func bearishEngulfing(prev, last state.Candle) (float64, bool) {
	if !isBullish(prev) || !isBearish(last) {
		return 0, false
	}
	if last.Open < prev.Close || last.Close > prev.Open {
		return 0, false
	}
	if bodySize(prev) == 0 {
		return 0, false
	}
	ratio := bodySize(last) / bodySize(prev)
	return clamp01(ratio - 0.5), true
}

func hammer(c state.Candle) (float64, bool) {
	rng := candleRange(c)
	if rng == 0 {
		return 0, false
	}
	body := bodySize(c)
	lowerWick := math.Min(c.Open, c.Close) - c.Low
	upperWick := c.High - math.Max(c.Open, c.Close)
	if lowerWick < 2*body || upperWick > body {
		return 0, false
	}
	return clamp01(lowerWick / rng), true
}

func shootingStar(c state.Candle) (float64, bool) {
	rng := candleRange(c)
	if rng == 0 {
		return 0, false
	}
	body := bodySize(c)
	upperWick := c.High - math.Max(c.Open, c.Close)
	lowerWick := math.Min(c.Open, c.Close) - c.Low
	if upperWick < 2*body || lowerWick > body {
		return 0, false
	}
	return clamp01(upperWick / rng), true
}

func doji(c state.Candle) (float64, bool) {
	rng := candleRange(c)
	if rng == 0 {
		return 0, false
	}
	body := bodySize(c)
	if body/rng > 0.1 {
		return 0, false
	}
	return clamp01(1 - body/rng), true
}

func morningStar(first, mid, last state.Candle) (float64, bool) {
	if !isBearish(first) || !isBullish(last) {
		return 0, false
	}
	if bodySize(mid) > bodySize(first)*0.5 {
		return 0, false
	}
	if last.Close < (first.Open+first.Close)/2 {
		return 0, false
	}
	return clamp01(bodySize(last) / math.Max(bodySize(first), 0.0001)), true
}

func eveningStar(first, mid, last state.Candle) (float64, bool) {
	if !isBullish(first) || !isBearish(last) {
		return 0, false
	}
	if bodySize(mid) > bodySize(first)*0.5 {
		return 0, false
	}
	if last.Close > (first.Open+first.Close)/2 {
		return 0, false
	}
	return clamp01(bodySize(last) / math.Max(bodySize(first), 0.0001)), true
}
