package ta

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vantage/state"
)

func makeTrendingCandles(n int, start float64, step float64) []state.Candle {
	out := make([]state.Candle, n)
	price := start
	base := time.Date(2026, 1, 1, 9, 30, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		open := price
		close := price + step
		high := math.Max(open, close) + 0.1
		low := math.Min(open, close) - 0.1
		out[i] = state.Candle{
			Date: base.Add(time.Duration(i) * time.Minute),
			Open: open, High: high, Low: low, Close: close,
			Volume: 100000,
		}
		price = close
	}
	return out
}

func TestAnalyzeInsufficientData(t *testing.T) {
	candles := makeTrendingCandles(state.MinCandlesForTA-1, 100, 0.5)
	tech := Analyze("AAPL", candles, time.Now())
	assert.True(t, tech.InsufficientData)
	assert.Zero(t, tech.RSI)
}

func TestAnalyzeUptrendProducesBullishBias(t *testing.T) {
	candles := makeTrendingCandles(80, 100, 0.5)
	tech := Analyze("AAPL", candles, time.Now())
	require.False(t, tech.InsufficientData)
	assert.Equal(t, state.EMABullish, tech.EMABias)
	assert.Greater(t, tech.RSI, 50.0)
	assert.GreaterOrEqual(t, tech.Bollinger.Position, 0.0)
	assert.LessOrEqual(t, tech.Bollinger.Position, 1.0)
}

func TestAnalyzeDowntrendProducesBearishBias(t *testing.T) {
	candles := makeTrendingCandles(80, 200, -0.5)
	tech := Analyze("MSFT", candles, time.Now())
	require.False(t, tech.InsufficientData)
	assert.Equal(t, state.EMABearish, tech.EMABias)
	assert.Less(t, tech.RSI, 50.0)
}

func TestBollingerPositionClamped(t *testing.T) {
	candles := makeTrendingCandles(60, 100, 5) // strong runaway trend, price far outside bands
	tech := Analyze("TSLA", candles, time.Now())
	assert.GreaterOrEqual(t, tech.Bollinger.Position, 0.0)
	assert.LessOrEqual(t, tech.Bollinger.Position, 1.0)
}

func TestMACDSuppressedWhenBelowATRThreshold(t *testing.T) {
	// flat series: histogram should be ~0 and therefore suppressed.
	candles := makeTrendingCandles(60, 100, 0)
	tech := Analyze("FLAT", candles, time.Now())
	assert.True(t, tech.MACD.HistogramSuppressed)
}

func TestVolumeSpikeDetected(t *testing.T) {
	candles := makeTrendingCandles(40, 100, 0.1)
	candles[len(candles)-1].Volume = candles[len(candles)-2].Volume * 5
	tech := Analyze("SPY", candles, time.Now())
	assert.True(t, tech.VolumeSpike)
}

func TestPivotPointsFromPriorBar(t *testing.T) {
	candles := makeTrendingCandles(40, 100, 0.2)
	pivots := pivotPoints(candles)
	prior := candles[len(candles)-2]
	expectedPP := (prior.High + prior.Low + prior.Close) / 3
	assert.InDelta(t, expectedPP, pivots.PP, 0.0001)
}
