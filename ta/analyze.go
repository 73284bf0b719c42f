package ta

import (
	"time"

	"vantage/state"
)

// Analyze computes the full Technicals bundle for ticker from a candle
// sequence. Fewer than state.MinCandlesForTA candles returns a bundle with
// InsufficientData set and every other field zero (spec.md §8 boundary
// behavior: 29 candles => "insufficient data" surface).
func Analyze(ticker string, candles []state.Candle, asOf time.Time) state.Technicals {
	if len(candles) < state.MinCandlesForTA {
		return state.Technicals{Ticker: ticker, AsOf: asOf, InsufficientData: true}
	}

	closes := closesOf(candles)
	rsiSeries := rsiWilder(closes, 14)
	rsi := rsiSeries[len(rsiSeries)-1]
	rsiSlope := 0.0
	if len(rsiSeries) >= 2 {
		rsiSlope = rsi - rsiSeries[len(rsiSeries)-2]
	}

	ema9 := lastEMA(closes, 9)
	ema20 := lastEMA(closes, 20)
	ema50 := lastEMA(closes, 50)

	atrSeries := atrWilder(candles, 14)
	atr := atrSeries[len(atrSeries)-1]
	atrChange := 0.0
	if len(atrSeries) >= 2 && atrSeries[len(atrSeries)-2] != 0 {
		atrChange = (atr - atrSeries[len(atrSeries)-2]) / atrSeries[len(atrSeries)-2]
	}

	macdState := macd(closes, atr)
	prevCloses := closes
	macdAccel := 0.0
	if len(prevCloses) > 36 {
		prevMACD := macd(closes[:len(closes)-1], atr)
		macdAccel = macdState.Histogram - prevMACD.Histogram
	}

	bb := bollinger(closes, 20, 2.0)
	adxState := adx(candles, 14)
	fib := fibonacciLevels(candles)
	pivots := pivotPoints(candles)
	patterns := candlePatterns(candles)
	divs := divergences(candles, rsiSeries)

	swingHighIdx, swingLowIdx, _ := swingPoints(candles, 60, 3)
	var swingHigh, swingLow float64
	if swingHighIdx >= 0 {
		swingHigh = candles[swingHighIdx].High
	}
	if swingLowIdx >= 0 {
		swingLow = candles[swingLowIdx].Low
	}

	return state.Technicals{
		Ticker:           ticker,
		AsOf:             asOf,
		RSI:              rsi,
		RSISlope:         rsiSlope,
		EMA9:             ema9,
		EMA20:            ema20,
		EMA50:            ema50,
		EMABias:          emaBias(ema9, ema20, ema50),
		MACD:             macdState,
		MACDAcceleration: macdAccel,
		ATR:              atr,
		ATRSeries:        atrSeries,
		ATRChange:        atrChange,
		Bollinger:        bb,
		ADX:              adxState,
		Fibonacci:        fib,
		Pivots:           pivots,
		Patterns:         patterns,
		Divergences:      divs,
		SwingHigh:        swingHigh,
		SwingLow:         swingLow,
		VolumeSpike:      volumeSpike(candles),
		VWAP:             vwap(candles),
	}
}

// emaBias classifies the EMA stack ordering (spec.md §4.3).
func emaBias(ema9, ema20, ema50 float64) state.EMABias {
	switch {
	case ema9 > ema20 && ema20 > ema50:
		return state.EMABullish
	case ema9 < ema20 && ema20 < ema50:
		return state.EMABearish
	default:
		return state.EMANeutral
	}
}
