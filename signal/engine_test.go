package signal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vantage/state"
)

func fixedEvaluator(name string, weight float64, dir state.Direction) Evaluator {
	return eval(name, weight, func(in EvalInput) (Contribution, bool) {
		return Contribution{Direction: dir, Detail: name}, true
	})
}

func TestAsymmetricDirectionThreshold(t *testing.T) {
	versions := state.SignalVersionConfig{ActiveVersion: "v1", Versions: map[string]state.VersionWeights{"v1": {Label: "baseline"}}}

	// bull leads by exactly 2: not enough to confirm bullish (requires >2).
	eng := &Engine{Catalogue: []Evaluator{fixedEvaluator("b1", 5, state.DirectionBullish), fixedEvaluator("b2", 3, state.DirectionBearish)}}
	score := eng.Score(EvalInput{Ticker: "AAPL", Regime: state.RegimeTrendingUp, Tech: state.Technicals{InsufficientData: true}}, versions, time.Now())
	assert.Equal(t, state.DirectionNeutral, score.Direction)

	// bull leads by >2: confirmed bullish.
	eng = &Engine{Catalogue: []Evaluator{fixedEvaluator("b1", 6, state.DirectionBullish), fixedEvaluator("b2", 3, state.DirectionBearish)}}
	score = eng.Score(EvalInput{Ticker: "AAPL", Regime: state.RegimeTrendingUp, Tech: state.Technicals{InsufficientData: true}}, versions, time.Now())
	assert.Equal(t, state.DirectionBullish, score.Direction)

	// bear leads by 3 in a trending regime: confirmed bearish (threshold 2).
	eng = &Engine{Catalogue: []Evaluator{fixedEvaluator("b1", 2, state.DirectionBullish), fixedEvaluator("b2", 5, state.DirectionBearish)}}
	score = eng.Score(EvalInput{Ticker: "AAPL", Regime: state.RegimeTrendingUp, Tech: state.Technicals{InsufficientData: true}}, versions, time.Now())
	assert.Equal(t, state.DirectionBearish, score.Direction)

	// same bear lead of 3, but ranging regime widens the bearish bar to 5.
	score = eng.Score(EvalInput{Ticker: "AAPL", Regime: state.RegimeRanging, Tech: state.Technicals{InsufficientData: true}}, versions, time.Now())
	assert.Equal(t, state.DirectionNeutral, score.Direction)
}

func TestConfidenceClampedToRange(t *testing.T) {
	versions := state.SignalVersionConfig{ActiveVersion: "v1", Versions: map[string]state.VersionWeights{"v1": {}}}
	eng := &Engine{Catalogue: []Evaluator{fixedEvaluator("huge", 500, state.DirectionBullish)}}
	score := eng.Score(EvalInput{Ticker: "AAPL", Regime: state.RegimeTrendingUp, Tech: state.Technicals{InsufficientData: true}}, versions, time.Now())
	assert.LessOrEqual(t, score.Confidence, 95)
	assert.GreaterOrEqual(t, score.Confidence, 0)
}

func TestResolvedWeightBoostsMeanReversionInRanging(t *testing.T) {
	vw := state.VersionWeights{}
	ev := fixedEvaluator("rsi-oversold", 10, state.DirectionBullish)
	trending := resolvedWeight(ev, EvalInput{Regime: state.RegimeTrendingUp}, vw, "", state.DirectionBullish)
	ranging := resolvedWeight(ev, EvalInput{Regime: state.RegimeRanging}, vw, "", state.DirectionBullish)
	assert.InDelta(t, 10.0, trending, 0.0001)
	assert.InDelta(t, 13.0, ranging, 0.0001)
}

func TestResolvedWeightDampensTrendFollowingInRanging(t *testing.T) {
	vw := state.VersionWeights{}
	ev := fixedEvaluator("macd-positive", 10, state.DirectionBullish)
	ranging := resolvedWeight(ev, EvalInput{Regime: state.RegimeRanging}, vw, "", state.DirectionBullish)
	assert.InDelta(t, 2.5, ranging, 0.0001)
}

func TestResolvedWeightPenalizesBearishSignalsWhenTrendIsAbsent(t *testing.T) {
	vw := state.VersionWeights{}
	ev := fixedEvaluator("noise-bear", 10, state.DirectionBearish)
	absent := resolvedWeight(ev, EvalInput{Tech: state.Technicals{ADX: state.ADXState{Strength: state.TrendAbsent}}}, vw, "", state.DirectionBearish)
	forming := resolvedWeight(ev, EvalInput{Tech: state.Technicals{ADX: state.ADXState{Strength: state.TrendForming}}}, vw, "", state.DirectionBearish)
	assert.InDelta(t, 7.5, absent, 0.0001)
	assert.InDelta(t, 10.0, forming, 0.0001)

	// the penalty only ever applies to the bearish side.
	bullish := resolvedWeight(fixedEvaluator("noise-bull", 10, state.DirectionBullish),
		EvalInput{Tech: state.Technicals{ADX: state.ADXState{Strength: state.TrendAbsent}}}, vw, "", state.DirectionBullish)
	assert.InDelta(t, 10.0, bullish, 0.0001)
}

func TestNeutralScoreAlwaysZeroConfidence(t *testing.T) {
	versions := state.SignalVersionConfig{ActiveVersion: "v1", Versions: map[string]state.VersionWeights{"v1": {}}}
	eng := &Engine{Catalogue: nil}
	score := eng.Score(EvalInput{Ticker: "AAPL", Tech: state.Technicals{InsufficientData: true}}, versions, time.Now())
	assert.Equal(t, state.DirectionNeutral, score.Direction)
	assert.Equal(t, 0, score.Confidence)
}

func TestSnapTargetsAndStopSidednessLong(t *testing.T) {
	fib := state.FibLevels{
		Retracement: map[string]float64{"0.382": 95, "0.618": 92},
		Extension:   map[string]float64{"1.272": 110, "1.618": 115},
	}
	pivots := state.PivotPoints{R1: 105, R2: 112, S1: 97, S2: 90}
	t1, t2, stop, snap := SnapTargetsAndStop(state.DirectionLong, 100, 103, 98, fib, pivots, nil)
	assert.Greater(t, t1, 100.0)
	assert.Greater(t, t2, t1)
	assert.Less(t, stop, 100.0)
	assert.NotEmpty(t, snap.TargetSource)
	assert.NotEmpty(t, snap.StopSource)
}

func TestSnapTargetsAndStopSidednessShort(t *testing.T) {
	fib := state.FibLevels{
		Retracement: map[string]float64{"0.382": 95, "0.618": 92},
		Extension:   map[string]float64{"1.272": 110, "1.618": 115},
	}
	pivots := state.PivotPoints{R1: 105, R2: 112, S1: 97, S2: 90}
	t1, t2, stop, _ := SnapTargetsAndStop(state.DirectionShort, 100, 97, 102, fib, pivots, nil)
	assert.Less(t, t1, 100.0)
	assert.Less(t, t2, t1)
	assert.Greater(t, stop, 100.0)
}

func TestSnapTargetsAndStopFallsBackToATRWithoutLevels(t *testing.T) {
	atrTarget, atrStop := ATRTargetStop(state.DirectionLong, 100, 2)
	t1, t2, stop, snap := SnapTargetsAndStop(state.DirectionLong, 100, atrTarget, atrStop, state.FibLevels{}, state.PivotPoints{}, nil)
	assert.Equal(t, 103.0, t1)
	assert.Equal(t, 106.0, t2)
	assert.Equal(t, 98.0, stop)
	assert.False(t, snap.Snapped)
	assert.Equal(t, "atr_target|atr_target_2x", snap.TargetSource)
	assert.Equal(t, "atr_stop", snap.StopSource)
}

func TestSnapTargetsAndStopHonorsIndependentATRDistances(t *testing.T) {
	// Entry $100, ATR target $103 (distance 3.0), ATR stop $98.50
	// (distance 1.5). Fib extension 1.272 sits at $102.60 — distance 2.60,
	// inside the 30% target band [2.10, 3.90]. Pivot S1 sits at $98.20 —
	// distance 1.80, inside the 50% stop band [0.75, 2.25].
	fib := state.FibLevels{Extension: map[string]float64{"1.272": 102.60}}
	pivots := state.PivotPoints{S1: 98.20}

	t1, _, stop, snap := SnapTargetsAndStop(state.DirectionLong, 100, 103, 98.50, fib, pivots, nil)
	assert.Equal(t, 102.60, t1)
	assert.Equal(t, 98.20, stop)
	assert.True(t, snap.Snapped)
	assert.Contains(t, snap.TargetSource, "fib_1.272")
	assert.Equal(t, "pivot_s1", snap.StopSource)
}

func TestApplySetupOverlayOverridesWeightedDirection(t *testing.T) {
	versions := state.SignalVersionConfig{ActiveVersion: "v1", Versions: map[string]state.VersionWeights{"v1": {}}}
	// weighted vote alone would be bearish, but an oversold-bounce setup
	// should override direction to bullish.
	eng := &Engine{Catalogue: []Evaluator{fixedEvaluator("noise-bear", 10, state.DirectionBearish)}}
	in := EvalInput{
		Ticker: "AAPL",
		Tech: state.Technicals{
			RSI:       20,
			Bollinger: state.BollingerBands{Position: 0.05},
		},
	}
	score := eng.Score(in, versions, time.Now())
	require.Len(t, score.MatchedSetups, 1)
	assert.Equal(t, "oversold-bounce", score.MatchedSetups[0])
	assert.Equal(t, state.DirectionBullish, score.Direction)
	// a matched setup always scores 60+30*strength; the weighted vote
	// disagreed, so it just misses the +5 agreement bonus.
	assert.GreaterOrEqual(t, score.Confidence, 60)
	assert.LessOrEqual(t, score.Confidence, 95)
}

func TestNoSetupMatchCapsWeightedConfidence(t *testing.T) {
	versions := state.SignalVersionConfig{ActiveVersion: "v1", Versions: map[string]state.VersionWeights{"v1": {}}}
	// A big weighted spread with no matched setup is context only — its
	// confidence is capped at 55.
	eng := &Engine{Catalogue: []Evaluator{fixedEvaluator("huge", 100, state.DirectionBullish)}}
	score := eng.Score(EvalInput{Ticker: "AAPL", Regime: state.RegimeTrendingUp, Tech: state.Technicals{InsufficientData: true}}, versions, time.Now())
	assert.Equal(t, state.DirectionBullish, score.Direction)
	assert.Empty(t, score.MatchedSetups)
	assert.Equal(t, 55, score.Confidence)
}
