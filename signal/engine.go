package signal

import (
	"time"

	"vantage/state"
)

// Engine orchestrates the signal catalogue into a single SignalScore per
// ticker per cycle (spec.md §4.4).
type Engine struct {
	Catalogue []Evaluator
}

// NewEngine builds an Engine over the default catalogue (spec.md §4.4a).
func NewEngine() *Engine {
	return &Engine{Catalogue: DefaultCatalogue()}
}

// dampenedInRanging lists signals that are reliably wrong in a ranging
// market (continuation reads fire inside chop) and the factor their weight
// is multiplied by when Regime == ranging (spec.md §4.4a).
var dampenedInRanging = map[string]float64{
	"ema-alignment-bear": 0.3,
	"ema-alignment-bull": 0.3,
	"macd-negative":      0.25,
	"macd-positive":      0.25,
	"rsi-bearish-slope":  0.4,
	"rsi-bullish-slope":  0.4,
	"adx-strong-trend":   0.3,
}

// meanReversionBoostInRanging lists the mean-reversion signals that are
// reliably right in a ranging market — the opposite case from
// dampenedInRanging — and the factor their weight is multiplied by when
// Regime == ranging (spec.md §4.4a "mean-reversion signals boosted +30% in
// ranging").
var meanReversionBoostInRanging = map[string]float64{
	"rsi-oversold":    1.3,
	"rsi-overbought":  1.3,
	"bb-dip-buy-vol":  1.3,
	"bb-top-fade-vol": 1.3,
}

// weakTrendBearishPenalty multiplies a firing bearish signal's weight when
// ADX reads TrendAbsent (ADX < 18): a weak/absent trend makes a bearish
// continuation read least reliable (spec.md §4.4a "bearish side penalized
// −25% when ADX < 18"). Applies regardless of regime classification, since
// TrendAbsent already captures the no-trend condition the rule targets.
const weakTrendBearishPenalty = 0.75

// resolvedWeight applies, in order: version override -> horizon-profile
// override -> ticker override -> session multiplier -> regime dampening ->
// weak-trend bearish penalty.
func resolvedWeight(ev Evaluator, in EvalInput, vw state.VersionWeights, profileKey string, direction state.Direction) float64 {
	w := ev.BaseWeight()
	if vw.Weights != nil {
		if override, ok := vw.Weights[ev.Name()]; ok {
			w = override
		}
	}
	switch profileKey {
	case "scalp":
		if vw.WeightsScalp != nil {
			if override, ok := vw.WeightsScalp[ev.Name()]; ok {
				w = override
			}
		}
	case "day":
		if vw.WeightsDay != nil {
			if override, ok := vw.WeightsDay[ev.Name()]; ok {
				w = override
			}
		}
	case "swing":
		if vw.WeightsSwing != nil {
			if override, ok := vw.WeightsSwing[ev.Name()]; ok {
				w = override
			}
		}
	}
	if byTicker, ok := vw.TickerOverrides[in.Ticker]; ok {
		if mult, ok := byTicker[ev.Name()]; ok {
			w *= mult
		}
	}
	w *= sessionMult(in.Session, ev.Name())
	if isRanging(in.Regime) {
		if factor, ok := dampenedInRanging[ev.Name()]; ok {
			w *= factor
		}
		if factor, ok := meanReversionBoostInRanging[ev.Name()]; ok {
			w *= factor
		}
	}
	if direction == state.DirectionBearish && in.Tech.ADX.Strength == state.TrendAbsent {
		w *= weakTrendBearishPenalty
	}
	return w
}

// bearishThreshold returns the bearish confirmation bar, widened when the
// market is ranging (spec.md §4.4 "asymmetric direction thresholds") so a
// handful of noisy bearish ticks inside chop don't flip direction.
func bearishThreshold(regime state.Regime) float64 {
	if isRanging(regime) {
		return 5
	}
	return 2
}

// Score runs the full catalogue against in and produces a SignalScore.
// Score depends only on its inputs and the signal versions, except that the
// tick-based signals and features judge a TickSummary stale against the wall
// clock rather than now; Evaluate() on every catalogue entry is independent,
// so ordering of evaluation never affects the result.
func (e *Engine) Score(in EvalInput, versions state.SignalVersionConfig, now time.Time) state.SignalScore {
	vw := versions.Versions[versions.ActiveVersion]
	key, _ := resolveProfile(in.Session)

	var bullWeight, bearWeight float64
	var contributions []state.SignalContribution

	for _, ev := range e.Catalogue {
		contrib, fired := ev.Evaluate(in)
		if !fired {
			continue
		}
		w := resolvedWeight(ev, in, vw, key, contrib.Direction)
		switch contrib.Direction {
		case state.DirectionBullish:
			bullWeight += w
		case state.DirectionBearish:
			bearWeight += w
		}
		contributions = append(contributions, state.SignalContribution{
			Name:      ev.Name(),
			Direction: contrib.Direction,
			Weight:    w,
			Detail:    contrib.Detail,
		})
	}

	direction := state.DirectionNeutral
	threshold := bearishThreshold(in.Regime)
	switch {
	case bullWeight > bearWeight+2:
		direction = state.DirectionBullish
	case bearWeight > bullWeight+threshold:
		direction = state.DirectionBearish
	}

	spread := bullWeight - bearWeight
	confidence := confidenceFromSpread(spread, direction)

	shadow := shadowScore(in, versions)

	score := state.SignalScore{
		Ticker:       in.Ticker,
		Direction:    direction,
		Confidence:   confidence,
		BullWeight:   bullWeight,
		BearWeight:   bearWeight,
		Spread:       spread,
		Signals:      contributions,
		Features:     buildFeatures(in, bullWeight, bearWeight),
		ShadowScores: shadow,
		Session:      in.Session,
		Timestamp:    now,
	}

	applySetupOverlay(&score, in)

	return score
}

// confidenceFromSpread converts the winning side's weight lead into a
// [0,95] confidence score. Neutral direction always reports 0 so a caller
// can use Confidence==0 as a direct proxy for "no trade" (spec.md §8).
func confidenceFromSpread(spread float64, direction state.Direction) int {
	if direction == state.DirectionNeutral {
		return 0
	}
	mag := spread
	if mag < 0 {
		mag = -mag
	}
	c := int(mag * 8)
	if c > 95 {
		c = 95
	}
	if c < 0 {
		c = 0
	}
	return c
}

// shadowScore evaluates every inactive signal version against the same
// input so operators can compare versions without switching the active one
// (spec.md §3 SignalScore.ShadowScores, §12 version A/B persistence).
func shadowScore(in EvalInput, versions state.SignalVersionConfig) map[string]int {
	out := map[string]int{}
	eng := &Engine{Catalogue: DefaultCatalogue()}
	for key, vw := range versions.Versions {
		if key == versions.ActiveVersion {
			continue
		}
		shadowVersions := state.SignalVersionConfig{ActiveVersion: key, Versions: map[string]state.VersionWeights{key: vw}}
		s := eng.scoreWeightOnly(in, shadowVersions)
		out[key] = s
	}
	return out
}

// scoreWeightOnly is shadowScore's cheaper path: it only needs the resulting
// confidence, not the full SignalScore.
func (e *Engine) scoreWeightOnly(in EvalInput, versions state.SignalVersionConfig) int {
	vw := versions.Versions[versions.ActiveVersion]
	key, _ := resolveProfile(in.Session)
	var bullWeight, bearWeight float64
	for _, ev := range e.Catalogue {
		contrib, fired := ev.Evaluate(in)
		if !fired {
			continue
		}
		w := resolvedWeight(ev, in, vw, key, contrib.Direction)
		switch contrib.Direction {
		case state.DirectionBullish:
			bullWeight += w
		case state.DirectionBearish:
			bearWeight += w
		}
	}
	threshold := bearishThreshold(in.Regime)
	direction := state.DirectionNeutral
	switch {
	case bullWeight > bearWeight+2:
		direction = state.DirectionBullish
	case bearWeight > bullWeight+threshold:
		direction = state.DirectionBearish
	}
	return confidenceFromSpread(bullWeight-bearWeight, direction)
}

func resolveProfile(s state.Session) (string, state.Horizon) {
	return horizonProfile(s)
}
