package ml

import (
	"math"
)

// alphaCap is the hard ceiling on the ML model's share of the blended
// confidence: the rule-based signal engine always retains at least half the
// say, however large the training set grows (spec.md §4.5).
const alphaCap = 0.45

// alphaFor grows the ML blend weight with sample count — a model trained on
// 30 samples should barely move the blended confidence, one trained on
// thousands should carry real weight — capped below 0.5 so a single
// classifier can never fully override the rule engine.
func alphaFor(samples int) float64 {
	a := float64(samples) / 2000.0
	if a > alphaCap {
		a = alphaCap
	}
	return a
}

// BlendConfidence combines the rule engine's technical confidence t (an int
// in [0,95]) with the ML model's win-probability estimate p ([0,1]) into a
// single blended confidence, per spec.md §4.5:
//
//	blended = round(t*(1-alpha) + (p*100)*alpha)
//
// alpha scales with how much data the model backing p was trained on.
func BlendConfidence(technical int, probability float64, trainedSamples int) int {
	alpha := alphaFor(trainedSamples)
	p := probability * 100
	blended := float64(technical)*(1-alpha) + p*alpha
	return int(math.Round(blended))
}

// WeightSuggestion is one proposed catalogue-weight adjustment derived from
// a trained model's learned coefficients. Suggestions are never applied
// automatically (spec.md §4.5 "operator confirmation gate") — they are
// surfaced through the API for a human to accept or reject.
type WeightSuggestion struct {
	SignalFeatureIndex int     `json:"featureIndex"`
	CurrentSign        float64 `json:"currentSign"`
	SuggestedDelta      float64 `json:"suggestedDelta"`
}

// SuggestWeightDeltas inspects a trained model's coefficients and proposes a
// small weight nudge (a tenth of the coefficient, clamped to ±0.5) for every
// feature whose coefficient magnitude is at least 0.05; it does not compare
// coefficients against any expected sign. It never mutates VersionWeights
// itself.
func SuggestWeightDeltas(m LogisticModel) []WeightSuggestion {
	if m.Samples < 30 {
		return nil
	}
	var out []WeightSuggestion
	for i, w := range m.Weights {
		if math.Abs(w) < 0.05 {
			continue
		}
		out = append(out, WeightSuggestion{
			SignalFeatureIndex: i,
			CurrentSign:        sign(w),
			SuggestedDelta:     clampDelta(w * 0.1),
		})
	}
	return out
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	if v > 0 {
		return 1
	}
	return 0
}

func clampDelta(v float64) float64 {
	const maxDelta = 0.5
	if v > maxDelta {
		return maxDelta
	}
	if v < -maxDelta {
		return -maxDelta
	}
	return v
}
