// Package ml trains and applies the two lightweight logistic-regression
// classifiers (day-trade, swing) that blend with the rule-based signal
// engine's confidence (spec.md §4.5). There is no machine-learning library
// anywhere in the example pack, so the model itself is hand-rolled gradient
// descent over stdlib math — the one place vantage departs from "prefer a
// library", justified in DESIGN.md.
package ml

import (
	"math"

	"vantage/state"
)

// LogisticModel is a single binary logistic-regression classifier over the
// state.FeatureCount-dim feature vector.
type LogisticModel struct {
	Weights [state.FeatureCount]float64 `json:"weights"`
	Bias    float64                     `json:"bias"`
	Samples int                         `json:"samples"` // training-set size as of last fit
}

// Predict returns the model's win-probability estimate in [0,1].
func (m *LogisticModel) Predict(features [state.FeatureCount]float64) float64 {
	z := m.Bias
	for i, f := range features {
		z += m.Weights[i] * f
	}
	return sigmoid(z)
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

// TrainGD fits the model in place via batch gradient descent on
// binary-cross-entropy loss. epochs and lr are small constants tuned for a
// dataset in the hundreds-to-thousands range (spec.md §4.5); this is not an
// online learner, it refits from scratch on every retrain cycle.
func (m *LogisticModel) TrainGD(samples []Sample, epochs int, lr float64) {
	if len(samples) == 0 {
		return
	}
	var weights [state.FeatureCount]float64
	var bias float64

	n := float64(len(samples))
	for epoch := 0; epoch < epochs; epoch++ {
		var gradW [state.FeatureCount]float64
		var gradB float64
		for _, s := range samples {
			z := bias
			for i, f := range s.Features {
				z += weights[i] * f
			}
			pred := sigmoid(z)
			err := pred - float64(s.Label)
			for i, f := range s.Features {
				gradW[i] += err * f
			}
			gradB += err
		}
		for i := range weights {
			weights[i] -= lr * gradW[i] / n
		}
		bias -= lr * gradB / n
	}

	m.Weights = weights
	m.Bias = bias
	m.Samples = len(samples)
}

// DefaultEpochs and DefaultLearningRate are the retrain constants used by
// the nightly scheduler job (spec.md §4.5).
const (
	DefaultEpochs       = 200
	DefaultLearningRate = 0.1
)
