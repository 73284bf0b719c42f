package ml

import (
	"vantage/state"
)

// Classifier is the persisted pair of logistic-regression models plus the
// cumulative dataset they were last trained on (spec.md §4.5).
type Classifier struct {
	DayTrade LogisticModel `json:"dayTrade"`
	Swing    LogisticModel `json:"swing"`
	Dataset  Dataset       `json:"dataset"`
}

// Load reads the persisted classifier from layout, returning a fresh
// (untrained) Classifier if no file exists yet.
func Load(layout state.Layout) (*Classifier, error) {
	var c Classifier
	ok, err := state.ReadJSON(layout.MLTrainingCumulative(), &c)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &Classifier{}, nil
	}
	return &c, nil
}

// Save atomically persists the classifier to layout.
func (c *Classifier) Save(layout state.Layout) error {
	return state.AtomicWriteJSON(layout.MLTrainingCumulative(), c)
}

// RecordOutcome appends a labeled sample and retrains the relevant model if
// ShouldTrain's gate is crossed. It returns whether a retrain occurred.
func (c *Classifier) RecordOutcome(s Sample) bool {
	c.Dataset.Append(s)
	switch horizonClass(s.Horizon) {
	case "day":
		if ShouldTrain(len(c.Dataset.DayTrade)) {
			c.DayTrade.TrainGD(c.Dataset.DayTrade, DefaultEpochs, DefaultLearningRate)
			return true
		}
	default:
		if ShouldTrain(len(c.Dataset.Swing)) {
			c.Swing.TrainGD(c.Dataset.Swing, DefaultEpochs, DefaultLearningRate)
			return true
		}
	}
	return false
}

// RetrainAll unconditionally refits both models against the full cumulative
// dataset, used by the 17:00 ET nightly retrain job regardless of whether
// the incremental gate fired during the day (spec.md §4.5).
func (c *Classifier) RetrainAll() {
	if len(c.Dataset.DayTrade) >= 30 {
		c.DayTrade.TrainGD(c.Dataset.DayTrade, DefaultEpochs, DefaultLearningRate)
	}
	if len(c.Dataset.Swing) >= 30 {
		c.Swing.TrainGD(c.Dataset.Swing, DefaultEpochs, DefaultLearningRate)
	}
}

// Predict returns the day-trade or swing model's win probability for
// features, selecting the model by horizon class.
func (c *Classifier) Predict(horizon state.Horizon, features [state.FeatureCount]float64) (float64, bool) {
	switch horizonClass(horizon) {
	case "day":
		if c.DayTrade.Samples == 0 {
			return 0, false
		}
		return c.DayTrade.Predict(features), true
	default:
		if c.Swing.Samples == 0 {
			return 0, false
		}
		return c.Swing.Predict(features), true
	}
}
