package ml

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"vantage/state"
)

func linearlySeparableSamples(n int) []Sample {
	samples := make([]Sample, 0, n)
	for i := 0; i < n; i++ {
		var f [state.FeatureCount]float64
		label := 0
		if i%2 == 0 {
			f[0] = 0.9
			label = 1
		} else {
			f[0] = 0.1
			label = 0
		}
		samples = append(samples, Sample{Features: f, Label: label, Horizon: state.HorizonDay})
	}
	return samples
}

func TestLogisticModelLearnsSeparableData(t *testing.T) {
	samples := linearlySeparableSamples(40)
	var m LogisticModel
	m.TrainGD(samples, DefaultEpochs, DefaultLearningRate)

	var hot, cold [state.FeatureCount]float64
	hot[0] = 0.9
	cold[0] = 0.1

	assert.Greater(t, m.Predict(hot), 0.5)
	assert.Less(t, m.Predict(cold), 0.5)
}

func TestShouldTrainGate(t *testing.T) {
	assert.False(t, ShouldTrain(29))
	assert.True(t, ShouldTrain(30))
	assert.False(t, ShouldTrain(31))
	assert.True(t, ShouldTrain(40))
}

func TestDatasetAppendEvictsOldest(t *testing.T) {
	var d Dataset
	for i := 0; i < MaxCumulativeSamples+5; i++ {
		d.Append(Sample{Horizon: state.HorizonDay})
	}
	assert.Len(t, d.DayTrade, MaxCumulativeSamples)
}

func TestDatasetSplitsByHorizonClass(t *testing.T) {
	var d Dataset
	d.Append(Sample{Horizon: state.HorizonScalp})
	d.Append(Sample{Horizon: state.HorizonSwing})
	d.Append(Sample{Horizon: state.HorizonExtendedHours})
	assert.Len(t, d.DayTrade, 1)
	assert.Len(t, d.Swing, 2)
}

func TestBlendConfidenceWeightsByTrainedSamples(t *testing.T) {
	// Small sample count: blend stays close to technical confidence.
	blended := BlendConfidence(70, 0.1, 10)
	assert.InDelta(t, 70, blended, 5)

	// Large sample count: ML carries real but capped weight.
	blended = BlendConfidence(70, 0.1, 10000)
	assert.Less(t, blended, 70)
	assert.Greater(t, blended, 10)
}

func TestClassifierRecordOutcomeTrainsAtGate(t *testing.T) {
	c := &Classifier{}
	var trained bool
	for i := 0; i < 30; i++ {
		var f [state.FeatureCount]float64
		f[0] = float64(i % 2)
		trained = c.RecordOutcome(Sample{Features: f, Label: i % 2, Horizon: state.HorizonDay})
	}
	assert.True(t, trained)
	assert.Equal(t, 30, c.DayTrade.Samples)
}

func TestSuggestWeightDeltasSkipsUntrainedModel(t *testing.T) {
	var m LogisticModel
	assert.Nil(t, SuggestWeightDeltas(m))
}
