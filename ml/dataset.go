package ml

import (
	"time"

	"vantage/state"
)

// Sample is one labeled training example: the feature vector captured at
// signal time, paired with the eventual paper-trade outcome.
type Sample struct {
	Ticker     string                      `json:"ticker"`
	Horizon    state.Horizon               `json:"horizon"`
	Features   [state.FeatureCount]float64 `json:"features"`
	Label      int                         `json:"label"` // 1 win, 0 loss
	Confidence int                         `json:"confidence"`
	PnLPct     float64                     `json:"pnlPct"`
	Timestamp  time.Time                   `json:"timestamp"`
}

// MaxCumulativeSamples bounds the persisted training set so it doesn't grow
// unbounded across the life of the deployment (spec.md §4.5).
const MaxCumulativeSamples = 50000

// Dataset is the cumulative, disk-persisted training corpus, split by
// horizon class the same way the two classifiers are split.
type Dataset struct {
	DayTrade []Sample `json:"dayTrade"`
	Swing    []Sample `json:"swing"`
}

// horizonClass buckets the finer-grained state.Horizon values into the two
// classifier families (spec.md §4.4/§4.5: scalp and day-volatile both train
// the faster-moving day-trade classifier; swing and extended-hours train
// the slower one).
func horizonClass(h state.Horizon) string {
	switch h {
	case state.HorizonScalp, state.HorizonDay, state.HorizonDayVolatile, state.HorizonIntraday:
		return "day"
	default:
		return "swing"
	}
}

// Append adds s to the appropriate bucket, evicting the oldest sample in
// that bucket once MaxCumulativeSamples is exceeded (FIFO retention keeps
// the training set representative of recent market regimes rather than
// growing stale).
func (d *Dataset) Append(s Sample) {
	switch horizonClass(s.Horizon) {
	case "day":
		d.DayTrade = append(d.DayTrade, s)
		if len(d.DayTrade) > MaxCumulativeSamples {
			d.DayTrade = d.DayTrade[len(d.DayTrade)-MaxCumulativeSamples:]
		}
	default:
		d.Swing = append(d.Swing, s)
		if len(d.Swing) > MaxCumulativeSamples {
			d.Swing = d.Swing[len(d.Swing)-MaxCumulativeSamples:]
		}
	}
}

// ShouldTrain reports whether a bucket of size n has crossed the minimum
// training threshold and lands on a retrain cadence boundary (spec.md §4.5:
// at least 30 samples, retrained every 10 additional samples rather than on
// every single new outcome).
func ShouldTrain(n int) bool {
	return n >= 30 && n%10 == 0
}
