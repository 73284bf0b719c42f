package discovery

import (
	"sort"
	"time"

	"vantage/state"
)

// ScannerPostCycleDefer is the minimum gap enforced between consecutive
// market-scanner runs, so the scanner never re-fires mid-cycle and floods
// the discovery sink (spec.md §4.7).
const ScannerPostCycleDefer = 60 * time.Second

// scannerRelVolumeFloor and scannerMovePctFloor are the bar a candidate must
// clear to be considered a notable mover at all.
const (
	scannerRelVolumeFloor = 3.0
	scannerMovePctFloor   = 5.0
)

// MarketScanner identifies large relative-volume movers across the full
// market tape, deferring to ScannerPostCycleDefer between runs.
type MarketScanner struct {
	lastRun time.Time
}

// Run scores candidates and returns Discoveries for every one that clears
// both the relative-volume and percent-move floors. It is a no-op (returns
// nil) if called before ScannerPostCycleDefer has elapsed since the last run.
func (m *MarketScanner) Run(candidates []ScanCandidate, now time.Time) []state.Discovery {
	if !m.lastRun.IsZero() && now.Sub(m.lastRun) < ScannerPostCycleDefer {
		return nil
	}
	m.lastRun = now

	var out []state.Discovery
	for _, c := range candidates {
		if c.AvgVolume <= 0 {
			continue
		}
		relVolume := c.Volume / c.AvgVolume
		if relVolume < scannerRelVolumeFloor {
			continue
		}
		movePct := c.PriceChangePct
		if abs(movePct) < scannerMovePctFloor {
			continue
		}

		direction := state.DirectionBullish
		if movePct < 0 {
			direction = state.DirectionBearish
		}

		out = append(out, state.Discovery{
			Ticker:       c.Ticker,
			Source:       state.DiscoveryScanner,
			DiscoveredAt: now,
			Price:        c.Price,
			Direction:    direction,
			Confidence:   scannerConfidence(relVolume, movePct),
			TopSignals:   []string{"Relative Volume Spike"},
			Meta: map[string]interface{}{
				"relVolume": relVolume,
				"movePct":   movePct,
			},
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	return out
}

// scannerConfidence is a simple bounded composite of relative volume and
// move magnitude; this producer is a coarse first-pass filter, not a full
// signal-engine score, so its own confidence estimate is deliberately crude.
func scannerConfidence(relVolume, movePct float64) int {
	c := int(relVolume*5 + abs(movePct))
	if c > 95 {
		c = 95
	}
	return c
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
