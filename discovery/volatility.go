package discovery

import (
	"sort"
	"time"

	"vantage/state"
)

// VolatilityRunnerCooldown keeps the same ticker from re-firing this
// producer for 10 minutes, screener feeds being noisy and repetitive on a
// single name during a live flow event (spec.md §4.7).
const VolatilityRunnerCooldown = 10 * time.Minute

// VolatilityTopN is how many of the day's candidates this producer
// surfaces per run — an unusual-whales-style screener returns far more
// candidates than are worth tracking, so only the strongest composite
// scores make it through (spec.md §4.7).
const VolatilityTopN = 2

// volRankFilters mirror a UW-style options screener: a candidate needs
// real premium behind it, elevated IV, and a volume/OI ratio showing fresh
// positioning rather than existing open interest changing hands.
const (
	volMinPremium      = 100000.0
	volMinIVRank       = 60.0
	volMinVolOIRatio   = 1.0
)

// VolatilityRunner surfaces the strongest fresh options-flow candidates,
// rate-limited per ticker.
type VolatilityRunner struct {
	lastFired map[string]time.Time
}

// Run filters candidates through the screener-style thresholds, scores the
// survivors, and returns the top VolatilityTopN, skipping any ticker still
// inside its own cooldown window.
func (v *VolatilityRunner) Run(candidates []VolatilityCandidate, now time.Time) []state.Discovery {
	if v.lastFired == nil {
		v.lastFired = map[string]time.Time{}
	}

	type scored struct {
		c     VolatilityCandidate
		score float64
	}
	var passed []scored

	for _, c := range candidates {
		if c.PremiumTotal < volMinPremium || c.IVRank < volMinIVRank || c.VolumeOIRatio < volMinVolOIRatio {
			continue
		}
		if last, ok := v.lastFired[c.Ticker]; ok && now.Sub(last) < VolatilityRunnerCooldown {
			continue
		}
		v.lastFired[c.Ticker] = now
		passed = append(passed, scored{c: c, score: volatilityScore(c)})
	}

	sort.Slice(passed, func(i, j int) bool { return passed[i].score > passed[j].score })
	if len(passed) > VolatilityTopN {
		passed = passed[:VolatilityTopN]
	}

	out := make([]state.Discovery, 0, len(passed))
	for _, p := range passed {
		out = append(out, state.Discovery{
			Ticker:       p.c.Ticker,
			Source:       state.DiscoveryVolatilityRunner,
			DiscoveredAt: now,
			Price:        p.c.Price,
			Direction:    state.DirectionNeutral,
			Confidence:   int(clampScore(p.score)),
			TopSignals:   []string{"Unusual Options Flow"},
			Meta: map[string]interface{}{
				"premium": p.c.PremiumTotal,
				"ivRank":  p.c.IVRank,
				"sweep":   p.c.Sweep,
			},
		})
	}
	return out
}

func volatilityScore(c VolatilityCandidate) float64 {
	score := c.IVRank*0.3 + c.VolumeOIRatio*10 + c.PremiumTotal/50000
	if c.Sweep {
		score += 15
	}
	return score
}

func clampScore(v float64) float64 {
	if v > 95 {
		return 95
	}
	if v < 0 {
		return 0
	}
	return v
}
