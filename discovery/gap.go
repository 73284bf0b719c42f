package discovery

import (
	"time"

	"vantage/state"
)

// GapPersonality classifies the likely follow-through behavior of a gap.
type GapPersonality string

const (
	GapAndGo  GapPersonality = "gap-and-go"  // heavy volume, likely to extend
	GapFade   GapPersonality = "gap-fade"    // large gap, modest volume, likely to reverse
	GapFill   GapPersonality = "gap-fill"    // small gap relative to ATR, likely to fill intraday
	GapNormal GapPersonality = "gap-normal"  // no strong lean either way
)

// GapCausation is a coarse guess at what drove the gap, inferred from
// whether a catalyst tag accompanied the candidate.
type GapCausation string

const (
	CausationNews      GapCausation = "news-driven"
	CausationTechnical GapCausation = "technical"
)

// GapAnalyzer classifies pre-market/open gaps by size, volume behavior, and
// likely causation (spec.md §4.7).
type GapAnalyzer struct{}

// gapMinPct is the minimum absolute gap, in percent, worth tracking at all.
const gapMinPct = 2.0

// Run classifies every candidate clearing gapMinPct and returns one
// Discovery per candidate.
func (GapAnalyzer) Run(candidates []GapCandidate, now time.Time) []state.Discovery {
	var out []state.Discovery
	for _, c := range candidates {
		if c.PrevClose == 0 {
			continue
		}
		gapPct := (c.Open - c.PrevClose) / c.PrevClose * 100
		if abs(gapPct) < gapMinPct {
			continue
		}

		direction := state.DirectionBullish
		if gapPct < 0 {
			direction = state.DirectionBearish
		}

		personality := classifyGapPersonality(c, gapPct)
		causation := CausationTechnical
		if c.Catalyst != "" {
			causation = CausationNews
		}

		out = append(out, state.Discovery{
			Ticker:       c.Ticker,
			Source:       state.DiscoveryGapAnalyzer,
			DiscoveredAt: now,
			Price:        c.Open,
			Direction:  direction,
			Confidence: gapConfidence(gapPct, c),
			TopSignals: []string{"Gap: " + string(personality)},
			Meta: map[string]interface{}{
				"gapPct":      gapPct,
				"personality": string(personality),
				"causation":   string(causation),
				"catalyst":    c.Catalyst,
			},
		})
	}
	return out
}

func classifyGapPersonality(c GapCandidate, gapPct float64) GapPersonality {
	relVolume := 0.0
	if c.AvgVolume > 0 {
		relVolume = c.Volume / c.AvgVolume
	}
	gapInATR := 0.0
	if c.ATR > 0 {
		gapInATR = abs(c.Open-c.PrevClose) / c.ATR
	}

	switch {
	case relVolume >= 3:
		return GapAndGo
	case gapInATR >= 2 && relVolume < 1.5:
		return GapFade
	case gapInATR < 1:
		return GapFill
	default:
		return GapNormal
	}
}

func gapConfidence(gapPct float64, c GapCandidate) int {
	conf := int(abs(gapPct) * 4)
	if c.Catalyst != "" {
		conf += 10
	}
	if conf > 90 {
		conf = 90
	}
	return conf
}
