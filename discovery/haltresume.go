package discovery

import (
	"sort"
	"time"

	"vantage/state"
)

// HaltResumePollInterval is how often the RSS-style halt feed is polled
// (spec.md §4.7).
const HaltResumePollInterval = 60 * time.Second

// HaltResumeTopN caps how many resumed tickers get alerted per poll — most
// halts resume uneventfully; only the largest pre-halt moves are worth
// surfacing.
const HaltResumeTopN = 3

// HaltResume tracks trading halts and alerts on the most significant
// resumptions. Only a halted -> resumed transition observed across polls
// fires: a row that was already resumed the first time the feed is read
// (e.g. right after a restart) is stale and stays silent.
type HaltResume struct {
	lastPoll time.Time
	halted   map[string]bool
}

// Poll reports whether enough time has elapsed to run another feed check.
func (h *HaltResume) Poll(now time.Time) bool {
	if !h.lastPoll.IsZero() && now.Sub(h.lastPoll) < HaltResumePollInterval {
		return false
	}
	h.lastPoll = now
	return true
}

// Run surfaces events whose ticker was seen halted on a prior poll and has
// now resumed, ranks them by the magnitude of their pre-halt move, and
// returns the top HaltResumeTopN as Discoveries.
func (h *HaltResume) Run(events []HaltResumeEvent, now time.Time) []state.Discovery {
	if h.halted == nil {
		h.halted = make(map[string]bool)
	}
	var resumed []HaltResumeEvent
	for _, e := range events {
		if e.ResumeTime == nil {
			h.halted[e.Ticker] = true
			continue
		}
		if !h.halted[e.Ticker] {
			continue
		}
		delete(h.halted, e.Ticker)
		resumed = append(resumed, e)
	}
	sort.Slice(resumed, func(i, j int) bool { return abs(resumed[i].PreHaltPct) > abs(resumed[j].PreHaltPct) })
	if len(resumed) > HaltResumeTopN {
		resumed = resumed[:HaltResumeTopN]
	}

	out := make([]state.Discovery, 0, len(resumed))
	for _, e := range resumed {
		direction := state.DirectionBullish
		if e.PreHaltPct < 0 {
			direction = state.DirectionBearish
		}
		out = append(out, state.Discovery{
			Ticker:       e.Ticker,
			Source:       state.DiscoveryHaltResume,
			DiscoveredAt: now,
			Direction:    direction,
			Confidence:   haltResumeConfidence(e.PreHaltPct),
			TopSignals:   []string{"Halt Resume: " + e.Reason},
			Meta: map[string]interface{}{
				"preHaltPct": e.PreHaltPct,
				"reason":     e.Reason,
			},
		})
	}
	return out
}

func haltResumeConfidence(preHaltPct float64) int {
	c := int(abs(preHaltPct) * 3)
	if c > 90 {
		c = 90
	}
	return c
}
