// Package eod generates the end-of-session signal-accuracy report (spec.md
// §4.10, 4% of scope): for every closed paper trade that day, it joins the
// trade back to the named signals that fired on its setup and aggregates a
// per-signal win rate, surfacing which indicators are currently pulling
// their weight and which are dragging performance — the same "did this
// actually work" retrospective the teacher's decision engine has no
// equivalent of (the teacher trades live, not on a daily session cadence),
// grounded instead on journal.Stats's aggregation shape generalized from
// per-version to per-signal-name buckets.
package eod

import (
	"fmt"
	"math"
	"sort"
	"time"

	"vantage/journal"
	"vantage/state"
)

// entryPriceEpsilon tolerates float round-tripping between a setup's Entry
// and the trade's EntryPrice (both derive from the same quote, so in
// practice they're identical, but comparing floats for exact equality is
// fragile).
const entryPriceEpsilon = 0.001

// joinSignals finds, for each trade, the setup log entry matching its
// ticker/direction/entry price whose Timestamp is the closest one not after
// EntryTime, and returns that setup's recorded signal names. Setups never
// carry a trade ID (a logged setup may or may not have spawned a trade), so
// the join is by content-match rather than foreign key.
func joinSignals(trades []state.PaperTrade, setups []journal.SetupRecord) map[string][]string {
	out := make(map[string][]string, len(trades))
	for _, t := range trades {
		var best *journal.SetupRecord
		for i := range setups {
			s := setups[i]
			if s.Setup.Ticker != t.Ticker || s.Setup.Direction != t.Direction {
				continue
			}
			if math.Abs(s.Setup.Entry-t.EntryPrice) > entryPriceEpsilon {
				continue
			}
			if s.Timestamp.After(t.EntryTime) {
				continue
			}
			if best == nil || s.Timestamp.After(best.Timestamp) {
				best = &setups[i]
			}
		}
		if best != nil {
			out[t.ID] = best.Signals
		}
	}
	return out
}

// SignalAccuracy is one named signal's win/loss record across every closed
// trade whose setup listed it among its top contributors.
type SignalAccuracy struct {
	Name        string  `json:"name"`
	Appearances int     `json:"appearances"`
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
	WinRate     float64 `json:"winRate"` // percent
}

// Report is one trading session's retrospective.
type Report struct {
	Date            string           `json:"date"` // YYYY-MM-DD ET
	TotalTrades     int              `json:"totalTrades"`
	Wins            int              `json:"wins"`
	Losses          int              `json:"losses"`
	WinRate         float64          `json:"winRate"`
	TotalPnLUSD     float64          `json:"totalPnlUsd"`
	SignalAccuracy  []SignalAccuracy `json:"signalAccuracy"`
	Recommendations []string         `json:"recommendations"`
	GeneratedAt     time.Time        `json:"generatedAt"`
}

// underperformingWinRate and minAppearancesForRecommendation gate which
// signals are worth calling out — a signal with only one or two
// appearances hasn't produced a meaningful sample yet.
const (
	underperformingWinRate          = 40.0
	overperformingWinRate           = 65.0
	minAppearancesForRecommendation = 5
)

// Generate builds a Report for date (YYYY-MM-DD, ET) from every trade in
// trades whose EntryTime falls on that ET calendar day and has a non-pending
// status, joined against setups — the observed-setup log recorded at setup
// time (spec.md §4.4 "signals contains every indicator that fired").
func Generate(date string, trades []state.PaperTrade, setups []journal.SetupRecord, now time.Time) Report {
	loc := etLocation()
	setupSignals := joinSignals(trades, setups)

	var dayTrades []state.PaperTrade
	for _, t := range trades {
		if t.Status == state.StatusPending {
			continue
		}
		if t.EntryTime.In(loc).Format("2006-01-02") != date {
			continue
		}
		dayTrades = append(dayTrades, t)
	}

	report := Report{Date: date, GeneratedAt: now}
	accuracy := map[string]*SignalAccuracy{}

	var totalPnL float64
	for _, t := range dayTrades {
		report.TotalTrades++
		win := t.Status == state.StatusWinT1 || t.Status == state.StatusWinT2
		if win {
			report.Wins++
		} else if t.Status == state.StatusLossStop {
			report.Losses++
		}
		if t.PnLTotal != nil {
			totalPnL += *t.PnLTotal
		}

		for _, name := range setupSignals[t.ID] {
			a, ok := accuracy[name]
			if !ok {
				a = &SignalAccuracy{Name: name}
				accuracy[name] = a
			}
			a.Appearances++
			if win {
				a.Wins++
			} else if t.Status == state.StatusLossStop {
				a.Losses++
			}
		}
	}
	report.TotalPnLUSD = totalPnL
	if report.TotalTrades > 0 {
		report.WinRate = float64(report.Wins) / float64(report.TotalTrades) * 100
	}

	for _, a := range accuracy {
		decided := a.Wins + a.Losses
		if decided > 0 {
			a.WinRate = float64(a.Wins) / float64(decided) * 100
		}
		report.SignalAccuracy = append(report.SignalAccuracy, *a)
	}
	sort.Slice(report.SignalAccuracy, func(i, j int) bool {
		return report.SignalAccuracy[i].WinRate > report.SignalAccuracy[j].WinRate
	})

	report.Recommendations = recommendations(report.SignalAccuracy)
	return report
}

// recommendations flags signals whose sample size is large enough to trust
// and whose win rate is either clearly dragging or clearly carrying
// performance, in the plain-English style an operator reading the report
// would act on directly.
func recommendations(accuracy []SignalAccuracy) []string {
	var out []string
	for _, a := range accuracy {
		if a.Appearances < minAppearancesForRecommendation {
			continue
		}
		switch {
		case a.WinRate <= underperformingWinRate:
			out = append(out, fmt.Sprintf("consider reducing weight on %q (win rate %.1f%% over %d trades)",
				a.Name, a.WinRate, a.Appearances))
		case a.WinRate >= overperformingWinRate:
			out = append(out, fmt.Sprintf("consider increasing weight on %q (win rate %.1f%% over %d trades)",
				a.Name, a.WinRate, a.Appearances))
		}
	}
	return out
}

func etLocation() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.FixedZone("ET", -5*3600)
	}
	return loc
}
