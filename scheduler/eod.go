package scheduler

import (
	"time"

	"vantage/eod"
	"vantage/logger"
	"vantage/state"
)

// eodCloseMinute is 16:16 ET (the after-hours session boundary, spec.md
// §4.1), past which the scheduler auto-generates the day's EOD report once.
const eodCloseMinute = 16*60 + 16

// maybeGenerateEODReport auto-generates and persists the day's report once
// the wall clock passes the after-hours boundary, at most once per ET
// calendar day (spec.md §4, "EOD reporter").
func (s *Scheduler) maybeGenerateEODReport(now time.Time) {
	nowET := now.In(etLocation())
	today := nowET.Format("2006-01-02")
	if s.lastEODDate == today {
		return
	}
	if nowET.Hour()*60+nowET.Minute() < eodCloseMinute {
		return
	}

	report := s.GenerateEODReport(today, now)
	if err := state.AtomicWriteJSON(s.Layout.EODReport(today), report); err != nil {
		logger.Errorf("scheduler: failed to persist EOD report for %s: %v", today, err)
		return
	}
	s.lastEODDate = today
	logger.Infof("scheduler: EOD report generated for %s (%d trades, %.1f%% win rate)",
		today, report.TotalTrades, report.WinRate)
}

// GenerateEODReport builds (without persisting) the report for date,
// exposed separately so the API's manual-generate endpoint can reuse it
// on demand.
func (s *Scheduler) GenerateEODReport(date string, now time.Time) eod.Report {
	return eod.Generate(date, s.Store.PaperTrades(), s.Journal.Setups(), now)
}
