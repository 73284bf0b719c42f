package scheduler

import (
	"time"

	"vantage/logger"
)

// maybeRetrainNightly refits both ML classifiers against the full
// cumulative dataset once per ET calendar day, at or after the configured
// RetrainAt wall-clock time (spec.md §4.5 "nightly retrain at 17:00 ET").
// Retraining at most once per day is tracked via lastRetrainDate rather than
// an exact-minute check, since the scheduler's cadence (10s-60s) won't
// reliably land on the exact retrain minute.
func (s *Scheduler) maybeRetrainNightly(now time.Time) {
	if s.ML == nil {
		return
	}
	nowET := now.In(etLocation())
	today := nowET.Format("2006-01-02")
	if s.lastRetrainDate == today {
		return
	}
	retrainMinutes := s.Config.RetrainAt.Hour()*60 + s.Config.RetrainAt.Minute()
	nowMinutes := nowET.Hour()*60 + nowET.Minute()
	if nowMinutes < retrainMinutes {
		return
	}

	s.lastRetrainDate = today
	s.ML.RetrainAll()
	logger.Infof("scheduler: nightly ML retrain completed for %s", today)
}
