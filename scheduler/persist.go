package scheduler

import (
	"time"

	"vantage/logger"
	"vantage/state"
)

// persistStage writes the paper-trade journal, watchlist, signal versions,
// and (if configured) ML classifier to disk on the COLD cadence. The state
// snapshot itself is written at the end of every cycle in RunCycle; only
// these heavier, slower-changing files wait for a COLD cycle.
func (s *Scheduler) persistStage(now time.Time) {
	if err := s.Store.SaveWatchlist(s.Layout); err != nil {
		logger.Errorf("scheduler: failed to save watchlist: %v", err)
	}
	if err := s.Store.SaveSignalVersions(s.Layout); err != nil {
		logger.Errorf("scheduler: failed to save signal versions: %v", err)
	}
	if s.Journal != nil {
		if err := s.Journal.Save(); err != nil {
			logger.Errorf("scheduler: failed to save trade journal: %v", err)
		}
		if err := s.Journal.SaveSetups(); err != nil {
			logger.Errorf("scheduler: failed to save setup log: %v", err)
		}
	}
	if s.ML != nil {
		if err := s.ML.Save(s.Layout); err != nil {
			logger.Errorf("scheduler: failed to save ML classifier: %v", err)
		}
	}
	if s.SQLStore != nil {
		perf, err := s.SQLStore.DiscoveryPerformance()
		if err != nil {
			logger.Errorf("scheduler: failed to read discovery performance: %v", err)
		} else if err := state.AtomicWriteJSON(s.Layout.ScannerPerformance(), perf); err != nil {
			logger.Errorf("scheduler: failed to save scanner performance: %v", err)
		}
	}
}
