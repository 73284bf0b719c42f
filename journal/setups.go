package journal

import (
	"time"

	"vantage/state"
)

// SetupRecord pairs a setup as observed with the signal score that produced
// it, keyed implicitly by insertion order, for later training-label joining
// once the trade (if any) it spawned eventually closes (spec.md §4.6
// "logSetup(setup, signalScore): records that a setup was observed").
type SetupRecord struct {
	Setup     state.TradeSetup `json:"setup"`
	Signals   []string         `json:"signals"`
	Timestamp time.Time        `json:"timestamp"`
}

// setupLog is process-local, append-only, and capped the same way every
// other time-ordered log in vantage is (spec.md §9): tail-truncated rather
// than growing unbounded across a long-running session.
const maxSetupLogEntries = 5000

// LogSetup records that setup was observed, independent of whether a paper
// trade is ultimately opened from it — the eod reporter joins this log back
// to closed trades by ticker+entry-price+direction to compute per-signal
// accuracy (spec.md §4.10).
func (j *Journal) LogSetup(setup state.TradeSetup, score state.SignalScore, now time.Time) {
	j.setupMu.Lock()
	defer j.setupMu.Unlock()

	j.setups = append(j.setups, SetupRecord{Setup: setup, Signals: signalNames(score), Timestamp: now})
	if len(j.setups) > maxSetupLogEntries {
		j.setups = j.setups[len(j.setups)-maxSetupLogEntries:]
	}
}

// Setups returns a snapshot of the observed-setup log.
func (j *Journal) Setups() []SetupRecord {
	j.setupMu.Lock()
	defer j.setupMu.Unlock()
	out := make([]SetupRecord, len(j.setups))
	copy(out, j.setups)
	return out
}

// SaveSetups atomically persists the setup log to layout.
func (j *Journal) SaveSetups() error {
	return state.AtomicWriteJSON(j.Layout.SetupLog(), j.Setups())
}

// LoadSetups restores the setup log from disk, if present.
func (j *Journal) LoadSetups() error {
	var records []SetupRecord
	ok, err := state.ReadJSON(j.Layout.SetupLog(), &records)
	if err != nil || !ok {
		return err
	}
	j.setupMu.Lock()
	j.setups = records
	j.setupMu.Unlock()
	return nil
}

// signalNames extracts the names of every signal that fired, in evaluation
// order, for the setup log's denormalized join key.
func signalNames(score state.SignalScore) []string {
	out := make([]string, 0, len(score.Signals))
	for _, s := range score.Signals {
		out = append(out, s.Name)
	}
	return out
}
