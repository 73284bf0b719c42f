package state

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// AtomicWriteJSON marshals v and writes it to path using a scoped
// temp-file-then-rename so a crash mid-write never corrupts the existing
// file (spec.md §4.6, §9 "Scoped acquisition"). The temp file is cleaned up
// on every exit path that doesn't end in a successful rename.
func AtomicWriteJSON(path string, v interface{}) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "creating directory %s", dir)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Wrap(err, "creating temp file")
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			os.Remove(tmpPath)
		}
	}()

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if encErr := enc.Encode(v); encErr != nil {
		tmp.Close()
		return errors.Wrap(encErr, "encoding json")
	}
	if closeErr := tmp.Close(); closeErr != nil {
		return errors.Wrap(closeErr, "closing temp file")
	}
	if renameErr := os.Rename(tmpPath, path); renameErr != nil {
		return errors.Wrapf(renameErr, "renaming %s to %s", tmpPath, path)
	}
	return nil
}

// ReadJSON unmarshals the file at path into v. A missing file is not an
// error; v is left unmodified and ok is false.
func ReadJSON(path string, v interface{}) (ok bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.Wrapf(err, "reading %s", path)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return false, errors.Wrapf(err, "unmarshalling %s", path)
	}
	return true, nil
}

// Layout is the persisted-state file layout named in spec.md §6.
type Layout struct {
	Dir string
}

func (l Layout) path(name string) string { return filepath.Join(l.Dir, name) }

func (l Layout) Watchlist() string           { return l.path("watchlist.json") }
func (l Layout) StateSnapshot() string       { return l.path("state-snapshot.json") }
func (l Layout) MLTrainingCumulative() string { return l.path("ml-training-cumulative.json") }
func (l Layout) SignalVersions() string      { return l.path("signal-versions.json") }
func (l Layout) ScannerPerformance() string  { return l.path("scanner-performance.json") }
func (l Layout) EODReport(date string) string {
	return filepath.Join(l.Dir, "eod-reports", date+".json")
}
func (l Layout) TradeJournal() string { return l.path("trade-journal.json") }
func (l Layout) SetupLog() string     { return l.path("setup-log.json") }

// SaveSnapshot persists the full state snapshot to disk.
func (s *Store) SaveSnapshot(layout Layout) error {
	return AtomicWriteJSON(layout.StateSnapshot(), s.Snapshot())
}

// LoadSnapshot restores state from disk if a snapshot file exists.
func (s *Store) LoadSnapshot(layout Layout) error {
	var snap Snapshot
	ok, err := ReadJSON(layout.StateSnapshot(), &snap)
	if err != nil {
		return err
	}
	if ok {
		s.Restore(snap)
	}
	return nil
}

// SaveWatchlist persists just the watchlist array.
func (s *Store) SaveWatchlist(layout Layout) error {
	return AtomicWriteJSON(layout.Watchlist(), s.Watchlist())
}

// LoadWatchlist loads the watchlist array, adding each valid ticker.
func (s *Store) LoadWatchlist(layout Layout) error {
	var tickers []string
	ok, err := ReadJSON(layout.Watchlist(), &tickers)
	if err != nil {
		return err
	}
	if ok {
		for _, t := range tickers {
			s.AddTicker(t)
		}
	}
	return nil
}

// SaveSignalVersions persists the signal-version configuration.
func (s *Store) SaveSignalVersions(layout Layout) error {
	return AtomicWriteJSON(layout.SignalVersions(), s.SignalVersions())
}

// LoadSignalVersions loads the signal-version configuration, falling back to
// built-in defaults on a missing or malformed file (spec.md §7 Configuration
// error).
func (s *Store) LoadSignalVersions(layout Layout) {
	var cfg SignalVersionConfig
	ok, err := ReadJSON(layout.SignalVersions(), &cfg)
	if err != nil || !ok || cfg.Versions == nil {
		s.SetSignalVersions(DefaultSignalVersions())
		return
	}
	s.SetSignalVersions(cfg)
}
