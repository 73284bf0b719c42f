package state

import (
	"database/sql"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// SQLStore persists signal-version history and discovery-performance
// rollups to sqlite, grounded on the teacher's StrategyStore/TacticStore
// CRUD-over-sql.DB pattern (store/strategy.go, store/tactics.go) and
// generalized from per-user strategy rows to version/performance rows
// (vantage has no multi-user concept, see DESIGN.md).
type SQLStore struct {
	db *sql.DB
}

// OpenSQLStore opens (creating if needed) the sqlite database at path and
// ensures its schema exists.
func OpenSQLStore(path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening sqlite database %s", path)
	}
	db.SetMaxOpenConns(1) // modernc.org/sqlite is not safe for concurrent writers

	s := &SQLStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) migrate() error {
	const schema = `
CREATE TABLE IF NOT EXISTS signal_version_history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	version_key TEXT NOT NULL,
	label TEXT NOT NULL,
	activated_at DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS scanner_performance (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	source TEXT NOT NULL,
	ticker TEXT NOT NULL,
	discovered_at DATETIME NOT NULL,
	confidence INTEGER NOT NULL,
	outcome TEXT NOT NULL DEFAULT 'pending',
	pnl_pct REAL NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_scanner_perf_source ON scanner_performance(source);
`
	_, err := s.db.Exec(schema)
	if err != nil {
		return errors.Wrap(err, "running schema migration")
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLStore) Close() error { return s.db.Close() }

// RecordVersionActivation logs that versionKey became the active signal
// version at activatedAt, supporting historical A/B comparisons.
func (s *SQLStore) RecordVersionActivation(versionKey, label string, activatedAt time.Time) error {
	_, err := s.db.Exec(
		`INSERT INTO signal_version_history (version_key, label, activated_at) VALUES (?, ?, ?)`,
		versionKey, label, activatedAt,
	)
	return errors.Wrap(err, "recording version activation")
}

// VersionActivation is one row of signal-version activation history.
type VersionActivation struct {
	VersionKey  string
	Label       string
	ActivatedAt time.Time
}

// VersionHistory returns every recorded version activation, most recent first.
func (s *SQLStore) VersionHistory() ([]VersionActivation, error) {
	rows, err := s.db.Query(`SELECT version_key, label, activated_at FROM signal_version_history ORDER BY activated_at DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "querying version history")
	}
	defer rows.Close()

	var out []VersionActivation
	for rows.Next() {
		var v VersionActivation
		if err := rows.Scan(&v.VersionKey, &v.Label, &v.ActivatedAt); err != nil {
			return nil, errors.Wrap(err, "scanning version history row")
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// RecordDiscovery logs a newly-tracked discovery for later performance
// rollup (spec.md §6 data/scanner-performance.json).
func (s *SQLStore) RecordDiscovery(d Discovery) error {
	_, err := s.db.Exec(
		`INSERT INTO scanner_performance (source, ticker, discovered_at, confidence) VALUES (?, ?, ?, ?)`,
		string(d.Source), d.Ticker, d.DiscoveredAt, d.Confidence,
	)
	return errors.Wrap(err, "recording discovery")
}

// SourcePerformance is the rolling aggregate performance of one discovery
// producer (spec.md §6 data/scanner-performance.json, §4.7).
type SourcePerformance struct {
	Source       string  `json:"source"`
	Count        int     `json:"count"`
	AvgConfidence float64 `json:"avgConfidence"`
	AvgPnLPct    float64 `json:"avgPnlPct"`
}

// DiscoveryPerformance aggregates scanner performance grouped by producer
// source, backing `/api/discovery-performance`.
func (s *SQLStore) DiscoveryPerformance() ([]SourcePerformance, error) {
	rows, err := s.db.Query(`
		SELECT source, COUNT(*), AVG(confidence), AVG(pnl_pct)
		FROM scanner_performance
		GROUP BY source
		ORDER BY source
	`)
	if err != nil {
		return nil, errors.Wrap(err, "querying discovery performance")
	}
	defer rows.Close()

	var out []SourcePerformance
	for rows.Next() {
		var p SourcePerformance
		if err := rows.Scan(&p.Source, &p.Count, &p.AvgConfidence, &p.AvgPnLPct); err != nil {
			return nil, errors.Wrap(err, "scanning discovery performance row")
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
