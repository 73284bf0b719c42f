package journal

import (
	"encoding/json"
	"os"

	"vantage/logger"
	"vantage/state"
)

// Save atomically persists every paper trade to the journal's layout.
func (j *Journal) Save() error {
	return state.AtomicWriteJSON(j.Layout.TradeJournal(), j.Store.PaperTrades())
}

// Load restores paper trades from disk. Each record is decoded
// independently via json.RawMessage: a single malformed trade (e.g. from an
// older schema version) is logged and skipped rather than failing the
// entire journal load, a best-effort migration posture appropriate for a
// long-running paper-trading ledger that must never refuse to start
// (spec.md §7 Configuration error handling).
func (j *Journal) Load() error {
	raw, err := os.ReadFile(j.Layout.TradeJournal())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var rawTrades []json.RawMessage
	if err := json.Unmarshal(raw, &rawTrades); err != nil {
		logger.Warnf("trade journal file is not a valid JSON array, starting empty: %v", err)
		return nil
	}

	var trades []state.PaperTrade
	skipped := 0
	for _, r := range rawTrades {
		var t state.PaperTrade
		if err := json.Unmarshal(r, &t); err != nil {
			skipped++
			continue
		}
		trades = append(trades, t)
	}
	if skipped > 0 {
		logger.Warnf("trade journal load skipped %d malformed record(s)", skipped)
	}
	j.Store.ReplacePaperTrades(trades)
	return nil
}
