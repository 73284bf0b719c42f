package journal

import (
	"fmt"
	"time"

	"vantage/state"
)

// CloseManual closes the first pending trade matching id (the trade's ID,
// per spec.md §6 `POST /api/paper-trades/close`) at exitPrice, marked
// closed-manual rather than a stop/target outcome. Returns the closed trade.
func (j *Journal) CloseManual(id string, exitPrice float64, now time.Time) (state.PaperTrade, error) {
	trades := j.Store.PaperTrades()
	for i := range trades {
		t := &trades[i]
		if t.ID != id || t.Status != state.StatusPending {
			continue
		}
		closeTrade(t, state.StatusClosedManual, exitPrice, now)
		j.Store.ReplacePaperTrades(trades)
		return *t, nil
	}
	return state.PaperTrade{}, fmt.Errorf("no pending trade with id %q", id)
}
