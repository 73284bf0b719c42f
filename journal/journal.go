// Package journal simulates and tracks paper trades end to end: opening a
// sized position from a TradeSetup, evaluating target/stop outcomes against
// incoming quotes, force-closing at end of day, and computing performance
// statistics (spec.md §4.6).
package journal

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"vantage/state"
)

// DefaultOpenCooldown is the minimum gap between closing a trade on a
// ticker and opening a new one in the same direction, preventing immediate
// re-entry whipsaws (spec.md §4.6 "default 30 min"). Callers that need a
// different cadence pass their own cooldown into OpenPaperTrade.
const DefaultOpenCooldown = 30 * time.Minute

// EODForceCloseMinute is 15:55 ET, expressed as minutes-since-midnight, past
// which any still-open intraday-horizon trade is force-closed rather than
// carried overnight (spec.md §8 Open Question: intraday trades always close
// by end of day rather than roll to the next session).
const EODForceCloseMinute = 15*60 + 55

// Journal owns the paper-trade lifecycle against a *state.Store.
type Journal struct {
	Store  *state.Store
	Layout state.Layout

	setupMu sync.Mutex
	setups  []SetupRecord
}

// New builds a Journal over store, persisting to layout.
func New(store *state.Store, layout state.Layout) *Journal {
	return &Journal{Store: store, Layout: layout}
}

// ConsecutiveLosses counts the number of losing trades (loss-stop) in a row
// for (ticker, direction), most recent first, skipping pending trades and
// stopping at the first closed non-loss. Used to gate new entries (spec.md §4.6 "consecutive-loss
// guard"); the streak is per side, so three stopped longs don't block a
// short.
func (j *Journal) ConsecutiveLosses(ticker string, direction state.Direction) int {
	trades := j.Store.PaperTrades()
	count := 0
	for i := len(trades) - 1; i >= 0; i-- {
		t := trades[i]
		if t.Ticker != ticker || t.Direction != direction {
			continue
		}
		if t.Status == state.StatusLossStop {
			count++
			continue
		}
		if t.Status == state.StatusPending {
			continue
		}
		break
	}
	return count
}

// hasPendingInDirection reports whether ticker already has a pending trade
// in direction, enforcing "no duplicate pending trades per (ticker,
// direction)" (spec.md §8 testable invariant).
func (j *Journal) hasPendingInDirection(ticker string, direction state.Direction) bool {
	for _, t := range j.Store.PaperTrades() {
		if t.Status == state.StatusPending && t.Ticker == ticker && t.Direction == direction {
			return true
		}
	}
	return false
}

// cooledDown reports whether enough time has passed since the most recent
// closed trade on (ticker, direction) to allow a new entry in that direction.
func (j *Journal) cooledDown(ticker string, direction state.Direction, now time.Time, cooldown time.Duration) bool {
	var lastClose time.Time
	for _, t := range j.Store.PaperTrades() {
		if t.Ticker != ticker || t.Direction != direction || t.ExitTime == nil {
			continue
		}
		if t.ExitTime.After(lastClose) {
			lastClose = *t.ExitTime
		}
	}
	if lastClose.IsZero() {
		return true
	}
	return now.Sub(lastClose) >= cooldown
}

// OpenPaperTrade attempts to open a new paper trade from setup. It refuses
// when: a pending trade already exists for (ticker, direction); (ticker,
// direction) is still inside its post-close cooldown (spec.md §4.6
// "paperTrade(setup, entryPrice, cooldownMs, ...)" — cooldown is supplied by
// the caller rather than fixed in package journal, e.g. DefaultOpenCooldown
// for the scheduler's automated path); or consecutiveLossLimit consecutive
// losses on the ticker haven't been reset by an intervening win. On success
// the sized trade is appended to the store and returned.
func (j *Journal) OpenPaperTrade(setup state.TradeSetup, now time.Time, signalVersion string, consecutiveLossLimit int, cooldown time.Duration) (*state.PaperTrade, bool) {
	direction := setup.Direction

	if j.hasPendingInDirection(setup.Ticker, direction) {
		return nil, false
	}
	if !j.cooledDown(setup.Ticker, direction, now, cooldown) {
		return nil, false
	}
	if j.ConsecutiveLosses(setup.Ticker, setup.Direction) >= consecutiveLossLimit {
		return nil, false
	}

	kelly := calculateKellySize(setup)

	pt := state.PaperTrade{
		ID:            uuid.NewString(),
		Ticker:        setup.Ticker,
		Direction:     direction,
		EntryPrice:    setup.Entry,
		EntryTime:     now,
		Stop:          setup.Stop,
		Target1:       setup.Target1,
		Target2:       setup.Target2,
		Horizon:       setup.Horizon,
		Confidence:    setup.Confidence.Blended,
		Status:        state.StatusPending,
		SignalVersion: signalVersion,
		Shares:        kelly.Shares,
	}
	j.Store.AppendPaperTrade(pt)
	return &pt, true
}
