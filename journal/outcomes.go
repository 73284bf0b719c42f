package journal

import (
	"time"

	"vantage/state"
)

// CheckOutcomes evaluates every pending trade against the latest bar for its
// ticker (bars keyed by ticker) and closes any that hit target or stop,
// mutating and persisting the store's paper-trade slice in place. It
// returns the trades that closed on this call.
//
// Same-bar ambiguity (spec.md §8): when a single bar's high/low range
// contains both the stop and a target, there is no way to know from OHLC
// data alone which was touched first. This resolves conservatively in favor
// of the stop — the assumption a risk-averse paper-trading engine should
// make rather than crediting an uncertain win.
func (j *Journal) CheckOutcomes(bars map[string]state.Candle, now time.Time) []state.PaperTrade {
	trades := j.Store.PaperTrades()
	var closed []state.PaperTrade

	for i := range trades {
		t := &trades[i]
		if t.Status != state.StatusPending {
			continue
		}
		bar, ok := bars[t.Ticker]
		if !ok {
			continue
		}

		stopHit, t1Hit, t2Hit := evaluateBar(*t, bar)

		switch {
		case stopHit && (t1Hit || t2Hit):
			closeTrade(t, state.StatusLossStop, t.Stop, now)
		case t2Hit:
			closeTrade(t, state.StatusWinT2, t.Target2, now)
		case t1Hit:
			closeTrade(t, state.StatusWinT1, t.Target1, now)
		case stopHit:
			closeTrade(t, state.StatusLossStop, t.Stop, now)
		default:
			updateUnrealized(t, bar)
			continue
		}
		closed = append(closed, *t)
	}

	j.Store.ReplacePaperTrades(trades)
	return closed
}

func evaluateBar(t state.PaperTrade, bar state.Candle) (stopHit, t1Hit, t2Hit bool) {
	if t.Direction == state.DirectionShort {
		stopHit = bar.High >= t.Stop
		t1Hit = bar.Low <= t.Target1
		t2Hit = bar.Low <= t.Target2
		return
	}
	stopHit = bar.Low <= t.Stop
	t1Hit = bar.High >= t.Target1
	t2Hit = bar.High >= t.Target2
	return
}

// closeTrade fills in exit bookkeeping and the signed PnL fields. PnLPoints
// is positive for a winning trade regardless of direction (spec.md §8
// "short-trade pnlPoints positive-for-wins convention") — a short trade that
// profits from a falling price still reports a positive point gain, so
// downstream aggregation never has to branch on direction to find "did this
// trade make money".
func closeTrade(t *state.PaperTrade, status state.PaperTradeStatus, exitPrice float64, now time.Time) {
	points := exitPrice - t.EntryPrice
	if t.Direction == state.DirectionShort {
		points = -points
	}
	pct := 0.0
	if t.EntryPrice != 0 {
		pct = points / t.EntryPrice * 100
	}
	total := points * float64(t.Shares)

	t.Status = status
	t.ExitPrice = &exitPrice
	t.ExitTime = &now
	t.PnLPoints = &points
	t.PnLPct = &pct
	t.PnLTotal = &total
	t.UnrealizedPnLPct = 0
	t.UnrealizedPnLUSD = 0
}

// updateUnrealized refreshes a still-pending trade's mark-to-market PnL off
// the latest bar's close, for live display (spec.md §6 full_state broadcast).
func updateUnrealized(t *state.PaperTrade, bar state.Candle) {
	points := bar.Close - t.EntryPrice
	if t.Direction == state.DirectionShort {
		points = -points
	}
	pct := 0.0
	if t.EntryPrice != 0 {
		pct = points / t.EntryPrice * 100
	}
	t.UnrealizedPnLPct = pct
	t.UnrealizedPnLUSD = points * float64(t.Shares)
}

// CloseIntradayTrades force-closes every still-pending intraday/scalp/day
// horizon trade once the wall clock passes 15:55 ET, marking them
// closed-eod rather than carrying them overnight (spec.md §4.6, §8 Open
// Question resolution).
func (j *Journal) CloseIntradayTrades(now time.Time, lastPrices map[string]float64) []state.PaperTrade {
	if minutesSinceMidnightET(now) < EODForceCloseMinute {
		return nil
	}

	trades := j.Store.PaperTrades()
	var closed []state.PaperTrade
	for i := range trades {
		t := &trades[i]
		if t.Status != state.StatusPending || !isIntradayHorizon(t.Horizon) {
			continue
		}
		price, ok := lastPrices[t.Ticker]
		if !ok {
			price = t.EntryPrice
		}
		closeTrade(t, state.StatusClosedEOD, price, now)
		closed = append(closed, *t)
	}
	j.Store.ReplacePaperTrades(trades)
	return closed
}

func isIntradayHorizon(h state.Horizon) bool {
	switch h {
	case state.HorizonScalp, state.HorizonDay, state.HorizonDayVolatile, state.HorizonIntraday:
		return true
	default:
		return false
	}
}

func minutesSinceMidnightET(t time.Time) int {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		loc = time.FixedZone("ET", -5*3600)
	}
	local := t.In(loc)
	return local.Hour()*60 + local.Minute()
}
