package journal

import "vantage/state"

// Stats summarizes closed-trade performance over some trade population.
type Stats struct {
	TotalTrades int     `json:"totalTrades"`
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
	WinRate     float64 `json:"winRate"` // percent
	AvgRR       float64 `json:"avgRiskReward"`
	TotalPnLUSD float64 `json:"totalPnlUsd"`
}

func isWin(status state.PaperTradeStatus) bool {
	return status == state.StatusWinT1 || status == state.StatusWinT2
}

func isLoss(status state.PaperTradeStatus) bool {
	return status == state.StatusLossStop
}

// Summarize aggregates trade count, wins, losses, win rate, average
// reward:risk and total P&L over any trade population, closed trades only;
// it returns totals only, with no per-bucket breakdown.
func Summarize(trades []state.PaperTrade) Stats {
	var s Stats
	var rrSum float64
	var rrCount int
	for _, t := range trades {
		if t.Status == state.StatusPending {
			continue
		}
		s.TotalTrades++
		switch {
		case isWin(t.Status):
			s.Wins++
		case isLoss(t.Status):
			s.Losses++
		case t.PnLPoints != nil && *t.PnLPoints > 0:
			// Force-closed (closed-eod/closed-manual) trades classify
			// purely by P&L sign.
			s.Wins++
		case t.PnLPoints != nil && *t.PnLPoints < 0:
			s.Losses++
		}
		if t.PnLTotal != nil {
			s.TotalPnLUSD += *t.PnLTotal
		}
		risk := t.EntryPrice - t.Stop
		if risk < 0 {
			risk = -risk
		}
		if risk > 0 && t.PnLPoints != nil {
			rrSum += *t.PnLPoints / risk
			rrCount++
		}
	}
	if s.TotalTrades > 0 {
		s.WinRate = float64(s.Wins) / float64(s.TotalTrades) * 100
	}
	if rrCount > 0 {
		s.AvgRR = rrSum / float64(rrCount)
	}
	return s
}

// GetStats summarizes every closed trade, optionally filtered to one ticker
// (empty string means all tickers).
func (j *Journal) GetStats(ticker string) Stats {
	var filtered []state.PaperTrade
	for _, t := range j.Store.PaperTrades() {
		if ticker != "" && t.Ticker != ticker {
			continue
		}
		filtered = append(filtered, t)
	}
	return Summarize(filtered)
}

// GetStatsByVersion summarizes closed trades for one signal version, letting
// operators compare live A/B performance (spec.md §3, §12).
func (j *Journal) GetStatsByVersion(versionKey string) Stats {
	var filtered []state.PaperTrade
	for _, t := range j.Store.PaperTrades() {
		if t.SignalVersion != versionKey {
			continue
		}
		filtered = append(filtered, t)
	}
	return Summarize(filtered)
}

// BacktestCase is one historical setup plus the candle sequence following
// its entry, used by Backtest to replay outcomes without touching the live
// store.
type BacktestCase struct {
	Setup state.TradeSetup
	Bars  []state.Candle // in chronological order, starting at/after entry
}

// Backtest replays each case's candle sequence bar by bar using the same
// same-bar-ambiguity rule as CheckOutcomes (stop wins ties) and returns
// aggregate performance, for offline strategy evaluation (spec.md §4.6).
func Backtest(cases []BacktestCase) Stats {
	return Summarize(BacktestTrades(cases))
}

// BacktestTrades runs the replay and returns one simulated trade per case,
// index-aligned with cases, so callers that need per-case outcomes (the
// ML-bootstrap path labeling training samples) can join them back to the
// inputs that produced them.
func BacktestTrades(cases []BacktestCase) []state.PaperTrade {
	var trades []state.PaperTrade
	for _, c := range cases {
		pt := state.PaperTrade{
			Ticker:     c.Setup.Ticker,
			Direction:  c.Setup.Direction,
			EntryPrice: c.Setup.Entry,
			Stop:       c.Setup.Stop,
			Target1:    c.Setup.Target1,
			Target2:    c.Setup.Target2,
			Horizon:    c.Setup.Horizon,
			Status:     state.StatusPending,
			Shares:     1,
		}
		for _, bar := range c.Bars {
			stopHit, t1Hit, t2Hit := evaluateBar(pt, bar)
			switch {
			case stopHit && (t1Hit || t2Hit):
				closeTrade(&pt, state.StatusLossStop, pt.Stop, bar.Date)
			case t2Hit:
				closeTrade(&pt, state.StatusWinT2, pt.Target2, bar.Date)
			case t1Hit:
				closeTrade(&pt, state.StatusWinT1, pt.Target1, bar.Date)
			case stopHit:
				closeTrade(&pt, state.StatusLossStop, pt.Stop, bar.Date)
			default:
				continue
			}
			break
		}
		if pt.Status == state.StatusPending && len(c.Bars) > 0 {
			last := c.Bars[len(c.Bars)-1]
			closeTrade(&pt, state.StatusClosedEOD, last.Close, last.Date)
		}
		trades = append(trades, pt)
	}
	return trades
}
