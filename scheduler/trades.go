package scheduler

import (
	"context"
	"time"

	"vantage/ml"
	"vantage/state"
)

// tradeLifecycleStage recomputes unrealized P&L, closes any trade that hit
// its target or stop this cycle, and force-closes intraday trades past
// 15:55 ET (spec.md §4.6). Closed trades feed the ML calibrator a labeled
// training sample and notify the outbound alert channel.
func (s *Scheduler) tradeLifecycleStage(now time.Time) {
	bars := s.latestBars()

	closed := s.Journal.CheckOutcomes(bars, now)
	closed = append(closed, s.Journal.CloseIntradayTrades(now, lastPrices(bars))...)

	for _, t := range closed {
		s.recordTrainingSample(t, now)
		if s.Notifier != nil {
			s.Notifier.NotifyTradeClosed(context.Background(), t)
		}
	}
}

// latestBars builds a per-ticker "current bar" map from every stored quote,
// taking the quote's open, high, low and last price, so CheckOutcomes can
// evaluate target/stop touches against the quote's session range even
// between candle refreshes.
func (s *Scheduler) latestBars() map[string]state.Candle {
	out := make(map[string]state.Candle)
	for ticker, q := range s.Store.Quotes() {
		out[ticker] = state.Candle{
			Date:  q.UpdatedAt,
			Open:  q.Open,
			High:  q.High,
			Low:   q.Low,
			Close: q.Last,
		}
	}
	return out
}

func lastPrices(bars map[string]state.Candle) map[string]float64 {
	out := make(map[string]float64, len(bars))
	for ticker, bar := range bars {
		out[ticker] = bar.Close
	}
	return out
}

// recordTrainingSample feeds a just-closed trade's feature vector (captured
// at setup time via its signal score) into the ML calibrator as a labeled
// outcome, so every paper trade eventually becomes training data (spec.md
// §4.5).
func (s *Scheduler) recordTrainingSample(t state.PaperTrade, now time.Time) {
	if s.ML == nil {
		return
	}
	score, ok := s.Store.SignalScore(t.Ticker)
	if !ok {
		return
	}
	label := 0
	if t.Status == state.StatusWinT1 || t.Status == state.StatusWinT2 {
		label = 1
	}
	pnlPct := 0.0
	if t.PnLPct != nil {
		pnlPct = *t.PnLPct
	}
	s.ML.RecordOutcome(ml.Sample{
		Ticker:     t.Ticker,
		Horizon:    t.Horizon,
		Features:   score.Features,
		Label:      label,
		Confidence: t.Confidence,
		PnLPct:     pnlPct,
		Timestamp:  now,
	})
}
