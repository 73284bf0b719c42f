package scheduler

import (
	"time"

	"github.com/pkg/errors"

	"vantage/journal"
	"vantage/logger"
	"vantage/ml"
	"vantage/signal"
	"vantage/state"
	"vantage/ta"
)

// backtestStride is how many bars the replay advances after a simulated
// entry before looking for the next one, so overlapping signals from
// adjacent bars don't produce near-duplicate trades.
const backtestStride = 5

// BacktestTicker replays a historical candle sequence through the live
// signal engine: at each bar the engine scores the window so far, any
// qualifying score opens a simulated trade resolved against the remaining
// bars, and every resolved trade is fed to the ML calibrator as a labeled
// training sample (spec.md §4.6 backtest; §1 "the simple historical candle
// replay used to bootstrap the ML model"). Returns the aggregate stats and
// the number of samples recorded.
func (s *Scheduler) BacktestTicker(ticker string, candles []state.Candle, now time.Time) (journal.Stats, int, error) {
	normalized, ok := state.NormalizeTicker(ticker)
	if !ok {
		return journal.Stats{}, 0, errors.Errorf("invalid ticker %q", ticker)
	}
	if len(candles) <= state.MinCandlesForTA {
		return journal.Stats{}, 0, errors.Errorf("backtest needs more than %d candles, got %d",
			state.MinCandlesForTA, len(candles))
	}

	versions := s.Store.SignalVersions()
	vw := signal.ActiveWeights(versions)
	minConf := signal.MinConfidenceForSetup(vw)

	var cases []journal.BacktestCase
	var features [][state.FeatureCount]float64
	var confidences []int

	for i := state.MinCandlesForTA; i < len(candles)-1; i++ {
		window := candles[:i]
		tech := ta.Analyze(normalized, window, window[i-1].Date)
		if tech.InsufficientData {
			continue
		}

		bar := window[i-1]
		in := signal.EvalInput{
			Ticker:  normalized,
			Quote:   state.Quote{Ticker: normalized, Last: bar.Close, High: bar.High, Low: bar.Low},
			Tech:    tech,
			Regime:  signal.DetermineRegime(tech.ADX, state.VIXSpike{}, state.MarketTide{}),
			Session: signal.SessionForTime(bar.Date),
		}
		score := s.Engine.Score(in, versions, bar.Date)
		if score.Direction == state.DirectionNeutral || score.Confidence < minConf {
			continue
		}

		direction := state.DirectionLong
		if score.Direction == state.DirectionBearish {
			direction = state.DirectionShort
		}
		entry := bar.Close
		atrTarget, atrStop := signal.ATRTargetStop(direction, entry, tech.ATR)
		target1, target2, stop, _ := signal.SnapTargetsAndStop(direction, entry, atrTarget, atrStop, tech.Fibonacci, tech.Pivots, nil)
		_, horizon := signal.HorizonProfile(in.Session)

		cases = append(cases, journal.BacktestCase{
			Setup: state.TradeSetup{
				Ticker:    normalized,
				Direction: direction,
				Entry:     entry,
				Target1:   target1,
				Target2:   target2,
				Stop:      stop,
				Horizon:   horizon,
			},
			Bars: candles[i:],
		})
		features = append(features, score.Features)
		confidences = append(confidences, score.Confidence)

		i += backtestStride
	}

	trades := journal.BacktestTrades(cases)
	recorded := 0
	if s.ML != nil {
		for idx, pt := range trades {
			label := 0
			if pt.PnLPct != nil && *pt.PnLPct > 0 {
				label = 1
			}
			pnlPct := 0.0
			if pt.PnLPct != nil {
				pnlPct = *pt.PnLPct
			}
			s.ML.RecordOutcome(ml.Sample{
				Ticker:     normalized,
				Horizon:    pt.Horizon,
				Features:   features[idx],
				Label:      label,
				Confidence: confidences[idx],
				PnLPct:     pnlPct,
				Timestamp:  now,
			})
			recorded++
		}
	}

	logger.Infof("scheduler: backtest %s replayed %d bars into %d trades (%d samples)",
		normalized, len(candles), len(trades), recorded)
	return journal.Summarize(trades), recorded, nil
}
