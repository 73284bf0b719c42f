package signal

import (
	"math"
	"time"

	"vantage/state"
)

// nearestFibLevel reports whether price sits within 0.15% of any retracement
// level, and if so which one (spec.md §4.3 Fibonacci).
func nearestFibLevel(fib state.FibLevels, price float64) (bool, string) {
	const tolerance = 0.0015
	for label, level := range fib.Retracement {
		if level == 0 {
			continue
		}
		if absPct(price, level) <= tolerance {
			return true, label
		}
	}
	return false, ""
}

// callPutPremiumRatio sums the most recent strike-level flow into a single
// call/put premium ratio. Returns 0 when there is no flow to rank.
func callPutPremiumRatio(o state.OptionsFacts) float64 {
	var calls, puts float64
	for _, s := range o.FlowPerStrike {
		calls += s.CallPremium
		puts += s.PutPremium
	}
	if calls == 0 && puts == 0 {
		return 0
	}
	if puts == 0 {
		return math.Inf(1)
	}
	return calls / puts
}

// gammaWall is the strike with the largest absolute net GEX, used as a
// magnet/resistance level.
type gammaWall struct {
	Strike float64
	GEX    float64
}

func nearestGammaWall(o state.OptionsFacts, spot float64) (gammaWall, bool) {
	if len(o.GEXPerStrike) == 0 {
		return gammaWall{}, false
	}
	var best state.GEXPoint
	found := false
	for _, pt := range o.GEXPerStrike {
		if !found || math.Abs(pt.GEX) > math.Abs(best.GEX) {
			best = pt
			found = true
		}
	}
	if !found || spot == 0 || absPct(spot, best.Strike) > 0.03 {
		return gammaWall{}, false
	}
	return gammaWall{Strike: best.Strike, GEX: best.GEX}, true
}

func absPct(a, b float64) float64 {
	if b == 0 {
		return math.Inf(1)
	}
	return math.Abs(a-b) / b
}

func averageSentiment(news []state.NewsHeadline) float64 {
	if len(news) == 0 {
		return 0
	}
	var sum float64
	for _, n := range news {
		sum += n.Sentiment
	}
	return sum / float64(len(news))
}

func netInsiderValue(txns []state.InsiderTransaction, ticker string) float64 {
	var net float64
	for _, t := range txns {
		if t.Ticker != ticker {
			continue
		}
		if t.Type == "buy" {
			net += t.Value
		} else {
			net -= t.Value
		}
	}
	return net
}

func latestCongressTrade(trades []state.CongressTrade, ticker string) (state.CongressTrade, bool) {
	var best state.CongressTrade
	found := false
	for _, t := range trades {
		if t.Ticker != ticker {
			continue
		}
		if !found || t.Time.After(best.Time) {
			best = t
			found = true
		}
	}
	return best, found
}

// staleTickAfter is how long a TickSummary is trusted before being treated as
// stale input (spec.md §4.2 "ticks older than this are ignored").
const staleTickAfter = 90 * time.Second

func staleTick(t state.TickSummary) bool {
	return time.Since(t.UpdatedAt) > staleTickAfter
}
