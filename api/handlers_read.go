package api

import (
	"math"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"vantage/ml"
	"vantage/signal"
	"vantage/state"
	"vantage/ta"
)

func (s *Server) handleGetState(c *gin.Context) {
	c.JSON(http.StatusOK, s.Store.Snapshot())
}

func (s *Server) handleGetTickers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tickers": s.Store.Watchlist()})
}

// handleGetTechnicals recomputes technicals on demand for the requested
// timeframe (state.Technicals caches only the single 5m scoring timeframe;
// §6 names six valid timeframes, so every non-default one is derived here
// rather than stored).
func (s *Server) handleGetTechnicals(c *gin.Context) {
	ticker := c.Param("ticker")
	timeframe := c.Param("timeframe")
	if !validTimeframe(timeframe) {
		badRequest(c, errInvalidTimeframe(timeframe))
		return
	}
	candles, ok := s.Store.Candles(ticker, timeframe)
	if !ok || len(candles) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no candle data for " + ticker + " " + timeframe})
		return
	}
	tech := ta.Analyze(ticker, candles, time.Now())
	c.JSON(http.StatusOK, tech)
}

func validTimeframe(tf string) bool {
	switch tf {
	case "1m", "5m", "15m", "1h", "4h", "1d":
		return true
	}
	return false
}

// handleGetTickerDeep returns the per-ticker bundle of every fact category
// the store holds, for the UI's single-ticker drill-down view.
func (s *Server) handleGetTickerDeep(c *gin.Context) {
	ticker := c.Param("ticker")
	quote, _ := s.Store.Quote(ticker)
	tech, _ := s.Store.Technicals(ticker)
	opts, _ := s.Store.OptionsFacts(ticker)
	score, _ := s.Store.SignalScore(ticker)
	setup, hasSetup := s.Store.TradeSetup(ticker)
	discovery, hasDiscovery := s.Store.Discovery(ticker)
	tickSummary, hasTick := s.Store.TickSummary(ticker)

	body := gin.H{
		"ticker":     ticker,
		"quote":      quote,
		"technicals": tech,
		"options":    opts,
		"signal":     score,
		"market":     s.Store.MarketFacts(),
	}
	if hasSetup {
		body["setup"] = setup
	}
	if hasDiscovery {
		body["discovery"] = discovery
	}
	if hasTick {
		body["tick"] = tickSummary
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) handleGetSignal(c *gin.Context) {
	ticker := c.Param("ticker")
	score, ok := s.Store.SignalScore(ticker)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no signal score for " + ticker})
		return
	}
	c.JSON(http.StatusOK, score)
}

// handleGetRegime computes each watched ticker's regime on demand from its
// cached technicals/market facts rather than reading a stored field — the
// store has no persisted "regime" column, only the inputs regime derives
// from (spec.md has no explicit regime-storage requirement).
func (s *Server) handleGetRegime(c *gin.Context) {
	market := s.Store.MarketFacts()
	out := make(map[string]state.Regime)
	for _, ticker := range s.Store.Watchlist() {
		tech, ok := s.Store.Technicals(ticker)
		if !ok {
			continue
		}
		out[ticker] = signal.DetermineRegime(tech.ADX, market.VIX, market.Tide)
	}
	c.JSON(http.StatusOK, gin.H{"regime": out})
}

// handleGetCorrelation computes pairwise Pearson correlation of recent
// 5m-candle closing returns across the watchlist. No correlation/stats
// library appears anywhere in the retrieved examples, so this is a
// deliberate stdlib-math implementation.
func (s *Server) handleGetCorrelation(c *gin.Context) {
	tickers := s.Store.Watchlist()
	returns := make(map[string][]float64, len(tickers))
	for _, t := range tickers {
		candles, ok := s.Store.Candles(t, "5m")
		if !ok || len(candles) < 2 {
			continue
		}
		r := make([]float64, 0, len(candles)-1)
		for i := 1; i < len(candles); i++ {
			prev := candles[i-1].Close
			if prev == 0 {
				continue
			}
			r = append(r, (candles[i].Close-prev)/prev)
		}
		returns[t] = r
	}

	type pair struct {
		A, B        string
		Correlation float64
	}
	var pairs []pair
	keys := make([]string, 0, len(returns))
	for t := range returns {
		keys = append(keys, t)
	}
	sort.Strings(keys)
	for i := 0; i < len(keys); i++ {
		for j := i + 1; j < len(keys); j++ {
			corr, ok := pearson(returns[keys[i]], returns[keys[j]])
			if !ok {
				continue
			}
			pairs = append(pairs, pair{A: keys[i], B: keys[j], Correlation: corr})
		}
	}
	c.JSON(http.StatusOK, gin.H{"pairs": pairs})
}

// pearson computes the Pearson correlation coefficient over the overlapping
// prefix of a and b, reporting false if there isn't enough overlapping data
// to form a meaningful estimate.
func pearson(a, b []float64) (float64, bool) {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n < 5 {
		return 0, false
	}
	a, b = a[:n], b[:n]

	var sumA, sumB float64
	for i := 0; i < n; i++ {
		sumA += a[i]
		sumB += b[i]
	}
	meanA, meanB := sumA/float64(n), sumB/float64(n)

	var cov, varA, varB float64
	for i := 0; i < n; i++ {
		da, db := a[i]-meanA, b[i]-meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}
	if varA == 0 || varB == 0 {
		return 0, false
	}
	return cov / math.Sqrt(varA*varB), true
}

func (s *Server) handleGetScanner(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"discoveries": discoveriesBySource(s.Store, state.DiscoveryScanner)})
}

func (s *Server) handleGetXAlerts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"discoveries": discoveriesBySource(s.Store, state.DiscoveryVolatilityRunner)})
}

func (s *Server) handleGetGaps(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"discoveries": discoveriesBySource(s.Store, state.DiscoveryGapAnalyzer)})
}

func (s *Server) handleGetHalts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"discoveries": discoveriesBySource(s.Store, state.DiscoveryHaltResume)})
}

func discoveriesBySource(store interface {
	Discoveries() []state.Discovery
}, source state.DiscoverySource) []state.Discovery {
	var out []state.Discovery
	for _, d := range store.Discoveries() {
		if d.Source == source {
			out = append(out, d)
		}
	}
	return out
}

func (s *Server) handleGetPaperTrades(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"trades": s.Store.PaperTrades()})
}

func (s *Server) handleGetPaperTradeStats(c *gin.Context) {
	ticker := c.Query("ticker")
	c.JSON(http.StatusOK, s.Journal.GetStats(ticker))
}

func (s *Server) handleGetJournalStats(c *gin.Context) {
	version := c.Query("signalVersion")
	if version != "" {
		c.JSON(http.StatusOK, s.Journal.GetStatsByVersion(version))
		return
	}
	c.JSON(http.StatusOK, s.Journal.GetStats(""))
}

func (s *Server) handleGetMLStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"dayTrade": gin.H{
			"samples": s.ML.DayTrade.Samples,
			"weights": s.ML.DayTrade.Weights,
		},
		"swing": gin.H{
			"samples": s.ML.Swing.Samples,
			"weights": s.ML.Swing.Weights,
		},
		"datasetSize": gin.H{
			"dayTrade": len(s.ML.Dataset.DayTrade),
			"swing":    len(s.ML.Dataset.Swing),
		},
		// Proposed catalogue-weight nudges from the trained day-trade
		// model; advisory only, an operator applies them by editing the
		// signal-version config.
		"suggestedWeights": ml.SuggestWeightDeltas(s.ML.DayTrade),
	})
}

func (s *Server) handleGetEODReports(c *gin.Context) {
	dates, err := listEODReportDates(s.Layout)
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"dates": dates})
}

func (s *Server) handleGetEODReport(c *gin.Context) {
	date := c.Param("date")
	report, ok, err := loadEODReport(s.Layout, date)
	if err != nil {
		serverError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no report for " + date})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) handleGetBudget(c *gin.Context) {
	sched := s.Store.Scheduler()
	c.JSON(http.StatusOK, gin.H{
		"dailyCallCount": sched.DailyCallCount,
		"dailyLimit":     sched.DailyLimit,
		"lastResetDate":  sched.LastResetDate,
		"cycleCount":     sched.CycleCount,
		"session":        sched.SessionName,
	})
}

func (s *Server) handleGetDiscoveryPerformance(c *gin.Context) {
	if s.SQLStore == nil {
		c.JSON(http.StatusOK, gin.H{"sources": []interface{}{}})
		return
	}
	perf, err := s.SQLStore.DiscoveryPerformance()
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sources": perf})
}
