package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"vantage/journal"
	"vantage/state"
)

// tickerActionRequest is the body of POST /api/tickers (spec.md §6).
type tickerActionRequest struct {
	Ticker string `json:"ticker" binding:"required"`
	Action string `json:"action" binding:"required"` // "add" | "remove"
}

// handlePostTickers mutates the watchlist, persists it to disk, and updates
// the tick-stream subscription so the newly-watched (or dropped) ticker's
// live summary tracks its membership (spec.md §6).
func (s *Server) handlePostTickers(c *gin.Context) {
	var req tickerActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	normalized, ok := state.NormalizeTicker(req.Ticker)
	if !ok {
		badRequest(c, errInvalidTicker(req.Ticker))
		return
	}

	switch req.Action {
	case "add":
		added := s.Store.AddTicker(normalized)
		if s.Scheduler != nil && s.Scheduler.Tick != nil {
			s.Scheduler.Tick.Subscribe(normalized)
		}
		if err := s.Store.SaveWatchlist(s.Layout); err != nil {
			serverError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ticker": normalized, "added": added, "watchlist": s.Store.Watchlist()})
	case "remove":
		removed := s.Store.RemoveTicker(normalized)
		if s.Scheduler != nil && s.Scheduler.Tick != nil {
			s.Scheduler.Tick.Unsubscribe(normalized)
		}
		if err := s.Store.SaveWatchlist(s.Layout); err != nil {
			serverError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ticker": normalized, "removed": removed, "watchlist": s.Store.Watchlist()})
	default:
		badRequest(c, errInvalidAction(req.Action))
		return
	}

	s.broadcastState()
}

// paperTradeRequest is the body of POST /api/paper-trades and
// /api/options-paper/open: an already-built setup the caller wants opened
// as a paper trade (the engine-generated setups are opened automatically
// by the scheduler; this endpoint covers manual/backfilled entries).
type paperTradeRequest struct {
	Ticker        string            `json:"ticker" binding:"required"`
	Direction     state.Direction   `json:"direction" binding:"required"`
	Entry         float64           `json:"entry" binding:"required"`
	Target1       float64           `json:"target1" binding:"required"`
	Target2       float64           `json:"target2"`
	Stop          float64           `json:"stop" binding:"required"`
	Horizon       state.Horizon     `json:"horizon"`
	Confidence    int               `json:"confidence"`
	SignalVersion string            `json:"signalVersion"`
}

func (s *Server) handlePostPaperTrade(c *gin.Context) {
	var req paperTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	normalized, ok := state.NormalizeTicker(req.Ticker)
	if !ok {
		badRequest(c, errInvalidTicker(req.Ticker))
		return
	}
	if req.Direction != state.DirectionLong && req.Direction != state.DirectionShort {
		badRequest(c, errInvalidDirection(req.Direction))
		return
	}

	setup := state.TradeSetup{
		Ticker:     normalized,
		Direction:  req.Direction,
		Entry:      req.Entry,
		Target1:    req.Target1,
		Target2:    req.Target2,
		Stop:       req.Stop,
		Horizon:    req.Horizon,
		RiskReward: riskReward(req.Entry, req.Target1, req.Stop),
		Confidence: state.TradeConfidence{Technical: req.Confidence, Blended: req.Confidence},
	}
	if setup.Horizon == "" {
		setup.Horizon = state.HorizonDay
	}

	versions := s.Store.SignalVersions()
	signalVersion := req.SignalVersion
	if signalVersion == "" {
		signalVersion = versions.ActiveVersion
	}

	pt, opened := s.Journal.OpenPaperTrade(setup, time.Now(), signalVersion, manualConsecutiveLossLimit, journal.DefaultOpenCooldown)
	if !opened {
		badRequest(c, errTradeRejected(normalized, req.Direction))
		return
	}
	s.broadcastState()
	c.JSON(http.StatusOK, pt)
}

// manualConsecutiveLossLimit gates manually-opened trades through the same
// journal guards as the scheduler's auto-entries (spec.md §4.6's guards
// apply to every paper-trade open, not only automated ones). It is fixed at
// 3, the default of signal.ConsecutiveLossLimit, and does not read the
// active version's gating; the cooldown is journal.DefaultOpenCooldown, the
// default of the scheduler's configurable PaperTradeCooldown.
const manualConsecutiveLossLimit = 3

type closePaperTradeRequest struct {
	ID        string  `json:"id" binding:"required"`
	ExitPrice float64 `json:"exitPrice" binding:"required"`
}

func (s *Server) handlePostClosePaperTrade(c *gin.Context) {
	var req closePaperTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	pt, err := s.Journal.CloseManual(req.ID, req.ExitPrice, time.Now())
	if err != nil {
		badRequest(c, err)
		return
	}
	s.broadcastState()
	c.JSON(http.StatusOK, pt)
}

// handlePostAutoEnter forces a fresh score-and-enter for ticker, for the
// "/api/options-paper/auto-enter/{ticker}" endpoint (spec.md §6).
func (s *Server) handlePostAutoEnter(c *gin.Context) {
	ticker := c.Param("ticker")
	ctx, cancel := withRequestContext(c)
	defer cancel()

	pt, err := s.Scheduler.AutoEnterTicker(ctx, ticker, time.Now())
	if err != nil {
		badRequest(c, err)
		return
	}
	s.broadcastState()
	c.JSON(http.StatusOK, pt)
}

// handlePostMLRetrain unconditionally retrains both classifiers against the
// full persisted dataset and saves the result, for the manual
// "/api/ml/retrain" override of the 17:00 ET nightly job (spec.md §4.5,§6).
func (s *Server) handlePostMLRetrain(c *gin.Context) {
	s.ML.RetrainAll()
	if err := s.ML.Save(s.Layout); err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"dayTradeSamples": len(s.ML.Dataset.DayTrade),
		"swingSamples":    len(s.ML.Dataset.Swing),
		"retrainedAt":     time.Now(),
	})
}

// handlePostGenerateEODReport builds and persists today's (or a requested
// date's) EOD report on demand, for the manual "/api/eod-report/generate"
// override of the 16:16 ET auto-generation (spec.md §4, §6).
func (s *Server) handlePostGenerateEODReport(c *gin.Context) {
	date := c.Query("date")
	now := time.Now()
	if date == "" {
		date = now.In(etLocationAPI()).Format("2006-01-02")
	}
	report := s.Scheduler.GenerateEODReport(date, now)
	if err := saveEODReport(s.Layout, report); err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func etLocationAPI() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.UTC
	}
	return loc
}
