package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"vantage/journal"
	"vantage/state"
)

func errInvalidTicker(raw string) error {
	return fmt.Errorf("invalid ticker symbol %q", raw)
}

func errInvalidAction(action string) error {
	return fmt.Errorf("invalid action %q (want \"add\" or \"remove\")", action)
}

func errInvalidDirection(d state.Direction) error {
	return fmt.Errorf("invalid direction %q (want \"long\" or \"short\")", d)
}

func errTradeRejected(ticker string, d state.Direction) error {
	return fmt.Errorf("paper trade for %s %s rejected: duplicate pending trade, cooldown, or consecutive-loss guard", ticker, d)
}

// backtestRequest replays a historical candle sequence (spec.md §4.6
// "backtest(candles, signalEngine)"). Two modes: with an explicit
// entry/stop the sequence is simulated against that one setup, mirroring
// journal.BacktestCase; without one (stop omitted or zero) the signal
// engine itself is re-run over the replay via Scheduler.BacktestTicker,
// which also feeds every resolved trade to the ML calibrator as a labeled
// sample.
type backtestRequest struct {
	Ticker    string          `json:"ticker" binding:"required"`
	Direction state.Direction `json:"direction"`
	Entry     float64         `json:"entry"`
	Target1   float64         `json:"target1"`
	Target2   float64         `json:"target2"`
	Stop      float64         `json:"stop"`
	Horizon   state.Horizon   `json:"horizon"`
	Candles   []state.Candle  `json:"candles" binding:"required"`
}

func (s *Server) handlePostBacktest(c *gin.Context) {
	var req backtestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	normalized, ok := state.NormalizeTicker(req.Ticker)
	if !ok {
		badRequest(c, errInvalidTicker(req.Ticker))
		return
	}
	if len(req.Candles) == 0 {
		badRequest(c, fmt.Errorf("backtest requires at least one candle"))
		return
	}

	if req.Stop == 0 {
		stats, samples, err := s.Scheduler.BacktestTicker(normalized, req.Candles, time.Now())
		if err != nil {
			badRequest(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"stats": stats, "trainingSamples": samples})
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
	}
	stats := journal.Backtest([]journal.BacktestCase{{Setup: setup, Bars: req.Candles}})
	c.JSON(http.StatusOK, stats)
}

type validateTickerRequest struct {
	Ticker string `json:"ticker" binding:"required"`
}

// handlePostValidateTicker checks whether a symbol is tradeable on the
// configured data sources before an operator adds it to the watchlist
// (spec.md §6).
func (s *Server) handlePostValidateTicker(c *gin.Context) {
	var req validateTickerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ctx, cancel := withRequestContext(c)
	defer cancel()

	quote, err := s.Scheduler.ValidateTicker(ctx, req.Ticker)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"ticker": req.Ticker, "valid": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ticker": quote.Ticker, "valid": true, "quote": quote})
}

// handlePostScanLowFloat triggers an on-demand volatility-runner pass
// outside its normal WARM-tier cadence (spec.md §6).
func (s *Server) handlePostScanLowFloat(c *gin.Context) {
	ctx, cancel := withRequestContext(c)
	defer cancel()

	discoveries, err := s.Scheduler.ScanLowFloat(ctx, time.Now())
	if err != nil {
		serverError(c, err)
		return
	}
	s.broadcastState()
	c.JSON(http.StatusOK, gin.H{"discoveries": discoveries})
}

// chatRequest is the thin contract for the chat surface. Package api never
// embeds an LLM client itself — the chatbot/LLM glue is an out-of-scope
// external collaborator (spec.md §1). When Config.ChatBackendURL is set the
// handler forwards the message there (a rate-limited backend yields 429);
// without a backend, or when it fails, the handler answers from state: the
// ticker's current signal and technicals, or a prompt to include a ticker.
type chatRequest struct {
	Message   string `json:"message" binding:"required"`
	Ticker    string `json:"ticker"`
	SessionID string `json:"sessionId"`
}

func (s *Server) handlePostChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if s.Config != nil && s.Config.ChatBackendURL != "" {
		reply, err := s.queryChatBackend(c.Request.Context(), req.Message, req.Ticker, req.SessionID)
		switch {
		case err == nil:
			c.JSON(http.StatusOK, gin.H{"reply": reply, "sessionId": req.SessionID})
			return
		case errors.Is(err, errChatRateLimited):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limited"})
			return
		default:
			// Backend down: fall through to the local state-only answers.
		}
	}

	if req.Ticker == "" {
		c.JSON(http.StatusOK, gin.H{
			"reply":     "I can answer questions about a specific ticker's current signal, technicals, or open paper trades — include a \"ticker\" field.",
			"sessionId": req.SessionID,
		})
		return
	}

	normalized, ok := state.NormalizeTicker(req.Ticker)
	if !ok {
		badRequest(c, errInvalidTicker(req.Ticker))
		return
	}
	score, hasScore := s.Store.SignalScore(normalized)
	tech, hasTech := s.Store.Technicals(normalized)

	reply := gin.H{"sessionId": req.SessionID, "ticker": normalized}
	if hasScore {
		reply["signal"] = score
	}
	if hasTech {
		reply["technicals"] = tech
	}
	if !hasScore && !hasTech {
		reply["reply"] = fmt.Sprintf("no data yet for %s — it may not be on the watchlist or scored this session", normalized)
	}
	c.JSON(http.StatusOK, reply)
}
