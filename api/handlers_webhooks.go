package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"vantage/signal"
	"vantage/state"
)

// tradingViewAlert is the payload shape TradingView's alert webhook posts
// (a free-form JSON body in practice; vantage only requires enough fields
// to broadcast a meaningful alert — spec.md §6 "the server also emits
// {type: alert, data: <alert>} on TradingView webhook receipt").
type tradingViewAlert struct {
	Ticker    string  `json:"ticker" binding:"required"`
	Message   string  `json:"message"`
	Price     float64 `json:"price"`
	Direction string  `json:"direction"`
}

func (s *Server) handleWebhookTradingView(c *gin.Context) {
	var alert tradingViewAlert
	if err := c.ShouldBindJSON(&alert); err != nil {
		badRequest(c, err)
		return
	}
	if s.Hub != nil {
		s.Hub.Broadcast("alert", gin.H{
			"source":    "tradingview",
			"ticker":    alert.Ticker,
			"message":   alert.Message,
			"price":     alert.Price,
			"direction": alert.Direction,
			"receivedAt": time.Now(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"status": "received"})
}

// xAlert is the payload shape for an externally-sourced (e.g. X/Twitter
// flow-alert bot) discovery hint — it carries enough to fold straight into
// a Discovery of source VolatilityRunner the same way the in-process
// screener does, rather than inventing a fifth discovery source for what is
// the same "unusual options flow" concept arriving over a webhook instead
// of a poll (spec.md §4.7 groups x-alerts under VolatilityRunner; see
// handleGetXAlerts).
type xAlert struct {
	Ticker     string  `json:"ticker" binding:"required"`
	Price      float64 `json:"price"`
	Direction  string  `json:"direction"`
	Confidence int     `json:"confidence"`
	Detail     string  `json:"detail"`
}

func (s *Server) handleWebhookXAlert(c *gin.Context) {
	var alert xAlert
	if err := c.ShouldBindJSON(&alert); err != nil {
		badRequest(c, err)
		return
	}
	normalized, ok := state.NormalizeTicker(alert.Ticker)
	if !ok {
		badRequest(c, errInvalidTicker(alert.Ticker))
		return
	}

	direction := state.DirectionNeutral
	switch alert.Direction {
	case "bullish", "long":
		direction = state.DirectionBullish
	case "bearish", "short":
		direction = state.DirectionBearish
	}

	now := time.Now()
	d := state.Discovery{
		Ticker:       normalized,
		Source:       state.DiscoveryVolatilityRunner,
		DiscoveredAt: now,
		Price:        alert.Price,
		Direction:    direction,
		Confidence:   alert.Confidence,
		TopSignals:   []string{alert.Detail},
		ExpiresAt:    now.Add(state.DiscoveryTTL),
	}

	versions := s.Store.SignalVersions()
	lossLimit := signal.ConsecutiveLossLimit(signal.ActiveWeights(versions))
	s.Sink.Track(d, now, lossLimit)
	if s.Hub != nil {
		s.Hub.Broadcast("alert", gin.H{"source": "x-alert", "discovery": d})
	}
	c.JSON(http.StatusOK, gin.H{"status": "tracked", "discovery": d})
}
