// Package api exposes vantage's HTTP/WebSocket surface (spec.md §6): a gin
// router serving the REST read/write endpoints plus a gorilla/websocket hub
// pushing full-state snapshots and alerts, adapted from the teacher's
// gin.Context handler-method style (api/tactics.go: `func (s *Server)
// handleXxx(c *gin.Context)`, `gin.H{...}` replies).
package api

import (
	"context"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vantage/config"
	"vantage/discovery"
	"vantage/journal"
	"vantage/logger"
	"vantage/metrics"
	"vantage/ml"
	"vantage/provider"
	"vantage/scheduler"
	"vantage/state"
)

// Server bundles every dependency a handler might need, threaded explicitly
// (no package-level globals), mirroring the teacher's *Server receiver
// pattern generalized from one store+market+decision trio to vantage's full
// component set.
type Server struct {
	Store     *state.Store
	Journal   *journal.Journal
	ML        *ml.Classifier
	Sink      *discovery.Sink
	Scheduler *scheduler.Scheduler
	SQLStore  *state.SQLStore
	Config    *config.Config
	Layout    state.Layout
	Hub       *Hub

	router *gin.Engine
}

// NewServer builds the gin engine and registers every route from spec.md
// §6. Handlers are grouped across handlers_read.go/handlers_write.go/
// handlers_actions.go/handlers_webhooks.go purely for file size; all share
// this one Server.
func NewServer(store *state.Store, j *journal.Journal, classifier *ml.Classifier, sink *discovery.Sink, sched *scheduler.Scheduler, sqlStore *state.SQLStore, cfg *config.Config, layout state.Layout, hub *Hub) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		Store:     store,
		Journal:   j,
		ML:        classifier,
		Sink:      sink,
		Scheduler: sched,
		SQLStore:  sqlStore,
		Config:    cfg,
		Layout:    layout,
		Hub:       hub,
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger())

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))
	r.GET("/ws", func(c *gin.Context) { s.Hub.ServeWS(c.Writer, c.Request, Event{Type: "full_state", Data: s.Store.Snapshot()}) })

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/state", s.handleGetState)
		apiGroup.GET("/tickers", s.handleGetTickers)
		apiGroup.POST("/tickers", s.handlePostTickers)
		apiGroup.GET("/technicals/:ticker/:timeframe", s.handleGetTechnicals)
		apiGroup.GET("/ticker/:ticker/deep", s.handleGetTickerDeep)
		apiGroup.GET("/signals/:ticker", s.handleGetSignal)
		apiGroup.GET("/regime", s.handleGetRegime)
		apiGroup.GET("/correlation", s.handleGetCorrelation)
		apiGroup.GET("/scanner", s.handleGetScanner)
		apiGroup.GET("/x-alerts", s.handleGetXAlerts)
		apiGroup.GET("/gaps", s.handleGetGaps)
		apiGroup.GET("/halts", s.handleGetHalts)

		apiGroup.GET("/paper-trades", s.handleGetPaperTrades)
		apiGroup.GET("/paper-trades/stats", s.handleGetPaperTradeStats)
		apiGroup.POST("/paper-trades", s.handlePostPaperTrade)
		apiGroup.POST("/paper-trades/close", s.handlePostClosePaperTrade)

		// The options-paper surface aliases the same unified PaperTrade
		// journal (vantage has no separate options-contract position type).
		apiGroup.GET("/options-paper/trades", s.handleGetPaperTrades)
		apiGroup.GET("/options-paper/stats", s.handleGetPaperTradeStats)
		apiGroup.POST("/options-paper/open", s.handlePostPaperTrade)
		apiGroup.POST("/options-paper/close", s.handlePostClosePaperTrade)
		apiGroup.POST("/options-paper/auto-enter/:ticker", s.handlePostAutoEnter)

		apiGroup.GET("/journal/stats", s.handleGetJournalStats)
		apiGroup.GET("/ml/status", s.handleGetMLStatus)
		apiGroup.POST("/ml/retrain", s.handlePostMLRetrain)

		apiGroup.GET("/eod-reports", s.handleGetEODReports)
		apiGroup.GET("/eod-report/:date", s.handleGetEODReport)
		apiGroup.POST("/eod-report/generate", s.handlePostGenerateEODReport)

		apiGroup.GET("/budget", s.handleGetBudget)
		apiGroup.GET("/discovery-performance", s.handleGetDiscoveryPerformance)

		apiGroup.POST("/backtest", s.handlePostBacktest)
		apiGroup.POST("/validate-ticker", s.handlePostValidateTicker)
		apiGroup.POST("/scan-low-float", s.handlePostScanLowFloat)
		apiGroup.POST("/chat", s.handlePostChat)
	}

	webhooks := r.Group("/webhook")
	{
		webhooks.POST("/tradingview", s.handleWebhookTradingView)
		webhooks.POST("/x-alert", s.handleWebhookXAlert)
	}

	s.router = r
	return s
}

// Handler returns the underlying http.Handler for use with http.Server.
func (s *Server) Handler() http.Handler { return s.router }

// broadcastState re-pushes the full snapshot to every websocket client,
// called after any mutating API request so connected clients never need to
// poll (spec.md §6 "the same message after each ... mutating API call").
func (s *Server) broadcastState() {
	if s.Hub != nil {
		s.Hub.Broadcast("full_state", s.Store.Snapshot())
	}
}

// requestLogger logs each request at debug level in the teacher's terse
// single-line style rather than gin's default combined-log-format writer.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debugf("api: %s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

// badRequest and serverError convert internal errors into the spec's
// `{error: message}` envelope, never leaking stack traces to clients
// (spec.md §7 "the engine never leaks stack traces to clients").
func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func serverError(c *gin.Context, err error) {
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

// withRequestContext attaches a bounded timeout to request-scoped work that
// may call out to the provider (e.g. validate-ticker), matching the
// scheduler's per-call timeout discipline (spec.md §5 "Cancellation &
// timeouts").
func withRequestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), provider.DefaultTimeout)
}

// riskReward computes the reward:risk ratio for a manually-supplied
// target/stop pair, the same way scheduler's internal setup-builder does for
// engine-generated ones.
func riskReward(entry, target1, stop float64) float64 {
	risk := math.Abs(entry - stop)
	if risk == 0 {
		return 0
	}
	return math.Abs(target1-entry) / risk
}
