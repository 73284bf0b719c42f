// Command vantage runs the trading-intelligence engine's single long-lived
// process: load persisted state, start the tick-stream subscriber and the
// refresh/score/trade scheduler, and serve the HTTP/WebSocket surface
// (spec.md §5 "The system runs as a single long-lived process").
package main

import (
	"context"
	"net/http"
	"os"
	osignal "os/signal"
	"path/filepath"
	"syscall"
	"time"

	"vantage/api"
	"vantage/config"
	"vantage/discovery"
	"vantage/journal"
	"vantage/logger"
	"vantage/metrics"
	"vantage/ml"
	"vantage/notify"
	"vantage/provider"
	"vantage/scheduler"
	tradesignal "vantage/signal"
	"vantage/state"
)

// shutdownGrace bounds how long the scheduler's current cycle gets to
// finish before the process exits anyway (spec.md §5 "awaits the current
// cycle's completion up to a grace period, then persists state").
const shutdownGrace = 20 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}

	metrics.Init()

	layout := state.Layout{Dir: cfg.DataDir}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		logger.Fatalf("creating data dir %s: %v", cfg.DataDir, err)
	}
	if err := os.MkdirAll(filepath.Dir(layout.EODReport("x")), 0o755); err != nil {
		logger.Fatalf("creating eod-reports dir: %v", err)
	}

	store := state.New(cfg.DefaultWatchlist, cfg.DailyCallLimit)
	if err := store.LoadWatchlist(layout); err != nil {
		logger.Warnf("loading watchlist: %v", err)
	}
	if err := store.LoadSnapshot(layout); err != nil {
		logger.Warnf("loading state snapshot: %v (starting cold)", err)
	}
	store.LoadSignalVersions(layout)

	classifier, err := ml.Load(layout)
	if err != nil {
		logger.Warnf("loading ML classifier: %v (starting untrained)", err)
		classifier = &ml.Classifier{}
	}

	j := journal.New(store, layout)
	if err := j.Load(); err != nil {
		logger.Warnf("loading trade journal: %v (starting empty)", err)
	}
	if err := j.LoadSetups(); err != nil {
		logger.Warnf("loading setup log: %v (starting empty)", err)
	}

	httpProvider := provider.NewHTTPProvider(cfg)
	fanIn := provider.NewFanIn(httpProvider, store)
	tick := provider.NewTickSubscriber(store, os.Getenv("TICK_STREAM_URL"))
	for _, t := range store.Watchlist() {
		tick.Subscribe(t)
	}

	engine := tradesignal.NewEngine()
	sink := discovery.NewSink(store, j)

	var sqlStore *state.SQLStore
	if sqlStore, err = state.OpenSQLStore(layout.Dir + "/vantage.db"); err != nil {
		logger.Warnf("opening sqlite store: %v (discovery-performance rollups disabled)", err)
		sqlStore = nil
	}

	sched := scheduler.New(store, fanIn, tick, engine, classifier, j, sink, cfg, layout)
	sched.SQLStore = sqlStore

	var transports []notify.Transport
	if cfg.DiscordWebhookURL != "" {
		transports = append(transports, notify.NewDiscordTransport(cfg.DiscordWebhookURL))
	}
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != "" {
		transports = append(transports, notify.NewTelegramTransport(cfg.TelegramBotToken, cfg.TelegramChatID))
	}
	notifier := notify.New(transports...)
	sched.Notifier = notifier

	hub := api.NewHub()
	sched.Broadcaster = hub

	server := api.NewServer(store, j, classifier, sink, sched, sqlStore, cfg, layout, hub)

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: server.Handler(),
	}

	ctx, stop := osignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hubStop := make(chan struct{})
	go hub.Run(hubStop)

	go func() {
		if err := tick.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Errorf("tick subscriber stopped: %v", err)
		}
	}()

	go sched.RunHaltPoller(ctx)

	schedDone := make(chan error, 1)
	go func() { schedDone <- sched.Run(ctx) }()

	go func() {
		logger.Infof("vantage listening on :%s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Infof("shutdown signal received, draining current cycle (up to %s)", shutdownGrace)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)
	close(hubStop)

	select {
	case <-schedDone:
	case <-shutdownCtx.Done():
		logger.Warnf("scheduler did not stop within grace period")
	}

	if err := store.SaveSnapshot(layout); err != nil {
		logger.Errorf("final snapshot save failed: %v", err)
	}
	if err := j.Save(); err != nil {
		logger.Errorf("final journal save failed: %v", err)
	}
	if err := j.SaveSetups(); err != nil {
		logger.Errorf("final setup log save failed: %v", err)
	}
	if err := classifier.Save(layout); err != nil {
		logger.Errorf("final ML save failed: %v", err)
	}
	logger.Infof("vantage shut down cleanly")
}
