// Package metrics exposes vantage's prometheus gauges and counters (spec.md
// §10 "Metrics"). Adapted from the teacher's trader-P&L gauge-vec style
// (metrics/metrics.go) from per-trader exchange P&L to scheduler cycle
// health, signal-score distributions, paper-trade win rate, and discovery
// throughput.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is vantage's custom prometheus registry, kept separate from the
// default global one so /metrics never accidentally exposes collectors
// registered by an imported library's init().
var Registry = prometheus.NewRegistry()

var (
	// CyclesTotal counts completed scheduler cycles by tier.
	CyclesTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vantage",
			Subsystem: "scheduler",
			Name:      "cycles_total",
			Help:      "Total number of completed scheduler cycles",
		},
		[]string{"tier"},
	)

	// CycleDuration tracks one RunCycle's wall-clock duration.
	CycleDuration = promauto.With(Registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "vantage",
			Subsystem: "scheduler",
			Name:      "cycle_duration_seconds",
			Help:      "Scheduler cycle duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
		},
	)

	// DailyCallBudgetUsed tracks the fraction of the daily external-call
	// budget spent so far today.
	DailyCallBudgetUsed = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: "vantage",
			Subsystem: "scheduler",
			Name:      "daily_call_budget_used_ratio",
			Help:      "Fraction of the daily external-call budget spent today",
		},
	)

	// SignalScoreDistribution is a histogram of blended confidence scores
	// emitted across every ticker scored, bucketed the way a signal-quality
	// dashboard would slice it.
	SignalScoreDistribution = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vantage",
			Subsystem: "signal",
			Name:      "confidence_score",
			Help:      "Distribution of blended signal confidence scores",
			Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
		[]string{"direction"},
	)

	// PaperTradeWinRate tracks the rolling win-rate percentage, overall and
	// per signal version, for live A/B comparison.
	PaperTradeWinRate = promauto.With(Registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "vantage",
			Subsystem: "journal",
			Name:      "win_rate",
			Help:      "Paper-trade win rate percentage",
		},
		[]string{"signal_version"},
	)

	// OpenPaperTrades tracks the count of currently pending paper trades.
	OpenPaperTrades = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: "vantage",
			Subsystem: "journal",
			Name:      "open_trades",
			Help:      "Number of currently pending paper trades",
		},
	)

	// DiscoveriesTotal counts discoveries tracked by producer source.
	DiscoveriesTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vantage",
			Subsystem: "discovery",
			Name:      "tracked_total",
			Help:      "Total discoveries tracked, by producer source",
		},
		[]string{"source"},
	)

	// MLTrainingSamples tracks the cumulative dataset size per horizon
	// class, so a flat line signals the retrain gate has stalled.
	MLTrainingSamples = promauto.With(Registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "vantage",
			Subsystem: "ml",
			Name:      "training_samples",
			Help:      "Cumulative ML training dataset size",
		},
		[]string{"horizon_class"},
	)

	// ProviderFetchErrors counts failed external provider calls by feed.
	ProviderFetchErrors = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vantage",
			Subsystem: "provider",
			Name:      "fetch_errors_total",
			Help:      "Total failed external provider fetches, by feed",
		},
		[]string{"feed"},
	)
)

// Init registers the standard process/Go-runtime collectors alongside
// vantage's own, matching the teacher's metrics.Init() call shape.
func Init() {
	Registry.MustRegister(prometheus.NewGoCollector())
	Registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
}

// RecordCycle records one completed cycle's tier and duration.
func RecordCycle(tier string, durationSeconds float64) {
	CyclesTotal.WithLabelValues(tier).Inc()
	CycleDuration.Observe(durationSeconds)
}

// RecordSignalScore records one ticker's blended confidence and direction.
func RecordSignalScore(direction string, confidence int) {
	SignalScoreDistribution.WithLabelValues(direction).Observe(float64(confidence))
}

// RecordDiscovery increments the tracked-discovery counter for source.
func RecordDiscovery(source string) {
	DiscoveriesTotal.WithLabelValues(source).Inc()
}

// RecordProviderError increments the fetch-error counter for feed.
func RecordProviderError(feed string) {
	ProviderFetchErrors.WithLabelValues(feed).Inc()
}

// SetWinRate sets the rolling win-rate gauge for one signal version
// ("" means the aggregate across all versions).
func SetWinRate(signalVersion string, winRate float64) {
	label := signalVersion
	if label == "" {
		label = "all"
	}
	PaperTradeWinRate.WithLabelValues(label).Set(winRate)
}

// SetOpenTrades sets the open-paper-trade count gauge.
func SetOpenTrades(count int) {
	OpenPaperTrades.Set(float64(count))
}

// SetTrainingSamples sets the cumulative dataset size gauge for one horizon
// class ("day" or "swing").
func SetTrainingSamples(horizonClass string, count int) {
	MLTrainingSamples.WithLabelValues(horizonClass).Set(float64(count))
}

// SetDailyCallBudgetUsed sets the daily-budget-used ratio gauge.
func SetDailyCallBudgetUsed(used, limit int) {
	if limit <= 0 {
		DailyCallBudgetUsed.Set(0)
		return
	}
	DailyCallBudgetUsed.Set(float64(used) / float64(limit))
}
