package discovery

import (
	"time"

	"vantage/journal"
	"vantage/state"
)

// Sink is the shared landing point every producer funnels through: track
// the discovery, auto-subscribe its ticker to the tick stream with a fresh
// TTL, and optionally auto-generate a trade setup (spec.md §4.7).
type Sink struct {
	Store   *state.Store
	Journal *journal.Journal
}

// NewSink builds a Sink over store and j.
func NewSink(store *state.Store, j *journal.Journal) *Sink {
	return &Sink{Store: store, Journal: j}
}

// AutoSetupConfidenceFloor is the minimum SignalScore confidence required
// before a discovery is allowed to auto-generate a TradeSetup (spec.md
// §4.7): a casually-scored discovery should not silently start paper
// trading on its own.
const AutoSetupConfidenceFloor = 70

// tradeDirection maps a discovery's directional bias onto the trade side
// its auto-setup would take, for the per-side consecutive-loss guard.
func tradeDirection(d state.Direction) state.Direction {
	if d == state.DirectionBearish {
		return state.DirectionShort
	}
	return state.DirectionLong
}

// Track records d, auto-subscribes its ticker for DiscoveryTTL, and returns
// whether the ticker is newly eligible for auto-setup generation (its
// confidence clears AutoSetupConfidenceFloor and it isn't blocked by the
// consecutive-loss guard).
func (s *Sink) Track(d state.Discovery, now time.Time, consecutiveLossLimit int) bool {
	d.ExpiresAt = now.Add(state.DiscoveryTTL)
	s.Store.TrackDiscovery(d)
	s.Store.Subscribe(d.Ticker, now)

	if d.Confidence < AutoSetupConfidenceFloor {
		return false
	}
	if s.Journal != nil && s.Journal.ConsecutiveLosses(d.Ticker, tradeDirection(d.Direction)) >= consecutiveLossLimit {
		return false
	}
	return true
}

// Sweep removes expired discoveries and tick subscriptions, matching the
// scheduler's 15-minute sweep cadence (spec.md §4.7, testable property 9).
func Sweep(store *state.Store, now time.Time) (expiredDiscoveries, expiredSubs []string) {
	return store.SweepExpiredDiscoveries(now), store.SweepExpiredSubscriptions(now)
}
