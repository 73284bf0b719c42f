// Package signal is the multi-signal scoring engine: it combines a
// catalogue of weighted, session-modulated, regime-aware indicators into a
// single directional confidence per ticker (spec.md §4.4).
package signal

import (
	"time"

	"vantage/state"
)

// etLocation loads America/New_York, falling back to a fixed -5h offset if
// the tzdata database isn't available in the runtime image.
func etLocation() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.FixedZone("ET", -5*3600)
	}
	return loc
}

var et = etLocation()

// minutesSinceMidnight returns t's minutes-since-midnight in ET.
func minutesSinceMidnight(t time.Time) int {
	local := t.In(et)
	return local.Hour()*60 + local.Minute()
}

// SessionForTime classifies wall-clock ET time into one of the seven
// recognized sessions (spec.md §4.1).
func SessionForTime(t time.Time) state.Session {
	m := minutesSinceMidnight(t)
	switch {
	case m >= 8*60+30 && m < 9*60:
		return state.SessionPreMarket
	case m >= 9*60 && m < 9*60+20:
		return state.SessionOpenRush
	case m >= 9*60+20 && m < 10*60:
		return state.SessionPowerOpen
	case m >= 10*60 && m < 15*60+1:
		return state.SessionMidday
	case m >= 15*60+1 && m < 16*60+16:
		return state.SessionPowerHour
	case m >= 16*60+16 && m < 17*60+1:
		return state.SessionAfterHours
	default:
		return state.SessionOvernight
	}
}

// RefreshInterval returns the scheduler cadence for a session: 10s at the
// busiest sessions, widening to 60s as the session quiets (spec.md §4.1).
func RefreshInterval(s state.Session) time.Duration {
	switch s {
	case state.SessionOpenRush, state.SessionPowerOpen:
		return 10 * time.Second
	case state.SessionMidday:
		return 20 * time.Second
	case state.SessionPowerHour:
		return 15 * time.Second
	case state.SessionPreMarket, state.SessionAfterHours:
		return 30 * time.Second
	default:
		return 60 * time.Second
	}
}

// HorizonProfile exports horizonProfile for callers outside the package
// (the scheduler assembling a TradeSetup needs the session's default
// horizon label; the engine itself only needs the profile key).
func HorizonProfile(s state.Session) (profileKey string, horizon state.Horizon) {
	return horizonProfile(s)
}

// horizonProfile maps a session to the weight-profile key used to select
// VersionWeights.WeightsScalp/Day/Swing and the default setup horizon label.
func horizonProfile(s state.Session) (profileKey string, horizon state.Horizon) {
	switch s {
	case state.SessionOpenRush, state.SessionPowerOpen:
		return "scalp", state.HorizonScalp
	case state.SessionMidday:
		return "day", state.HorizonDay
	case state.SessionPowerHour:
		return "day", state.HorizonDayVolatile
	case state.SessionPreMarket:
		return "swing", state.HorizonExtendedHours
	case state.SessionAfterHours:
		return "swing", state.HorizonExtendedHours
	default:
		return "swing", state.HorizonSwing
	}
}

// sessionMultiplier is a small per-session, per-signal constant table
// (spec.md §4.4a). Signals not listed default to 1.0.
var sessionMultiplier = map[state.Session]map[string]float64{
	state.SessionOpenRush: {
		"volume-spike":  1.4,
		"gap-fill":      1.3,
		"vwap-reclaim":  1.2,
	},
	state.SessionPowerHour: {
		"macd-negative": 1.2,
		"ema-alignment": 1.15,
	},
	state.SessionOvernight: {
		"news-sentiment": 1.3,
		"earnings-beat":  1.5,
	},
}

func sessionMult(session state.Session, signalName string) float64 {
	if bySignal, ok := sessionMultiplier[session]; ok {
		if m, ok := bySignal[signalName]; ok {
			return m
		}
	}
	return 1.0
}
