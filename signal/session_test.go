package signal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"vantage/state"
)

func etTime(hour, min int) time.Time {
	return time.Date(2026, 7, 29, hour, min, 0, 0, et)
}

func TestSessionForTimeBoundaries(t *testing.T) {
	assert.Equal(t, state.SessionPreMarket, SessionForTime(etTime(8, 45)))
	assert.Equal(t, state.SessionOpenRush, SessionForTime(etTime(9, 0)))
	assert.Equal(t, state.SessionPowerOpen, SessionForTime(etTime(9, 25)))
	assert.Equal(t, state.SessionMidday, SessionForTime(etTime(12, 0)))
	assert.Equal(t, state.SessionPowerHour, SessionForTime(etTime(15, 30)))
	assert.Equal(t, state.SessionAfterHours, SessionForTime(etTime(16, 30)))
	assert.Equal(t, state.SessionOvernight, SessionForTime(etTime(2, 0)))
}

func TestRefreshIntervalNarrowsAtOpen(t *testing.T) {
	assert.Equal(t, 10*time.Second, RefreshInterval(state.SessionOpenRush))
	assert.Equal(t, 60*time.Second, RefreshInterval(state.SessionOvernight))
}

func TestDetermineRegime(t *testing.T) {
	assert.Equal(t, state.RegimeVolatile, DetermineRegime(state.ADXState{Value: 30}, state.VIXSpike{Spiking: true}, state.MarketTide{}))
	assert.Equal(t, state.RegimeUnknown, DetermineRegime(state.ADXState{Value: 0}, state.VIXSpike{}, state.MarketTide{}))
	assert.Equal(t, state.RegimeRanging, DetermineRegime(state.ADXState{Value: 15}, state.VIXSpike{}, state.MarketTide{}))
	assert.Equal(t, state.RegimeTrendingUp, DetermineRegime(state.ADXState{Value: 30, PlusDI: 25, MinusDI: 10}, state.VIXSpike{}, state.MarketTide{}))
	assert.Equal(t, state.RegimeTrendingDown, DetermineRegime(state.ADXState{Value: 30, PlusDI: 10, MinusDI: 25}, state.VIXSpike{}, state.MarketTide{}))
}
