package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/pkg/errors"

	"vantage/config"
	"vantage/discovery"
	"vantage/logger"
	"vantage/metrics"
	"vantage/state"
)

// RetryAttempts and RetryDelay mirror the teacher's fetch-with-retry shape
// (provider/data_provider.go's "all ... API requests failed" loop): a fixed
// small number of attempts with a flat backoff, not exponential — these
// feeds are polled every cycle anyway, so a failed attempt just waits for
// the next cycle rather than retrying aggressively.
const (
	RetryAttempts = 3
	RetryDelay    = 2 * time.Second
)

// endpoint is one named feed's base URL and API key.
type endpoint struct {
	baseURL string
	apiKey  string
}

// HTTPProvider is the default Provider implementation: a thin JSON-over-HTTP
// client per feed, each with its own base URL and key, adapted from the
// teacher's per-feed AI500Config/TopWinnersConfig/OITopConfig package-level
// configuration style into one struct of named endpoints.
type HTTPProvider struct {
	client *http.Client

	quotes, flow, darkPool, gex, shortInterest   endpoint
	insider, congress, news, econCal, fdaCal     endpoint
	scanner, volatility, haltResume, gapAnalyzer endpoint
	greeks, volStats                             endpoint
}

// NewHTTPProvider builds an HTTPProvider from cfg's provider API keys and
// per-feed base URLs (read from `<PROVIDER>_BASE_URL` environment variables,
// matching config's `<PROVIDER>_API_KEY` convention).
func NewHTTPProvider(cfg *config.Config) *HTTPProvider {
	key := func(name string) string { return cfg.ProviderAPIKeys[name] }
	ep := func(name, def string) endpoint {
		return endpoint{baseURL: envOr(name+"_BASE_URL", def), apiKey: key(name)}
	}
	return &HTTPProvider{
		client:        &http.Client{Timeout: DefaultTimeout},
		quotes:        ep("QUOTES", ""),
		flow:          ep("OPTIONS_FLOW", ""),
		darkPool:      ep("DARK_POOL", ""),
		gex:           ep("GEX", ""),
		shortInterest: ep("SHORT_INTEREST", ""),
		insider:       ep("INSIDER", ""),
		congress:      ep("CONGRESS", ""),
		news:          ep("NEWS", ""),
		econCal:       ep("ECON_CALENDAR", ""),
		fdaCal:        ep("FDA_CALENDAR", ""),
		scanner:       ep("SCANNER", ""),
		volatility:    ep("VOLATILITY_SCREENER", ""),
		haltResume:    ep("HALT_RESUME", ""),
		gapAnalyzer:   ep("GAP_SCANNER", ""),
		greeks:        ep("GREEKS", ""),
		volStats:      ep("VOL_STATS", ""),
	}
}

// fetchJSON performs an HTTP GET against ep+path with RetryAttempts
// attempts and decodes the JSON body into out, matching the teacher's
// "all X API requests failed" retry loop.
func (p *HTTPProvider) fetchJSON(ctx context.Context, ep endpoint, path string, query url.Values, out interface{}) error {
	if ep.baseURL == "" {
		return errors.Errorf("no base URL configured for feed %s", path)
	}
	u := ep.baseURL + path
	if ep.apiKey != "" {
		if query == nil {
			query = url.Values{}
		}
		query.Set("auth", ep.apiKey)
	}
	if len(query) > 0 {
		u = u + "?" + query.Encode()
	}

	var lastErr error
	for attempt := 1; attempt <= RetryAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(RetryDelay):
			}
		}
		if err := p.doFetch(ctx, u, out); err != nil {
			lastErr = err
			logger.Warnf("provider: request to %s attempt %d failed: %v", path, attempt, err)
			continue
		}
		return nil
	}
	metrics.RecordProviderError(path)
	return errors.Wrapf(lastErr, "all requests to %s failed", path)
}

func (p *HTTPProvider) doFetch(ctx context.Context, u string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}
	return json.Unmarshal(body, out)
}

func (p *HTTPProvider) Quote(ctx context.Context, ticker string) (state.Quote, error) {
	var q state.Quote
	err := p.fetchJSON(ctx, p.quotes, "/quote/"+ticker, nil, &q)
	q.Ticker = ticker
	return q, err
}

func (p *HTTPProvider) Candles(ctx context.Context, ticker, timeframe string, lookback int) ([]state.Candle, error) {
	var candles []state.Candle
	q := url.Values{"timeframe": {timeframe}, "lookback": {fmt.Sprint(lookback)}}
	err := p.fetchJSON(ctx, p.quotes, "/candles/"+ticker, q, &candles)
	return candles, err
}

// OptionsFactsHot fetches the options fields that move every cycle (spec.md
// §4.1 HOT: flow, dark pool, GEX). A malformed/unreachable sub-feed is
// logged and left zero-valued rather than failing the whole bundle (spec.md
// §7 "Malformed payload").
func (p *HTTPProvider) OptionsFactsHot(ctx context.Context, ticker string) (state.OptionsFacts, error) {
	var facts state.OptionsFacts
	if err := p.fetchJSON(ctx, p.flow, "/flow/"+ticker, nil, &facts); err != nil {
		logger.Warnf("provider: options flow for %s unavailable: %v", ticker, err)
	}
	var darkPool struct {
		FlowAlerts []state.FlowAlert `json:"flowAlerts"`
	}
	if err := p.fetchJSON(ctx, p.darkPool, "/dark-pool/"+ticker, nil, &darkPool); err == nil {
		facts.FlowAlerts = append(facts.FlowAlerts, darkPool.FlowAlerts...)
	}
	var gex struct {
		PerStrike []state.GEXPoint `json:"perStrike"`
		PerExpiry []state.GEXPoint `json:"perExpiry"`
	}
	if err := p.fetchJSON(ctx, p.gex, "/gex/"+ticker, nil, &gex); err == nil {
		facts.GEXPerStrike = gex.PerStrike
		facts.GEXPerExpiry = gex.PerExpiry
	}
	facts.Ticker = ticker
	return facts, nil
}

// OptionsFactsWarm fetches the options fields that move every 5th cycle
// (spec.md §4.1 WARM: IV rank, max pain, OI change, Greeks, spot exposures,
// NOPE, ATM chains/IV surface).
func (p *HTTPProvider) OptionsFactsWarm(ctx context.Context, ticker string) (state.OptionsFacts, error) {
	var facts state.OptionsFacts
	var greeks struct {
		Exposures []state.GreekExposure `json:"exposures"`
		Spot      state.SpotGreeks      `json:"spot"`
	}
	if err := p.fetchJSON(ctx, p.greeks, "/greeks/"+ticker, nil, &greeks); err == nil {
		facts.GreekExposures = greeks.Exposures
		facts.SpotGreeks = greeks.Spot
	} else {
		logger.Warnf("provider: greeks for %s unavailable: %v", ticker, err)
	}
	var flow struct {
		MaxPainStrike float64          `json:"maxPainStrike"`
		OIChange      float64          `json:"oiChange"`
		IVRank1Y      float64          `json:"ivRank1y"`
		IVSurface     []state.VolPoint `json:"ivSurface"`
		NOPE          float64          `json:"nope"`
	}
	if err := p.fetchJSON(ctx, p.flow, "/flow-stats/"+ticker, nil, &flow); err == nil {
		facts.MaxPainStrike = flow.MaxPainStrike
		facts.OIChange = flow.OIChange
		facts.IVRank1Y = flow.IVRank1Y
		facts.IVSurface = flow.IVSurface
		facts.NOPE = flow.NOPE
	}
	facts.Ticker = ticker
	return facts, nil
}

// OptionsFactsCold fetches the options fields that move every 15th cycle
// (spec.md §4.1 COLD: short interest, realized vol, term structure,
// risk-reversal skew).
func (p *HTTPProvider) OptionsFactsCold(ctx context.Context, ticker string) (state.OptionsFacts, error) {
	var facts state.OptionsFacts
	var short struct {
		Pct float64 `json:"shortInterestPct"`
	}
	if err := p.fetchJSON(ctx, p.shortInterest, "/short-interest/"+ticker, nil, &short); err == nil {
		facts.ShortInterestPct = short.Pct
	}
	var vol struct {
		RealizedVol      float64          `json:"realizedVol"`
		TermStructure    []state.VolPoint `json:"termStructure"`
		RiskReversalSkew float64          `json:"riskReversalSkew"`
	}
	if err := p.fetchJSON(ctx, p.volStats, "/vol-stats/"+ticker, nil, &vol); err == nil {
		facts.RealizedVol = vol.RealizedVol
		facts.VolTermStructure = vol.TermStructure
		facts.RiskReversalSkew = vol.RiskReversalSkew
	} else {
		logger.Warnf("provider: vol stats for %s unavailable: %v", ticker, err)
	}
	facts.Ticker = ticker
	return facts, nil
}

func (p *HTTPProvider) Earnings(ctx context.Context, ticker string) (EarningsReport, bool, error) {
	var rep struct {
		Available           bool    `json:"available"`
		Beat                string  `json:"beat"`
		SurprisePct         float64 `json:"surprisePct"`
		AfterHoursChangePct float64 `json:"afterHoursChangePct"`
	}
	if err := p.fetchJSON(ctx, p.quotes, "/earnings/"+ticker, nil, &rep); err != nil {
		return EarningsReport{}, false, err
	}
	if !rep.Available {
		return EarningsReport{}, false, nil
	}
	return EarningsReport{Beat: rep.Beat, SurprisePct: rep.SurprisePct, AfterHoursChangePct: rep.AfterHoursChangePct}, true, nil
}

func (p *HTTPProvider) News(ctx context.Context, ticker string) ([]state.NewsHeadline, error) {
	var headlines []state.NewsHeadline
	err := p.fetchJSON(ctx, p.news, "/news/"+ticker, nil, &headlines)
	return headlines, err
}

func (p *HTTPProvider) MarketFacts(ctx context.Context) (state.MarketFacts, error) {
	var facts state.MarketFacts
	if err := p.fetchJSON(ctx, p.news, "/market", nil, &facts); err != nil {
		return facts, err
	}

	var insider []state.InsiderTransaction
	if err := p.fetchJSON(ctx, p.insider, "/insider", nil, &insider); err == nil {
		facts.InsiderTransactions = insider
	}
	var congress []state.CongressTrade
	if err := p.fetchJSON(ctx, p.congress, "/congress", nil, &congress); err == nil {
		facts.CongressTrades = congress
	}
	var econ []state.CalendarEvent
	if err := p.fetchJSON(ctx, p.econCal, "/calendar", nil, &econ); err == nil {
		facts.EconCalendar = econ
	}
	var fda []state.CalendarEvent
	if err := p.fetchJSON(ctx, p.fdaCal, "/calendar", nil, &fda); err == nil {
		facts.FDACalendar = fda
	}
	return facts, nil
}

func (p *HTTPProvider) ScanCandidates(ctx context.Context) ([]discovery.ScanCandidate, error) {
	var out []discovery.ScanCandidate
	err := p.fetchJSON(ctx, p.scanner, "/movers", nil, &out)
	return out, err
}

func (p *HTTPProvider) VolatilityCandidates(ctx context.Context) ([]discovery.VolatilityCandidate, error) {
	var out []discovery.VolatilityCandidate
	err := p.fetchJSON(ctx, p.volatility, "/screener", nil, &out)
	return out, err
}

func (p *HTTPProvider) HaltEvents(ctx context.Context) ([]discovery.HaltResumeEvent, error) {
	var out []discovery.HaltResumeEvent
	err := p.fetchJSON(ctx, p.haltResume, "/halts", nil, &out)
	return out, err
}

func (p *HTTPProvider) GapCandidates(ctx context.Context) ([]discovery.GapCandidate, error) {
	var out []discovery.GapCandidate
	err := p.fetchJSON(ctx, p.gapAnalyzer, "/gaps", nil, &out)
	return out, err
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
