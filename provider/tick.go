package provider

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"vantage/logger"
	"vantage/state"
)

// tickReconnectDelay is how long TickSubscriber waits before redialing after
// a dropped connection, grounded on the reconnect-loop shape seen across the
// retrieval pack's websocket consumers (connect, read until error, sleep,
// retry).
const tickReconnectDelay = 5 * time.Second

// blockTradeSize is the minimum notional share count for a single print to
// count as a "large block" in the rolling summary.
const blockTradeSize = 10000

// tickWindow is how far back the rolling buy/sell-volume summary looks.
const tickWindow = 5 * time.Minute

// tickMessage is the wire shape of one trade print from the tick stream.
type tickMessage struct {
	Ticker string  `json:"ticker"`
	Price  float64 `json:"price"`
	Size   float64 `json:"size"`
	Side   string  `json:"side"` // "buy" | "sell"
	Bid    float64 `json:"bid"`
	Ask    float64 `json:"ask"`
}

type tickPrint struct {
	at    time.Time
	price float64
	size  float64
	buy   bool
}

// TickSubscriber maintains a live websocket connection to the tick-stream
// feed and folds incoming prints into a rolling per-ticker TickSummary
// (spec.md §4.2 "TickSubscriber ... maintaining the per-ticker rolling tick
// summary").
type TickSubscriber struct {
	Store *state.Store
	URL   string

	mu      sync.Mutex
	tickers map[string]bool
	prints  map[string][]tickPrint
}

// NewTickSubscriber builds a TickSubscriber dialing url, writing rolling
// summaries into store.
func NewTickSubscriber(store *state.Store, url string) *TickSubscriber {
	return &TickSubscriber{
		Store:   store,
		URL:     url,
		tickers: make(map[string]bool),
		prints:  make(map[string][]tickPrint),
	}
}

// Subscribe marks ticker as one the next outgoing subscribe frame (or a
// reconnect) should include.
func (t *TickSubscriber) Subscribe(ticker string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tickers[ticker] = true
}

// Unsubscribe removes ticker from the active subscription set and drops its
// rolling buffer.
func (t *TickSubscriber) Unsubscribe(ticker string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.tickers, ticker)
	delete(t.prints, ticker)
}

// Run dials the tick stream and processes incoming prints until ctx is
// canceled, reconnecting with a flat delay on any read error.
func (t *TickSubscriber) Run(ctx context.Context) error {
	if t.URL == "" {
		logger.Warnf("provider: tick stream URL not configured, skipping live tick feed")
		<-ctx.Done()
		return ctx.Err()
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, t.URL, nil)
		if err != nil {
			logger.Warnf("provider: tick stream dial failed: %v", err)
			if !sleepOrDone(ctx, tickReconnectDelay) {
				return ctx.Err()
			}
			continue
		}

		t.sendSubscriptions(conn)
		t.readLoop(ctx, conn)
		conn.Close()

		if !sleepOrDone(ctx, tickReconnectDelay) {
			return ctx.Err()
		}
	}
}

func (t *TickSubscriber) sendSubscriptions(conn *websocket.Conn) {
	t.mu.Lock()
	tickers := make([]string, 0, len(t.tickers))
	for tk := range t.tickers {
		tickers = append(tickers, tk)
	}
	t.mu.Unlock()
	if len(tickers) == 0 {
		return
	}
	if err := conn.WriteJSON(map[string]interface{}{"action": "subscribe", "tickers": tickers}); err != nil {
		logger.Warnf("provider: tick stream subscribe write failed: %v", err)
	}
}

func (t *TickSubscriber) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		_, raw, err := conn.ReadMessage()
		if err != nil {
			logger.Warnf("provider: tick stream read failed: %v", err)
			return
		}
		var msg tickMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}
		t.handle(msg, time.Now())
	}
}

func (t *TickSubscriber) handle(msg tickMessage, now time.Time) {
	if msg.Ticker == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.tickers[msg.Ticker] {
		return
	}

	prints := append(t.prints[msg.Ticker], tickPrint{at: now, price: msg.Price, size: msg.Size, buy: msg.Side == "buy"})
	cutoff := now.Add(-tickWindow)
	kept := prints[:0]
	for _, p := range prints {
		if p.at.After(cutoff) {
			kept = append(kept, p)
		}
	}
	t.prints[msg.Ticker] = kept

	summary := summarizePrints(msg.Ticker, kept, msg, now)
	t.Store.SetTickSummary(summary)
}

func summarizePrints(ticker string, prints []tickPrint, latest tickMessage, now time.Time) state.TickSummary {
	var buyVol, sellVol, total float64
	var largeBuys, largeSells int
	high, low := latest.Price, latest.Price
	for _, p := range prints {
		total += p.size
		if p.buy {
			buyVol += p.size
		} else {
			sellVol += p.size
		}
		if p.size >= blockTradeSize {
			if p.buy {
				largeBuys++
			} else {
				largeSells++
			}
		}
		if p.price > high {
			high = p.price
		}
		if p.price < low {
			low = p.price
		}
	}

	buyPct, sellPct, imbalance := 0.0, 0.0, 0.0
	if total > 0 {
		buyPct = buyVol / total * 100
		sellPct = sellVol / total * 100
		imbalance = (buyVol - sellVol) / total
	}

	return state.TickSummary{
		Ticker:          ticker,
		LastPrice:       latest.Price,
		Bid:             latest.Bid,
		Ask:             latest.Ask,
		BuyVolumePct:    buyPct,
		SellVolumePct:   sellPct,
		FlowImbalance:   imbalance,
		LargeBlockBuys:  largeBuys,
		LargeBlockSells: largeSells,
		TotalVolume:     total,
		HighOfDay:       high,
		LowOfDay:        low,
		UpdatedAt:       now,
	}
}

// sleepOrDone waits for d, returning false early (without sleeping the full
// duration) if ctx is canceled first.
func sleepOrDone(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
