// Package notify implements the deduplicated outbound-alert channel (spec.md
// §4.9): discovery/setup/trade-close events are cooled-down per ticker and
// fanned out to whichever transports are configured (Discord webhook,
// Telegram bot), plus a once-per-session daily brief. Discord and Telegram
// are themselves external collaborators per spec.md §1 — this package
// defines the narrow Notifier interface the scheduler depends on and a
// concrete implementation good enough to exercise the alert path end to
// end, with its own retry loop (exponential backoff) on each webhook POST.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"vantage/logger"
	"vantage/state"
)

// Cooldown is the minimum gap between two alerts with the same dedup key —
// kind plus ticker, plus the direction for setups and the trade ID for
// closes — preventing a noisy ticker from flooding every
// configured transport (spec.md §4.9 "deduplicated alert channel with
// cooldowns").
const Cooldown = 5 * time.Minute

// kind distinguishes the alert categories that share the cooldown map.
type kind string

const (
	kindDiscovery kind = "discovery"
	kindSetup     kind = "setup"
	kindClosed    kind = "closed"
)

// Transport delivers one already-formatted message to an external channel.
// Discord and Telegram are the two concrete Transports; both are opaque
// collaborators behind this one-method interface (spec.md §1).
type Transport interface {
	Send(ctx context.Context, message string) error
}

// Notifier is the scheduler's outbound-alert dependency (mirrors
// scheduler.Notifier so the scheduler never imports this package directly).
type Notifier struct {
	transports []Transport

	mu       sync.Mutex
	lastSent map[string]time.Time

	// briefSent marks whether the once-per-session daily brief has already
	// gone out; reset externally at session rollover.
	briefSent bool
}

// New builds a Notifier fanning out to transports. A Notifier with zero
// transports is valid — every Notify* call then delivers nothing and logs
// nothing, matching spec.md's "transports optional, UI unaffected" posture.
func New(transports ...Transport) *Notifier {
	return &Notifier{transports: transports, lastSent: make(map[string]time.Time)}
}

func (n *Notifier) cooledDown(key string, now time.Time) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if last, ok := n.lastSent[key]; ok && now.Sub(last) < Cooldown {
		return false
	}
	n.lastSent[key] = now
	return true
}

func (n *Notifier) dispatch(ctx context.Context, message string) {
	for _, t := range n.transports {
		if err := t.Send(ctx, message); err != nil {
			logger.Warnf("notify: transport delivery failed: %v", err)
		}
	}
}

// NotifyDiscovery alerts on a newly-tracked discovery, deduplicated per
// ticker within Cooldown (spec.md §4.7 scenario S3 "at confidence >= 50
// emits a notification").
func (n *Notifier) NotifyDiscovery(ctx context.Context, d state.Discovery) {
	if d.Confidence < 50 {
		return
	}
	key := fmt.Sprintf("%s:%s", kindDiscovery, d.Ticker)
	if !n.cooledDown(key, time.Now()) {
		return
	}
	n.dispatch(ctx, fmt.Sprintf("[%s] %s discovered %s @ %.2f (confidence %d%%): %v",
		d.Source, d.Ticker, d.Direction, d.Price, d.Confidence, d.TopSignals))
}

// NotifySetup alerts on a newly-generated trade setup.
func (n *Notifier) NotifySetup(ctx context.Context, setup state.TradeSetup) {
	key := fmt.Sprintf("%s:%s:%s", kindSetup, setup.Ticker, setup.Direction)
	if !n.cooledDown(key, time.Now()) {
		return
	}
	n.dispatch(ctx, fmt.Sprintf("[setup] %s %s entry %.2f target1 %.2f stop %.2f (confidence %d%%, R:R %.2f)",
		setup.Ticker, setup.Direction, setup.Entry, setup.Target1, setup.Stop,
		setup.Confidence.Blended, setup.RiskReward))
}

// NotifyTradeClosed alerts on a paper trade reaching a closed status.
func (n *Notifier) NotifyTradeClosed(ctx context.Context, pt state.PaperTrade) {
	key := fmt.Sprintf("%s:%s:%s", kindClosed, pt.Ticker, pt.ID)
	if !n.cooledDown(key, time.Now()) {
		return
	}
	pnl := 0.0
	if pt.PnLPct != nil {
		pnl = *pt.PnLPct
	}
	n.dispatch(ctx, fmt.Sprintf("[closed] %s %s %s, pnl %.2f%%", pt.Ticker, pt.Direction, pt.Status, pnl))
}

// SendDailyBrief dispatches brief once per session; subsequent calls within
// the same session (until ResetBrief is called at rollover) are no-ops.
func (n *Notifier) SendDailyBrief(ctx context.Context, brief state.DailyBrief) {
	n.mu.Lock()
	if n.briefSent {
		n.mu.Unlock()
		return
	}
	n.briefSent = true
	n.mu.Unlock()

	n.dispatch(ctx, fmt.Sprintf("[brief] session=%s watchlist=%d discoveries=%d openTrades=%d winRate=%.1f%%",
		brief.Session, brief.Watchlist, brief.Discoveries, brief.OpenTrades, brief.WinRate))
}

// ResetBrief clears the once-per-session brief flag, called by the
// scheduler when the session classification changes to pre-market.
func (n *Notifier) ResetBrief() {
	n.mu.Lock()
	n.briefSent = false
	n.mu.Unlock()
}

// discordPayload mirrors Discord's minimal incoming-webhook body shape.
type discordPayload struct {
	Content string `json:"content"`
}

// DiscordTransport posts to a Discord incoming webhook URL.
type DiscordTransport struct {
	WebhookURL string
	client     *http.Client
}

// NewDiscordTransport builds a DiscordTransport posting to webhookURL.
func NewDiscordTransport(webhookURL string) *DiscordTransport {
	return &DiscordTransport{WebhookURL: webhookURL, client: &http.Client{Timeout: 10 * time.Second}}
}

// Send posts message to the configured Discord webhook, retrying network
// errors and 429 responses with exponential backoff (2s / 4s / 8s, four
// attempts in all) and failing at once on any other non-2xx status. This is
// its own loop, not the provider package's flat-delay fetchJSON retry.
func (d *DiscordTransport) Send(ctx context.Context, message string) error {
	body, err := json.Marshal(discordPayload{Content: message})
	if err != nil {
		return err
	}

	backoffs := []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}
	var lastErr error
	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.WebhookURL, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := d.client.Do(req)
		if err != nil {
			lastErr = err
		} else {
			resp.Body.Close()
			if resp.StatusCode == http.StatusTooManyRequests && attempt < len(backoffs) {
				lastErr = fmt.Errorf("discord: rate limited (429)")
			} else if resp.StatusCode >= 300 {
				return fmt.Errorf("discord: status %d", resp.StatusCode)
			} else {
				return nil
			}
		}
		if attempt >= len(backoffs) {
			return fmt.Errorf("discord: all attempts failed: %w", lastErr)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoffs[attempt]):
		}
	}
}

// TelegramTransport posts to the Telegram Bot API sendMessage endpoint.
type TelegramTransport struct {
	BotToken string
	ChatID   string
	client   *http.Client
}

// NewTelegramTransport builds a TelegramTransport for botToken/chatID.
func NewTelegramTransport(botToken, chatID string) *TelegramTransport {
	return &TelegramTransport{BotToken: botToken, ChatID: chatID, client: &http.Client{Timeout: 10 * time.Second}}
}

type telegramPayload struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

// Send posts message to the Telegram bot's chat, same backoff shape as
// DiscordTransport.
func (t *TelegramTransport) Send(ctx context.Context, message string) error {
	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.BotToken)
	body, err := json.Marshal(telegramPayload{ChatID: t.ChatID, Text: message})
	if err != nil {
		return err
	}

	backoffs := []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}
	var lastErr error
	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := t.client.Do(req)
		if err != nil {
			lastErr = err
		} else {
			resp.Body.Close()
			if resp.StatusCode == http.StatusTooManyRequests && attempt < len(backoffs) {
				lastErr = fmt.Errorf("telegram: rate limited (429)")
			} else if resp.StatusCode >= 300 {
				return fmt.Errorf("telegram: status %d", resp.StatusCode)
			} else {
				return nil
			}
		}
		if attempt >= len(backoffs) {
			return fmt.Errorf("telegram: all attempts failed: %w", lastErr)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoffs[attempt]):
		}
	}
}
