package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// chatBackoff is the retry schedule for 429 responses from the chat
// backend (spec.md §7 "2 s / 4 s / 8 s for 429-class responses on the
// chatbot path"). Package-level so tests can collapse the waits.
var chatBackoff = []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}

// errChatRateLimited marks backoff exhaustion; the handler surfaces it to
// the client as an explicit "rate limited" reply rather than a bare 500.
var errChatRateLimited = errors.New("rate limited")

// queryChatBackend forwards message to the configured LLM backend,
// retrying per chatBackoff when the backend answers 429. Any non-429
// failure returns immediately: the chat surface degrades to its local
// state-only answers rather than blocking the caller.
func (s *Server) queryChatBackend(ctx context.Context, message, ticker, sessionID string) (string, error) {
	body, err := json.Marshal(map[string]string{
		"message":   message,
		"ticker":    ticker,
		"sessionId": sessionID,
	})
	if err != nil {
		return "", err
	}

	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Config.ChatBackendURL, bytes.NewReader(body))
		if err != nil {
			return "", err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return "", err
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			if attempt >= len(chatBackoff) {
				return "", errChatRateLimited
			}
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(chatBackoff[attempt]):
			}
			continue
		}

		var out struct {
			Reply string `json:"reply"`
		}
		decodeErr := json.NewDecoder(resp.Body).Decode(&out)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return "", errors.Errorf("chat backend returned %d", resp.StatusCode)
		}
		if decodeErr != nil {
			return "", decodeErr
		}
		return out.Reply, nil
	}
}
