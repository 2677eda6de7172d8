// Package forward delivers newly found posts to an external webhook.
package forward

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/lysyi3m/post-comb/app/post"
)

type payload struct {
	Watchlist string      `json:"watchlist,omitempty"`
	Posts     []post.Post `json:"posts"`
}

type Webhook struct {
	url        string
	userAgent  string
	httpClient *http.Client
}

func NewWebhook(url, userAgent string, timeout time.Duration) *Webhook {
	return &Webhook{
		url:        url,
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Forward posts {"watchlist": ..., "posts": [...]} to the webhook URL.
// Any non-2xx answer is an error.
func (w *Webhook) Forward(ctx context.Context, watchlist string, posts []post.Post) error {
	if len(posts) == 0 {
		return nil
	}

	body, err := json.Marshal(payload{Watchlist: watchlist, Posts: posts})
	if err != nil {
		return fmt.Errorf("failed to encode posts: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", w.userAgent)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send posts: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}

	slog.Debug("Posts forwarded", "watchlist", watchlist, "count", len(posts), "status", resp.StatusCode)
	return nil
}
