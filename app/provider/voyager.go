package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const maxResponseSize = 10 * 1024 * 1024

type ClientOptions struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	// RequestsPerSecond caps outgoing calls; 0 disables the limit.
	RequestsPerSecond float64
}

// VoyagerClient talks to the LinkedIn Voyager API with browser session
// cookies. It implements SearchProvider, ProfileProvider and Session.
type VoyagerClient struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter

	mu    sync.RWMutex
	creds *Credentials
}

func NewVoyagerClient(opts ClientOptions) *VoyagerClient {
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	return &VoyagerClient{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		userAgent:  opts.UserAgent,
		httpClient: &http.Client{Timeout: opts.Timeout},
		limiter:    rate.NewLimiter(limit, 1),
	}
}

func (c *VoyagerClient) IsAuthenticated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.creds != nil
}

// Login stores the session cookies and verifies them against the
// provider. A rejected session is not kept.
func (c *VoyagerClient) Login(ctx context.Context, creds Credentials) (Account, error) {
	creds.LiAt = strings.TrimSpace(creds.LiAt)
	creds.JSessionID = strings.Trim(strings.TrimSpace(creds.JSessionID), `"`)
	if creds.LiAt == "" {
		return Account{}, ErrMissingCookie
	}

	var me struct {
		MiniProfile struct {
			FirstName        string `json:"firstName"`
			LastName         string `json:"lastName"`
			PublicIdentifier string `json:"publicIdentifier"`
		} `json:"miniProfile"`
	}
	if err := c.getJSON(ctx, &creds, "/voyager/api/me", &me); err != nil {
		return Account{}, fmt.Errorf("failed to verify session: %w", err)
	}

	c.mu.Lock()
	c.creds = &creds
	c.mu.Unlock()

	account := Account{
		Name:     strings.TrimSpace(me.MiniProfile.FirstName + " " + me.MiniProfile.LastName),
		Username: me.MiniProfile.PublicIdentifier,
	}
	if account.Username == "" {
		account.Username, _, _ = strings.Cut(creds.Email, "@")
	}
	if account.Name == "" {
		account.Name = "User"
	}

	slog.Info("Provider session established", "username", account.Username)
	return account, nil
}

func (c *VoyagerClient) Logout() {
	c.mu.Lock()
	c.creds = nil
	c.mu.Unlock()
}

func (c *VoyagerClient) session() (*Credentials, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.creds == nil {
		return nil, ErrNotAuthenticated
	}
	return c.creds, nil
}

// get performs a rate limited, authenticated GET and returns the body.
func (c *VoyagerClient) get(ctx context.Context, creds *Credentials, pathAndQuery string, accept string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	url := c.baseURL + pathAndQuery
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", accept)
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")
	req.Header.Set("X-Li-Lang", "en_US")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if creds != nil {
		req.AddCookie(&http.Cookie{Name: "li_at", Value: creds.LiAt})
		if creds.JSessionID != "" {
			req.AddCookie(&http.Cookie{Name: "JSESSIONID", Value: `"` + creds.JSessionID + `"`})
			req.Header.Set("Csrf-Token", creds.JSessionID)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: %w", ErrSessionRejected, &StatusError{StatusCode: resp.StatusCode, URL: url})
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: url}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return body, nil
}

func (c *VoyagerClient) getJSON(ctx context.Context, creds *Credentials, pathAndQuery string, out any) error {
	body, err := c.get(ctx, creds, pathAndQuery, "application/json")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

var (
	_ SearchProvider  = (*VoyagerClient)(nil)
	_ ProfileProvider = (*VoyagerClient)(nil)
	_ Session         = (*VoyagerClient)(nil)
)
