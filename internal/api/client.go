package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tnunamak/usagegauge/internal/credentials"
	"github.com/tnunamak/usagegauge/internal/logging"
)

const (
	tokenURL   = "https://platform.claude.com/v1/oauth/token"
	usageURL   = "https://api.anthropic.com/api/oauth/usage"
	betaHeader = "oauth-2025-04-20"
	clientID   = "9d1c250a-e61b-44d9-88ed-5944d1962f5e"
	scope      = "user:profile user:inference user:sessions:claude_code user:mcp_servers"
	timeout    = 10 * time.Second

	maxResponseBytes = 1 << 20

	opRefresh = "token refresh"
	opUsage   = "usage fetch"
)

// CredentialStore is where the client reads tokens from and persists
// refreshed ones to.
type CredentialStore interface {
	Read() (credentials.Credentials, error)
	Write(credentials.Credentials) error
}

type Client struct {
	store     CredentialStore
	http      *http.Client
	tokenURL  string
	usageURL  string
	userAgent string
	now       func() time.Time
	log       logging.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.http = hc } }
func WithTokenURL(u string) Option          { return func(c *Client) { c.tokenURL = u } }
func WithUsageURL(u string) Option          { return func(c *Client) { c.usageURL = u } }
func WithUserAgent(ua string) Option        { return func(c *Client) { c.userAgent = ua } }
func WithClock(now func() time.Time) Option { return func(c *Client) { c.now = now } }
func WithLogger(l logging.Logger) Option    { return func(c *Client) { c.log = l } }

func NewClient(store CredentialStore, opts ...Option) *Client {
	c := &Client{
		store:     store,
		http:      &http.Client{Timeout: timeout},
		tokenURL:  tokenURL,
		usageURL:  usageURL,
		userAgent: "usagegauge/dev",
		now:       time.Now,
		log:       logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RefreshToken exchanges creds.RefreshToken for a new access token. The new
// credentials are persisted through the store; a failed write is logged and
// does not fail the refresh.
func (c *Client) RefreshToken(ctx context.Context, creds credentials.Credentials) (credentials.Credentials, error) {
	body, err := json.Marshal(refreshRequest{
		GrantType:    "refresh_token",
		RefreshToken: creds.RefreshToken,
		ClientID:     clientID,
		Scope:        scope,
	})
	if err != nil {
		return credentials.Credentials{}, err
	}

	data, err := c.do(ctx, opRefresh, http.MethodPost, c.tokenURL, http.Header{
		"Content-Type": {"application/json"},
	}, body)
	if err != nil {
		return credentials.Credentials{}, err
	}

	var resp refreshResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return credentials.Credentials{}, &ParseError{Op: opRefresh, Err: err}
	}
	if resp.AccessToken == nil || *resp.AccessToken == "" {
		return credentials.Credentials{}, &ParseError{Op: opRefresh, Err: errors.New("missing access_token")}
	}
	if resp.ExpiresIn == nil {
		return credentials.Credentials{}, &ParseError{Op: opRefresh, Err: errors.New("missing expires_in")}
	}

	refreshed := credentials.Credentials{
		AccessToken:  *resp.AccessToken,
		RefreshToken: creds.RefreshToken,
		ExpiresAt:    c.now().UnixMilli() + *resp.ExpiresIn*1000,
	}
	if resp.RefreshToken != nil && *resp.RefreshToken != "" {
		refreshed.RefreshToken = *resp.RefreshToken
	}

	if err := c.store.Write(refreshed); err != nil {
		c.log.Warn(ctx, "persist refreshed credentials", "error", err)
	} else {
		c.log.Debug(ctx, "credentials refreshed", "expires_at", time.UnixMilli(refreshed.ExpiresAt).UTC())
	}
	return refreshed, nil
}

func (c *Client) FetchUsage(ctx context.Context, creds credentials.Credentials) (Usage, error) {
	data, err := c.do(ctx, opUsage, http.MethodGet, c.usageURL, http.Header{
		"Authorization":  {"Bearer " + creds.AccessToken},
		"anthropic-beta": {betaHeader},
		"Accept":         {"application/json"},
	}, nil)
	if err != nil {
		return Usage{}, err
	}

	var resp usageResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return Usage{}, &ParseError{Op: opUsage, Err: err}
	}

	fiveHour, err := resp.FiveHour.window("five_hour")
	if err != nil {
		return Usage{}, &ParseError{Op: opUsage, Err: err}
	}
	sevenDay, err := resp.SevenDay.window("seven_day")
	if err != nil {
		return Usage{}, &ParseError{Op: opUsage, Err: err}
	}
	return Usage{FiveHour: fiveHour, SevenDay: sevenDay}, nil
}

// FetchUsageWithAutoRefresh reads the stored credentials, refreshes them if
// they are about to expire, and fetches usage. A 401 from the usage endpoint
// triggers exactly one more refresh and fetch.
func (c *Client) FetchUsageWithAutoRefresh(ctx context.Context) (Usage, error) {
	creds, err := c.store.Read()
	if err != nil {
		return Usage{}, err
	}

	if creds.Expired(c.now()) {
		c.log.Debug(ctx, "token near expiry, refreshing", "expires_in", creds.ExpiresIn(c.now()).Round(time.Second))
		creds, err = c.RefreshToken(ctx, creds)
		if err != nil {
			return Usage{}, err
		}
	}

	usage, err := c.FetchUsage(ctx, creds)
	if !isUnauthorized(err) {
		return usage, err
	}

	c.log.Info(ctx, "usage fetch unauthorized, refreshing and retrying")
	creds, err = c.RefreshToken(ctx, creds)
	if err != nil {
		return Usage{}, err
	}
	return c.FetchUsage(ctx, creds)
}

func isUnauthorized(err error) bool {
	var he *HTTPError
	return errors.As(err, &he) && he.StatusCode == http.StatusUnauthorized
}

// do performs one request and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, op, method, url string, header http.Header, body []byte) ([]byte, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for k, v := range header {
		req.Header[http.CanonicalHeaderKey(k)] = v
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{Op: op, StatusCode: resp.StatusCode}
	}
	if len(data) > maxResponseBytes {
		return nil, &ParseError{Op: op, Err: errors.New("response too large")}
	}
	return data, nil
}

func (w *usageWindow) window(name string) (Window, error) {
	if w == nil {
		return Window{}, fmt.Errorf("missing %s", name)
	}
	if w.Utilization == nil {
		return Window{}, fmt.Errorf("missing %s.utilization", name)
	}
	out := Window{Utilization: *w.Utilization}
	if w.ResetsAt != nil {
		out.ResetsAt = *w.ResetsAt
	}
	return out, nil
}
