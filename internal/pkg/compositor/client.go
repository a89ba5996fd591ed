package compositor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/DennisVerbeek/TravelDesk/internal/pkg/env"
)

const (
	// Tokens without an explicit lifetime are treated as valid for two hours.
	defaultTokenLifetime = 7200 * time.Second

	// A token is refreshed this long before its reported expiry so an
	// in-flight request never races the server-side cutoff.
	tokenSafetyMargin = 60 * time.Second

	maxResponseBytes = 16 << 20

	userAgent = "TravelDesk/1.0"
)

// AuthError is returned when the authentication endpoint rejects the
// credentials. It carries the upstream status and body for diagnostics.
type AuthError struct {
	Status int
	Body   string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("travel compositor authentication failed: status=%d body=%s", e.Status, e.Body)
}

// Client issues authenticated requests against the Travel Compositor API for
// one microsite. It owns the bearer token and re-authenticates transparently
// when the token is missing, expired, or rejected with a 401.
type Client struct {
	creds      Credentials
	HTTPClient *http.Client

	// traceID is attached to every outbound request for upstream log correlation.
	traceID string

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time

	now func() time.Time
}

// NewClient creates a client for the given credentials. The HTTP timeout is
// configurable via TRAVEL_COMPOSITOR_TIMEOUT_SECONDS (default 15s) because the
// upstream API's latency is unbounded.
func NewClient(creds Credentials) *Client {
	timeout := time.Duration(env.GetEnvInt("TRAVEL_COMPOSITOR_TIMEOUT_SECONDS", 15)) * time.Second

	return &Client{
		creds: creds,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		traceID: uuid.NewString(),
		now:     time.Now,
	}
}

// NewClientFromEnv creates a client for the numbered configuration slot.
func NewClientFromEnv(configNumber int) (*Client, error) {
	creds, err := CredentialsFromEnv(configNumber)
	if err != nil {
		return nil, err
	}
	return NewClient(creds), nil
}

// MicrositeID returns the tenant this client is scoped to.
func (c *Client) MicrositeID() string {
	return c.creds.MicrositeID
}

type authResponse struct {
	Token               string `json:"token"`
	ExpirationInSeconds int    `json:"expirationInSeconds"`
}

// Authenticate obtains a fresh bearer token. Non-2xx responses fail loudly
// with an AuthError; nothing else can proceed for this microsite without a
// token.
func (c *Client) Authenticate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authenticateLocked(ctx)
}

func (c *Client) authenticateLocked(ctx context.Context) error {
	payload, err := json.Marshal(map[string]string{
		"username":    c.creds.Username,
		"password":    c.creds.Password,
		"micrositeId": c.creds.MicrositeID,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.creds.BaseURL+"/authentication/authenticate", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("travel compositor authentication request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &AuthError{Status: resp.StatusCode, Body: string(body)}
	}

	var out authResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return fmt.Errorf("travel compositor authentication returned invalid JSON: %w", err)
	}
	if strings.TrimSpace(out.Token) == "" {
		return &AuthError{Status: resp.StatusCode, Body: "response missing token"}
	}

	lifetime := defaultTokenLifetime
	if out.ExpirationInSeconds > 0 {
		lifetime = time.Duration(out.ExpirationInSeconds) * time.Second
	}

	c.token = out.Token
	c.tokenExpiry = c.now().Add(lifetime - tokenSafetyMargin)
	return nil
}

// ensureValidToken returns the cached token while it is still inside the
// safety window and re-authenticates otherwise. Every outbound call goes
// through this gate.
func (c *Client) ensureValidToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Before(c.tokenExpiry) {
		return c.token, nil
	}
	if err := c.authenticateLocked(ctx); err != nil {
		return "", err
	}
	return c.token, nil
}

// invalidateToken drops the cached token so the next call re-authenticates.
func (c *Client) invalidateToken() {
	c.mu.Lock()
	c.token = ""
	c.tokenExpiry = time.Time{}
	c.mu.Unlock()
}

// RequestError is returned for non-2xx API responses outside authentication.
type RequestError struct {
	Status   int
	Endpoint string
	Body     string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("travel compositor request %s failed: status=%d body=%s", e.Endpoint, e.Status, e.Body)
}

// request performs an authenticated call against the API. On a 401 it drops
// the token, re-authenticates, and retries exactly once before propagating.
func (c *Client) request(ctx context.Context, method, endpoint string, query url.Values) ([]byte, error) {
	body, status, err := c.doOnce(ctx, method, endpoint, query)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized {
		c.invalidateToken()
		body, status, err = c.doOnce(ctx, method, endpoint, query)
		if err != nil {
			return nil, err
		}
	}
	if status < 200 || status >= 300 {
		return nil, &RequestError{Status: status, Endpoint: endpoint, Body: string(body)}
	}
	return body, nil
}

func (c *Client) doOnce(ctx context.Context, method, endpoint string, query url.Values) ([]byte, int, error) {
	token, err := c.ensureValidToken(ctx)
	if err != nil {
		return nil, 0, err
	}

	u, err := url.Parse(c.creds.BaseURL + endpoint)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid travel compositor endpoint %q: %w", endpoint, err)
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("auth-token", token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Trace-Id", c.traceID)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("travel compositor request %s failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	return body, resp.StatusCode, nil
}
