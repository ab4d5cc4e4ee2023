// Package apiclient talks to the admin backend REST API. The session manager
// consumes it through the API interface so tests can substitute a mock.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/BKH516/sahatu-admin-console/domain"
	"github.com/BKH516/sahatu-admin-console/log"
	"github.com/BKH516/sahatu-admin-console/ratelimit"
)

// ErrRateLimited is returned when the generic API limiter denies a call
// before it reaches the network.
var ErrRateLimited = errors.New("apiclient: request rate limit exceeded")

// API is the backend surface the session subsystem depends on.
type API interface {
	// Login exchanges credentials for a bearer token.
	Login(ctx context.Context, email, password string) (string, error)
	// Me fetches the authenticated administrator's profile.
	Me(ctx context.Context, accessToken string) (*domain.AdminProfile, error)
	// Logout notifies the backend that the session ended. Best-effort.
	Logout(ctx context.Context, accessToken string) error
	// RefreshToken exchanges a still-valid token for a fresh one.
	RefreshToken(ctx context.Context, accessToken string) (string, error)
}

// Client is the HTTP implementation of API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	csrfSource func() string
	logger     log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLimiter installs the generic API rate limiter, consulted before every
// outgoing request.
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithCSRFSource installs the source of the X-CSRF-Token request header.
func WithCSRFSource(src func() string) Option {
	return func(c *Client) { c.csrfSource = src }
}

// WithLogger sets the client logger.
func WithLogger(l log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a Client for the backend at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     log.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ API = (*Client)(nil)

type loginResponse struct {
	AccessToken string `json:"access_token"`
}

// Login submits the credentials as a multipart form, matching the backend's
// login endpoint contract.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	if err := form.WriteField("email", email); err != nil {
		return "", fmt.Errorf("failed to build login form: %w", err)
	}
	if err := form.WriteField("password", password); err != nil {
		return "", fmt.Errorf("failed to build login form: %w", err)
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("failed to build login form: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/login", &body, "")
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login rejected with status %d", resp.StatusCode)
	}

	var out loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode login response: %w", err)
	}
	return out.AccessToken, nil
}

// Me returns the administrator profile for the given token.
func (c *Client) Me(ctx context.Context, accessToken string) (*domain.AdminProfile, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/me", nil, accessToken)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("profile fetch rejected with status %d", resp.StatusCode)
	}

	var profile domain.AdminProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	return &profile, nil
}

// Logout notifies the backend. Callers treat failures as non-fatal.
func (c *Client) Logout(ctx context.Context, accessToken string) error {
	req, err := c.newRequest(ctx, http.MethodPost, "/logout", nil, accessToken)
	if err != nil {
		return err
	}

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body) //nolint:errcheck

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("logout rejected with status %d", resp.StatusCode)
	}
	return nil
}

// RefreshToken returns a fresh bearer token for a still-valid one.
func (c *Client) RefreshToken(ctx context.Context, accessToken string) (string, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/refresh-token", nil, accessToken)
	if err != nil {
		return "", err
	}

	resp, err := c.do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token refresh rejected with status %d", resp.StatusCode)
	}

	var out loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode refresh response: %w", err)
	}
	return out.AccessToken, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader, accessToken string) (*http.Request, error) {
	if c.limiter != nil && !c.limiter.Allow("api") {
		return nil, ErrRateLimited
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	if c.csrfSource != nil {
		if csrf := c.csrfSource(); csrf != "" {
			req.Header.Set("X-CSRF-Token", csrf)
		}
	}
	return req, nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug(req.Context(), "backend request failed",
			map[string]interface{}{"method": req.Method, "path": req.URL.Path})
		return nil, fmt.Errorf("backend request failed: %w", err)
	}
	return resp, nil
}
