package metabase

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// APIError is a non-2xx response from the platform. The response body is
// kept verbatim because 4xx bodies usually explain what the server rejected.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// Client is an HTTP client for the Metabase API, authenticated with an
// X-API-KEY header. Requests pass through a client-side token bucket so a
// migration cannot hammer the server. The client never retries; callers
// decide what a failure means.
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
	limiter *rate.Limiter
	log     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithInsecure disables TLS certificate verification, for self-signed
// endpoints.
func WithInsecure() Option {
	return func(c *Client) {
		c.httpc.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
}

// WithLogger sets the logger used for request debug lines.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithRateLimit overrides the default request rate (10 req/s, burst 5).
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpc = h }
}

// New creates a client for the given host, e.g. https://metabase.example.com.
func New(host, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(host, "/"),
		apiKey:  apiKey,
		httpc:   &http.Client{Timeout: 60 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(10), 5),
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-KEY", c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: read response: %w", method, path, err)
	}

	c.log.Debug("api request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(data)),
		}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("%s %s: decode response: %w", method, path, err)
		}
	}
	return nil
}

// GetDatabaseMetadata returns the full table/field snapshot for a database.
func (c *Client) GetDatabaseMetadata(ctx context.Context, databaseID int) (*DatabaseMetadata, error) {
	var meta DatabaseMetadata
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/database/%d/metadata", databaseID), nil, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// GetField returns a single field descriptor including its owning table.
func (c *Client) GetField(ctx context.Context, fieldID int) (*Field, error) {
	var f Field
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/field/%d", fieldID), nil, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// GetCard fetches a saved question.
func (c *Client) GetCard(ctx context.Context, cardID int) (*Card, error) {
	var card Card
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/card/%d", cardID), nil, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// CreateCard creates a saved question and returns the created descriptor.
func (c *Client) CreateCard(ctx context.Context, payload CardPayload) (*Card, error) {
	var card Card
	if err := c.do(ctx, http.MethodPost, "/api/card", payload, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// GetDashboard fetches a dashboard with its dashcards, tabs and parameters.
func (c *Client) GetDashboard(ctx context.Context, dashboardID int) (*Dashboard, error) {
	var dash Dashboard
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/dashboard/%d", dashboardID), nil, &dash); err != nil {
		return nil, err
	}
	return &dash, nil
}

// CreateDashboard creates an empty dashboard.
func (c *Client) CreateDashboard(ctx context.Context, payload DashboardPayload) (*Dashboard, error) {
	var dash Dashboard
	if err := c.do(ctx, http.MethodPost, "/api/dashboard", payload, &dash); err != nil {
		return nil, err
	}
	return &dash, nil
}

// UpdateDashboard replaces a dashboard's dashcards, tabs and parameters in
// one call.
func (c *Client) UpdateDashboard(ctx context.Context, dashboardID int, payload DashboardUpdate) (*Dashboard, error) {
	var dash Dashboard
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/dashboard/%d", dashboardID), payload, &dash); err != nil {
		return nil, err
	}
	return &dash, nil
}
