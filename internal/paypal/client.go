// Package paypal is a minimal PayPal REST client: OAuth2 client-credentials,
// order lookup, transaction search and webhook signature verification.
package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/premiumgate/premiumgate/internal/metrics"
)

const (
	// SandboxBaseURL is the PayPal sandbox API host.
	SandboxBaseURL = "https://api-m.sandbox.paypal.com"
	// DefaultPageSize caps transactions returned per search.
	DefaultPageSize = 100
	// DefaultReportingZone is the civil-time zone for reporting windows.
	DefaultReportingZone = "America/New_York"

	maxResponseBytes = 4 << 20
)

// Config configures a Client.
type Config struct {
	BaseURL          string
	ClientID         string
	ClientSecret     string
	Timeout          time.Duration
	ReportingTimeout time.Duration
	// ReportingLocation fixes the zone used for start_date/end_date.
	ReportingLocation *time.Location
	PageSize          int
	// WebhookID is the id PayPal assigned to the receiving webhook.
	// Required only for signature verification.
	WebhookID string
	// HTTPClient overrides the transport for every call, mainly for tests.
	HTTPClient *http.Client
}

// Client calls the PayPal REST API with an automatically managed bearer token.
type Client struct {
	baseURL          string
	httpClient       *http.Client
	reportingClient  *http.Client
	timeout          time.Duration
	reportingTimeout time.Duration
	location         *time.Location
	pageSize         int
	webhookID        string

	tokens *TokenManager
	logger *slog.Logger
	now    func() time.Time
}

// NewClient creates a Client. Zero config values take package defaults.
func NewClient(cfg Config, logger *slog.Logger, recorder metrics.Recorder) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = SandboxBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.ReportingTimeout <= 0 {
		cfg.ReportingTimeout = DefaultReportingTimeout
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.ReportingLocation == nil {
		loc, err := time.LoadLocation(DefaultReportingZone)
		if err != nil {
			loc = time.UTC
		}
		cfg.ReportingLocation = loc
	}

	httpClient := cfg.HTTPClient
	reportingClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = NewHTTPClient(cfg.Timeout)
		reportingClient = NewHTTPClient(cfg.ReportingTimeout)
	}

	return &Client{
		baseURL:          trimBaseURL(cfg.BaseURL),
		httpClient:       httpClient,
		reportingClient:  reportingClient,
		timeout:          cfg.Timeout,
		reportingTimeout: cfg.ReportingTimeout,
		location:         cfg.ReportingLocation,
		pageSize:         cfg.PageSize,
		webhookID:        cfg.WebhookID,
		tokens:           NewTokenManager(cfg.BaseURL, cfg.ClientID, cfg.ClientSecret, httpClient, logger, recorder),
		logger:           logger.With("component", "paypal"),
		now:              time.Now,
	}
}

// Tokens exposes the client's token manager.
func (c *Client) Tokens() *TokenManager {
	return c.tokens
}

// ReportingLocation returns the zone used for reporting windows.
func (c *Client) ReportingLocation() *time.Location {
	return c.location
}

// request describes one authenticated API call.
type request struct {
	operation string
	method    string
	path      string
	query     url.Values
	body      any
	reporting bool
}

// do performs an authenticated request and decodes a 2xx JSON response into out.
// Non-2xx responses become *APIError.
func (c *Client) do(ctx context.Context, r request, out any) error {
	token, err := c.tokens.Token(ctx, false)
	if err != nil {
		return err
	}

	client, timeout := c.httpClient, c.timeout
	if r.reporting {
		client, timeout = c.reportingClient, c.reportingTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	endpoint := c.baseURL + r.path
	if len(r.query) > 0 {
		endpoint += "?" + r.query.Encode()
	}

	var reader io.Reader
	if r.body != nil {
		payload, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("paypal %s: encode request: %w", r.operation, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("paypal %s: build request: %w", r.operation, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("paypal %s: %w", r.operation, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("paypal %s: read response: %w", r.operation, err)
	}

	c.logger.Debug("paypal request",
		"operation", r.operation,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(r.operation, resp.StatusCode, data)
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("paypal %s: decode response: %w", r.operation, err)
	}
	return nil
}

func trimBaseURL(baseURL string) string {
	return strings.TrimRight(baseURL, "/")
}
