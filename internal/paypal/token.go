package paypal

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/singleflight"

	"github.com/premiumgate/premiumgate/internal/metrics"
)

const (
	// tokenPath is the OAuth2 client-credentials endpoint.
	tokenPath = "/v1/oauth2/token"
	// DefaultTokenLifetime applies when the grant response omits expires_in.
	DefaultTokenLifetime = 28800 * time.Second
	// TokenSafetyMargin is how long before expiry a token stops being reused.
	TokenSafetyMargin = 60 * time.Second
)

// Token is a cached bearer credential.
type Token struct {
	AccessToken string
	Expiry      time.Time
	Scope       string
}

// validAt reports whether the token can still be used at now.
func (t *Token) validAt(now time.Time) bool {
	return t != nil && t.AccessToken != "" && now.Before(t.Expiry.Add(-TokenSafetyMargin))
}

// TokenManager holds the single cached PayPal access token for a client.
// Concurrent refreshes are collapsed into one grant request.
type TokenManager struct {
	creds      clientcredentials.Config
	httpClient *http.Client
	logger     *slog.Logger
	metrics    metrics.Recorder
	now        func() time.Time

	mu    sync.RWMutex
	token *Token

	group singleflight.Group
}

// NewTokenManager creates a TokenManager that exchanges clientID/secret at baseURL.
func NewTokenManager(baseURL, clientID, clientSecret string, httpClient *http.Client, logger *slog.Logger, recorder metrics.Recorder) *TokenManager {
	if httpClient == nil {
		httpClient = NewHTTPClient(DefaultTimeout)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &TokenManager{
		creds: clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     trimBaseURL(baseURL) + tokenPath,
			AuthStyle:    oauth2.AuthStyleInHeader,
		},
		httpClient: httpClient,
		logger:     logger.With("component", "paypal_token"),
		metrics:    recorder,
		now:        time.Now,
	}
}

// Token returns a bearer token, refreshing it when forced or when it is within
// TokenSafetyMargin of expiry. A forced call joins any refresh already in flight.
func (m *TokenManager) Token(ctx context.Context, forceRefresh bool) (string, error) {
	if !forceRefresh {
		m.mu.RLock()
		tok := m.token
		m.mu.RUnlock()
		if tok.validAt(m.now()) {
			return tok.AccessToken, nil
		}
	}

	// The shared refresh outlives any single caller; each caller still stops
	// waiting when its own context ends.
	ch := m.group.DoChan("token", func() (any, error) {
		refreshCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.refreshTimeout())
		defer cancel()
		return m.refresh(refreshCtx)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(*Token).AccessToken, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (m *TokenManager) refreshTimeout() time.Duration {
	if m.httpClient.Timeout > 0 {
		return m.httpClient.Timeout
	}
	return DefaultTimeout
}

// Current returns a copy of the cached token, if any.
func (m *TokenManager) Current() (Token, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.token == nil {
		return Token{}, false
	}
	return *m.token, true
}

func (m *TokenManager) refresh(ctx context.Context) (*Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)

	issuedAt := m.now()
	raw, err := m.creds.Token(ctx)
	if err != nil {
		m.metrics.IncTokenRefresh(metrics.StatusFailed)
		return nil, fmt.Errorf("%w: %w", ErrAuthentication, err)
	}

	expiry := raw.Expiry
	if expiry.IsZero() {
		expiry = issuedAt.Add(DefaultTokenLifetime)
	}
	scope, _ := raw.Extra("scope").(string)

	tok := &Token{
		AccessToken: raw.AccessToken,
		Expiry:      expiry,
		Scope:       scope,
	}

	m.mu.Lock()
	m.token = tok
	m.mu.Unlock()

	m.metrics.IncTokenRefresh(metrics.StatusSuccess)
	m.logger.Debug("access token issued",
		"expires_at", expiry.UTC().Format(time.RFC3339),
		"scope_count", len(strings.Fields(scope)),
	)
	return tok, nil
}
