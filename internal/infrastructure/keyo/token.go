package keyo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// expirySafetyMargin is subtracted from the upstream-reported lifetime so a
// credential is treated as expired slightly before upstream invalidates it.
const expirySafetyMargin = 30 * time.Second

// TokenSource owns the organization's upstream service credential. It
// exchanges the configured Basic credential for a bearer token, caches it
// until shortly before expiry, and hands the cached token to concurrent
// callers. There is deliberately no single-flight deduplication: callers
// that find the cache empty each perform their own exchange and the last
// writer wins. Any valid token satisfies the requirement, so the extra
// exchanges are harmless.
type TokenSource struct {
	config     *Config
	httpClient *http.Client
	logger     *zap.Logger
	now        func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// NewTokenSource creates a token source for the given Keyo config.
func NewTokenSource(config *Config, logger *zap.Logger) (*TokenSource, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &TokenSource{
		config:     config,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		now:        time.Now,
	}, nil
}

// Token returns a valid bearer token, serving from cache while the cached
// credential is inside its safety window and exchanging otherwise.
func (s *TokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.token != "" && s.now().Before(s.expiresAt) {
		token := s.token
		s.mu.Unlock()
		s.logger.Debug("Using cached access token")
		return token, nil
	}
	s.mu.Unlock()

	s.logger.Info("Requesting new access token")
	resp, err := s.exchange(ctx)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.token = resp.AccessToken
	s.expiresAt = s.now().Add(time.Duration(resp.ExpiresIn)*time.Second - expirySafetyMargin)
	s.mu.Unlock()

	s.logger.Info("Access token received and cached",
		zap.Int64("expires_in", resp.ExpiresIn))
	return resp.AccessToken, nil
}

// Invalidate clears the cached credential unconditionally, forcing the next
// Token call to re-authenticate. Called after any downstream request is
// denied authorization.
func (s *TokenSource) Invalidate() {
	s.mu.Lock()
	s.token = ""
	s.expiresAt = time.Time{}
	s.mu.Unlock()
}

// ExchangeOrgToken always performs a fresh exchange, bypassing the cache,
// and returns the full token response. This is what the operator-facing
// token endpoint hands to the browser as its session token.
func (s *TokenSource) ExchangeOrgToken(ctx context.Context) (*TokenResponse, error) {
	return s.exchange(ctx)
}

func (s *TokenSource) exchange(ctx context.Context) (*TokenResponse, error) {
	if s.config.OrgAuthToken == "" {
		return nil, ErrMissingOrgToken
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.config.BaseURL+oauthTokenPath, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("keyo: failed to create exchange request: %w", err)
	}
	req.Header.Set("Authorization", "Basic "+s.config.OrgAuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", acceptVersionHeader)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		s.logger.Warn("Token exchange rejected", zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("%w: HTTP %d", ErrExchangeFailed, resp.StatusCode)
	}

	var token TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrExchangeFailed, err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("%w: response missing access_token", ErrExchangeFailed)
	}
	return &token, nil
}
