package keyo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// maxResponseSize limits upstream response bodies to prevent memory exhaustion
const maxResponseSize = 10 * 1024 * 1024 // 10MB

// Client performs authenticated requests against the Keyo API. Server-
// mediated calls draw their bearer token from the TokenSource and retry
// exactly once after a forced re-authentication; browser-mediated calls
// reuse the caller's session token verbatim and are never retried here
// (the widget refreshes its own token). Network-level failures propagate
// immediately in both modes.
type Client struct {
	config     *Config
	tokens     *TokenSource
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a Keyo API client backed by the given token source.
func NewClient(config *Config, tokens *TokenSource, logger *zap.Logger) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		config:     config,
		tokens:     tokens,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

type contextKey int

const bearerContextKey contextKey = iota

// WithBearer returns a context whose requests use the given session token
// instead of the managed organization token. Passthrough requests are
// never retried; the session's owner refreshes its own token.
func WithBearer(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, bearerContextKey, token)
}

func bearerFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(bearerContextKey).(string)
	return token, ok && token != ""
}

// Do performs an upstream request using the managed organization token.
// On a 401 the cached credential is invalidated, a fresh token obtained,
// and the identical request retried once; a second 401 surfaces as the
// terminal *APIError. All other non-2xx responses surface as *APIError
// with the payload's extracted detail.
func (c *Client) Do(ctx context.Context, method, path string, body any) ([]byte, error) {
	if token, ok := bearerFromContext(ctx); ok {
		return c.DoWithToken(ctx, token, method, path, body)
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	data, err := c.do(ctx, method, path, body, "Bearer "+token)
	if !IsUnauthorized(err) {
		return data, err
	}

	c.logger.Warn("Access token rejected, retrying with a fresh token",
		zap.String("method", method), zap.String("path", path))
	c.tokens.Invalidate()

	token, err = c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, method, path, body, "Bearer "+token)
}

// DoWithToken performs a single upstream request with a caller-supplied
// bearer token, as the browser widget does with its session token.
func (c *Client) DoWithToken(ctx context.Context, token, method, path string, body any) ([]byte, error) {
	return c.do(ctx, method, path, body, "Bearer "+token)
}

func (c *Client) do(ctx context.Context, method, path string, body any, authorization string) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("keyo: failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("keyo: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", authorization)
	req.Header.Set("Accept", acceptVersionHeader)
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("Upstream request", zap.String("method", method), zap.String("path", path))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("keyo: failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Detail:     FindDetail(respBody),
		}
	}
	return respBody, nil
}

// GetMember fetches an organization member, optionally drilling into the
// response by a dotted key path. A path segment that does not resolve
// returns the full member object instead.
func (c *Client) GetMember(ctx context.Context, userID, keyPath string) (any, error) {
	data, err := c.Do(ctx, http.MethodGet, fmt.Sprintf(memberPathFmt, c.config.OrgID, userID), nil)
	if err != nil {
		return nil, err
	}

	var member any
	if err := json.Unmarshal(data, &member); err != nil {
		return nil, fmt.Errorf("keyo: failed to parse member response: %w", err)
	}
	if keyPath == "" {
		return member, nil
	}

	value := member
	for _, part := range strings.Split(keyPath, ".") {
		obj, ok := value.(map[string]any)
		if !ok {
			c.logger.Warn("Member key path not found, returning full object",
				zap.String("key", keyPath))
			return member, nil
		}
		value, ok = obj[part]
		if !ok {
			c.logger.Warn("Member key path not found, returning full object",
				zap.String("key", keyPath))
			return member, nil
		}
	}
	return value, nil
}
