// Package keyo is the gateway to the upstream Keyo identity provider: the
// organization token lifecycle, the authenticated HTTP client with its
// single-retry discipline, and the normalization of upstream error payloads.
package keyo

import (
	"errors"
	"fmt"
	"time"
)

// Upstream API paths. The identity endpoints are versioned v1; the member
// and profile endpoints live on the v3 surface.
const (
	oauthTokenPath      = "/v1/oauth/token/"
	identitiesPath      = "/v1/identities/"
	identityPathFmt     = "/v1/identities/%s/"
	deleteBiometricFmt  = "/v1/identities/%s/delete-biometric/"
	startEnrollFmt      = "/v1/identities/%s/start-enroll/"
	memberPathFmt       = "/api/v3/public/organizations/%s/members/%s/"
	usersProfilePath    = "/api/v3/users/profile/"
	acceptVersionHeader = "application/json; version=v2"
)

// Config holds connectivity to the Keyo API.
type Config struct {
	// BaseURL is the API root, without a trailing slash.
	BaseURL string
	// OrgAuthToken is the pre-encoded Basic credential used for the
	// client-credentials exchange. May be empty; token operations then fail
	// with ErrMissingOrgToken.
	OrgAuthToken string
	// OrgID is the organization whose members are looked up.
	OrgID string
	// Timeout bounds each upstream HTTP request.
	Timeout time.Duration
}

// Validate checks the config for required fields
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrMissingBaseURL
	}
	return nil
}

// TokenResponse is the upstream client-credentials exchange response.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
	Scope       string `json:"scope,omitempty"`
}

// Sentinel errors for gateway failures
var (
	ErrMissingBaseURL  = errors.New("keyo: base URL is required")
	ErrMissingOrgToken = errors.New("keyo: organization auth token is required")
	ErrExchangeFailed  = errors.New("keyo: token exchange failed")
	ErrUnavailable     = errors.New("keyo: upstream unavailable")
)

// APIError is a non-2xx upstream response, normalized to the most specific
// detail string the payload carried.
type APIError struct {
	StatusCode int
	Detail     string
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("keyo: HTTP %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("keyo: HTTP %d", e.StatusCode)
}

// Message returns the extracted detail, or fallback when the payload
// carried none.
func (e *APIError) Message(fallback string) string {
	if e.Detail != "" {
		return e.Detail
	}
	return fallback
}

// IsUnauthorized reports whether err is an upstream 401.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 401
}
