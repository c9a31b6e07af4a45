package keyo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestTokenSource(t *testing.T, serverURL string) *TokenSource {
	t.Helper()
	source, err := NewTokenSource(&Config{
		BaseURL:      serverURL,
		OrgAuthToken: "b64-org-credential",
		Timeout:      5 * time.Second,
	}, zap.NewNop())
	require.NoError(t, err)
	return source
}

func TestTokenSource_Token_ExchangesAndCaches(t *testing.T) {
	var exchanges atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		exchanges.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/oauth/token/", r.URL.Path)
		assert.Equal(t, "Basic b64-org-credential", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json; version=v2", r.Header.Get("Accept"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok-1","expires_in":3600,"token_type":"Bearer"}`))
	}))
	defer server.Close()

	source := newTestTokenSource(t, server.URL)

	token, err := source.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)

	// Second call is served from cache.
	token, err = source.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)
	assert.Equal(t, int64(1), exchanges.Load())
}

func TestTokenSource_Token_RefreshesInsideSafetyMargin(t *testing.T) {
	var exchanges atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := exchanges.Add(1)
		w.Header().Set("Content-Type", "application/json")
		if n == 1 {
			w.Write([]byte(`{"access_token":"tok-1","expires_in":40,"token_type":"Bearer"}`))
			return
		}
		w.Write([]byte(`{"access_token":"tok-2","expires_in":3600,"token_type":"Bearer"}`))
	}))
	defer server.Close()

	source := newTestTokenSource(t, server.URL)
	clock := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	source.now = func() time.Time { return clock }

	token, err := source.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)

	// 40s lifetime minus the 30s margin leaves a 10s window. 11s later the
	// cached token is stale even though upstream would still accept it.
	clock = clock.Add(11 * time.Second)
	token, err = source.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-2", token)
	assert.Equal(t, int64(2), exchanges.Load())
}

func TestTokenSource_Invalidate_ForcesReExchange(t *testing.T) {
	var exchanges atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		exchanges.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok","expires_in":3600,"token_type":"Bearer"}`))
	}))
	defer server.Close()

	source := newTestTokenSource(t, server.URL)

	_, err := source.Token(context.Background())
	require.NoError(t, err)
	source.Invalidate()
	_, err = source.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), exchanges.Load())
}

func TestTokenSource_ExchangeOrgToken_BypassesCache(t *testing.T) {
	var exchanges atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		exchanges.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok","expires_in":3600,"token_type":"Bearer","scope":"read write"}`))
	}))
	defer server.Close()

	source := newTestTokenSource(t, server.URL)

	_, err := source.Token(context.Background())
	require.NoError(t, err)

	resp, err := source.ExchangeOrgToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok", resp.AccessToken)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, "read write", resp.Scope)
	assert.Equal(t, int64(2), exchanges.Load())
}

func TestTokenSource_Exchange_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{
			name:    "upstream rejects credential",
			status:  http.StatusUnauthorized,
			body:    `{"error":"invalid_client"}`,
			wantErr: ErrExchangeFailed,
		},
		{
			name:    "response missing access token",
			status:  http.StatusOK,
			body:    `{"expires_in":3600}`,
			wantErr: ErrExchangeFailed,
		},
		{
			name:    "malformed response body",
			status:  http.StatusOK,
			body:    `not json`,
			wantErr: ErrExchangeFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			source := newTestTokenSource(t, server.URL)
			_, err := source.Token(context.Background())
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestTokenSource_Exchange_MissingOrgToken(t *testing.T) {
	source, err := NewTokenSource(&Config{BaseURL: "https://api.example.com"}, zap.NewNop())
	require.NoError(t, err)

	_, err = source.Token(context.Background())
	assert.ErrorIs(t, err, ErrMissingOrgToken)
}

func TestTokenSource_Exchange_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	source := newTestTokenSource(t, server.URL)
	_, err := source.Token(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}
