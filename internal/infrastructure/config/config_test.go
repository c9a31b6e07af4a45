package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "identities-backend", cfg.App.Name)
	assert.Equal(t, "3000", cfg.App.Port)
	assert.Equal(t, "https://api.keyo.co", cfg.Keyo.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Keyo.RequestTimeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.Keyo.OrgAuthToken, "org token has no default")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("IDENTITIES_APP_PORT", "8081")
	t.Setenv("IDENTITIES_KEYO_BASE_URL", "https://keyo.example.com/")
	t.Setenv("IDENTITIES_KEYO_ORG_AUTH_TOKEN", "c2VjcmV0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.App.Port)
	assert.Equal(t, "https://keyo.example.com", cfg.Keyo.BaseURL, "trailing slash is trimmed")
	assert.Equal(t, "c2VjcmV0", cfg.Keyo.OrgAuthToken)
}

func TestUsersConfig_Allowlist(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		want    map[string]string
		wantErr bool
	}{
		{
			name: "valid map",
			json: `{"ops@example.com":"hunter2"}`,
			want: map[string]string{"ops@example.com": "hunter2"},
		},
		{name: "empty", json: "", wantErr: true},
		{name: "whitespace", json: "  ", wantErr: true},
		{name: "not an object", json: `["a"]`, wantErr: true},
		{name: "malformed", json: `{`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := UsersConfig{JSON: tt.json}.Allowlist()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
