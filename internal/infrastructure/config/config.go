// Package config loads application configuration from an optional
// config.toml and IDENTITIES_-prefixed environment variables.
package config

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App   AppConfig
	HTTP  HTTPConfig
	Log   LogConfig
	Keyo  KeyoConfig
	Users UsersConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name      string
	Env       string
	Port      string
	StaticDir string // directory holding the widget assets; empty disables the UI routes
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	CORSAllowOrigins []string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// KeyoConfig holds connectivity to the upstream identity provider.
type KeyoConfig struct {
	BaseURL        string        // e.g. https://api.keyo.co
	OrgAuthToken   string        // pre-encoded Basic credential for the client-credentials exchange
	OrgID          string        // organization id for member lookups
	RequestTimeout time.Duration // per-request timeout for upstream calls
}

// UsersConfig holds the operator allow-list as upstream deployments provide
// it: a JSON object mapping email to password.
type UsersConfig struct {
	JSON string
}

// Allowlist decodes the configured users map. An empty configuration yields
// an error so login fails closed.
func (u UsersConfig) Allowlist() (map[string]string, error) {
	if strings.TrimSpace(u.JSON) == "" {
		return nil, fmt.Errorf("users allow-list is not configured")
	}
	var users map[string]string
	if err := json.Unmarshal([]byte(u.JSON), &users); err != nil {
		return nil, fmt.Errorf("users allow-list is not a JSON object: %w", err)
	}
	return users, nil
}

// Load loads configuration from TOML file and environment variables.
// Priority (highest to lowest):
// 1. Environment variables with IDENTITIES_ prefix (e.g., IDENTITIES_KEYO_ORG_AUTH_TOKEN)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("IDENTITIES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	cfg := &Config{
		App: AppConfig{
			Name:      v.GetString("app.name"),
			Env:       v.GetString("app.env"),
			Port:      v.GetString("app.port"),
			StaticDir: v.GetString("app.static_dir"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Keyo: KeyoConfig{
			BaseURL:        strings.TrimRight(v.GetString("keyo.base_url"), "/"),
			OrgAuthToken:   v.GetString("keyo.org_auth_token"),
			OrgID:          v.GetString("keyo.org_id"),
			RequestTimeout: v.GetDuration("keyo.request_timeout"),
		},
		Users: UsersConfig{
			JSON: v.GetString("users.json"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "identities-backend")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "3000")
	v.SetDefault("app.static_dir", "")

	v.SetDefault("http.read_timeout", 15*time.Second)
	v.SetDefault("http.write_timeout", 30*time.Second)
	v.SetDefault("http.idle_timeout", 60*time.Second)
	v.SetDefault("http.max_header_bytes", 1<<20)
	v.SetDefault("http.cors_allow_origins", []string{"*"})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")

	v.SetDefault("keyo.base_url", "https://api.keyo.co")
	v.SetDefault("keyo.request_timeout", 30*time.Second)
}

func (c *Config) validate() error {
	if c.Keyo.BaseURL == "" {
		return fmt.Errorf("keyo.base_url must not be empty")
	}
	if c.App.Port == "" {
		return fmt.Errorf("app.port must not be empty")
	}
	// An absent org auth token is allowed at startup: the token endpoint
	// reports IDENTITIES_CONFIG_ERROR per request instead.
	return nil
}
