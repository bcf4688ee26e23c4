// Package config loads server configuration from environment variables.
//
// CONFIGURATION PHILOSOPHY:
// Everything that varied across deployments of the original app (port,
// database location, signing secret, allowed origins, the recent-queries
// limit that drifted between versions) is an explicit setting here with a
// documented default. main.go calls Load() once and passes the struct down;
// no other package reads the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Defaults, overridable via the environment variables named in Load.
const (
	DefaultPort         = 8080
	DefaultDBPath       = "data/queryhive.db"
	DefaultRecentLimit  = 6 // the newest source version's limit; older ones used 8
	DefaultTokenTTL     = time.Hour
	DefaultStoreTimeout = 5 * time.Second
	DefaultOrigin       = "http://localhost:5173"

	// Token lifetime bounds. The deployed versions of this app used
	// anywhere from 5 minutes to 24 hours; anything outside that range is
	// clamped rather than rejected.
	MinTokenTTL = 5 * time.Minute
	MaxTokenTTL = 24 * time.Hour
)

// Config holds all server configuration.
type Config struct {
	Port           int
	DBPath         string
	JWTSecret      string
	TokenTTL       time.Duration
	AllowedOrigins []string
	RecentLimit    int
	StoreTimeout   time.Duration
	CookieSecure   bool

	// Optional GitHub OAuth app credentials. Social sign-in routes are
	// registered only when ClientID and ClientSecret are both set.
	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string
}

// Load reads configuration from the environment, applying defaults.
//
// JWT_SECRET is the only required variable: without a signing secret no
// credential can be issued or verified, so we fail fast instead of starting
// a server whose auth routes can never work.
func Load() (*Config, error) {
	cfg := &Config{
		Port:           DefaultPort,
		DBPath:         DefaultDBPath,
		TokenTTL:       DefaultTokenTTL,
		AllowedOrigins: []string{DefaultOrigin},
		RecentLimit:    DefaultRecentLimit,
		StoreTimeout:   DefaultStoreTimeout,
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("config: invalid PORT %q: %w", portStr, err)
		}
		cfg.Port = port
	}

	if dbPath := os.Getenv("DB_PATH"); dbPath != "" {
		cfg.DBPath = dbPath
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("config: JWT_SECRET must be set")
	}

	if ttlStr := os.Getenv("TOKEN_TTL"); ttlStr != "" {
		ttl, err := time.ParseDuration(ttlStr)
		if err != nil {
			return nil, fmt.Errorf("config: invalid TOKEN_TTL %q: %w", ttlStr, err)
		}
		cfg.TokenTTL = ttl
	}
	cfg.TokenTTL = clampTTL(cfg.TokenTTL)

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = splitAndTrim(origins)
	}

	if limitStr := os.Getenv("RECENT_QUERY_LIMIT"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit <= 0 {
			return nil, fmt.Errorf("config: invalid RECENT_QUERY_LIMIT %q", limitStr)
		}
		cfg.RecentLimit = limit
	}

	if timeoutStr := os.Getenv("STORE_TIMEOUT"); timeoutStr != "" {
		timeout, err := time.ParseDuration(timeoutStr)
		if err != nil || timeout <= 0 {
			return nil, fmt.Errorf("config: invalid STORE_TIMEOUT %q", timeoutStr)
		}
		cfg.StoreTimeout = timeout
	}

	cfg.CookieSecure = os.Getenv("COOKIE_SECURE") == "true"

	cfg.GitHubClientID = os.Getenv("GITHUB_CLIENT_ID")
	cfg.GitHubClientSecret = os.Getenv("GITHUB_CLIENT_SECRET")
	cfg.GitHubCallbackURL = os.Getenv("GITHUB_CALLBACK_URL")
	if cfg.GitHubCallbackURL == "" {
		cfg.GitHubCallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Port)
	}

	return cfg, nil
}

// GitHubEnabled reports whether social sign-in routes should be registered.
func (c *Config) GitHubEnabled() bool {
	return c.GitHubClientID != "" && c.GitHubClientSecret != ""
}

func clampTTL(ttl time.Duration) time.Duration {
	if ttl < MinTokenTTL {
		return MinTokenTTL
	}
	if ttl > MaxTokenTTL {
		return MaxTokenTTL
	}
	return ttl
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
