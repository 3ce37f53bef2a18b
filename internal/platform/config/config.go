package config

import (
	"os"
	"strconv"
	"time"
)

// Config captures all process-level configuration. Values come from the
// environment so main stays lean.
type Config struct {
	Addr string

	DatabaseURL string
	RedisURL    string

	// Assistant holds the external moderation assistant settings. An empty
	// AssistantID disables moderation entirely, which fails closed: every
	// submission is rejected rather than silently approved.
	Assistant AssistantConfig

	// IdentitySecret is the process-wide 32-byte key (hex or raw) used to
	// encrypt submitter network addresses for admin review.
	IdentitySecret string

	JWTSigningKey     string
	AdminEmail        string
	AdminPasswordHash string
}

// AssistantConfig configures the moderation assistant client.
type AssistantConfig struct {
	BaseURL      string
	APIKey       string
	AssistantID  string
	PollInterval time.Duration
	PollAttempts int
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	return Config{
		Addr:        envOr("CONFIDE_ADDR", ":8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		Assistant: AssistantConfig{
			BaseURL:      envOr("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			APIKey:       os.Getenv("OPENAI_API_KEY"),
			AssistantID:  os.Getenv("OPENAI_ASSISTANT_ID"),
			PollInterval: envDurationOr("MODERATION_POLL_INTERVAL", time.Second),
			PollAttempts: envIntOr("MODERATION_POLL_ATTEMPTS", 12),
		},
		IdentitySecret:    os.Getenv("IDENTITY_SECRET"),
		JWTSigningKey:     envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		AdminEmail:        os.Getenv("ADMIN_EMAIL"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
