// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// DefaultJWTSecret is the compiled-in signing secret used when JWT_SECRET is
// unset. It exists so local development works out of the box; Load refuses it
// when APP_ENV=production.
const DefaultJWTSecret = "finsplore-default-very-secure-256-bit-secret-key-for-jwt-tokens-change-in-production"

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the Postgres DSN.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// JWTSecret signs session tokens (HS256). Falls back to DefaultJWTSecret;
	// must be overridden in production.
	JWTSecret string `mapstructure:"JWT_SECRET"`
	// JWTTTLHours is the session token lifetime in whole hours (default 168 = 7d).
	JWTTTLHours int `mapstructure:"JWT_TTL_HOURS"`
	// BlacklistBackend selects the revocation store: "postgres" (default) or "redis".
	BlacklistBackend string `mapstructure:"BLACKLIST_BACKEND"`
	// RedisURL is the Redis connection URL; required when BlacklistBackend is "redis".
	RedisURL string `mapstructure:"REDIS_URL"`
	// BlacklistPurgeInterval is the period between purge sweeps (e.g. "1h").
	BlacklistPurgeInterval string `mapstructure:"BLACKLIST_PURGE_INTERVAL"`
	// BcryptCost is the bcrypt cost factor (4–31); default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`

	// CORSAllowedOrigins is a comma-separated list of allowed origins ("*" for dev).
	CORSAllowedOrigins string `mapstructure:"CORS_ALLOWED_ORIGINS"`

	// AppBaseURL is the frontend base URL used in mailed links.
	AppBaseURL string `mapstructure:"APP_BASE_URL"`

	// SMTP settings for verification and password-reset mail. Mail is disabled
	// when SMTPUsername or SMTPPassword is empty.
	SMTPHost      string `mapstructure:"SMTP_HOST"`
	SMTPPort      int    `mapstructure:"SMTP_PORT"`
	SMTPUsername  string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword  string `mapstructure:"SMTP_PASSWORD"`
	SMTPFromEmail string `mapstructure:"SMTP_FROM_EMAIL"`
	SMTPFromName  string `mapstructure:"SMTP_FROM_NAME"`

	// OpenAIAPIKey enables AI suggestion generation when set.
	OpenAIAPIKey string `mapstructure:"OPENAI_API_KEY"`
	// OpenAIBaseURL is the chat-completions API base URL.
	OpenAIBaseURL string `mapstructure:"OPENAI_BASE_URL"`
	// OpenAIModel is the model used for suggestion generation.
	OpenAIModel string `mapstructure:"OPENAI_MODEL"`

	// BasiqAPIKey enables the Basiq bank-data client when set.
	BasiqAPIKey string `mapstructure:"BASIQ_API_KEY"`
	// BasiqBaseURL is the Basiq API base URL.
	BasiqBaseURL string `mapstructure:"BASIQ_BASE_URL"`

	// OTLPEndpoint is the OTLP gRPC endpoint for traces and metrics; empty disables telemetry.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext OTLP export (standard OTEL_EXPORTER_OTLP_INSECURE behavior).
	OTLPInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("JWT_SECRET", DefaultJWTSecret)
	v.SetDefault("JWT_TTL_HOURS", 168) // 7d
	v.SetDefault("BLACKLIST_BACKEND", "postgres")
	v.SetDefault("REDIS_URL", "redis://localhost:6379")
	v.SetDefault("BLACKLIST_PURGE_INTERVAL", "1h")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("APP_ENV", "")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("APP_BASE_URL", "http://localhost:3000")
	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("SMTP_FROM_EMAIL", "")
	v.SetDefault("SMTP_FROM_NAME", "Finsplore")
	v.SetDefault("OPENAI_API_KEY", "")
	v.SetDefault("OPENAI_BASE_URL", "https://api.openai.com/v1")
	v.SetDefault("OPENAI_MODEL", "gpt-4o-mini")
	v.SetDefault("BASIQ_API_KEY", "")
	v.SetDefault("BASIQ_BASE_URL", "https://au-api.basiq.io")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}
	if cfg.JWTTTLHours <= 0 {
		return nil, errors.New("config: JWT_TTL_HOURS must be a positive number of hours")
	}
	if cfg.BlacklistBackend != "postgres" && cfg.BlacklistBackend != "redis" {
		return nil, errors.New("config: BLACKLIST_BACKEND must be postgres or redis")
	}
	if cfg.BlacklistBackend == "redis" && cfg.RedisURL == "" {
		return nil, errors.New("config: REDIS_URL must be set when BLACKLIST_BACKEND=redis")
	}

	// A .env line like "JWT_SECRET=" reads as set-but-empty and would
	// otherwise shadow the default, signing tokens with an empty key.
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = DefaultJWTSecret
	}
	if cfg.Env == "production" && cfg.JWTSecret == DefaultJWTSecret {
		return nil, errors.New("config: JWT_SECRET must be overridden when APP_ENV=production")
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}

	return &cfg, nil
}

// TokenTTL returns the session token lifetime. JWT_TTL_HOURS is configured in
// whole hours; the duration is what the token codec adds to issuance time.
func (c *Config) TokenTTL() time.Duration {
	if c.JWTTTLHours <= 0 {
		return 168 * time.Hour
	}
	return time.Duration(c.JWTTTLHours) * time.Hour
}

// PurgeInterval parses BLACKLIST_PURGE_INTERVAL as a time.Duration. Returns 1h if unset or invalid.
func (c *Config) PurgeInterval() time.Duration {
	d, err := time.ParseDuration(c.BlacklistPurgeInterval)
	if err != nil || d <= 0 {
		return time.Hour
	}
	return d
}
