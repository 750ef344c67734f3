package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/webfolio/contact-gateway/env"
)

// Config is the root configuration for the contact gateway.
// Values come from a TOML file, overridden by environment variables where noted.
type Config struct {
	AppName     string `json:"app_name" toml:"app_name"`
	BaseURL     string `json:"base_url" toml:"base_url"`
	Environment string `json:"environment" toml:"environment"`

	Logger    LoggerConfig    `json:"logger" toml:"logger"`
	Security  SecurityConfig  `json:"security" toml:"security"`
	RateLimit RateLimitConfig `json:"rate_limit" toml:"rate_limit"`
	CSRF      CSRFConfig      `json:"csrf" toml:"csrf"`
	Storage   StorageConfig   `json:"storage" toml:"storage"`
	Email     EmailConfig     `json:"email" toml:"email"`
	EventBus  EventBusConfig  `json:"event_bus" toml:"event_bus"`
}

type LoggerConfig struct {
	Level string `json:"level" toml:"level"`
}

type SecurityConfig struct {
	// TrustedOrigins is the exact-match allow-list for the Origin/Referer check
	TrustedOrigins []string `json:"trusted_origins" toml:"trusted_origins"`

	// RelaxedOrigin accepts missing origin headers and localhost-like origins.
	// Intended for development only; refused in production (see Validate).
	RelaxedOrigin bool `json:"relaxed_origin" toml:"relaxed_origin"`
}

type RateLimitConfig struct {
	// Time window for the contact endpoint rate limit
	Window time.Duration `json:"window" toml:"window"`

	// Max number of requests allowed within the window
	Max int `json:"max" toml:"max"`

	// Storage namespace prefix
	Prefix string `json:"prefix,omitempty" toml:"prefix"`

	// BlockCooldown is how long violation history is kept after the last violation
	BlockCooldown time.Duration `json:"block_cooldown" toml:"block_cooldown"`
}

type CSRFConfig struct {
	// TokenTTL is the lifetime of an issued token
	TokenTTL time.Duration `json:"token_ttl" toml:"token_ttl"`

	// RefreshWindow: tokens closer than this to expiry are replaced on refresh
	RefreshWindow time.Duration `json:"refresh_window" toml:"refresh_window"`

	// Prefix is the storage namespace for token records
	Prefix string `json:"prefix,omitempty" toml:"prefix"`
}

type StorageProviderType string

const (
	StorageProviderMemory StorageProviderType = "memory"
	StorageProviderRedis  StorageProviderType = "redis"
)

func (s StorageProviderType) String() string {
	return string(s)
}

type StorageConfig struct {
	// Provider selects the key-value backend: "memory" or "redis".
	// Memory is single-instance only; use redis when running more than one replica.
	Provider StorageProviderType `json:"provider" toml:"provider"`

	// CleanupInterval specifies how often the memory backend removes expired entries
	CleanupInterval time.Duration `json:"cleanup_interval" toml:"cleanup_interval"`
}

type EmailProviderType string

const (
	EmailProviderSMTP   EmailProviderType = "smtp"
	EmailProviderResend EmailProviderType = "resend"
)

type EmailConfig struct {
	// Primary provider to use
	Provider EmailProviderType `json:"provider" toml:"provider"`

	// Optional fallback provider if primary fails
	FallbackProvider EmailProviderType `json:"fallback_provider" toml:"fallback_provider"`

	// FromAddress is the address contact notifications are sent from
	FromAddress string `json:"from_address" toml:"from_address"`

	// ToAddress is the portfolio owner's inbox
	ToAddress string `json:"to_address" toml:"to_address"`
}

type EventBusConfig struct {
	// BufferSize is the gochannel output buffer per subscriber
	BufferSize int64 `json:"buffer_size" toml:"buffer_size"`
}

// Load reads the TOML config file if present and applies env overrides and defaults.
// A missing file is not an error; the gateway can run entirely on defaults + env.
func Load(path string) (*Config, error) {
	var config Config

	if path == "" {
		path = os.Getenv(env.EnvConfigPath)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, &config); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		}
	}

	config.applyEnvOverrides()
	config.ApplyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (config *Config) applyEnvOverrides() {
	if v := os.Getenv(env.EnvBaseURL); v != "" {
		config.BaseURL = v
	}
	if v := os.Getenv(env.EnvGoEnvironment); v != "" {
		config.Environment = v
	}
	if v := os.Getenv(env.EnvEmailFrom); v != "" {
		config.Email.FromAddress = v
	}
	if v := os.Getenv(env.EnvEmailTo); v != "" {
		config.Email.ToAddress = v
	}
}

func (config *Config) ApplyDefaults() {
	if config.AppName == "" {
		config.AppName = "Portfolio"
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:3000"
	}
	if config.Environment == "" {
		config.Environment = "development"
	}
	if config.Logger.Level == "" {
		config.Logger.Level = "info"
	}
	if config.RateLimit.Window == 0 {
		config.RateLimit.Window = 15 * time.Minute
	}
	if config.RateLimit.Max == 0 {
		config.RateLimit.Max = 5
	}
	if config.RateLimit.Prefix == "" {
		config.RateLimit.Prefix = "ratelimit:"
	}
	if config.RateLimit.BlockCooldown == 0 {
		config.RateLimit.BlockCooldown = 24 * time.Hour
	}
	if config.CSRF.TokenTTL == 0 {
		config.CSRF.TokenTTL = 1 * time.Hour
	}
	if config.CSRF.RefreshWindow == 0 {
		config.CSRF.RefreshWindow = 5 * time.Minute
	}
	if config.CSRF.Prefix == "" {
		config.CSRF.Prefix = "csrf:"
	}
	if config.Storage.Provider == "" {
		if os.Getenv(env.EnvRedisURL) != "" {
			config.Storage.Provider = StorageProviderRedis
		} else {
			config.Storage.Provider = StorageProviderMemory
		}
	}
	if config.Storage.CleanupInterval == 0 {
		config.Storage.CleanupInterval = 1 * time.Minute
	}
	if config.Email.Provider == "" {
		if os.Getenv(env.EnvResendApiKey) != "" {
			config.Email.Provider = EmailProviderResend
		} else {
			config.Email.Provider = EmailProviderSMTP
		}
	}
	if config.EventBus.BufferSize == 0 {
		config.EventBus.BufferSize = 100
	}
	if len(config.Security.TrustedOrigins) == 0 && config.BaseURL != "" {
		config.Security.TrustedOrigins = []string{config.BaseURL}
	}
	// Relaxed origin checks are a development convenience only
	if config.Environment != "production" && !config.Security.RelaxedOrigin {
		config.Security.RelaxedOrigin = true
	}
}

func (config *Config) Validate() error {
	if err := ValidateTrustedOrigins(config.Security.TrustedOrigins); err != nil {
		return err
	}
	if config.Environment == "production" && config.Security.RelaxedOrigin {
		return fmt.Errorf("relaxed origin verification must not be enabled in production")
	}
	return nil
}

// IsProduction reports whether the gateway runs with production policies.
func (config *Config) IsProduction() bool {
	return config.Environment == "production"
}
