package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the admin console session subsystem.
// Tags use mapstructure for Viper unmarshalling; every value can also be set
// through environment variables (SESSION_IDLE_TIMEOUT_MIN, etc.).
type Config struct {
	APIBaseURL string `mapstructure:"API_BASE_URL"`
	AppOrigin  string `mapstructure:"APP_ORIGIN"`

	LogLevel       string `mapstructure:"LOG_LEVEL"`
	LogPretty      bool   `mapstructure:"LOG_PRETTY"`
	TracingEnabled bool   `mapstructure:"TRACING_ENABLED"`

	// Session timing.
	SessionIdleTimeoutMin    int `mapstructure:"SESSION_IDLE_TIMEOUT_MIN"`
	SessionCheckIntervalSec  int `mapstructure:"SESSION_CHECK_INTERVAL_SEC"`
	TokenRefreshIntervalMin  int `mapstructure:"TOKEN_REFRESH_INTERVAL_MIN"`
	TokenRefreshThresholdSec int `mapstructure:"TOKEN_REFRESH_THRESHOLD_SEC"`
	ExpiryWarningMin         int `mapstructure:"EXPIRY_WARNING_MIN"`

	// Rate limits.
	LoginRateLimitMax       int `mapstructure:"LOGIN_RATE_LIMIT_MAX"`
	LoginRateLimitWindowMin int `mapstructure:"LOGIN_RATE_LIMIT_WINDOW_MIN"`
	APIRateLimitMax         int `mapstructure:"API_RATE_LIMIT_MAX"`
	APIRateLimitWindowSec   int `mapstructure:"API_RATE_LIMIT_WINDOW_SEC"`

	// Secure storage.
	StorePath           string `mapstructure:"STORE_PATH"`
	StoreRedisAddr      string `mapstructure:"STORE_REDIS_ADDR"`
	StoreRefuseFallback bool   `mapstructure:"STORE_REFUSE_FALLBACK"`

	// CSP violation report collector.
	ReportListenAddr string `mapstructure:"REPORT_LISTEN_ADDR"`
}

// IdleTimeout returns the idle session timeout as a duration.
func (c *Config) IdleTimeout() time.Duration {
	return time.Duration(c.SessionIdleTimeoutMin) * time.Minute
}

// CheckInterval returns the session validity check interval.
func (c *Config) CheckInterval() time.Duration {
	return time.Duration(c.SessionCheckIntervalSec) * time.Second
}

// RefreshInterval returns the token refresh check interval.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.TokenRefreshIntervalMin) * time.Minute
}

// RefreshThreshold returns the remaining-lifetime low-water mark below which
// a token is proactively refreshed.
func (c *Config) RefreshThreshold() time.Duration {
	return time.Duration(c.TokenRefreshThresholdSec) * time.Second
}

// ExpiryWarning returns how long before idle expiry the countdown warning fires.
func (c *Config) ExpiryWarning() time.Duration {
	return time.Duration(c.ExpiryWarningMin) * time.Minute
}

// LoginRateWindow returns the login limiter sliding window length.
func (c *Config) LoginRateWindow() time.Duration {
	return time.Duration(c.LoginRateLimitWindowMin) * time.Minute
}

// APIRateWindow returns the generic API limiter sliding window length.
func (c *Config) APIRateWindow() time.Duration {
	return time.Duration(c.APIRateLimitWindowSec) * time.Second
}

// Load reads configuration from file, environment variables, and defaults.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/sahatu-admin/")
	v.AddConfigPath("$HOME/.sahatu-admin")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("API_BASE_URL", "https://api.sahatu.example")
	v.SetDefault("APP_ORIGIN", "https://admin.sahatu.example")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", false)
	v.SetDefault("TRACING_ENABLED", false)

	v.SetDefault("SESSION_IDLE_TIMEOUT_MIN", 30)
	v.SetDefault("SESSION_CHECK_INTERVAL_SEC", 60)
	v.SetDefault("TOKEN_REFRESH_INTERVAL_MIN", 5)
	v.SetDefault("TOKEN_REFRESH_THRESHOLD_SEC", 600)
	v.SetDefault("EXPIRY_WARNING_MIN", 5)

	v.SetDefault("LOGIN_RATE_LIMIT_MAX", 5)
	v.SetDefault("LOGIN_RATE_LIMIT_WINDOW_MIN", 5)
	v.SetDefault("API_RATE_LIMIT_MAX", 100)
	v.SetDefault("API_RATE_LIMIT_WINDOW_SEC", 60)

	v.SetDefault("STORE_PATH", "sahatu-admin.db")
	v.SetDefault("STORE_REDIS_ADDR", "")
	v.SetDefault("STORE_REFUSE_FALLBACK", false)

	v.SetDefault("REPORT_LISTEN_ADDR", ":9433")

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine, defaults and env vars apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	return &cfg, nil
}
