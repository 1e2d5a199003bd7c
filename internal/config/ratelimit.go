package config

import (
	"fmt"
	"time"
)

// RateLimitConfig holds the per-bucket request allowances and scanner
// block duration for C9 (§4.9).
type RateLimitConfig struct {
	APIRequests     int           `mapstructure:"api_requests" env:"RATELIMIT_API_REQUESTS" default:"1000"`
	APIWindow       time.Duration `mapstructure:"api_window" env:"RATELIMIT_API_WINDOW" default:"1h"`
	AuthRequests    int           `mapstructure:"auth_requests" env:"RATELIMIT_AUTH_REQUESTS" default:"100"`
	AuthWindow      time.Duration `mapstructure:"auth_window" env:"RATELIMIT_AUTH_WINDOW" default:"15m"`
	AdminRequests   int           `mapstructure:"admin_requests" env:"RATELIMIT_ADMIN_REQUESTS" default:"1000"`
	AdminWindow     time.Duration `mapstructure:"admin_window" env:"RATELIMIT_ADMIN_WINDOW" default:"1h"`
	DefaultRequests int           `mapstructure:"default_requests" env:"RATELIMIT_DEFAULT_REQUESTS" default:"100"`
	DefaultWindow   time.Duration `mapstructure:"default_window" env:"RATELIMIT_DEFAULT_WINDOW" default:"1h"`

	ScannerBlockDuration time.Duration `mapstructure:"scanner_block_duration" env:"RATELIMIT_SCANNER_BLOCK_DURATION" default:"1h"`
}

// Validate validates rate-limit configuration.
func (c *RateLimitConfig) Validate() error {
	if c.APIRequests <= 0 || c.AuthRequests <= 0 || c.AdminRequests <= 0 || c.DefaultRequests <= 0 {
		return fmt.Errorf("ratelimit: all bucket request allowances must be positive")
	}
	if c.APIWindow <= 0 || c.AuthWindow <= 0 || c.AdminWindow <= 0 || c.DefaultWindow <= 0 {
		return fmt.Errorf("ratelimit: all bucket windows must be positive")
	}
	if c.ScannerBlockDuration <= 0 {
		return fmt.Errorf("ratelimit: scanner_block_duration must be positive")
	}
	return nil
}
