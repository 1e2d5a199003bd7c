package config

import (
	"fmt"
	"time"
)

// NotificationConfig holds C2's dispatcher-wide tunables: rate-limit caps,
// digest aggregation windows, and a default timezone. They are validated
// at load time but internal/notification does not read them: it uses fixed
// caps of 60 per minute and 1000 per hour, fixed 24h/7-day/30-day digest
// windows, and evaluates quiet hours in the user's own timezone or, when
// none is set, in the location of the time it is given.
type NotificationConfig struct {
	RateLimitPerMinute int `mapstructure:"rate_limit_per_minute" env:"NOTIFICATION_RATE_LIMIT_PER_MINUTE" default:"60"`
	RateLimitPerHour   int `mapstructure:"rate_limit_per_hour" env:"NOTIFICATION_RATE_LIMIT_PER_HOUR" default:"1000"`

	DigestDailyWindow   time.Duration `mapstructure:"digest_daily_window" env:"NOTIFICATION_DIGEST_DAILY_WINDOW" default:"24h"`
	DigestWeeklyWindow  time.Duration `mapstructure:"digest_weekly_window" env:"NOTIFICATION_DIGEST_WEEKLY_WINDOW" default:"168h"`
	DigestMonthlyWindow time.Duration `mapstructure:"digest_monthly_window" env:"NOTIFICATION_DIGEST_MONTHLY_WINDOW" default:"720h"`

	DefaultTimezone string `mapstructure:"default_timezone" env:"NOTIFICATION_DEFAULT_TIMEZONE" default:"UTC"`
}

// Validate validates notification configuration.
func (c *NotificationConfig) Validate() error {
	if c.RateLimitPerMinute <= 0 || c.RateLimitPerHour <= 0 {
		return fmt.Errorf("notification: rate limit caps must be positive")
	}
	if c.DigestDailyWindow <= 0 || c.DigestWeeklyWindow <= 0 || c.DigestMonthlyWindow <= 0 {
		return fmt.Errorf("notification: digest windows must be positive")
	}
	if _, err := time.LoadLocation(c.DefaultTimezone); err != nil {
		return fmt.Errorf("notification: invalid default_timezone %q: %w", c.DefaultTimezone, err)
	}
	return nil
}
