package config

import "fmt"

// MatchingConfig holds C3's scheduled-sweep tunables: a match request
// expiry window, a per-tenant daily auto-apply cap and an auto-apply score
// threshold. They are validated at load time but internal/matching does
// not read them: its 7-day request TTL, cap of 3 per day and 70-point
// threshold are fixed constants.
type MatchingConfig struct {
	ExpiryWindowDays  int `mapstructure:"expiry_window_days" env:"MATCHING_EXPIRY_WINDOW_DAYS" default:"30"`
	AutoApplyDailyCap int `mapstructure:"auto_apply_daily_cap" env:"MATCHING_AUTO_APPLY_DAILY_CAP" default:"5"`
	AutoApplyMinScore int `mapstructure:"auto_apply_min_score" env:"MATCHING_AUTO_APPLY_MIN_SCORE" default:"70"`
}

// Validate validates matching configuration.
func (c *MatchingConfig) Validate() error {
	if c.ExpiryWindowDays <= 0 {
		return fmt.Errorf("matching: expiry_window_days must be positive")
	}
	if c.AutoApplyDailyCap <= 0 {
		return fmt.Errorf("matching: auto_apply_daily_cap must be positive")
	}
	if c.AutoApplyMinScore < 0 || c.AutoApplyMinScore > 100 {
		return fmt.Errorf("matching: auto_apply_min_score must be in [0,100]")
	}
	return nil
}
