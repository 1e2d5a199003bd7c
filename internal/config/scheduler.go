package config

import (
	"fmt"
	"time"
)

// SchedulerConfig holds configuration for the periodic job scheduler that
// drives invitation expiry, objection overdue sweeps, match expiry and
// digesting, and notification delivery/retry (§5).
type SchedulerConfig struct {
	// Enabled controls whether the scheduler is started
	Enabled bool `mapstructure:"enabled"`

	// TickInterval is how often the scheduler evaluates which jobs are due
	TickInterval time.Duration `mapstructure:"tick_interval"`

	// Workers is the number of concurrent job-runner goroutines
	Workers int `mapstructure:"workers"`

	// JobTimeout bounds a single job run
	JobTimeout time.Duration `mapstructure:"job_timeout"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// MaxRetries is the maximum number of retry attempts before a job tick
	// is dropped until its next natural schedule
	MaxRetries int `mapstructure:"max_retries"`
}

// Validate checks the scheduler configuration
func (c *SchedulerConfig) Validate() error {
	if c.Enabled {
		if c.TickInterval <= 0 {
			return fmt.Errorf("tick_interval must be positive")
		}
		if c.Workers <= 0 {
			return fmt.Errorf("workers must be positive")
		}
		if c.JobTimeout <= 0 {
			return fmt.Errorf("job_timeout must be positive")
		}
		if c.ShutdownTimeout <= 0 {
			return fmt.Errorf("shutdown_timeout must be positive")
		}
		if c.MaxRetries < 0 {
			return fmt.Errorf("max_retries must be non-negative")
		}
	}
	return nil
}

// SetDefaults sets default values for scheduler configuration
func (c *SchedulerConfig) SetDefaults() {
	if c.TickInterval == 0 {
		c.TickInterval = time.Minute
	}
	if c.Workers == 0 {
		c.Workers = 3
	}
	if c.JobTimeout == 0 {
		c.JobTimeout = 30 * time.Second
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 30 * time.Second
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 5
	}
}
