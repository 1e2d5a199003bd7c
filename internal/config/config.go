package config

import "fmt"

// Config holds all application configuration
type Config struct {
	Database     DatabaseConfig     `mapstructure:"database"`
	HTTP         HTTPConfig         `mapstructure:"http"`
	Log          LogConfig          `mapstructure:"log"`
	Compute      ComputeConfig      `mapstructure:"compute"`
	Workflow     WorkflowConfig     `mapstructure:"workflow"`
	Controller   ControllerConfig   `mapstructure:"controller"`
	Contract     ContractConfig     `mapstructure:"contract"`
	Notification NotificationConfig `mapstructure:"notification"`
	Matching     MatchingConfig     `mapstructure:"matching"`
	RateLimit    RateLimitConfig    `mapstructure:"ratelimit"`
	Scheduler    SchedulerConfig    `mapstructure:"scheduler"`
	Auth         AuthConfig         `mapstructure:"auth"`
}

// Validate performs validation on the configuration
func (c *Config) Validate() error {
	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("database config: %w", err)
	}
	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("http config: %w", err)
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log config: %w", err)
	}
	if err := c.Compute.Validate(); err != nil {
		return fmt.Errorf("compute config: %w", err)
	}
	if err := c.Workflow.Validate(); err != nil {
		return fmt.Errorf("workflow config: %w", err)
	}
	if err := c.Controller.Validate(); err != nil {
		return fmt.Errorf("controller config: %w", err)
	}
	if err := c.Contract.Validate(); err != nil {
		return fmt.Errorf("contract config: %w", err)
	}
	if err := c.Notification.Validate(); err != nil {
		return fmt.Errorf("notification config: %w", err)
	}
	if err := c.Matching.Validate(); err != nil {
		return fmt.Errorf("matching config: %w", err)
	}
	if err := c.RateLimit.Validate(); err != nil {
		return fmt.Errorf("ratelimit config: %w", err)
	}
	if err := c.Scheduler.Validate(); err != nil {
		return fmt.Errorf("scheduler config: %w", err)
	}
	if err := c.Auth.Validate(); err != nil {
		return fmt.Errorf("auth config: %w", err)
	}
	return nil
}
