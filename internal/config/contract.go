package config

import (
	"fmt"
	"time"
)

// ContractConfig holds contract-lifecycle configuration: a contract number
// prefix and a default invitation TTL. They are validated at load time but
// not read elsewhere: the allocator always issues VH- numbers, and
// invitation.Service falls back to a fixed 7-day TTL when none is given.
type ContractConfig struct {
	NumberPrefix  string        `mapstructure:"number_prefix" env:"CONTRACT_NUMBER_PREFIX" default:"VH"`
	InvitationTTL time.Duration `mapstructure:"invitation_ttl" env:"CONTRACT_INVITATION_TTL" default:"168h"`
}

// Validate validates contract configuration.
func (c *ContractConfig) Validate() error {
	if c.NumberPrefix == "" {
		return fmt.Errorf("contract.number_prefix must not be empty")
	}
	if c.InvitationTTL <= 0 {
		return fmt.Errorf("contract.invitation_ttl must be positive")
	}
	return nil
}
