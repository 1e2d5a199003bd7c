package config

import "fmt"

// AuthConfig holds the shared secret used to verify bearer tokens on the
// API. Tokens are HS256 JWTs carrying a subject (user id) and a role
// claim, consumed by the §6 role-gating middleware.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" env:"AUTH_JWT_SECRET"`
	Issuer    string `mapstructure:"issuer" env:"AUTH_ISSUER" default:"landlord"`
}

// Validate validates auth configuration.
func (c *AuthConfig) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("auth: jwt_secret is required")
	}
	if len(c.JWTSecret) < 16 {
		return fmt.Errorf("auth: jwt_secret must be at least 16 characters")
	}
	return nil
}
