package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// ServerEnv holds process settings read from the environment.
type ServerEnv struct {
	Addr       string `env:"EASYAUDIT_ADDR"       envDefault:":8080"`
	ConfigPath string `env:"EASYAUDIT_CONFIG"     envDefault:"configs/audit.yaml"`
	LogLevel   string `env:"EASYAUDIT_LOG_LEVEL"  envDefault:"info"`
	JWTSecret  string `env:"EASYAUDIT_JWT_SECRET"`
	JWTIssuer  string `env:"EASYAUDIT_JWT_ISSUER"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
