package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Settings holds process-level options read from the environment.
type Settings struct {
	// LogLevel is the minimum severity of the process logger.
	LogLevel string `env:"HOSTBRIDGE_LOG_LEVEL" envDefault:"error"`

	// RuntimeQueue is the initial task queue capacity of the execution runtime.
	RuntimeQueue int `env:"HOSTBRIDGE_RUNTIME_QUEUE" envDefault:"64"`

	// Database is the default database path used by the CLI.
	Database string `env:"HOSTBRIDGE_DATABASE" envDefault:"hostbridge.db"`
}

// LoadSettings parses Settings from the environment.
func LoadSettings() (Settings, error) {
	var s Settings
	if err := env.Parse(&s); err != nil {
		return Settings{}, fmt.Errorf("parse env: %w", err)
	}
	if s.RuntimeQueue <= 0 {
		return Settings{}, fmt.Errorf("HOSTBRIDGE_RUNTIME_QUEUE must be positive, got %d", s.RuntimeQueue)
	}
	return s, nil
}
