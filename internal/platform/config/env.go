package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix is prepended to every `env` tag resolved by ParseEnv.
const EnvPrefix = "MAGEMAKER_"

// ParseEnv loads configuration from MAGEMAKER_-prefixed environment variables.
func ParseEnv(target any) error {
	return ParseEnvWithEnvironment(target, nil)
}

// ParseEnvWithEnvironment loads configuration from the given environment map
// instead of the process environment when environment is non-nil.
func ParseEnvWithEnvironment(target any, environment map[string]string) error {
	opts := env.Options{Prefix: EnvPrefix}
	if environment != nil {
		opts.Environment = environment
	}
	if err := env.ParseWithOptions(target, opts); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
