// Package scenario parses scenario command flags and runs Lua scenarios.
package scenario

import (
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"time"

	platformcmd "github.com/louisbranch/magemaker/internal/platform/cmd"
	"github.com/louisbranch/magemaker/internal/tools/scenario"
)

// Config holds scenario command configuration.
type Config struct {
	Scenario    string        `env:"SCENARIO_FILE"`
	Assertions  bool          `env:"SCENARIO_ASSERT"  envDefault:"true"`
	Verbose     bool          `env:"SCENARIO_VERBOSE"`
	Timeout     time.Duration `env:"SCENARIO_TIMEOUT" envDefault:"10s"`
	DBPath      string        `env:"SCENARIO_DB_PATH"`
	RulesetPath string        `env:"RULESET_PATH"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := platformcmd.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.Scenario, "scenario", cfg.Scenario, "path to scenario lua file")
	fs.BoolVar(&cfg.Assertions, "assert", cfg.Assertions, "enable assertions (disable to log expectations)")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "enable verbose logging")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "timeout per step")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "sqlite database path (default: temporary database)")
	fs.StringVar(&cfg.RulesetPath, "ruleset", cfg.RulesetPath, "ruleset YAML file (default: embedded M20 content)")
	if err := platformcmd.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run executes the scenario command.
func Run(ctx context.Context, cfg Config, errOut io.Writer) error {
	if errOut == nil {
		errOut = io.Discard
	}
	if cfg.Scenario == "" {
		return errors.New("scenario path is required")
	}

	mode := scenario.AssertionStrict
	if !cfg.Assertions {
		mode = scenario.AssertionLogOnly
	}

	return platformcmd.RunWithTelemetry(ctx, platformcmd.ServiceScenario, func(ctx context.Context) error {
		return scenario.RunFile(ctx, scenario.Config{
			DBPath:      cfg.DBPath,
			RulesetPath: cfg.RulesetPath,
			Timeout:     cfg.Timeout,
			Assertions:  mode,
			Verbose:     cfg.Verbose,
			Logger:      log.New(errOut, "", 0),
		}, cfg.Scenario)
	})
}
