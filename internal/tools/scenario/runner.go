package scenario

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/louisbranch/magemaker/internal/services/sheet/app"
)

// Config controls scenario execution.
type Config struct {
	// DBPath is the sqlite database the scenario writes to. When empty the
	// runner uses a temporary database removed on Close.
	DBPath      string
	RulesetPath string
	Timeout     time.Duration
	Assertions  AssertionMode
	Verbose     bool
	Logger      *log.Logger
}

// DefaultConfig returns default runner configuration.
func DefaultConfig() Config {
	return Config{
		Timeout:    10 * time.Second,
		Assertions: AssertionStrict,
	}
}

// Runner executes Lua scenarios against the sheet service.
type Runner struct {
	sheets     sheetService
	closers    []func() error
	assertions Assertions
	logger     *log.Logger
	verbose    bool
	timeout    time.Duration
}

// NewRunner opens the sheet store and prepares a scenario runner.
func NewRunner(cfg Config) (*Runner, error) {
	var closers []func() error
	dbPath := cfg.DBPath
	if dbPath == "" {
		dir, err := os.MkdirTemp("", "magemaker-scenario-")
		if err != nil {
			return nil, fmt.Errorf("create scenario directory: %w", err)
		}
		closers = append(closers, func() error { return os.RemoveAll(dir) })
		dbPath = filepath.Join(dir, "scenario.db")
	}
	svc, closeStore, err := app.Open(app.StoreConfig{DBPath: dbPath, RulesetPath: cfg.RulesetPath}, app.Options{
		Logger: log.New(io.Discard, "", 0),
	})
	if err != nil {
		runClosers(closers)
		return nil, err
	}
	// The store must close before its directory is removed.
	closers = append([]func() error{closeStore}, closers...)

	r, err := newRunner(cfg, svc)
	if err != nil {
		runClosers(closers)
		return nil, err
	}
	r.closers = closers
	return r, nil
}

// newRunner builds a Runner over an existing service. Config defaults
// (logger, timeout) are applied here so they are testable.
func newRunner(cfg Config, sheets sheetService) (*Runner, error) {
	if sheets == nil {
		return nil, errors.New("sheet service is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "", 0)
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Runner{
		sheets:     sheets,
		assertions: Assertions{Mode: cfg.Assertions, Logger: logger},
		logger:     logger,
		verbose:    cfg.Verbose,
		timeout:    timeout,
	}, nil
}

// Close releases resources held by the runner.
func (r *Runner) Close() error {
	err := runClosers(r.closers)
	r.closers = nil
	return err
}

func runClosers(closers []func() error) error {
	var errs []error
	for _, c := range closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RunFile loads and executes a scenario file.
func RunFile(ctx context.Context, cfg Config, path string) error {
	scenario, err := LoadScenarioFromFile(path)
	if err != nil {
		return err
	}
	runner, err := NewRunner(cfg)
	if err != nil {
		return err
	}
	defer runner.Close()
	return runner.RunScenario(ctx, scenario)
}

// RunScenario executes the scenario steps in order.
func (r *Runner) RunScenario(ctx context.Context, scenario *Scenario) error {
	if scenario == nil {
		return errors.New("scenario is required")
	}
	r.logf("scenario start: %s (%d steps)", scenario.Name, len(scenario.Steps))
	state := &scenarioState{characters: map[string]string{}}

	for index, step := range scenario.Steps {
		stepNumber := index + 1
		r.logf("step %d/%d start: %s", stepNumber, len(scenario.Steps), step.Kind)
		stepStart := time.Now()
		stepCtx, cancel := context.WithTimeout(ctx, r.timeout)
		err := r.runStep(stepCtx, state, step)
		cancel()
		if err != nil {
			return fmt.Errorf("step %d (%s): %w", stepNumber, step.Kind, err)
		}
		r.logf("step %d/%d done: %s (%s)", stepNumber, len(scenario.Steps), step.Kind, time.Since(stepStart))
	}
	r.logf("scenario done: %s", scenario.Name)
	return nil
}

func (r *Runner) logf(format string, args ...any) {
	if !r.verbose || r.logger == nil {
		return
	}
	r.logger.Printf(format, args...)
}
