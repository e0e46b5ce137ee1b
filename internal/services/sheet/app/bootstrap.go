package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/louisbranch/magemaker/internal/services/sheet/domain/ruleset"
	"github.com/louisbranch/magemaker/internal/services/sheet/storage/sqlite"
)

// StoreConfig names the on-disk inputs of a service.
type StoreConfig struct {
	// DBPath is the sqlite database file. Its directory is created if missing.
	DBPath string
	// RulesetPath optionally replaces the embedded M20 content.
	RulesetPath string
}

// LoadRuleset returns the ruleset at path, or the embedded default when path
// is empty.
func LoadRuleset(path string) (*ruleset.Ruleset, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return ruleset.Default()
	}
	return ruleset.LoadFile(path)
}

// Open loads the ruleset, opens the sqlite store and builds a service over
// both. The returned close function releases the store.
func Open(cfg StoreConfig, opts Options) (*Service, func() error, error) {
	rules, err := LoadRuleset(cfg.RulesetPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load ruleset: %w", err)
	}
	dbPath := strings.TrimSpace(cfg.DBPath)
	if dbPath == "" {
		return nil, nil, errors.New("database path is required")
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	store, err := sqlite.Open(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	svc, err := New(store, rules, opts)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	return svc, store.Close, nil
}
