package config

import (
	"strings"
	"testing"
)

type envTestConfig struct {
	DBPath string `env:"DB_PATH" envDefault:"data/test.db"`
	Limit  int    `env:"LIMIT" envDefault:"10"`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg envTestConfig

	if err := ParseEnvWithEnvironment(&cfg, map[string]string{}); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.DBPath != "data/test.db" {
		t.Fatalf("db path = %q, want %q", cfg.DBPath, "data/test.db")
	}
	if cfg.Limit != 10 {
		t.Fatalf("limit = %d, want 10", cfg.Limit)
	}
}

func TestParseEnvUsesPrefix(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("MAGEMAKER_DB_PATH", "/tmp/sheets.db")
	t.Setenv("DB_PATH", "/tmp/ignored.db")

	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.DBPath != "/tmp/sheets.db" {
		t.Fatalf("db path = %q, want %q", cfg.DBPath, "/tmp/sheets.db")
	}
}

func TestParseEnvError(t *testing.T) {
	var cfg envTestConfig

	err := ParseEnvWithEnvironment(&cfg, map[string]string{"MAGEMAKER_LIMIT": "not-an-int"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}
