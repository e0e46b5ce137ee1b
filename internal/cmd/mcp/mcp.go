// Package mcp parses MCP command flags and serves the sheet tools over stdio.
package mcp

import (
	"context"
	"flag"
	"log"

	platformcmd "github.com/louisbranch/magemaker/internal/platform/cmd"
	"github.com/louisbranch/magemaker/internal/platform/telemetry/metrics"
	"github.com/louisbranch/magemaker/internal/services/mcp/domain"
	"github.com/louisbranch/magemaker/internal/services/mcp/service"
	"github.com/louisbranch/magemaker/internal/services/sheet/app"
	"github.com/prometheus/client_golang/prometheus"
)

// Config holds MCP command configuration.
type Config struct {
	DBPath      string `env:"DB_PATH"      envDefault:"data/magemaker.db"`
	RulesetPath string `env:"RULESET_PATH"`
	Locale      string `env:"LOCALE"       envDefault:"en-US"`
	MetricsAddr string `env:"METRICS_ADDR"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := platformcmd.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "sqlite database path")
	fs.StringVar(&cfg.RulesetPath, "ruleset", cfg.RulesetPath, "ruleset YAML file (default: embedded M20 content)")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "locale for messages and exports")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "serve Prometheus metrics on this address when set")
	if err := platformcmd.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run opens the sheet store and serves MCP over stdio until ctx ends.
func Run(ctx context.Context, cfg Config) error {
	return platformcmd.RunWithTelemetry(ctx, platformcmd.ServiceMCP, func(ctx context.Context) error {
		reg := prometheus.NewRegistry()
		svc, closeStore, err := app.Open(app.StoreConfig{DBPath: cfg.DBPath, RulesetPath: cfg.RulesetPath}, app.Options{
			Metrics: metrics.NewDecisions(reg),
		})
		if err != nil {
			return err
		}
		defer func() {
			if err := closeStore(); err != nil {
				log.Printf("close store: %v", err)
			}
		}()

		if cfg.MetricsAddr != "" {
			metricsCtx, cancel := context.WithCancel(ctx)
			defer cancel()
			go func() {
				if err := metrics.Serve(metricsCtx, cfg.MetricsAddr, reg); err != nil {
					log.Printf("metrics: %v", err)
				}
			}()
		}

		server, err := service.New(svc, domain.Settings{Locale: cfg.Locale})
		if err != nil {
			return err
		}
		log.Printf("serving MCP on stdio with database %s", cfg.DBPath)
		return server.Run(ctx)
	})
}
