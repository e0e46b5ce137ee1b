// Package mage builds the mage command line, a cobra command tree over the
// sheet service.
package mage

import (
	"context"
	"fmt"
	"io"
	"log"

	platformcmd "github.com/louisbranch/magemaker/internal/platform/cmd"
	apperrors "github.com/louisbranch/magemaker/internal/platform/errors"
	errori18n "github.com/louisbranch/magemaker/internal/platform/errors/i18n"
	"github.com/louisbranch/magemaker/internal/services/sheet/app"
	"github.com/spf13/cobra"
)

// Config holds the environment defaults for the persistent flags.
type Config struct {
	DBPath      string `env:"DB_PATH"      envDefault:"data/magemaker.db"`
	RulesetPath string `env:"RULESET_PATH"`
	Locale      string `env:"LOCALE"       envDefault:"en-US"`
}

// Run executes args against the mage command tree and closes the store on
// the way out.
func Run(ctx context.Context, args []string, out, errOut io.Writer) error {
	var cfg Config
	if err := platformcmd.ParseConfig(&cfg); err != nil {
		return err
	}
	return platformcmd.RunWithTelemetry(ctx, platformcmd.ServiceMage, func(ctx context.Context) error {
		return execute(ctx, cfg, args, out, errOut)
	})
}

func execute(ctx context.Context, cfg Config, args []string, out, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}
	c := &cli{cfg: cfg, errOut: errOut}
	defer func() {
		if err := c.close(); err != nil {
			log.Printf("close store: %v", err)
		}
	}()

	root := newRootCommand(c)
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(errOut)
	return root.ExecuteContext(ctx)
}

// cli carries the flag values and the lazily opened service shared by every
// subcommand.
type cli struct {
	cfg        Config
	verbose    bool
	errOut     io.Writer
	svc        *app.Service
	closeStore func() error
}

func newRootCommand(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   "mage",
		Short: "Build and advance Mage: The Ascension characters",
		Long: `mage keeps character sheets in a local SQLite database and walks them
through creation, freebie points and experience.

Example:
  mage new --name "Marcus" --faction Traditions --group "Order of Hermes"
  mage priority <id> attribute Mental primary
  mage set <id> attribute:Wits 3
  mage status <id>`,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.cfg.DBPath, "db", c.cfg.DBPath, "sqlite database path")
	flags.StringVar(&c.cfg.RulesetPath, "ruleset", c.cfg.RulesetPath, "ruleset YAML file (default: embedded M20 content)")
	flags.StringVar(&c.cfg.Locale, "locale", c.cfg.Locale, "locale for messages and exports")
	flags.BoolVar(&c.verbose, "verbose", false, "log service operations to stderr")

	root.AddCommand(
		newCreateCommand(c),
		newListCommand(c),
		newShowCommand(c),
		newExportCommand(c),
		newImportCommand(c),
		newDeleteCommand(c),
		newProfileCommand(c),
		newJournalCommand(c),
		newStatusCommand(c),
		newSetCommand(c),
		newQuoteCommand(c),
		newPriorityCommand(c),
		newAffinityCommand(c),
		newAdvanceCommand(c),
		newExperienceCommand(c),
		newQualityCommand(c, "merit"),
		newQualityCommand(c, "flaw"),
		newPoolCommand(c),
	)
	return root
}

// service opens the store on first use.
func (c *cli) service() (*app.Service, error) {
	if c.svc != nil {
		return c.svc, nil
	}
	logger := log.New(io.Discard, "", 0)
	if c.verbose {
		logger = log.New(c.errOut, platformcmd.LogPrefix(platformcmd.ServiceMage), log.LstdFlags)
	}
	svc, closeStore, err := app.Open(app.StoreConfig{DBPath: c.cfg.DBPath, RulesetPath: c.cfg.RulesetPath}, app.Options{
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}
	c.svc = svc
	c.closeStore = closeStore
	return svc, nil
}

func (c *cli) close() error {
	if c.closeStore == nil {
		return nil
	}
	err := c.closeStore()
	c.closeStore = nil
	c.svc = nil
	return err
}

// fail renders a service error in the configured locale. Rejections keep
// their engine code so scripts can match on it.
func (c *cli) fail(action string, err error) error {
	if rej, ok := app.Rejection(err); ok {
		return fmt.Errorf("%s rejected: %s: %s", action, rej.Code, errori18n.Message(c.cfg.Locale, err))
	}
	if code := apperrors.CodeOf(err); code != apperrors.CodeUnknown {
		return fmt.Errorf("%s: %s: %s", action, code, errori18n.Message(c.cfg.Locale, err))
	}
	return fmt.Errorf("%s: %w", action, err)
}
