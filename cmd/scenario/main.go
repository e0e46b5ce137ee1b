// Command scenario runs Lua scenario scripts against a sheet database.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	scenariocmd "github.com/louisbranch/magemaker/internal/cmd/scenario"
	platformcmd "github.com/louisbranch/magemaker/internal/platform/cmd"
	"github.com/louisbranch/magemaker/internal/platform/config"
)

func main() {
	cfg, err := scenariocmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("Error: %v", err)
	}
	log.SetPrefix(platformcmd.LogPrefix(platformcmd.ServiceScenario))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := scenariocmd.Run(ctx, cfg, os.Stderr); err != nil {
		config.Exitf("Error: %v", err)
	}
}
