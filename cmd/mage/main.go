// Command mage builds and advances character sheets from the command line.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	magecmd "github.com/louisbranch/magemaker/internal/cmd/mage"
	platformcmd "github.com/louisbranch/magemaker/internal/platform/cmd"
	"github.com/louisbranch/magemaker/internal/platform/config"
)

func main() {
	log.SetPrefix(platformcmd.LogPrefix(platformcmd.ServiceMage))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := magecmd.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		stop()
		config.Exitf("Error: %v", err)
	}
}
