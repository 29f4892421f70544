// Command ragkit runs the retrieval-augmented context service.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/ragkit/internal/adapters/driving/cli"
	"github.com/custodia-labs/ragkit/internal/app"
	"github.com/custodia-labs/ragkit/internal/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.SetVerbose(cli.Verbose(os.Args[1:]))

	container, err := app.New(ctx, app.Options{EnvFile: os.Getenv(app.EnvEnvFile)})
	if err != nil {
		return err
	}
	defer container.Close()

	cli.SetVersion(version)
	cli.SetServices(container.Retrieval, container.Ingest, container.Settings)
	cli.SetConfigWatcher(container.WatchConfig)

	return cli.Execute(ctx)
}
