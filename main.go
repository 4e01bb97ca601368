package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/xkilldash9x/eventmodel-cli/cmd"
	"github.com/xkilldash9x/eventmodel-cli/internal/observability"
)

// main is the entry point for the eventmodel CLI.
func main() {
	// Cancel the run on SIGINT/SIGTERM so in-flight oracle calls stop cleanly.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	defer observability.Sync()
	cmd.Execute(ctx)
}
