package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"stevedore/cmd"
)

func main() {
	// An interrupt aborts the run between steps; whatever the engine already
	// produced stays put for inspection.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(cmd.Execute(ctx))
}
