package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/TFMV/liquiditymap/cmd"
)

func main() {
	// Cancel on SIGINT/SIGTERM so servers and layouts shut down cleanly
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cmd.Execute(ctx); err != nil {
		cancel()
		os.Exit(1)
	}
}
