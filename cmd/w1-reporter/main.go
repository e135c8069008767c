package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/KyleBrandon/w1-reporter/pkg/server"
)

func main() {
	// parse the command-line flags
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config, err := server.InitializeServer(ctx)
	if err != nil {
		slog.Error("failed to initialize reporter", "error", err)
		os.Exit(1)
	}
	defer config.Close()

	// run until signalled
	if err := config.Run(ctx); err != nil {
		slog.Error("reporter stopped", "error", err)
		config.Close()
		os.Exit(1)
	}
}
