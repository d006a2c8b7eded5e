package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"lpool/internal/app"
	"lpool/internal/infra"
)

func main() {
	// 1. Graceful Shutdown Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	path := os.Getenv("LPOOL_CONFIG")
	if path == "" {
		path = infra.DefaultConfigPath
	}

	// 2. System Bootstrapping
	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(path); err != nil {
		slog.Error("Bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}

	// 3. Sequencers (one hot loop per pool)
	runCtx, cancel := context.WithCancel(ctx)
	bootstrap.Start(runCtx)

	// 4. Demo run
	err := bootstrap.RunDemo(runCtx, os.Stdout)

	cancel()
	if cerr := bootstrap.Close(); cerr != nil {
		slog.Error("Shutdown failed", slog.Any("error", cerr))
	}
	if err != nil {
		slog.Error("Demo interrupted", slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("Demo completed")
}
