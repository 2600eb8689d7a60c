package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/bobmcallan/arthmitra/internal/app"
	"github.com/bobmcallan/arthmitra/internal/common"
	"github.com/bobmcallan/arthmitra/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to arthmitra.toml (default: $ARTHMITRA_CONFIG, then next to the binary)")
	flag.Parse()

	// API keys usually live in .env during development
	_ = godotenv.Load()

	a, err := app.NewApp(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize app: %v\n", err)
		os.Exit(1)
	}

	model := a.Provider
	if a.Generator != nil {
		model = a.Generator.ModelName()
	}
	common.PrintBanner(a.Config, a.Logger, model)

	// Index documents in the background; chat returns 503 until ready
	initCtx, initCancel := context.WithCancel(context.Background())
	go func() {
		start := time.Now()
		if err := a.Initialize(initCtx); err != nil {
			a.Logger.Error().Err(err).Msg("Assistant initialization failed")
			return
		}
		a.Logger.Info().Dur("elapsed", time.Since(start)).Msg("Assistant initialized")
	}()

	if err := a.StartScheduler(); err != nil {
		a.Logger.Warn().Err(err).Msg("Scheduler not started")
	}

	srv := server.NewServer(a)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	a.Logger.Info().
		Str("url", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)).
		Str("mcp", fmt.Sprintf("http://localhost:%d/mcp", a.Config.Server.Port)).
		Msg("Server ready")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	common.PrintShutdownBanner(a.Logger)
	initCancel()

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		a.Logger.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	a.Close()
	a.Logger.Info().Msg("Server stopped")
}
