// Package main runs the capex-lab HTTP API:
// - Analyses, raw engine runs and sweeps over JSON
// - XLSX export with optional persistence to PostgreSQL/ClickHouse
// - Interactive exploration over a websocket
// - /health, /status and Prometheus /metrics
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

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"capex-lab/internal/api"
	"capex-lab/internal/config"
	"capex-lab/internal/logging"
	"capex-lab/internal/simulation"
	"capex-lab/internal/storage/sinks"
)

func main() {
	configPath := flag.String("config", os.Getenv("CAPEX_CONFIG"), "Path to YAML config file")
	listen := flag.String("listen", "", "HTTP listen address (overrides config)")
	useMemory := flag.Bool("use-memory", false, "Add an in-memory export store")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *listen != "" {
		cfg.Server.Listen = *listen
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stores, closeStores, err := sinks.Open(ctx, sinks.Options{
		PostgresDSN:   cfg.Storage.PostgresDSN,
		ClickhouseDSN: cfg.Storage.ClickhouseDSN,
		Memory:        *useMemory,
	}, logger)
	if err != nil {
		logger.Fatal("failed to open export stores", zap.Error(err))
	}
	defer func() {
		if err := closeStores(); err != nil {
			logger.Warn("close export stores", zap.Error(err))
		}
	}()

	opts := cfg.EngineOptions()
	opts.Logger = logger
	if cfg.Cache.Enabled {
		cache, err := simulation.NewLRUCache(cfg.Cache.Size)
		if err != nil {
			logger.Fatal("failed to create cache", zap.Error(err))
		}
		opts.Cache = cache
	}

	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	handler := api.NewHandler(api.Options{
		Engine:         simulation.NewEngine(opts),
		Stores:         stores,
		Logger:         logger,
		RequestTimeout: cfg.Server.RequestTimeout,
	})
	srv := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           api.NewRouter(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to signal completion
	done := make(chan struct{})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		cancel()

		shutdownCtx, stop := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer stop()
		go func() {
			// Second signal forces exit.
			select {
			case sig := <-sigCh:
				logger.Warn("received second signal, forcing exit", zap.String("signal", sig.String()))
				os.Exit(1)
			case <-done:
			}
		}()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", zap.Error(err))
		}
		close(done)
	}()

	logger.Info("starting HTTP server",
		zap.String("addr", cfg.Server.Listen),
		zap.Int("stores", len(stores)),
		zap.Bool("cache", cfg.Cache.Enabled),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("HTTP server error", zap.Error(err))
	}
	<-done
	logger.Info("shutdown complete")
}
