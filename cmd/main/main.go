package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"data-syncer/src/config"
	"data-syncer/src/grpc_control"
	"data-syncer/src/logger"
	"data-syncer/src/rest"
	"data-syncer/src/syncer"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config/default.yaml", "path to config file")
	flag.Parse()

	// Load config from YAML file
	cfg, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	appLogger := logger.NewLogger(cfg.LogLevel, cfg.Name)
	defer appLogger.Sync()

	// Create syncer from config
	syncerService := syncer.NewSyncer(cfg, appLogger)
	defer syncerService.Stop()

	// Create gRPC health service
	healthService, err := grpc_control.NewGRPCService(cfg, appLogger, syncerService)
	if err != nil {
		appLogger.Critical("failed to create gRPC health service: %v", err)
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		healthService.Stop(ctx)
	}()

	// Start REST control API server
	go func() {
		appLogger.Info("starting REST control API on :%d", cfg.Port)
		if err := startAPIServer(cfg, appLogger, syncerService); err != nil && err != http.ErrServerClosed {
			appLogger.Error("REST API server error: %v", err)
			os.Exit(1)
		}
	}()

	// Start gRPC health server
	if err := healthService.Start(); err != nil {
		appLogger.Critical("failed to start gRPC health service: %v", err)
		os.Exit(1)
	}

	// Start syncer
	if err := syncerService.Start(); err != nil {
		appLogger.Critical("failed to start syncer: %v", err)
		os.Exit(1)
	}

	appLogger.Info("data syncer running. REST API: :%d, gRPC health: %s:%d",
		cfg.Port, cfg.GRPC_Host, cfg.GRPC_Port)
	appLogger.Info("Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	appLogger.Info("shutting down...")
}

// startAPIServer starts the HTTP REST control API server
func startAPIServer(cfg *config.Config, log *logger.Logger, s *syncer.Syncer) error {
	apiHandler := rest.NewAPIHandler(log, s)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: apiHandler.Router(),
	}

	return server.ListenAndServe()
}
