package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/floatband/bandscan/internal/api"
	"github.com/floatband/bandscan/internal/config"
	"github.com/floatband/bandscan/internal/storage"
	"github.com/floatband/bandscan/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.LogLevel, cfg.Environment); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting results API service",
		logger.Int("port", cfg.API.Port),
	)

	// Initialize run store
	var store storage.RunStore
	if cfg.Database.Enabled {
		store, err = storage.NewPostgresStore(cfg.Database)
		if err != nil {
			logger.Fatal("Failed to initialize run store", logger.ErrorField(err))
		}
	} else {
		logger.Warn("Database disabled, serving from an empty in-memory store")
		store = storage.NewMemoryStore()
	}
	defer store.Close()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.API.Port),
		Handler:      api.NewRouter(store),
		ReadTimeout:  cfg.API.ReadTimeout,
		WriteTimeout: cfg.API.WriteTimeout,
	}

	go func() {
		logger.Info("Starting HTTP server", logger.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", logger.ErrorField(err))
		}
	}()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown failed", logger.ErrorField(err))
	}
	logger.Info("Shutdown complete")
}
