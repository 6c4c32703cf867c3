package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/floatband/bandscan/internal/backtest"
	"github.com/floatband/bandscan/internal/config"
	"github.com/floatband/bandscan/internal/pubsub"
	"github.com/floatband/bandscan/internal/report"
	"github.com/floatband/bandscan/internal/storage"
	"github.com/floatband/bandscan/internal/strategy"
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

	squareOff, err := cfg.Strategy.SquareOffMinutes()
	if err != nil {
		logger.Fatal("Invalid square-off time", logger.ErrorField(err))
	}

	// Initialize run store
	var store storage.RunStore
	if cfg.Database.Enabled {
		store, err = storage.NewPostgresStore(cfg.Database)
		if err != nil {
			logger.Fatal("Failed to initialize run store", logger.ErrorField(err))
		}
	} else {
		logger.Info("Database disabled, runs will not be persisted")
		store = storage.NewMemoryStore()
	}
	defer store.Close()

	// Initialize run publisher
	var publisher *pubsub.RunPublisher
	if cfg.Redis.Enabled {
		redisClient, err := pubsub.NewRedisClient(cfg.Redis)
		if err != nil {
			logger.Fatal("Failed to initialize Redis client", logger.ErrorField(err))
		}
		defer redisClient.Close()
		publisher = pubsub.NewRunPublisher(redisClient, cfg.Redis.StreamName)
	}

	engine := strategy.NewEngine(strategy.Config{SquareOff: squareOff}, nil)
	runner := backtest.NewRunner(cfg.Data.DataDir, engine, report.NewWriter(cfg.Data.ReportDir))

	logger.Info("Starting backtest",
		logger.String("data_dir", cfg.Data.DataDir),
		logger.String("report_dir", cfg.Data.ReportDir),
		logger.String("square_off", cfg.Strategy.SquareOffTime),
	)

	results, err := runner.Run()
	if err != nil {
		logger.Fatal("Backtest failed", logger.ErrorField(err))
	}

	ctx := context.Background()
	symbol := ""
	if len(cfg.Data.Symbols) > 0 {
		symbol = cfg.Data.Symbols[0]
	}
	for _, result := range results {
		run := &storage.Run{
			ID:        storage.NewRunID(),
			Symbol:    symbol,
			Session:   result.Session,
			CreatedAt: time.Now(),
			Bars:      result.Summary.Bars,
			TotalPnL:  result.Summary.TotalPnL,
			WinRate:   result.Summary.WinRate,
			Trades:    result.Trades,
		}
		if err := store.SaveRun(ctx, run); err != nil {
			logger.Error("Failed to save run",
				logger.ErrorField(err),
				logger.String("session", run.Session),
			)
			continue
		}
		if publisher != nil {
			if err := publisher.PublishRun(ctx, run); err != nil {
				logger.Warn("Failed to publish run",
					logger.ErrorField(err),
					logger.String("run_id", run.ID),
				)
			}
		}
	}

	stats := backtest.Aggregate(results)
	logger.Info("Backtest complete",
		logger.Int("sessions", stats.Sessions),
		logger.Int("trades", stats.Trades),
		logger.Float64("total_pnl", stats.TotalPnL),
		logger.Float64("win_rate", stats.WinRate),
		logger.String("best_session", stats.BestSession),
		logger.Float64("best_pnl", stats.BestPnL),
		logger.String("worst_session", stats.WorstSession),
		logger.Float64("worst_pnl", stats.WorstPnL),
	)
}
