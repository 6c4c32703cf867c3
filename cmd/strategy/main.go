package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/floatband/bandscan/internal/backtest"
	"github.com/floatband/bandscan/internal/config"
	"github.com/floatband/bandscan/internal/report"
	"github.com/floatband/bandscan/internal/strategy"
	"github.com/floatband/bandscan/pkg/logger"
)

func main() {
	sessionFile := flag.String("session", "", "session CSV file under DATA_DIR to process")
	verbose := flag.Bool("trace", false, "emit per-bar rule trace events at debug level")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logLevel := cfg.LogLevel
	if *verbose {
		logLevel = "debug"
	}
	if err := logger.Init(logLevel, cfg.Environment); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *sessionFile == "" {
		logger.Fatal("no session file given, use -session")
	}

	squareOff, err := cfg.Strategy.SquareOffMinutes()
	if err != nil {
		logger.Fatal("Invalid square-off time", logger.ErrorField(err))
	}

	var tracer strategy.Tracer
	if *verbose {
		tracer = strategy.NewZapTracer(logger.Get())
	}
	engine := strategy.NewEngine(strategy.Config{SquareOff: squareOff}, tracer)

	logger.Info("Running strategy",
		logger.String("session", *sessionFile),
		logger.String("square_off", cfg.Strategy.SquareOffTime),
	)

	runner := backtest.NewRunner(cfg.Data.DataDir, engine, report.NewWriter(cfg.Data.ReportDir))
	result, err := runner.RunSession(*sessionFile)
	if err != nil {
		logger.Fatal("Strategy run failed", logger.ErrorField(err))
	}

	summary := result.Summary
	logger.Info("Run complete",
		logger.String("session", summary.Session),
		logger.Int("bars", summary.Bars),
		logger.Int("trades", summary.Trades),
		logger.Float64("total_pnl", summary.TotalPnL),
		logger.Float64("win_rate", summary.WinRate),
		logger.Float64("atr", summary.Indicators.ATR),
		logger.Float64("vwap", summary.Indicators.VWAP),
	)
}
