package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/floatband/bandscan/internal/config"
	"github.com/floatband/bandscan/internal/models"
	"github.com/floatband/bandscan/pkg/logger"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Metrics for run store operations
	runStoreOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "run_store_operations_total",
			Help: "Total number of run store operations",
		},
		[]string{"operation", "status"},
	)

	runStoreLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "run_store_latency_seconds",
			Help:    "Run store operation latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		},
		[]string{"operation"},
	)
)

// PostgresStore implements RunStore backed by PostgreSQL
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore connects to PostgreSQL and ensures the schema exists
func NewPostgresStore(dbConfig config.DatabaseConfig) (*PostgresStore, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		dbConfig.Host,
		dbConfig.Port,
		dbConfig.User,
		dbConfig.Password,
		dbConfig.Database,
		dbConfig.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(dbConfig.MaxConnections)
	db.SetMaxIdleConns(dbConfig.MaxIdleConns)
	db.SetConnMaxLifetime(dbConfig.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("Connected to PostgreSQL",
		logger.String("host", dbConfig.Host),
		logger.Int("port", dbConfig.Port),
		logger.String("database", dbConfig.Database),
	)
	return store, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id         UUID PRIMARY KEY,
			symbol     TEXT NOT NULL,
			session    TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			bars       INTEGER NOT NULL,
			total_pnl  DOUBLE PRECISION NOT NULL,
			win_rate   DOUBLE PRECISION NOT NULL
		);
		CREATE TABLE IF NOT EXISTS trades (
			run_id      UUID NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			seq         INTEGER NOT NULL,
			entry_time  TIMESTAMPTZ NOT NULL,
			side        TEXT NOT NULL,
			entry_price DOUBLE PRECISION NOT NULL,
			exit_time   TIMESTAMPTZ NOT NULL,
			exit_price  DOUBLE PRECISION NOT NULL,
			reason      TEXT NOT NULL,
			pnl         DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (run_id, seq)
		);
		CREATE INDEX IF NOT EXISTS idx_runs_symbol_created ON runs (symbol, created_at DESC);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// SaveRun writes a run and its trades in one transaction
func (s *PostgresStore) SaveRun(ctx context.Context, run *Run) error {
	if err := ValidateRunID(run.ID); err != nil {
		return err
	}

	start := time.Now()
	err := s.saveRun(ctx, run)
	runStoreLatency.WithLabelValues("save").Observe(time.Since(start).Seconds())
	if err != nil {
		runStoreOpsTotal.WithLabelValues("save", "error").Inc()
		return err
	}
	runStoreOpsTotal.WithLabelValues("save", "success").Inc()

	logger.Debug("run saved",
		logger.String("run_id", run.ID),
		logger.String("session", run.Session),
		logger.Int("trades", len(run.Trades)),
	)
	return nil
}

func (s *PostgresStore) saveRun(ctx context.Context, run *Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, symbol, session, created_at, bars, total_pnl, win_rate)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, run.ID, run.Symbol, run.Session, run.CreatedAt, run.Bars, run.TotalPnL, run.WinRate)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trades (run_id, seq, entry_time, side, entry_price, exit_time, exit_price, reason, pnl)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, trade := range run.Trades {
		_, err := stmt.ExecContext(ctx,
			run.ID,
			i,
			trade.EntryTime,
			trade.Side,
			trade.EntryPrice,
			trade.ExitTime,
			trade.ExitPrice,
			trade.Reason,
			trade.PnL,
		)
		if err != nil {
			return fmt.Errorf("failed to insert trade %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetRun loads a run with its trades
func (s *PostgresStore) GetRun(ctx context.Context, id string) (*Run, error) {
	if err := ValidateRunID(id); err != nil {
		return nil, err
	}

	start := time.Now()
	run, err := s.getRun(ctx, id)
	runStoreLatency.WithLabelValues("get").Observe(time.Since(start).Seconds())
	if err != nil {
		status := "error"
		if errors.Is(err, models.ErrRunNotFound) {
			status = "not_found"
		}
		runStoreOpsTotal.WithLabelValues("get", status).Inc()
		return nil, err
	}
	runStoreOpsTotal.WithLabelValues("get", "success").Inc()
	return run, nil
}

func (s *PostgresStore) getRun(ctx context.Context, id string) (*Run, error) {
	var run Run
	err := s.db.QueryRowContext(ctx, `
		SELECT id, symbol, session, created_at, bars, total_pnl, win_rate
		FROM runs WHERE id = $1
	`, id).Scan(&run.ID, &run.Symbol, &run.Session, &run.CreatedAt, &run.Bars, &run.TotalPnL, &run.WinRate)
	if err == sql.ErrNoRows {
		return nil, models.ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT entry_time, side, entry_price, exit_time, exit_price, reason, pnl
		FROM trades WHERE run_id = $1 ORDER BY seq ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var trade models.Trade
		if err := rows.Scan(
			&trade.EntryTime,
			&trade.Side,
			&trade.EntryPrice,
			&trade.ExitTime,
			&trade.ExitPrice,
			&trade.Reason,
			&trade.PnL,
		); err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		run.Trades = append(run.Trades, trade)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return &run, nil
}

// ListRuns returns the most recent runs, newest first. An empty symbol
// matches every symbol; trades are not loaded.
func (s *PostgresStore) ListRuns(ctx context.Context, symbol string, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 50
	}

	start := time.Now()
	runs, err := s.listRuns(ctx, symbol, limit)
	runStoreLatency.WithLabelValues("list").Observe(time.Since(start).Seconds())
	if err != nil {
		runStoreOpsTotal.WithLabelValues("list", "error").Inc()
		return nil, err
	}
	runStoreOpsTotal.WithLabelValues("list", "success").Inc()
	return runs, nil
}

func (s *PostgresStore) listRuns(ctx context.Context, symbol string, limit int) ([]*Run, error) {
	query := `
		SELECT id, symbol, session, created_at, bars, total_pnl, win_rate
		FROM runs
		WHERE ($1 = '' OR symbol = $1)
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.Symbol, &run.Session, &run.CreatedAt, &run.Bars, &run.TotalPnL, &run.WinRate); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, &run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return runs, nil
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}
	return nil
}
