package backtest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/floatband/bandscan/internal/models"
	"github.com/floatband/bandscan/internal/report"
	"github.com/floatband/bandscan/internal/strategy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A session with an upper breakout, a long entry at the rounded trigger
// and an end-of-day square-off.
const tradingSession = `time,open,high,low,close,volume
2024-07-15T09:15:00Z,95,100,90,98,1200
2024-07-15T09:20:00Z,99,115,95,112,2400
2024-07-15T09:25:00Z,112,116,108,114,1800
2024-07-15T15:10:00Z,118,121,118,120,900
`

// A session that never leaves its opening band.
const quietSession = `time,open,high,low,close,volume
2024-07-16T09:15:00Z,95,100,90,98,1200
2024-07-16T09:20:00Z,98,99,94,96,1100
`

func writeSessions(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}

func TestRunner_Run(t *testing.T) {
	dir := writeSessions(t, map[string]string{
		"RELIANCE_2024-07-15.csv": tradingSession,
		"RELIANCE_2024-07-16.csv": quietSession,
		"notes.txt":               "not a session",
	})

	runner := NewRunner(dir, strategy.NewEngine(strategy.DefaultConfig(), nil), nil)
	results, err := runner.Run()
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Name order: the trading day comes first
	first := results[0]
	assert.Equal(t, "RELIANCE_2024-07-15", first.Session)
	require.Len(t, first.Trades, 1)
	assert.Equal(t, models.SideLong, first.Trades[0].Side)
	assert.Equal(t, 5.0, first.Trades[0].PnL)
	assert.Equal(t, 4, first.Clean.Kept)

	second := results[1]
	assert.Equal(t, "RELIANCE_2024-07-16", second.Session)
	assert.Empty(t, second.Trades)
}

func TestRunner_WritesReports(t *testing.T) {
	dir := writeSessions(t, map[string]string{
		"RELIANCE_2024-07-15.csv": tradingSession,
	})
	reportDir := filepath.Join(dir, "reports")

	runner := NewRunner(dir,
		strategy.NewEngine(strategy.DefaultConfig(), nil),
		report.NewWriter(reportDir),
	)
	_, err := runner.Run()
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(reportDir, "RELIANCE_2024-07-15_bars.csv"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(reportDir, "RELIANCE_2024-07-15_trades.csv"))
	assert.NoError(t, err)
}

func TestRunner_EmptyDirFails(t *testing.T) {
	dir := t.TempDir()
	runner := NewRunner(dir, strategy.NewEngine(strategy.DefaultConfig(), nil), nil)

	_, err := runner.Run()
	assert.Error(t, err)
}

func TestRunner_BadSessionAborts(t *testing.T) {
	dir := writeSessions(t, map[string]string{
		"broken.csv": "time,open,high,low\nnot,enough,columns,here\n",
	})

	runner := NewRunner(dir, strategy.NewEngine(strategy.DefaultConfig(), nil), nil)
	_, err := runner.Run()
	assert.ErrorIs(t, err, models.ErrMissingColumn)
}

func TestAggregate(t *testing.T) {
	results := []SessionResult{
		{
			Session: "day-1",
			Summary: report.SessionSummary{Trades: 2, Wins: 1, Losses: 1, TotalPnL: -11},
		},
		{
			Session: "day-2",
			Summary: report.SessionSummary{Trades: 1, Wins: 1, TotalPnL: 5},
		},
		{
			Session: "day-3",
			Summary: report.SessionSummary{},
		},
	}

	stats := Aggregate(results)
	assert.Equal(t, 3, stats.Sessions)
	assert.Equal(t, 3, stats.Trades)
	assert.Equal(t, 2, stats.Wins)
	assert.Equal(t, 1, stats.Losses)
	assert.InDelta(t, 2.0/3.0, stats.WinRate, 1e-9)
	assert.Equal(t, -6.0, stats.TotalPnL)
	assert.Equal(t, "day-2", stats.BestSession)
	assert.Equal(t, 5.0, stats.BestPnL)
	assert.Equal(t, "day-1", stats.WorstSession)
	assert.Equal(t, -11.0, stats.WorstPnL)
}

func TestAggregate_Empty(t *testing.T) {
	stats := Aggregate(nil)
	assert.Equal(t, AggregateStats{}, stats)
}
