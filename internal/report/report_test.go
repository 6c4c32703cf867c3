package report

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/floatband/bandscan/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reportBar(minute int, high, low float64, signal models.Signal) models.AnnotatedBar {
	rng := high - low
	return models.AnnotatedBar{
		Bar: models.Bar{
			Time:   time.Date(2024, 7, 15, 9, minute, 0, 0, time.UTC),
			Open:   low,
			High:   high,
			Low:    low,
			Close:  high,
			Volume: 1000,
		},
		Range:  rng,
		Upper:  high + rng,
		Lower:  low - rng,
		Signal: signal,
	}
}

func reportTrade(side models.Side, entry, exit float64, reason models.ExitReason, held time.Duration) models.Trade {
	start := time.Date(2024, 7, 15, 9, 30, 0, 0, time.UTC)
	pnl := exit - entry
	if side == models.SideShort {
		pnl = entry - exit
	}
	return models.Trade{
		EntryTime:  start,
		Side:       side,
		EntryPrice: entry,
		ExitTime:   start.Add(held),
		ExitPrice:  exit,
		Reason:     reason,
		PnL:        pnl,
	}
}

func TestWriteAnnotated_ColumnOrder(t *testing.T) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	annotated := []models.AnnotatedBar{
		reportBar(15, 100, 90, models.SignalInitial),
		reportBar(16, 115, 95, models.SignalUpperBreakout),
	}
	require.NoError(t, WriteAnnotated(cw, annotated))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, []string{
		"time", "volume", "range", "high", "low", "upper_band", "lower_band", "signal",
	}, records[0])
	assert.Equal(t, []string{
		"2024-07-15T09:15:00Z", "1000", "10", "100", "90", "110", "80", "Initial",
	}, records[1])
	assert.Equal(t, "UBStock", records[2][7])
}

func TestWriteTrades(t *testing.T) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	trades := []models.Trade{
		reportTrade(models.SideLong, 115, 120, models.ExitEOD, 30*time.Minute),
	}
	require.NoError(t, WriteTrades(cw, trades))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{
		"2024-07-15T09:30:00Z", "LONG", "115", "2024-07-15T10:00:00Z", "120", "EOD", "5",
	}, records[1])
}

func TestWriteSession_CreatesFiles(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(filepath.Join(dir, "reports"))

	annotated := []models.AnnotatedBar{reportBar(15, 100, 90, models.SignalInitial)}
	trades := []models.Trade{
		reportTrade(models.SideLong, 115, 120, models.ExitEOD, 30*time.Minute),
	}
	require.NoError(t, w.WriteSession("RELIANCE_2024-07-15", annotated, trades))

	for _, name := range []string{
		"RELIANCE_2024-07-15_bars.csv",
		"RELIANCE_2024-07-15_trades.csv",
	} {
		_, err := os.Stat(filepath.Join(dir, "reports", name))
		assert.NoError(t, err, name)
	}
}

func TestSummarize(t *testing.T) {
	annotated := []models.AnnotatedBar{
		reportBar(15, 100, 90, models.SignalInitial),
		reportBar(16, 115, 95, models.SignalUpperBreakout),
		reportBar(17, 116, 108, models.SignalBuy),
		reportBar(18, 121, 118, models.SignalEODSquareOff),
	}
	trades := []models.Trade{
		reportTrade(models.SideLong, 115, 120, models.ExitEOD, 30*time.Minute),
		reportTrade(models.SideShort, 95, 111, models.ExitDirectionChange, 10*time.Minute),
	}

	summary := Summarize("RELIANCE_2024-07-15", annotated, trades)

	assert.Equal(t, 4, summary.Bars)
	assert.Equal(t, 2, summary.Trades)
	assert.Equal(t, 1, summary.Wins)
	assert.Equal(t, 1, summary.Losses)
	assert.Equal(t, 0.5, summary.WinRate)
	assert.Equal(t, -11.0, summary.TotalPnL)
	assert.Equal(t, 5.0, summary.BestTrade)
	assert.Equal(t, -16.0, summary.WorstTrade)
	assert.Equal(t, 20*time.Minute, summary.AvgDuration)

	assert.Equal(t, 1, summary.ExitReasons[models.ExitEOD])
	assert.Equal(t, 1, summary.ExitReasons[models.ExitDirectionChange])
	assert.Equal(t, 1, summary.SignalCounts[models.SignalUpperBreakout])
	assert.Equal(t, 1, summary.SignalCounts[models.SignalBuy])

	assert.Greater(t, summary.Indicators.VWAP, 0.0)
}

func TestSummarize_NoTrades(t *testing.T) {
	annotated := []models.AnnotatedBar{reportBar(15, 100, 90, models.SignalInitial)}

	summary := Summarize("quiet-day", annotated, nil)
	assert.Equal(t, 0, summary.Trades)
	assert.Zero(t, summary.TotalPnL)
	assert.Zero(t, summary.WinRate)
	assert.Empty(t, summary.ExitReasons)
}
