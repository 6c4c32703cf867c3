package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/floatband/bandscan/internal/models"
	"github.com/floatband/bandscan/pkg/logger"
)

// annotatedHeader is the fixed column order of an annotated session file
var annotatedHeader = []string{
	"time", "volume", "range", "high", "low", "upper_band", "lower_band", "signal",
}

var tradeHeader = []string{
	"entry_time", "side", "entry_price", "exit_time", "exit_price", "reason", "pnl",
}

// Writer writes session results as CSV files under a base directory
type Writer struct {
	baseDir string
}

// NewWriter creates a report writer rooted at baseDir
func NewWriter(baseDir string) *Writer {
	return &Writer{baseDir: baseDir}
}

// WriteSession writes the annotated bars and the trade ledger for one
// session. Files are named <name>_bars.csv and <name>_trades.csv.
func (w *Writer) WriteSession(name string, annotated []models.AnnotatedBar, trades []models.Trade) error {
	if err := os.MkdirAll(w.baseDir, 0755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}

	barsPath := filepath.Join(w.baseDir, name+"_bars.csv")
	if err := writeFile(barsPath, func(cw *csv.Writer) error {
		return WriteAnnotated(cw, annotated)
	}); err != nil {
		return err
	}

	tradesPath := filepath.Join(w.baseDir, name+"_trades.csv")
	if err := writeFile(tradesPath, func(cw *csv.Writer) error {
		return WriteTrades(cw, trades)
	}); err != nil {
		return err
	}

	logger.Info("session report written",
		logger.String("session", name),
		logger.Int("bars", len(annotated)),
		logger.Int("trades", len(trades)),
	)
	return nil
}

// WriteAnnotated writes the annotated bar series to cw
func WriteAnnotated(cw *csv.Writer, annotated []models.AnnotatedBar) error {
	if err := cw.Write(annotatedHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, a := range annotated {
		record := []string{
			a.Time.Format(time.RFC3339),
			strconv.FormatInt(a.Volume, 10),
			formatPrice(a.Range),
			formatPrice(a.High),
			formatPrice(a.Low),
			formatPrice(a.Upper),
			formatPrice(a.Lower),
			string(a.Signal),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write bar %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTrades writes the trade ledger to cw
func WriteTrades(cw *csv.Writer, trades []models.Trade) error {
	if err := cw.Write(tradeHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, trade := range trades {
		record := []string{
			trade.EntryTime.Format(time.RFC3339),
			string(trade.Side),
			formatPrice(trade.EntryPrice),
			trade.ExitTime.Format(time.RFC3339),
			formatPrice(trade.ExitPrice),
			string(trade.Reason),
			formatPrice(trade.PnL),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write trade %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeFile(path string, write func(*csv.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if err := write(csv.NewWriter(f)); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
