package backtest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/floatband/bandscan/internal/data"
	"github.com/floatband/bandscan/internal/models"
	"github.com/floatband/bandscan/internal/report"
	"github.com/floatband/bandscan/internal/strategy"
	"github.com/floatband/bandscan/pkg/logger"
)

// SessionResult is the outcome of running the strategy over one session
// file
type SessionResult struct {
	Session   string                `json:"session"`
	Annotated []models.AnnotatedBar `json:"annotated"`
	Trades    []models.Trade        `json:"trades"`
	Clean     data.CleanReport      `json:"clean"`
	Summary   report.SessionSummary `json:"summary"`
}

// Runner runs the strategy over every session file in a data directory.
// The report writer is optional; with a nil writer no files are written.
type Runner struct {
	dataDir string
	engine  *strategy.Engine
	writer  *report.Writer
}

// NewRunner creates a backtest runner over dataDir
func NewRunner(dataDir string, engine *strategy.Engine, writer *report.Writer) *Runner {
	return &Runner{dataDir: dataDir, engine: engine, writer: writer}
}

// Run processes every *.csv session in the data directory, in name
// order, and returns the per-session results. A session that fails to
// load or run aborts the whole backtest; cleaning only drops bars.
func (r *Runner) Run() ([]SessionResult, error) {
	sessions, err := r.discover()
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, fmt.Errorf("no session files in %s", r.dataDir)
	}

	results := make([]SessionResult, 0, len(sessions))
	loader := data.NewLoader(r.dataDir)
	for _, name := range sessions {
		result, err := r.runSession(loader, name)
		if err != nil {
			return nil, fmt.Errorf("session %s: %w", name, err)
		}
		results = append(results, result)
	}
	return results, nil
}

// RunSession runs a single named session file
func (r *Runner) RunSession(name string) (SessionResult, error) {
	return r.runSession(data.NewLoader(r.dataDir), name)
}

func (r *Runner) runSession(loader *data.Loader, name string) (SessionResult, error) {
	raw, err := loader.LoadSession(name)
	if err != nil {
		return SessionResult{}, err
	}

	bars, cleanReport := data.Clean(raw)
	annotated, trades, err := r.engine.Run(bars)
	if err != nil {
		return SessionResult{}, err
	}

	session := sessionName(name)
	result := SessionResult{
		Session:   session,
		Annotated: annotated,
		Trades:    trades,
		Clean:     cleanReport,
		Summary:   report.Summarize(session, annotated, trades),
	}

	if r.writer != nil {
		if err := r.writer.WriteSession(session, annotated, trades); err != nil {
			return SessionResult{}, err
		}
	}

	logger.Info("session complete",
		logger.String("session", session),
		logger.Int("bars", len(annotated)),
		logger.Int("trades", len(trades)),
		logger.Float64("pnl", result.Summary.TotalPnL),
	)
	return result, nil
}

// discover lists the *.csv files of the data directory in name order
func (r *Runner) discover() ([]string, error) {
	entries, err := os.ReadDir(r.dataDir)
	if err != nil {
		return nil, fmt.Errorf("read data dir: %w", err)
	}

	var sessions []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".csv") {
			sessions = append(sessions, entry.Name())
		}
	}
	sort.Strings(sessions)
	return sessions, nil
}

// sessionName strips the extension from a session file name
func sessionName(file string) string {
	return strings.TrimSuffix(file, filepath.Ext(file))
}
