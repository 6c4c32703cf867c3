package report

import (
	"time"

	"github.com/floatband/bandscan/internal/indicator"
	"github.com/floatband/bandscan/internal/models"
	"github.com/floatband/bandscan/pkg/logger"
)

// SessionSummary aggregates one session's results into headline numbers
type SessionSummary struct {
	Session      string                    `json:"session"`
	Bars         int                       `json:"bars"`
	Trades       int                       `json:"trades"`
	Wins         int                       `json:"wins"`
	Losses       int                       `json:"losses"`
	WinRate      float64                   `json:"win_rate"`
	TotalPnL     float64                   `json:"total_pnl"`
	BestTrade    float64                   `json:"best_trade"`
	WorstTrade   float64                   `json:"worst_trade"`
	AvgDuration  time.Duration             `json:"avg_duration"`
	ExitReasons  map[models.ExitReason]int `json:"exit_reasons"`
	SignalCounts map[models.Signal]int     `json:"signal_counts"`
	Indicators   indicator.SessionStats    `json:"indicators"`
}

// Summarize computes the summary for one session. Indicator values are
// computed over the raw bars of the annotated series; with no trades the
// trade-derived fields stay at their zero values.
func Summarize(session string, annotated []models.AnnotatedBar, trades []models.Trade) SessionSummary {
	summary := SessionSummary{
		Session:      session,
		Bars:         len(annotated),
		Trades:       len(trades),
		ExitReasons:  make(map[models.ExitReason]int),
		SignalCounts: make(map[models.Signal]int),
	}

	for _, a := range annotated {
		if a.Signal != models.SignalNone {
			summary.SignalCounts[a.Signal]++
		}
	}

	if len(annotated) > 0 {
		bars := make([]models.Bar, len(annotated))
		for i, a := range annotated {
			bars[i] = a.Bar
		}
		stats, err := indicator.Compute(bars, indicator.DefaultATRPeriod)
		if err != nil {
			logger.Warn("indicator computation failed",
				logger.String("session", session),
				logger.ErrorField(err),
			)
		} else {
			summary.Indicators = stats
		}
	}

	if len(trades) == 0 {
		return summary
	}

	var held time.Duration
	summary.BestTrade = trades[0].PnL
	summary.WorstTrade = trades[0].PnL
	for _, trade := range trades {
		summary.TotalPnL += trade.PnL
		held += trade.Duration()
		summary.ExitReasons[trade.Reason]++
		if trade.IsWin() {
			summary.Wins++
		} else {
			summary.Losses++
		}
		if trade.PnL > summary.BestTrade {
			summary.BestTrade = trade.PnL
		}
		if trade.PnL < summary.WorstTrade {
			summary.WorstTrade = trade.PnL
		}
	}
	summary.WinRate = float64(summary.Wins) / float64(len(trades))
	summary.AvgDuration = held / time.Duration(len(trades))
	return summary
}
