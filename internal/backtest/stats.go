package backtest

// AggregateStats rolls per-session results up into a single view of the
// whole backtest
type AggregateStats struct {
	Sessions     int     `json:"sessions"`
	Trades       int     `json:"trades"`
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`
	WinRate      float64 `json:"win_rate"`
	TotalPnL     float64 `json:"total_pnl"`
	BestSession  string  `json:"best_session"`
	BestPnL      float64 `json:"best_pnl"`
	WorstSession string  `json:"worst_session"`
	WorstPnL     float64 `json:"worst_pnl"`
}

// Aggregate combines per-session results. With no results it returns
// the zero stats.
func Aggregate(results []SessionResult) AggregateStats {
	stats := AggregateStats{Sessions: len(results)}
	if len(results) == 0 {
		return stats
	}

	stats.BestSession = results[0].Session
	stats.BestPnL = results[0].Summary.TotalPnL
	stats.WorstSession = results[0].Session
	stats.WorstPnL = results[0].Summary.TotalPnL

	for _, result := range results {
		summary := result.Summary
		stats.Trades += summary.Trades
		stats.Wins += summary.Wins
		stats.Losses += summary.Losses
		stats.TotalPnL += summary.TotalPnL
		if summary.TotalPnL > stats.BestPnL {
			stats.BestSession = result.Session
			stats.BestPnL = summary.TotalPnL
		}
		if summary.TotalPnL < stats.WorstPnL {
			stats.WorstSession = result.Session
			stats.WorstPnL = summary.TotalPnL
		}
	}
	if stats.Trades > 0 {
		stats.WinRate = float64(stats.Wins) / float64(stats.Trades)
	}
	return stats
}
