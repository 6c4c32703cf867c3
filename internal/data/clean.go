package data

import (
	"github.com/floatband/bandscan/internal/models"
	"github.com/floatband/bandscan/pkg/logger"
)

// CleanReport summarizes what Clean removed from a session
type CleanReport struct {
	Input        int
	Kept         int
	DroppedOHLC  int
	DroppedOrder int
}

// Clean filters a loaded session down to bars the engine can trust. It
// drops bars whose OHLC values are internally inconsistent and bars
// whose timestamp does not strictly advance past the previous kept bar.
// Input order is preserved; the input slice is not modified.
func Clean(bars []models.Bar) ([]models.Bar, CleanReport) {
	report := CleanReport{Input: len(bars)}
	cleaned := make([]models.Bar, 0, len(bars))

	for i, bar := range bars {
		if err := bar.Validate(); err != nil {
			report.DroppedOHLC++
			logger.Warn("dropping inconsistent bar",
				logger.Int("row", i),
				logger.Time("time", bar.Time),
				logger.ErrorField(err),
			)
			continue
		}
		if n := len(cleaned); n > 0 && !bar.Time.After(cleaned[n-1].Time) {
			report.DroppedOrder++
			logger.Warn("dropping out-of-order bar",
				logger.Int("row", i),
				logger.Time("time", bar.Time),
			)
			continue
		}
		cleaned = append(cleaned, bar)
	}

	report.Kept = len(cleaned)
	return cleaned, report
}
