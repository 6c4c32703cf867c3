package strategy

import (
	"math"

	"github.com/floatband/bandscan/internal/models"
)

// ComputeBand derives a bar's price envelope from its high and low:
// range = high - low, upper = high + range, lower = low - range.
// Assumes high >= low; callers repair or drop inconsistent bars upstream
// (see the data package).
func ComputeBand(high, low float64) models.Band {
	r := high - low
	return models.Band{
		Range: r,
		Upper: high + r,
		Lower: low - r,
	}
}

// BuyTrigger refines a breakout high into the price a long entry is
// armed at. A fractional high rounds up to the next whole number; a
// whole-number high is used unchanged. Reversal entries bypass this and
// use the raw high.
func BuyTrigger(high float64) float64 {
	return math.Ceil(high)
}

// SellTrigger refines a breakout low into the price a short entry is
// armed at. A fractional low rounds down; a whole-number low is used
// unchanged. Reversal entries bypass this and use the raw low.
func SellTrigger(low float64) float64 {
	return math.Floor(low)
}
