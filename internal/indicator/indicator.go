package indicator

import (
	"fmt"
	"time"

	"github.com/floatband/bandscan/internal/models"
	"github.com/sdcoffey/big"
	"github.com/sdcoffey/techan"
)

// DefaultATRPeriod is the lookback used for session ATR when the caller
// does not override it
const DefaultATRPeriod = 14

// SessionStats holds the indicator values computed once over a full
// session of bars
type SessionStats struct {
	ATR  float64 `json:"atr"`
	VWAP float64 `json:"vwap"`
}

// Compute calculates session-level indicators over the given bars in a
// single pass. ATR uses atrPeriod (DefaultATRPeriod when <= 0); VWAP is
// taken over the entire session.
func Compute(bars []models.Bar, atrPeriod int) (SessionStats, error) {
	if len(bars) == 0 {
		return SessionStats{}, fmt.Errorf("compute indicators: no bars")
	}
	if atrPeriod <= 0 {
		atrPeriod = DefaultATRPeriod
	}

	series := newSeries(bars)
	atr := techan.NewAverageTrueRangeIndicator(series, atrPeriod)

	return SessionStats{
		ATR:  atr.Calculate(series.LastIndex()).Float(),
		VWAP: sessionVWAP(bars),
	}, nil
}

// sessionVWAP computes Sum(typical price * volume) / Sum(volume) over
// the whole session, with typical price = (H+L+C)/3. A session with no
// traded volume yields 0.
func sessionVWAP(bars []models.Bar) float64 {
	var totalPriceVolume float64
	var totalVolume int64

	for _, bar := range bars {
		typicalPrice := (bar.High + bar.Low + bar.Close) / 3.0
		totalPriceVolume += typicalPrice * float64(bar.Volume)
		totalVolume += bar.Volume
	}

	if totalVolume == 0 {
		return 0
	}
	return totalPriceVolume / float64(totalVolume)
}

// newSeries converts bars into a techan time series
func newSeries(bars []models.Bar) *techan.TimeSeries {
	series := techan.NewTimeSeries()
	for _, bar := range bars {
		candle := techan.NewCandle(techan.NewTimePeriod(bar.Time, time.Minute))
		candle.OpenPrice = big.NewDecimal(bar.Open)
		candle.MaxPrice = big.NewDecimal(bar.High)
		candle.MinPrice = big.NewDecimal(bar.Low)
		candle.ClosePrice = big.NewDecimal(bar.Close)
		candle.Volume = big.NewDecimal(float64(bar.Volume))
		series.AddCandle(candle)
	}
	return series
}
