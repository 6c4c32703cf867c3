package strategy

import (
	"fmt"
	"time"

	"github.com/floatband/bandscan/internal/models"
	"go.uber.org/zap"
)

// DefaultSquareOff is the default intraday cutoff (15:10) expressed as
// minutes since midnight in the bar timestamps' location.
const DefaultSquareOff = 15*60 + 10

// Config holds the strategy engine parameters
type Config struct {
	// SquareOff is the cutoff after which any open position is closed at
	// the bar's close price, in minutes since midnight.
	SquareOff int
}

// DefaultConfig returns the default engine configuration
func DefaultConfig() Config {
	return Config{SquareOff: DefaultSquareOff}
}

// Engine evaluates the floating-band rule cascade over one session's
// bars. An Engine is stateless across runs and safe to reuse; all
// session state lives inside a single Run call.
type Engine struct {
	config Config
	tracer Tracer
}

// NewEngine creates a new engine. A nil tracer disables tracing.
func NewEngine(config Config, tracer Tracer) *Engine {
	if config.SquareOff <= 0 {
		config.SquareOff = DefaultSquareOff
	}
	if tracer == nil {
		tracer = NopTracer()
	}
	return &Engine{config: config, tracer: tracer}
}

// Run folds the session's time-ordered bars through the rule cascade and
// returns the annotated series plus the ledger of completed trades.
//
// Every bar gets its own band recorded regardless of which rule consumed
// it, and at most one signal label. Rules are evaluated in strict
// priority order, first match wins:
//
//	1. end-of-day square-off
//	2. upper breakout (UBStock)
//	3. lower breakout (LBStock)
//	4. buy execution (BUYStock)
//	5. sell execution (SELLStock)
//	6. directional reversal
//	7. directional-bias flip (no trade)
//	8. momentum (GoingHigh / GoingDown)
//
// Session extremes are extended unconditionally after the cascade. An
// empty input yields empty outputs and no error. Bars must be presented
// in strictly increasing time order; the engine assumes OHLC-consistent
// bars (see data.Clean).
func (e *Engine) Run(bars []models.Bar) ([]models.AnnotatedBar, []models.Trade, error) {
	// Fail fast before any processing; no partial results escape.
	for i := range bars {
		if bars[i].Time.IsZero() {
			return nil, nil, fmt.Errorf("bar %d: %w", i, models.ErrInvalidTimestamp)
		}
		if i > 0 && !bars[i].Time.After(bars[i-1].Time) {
			return nil, nil, fmt.Errorf("bar %d: %w", i, models.ErrBarsOutOfOrder)
		}
	}

	annotated := make([]models.AnnotatedBar, 0, len(bars))
	trades := make([]models.Trade, 0)
	if len(bars) == 0 {
		return annotated, trades, nil
	}

	// Initial setup from bar 0: its band seeds the reference band and
	// the session extremes.
	first := bars[0]
	initialBand := ComputeBand(first.High, first.Low)
	annotated = append(annotated, annotate(first, initialBand, models.SignalInitial))
	st := newSessionState(first, initialBand)
	e.tracer.Event(0, first.Time, "initial setup",
		zap.Float64("high", first.High),
		zap.Float64("low", first.Low),
		zap.Float64("upper", initialBand.Upper),
		zap.Float64("lower", initialBand.Lower),
	)

	for i := 1; i < len(bars); i++ {
		bar := bars[i]
		band := ComputeBand(bar.High, bar.Low)
		out := annotate(bar, band, models.SignalNone)

		// Rule 1: end-of-day square-off. Skips the rest of the cascade
		// for this bar; the bar's own band is already recorded.
		if e.pastSquareOff(bar.Time) && st.position != nil {
			trade := st.position.Close(bar.Time, bar.Close, models.ExitEOD)
			trades = append(trades, trade)
			st.position = nil
			out.Signal = models.SignalEODSquareOff
			annotated = append(annotated, out)
			e.tracer.Event(i, bar.Time, "eod square-off",
				zap.Float64("exit_price", trade.ExitPrice),
				zap.Float64("pnl", trade.PnL),
			)
			continue
		}

		assigned := false

		// Rule 2: upper breakout. One shot per reference band; gated off
		// while a long is open or the bias is already up.
		if !assigned && !st.upperBreakoutSeen && bar.High > st.refUpper {
			switch {
			case st.position != nil && st.position.Side == models.SideLong:
				e.tracer.Event(i, bar.Time, "upper breakout ignored: long already open")
			case st.bias == dirUp:
				e.tracer.Event(i, bar.Time, "upper breakout ignored: bias up")
			default:
				out.Signal = models.SignalUpperBreakout
				st.upperBreakoutSeen = true
				st.buyValue = BuyTrigger(bar.High)
				st.hasBuyValue = true
				st.awaitingBuy = true
				assigned = true
				e.tracer.Event(i, bar.Time, "upper breakout",
					zap.Float64("high", bar.High),
					zap.Float64("reference_upper", st.refUpper),
					zap.Float64("buy_value", st.buyValue),
				)
			}
		}

		// Rule 3: lower breakout, the mirror of rule 2
		if !assigned && !st.lowerBreakoutSeen && bar.Low < st.refLower {
			switch {
			case st.position != nil && st.position.Side == models.SideShort:
				e.tracer.Event(i, bar.Time, "lower breakout ignored: short already open")
			case st.bias == dirDown:
				e.tracer.Event(i, bar.Time, "lower breakout ignored: bias down")
			default:
				out.Signal = models.SignalLowerBreakout
				st.lowerBreakoutSeen = true
				st.sellValue = SellTrigger(bar.Low)
				st.hasSellValue = true
				st.awaitingSell = true
				assigned = true
				e.tracer.Event(i, bar.Time, "lower breakout",
					zap.Float64("low", bar.Low),
					zap.Float64("reference_lower", st.refLower),
					zap.Float64("sell_value", st.sellValue),
				)
			}
		}

		// Rule 4: buy execution. Closes any open short as a reversal,
		// then goes long at the armed trigger price. Momentum tracking
		// restarts from the execution bar.
		if !assigned && st.awaitingBuy && st.hasBuyValue && bar.High >= st.buyValue {
			entry := st.buyValue
			out.Signal = models.SignalBuy
			if st.position != nil && st.position.Side == models.SideShort {
				closed := st.position.Close(bar.Time, entry, models.ExitReversal)
				trades = append(trades, closed)
				e.tracer.Event(i, bar.Time, "closed short on reversal", zap.Float64("pnl", closed.PnL))
			}
			st.position = &models.Position{Side: models.SideLong, EntryTime: bar.Time, EntryPrice: entry}
			st.trend = dirUp
			st.lastSignalBar = i
			st.awaitingBuy = false
			st.upperBreakoutSeen = false
			st.lowerBreakoutSeen = false
			st.resetExtremes(bar)
			assigned = true
			e.tracer.Event(i, bar.Time, "long opened", zap.Float64("entry", entry))
		}

		// Rule 5: sell execution, the mirror of rule 4
		if !assigned && st.awaitingSell && st.hasSellValue && bar.Low <= st.sellValue {
			entry := st.sellValue
			out.Signal = models.SignalSell
			if st.position != nil && st.position.Side == models.SideLong {
				closed := st.position.Close(bar.Time, entry, models.ExitReversal)
				trades = append(trades, closed)
				e.tracer.Event(i, bar.Time, "closed long on reversal", zap.Float64("pnl", closed.PnL))
			}
			st.position = &models.Position{Side: models.SideShort, EntryTime: bar.Time, EntryPrice: entry}
			st.trend = dirDown
			st.lastSignalBar = i
			st.awaitingSell = false
			st.upperBreakoutSeen = false
			st.lowerBreakoutSeen = false
			st.resetExtremes(bar)
			assigned = true
			e.tracer.Event(i, bar.Time, "short opened", zap.Float64("entry", entry))
		}

		// Rule 6: directional reversal. Tests the band of the bar that
		// last defined the trend (not the reference band) and executes
		// immediately at the raw, unrounded price.
		if !assigned && st.trend != dirNone && st.lastSignalBar < i {
			last := bars[st.lastSignalBar]
			lastBand := ComputeBand(last.High, last.Low)

			if st.trend == dirUp && bar.Low < lastBand.Lower {
				if st.position != nil && st.position.Side == models.SideLong {
					closed := st.position.Close(bar.Time, bar.Close, models.ExitDirectionChange)
					trades = append(trades, closed)
					e.tracer.Event(i, bar.Time, "closed long on direction change", zap.Float64("pnl", closed.PnL))
				}
				st.position = &models.Position{Side: models.SideShort, EntryTime: bar.Time, EntryPrice: bar.Low}
				out.Signal = models.SignalSell
				st.trend = dirDown
				st.lastSignalBar = i
				st.setReference(band, i)
				st.resetExtremes(bar)
				// The reversal consumes this band's lower breakout; the
				// upper side re-arms.
				st.upperBreakoutSeen = false
				st.lowerBreakoutSeen = true
				st.clearTriggers()
				assigned = true
				e.tracer.Event(i, bar.Time, "trend reversal up to down",
					zap.Float64("low", bar.Low),
					zap.Float64("last_signal_lower", lastBand.Lower),
					zap.Float64("entry", bar.Low),
				)
			} else if st.trend == dirDown && bar.High > lastBand.Upper {
				if st.position != nil && st.position.Side == models.SideShort {
					closed := st.position.Close(bar.Time, bar.Close, models.ExitDirectionChange)
					trades = append(trades, closed)
					e.tracer.Event(i, bar.Time, "closed short on direction change", zap.Float64("pnl", closed.PnL))
				}
				st.position = &models.Position{Side: models.SideLong, EntryTime: bar.Time, EntryPrice: bar.High}
				out.Signal = models.SignalBuy
				st.trend = dirUp
				st.lastSignalBar = i
				st.setReference(band, i)
				st.resetExtremes(bar)
				st.upperBreakoutSeen = true
				st.lowerBreakoutSeen = false
				st.clearTriggers()
				assigned = true
				e.tracer.Event(i, bar.Time, "trend reversal down to up",
					zap.Float64("high", bar.High),
					zap.Float64("last_signal_upper", lastBand.Upper),
					zap.Float64("entry", bar.High),
				)
			}
		}

		// Rule 7: directional-bias flip. Price crossed the current
		// reference band against the bias; both breakout types re-arm.
		// No trade and no label.
		if !assigned && st.bias != dirNone {
			if st.bias == dirUp && bar.Low < st.refLower {
				st.bias = dirDown
				st.upperBreakoutSeen = false
				st.lowerBreakoutSeen = false
				assigned = true
				e.tracer.Event(i, bar.Time, "bias flip up to down",
					zap.Float64("low", bar.Low),
					zap.Float64("reference_lower", st.refLower),
				)
			} else if st.bias == dirDown && bar.High > st.refUpper {
				st.bias = dirUp
				st.upperBreakoutSeen = false
				st.lowerBreakoutSeen = false
				assigned = true
				e.tracer.Event(i, bar.Time, "bias flip down to up",
					zap.Float64("high", bar.High),
					zap.Float64("reference_upper", st.refUpper),
				)
			}
		}

		// Rule 8: momentum. A new session extreme in the bias direction
		// (or with no bias yet) promotes this bar's band to be the new
		// reference. An extreme against the bias is ignored outright,
		// even if the bar also set an extreme in the bias direction.
		if !assigned {
			switch {
			case (st.bias == dirNone || st.bias == dirUp) && bar.High > st.sessionHighest:
				out.Signal = models.SignalGoingHigh
				st.sessionHighest = bar.High
				st.sessionLowest = bar.Low
				if st.bias == dirNone {
					st.bias = dirUp
				}
				st.setReference(band, i)
				st.lastSignalBar = i
				st.upperBreakoutSeen = false
				st.lowerBreakoutSeen = false
				st.hasBuyValue = false
				st.hasSellValue = false
				assigned = true
				e.tracer.Event(i, bar.Time, "going high",
					zap.Float64("high", bar.High),
					zap.Float64("new_upper", band.Upper),
					zap.Float64("new_lower", band.Lower),
				)
			case st.bias == dirDown && bar.High > st.sessionHighest:
				e.tracer.Event(i, bar.Time, "new high ignored: bias down")
			case (st.bias == dirNone || st.bias == dirDown) && bar.Low < st.sessionLowest:
				out.Signal = models.SignalGoingDown
				st.sessionLowest = bar.Low
				st.sessionHighest = bar.High
				if st.bias == dirNone {
					st.bias = dirDown
				}
				st.setReference(band, i)
				st.lastSignalBar = i
				st.upperBreakoutSeen = false
				st.lowerBreakoutSeen = false
				st.hasBuyValue = false
				st.hasSellValue = false
				assigned = true
				e.tracer.Event(i, bar.Time, "going down",
					zap.Float64("low", bar.Low),
					zap.Float64("new_upper", band.Upper),
					zap.Float64("new_lower", band.Lower),
				)
			case st.bias == dirUp && bar.Low < st.sessionLowest:
				e.tracer.Event(i, bar.Time, "new low ignored: bias up")
			}
		}

		// Rule 9: the extremes always extend, whoever consumed the bar
		st.extendExtremes(bar)

		annotated = append(annotated, out)
	}

	// Session close: square off anything still open at the last close
	if st.position != nil {
		last := bars[len(bars)-1]
		closed := st.position.Close(last.Time, last.Close, models.ExitEODFinal)
		trades = append(trades, closed)
		st.position = nil
		e.tracer.Event(len(bars)-1, last.Time, "final square-off",
			zap.Float64("exit_price", closed.ExitPrice),
			zap.Float64("pnl", closed.PnL),
		)
	}

	return annotated, trades, nil
}

// pastSquareOff reports whether the bar time has reached the cutoff
func (e *Engine) pastSquareOff(t time.Time) bool {
	minuteOfDay := t.Hour()*60 + t.Minute()
	return minuteOfDay >= e.config.SquareOff
}

func annotate(bar models.Bar, band models.Band, signal models.Signal) models.AnnotatedBar {
	return models.AnnotatedBar{
		Bar:    bar,
		Range:  band.Range,
		Upper:  band.Upper,
		Lower:  band.Lower,
		Signal: signal,
	}
}
