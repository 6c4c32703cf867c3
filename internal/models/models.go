package models

import (
	"time"
)

// Signal is the discrete label assigned to a bar by the strategy engine.
// At most one non-empty signal is ever assigned to a bar.
type Signal string

const (
	SignalNone          Signal = ""
	SignalInitial       Signal = "Initial"
	SignalGoingHigh     Signal = "GoingHigh"
	SignalGoingDown     Signal = "GoingDown"
	SignalUpperBreakout Signal = "UBStock"
	SignalLowerBreakout Signal = "LBStock"
	SignalBuy           Signal = "BUYStock"
	SignalSell          Signal = "SELLStock"
	SignalEODSquareOff  Signal = "EOD_SQUAREOFF"
)

// Side is the direction of a trade
type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// ExitReason describes why a position was closed
type ExitReason string

const (
	ExitReversal        ExitReason = "REVERSAL"
	ExitDirectionChange ExitReason = "DIRECTION_CHANGE_EXIT"
	ExitEOD             ExitReason = "EOD"
	ExitEODFinal        ExitReason = "EOD_FINAL"
)

// Bar represents a single finalized OHLCV bar of a trading session.
// Bars are read-only during processing; volume defaults to 0 when the
// source does not carry it.
type Bar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Validate validates a Bar
func (b *Bar) Validate() error {
	if b.Time.IsZero() {
		return ErrInvalidTimestamp
	}
	if b.High < b.Low {
		return ErrInvalidBar
	}
	if b.Volume < 0 {
		return ErrInvalidVolume
	}
	return nil
}

// Band is the price envelope derived from a bar's high/low
type Band struct {
	Range float64 `json:"range"`
	Upper float64 `json:"upper"`
	Lower float64 `json:"lower"`
}

// AnnotatedBar is a Bar plus its computed band and the signal label the
// strategy engine assigned to it
type AnnotatedBar struct {
	Bar
	Range  float64 `json:"band_range"`
	Upper  float64 `json:"upper_band"`
	Lower  float64 `json:"lower_band"`
	Signal Signal  `json:"signal"`
}

// Trade is a completed round trip. A Trade is created exactly once when a
// position closes and is never mutated afterwards.
type Trade struct {
	EntryTime  time.Time  `json:"entry_time"`
	Side       Side       `json:"side"`
	EntryPrice float64    `json:"entry_price"`
	ExitTime   time.Time  `json:"exit_time"`
	ExitPrice  float64    `json:"exit_price"`
	Reason     ExitReason `json:"reason"`
	PnL        float64    `json:"pnl"`
}

// Validate validates a Trade
func (t *Trade) Validate() error {
	if t.EntryTime.IsZero() || t.ExitTime.IsZero() {
		return ErrInvalidTimestamp
	}
	if t.Side != SideLong && t.Side != SideShort {
		return ErrInvalidSide
	}
	return nil
}

// Duration returns how long the position was held
func (t *Trade) Duration() time.Duration {
	return t.ExitTime.Sub(t.EntryTime)
}

// IsWin reports whether the trade closed with a positive P&L
func (t *Trade) IsWin() bool {
	return t.PnL > 0
}

// Position is an open trade held inside a session. It becomes a Trade
// when closed.
type Position struct {
	Side       Side      `json:"side"`
	EntryTime  time.Time `json:"entry_time"`
	EntryPrice float64   `json:"entry_price"`
}

// Close converts the open position into a completed Trade at the given
// exit price and time. PnL follows the side: exit-entry for LONG,
// entry-exit for SHORT.
func (p *Position) Close(exitTime time.Time, exitPrice float64, reason ExitReason) Trade {
	pnl := exitPrice - p.EntryPrice
	if p.Side == SideShort {
		pnl = p.EntryPrice - exitPrice
	}
	return Trade{
		EntryTime:  p.EntryTime,
		Side:       p.Side,
		EntryPrice: p.EntryPrice,
		ExitTime:   exitTime,
		ExitPrice:  exitPrice,
		Reason:     reason,
		PnL:        pnl,
	}
}
