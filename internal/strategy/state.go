package strategy

import (
	"github.com/floatband/bandscan/internal/models"
)

// direction is a trend or bias direction
type direction int

const (
	dirNone direction = iota
	dirUp
	dirDown
)

func (d direction) String() string {
	switch d {
	case dirUp:
		return "UP"
	case dirDown:
		return "DOWN"
	default:
		return "NONE"
	}
}

// sessionState carries every mutable piece of a single session run:
// momentum extremes, the reference band under breakout test, the
// trend/bias directions, armed triggers and the open position. A fresh
// state is created per Run call and discarded when the fold completes;
// it is never shared across runs.
type sessionState struct {
	// Running session extremes for momentum detection
	sessionHighest float64
	sessionLowest  float64

	// Reference band currently used for breakout testing. Updated by
	// momentum events and reversals, not by trade executions.
	refUpper float64
	refLower float64
	refBar   int

	// trend is the direction implied by the last executed trade; bias is
	// the directional gate deciding which breakout type may fire. They
	// are related but deliberately distinct pieces of state.
	trend direction
	bias  direction

	// Index of the bar that last defined the trend. Reversals recompute
	// that bar's own band, not the reference band.
	lastSignalBar int

	// Whether the current reference band has already produced its one
	// breakout of each type
	upperBreakoutSeen bool
	lowerBreakoutSeen bool

	// Armed triggers. An execution requires both the awaiting flag and a
	// live value; momentum events clear the values, executions clear the
	// awaiting flags.
	buyValue     float64
	hasBuyValue  bool
	awaitingBuy  bool
	sellValue    float64
	hasSellValue bool
	awaitingSell bool

	position *models.Position
}

// newSessionState seeds the state from the session's first bar and its
// band. No trade, no direction yet.
func newSessionState(first models.Bar, band models.Band) *sessionState {
	return &sessionState{
		sessionHighest: first.High,
		sessionLowest:  first.Low,
		refUpper:       band.Upper,
		refLower:       band.Lower,
		refBar:         0,
		lastSignalBar:  0,
	}
}

// setReference promotes the given band to be the new reference band
func (s *sessionState) setReference(band models.Band, barIndex int) {
	s.refUpper = band.Upper
	s.refLower = band.Lower
	s.refBar = barIndex
}

// resetExtremes restarts momentum tracking from the given bar
func (s *sessionState) resetExtremes(bar models.Bar) {
	s.sessionHighest = bar.High
	s.sessionLowest = bar.Low
}

// extendExtremes unconditionally widens the session extremes. Runs for
// every bar so momentum tracking stays correct even while another rule
// consumed the bar.
func (s *sessionState) extendExtremes(bar models.Bar) {
	if bar.High > s.sessionHighest {
		s.sessionHighest = bar.High
	}
	if bar.Low < s.sessionLowest {
		s.sessionLowest = bar.Low
	}
}

// clearTriggers drops any armed trigger values and awaiting flags
func (s *sessionState) clearTriggers() {
	s.hasBuyValue = false
	s.awaitingBuy = false
	s.hasSellValue = false
	s.awaitingSell = false
}
