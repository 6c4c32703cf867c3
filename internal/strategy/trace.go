package strategy

import (
	"time"

	"go.uber.org/zap"
)

// Tracer receives a narration of the engine's internal decisions as it
// folds over a session. It is an observable side channel only; the
// annotated bars and the trade ledger remain the engine's outputs.
type Tracer interface {
	Event(barIndex int, barTime time.Time, event string, fields ...zap.Field)
}

type nopTracer struct{}

func (nopTracer) Event(int, time.Time, string, ...zap.Field) {}

// NopTracer returns a tracer that discards all events
func NopTracer() Tracer {
	return nopTracer{}
}

// zapTracer narrates engine decisions to a zap logger at debug level
type zapTracer struct {
	log *zap.Logger
}

// NewZapTracer returns a Tracer backed by the given zap logger
func NewZapTracer(log *zap.Logger) Tracer {
	return &zapTracer{log: log}
}

func (t *zapTracer) Event(barIndex int, barTime time.Time, event string, fields ...zap.Field) {
	base := []zap.Field{
		zap.Int("bar", barIndex),
		zap.Time("bar_time", barTime),
	}
	t.log.Debug(event, append(base, fields...)...)
}
