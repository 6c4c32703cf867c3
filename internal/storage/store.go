package storage

import (
	"context"
	"time"

	"github.com/floatband/bandscan/internal/models"
	"github.com/google/uuid"
)

// Run is one persisted strategy run over a single session
type Run struct {
	ID        string         `json:"id"`
	Symbol    string         `json:"symbol"`
	Session   string         `json:"session"`
	CreatedAt time.Time      `json:"created_at"`
	Bars      int            `json:"bars"`
	TotalPnL  float64        `json:"total_pnl"`
	WinRate   float64        `json:"win_rate"`
	Trades    []models.Trade `json:"trades"`
}

// NewRunID returns a fresh run identifier
func NewRunID() string {
	return uuid.NewString()
}

// ValidateRunID checks that id is a well-formed run identifier
func ValidateRunID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return models.ErrInvalidRunID
	}
	return nil
}

// RunStore persists strategy runs and their trade ledgers
type RunStore interface {
	SaveRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, id string) (*Run, error)
	ListRuns(ctx context.Context, symbol string, limit int) ([]*Run, error)
	Close() error
}
