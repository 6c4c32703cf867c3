package storage

import (
	"context"
	"testing"
	"time"

	"github.com/floatband/bandscan/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storedRun(symbol, session string, createdAt time.Time, pnl float64) *Run {
	return &Run{
		ID:        NewRunID(),
		Symbol:    symbol,
		Session:   session,
		CreatedAt: createdAt,
		Bars:      4,
		TotalPnL:  pnl,
		WinRate:   1,
		Trades: []models.Trade{
			{
				EntryTime:  createdAt,
				Side:       models.SideLong,
				EntryPrice: 115,
				ExitTime:   createdAt.Add(30 * time.Minute),
				ExitPrice:  115 + pnl,
				Reason:     models.ExitEOD,
				PnL:        pnl,
			},
		},
	}
}

func TestMemoryStore_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	run := storedRun("RELIANCE", "2024-07-15", time.Now(), 5)
	require.NoError(t, store.SaveRun(ctx, run))

	got, err := store.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run, got)

	// The stored copy must be isolated from later caller mutations
	run.Trades[0].PnL = 999
	got, err = store.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, 5.0, got.Trades[0].PnL)
}

func TestMemoryStore_GetMissing(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.GetRun(context.Background(), NewRunID())
	assert.ErrorIs(t, err, models.ErrRunNotFound)
}

func TestMemoryStore_InvalidID(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	err := store.SaveRun(ctx, &Run{ID: "not-a-uuid"})
	assert.ErrorIs(t, err, models.ErrInvalidRunID)

	_, err = store.GetRun(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, models.ErrInvalidRunID)
}

func TestMemoryStore_ListRuns(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	base := time.Date(2024, 7, 15, 16, 0, 0, 0, time.UTC)
	oldest := storedRun("RELIANCE", "2024-07-13", base.Add(-48*time.Hour), 1)
	middle := storedRun("TCS", "2024-07-14", base.Add(-24*time.Hour), 2)
	newest := storedRun("RELIANCE", "2024-07-15", base, 3)
	for _, run := range []*Run{oldest, middle, newest} {
		require.NoError(t, store.SaveRun(ctx, run))
	}

	runs, err := store.ListRuns(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, newest.ID, runs[0].ID)
	assert.Equal(t, oldest.ID, runs[2].ID)
	assert.Nil(t, runs[0].Trades)

	runs, err = store.ListRuns(ctx, "RELIANCE", 10)
	require.NoError(t, err)
	assert.Len(t, runs, 2)

	runs, err = store.ListRuns(ctx, "", 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, newest.ID, runs[0].ID)
}
