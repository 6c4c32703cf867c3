package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/floatband/bandscan/internal/models"
	"github.com/floatband/bandscan/internal/storage"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStream struct {
	args *redis.XAddArgs
	err  error
}

func (f *fakeStream) XAdd(_ context.Context, args *redis.XAddArgs) *redis.StringCmd {
	f.args = args
	cmd := redis.NewStringCmd(context.Background())
	if f.err != nil {
		cmd.SetErr(f.err)
	} else {
		cmd.SetVal("1-0")
	}
	return cmd
}

func publishedRun() *storage.Run {
	entry := time.Date(2024, 7, 15, 9, 25, 0, 0, time.UTC)
	return &storage.Run{
		ID:        storage.NewRunID(),
		Symbol:    "RELIANCE",
		Session:   "2024-07-15",
		CreatedAt: entry,
		Bars:      4,
		TotalPnL:  5,
		WinRate:   1,
		Trades: []models.Trade{
			{
				EntryTime:  entry,
				Side:       models.SideLong,
				EntryPrice: 115,
				ExitTime:   entry.Add(30 * time.Minute),
				ExitPrice:  120,
				Reason:     models.ExitEOD,
				PnL:        5,
			},
		},
	}
}

func TestPublishRun(t *testing.T) {
	stream := &fakeStream{}
	publisher := NewRunPublisher(stream, "band.runs")

	run := publishedRun()
	require.NoError(t, publisher.PublishRun(context.Background(), run))

	require.NotNil(t, stream.args)
	assert.Equal(t, "band.runs", stream.args.Stream)

	values := stream.args.Values.(map[string]interface{})
	assert.Equal(t, run.ID, values["run_id"])
	assert.Equal(t, "RELIANCE", values["symbol"])
	assert.Equal(t, "5", values["total_pnl"])
	assert.Equal(t, "1", values["trades"])

	var decoded storage.Run
	require.NoError(t, json.Unmarshal(values["payload"].([]byte), &decoded))
	assert.Equal(t, run.ID, decoded.ID)
	assert.Len(t, decoded.Trades, 1)
}

func TestPublishRun_StreamError(t *testing.T) {
	stream := &fakeStream{err: errors.New("connection refused")}
	publisher := NewRunPublisher(stream, "band.runs")

	err := publisher.PublishRun(context.Background(), publishedRun())
	assert.Error(t, err)
}
