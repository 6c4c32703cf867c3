package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/floatband/bandscan/internal/storage"
	"github.com/floatband/bandscan/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var (
	runsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "runs_published_total",
			Help: "Total number of run results published to the stream",
		},
		[]string{"status"},
	)

	publishLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "run_publish_latency_seconds",
			Help:    "Latency of publishing a run result in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		},
	)
)

// streamAdder is the slice of the Redis API the publisher needs
type streamAdder interface {
	XAdd(ctx context.Context, args *redis.XAddArgs) *redis.StringCmd
}

// RunPublisher publishes completed run results to a Redis stream
type RunPublisher struct {
	client streamAdder
	stream string
}

// NewRunPublisher creates a publisher writing to the named stream
func NewRunPublisher(client streamAdder, stream string) *RunPublisher {
	return &RunPublisher{client: client, stream: stream}
}

// PublishRun appends one run result to the stream. The full run is
// carried as a JSON payload next to the headline fields.
func (p *RunPublisher) PublishRun(ctx context.Context, run *storage.Run) error {
	payload, err := json.Marshal(run)
	if err != nil {
		runsPublishedTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("marshal run: %w", err)
	}

	start := time.Now()
	id, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"run_id":    run.ID,
			"symbol":    run.Symbol,
			"session":   run.Session,
			"total_pnl": strconv.FormatFloat(run.TotalPnL, 'f', -1, 64),
			"trades":    strconv.Itoa(len(run.Trades)),
			"payload":   payload,
		},
	}).Result()
	publishLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		runsPublishedTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("publish run %s: %w", run.ID, err)
	}

	runsPublishedTotal.WithLabelValues("success").Inc()
	logger.Debug("run published",
		logger.String("run_id", run.ID),
		logger.String("stream", p.stream),
		logger.String("message_id", id),
	)
	return nil
}
