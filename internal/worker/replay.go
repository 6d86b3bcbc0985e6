package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dheerajsingh9334/mern-Blog/internal/usecase"
)

const defaultReplayInterval = time.Minute

// EventReplayer re-applies stored payment events that are pending or due
// for a retry.
type EventReplayer interface {
	Replay(ctx context.Context, limit int) (*usecase.ReplaySummary, error)
}

// Replayer periodically drains deferred and failed payment events.
type Replayer struct {
	ingest    EventReplayer
	interval  time.Duration
	batchSize int
	logger    *zap.Logger
}

func NewReplayer(ingest EventReplayer, interval time.Duration, batchSize int, logger *zap.Logger) *Replayer {
	if interval <= 0 {
		interval = defaultReplayInterval
	}
	return &Replayer{
		ingest:    ingest,
		interval:  interval,
		batchSize: batchSize,
		logger:    logger.Named("replayer"),
	}
}

// Start runs one pass immediately, then one per interval until ctx is done.
func (r *Replayer) Start(ctx context.Context) {
	r.run(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Replayer stopped")
			return
		case <-ticker.C:
			r.run(ctx)
		}
	}
}

func (r *Replayer) run(ctx context.Context) {
	summary, err := r.ingest.Replay(ctx, r.batchSize)
	if err != nil {
		if ctx.Err() == nil {
			r.logger.Error("Replay pass failed", zap.Error(err))
		}
		return
	}

	if summary == nil || summary.Scanned == 0 {
		return
	}

	r.logger.Info("Replay pass finished",
		zap.Int("scanned", summary.Scanned),
		zap.Int("processed", summary.Processed),
		zap.Int("rejected", summary.Rejected),
		zap.Int("deferred", summary.Deferred),
		zap.Int("duplicates", summary.Duplicates),
		zap.Int("failed", summary.Failed),
	)
}
