// Package retention removes rows past their retention deadline across the
// persistence tables.
package retention

import (
	"context"
	"time"

	"go.uber.org/zap"

	"chessmate-backend/application/ports"
	"chessmate-backend/pkg/observability"
)

var deleteBackoff = []time.Duration{200 * time.Millisecond, 500 * time.Millisecond, time.Second}

// Result summarizes one sweep of one table.
type Result struct {
	Table    string
	Scanned  int
	Deleted  int
	Failures int
}

// Sweeper scans each configured store for expired rows and deletes them
// with bounded retry. A row that keeps failing counts as a failure and the
// sweep moves on; the next run picks it up again.
type Sweeper struct {
	stores  []ports.RetentionStore
	clock   ports.Clock
	logger  *zap.Logger
	metrics *observability.Collector
	sleep   func(ctx context.Context, d time.Duration) error
}

func NewSweeper(stores []ports.RetentionStore, clock ports.Clock, logger *zap.Logger, metrics *observability.Collector) *Sweeper {
	return &Sweeper{
		stores:  stores,
		clock:   clock,
		logger:  logger.Named("retention"),
		metrics: metrics,
		sleep:   sleepCtx,
	}
}

// Run sweeps every store once and returns per-table results.
func (s *Sweeper) Run(ctx context.Context) ([]Result, error) {
	now := s.clock.Now().UTC()
	results := make([]Result, 0, len(s.stores))

	for _, store := range s.stores {
		result, err := s.sweepStore(ctx, store, now)
		if err != nil {
			return results, err
		}
		results = append(results, result)

		s.logger.Info("retention sweep completed",
			zap.String("table", result.Table),
			zap.Int("scanned", result.Scanned),
			zap.Int("deleted", result.Deleted),
			zap.Int("failures", result.Failures),
			zap.Time("runAt", now))
	}

	return results, nil
}

func (s *Sweeper) sweepStore(ctx context.Context, store ports.RetentionStore, now time.Time) (Result, error) {
	result := Result{Table: store.TableName()}

	expired, err := store.ScanExpired(ctx, now)
	if err != nil {
		return result, err
	}

	for _, item := range expired {
		result.Scanned++
		s.metrics.RetentionScanned.Inc()

		if s.deleteWithBackoff(ctx, store, item) {
			result.Deleted++
			s.metrics.RetentionDeleted.Inc()
		} else {
			result.Failures++
			s.metrics.RetentionFailed.Inc()
		}
	}

	return result, nil
}

func (s *Sweeper) deleteWithBackoff(ctx context.Context, store ports.RetentionStore, item ports.RetentionItem) bool {
	for attempt := 0; attempt < len(deleteBackoff); attempt++ {
		err := store.Delete(ctx, item)
		if err == nil {
			return true
		}
		s.logger.Warn("expired row delete failed",
			zap.String("table", store.TableName()),
			zap.String("pk", item.PK),
			zap.Int("attempt", attempt+1),
			zap.Error(err))
		if s.sleep(ctx, deleteBackoff[attempt]) != nil {
			return false
		}
	}
	return false
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
