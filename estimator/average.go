package estimator

import (
	"context"
	"math"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ledgerid/logger"
	"ledgerid/models"
)

// AverageStepBetween measures the seconds per block between two heights. Both
// blocks are fetched concurrently; if either fetch fails the other is aborted
// and the configured fallback is returned.
func (e *Estimator) AverageStepBetween(ctx context.Context, from int64, to int64) (float64, error) {
	if err := cancelled(ctx); err != nil {
		return 0, err
	}
	if from == to {
		return e.cfg.FallbackAverageStep, nil
	}

	var a, b models.Block
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		a, err = e.probe(gctx, from)
		return err
	})
	g.Go(func() error {
		var err error
		b, err = e.probe(gctx, to)
		return err
	})

	if err := g.Wait(); err != nil {
		if cerr := cancelled(ctx); cerr != nil {
			return 0, cerr
		}
		logger.Logger.Warn("average step probe failed, using fallback",
			zap.Int64("from", from), zap.Int64("to", to),
			zap.Float64("fallback", e.cfg.FallbackAverageStep), zap.Error(err))
		return e.cfg.FallbackAverageStep, nil
	}

	return math.Abs(float64(b.Timestamp-a.Timestamp)) / math.Abs(float64(to-from)), nil
}
