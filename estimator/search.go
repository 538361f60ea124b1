package estimator

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"ledgerid/logger"
)

// SearchHeightForTimestamp binary searches [lo, hi] for the highest height
// whose timestamp does not exceed ts, returning early on an exact match. It
// costs at most floor(log2(hi-lo+1))+1 probes. When every height in the range
// is past ts the answer is lo-1. If a probe fails the search stops and returns
// lo-1 for the current lo, the best bound known at that point.
func (e *Estimator) SearchHeightForTimestamp(ctx context.Context, ts int64, lo int64, hi int64) (int64, error) {
	if lo < 0 {
		lo = 0
	}

	for lo <= hi {
		mid := lo + (hi-lo)/2

		block, err := e.probe(ctx, mid)
		if err != nil {
			if errors.Is(err, ErrCancelled) {
				return 0, err
			}
			best := max(lo-1, 0)
			logger.Logger.Warn("search probe failed, returning best bound",
				zap.Int64("target", ts), zap.Int64("height", mid), zap.Int64("best", best), zap.Error(err))
			return best, nil
		}

		switch {
		case block.Timestamp < ts:
			lo = mid + 1
		case block.Timestamp > ts:
			hi = mid - 1
		default:
			return mid, nil
		}
	}
	return max(hi, 0), nil
}
