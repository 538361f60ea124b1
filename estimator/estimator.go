// Package estimator locates the ledger height for a wall clock time. The fast
// path refines a calibration table estimate with at most two oracle probes.
// The exact path binary searches the ledger.
package estimator

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"ledgerid/calibration"
	"ledgerid/logger"
	"ledgerid/models"
	"ledgerid/oracle"
)

const (
	DefaultSingleCallThreshold = 5
	DefaultToleranceSeconds    = 600
	DefaultFallbackAverageStep = 120.0
)

// ErrCancelled is returned when the caller's context is done. It wraps the
// context error and is never a domain failure.
var ErrCancelled = errors.New("height lookup cancelled")

// Config tunes the refinement protocol
type Config struct {
	// SingleCallThreshold is the largest correction, in blocks, accepted
	// after the first probe without validating it.
	SingleCallThreshold int64 `mapstructure:"single_call_threshold"`

	// ToleranceSeconds is how far the validated block may sit from the
	// target before a final local correction is applied.
	ToleranceSeconds int64 `mapstructure:"tolerance_seconds"`

	// FallbackAverageStep is returned by AverageStepBetween when a probe
	// fails.
	FallbackAverageStep float64 `mapstructure:"fallback_average_step"`
}

func DefaultConfig() Config {
	return Config{
		SingleCallThreshold: DefaultSingleCallThreshold,
		ToleranceSeconds:    DefaultToleranceSeconds,
		FallbackAverageStep: DefaultFallbackAverageStep,
	}
}

// Estimator has no mutable state; one instance may serve concurrent callers.
type Estimator struct {
	table  *calibration.Table
	oracle oracle.Oracle
	cfg    Config
}

func New(table *calibration.Table, o oracle.Oracle, cfg Config) *Estimator {
	return &Estimator{table: table, oracle: o, cfg: cfg}
}

// EstimateHeight is the table estimate alone. It makes no oracle calls.
func (e *Estimator) EstimateHeight(ts int64, tipHeight int64) int64 {
	return e.table.EstimateHeight(ts, tipHeight)
}

// HeightAt fetches the current tip and then refines the estimate for ts. There
// is no height bound without the tip, so a failed tip fetch is returned.
func (e *Estimator) HeightAt(ctx context.Context, ts int64) (int64, error) {
	if err := cancelled(ctx); err != nil {
		return 0, err
	}

	tip, err := e.oracle.Tip(ctx)
	if err != nil {
		if cerr := cancelled(ctx); cerr != nil {
			return 0, cerr
		}
		if !errors.Is(err, oracle.ErrOracleUnavailable) {
			err = fmt.Errorf("%w: %w", oracle.ErrOracleUnavailable, err)
		}
		return 0, err
	}
	return e.FetchHeightForTimestamp(ctx, ts, tip.Height)
}

// FetchHeightForTimestamp estimates the height for ts from the table and
// corrects it against the ledger using no more than two probes. A failed
// probe returns the best answer known at that point. The only error returned
// is ErrCancelled.
func (e *Estimator) FetchHeightForTimestamp(ctx context.Context, ts int64, tipHeight int64) (int64, error) {
	log := logger.Logger.With(zap.Int64("target", ts), zap.Int64("tip", tipHeight))

	ref := e.table.EstimateHeight(ts, tipHeight)

	refBlock, err := e.probe(ctx, ref)
	if err != nil {
		if errors.Is(err, ErrCancelled) {
			return 0, err
		}
		log.Warn("reference probe failed, using table estimate", zap.Int64("height", ref), zap.Error(err))
		return ref, nil
	}

	// the era average is taken at the observed timestamp, not the target
	avg := e.table.AverageStepForTimestamp(refBlock.Timestamp, tipHeight)
	diff := roundSteps(ts-refBlock.Timestamp, avg)
	adjusted := clamp(ref+diff, tipHeight)

	if abs(diff) <= e.cfg.SingleCallThreshold {
		return adjusted, nil
	}

	valBlock, err := e.probe(ctx, adjusted)
	if err != nil {
		if errors.Is(err, ErrCancelled) {
			return 0, err
		}
		log.Warn("validation probe failed, using first correction", zap.Int64("height", adjusted), zap.Error(err))
		return adjusted, nil
	}

	if abs(valBlock.Timestamp-ts) <= e.cfg.ToleranceSeconds {
		return adjusted, nil
	}

	steps := abs(adjusted - ref)
	span := abs(valBlock.Timestamp - refBlock.Timestamp)
	if steps == 0 || span == 0 {
		return adjusted, nil
	}
	localAvg := float64(span) / float64(steps)

	return clamp(adjusted+roundSteps(ts-valBlock.Timestamp, localAvg), tipHeight), nil
}

// probe fetches the block at height unless ctx is already done. A failure
// caused by cancellation is reported as ErrCancelled.
func (e *Estimator) probe(ctx context.Context, height int64) (models.Block, error) {
	if err := cancelled(ctx); err != nil {
		return models.Block{}, err
	}

	block, err := e.oracle.BlockAt(ctx, height)
	if err != nil {
		if cerr := cancelled(ctx); cerr != nil {
			return models.Block{}, cerr
		}
		return models.Block{}, err
	}
	return block, nil
}

func cancelled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrCancelled, err)
	}
	return nil
}

// roundSteps rounds halves towards +Inf, so -2.5 becomes -2 and 2.5 becomes 3.
func roundSteps(seconds int64, avg float64) int64 {
	return int64(math.Floor(float64(seconds)/avg + 0.5))
}

func clamp(height int64, tipHeight int64) int64 {
	if height > tipHeight {
		height = tipHeight
	}
	if height < 0 {
		return 0
	}
	return height
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
