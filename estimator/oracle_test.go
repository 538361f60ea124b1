package estimator

import (
	"context"
	"fmt"
	"sync"

	"ledgerid/models"
	"ledgerid/oracle"
)

// linearOracle serves timestamp(h) = base + step*h for heights up to tip
type linearOracle struct {
	mu sync.Mutex

	tip  int64
	base int64
	step int64

	calls       int
	failCalls   map[int]bool   // 1-based call numbers that fail
	failHeights map[int64]bool // heights that always fail
	tipErr      error

	// onCall runs before each BlockAt answer, used to cancel mid flight
	onCall func(call int)
}

func newLinearOracle(tip, base, step int64) *linearOracle {
	return &linearOracle{
		tip:         tip,
		base:        base,
		step:        step,
		failCalls:   make(map[int]bool),
		failHeights: make(map[int64]bool),
	}
}

func (o *linearOracle) Tip(ctx context.Context) (models.Tip, error) {
	if o.tipErr != nil {
		return models.Tip{}, o.tipErr
	}
	return models.Tip{Height: o.tip}, nil
}

func (o *linearOracle) BlockAt(ctx context.Context, height int64) (models.Block, error) {
	o.mu.Lock()
	o.calls++
	call := o.calls
	fail := o.failCalls[call] || o.failHeights[height]
	onCall := o.onCall
	o.mu.Unlock()

	if onCall != nil {
		onCall(call)
	}
	if err := ctx.Err(); err != nil {
		return models.Block{}, err
	}
	if fail {
		return models.Block{}, fmt.Errorf("%w: injected failure at %d", oracle.ErrOracleUnavailable, height)
	}
	if height < 0 || height > o.tip {
		return models.Block{}, oracle.ErrBlockNotFound
	}
	return models.Block{Height: height, Timestamp: o.base + o.step*height}, nil
}

func (o *linearOracle) callCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.calls
}
