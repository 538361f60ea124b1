// Package calibration holds the milestone table used to turn a wall clock
// time into an approximate ledger height without asking the ledger.
package calibration

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrTooFewMilestones  = errors.New("a calibration table needs at least two milestones")
	ErrNegativeHeight    = errors.New("milestone heights must not be negative")
	ErrMilestoneOrdering = errors.New("milestone heights and timestamps must be strictly increasing")
)

// Point is a known (height, timestamp) pair on the ledger. Timestamps are unix
// seconds.
type Point struct {
	Height    int64 `json:"height" mapstructure:"height"`
	Timestamp int64 `json:"timestamp" mapstructure:"timestamp"`
}

// Milestone is a Point annotated with the average seconds per block observed
// between the previous milestone and this one. The first milestone carries the
// average of the first era.
type Milestone struct {
	Point
	AverageStep float64 `json:"average_step"`
}

// Table is an immutable, ascending list of milestones. Past the last
// milestone the average step is derived from the current tip and the clock.
type Table struct {
	milestones []Milestone
	now        func() time.Time
}

type Option func(*Table)

// WithClock replaces the clock used for the era after the last milestone.
func WithClock(now func() time.Time) Option {
	return func(t *Table) {
		t.now = now
	}
}

// NewTable validates points and computes the per era averages.
func NewTable(points []Point, opts ...Option) (*Table, error) {
	if len(points) < 2 {
		return nil, ErrTooFewMilestones
	}

	milestones := make([]Milestone, len(points))
	for i, p := range points {
		if p.Height < 0 {
			return nil, fmt.Errorf("%w: milestone %d", ErrNegativeHeight, i)
		}
		milestones[i].Point = p
		if i == 0 {
			continue
		}

		prev := points[i-1]
		if p.Height <= prev.Height || p.Timestamp <= prev.Timestamp {
			return nil, fmt.Errorf("%w: milestone %d (%d@%d) follows %d@%d",
				ErrMilestoneOrdering, i, p.Height, p.Timestamp, prev.Height, prev.Timestamp)
		}
		milestones[i].AverageStep = float64(p.Timestamp-prev.Timestamp) / float64(p.Height-prev.Height)
	}
	milestones[0].AverageStep = milestones[1].AverageStep

	t := &Table{milestones: milestones, now: time.Now}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// MustNewTable is NewTable for tables known to be valid at compile time.
func MustNewTable(points []Point, opts ...Option) *Table {
	t, err := NewTable(points, opts...)
	if err != nil {
		panic(err)
	}
	return t
}

// Milestones returns a copy of the table entries.
func (t *Table) Milestones() []Milestone {
	out := make([]Milestone, len(t.milestones))
	copy(out, t.milestones)
	return out
}

// Frontier is the last calibrated milestone.
func (t *Table) Frontier() Milestone {
	return t.milestones[len(t.milestones)-1]
}

// AverageStepForTimestamp returns the average seconds per block of the era
// containing ts. Past the frontier the average is measured from the frontier
// to tipHeight at the current time.
func (t *Table) AverageStepForTimestamp(ts int64, tipHeight int64) float64 {
	for _, m := range t.milestones {
		if m.Timestamp >= ts {
			return m.AverageStep
		}
	}
	return t.dynamicStep(tipHeight)
}

// EstimateHeight returns the height the table predicts for ts, clamped to
// [0, tipHeight].
func (t *Table) EstimateHeight(ts int64, tipHeight int64) int64 {
	first := t.milestones[0]
	if ts <= first.Timestamp {
		return clamp(first.Height, tipHeight)
	}

	for i := 1; i < len(t.milestones); i++ {
		m := t.milestones[i]
		if ts > m.Timestamp {
			continue
		}
		// floor((ts - start) / average) without the float rounding at era ends
		prev := t.milestones[i-1]
		steps := (ts - prev.Timestamp) * (m.Height - prev.Height) / (m.Timestamp - prev.Timestamp)
		return clamp(prev.Height+steps, tipHeight)
	}

	last := t.Frontier()
	steps := int64(math.Floor(float64(ts-last.Timestamp) / t.dynamicStep(tipHeight)))
	return clamp(last.Height+steps, tipHeight)
}

func (t *Table) dynamicStep(tipHeight int64) float64 {
	last := t.Frontier()
	now := t.now().Unix()
	if tipHeight <= last.Height || now <= last.Timestamp {
		return last.AverageStep
	}
	return float64(now-last.Timestamp) / float64(tipHeight-last.Height)
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
