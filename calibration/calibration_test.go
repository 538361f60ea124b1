package calibration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(unix int64) Option {
	return WithClock(func() time.Time { return time.Unix(unix, 0) })
}

// two eras: 10s blocks up to height 100, then 20s blocks up to height 300
func syntheticTable(t *testing.T, now int64) *Table {
	t.Helper()
	table, err := NewTable([]Point{
		{Height: 0, Timestamp: 1000},
		{Height: 100, Timestamp: 2000},
		{Height: 300, Timestamp: 6000},
	}, fixedClock(now))
	require.NoError(t, err)
	return table
}

func TestNewTableValidation(t *testing.T) {
	_, err := NewTable([]Point{{Height: 0, Timestamp: 1}})
	assert.ErrorIs(t, err, ErrTooFewMilestones)

	_, err = NewTable([]Point{{Height: -1, Timestamp: 1}, {Height: 5, Timestamp: 10}})
	assert.ErrorIs(t, err, ErrNegativeHeight)

	_, err = NewTable([]Point{{Height: 0, Timestamp: 10}, {Height: 5, Timestamp: 10}})
	assert.ErrorIs(t, err, ErrMilestoneOrdering)

	_, err = NewTable([]Point{{Height: 5, Timestamp: 10}, {Height: 5, Timestamp: 20}})
	assert.ErrorIs(t, err, ErrMilestoneOrdering)
}

func TestAverageSteps(t *testing.T) {
	ms := syntheticTable(t, 7000).Milestones()
	require.Len(t, ms, 3)
	assert.Equal(t, 10.0, ms[0].AverageStep)
	assert.Equal(t, 10.0, ms[1].AverageStep)
	assert.Equal(t, 20.0, ms[2].AverageStep)
}

func TestAverageStepForTimestamp(t *testing.T) {
	table := syntheticTable(t, 7000)

	assert.Equal(t, 10.0, table.AverageStepForTimestamp(500, 400))
	assert.Equal(t, 10.0, table.AverageStepForTimestamp(1000, 400))
	assert.Equal(t, 10.0, table.AverageStepForTimestamp(1500, 400))
	assert.Equal(t, 20.0, table.AverageStepForTimestamp(2500, 400))
	assert.Equal(t, 20.0, table.AverageStepForTimestamp(6000, 400))

	// past the frontier: (7000 - 6000) / (400 - 300)
	assert.Equal(t, 10.0, table.AverageStepForTimestamp(6500, 400))

	// a tip that has not moved past the frontier falls back to the last era
	assert.Equal(t, 20.0, table.AverageStepForTimestamp(6500, 300))
}

func TestEstimateHeight(t *testing.T) {
	table := syntheticTable(t, 7000)

	for _, tc := range []struct {
		ts, tip, want int64
	}{
		{ts: 500, tip: 400, want: 0},
		{ts: 1000, tip: 400, want: 0},
		{ts: 1500, tip: 400, want: 50},
		{ts: 2000, tip: 400, want: 100},
		{ts: 2019, tip: 400, want: 100},
		{ts: 4000, tip: 400, want: 200},
		{ts: 6000, tip: 400, want: 300},
		{ts: 6500, tip: 400, want: 350},
		{ts: 4000, tip: 150, want: 150},
		// dynamic era: (7000 - 6000) / (320 - 300) = 50s per block
		{ts: 6500, tip: 320, want: 310},
		{ts: 9000, tip: 320, want: 320},
	} {
		assert.Equal(t, tc.want, table.EstimateHeight(tc.ts, tc.tip), "ts %d tip %d", tc.ts, tc.tip)
	}
}

func TestEstimateHeightMonotonic(t *testing.T) {
	frontier := DefaultPoints[len(DefaultPoints)-1]
	now := frontier.Timestamp + 90*24*3600
	table := Default(fixedClock(now))
	tip := frontier.Height + 60000

	prev := int64(-1)
	for ts := DefaultPoints[0].Timestamp - 3600; ts <= now+3600; ts += 7919 {
		h := table.EstimateHeight(ts, tip)
		require.GreaterOrEqual(t, h, prev, "ts %d", ts)
		require.LessOrEqual(t, h, tip)
		prev = h
	}
}

func TestDefaultTableHitsMilestones(t *testing.T) {
	table := Default()
	frontier := table.Frontier()

	for _, p := range DefaultPoints {
		assert.Equal(t, p.Height, table.EstimateHeight(p.Timestamp, frontier.Height))
	}
}
