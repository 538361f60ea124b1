package oracle

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerid/models"
)

type stubOracle struct {
	err error
}

func (s stubOracle) Tip(ctx context.Context) (models.Tip, error) {
	return models.Tip{Height: 10}, s.err
}

func (s stubOracle) BlockAt(ctx context.Context, height int64) (models.Block, error) {
	return models.Block{Height: height, Timestamp: 100 + height}, s.err
}

func TestInstrumentedCountsOutcomes(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	ok := Instrument(stubOracle{}, m)
	tip, err := ok.Tip(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(10), tip.Height)

	block, err := ok.BlockAt(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, int64(103), block.Timestamp)

	_, err = Instrument(stubOracle{err: ErrOracleUnavailable}, m).BlockAt(context.Background(), 3)
	assert.True(t, errors.Is(err, ErrOracleUnavailable))

	_, err = Instrument(stubOracle{err: context.Canceled}, m).BlockAt(context.Background(), 3)
	assert.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.calls.WithLabelValues(methodTip, outcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.calls.WithLabelValues(methodBlockAt, outcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.calls.WithLabelValues(methodBlockAt, outcomeError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.calls.WithLabelValues(methodBlockAt, outcomeCancelled)))
}
