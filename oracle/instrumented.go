package oracle

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"ledgerid/logger"
	"ledgerid/models"
)

const (
	methodTip     = "tip"
	methodBlockAt = "block_at"

	outcomeOK        = "ok"
	outcomeError     = "error"
	outcomeCancelled = "cancelled"
)

// Metrics counts oracle round trips by method and outcome.
type Metrics struct {
	calls   *prometheus.CounterVec
	latency *prometheus.HistogramVec
}

// NewMetrics registers the oracle collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledgerid",
			Subsystem: "oracle",
			Name:      "calls_total",
			Help:      "Ledger oracle calls by method and outcome.",
		}, []string{"method", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ledgerid",
			Subsystem: "oracle",
			Name:      "call_duration_seconds",
			Help:      "Ledger oracle call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}
	reg.MustRegister(m.calls, m.latency)
	return m
}

// Instrumented decorates an Oracle with metrics and debug logging.
type Instrumented struct {
	next    Oracle
	metrics *Metrics
}

func Instrument(next Oracle, metrics *Metrics) *Instrumented {
	return &Instrumented{next: next, metrics: metrics}
}

func (o *Instrumented) Tip(ctx context.Context) (models.Tip, error) {
	start := time.Now()
	tip, err := o.next.Tip(ctx)
	o.observe(methodTip, start, err, zap.Int64("height", tip.Height))
	return tip, err
}

func (o *Instrumented) BlockAt(ctx context.Context, height int64) (models.Block, error) {
	start := time.Now()
	block, err := o.next.BlockAt(ctx, height)
	o.observe(methodBlockAt, start, err, zap.Int64("height", height), zap.Int64("timestamp", block.Timestamp))
	return block, err
}

func (o *Instrumented) observe(method string, start time.Time, err error, fields ...zap.Field) {
	o.metrics.latency.WithLabelValues(method).Observe(time.Since(start).Seconds())

	outcome := outcomeOK
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		outcome = outcomeCancelled
	default:
		outcome = outcomeError
		fields = append(fields, zap.Error(err))
	}
	o.metrics.calls.WithLabelValues(method, outcome).Inc()

	logger.Logger.Debug("oracle call", append(fields, zap.String("method", method), zap.String("outcome", outcome))...)
}
