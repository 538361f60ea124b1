// Package oracle defines the read only view of the ledger that the height
// estimator probes, together with a gateway client and a metrics decorator.
package oracle

import (
	"context"
	"errors"

	"ledgerid/models"
)

var (
	ErrOracleUnavailable = errors.New("ledger oracle unavailable")
	ErrBlockNotFound     = errors.New("no block at the requested height")
)

// Oracle answers tip and timestamp-at-height queries. Every call is live and
// may fail independently; callers decide how to fall back.
type Oracle interface {
	Tip(ctx context.Context) (models.Tip, error)
	BlockAt(ctx context.Context, height int64) (models.Block, error)
}
