package storage

import (
	"context"

	"github.com/vistastaking/indexers/internal/domain"
)

// PriceStore provides access to the UniswapTWAP storage.
type PriceStore interface {
	// Insert stores p once. When a record with the same (base_token,
	// quote_token, block_timestamp) exists the call is a no-op returning
	// (false, nil). Other failures match ErrPersistence.
	Insert(ctx context.Context, p *domain.PricePoint) (inserted bool, err error)

	// GetByPair retrieves all points of a pair, ordered by block_timestamp ASC.
	GetByPair(ctx context.Context, baseToken, quoteToken string) ([]*domain.PricePoint, error)

	// GetByTimeRange retrieves points of a pair within [start, end] (inclusive, unix seconds).
	GetByTimeRange(ctx context.Context, baseToken, quoteToken string, start, end int64) ([]*domain.PricePoint, error)
}
