package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/vistastaking/indexers/internal/domain"
	"github.com/vistastaking/indexers/internal/observability"
	"github.com/vistastaking/indexers/internal/storage"
)

// PriceStore implements storage.PriceStore on the "UniswapTWAP" table.
type PriceStore struct {
	pool *Pool
}

// NewPriceStore creates a new PriceStore.
func NewPriceStore(pool *Pool) *PriceStore {
	return &PriceStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PriceStore = (*PriceStore)(nil)

const insertPriceSQL = `
	INSERT INTO "UniswapTWAP" (
		base_token, quote_token, price, price_decimal, block_number, block_timestamp
	) VALUES ($1, $2, $3, $4::numeric, $5, $6)
	ON CONFLICT (base_token, quote_token, block_timestamp) DO NOTHING
`

// Insert writes p once. A conflict on the unique key affects zero rows
// and is reported as (false, nil).
func (s *PriceStore) Insert(ctx context.Context, p *domain.PricePoint) (bool, error) {
	if err := storage.Validate(p); err != nil {
		return false, err
	}

	start := time.Now()
	tag, err := s.pool.Exec(ctx, insertPriceSQL,
		p.BaseToken, p.QuoteToken, p.Price, p.PriceDecimal.String(),
		int64(p.BlockNumber), p.BlockTimestamp,
	)
	observability.RecordDBQuery("postgres", "insert_price", time.Since(start).Seconds(), err)
	if err != nil {
		// ON CONFLICT covers the unique key; a 23505 can still surface
		// if the constraint was replaced by a unique index.
		if isDuplicateKeyError(err) {
			return false, nil
		}
		return false, storage.Failure(p, err)
	}

	return tag.RowsAffected() == 1, nil
}

// GetByPair retrieves all points of a pair, ordered by block_timestamp ASC.
func (s *PriceStore) GetByPair(ctx context.Context, baseToken, quoteToken string) ([]*domain.PricePoint, error) {
	query := `
		SELECT base_token, quote_token, price, price_decimal::text, block_number, block_timestamp, created_at
		FROM "UniswapTWAP"
		WHERE base_token = $1 AND quote_token = $2
		ORDER BY block_timestamp ASC
	`

	rows, err := s.pool.Query(ctx, query, baseToken, quoteToken)
	if err != nil {
		return nil, fmt.Errorf("query by pair: %w", err)
	}
	defer rows.Close()

	return scanPricePoints(rows)
}

// GetByTimeRange retrieves points of a pair within [start, end] (inclusive).
func (s *PriceStore) GetByTimeRange(ctx context.Context, baseToken, quoteToken string, start, end int64) ([]*domain.PricePoint, error) {
	query := `
		SELECT base_token, quote_token, price, price_decimal::text, block_number, block_timestamp, created_at
		FROM "UniswapTWAP"
		WHERE base_token = $1 AND quote_token = $2
		  AND block_timestamp >= $3 AND block_timestamp <= $4
		ORDER BY block_timestamp ASC
	`

	rows, err := s.pool.Query(ctx, query, baseToken, quoteToken, start, end)
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanPricePoints(rows)
}

// scanPricePoints scans multiple rows.
func scanPricePoints(rows pgx.Rows) ([]*domain.PricePoint, error) {
	var points []*domain.PricePoint

	for rows.Next() {
		var p domain.PricePoint
		var priceDecimal string
		var blockNumber int64

		err := rows.Scan(
			&p.BaseToken, &p.QuoteToken, &p.Price, &priceDecimal,
			&blockNumber, &p.BlockTimestamp, &p.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan price row: %w", err)
		}

		p.PriceDecimal, err = decimal.NewFromString(priceDecimal)
		if err != nil {
			return nil, fmt.Errorf("parse price_decimal %q: %w", priceDecimal, err)
		}
		p.BlockNumber = uint64(blockNumber)
		points = append(points, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price rows: %w", err)
	}

	return points, nil
}
