package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vistastaking/indexers/internal/domain"
	"github.com/vistastaking/indexers/internal/observability"
	"github.com/vistastaking/indexers/internal/storage"
)

// PriceStore implements storage.PriceStore on the uniswap_twap table.
type PriceStore struct {
	conn *Conn
}

// NewPriceStore creates a new PriceStore.
func NewPriceStore(conn *Conn) *PriceStore {
	return &PriceStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PriceStore = (*PriceStore)(nil)

// Insert adds p unless a row with the same key is already visible.
// Two concurrent inserts of the same key can both pass the check;
// ReplacingMergeTree collapses them on merge.
func (s *PriceStore) Insert(ctx context.Context, p *domain.PricePoint) (bool, error) {
	if err := storage.Validate(p); err != nil {
		return false, err
	}

	exists, err := s.exists(ctx, p.BaseToken, p.QuoteToken, p.BlockTimestamp)
	if err != nil {
		return false, storage.Failure(p, fmt.Errorf("check exists: %w", err))
	}
	if exists {
		return false, nil
	}

	start := time.Now()
	err = s.insert(ctx, p)
	observability.RecordDBQuery("clickhouse", "insert_price", time.Since(start).Seconds(), err)
	if err != nil {
		return false, storage.Failure(p, err)
	}
	return true, nil
}

func (s *PriceStore) insert(ctx context.Context, p *domain.PricePoint) error {
	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO uniswap_twap (
			base_token, quote_token, price, price_decimal, block_number, block_timestamp
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	err = batch.Append(
		p.BaseToken, p.QuoteToken, p.Price, p.PriceDecimal.String(),
		p.BlockNumber, p.BlockTimestamp,
	)
	if err != nil {
		return fmt.Errorf("append to batch: %w", err)
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByPair retrieves all points of a pair, ordered by block_timestamp ASC.
func (s *PriceStore) GetByPair(ctx context.Context, baseToken, quoteToken string) ([]*domain.PricePoint, error) {
	query := `
		SELECT base_token, quote_token, price, price_decimal, block_number, block_timestamp, created_at
		FROM uniswap_twap FINAL
		WHERE base_token = ? AND quote_token = ?
		ORDER BY block_timestamp ASC
	`

	rows, err := s.conn.Query(ctx, query, baseToken, quoteToken)
	if err != nil {
		return nil, fmt.Errorf("query by pair: %w", err)
	}
	defer rows.Close()

	return scanPricePoints(rows)
}

// GetByTimeRange retrieves points of a pair within [start, end] (inclusive).
func (s *PriceStore) GetByTimeRange(ctx context.Context, baseToken, quoteToken string, start, end int64) ([]*domain.PricePoint, error) {
	query := `
		SELECT base_token, quote_token, price, price_decimal, block_number, block_timestamp, created_at
		FROM uniswap_twap FINAL
		WHERE base_token = ? AND quote_token = ? AND block_timestamp >= ? AND block_timestamp <= ?
		ORDER BY block_timestamp ASC
	`

	rows, err := s.conn.Query(ctx, query, baseToken, quoteToken, start, end)
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanPricePoints(rows)
}

func (s *PriceStore) exists(ctx context.Context, baseToken, quoteToken string, blockTimestamp int64) (bool, error) {
	query := `
		SELECT count(*) FROM uniswap_twap
		WHERE base_token = ? AND quote_token = ? AND block_timestamp = ?
	`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, baseToken, quoteToken, blockTimestamp).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func scanPricePoints(rows chRows) ([]*domain.PricePoint, error) {
	var points []*domain.PricePoint

	for rows.Next() {
		var p domain.PricePoint
		var priceDecimal string
		var createdAt time.Time

		err := rows.Scan(
			&p.BaseToken, &p.QuoteToken, &p.Price, &priceDecimal,
			&p.BlockNumber, &p.BlockTimestamp, &createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan price row: %w", err)
		}

		p.PriceDecimal, err = decimal.NewFromString(priceDecimal)
		if err != nil {
			return nil, fmt.Errorf("parse price_decimal %q: %w", priceDecimal, err)
		}
		p.CreatedAt = createdAt.UnixMilli()
		points = append(points, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price rows: %w", err)
	}

	return points, nil
}
