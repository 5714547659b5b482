package oracle

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/core/types"

	"github.com/vistastaking/indexers/internal/domain"
)

// HeaderReader is the subset of ethclient used to resolve blocks.
type HeaderReader interface {
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}

// HeaderSource resolves block numbers to block references.
type HeaderSource struct {
	reader HeaderReader
}

// NewHeaderSource creates a HeaderSource.
func NewHeaderSource(reader HeaderReader) *HeaderSource {
	return &HeaderSource{reader: reader}
}

// BlockRef returns the reference of block number.
func (s *HeaderSource) BlockRef(ctx context.Context, number uint64) (domain.BlockRef, error) {
	return s.fetch(ctx, new(big.Int).SetUint64(number))
}

// Latest returns the reference of the current chain head.
func (s *HeaderSource) Latest(ctx context.Context) (domain.BlockRef, error) {
	return s.fetch(ctx, nil)
}

func (s *HeaderSource) fetch(ctx context.Context, number *big.Int) (domain.BlockRef, error) {
	header, err := s.reader.HeaderByNumber(ctx, number)
	if err != nil {
		return domain.BlockRef{}, fmt.Errorf("get header %v: %w", number, err)
	}
	if header == nil {
		return domain.BlockRef{}, fmt.Errorf("header %v not found", number)
	}
	return domain.BlockRef{
		Number:    header.Number.Uint64(),
		Hash:      header.Hash(),
		Timestamp: int64(header.Time),
	}, nil
}
