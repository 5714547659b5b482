// Package oracle reads cumulative-tick observations from Uniswap v3 pool
// oracles at a pinned historical block.
package oracle

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/vistastaking/indexers/internal/domain"
)

// Fetcher returns one observation per configured offset of a pair,
// evaluated at the given block.
type Fetcher interface {
	Observe(ctx context.Context, pair domain.PairDescriptor, block domain.BlockRef) ([]domain.Observation, error)
}

// ErrObservationUnavailable is returned when the oracle could not be read.
var ErrObservationUnavailable = errors.New("observation unavailable")

// ObservationUnavailableError identifies the pair and block of a failed read.
type ObservationUnavailableError struct {
	Pair  string
	Pool  common.Address
	Block uint64
	Err   error
}

func (e *ObservationUnavailableError) Error() string {
	return fmt.Sprintf("observation unavailable for %s (pool %s) at block %d: %v",
		e.Pair, e.Pool.Hex(), e.Block, e.Err)
}

func (e *ObservationUnavailableError) Unwrap() []error {
	return []error{ErrObservationUnavailable, e.Err}
}

// Unavailable wraps err as an ObservationUnavailableError for pair at block.
func Unavailable(pair domain.PairDescriptor, block domain.BlockRef, err error) error {
	return &ObservationUnavailableError{
		Pair:  pair.ID(),
		Pool:  pair.Pool,
		Block: block.Number,
		Err:   err,
	}
}
