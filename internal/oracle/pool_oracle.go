package oracle

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/vistastaking/indexers/internal/domain"
	"github.com/vistastaking/indexers/internal/observability"
)

// PoolOracle implements Fetcher with eth_call against the pool's observe().
type PoolOracle struct {
	caller ethereum.ContractCaller
	abi    abi.ABI
}

// Compile-time interface check.
var _ Fetcher = (*PoolOracle)(nil)

// NewPoolOracle creates a fetcher backed by caller, typically an *ethclient.Client.
func NewPoolOracle(caller ethereum.ContractCaller) (*PoolOracle, error) {
	parsed, err := abi.JSON(strings.NewReader(poolABI))
	if err != nil {
		return nil, fmt.Errorf("parse pool abi: %w", err)
	}
	return &PoolOracle{caller: caller, abi: parsed}, nil
}

// Observe calls observe(secondsAgos) at block.Number, never at the chain head.
// All failures are returned as *ObservationUnavailableError.
func (o *PoolOracle) Observe(ctx context.Context, pair domain.PairDescriptor, block domain.BlockRef) ([]domain.Observation, error) {
	secondsAgo := pair.SecondsAgo[:]

	data, err := o.abi.Pack("observe", secondsAgo)
	if err != nil {
		return nil, Unavailable(pair, block, fmt.Errorf("pack observe: %w", err))
	}

	pool := pair.Pool
	start := time.Now()
	out, err := o.caller.CallContract(ctx, ethereum.CallMsg{To: &pool, Data: data}, new(big.Int).SetUint64(block.Number))
	observability.RecordRPCLatency("observe", time.Since(start).Seconds())
	if err != nil {
		observability.RecordRPCError("observe")
		return nil, Unavailable(pair, block, fmt.Errorf("call observe: %w", err))
	}

	tickCumulatives, err := o.unpackTickCumulatives(out)
	if err != nil {
		return nil, Unavailable(pair, block, err)
	}
	if len(tickCumulatives) != len(secondsAgo) {
		return nil, Unavailable(pair, block,
			fmt.Errorf("observe returned %d tick cumulatives for %d offsets", len(tickCumulatives), len(secondsAgo)))
	}

	observations := make([]domain.Observation, len(secondsAgo))
	for i, s := range secondsAgo {
		observations[i] = domain.Observation{
			SecondsAgo:     s,
			TickCumulative: tickCumulatives[i],
		}
	}
	return observations, nil
}

func (o *PoolOracle) unpackTickCumulatives(out []byte) ([]*big.Int, error) {
	if len(out) == 0 {
		return nil, fmt.Errorf("empty observe result")
	}

	values, err := o.abi.Unpack("observe", out)
	if err != nil {
		return nil, fmt.Errorf("unpack observe: %w", err)
	}
	if len(values) != 2 {
		return nil, fmt.Errorf("observe returned %d values, want 2", len(values))
	}

	tickCumulatives, ok := values[0].([]*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected tickCumulatives type %T", values[0])
	}
	return tickCumulatives, nil
}
