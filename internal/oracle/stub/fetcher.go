// Package stub provides an in-memory oracle fetcher for tests.
package stub

import (
	"context"
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/vistastaking/indexers/internal/domain"
	"github.com/vistastaking/indexers/internal/oracle"
)

// ErrNotFound is returned when no observations are registered for a pool.
var ErrNotFound = errors.New("no observations for pool")

// Call records one Observe invocation.
type Call struct {
	Pool  common.Address
	Block uint64
}

// Fetcher implements oracle.Fetcher from preloaded observations.
type Fetcher struct {
	mu           sync.Mutex
	observations map[common.Address][]domain.Observation
	errs         map[common.Address]error
	calls        []Call
}

// Compile-time interface check.
var _ oracle.Fetcher = (*Fetcher)(nil)

// NewFetcher creates an empty stub fetcher.
func NewFetcher() *Fetcher {
	return &Fetcher{
		observations: make(map[common.Address][]domain.Observation),
		errs:         make(map[common.Address]error),
	}
}

// Set registers the observations returned for pool.
func (f *Fetcher) Set(pool common.Address, obs ...domain.Observation) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.observations[pool] = obs
	delete(f.errs, pool)
}

// Fail makes every Observe for pool fail with err.
func (f *Fetcher) Fail(pool common.Address, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[pool] = err
}

// Calls returns the recorded invocations.
func (f *Fetcher) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// Observe returns the registered observations, honoring context cancellation.
func (f *Fetcher) Observe(ctx context.Context, pair domain.PairDescriptor, block domain.BlockRef) ([]domain.Observation, error) {
	f.mu.Lock()
	f.calls = append(f.calls, Call{Pool: pair.Pool, Block: block.Number})
	obs, ok := f.observations[pair.Pool]
	err := f.errs[pair.Pool]
	f.mu.Unlock()

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, oracle.Unavailable(pair, block, ctxErr)
	}
	if err != nil {
		return nil, oracle.Unavailable(pair, block, err)
	}
	if !ok {
		return nil, oracle.Unavailable(pair, block, ErrNotFound)
	}

	out := make([]domain.Observation, len(obs))
	copy(out, obs)
	return out, nil
}
