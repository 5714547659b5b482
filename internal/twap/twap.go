// Package twap derives an average tick from two oracle cumulative-tick samples.
package twap

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/vistastaking/indexers/internal/domain"
)

// Uniswap v3 tick bounds.
const (
	MinTick = -887272
	MaxTick = 887272
)

var (
	// ErrInvalidInterval is returned when both samples share the same offset.
	ErrInvalidInterval = errors.New("invalid twap interval")

	// ErrInvalidObservation is returned for a sample without a cumulative tick
	// or a sample count other than two.
	ErrInvalidObservation = errors.New("invalid observation")

	// ErrTickOutOfRange is returned when the average falls outside the oracle's tick range.
	ErrTickOutOfRange = errors.New("average tick out of range")
)

// AverageTick returns round(|cumA-cumB| / |secsA-secsB|), rounding half away
// from zero. The result is independent of argument order.
//
// Only the magnitude of the accumulator delta is used, so the result is never
// negative; price direction comes from the configured base/quote ordering.
func AverageTick(a, b domain.Observation) (int32, error) {
	if a.TickCumulative == nil || b.TickCumulative == nil {
		return 0, fmt.Errorf("%w: missing cumulative tick", ErrInvalidObservation)
	}

	duration := int64(a.SecondsAgo) - int64(b.SecondsAgo)
	if duration < 0 {
		duration = -duration
	}
	if duration == 0 {
		return 0, fmt.Errorf("%w: both samples taken %d seconds ago", ErrInvalidInterval, a.SecondsAgo)
	}

	diff := new(big.Int).Sub(a.TickCumulative, b.TickCumulative)
	diff.Abs(diff)

	d := big.NewInt(duration)
	q, r := new(big.Int).QuoRem(diff, d, new(big.Int))

	// diff is non-negative, so half away from zero is half up.
	if r.Lsh(r, 1).Cmp(d) >= 0 {
		q.Add(q, big.NewInt(1))
	}

	if q.Cmp(big.NewInt(MaxTick)) > 0 {
		return 0, fmt.Errorf("%w: %s exceeds %d", ErrTickOutOfRange, q.String(), MaxTick)
	}
	return int32(q.Int64()), nil
}

// FromObservations applies AverageTick to a fetched sample set, which must
// hold exactly two observations.
func FromObservations(obs []domain.Observation) (int32, error) {
	if len(obs) != 2 {
		return 0, fmt.Errorf("%w: need 2 observations, got %d", ErrInvalidObservation, len(obs))
	}
	return AverageTick(obs[0], obs[1])
}
