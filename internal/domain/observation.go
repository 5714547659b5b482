package domain

import "math/big"

// Observation is one cumulative-tick reading of a pool oracle.
// Produced per block evaluation, never persisted.
type Observation struct {
	SecondsAgo     uint32   // age of the sample relative to the reference block
	TickCumulative *big.Int // oracle int56 accumulator, widened
}
