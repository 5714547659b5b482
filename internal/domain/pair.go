package domain

import "github.com/ethereum/go-ethereum/common"

// DefaultSecondsAgo are the oracle sample offsets, in seconds before the
// reference block: the block itself and six minutes earlier.
var DefaultSecondsAgo = [2]uint32{0, 360}

// PairDescriptor is the immutable configuration of one priced pair.
// Created at startup, never mutated.
type PairDescriptor struct {
	Name       string         // optional display name, e.g. "ETHUSDC"
	Pool       common.Address // Uniswap v3 pool holding the oracle
	ChainID    uint64         // chain the pool lives on
	Base       Token          // token being priced
	Quote      Token          // token the price is expressed in
	SecondsAgo [2]uint32      // oracle offsets to sample
}

// ID returns the pair identity used in logs, metrics and registry keys.
func (p PairDescriptor) ID() string {
	return p.Base.Symbol + "/" + p.Quote.Symbol
}
