package domain

import (
	"bytes"

	"github.com/ethereum/go-ethereum/common"
)

// Token describes an ERC-20 token as configured for a pair.
type Token struct {
	ChainID  uint64         // EVM chain identifier
	Address  common.Address // token contract address
	Decimals uint8          // ERC-20 decimals
	Symbol   string         // ticker, used as the stored key
	Name     string         // display name
}

// SortsBefore reports whether t is token0 relative to other.
// Uniswap orders pool tokens by address as an unsigned 160-bit integer.
func (t Token) SortsBefore(other Token) bool {
	return bytes.Compare(t.Address.Bytes(), other.Address.Bytes()) < 0
}
