// Package pairs holds the configured pair descriptors and their validation.
package pairs

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/vistastaking/indexers/internal/domain"
)

// ChainIDMainnet is the Ethereum mainnet chain id.
const ChainIDMainnet uint64 = 1

// ErrInvalidPair is returned when a descriptor fails validation.
var ErrInvalidPair = errors.New("invalid pair descriptor")

// Mainnet tokens.
var (
	WETH = domain.Token{
		ChainID:  ChainIDMainnet,
		Address:  common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"),
		Decimals: 18,
		Symbol:   "WETH",
		Name:     "Wrapped Ether",
	}
	USDC = domain.Token{
		ChainID:  ChainIDMainnet,
		Address:  common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"),
		Decimals: 6,
		Symbol:   "USDC",
		Name:     "USD Coin",
	}
	RPL = domain.Token{
		ChainID:  ChainIDMainnet,
		Address:  common.HexToAddress("0xD33526068D116cE69F19A9ee46F0bd304F21A51f"),
		Decimals: 18,
		Symbol:   "RPL",
		Name:     "Rocket Pool",
	}
)

// ETHUSDC prices WETH in USDC using the USDC/WETH 0.05% pool.
var ETHUSDC = domain.PairDescriptor{
	Name:       "ETHUSDC",
	Pool:       common.HexToAddress("0x88e6A0c2dDD26FEEb64F039a2c41296FcB3f5640"),
	ChainID:    ChainIDMainnet,
	Base:       WETH,
	Quote:      USDC,
	SecondsAgo: domain.DefaultSecondsAgo,
}

// RPLWETH prices RPL in WETH using the WETH/RPL 0.3% pool.
var RPLWETH = domain.PairDescriptor{
	Name:       "RPLWETH",
	Pool:       common.HexToAddress("0xe42318eA3b998e8355a3Da364EB9D48eC725Eb45"),
	ChainID:    ChainIDMainnet,
	Base:       RPL,
	Quote:      WETH,
	SecondsAgo: domain.DefaultSecondsAgo,
}

// Default returns the built-in pair list used when configuration supplies none.
func Default() []domain.PairDescriptor {
	return []domain.PairDescriptor{ETHUSDC, RPLWETH}
}

// Validate checks a descriptor before it is registered.
func Validate(p domain.PairDescriptor) error {
	if p.Pool == (common.Address{}) {
		return fmt.Errorf("%w: %s: pool address is zero", ErrInvalidPair, p.ID())
	}
	if p.ChainID == 0 {
		return fmt.Errorf("%w: %s: chain id is zero", ErrInvalidPair, p.ID())
	}
	if err := validateToken(p, "base", p.Base); err != nil {
		return err
	}
	if err := validateToken(p, "quote", p.Quote); err != nil {
		return err
	}
	if p.Base.Address == p.Quote.Address {
		return fmt.Errorf("%w: %s: base and quote share address %s", ErrInvalidPair, p.ID(), p.Base.Address.Hex())
	}
	if p.Base.Symbol == p.Quote.Symbol {
		return fmt.Errorf("%w: %s: base and quote share symbol", ErrInvalidPair, p.ID())
	}
	if p.SecondsAgo[0] == p.SecondsAgo[1] {
		return fmt.Errorf("%w: %s: sample offsets must differ, got %v", ErrInvalidPair, p.ID(), p.SecondsAgo)
	}
	return nil
}

func validateToken(p domain.PairDescriptor, side string, t domain.Token) error {
	if t.Symbol == "" {
		return fmt.Errorf("%w: %s: %s symbol is empty", ErrInvalidPair, p.ID(), side)
	}
	if t.Address == (common.Address{}) {
		return fmt.Errorf("%w: %s: %s address is zero", ErrInvalidPair, p.ID(), side)
	}
	if t.ChainID != p.ChainID {
		return fmt.Errorf("%w: %s: %s token on chain %d, pool on chain %d", ErrInvalidPair, p.ID(), side, t.ChainID, p.ChainID)
	}
	return nil
}
