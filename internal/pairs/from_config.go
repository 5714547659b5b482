package pairs

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/vistastaking/indexers/internal/config"
	"github.com/vistastaking/indexers/internal/domain"
)

// FromConfig converts file-configured pairs into validated descriptors.
// An empty list yields Default().
func FromConfig(cfgs []config.PairConfig) ([]domain.PairDescriptor, error) {
	if len(cfgs) == 0 {
		return Default(), nil
	}

	out := make([]domain.PairDescriptor, 0, len(cfgs))
	for i, c := range cfgs {
		p, err := descriptorFromConfig(c)
		if err != nil {
			return nil, fmt.Errorf("pairs[%d]: %w", i, err)
		}
		if err := Validate(p); err != nil {
			return nil, fmt.Errorf("pairs[%d]: %w", i, err)
		}
		out = append(out, p)
	}
	return out, nil
}

func descriptorFromConfig(c config.PairConfig) (domain.PairDescriptor, error) {
	chainID := c.ChainID
	if chainID == 0 {
		chainID = ChainIDMainnet
	}

	pool, err := parseAddress(c.Pool)
	if err != nil {
		return domain.PairDescriptor{}, fmt.Errorf("pool: %w", err)
	}
	base, err := tokenFromConfig(chainID, c.Base)
	if err != nil {
		return domain.PairDescriptor{}, fmt.Errorf("base: %w", err)
	}
	quote, err := tokenFromConfig(chainID, c.Quote)
	if err != nil {
		return domain.PairDescriptor{}, fmt.Errorf("quote: %w", err)
	}

	secondsAgo := domain.DefaultSecondsAgo
	switch len(c.SecondsAgo) {
	case 0:
	case 2:
		secondsAgo = [2]uint32{c.SecondsAgo[0], c.SecondsAgo[1]}
	default:
		return domain.PairDescriptor{}, fmt.Errorf("%w: seconds_ago needs two offsets, got %d", ErrInvalidPair, len(c.SecondsAgo))
	}

	return domain.PairDescriptor{
		Name:       c.Name,
		Pool:       pool,
		ChainID:    chainID,
		Base:       base,
		Quote:      quote,
		SecondsAgo: secondsAgo,
	}, nil
}

func tokenFromConfig(chainID uint64, c config.TokenConfig) (domain.Token, error) {
	addr, err := parseAddress(c.Address)
	if err != nil {
		return domain.Token{}, err
	}
	return domain.Token{
		ChainID:  chainID,
		Address:  addr,
		Decimals: c.Decimals,
		Symbol:   c.Symbol,
		Name:     c.Name,
	}, nil
}

func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%w: %q is not a hex address", ErrInvalidPair, s)
	}
	return common.HexToAddress(s), nil
}
