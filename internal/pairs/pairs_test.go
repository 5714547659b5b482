package pairs

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/vistastaking/indexers/internal/config"
	"github.com/vistastaking/indexers/internal/domain"
)

func TestDefaultPairsAreValid(t *testing.T) {
	for _, p := range Default() {
		if err := Validate(p); err != nil {
			t.Errorf("%s: %v", p.ID(), err)
		}
		if p.SecondsAgo != [2]uint32{0, 360} {
			t.Errorf("%s: offsets = %v", p.ID(), p.SecondsAgo)
		}
	}
}

func TestTokenOrdering(t *testing.T) {
	// USDC is token0 of the USDC/WETH pool.
	if !USDC.SortsBefore(WETH) {
		t.Error("expected USDC to sort before WETH")
	}
	if WETH.SortsBefore(USDC) {
		t.Error("expected WETH not to sort before USDC")
	}
	if !WETH.SortsBefore(RPL) {
		t.Error("expected WETH to sort before RPL")
	}
}

func TestPairID(t *testing.T) {
	if got := ETHUSDC.ID(); got != "WETH/USDC" {
		t.Errorf("ID = %q, want WETH/USDC", got)
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.PairDescriptor)
	}{
		{"zero pool", func(p *domain.PairDescriptor) { p.Pool = common.Address{} }},
		{"zero chain", func(p *domain.PairDescriptor) { p.ChainID = 0 }},
		{"same token", func(p *domain.PairDescriptor) { p.Quote = p.Base }},
		{"empty symbol", func(p *domain.PairDescriptor) { p.Base.Symbol = "" }},
		{"chain mismatch", func(p *domain.PairDescriptor) { p.Quote.ChainID = 10 }},
		{"equal offsets", func(p *domain.PairDescriptor) { p.SecondsAgo = [2]uint32{360, 360} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ETHUSDC
			tt.mutate(&p)
			if err := Validate(p); !errors.Is(err, ErrInvalidPair) {
				t.Fatalf("expected ErrInvalidPair, got %v", err)
			}
		})
	}
}

func TestFromConfig(t *testing.T) {
	got, err := FromConfig([]config.PairConfig{{
		Name: "RPLWETH",
		Pool: "0xe42318eA3b998e8355a3Da364EB9D48eC725Eb45",
		Base: config.TokenConfig{
			Address:  "0xD33526068D116cE69F19A9ee46F0bd304F21A51f",
			Decimals: 18,
			Symbol:   "RPL",
		},
		Quote: config.TokenConfig{
			Address:  "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2",
			Decimals: 18,
			Symbol:   "WETH",
		},
	}})
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 pair, got %d", len(got))
	}
	p := got[0]
	if p.ChainID != ChainIDMainnet {
		t.Errorf("ChainID = %d, want mainnet default", p.ChainID)
	}
	if p.Pool != RPLWETH.Pool || p.Base.Address != RPL.Address || p.Quote.Address != WETH.Address {
		t.Errorf("unexpected descriptor: %+v", p)
	}
	if p.SecondsAgo != domain.DefaultSecondsAgo {
		t.Errorf("SecondsAgo = %v, want default", p.SecondsAgo)
	}
}

func TestFromConfig_EmptyUsesDefault(t *testing.T) {
	got, err := FromConfig(nil)
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	if len(got) != len(Default()) {
		t.Errorf("expected %d default pairs, got %d", len(Default()), len(got))
	}
}

func TestFromConfig_BadAddress(t *testing.T) {
	_, err := FromConfig([]config.PairConfig{{
		Pool:  "not-an-address",
		Base:  config.TokenConfig{Address: "0xD33526068D116cE69F19A9ee46F0bd304F21A51f", Symbol: "RPL"},
		Quote: config.TokenConfig{Address: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", Symbol: "WETH"},
	}})
	if !errors.Is(err, ErrInvalidPair) {
		t.Fatalf("expected ErrInvalidPair, got %v", err)
	}
}
