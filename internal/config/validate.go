package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.RPCURL == "" {
		return errors.New("rpc_url is required")
	}
	if !c.UseMemory && c.DatabaseURL == "" {
		return errors.New("database_url is required unless use_memory is set")
	}
	if c.BlockStep < 1 {
		return errors.New("block_step must be >= 1")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %s", c.PollInterval)
	}
	if c.CacheTTL < 0 {
		return errors.New("cache_ttl must be >= 0")
	}
	if c.Concurrency < 1 {
		return errors.New("concurrency must be >= 1")
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text, got %q", c.Log.Format)
	}
	if c.Log.MaxAgeDays < 0 {
		return errors.New("log.max_age_days must be >= 0")
	}

	for i, p := range c.Pairs {
		if err := p.validate(fmt.Sprintf("pairs[%d]", i)); err != nil {
			return err
		}
	}
	return nil
}

func (p *PairConfig) validate(prefix string) error {
	if p.Pool == "" {
		return fmt.Errorf("%s.pool is required", prefix)
	}
	if p.Base.Symbol == "" || p.Base.Address == "" {
		return fmt.Errorf("%s.base requires address and symbol", prefix)
	}
	if p.Quote.Symbol == "" || p.Quote.Address == "" {
		return fmt.Errorf("%s.quote requires address and symbol", prefix)
	}
	if n := len(p.SecondsAgo); n != 0 && n != 2 {
		return fmt.Errorf("%s.seconds_ago must list exactly two offsets, got %d", prefix, n)
	}
	return nil
}
