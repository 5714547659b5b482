// Package cache keeps the latest price per pair in Redis.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/vistastaking/indexers/internal/domain"
)

// LatestPrice is the cached view of the most recent point of a pair.
type LatestPrice struct {
	BaseToken      string
	QuoteToken     string
	Price          decimal.Decimal
	BlockNumber    uint64
	BlockTimestamp int64
}

// setIfNewer writes the hash only when the stored block_timestamp is older,
// so out-of-order blocks never move the cached price backwards.
var setIfNewer = redis.NewScript(`
local cur = redis.call('HGET', KEYS[1], 'block_timestamp')
if cur and tonumber(cur) >= tonumber(ARGV[1]) then
	return 0
end
redis.call('HSET', KEYS[1], 'block_timestamp', ARGV[1], 'block_number', ARGV[2], 'price', ARGV[3])
if tonumber(ARGV[4]) > 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[4])
end
return 1
`)

// RedisCache stores one hash per pair under "twap:latest:BASE:QUOTE".
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to addr and verifies the connection.
// A zero ttl keeps entries until overwritten.
func NewRedisCache(ctx context.Context, addr, password string, db int, ttl time.Duration) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisCache{client: client, ttl: ttl}, nil
}

func latestKey(base, quote string) string {
	return fmt.Sprintf("twap:latest:%s:%s", base, quote)
}

// SetLatest records p as the latest price of its pair unless a newer block
// is already cached. Reports whether the entry changed.
func (c *RedisCache) SetLatest(ctx context.Context, p *domain.PricePoint) (bool, error) {
	res, err := setIfNewer.Run(ctx, c.client,
		[]string{latestKey(p.BaseToken, p.QuoteToken)},
		p.BlockTimestamp, p.BlockNumber, p.PriceDecimal.String(), c.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("set latest price %s/%s: %w", p.BaseToken, p.QuoteToken, err)
	}
	return res == 1, nil
}

// GetLatest returns the cached price of a pair, or nil when none is cached.
func (c *RedisCache) GetLatest(ctx context.Context, base, quote string) (*LatestPrice, error) {
	fields, err := c.client.HGetAll(ctx, latestKey(base, quote)).Result()
	if err != nil {
		return nil, fmt.Errorf("get latest price %s/%s: %w", base, quote, err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	out := &LatestPrice{BaseToken: base, QuoteToken: quote}
	if out.Price, err = decimal.NewFromString(fields["price"]); err != nil {
		return nil, fmt.Errorf("parse cached price: %w", err)
	}
	if out.BlockNumber, err = strconv.ParseUint(fields["block_number"], 10, 64); err != nil {
		return nil, fmt.Errorf("parse cached block_number: %w", err)
	}
	if out.BlockTimestamp, err = strconv.ParseInt(fields["block_timestamp"], 10, 64); err != nil {
		return nil, fmt.Errorf("parse cached block_timestamp: %w", err)
	}
	return out, nil
}

// Ping checks the connection.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
