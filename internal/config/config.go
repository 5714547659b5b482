// Package config loads the indexer configuration from YAML, the environment
// and an optional .env file.
package config

import "time"

// Config is the top-level indexer configuration.
type Config struct {
	RPCURL        string        `yaml:"rpc_url"`
	DatabaseURL   string        `yaml:"database_url"`
	UseMemory     bool          `yaml:"use_memory"`
	ClickHouseDSN string        `yaml:"clickhouse_dsn"`
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	CacheTTL      time.Duration `yaml:"cache_ttl"` // 0 keeps cached prices until overwritten
	BlockStep     uint64        `yaml:"block_step"`
	PollInterval  time.Duration `yaml:"poll_interval"`
	Concurrency   int           `yaml:"concurrency"`
	MetricsAddr   string        `yaml:"metrics_addr"`
	Log           LogConfig     `yaml:"log"`
	Pairs         []PairConfig  `yaml:"pairs"`
}

// LogConfig selects logger level and output format.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "text"
	// Output is "stdout", "stderr" or a file path. Files rotate when MaxAgeDays > 0.
	Output     string `yaml:"output"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// PairConfig is the file form of a pair descriptor.
type PairConfig struct {
	Name       string      `yaml:"name"`
	Pool       string      `yaml:"pool"`
	ChainID    uint64      `yaml:"chain_id"`
	Base       TokenConfig `yaml:"base"`
	Quote      TokenConfig `yaml:"quote"`
	SecondsAgo []uint32    `yaml:"seconds_ago"`
}

// TokenConfig is the file form of token metadata.
type TokenConfig struct {
	Address  string `yaml:"address"`
	Decimals uint8  `yaml:"decimals"`
	Symbol   string `yaml:"symbol"`
	Name     string `yaml:"name"`
}
