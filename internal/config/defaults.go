package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultBlockStep    = 1
	DefaultPollInterval = 12 * time.Second
	DefaultConcurrency  = 4
	DefaultMetricsAddr  = ":9090"
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "json"
)

// Environment variables consulted when the file leaves a field empty.
const (
	EnvRPCURL        = "RPC_URL"
	EnvDatabaseURL   = "DATABASE_URL"
	EnvClickHouseDSN = "CLICKHOUSE_DSN"
	EnvRedisAddr     = "REDIS_ADDR"
	EnvRedisPassword = "REDIS_PASSWORD"
	EnvLogLevel      = "LOG_LEVEL"
)

func (c *Config) applyDefaults() {
	if c.BlockStep == 0 {
		c.BlockStep = DefaultBlockStep
	}
	if c.PollInterval == 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.Concurrency == 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.MetricsAddr == "" {
		c.MetricsAddr = DefaultMetricsAddr
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
}
