package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/vistastaking/indexers/internal/cache"
	"github.com/vistastaking/indexers/internal/config"
	"github.com/vistastaking/indexers/internal/domain"
	"github.com/vistastaking/indexers/internal/logging"
	"github.com/vistastaking/indexers/internal/observability"
	"github.com/vistastaking/indexers/internal/orchestrator"
	"github.com/vistastaking/indexers/internal/storage"
	chstore "github.com/vistastaking/indexers/internal/storage/clickhouse"
	"github.com/vistastaking/indexers/internal/storage/memory"
	"github.com/vistastaking/indexers/internal/storage/migrations"
	pgstore "github.com/vistastaking/indexers/internal/storage/postgres"
)

type sinks struct {
	store storage.PriceStore
	cache orchestrator.LatestCache
	close func()
}

// openSinks builds the primary store, the optional ClickHouse mirror and the
// optional Redis cache.
func openSinks(ctx context.Context, logger *logrus.Logger, cfg *config.Config) (*sinks, error) {
	log := logging.WithComponent(logger, "storage")
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var primary storage.PriceStore
	if cfg.UseMemory {
		log.Warn("using in-memory storage, prices are not persisted")
		primary = memory.NewPriceStore()
	} else {
		pool, err := pgstore.Shared(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		closers = append(closers, pgstore.CloseShared)

		applied, err := migrations.RunPostgresMigrations(ctx, pool)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("postgres migrations: %w", err)
		}
		log.WithField("migrations", applied).Info("postgres schema ready")
		primary = pgstore.NewPriceStore(pool)
	}

	var mirrors []storage.Mirror
	if cfg.ClickHouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickHouseDSN)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("clickhouse migrations: %w", err)
		}
		closers = append(closers, func() { _ = conn.Close() })
		mirrors = append(mirrors, storage.Mirror{Name: "clickhouse", Store: chstore.NewPriceStore(conn)})
		log.Info("clickhouse mirror enabled")
	}

	out := &sinks{}
	if len(mirrors) > 0 {
		out.store = storage.NewMultiStore(primary, func(name string, p *domain.PricePoint, err error) {
			observability.RecordMirrorError(name)
			log.WithFields(logrus.Fields{
				"mirror":    name,
				"pair":      p.BaseToken + "/" + p.QuoteToken,
				"timestamp": p.BlockTimestamp,
			}).WithError(err).Warn("mirror write failed")
		}, mirrors...)
	} else {
		out.store = primary
	}

	if cfg.RedisAddr != "" {
		c, err := cache.NewRedisCache(ctx, cfg.RedisAddr, cfg.RedisPassword, 0, cfg.CacheTTL)
		if err != nil {
			closeAll()
			return nil, err
		}
		closers = append(closers, func() { _ = c.Close() })
		out.cache = c
		log.WithField("addr", cfg.RedisAddr).Info("redis latest-price cache enabled")
	}

	out.close = closeAll
	return out, nil
}
