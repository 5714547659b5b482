// Package main serves the stored TWAP prices over HTTP:
// /prices, /prices/latest, /status, /health and /metrics.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vistastaking/indexers/internal/cache"
	"github.com/vistastaking/indexers/internal/config"
	"github.com/vistastaking/indexers/internal/logging"
	"github.com/vistastaking/indexers/internal/storage"
	chstore "github.com/vistastaking/indexers/internal/storage/clickhouse"
	pgstore "github.com/vistastaking/indexers/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (optional)")
	addr := flag.String("addr", ":8080", "HTTP listen address")
	source := flag.String("source", "postgres", "Price source: postgres or clickhouse")
	databaseURL := flag.String("database-url", "", "PostgreSQL connection string (overrides config and DATABASE_URL)")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *databaseURL != "" {
		cfg.DatabaseURL = *databaseURL
	}

	logger, err := logging.New(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "create logger: %v\n", err)
		os.Exit(1)
	}
	log := logging.WithComponent(logger, "main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store storage.PriceStore
	switch *source {
	case "postgres":
		if cfg.DatabaseURL == "" {
			log.Fatal("database_url is required for -source=postgres")
		}
		pool, err := pgstore.Shared(ctx, cfg.DatabaseURL)
		if err != nil {
			log.WithError(err).Fatal("connect to postgres")
		}
		defer pgstore.CloseShared()
		store = pgstore.NewPriceStore(pool)
	case "clickhouse":
		if cfg.ClickHouseDSN == "" {
			log.Fatal("clickhouse_dsn is required for -source=clickhouse")
		}
		conn, err := chstore.NewConn(ctx, cfg.ClickHouseDSN)
		if err != nil {
			log.WithError(err).Fatal("connect to clickhouse")
		}
		defer conn.Close()
		store = chstore.NewPriceStore(conn)
	default:
		log.Fatalf("unknown source %q", *source)
	}

	var latest LatestReader
	if cfg.RedisAddr != "" {
		c, err := cache.NewRedisCache(ctx, cfg.RedisAddr, cfg.RedisPassword, 0, cfg.CacheTTL)
		if err != nil {
			log.WithError(err).Warn("redis unavailable, serving latest prices from the store")
		} else {
			defer c.Close()
			latest = c
		}
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           NewServer(store, latest, logger).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.WithFields(logrus.Fields{"addr": *addr, "source": *source}).Info("price server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("server error")
	}
	log.Info("shutdown complete")
}
