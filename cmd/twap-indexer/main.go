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

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"

	"github.com/vistastaking/indexers/internal/config"
	"github.com/vistastaking/indexers/internal/domain"
	"github.com/vistastaking/indexers/internal/indexer"
	"github.com/vistastaking/indexers/internal/logging"
	"github.com/vistastaking/indexers/internal/observability"
	"github.com/vistastaking/indexers/internal/oracle"
	"github.com/vistastaking/indexers/internal/orchestrator"
	"github.com/vistastaking/indexers/internal/pairs"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (optional)")
	mode := flag.String("mode", "live", "Run mode: live (follow the head) or block (evaluate one block and exit)")
	blockNumber := flag.Uint64("block", 0, "Block number for -mode=block")
	startBlock := flag.Uint64("start-block", 0, "First block for -mode=live (default: current head)")
	rpcURL := flag.String("rpc-url", "", "Ethereum JSON-RPC endpoint (overrides config and RPC_URL)")
	databaseURL := flag.String("database-url", "", "PostgreSQL connection string (overrides config and DATABASE_URL)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics HTTP address (overrides config)")
	logLevel := flag.String("log-level", "", "Log level (overrides config and LOG_LEVEL)")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *rpcURL != "" {
		cfg.RPCURL = *rpcURL
	}
	if *databaseURL != "" {
		cfg.DatabaseURL = *databaseURL
	}
	if *useMemory {
		cfg.UseMemory = true
	}
	if *metricsAddr != "" {
		cfg.MetricsAddr = *metricsAddr
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if err := cfg.Complete(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(logging.Options{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "create logger: %v\n", err)
		os.Exit(1)
	}
	log := logging.WithComponent(logger, "main")

	metricsServer := startMetricsServer(log, cfg.MetricsAddr)

	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan error, 1)

	go func() {
		sig := <-sigCh
		log.WithField("signal", sig.String()).Info("initiating graceful shutdown")
		cancel()

		select {
		case sig := <-sigCh:
			log.WithField("signal", sig.String()).Warn("second signal, forcing immediate shutdown")
			os.Exit(1)
		case <-time.After(30 * time.Second):
			log.Error("graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	switch *mode {
	case "live":
		err = runLive(ctx, logger, cfg, *startBlock)
	case "block":
		err = runBlock(ctx, logger, cfg, *blockNumber)
	default:
		err = fmt.Errorf("unknown mode %q", *mode)
	}

	done <- err
	cancel()

	if metricsServer != nil {
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		_ = metricsServer.Shutdown(shutdownCtx)
		stop()
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("indexer failed")
	}

	log.Info("shutdown complete")
}

func startMetricsServer(log *logrus.Entry, addr string) *http.Server {
	if addr == "" || addr == "off" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.WithField("addr", addr).Info("starting metrics server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("metrics server error")
		}
	}()
	return srv
}

// app holds the wired pipeline shared by both modes.
type app struct {
	orch    *orchestrator.Orchestrator
	headers *oracle.HeaderSource
	close   func()
}

func setup(ctx context.Context, logger *logrus.Logger, cfg *config.Config) (*app, error) {
	log := logging.WithComponent(logger, "setup")

	client, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}

	fetcher, err := oracle.NewPoolOracle(client)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("create pool oracle: %w", err)
	}

	sinks, err := openSinks(ctx, logger, cfg)
	if err != nil {
		client.Close()
		return nil, err
	}

	orch := orchestrator.New(orchestrator.Options{
		Fetcher:     fetcher,
		Store:       sinks.store,
		Cache:       sinks.cache,
		Logger:      logger,
		Concurrency: cfg.Concurrency,
	})

	descriptors, err := pairs.FromConfig(cfg.Pairs)
	if err != nil {
		sinks.close()
		client.Close()
		return nil, err
	}
	for _, p := range descriptors {
		if err := orch.Register(p); err != nil {
			sinks.close()
			client.Close()
			return nil, fmt.Errorf("register pair %s: %w", p.ID(), err)
		}
		log.WithFields(logrus.Fields{
			"pair":        p.ID(),
			"pool":        p.Pool.Hex(),
			"seconds_ago": p.SecondsAgo,
		}).Info("pair registered")
	}

	return &app{
		orch:    orch,
		headers: oracle.NewHeaderSource(client),
		close: func() {
			sinks.close()
			client.Close()
		},
	}, nil
}

func runLive(ctx context.Context, logger *logrus.Logger, cfg *config.Config, startBlock uint64) error {
	a, err := setup(ctx, logger, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	runner := indexer.NewRunner(indexer.RunnerOptions{
		Blocks:       a.headers,
		Processor:    a.orch,
		BlockStep:    cfg.BlockStep,
		PollInterval: cfg.PollInterval,
		StartBlock:   startBlock,
		Logger:       logger,
	})
	return runner.Run(ctx)
}

func runBlock(ctx context.Context, logger *logrus.Logger, cfg *config.Config, number uint64) error {
	if number == 0 {
		return errors.New("-block is required for block mode")
	}

	a, err := setup(ctx, logger, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	outcomes, err := indexer.ProcessOne(ctx, a.headers, a.orch, number)
	if err != nil {
		return err
	}
	return summarize(outcomes)
}

// summarize reports an error naming every skipped pair.
func summarize(outcomes []domain.EvaluationOutcome) error {
	var errs []error
	for _, out := range outcomes {
		if out.Skipped() {
			errs = append(errs, fmt.Errorf("%s skipped at %s: %w", out.Pair.ID(), out.Stage, out.Err))
		}
	}
	return errors.Join(errs...)
}
