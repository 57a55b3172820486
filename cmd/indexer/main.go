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

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"nft-token-indexer/internal/config"
	"nft-token-indexer/internal/dispatch"
	"nft-token-indexer/internal/domain"
	"nft-token-indexer/internal/feed"
	"nft-token-indexer/internal/logging"
	"nft-token-indexer/internal/observability"
	"nft-token-indexer/internal/processor"
	"nft-token-indexer/internal/storage"
	chstore "nft-token-indexer/internal/storage/clickhouse"
	"nft-token-indexer/internal/storage/memory"
	"nft-token-indexer/internal/storage/migrations"
	pgstore "nft-token-indexer/internal/storage/postgres"
	redisstore "nft-token-indexer/internal/storage/redis"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to YAML config file")
	backend := flag.String("storage", "", "Storage backend: memory or postgres")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse DSN for contract stats (optional)")
	redisAddr := flag.String("redis-addr", "", "Redis address for marketplace listings (optional)")
	feedMode := flag.String("feed", "", "Feed mode: file or ws")
	feedPath := flag.String("feed-path", "", "JSONL envelope file for the file feed")
	feedURL := flag.String("feed-url", "", "WebSocket endpoint for the ws feed")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics HTTP address (empty keeps config)")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	// Flags override file and environment, but only when set explicitly.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "storage":
			cfg.Storage.Backend = *backend
		case "postgres-dsn":
			cfg.Postgres.DSN = *postgresDSN
		case "clickhouse-dsn":
			cfg.ClickHouse.DSN = *clickhouseDSN
		case "redis-addr":
			cfg.Redis.Addr = *redisAddr
		case "feed":
			cfg.Feed.Mode = *feedMode
		case "feed-path":
			cfg.Feed.Path = *feedPath
		case "feed-url":
			cfg.Feed.URL = *feedURL
		case "metrics-addr":
			cfg.Metrics.Addr = *metricsAddr
		case "log-level":
			cfg.Log.Level = *logLevel
		}
	})

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	metrics := observability.NewMetrics("", prometheus.DefaultRegisterer)

	// Start metrics server if enabled
	if cfg.Metrics.Addr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler(prometheus.DefaultGatherer))
			mux.HandleFunc("/health", healthHandler(logger))
			logger.Info("starting metrics server", zap.String("addr", cfg.Metrics.Addr))
			if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server error", zap.Error(err))
			}
		}()
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())

	// Handle shutdown signals with graceful timeout
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Channel to signal main goroutine completion
	done := make(chan error, 1)

	go func() {
		sig := <-sigCh
		logger.Info("received signal, initiating graceful shutdown", zap.String("signal", sig.String()))
		cancel()

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Warn("received second signal, forcing immediate shutdown", zap.String("signal", sig.String()))
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Warn("graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	err = run(ctx, cfg, logger, metrics)

	// Signal completion to shutdown handler
	done <- err
	cancel()

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("indexer stopped", zap.Error(err))
	}

	logger.Info("shutdown complete")
}

// run wires stores, feed and dispatcher and blocks until the feed ends.
func run(ctx context.Context, cfg *config.Config, logger *zap.Logger, metrics *observability.Metrics) error {
	stores, cleanup, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	decoder, err := feed.NewDecoder()
	if err != nil {
		return err
	}

	var source feed.Source
	switch cfg.Feed.Mode {
	case config.FeedFile:
		source = feed.NewFileSource(cfg.Feed.Path, decoder, logger, metrics)
	case config.FeedWebsocket:
		wsCfg := feed.DefaultWSConfig()
		wsCfg.ReconnectDelay = cfg.ReconnectDelay()
		source = feed.NewWSSource(cfg.Feed.URL, &wsCfg, decoder, logger, metrics)
	}

	d := dispatch.New(processor.Options{
		Stores:  stores,
		Logger:  logger,
		Metrics: metrics,
	})

	logger.Info("indexer started",
		zap.String("storage", cfg.Storage.Backend),
		zap.String("feed", cfg.Feed.Mode),
	)

	return pump(ctx, source, d.Consume)
}

// pump streams envelopes from source into consume. A consume failure cancels
// the source and waits for it, so the source never outlives pump.
func pump(ctx context.Context, source feed.Source, consume func(context.Context, <-chan *feed.Envelope) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	envelopes := make(chan *feed.Envelope, 1024)
	streamErr := make(chan error, 1)
	go func() { streamErr <- source.Stream(ctx, envelopes) }()

	if err := consume(ctx, envelopes); err != nil {
		cancel()
		<-streamErr
		return fmt.Errorf("dispatch: %w", err)
	}
	if err := <-streamErr; err != nil {
		return fmt.Errorf("feed: %w", err)
	}
	return nil
}

// healthHandler answers liveness checks.
func healthHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("ok")); err != nil {
			logger.Debug("write health response", zap.Error(err))
		}
	}
}

// openStores builds the configured store set. The returned cleanup releases connections.
func openStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.Stores, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var stores storage.Stores
	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		pool, err := pgstore.NewPool(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns)
		if err != nil {
			return storage.Stores{}, cleanup, err
		}
		closers = append(closers, pool.Close)

		if cfg.Postgres.Migrate {
			if err := migrations.RunPostgresMigrations(ctx, pool, logger); err != nil {
				cleanup()
				return storage.Stores{}, func() {}, fmt.Errorf("postgres migrations: %w", err)
			}
		}
		stores = pgstore.NewStores(pool)
	default:
		stores = memory.NewStores()
	}

	if cfg.ClickHouse.DSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickHouse.DSN, logger)
		if err != nil {
			cleanup()
			return storage.Stores{}, func() {}, fmt.Errorf("clickhouse migrations: %w", err)
		}
		closers = append(closers, func() { conn.Close() })
		stores.ContractStats = chstore.NewContractStatsStore(conn)
		logger.Info("contract stats stored in clickhouse")
	}

	if cfg.Redis.Addr != "" {
		client, err := redisstore.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			cleanup()
			return storage.Stores{}, func() {}, err
		}
		closers = append(closers, func() { client.Close() })
		stores.Sales = redisstore.NewListingStore(client, domain.ListingSale)
		stores.Rents = redisstore.NewListingStore(client, domain.ListingRent)
		logger.Info("marketplace listings stored in redis", zap.String("addr", cfg.Redis.Addr))
	}

	return stores, cleanup, nil
}
