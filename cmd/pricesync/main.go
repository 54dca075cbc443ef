package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"pricesync/internal/adapter/cache"
	"pricesync/internal/adapter/handler"
	"pricesync/internal/adapter/provider"
	"pricesync/internal/adapter/storage"
	"pricesync/internal/application/service"
	"pricesync/internal/application/usecase"
	"pricesync/internal/concurrency/worker"
	"pricesync/internal/domain/port"
	"pricesync/internal/infrastructure/config"
	"pricesync/internal/infrastructure/logger"
	"pricesync/internal/infrastructure/metrics"
	"pricesync/internal/infrastructure/server"
)

var (
	configPath = flag.String("config", "configs/config.yaml", "Path to the YAML config")
	portFlag   = flag.Int("port", 0, "Port number")
	helpFlag   = flag.Bool("help", false, "Show help")
)

type App struct {
	config    *config.Config
	logger    *slog.Logger
	server    *server.Server
	cache     port.HotCache
	cold      port.ColdStore
	scheduler *service.Scheduler
	pool      *worker.Pool
	cancel    context.CancelFunc
	serverErr chan error
}

func main() {
	flag.Parse()

	if *helpFlag {
		printUsage()
		os.Exit(0)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Failed to load .env: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if *portFlag != 0 {
		cfg.Server.Port = *portFlag
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	log.Info("starting pricesync", "version", "1.0.0", "providers", cfg.Providers.Mode, "cold_store", cfg.ColdStore.Backend)

	ctx, cancel := context.WithCancel(context.Background())
	app := &App{config: cfg, logger: log, cancel: cancel, serverErr: make(chan error, 1)}

	if err := app.run(ctx); err != nil {
		log.Error("startup failed", "error", err)
		app.shutdown()
		os.Exit(1)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	if err := waitForExit(sigCh, app.serverErr); err != nil {
		log.Error("server error", "error", err)
		app.shutdown()
		os.Exit(1)
	}

	log.Info("shutting down gracefully")
	app.shutdown()
}

// waitForExit blocks until a signal arrives or the HTTP server stops on its
// own, returning the server's error in the latter case.
func waitForExit(sigCh <-chan os.Signal, serverErr <-chan error) error {
	select {
	case <-sigCh:
		return nil
	case err := <-serverErr:
		return err
	}
}

func (a *App) run(ctx context.Context) error {
	cfg := a.config
	priceKey := cfg.PriceKey()

	redisAdapter, err := cache.NewRedisAdapter(
		cfg.RedisAddr(),
		cfg.Redis.Password,
		cfg.Redis.DB,
		cfg.Redis.PoolSize,
		cfg.Redis.KeyPrefix,
		priceKey,
	)
	if err != nil {
		return fmt.Errorf("failed to initialize redis: %w", err)
	}
	a.cache = redisAdapter

	cold, err := a.openColdStore(ctx, priceKey)
	if err != nil {
		return err
	}
	a.cold = cold

	priceProvider, metadataProvider := a.providers()

	m := metrics.New()
	prices := service.NewPriceRefresher(priceProvider, a.cache, service.NewNormalizer(), cfg.Providers.Price.Limit, m, a.logger)
	registry := service.NewRegistrySync(metadataProvider, a.cache, a.cold, m, a.logger)
	snapshots := service.NewSnapshotWriter(a.cache, a.cold, m, a.logger)
	jobs := service.NewJobs(prices, registry, snapshots, m, a.logger)

	a.pool = worker.NewPool(cfg.Workers.Count, cfg.Workers.QueueSize, jobs, a.logger)
	results := a.pool.Start(ctx)
	go func() {
		for res := range results {
			if res.Err != nil {
				a.logger.Warn("manual job finished with error", "job", res.Request.Job, "run_id", res.Request.RunID, "error", res.Err)
			}
		}
	}()

	hour, minute, err := cfg.DailyAtClock()
	if err != nil {
		return err
	}
	a.scheduler = service.NewScheduler(jobs, cfg.Schedule.PriceInterval, hour, minute, cfg.Schedule.RunOnStart, a.logger)
	a.scheduler.Start(ctx)

	reads := usecase.NewReadUseCase(a.cache, a.cold, cfg.Status.StaleAfter, a.logger)
	router := handler.NewRouter(handler.Handlers{
		Prices:    handler.NewPriceHandler(reads, cfg.Providers.Price.Limit, a.logger),
		Registry:  handler.NewRegistryHandler(reads, a.logger),
		Snapshots: handler.NewSnapshotHandler(reads, cfg.Providers.Price.Limit, a.logger),
		Admin:     handler.NewAdminHandler(a.pool, a.logger),
		Health:    handler.NewHealthHandler(reads),
		Metrics:   m.Handler(),
	}, a.logger)

	a.server = server.NewServer(server.Options{
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, router, a.logger)

	go func() {
		if err := a.server.Start(); err != nil {
			a.serverErr <- err
		}
	}()

	return nil
}

// openColdStore returns a nil interface when no cold tier is configured so
// the services can detect its absence.
func (a *App) openColdStore(ctx context.Context, priceKey string) (port.ColdStore, error) {
	cfg := a.config.ColdStore

	switch cfg.Backend {
	case "s3":
		backend, err := storage.NewS3Backend(ctx, storage.S3Options{
			Endpoint:        cfg.S3.Endpoint,
			Region:          cfg.S3.Region,
			Bucket:          cfg.S3.Bucket,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			UsePathStyle:    cfg.S3.UsePathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize s3 cold store: %w", err)
		}
		return storage.NewObjectStore(backend, priceKey), nil

	case "postgres":
		backend, err := storage.NewPostgresBackend(
			a.config.PostgresDSN(),
			cfg.PostgreSQL.MaxOpenConns,
			cfg.PostgreSQL.MaxIdleConns,
			cfg.PostgreSQL.ConnMaxLifetime,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize postgres cold store: %w", err)
		}
		if err := backend.InitSchema(ctx); err != nil {
			backend.Close()
			return nil, fmt.Errorf("failed to initialize schema: %w", err)
		}
		return storage.NewObjectStore(backend, priceKey), nil

	default:
		a.logger.Warn("no cold store configured, daily snapshots will fail")
		return nil, nil
	}
}

func (a *App) providers() (port.PriceProvider, port.MetadataProvider) {
	cfg := a.config.Providers
	if cfg.Mode == "test" {
		synthetic := provider.NewSynthetic("synthetic", nil, a.logger)
		return synthetic, synthetic
	}
	return provider.NewPriceClient(cfg.Price.Name, cfg.Price.BaseURL, cfg.Price.Timeout),
		provider.NewMetadataClient(cfg.Metadata.Name, cfg.Metadata.BaseURL, cfg.Metadata.APIKey,
			cfg.Metadata.Pages, cfg.Metadata.PerPage, cfg.Metadata.Timeout)
}

func (a *App) shutdown() {
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	if a.pool != nil {
		a.pool.Stop()
	}
	if a.cancel != nil {
		a.cancel()
	}

	if a.server != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("shutdown error", "error", err)
		}
	}

	if a.cold != nil {
		if err := a.cold.Close(); err != nil {
			a.logger.Error("failed to close cold store", "error", err)
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("failed to close redis", "error", err)
		}
	}

	a.logger.Info("shutdown complete")
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  pricesync [--config <path>] [--port <N>]")
	fmt.Println("  pricesync --help")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --config PATH  YAML config file (default configs/config.yaml)")
	fmt.Println("  --port N       Port number")
}
