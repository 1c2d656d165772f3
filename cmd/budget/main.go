package main

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"budget/internal/backend"
	"budget/internal/cache"
	"budget/internal/cli"
	apphttp "budget/internal/http"
	"budget/internal/log"
	"budget/internal/metrics"
	"budget/internal/services"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg.LogLevel)

	loc, err := cfg.Location()
	if err != nil {
		logger.Error("Invalid timezone", log.FieldError, err.Error())
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err.Error())
		os.Exit(1)
	}
	store, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err.Error(), log.FieldBackend, bcfg.Type.String())
		os.Exit(1)
	}
	defer store.Close()

	m := metrics.New()
	charts := cache.NewLRUCache[template.HTML](cfg.ChartCacheSize, cfg.ChartCacheTTL)
	cacheLogger := logger.WithComponent(log.ComponentCache)
	sweeper := cache.NewManager(func(removed int) {
		if removed > 0 {
			cacheLogger.Debug("Cache cleanup completed", "entries_removed", removed)
		}
	})
	sweeper.Register(charts)

	opts := services.Options{
		Logger:     logger,
		Metrics:    m,
		Location:   loc,
		Currency:   cfg.Currency,
		ChartCache: charts,
	}
	if client := cli.ConnectAMQP(logger, cfg); client != nil {
		opts.Publisher = client
		defer client.Close()
	}

	svc, err := services.NewLedgerService(ctx, store.KV, opts)
	if err != nil {
		logger.Error("Failed to load ledger", log.FieldError, err.Error())
		os.Exit(1)
	}

	srv := apphttp.NewServer(":"+cfg.Port, svc, apphttp.Options{
		Logger:             logger,
		Metrics:            m,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		ImportMaxBytes:     cfg.ImportMaxBytes,
		CacheManager:       sweeper,
	})
	srv.MaxHeaderBytes = 1 << 16 // 64KB
	sweeper.Start(ctx, cfg.ChartCacheTTL)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting budget server", "port", cfg.Port, log.FieldBackend, bcfg.Type.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server", log.FieldOperation, log.OpShutdown)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err.Error(), "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
