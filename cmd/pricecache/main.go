package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rickgao/pricecache/internal/api"
	"github.com/rickgao/pricecache/internal/auth"
	"github.com/rickgao/pricecache/internal/config"
	"github.com/rickgao/pricecache/internal/dataset"
	"github.com/rickgao/pricecache/internal/model"
	"github.com/rickgao/pricecache/internal/rangecache"
	"github.com/rickgao/pricecache/internal/server"
	"github.com/rickgao/pricecache/internal/store"
	"github.com/rickgao/pricecache/internal/version"
	"github.com/rickgao/pricecache/internal/warmer"
)

func main() {
	configPath := flag.String("config", "configs/pricecache.local.yaml", "path to config file")
	flag.Parse()

	// Bootstrap logger until the configured level is known
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	logger.Info("starting pricecache",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Log.SlogLevel(),
	})).With("instance_id", cfg.Instance.ID)
	slog.SetDefault(logger)

	logger.Info("configuration loaded",
		"api_url", cfg.API.BaseURL,
		"backend", cfg.Storage.Backend,
		"hot_cache", cfg.Storage.HotCache.Enabled,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("pricecache failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	// Open storage
	st, closeStore, err := store.Open(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer closeStore()

	// Resolve credentials
	creds, err := auth.Resolve(cfg.API.APIKey, cfg.API.APIKeyFile)
	if err != nil {
		return fmt.Errorf("resolve api key: %w", err)
	}
	logger.Info("api key loaded", "source", creds.Source, "key", creds.Redacted())

	// Create API client
	apiClient := api.NewClient(
		cfg.API.BaseURL,
		creds.APIKey,
		api.WithLogger(logger),
		api.WithTimeout(cfg.API.Timeout),
		api.WithRetries(cfg.API.MaxRetries, cfg.API.RetryBackoff),
		api.WithQueryLimit(cfg.API.QueryLimit),
	)

	// Create range cache
	cache := rangecache.New(st, apiClient, rangecache.Config{
		DefaultResolution: cfg.Cache.DefaultResolution,
		FetchTimeout:      cfg.Cache.FetchTimeout,
		CheckKey: func(k model.SeriesKey) error {
			_, err := dataset.Resolve(k)
			return err
		},
	}, logger)

	// Start HTTP server
	srv := server.New(cache, st, logger)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting http server", "port", cfg.Server.Port)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// Start cache warmer
	if cfg.Warmer.Enabled {
		keys := make([]model.SeriesKey, 0, len(cfg.Warmer.Series))
		for _, s := range cfg.Warmer.Series {
			k, err := s.Key()
			if err != nil {
				return fmt.Errorf("warmer series: %w", err)
			}
			keys = append(keys, k)
		}

		wcfg := warmer.DefaultConfig()
		wcfg.Interval = cfg.Warmer.Interval
		wcfg.Lookback = cfg.Warmer.Lookback
		wcfg.Concurrency = cfg.Warmer.Concurrency
		wcfg.Resolution = cfg.Cache.DefaultResolution

		w := warmer.New(wcfg, cache, keys, logger)
		if err := w.Start(ctx); err != nil {
			return fmt.Errorf("start warmer: %w", err)
		}
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer shutdownCancel()
			w.Stop(shutdownCtx)
		}()
	}

	logger.Info("pricecache running",
		"health_url", fmt.Sprintf("http://localhost:%d/health", cfg.Server.Port),
	)

	// Wait for shutdown
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	}

	logger.Info("shutting down...")

	// Graceful shutdown of http server
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http server shutdown", "error", err)
	}

	logger.Info("pricecache stopped")
	return nil
}
