package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zkBob/bob-circulating-supply/internal/blob"
	"github.com/zkBob/bob-circulating-supply/internal/bobstats"
	"github.com/zkBob/bob-circulating-supply/internal/bobvault"
	"github.com/zkBob/bob-circulating-supply/internal/chain"
	"github.com/zkBob/bob-circulating-supply/internal/config"
	"github.com/zkBob/bob-circulating-supply/internal/handler"
	"github.com/zkBob/bob-circulating-supply/internal/health"
	"github.com/zkBob/bob-circulating-supply/internal/middleware"
	"github.com/zkBob/bob-circulating-supply/internal/supply"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	cfg := config.Load()
	cfg.LogEffective(logger)

	if len(cfg.RPCs) == 0 {
		logger.Error("RPCS is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Blob store backend
	var store blob.Store
	switch cfg.BlobBackend {
	case "file":
		store = blob.NewFileStore(cfg.SnapshotDir)
	case "redis":
		rs, err := blob.NewRedisStore(cfg.RedisURL, cfg.RedisPassword)
		if err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer rs.Close()
		store = rs
	case "postgres":
		if cfg.DatabaseURL == "" {
			logger.Error("DATABASE_URL is required for the postgres blob backend")
			os.Exit(1)
		}
		ps, err := blob.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer ps.Close()
		store = ps
	default:
		logger.Error("unknown blob backend", "backend", cfg.BlobBackend)
		os.Exit(1)
	}
	logger.Info("blob store ready", "backend", cfg.BlobBackend)

	// Supply aggregator over all configured RPC endpoints
	endpoints := make([]*chain.Endpoint, 0, len(cfg.RPCs))
	for _, url := range cfg.RPCs {
		endpoints = append(endpoints, chain.NewEndpoint(
			url, cfg.TokenAddress, cfg.RetryAttempts, cfg.RetryDelay, cfg.RPCTimeout, logger))
	}
	aggregator := supply.New(endpoints, cfg.UpdateInterval, logger)

	// Snapshot streams
	stats := bobstats.NewService(store, cfg.BobStatsKey, logger)
	vaults := bobvault.NewVaults(store, cfg.BobVaultChains, cfg.BobVaultTemplate, logger)

	// Health registry
	registry := health.NewRegistry(logger)
	registry.Append(aggregator)
	registry.Append(stats)
	registry.AppendGrouped(vaults)

	go aggregator.Run(ctx)

	// HTTP routes
	r := chi.NewRouter()
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(cfg.FrontendOrigin))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", handler.Healthz())
	r.Get("/health", handler.Health(registry))

	r.Get("/", handler.Redirect("/supply/"))
	r.Get("/bobstat", handler.Redirect("/bobstats/"))
	r.Get("/supply", handler.Redirect("/supply/"))
	r.Get("/supply/", handler.TotalSupply(aggregator))

	r.Route("/bobstats", func(r chi.Router) {
		r.Get("/", handler.StatsData(stats))
		r.Get("/data", handler.StatsData(stats))
		r.Get("/yield", handler.StatsYield(stats))
		r.Post("/upload", handler.StatsUpload(stats, cfg.UploadToken))
	})

	r.Route("/coingecko/bobvault/{chain}", func(r chi.Router) {
		r.Get("/pairs", handler.VaultPairs(vaults))
		r.Get("/tickers", handler.VaultTickers(vaults))
		r.Get("/orderbook", handler.VaultOrderbook(vaults))
		r.Get("/historical_trades", handler.VaultHistoricalTrades(vaults))
		r.Post("/upload", handler.VaultUpload(vaults, cfg.UploadToken))
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down gracefully")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}
