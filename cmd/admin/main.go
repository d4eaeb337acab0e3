package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/JillVernus/claude-relay-service/internal/accounts"
	"github.com/JillVernus/claude-relay-service/internal/cache"
	"github.com/JillVernus/claude-relay-service/internal/config"
	"github.com/JillVernus/claude-relay-service/internal/database"
	"github.com/JillVernus/claude-relay-service/internal/logging"
	"github.com/JillVernus/claude-relay-service/internal/logquery"
	"github.com/JillVernus/claude-relay-service/internal/monitoring"
	"github.com/JillVernus/claude-relay-service/internal/pricing"
	"github.com/JillVernus/claude-relay-service/internal/requestlog"
	"github.com/JillVernus/claude-relay-service/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logging.Setup(&cfg.Logging, cfg.Server.Env)

	log.Info().
		Str("env", cfg.Server.Env).
		Msg("Starting relay admin server")

	rdb, err := cache.New(cfg.Redis.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// Postgres backs the provider-account directory; without it the
	// resolver falls back to the Redis-hash account backends.
	var db *database.DB
	var lookups []accounts.Lookup
	if cfg.Database.URL != "" {
		db, err = database.New(cfg.Database.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer db.Close()
		lookups = accounts.DirectoryLookups(accounts.NewDirectoryStore(db.Pool))
	} else {
		log.Warn().Msg("DATABASE_URL not set; resolving accounts from Redis hashes")
		lookups = accounts.RedisLookups(rdb)
	}

	monitoring.Init()
	if cfg.Monitoring.PrometheusEnabled {
		go startMetricsServer(cfg.Monitoring.PrometheusPort)
	}

	priceTable, err := pricing.LoadTable(&cfg.Pricing)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load model price table")
	}

	logStore := requestlog.NewStore(rdb, &cfg.RequestLog)
	pricingStore := pricing.NewStore(rdb, &cfg.Pricing)
	calculator := pricing.NewCalculator(priceTable, pricingStore)
	resolver := accounts.NewResolver(lookups, cfg.Resolver.LookupTimeout)
	logQuery := logquery.NewService(logStore, resolver, calculator)

	srv := server.NewAPIServer(cfg, rdb, db, logQuery, pricingStore)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      srv.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("Admin server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().
		Str("signal", sig.String()).
		Msg("Shutdown signal received, gracefully shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited gracefully")
}

func startMetricsServer(port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", monitoring.Handler())

	metricsServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	log.Info().Int("port", port).Msg("Prometheus metrics server listening")

	if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("Metrics server error")
	}
}
