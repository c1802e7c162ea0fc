// Command catalog-export walks the marketplace catalog and writes every
// distinct item to a spreadsheet (or SQLite database).
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sternrassler/catalog-exporter/pkg/catalog"
	"github.com/Sternrassler/catalog-exporter/pkg/client"
	"github.com/Sternrassler/catalog-exporter/pkg/config"
	"github.com/Sternrassler/catalog-exporter/pkg/export"
	"github.com/Sternrassler/catalog-exporter/pkg/logging"
	"github.com/Sternrassler/catalog-exporter/pkg/metrics"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.LogLevel),
		Pretty: cfg.LogPretty,
		Output: os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsAddr != "" {
		srv := newMetricsServer(cfg.MetricsAddr)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Str("addr", cfg.MetricsAddr).Msg("Metrics server failed")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
		log.Info().Str("addr", cfg.MetricsAddr).Msg("Serving metrics")
	}

	rows, err := run(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("Export failed")
		os.Exit(1)
	}
	log.Info().Int("rows", rows).Str("path", cfg.OutputPath).Msg("Export complete")
}

// run performs one full export and returns the number of rows written.
func run(ctx context.Context, cfg *config.Config) (int, error) {
	runID := uuid.NewString()
	logger := logging.NewRunLogger(logging.ComponentExporter, runID)
	start := time.Now()

	data, err := config.LoadCatalogData(cfg.CatalogDataPath)
	if err != nil {
		return 0, err
	}

	clientCfg := client.DefaultConfig(cfg.UserAgent)
	clientCfg.Timeout = cfg.HTTPTimeout
	clientCfg.RequestsPerSecond = cfg.RequestsPerSecond
	clientCfg.MaxAttempts = cfg.MaxAttempts

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return 0, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		redisClient := redis.NewClient(opts)
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			return 0, fmt.Errorf("connect to redis: %w", err)
		}
		logger.Info().Str("addr", opts.Addr).Msg("Connected to Redis")
		clientCfg.Redis = redisClient
	}

	api, err := client.New(clientCfg)
	if err != nil {
		return 0, fmt.Errorf("create client: %w", err)
	}
	defer api.Close()

	writer, err := export.New(cfg.OutputFormat, cfg.OutputPath)
	if err != nil {
		return 0, err
	}

	endpoints := catalog.NewEndpoints(cfg.API, data)
	normalizer := catalog.NewNormalizer(
		data,
		catalog.DefaultResaleChain(api, endpoints, logging.NewRunLogger(logging.ComponentResale, runID)),
		catalog.NewResellerCollector(api, endpoints, logging.NewRunLogger(logging.ComponentResellers, runID)),
		logging.NewRunLogger(logging.ComponentNormalizer, runID),
	)
	walker := catalog.NewWalker(api, endpoints, data.Categories, normalizer, logging.NewRunLogger(logging.ComponentWalker, runID))

	logger.Info().
		Int("categories", len(data.Categories)).
		Str("format", cfg.OutputFormat).
		Msg("Starting catalog walk")

	items, err := walker.Walk(ctx)
	if err != nil {
		return 0, fmt.Errorf("walk catalog: %w", err)
	}

	unique := catalog.Dedupe(items)
	logger.Info().
		Int("items", len(items)).
		Int("unique", len(unique)).
		Dur("duration", time.Since(start)).
		Msg("Catalog walk complete")

	if err := writer.Write(ctx, unique); err != nil {
		return 0, fmt.Errorf("export: %w", err)
	}

	return len(unique), nil
}

func newMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/health", healthHandler)
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}
