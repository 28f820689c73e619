package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"PriceScout/internal/catalogapi"
	"PriceScout/internal/config"
	"PriceScout/internal/product"
	"PriceScout/internal/stats"
	"PriceScout/internal/storefront"
	"PriceScout/pkg/kit"
)

const service = "storefront"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log, err := kit.NewLogger(service, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(context.Background(), cfg, log); err != nil {
		log.Fatal("storefront stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	tag, err := cfg.LanguageTag()
	if err != nil {
		return err
	}

	client := catalogapi.NewClient(cfg.CatalogURL, cfg.CatalogTimeout)
	client.Log = log.Named("catalog")
	client.Metrics = catalogapi.NewMetrics(reg)
	var tokens catalogapi.TokenSource
	if cfg.CatalogTokenSecret != "" {
		tokens = catalogapi.NewTokenMaker(cfg.CatalogTokenSecret, service)
		client.Tokens = tokens
	}
	if cfg.BreakerEnabled {
		client.WithBreaker(cfg.Breaker())
	}

	store, closeStore, err := openStats(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	app, err := storefront.NewHandler(storefront.Deps{
		API:              client,
		CatalogURL:       cfg.CatalogURL,
		Tokens:           tokens,
		Stats:            store,
		Sorter:           product.NewSorter(tag),
		SessionTTL:       cfg.SessionTTL,
		MaxSessions:      cfg.MaxSessions,
		SearchRateLimit:  cfg.SearchRateLimit,
		SearchRateWindow: cfg.SearchRateWindow,
	}, storefront.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       reg,
		MetricsEnabled: cfg.MetricsEnabled,
		MetricsToken:   cfg.MetricsToken,
	})
	if err != nil {
		return fmt.Errorf("init storefront handler: %w", err)
	}

	log.Info("storefront configured",
		zap.String("environment", cfg.Environment),
		zap.String("catalog_url", cfg.CatalogURL),
		zap.String("locale", tag.String()),
		zap.Bool("breaker", cfg.BreakerEnabled),
		zap.Bool("postgres_stats", cfg.DatabaseURL != ""),
	)

	return kit.RunHTTPServer(ctx, cfg.Addr(), app, log, app.Close)
}

func openStats(ctx context.Context, cfg *config.Config, log *zap.Logger) (stats.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		log.Info("search stats kept in memory")
		return stats.NewMemStore(), func() {}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("open stats db: %w", err)
	}

	store := stats.NewPostgresStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("stats schema: %w", err)
	}
	return store, pool.Close, nil
}
