package di

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"stockpulse/internal/app/config"
	"stockpulse/internal/app/scheduler"
	analyticsusecase "stockpulse/internal/feature/analytics/usecase"
	newsadapters "stockpulse/internal/feature/news/adapters"
	newsusecase "stockpulse/internal/feature/news/usecase"
	priceadapters "stockpulse/internal/feature/prices/adapters"
	"stockpulse/internal/feature/prices/usecase"
	"stockpulse/internal/platform/cache"
	infradb "stockpulse/internal/platform/db"
	"stockpulse/internal/platform/externalapi/marketwatch"
	infrahttp "stockpulse/internal/platform/http"
	"stockpulse/internal/platform/metrics"
	"stockpulse/internal/platform/notify"
	infraredis "stockpulse/internal/platform/redis"
	"stockpulse/internal/shared/ratelimiter"
)

// App holds every wired component shared by the server and the collector.
type App struct {
	Config config.Config
	Log    zerolog.Logger

	DB    *gorm.DB
	Redis *redis.Client // nil = キャッシュなし

	Registry  *usecase.Registry
	Bars      *cache.CachingBarRepository
	Ingest    *usecase.IngestUsecase
	News      *newsusecase.NewsUsecase // nil when news is disabled
	Analytics *analyticsusecase.AnalyticsUsecase
	Runner    *scheduler.Runner

	Metrics *prometheus.Registry
}

// Models returns every table in migration order.
func Models() []any {
	return append(priceadapters.Models(), newsadapters.Models()...)
}

// Build connects to the stores and wires all features.
func Build(ctx context.Context, cfg config.Config, migrate bool, log zerolog.Logger) (*App, error) {
	db, err := infradb.OpenDB(infradb.LoadConfigFromEnv(), migrate, log, Models()...)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	rdb, err := infraredis.NewRedisClient(ctx, infraredis.LoadConfig(), log)
	if err != nil {
		log.Warn().Msg("redis unavailable, running without cache")
		rdb = nil
	}

	market, err := NewMarket(cfg.Ingest.Provider, log)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	tickers := priceadapters.NewTickerRepository(db)
	registry := usecase.NewRegistry(tickers)
	bars := NewBarStore(db, rdb, cfg.Cache.WindowTTL)

	notifyCfg := notify.LoadConfig()
	notifyCfg.Timeout = cfg.Alert.NotifyTimeout
	notifier := notify.New(notifyCfg, infrahttp.NewHTTPClient(cfg.Alert.NotifyTimeout), log)

	ingest := usecase.NewIngestUsecase(
		usecase.Config{
			WindowDays:    cfg.Ingest.WindowDays,
			NotifyTimeout: cfg.Alert.NotifyTimeout,
			AlertTTL:      cfg.Alert.GuardTTL,
		},
		market,
		registry,
		bars,
		usecase.NewAlertEvaluator(bars, cfg.Alert.Threshold()),
		notifier,
		usecase.WithGuard(NewAlertGuard(rdb)),
		usecase.WithLimiter(ratelimiter.PerMinute(cfg.Ingest.RatePerMinute)),
		usecase.WithMetrics(metrics.New(reg)),
		usecase.WithLogger(log),
	)

	var news *newsusecase.NewsUsecase
	if cfg.News.Enabled {
		scraper := marketwatch.NewScraper(
			marketwatch.Config{URL: cfg.News.SourceURL, Timeout: cfg.News.Timeout},
			infrahttp.NewHTTPClient(cfg.News.Timeout),
			log,
		)
		news = newsusecase.NewNewsUsecase(scraper, newsadapters.NewArticleRepository(db), registry, log)
	}

	app := &App{
		Config:    cfg,
		Log:       log,
		DB:        db,
		Redis:     rdb,
		Registry:  registry,
		Bars:      bars,
		Ingest:    ingest,
		News:      news,
		Analytics: analyticsusecase.NewAnalyticsUsecase(registry, bars, time.Now),
		Metrics:   reg,
	}
	app.Runner = scheduler.NewRunner(ingest, app.newsCollector(), cfg.WatchList, cfg.Ingest.RunTimeout, log)
	return app, nil
}

// newsCollector avoids handing a typed nil to the runner.
func (a *App) newsCollector() scheduler.NewsCollector {
	if a.News == nil {
		return nil
	}
	return a.News
}

// MetricsHandler serves the app registry in the Prometheus text format.
func (a *App) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(a.Metrics, promhttp.HandlerOpts{Registry: a.Metrics})
}

// Close releases the database and Redis connections.
func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Log.Error().Err(err).Msg("failed to close redis client")
		}
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			a.Log.Error().Err(err).Msg("failed to close database")
		}
	}
}
