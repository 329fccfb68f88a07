package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"stockpulse/internal/app/config"
	"stockpulse/internal/app/di"
	"stockpulse/internal/app/router"
	"stockpulse/internal/app/scheduler"
	analyticshandler "stockpulse/internal/feature/analytics/transport/handler"
	newshandler "stockpulse/internal/feature/news/transport/handler"
	priceshandler "stockpulse/internal/feature/prices/transport/handler"
	jwtmw "stockpulse/internal/platform/jwt"
	"stockpulse/internal/platform/logging"
)

const shutdownTimeout = 15 * time.Second

func main() {
	_ = godotenv.Load(".env")

	cfg, err := config.Load("")
	if err != nil {
		// ロガー設定前なので標準エラーへ
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("failed to load config")
	}
	log := logging.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := di.Build(ctx, cfg, runMigrations(), log)
	if err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
	defer app.Close()

	// Handler
	h := router.Handlers{
		Store:     app.Bars,
		Prices:    priceshandler.NewPricesHandler(app.Registry, app.Runner),
		Analytics: analyticshandler.NewAnalyticsHandler(app.Analytics),
		Metrics:   app.MetricsHandler(),
	}
	if app.News != nil {
		h.News = newshandler.NewNewsHandler(app.News)
	}

	// JWT_SECRETチェック（開発中の注意喚起）
	secret := jwtmw.LoadSecret()
	if secret == "" {
		log.Warn().Msg("JWT_SECRET is not set. Admin endpoints will reject every request.")
	}

	var sched *scheduler.Scheduler
	if cfg.Ingest.Schedule != "" {
		sched = scheduler.New(app.Runner, log)
		if err := sched.Start(cfg.Ingest.Schedule); err != nil {
			log.Fatal().Err(err).Str("schedule", cfg.Ingest.Schedule).Msg("invalid ingestion schedule")
		}
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router.NewRouter(h, secret),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown")
	}
	if sched != nil {
		// 実行中のジョブの終了を待つ
		select {
		case <-sched.Stop().Done():
		case <-shutdownCtx.Done():
			log.Warn().Msg("scheduled run did not finish before shutdown")
		}
	}
}

// runMigrations reports whether RUN_MIGRATIONS is set to a true value.
func runMigrations() bool {
	b, _ := strconv.ParseBool(os.Getenv("RUN_MIGRATIONS"))
	return b
}
