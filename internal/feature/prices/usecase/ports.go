// Package usecase implements the price ingestion and alerting pipeline.
package usecase

import (
	"context"
	"time"

	"stockpulse/internal/feature/prices/domain/entity"
)

// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).

// MarketRepository fetches a bounded trailing window of daily bars from an external provider.
type MarketRepository interface {
	// FetchWindow returns at most windowDays calendar days of history for symbol.
	// Failures are returned as *domain.FetchError.
	FetchWindow(ctx context.Context, symbol string, windowDays int) (entity.FetchResult, error)
}

// TickerRepository persists ticker identities.
type TickerRepository interface {
	// FindBySymbol matches case-insensitively and returns domain.ErrTickerNotFound when absent.
	FindBySymbol(ctx context.Context, symbol string) (entity.Ticker, error)
	// Create returns domain.ErrTickerExists when the symbol is already stored.
	Create(ctx context.Context, t *entity.Ticker) error
	List(ctx context.Context) ([]entity.Ticker, error)
	// SetNameIfEmpty stores name only when the current name is empty.
	SetNameIfEmpty(ctx context.Context, id uint, name string) error
}

// BarRepository is the write side of the bar store used by the orchestrator.
type BarRepository interface {
	// UpsertBatch inserts or replaces bars by (ticker, date) atomically.
	UpsertBatch(ctx context.Context, tickerID uint, bars []entity.PriceBar) (entity.UpsertStats, error)
	// Ping reports whether the backing store is reachable at all.
	Ping(ctx context.Context) error
}

// LatestBarReader returns the most recent bars of a ticker, newest first.
type LatestBarReader interface {
	Latest(ctx context.Context, tickerID uint, count int) ([]entity.PriceBar, error)
}

// TickerResolver maps a symbol to a persistent ticker identity.
type TickerResolver interface {
	GetOrCreate(ctx context.Context, symbol string) (entity.Ticker, error)
	BackfillName(ctx context.Context, t entity.Ticker, name string) (entity.Ticker, error)
}

// AlertChecker decides whether the latest move of a ticker fires an alert.
type AlertChecker interface {
	Evaluate(ctx context.Context, t entity.Ticker) (*entity.AlertEvent, error)
}

// Notifier delivers an alert to an external channel. One attempt per call.
type Notifier interface {
	Send(ctx context.Context, event entity.AlertEvent) error
}

// AlertGuard records delivered alerts so the same alert is not sent twice.
type AlertGuard interface {
	// MarkOnce returns true the first time key is marked within ttl.
	MarkOnce(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// Limiter throttles calls to the price provider.
type Limiter interface {
	Wait(ctx context.Context) error
}

// Metrics records per-ticker pipeline outcomes.
type Metrics interface {
	RecordTicker(res TickerResult, elapsed time.Duration)
}
