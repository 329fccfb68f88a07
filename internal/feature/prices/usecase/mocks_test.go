package usecase_test

import (
	"context"
	"errors"
	"time"

	"stockpulse/internal/feature/prices/domain/entity"
)

// ErrDB はモックと期待値の間で共有されるセンチネルエラーです。
var ErrDB = errors.New("database error")

// mockMarketRepository is a mock implementation of the MarketRepository interface.
type mockMarketRepository struct {
	FetchWindowFunc  func(ctx context.Context, symbol string, windowDays int) (entity.FetchResult, error)
	FetchWindowCalls int
	Symbols          []string
}

func (m *mockMarketRepository) FetchWindow(ctx context.Context, symbol string, windowDays int) (entity.FetchResult, error) {
	m.FetchWindowCalls++
	m.Symbols = append(m.Symbols, symbol)
	if m.FetchWindowFunc != nil {
		return m.FetchWindowFunc(ctx, symbol, windowDays)
	}
	return entity.FetchResult{}, errors.New("FetchWindowFunc is not implemented")
}

// mockTickerRepository はTickerRepositoryインターフェースのモック実装です。
type mockTickerRepository struct {
	FindBySymbolFunc   func(ctx context.Context, symbol string) (entity.Ticker, error)
	CreateFunc         func(ctx context.Context, t *entity.Ticker) error
	ListFunc           func(ctx context.Context) ([]entity.Ticker, error)
	SetNameIfEmptyFunc func(ctx context.Context, id uint, name string) error
	FindBySymbolCalls  int
	CreateCalls        int
}

func (m *mockTickerRepository) FindBySymbol(ctx context.Context, symbol string) (entity.Ticker, error) {
	m.FindBySymbolCalls++
	if m.FindBySymbolFunc != nil {
		return m.FindBySymbolFunc(ctx, symbol)
	}
	return entity.Ticker{}, errors.New("FindBySymbolFunc is not implemented")
}

func (m *mockTickerRepository) Create(ctx context.Context, t *entity.Ticker) error {
	m.CreateCalls++
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, t)
	}
	return errors.New("CreateFunc is not implemented")
}

func (m *mockTickerRepository) List(ctx context.Context) ([]entity.Ticker, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, errors.New("ListFunc is not implemented")
}

func (m *mockTickerRepository) SetNameIfEmpty(ctx context.Context, id uint, name string) error {
	if m.SetNameIfEmptyFunc != nil {
		return m.SetNameIfEmptyFunc(ctx, id, name)
	}
	return errors.New("SetNameIfEmptyFunc is not implemented")
}

// mockTickerResolver resolves every symbol to ticker ID 1 unless GetOrCreateFunc is set.
type mockTickerResolver struct {
	GetOrCreateFunc func(ctx context.Context, symbol string) (entity.Ticker, error)
}

func (m *mockTickerResolver) GetOrCreate(ctx context.Context, symbol string) (entity.Ticker, error) {
	if m.GetOrCreateFunc != nil {
		return m.GetOrCreateFunc(ctx, symbol)
	}
	return entity.Ticker{ID: 1, Symbol: symbol}, nil
}

func (m *mockTickerResolver) BackfillName(_ context.Context, t entity.Ticker, name string) (entity.Ticker, error) {
	if t.Name == "" {
		t.Name = name
	}
	return t, nil
}

// mockBarRepository はBarRepositoryとLatestBarReaderのモック実装です。
type mockBarRepository struct {
	UpsertBatchFunc  func(ctx context.Context, tickerID uint, bars []entity.PriceBar) (entity.UpsertStats, error)
	PingFunc         func(ctx context.Context) error
	LatestFunc       func(ctx context.Context, tickerID uint, count int) ([]entity.PriceBar, error)
	UpsertBatchCalls int
	PingCalls        int
}

func (m *mockBarRepository) UpsertBatch(ctx context.Context, tickerID uint, bars []entity.PriceBar) (entity.UpsertStats, error) {
	m.UpsertBatchCalls++
	if m.UpsertBatchFunc != nil {
		return m.UpsertBatchFunc(ctx, tickerID, bars)
	}
	return entity.UpsertStats{Created: len(bars)}, nil
}

func (m *mockBarRepository) Ping(ctx context.Context) error {
	m.PingCalls++
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

func (m *mockBarRepository) Latest(ctx context.Context, tickerID uint, count int) ([]entity.PriceBar, error) {
	if m.LatestFunc != nil {
		return m.LatestFunc(ctx, tickerID, count)
	}
	return nil, errors.New("LatestFunc is not implemented")
}

type mockAlertChecker struct {
	EvaluateFunc func(ctx context.Context, t entity.Ticker) (*entity.AlertEvent, error)
}

func (m *mockAlertChecker) Evaluate(ctx context.Context, t entity.Ticker) (*entity.AlertEvent, error) {
	if m.EvaluateFunc != nil {
		return m.EvaluateFunc(ctx, t)
	}
	return nil, nil
}

type mockNotifier struct {
	SendFunc  func(ctx context.Context, event entity.AlertEvent) error
	SendCalls int
	Sent      []entity.AlertEvent
}

func (m *mockNotifier) Send(ctx context.Context, event entity.AlertEvent) error {
	m.SendCalls++
	m.Sent = append(m.Sent, event)
	if m.SendFunc != nil {
		return m.SendFunc(ctx, event)
	}
	return nil
}

type mockGuard struct {
	MarkOnceFunc func(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

func (m *mockGuard) MarkOnce(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if m.MarkOnceFunc != nil {
		return m.MarkOnceFunc(ctx, key, ttl)
	}
	return true, nil
}

// mockRateLimiter counts waits and returns immediately.
type mockRateLimiter struct {
	WaitCalls int
}

func (m *mockRateLimiter) Wait(ctx context.Context) error {
	m.WaitCalls++
	return ctx.Err()
}
