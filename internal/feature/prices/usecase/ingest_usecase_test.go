package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockpulse/internal/feature/prices/domain"
	"stockpulse/internal/feature/prices/domain/entity"
	"stockpulse/internal/feature/prices/usecase"
)

var watchList = []string{"AAPL", "GOOGL", "MSFT", "AMZN", "TSLA"}

func rawWindow(n int) []entity.RawBar {
	raws := make([]entity.RawBar, 0, n)
	for i := 1; i <= n; i++ {
		raws = append(raws, validRaw(fmt.Sprintf("2024-03-%02d", i)))
	}
	return raws
}

func sampleAlert(symbol string) *entity.AlertEvent {
	return &entity.AlertEvent{
		Symbol:        symbol,
		Direction:     entity.DirectionUp,
		ChangePercent: decimal.RequireFromString("0.6"),
		PreviousClose: decimal.RequireFromString("100.00"),
		LatestClose:   decimal.RequireFromString("100.60"),
		PreviousDate:  time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
		LatestDate:    time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
	}
}

type fixture struct {
	market   *mockMarketRepository
	tickers  *mockTickerResolver
	bars     *mockBarRepository
	alerts   *mockAlertChecker
	notifier *mockNotifier
	limiter  *mockRateLimiter
}

func newFixture() *fixture {
	return &fixture{
		market: &mockMarketRepository{
			FetchWindowFunc: func(ctx context.Context, symbol string, windowDays int) (entity.FetchResult, error) {
				return entity.FetchResult{Symbol: symbol, Bars: rawWindow(3)}, nil
			},
		},
		tickers:  &mockTickerResolver{},
		bars:     &mockBarRepository{},
		alerts:   &mockAlertChecker{},
		notifier: &mockNotifier{},
		limiter:  &mockRateLimiter{},
	}
}

func (f *fixture) usecase(opts ...usecase.Option) *usecase.IngestUsecase {
	opts = append([]usecase.Option{usecase.WithLimiter(f.limiter)}, opts...)
	return usecase.NewIngestUsecase(usecase.Config{WindowDays: 10}, f.market, f.tickers, f.bars, f.alerts, f.notifier, opts...)
}

// TestIngestUsecase_Run_ContinuesAfterTickerFailure は3番目の銘柄の取得が失敗しても
// 残りの銘柄が処理され、結果がウォッチリスト順に並ぶことを確認します。
func TestIngestUsecase_Run_ContinuesAfterTickerFailure(t *testing.T) {
	f := newFixture()
	f.market.FetchWindowFunc = func(ctx context.Context, symbol string, windowDays int) (entity.FetchResult, error) {
		assert.Equal(t, 10, windowDays)
		if symbol == "MSFT" {
			return entity.FetchResult{}, &domain.FetchError{Provider: "twelvedata", Symbol: symbol, StatusCode: 500, Err: errors.New("upstream")}
		}
		return entity.FetchResult{Symbol: symbol, Bars: rawWindow(3)}, nil
	}

	now := time.Date(2024, 3, 5, 22, 0, 0, 0, time.UTC)
	summary, err := f.usecase(usecase.WithClock(func() time.Time { return now })).Run(context.Background(), watchList)
	require.NoError(t, err)

	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, now, summary.StartedAt)
	assert.Equal(t, now, summary.FinishedAt)
	assert.Equal(t, 5, f.market.FetchWindowCalls)
	assert.Equal(t, 5, f.limiter.WaitCalls)
	assert.Equal(t, 4, f.bars.UpsertBatchCalls)
	require.Len(t, summary.Results, 5)
	assert.Equal(t, 1, summary.Failed())

	for i, res := range summary.Results {
		assert.Equal(t, watchList[i], res.Symbol)
		if res.Symbol == "MSFT" {
			var ferr *domain.FetchError
			assert.True(t, errors.As(res.Err, &ferr))
			assert.False(t, res.OK())
			continue
		}
		assert.True(t, res.OK(), "symbol %s", res.Symbol)
		assert.Equal(t, 3, res.Fetched)
		assert.Equal(t, 3, res.Created)
	}
}

func TestIngestUsecase_Run_RejectsMalformedRows(t *testing.T) {
	f := newFixture()
	f.market.FetchWindowFunc = func(ctx context.Context, symbol string, windowDays int) (entity.FetchResult, error) {
		raws := rawWindow(8)
		bad := validRaw("2024-03-09")
		bad.Close = "abc"
		noVol := validRaw("2024-03-10")
		noVol.Volume = ""
		return entity.FetchResult{Symbol: symbol, Bars: append(raws, bad, noVol)}, nil
	}
	var stored []entity.PriceBar
	f.bars.UpsertBatchFunc = func(ctx context.Context, tickerID uint, bars []entity.PriceBar) (entity.UpsertStats, error) {
		stored = bars
		return entity.UpsertStats{Created: 6, Updated: 2}, nil
	}

	summary, err := f.usecase().Run(context.Background(), []string{"AAPL"})
	require.NoError(t, err)

	res := summary.Results[0]
	assert.True(t, res.OK())
	assert.Equal(t, 10, res.Fetched)
	assert.Len(t, stored, 8)
	assert.Len(t, res.Rejected, 2)
	assert.Equal(t, 6, res.Created)
	assert.Equal(t, 2, res.Updated)
}

func TestIngestUsecase_Run_EmptyWindowStillEvaluates(t *testing.T) {
	f := newFixture()
	f.market.FetchWindowFunc = func(ctx context.Context, symbol string, windowDays int) (entity.FetchResult, error) {
		return entity.FetchResult{Symbol: symbol}, nil
	}
	evaluated := 0
	f.alerts.EvaluateFunc = func(ctx context.Context, tk entity.Ticker) (*entity.AlertEvent, error) {
		evaluated++
		return nil, nil
	}

	summary, err := f.usecase().Run(context.Background(), []string{"AAPL"})
	require.NoError(t, err)

	assert.True(t, summary.Results[0].OK())
	assert.Equal(t, 0, f.bars.UpsertBatchCalls)
	assert.Equal(t, 1, evaluated)
}

func TestIngestUsecase_Run_NotifyFailureKeepsData(t *testing.T) {
	f := newFixture()
	f.alerts.EvaluateFunc = func(ctx context.Context, tk entity.Ticker) (*entity.AlertEvent, error) {
		return sampleAlert(tk.Symbol), nil
	}
	f.notifier.SendFunc = func(ctx context.Context, event entity.AlertEvent) error {
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		return &domain.NotifyError{Channel: "telegram", Err: errors.New("timeout")}
	}

	summary, err := f.usecase().Run(context.Background(), []string{"AAPL"})
	require.NoError(t, err)

	res := summary.Results[0]
	assert.True(t, res.OK())
	assert.Equal(t, 3, res.Created)
	require.NotNil(t, res.Alert)
	assert.False(t, res.Notified)
	var nerr *domain.NotifyError
	assert.True(t, errors.As(res.NotifyErr, &nerr))
	assert.Equal(t, 1, f.notifier.SendCalls)
}

// TestIngestUsecase_Run_AlertIsSentOnce は同じ(銘柄, 日付)のアラートが2回目の実行で再送されないことを確認します。
func TestIngestUsecase_Run_AlertIsSentOnce(t *testing.T) {
	f := newFixture()
	f.alerts.EvaluateFunc = func(ctx context.Context, tk entity.Ticker) (*entity.AlertEvent, error) {
		return sampleAlert(tk.Symbol), nil
	}
	uc := f.usecase()

	first, err := uc.Run(context.Background(), []string{"AAPL"})
	require.NoError(t, err)
	second, err := uc.Run(context.Background(), []string{"AAPL"})
	require.NoError(t, err)

	assert.True(t, first.Results[0].Notified)
	assert.False(t, second.Results[0].Notified)
	assert.True(t, second.Results[0].Suppressed)
	assert.Equal(t, 1, f.notifier.SendCalls)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestIngestUsecase_Run_GuardErrorStillSends(t *testing.T) {
	f := newFixture()
	f.alerts.EvaluateFunc = func(ctx context.Context, tk entity.Ticker) (*entity.AlertEvent, error) {
		return sampleAlert(tk.Symbol), nil
	}
	guard := &mockGuard{
		MarkOnceFunc: func(ctx context.Context, key string, ttl time.Duration) (bool, error) {
			assert.Equal(t, "AAPL:2024-03-05", key)
			assert.Equal(t, usecase.DefaultAlertTTL, ttl)
			return false, errors.New("redis down")
		},
	}

	summary, err := f.usecase(usecase.WithGuard(guard)).Run(context.Background(), []string{"AAPL"})
	require.NoError(t, err)
	assert.True(t, summary.Results[0].Notified)
}

func TestIngestUsecase_Run_StoreUnavailable(t *testing.T) {
	f := newFixture()
	f.bars.PingFunc = func(ctx context.Context) error { return errors.New("connection refused") }

	summary, err := f.usecase().Run(context.Background(), watchList)

	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.Empty(t, summary.Results)
	assert.Equal(t, 0, f.market.FetchWindowCalls)
	assert.False(t, summary.FinishedAt.IsZero())
}

func TestIngestUsecase_Run_StorageErrors(t *testing.T) {
	testCases := []struct {
		name            string
		storeDown       bool
		expectedErr     error
		expectedFetches int
		expectedSkipped int
	}{
		{
			name:            "ticker-level storage error continues the run",
			storeDown:       false,
			expectedFetches: 5,
		},
		{
			name:            "store outage after a storage error aborts the run",
			storeDown:       true,
			expectedErr:     domain.ErrStoreUnavailable,
			expectedFetches: 2,
			expectedSkipped: 3,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			f.bars.UpsertBatchFunc = func(ctx context.Context, tickerID uint, bars []entity.PriceBar) (entity.UpsertStats, error) {
				if f.market.Symbols[len(f.market.Symbols)-1] == "GOOGL" {
					return entity.UpsertStats{}, &domain.StorageError{Op: "upsert", Err: ErrDB}
				}
				return entity.UpsertStats{Created: len(bars)}, nil
			}
			f.bars.PingFunc = func(ctx context.Context) error {
				if tc.storeDown && f.bars.PingCalls > 1 {
					return ErrDB
				}
				return nil
			}

			summary, err := f.usecase().Run(context.Background(), watchList)
			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
			} else {
				require.NoError(t, err)
			}

			require.Len(t, summary.Results, 5)
			assert.Equal(t, tc.expectedFetches, f.market.FetchWindowCalls)

			skipped := 0
			for _, r := range summary.Results {
				if r.Skipped {
					skipped++
				}
			}
			assert.Equal(t, tc.expectedSkipped, skipped)

			var serr *domain.StorageError
			assert.True(t, errors.As(summary.Results[1].Err, &serr))
		})
	}
}

func TestIngestUsecase_Run_Cancelled(t *testing.T) {
	f := newFixture()
	ctx, cancel := context.WithCancel(context.Background())
	f.market.FetchWindowFunc = func(c context.Context, symbol string, windowDays int) (entity.FetchResult, error) {
		if symbol == "GOOGL" {
			cancel()
		}
		return entity.FetchResult{Symbol: symbol, Bars: rawWindow(2)}, nil
	}

	summary, err := f.usecase().Run(ctx, watchList)

	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, summary.Results, 5)
	assert.True(t, summary.Results[0].OK())
	assert.Equal(t, 2, f.market.FetchWindowCalls)
	for _, r := range summary.Results[2:] {
		assert.True(t, r.Skipped, "symbol %s", r.Symbol)
	}
}

func TestMemoryGuard_MarkOnce(t *testing.T) {
	g := usecase.NewMemoryGuard()
	ctx := context.Background()

	ok, err := g.MarkOnce(ctx, "AAPL:2024-03-05", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = g.MarkOnce(ctx, "AAPL:2024-03-05", time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = g.MarkOnce(ctx, "AAPL:2024-03-06", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = g.MarkOnce(ctx, "MSFT:2024-03-05", -time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = g.MarkOnce(ctx, "MSFT:2024-03-05", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok, "expired mark allows a new send")
}
