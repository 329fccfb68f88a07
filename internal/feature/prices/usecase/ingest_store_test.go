package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"stockpulse/internal/feature/prices/adapters"
	"stockpulse/internal/feature/prices/domain"
	"stockpulse/internal/feature/prices/domain/entity"
	"stockpulse/internal/feature/prices/usecase"
)

// openStore prepares an in-memory SQLite database with the prices tables.
func openStore(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(adapters.Models()...))
	return db
}

// TestIngestUsecase_Run_CancelledDuringWriteIsNotStoreOutage は銘柄の書き込み中に
// 実行がキャンセルされた場合、ストア障害ではなくキャンセルとして報告されることを確認します。
func TestIngestUsecase_Run_CancelledDuringWriteIsNotStoreOutage(t *testing.T) {
	db := openStore(t)
	bars := adapters.NewBarRepository(db)
	registry := usecase.NewRegistry(adapters.NewTickerRepository(db))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	market := &mockMarketRepository{
		FetchWindowFunc: func(c context.Context, symbol string, windowDays int) (entity.FetchResult, error) {
			if symbol == "GOOGL" {
				cancel()
			}
			return entity.FetchResult{Symbol: symbol, Bars: rawWindow(3)}, nil
		},
	}
	notifier := &mockNotifier{}
	uc := usecase.NewIngestUsecase(
		usecase.Config{WindowDays: 10},
		market,
		registry,
		bars,
		usecase.NewAlertEvaluator(bars, decimal.RequireFromString("0.5")),
		notifier,
	)

	summary, err := uc.Run(ctx, []string{"AAPL", "GOOGL", "MSFT"})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.Is(err, domain.ErrStoreUnavailable), "cancellation must not be reported as a store outage")
	assert.Equal(t, 2, market.FetchWindowCalls)

	require.Len(t, summary.Results, 3)

	aapl := summary.Results[0]
	assert.True(t, aapl.OK())
	assert.Equal(t, 3, aapl.Created)

	googl := summary.Results[1]
	var serr *domain.StorageError
	require.ErrorAs(t, googl.Err, &serr)
	assert.ErrorIs(t, googl.Err, context.Canceled)

	assert.True(t, summary.Results[2].Skipped)
	assert.Equal(t, "MSFT", summary.Results[2].Symbol)

	// GOOGL のバッチはロールバックされ、AAPL の行だけが残る
	var count int64
	require.NoError(t, db.Model(&adapters.PriceBarModel{}).Count(&count).Error)
	assert.Equal(t, int64(3), count)
	assert.Equal(t, 0, notifier.SendCalls)
}

func TestIngestUsecase_Run_AlreadyCancelled(t *testing.T) {
	f := newFixture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := f.usecase().Run(ctx, watchList)

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.Is(err, domain.ErrStoreUnavailable))
	assert.Equal(t, 0, f.bars.PingCalls)
	require.Len(t, summary.Results, len(watchList))
	for _, r := range summary.Results {
		assert.True(t, r.Skipped, "symbol %s", r.Symbol)
	}
}
