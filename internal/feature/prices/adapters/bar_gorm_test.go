package adapters

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"stockpulse/internal/feature/prices/domain"
	"stockpulse/internal/feature/prices/domain/entity"
)

// setupTestDB prepares an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err, "failed to initialize test database")

	// :memory: は接続ごとに別のDBになるため単一接続に固定する
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(Models()...)
	require.NoError(t, err, "failed to migrate tables")

	return db
}

// seedTicker creates a test ticker in the database.
func seedTicker(t *testing.T, db *gorm.DB, symbol string) TickerModel {
	t.Helper()

	m := TickerModel{Symbol: symbol}
	require.NoError(t, db.Create(&m).Error, "failed to seed ticker")
	return m
}

func day(d int) time.Time {
	return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)
}

func bar(d int, close string) entity.PriceBar {
	c := decimal.RequireFromString(close)
	return entity.PriceBar{
		Date:   day(d),
		Open:   c,
		High:   c.Add(decimal.NewFromInt(1)),
		Low:    c.Sub(decimal.NewFromInt(1)),
		Close:  c,
		Volume: 1000,
	}
}

func TestBarGorm_UpsertBatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		setupFunc    func(t *testing.T, repo *barGorm, tickerID uint)
		bars         []entity.PriceBar
		wantStats    entity.UpsertStats
		validateFunc func(t *testing.T, db *gorm.DB, tickerID uint)
	}{
		{
			name:      "success: insert new bars",
			bars:      []entity.PriceBar{bar(1, "100.00"), bar(2, "101.50")},
			wantStats: entity.UpsertStats{Created: 2},
			validateFunc: func(t *testing.T, db *gorm.DB, tickerID uint) {
				var count int64
				db.Model(&PriceBarModel{}).Where("ticker_id = ?", tickerID).Count(&count)
				assert.Equal(t, int64(2), count, "bar count does not match")
			},
		},
		{
			name: "success: replaying the same window creates no rows",
			setupFunc: func(t *testing.T, repo *barGorm, tickerID uint) {
				_, err := repo.UpsertBatch(context.Background(), tickerID, []entity.PriceBar{bar(1, "100.00"), bar(2, "101.50")})
				require.NoError(t, err)
			},
			bars:      []entity.PriceBar{bar(1, "100.00"), bar(2, "101.50")},
			wantStats: entity.UpsertStats{Updated: 2},
			validateFunc: func(t *testing.T, db *gorm.DB, tickerID uint) {
				var count int64
				db.Model(&PriceBarModel{}).Count(&count)
				assert.Equal(t, int64(2), count, "replay must not duplicate bars")
			},
		},
		{
			name: "success: existing date is overwritten with the latest values",
			setupFunc: func(t *testing.T, repo *barGorm, tickerID uint) {
				_, err := repo.UpsertBatch(context.Background(), tickerID, []entity.PriceBar{bar(1, "100.00")})
				require.NoError(t, err)
			},
			bars:      []entity.PriceBar{bar(1, "105.25"), bar(2, "106.00")},
			wantStats: entity.UpsertStats{Created: 1, Updated: 1},
			validateFunc: func(t *testing.T, db *gorm.DB, tickerID uint) {
				var m PriceBarModel
				require.NoError(t, db.Where("ticker_id = ? AND date = ?", tickerID, day(1)).First(&m).Error)
				assert.True(t, decimal.RequireFromString("105.25").Equal(m.Close), "got %s", m.Close)
			},
		},
		{
			name:      "success: duplicate dates inside one batch keep the last row",
			bars:      []entity.PriceBar{bar(3, "50.00"), bar(3, "51.00")},
			wantStats: entity.UpsertStats{Created: 1},
			validateFunc: func(t *testing.T, db *gorm.DB, tickerID uint) {
				var rows []PriceBarModel
				require.NoError(t, db.Where("ticker_id = ?", tickerID).Find(&rows).Error)
				require.Len(t, rows, 1)
				assert.True(t, decimal.RequireFromString("51.00").Equal(rows[0].Close))
			},
		},
		{
			name:      "success: empty batch is a no-op",
			bars:      nil,
			wantStats: entity.UpsertStats{},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			db := setupTestDB(t)
			ticker := seedTicker(t, db, "AAPL")
			repo := NewBarRepository(db)
			if tt.setupFunc != nil {
				tt.setupFunc(t, repo, ticker.ID)
			}

			stats, err := repo.UpsertBatch(context.Background(), ticker.ID, tt.bars)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStats, stats)

			if tt.validateFunc != nil {
				tt.validateFunc(t, db, ticker.ID)
			}
		})
	}
}

func TestBarGorm_UpsertBatch_CancelledContextRollsBack(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ticker := seedTicker(t, db, "AAPL")
	repo := NewBarRepository(db)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.UpsertBatch(ctx, ticker.ID, []entity.PriceBar{bar(1, "100.00"), bar(2, "101.00")})

	var serr *domain.StorageError
	require.ErrorAs(t, err, &serr)

	var count int64
	db.Model(&PriceBarModel{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestBarGorm_Latest(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	aapl := seedTicker(t, db, "AAPL")
	msft := seedTicker(t, db, "MSFT")
	repo := NewBarRepository(db)
	ctx := context.Background()

	_, err := repo.UpsertBatch(ctx, aapl.ID, []entity.PriceBar{bar(1, "100.00"), bar(4, "104.00"), bar(2, "102.00")})
	require.NoError(t, err)
	_, err = repo.UpsertBatch(ctx, msft.ID, []entity.PriceBar{bar(5, "300.00")})
	require.NoError(t, err)

	got, err := repo.Latest(ctx, aapl.ID, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, day(4), got[0].Date)
	assert.Equal(t, day(2), got[1].Date)
	assert.Equal(t, aapl.ID, got[0].TickerID)

	none, err := repo.Latest(ctx, 999, 2)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestBarGorm_Window(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ticker := seedTicker(t, db, "AAPL")
	repo := NewBarRepository(db)
	ctx := context.Background()

	_, err := repo.UpsertBatch(ctx, ticker.ID, []entity.PriceBar{
		bar(1, "100.00"), bar(2, "101.00"), bar(3, "102.00"), bar(4, "103.00"), bar(5, "104.00"),
	})
	require.NoError(t, err)

	got, err := repo.Window(ctx, ticker.ID, day(2), day(4))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, day(2), got[0].Date)
	assert.Equal(t, day(4), got[2].Date)
	assert.True(t, decimal.RequireFromString("103.00").Equal(got[2].Close))
}

func TestBarGorm_Ping(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	repo := NewBarRepository(db)
	require.NoError(t, repo.Ping(context.Background()))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
	assert.Error(t, repo.Ping(context.Background()))
}
