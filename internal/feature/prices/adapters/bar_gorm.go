package adapters

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"stockpulse/internal/feature/prices/domain"
	"stockpulse/internal/feature/prices/domain/entity"
	"stockpulse/internal/feature/prices/usecase"
)

// PriceBarModel is the price_bars table row. (ticker_id, date) is the natural key.
type PriceBarModel struct {
	ID       uint         `gorm:"primaryKey"`
	TickerID uint         `gorm:"not null;uniqueIndex:idx_price_bars_ticker_date,priority:1"`
	Ticker   *TickerModel `gorm:"constraint:OnDelete:CASCADE"`
	Date     time.Time    `gorm:"type:date;not null;uniqueIndex:idx_price_bars_ticker_date,priority:2"`

	Open   decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	High   decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	Low    decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	Close  decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	Volume int64           `gorm:"not null;default:0"`
}

func (PriceBarModel) TableName() string {
	return "price_bars"
}

// Models lists the tables owned by the prices feature, in migration order.
func Models() []any {
	return []any{&TickerModel{}, &PriceBarModel{}}
}

func toBarModel(tickerID uint, b entity.PriceBar) PriceBarModel {
	return PriceBarModel{
		TickerID: tickerID,
		Date:     b.Date.UTC(),
		Open:     b.Open,
		High:     b.High,
		Low:      b.Low,
		Close:    b.Close,
		Volume:   b.Volume,
	}
}

func (m PriceBarModel) toEntity() entity.PriceBar {
	d := m.Date
	return entity.PriceBar{
		TickerID: m.TickerID,
		Date:     time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC),
		Open:     m.Open,
		High:     m.High,
		Low:      m.Low,
		Close:    m.Close,
		Volume:   m.Volume,
	}
}

type barGorm struct {
	db *gorm.DB
}

var (
	_ usecase.BarRepository   = (*barGorm)(nil)
	_ usecase.LatestBarReader = (*barGorm)(nil)
)

func NewBarRepository(db *gorm.DB) *barGorm {
	return &barGorm{db: db}
}

// UpsertBatch は (ticker, date) をキーに一括で追加または上書きします。
// 一つのトランザクションで実行されるため、失敗時はバッチ全体がロールバックされます。
// 同じバッチ内で日付が重複する場合は後の行が優先されます。
func (r *barGorm) UpsertBatch(ctx context.Context, tickerID uint, bars []entity.PriceBar) (entity.UpsertStats, error) {
	if len(bars) == 0 {
		return entity.UpsertStats{}, nil
	}

	byDate := make(map[string]PriceBarModel, len(bars))
	for _, b := range bars {
		byDate[b.DateKey()] = toBarModel(tickerID, b)
	}
	ms := make([]PriceBarModel, 0, len(byDate))
	dates := make([]time.Time, 0, len(byDate))
	for _, m := range byDate {
		ms = append(ms, m)
	}
	sort.Slice(ms, func(i, j int) bool { return ms[i].Date.Before(ms[j].Date) })
	for _, m := range ms {
		dates = append(dates, m.Date)
	}

	var stats entity.UpsertStats
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&PriceBarModel{}).
			Where("ticker_id = ? AND date IN ?", tickerID, dates).
			Count(&existing).Error; err != nil {
			return err
		}

		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "ticker_id"}, {Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{"open", "high", "low", "close", "volume"}),
		}).Create(&ms).Error; err != nil {
			return err
		}

		stats.Updated = int(existing)
		stats.Created = len(ms) - int(existing)
		return nil
	})
	if err != nil {
		return entity.UpsertStats{}, &domain.StorageError{Op: "upsert bars", Err: err}
	}
	return stats, nil
}

// Latest returns up to count bars of the ticker, newest first.
func (r *barGorm) Latest(ctx context.Context, tickerID uint, count int) ([]entity.PriceBar, error) {
	var rows []PriceBarModel
	q := r.db.WithContext(ctx).
		Where("ticker_id = ?", tickerID).
		Order("date DESC")
	if count > 0 {
		q = q.Limit(count)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, &domain.StorageError{Op: "read latest bars", Err: err}
	}
	return toEntities(rows), nil
}

// Window returns the bars with from <= date <= to, oldest first.
func (r *barGorm) Window(ctx context.Context, tickerID uint, from, to time.Time) ([]entity.PriceBar, error) {
	var rows []PriceBarModel
	err := r.db.WithContext(ctx).
		Where("ticker_id = ? AND date >= ? AND date <= ?", tickerID, from.UTC(), to.UTC()).
		Order("date ASC").
		Find(&rows).Error
	if err != nil {
		return nil, &domain.StorageError{Op: "read bar window", Err: err}
	}
	return toEntities(rows), nil
}

func (r *barGorm) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func toEntities(rows []PriceBarModel) []entity.PriceBar {
	out := make([]entity.PriceBar, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.toEntity())
	}
	return out
}
