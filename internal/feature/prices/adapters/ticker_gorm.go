// Package adapters はpricesフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"stockpulse/internal/feature/prices/domain"
	"stockpulse/internal/feature/prices/domain/entity"
	"stockpulse/internal/feature/prices/usecase"
)

// TickerModel is the tickers table row.
type TickerModel struct {
	ID     uint   `gorm:"primaryKey"`
	Symbol string `gorm:"size:10;not null;uniqueIndex"`
	Name   string `gorm:"size:255"`
}

func (TickerModel) TableName() string {
	return "tickers"
}

func (m TickerModel) toEntity() entity.Ticker {
	return entity.Ticker{ID: m.ID, Symbol: m.Symbol, Name: m.Name}
}

// tickerGorm はTickerRepositoryインターフェースのGORM実装です。
type tickerGorm struct {
	db *gorm.DB
}

// tickerGormがTickerRepositoryを実装していることをコンパイル時に検証します。
var _ usecase.TickerRepository = (*tickerGorm)(nil)

// NewTickerRepository は指定されたgorm.DB接続でtickerGormを生成します。
// 重複キーの検出には gorm.Config{TranslateError: true} で開いた接続が必要です。
func NewTickerRepository(db *gorm.DB) *tickerGorm {
	return &tickerGorm{db: db}
}

// FindBySymbol は大文字小文字を区別せずに銘柄を検索します。
// 存在しない場合は domain.ErrTickerNotFound を返します。
func (r *tickerGorm) FindBySymbol(ctx context.Context, symbol string) (entity.Ticker, error) {
	var m TickerModel
	err := r.db.WithContext(ctx).
		Where("UPPER(symbol) = ?", strings.ToUpper(symbol)).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entity.Ticker{}, domain.ErrTickerNotFound
		}
		return entity.Ticker{}, &domain.StorageError{Op: "find ticker", Err: err}
	}
	return m.toEntity(), nil
}

// Create はティッカーを追加し、採番されたIDを t に設定します。
// 同じ銘柄が既に存在する場合は domain.ErrTickerExists を返します。
func (r *tickerGorm) Create(ctx context.Context, t *entity.Ticker) error {
	m := TickerModel{Symbol: t.Symbol, Name: t.Name}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrTickerExists
		}
		return &domain.StorageError{Op: "create ticker", Err: err}
	}
	t.ID = m.ID
	return nil
}

func (r *tickerGorm) List(ctx context.Context) ([]entity.Ticker, error) {
	var rows []TickerModel
	if err := r.db.WithContext(ctx).Order("symbol").Find(&rows).Error; err != nil {
		return nil, &domain.StorageError{Op: "list tickers", Err: err}
	}
	out := make([]entity.Ticker, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.toEntity())
	}
	return out, nil
}

// SetNameIfEmpty は表示名が未設定の場合にのみ更新します。既に名前があれば何もしません。
func (r *tickerGorm) SetNameIfEmpty(ctx context.Context, id uint, name string) error {
	err := r.db.WithContext(ctx).
		Model(&TickerModel{}).
		Where("id = ? AND (name IS NULL OR name = '')", id).
		Update("name", name).Error
	if err != nil {
		return &domain.StorageError{Op: "backfill ticker name", Err: err}
	}
	return nil
}
