// Package adapters はnewsフィーチャーの永続化を提供します。
package adapters

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"stockpulse/internal/feature/news/domain/entity"
	priceadapters "stockpulse/internal/feature/prices/adapters"
)

// ArticleModel は news_articles テーブルの行です。
type ArticleModel struct {
	ID          uint      `gorm:"primaryKey"`
	Headline    string    `gorm:"size:500;not null"`
	URL         string    `gorm:"size:500;not null;uniqueIndex"`
	Source      string    `gorm:"size:100;not null"`
	PublishedAt time.Time `gorm:"not null;index"`

	Tickers []priceadapters.TickerModel `gorm:"many2many:news_article_tickers;joinForeignKey:ArticleID;joinReferences:TickerID"`
}

func (ArticleModel) TableName() string {
	return "news_articles"
}

// articleTicker は中間テーブルへの直接挿入用です。
type articleTicker struct {
	ArticleID uint `gorm:"primaryKey"`
	TickerID  uint `gorm:"primaryKey"`
}

func (articleTicker) TableName() string {
	return "news_article_tickers"
}

// Models lists the tables owned by the news feature. Migrate after the prices models.
func Models() []any {
	return []any{&ArticleModel{}}
}

type articleGorm struct {
	db  *gorm.DB
	now func() time.Time
}

func NewArticleRepository(db *gorm.DB) *articleGorm {
	return &articleGorm{db: db, now: time.Now}
}

// ExistingURLs returns the subset of urls that are already stored.
func (r *articleGorm) ExistingURLs(ctx context.Context, urls []string) (map[string]struct{}, error) {
	out := make(map[string]struct{}, len(urls))
	if len(urls) == 0 {
		return out, nil
	}
	var found []string
	if err := r.db.WithContext(ctx).
		Model(&ArticleModel{}).
		Where("url IN ?", urls).
		Pluck("url", &found).Error; err != nil {
		return nil, fmt.Errorf("lookup article urls: %w", err)
	}
	for _, u := range found {
		out[u] = struct{}{}
	}
	return out, nil
}

// InsertBatch は記事とティッカーの紐付けを一つのトランザクションで保存します。
// URLが既に存在する記事は ON CONFLICT DO NOTHING で読み飛ばし、挿入件数に含めません。
func (r *articleGorm) InsertBatch(ctx context.Context, articles []entity.Article) (int, error) {
	if len(articles) == 0 {
		return 0, nil
	}

	inserted := 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		publishedAt := r.now().UTC()
		for _, a := range articles {
			m := ArticleModel{
				Headline:    a.Headline,
				URL:         a.URL,
				Source:      a.Source,
				PublishedAt: publishedAt,
			}
			res := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "url"}},
				DoNothing: true,
			}).Omit("Tickers").Create(&m)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				continue
			}
			inserted++

			if len(a.TickerIDs) == 0 {
				continue
			}
			links := make([]articleTicker, 0, len(a.TickerIDs))
			for _, id := range a.TickerIDs {
				links = append(links, articleTicker{ArticleID: m.ID, TickerID: id})
			}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("insert articles: %w", err)
	}
	return inserted, nil
}

// Latest returns up to limit articles, newest first, with their linked symbols.
func (r *articleGorm) Latest(ctx context.Context, limit int) ([]entity.Article, error) {
	var rows []ArticleModel
	if err := r.db.WithContext(ctx).
		Preload("Tickers", func(db *gorm.DB) *gorm.DB { return db.Order("symbol ASC") }).
		Order("published_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("read latest articles: %w", err)
	}

	out := make([]entity.Article, 0, len(rows))
	for _, m := range rows {
		a := entity.Article{
			ID:          m.ID,
			Headline:    m.Headline,
			URL:         m.URL,
			Source:      m.Source,
			PublishedAt: m.PublishedAt,
			Symbols:     make([]string, 0, len(m.Tickers)),
		}
		for _, t := range m.Tickers {
			a.TickerIDs = append(a.TickerIDs, t.ID)
			a.Symbols = append(a.Symbols, t.Symbol)
		}
		out = append(out, a)
	}
	return out, nil
}
