// Package usecase はニュース見出しの収集と参照を提供します。
package usecase

import (
	"context"
	"regexp"
	"time"

	"github.com/rs/zerolog"

	"stockpulse/internal/feature/news/domain/entity"
	priceentity "stockpulse/internal/feature/prices/domain/entity"
)

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// HeadlineSource は見出し一覧の取得元です。
type HeadlineSource interface {
	Source() string
	Latest(ctx context.Context) ([]entity.Headline, error)
}

// ArticleStore は記事の永続化を行います。
type ArticleStore interface {
	ExistingURLs(ctx context.Context, urls []string) (map[string]struct{}, error)
	InsertBatch(ctx context.Context, articles []entity.Article) (int, error)
	Latest(ctx context.Context, limit int) ([]entity.Article, error)
}

// TickerLister は登録済みの銘柄を返します。
type TickerLister interface {
	List(ctx context.Context) ([]priceentity.Ticker, error)
}

type NewsUsecase struct {
	source  HeadlineSource
	store   ArticleStore
	tickers TickerLister
	log     zerolog.Logger
}

func NewNewsUsecase(source HeadlineSource, store ArticleStore, tickers TickerLister, log zerolog.Logger) *NewsUsecase {
	return &NewsUsecase{source: source, store: store, tickers: tickers, log: log}
}

// Collect は見出しを取得し、未保存のものだけを登録銘柄に紐付けて保存します。
// 取得元のエラーはそのまま返すので、呼び出し側はニュース処理だけを読み飛ばせます。
func (u *NewsUsecase) Collect(ctx context.Context) (entity.CollectResult, error) {
	start := time.Now()

	headlines, err := u.source.Latest(ctx)
	if err != nil {
		u.log.Warn().Err(err).Str("source", u.source.Source()).Msg("news collection skipped")
		return entity.CollectResult{}, err
	}
	res := entity.CollectResult{Scraped: len(headlines)}
	if len(headlines) == 0 {
		return res, nil
	}

	urls := make([]string, 0, len(headlines))
	for _, h := range headlines {
		urls = append(urls, h.URL)
	}
	existing, err := u.store.ExistingURLs(ctx, urls)
	if err != nil {
		return res, err
	}

	tickers, err := u.tickers.List(ctx)
	if err != nil {
		return res, err
	}
	matchers := newSymbolMatchers(tickers)

	seen := make(map[string]struct{}, len(headlines))
	articles := make([]entity.Article, 0, len(headlines))
	for _, h := range headlines {
		if _, ok := existing[h.URL]; ok {
			continue
		}
		if _, ok := seen[h.URL]; ok {
			continue
		}
		seen[h.URL] = struct{}{}

		a := entity.Article{
			Headline: truncate(h.Title, 500),
			URL:      h.URL,
			Source:   u.source.Source(),
		}
		a.TickerIDs = matchers.match(h.Title)
		if len(a.TickerIDs) > 0 {
			res.Linked++
		}
		articles = append(articles, a)
	}

	if len(articles) == 0 {
		u.log.Info().Int("scraped", res.Scraped).Msg("no new articles")
		return res, nil
	}

	n, err := u.store.InsertBatch(ctx, articles)
	if err != nil {
		return res, err
	}
	res.Inserted = n

	u.log.Info().
		Int("scraped", res.Scraped).
		Int("inserted", res.Inserted).
		Int("linked", res.Linked).
		Dur("elapsed", time.Since(start)).
		Msg("news collected")
	return res, nil
}

// Latest returns stored articles newest first. limit is clamped to 1..MaxLimit.
func (u *NewsUsecase) Latest(ctx context.Context, limit int) ([]entity.Article, error) {
	switch {
	case limit <= 0:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}
	return u.store.Latest(ctx, limit)
}

type symbolMatcher struct {
	id uint
	re *regexp.Regexp
}

type symbolMatchers []symbolMatcher

// 銘柄コードが単語として現れる場合のみ一致とする（"AAPL" は "AAPLX" に一致しない）
func newSymbolMatchers(tickers []priceentity.Ticker) symbolMatchers {
	out := make(symbolMatchers, 0, len(tickers))
	for _, t := range tickers {
		if t.Symbol == "" {
			continue
		}
		out = append(out, symbolMatcher{
			id: t.ID,
			re: regexp.MustCompile(`(^|[^A-Za-z0-9])` + regexp.QuoteMeta(t.Symbol) + `($|[^A-Za-z0-9])`),
		})
	}
	return out
}

func (ms symbolMatchers) match(headline string) []uint {
	var ids []uint
	for _, m := range ms {
		if m.re.MatchString(headline) {
			ids = append(ids, m.id)
		}
	}
	return ids
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
