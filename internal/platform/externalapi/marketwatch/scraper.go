// Package marketwatch scrapes the MarketWatch latest-news listing.
package marketwatch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"stockpulse/internal/feature/news/domain"
	"stockpulse/internal/feature/news/domain/entity"
)

const (
	SourceName     = "MarketWatch"
	DefaultURL     = "https://www.marketwatch.com/latest-news"
	DefaultTimeout = 10 * time.Second

	// 記事ブロックと見出しリンクのセレクタ。サイト構成が変わると要更新。
	articleSelector  = "div.article__content"
	headlineSelector = "a.link"
)

// BrowserUserAgent は素のGoクライアントだと 401/403 を返されるため使用します。
const BrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Config はスクレイパーの設定です。
type Config struct {
	URL     string
	Timeout time.Duration
}

// Scraper は最新ニュース一覧から見出しを取得します。
type Scraper struct {
	cfg    Config
	client *http.Client
	log    zerolog.Logger
}

func NewScraper(cfg Config, client *http.Client, log zerolog.Logger) *Scraper {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Scraper{cfg: cfg, client: client, log: log}
}

// Source returns the name stored with every article.
func (s *Scraper) Source() string {
	return SourceName
}

// Latest returns the headlines of the listing page in page order.
func (s *Scraper) Latest(ctx context.Context) ([]entity.Headline, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	base, err := url.Parse(s.cfg.URL)
	if err != nil {
		return nil, &domain.ScrapeError{Source: SourceName, Err: fmt.Errorf("invalid url: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base.String(), nil)
	if err != nil {
		return nil, &domain.ScrapeError{Source: SourceName, Err: err}
	}
	req.Header.Set("User-Agent", BrowserUserAgent)
	req.Header.Set("Accept", "text/html")

	res, err := s.client.Do(req)
	if err != nil {
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return nil, &domain.ScrapeError{Source: SourceName, Err: err}
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode >= 400 {
		return nil, &domain.ScrapeError{Source: SourceName, StatusCode: res.StatusCode, Err: errors.New(http.StatusText(res.StatusCode))}
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return nil, &domain.ScrapeError{Source: SourceName, Err: fmt.Errorf("parse html: %w", err)}
	}

	out := extractHeadlines(doc, base)
	s.log.Debug().Str("source", SourceName).Int("headlines", len(out)).Msg("news listing scraped")
	return out, nil
}

func extractHeadlines(doc *goquery.Document, base *url.URL) []entity.Headline {
	var out []entity.Headline
	doc.Find(articleSelector).Each(func(_ int, article *goquery.Selection) {
		link := article.Find(headlineSelector).First()
		if link.Length() == 0 {
			return
		}
		title := strings.Join(strings.Fields(link.Text()), " ")
		href, ok := link.Attr("href")
		href = strings.TrimSpace(href)
		if !ok || href == "" || title == "" {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		out = append(out, entity.Headline{Title: title, URL: base.ResolveReference(ref).String()})
	})
	return out
}
