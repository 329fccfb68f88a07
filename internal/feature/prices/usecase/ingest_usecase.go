package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"stockpulse/internal/feature/prices/domain"
	"stockpulse/internal/feature/prices/domain/entity"
)

const (
	DefaultWindowDays    = 10
	DefaultNotifyTimeout = 5 * time.Second
	DefaultAlertTTL      = 72 * time.Hour // 週末を挟んでも同じアラートを再送しない
)

// Config はインジェスト処理の実行パラメータです。
type Config struct {
	WindowDays    int
	NotifyTimeout time.Duration
	AlertTTL      time.Duration
}

func (c Config) withDefaults() Config {
	if c.WindowDays <= 0 {
		c.WindowDays = DefaultWindowDays
	}
	if c.NotifyTimeout <= 0 {
		c.NotifyTimeout = DefaultNotifyTimeout
	}
	if c.AlertTTL <= 0 {
		c.AlertTTL = DefaultAlertTTL
	}
	return c
}

// TickerResult is the outcome of one ticker within a run.
// Err holds the ticker-level failure, NotifyErr a failed delivery; they are independent.
type TickerResult struct {
	Symbol     string
	Fetched    int
	Created    int
	Updated    int
	Rejected   []*domain.NormalizationError
	Alert      *entity.AlertEvent
	Notified   bool
	Suppressed bool
	NotifyErr  error
	Err        error
	Skipped    bool
}

// OK reports whether the ticker was processed without a ticker-level error.
func (r TickerResult) OK() bool {
	return r.Err == nil && !r.Skipped
}

// RunSummary collects the per-ticker outcomes of one ingestion run in watch-list order.
type RunSummary struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Results    []TickerResult
}

// Failed returns the number of tickers that ended with an error.
func (s RunSummary) Failed() int {
	n := 0
	for _, r := range s.Results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

// IngestUsecase は価格の取得・正規化・保存・アラート判定・通知を銘柄ごとに順番に実行します。
type IngestUsecase struct {
	cfg      Config
	market   MarketRepository
	tickers  TickerResolver
	bars     BarRepository
	alerts   AlertChecker
	notifier Notifier
	guard    AlertGuard
	limiter  Limiter
	metrics  Metrics
	log      zerolog.Logger
	now      func() time.Time
}

// Option configures optional collaborators of IngestUsecase.
type Option func(*IngestUsecase)

func WithGuard(g AlertGuard) Option {
	return func(u *IngestUsecase) { u.guard = g }
}

func WithLimiter(l Limiter) Option {
	return func(u *IngestUsecase) { u.limiter = l }
}

func WithMetrics(m Metrics) Option {
	return func(u *IngestUsecase) { u.metrics = m }
}

func WithLogger(l zerolog.Logger) Option {
	return func(u *IngestUsecase) { u.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(u *IngestUsecase) { u.now = now }
}

// NewIngestUsecase は新しい IngestUsecase を作成します。
// ガードを指定しない場合はプロセス内メモリで重複通知を抑止します。
func NewIngestUsecase(
	cfg Config,
	market MarketRepository,
	tickers TickerResolver,
	bars BarRepository,
	alerts AlertChecker,
	notifier Notifier,
	opts ...Option,
) *IngestUsecase {
	u := &IngestUsecase{
		cfg:      cfg.withDefaults(),
		market:   market,
		tickers:  tickers,
		bars:     bars,
		alerts:   alerts,
		notifier: notifier,
		guard:    NewMemoryGuard(),
		limiter:  noopLimiter{},
		metrics:  noopMetrics{},
		log:      zerolog.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Run processes the watch-list in order. A failing ticker never stops the run;
// only an unreachable store (domain.ErrStoreUnavailable) or a cancelled ctx ends it early,
// in which case the partial summary is returned together with the error.
func (u *IngestUsecase) Run(ctx context.Context, symbols []string) (RunSummary, error) {
	summary := RunSummary{RunID: uuid.NewString(), StartedAt: u.now()}
	log := u.log.With().Str("run_id", summary.RunID).Logger()
	finish := func(err error) (RunSummary, error) {
		summary.FinishedAt = u.now()
		return summary, err
	}

	cancelled := func(rest []string, err error) (RunSummary, error) {
		summary.Results = append(summary.Results, skipped(rest)...)
		log.Warn().Err(err).Int("skipped", len(rest)).Msg("ingestion run cancelled")
		return finish(fmt.Errorf("ingestion run cancelled: %w", err))
	}

	if err := ctx.Err(); err != nil {
		return cancelled(symbols, err)
	}
	if err := u.bars.Ping(ctx); err != nil {
		log.Error().Err(err).Msg("bar store unreachable, aborting run")
		return finish(fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err))
	}

	log.Info().Int("tickers", len(symbols)).Int("window_days", u.cfg.WindowDays).Msg("ingestion run started")

	for i, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			return cancelled(symbols[i:], err)
		}

		start := time.Now()
		res := u.ingestOne(ctx, log, symbol)
		u.metrics.RecordTicker(res, time.Since(start))
		summary.Results = append(summary.Results, res)
		logResult(log, res)

		var serr *domain.StorageError
		if errors.As(res.Err, &serr) {
			// キャンセルで書き込みが失敗した場合はストア障害として扱わない
			if err := ctx.Err(); err != nil {
				return cancelled(symbols[i+1:], err)
			}
			if err := u.bars.Ping(ctx); err != nil {
				summary.Results = append(summary.Results, skipped(symbols[i+1:])...)
				log.Error().Err(err).Msg("bar store unreachable, aborting run")
				return finish(fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err))
			}
		}
	}

	log.Info().Int("failed", summary.Failed()).Msg("ingestion run finished")
	return finish(nil)
}

// ingestOne runs the pipeline for a single symbol and never panics on provider data.
func (u *IngestUsecase) ingestOne(ctx context.Context, log zerolog.Logger, symbol string) TickerResult {
	res := TickerResult{Symbol: symbol}

	ticker, err := u.tickers.GetOrCreate(ctx, symbol)
	if err != nil {
		res.Err = fmt.Errorf("resolve ticker: %w", err)
		return res
	}
	res.Symbol = ticker.Symbol

	if err := u.limiter.Wait(ctx); err != nil {
		res.Err = fmt.Errorf("rate limiter: %w", err)
		return res
	}

	fetched, err := u.market.FetchWindow(ctx, ticker.Symbol, u.cfg.WindowDays)
	if err != nil {
		res.Err = err
		return res
	}
	res.Fetched = len(fetched.Bars)

	if fetched.Name != "" {
		named, err := u.tickers.BackfillName(ctx, ticker, fetched.Name)
		if err != nil {
			log.Warn().Err(err).Str("symbol", ticker.Symbol).Msg("failed to backfill ticker name")
		} else {
			ticker = named
		}
	}

	bars, rejected := NormalizeBatch(ticker.Symbol, fetched.Bars)
	res.Rejected = rejected
	for _, r := range rejected {
		log.Warn().Str("symbol", r.Symbol).Str("date", r.Date).Str("field", r.Field).
			Str("value", r.Value).Err(r.Err).Msg("rejected malformed bar")
	}

	if len(bars) > 0 {
		stats, err := u.bars.UpsertBatch(ctx, ticker.ID, bars)
		if err != nil {
			res.Err = err
			return res
		}
		res.Created, res.Updated = stats.Created, stats.Updated
	}

	event, err := u.alerts.Evaluate(ctx, ticker)
	if err != nil {
		res.Err = fmt.Errorf("evaluate alert: %w", err)
		return res
	}
	if event == nil {
		return res
	}
	res.Alert = event
	u.deliver(ctx, log, &res, *event)
	return res
}

// deliver は一度だけ通知を試みます。失敗しても保存済みのデータや銘柄の成否には影響しません。
func (u *IngestUsecase) deliver(ctx context.Context, log zerolog.Logger, res *TickerResult, event entity.AlertEvent) {
	first, err := u.guard.MarkOnce(ctx, event.Key(), u.cfg.AlertTTL)
	if err != nil {
		log.Warn().Err(err).Str("alert", event.Key()).Msg("alert guard unavailable, sending anyway")
		first = true
	}
	if !first {
		res.Suppressed = true
		return
	}

	// 実行全体がキャンセルされても通知は独自のタイムアウトで一度だけ試みる
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), u.cfg.NotifyTimeout)
	defer cancel()

	if err := u.notifier.Send(nctx, event); err != nil {
		res.NotifyErr = err
		return
	}
	res.Notified = true
}

func skipped(symbols []string) []TickerResult {
	out := make([]TickerResult, 0, len(symbols))
	for _, s := range symbols {
		out = append(out, TickerResult{Symbol: s, Skipped: true})
	}
	return out
}

func logResult(log zerolog.Logger, res TickerResult) {
	if res.Err != nil {
		log.Error().Err(res.Err).Str("symbol", res.Symbol).Msg("failed to ingest ticker")
		return
	}
	ev := log.Info().
		Str("symbol", res.Symbol).
		Int("fetched", res.Fetched).
		Int("created", res.Created).
		Int("updated", res.Updated).
		Int("rejected", len(res.Rejected))
	if res.Alert != nil {
		ev = ev.Str("change_pct", res.Alert.DisplayPercent().StringFixed(2)).
			Bool("notified", res.Notified).
			Bool("suppressed", res.Suppressed)
	}
	if res.NotifyErr != nil {
		ev = ev.AnErr("notify_error", res.NotifyErr)
	}
	ev.Msg("ticker ingested")
}

// MemoryGuard is an in-process AlertGuard. Marks do not survive a restart.
type MemoryGuard struct {
	mu      sync.Mutex
	expires map[string]time.Time
	now     func() time.Time
}

func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{expires: make(map[string]time.Time), now: time.Now}
}

func (g *MemoryGuard) MarkOnce(_ context.Context, key string, ttl time.Duration) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if exp, ok := g.expires[key]; ok && now.Before(exp) {
		return false, nil
	}
	g.expires[key] = now.Add(ttl)
	return true, nil
}

type noopLimiter struct{}

func (noopLimiter) Wait(ctx context.Context) error { return ctx.Err() }

type noopMetrics struct{}

func (noopMetrics) RecordTicker(TickerResult, time.Duration) {}
