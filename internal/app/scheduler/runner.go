// Package scheduler runs the ingestion pipeline once or on a cron schedule,
// never more than one run at a time.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	newsentity "stockpulse/internal/feature/news/domain/entity"
	"stockpulse/internal/feature/prices/domain"
	"stockpulse/internal/feature/prices/usecase"
)

// Ingester runs the price pipeline over a watch-list.
type Ingester interface {
	Run(ctx context.Context, symbols []string) (usecase.RunSummary, error)
}

// NewsCollector collects news headlines. Its failure never affects prices.
type NewsCollector interface {
	Collect(ctx context.Context) (newsentity.CollectResult, error)
}

// Runner serializes ingestion runs. A run requested while another is active
// fails fast with domain.ErrRunInProgress instead of queueing.
type Runner struct {
	mu         sync.Mutex
	ingest     Ingester
	news       NewsCollector // nil = ニュース収集なし
	watchList  []string
	runTimeout time.Duration
	log        zerolog.Logger
}

func NewRunner(ingest Ingester, news NewsCollector, watchList []string, runTimeout time.Duration, log zerolog.Logger) *Runner {
	if runTimeout <= 0 {
		runTimeout = 5 * time.Minute
	}
	return &Runner{
		ingest:     ingest,
		news:       news,
		watchList:  watchList,
		runTimeout: runTimeout,
		log:        log,
	}
}

// RunOnce runs prices, then news, within the run timeout.
func (r *Runner) RunOnce(ctx context.Context) (usecase.RunSummary, error) {
	if !r.mu.TryLock() {
		return usecase.RunSummary{}, domain.ErrRunInProgress
	}
	defer r.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, r.runTimeout)
	defer cancel()

	summary, err := r.ingest.Run(ctx, r.watchList)
	if err != nil {
		r.log.Error().Err(err).Str("run_id", summary.RunID).Msg("ingestion run ended early")
	}

	// ストア全体が落ちている場合はニュースも書けない
	if r.news != nil && !errors.Is(err, domain.ErrStoreUnavailable) && ctx.Err() == nil {
		if _, nerr := r.news.Collect(ctx); nerr != nil {
			r.log.Warn().Err(nerr).Msg("news step skipped")
		}
	}
	return summary, err
}
