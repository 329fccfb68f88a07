package scheduler

import (
	"context"
	"errors"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"stockpulse/internal/feature/prices/domain"
)

// Scheduler triggers Runner.RunOnce on a standard five-field cron expression.
type Scheduler struct {
	runner *Runner
	cron   *cron.Cron
	log    zerolog.Logger
}

func New(runner *Runner, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		runner: runner,
		cron:   cron.New(),
		log:    log,
	}
}

// Start registers the schedule and starts the cron loop.
func (s *Scheduler) Start(schedule string) error {
	if _, err := s.cron.AddFunc(schedule, s.tick); err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info().Str("schedule", schedule).Msg("ingestion scheduler started")
	return nil
}

// Stop stops the cron loop and returns a context that is done when the running job finishes.
func (s *Scheduler) Stop() context.Context {
	ctx := s.cron.Stop()
	s.log.Info().Msg("ingestion scheduler stopped")
	return ctx
}

func (s *Scheduler) tick() {
	summary, err := s.runner.RunOnce(context.Background())
	if errors.Is(err, domain.ErrRunInProgress) {
		s.log.Warn().Msg("scheduled run skipped: previous run still in progress")
		return
	}
	s.log.Info().
		Str("run_id", summary.RunID).
		Int("tickers", len(summary.Results)).
		Int("failed", summary.Failed()).
		Dur("elapsed", summary.FinishedAt.Sub(summary.StartedAt)).
		Msg("scheduled run finished")
}
