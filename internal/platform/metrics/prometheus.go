// Package metrics exposes ingestion outcomes as Prometheus metrics.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"stockpulse/internal/feature/prices/domain"
	"stockpulse/internal/feature/prices/usecase"
)

// Recorder implements usecase.Metrics using Prometheus.
type Recorder struct {
	bars     *prometheus.CounterVec
	errors   *prometheus.CounterVec
	alerts   *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

var _ usecase.Metrics = (*Recorder)(nil)

// New registers the collectors on reg. Pass prometheus.DefaultRegisterer in binaries.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		bars: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockpulse_bars_total",
				Help: "Bars processed by the ingestion pipeline, by outcome",
			},
			[]string{"symbol", "outcome"}, // fetched, created, updated, rejected
		),
		errors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockpulse_ticker_errors_total",
				Help: "Ticker-level ingestion failures, by kind",
			},
			[]string{"symbol", "kind"},
		),
		alerts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockpulse_alerts_total",
				Help: "Threshold alerts, by delivery outcome",
			},
			[]string{"symbol", "outcome"}, // notified, suppressed, failed
		),
		duration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockpulse_ticker_duration_seconds",
				Help:    "Duration of the per-ticker pipeline in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"symbol"},
		),
	}
}

// RecordTicker records one TickerResult.
func (r *Recorder) RecordTicker(res usecase.TickerResult, elapsed time.Duration) {
	if res.Skipped {
		return
	}
	s := res.Symbol
	r.duration.WithLabelValues(s).Observe(elapsed.Seconds())
	r.bars.WithLabelValues(s, "fetched").Add(float64(res.Fetched))
	r.bars.WithLabelValues(s, "created").Add(float64(res.Created))
	r.bars.WithLabelValues(s, "updated").Add(float64(res.Updated))
	r.bars.WithLabelValues(s, "rejected").Add(float64(len(res.Rejected)))

	if res.Err != nil {
		r.errors.WithLabelValues(s, errorKind(res.Err)).Inc()
	}

	if res.Alert == nil {
		return
	}
	switch {
	case res.Notified:
		r.alerts.WithLabelValues(s, "notified").Inc()
	case res.Suppressed:
		r.alerts.WithLabelValues(s, "suppressed").Inc()
	case res.NotifyErr != nil:
		r.alerts.WithLabelValues(s, "failed").Inc()
	}
}

func errorKind(err error) string {
	var (
		ferr *domain.FetchError
		serr *domain.StorageError
	)
	switch {
	case errors.As(err, &ferr):
		return "fetch"
	case errors.As(err, &serr):
		return "storage"
	default:
		return "other"
	}
}
