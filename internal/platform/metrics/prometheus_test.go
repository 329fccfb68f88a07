package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"stockpulse/internal/feature/prices/domain"
	"stockpulse/internal/feature/prices/domain/entity"
	"stockpulse/internal/feature/prices/usecase"
)

func TestRecorder_RecordTicker(t *testing.T) {
	t.Parallel()

	r := New(prometheus.NewRegistry())

	r.RecordTicker(usecase.TickerResult{
		Symbol:   "AAPL",
		Fetched:  10,
		Created:  7,
		Updated:  1,
		Rejected: []*domain.NormalizationError{{Field: "close"}, {Field: "volume"}},
		Alert:    &entity.AlertEvent{Symbol: "AAPL"},
		Notified: true,
	}, 120*time.Millisecond)
	r.RecordTicker(usecase.TickerResult{
		Symbol: "MSFT",
		Err:    &domain.FetchError{Provider: "twelvedata", Symbol: "MSFT", Err: errors.New("boom")},
	}, time.Second)
	r.RecordTicker(usecase.TickerResult{Symbol: "TSLA", Skipped: true}, 0)

	assert.Equal(t, 10.0, testutil.ToFloat64(r.bars.WithLabelValues("AAPL", "fetched")))
	assert.Equal(t, 7.0, testutil.ToFloat64(r.bars.WithLabelValues("AAPL", "created")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.bars.WithLabelValues("AAPL", "rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.alerts.WithLabelValues("AAPL", "notified")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.errors.WithLabelValues("MSFT", "fetch")))
	assert.Equal(t, 2, testutil.CollectAndCount(r.duration), "skipped tickers are not observed")
}
