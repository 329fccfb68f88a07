package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockpulse/internal/feature/prices/usecase"
)

type ingestFunc func(ctx context.Context, symbols []string) (usecase.RunSummary, error)

func (f ingestFunc) Run(ctx context.Context, symbols []string) (usecase.RunSummary, error) {
	return f(ctx, symbols)
}

func TestRunPrices_AppliesRunTimeout(t *testing.T) {
	var gotDeadline time.Time
	ingest := ingestFunc(func(ctx context.Context, symbols []string) (usecase.RunSummary, error) {
		assert.Equal(t, []string{"AAPL", "MSFT"}, symbols)
		d, ok := ctx.Deadline()
		require.True(t, ok, "run context must carry the run timeout")
		gotDeadline = d
		return usecase.RunSummary{}, nil
	})

	var buf bytes.Buffer
	err := runPrices(context.Background(), &buf, ingest, []string{"AAPL", "MSFT"}, 2*time.Minute)

	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(2*time.Minute), gotDeadline, 5*time.Second)
}

func TestRunPrices_TimeoutCancelsRun(t *testing.T) {
	ingest := ingestFunc(func(ctx context.Context, symbols []string) (usecase.RunSummary, error) {
		<-ctx.Done()
		return usecase.RunSummary{}, ctx.Err()
	})

	err := runPrices(context.Background(), &bytes.Buffer{}, ingest, []string{"AAPL"}, 10*time.Millisecond)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
