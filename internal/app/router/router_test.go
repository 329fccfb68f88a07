package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	analyticsentity "stockpulse/internal/feature/analytics/domain/entity"
	analyticshandler "stockpulse/internal/feature/analytics/transport/handler"
	"stockpulse/internal/feature/prices/domain/entity"
	priceshandler "stockpulse/internal/feature/prices/transport/handler"
	"stockpulse/internal/feature/prices/usecase"
	jwtmw "stockpulse/internal/platform/jwt"
)

type stubTickers struct{}

func (stubTickers) List(ctx context.Context) ([]entity.Ticker, error) {
	return []entity.Ticker{{ID: 1, Symbol: "AAPL"}}, nil
}

type stubRunner struct{ calls int }

func (s *stubRunner) RunOnce(ctx context.Context) (usecase.RunSummary, error) {
	s.calls++
	return usecase.RunSummary{RunID: "run"}, nil
}

type stubAnalytics struct{}

func (stubAnalytics) Dashboard(ctx context.Context, symbol string, days int) (analyticsentity.Dashboard, error) {
	return analyticsentity.Dashboard{Ticker: entity.Ticker{Symbol: "AAPL"}}, nil
}

func (stubAnalytics) Series(ctx context.Context, symbol string, days int) ([]analyticsentity.Point, error) {
	return nil, nil
}

func TestNewRouter(t *testing.T) {
	gin.SetMode(gin.TestMode)

	const secret = "router-test-secret"
	runner := &stubRunner{}
	r := NewRouter(Handlers{
		Prices:    priceshandler.NewPricesHandler(stubTickers{}, runner),
		Analytics: analyticshandler.NewAnalyticsHandler(stubAnalytics{}),
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("# metrics"))
		}),
	}, secret)

	token, err := jwtmw.NewGenerator(secret, time.Hour).GenerateToken(jwtmw.AdminSubject)
	require.NoError(t, err)

	tests := []struct {
		name         string
		method       string
		path         string
		token        string
		expectedCode int
	}{
		{"health", http.MethodGet, "/healthz", "", http.StatusOK},
		{"tickers", http.MethodGet, "/tickers", "", http.StatusOK},
		{"analytics", http.MethodGet, "/tickers/AAPL/analytics", "", http.StatusOK},
		{"bars", http.MethodGet, "/tickers/AAPL/bars", "", http.StatusOK},
		{"metrics", http.MethodGet, "/metrics", "", http.StatusOK},
		{"news disabled", http.MethodGet, "/news", "", http.StatusNotFound},
		{"admin without token", http.MethodPost, "/admin/ingest", "", http.StatusUnauthorized},
		{"admin with token", http.MethodPost, "/admin/ingest", token, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.expectedCode, w.Code)
		})
	}

	assert.Equal(t, 1, runner.calls)
}
