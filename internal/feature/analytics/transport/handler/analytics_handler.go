// Package handler はanalyticsフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"stockpulse/internal/feature/analytics/domain/entity"
	"stockpulse/internal/feature/analytics/transport/http/dto"
	"stockpulse/internal/feature/analytics/usecase"
	pricedomain "stockpulse/internal/feature/prices/domain"
	priceentity "stockpulse/internal/feature/prices/domain/entity"
)

// AnalyticsUsecase はハンドラーが利用する集計ユースケースです。
type AnalyticsUsecase interface {
	Dashboard(ctx context.Context, symbol string, days int) (entity.Dashboard, error)
	Series(ctx context.Context, symbol string, days int) ([]entity.Point, error)
}

// AnalyticsHandler は集計値のHTTPリクエストを処理します。
type AnalyticsHandler struct {
	uc AnalyticsUsecase
}

func NewAnalyticsHandler(uc AnalyticsUsecase) *AnalyticsHandler {
	return &AnalyticsHandler{uc: uc}
}

// GetAnalytics はダッシュボードの各カードを返します。
//
// エンドポイント例:
// GET /tickers/:symbol/analytics?days=30
func (h *AnalyticsHandler) GetAnalytics(c *gin.Context) {
	days, ok := queryDays(c, 0)
	if !ok {
		return
	}

	dash, err := h.uc.Dashboard(c.Request.Context(), c.Param("symbol"), days)
	if err != nil {
		writeError(c, err)
		return
	}

	res := dto.AnalyticsResponse{
		Symbol: dash.Ticker.Symbol,
		Name:   dash.Ticker.Name,
	}
	if dyn := dash.Dynamics; dyn != nil {
		res.Dynamics30d = &dto.DynamicsResponse{
			StartDate:      dyn.StartDate.UTC().Format(priceentity.DateLayout),
			EndDate:        dyn.EndDate.UTC().Format(priceentity.DateLayout),
			StartPrice:     dyn.StartPrice.StringFixed(2),
			EndPrice:       dyn.EndPrice.StringFixed(2),
			AbsoluteChange: dyn.AbsoluteChange.StringFixed(2),
			PercentChange:  dyn.PercentChange.StringFixed(2),
		}
	}
	if avg := dash.AverageClose; avg != nil {
		s := avg.StringFixed(2)
		res.AverageClose90d = &s
	}
	if mm := dash.MinMax; mm != nil {
		res.MinMax365d = &dto.MinMaxResponse{
			MinPrice: mm.Min.StringFixed(2),
			MaxPrice: mm.Max.StringFixed(2),
		}
	}

	c.JSON(http.StatusOK, res)
}

// GetSeries はチャート用の終値系列を返します。
//
// エンドポイント例:
// GET /tickers/:symbol/bars?days=365
func (h *AnalyticsHandler) GetSeries(c *gin.Context) {
	days, ok := queryDays(c, entity.SeriesDays)
	if !ok {
		return
	}

	points, err := h.uc.Series(c.Request.Context(), c.Param("symbol"), days)
	if err != nil {
		writeError(c, err)
		return
	}

	out := dto.SeriesResponse{
		Symbol: c.Param("symbol"),
		Points: make([]dto.PointResponse, 0, len(points)),
	}
	for _, p := range points {
		out.Points = append(out.Points, dto.PointResponse{
			Date:  p.Date.UTC().Format(priceentity.DateLayout),
			Close: p.Close.StringFixed(2),
		})
	}
	c.JSON(http.StatusOK, out)
}

// queryDays は ?days= を読み取ります。未指定なら def、不正値なら 400 を返して false。
func queryDays(c *gin.Context, def int) (int, bool) {
	raw := c.Query("days")
	if raw == "" {
		return def, true
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a positive integer"})
		return 0, false
	}
	return days, true
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, pricedomain.ErrTickerNotFound), errors.Is(err, pricedomain.ErrInvalidSymbol):
		c.JSON(http.StatusNotFound, gin.H{"error": "ticker not found"})
	case errors.Is(err, usecase.ErrInvalidWindow):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
