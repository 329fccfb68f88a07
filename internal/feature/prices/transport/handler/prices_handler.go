// Package handler はpricesフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"stockpulse/internal/feature/prices/domain"
	"stockpulse/internal/feature/prices/domain/entity"
	"stockpulse/internal/feature/prices/transport/http/dto"
	"stockpulse/internal/feature/prices/usecase"
)

// TickerLister は登録済み銘柄の一覧を返します。
type TickerLister interface {
	List(ctx context.Context) ([]entity.Ticker, error)
}

// IngestRunner はインジェスト処理を一回実行します。実行中なら domain.ErrRunInProgress。
type IngestRunner interface {
	RunOnce(ctx context.Context) (usecase.RunSummary, error)
}

type PricesHandler struct {
	tickers TickerLister
	runner  IngestRunner
}

func NewPricesHandler(tickers TickerLister, runner IngestRunner) *PricesHandler {
	return &PricesHandler{tickers: tickers, runner: runner}
}

// ListTickers は登録済み銘柄をシンボル順で返します。
//
// エンドポイント例:
// GET /tickers
func (h *PricesHandler) ListTickers(c *gin.Context) {
	tickers, err := h.tickers.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	out := make([]dto.TickerResponse, 0, len(tickers))
	for _, t := range tickers {
		out = append(out, dto.TickerResponse{Symbol: t.Symbol, Name: t.Name})
	}
	c.JSON(http.StatusOK, out)
}

// TriggerIngest はインジェスト処理を同期実行し、結果サマリーを返します。
//
// エンドポイント例:
// POST /admin/ingest
func (h *PricesHandler) TriggerIngest(c *gin.Context) {
	summary, err := h.runner.RunOnce(c.Request.Context())
	switch {
	case errors.Is(err, domain.ErrRunInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case errors.Is(err, domain.ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, dto.FromRunSummary(summary, err))
		return
	}
	// キャンセル等で途中終了した場合もサマリーは返す
	c.JSON(http.StatusOK, dto.FromRunSummary(summary, err))
}
