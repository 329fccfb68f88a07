// Package handler はnewsフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"stockpulse/internal/feature/news/domain/entity"
	"stockpulse/internal/feature/news/transport/http/dto"
)

type NewsUsecase interface {
	Latest(ctx context.Context, limit int) ([]entity.Article, error)
}

type NewsHandler struct {
	uc NewsUsecase
}

func NewNewsHandler(uc NewsUsecase) *NewsHandler {
	return &NewsHandler{uc: uc}
}

// List は最新のニュース記事を返します。
//
// エンドポイント例:
// GET /news?limit=50
func (h *NewsHandler) List(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
		return
	}

	articles, err := h.uc.Latest(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	out := make([]dto.ArticleResponse, 0, len(articles))
	for _, a := range articles {
		symbols := a.Symbols
		if symbols == nil {
			symbols = []string{}
		}
		out = append(out, dto.ArticleResponse{
			Headline:    a.Headline,
			URL:         a.URL,
			Source:      a.Source,
			PublishedAt: a.PublishedAt.UTC().Format(time.RFC3339),
			Symbols:     symbols,
		})
	}
	c.JSON(http.StatusOK, out)
}
