// Package handler はプラットフォームレベルのエンドポイント用HTTPハンドラーを提供します。
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const pingTimeout = 2 * time.Second

// Pinger はストアの疎通確認を行います。
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health は /healthz を処理するハンドラーを返します。
// pinger が nil でなければDB疎通も確認し、失敗時は 503 を返します。
func Health(pinger Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 明示的にキャッシュを防止
		c.Header("Cache-Control", "no-store")

		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		status, store := http.StatusOK, "ok"
		if pinger != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
			defer cancel()
			if err := pinger.Ping(ctx); err != nil {
				status, store = http.StatusServiceUnavailable, "unavailable"
			}
		}

		if c.Request.Method == http.MethodHead {
			c.Status(status)
			return
		}
		body := gin.H{"status": "ok", "store": store}
		if status != http.StatusOK {
			body["status"] = "degraded"
		}
		c.JSON(status, body)
	}
}
