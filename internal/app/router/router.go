package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	analyticshandler "stockpulse/internal/feature/analytics/transport/handler"
	newshandler "stockpulse/internal/feature/news/transport/handler"
	priceshandler "stockpulse/internal/feature/prices/transport/handler"
	"stockpulse/internal/platform/http/handler"
	jwtmw "stockpulse/internal/platform/jwt"
)

// Handlers groups the feature handlers mounted by NewRouter.
type Handlers struct {
	Store     handler.Pinger
	Prices    *priceshandler.PricesHandler
	Analytics *analyticshandler.AnalyticsHandler
	News      *newshandler.NewsHandler
	Metrics   http.Handler
}

func NewRouter(h Handlers, jwtSecret string) *gin.Engine {
	r := gin.Default()

	// 認証不要
	// 導通確認用
	health := handler.Health(h.Store)
	r.GET("/healthz", health)
	r.HEAD("/healthz", health)

	r.GET("/tickers", h.Prices.ListTickers)
	r.GET("/tickers/:symbol/analytics", h.Analytics.GetAnalytics)
	r.GET("/tickers/:symbol/bars", h.Analytics.GetSeries)
	if h.News != nil {
		r.GET("/news", h.News.List)
	}
	if h.Metrics != nil {
		r.GET("/metrics", gin.WrapH(h.Metrics))
	}

	// 管理者のみ
	admin := r.Group("/admin")
	admin.Use(jwtmw.AuthRequired(jwtSecret, jwtmw.AdminSubject))
	{
		admin.POST("/ingest", h.Prices.TriggerIngest)
	}

	return r
}
