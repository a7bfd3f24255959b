package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/viktsys/stockfolio/config"
)

type Observer interface {
	HTTPRecorder
	Handler() http.Handler
}

func SetupRoutes(h *Handler, cfg config.HTTP, obs Observer) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), RequestLogger(), Metrics(obs), CORS(cfg.AllowOrigins))

	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(obs.Handler()))

	r.GET("/query", h.GetQuote)
	r.POST("/buy", h.Buy)
	r.POST("/sell", h.Sell)
	r.GET("/portfolio", h.GetPortfolio)
	r.GET("/portfolio/export", h.ExportPortfolio)
	r.GET("/lots", h.GetLots)

	return r
}
