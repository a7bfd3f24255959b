package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/viktsys/stockfolio/models"
	"github.com/viktsys/stockfolio/portfolio"
	"github.com/viktsys/stockfolio/report"
	"github.com/viktsys/stockfolio/utils"
)

type PortfolioService interface {
	Quote(ctx context.Context, ticker string) (*models.Quote, error)
	Buy(ctx context.Context, ticker string, quantity int64) (models.BuyResult, error)
	Sell(ctx context.Context, ticker string, quantity int64) (models.SellResult, error)
	Portfolio(ctx context.Context) ([]models.Holding, error)
	Lots(ctx context.Context, ticker string) ([]models.Lot, error)
}

type ReportGenerator interface {
	Generate(ctx context.Context, holdings []models.Holding, lots []models.Lot) ([]byte, error)
}

type TradeRecorder interface {
	RecordTrade(side string)
}

type TradeRequest struct {
	Ticker   string `json:"ticker"`
	Quantity int64  `json:"quantity"`
}

type Handler struct {
	service PortfolioService
	reports ReportGenerator
	trades  TradeRecorder
}

func NewHandler(service PortfolioService, reports ReportGenerator, trades TradeRecorder) *Handler {
	return &Handler{service: service, reports: reports, trades: trades}
}

// clientErrors maps request errors to the message returned with a 400.
var clientErrors = []struct {
	err     error
	message string
}{
	{portfolio.ErrTickerRequired, "No ticker symbol provided"},
	{portfolio.ErrTradeIncomplete, "Ticker symbol and quantity are required"},
	{portfolio.ErrNonPositiveQuantity, "Quantity must be a positive integer"},
	{portfolio.ErrInsufficientShares, "Not enough shares to sell"},
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) GetQuote(c *gin.Context) {
	ticker := c.Query("ticker")
	if strings.TrimSpace(ticker) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No ticker symbol provided"})
		return
	}

	q, err := h.service.Quote(c.Request.Context(), ticker)
	if err != nil {
		h.respondError(c, "Handler.GetQuote", err)
		return
	}
	if q == nil {
		c.JSON(http.StatusOK, []any{})
		return
	}

	c.JSON(http.StatusOK, q)
}

func (h *Handler) Buy(c *gin.Context) {
	var req TradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.service.Buy(c.Request.Context(), req.Ticker, req.Quantity)
	if err != nil {
		h.respondError(c, "Handler.Buy", err)
		return
	}

	h.trades.RecordTrade("buy")
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Sell(c *gin.Context) {
	var req TradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.service.Sell(c.Request.Context(), req.Ticker, req.Quantity)
	if err != nil {
		h.respondError(c, "Handler.Sell", err)
		return
	}

	h.trades.RecordTrade("sell")
	c.JSON(http.StatusOK, res)
}

func (h *Handler) GetPortfolio(c *gin.Context) {
	holdings, err := h.service.Portfolio(c.Request.Context())
	if err != nil {
		h.respondError(c, "Handler.GetPortfolio", err)
		return
	}

	c.JSON(http.StatusOK, holdings)
}

func (h *Handler) GetLots(c *gin.Context) {
	lots, err := h.service.Lots(c.Request.Context(), c.Query("ticker"))
	if err != nil {
		h.respondError(c, "Handler.GetLots", err)
		return
	}

	c.JSON(http.StatusOK, lots)
}

func (h *Handler) ExportPortfolio(c *gin.Context) {
	ctx := c.Request.Context()

	holdings, err := h.service.Portfolio(ctx)
	if err != nil {
		h.respondError(c, "Handler.ExportPortfolio", err)
		return
	}
	lots, err := h.service.Lots(ctx, "")
	if err != nil {
		h.respondError(c, "Handler.ExportPortfolio", err)
		return
	}

	data, err := h.reports.Generate(ctx, holdings, lots)
	if err != nil {
		h.respondError(c, "Handler.ExportPortfolio", err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+report.FileName+`"`)
	c.Data(http.StatusOK, report.ContentType, data)
}

func (h *Handler) respondError(c *gin.Context, op string, err error) {
	rqID := utils.GetRequestIDFromCtx(c.Request.Context())

	for _, ce := range clientErrors {
		if errors.Is(err, ce.err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": ce.message})
			return
		}
	}

	slog.Error("request failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
