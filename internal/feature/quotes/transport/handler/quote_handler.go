// Package handler はquotesフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"bb_monitor/internal/feature/quotes/domain/entity"
	"bb_monitor/internal/feature/quotes/usecase"
	"bb_monitor/internal/shared/marketcal"
	"bb_monitor/internal/shared/tickers"
)

// QuotesUsecase は単一銘柄の取得・整形のユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type QuotesUsecase interface {
	EnsurePrices(ctx context.Context, ticker string, m marketcal.Market, interval entity.Interval) (usecase.PriceStatus, error)
	EnsureMetaAndFundamentals(ctx context.Context, ticker string, m marketcal.Market) error
	BuildQuote(ctx context.Context, ticker string, m marketcal.Market, interval entity.Interval, candleCount int) (*usecase.Quote, error)
	FundamentalsBatch(ctx context.Context, rawTickers []string) map[string]usecase.FundamentalsJSON
}

// BatchUsecase は複数銘柄のバッチ処理のユースケースインターフェースを定義します。
type BatchUsecase interface {
	GetBatch(ctx context.Context, stocks []usecase.StockRef, interval entity.Interval, candleCount int) []usecase.StockResult
	RefreshBatch(ctx context.Context, stocks []usecase.StockRef, interval entity.Interval, candleCount int) []usecase.StockResult
	StartFullRefresh(stocks []usecase.StockRef, interval entity.Interval) bool
	Status() usecase.RefreshStatus
}

// StockRequest は単一銘柄照会のリクエストボディです。
type StockRequest struct {
	Code        string `json:"code" binding:"required"`
	Market      string `json:"market"`
	Interval    string `json:"interval"`
	CandleCount int    `json:"candle_count"`
}

// BatchRequest はバッチ照会・更新のリクエストボディです。
type BatchRequest struct {
	Stocks      []usecase.StockRef `json:"stocks"`
	Interval    string             `json:"interval"`
	CandleCount int                `json:"candle_count"`
}

// FundBatchRequest はファンダメンタル一括取得のリクエストボディです。
type FundBatchRequest struct {
	Tickers []string `json:"tickers" binding:"required"`
}

// QuoteHandler は株価照会・更新のHTTPリクエストを処理します。
type QuoteHandler struct {
	quotes QuotesUsecase
	batch  BatchUsecase
}

// NewQuoteHandler は指定されたusecaseでQuoteHandlerの新しいインスタンスを生成します。
func NewQuoteHandler(quotes QuotesUsecase, batch BatchUsecase) *QuoteHandler {
	return &QuoteHandler{quotes: quotes, batch: batch}
}

// candleCountOrDefault は未指定(0以下)のローソク足本数をデフォルト値に揃えます。
func candleCountOrDefault(n int) int {
	if n <= 0 {
		return usecase.DefaultCandleCount
	}
	return n
}

// GetStock は単一銘柄を照会します。キャッシュが新しければストアから、
// 古ければアップストリームを取得してから返します。
//
// エンドポイント例:
// POST /api/stock {"code":"AAPL","interval":"1d","candle_count":52}
func (h *QuoteHandler) GetStock(c *gin.Context) {
	var req StockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code is required"})
		return
	}

	m := marketcal.Market(req.Market)
	if m != marketcal.US && m != marketcal.KR {
		m = tickers.ResolveMarket(req.Code)
	}
	ticker := tickers.Resolve(req.Code, m)
	interval := entity.ParseInterval(req.Interval)
	ctx := c.Request.Context()

	status, err := h.quotes.EnsurePrices(ctx, ticker, m, interval)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if status == usecase.PriceNoData {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("no data available for %s", ticker)})
		return
	}

	// 価格が取れていればメタ/ファンダメンタルの失敗は応答を止めない
	if err := h.quotes.EnsureMetaAndFundamentals(ctx, ticker, m); err != nil {
		slog.Warn("meta refresh failed", "ticker", ticker, "error", err)
	}

	quote, err := h.quotes.BuildQuote(ctx, ticker, m, interval, candleCountOrDefault(req.CandleCount))
	if err != nil {
		if errors.Is(err, usecase.ErrNoData) {
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("no data available for %s", ticker)})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, quote)
}

// GetStocks は複数銘柄をストアのみから一括照会します（アップストリーム呼び出しなし）。
//
// エンドポイント例:
// POST /api/stocks {"stocks":[{"code":"AAPL"},{"code":"005930"}],"interval":"1d"}
func (h *QuoteHandler) GetStocks(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	results := h.batch.GetBatch(c.Request.Context(), req.Stocks,
		entity.ParseInterval(req.Interval), candleCountOrDefault(req.CandleCount))
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// RefreshStocks は複数銘柄を1件ずつ最新化し、各銘柄の結果を返します。
//
// エンドポイント例:
// POST /api/stocks/refresh {"stocks":[{"code":"AAPL"}],"interval":"1d"}
func (h *QuoteHandler) RefreshStocks(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	results := h.batch.RefreshBatch(c.Request.Context(), req.Stocks,
		entity.ParseInterval(req.Interval), candleCountOrDefault(req.CandleCount))
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// StartRefresh は全体更新をバックグラウンドで開始します。
// 既に実行中の場合は ok:false を返します（エラーではない）。
//
// エンドポイント例:
// POST /api/refresh {"stocks":[{"code":"AAPL"},{"code":"MSFT"}]}
func (h *QuoteHandler) StartRefresh(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	if !h.batch.StartFullRefresh(req.Stocks, entity.ParseInterval(req.Interval)) {
		c.JSON(http.StatusOK, gin.H{"ok": false, "msg": "refresh already running"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "total": len(req.Stocks)})
}

// RefreshStatus は全体更新の進行状態を返します。
//
// エンドポイント例:
// GET /api/refresh/status
func (h *QuoteHandler) RefreshStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.batch.Status())
}

// GetFundamentals は複数ティッカーのファンダメンタルを一括で返します。
//
// エンドポイント例:
// POST /api/fundamentals {"tickers":["AAPL","005930"]}
func (h *QuoteHandler) GetFundamentals(c *gin.Context) {
	var req FundBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tickers is required"})
		return
	}

	results := h.quotes.FundamentalsBatch(c.Request.Context(), req.Tickers)
	c.JSON(http.StatusOK, gin.H{"results": results})
}
