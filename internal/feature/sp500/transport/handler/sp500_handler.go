// Package handler はsp500フィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"bb_monitor/internal/feature/sp500/usecase"
)

// SyncUsecase はS&P500同期のユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type SyncUsecase interface {
	Sync(ctx context.Context) (*usecase.SyncResult, error)
}

// SP500Handler はS&P500同期のHTTPリクエストを処理します。
type SP500Handler struct {
	uc SyncUsecase
}

// NewSP500Handler は指定されたusecaseでSP500Handlerの新しいインスタンスを生成します。
func NewSP500Handler(uc SyncUsecase) *SP500Handler {
	return &SP500Handler{uc: uc}
}

// Sync は最新のS&P500構成銘柄をタブへ同期します。
//
// エンドポイント例:
// POST /api/sp500/sync
func (h *SP500Handler) Sync(c *gin.Context) {
	result, err := h.uc.Sync(c.Request.Context())
	if err != nil {
		// 上流データ取得の失敗は502、それ以外は500
		if errors.Is(err, usecase.ErrFetch) {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}
