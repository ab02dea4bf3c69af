// Package handler はtablesフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// TablesUsecase は動的テーブル操作のユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type TablesUsecase interface {
	GetAll(ctx context.Context, table string, limit int) ([]map[string]any, error)
	Insert(ctx context.Context, table string, data map[string]any) (map[string]any, error)
	Patch(ctx context.Context, table, rowID string, patch map[string]any) (map[string]any, error)
	Delete(ctx context.Context, table, rowID string) (bool, error)
}

// TableHandler はスキーマレステーブルのHTTPリクエストを処理します。
type TableHandler struct {
	uc TablesUsecase
}

// NewTableHandler は指定されたusecaseでTableHandlerの新しいインスタンスを生成します。
func NewTableHandler(uc TablesUsecase) *TableHandler {
	return &TableHandler{uc: uc}
}

// List はテーブルの全行を返します。
//
// エンドポイント例:
// GET /tables/:name?limit=500
func (h *TableHandler) List(c *gin.Context) {
	name := c.Param("name")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "500"))

	rows, err := h.uc.GetAll(c.Request.Context(), name, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows, "total": len(rows)})
}

// Create は行を挿入し、採番されたidを含む行を返します。
//
// エンドポイント例:
// POST /tables/:name
func (h *TableHandler) Create(c *gin.Context) {
	name := c.Param("name")

	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	row, err := h.uc.Insert(c.Request.Context(), name, body)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, row)
}

// Update は既存行にフィールドをマージします。
//
// エンドポイント例:
// PATCH /tables/:name/:id
func (h *TableHandler) Update(c *gin.Context) {
	name := c.Param("name")
	rowID := c.Param("id")

	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	row, err := h.uc.Patch(c.Request.Context(), name, rowID, body)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if row == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, row)
}

// Remove は行を削除します。
//
// エンドポイント例:
// DELETE /tables/:name/:id
func (h *TableHandler) Remove(c *gin.Context) {
	name := c.Param("name")
	rowID := c.Param("id")

	ok, err := h.uc.Delete(c.Request.Context(), name, rowID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
