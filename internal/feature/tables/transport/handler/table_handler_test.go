package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// mockTablesUsecase はTablesUsecaseのモック実装です。
type mockTablesUsecase struct {
	GetAllFunc func(ctx context.Context, table string, limit int) ([]map[string]any, error)
	InsertFunc func(ctx context.Context, table string, data map[string]any) (map[string]any, error)
	PatchFunc  func(ctx context.Context, table, rowID string, patch map[string]any) (map[string]any, error)
	DeleteFunc func(ctx context.Context, table, rowID string) (bool, error)
}

func (m *mockTablesUsecase) GetAll(ctx context.Context, table string, limit int) ([]map[string]any, error) {
	if m.GetAllFunc != nil {
		return m.GetAllFunc(ctx, table, limit)
	}
	return nil, nil
}

func (m *mockTablesUsecase) Insert(ctx context.Context, table string, data map[string]any) (map[string]any, error) {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, table, data)
	}
	return data, nil
}

func (m *mockTablesUsecase) Patch(ctx context.Context, table, rowID string, patch map[string]any) (map[string]any, error) {
	if m.PatchFunc != nil {
		return m.PatchFunc(ctx, table, rowID, patch)
	}
	return nil, nil
}

func (m *mockTablesUsecase) Delete(ctx context.Context, table, rowID string) (bool, error) {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, table, rowID)
	}
	return false, nil
}

func setupRouter(uc TablesUsecase) *gin.Engine {
	h := NewTableHandler(uc)
	r := gin.New()
	r.GET("/tables/:name", h.List)
	r.POST("/tables/:name", h.Create)
	r.PATCH("/tables/:name/:id", h.Update)
	r.DELETE("/tables/:name/:id", h.Remove)
	return r
}

// TestList_ReturnsDataAndTotal は一覧取得のレスポンス形式とlimitの伝播を検証します。
func TestList_ReturnsDataAndTotal(t *testing.T) {
	t.Parallel()

	uc := &mockTablesUsecase{
		GetAllFunc: func(ctx context.Context, table string, limit int) ([]map[string]any, error) {
			assert.Equal(t, "bb_tabs", table)
			assert.Equal(t, 100, limit)
			return []map[string]any{{"id": "r1", "name": "watchlist"}}, nil
		},
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/tables/bb_tabs?limit=100", nil)
	setupRouter(uc).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":[{"id":"r1","name":"watchlist"}],"total":1}`, w.Body.String())
}

// TestList_DefaultLimit はlimit未指定時に500が使われることを検証します。
func TestList_DefaultLimit(t *testing.T) {
	t.Parallel()

	var gotLimit int
	uc := &mockTablesUsecase{
		GetAllFunc: func(ctx context.Context, table string, limit int) ([]map[string]any, error) {
			gotLimit = limit
			return []map[string]any{}, nil
		},
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/tables/bb_tabs", nil)
	setupRouter(uc).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 500, gotLimit)
}

// TestCreate_ReturnsRow は挿入された行がそのまま返されることを検証します。
func TestCreate_ReturnsRow(t *testing.T) {
	t.Parallel()

	uc := &mockTablesUsecase{
		InsertFunc: func(ctx context.Context, table string, data map[string]any) (map[string]any, error) {
			data["id"] = "generated"
			return data, nil
		},
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/tables/bb_tabs", strings.NewReader(`{"name":"alpha"}`))
	req.Header.Set("Content-Type", "application/json")
	setupRouter(uc).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"generated","name":"alpha"}`, w.Body.String())
}

// TestCreate_InvalidJSON は不正なボディで400が返ることを検証します。
func TestCreate_InvalidJSON(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/tables/bb_tabs", strings.NewReader(`not json`))
	req.Header.Set("Content-Type", "application/json")
	setupRouter(&mockTablesUsecase{}).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// TestUpdate_NotFound は存在しない行へのPATCHで404が返ることを検証します。
func TestUpdate_NotFound(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/tables/bb_tabs/missing", strings.NewReader(`{"x":1}`))
	req.Header.Set("Content-Type", "application/json")
	setupRouter(&mockTablesUsecase{}).ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// TestUpdate_ReturnsMergedRow はマージ済みの行が返されることを検証します。
func TestUpdate_ReturnsMergedRow(t *testing.T) {
	t.Parallel()

	uc := &mockTablesUsecase{
		PatchFunc: func(ctx context.Context, table, rowID string, patch map[string]any) (map[string]any, error) {
			assert.Equal(t, "r1", rowID)
			return map[string]any{"id": rowID, "name": "patched"}, nil
		},
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/tables/bb_tabs/r1", strings.NewReader(`{"name":"patched"}`))
	req.Header.Set("Content-Type", "application/json")
	setupRouter(uc).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"r1","name":"patched"}`, w.Body.String())
}

// TestRemove_OKAndNotFound は削除の成功時と未存在時のステータスを検証します。
func TestRemove_OKAndNotFound(t *testing.T) {
	t.Parallel()

	uc := &mockTablesUsecase{
		DeleteFunc: func(ctx context.Context, table, rowID string) (bool, error) {
			return rowID == "exists", nil
		},
	}
	router := setupRouter(uc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/tables/bb_tabs/exists", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodDelete, "/tables/bb_tabs/missing", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// TestList_UsecaseError はユースケースのエラーで500が返ることを検証します。
func TestList_UsecaseError(t *testing.T) {
	t.Parallel()

	uc := &mockTablesUsecase{
		GetAllFunc: func(ctx context.Context, table string, limit int) ([]map[string]any, error) {
			return nil, errors.New("boom")
		},
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/tables/bb_tabs", nil)
	setupRouter(uc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
