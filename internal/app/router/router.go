// Package router はアプリケーション全体のHTTPルーティングを構成します。
package router

import (
	"os"
	"path/filepath"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	quoteshandler "bb_monitor/internal/feature/quotes/transport/handler"
	sp500handler "bb_monitor/internal/feature/sp500/transport/handler"
	tableshandler "bb_monitor/internal/feature/tables/transport/handler"
	platformhandler "bb_monitor/internal/platform/http/handler"
)

// StaticDir は静的ファイル（index.html / css / js）の配置ディレクトリを返します。
func StaticDir() string {
	if dir := os.Getenv("STATIC_DIR"); dir != "" {
		return dir
	}
	return "."
}

// NewRouter は全エンドポイントを登録したginエンジンを生成します。
// フロントエンドはブラウザから直接呼び出すため、CORSは全オリジン許可です。
func NewRouter(quotes *quoteshandler.QuoteHandler, tables *tableshandler.TableHandler,
	sp500 *sp500handler.SP500Handler, staticDir string) *gin.Engine {
	r := gin.Default()
	r.Use(cors.Default())

	// 導通確認用
	r.GET("/api/health", platformhandler.Health)

	// 株価照会・更新
	r.POST("/api/stock", quotes.GetStock)
	r.POST("/api/stocks", quotes.GetStocks)
	r.POST("/api/stocks/refresh", quotes.RefreshStocks)
	r.POST("/api/refresh", quotes.StartRefresh)
	r.GET("/api/refresh/status", quotes.RefreshStatus)
	r.POST("/api/fundamentals", quotes.GetFundamentals)

	// S&P500構成銘柄の同期
	r.POST("/api/sp500/sync", sp500.Sync)

	// 動的テーブル（フロントエンドのストレージ層が使用）
	r.GET("/tables/:name", tables.List)
	r.POST("/tables/:name", tables.Create)
	r.PATCH("/tables/:name/:id", tables.Update)
	r.DELETE("/tables/:name/:id", tables.Remove)

	// 静的ファイル
	if staticDir != "" {
		r.Static("/css", filepath.Join(staticDir, "css"))
		r.Static("/js", filepath.Join(staticDir, "js"))
		r.StaticFile("/", filepath.Join(staticDir, "index.html"))
		r.StaticFile("/favicon.ico", filepath.Join(staticDir, "favicon.ico"))
	}

	return r
}
