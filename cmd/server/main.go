package main

import (
	"log"
	"os"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"bb_monitor/internal/app/router"
	"bb_monitor/internal/app/scheduler"
	quotesadapters "bb_monitor/internal/feature/quotes/adapters"
	"bb_monitor/internal/feature/quotes/adapters/yahoo"
	quoteshandler "bb_monitor/internal/feature/quotes/transport/handler"
	quotesusecase "bb_monitor/internal/feature/quotes/usecase"
	sp500adapters "bb_monitor/internal/feature/sp500/adapters"
	sp500handler "bb_monitor/internal/feature/sp500/transport/handler"
	sp500usecase "bb_monitor/internal/feature/sp500/usecase"
	tablesadapters "bb_monitor/internal/feature/tables/adapters"
	tableshandler "bb_monitor/internal/feature/tables/transport/handler"
	tablesusecase "bb_monitor/internal/feature/tables/usecase"
	"bb_monitor/internal/platform/cache"
	platformdb "bb_monitor/internal/platform/db"
	platformhttp "bb_monitor/internal/platform/http"
	platformredis "bb_monitor/internal/platform/redis"
	"bb_monitor/internal/shared/marketcal"
	"bb_monitor/internal/shared/ratelimiter"
)

// refreshDelay は連続するアップストリーム呼び出しの間に挟む待機時間です。
const refreshDelay = 500 * time.Millisecond

func main() {
	// db
	db := platformdb.OpenDB(platformdb.LoadConfigFromEnv())

	// Redis
	var rdb *redisv9.Client
	if tmp, err := platformredis.NewRedisClient(); err != nil {
		log.Println("[WARN] Redis unavailable. Running without cache.")
		rdb = nil
	} else {
		rdb = tmp
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Println("[ERROR] Failed to close Redis client:", err)
			}
		}()
	}

	// Repository
	priceRepo := quotesadapters.NewPriceRepository(db)
	metaRepo := quotesadapters.NewMetaRepository(db)
	fundRepo := quotesadapters.NewFundamentalsRepository(db)
	kvRepo := tablesadapters.NewKVRepository(db)

	yahooCfg := yahoo.LoadConfig()
	market := yahoo.NewYahooMarket(yahooCfg, platformhttp.NewHTTPClient(yahooCfg.Timeout))

	sp500Cfg := sp500adapters.LoadConfig()
	constituentsRepo := sp500adapters.NewConstituentsRepository(sp500Cfg, platformhttp.NewHTTPClient(sp500Cfg.Timeout))

	// Redisキャッシュでラップ（翌営業日の0時まで有効）
	ttl := marketcal.TimeUntilNextMidnight(marketcal.US, time.Now())
	cachedPriceRepo := cache.NewCachingPriceRepository(rdb, ttl, priceRepo, "prices")

	// Usecase
	quotesUC := quotesusecase.NewQuoteUsecase(cachedPriceRepo, metaRepo, fundRepo, market)
	refreshUC := quotesusecase.NewRefreshUsecase(quotesUC, metaRepo, ratelimiter.NewFixedDelay(refreshDelay))
	tablesUC := tablesusecase.NewTableUsecase(kvRepo)
	sp500UC := sp500usecase.NewSyncUsecase(constituentsRepo, tablesUC)

	// Handler
	quotesH := quoteshandler.NewQuoteHandler(quotesUC, refreshUC)
	tablesH := tableshandler.NewTableHandler(tablesUC)
	sp500H := sp500handler.NewSP500Handler(sp500UC)

	// ルータ生成
	r := router.NewRouter(quotesH, tablesH, sp500H, router.StaticDir())

	// 定期更新（REFRESH_CRON未設定なら無効）
	schedCfg := scheduler.LoadConfig()
	if schedCfg.RefreshCron != "" {
		sched := scheduler.NewScheduler(refreshUC)
		if err := sched.Register(schedCfg.RefreshCron); err != nil {
			log.Fatal(err)
		}
		sched.Start()
		defer sched.Stop()
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8000"
	}
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}
