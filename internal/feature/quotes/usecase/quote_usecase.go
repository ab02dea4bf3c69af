package usecase

import (
	"context"
	"log/slog"
	"time"

	"bb_monitor/internal/feature/quotes/domain/entity"
	"bb_monitor/internal/shared/marketcal"
)

const (
	// lookbackDays は初回取得時のルックバック日数（約2年）です。
	lookbackDays = 730
)

// PriceStatus は価格確保処理の結果種別です。
type PriceStatus int

const (
	// PriceNoData はアップストリームから何も取得できず、ストアにも変更が無い状態です。
	PriceNoData PriceStatus = iota
	// PriceHit はキャッシュが新鮮でフェッチ不要だった状態です。
	PriceHit
	// PriceRefreshed はMISS後のフェッチとupsertが成功した状態です。
	PriceRefreshed
)

// QuoteUsecase はキャッシュ鮮度判定とアップストリーム取得・突合（鮮度エンジン）を実装します。
type QuoteUsecase struct {
	price  PriceRepository
	meta   MetaRepository
	fund   FundamentalsRepository
	market MarketDataRepository
	clock  func() time.Time
}

// NewQuoteUsecase はQuoteUsecaseの新しいインスタンスを生成します。
func NewQuoteUsecase(price PriceRepository, meta MetaRepository, fund FundamentalsRepository, market MarketDataRepository) *QuoteUsecase {
	return &QuoteUsecase{
		price:  price,
		meta:   meta,
		fund:   fund,
		market: market,
		clock:  time.Now,
	}
}

// freshnessCutoff は鮮度判定の基準日付を返します。
// 日足は直近取引日、週足は直近月曜日（週足行は期間開始日で保存されるため）。
func freshnessCutoff(m marketcal.Market, interval entity.Interval, now time.Time) string {
	if interval == entity.Weekly {
		return marketcal.WeeklyCutoff(m, now)
	}
	return marketcal.LastTradingDate(m, now)
}

// isFresh はストア内の行がカットオフを満たしているかを返します。
// 日足: カットオフと同日付の行が存在 / 週足: カットオフ以降の行が存在。
func (uc *QuoteUsecase) isFresh(ctx context.Context, ticker string, m marketcal.Market, interval entity.Interval, cutoff string) (bool, error) {
	if interval == entity.Weekly {
		return uc.price.HasOnOrAfter(ctx, ticker, interval, cutoff)
	}
	return uc.price.HasDate(ctx, ticker, interval, cutoff)
}

// EnsurePrices は指定銘柄・足種の価格キャッシュを新鮮な状態にします。
//
//  1. カットオフ計算 → 鮮度テスト。HITならフェッチせず終了。
//  2. MISSなら取得範囲を決定: 既存の最大日付から（直近の暫定足を確定値で上書きするため）、
//     行が無ければ730日前から。end は市場ローカルの今日。
//  3. 取得行を主キーupsertで突合。0件なら「データ無し」としてストアに触れない
//     （空のキャッシュ状態としては扱わない）。
//
// アップストリーム障害でerrorは返しません。errorはストア障害のみです。
func (uc *QuoteUsecase) EnsurePrices(ctx context.Context, ticker string, m marketcal.Market, interval entity.Interval) (PriceStatus, error) {
	now := uc.clock()
	cutoff := freshnessCutoff(m, interval, now)

	fresh, err := uc.isFresh(ctx, ticker, m, interval, cutoff)
	if err != nil {
		return PriceNoData, err
	}
	if fresh {
		slog.Debug("price cache hit", "ticker", ticker, "interval", interval, "cutoff", cutoff)
		return PriceHit, nil
	}

	start, err := uc.price.MaxDate(ctx, ticker, interval)
	if err != nil {
		return PriceNoData, err
	}
	if start == "" {
		// 最初の取り込みは2年分
		start = now.AddDate(0, 0, -lookbackDays).Format(marketcal.DateLayout)
	}
	end := marketcal.TodayString(m, now)

	rows := uc.market.FetchHistory(ctx, ticker, start, end, interval)
	if len(rows) == 0 {
		slog.Warn("upstream returned no rows", "ticker", ticker, "interval", interval, "start", start, "end", end)
		return PriceNoData, nil
	}

	for i := range rows {
		rows[i].Ticker = ticker
		rows[i].Interval = interval
	}
	if err := uc.price.UpsertBatch(ctx, rows); err != nil {
		return PriceNoData, err
	}
	slog.Info("price cache refreshed", "ticker", ticker, "interval", interval, "rows", len(rows))
	return PriceRefreshed, nil
}

// needFundamentals はファンダメンタルの再取得が必要かを判定します。
//
//   - 行が無い → 必要
//   - fetched_at がNULL（センチネル）→ 常に再試行
//   - fetched_at の日付が直近取引日より前 → 必要
//   - US銘柄で sector がNULL → スキーマ欠損の強制バックフィル
func needFundamentals(fund *entity.Fundamentals, m marketcal.Market, now time.Time) bool {
	if fund == nil || fund.FetchedAt == nil {
		return true
	}
	lastTrading := marketcal.LastTradingDate(m, now)
	fetchedDate := fund.FetchedAt.Format(marketcal.DateLayout)
	if fetchedDate < lastTrading {
		return true
	}
	if fund.Sector == nil && m == marketcal.US {
		return true
	}
	return false
}

// defaultCurrency は市場ごとのデフォルト通貨です。
func defaultCurrency(m marketcal.Market) string {
	if m == marketcal.US {
		return "USD"
	}
	return "KRW"
}

// EnsureMetaAndFundamentals はメタ/ファンダメンタルを必要に応じて取得・保存します。
//
// フェッチ失敗時もセンチネル（名前=ティッカー、通貨=市場デフォルト）を fetched_at=now で
// 保存し、同一取引日内の再試行を抑制します。既存行がある場合は値を残したまま
// fetched_at のみ更新します。fetched_at がNULLの既存行は次回リクエストで再試行されます。
func (uc *QuoteUsecase) EnsureMetaAndFundamentals(ctx context.Context, ticker string, m marketcal.Market) error {
	now := uc.clock()

	meta, err := uc.meta.Get(ctx, ticker)
	if err != nil {
		return err
	}
	fund, err := uc.fund.Get(ctx, ticker)
	if err != nil {
		return err
	}

	if meta != nil && !needFundamentals(fund, m, now) {
		return nil
	}

	mf := uc.market.FetchMeta(ctx, ticker)
	if mf == nil {
		// 失敗キャッシュ: 当日の再試行を抑制するセンチネルを書く
		slog.Warn("meta fetch failed, caching sentinel", "ticker", ticker)
		if meta == nil {
			if err := uc.meta.Upsert(ctx, entity.TickerMeta{
				Ticker:    ticker,
				Name:      ticker,
				Currency:  defaultCurrency(m),
				Market:    m,
				UpdatedAt: now,
			}); err != nil {
				return err
			}
		}
		sentinel := entity.Fundamentals{Ticker: ticker, FetchedAt: &now}
		if fund != nil {
			// 既存の指標値は壊さず、タイムスタンプだけ進める
			sentinel = *fund
			sentinel.FetchedAt = &now
		}
		return uc.fund.Upsert(ctx, sentinel)
	}

	name := mf.Name
	if name == "" {
		name = ticker
	}
	currency := mf.Currency
	if currency == "" {
		currency = defaultCurrency(m)
	}
	if err := uc.meta.Upsert(ctx, entity.TickerMeta{
		Ticker:    ticker,
		Name:      name,
		Currency:  currency,
		Market:    m,
		UpdatedAt: now,
	}); err != nil {
		return err
	}
	return uc.fund.Upsert(ctx, entity.Fundamentals{
		Ticker:        ticker,
		TrailingPE:    mf.TrailingPE,
		ForwardPE:     mf.ForwardPE,
		PBR:           mf.PBR,
		EVToEBITDA:    mf.EVToEBITDA,
		DividendYield: mf.DividendYield,
		EPS:           mf.EPS,
		Beta:          mf.Beta,
		Sector:        mf.Sector,
		FetchedAt:     &now,
	})
}
