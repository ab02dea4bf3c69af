package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"bb_monitor/internal/feature/quotes/domain/entity"
	"bb_monitor/internal/shared/marketcal"
	"bb_monitor/internal/shared/ratelimiter"
	"bb_monitor/internal/shared/tickers"
)

const (
	// readPoolSize は読み取り専用バッチのワーカープール数です。
	readPoolSize = 8
)

// StockRef はバッチ要求に含まれる1銘柄の参照です。marketが空なら推定します。
type StockRef struct {
	Code   string `json:"code"`
	Market string `json:"market"`
}

// resolve はコードと市場をプロバイダーティッカーへ正規化します。
func (s StockRef) resolve() (string, marketcal.Market) {
	m := marketcal.Market(s.Market)
	if m != marketcal.US && m != marketcal.KR {
		m = tickers.ResolveMarket(s.Code)
	}
	return tickers.Resolve(s.Code, m), m
}

// StockResult はバッチ処理の1銘柄分の結果です。失敗しても他の銘柄は続行されます。
type StockResult struct {
	OK    bool   `json:"ok"`
	Code  string `json:"code"`
	Data  *Quote `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

// RefreshStatus は全体更新の進行状態のスナップショットです。
type RefreshStatus struct {
	Running      bool       `json:"running"`
	Total        int        `json:"total"`
	Done         int        `json:"done"`
	Errors       []string   `json:"errors"`
	LastFinished *time.Time `json:"last_finished"`
}

// RefreshUsecase は鮮度エンジンを複数銘柄に対して駆動するオーケストレーターです。
// 進行状態レコードは本構造体が所有し、mutexで全アクセスを保護します（グローバル変数は持たない）。
type RefreshUsecase struct {
	quotes  *QuoteUsecase
	meta    MetaRepository
	limiter ratelimiter.RateLimiterInterface
	clock   func() time.Time

	mu     sync.Mutex
	status RefreshStatus
}

// NewRefreshUsecase は新しいRefreshUsecaseを生成します。
func NewRefreshUsecase(quotes *QuoteUsecase, meta MetaRepository, limiter ratelimiter.RateLimiterInterface) *RefreshUsecase {
	return &RefreshUsecase{
		quotes:  quotes,
		meta:    meta,
		limiter: limiter,
		clock:   time.Now,
	}
}

// Status は進行状態のコピーを返します。
func (r *RefreshUsecase) Status() RefreshStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := r.status
	st.Errors = append([]string(nil), r.status.Errors...)
	return st
}

// tryBegin は実行中でなければ進行状態を初期化してtrueを返します。
// 実行中のトリガーはキューにも積まずエラーにもせず、falseで拒否します。
func (r *RefreshUsecase) tryBegin(total int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status.Running {
		return false
	}
	r.status.Running = true
	r.status.Total = total
	r.status.Done = 0
	r.status.Errors = nil
	return true
}

func (r *RefreshUsecase) finish() {
	now := r.clock()
	r.mu.Lock()
	r.status.Running = false
	r.status.LastFinished = &now
	r.mu.Unlock()
}

// refreshOne は1銘柄の価格 + メタ/ファンダメンタルを最新化します。
// アップストリームに触れる経路なので、呼び出し前に必ずリミッターで待機します。
func (r *RefreshUsecase) refreshOne(ctx context.Context, ref StockRef, interval entity.Interval) error {
	ticker, m := ref.resolve()

	r.limiter.WaitIfNeeded()

	status, err := r.quotes.EnsurePrices(ctx, ticker, m, interval)
	if err != nil {
		return fmt.Errorf("%s: %w", ticker, err)
	}
	if status == PriceNoData {
		return fmt.Errorf("%s: %w", ticker, ErrNoData)
	}
	if err := r.quotes.EnsureMetaAndFundamentals(ctx, ticker, m); err != nil {
		return fmt.Errorf("%s: %w", ticker, err)
	}
	return nil
}

// GetBatch は読み取り専用バッチです。アップストリーム呼び出しを行わず、
// ストアの行のみからQuoteを構築します。銘柄間に依存が無いため
// 固定サイズのワーカープールで並列実行します（結果の順序は入力順を保持）。
func (r *RefreshUsecase) GetBatch(ctx context.Context, stocks []StockRef, interval entity.Interval, candleCount int) []StockResult {
	results := make([]StockResult, len(stocks))

	var wg sync.WaitGroup
	sem := make(chan struct{}, readPoolSize)
	for i, s := range stocks {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, s StockRef) {
			defer wg.Done()
			defer func() { <-sem }()

			ticker, m := s.resolve()
			q, err := r.quotes.BuildQuote(ctx, ticker, m, interval, candleCount)
			if err != nil {
				results[i] = StockResult{OK: false, Code: s.Code, Error: err.Error()}
				return
			}
			results[i] = StockResult{OK: true, Code: s.Code, Data: q}
		}(i, s)
	}
	wg.Wait()
	return results
}

// RefreshBatch は対話的なタブ更新です。1銘柄ずつ順次処理し（銘柄間に固定待機）、
// 各銘柄の結果を揃えて返します。1銘柄の失敗はバッチを中断しません。
func (r *RefreshUsecase) RefreshBatch(ctx context.Context, stocks []StockRef, interval entity.Interval, candleCount int) []StockResult {
	results := make([]StockResult, 0, len(stocks))
	for _, s := range stocks {
		if err := r.refreshOne(ctx, s, interval); err != nil {
			results = append(results, StockResult{OK: false, Code: s.Code, Error: err.Error()})
			continue
		}
		ticker, m := s.resolve()
		q, err := r.quotes.BuildQuote(ctx, ticker, m, interval, candleCount)
		if err != nil {
			results = append(results, StockResult{OK: false, Code: s.Code, Error: err.Error()})
			continue
		}
		results = append(results, StockResult{OK: true, Code: s.Code, Data: q})
	}
	return results
}

// StartFullRefresh は全体更新をトリガー元のリクエストから切り離して開始します。
// 既に実行中の場合は何もせずfalseを返します（"既に実行中"はエラーではなく情報）。
func (r *RefreshUsecase) StartFullRefresh(stocks []StockRef, interval entity.Interval) bool {
	if !r.tryBegin(len(stocks)) {
		return false
	}
	go func() {
		defer r.finish()
		r.runSequential(context.Background(), stocks, interval)
		slog.Info("full refresh finished", "total", len(stocks), "interval", interval)
	}()
	return true
}

// runSequential は進行状態を更新しながら銘柄を順次処理します。
func (r *RefreshUsecase) runSequential(ctx context.Context, stocks []StockRef, interval entity.Interval) {
	for _, s := range stocks {
		if err := r.refreshOne(ctx, s, interval); err != nil {
			slog.Error("refresh failed", "code", s.Code, "interval", interval, "error", err)
			r.mu.Lock()
			r.status.Errors = append(r.status.Errors, err.Error())
			r.mu.Unlock()
		}
		r.mu.Lock()
		r.status.Done++
		r.mu.Unlock()
	}
}

// RunScheduled はスケジューラーから呼ばれる全体更新です。登録済みの全ティッカーを
// 重複排除した集合に対し、日足 → 週足の順で同期的に実行します。
// 手動の全体更新が実行中ならスキップします。
func (r *RefreshUsecase) RunScheduled(ctx context.Context) {
	names, err := r.meta.ListTickers(ctx)
	if err != nil {
		slog.Error("scheduled refresh: list tickers", "error", err)
		return
	}
	stocks := make([]StockRef, 0, len(names))
	for _, t := range names {
		stocks = append(stocks, StockRef{Code: t})
	}

	if !r.tryBegin(len(stocks) * 2) {
		slog.Warn("scheduled refresh skipped: already running")
		return
	}
	defer r.finish()

	for _, interval := range []entity.Interval{entity.Daily, entity.Weekly} {
		r.runSequential(ctx, stocks, interval)
	}
	slog.Info("scheduled refresh finished", "tickers", len(stocks))
}
