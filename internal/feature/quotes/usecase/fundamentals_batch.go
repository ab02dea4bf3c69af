package usecase

import (
	"context"
	"log/slog"
	"strings"

	"bb_monitor/internal/shared/tickers"
)

// FundamentalsJSON はファンダメンタル一括取得の1銘柄分のレスポンスです。
// センチネル行（全項目NULL）も取得成功として扱い、行自体が無い場合のみ
// FetchFailed をtrueにします。
type FundamentalsJSON struct {
	TrailingPE    *float64 `json:"trailingPE"`
	ForwardPE     *float64 `json:"forwardPE"`
	PBR           *float64 `json:"pbr"`
	EVToEBITDA    *float64 `json:"evToEbitda"`
	DividendYield *float64 `json:"dividendYield"`
	EPS           *float64 `json:"eps"`
	Beta          *float64 `json:"beta"`
	Sector        *string  `json:"sector"`
	FetchFailed   bool     `json:"_fetchFailed"`
}

// FundamentalsBatch は複数ティッカーのファンダメンタルをまとめて返します。
// 各ティッカーは必要に応じて最新化され、キーは入力ティッカーの大文字表記です。
// 個別の失敗はログに留め、残りの銘柄の処理を続行します。
func (uc *QuoteUsecase) FundamentalsBatch(ctx context.Context, rawTickers []string) map[string]FundamentalsJSON {
	results := make(map[string]FundamentalsJSON, len(rawTickers))

	for _, raw := range rawTickers {
		key := strings.ToUpper(raw)
		m := tickers.ResolveMarket(raw)
		code := tickers.CleanCode(key, m)
		ticker := tickers.Resolve(code, m)

		if err := uc.EnsureMetaAndFundamentals(ctx, ticker, m); err != nil {
			slog.Warn("fundamentals refresh failed", "ticker", ticker, "error", err)
		}

		fund, err := uc.fund.Get(ctx, ticker)
		if err != nil {
			slog.Warn("fundamentals read failed", "ticker", ticker, "error", err)
			fund = nil
		}
		if fund == nil {
			results[key] = FundamentalsJSON{FetchFailed: true}
			continue
		}
		results[key] = FundamentalsJSON{
			TrailingPE:    fund.TrailingPE,
			ForwardPE:     fund.ForwardPE,
			PBR:           fund.PBR,
			EVToEBITDA:    fund.EVToEBITDA,
			DividendYield: fund.DividendYield,
			EPS:           fund.EPS,
			Beta:          fund.Beta,
			Sector:        fund.Sector,
		}
	}
	return results
}
