package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"

	"bb_monitor/internal/feature/quotes/domain/entity"
	"bb_monitor/internal/shared/marketcal"
	"bb_monitor/internal/shared/tickers"
)

const (
	// DefaultCandleCount はレスポンスに含めるデフォルトのローソク足本数です。
	DefaultCandleCount = 52
	// warmupCandles はインジケーター計算のウォームアップ用に余分に読む本数です。
	warmupCandles = 60
)

// ErrNoData は対象銘柄の行がストアに1件も無いことを表します（404相当）。
var ErrNoData = errors.New("no stored data")

// CandleJSON はレスポンスに載せる1本のローソク足です。
// OHLVが欠けた旧形式の行は close（volumeは0）で補完されます。
type CandleJSON struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// Quote はフロントエンドが期待する銘柄サマリーです。ストアの読み取りだけで構築され、
// アップストリーム呼び出しは行いません。
type Quote struct {
	Code           string       `json:"code"`
	Market         string       `json:"market"`
	Ticker         string       `json:"ticker"`
	Name           string       `json:"name"`
	Currency       string       `json:"currency"`
	IsUS           bool         `json:"isUS"`
	Interval       string       `json:"interval"`
	CandleCount    int          `json:"candleCount"`
	CurrentPrice   float64      `json:"currentPrice"`
	PrevClose      float64      `json:"prevClose"`
	TodayChange    float64      `json:"todayChange"`
	TodayChangePct float64      `json:"todayChangePct"`
	Change         float64      `json:"change"`
	ChangePct      float64      `json:"changePct"`
	Candles        []CandleJSON `json:"candles"`
	AllCandles     []CandleJSON `json:"allCandles"`
	Closes         []float64    `json:"closes"`

	TrailingPE    *float64 `json:"trailingPE"`
	ForwardPE     *float64 `json:"forwardPE"`
	PBR           *float64 `json:"pbr"`
	EVToEBITDA    *float64 `json:"evToEbitda"`
	DividendYield *float64 `json:"dividendYield"`
	EPS           *float64 `json:"eps"`
	Beta          *float64 `json:"beta"`
	Sector        *string  `json:"sector"`
}

// roundTo は小数第places位で四捨五入します。
func roundTo(v float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}

// pctChange は change ÷ base × 100 を小数第2位で丸めます。base=0 のときは0です。
func pctChange(change, base float64) float64 {
	if base == 0 {
		return 0
	}
	return roundTo(change/base*100, 2)
}

func toCandleJSON(rows []entity.PriceRow) []CandleJSON {
	out := make([]CandleJSON, 0, len(rows))
	for _, p := range rows {
		out = append(out, CandleJSON{
			Date:   p.Date,
			Open:   p.OpenOrClose(),
			High:   p.HighOrClose(),
			Low:    p.LowOrClose(),
			Close:  p.Close,
			Volume: p.VolumeOrZero(),
		})
	}
	return out
}

// BuildQuote はストアの行からQuoteを構築します。
//
//   - 現在価格 = 最新close / 前日終値 = 2番目に新しいclose（1件しか無ければ現在価格）
//   - 当日騰落 = 現在 − 前日終値（US: 小数4桁 / KR: 整数に丸め）
//   - 期間騰落 = 現在 − 表示期間内で最古のclose
//
// 行が1件も無い場合は ErrNoData を返します。
func (uc *QuoteUsecase) BuildQuote(ctx context.Context, ticker string, m marketcal.Market, interval entity.Interval, candleCount int) (*Quote, error) {
	if candleCount <= 0 {
		candleCount = DefaultCandleCount
	}

	prices, err := uc.price.LastN(ctx, ticker, interval, candleCount+warmupCandles)
	if err != nil {
		return nil, err
	}
	if len(prices) == 0 {
		return nil, fmt.Errorf("%s: %w", ticker, ErrNoData)
	}

	meta, err := uc.meta.Get(ctx, ticker)
	if err != nil {
		return nil, err
	}
	fund, err := uc.fund.Get(ctx, ticker)
	if err != nil {
		return nil, err
	}

	isUS := m == marketcal.US
	chgPlaces := 0
	if isUS {
		chgPlaces = 4
	}

	closes := make([]float64, len(prices))
	for i, p := range prices {
		closes[i] = p.Close
	}
	cur := closes[len(closes)-1]

	prevClose := cur
	if len(closes) >= 2 {
		prevClose = closes[len(closes)-2]
	}
	todayChg := roundTo(cur-prevClose, chgPlaces)

	periodRows := prices
	if len(prices) > candleCount {
		periodRows = prices[len(prices)-candleCount:]
	}
	periodBase := periodRows[0].Close
	periodChg := roundTo(cur-periodBase, chgPlaces)

	q := &Quote{
		Code:           tickers.CleanCode(ticker, m),
		Market:         string(m),
		Ticker:         ticker,
		Name:           ticker,
		Currency:       defaultCurrency(m),
		IsUS:           isUS,
		Interval:       string(interval),
		CandleCount:    candleCount,
		CurrentPrice:   cur,
		PrevClose:      prevClose,
		TodayChange:    todayChg,
		TodayChangePct: pctChange(todayChg, prevClose),
		Change:         periodChg,
		ChangePct:      pctChange(periodChg, periodBase),
		Candles:        toCandleJSON(periodRows),
		AllCandles:     toCandleJSON(prices),
		Closes:         closes,
	}

	if meta != nil {
		if meta.Name != "" {
			q.Name = meta.Name
		}
		if meta.Currency != "" {
			q.Currency = meta.Currency
		}
	}
	if fund != nil {
		q.TrailingPE = fund.TrailingPE
		q.ForwardPE = fund.ForwardPE
		q.PBR = fund.PBR
		q.EVToEBITDA = fund.EVToEBITDA
		q.DividendYield = fund.DividendYield
		q.EPS = fund.EPS
		q.Beta = fund.Beta
		q.Sector = fund.Sector
	}
	return q, nil
}
