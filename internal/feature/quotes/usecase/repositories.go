// Package usecase は株価キャッシュの鮮度判定・取得・整形のビジネスロジックを実装します。
package usecase

import (
	"context"

	"bb_monitor/internal/feature/quotes/domain/entity"
)

// PriceRepository はOHLCV行の永続化レイヤーを抽象化します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type PriceRepository interface {
	// UpsertBatch は (ticker, date, interval) を主キーに後勝ちでupsertします。
	UpsertBatch(ctx context.Context, rows []entity.PriceRow) error
	// LastN は最新limit件を日付昇順で返します。
	LastN(ctx context.Context, ticker string, interval entity.Interval, limit int) ([]entity.PriceRow, error)
	// HasDate は指定日付の行の有無を返します。
	HasDate(ctx context.Context, ticker string, interval entity.Interval, date string) (bool, error)
	// HasOnOrAfter は指定日付以降の行の有無を返します。
	HasOnOrAfter(ctx context.Context, ticker string, interval entity.Interval, date string) (bool, error)
	// MaxDate は保存済みの最大日付を返します。行が無ければ空文字列です。
	MaxDate(ctx context.Context, ticker string, interval entity.Interval) (string, error)
}

// MetaRepository は銘柄メタ情報の永続化レイヤーを抽象化します。
type MetaRepository interface {
	Upsert(ctx context.Context, meta entity.TickerMeta) error
	// Get は存在しない場合 (nil, nil) を返します。
	Get(ctx context.Context, ticker string) (*entity.TickerMeta, error)
	// ListTickers は登録済みの全ティッカーを返します。
	ListTickers(ctx context.Context) ([]string, error)
}

// FundamentalsRepository はファンダメンタル指標の永続化レイヤーを抽象化します。
type FundamentalsRepository interface {
	Upsert(ctx context.Context, f entity.Fundamentals) error
	// Get は存在しない場合 (nil, nil) を返します。
	Get(ctx context.Context, ticker string) (*entity.Fundamentals, error)
}

// MetaFields はアップストリームから取得した銘柄メタ + ファンダメンタルです。
type MetaFields struct {
	Name          string
	Currency      string
	Sector        *string
	TrailingPE    *float64
	ForwardPE     *float64
	PBR           *float64
	EVToEBITDA    *float64
	DividendYield *float64
	EPS           *float64
	Beta          *float64
}

// MarketDataRepository は外部マーケットデータプロバイダーを抽象化します。
// 実装はエラーを呼び出し元へ伝播させず、失敗時は空の結果を返す契約です
// （ネットワーク障害・レート制限・不正なペイロードはアダプター境界で吸収）。
type MarketDataRepository interface {
	// FetchHistory は [start, end] 両端を含む期間のOHLCV行を返します。
	// プロバイダーの end-exclusive 仕様の補正は実装側で行います。
	FetchHistory(ctx context.Context, ticker, start, end string, interval entity.Interval) []entity.PriceRow
	// FetchMeta はメタ + ファンダメンタルを返します。失敗時は nil です。
	FetchMeta(ctx context.Context, ticker string) *MetaFields
}
