package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"bb_monitor/internal/feature/quotes/adapters/yahoo/dto"
	"bb_monitor/internal/feature/quotes/domain/entity"
	"bb_monitor/internal/feature/quotes/usecase"
	"bb_monitor/internal/shared/marketcal"
)

// YahooMarket はYahoo Finance公開APIから株価・銘柄情報を取得するMarketDataRepository実装です。
// 契約上、障害は呼び出し元へ伝播させず空の結果に縮退させます（ログのみ）。
type YahooMarket struct {
	cfg    Config
	client *http.Client
}

// YahooMarketがMarketDataRepositoryを実装していることをコンパイル時に検証します。
var _ usecase.MarketDataRepository = (*YahooMarket)(nil)

// NewYahooMarket は指定された設定とHTTPクライアントでYahooMarketの新しいインスタンスを生成します。
func NewYahooMarket(cfg Config, client *http.Client) *YahooMarket {
	return &YahooMarket{cfg: cfg, client: client}
}

// getJSON はUser-Agent付きでGETし、JSONをoutへデコードします。
func (y *YahooMarket) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", y.cfg.UserAgent)

	res, err := y.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	if res.StatusCode >= 400 {
		return fmt.Errorf("yahoo http %d", res.StatusCode)
	}
	return json.NewDecoder(res.Body).Decode(out)
}

// round4 は小数第4位で丸めます。
func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func round4p(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := round4(*v)
	return &r
}

// FetchHistory は [start, end] 両端を含む期間のOHLCV行を日付昇順で返します。
// chart APIの period2 は排他的なため、内部で1日進めて補正します。
// 失敗時・0件時はnilを返します。
func (y *YahooMarket) FetchHistory(ctx context.Context, ticker, start, end string, interval entity.Interval) []entity.PriceRow {
	startT, err := time.Parse(marketcal.DateLayout, start)
	if err != nil {
		slog.Warn("yahoo: bad start date", "ticker", ticker, "start", start)
		return nil
	}
	endT, err := time.Parse(marketcal.DateLayout, end)
	if err != nil {
		slog.Warn("yahoo: bad end date", "ticker", ticker, "end", end)
		return nil
	}

	q := url.Values{}
	q.Set("period1", strconv.FormatInt(startT.Unix(), 10))
	// endは排他的なので1日追加
	q.Set("period2", strconv.FormatInt(endT.AddDate(0, 0, 1).Unix(), 10))
	q.Set("interval", string(interval))
	q.Set("events", "history")
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", y.cfg.BaseURL, url.PathEscape(ticker), q.Encode())

	var body dto.ChartResponse
	if err := y.getJSON(ctx, u, &body); err != nil {
		slog.Warn("yahoo: chart fetch failed", "ticker", ticker, "error", err)
		return nil
	}
	if body.Chart.Error != nil {
		slog.Warn("yahoo: chart api error", "ticker", ticker, "code", body.Chart.Error.Code, "description", body.Chart.Error.Description)
		return nil
	}
	if len(body.Chart.Result) == 0 || len(body.Chart.Result[0].Indicators.Quote) == 0 {
		return nil
	}

	result := body.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	rows := make([]entity.PriceRow, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) || quote.Close[i] == nil {
			continue // 休場日などのnullバーをスキップ
		}
		var open, high, low, volume *float64
		if i < len(quote.Open) {
			open = round4p(quote.Open[i])
		}
		if i < len(quote.High) {
			high = round4p(quote.High[i])
		}
		if i < len(quote.Low) {
			low = round4p(quote.Low[i])
		}
		if i < len(quote.Volume) {
			volume = quote.Volume[i]
		}
		rows = append(rows, entity.PriceRow{
			Ticker:   ticker,
			Date:     time.Unix(ts, 0).UTC().Format(marketcal.DateLayout),
			Interval: interval,
			Open:     open,
			High:     high,
			Low:      low,
			Close:    round4(*quote.Close[i]),
			Volume:   volume,
		})
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].Date < rows[j].Date })
	return rows
}

// FetchMeta は銘柄メタ + ファンダメンタルを取得します。失敗時はnilです。
func (y *YahooMarket) FetchMeta(ctx context.Context, ticker string) *usecase.MetaFields {
	q := url.Values{}
	q.Set("modules", "price,summaryDetail,defaultKeyStatistics,assetProfile")
	u := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?%s", y.cfg.BaseURL, url.PathEscape(ticker), q.Encode())

	var body dto.QuoteSummaryResponse
	if err := y.getJSON(ctx, u, &body); err != nil {
		slog.Warn("yahoo: quoteSummary fetch failed", "ticker", ticker, "error", err)
		return nil
	}
	if body.QuoteSummary.Error != nil || len(body.QuoteSummary.Result) == 0 {
		return nil
	}

	r := body.QuoteSummary.Result[0]
	mf := &usecase.MetaFields{Name: ticker}

	if r.Price != nil {
		if r.Price.LongName != "" {
			mf.Name = r.Price.LongName
		} else if r.Price.ShortName != "" {
			mf.Name = r.Price.ShortName
		}
		mf.Currency = r.Price.Currency
	}
	if r.SummaryDetail != nil {
		mf.TrailingPE = rawOf(r.SummaryDetail.TrailingPE)
		mf.ForwardPE = rawOf(r.SummaryDetail.ForwardPE)
		mf.DividendYield = rawOf(r.SummaryDetail.DividendYield)
		mf.Beta = rawOf(r.SummaryDetail.Beta)
	}
	if r.DefaultKeyStatistics != nil {
		mf.PBR = rawOf(r.DefaultKeyStatistics.PriceToBook)
		mf.EVToEBITDA = rawOf(r.DefaultKeyStatistics.EnterpriseToEbitda)
		mf.EPS = rawOf(r.DefaultKeyStatistics.TrailingEps)
	}
	if r.AssetProfile != nil && r.AssetProfile.Sector != "" {
		sector := r.AssetProfile.Sector
		mf.Sector = &sector
	}
	return mf
}

func rawOf(v *dto.FmtValue) *float64 {
	if v == nil {
		return nil
	}
	return v.Raw
}
