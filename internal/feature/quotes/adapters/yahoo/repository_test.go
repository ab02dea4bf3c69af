package yahoo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bb_monitor/internal/feature/quotes/domain/entity"
	"bb_monitor/internal/shared/marketcal"
)

func testMarket(srvURL string) *YahooMarket {
	cfg := Config{BaseURL: srvURL, UserAgent: "test", Timeout: 5 * time.Second}
	return NewYahooMarket(cfg, &http.Client{Timeout: cfg.Timeout})
}

func TestFetchHistory_ParsesRowsAndSkipsNullBars(t *testing.T) {
	t.Parallel()

	ts1 := time.Date(2024, 6, 10, 13, 30, 0, 0, time.UTC).Unix()
	ts2 := time.Date(2024, 6, 11, 13, 30, 0, 0, time.UTC).Unix()
	ts3 := time.Date(2024, 6, 12, 13, 30, 0, 0, time.UTC).Unix()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test", r.Header.Get("User-Agent"))
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"chart":{"result":[{
			"timestamp":[` + strconv.FormatInt(ts1, 10) + `,` + strconv.FormatInt(ts2, 10) + `,` + strconv.FormatInt(ts3, 10) + `],
			"indicators":{"quote":[{
				"open":[100.1,null,102.123456],
				"high":[101.0,null,103.0],
				"low":[99.0,null,101.0],
				"close":[100.5,null,102.987654],
				"volume":[1000,null,2000]
			}]}
		}],"error":null}}`))
	}))
	defer srv.Close()

	rows := testMarket(srv.URL).FetchHistory(context.Background(), "AAPL", "2024-06-10", "2024-06-12", entity.Daily)

	require.Len(t, rows, 2, "null close bar must be skipped")
	assert.Equal(t, "2024-06-10", rows[0].Date)
	assert.Equal(t, "2024-06-12", rows[1].Date)
	assert.Equal(t, "AAPL", rows[0].Ticker)
	assert.Equal(t, entity.Daily, rows[0].Interval)
	// 小数第4位で丸め
	assert.Equal(t, 102.9877, rows[1].Close)
	require.NotNil(t, rows[1].Open)
	assert.Equal(t, 102.1235, *rows[1].Open)
}

func TestFetchHistory_EndIsInclusive(t *testing.T) {
	t.Parallel()

	var gotPeriod2 string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPeriod2 = r.URL.Query().Get("period2")
		_, _ = w.Write([]byte(`{"chart":{"result":[],"error":null}}`))
	}))
	defer srv.Close()

	testMarket(srv.URL).FetchHistory(context.Background(), "AAPL", "2024-06-10", "2024-06-11", entity.Daily)

	// endは排他的なので呼び出し側指定の翌日を渡す
	end, err := time.Parse(marketcal.DateLayout, "2024-06-11")
	require.NoError(t, err)
	want := strconv.FormatInt(end.AddDate(0, 0, 1).Unix(), 10)
	assert.Equal(t, want, gotPeriod2)
}

func TestFetchHistory_FailuresYieldEmpty(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "http 500",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "api error payload",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`))
			},
		},
		{
			name: "malformed json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{not json`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			rows := testMarket(srv.URL).FetchHistory(context.Background(), "NOPE", "2024-06-10", "2024-06-11", entity.Daily)
			assert.Empty(t, rows, "adapter failures must degrade to an empty result")
		})
	}
}

func TestFetchMeta_ParsesModules(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Query().Get("modules"), "summaryDetail")
		_, _ = w.Write([]byte(`{"quoteSummary":{"result":[{
			"price":{"longName":"Apple Inc.","shortName":"Apple","currency":"USD"},
			"summaryDetail":{"trailingPE":{"raw":29.1},"forwardPE":{"raw":26.4},"dividendYield":{"raw":0.0055},"beta":{"raw":1.25}},
			"defaultKeyStatistics":{"priceToBook":{"raw":35.2},"enterpriseToEbitda":{"raw":22.8},"trailingEps":{"raw":6.59}},
			"assetProfile":{"sector":"Technology"}
		}],"error":null}}`))
	}))
	defer srv.Close()

	mf := testMarket(srv.URL).FetchMeta(context.Background(), "AAPL")

	require.NotNil(t, mf)
	assert.Equal(t, "Apple Inc.", mf.Name)
	assert.Equal(t, "USD", mf.Currency)
	require.NotNil(t, mf.TrailingPE)
	assert.Equal(t, 29.1, *mf.TrailingPE)
	require.NotNil(t, mf.Sector)
	assert.Equal(t, "Technology", *mf.Sector)
	require.NotNil(t, mf.EPS)
	assert.Equal(t, 6.59, *mf.EPS)
}

func TestFetchMeta_PartialModules(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"quoteSummary":{"result":[{
			"price":{"shortName":"Samsung","currency":"KRW"}
		}],"error":null}}`))
	}))
	defer srv.Close()

	mf := testMarket(srv.URL).FetchMeta(context.Background(), "005930.KS")

	require.NotNil(t, mf)
	assert.Equal(t, "Samsung", mf.Name)
	assert.Equal(t, "KRW", mf.Currency)
	assert.Nil(t, mf.TrailingPE)
	assert.Nil(t, mf.Sector)
}

func TestFetchMeta_FailureIsNil(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	assert.Nil(t, testMarket(srv.URL).FetchMeta(context.Background(), "AAPL"))
}
