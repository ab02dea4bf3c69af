package adapters

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(url string) Config {
	return Config{
		CSVURL:    url,
		UserAgent: "test-agent",
		Timeout:   5 * time.Second,
	}
}

// TestFetch_ParsesCSV はCSVのパースとUser-Agentヘッダーの送信を検証します。
func TestFetch_ParsesCSV(t *testing.T) {
	t.Parallel()

	csvBody := "Symbol,Security,GICS Sector,GICS Sub-Industry\n" +
		"AAPL,Apple Inc.,Information Technology,Hardware\n" +
		"MMM,3M,Industrials,Conglomerates\n" +
		" ,Blank Row,Industrials,None\n"

	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(csvBody))
	}))
	defer srv.Close()

	repo := NewConstituentsRepository(testConfig(srv.URL), srv.Client())
	stocks, err := repo.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "test-agent", gotUA)
	// 空のSymbol行は読み飛ばされる
	require.Len(t, stocks, 2)
	assert.Equal(t, "AAPL", stocks[0].Code)
	assert.Equal(t, "Apple Inc.", stocks[0].Name)
	assert.Equal(t, "US", stocks[0].Market)
	assert.Equal(t, "Information Technology", stocks[0].Sector)
	assert.Equal(t, "MMM", stocks[1].Code)
}

// TestFetch_MissingOptionalColumns はSecurity/GICS Sector列が無くてもパースできることを検証します。
func TestFetch_MissingOptionalColumns(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("Symbol\nAAPL\n"))
	}))
	defer srv.Close()

	repo := NewConstituentsRepository(testConfig(srv.URL), srv.Client())
	stocks, err := repo.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, stocks, 1)
	assert.Equal(t, "AAPL", stocks[0].Code)
	assert.Empty(t, stocks[0].Name)
	assert.Empty(t, stocks[0].Sector)
}

// TestFetch_Errors は上流エラーと不正なCSVでエラーが返ることを検証します。
func TestFetch_Errors(t *testing.T) {
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
			name: "missing Symbol column",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("Ticker,Name\nAAPL,Apple\n"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			repo := NewConstituentsRepository(testConfig(srv.URL), srv.Client())
			_, err := repo.Fetch(context.Background())
			assert.Error(t, err)
		})
	}
}

// TestLoadConfig_Defaults は環境変数未設定時のデフォルト値を検証します。
func TestLoadConfig_Defaults(t *testing.T) {
	cfg := LoadConfig()
	assert.Contains(t, cfg.CSVURL, "constituents.csv")
	assert.NotEmpty(t, cfg.UserAgent)
	assert.Equal(t, 15*time.Second, cfg.Timeout)
}
