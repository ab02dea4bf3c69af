// Package adapters はsp500フィーチャーの外部システム連携実装を提供します。
package adapters

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"bb_monitor/internal/feature/sp500/domain/entity"
	"bb_monitor/internal/feature/sp500/usecase"
)

// Config はS&P500構成銘柄CSVの取得設定を保持します。
type Config struct {
	CSVURL    string        // 構成銘柄CSVのURL
	UserAgent string        // User-Agentヘッダー
	Timeout   time.Duration // HTTPリクエストタイムアウト
}

// LoadConfig は環境変数から構成銘柄CSVの設定を読み込みます。
func LoadConfig() Config {
	url := os.Getenv("SP500_CSV_URL")
	if url == "" {
		url = "https://raw.githubusercontent.com/datasets/s-and-p-500-companies/main/data/constituents.csv"
	}
	return Config{
		CSVURL:    url,
		UserAgent: "Mozilla/5.0 (compatible; bb-monitor/1.0)",
		Timeout:   15 * time.Second,
	}
}

// constituentsHTTP は公開CSVデータセットからS&P500構成銘柄を取得する
// ConstituentsRepository実装です。
type constituentsHTTP struct {
	cfg    Config
	client *http.Client
}

// NewConstituentsRepository はHTTPベースのConstituentsRepositoryの新しいインスタンスを生成します。
func NewConstituentsRepository(cfg Config, client *http.Client) usecase.ConstituentsRepository {
	return &constituentsHTTP{cfg: cfg, client: client}
}

var _ usecase.ConstituentsRepository = (*constituentsHTTP)(nil)

// Fetch は構成銘柄CSVを取得してパースします。
// ヘッダー行の列名（Symbol / Security / GICS Sector）で列位置を解決します。
func (r *constituentsHTTP) Fetch(ctx context.Context) ([]entity.Constituent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.cfg.CSVURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", r.cfg.UserAgent)

	res, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("constituents http %d", res.StatusCode)
	}
	return parseConstituents(res.Body)
}

// parseConstituents はCSVストリームを構成銘柄リストへ変換します。
func parseConstituents(body io.Reader) ([]entity.Constituent, error) {
	reader := csv.NewReader(body)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	col := map[string]int{}
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	symbolIdx, ok := col["Symbol"]
	if !ok {
		return nil, fmt.Errorf("csv header missing Symbol column")
	}
	nameIdx, hasName := col["Security"]
	sectorIdx, hasSector := col["GICS Sector"]

	field := func(record []string, idx int, present bool) string {
		if !present || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	var stocks []entity.Constituent
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		code := field(record, symbolIdx, true)
		if code == "" {
			continue
		}
		stocks = append(stocks, entity.Constituent{
			Code:   code,
			Name:   field(record, nameIdx, hasName),
			Market: "US",
			Sector: field(record, sectorIdx, hasSector),
		})
	}
	return stocks, nil
}
