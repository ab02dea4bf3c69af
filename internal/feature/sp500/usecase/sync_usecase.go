// Package usecase はS&P500構成銘柄の同期ロジックを提供します。
package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"bb_monitor/internal/feature/sp500/domain/entity"
)

const (
	// tabsTable は監視タブを保存するKVテーブル名です。
	tabsTable = "bb_tabs"
	// sp500TabName はS&P500構成銘柄を保持するタブ名です。
	sp500TabName = "S&P500"
)

// ErrFetch は構成銘柄リストの取得に失敗したことを示すセンチネルエラーです。
var ErrFetch = errors.New("sp500 constituents fetch failed")

// ConstituentsRepository はS&P500構成銘柄の取得インターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type ConstituentsRepository interface {
	Fetch(ctx context.Context) ([]entity.Constituent, error)
}

// TabStore はタブKVテーブルへのアクセスインターフェースを定義します。
type TabStore interface {
	GetAll(ctx context.Context, table string, limit int) ([]map[string]any, error)
	Insert(ctx context.Context, table string, data map[string]any) (map[string]any, error)
	Patch(ctx context.Context, table, rowID string, patch map[string]any) (map[string]any, error)
}

// SyncResult はS&P500同期の実行結果です。
type SyncResult struct {
	OK      bool     `json:"ok"`
	TabID   string   `json:"tab_id"`
	Total   int      `json:"total"`
	Added   int      `json:"added"`
	Removed int      `json:"removed"`
	Tickers []string `json:"tickers"`
}

// SyncUsecase はS&P500構成銘柄を取得し、bb_tabsのS&P500タブへ反映します。
type SyncUsecase struct {
	constituents ConstituentsRepository
	tabs         TabStore
}

// NewSyncUsecase は指定されたリポジトリでSyncUsecaseの新しいインスタンスを生成します。
func NewSyncUsecase(constituents ConstituentsRepository, tabs TabStore) *SyncUsecase {
	return &SyncUsecase{constituents: constituents, tabs: tabs}
}

// Sync は最新の構成銘柄リストを取得し、S&P500タブをUPSERTします。
// タブが無ければ末尾のsort_orderで新規作成し、あればstocksを最新リストで置換します。
// 取得失敗時はErrFetchをラップしたエラーを返します。
func (u *SyncUsecase) Sync(ctx context.Context) (*SyncResult, error) {
	stocks, err := u.constituents.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}

	newCodes := make(map[string]struct{}, len(stocks))
	tickers := make([]string, 0, len(stocks))
	for _, s := range stocks {
		newCodes[s.Code] = struct{}{}
		tickers = append(tickers, s.Code)
	}

	stocksJSON, err := json.Marshal(stocks)
	if err != nil {
		return nil, fmt.Errorf("encode constituents: %w", err)
	}

	tabs, err := u.tabs.GetAll(ctx, tabsTable, 0)
	if err != nil {
		return nil, fmt.Errorf("load tabs: %w", err)
	}

	var spTab map[string]any
	maxOrder := -1.0
	for _, tab := range tabs {
		if order, ok := tab["sort_order"].(float64); ok && order > maxOrder {
			maxOrder = order
		}
		if name, _ := tab["name"].(string); name == sp500TabName {
			spTab = tab
		}
	}

	result := &SyncResult{OK: true, Total: len(stocks), Tickers: tickers}

	if spTab != nil {
		// 既存タブ: 旧リストとの差分を取り、stocksを最新リストで置換
		oldCodes := decodeStockCodes(spTab["stocks"])
		for code := range newCodes {
			if _, ok := oldCodes[code]; !ok {
				result.Added++
			}
		}
		for code := range oldCodes {
			if _, ok := newCodes[code]; !ok {
				result.Removed++
			}
		}

		tabID, _ := spTab["id"].(string)
		if _, err := u.tabs.Patch(ctx, tabsTable, tabID, map[string]any{
			"stocks": string(stocksJSON),
		}); err != nil {
			return nil, fmt.Errorf("update tab: %w", err)
		}
		result.TabID = tabID
	} else {
		// タブ新規作成: sort_orderは既存タブの末尾に続ける
		created, err := u.tabs.Insert(ctx, tabsTable, map[string]any{
			"name":       sp500TabName,
			"sort_order": maxOrder + 1,
			"stocks":     string(stocksJSON),
		})
		if err != nil {
			return nil, fmt.Errorf("create tab: %w", err)
		}
		result.TabID, _ = created["id"].(string)
		result.Added = len(stocks)
	}

	slog.Info("S&P500 sync completed",
		"total", result.Total, "added", result.Added, "removed", result.Removed)
	return result, nil
}

// decodeStockCodes はタブのstocksフィールド（JSON文字列）から銘柄コード集合を取り出します。
// 壊れている場合は空集合を返します。
func decodeStockCodes(raw any) map[string]struct{} {
	codes := map[string]struct{}{}
	s, ok := raw.(string)
	if !ok {
		return codes
	}
	var stocks []entity.Constituent
	if err := json.Unmarshal([]byte(s), &stocks); err != nil {
		return codes
	}
	for _, st := range stocks {
		codes[st.Code] = struct{}{}
	}
	return codes
}
