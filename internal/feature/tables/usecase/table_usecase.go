// Package usecase はスキーマレステーブルのビジネスロジックを提供します。
package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"bb_monitor/internal/feature/tables/domain/entity"
)

// DefaultListLimit は一覧取得時のデフォルト上限件数です。
const DefaultListLimit = 500

// KVRepository はKVストアの永続化インターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type KVRepository interface {
	// List は指定テーブルの行を挿入順で最大limit件返します。
	List(ctx context.Context, table string, limit int) ([]entity.KVRecord, error)
	// Get は1行を返します。存在しない場合は (nil, nil) を返します。
	Get(ctx context.Context, table, rowID string) (*entity.KVRecord, error)
	// Put は行を挿入または置換します。
	Put(ctx context.Context, table, rowID, data string) error
	// Delete は行を削除し、削除が行われたかどうかを返します。
	Delete(ctx context.Context, table, rowID string) (bool, error)
}

// TableUsecase はJSON blobとして保存される動的テーブルのCRUDを提供します。
// 行IDは "id" フィールドとしてJSONに埋め込まれ、未指定時はUUIDを採番します。
type TableUsecase struct {
	repo KVRepository
}

// NewTableUsecase は指定されたリポジトリでTableUsecaseの新しいインスタンスを生成します。
func NewTableUsecase(repo KVRepository) *TableUsecase {
	return &TableUsecase{repo: repo}
}

// GetAll は指定テーブルの全行をデコードして返します。
// limitが0以下の場合はDefaultListLimitを使用し、破損した行は読み飛ばします。
func (u *TableUsecase) GetAll(ctx context.Context, table string, limit int) ([]map[string]any, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	records, err := u.repo.List(ctx, table, limit)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}

	rows := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		var obj map[string]any
		if err := json.Unmarshal([]byte(rec.Data), &obj); err != nil {
			continue
		}
		obj["id"] = rec.RowID
		rows = append(rows, obj)
	}
	return rows, nil
}

// GetOne は1行をデコードして返します。存在しない場合は (nil, nil) を返します。
func (u *TableUsecase) GetOne(ctx context.Context, table, rowID string) (map[string]any, error) {
	rec, err := u.repo.Get(ctx, table, rowID)
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", table, rowID, err)
	}
	if rec == nil {
		return nil, nil
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(rec.Data), &obj); err != nil {
		return nil, fmt.Errorf("decode %s/%s: %w", table, rowID, err)
	}
	obj["id"] = rec.RowID
	return obj, nil
}

// Insert は行を挿入します。dataに空でない "id" があればそれを行IDとして使い、
// なければUUIDを採番します。保存された行（idを含む）を返します。
func (u *TableUsecase) Insert(ctx context.Context, table string, data map[string]any) (map[string]any, error) {
	rowID, _ := data["id"].(string)
	if rowID == "" {
		rowID = uuid.NewString()
	}
	data["id"] = rowID

	b, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s/%s: %w", table, rowID, err)
	}
	if err := u.repo.Put(ctx, table, rowID, string(b)); err != nil {
		return nil, fmt.Errorf("put %s/%s: %w", table, rowID, err)
	}
	return data, nil
}

// Patch は既存行にフィールドをマージして保存します。
// 行が存在しない場合は (nil, nil) を返します。
func (u *TableUsecase) Patch(ctx context.Context, table, rowID string, patch map[string]any) (map[string]any, error) {
	existing, err := u.GetOne(ctx, table, rowID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}

	for k, v := range patch {
		existing[k] = v
	}
	// idフィールドはパッチで上書きさせない
	existing["id"] = rowID

	b, err := json.Marshal(existing)
	if err != nil {
		return nil, fmt.Errorf("encode %s/%s: %w", table, rowID, err)
	}
	if err := u.repo.Put(ctx, table, rowID, string(b)); err != nil {
		return nil, fmt.Errorf("put %s/%s: %w", table, rowID, err)
	}
	return existing, nil
}

// Delete は行を削除し、削除が行われたかどうかを返します。
func (u *TableUsecase) Delete(ctx context.Context, table, rowID string) (bool, error) {
	ok, err := u.repo.Delete(ctx, table, rowID)
	if err != nil {
		return false, fmt.Errorf("delete %s/%s: %w", table, rowID, err)
	}
	return ok, nil
}
