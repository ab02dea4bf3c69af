package adapters

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB はテスト用のインメモリSQLiteデータベースを構築します。
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to initialize test database")
	require.NoError(t, db.AutoMigrate(&KVModel{}), "failed to migrate tables")
	return db
}

// TestKVSQLite_PutAndGet は行の保存と取得を検証します。
func TestKVSQLite_PutAndGet(t *testing.T) {
	t.Parallel()

	repo := NewKVRepository(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, "bb_tabs", "r1", `{"name":"watchlist"}`))

	rec, err := repo.Get(ctx, "bb_tabs", "r1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "bb_tabs", rec.Table)
	assert.Equal(t, "r1", rec.RowID)
	assert.JSONEq(t, `{"name":"watchlist"}`, rec.Data)
}

// TestKVSQLite_Get_NotFound は存在しない行で (nil, nil) が返ることを検証します。
func TestKVSQLite_Get_NotFound(t *testing.T) {
	t.Parallel()

	repo := NewKVRepository(setupTestDB(t))

	rec, err := repo.Get(context.Background(), "bb_tabs", "missing")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

// TestKVSQLite_Put_ReplacesExisting は主キー衝突時にdataが置換されることを検証します。
func TestKVSQLite_Put_ReplacesExisting(t *testing.T) {
	t.Parallel()

	repo := NewKVRepository(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, "t", "r1", `{"v":1}`))
	require.NoError(t, repo.Put(ctx, "t", "r1", `{"v":2}`))

	rec, err := repo.Get(ctx, "t", "r1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.JSONEq(t, `{"v":2}`, rec.Data)

	records, err := repo.List(ctx, "t", 10)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

// TestKVSQLite_List_InsertionOrderAndLimit は挿入順の返却とlimitの適用を検証します。
func TestKVSQLite_List_InsertionOrderAndLimit(t *testing.T) {
	t.Parallel()

	repo := NewKVRepository(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, "t", "c", `{"n":1}`))
	require.NoError(t, repo.Put(ctx, "t", "a", `{"n":2}`))
	require.NoError(t, repo.Put(ctx, "t", "b", `{"n":3}`))

	records, err := repo.List(ctx, "t", 10)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "c", records[0].RowID)
	assert.Equal(t, "a", records[1].RowID)
	assert.Equal(t, "b", records[2].RowID)

	limited, err := repo.List(ctx, "t", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

// TestKVSQLite_List_IsolatesTables はテーブル名ごとに行が分離されることを検証します。
func TestKVSQLite_List_IsolatesTables(t *testing.T) {
	t.Parallel()

	repo := NewKVRepository(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, "alpha", "r1", `{}`))
	require.NoError(t, repo.Put(ctx, "beta", "r1", `{}`))

	records, err := repo.List(ctx, "alpha", 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "alpha", records[0].Table)
}

// TestKVSQLite_Delete は削除結果のbool値を検証します。
func TestKVSQLite_Delete(t *testing.T) {
	t.Parallel()

	repo := NewKVRepository(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, "t", "r1", `{}`))

	ok, err := repo.Delete(ctx, "t", "r1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Delete(ctx, "t", "r1")
	require.NoError(t, err)
	assert.False(t, ok)

	rec, err := repo.Get(ctx, "t", "r1")
	require.NoError(t, err)
	assert.Nil(t, rec)
}
