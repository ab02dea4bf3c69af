// Package adapters はtablesフィーチャーの外部システム連携実装を提供します。
package adapters

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bb_monitor/internal/feature/tables/domain/entity"
	"bb_monitor/internal/feature/tables/usecase"
)

// KVModel はスキーマレスKVストアのGORMモデルです。
// 任意のテーブル名＋行IDをキーにJSON blobを保持します。
type KVModel struct {
	Table string `gorm:"column:table_name;primaryKey"`
	RowID string `gorm:"column:row_id;primaryKey"`
	Data  string `gorm:"column:data;not null"`
}

// TableName はGORMで使用するテーブル名を返します。
func (KVModel) TableName() string {
	return "_kv_store"
}

// kvSQLite はSQLiteを使用したKVRepositoryの実装です。
type kvSQLite struct {
	db *gorm.DB
}

// NewKVRepository はSQLiteベースのKVRepositoryの新しいインスタンスを生成します。
func NewKVRepository(db *gorm.DB) usecase.KVRepository {
	return &kvSQLite{db: db}
}

var _ usecase.KVRepository = (*kvSQLite)(nil)

// List は指定テーブルの行を挿入順（rowid順）で最大limit件返します。
func (r *kvSQLite) List(ctx context.Context, table string, limit int) ([]entity.KVRecord, error) {
	var models []KVModel
	err := r.db.WithContext(ctx).
		Where("table_name = ?", table).
		Order("rowid").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	records := make([]entity.KVRecord, 0, len(models))
	for _, m := range models {
		records = append(records, entity.KVRecord{Table: m.Table, RowID: m.RowID, Data: m.Data})
	}
	return records, nil
}

// Get は1行を返します。存在しない場合は (nil, nil) を返します。
func (r *kvSQLite) Get(ctx context.Context, table, rowID string) (*entity.KVRecord, error) {
	var m KVModel
	err := r.db.WithContext(ctx).
		Where("table_name = ? AND row_id = ?", table, rowID).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entity.KVRecord{Table: m.Table, RowID: m.RowID, Data: m.Data}, nil
}

// Put は行を挿入し、主キー衝突時はdataを置換します。
func (r *kvSQLite) Put(ctx context.Context, table, rowID, data string) error {
	m := KVModel{Table: table, RowID: rowID, Data: data}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "table_name"}, {Name: "row_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"data"}),
	}).Create(&m).Error
}

// Delete は行を削除し、削除が行われたかどうかを返します。
func (r *kvSQLite) Delete(ctx context.Context, table, rowID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("table_name = ? AND row_id = ?", table, rowID).
		Delete(&KVModel{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
