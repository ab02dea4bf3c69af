// Package entity はtablesフィーチャーのドメインエンティティを定義します。
package entity

// KVRecord はスキーマレスKVストアの1行を表します。
// Data は任意のJSONオブジェクトをそのまま保持します。
type KVRecord struct {
	Table string
	RowID string
	Data  string
}
