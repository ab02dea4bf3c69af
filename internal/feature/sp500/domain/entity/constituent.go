// Package entity はsp500フィーチャーのドメインエンティティを定義します。
package entity

// Constituent はS&P500構成銘柄1件を表します。
// タブの stocks フィールドに保存されるJSON形式と対応します。
type Constituent struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Market string `json:"market"`
	Sector string `json:"sector"`
}
