// Package marketcal は市場カレンダー（取引時間・直近営業日）の純粋関数を提供します。
// すべての関数は now を引数に取り、I/Oを行いません。
package marketcal

import "time"

// Market は対応する市場の識別子です。
type Market string

const (
	// US は米国市場（NYSE/NASDAQ、America/New_York）です。
	US Market = "US"
	// KR は韓国市場（KRX、Asia/Seoul）です。
	KR Market = "KR"
)

// DateLayout は日付文字列のフォーマット（YYYY-MM-DD）です。
const DateLayout = "2006-01-02"

// location は市場のローカルタイムゾーンを返します。
func location(m Market) *time.Location {
	name := "Asia/Seoul"
	if m == US {
		name = "America/New_York"
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// closedNow は市場ローカル時刻 local が当日の大引け時刻（境界を含む）以降かを返します。
// US: 16:00 / KR: 15:30
func closedNow(m Market, local time.Time) bool {
	h, min := local.Hour(), local.Minute()
	if m == US {
		return h > 16 || (h == 16 && min >= 0)
	}
	return h > 15 || (h == 15 && min >= 30)
}

// isWeekend は土日かどうかを返します。
func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// IsClosed は指定時刻に市場が閉まっているかを返します。土日は終日閉場扱いです。
func IsClosed(m Market, now time.Time) bool {
	local := now.In(location(m))
	if isWeekend(local) {
		return true
	}
	return closedNow(m, local)
}

// LastTradingDate は確定した日足が存在する直近の取引日（YYYY-MM-DD）を返します。
//
//   - 平日かつ当日の大引け後 → 当日
//   - 大引け前または週末 → 直前の平日（土日をスキップ）
//
// 大引け前の当日は進行中で日足が未確定のため、判定対象にはなりません。
func LastTradingDate(m Market, now time.Time) string {
	local := now.In(location(m))
	if !isWeekend(local) && closedNow(m, local) {
		return local.Format(DateLayout)
	}
	candidate := local.AddDate(0, 0, -1)
	for isWeekend(candidate) {
		candidate = candidate.AddDate(0, 0, -1)
	}
	return candidate.Format(DateLayout)
}

// TodayString は市場ローカルの「今日」の日付を返します。
// 大引け前後を問わず現在日付のみを返すため、フェッチ範囲の end にのみ使用し、
// キャッシュ鮮度の判定には LastTradingDate を使うこと。
func TodayString(m Market, now time.Time) string {
	return now.In(location(m)).Format(DateLayout)
}

// WeeklyCutoff は市場ローカルで直近の月曜日（YYYY-MM-DD）を返します。
// 週足は期間の開始日付で保存されるため、この日付以降の行があれば当該週のデータが存在します。
func WeeklyCutoff(m Market, now time.Time) string {
	local := now.In(location(m))
	back := (int(local.Weekday()) + 6) % 7 // Monday=0
	return local.AddDate(0, 0, -back).Format(DateLayout)
}

// TimeUntilNextMidnight は市場ローカルの翌日0時までの期間を返します。
// 価格キャッシュのTTLに使います（日付が変わると鮮度判定の基準も変わるため）。
func TimeUntilNextMidnight(m Market, now time.Time) time.Duration {
	local := now.In(location(m))
	next := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, local.Location()).AddDate(0, 0, 1)
	return next.Sub(local)
}
