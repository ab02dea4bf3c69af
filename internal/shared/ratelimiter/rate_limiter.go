package ratelimiter

import (
	"sync"
	"time"
)

// RateLimiterInterface は、API呼び出しなどの操作の頻度を制限するインターフェースです。
type RateLimiterInterface interface {
	WaitIfNeeded()
}

// FixedDelay は呼び出しの間隔が最低 delay 空くように待機するレートリミッターです。
// アップストリームに触れる経路では銘柄ごとにこの待機を挟みます。
type FixedDelay struct {
	delay time.Duration

	mu   sync.Mutex
	last time.Time
}

// NewFixedDelay は新しいFixedDelayのインスタンスを生成します。
func NewFixedDelay(delay time.Duration) *FixedDelay {
	return &FixedDelay{delay: delay}
}

// WaitIfNeeded は前回の呼び出しから delay 経過していなければ残り時間だけ待機します。
// 初回の呼び出しは待機しません。
func (f *FixedDelay) WaitIfNeeded() {
	f.mu.Lock()
	last := f.last
	f.mu.Unlock()

	if !last.IsZero() {
		if wait := f.delay - time.Since(last); wait > 0 {
			time.Sleep(wait)
		}
	}

	f.mu.Lock()
	f.last = time.Now()
	f.mu.Unlock()
}
