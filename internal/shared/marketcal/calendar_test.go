package marketcal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mustLoc はテスト用にタイムゾーンをロードします。
func mustLoc(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	return loc
}

func TestIsClosed(t *testing.T) {
	t.Parallel()

	ny := mustLoc(t, "America/New_York")
	seoul := mustLoc(t, "Asia/Seoul")

	tests := []struct {
		name   string
		market Market
		now    time.Time
		want   bool
	}{
		{
			name:   "US: weekday before close",
			market: US,
			now:    time.Date(2024, 6, 11, 9, 0, 0, 0, ny), // Tuesday
			want:   false,
		},
		{
			name:   "US: weekday exactly at 16:00 is closed",
			market: US,
			now:    time.Date(2024, 6, 11, 16, 0, 0, 0, ny),
			want:   true,
		},
		{
			name:   "US: weekday after close",
			market: US,
			now:    time.Date(2024, 6, 11, 16, 5, 0, 0, ny),
			want:   true,
		},
		{
			name:   "US: Saturday always closed",
			market: US,
			now:    time.Date(2024, 6, 8, 10, 0, 0, 0, ny),
			want:   true,
		},
		{
			name:   "KR: weekday before 15:30",
			market: KR,
			now:    time.Date(2024, 6, 11, 15, 29, 0, 0, seoul),
			want:   false,
		},
		{
			name:   "KR: weekday exactly at 15:30 is closed",
			market: KR,
			now:    time.Date(2024, 6, 11, 15, 30, 0, 0, seoul),
			want:   true,
		},
		{
			name:   "KR: Sunday always closed",
			market: KR,
			now:    time.Date(2024, 6, 9, 12, 0, 0, 0, seoul),
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsClosed(tt.market, tt.now))
		})
	}
}

func TestLastTradingDate(t *testing.T) {
	t.Parallel()

	ny := mustLoc(t, "America/New_York")
	seoul := mustLoc(t, "Asia/Seoul")

	tests := []struct {
		name   string
		market Market
		now    time.Time
		want   string
	}{
		{
			name:   "US: weekday pre-close returns previous business day",
			market: US,
			now:    time.Date(2024, 6, 11, 9, 0, 0, 0, ny), // Tuesday morning
			want:   "2024-06-10",
		},
		{
			name:   "US: weekday post-close returns today",
			market: US,
			now:    time.Date(2024, 6, 11, 16, 5, 0, 0, ny),
			want:   "2024-06-11",
		},
		{
			name:   "US: Monday pre-close skips the weekend",
			market: US,
			now:    time.Date(2024, 6, 10, 9, 0, 0, 0, ny), // Monday morning
			want:   "2024-06-07",                           // previous Friday
		},
		{
			name:   "US: Saturday returns most recent Friday",
			market: US,
			now:    time.Date(2024, 6, 8, 12, 0, 0, 0, ny),
			want:   "2024-06-07",
		},
		{
			name:   "US: Sunday returns most recent Friday",
			market: US,
			now:    time.Date(2024, 6, 9, 12, 0, 0, 0, ny),
			want:   "2024-06-07",
		},
		{
			name:   "KR: weekday post-close returns today",
			market: KR,
			now:    time.Date(2024, 6, 11, 15, 30, 0, 0, seoul),
			want:   "2024-06-11",
		},
		{
			name:   "KR: weekday pre-close returns previous business day",
			market: KR,
			now:    time.Date(2024, 6, 11, 10, 0, 0, 0, seoul),
			want:   "2024-06-10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, LastTradingDate(tt.market, tt.now))
		})
	}
}

func TestTodayString(t *testing.T) {
	t.Parallel()

	ny := mustLoc(t, "America/New_York")

	// 大引け前でも当日の日付を返す（LastTradingDateとの違い）
	now := time.Date(2024, 6, 11, 9, 0, 0, 0, ny)
	assert.Equal(t, "2024-06-11", TodayString(US, now))
	assert.Equal(t, "2024-06-10", LastTradingDate(US, now))
}

func TestWeeklyCutoff(t *testing.T) {
	t.Parallel()

	seoul := mustLoc(t, "Asia/Seoul")

	tests := []struct {
		name string
		now  time.Time
		want string
	}{
		{
			name: "Wednesday returns this week's Monday",
			now:  time.Date(2024, 6, 12, 10, 0, 0, 0, seoul),
			want: "2024-06-10",
		},
		{
			name: "Monday returns itself",
			now:  time.Date(2024, 6, 10, 10, 0, 0, 0, seoul),
			want: "2024-06-10",
		},
		{
			name: "Sunday returns previous Monday",
			now:  time.Date(2024, 6, 9, 10, 0, 0, 0, seoul),
			want: "2024-06-03",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, WeeklyCutoff(KR, tt.now))
		})
	}
}

func TestTimeUntilNextMidnight(t *testing.T) {
	t.Parallel()

	ny := mustLoc(t, "America/New_York")
	now := time.Date(2024, 6, 11, 23, 0, 0, 0, ny)
	assert.Equal(t, time.Hour, TimeUntilNextMidnight(US, now))
}
