package entity

import (
	"time"

	"bb_monitor/internal/shared/marketcal"
)

// TickerMeta holds descriptive fields for a ticker. Visible is owned by the UI
// layer and is never touched by the freshness engine.
type TickerMeta struct {
	Ticker    string
	Name      string
	Currency  string
	Market    marketcal.Market
	Visible   bool
	UpdatedAt time.Time
}

// Fundamentals holds valuation ratios for a ticker, one row per ticker.
//
// FetchedAt semantics:
//   - nil: sentinel for a previously failed fetch, always eligible for retry
//   - set: staleness is judged against the market's last trading date, not
//     wall-clock age
type Fundamentals struct {
	Ticker        string
	TrailingPE    *float64
	ForwardPE     *float64
	PBR           *float64
	EVToEBITDA    *float64
	DividendYield *float64
	EPS           *float64
	Beta          *float64
	Sector        *string
	FetchedAt     *time.Time
}

// Empty reports whether no valuation field is populated (a sentinel row).
func (f Fundamentals) Empty() bool {
	return f.TrailingPE == nil && f.ForwardPE == nil && f.PBR == nil &&
		f.EVToEBITDA == nil && f.DividendYield == nil && f.EPS == nil &&
		f.Beta == nil && f.Sector == nil
}
