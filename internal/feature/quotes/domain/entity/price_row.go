// Package entity defines the domain models for the quotes feature.
package entity

// Interval is the candle granularity.
type Interval string

const (
	// Daily is one candle per trading day.
	Daily Interval = "1d"
	// Weekly is one candle per calendar week, keyed by the period start date.
	Weekly Interval = "1wk"
)

// ParseInterval normalizes a request interval string, defaulting to Daily.
func ParseInterval(s string) Interval {
	if s == string(Weekly) {
		return Weekly
	}
	return Daily
}

// PriceRow represents one OHLCV candle for a ticker at a given date and interval.
// Close is the only field guaranteed present; legacy rows may miss OHLV, in which
// case presentation falls back to Close (and 0 for volume).
type PriceRow struct {
	Ticker   string   // Provider ticker (e.g., "AAPL", "005930.KS")
	Date     string   // Calendar date, YYYY-MM-DD, no time component
	Interval Interval // Candle granularity
	Open     *float64
	High     *float64
	Low      *float64
	Close    float64
	Volume   *float64
}

// OpenOrClose returns Open, falling back to Close for legacy rows.
func (p PriceRow) OpenOrClose() float64 {
	if p.Open != nil {
		return *p.Open
	}
	return p.Close
}

// HighOrClose returns High, falling back to Close.
func (p PriceRow) HighOrClose() float64 {
	if p.High != nil {
		return *p.High
	}
	return p.Close
}

// LowOrClose returns Low, falling back to Close.
func (p PriceRow) LowOrClose() float64 {
	if p.Low != nil {
		return *p.Low
	}
	return p.Close
}

// VolumeOrZero returns Volume, falling back to 0.
func (p PriceRow) VolumeOrZero() float64 {
	if p.Volume != nil {
		return *p.Volume
	}
	return 0
}
