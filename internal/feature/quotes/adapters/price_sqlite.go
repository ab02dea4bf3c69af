package adapters

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bb_monitor/internal/feature/quotes/domain/entity"
	"bb_monitor/internal/feature/quotes/usecase"
)

type priceSQLite struct {
	db *gorm.DB
}

var _ usecase.PriceRepository = (*priceSQLite)(nil)

func NewPriceRepository(db *gorm.DB) *priceSQLite {
	return &priceSQLite{db: db}
}

// PriceModel は stock_prices テーブルの行です。(ticker, date, interval) が主キーで、
// 同一キーへのupsertは後勝ちで上書きされます。closeのみNOT NULL。
type PriceModel struct {
	Ticker   string `gorm:"primaryKey;size:32"`
	Date     string `gorm:"primaryKey;size:10"`
	Interval string `gorm:"primaryKey;size:8"`

	Open   *float64
	High   *float64
	Low    *float64
	Close  float64 `gorm:"not null"`
	Volume *float64
}

func (PriceModel) TableName() string {
	return "stock_prices"
}

func toPriceModel(e entity.PriceRow) PriceModel {
	return PriceModel{
		Ticker:   e.Ticker,
		Date:     e.Date,
		Interval: string(e.Interval),
		Open:     e.Open,
		High:     e.High,
		Low:      e.Low,
		Close:    e.Close,
		Volume:   e.Volume,
	}
}

func toPriceRow(m PriceModel) entity.PriceRow {
	return entity.PriceRow{
		Ticker:   m.Ticker,
		Date:     m.Date,
		Interval: entity.Interval(m.Interval),
		Open:     m.Open,
		High:     m.High,
		Low:      m.Low,
		Close:    m.Close,
		Volume:   m.Volume,
	}
}

func (r *priceSQLite) UpsertBatch(ctx context.Context, rows []entity.PriceRow) error {
	if len(rows) == 0 {
		return nil
	}
	ms := make([]PriceModel, 0, len(rows))
	for _, e := range rows {
		ms = append(ms, toPriceModel(e))
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "ticker"}, {Name: "date"}, {Name: "interval"}},
		DoUpdates: clause.AssignmentColumns([]string{"open", "high", "low", "close", "volume"}),
	}).Create(&ms).Error
}

// LastN は最新limit件を取得し、日付昇順で返します。
func (r *priceSQLite) LastN(ctx context.Context, ticker string, interval entity.Interval, limit int) ([]entity.PriceRow, error) {
	var rows []PriceModel
	q := r.db.WithContext(ctx).
		Where("ticker = ? AND `interval` = ?", ticker, string(interval)).
		Order("date DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	// DESCで取得したので昇順に並べ替える
	out := make([]entity.PriceRow, len(rows))
	for i, m := range rows {
		out[len(rows)-1-i] = toPriceRow(m)
	}
	return out, nil
}

// HasDate は指定日付の行が存在するかを返します（日足の鮮度判定用）。
func (r *priceSQLite) HasDate(ctx context.Context, ticker string, interval entity.Interval, date string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&PriceModel{}).
		Where("ticker = ? AND `interval` = ? AND date = ?", ticker, string(interval), date).
		Count(&count).Error
	return count > 0, err
}

// HasOnOrAfter は指定日付以降の行が存在するかを返します（週足の鮮度判定用）。
func (r *priceSQLite) HasOnOrAfter(ctx context.Context, ticker string, interval entity.Interval, date string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&PriceModel{}).
		Where("ticker = ? AND `interval` = ? AND date >= ?", ticker, string(interval), date).
		Count(&count).Error
	return count > 0, err
}

// MaxDate は保存済みの最大日付を返します。行が無い場合は空文字列です。
func (r *priceSQLite) MaxDate(ctx context.Context, ticker string, interval entity.Interval) (string, error) {
	var max *string
	err := r.db.WithContext(ctx).Model(&PriceModel{}).
		Where("ticker = ? AND `interval` = ?", ticker, string(interval)).
		Select("MAX(date)").
		Scan(&max).Error
	if err != nil || max == nil {
		return "", err
	}
	return *max, nil
}
