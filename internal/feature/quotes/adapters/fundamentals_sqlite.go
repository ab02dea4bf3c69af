package adapters

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bb_monitor/internal/feature/quotes/domain/entity"
	"bb_monitor/internal/feature/quotes/usecase"
)

type fundamentalsSQLite struct {
	db *gorm.DB
}

var _ usecase.FundamentalsRepository = (*fundamentalsSQLite)(nil)

func NewFundamentalsRepository(db *gorm.DB) *fundamentalsSQLite {
	return &fundamentalsSQLite{db: db}
}

// FundamentalsModel は stock_fundamentals テーブルの行です。
// fetched_at がNULLの行は「失敗フェッチのセンチネル」で、常に再試行対象です。
type FundamentalsModel struct {
	Ticker        string `gorm:"primaryKey;size:32"`
	TrailingPE    *float64
	ForwardPE     *float64
	PBR           *float64
	EVToEBITDA    *float64 `gorm:"column:ev_to_ebitda"`
	DividendYield *float64
	EPS           *float64 `gorm:"column:eps"`
	Beta          *float64
	Sector        *string
	FetchedAt     *time.Time
}

func (FundamentalsModel) TableName() string {
	return "stock_fundamentals"
}

func (r *fundamentalsSQLite) Upsert(ctx context.Context, f entity.Fundamentals) error {
	m := FundamentalsModel{
		Ticker:        f.Ticker,
		TrailingPE:    f.TrailingPE,
		ForwardPE:     f.ForwardPE,
		PBR:           f.PBR,
		EVToEBITDA:    f.EVToEBITDA,
		DividendYield: f.DividendYield,
		EPS:           f.EPS,
		Beta:          f.Beta,
		Sector:        f.Sector,
		FetchedAt:     f.FetchedAt,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "ticker"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"trailing_pe", "forward_pe", "pbr", "ev_to_ebitda",
			"dividend_yield", "eps", "beta", "sector", "fetched_at",
		}),
	}).Create(&m).Error
}

// Get はファンダメンタル行を返します。存在しない場合は (nil, nil) です。
func (r *fundamentalsSQLite) Get(ctx context.Context, ticker string) (*entity.Fundamentals, error) {
	var m FundamentalsModel
	err := r.db.WithContext(ctx).Where("ticker = ?", ticker).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entity.Fundamentals{
		Ticker:        m.Ticker,
		TrailingPE:    m.TrailingPE,
		ForwardPE:     m.ForwardPE,
		PBR:           m.PBR,
		EVToEBITDA:    m.EVToEBITDA,
		DividendYield: m.DividendYield,
		EPS:           m.EPS,
		Beta:          m.Beta,
		Sector:        m.Sector,
		FetchedAt:     m.FetchedAt,
	}, nil
}
