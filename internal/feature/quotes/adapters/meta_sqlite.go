package adapters

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bb_monitor/internal/feature/quotes/domain/entity"
	"bb_monitor/internal/feature/quotes/usecase"
	"bb_monitor/internal/shared/marketcal"
)

type metaSQLite struct {
	db *gorm.DB
}

var _ usecase.MetaRepository = (*metaSQLite)(nil)

func NewMetaRepository(db *gorm.DB) *metaSQLite {
	return &metaSQLite{db: db}
}

// MetaModel は stock_meta テーブルの行です。visible はUI専用のカラムで、
// コアのupsertでは変更しません。
type MetaModel struct {
	Ticker    string `gorm:"primaryKey;size:32"`
	Name      string
	Currency  string `gorm:"size:8"`
	Market    string `gorm:"size:4"`
	Visible   bool   `gorm:"default:false"`
	UpdatedAt time.Time
}

func (MetaModel) TableName() string {
	return "stock_meta"
}

// Upsert は名前・通貨・市場・更新時刻のみを更新し、visible は既存値を保持します。
func (r *metaSQLite) Upsert(ctx context.Context, meta entity.TickerMeta) error {
	m := MetaModel{
		Ticker:    meta.Ticker,
		Name:      meta.Name,
		Currency:  meta.Currency,
		Market:    string(meta.Market),
		Visible:   meta.Visible,
		UpdatedAt: meta.UpdatedAt,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "ticker"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "currency", "market", "updated_at"}),
	}).Create(&m).Error
}

// Get はメタ行を返します。存在しない場合は (nil, nil) です。
func (r *metaSQLite) Get(ctx context.Context, ticker string) (*entity.TickerMeta, error) {
	var m MetaModel
	err := r.db.WithContext(ctx).Where("ticker = ?", ticker).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entity.TickerMeta{
		Ticker:    m.Ticker,
		Name:      m.Name,
		Currency:  m.Currency,
		Market:    marketcal.Market(m.Market),
		Visible:   m.Visible,
		UpdatedAt: m.UpdatedAt,
	}, nil
}

// ListTickers は登録済みの全ティッカーを返します（スケジュール更新の対象）。
func (r *metaSQLite) ListTickers(ctx context.Context) ([]string, error) {
	var out []string
	err := r.db.WithContext(ctx).Model(&MetaModel{}).
		Order("ticker ASC").
		Pluck("ticker", &out).Error
	return out, err
}
