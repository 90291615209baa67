package queries

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"backoffice/internal/core/domain/model/settings"
	"backoffice/internal/pkg/guard"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrGetCommissionSettingsQueryIsNotConstructed = errors.New(
		"GetCommissionSettingsQuery must be created via NewGetCommissionSettingsQuery constructor",
	)
	ErrListWilayaSettingsQueryIsNotConstructed = errors.New(
		"ListWilayaSettingsQuery must be created via NewListWilayaSettingsQuery constructor",
	)
)

type GetCommissionSettingsQuery struct {
	guard guard.ConstructorGuard
}

func NewGetCommissionSettingsQuery() GetCommissionSettingsQuery {
	return GetCommissionSettingsQuery{guard: guard.NewConstructorGuard()}
}

func (q GetCommissionSettingsQuery) Validate() error {
	return q.guard.Validate(ErrGetCommissionSettingsQueryIsNotConstructed)
}

// CommissionView carries the saved settings, or the defaults with IsDefault
// set when nothing was saved yet.
type CommissionView struct {
	ConfirmationFee   decimal.Decimal
	DeliveryFee       decimal.Decimal
	PerDeliveredOrder decimal.Decimal
	Currency          string
	UpdatedAt         *time.Time
	IsDefault         bool
}

type GetCommissionSettingsQueryHandler struct {
	db *gorm.DB
}

func NewGetCommissionSettingsQueryHandler(db *gorm.DB) GetCommissionSettingsQueryHandler {
	return GetCommissionSettingsQueryHandler{db: db}
}

func (h GetCommissionSettingsQueryHandler) Handle(ctx context.Context, query GetCommissionSettingsQuery) (CommissionView, error) {
	if err := query.Validate(); err != nil {
		return CommissionView{}, err
	}

	var view CommissionView
	var updatedAt time.Time
	err := h.db.WithContext(ctx).Raw(`
		SELECT confirmation_fee, delivery_fee, currency, updated_at
		FROM commission_settings
		ORDER BY id
		LIMIT 1
	`).Row().Scan(&view.ConfirmationFee, &view.DeliveryFee, &view.Currency, &updatedAt)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		def := settings.DefaultCommission()
		return CommissionView{
			ConfirmationFee:   def.ConfirmationFee(),
			DeliveryFee:       def.DeliveryFee(),
			PerDeliveredOrder: def.PerDeliveredOrder(),
			Currency:          def.Currency(),
			IsDefault:         true,
		}, nil
	case err != nil:
		return CommissionView{}, err
	}

	view.PerDeliveredOrder = view.ConfirmationFee.Add(view.DeliveryFee)
	view.UpdatedAt = &updatedAt
	return view, nil
}

type ListWilayaSettingsQuery struct {
	activeOnly bool

	guard guard.ConstructorGuard
}

func NewListWilayaSettingsQuery(activeOnly bool) ListWilayaSettingsQuery {
	return ListWilayaSettingsQuery{activeOnly: activeOnly, guard: guard.NewConstructorGuard()}
}

func (q ListWilayaSettingsQuery) ActiveOnly() bool { return q.activeOnly }

func (q ListWilayaSettingsQuery) Validate() error {
	return q.guard.Validate(ErrListWilayaSettingsQueryIsNotConstructed)
}

type WilayaView struct {
	Code         int
	Name         string
	DeliveryDays int
	Active       bool
}

type ListWilayaSettingsQueryHandler struct {
	db *gorm.DB
}

func NewListWilayaSettingsQueryHandler(db *gorm.DB) ListWilayaSettingsQueryHandler {
	return ListWilayaSettingsQueryHandler{db: db}
}

// Handle returns the settings ordered by wilaya code.
func (h ListWilayaSettingsQueryHandler) Handle(ctx context.Context, query ListWilayaSettingsQuery) ([]WilayaView, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	builder := psql.Select("code", "name", "delivery_days", "active").From("wilaya_settings").OrderBy("code")
	if query.ActiveOnly() {
		builder = builder.Where("active")
	}
	sqlText, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	wilayas := make([]WilayaView, 0)
	if err = h.db.WithContext(ctx).Raw(sqlText, args...).Scan(&wilayas).Error; err != nil {
		return nil, err
	}
	return wilayas, nil
}
