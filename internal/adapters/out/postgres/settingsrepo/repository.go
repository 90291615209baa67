// Package settingsrepo stores commission and wilaya settings.
package settingsrepo

import (
	"context"
	"errors"
	"time"

	"backoffice/internal/core/domain/model/settings"
	"backoffice/internal/pkg/errs"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// commissionRowID is the primary key of the single commission row.
const commissionRowID = 1

type CommissionDTO struct {
	ID              int             `gorm:"primaryKey;autoIncrement:false"`
	ConfirmationFee decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	DeliveryFee     decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Currency        string          `gorm:"size:3;not null"`
	UpdatedAt       time.Time       `gorm:"not null"`
}

func (CommissionDTO) TableName() string {
	return "commission_settings"
}

type WilayaDTO struct {
	Code         int    `gorm:"primaryKey;autoIncrement:false"`
	Name         string `gorm:"size:64;not null"`
	DeliveryDays int    `gorm:"not null"`
	Active       bool   `gorm:"not null"`
}

func (WilayaDTO) TableName() string {
	return "wilaya_settings"
}

// GormSettingsRepository implements ports.SettingsRepository.
type GormSettingsRepository struct {
	db *gorm.DB
}

func NewGormSettingsRepository(db *gorm.DB) *GormSettingsRepository {
	return &GormSettingsRepository{db: db}
}

func (r *GormSettingsRepository) GetCommission(ctx context.Context) (settings.Commission, error) {
	var dto CommissionDTO
	err := r.db.WithContext(ctx).First(&dto, "id = ?", commissionRowID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return settings.Commission{}, errs.NewObjectNotFoundError("commission settings", "default")
	}
	if err != nil {
		return settings.Commission{}, err
	}
	return settings.NewCommission(dto.ConfirmationFee, dto.DeliveryFee, dto.Currency, dto.UpdatedAt)
}

func (r *GormSettingsRepository) SaveCommission(ctx context.Context, c settings.Commission) error {
	dto := CommissionDTO{
		ID:              commissionRowID,
		ConfirmationFee: c.ConfirmationFee(),
		DeliveryFee:     c.DeliveryFee(),
		Currency:        c.Currency(),
		UpdatedAt:       c.UpdatedAt(),
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&dto).Error
}

func (r *GormSettingsRepository) GetWilaya(ctx context.Context, code int) (settings.Wilaya, error) {
	if err := settings.ValidateWilayaCode(code); err != nil {
		return settings.Wilaya{}, err
	}

	var dto WilayaDTO
	err := r.db.WithContext(ctx).First(&dto, "code = ?", code).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return settings.Wilaya{}, errs.NewObjectNotFoundError("wilaya", code)
	}
	if err != nil {
		return settings.Wilaya{}, err
	}
	return settings.NewWilaya(dto.Code, dto.Name, dto.DeliveryDays, dto.Active)
}

func (r *GormSettingsRepository) SaveWilaya(ctx context.Context, w settings.Wilaya) error {
	dto := WilayaDTO{
		Code:         w.Code(),
		Name:         w.Name(),
		DeliveryDays: w.DeliveryDays(),
		Active:       w.IsActive(),
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&dto).Error
}

func (r *GormSettingsRepository) DeleteWilaya(ctx context.Context, code int) error {
	result := r.db.WithContext(ctx).Delete(&WilayaDTO{}, "code = ?", code)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("wilaya", code)
	}
	return nil
}
