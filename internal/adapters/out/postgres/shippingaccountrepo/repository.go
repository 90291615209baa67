// Package shippingaccountrepo persists delivery-provider accounts with GORM.
package shippingaccountrepo

import (
	"context"
	"errors"
	"time"

	"backoffice/internal/adapters/out/postgres/pgerr"
	"backoffice/internal/core/domain/model/kernel"
	"backoffice/internal/core/domain/model/shipping"
	"backoffice/internal/pkg/errs"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ShippingAccountDTO is the row layout of the shipping_accounts table.
type ShippingAccountDTO struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"size:128;not null"`
	Provider  string    `gorm:"size:32;not null;index"`
	Token     string    `gorm:"not null"`
	BaseURL   string    `gorm:"column:base_url;not null"`
	Active    bool      `gorm:"not null;default:true"`
	CreatedAt time.Time `gorm:"not null"`
}

func (ShippingAccountDTO) TableName() string {
	return "shipping_accounts"
}

type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

// GormShippingAccountRepository implements ports.ShippingAccountRepository.
type GormShippingAccountRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

func NewGormShippingAccountRepository(db *gorm.DB, tracker aggregateTracker) *GormShippingAccountRepository {
	return &GormShippingAccountRepository{
		db:      db,
		tracker: tracker,
	}
}

func (r *GormShippingAccountRepository) Add(ctx context.Context, aggregate *shipping.Account) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := ShippingAccountDTO{
		ID:        aggregate.ID().Bytes(),
		Name:      aggregate.Name(),
		Provider:  aggregate.Provider().String(),
		Token:     aggregate.Token(),
		BaseURL:   aggregate.BaseURL(),
		Active:    aggregate.IsActive(),
		CreatedAt: aggregate.CreatedAt(),
	}
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return pgerr.Translate(err)
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

func (r *GormShippingAccountRepository) Get(ctx context.Context, id kernel.UUID) (*shipping.Account, error) {
	var dto ShippingAccountDTO
	err := r.db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NewObjectNotFoundError("shipping account", id.String())
	}
	if err != nil {
		return nil, err
	}
	return toDomain(dto)
}

func (r *GormShippingAccountRepository) ListActive(ctx context.Context, provider *shipping.Provider) ([]*shipping.Account, error) {
	q := r.db.WithContext(ctx).Where("active = ?", true)
	if provider != nil {
		q = q.Where("provider = ?", provider.String())
	}

	var dtos []ShippingAccountDTO
	if err := q.Order("created_at, id").Find(&dtos).Error; err != nil {
		return nil, err
	}

	accounts := make([]*shipping.Account, 0, len(dtos))
	for _, dto := range dtos {
		a, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, nil
}

func toDomain(dto ShippingAccountDTO) (*shipping.Account, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	provider, err := shipping.ParseProvider(dto.Provider)
	if err != nil {
		return nil, err
	}
	return shipping.RestoreAccount(id, dto.Name, provider, dto.Token, dto.BaseURL, dto.Active, dto.CreatedAt)
}
