// Package webhookrepo persists inbound webhook deliveries.
package webhookrepo

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"backoffice/internal/adapters/out/postgres/pgerr"
	"backoffice/internal/core/domain/model/kernel"
	"backoffice/internal/core/domain/model/webhook"
	"backoffice/internal/pkg/errs"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WebhookEventDTO is the row layout of the webhook_events table.
type WebhookEventDTO struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Source      string          `gorm:"size:32;not null;index:ix_webhook_events_source_status"`
	ExternalID  string          `gorm:"size:128;not null;default:''"`
	EventType   string          `gorm:"size:64;not null"`
	Payload     json.RawMessage `gorm:"type:jsonb;not null"`
	Status      string          `gorm:"size:16;not null;index:ix_webhook_events_source_status"`
	Attempts    int             `gorm:"not null;default:0"`
	LastError   string          `gorm:"not null;default:''"`
	ReceivedAt  time.Time       `gorm:"not null;index"`
	ProcessedAt *time.Time
}

func (WebhookEventDTO) TableName() string {
	return "webhook_events"
}

type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

// GormWebhookEventRepository implements ports.WebhookEventRepository.
type GormWebhookEventRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

func NewGormWebhookEventRepository(db *gorm.DB, tracker aggregateTracker) *GormWebhookEventRepository {
	return &GormWebhookEventRepository{
		db:      db,
		tracker: tracker,
	}
}

func (r *GormWebhookEventRepository) Add(ctx context.Context, aggregate *webhook.Event) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return pgerr.Translate(err)
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

func (r *GormWebhookEventRepository) Update(ctx context.Context, aggregate *webhook.Event) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	result := r.db.WithContext(ctx).Model(&WebhookEventDTO{}).Where("id = ?", dto.ID).Updates(map[string]any{
		"status":       dto.Status,
		"attempts":     dto.Attempts,
		"last_error":   dto.LastError,
		"processed_at": dto.ProcessedAt,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("webhook event", aggregate.ID().String())
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

func (r *GormWebhookEventRepository) Get(ctx context.Context, id kernel.UUID) (*webhook.Event, error) {
	var dto WebhookEventDTO
	err := r.db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NewObjectNotFoundError("webhook event", id.String())
	}
	if err != nil {
		return nil, err
	}
	return toDomain(dto)
}

func (r *GormWebhookEventRepository) Delete(ctx context.Context, id kernel.UUID) error {
	result := r.db.WithContext(ctx).Delete(&WebhookEventDTO{}, "id = ?", id.Bytes())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("webhook event", id.String())
	}
	return nil
}

func fromDomain(e *webhook.Event) WebhookEventDTO {
	return WebhookEventDTO{
		ID:          e.ID().Bytes(),
		Source:      string(e.Source()),
		ExternalID:  e.ExternalID(),
		EventType:   e.EventType(),
		Payload:     e.Payload(),
		Status:      string(e.Status()),
		Attempts:    e.Attempts(),
		LastError:   e.LastError(),
		ReceivedAt:  e.ReceivedAt(),
		ProcessedAt: e.ProcessedAt(),
	}
}

func toDomain(dto WebhookEventDTO) (*webhook.Event, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	return webhook.RestoreEvent(
		id,
		webhook.Source(dto.Source),
		dto.ExternalID,
		dto.EventType,
		dto.Payload,
		webhook.Status(dto.Status),
		dto.Attempts,
		dto.LastError,
		dto.ReceivedAt,
		dto.ProcessedAt,
	)
}
