package agentrepo

import (
	"context"
	"errors"

	"backoffice/internal/adapters/out/postgres/pgerr"
	"backoffice/internal/core/domain/model/agent"
	"backoffice/internal/core/domain/model/kernel"
	"backoffice/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormAgentRepository implements ports.AgentRepository using GORM.
type GormAgentRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

func NewGormAgentRepository(db *gorm.DB, tracker aggregateTracker) *GormAgentRepository {
	return &GormAgentRepository{
		db:      db,
		tracker: tracker,
	}
}

func (r *GormAgentRepository) Add(ctx context.Context, aggregate *agent.Agent) error {
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

func (r *GormAgentRepository) Update(ctx context.Context, aggregate *agent.Agent) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	result := r.db.WithContext(ctx).Model(&AgentDTO{}).Where("id = ?", dto.ID).Updates(map[string]any{
		"name":             dto.Name,
		"role":             dto.Role,
		"max_orders":       dto.MaxOrders,
		"last_activity_at": dto.LastActivityAt,
		"active":           dto.Active,
	})
	if result.Error != nil {
		return pgerr.Translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("agent", aggregate.ID().String())
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

func (r *GormAgentRepository) Get(ctx context.Context, id kernel.UUID) (*agent.Agent, error) {
	return r.first(r.db.WithContext(ctx), id)
}

// Lock reads the agent with SELECT ... FOR UPDATE. Outside a transaction the
// lock is released immediately, so callers must hold a unit of work.
func (r *GormAgentRepository) Lock(ctx context.Context, id kernel.UUID) (*agent.Agent, error) {
	return r.first(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormAgentRepository) GetAllActive(ctx context.Context) ([]*agent.Agent, error) {
	var dtos []AgentDTO
	if err := r.db.WithContext(ctx).Where("active = ?", true).Order("id").Find(&dtos).Error; err != nil {
		return nil, err
	}

	agents := make([]*agent.Agent, 0, len(dtos))
	for _, dto := range dtos {
		a, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		agents = append(agents, a)
	}
	return agents, nil
}

func (r *GormAgentRepository) first(db *gorm.DB, id kernel.UUID) (*agent.Agent, error) {
	var dto AgentDTO
	err := db.First(&dto, "id = ?", id.Bytes()).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NewObjectNotFoundError("agent", id.String())
	}
	if err != nil {
		return nil, pgerr.Translate(err)
	}
	return toDomain(dto)
}
