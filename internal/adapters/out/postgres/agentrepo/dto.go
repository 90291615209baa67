// Package agentrepo persists agent aggregates with GORM.
package agentrepo

import (
	"time"

	"backoffice/internal/core/domain/model/agent"
	"backoffice/internal/core/domain/model/kernel"

	"github.com/google/uuid"
)

// AgentDTO is the row layout of the agents table.
type AgentDTO struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	Code           string    `gorm:"size:32;not null;uniqueIndex"`
	Name           string    `gorm:"size:128;not null"`
	Role           string    `gorm:"size:32;not null"`
	MaxOrders      int       `gorm:"not null"`
	LastActivityAt *time.Time
	Active         bool      `gorm:"not null;default:true;index"`
	CreatedAt      time.Time `gorm:"not null"`
}

func (AgentDTO) TableName() string {
	return "agents"
}

func fromDomain(a *agent.Agent) AgentDTO {
	return AgentDTO{
		ID:             a.ID().Bytes(),
		Code:           a.Code(),
		Name:           a.Name(),
		Role:           a.Role().String(),
		MaxOrders:      a.MaxOrders(),
		LastActivityAt: a.LastActivityAt(),
		Active:         a.IsActive(),
		CreatedAt:      a.CreatedAt(),
	}
}

func toDomain(dto AgentDTO) (*agent.Agent, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	role, err := agent.ParseRole(dto.Role)
	if err != nil {
		return nil, err
	}

	return agent.RestoreAgent(id, dto.Code, dto.Name, role, dto.MaxOrders, dto.LastActivityAt, dto.Active, dto.CreatedAt)
}
