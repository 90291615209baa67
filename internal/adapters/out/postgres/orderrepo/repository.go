// Package orderrepo persists order aggregates with GORM. Every write that
// races with another writer is a conditional UPDATE whose WHERE clause carries
// the precondition, so the row count tells the caller whether it won.
package orderrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"backoffice/internal/adapters/out/postgres/pgerr"
	"backoffice/internal/core/domain/model/agent"
	"backoffice/internal/core/domain/model/kernel"
	"backoffice/internal/core/domain/model/order"
	"backoffice/internal/core/ports"
	"backoffice/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// GormOrderRepository implements ports.OrderRepository using GORM.
type GormOrderRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

// aggregateTracker defines the interface for tracking aggregates.
type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

// NewGormOrderRepository creates a new GORM order repository.
func NewGormOrderRepository(db *gorm.DB, tracker aggregateTracker) *GormOrderRepository {
	return &GormOrderRepository{
		db:      db,
		tracker: tracker,
	}
}

// Add saves a new order to the database.
func (r *GormOrderRepository) Add(ctx context.Context, aggregate *order.Order) error {
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

// Get retrieves an order by ID.
func (r *GormOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto OrderDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("order", id.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

func (r *GormOrderRepository) GetByExternalReference(ctx context.Context, storeID, ref string) (*order.Order, error) {
	var dto OrderDTO
	err := r.db.WithContext(ctx).First(&dto, "store_id = ? AND external_reference = ?", storeID, ref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NewObjectNotFoundError("order", storeID+"/"+ref)
	}
	if err != nil {
		return nil, err
	}

	return toDomain(dto)
}

func (r *GormOrderRepository) FindByExternalReference(ctx context.Context, ref string) ([]*order.Order, error) {
	var dtos []OrderDTO
	if err := r.db.WithContext(ctx).
		Where("external_reference = ?", ref).
		Order("created_at, id").
		Find(&dtos).Error; err != nil {
		return nil, err
	}

	return toDomainList(dtos)
}

func (r *GormOrderRepository) KnownReferences(ctx context.Context, storeID string, refs []string) ([]string, error) {
	if len(refs) == 0 {
		return nil, nil
	}

	var known []string
	err := r.db.WithContext(ctx).Raw(
		"SELECT external_reference FROM orders WHERE store_id = ? AND external_reference = ANY(?)",
		storeID, pq.Array(refs),
	).Scan(&known).Error
	return known, err
}

// ListUnassigned picks the newest limit unassigned orders, then hands them
// back oldest first so a batch drains in arrival order.
func (r *GormOrderRepository) ListUnassigned(ctx context.Context, limit int) ([]*order.Order, error) {
	if limit <= 0 {
		return nil, nil
	}

	var dtos []OrderDTO
	err := r.db.WithContext(ctx).Raw(`
		SELECT * FROM (
			SELECT * FROM orders
			WHERE assigned_agent_id IS NULL AND status NOT IN ?
			ORDER BY created_at DESC, id DESC
			LIMIT ?
		) recent
		ORDER BY created_at ASC, id ASC`,
		resolvedStatusNames(), limit,
	).Scan(&dtos).Error
	if err != nil {
		return nil, err
	}

	return toDomainList(dtos)
}

func (r *GormOrderRepository) AssignIfUnassigned(ctx context.Context, aggregate *order.Order) (bool, error) {
	if err := aggregate.Validate(); err != nil {
		return false, err
	}
	if !aggregate.IsAssigned() {
		return false, errs.NewValueIsRequiredError("assignedAgentID")
	}

	result := r.db.WithContext(ctx).Model(&OrderDTO{}).
		Where("id = ? AND assigned_agent_id IS NULL", aggregate.ID().Bytes()).
		Updates(map[string]any{
			"assigned_agent_id": aggregate.AssignedAgentID().Bytes(),
			"assigned_at":       aggregate.AssignedAt(),
		})
	if result.Error != nil {
		return false, pgerr.Translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return false, nil
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return true, nil
}

type workloadRow struct {
	AssignedAgentID uuid.UUID
	Assigned        int
	LastAssignedAt  *time.Time
}

const workloadSelect = `
	SELECT assigned_agent_id,
	       COUNT(*) FILTER (WHERE status NOT IN ?) AS assigned,
	       MAX(assigned_at) AS last_assigned_at
	FROM orders
	WHERE assigned_agent_id IS NOT NULL`

// CountWorkloads counts unresolved orders per agent. The last assignment time
// covers resolved orders too, since it only feeds the fairness tie-break.
func (r *GormOrderRepository) CountWorkloads(ctx context.Context) (map[kernel.UUID]agent.Load, error) {
	var rows []workloadRow
	if err := r.db.WithContext(ctx).
		Raw(workloadSelect+" GROUP BY assigned_agent_id", resolvedStatusNames()).
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	loads := make(map[kernel.UUID]agent.Load, len(rows))
	for _, row := range rows {
		id, err := kernel.UUIDFromBytes(row.AssignedAgentID[:])
		if err != nil {
			return nil, err
		}
		loads[id] = agent.Load{Assigned: row.Assigned, LastAssignedAt: row.LastAssignedAt}
	}
	return loads, nil
}

func (r *GormOrderRepository) CountWorkload(ctx context.Context, agentID kernel.UUID) (agent.Load, error) {
	var rows []workloadRow
	if err := r.db.WithContext(ctx).
		Raw(workloadSelect+" AND assigned_agent_id = ? GROUP BY assigned_agent_id", resolvedStatusNames(), agentID.Bytes()).
		Scan(&rows).Error; err != nil {
		return agent.Load{}, err
	}

	if len(rows) == 0 {
		return agent.Load{}, nil
	}
	return agent.Load{Assigned: rows[0].Assigned, LastAssignedAt: rows[0].LastAssignedAt}, nil
}

// ListForTrackingSync never returns orders of another account. Resolved orders
// are skipped unless the filter targets a specific tracking number, which is
// how repair runs reach delivered orders still carrying a bad value.
func (r *GormOrderRepository) ListForTrackingSync(ctx context.Context, filter ports.TrackingSyncFilter) ([]*order.Order, error) {
	if err := filter.AccountID.Validate(); err != nil {
		return nil, err
	}

	q := r.db.WithContext(ctx).Where("shipping_account_id = ?", filter.AccountID.Bytes())
	if filter.StoreID != nil {
		q = q.Where("store_id = ?", *filter.StoreID)
	}
	if filter.TrackingNumber != nil {
		q = q.Where("tracking_number = ?", *filter.TrackingNumber)
	} else {
		q = q.Where("status NOT IN ?", resolvedStatusNames())
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var dtos []OrderDTO
	if err := q.Order("created_at, id").Find(&dtos).Error; err != nil {
		return nil, err
	}

	return toDomainList(dtos)
}

func (r *GormOrderRepository) ListByTrackingNumber(ctx context.Context, tn string) ([]*order.Order, error) {
	var dtos []OrderDTO
	if err := r.db.WithContext(ctx).
		Where("tracking_number = ?", tn).
		Order("created_at, id").
		Find(&dtos).Error; err != nil {
		return nil, err
	}

	return toDomainList(dtos)
}

func (r *GormOrderRepository) UpdateShipping(ctx context.Context, aggregate *order.Order, accountID kernel.UUID) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	result := r.db.WithContext(ctx).Model(&OrderDTO{}).
		Where("id = ? AND shipping_account_id = ?", aggregate.ID().Bytes(), accountID.Bytes()).
		Updates(map[string]any{
			"tracking_number": aggregate.TrackingNumber(),
			"shipping_status": aggregate.ShippingStatus(),
			"status":          aggregate.Status().String(),
		})
	if result.Error != nil {
		return pgerr.Translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("order %s, account %s: %w", aggregate.ID(), accountID, ports.ErrShippingAccountMismatch)
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

func (r *GormOrderRepository) ForeignAccountOrders(
	ctx context.Context, orderIDs []kernel.UUID, accountID kernel.UUID,
) ([]kernel.UUID, error) {
	if len(orderIDs) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(orderIDs))
	for _, id := range orderIDs {
		ids = append(ids, id.String())
	}

	var foreign []uuid.UUID
	err := r.db.WithContext(ctx).Raw(`
		SELECT id FROM orders
		WHERE id = ANY(?::uuid[])
		  AND (shipping_account_id IS NULL OR shipping_account_id <> ?)
		ORDER BY id`,
		pq.Array(ids), accountID.Bytes(),
	).Scan(&foreign).Error
	if err != nil {
		return nil, err
	}

	result := make([]kernel.UUID, 0, len(foreign))
	for _, raw := range foreign {
		id, err := kernel.UUIDFromBytes(raw[:])
		if err != nil {
			return nil, err
		}
		result = append(result, id)
	}
	return result, nil
}

func (r *GormOrderRepository) BindShippingAccount(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}
	accountID := aggregate.ShippingAccountID()
	if accountID == nil {
		return errs.NewValueIsRequiredError("shippingAccountID")
	}

	result := r.db.WithContext(ctx).Model(&OrderDTO{}).
		Where("id = ? AND (shipping_account_id IS NULL OR shipping_account_id = ?)", aggregate.ID().Bytes(), accountID.Bytes()).
		Update("shipping_account_id", accountID.Bytes())
	if result.Error != nil {
		return pgerr.Translate(result.Error)
	}
	if result.RowsAffected == 0 {
		if _, err := r.Get(ctx, aggregate.ID()); err != nil {
			return err
		}
		return fmt.Errorf("order %s: %w", aggregate.ID(), ports.ErrShippingAccountMismatch)
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}
