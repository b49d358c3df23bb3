package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/bridgecart/backend/internal/domain/shared"
	"github.com/bridgecart/backend/internal/domain/trade"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormOrderRepository implements trade.Repository using GORM
type GormOrderRepository struct {
	db          *gorm.DB
	outboxSaver shared.OutboxEventSaver // optional, for transactional outbox pattern
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// SetOutboxEventSaver sets the outbox event saver for transactional event publishing
func (r *GormOrderRepository) SetOutboxEventSaver(saver shared.OutboxEventSaver) {
	r.outboxSaver = saver
}

// Save creates or updates an order. Pending domain events are written to
// the outbox in the same transaction when an outbox saver is configured.
func (r *GormOrderRepository) Save(ctx context.Context, order *trade.Order) error {
	events := order.GetDomainEvents()
	return dbFromContext(ctx, r.db).WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(order).Error; err != nil {
			return err
		}
		if r.outboxSaver != nil && len(events) > 0 {
			if err := r.outboxSaver.SaveEvents(ctx, tx, events...); err != nil {
				return fmt.Errorf("failed to save events to outbox: %w", err)
			}
		}
		return nil
	})
}

// SaveWithLock saves an order with optimistic locking (version check). The
// delivered event of a pickup confirmation rides in the same transaction so
// the point commission trigger is durable.
func (r *GormOrderRepository) SaveWithLock(ctx context.Context, order *trade.Order) error {
	events := order.GetDomainEvents()
	return dbFromContext(ctx, r.db).WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(order).
			Where("id = ? AND version = ?", order.ID, order.Version-1).
			Updates(order)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}
		if r.outboxSaver != nil && len(events) > 0 {
			if err := r.outboxSaver.SaveEvents(ctx, tx, events...); err != nil {
				return fmt.Errorf("failed to save events to outbox: %w", err)
			}
		}
		return nil
	})
}

// FindByID finds an order by its ID
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Order, error) {
	var order trade.Order
	if err := dbFromContext(ctx, r.db).WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindByAgentOrderID finds the downstream order linked to an agent order
func (r *GormOrderRepository) FindByAgentOrderID(ctx context.Context, agentOrderID uuid.UUID) (*trade.Order, error) {
	var order trade.Order
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("agent_order_id = ?", agentOrderID).
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// Delete deletes an order
func (r *GormOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := dbFromContext(ctx, r.db).WithContext(ctx).Delete(&trade.Order{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// NextOrderNumber generates the next unique order number.
// Format: ORD-NNNNNN (e.g., ORD-000001)
func (r *GormOrderRepository) NextOrderNumber(ctx context.Context) (string, error) {
	return nextDocumentNumber(ctx, dbFromContext(ctx, r.db), &trade.Order{}, "order_number", "ORD-")
}

// Ensure GormOrderRepository implements Repository
var _ trade.Repository = (*GormOrderRepository)(nil)
