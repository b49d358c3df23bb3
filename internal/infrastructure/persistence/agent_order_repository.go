package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/bridgecart/backend/internal/domain/partner"
	"github.com/bridgecart/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAgentOrderRepository implements partner.AgentOrderRepository using GORM
type GormAgentOrderRepository struct {
	db          *gorm.DB
	outboxSaver shared.OutboxEventSaver // optional, for transactional outbox pattern
}

// NewGormAgentOrderRepository creates a new GormAgentOrderRepository
func NewGormAgentOrderRepository(db *gorm.DB) *GormAgentOrderRepository {
	return &GormAgentOrderRepository{db: db}
}

// SetOutboxEventSaver sets the outbox event saver for transactional event publishing
func (r *GormAgentOrderRepository) SetOutboxEventSaver(saver shared.OutboxEventSaver) {
	r.outboxSaver = saver
}

// Save creates or updates an agent order. Pending domain events are written
// to the outbox in the same transaction when an outbox saver is configured.
func (r *GormAgentOrderRepository) Save(ctx context.Context, order *partner.AgentOrder) error {
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

// SaveWithLock saves an agent order with optimistic locking (version check).
// Submission goes through here, so the submitted event is written to the
// outbox in the same transaction as the status change.
func (r *GormAgentOrderRepository) SaveWithLock(ctx context.Context, order *partner.AgentOrder) error {
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

// FindByID finds an agent order by its ID
func (r *GormAgentOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.AgentOrder, error) {
	var order partner.AgentOrder
	if err := dbFromContext(ctx, r.db).WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindByOrderNumber finds an agent order by its display number
func (r *GormAgentOrderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (*partner.AgentOrder, error) {
	var order partner.AgentOrder
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("order_number = ?", orderNumber).
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// List lists agent orders matching the filter
func (r *GormAgentOrderRepository) List(ctx context.Context, filter partner.AgentOrderFilter) ([]*partner.AgentOrder, int64, error) {
	query := dbFromContext(ctx, r.db).WithContext(ctx).Model(&partner.AgentOrder{})
	if filter.AgentID != nil {
		query = query.Where("agent_id = ?", *filter.AgentID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.DateFrom != nil {
		query = query.Where("created_at >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("created_at <= ?", *filter.DateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	var orders []*partner.AgentOrder
	if err := query.Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// NextOrderNumber generates the next unique agent order number.
// Format: AO-NNNNNN (e.g., AO-000101)
func (r *GormAgentOrderRepository) NextOrderNumber(ctx context.Context) (string, error) {
	return nextDocumentNumber(ctx, dbFromContext(ctx, r.db), &partner.AgentOrder{}, "order_number", "AO-")
}

// Ensure GormAgentOrderRepository implements AgentOrderRepository
var _ partner.AgentOrderRepository = (*GormAgentOrderRepository)(nil)
