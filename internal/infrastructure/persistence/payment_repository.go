package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bridgecart/backend/internal/domain/payment"
	"github.com/bridgecart/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormPaymentRepository implements payment.Repository using GORM
type GormPaymentRepository struct {
	db          *gorm.DB
	outboxSaver shared.OutboxEventSaver // optional, for transactional outbox pattern
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// SetOutboxEventSaver sets the outbox event saver for transactional event publishing
func (r *GormPaymentRepository) SetOutboxEventSaver(saver shared.OutboxEventSaver) {
	r.outboxSaver = saver
}

// Save creates or updates a payment record. Pending domain events are written
// to the outbox in the same transaction when an outbox saver is configured.
func (r *GormPaymentRepository) Save(ctx context.Context, record *payment.PaymentRecord) error {
	events := record.GetDomainEvents()
	return dbFromContext(ctx, r.db).WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(record).Error; err != nil {
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

// SaveWithLock saves a payment record with optimistic locking (version check).
// Webhook deliveries and manual settlement can race on the same record.
// Pending events are written to the outbox alongside the update.
func (r *GormPaymentRepository) SaveWithLock(ctx context.Context, record *payment.PaymentRecord) error {
	events := record.GetDomainEvents()
	return dbFromContext(ctx, r.db).WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(record).
			Where("id = ? AND version = ?", record.ID, record.Version-1).
			Updates(record)
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

// FindByID finds a payment record by its ID
func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.PaymentRecord, error) {
	var record payment.PaymentRecord
	if err := dbFromContext(ctx, r.db).WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// FindByOrderID finds the latest payment record for an order
func (r *GormPaymentRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*payment.PaymentRecord, error) {
	var record payment.PaymentRecord
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// FindByGatewayTransactionID finds a payment record by the gateway's transaction ID
func (r *GormPaymentRepository) FindByGatewayTransactionID(ctx context.Context, transactionID string) (*payment.PaymentRecord, error) {
	if transactionID == "" {
		return nil, shared.ErrNotFound
	}
	var record payment.PaymentRecord
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("gateway_transaction_id = ?", transactionID).
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// List lists payment records matching the filter
func (r *GormPaymentRepository) List(ctx context.Context, filter payment.PaymentFilter) ([]*payment.PaymentRecord, int64, error) {
	query := dbFromContext(ctx, r.db).WithContext(ctx).Model(&payment.PaymentRecord{})
	if filter.PayerID != nil {
		query = query.Where("payer_id = ?", *filter.PayerID)
	}
	if filter.OrderID != nil {
		query = query.Where("order_id = ?", *filter.OrderID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Method != nil {
		query = query.Where("method = ?", *filter.Method)
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

	var records []*payment.PaymentRecord
	if err := query.Order("created_at DESC").Find(&records).Error; err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// SumByStatus sums payment amounts by status within an optional date range
func (r *GormPaymentRepository) SumByStatus(ctx context.Context, status payment.PaymentStatus, from, to *time.Time) (decimal.Decimal, error) {
	query := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&payment.PaymentRecord{}).
		Where("status = ?", status)
	return r.sumAmount(query, from, to)
}

// SumByMethod sums payment amounts by method within an optional date range
func (r *GormPaymentRepository) SumByMethod(ctx context.Context, method payment.PaymentMethod, from, to *time.Time) (decimal.Decimal, error) {
	query := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&payment.PaymentRecord{}).
		Where("method = ?", method)
	return r.sumAmount(query, from, to)
}

func (r *GormPaymentRepository) sumAmount(query *gorm.DB, from, to *time.Time) (decimal.Decimal, error) {
	if from != nil {
		query = query.Where("created_at >= ?", *from)
	}
	if to != nil {
		query = query.Where("created_at <= ?", *to)
	}
	var result struct {
		Total decimal.Decimal
	}
	if err := query.Select("COALESCE(SUM(amount), 0) as total").Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// Ensure GormPaymentRepository implements Repository
var _ payment.Repository = (*GormPaymentRepository)(nil)
