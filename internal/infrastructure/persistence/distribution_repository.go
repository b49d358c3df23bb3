package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/bridgecart/backend/internal/domain/shared"
	"github.com/bridgecart/backend/internal/domain/voucher"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormDistributionRepository implements voucher.DistributionRepository using GORM
type GormDistributionRepository struct {
	db          *gorm.DB
	outboxSaver shared.OutboxEventSaver // optional, for transactional outbox pattern
}

// NewGormDistributionRepository creates a new GormDistributionRepository
func NewGormDistributionRepository(db *gorm.DB) *GormDistributionRepository {
	return &GormDistributionRepository{db: db}
}

// SetOutboxEventSaver sets the outbox event saver for transactional event publishing
func (r *GormDistributionRepository) SetOutboxEventSaver(saver shared.OutboxEventSaver) {
	r.outboxSaver = saver
}

// Save creates or updates a distribution. Pending domain events (a code
// sale among them) are written to the outbox in the same transaction when
// an outbox saver is configured, so commission triggers survive a crash.
func (r *GormDistributionRepository) Save(ctx context.Context, distribution *voucher.CodeDistribution) error {
	events := distribution.GetDomainEvents()
	return dbFromContext(ctx, r.db).WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(distribution).Error; err != nil {
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

// SaveBatch creates or updates multiple distributions
func (r *GormDistributionRepository) SaveBatch(ctx context.Context, distributions []*voucher.CodeDistribution) error {
	if len(distributions) == 0 {
		return nil
	}
	var events []shared.DomainEvent
	for _, d := range distributions {
		events = append(events, d.GetDomainEvents()...)
	}
	return dbFromContext(ctx, r.db).WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(distributions).Error; err != nil {
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

// FindByID finds a distribution by its ID
func (r *GormDistributionRepository) FindByID(ctx context.Context, id uuid.UUID) (*voucher.CodeDistribution, error) {
	var distribution voucher.CodeDistribution
	if err := dbFromContext(ctx, r.db).WithContext(ctx).First(&distribution, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &distribution, nil
}

// FindByCodeID finds the distribution holding the given code. A code is
// held by at most one distribution.
func (r *GormDistributionRepository) FindByCodeID(ctx context.Context, codeID uuid.UUID) (*voucher.CodeDistribution, error) {
	var distribution voucher.CodeDistribution
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("code_id = ?", codeID).
		First(&distribution).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &distribution, nil
}

// List lists distributions matching the filter
func (r *GormDistributionRepository) List(ctx context.Context, filter voucher.DistributionFilter) ([]*voucher.CodeDistribution, int64, error) {
	query := dbFromContext(ctx, r.db).WithContext(ctx).Model(&voucher.CodeDistribution{})
	if filter.PointID != nil {
		query = query.Where("point_id = ?", *filter.PointID)
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

	var distributions []*voucher.CodeDistribution
	if err := query.Order("created_at DESC").Find(&distributions).Error; err != nil {
		return nil, 0, err
	}
	return distributions, total, nil
}

// CountByPointIDAndStatus counts distributions for a point in a given status
func (r *GormDistributionRepository) CountByPointIDAndStatus(ctx context.Context, pointID uuid.UUID, status voucher.DistributionStatus) (int64, error) {
	var count int64
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&voucher.CodeDistribution{}).
		Where("point_id = ? AND status = ?", pointID, status).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure GormDistributionRepository implements DistributionRepository
var _ voucher.DistributionRepository = (*GormDistributionRepository)(nil)
