package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/bridgecart/backend/internal/domain/commission"
	"github.com/bridgecart/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormCommissionRepository implements commission.Repository using GORM
type GormCommissionRepository struct {
	db *gorm.DB
}

// NewGormCommissionRepository creates a new GormCommissionRepository
func NewGormCommissionRepository(db *gorm.DB) *GormCommissionRepository {
	return &GormCommissionRepository{db: db}
}

// Save creates or updates a commission
func (r *GormCommissionRepository) Save(ctx context.Context, c *commission.Commission) error {
	return dbFromContext(ctx, r.db).WithContext(ctx).Save(c).Error
}

// FindByID finds a commission by its ID
func (r *GormCommissionRepository) FindByID(ctx context.Context, id uuid.UUID) (*commission.Commission, error) {
	var c commission.Commission
	if err := dbFromContext(ctx, r.db).WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// FindBySourceID finds the commission created for a source document.
// At most one commission exists per source.
func (r *GormCommissionRepository) FindBySourceID(ctx context.Context, sourceID uuid.UUID) (*commission.Commission, error) {
	var c commission.Commission
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("source_id = ?", sourceID).
		First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// List lists commissions matching the filter
func (r *GormCommissionRepository) List(ctx context.Context, filter commission.Filter) ([]*commission.Commission, int64, error) {
	query := dbFromContext(ctx, r.db).WithContext(ctx).Model(&commission.Commission{})
	if filter.Kind != nil {
		query = query.Where("kind = ?", *filter.Kind)
	}
	if filter.BeneficiaryID != nil {
		query = query.Where("beneficiary_id = ?", *filter.BeneficiaryID)
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

	var commissions []*commission.Commission
	if err := query.Order("created_at DESC").Find(&commissions).Error; err != nil {
		return nil, 0, err
	}
	return commissions, total, nil
}

// SumByBeneficiary sums commission amounts for a beneficiary in the given statuses
func (r *GormCommissionRepository) SumByBeneficiary(ctx context.Context, beneficiaryID uuid.UUID, statuses []commission.CommissionStatus) (decimal.Decimal, error) {
	query := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&commission.Commission{}).
		Where("beneficiary_id = ?", beneficiaryID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	var result struct {
		Total decimal.Decimal
	}
	if err := query.Select("COALESCE(SUM(amount), 0) as total").Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// SumByKindAndStatus sums commission amounts by kind and status within an optional date range
func (r *GormCommissionRepository) SumByKindAndStatus(ctx context.Context, kind commission.CommissionKind, status commission.CommissionStatus, from, to *time.Time) (decimal.Decimal, error) {
	query := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&commission.Commission{}).
		Where("kind = ? AND status = ?", kind, status)
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

// Ensure GormCommissionRepository implements Repository
var _ commission.Repository = (*GormCommissionRepository)(nil)
