package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/bridgecart/backend/internal/domain/shared"
	"github.com/bridgecart/backend/internal/domain/voucher"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCodeRepository implements voucher.CodeRepository using GORM
type GormCodeRepository struct {
	db *gorm.DB
}

// NewGormCodeRepository creates a new GormCodeRepository
func NewGormCodeRepository(db *gorm.DB) *GormCodeRepository {
	return &GormCodeRepository{db: db}
}

// Save creates or updates a redemption code
func (r *GormCodeRepository) Save(ctx context.Context, code *voucher.RedemptionCode) error {
	return dbFromContext(ctx, r.db).WithContext(ctx).Save(code).Error
}

// SaveWithLock saves a code with optimistic locking (version check)
func (r *GormCodeRepository) SaveWithLock(ctx context.Context, code *voucher.RedemptionCode) error {
	result := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(code).
		Where("id = ? AND version = ?", code.ID, code.Version-1).
		Updates(code)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// SaveBatch creates or updates multiple codes
func (r *GormCodeRepository) SaveBatch(ctx context.Context, codes []*voucher.RedemptionCode) error {
	if len(codes) == 0 {
		return nil
	}
	return dbFromContext(ctx, r.db).WithContext(ctx).Save(codes).Error
}

// FindByID finds a code by its ID
func (r *GormCodeRepository) FindByID(ctx context.Context, id uuid.UUID) (*voucher.RedemptionCode, error) {
	var code voucher.RedemptionCode
	if err := dbFromContext(ctx, r.db).WithContext(ctx).First(&code, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &code, nil
}

// FindByCode finds a code by its normalized code string
func (r *GormCodeRepository) FindByCode(ctx context.Context, code string) (*voucher.RedemptionCode, error) {
	var rc voucher.RedemptionCode
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		First(&rc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &rc, nil
}

// ExistsByCode checks whether a code string is already in use
func (r *GormCodeRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&voucher.RedemptionCode{}).
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// List lists codes matching the filter
func (r *GormCodeRepository) List(ctx context.Context, filter voucher.CodeFilter) ([]*voucher.RedemptionCode, int64, error) {
	query := r.applyFilter(dbFromContext(ctx, r.db).WithContext(ctx).Model(&voucher.RedemptionCode{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	var codes []*voucher.RedemptionCode
	if err := query.Order("created_at DESC").Find(&codes).Error; err != nil {
		return nil, 0, err
	}
	return codes, total, nil
}

// applyFilter applies filter options to the query, without pagination.
// State is derived, so state filters translate to the underlying flags.
func (r *GormCodeRepository) applyFilter(query *gorm.DB, filter voucher.CodeFilter) *gorm.DB {
	if filter.State != nil {
		switch *filter.State {
		case voucher.CodeStateRedeemed:
			query = query.Where("used = ? AND returned = ?", true, false)
		case voucher.CodeStateReturned:
			query = query.Where("returned = ?", true)
		case voucher.CodeStateExpired:
			query = query.Where("used = ? AND returned = ? AND expires_at IS NOT NULL AND expires_at < NOW()", false, false)
		case voucher.CodeStateActive:
			query = query.Where("used = ? AND returned = ? AND (expires_at IS NULL OR expires_at >= NOW())", false, false)
		}
	}
	if filter.CreatedBy != nil {
		query = query.Where("created_by = ?", *filter.CreatedBy)
	}
	if filter.UsedBy != nil {
		query = query.Where("used_by = ?", *filter.UsedBy)
	}
	if filter.DateFrom != nil {
		query = query.Where("created_at >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("created_at <= ?", *filter.DateTo)
	}
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("code ILIKE ? OR notes ILIKE ?", searchPattern, searchPattern)
	}
	return query
}

// Ensure GormCodeRepository implements CodeRepository
var _ voucher.CodeRepository = (*GormCodeRepository)(nil)
