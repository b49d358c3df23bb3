package persistence

import (
	"context"
	"errors"

	"github.com/bridgecart/backend/internal/domain/partner"
	"github.com/bridgecart/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPointRepository implements partner.PointRepository using GORM
type GormPointRepository struct {
	db *gorm.DB
}

// NewGormPointRepository creates a new GormPointRepository
func NewGormPointRepository(db *gorm.DB) *GormPointRepository {
	return &GormPointRepository{db: db}
}

// Save creates or updates a point of sale
func (r *GormPointRepository) Save(ctx context.Context, point *partner.PointOfSale) error {
	return dbFromContext(ctx, r.db).WithContext(ctx).Save(point).Error
}

// SaveWithLock saves a point with optimistic locking (version check)
func (r *GormPointRepository) SaveWithLock(ctx context.Context, point *partner.PointOfSale) error {
	result := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(point).
		Where("id = ? AND version = ?", point.ID, point.Version-1).
		Updates(point)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// FindByID finds a point of sale by its ID
func (r *GormPointRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.PointOfSale, error) {
	var point partner.PointOfSale
	if err := dbFromContext(ctx, r.db).WithContext(ctx).First(&point, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &point, nil
}

// List lists points of sale with pagination
func (r *GormPointRepository) List(ctx context.Context, page, pageSize int) ([]*partner.PointOfSale, int64, error) {
	query := dbFromContext(ctx, r.db).WithContext(ctx).Model(&partner.PointOfSale{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page > 0 && pageSize > 0 {
		query = query.Offset((page - 1) * pageSize).Limit(pageSize)
	}

	var points []*partner.PointOfSale
	if err := query.Order("name ASC").Find(&points).Error; err != nil {
		return nil, 0, err
	}
	return points, total, nil
}

// Ensure GormPointRepository implements PointRepository
var _ partner.PointRepository = (*GormPointRepository)(nil)
