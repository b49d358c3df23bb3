package persistence

import (
	"context"
	"errors"

	"github.com/bridgecart/backend/internal/domain/partner"
	"github.com/bridgecart/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAgentRepository implements partner.AgentRepository using GORM
type GormAgentRepository struct {
	db *gorm.DB
}

// NewGormAgentRepository creates a new GormAgentRepository
func NewGormAgentRepository(db *gorm.DB) *GormAgentRepository {
	return &GormAgentRepository{db: db}
}

// Save creates or updates an agent
func (r *GormAgentRepository) Save(ctx context.Context, agent *partner.Agent) error {
	return dbFromContext(ctx, r.db).WithContext(ctx).Save(agent).Error
}

// SaveWithLock saves an agent with optimistic locking (version check).
// The agent carries materialized financial counters, so concurrent
// settlement operations must not lose updates.
func (r *GormAgentRepository) SaveWithLock(ctx context.Context, agent *partner.Agent) error {
	result := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(agent).
		Where("id = ? AND version = ?", agent.ID, agent.Version-1).
		Updates(agent)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// FindByID finds an agent by its ID
func (r *GormAgentRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Agent, error) {
	var agent partner.Agent
	if err := dbFromContext(ctx, r.db).WithContext(ctx).First(&agent, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &agent, nil
}

// FindByUserID finds the agent profile for a user account
func (r *GormAgentRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*partner.Agent, error) {
	var agent partner.Agent
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("user_id = ?", userID).
		First(&agent).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &agent, nil
}

// List lists agents with pagination
func (r *GormAgentRepository) List(ctx context.Context, page, pageSize int) ([]*partner.Agent, int64, error) {
	query := dbFromContext(ctx, r.db).WithContext(ctx).Model(&partner.Agent{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page > 0 && pageSize > 0 {
		query = query.Offset((page - 1) * pageSize).Limit(pageSize)
	}

	var agents []*partner.Agent
	if err := query.Order("name ASC").Find(&agents).Error; err != nil {
		return nil, 0, err
	}
	return agents, total, nil
}

// Ensure GormAgentRepository implements AgentRepository
var _ partner.AgentRepository = (*GormAgentRepository)(nil)
