package partner

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AgentRepository persists agents.
type AgentRepository interface {
	Save(ctx context.Context, agent *Agent) error
	SaveWithLock(ctx context.Context, agent *Agent) error
	FindByID(ctx context.Context, id uuid.UUID) (*Agent, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (*Agent, error)
	List(ctx context.Context, page, pageSize int) ([]*Agent, int64, error)
}

// PointRepository persists points of sale.
type PointRepository interface {
	Save(ctx context.Context, point *PointOfSale) error
	SaveWithLock(ctx context.Context, point *PointOfSale) error
	FindByID(ctx context.Context, id uuid.UUID) (*PointOfSale, error)
	List(ctx context.Context, page, pageSize int) ([]*PointOfSale, int64, error)
}

// AgentOrderFilter narrows agent order listings.
type AgentOrderFilter struct {
	AgentID  *uuid.UUID
	Status   *AgentOrderStatus
	DateFrom *time.Time
	DateTo   *time.Time
	Page     int
	PageSize int
}

// AgentOrderRepository persists agent orders.
type AgentOrderRepository interface {
	Save(ctx context.Context, order *AgentOrder) error
	SaveWithLock(ctx context.Context, order *AgentOrder) error
	FindByID(ctx context.Context, id uuid.UUID) (*AgentOrder, error)
	FindByOrderNumber(ctx context.Context, orderNumber string) (*AgentOrder, error)
	List(ctx context.Context, filter AgentOrderFilter) ([]*AgentOrder, int64, error)
	NextOrderNumber(ctx context.Context) (string, error)
}
