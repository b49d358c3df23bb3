package trade

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists downstream orders.
type Repository interface {
	Save(ctx context.Context, order *Order) error
	SaveWithLock(ctx context.Context, order *Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	FindByAgentOrderID(ctx context.Context, agentOrderID uuid.UUID) (*Order, error)
	Delete(ctx context.Context, id uuid.UUID) error
	NextOrderNumber(ctx context.Context) (string, error)
}
