package commission

import (
	"context"
	"errors"
	"fmt"

	"github.com/bridgecart/backend/internal/domain/commission"
	"github.com/bridgecart/backend/internal/domain/partner"
	"github.com/bridgecart/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// AgentOrderSubmittedHandler creates the agent's commission when an order
// submission commits. The rate rides on the event as a snapshot taken at
// submission, so a later rate change cannot alter the amount. Redelivery is
// safe: at most one commission exists per source order.
type AgentOrderSubmittedHandler struct {
	commissionRepo commission.Repository
	logger         *zap.Logger
}

func NewAgentOrderSubmittedHandler(
	commissionRepo commission.Repository,
	logger *zap.Logger,
) *AgentOrderSubmittedHandler {
	return &AgentOrderSubmittedHandler{
		commissionRepo: commissionRepo,
		logger:         logger,
	}
}

func (h *AgentOrderSubmittedHandler) EventTypes() []string {
	return []string{partner.EventTypeAgentOrderSubmitted}
}

func (h *AgentOrderSubmittedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	submitted, ok := event.(*partner.AgentOrderSubmittedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			partner.EventTypeAgentOrderSubmitted, event.EventType())
	}

	orderID := submitted.AggregateID()
	existing, err := h.commissionRepo.FindBySourceID(ctx, orderID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return fmt.Errorf("failed to check existing commission: %w", err)
	}
	if existing != nil {
		h.logger.Warn("commission already exists for agent order, skipping",
			zap.String("order_id", orderID.String()),
		)
		return nil
	}

	if !submitted.CommissionRate.IsPositive() {
		h.logger.Info("agent had no commission rate at submission, skipping",
			zap.String("order_id", orderID.String()),
			zap.String("agent_id", submitted.AgentID.String()),
		)
		return nil
	}

	c, err := commission.NewCommission(
		commission.KindAgentOrder,
		submitted.AgentID,
		orderID,
		submitted.TotalCost,
		submitted.CommissionRate,
		commission.StatusCalculated,
	)
	if err != nil {
		return fmt.Errorf("failed to create commission: %w", err)
	}
	if err := h.commissionRepo.Save(ctx, c); err != nil {
		return fmt.Errorf("failed to save commission: %w", err)
	}

	h.logger.Info("agent order commission created",
		zap.String("commission_id", c.ID.String()),
		zap.String("order_id", orderID.String()),
		zap.String("agent_id", submitted.AgentID.String()),
		zap.String("amount", c.Amount.String()),
	)
	return nil
}

var _ shared.EventHandler = (*AgentOrderSubmittedHandler)(nil)
