package commission

import (
	"context"
	"errors"
	"fmt"

	"github.com/bridgecart/backend/internal/domain/commission"
	"github.com/bridgecart/backend/internal/domain/partner"
	"github.com/bridgecart/backend/internal/domain/shared"
	"github.com/bridgecart/backend/internal/domain/trade"
	"go.uber.org/zap"
)

// OrderDeliveredHandler creates the pickup point's commission when a
// customer collects an order there. Home deliveries earn nothing.
type OrderDeliveredHandler struct {
	commissionRepo commission.Repository
	pointRepo      partner.PointRepository
	logger         *zap.Logger
}

func NewOrderDeliveredHandler(
	commissionRepo commission.Repository,
	pointRepo partner.PointRepository,
	logger *zap.Logger,
) *OrderDeliveredHandler {
	return &OrderDeliveredHandler{
		commissionRepo: commissionRepo,
		pointRepo:      pointRepo,
		logger:         logger,
	}
}

func (h *OrderDeliveredHandler) EventTypes() []string {
	return []string{trade.EventTypeOrderDelivered}
}

func (h *OrderDeliveredHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	delivered, ok := event.(*trade.OrderDeliveredEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			trade.EventTypeOrderDelivered, event.EventType())
	}

	if delivered.PickupPointID == nil {
		return nil
	}

	orderID := delivered.AggregateID()
	existing, err := h.commissionRepo.FindBySourceID(ctx, orderID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return fmt.Errorf("failed to check existing commission: %w", err)
	}
	if existing != nil {
		h.logger.Warn("commission already exists for delivered order, skipping",
			zap.String("order_id", orderID.String()),
		)
		return nil
	}

	point, err := h.pointRepo.FindByID(ctx, *delivered.PickupPointID)
	if err != nil {
		return fmt.Errorf("failed to load point of sale: %w", err)
	}
	if !point.OrderCommissionRate.IsPositive() {
		h.logger.Info("point has no order commission rate, skipping",
			zap.String("order_id", orderID.String()),
			zap.String("point_id", point.ID.String()),
		)
		return nil
	}

	c, err := commission.NewCommission(
		commission.KindPointOrder,
		point.ID,
		orderID,
		delivered.TotalCost,
		point.OrderCommissionRate,
		commission.StatusCalculated,
	)
	if err != nil {
		return fmt.Errorf("failed to create commission: %w", err)
	}
	if err := h.commissionRepo.Save(ctx, c); err != nil {
		return fmt.Errorf("failed to save commission: %w", err)
	}

	h.logger.Info("pickup order commission created",
		zap.String("commission_id", c.ID.String()),
		zap.String("order_id", orderID.String()),
		zap.String("point_id", point.ID.String()),
		zap.String("amount", c.Amount.String()),
	)
	return nil
}

var _ shared.EventHandler = (*OrderDeliveredHandler)(nil)
