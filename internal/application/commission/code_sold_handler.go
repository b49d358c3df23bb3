package commission

import (
	"context"
	"errors"
	"fmt"

	"github.com/bridgecart/backend/internal/domain/commission"
	"github.com/bridgecart/backend/internal/domain/partner"
	"github.com/bridgecart/backend/internal/domain/shared"
	"github.com/bridgecart/backend/internal/domain/voucher"
	"go.uber.org/zap"
)

// CodeSoldHandler creates the point's commission when a code sale commits.
// The commission starts pending and is confirmed by back office review.
// A handler failure never unwinds the sale itself.
type CodeSoldHandler struct {
	commissionRepo commission.Repository
	pointRepo      partner.PointRepository
	logger         *zap.Logger
}

func NewCodeSoldHandler(
	commissionRepo commission.Repository,
	pointRepo partner.PointRepository,
	logger *zap.Logger,
) *CodeSoldHandler {
	return &CodeSoldHandler{
		commissionRepo: commissionRepo,
		pointRepo:      pointRepo,
		logger:         logger,
	}
}

func (h *CodeSoldHandler) EventTypes() []string {
	return []string{voucher.EventTypeCodeSold}
}

func (h *CodeSoldHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	sold, ok := event.(*voucher.CodeSoldEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			voucher.EventTypeCodeSold, event.EventType())
	}

	distributionID := sold.AggregateID()
	existing, err := h.commissionRepo.FindBySourceID(ctx, distributionID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return fmt.Errorf("failed to check existing commission: %w", err)
	}
	if existing != nil {
		h.logger.Warn("commission already exists for code sale, skipping",
			zap.String("distribution_id", distributionID.String()),
		)
		return nil
	}

	point, err := h.pointRepo.FindByID(ctx, sold.PointID)
	if err != nil {
		return fmt.Errorf("failed to load point of sale: %w", err)
	}
	if !point.CodeCommissionRate.IsPositive() {
		h.logger.Info("point has no code commission rate, skipping",
			zap.String("distribution_id", distributionID.String()),
			zap.String("point_id", point.ID.String()),
		)
		return nil
	}

	c, err := commission.NewCommission(
		commission.KindPointCode,
		point.ID,
		distributionID,
		sold.SalePrice,
		point.CodeCommissionRate,
		commission.StatusPending,
	)
	if err != nil {
		return fmt.Errorf("failed to create commission: %w", err)
	}
	if err := h.commissionRepo.Save(ctx, c); err != nil {
		return fmt.Errorf("failed to save commission: %w", err)
	}

	h.logger.Info("code sale commission created",
		zap.String("commission_id", c.ID.String()),
		zap.String("distribution_id", distributionID.String()),
		zap.String("point_id", point.ID.String()),
		zap.String("amount", c.Amount.String()),
	)
	return nil
}

var _ shared.EventHandler = (*CodeSoldHandler)(nil)
