package settlement

import (
	"context"
	"errors"
	"fmt"

	"github.com/bridgecart/backend/internal/domain/commission"
	"github.com/bridgecart/backend/internal/domain/partner"
	"github.com/bridgecart/backend/internal/domain/shared"
	"github.com/bridgecart/backend/internal/domain/voucher"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const recalcPageSize = 200

// RecalculationService rebuilds the materialized counters on agents and
// points of sale from their source records. The incremental updates on the
// hot path can drift after manual fixes or partial failures; reconciliation
// restores them from the records of truth.
type RecalculationService struct {
	agentRepo        partner.AgentRepository
	pointRepo        partner.PointRepository
	agentOrderRepo   partner.AgentOrderRepository
	commissionRepo   commission.Repository
	distributionRepo voucher.DistributionRepository
	logger           *zap.Logger
}

func NewRecalculationService(
	agentRepo partner.AgentRepository,
	pointRepo partner.PointRepository,
	agentOrderRepo partner.AgentOrderRepository,
	commissionRepo commission.Repository,
	distributionRepo voucher.DistributionRepository,
	logger *zap.Logger,
) *RecalculationService {
	return &RecalculationService{
		agentRepo:        agentRepo,
		pointRepo:        pointRepo,
		agentOrderRepo:   agentOrderRepo,
		commissionRepo:   commissionRepo,
		distributionRepo: distributionRepo,
		logger:           logger,
	}
}

// RecalculateAgent rebuilds one agent's counters.
func (s *RecalculationService) RecalculateAgent(ctx context.Context, agentID uuid.UUID) (*partner.Agent, error) {
	agent, err := s.agentRepo.FindByID(ctx, agentID)
	if err != nil {
		return nil, err
	}

	totalCommissions, err := s.commissionRepo.SumByBeneficiary(ctx, agentID,
		[]commission.CommissionStatus{commission.StatusPending, commission.StatusCalculated, commission.StatusPaid})
	if err != nil {
		return nil, fmt.Errorf("failed to sum commissions: %w", err)
	}
	totalEarnings, err := s.commissionRepo.SumByBeneficiary(ctx, agentID,
		[]commission.CommissionStatus{commission.StatusPaid})
	if err != nil {
		return nil, fmt.Errorf("failed to sum earnings: %w", err)
	}

	totalPaid := decimal.Zero
	pending := decimal.Zero
	if err := s.forEachAgentOrder(ctx, agentID, func(order *partner.AgentOrder) error {
		switch order.Status {
		case partner.AgentOrderStatusPaid:
			totalPaid = totalPaid.Add(order.PaidAmount)
		case partner.AgentOrderStatusPending, partner.AgentOrderStatusProcessing:
			owed, err := s.amountOwed(ctx, order)
			if err != nil {
				return err
			}
			pending = pending.Add(owed)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	agent.ApplyRecalculated(totalCommissions, totalEarnings, totalPaid, pending)
	if err := s.agentRepo.SaveWithLock(ctx, agent); err != nil {
		return nil, fmt.Errorf("failed to save agent: %w", err)
	}

	s.logger.Info("agent counters rebuilt",
		zap.String("agent_id", agentID.String()),
		zap.String("total_commissions", totalCommissions.String()),
		zap.String("total_paid", totalPaid.String()),
		zap.String("pending", pending.String()),
	)
	return agent, nil
}

// RecalculatePoint rebuilds one point's code counters from its distributions.
func (s *RecalculationService) RecalculatePoint(ctx context.Context, pointID uuid.UUID) (*partner.PointOfSale, error) {
	point, err := s.pointRepo.FindByID(ctx, pointID)
	if err != nil {
		return nil, err
	}

	counts := make(map[voucher.DistributionStatus]int64, 4)
	for _, status := range []voucher.DistributionStatus{
		voucher.DistributionStatusDistributed,
		voucher.DistributionStatusSold,
		voucher.DistributionStatusReturned,
		voucher.DistributionStatusExpired,
	} {
		count, err := s.distributionRepo.CountByPointIDAndStatus(ctx, pointID, status)
		if err != nil {
			return nil, fmt.Errorf("failed to count distributions: %w", err)
		}
		counts[status] = count
	}

	available := int(counts[voucher.DistributionStatusDistributed])
	sold := int(counts[voucher.DistributionStatusSold])
	returned := int(counts[voucher.DistributionStatusReturned])
	expired := int(counts[voucher.DistributionStatusExpired])

	point.ApplyRecalculated(available, available+sold+returned+expired, sold)
	if err := s.pointRepo.SaveWithLock(ctx, point); err != nil {
		return nil, fmt.Errorf("failed to save point: %w", err)
	}

	s.logger.Info("point counters rebuilt",
		zap.String("point_id", pointID.String()),
		zap.Int("available", available),
		zap.Int("sold", sold),
	)
	return point, nil
}

// amountOwed is the order total less the commission actually recorded for it.
// Recomputing from the agent's current rate would poison the rebuild after a
// rate change; the commission record carries the snapshot.
func (s *RecalculationService) amountOwed(ctx context.Context, order *partner.AgentOrder) (decimal.Decimal, error) {
	c, err := s.commissionRepo.FindBySourceID(ctx, order.ID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return order.TotalCost, nil
		}
		return decimal.Zero, err
	}
	if c.Status == commission.StatusCancelled {
		return order.TotalCost, nil
	}
	return order.TotalCost.Sub(c.Amount), nil
}

func (s *RecalculationService) forEachAgentOrder(ctx context.Context, agentID uuid.UUID, fn func(*partner.AgentOrder) error) error {
	filter := partner.AgentOrderFilter{AgentID: &agentID, PageSize: recalcPageSize}
	for page := 1; ; page++ {
		filter.Page = page
		orders, total, err := s.agentOrderRepo.List(ctx, filter)
		if err != nil {
			return fmt.Errorf("failed to list agent orders: %w", err)
		}
		for _, order := range orders {
			if err := fn(order); err != nil {
				return err
			}
		}
		if int64(page*recalcPageSize) >= total || len(orders) == 0 {
			return nil
		}
	}
}
