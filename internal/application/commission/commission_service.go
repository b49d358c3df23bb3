package commission

import (
	"context"
	"fmt"

	"github.com/bridgecart/backend/internal/domain/commission"
	"github.com/bridgecart/backend/internal/domain/partner"
	"github.com/bridgecart/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Service pays out and reports commissions. Creation happens in the event
// handlers; the service covers the administrative side of the lifecycle.
type Service struct {
	commissionRepo commission.Repository
	agentRepo      partner.AgentRepository
	txManager      shared.TransactionManager
	publisher      shared.EventPublisher
	logger         *zap.Logger
}

func NewService(
	commissionRepo commission.Repository,
	agentRepo partner.AgentRepository,
	txManager shared.TransactionManager,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *Service {
	return &Service{
		commissionRepo: commissionRepo,
		agentRepo:      agentRepo,
		txManager:      txManager,
		publisher:      publisher,
		logger:         logger,
	}
}

// Confirm promotes a pending commission to calculated.
func (s *Service) Confirm(ctx context.Context, commissionID uuid.UUID) (*commission.Commission, error) {
	c, err := s.commissionRepo.FindByID(ctx, commissionID)
	if err != nil {
		return nil, err
	}
	if err := c.MarkCalculated(); err != nil {
		return nil, err
	}
	if err := s.commissionRepo.Save(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to save commission: %w", err)
	}
	return c, nil
}

// MarkPaid settles a commission payout. For agent commissions the agent's
// earnings counter moves in the same transaction.
func (s *Service) MarkPaid(ctx context.Context, commissionID, paidBy uuid.UUID, method string) (*commission.Commission, error) {
	c, err := s.commissionRepo.FindByID(ctx, commissionID)
	if err != nil {
		return nil, err
	}
	if err := c.MarkPaid(paidBy, method); err != nil {
		return nil, err
	}

	err = s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.commissionRepo.Save(txCtx, c); err != nil {
			return fmt.Errorf("failed to save commission: %w", err)
		}
		if c.Kind != commission.KindAgentOrder {
			return nil
		}
		agent, err := s.agentRepo.FindByID(txCtx, c.BeneficiaryID)
		if err != nil {
			return err
		}
		if err := agent.RecordEarnings(c.Amount); err != nil {
			return err
		}
		return s.agentRepo.SaveWithLock(txCtx, agent)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, c)
	s.logger.Info("commission paid",
		zap.String("commission_id", c.ID.String()),
		zap.String("kind", c.Kind.String()),
		zap.String("beneficiary_id", c.BeneficiaryID.String()),
		zap.String("amount", c.Amount.String()),
	)
	return c, nil
}

// Cancel voids an unpaid commission.
func (s *Service) Cancel(ctx context.Context, commissionID uuid.UUID, reason string) error {
	c, err := s.commissionRepo.FindByID(ctx, commissionID)
	if err != nil {
		return err
	}
	if err := c.Cancel(reason); err != nil {
		return err
	}
	if err := s.commissionRepo.Save(ctx, c); err != nil {
		return fmt.Errorf("failed to save commission: %w", err)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, commissionID uuid.UUID) (*commission.Commission, error) {
	return s.commissionRepo.FindByID(ctx, commissionID)
}

func (s *Service) List(ctx context.Context, filter commission.Filter) ([]*commission.Commission, int64, error) {
	return s.commissionRepo.List(ctx, filter)
}

// BeneficiarySummary reports total owed and total settled for one beneficiary.
type BeneficiarySummary struct {
	BeneficiaryID uuid.UUID       `json:"beneficiary_id"`
	Outstanding   decimal.Decimal `json:"outstanding"`
	Paid          decimal.Decimal `json:"paid"`
}

func (s *Service) SummarizeBeneficiary(ctx context.Context, beneficiaryID uuid.UUID) (*BeneficiarySummary, error) {
	outstanding, err := s.commissionRepo.SumByBeneficiary(ctx, beneficiaryID,
		[]commission.CommissionStatus{commission.StatusPending, commission.StatusCalculated})
	if err != nil {
		return nil, err
	}
	paid, err := s.commissionRepo.SumByBeneficiary(ctx, beneficiaryID,
		[]commission.CommissionStatus{commission.StatusPaid})
	if err != nil {
		return nil, err
	}
	return &BeneficiarySummary{
		BeneficiaryID: beneficiaryID,
		Outstanding:   outstanding,
		Paid:          paid,
	}, nil
}

func (s *Service) publishEvents(ctx context.Context, aggregate shared.AggregateRoot) {
	events := aggregate.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Error("failed to publish domain events", zap.Error(err))
	}
	aggregate.ClearDomainEvents()
}
