package settlement

import (
	"context"
	"errors"
	"fmt"

	"github.com/bridgecart/backend/internal/domain/commission"
	"github.com/bridgecart/backend/internal/domain/partner"
	"github.com/bridgecart/backend/internal/domain/shared"
	"github.com/bridgecart/backend/internal/domain/shared/valueobject"
	"github.com/bridgecart/backend/internal/domain/trade"
	"github.com/bridgecart/backend/internal/domain/voucher"
	"github.com/bridgecart/backend/internal/domain/wallet"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Service coordinates the settlement flows that span aggregates: agent order
// submission, agent settlement towards the platform, code distribution and
// sale, and pickup confirmation.
type Service struct {
	agentOrderRepo   partner.AgentOrderRepository
	agentRepo        partner.AgentRepository
	pointRepo        partner.PointRepository
	orderRepo        trade.Repository
	codeRepo         voucher.CodeRepository
	distributionRepo voucher.DistributionRepository
	commissionRepo   commission.Repository
	walletRepo       wallet.WalletRepository
	walletTxs        wallet.TransactionRepository
	txManager        shared.TransactionManager
	publisher        shared.EventPublisher
	logger           *zap.Logger
}

func NewService(
	agentOrderRepo partner.AgentOrderRepository,
	agentRepo partner.AgentRepository,
	pointRepo partner.PointRepository,
	orderRepo trade.Repository,
	codeRepo voucher.CodeRepository,
	distributionRepo voucher.DistributionRepository,
	commissionRepo commission.Repository,
	walletRepo wallet.WalletRepository,
	walletTxs wallet.TransactionRepository,
	txManager shared.TransactionManager,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *Service {
	return &Service{
		agentOrderRepo:   agentOrderRepo,
		agentRepo:        agentRepo,
		pointRepo:        pointRepo,
		orderRepo:        orderRepo,
		codeRepo:         codeRepo,
		distributionRepo: distributionRepo,
		commissionRepo:   commissionRepo,
		walletRepo:       walletRepo,
		walletTxs:        walletTxs,
		txManager:        txManager,
		publisher:        publisher,
		logger:           logger,
	}
}

// CreateAgentOrderRequest drafts a new agent order.
type CreateAgentOrderRequest struct {
	AgentID     uuid.UUID            `json:"agent_id"`
	TotalCost   decimal.Decimal      `json:"total_cost"`
	Currency    valueobject.Currency `json:"currency"`
	Description string               `json:"description"`
}

func (s *Service) CreateAgentOrder(ctx context.Context, req CreateAgentOrderRequest) (*partner.AgentOrder, error) {
	agent, err := s.agentRepo.FindByID(ctx, req.AgentID)
	if err != nil {
		return nil, err
	}
	if !agent.Active {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Agent is not active")
	}

	orderNumber, err := s.agentOrderRepo.NextOrderNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to generate order number: %w", err)
	}
	order, err := partner.NewAgentOrder(agent.ID, orderNumber, req.TotalCost, req.Currency, req.Description)
	if err != nil {
		return nil, err
	}
	if err := s.agentOrderRepo.Save(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to save agent order: %w", err)
	}
	s.publishEvents(ctx, order)
	return order, nil
}

// SubmitRequest submits an agent order to the platform, creating the
// downstream trade order that fulfils it.
type SubmitRequest struct {
	AgentOrderID    uuid.UUID  `json:"agent_order_id"`
	CustomerID      uuid.UUID  `json:"customer_id"`
	PickupPointID   *uuid.UUID `json:"pickup_point_id,omitempty"`
	DeliveryAddress string     `json:"delivery_address,omitempty"`
	ActorID         *uuid.UUID `json:"actor_id,omitempty"`
}

// SubmitResult reports one submission outcome.
type SubmitResult struct {
	AgentOrder      *partner.AgentOrder `json:"agent_order"`
	DownstreamOrder *trade.Order        `json:"downstream_order"`
	AlreadyLinked   bool                `json:"already_linked"`
}

// SubmitAgentOrder is idempotent: a resubmission whose downstream order still
// exists succeeds without creating anything; a dangling link is cleared and
// the order recreated.
func (s *Service) SubmitAgentOrder(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	agentOrder, err := s.agentOrderRepo.FindByID(ctx, req.AgentOrderID)
	if err != nil {
		return nil, err
	}

	if agentOrder.DownstreamOrderID != nil {
		existing, err := s.orderRepo.FindByID(ctx, *agentOrder.DownstreamOrderID)
		switch {
		case err == nil:
			return &SubmitResult{AgentOrder: agentOrder, DownstreamOrder: existing, AlreadyLinked: true}, nil
		case errors.Is(err, shared.ErrNotFound):
			agentOrder.ClearDownstreamOrder()
		default:
			return nil, err
		}
	}

	if !agentOrder.CanSubmit() {
		return nil, shared.NewDomainError("VALIDATION_ERROR",
			fmt.Sprintf("Cannot submit order from status %s", agentOrder.Status))
	}

	agent, err := s.agentRepo.FindByID(ctx, agentOrder.AgentID)
	if err != nil {
		return nil, err
	}

	delivery, err := s.buildDelivery(ctx, req)
	if err != nil {
		return nil, err
	}

	orderNumber, err := s.orderRepo.NextOrderNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to generate order number: %w", err)
	}
	order, err := trade.NewOrder(orderNumber, req.CustomerID, agentOrder.TotalCost, agentOrder.Currency, delivery)
	if err != nil {
		return nil, err
	}
	if err := order.LinkAgentOrder(agentOrder.ID); err != nil {
		return nil, err
	}
	if err := agentOrder.LinkDownstreamOrder(order.ID); err != nil {
		return nil, err
	}
	if err := agentOrder.MarkSubmitted(req.ActorID, agent.CommissionRate); err != nil {
		return nil, err
	}

	commissionAmount := commissionFor(agentOrder.TotalCost, agent.CommissionRate)
	if err := agent.RecordSubmission(commissionAmount, agentOrder.TotalCost); err != nil {
		return nil, err
	}

	err = s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.orderRepo.Save(txCtx, order); err != nil {
			return fmt.Errorf("failed to save order: %w", err)
		}
		if err := s.agentOrderRepo.SaveWithLock(txCtx, agentOrder); err != nil {
			return fmt.Errorf("failed to save agent order: %w", err)
		}
		return s.agentRepo.SaveWithLock(txCtx, agent)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, agentOrder)
	s.publishEvents(ctx, order)
	s.logger.Info("agent order submitted",
		zap.String("agent_order_id", agentOrder.ID.String()),
		zap.String("order_id", order.ID.String()),
		zap.String("agent_id", agent.ID.String()),
	)
	return &SubmitResult{AgentOrder: agentOrder, DownstreamOrder: order}, nil
}

// BatchSubmitResult isolates per-order outcomes so one failure does not
// abort the rest of the batch.
type BatchSubmitResult struct {
	AgentOrderID uuid.UUID     `json:"agent_order_id"`
	Result       *SubmitResult `json:"result,omitempty"`
	Error        string        `json:"error,omitempty"`
}

func (s *Service) BatchSubmit(ctx context.Context, requests []SubmitRequest) []BatchSubmitResult {
	results := make([]BatchSubmitResult, 0, len(requests))
	for _, req := range requests {
		result, err := s.SubmitAgentOrder(ctx, req)
		entry := BatchSubmitResult{AgentOrderID: req.AgentOrderID, Result: result}
		if err != nil {
			entry.Error = err.Error()
			s.logger.Warn("batch submission entry failed",
				zap.String("agent_order_id", req.AgentOrderID.String()),
				zap.Error(err),
			)
		}
		results = append(results, entry)
	}
	return results
}

// AgentPaymentRequest settles an agent order towards the platform. The due
// amount is the order total less the agent's commission.
type AgentPaymentRequest struct {
	AgentOrderID     uuid.UUID  `json:"agent_order_id"`
	Method           string     `json:"method"`
	Proof            string     `json:"proof,omitempty"`
	ActorID          *uuid.UUID `json:"actor_id,omitempty"`
	SettleCommission bool       `json:"settle_commission"`
}

const methodWallet = "WALLET"

// MarkAgentPayment records the agent's settlement. Wallet payments debit the
// agent's wallet for the due amount in the same transaction; when
// SettleCommission is set the matching commission is paid out as well.
func (s *Service) MarkAgentPayment(ctx context.Context, req AgentPaymentRequest) (*partner.AgentOrder, error) {
	agentOrder, err := s.agentOrderRepo.FindByID(ctx, req.AgentOrderID)
	if err != nil {
		return nil, err
	}
	if agentOrder.IsPaid() {
		return nil, shared.NewDomainError("ALREADY_APPLIED", "Agent order has already been paid")
	}
	agent, err := s.agentRepo.FindByID(ctx, agentOrder.AgentID)
	if err != nil {
		return nil, err
	}

	// The due amount is computed from the commission recorded at submission,
	// not from the agent's current rate. Recomputing here would debit the
	// wrong amount after a rate change and leave PendingAmount drifted.
	linked, err := s.commissionRepo.FindBySourceID(ctx, agentOrder.ID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
		linked = nil
	}
	var commissionAmount decimal.Decimal
	switch {
	case linked == nil:
		commissionAmount = commissionFor(agentOrder.TotalCost, agent.CommissionRate)
	case linked.Status == commission.StatusCancelled:
		commissionAmount = decimal.Zero
	default:
		commissionAmount = linked.Amount
	}
	dueAmount := agentOrder.TotalCost.Sub(commissionAmount)

	var w *wallet.Wallet
	var walletTx *wallet.Transaction
	if req.Method == methodWallet {
		w, err = s.walletRepo.FindByOwnerID(ctx, agent.UserID)
		if err != nil {
			return nil, err
		}
		if !w.HasSufficientBalance(dueAmount) {
			return nil, shared.NewDomainError("INSUFFICIENT_FUNDS",
				fmt.Sprintf("Insufficient wallet balance: available %s, required %s", w.Balance, dueAmount))
		}
	}

	if err := agentOrder.MarkPaid(dueAmount, req.Method, req.Proof, req.ActorID); err != nil {
		return nil, err
	}
	if err := agent.RecordPlatformPayment(dueAmount); err != nil {
		return nil, err
	}
	if w != nil {
		walletTx, err = w.Debit(dueAmount, wallet.SourceTypeAgentSettlement,
			wallet.WithSourceID(agentOrder.ID.String()),
			wallet.WithDescription(fmt.Sprintf("Settlement of agent order %s", agentOrder.OrderNumber)),
		)
		if err != nil {
			return nil, err
		}
	}

	var paidCommission *commission.Commission
	if req.SettleCommission && commissionAmount.IsPositive() {
		if linked == nil {
			return nil, shared.NewDomainError("VALIDATION_ERROR",
				"No commission exists for this order yet")
		}
		paidCommission, err = s.settleCommission(linked, agent, req)
		if err != nil {
			return nil, err
		}
	}

	err = s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.agentOrderRepo.SaveWithLock(txCtx, agentOrder); err != nil {
			return fmt.Errorf("failed to save agent order: %w", err)
		}
		if err := s.agentRepo.SaveWithLock(txCtx, agent); err != nil {
			return fmt.Errorf("failed to save agent: %w", err)
		}
		if w != nil {
			if err := s.walletRepo.SaveWithLock(txCtx, w); err != nil {
				return fmt.Errorf("failed to save wallet: %w", err)
			}
			if err := s.walletTxs.Create(txCtx, walletTx); err != nil {
				return fmt.Errorf("failed to record wallet transaction: %w", err)
			}
		}
		if paidCommission != nil {
			if err := s.commissionRepo.Save(txCtx, paidCommission); err != nil {
				return fmt.Errorf("failed to save commission: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, agentOrder)
	s.publishEvents(ctx, agent)
	if w != nil {
		s.publishEvents(ctx, w)
	}
	if paidCommission != nil {
		s.publishEvents(ctx, paidCommission)
	}
	s.logger.Info("agent payment recorded",
		zap.String("agent_order_id", agentOrder.ID.String()),
		zap.String("method", req.Method),
		zap.String("due_amount", dueAmount.String()),
	)
	return agentOrder, nil
}

func (s *Service) settleCommission(c *commission.Commission, agent *partner.Agent, req AgentPaymentRequest) (*commission.Commission, error) {
	paidBy := uuid.Nil
	if req.ActorID != nil {
		paidBy = *req.ActorID
	}
	if err := c.MarkPaid(paidBy, req.Method); err != nil {
		return nil, err
	}
	if err := agent.RecordEarnings(c.Amount); err != nil {
		return nil, err
	}
	return c, nil
}

// DistributeRequest hands a batch of codes to a point of sale.
type DistributeRequest struct {
	PointID         uuid.UUID       `json:"point_id"`
	CodeIDs         []uuid.UUID     `json:"code_ids"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	DistributedBy   uuid.UUID       `json:"distributed_by"`
}

// DistributeCodes is all or nothing: every code must be active and not yet
// distributed, or no distribution happens.
func (s *Service) DistributeCodes(ctx context.Context, req DistributeRequest) ([]*voucher.CodeDistribution, error) {
	if len(req.CodeIDs) == 0 {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "At least one code is required")
	}
	point, err := s.pointRepo.FindByID(ctx, req.PointID)
	if err != nil {
		return nil, err
	}
	if !point.Active {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Point of sale is not active")
	}

	distributions := make([]*voucher.CodeDistribution, 0, len(req.CodeIDs))
	for _, codeID := range req.CodeIDs {
		code, err := s.codeRepo.FindByID(ctx, codeID)
		if err != nil {
			return nil, err
		}
		if !code.IsActive() {
			return nil, shared.NewDomainError("VALIDATION_ERROR",
				fmt.Sprintf("Code %s is not active: %s", code.Code, code.State()))
		}
		if _, err := s.distributionRepo.FindByCodeID(ctx, codeID); err == nil {
			return nil, shared.NewDomainError("VALIDATION_ERROR",
				fmt.Sprintf("Code %s has already been distributed", code.Code))
		} else if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}

		d, err := voucher.NewCodeDistribution(codeID, point.ID, code.Value, req.DiscountPercent, req.DistributedBy)
		if err != nil {
			return nil, err
		}
		distributions = append(distributions, d)
	}

	if err := point.RecordDistribution(len(distributions)); err != nil {
		return nil, err
	}

	err = s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.distributionRepo.SaveBatch(txCtx, distributions); err != nil {
			return fmt.Errorf("failed to save distributions: %w", err)
		}
		return s.pointRepo.SaveWithLock(txCtx, point)
	})
	if err != nil {
		return nil, err
	}

	for _, d := range distributions {
		s.publishEvents(ctx, d)
	}
	s.publishEvents(ctx, point)
	s.logger.Info("codes distributed",
		zap.String("point_id", point.ID.String()),
		zap.Int("count", len(distributions)),
	)
	return distributions, nil
}

// SellCodeRequest finalizes a code sale at a point of sale. When the buyer
// is a known customer the code is redeemed into their wallet on the spot,
// for the code's original value regardless of the sale price.
type SellCodeRequest struct {
	DistributionID uuid.UUID       `json:"distribution_id"`
	SalePrice      decimal.Decimal `json:"sale_price"`
	CustomerID     *uuid.UUID      `json:"customer_id,omitempty"`
}

func (s *Service) SellCode(ctx context.Context, req SellCodeRequest) (*voucher.CodeDistribution, error) {
	distribution, err := s.distributionRepo.FindByID(ctx, req.DistributionID)
	if err != nil {
		return nil, err
	}
	code, err := s.codeRepo.FindByID(ctx, distribution.CodeID)
	if err != nil {
		return nil, err
	}
	point, err := s.pointRepo.FindByID(ctx, distribution.PointID)
	if err != nil {
		return nil, err
	}

	var w *wallet.Wallet
	var walletTx *wallet.Transaction
	var openedWallet bool
	if req.CustomerID != nil {
		w, openedWallet, err = s.walletForOwner(ctx, *req.CustomerID, code.Currency)
		if err != nil {
			return nil, err
		}
		if err := code.Redeem(*req.CustomerID); err != nil {
			return nil, err
		}
		walletTx, err = w.Credit(code.Value, wallet.SourceTypeRedemptionCode,
			wallet.WithSourceID(code.Code),
			wallet.WithDescription(fmt.Sprintf("Redemption of code %s", code.Code)),
		)
		if err != nil {
			return nil, err
		}
	}

	if err := distribution.MarkSold(req.SalePrice, req.CustomerID); err != nil {
		return nil, err
	}
	if err := point.RecordSale(); err != nil {
		return nil, err
	}

	err = s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.distributionRepo.Save(txCtx, distribution); err != nil {
			return fmt.Errorf("failed to save distribution: %w", err)
		}
		if err := s.pointRepo.SaveWithLock(txCtx, point); err != nil {
			return fmt.Errorf("failed to save point: %w", err)
		}
		if w == nil {
			return nil
		}
		if err := s.codeRepo.SaveWithLock(txCtx, code); err != nil {
			return fmt.Errorf("failed to save code: %w", err)
		}
		if openedWallet {
			if err := s.walletRepo.Save(txCtx, w); err != nil {
				return fmt.Errorf("failed to save wallet: %w", err)
			}
		} else if err := s.walletRepo.SaveWithLock(txCtx, w); err != nil {
			return fmt.Errorf("failed to save wallet: %w", err)
		}
		return s.walletTxs.Create(txCtx, walletTx)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, distribution)
	s.publishEvents(ctx, point)
	if w != nil {
		s.publishEvents(ctx, code)
		s.publishEvents(ctx, w)
	}
	s.logger.Info("code sold",
		zap.String("distribution_id", distribution.ID.String()),
		zap.String("point_id", point.ID.String()),
		zap.String("sale_price", req.SalePrice.String()),
	)
	return distribution, nil
}

// ReturnCode takes back an unsold code from a point of sale. The code itself
// is permanently retired; returns earn no commission.
func (s *Service) ReturnCode(ctx context.Context, distributionID uuid.UUID, reason string) (*voucher.CodeDistribution, error) {
	distribution, err := s.distributionRepo.FindByID(ctx, distributionID)
	if err != nil {
		return nil, err
	}
	code, err := s.codeRepo.FindByID(ctx, distribution.CodeID)
	if err != nil {
		return nil, err
	}
	point, err := s.pointRepo.FindByID(ctx, distribution.PointID)
	if err != nil {
		return nil, err
	}

	if err := distribution.MarkReturned(); err != nil {
		return nil, err
	}
	if err := code.Disable(reason); err != nil {
		return nil, err
	}
	if err := point.RecordCodeReturn(); err != nil {
		return nil, err
	}

	err = s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.distributionRepo.Save(txCtx, distribution); err != nil {
			return fmt.Errorf("failed to save distribution: %w", err)
		}
		if err := s.codeRepo.SaveWithLock(txCtx, code); err != nil {
			return fmt.Errorf("failed to save code: %w", err)
		}
		return s.pointRepo.SaveWithLock(txCtx, point)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, distribution)
	s.publishEvents(ctx, code)
	s.publishEvents(ctx, point)
	return distribution, nil
}

// ConfirmPickup marks a pickup order collected by the customer. Delivering
// twice is rejected, so commission cannot be awarded twice.
func (s *Service) ConfirmPickup(ctx context.Context, orderID uuid.UUID) (*trade.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := order.MarkDelivered(); err != nil {
		return nil, err
	}
	if err := s.orderRepo.SaveWithLock(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to save order: %w", err)
	}

	s.publishEvents(ctx, order)
	s.logger.Info("order delivered",
		zap.String("order_id", order.ID.String()),
		zap.String("delivery_kind", string(order.Delivery.Kind)),
	)
	return order, nil
}

func (s *Service) buildDelivery(ctx context.Context, req SubmitRequest) (trade.Delivery, error) {
	if req.PickupPointID != nil {
		point, err := s.pointRepo.FindByID(ctx, *req.PickupPointID)
		if err != nil {
			return trade.Delivery{}, err
		}
		if !point.Active {
			return trade.Delivery{}, shared.NewDomainError("VALIDATION_ERROR", "Pickup point is not active")
		}
		return trade.NewPickupDelivery(point.ID)
	}
	return trade.NewHomeDelivery(req.DeliveryAddress)
}

// walletForOwner loads the owner's wallet, opening a fresh one on the first
// credit. The second return reports whether the wallet is new and still
// needs an insert rather than a locked update.
func (s *Service) walletForOwner(ctx context.Context, ownerID uuid.UUID, currency valueobject.Currency) (*wallet.Wallet, bool, error) {
	w, err := s.walletRepo.FindByOwnerID(ctx, ownerID)
	if err == nil {
		return w, false, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, false, err
	}

	number, err := s.walletRepo.NextWalletNumber(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to allocate wallet number: %w", err)
	}
	w, err = wallet.NewWallet(ownerID, number, currency)
	if err != nil {
		return nil, false, err
	}
	return w, true, nil
}

func commissionFor(total, rate decimal.Decimal) decimal.Decimal {
	if !rate.IsPositive() {
		return decimal.Zero
	}
	return total.Mul(rate).Div(decimal.NewFromInt(100)).Round(2)
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
