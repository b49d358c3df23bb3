package payment

import (
	"context"
	"fmt"

	"github.com/bridgecart/backend/internal/domain/payment"
	"github.com/bridgecart/backend/internal/domain/shared"
	"github.com/bridgecart/backend/internal/domain/shared/valueobject"
	"github.com/bridgecart/backend/internal/domain/wallet"
	"github.com/bridgecart/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Service manages payment records and their wallet effects. Gateway calls
// happen strictly before or after wallet mutations, never around them.
type Service struct {
	paymentRepo     payment.Repository
	walletRepo      wallet.WalletRepository
	walletTxs       wallet.TransactionRepository
	gateway         payment.Gateway
	txManager       shared.TransactionManager
	publisher       shared.EventPublisher
	logger          *zap.Logger
	businessMetrics *telemetry.BusinessMetrics
}

// SetBusinessMetrics sets the business metrics collector
func (s *Service) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.businessMetrics = bm
}

func NewService(
	paymentRepo payment.Repository,
	walletRepo wallet.WalletRepository,
	walletTxs wallet.TransactionRepository,
	gateway payment.Gateway,
	txManager shared.TransactionManager,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *Service {
	return &Service{
		paymentRepo: paymentRepo,
		walletRepo:  walletRepo,
		walletTxs:   walletTxs,
		gateway:     gateway,
		txManager:   txManager,
		publisher:   publisher,
		logger:      logger,
	}
}

// CreateRequest opens a payment for an order.
type CreateRequest struct {
	OrderID   uuid.UUID
	PayerID   uuid.UUID
	Amount    decimal.Decimal
	Currency  valueobject.Currency
	Method    payment.PaymentMethod
	Subject   string
	ReturnURL string
	CancelURL string
}

// CreateResult carries the new record and, for gateway payments, the hosted
// payment URL.
type CreateResult struct {
	Record     *payment.PaymentRecord `json:"record"`
	PaymentURL string                 `json:"payment_url,omitempty"`
}

// Create opens a pending payment. For gateway payments it also requests a
// hosted payment from the provider; if the provider is unavailable the
// record stays pending and the error is retryable.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	record, err := payment.NewPaymentRecord(req.OrderID, req.PayerID, req.Amount, req.Currency, req.Method)
	if err != nil {
		return nil, err
	}
	if err := s.paymentRepo.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save payment record: %w", err)
	}
	s.publishEvents(ctx, record)

	result := &CreateResult{Record: record}
	if req.Method != payment.MethodGateway {
		return result, nil
	}

	resp, err := s.gateway.CreatePayment(ctx, payment.CreatePaymentRequest{
		Amount:    req.Amount,
		Currency:  record.Currency,
		OrderRef:  req.OrderID.String(),
		Subject:   req.Subject,
		ReturnURL: req.ReturnURL,
		CancelURL: req.CancelURL,
	})
	if err != nil {
		s.logger.Warn("payment gateway unavailable, record stays pending",
			zap.String("payment_id", record.ID.String()),
			zap.Error(err),
		)
		return result, shared.NewDomainError("GATEWAY_ERROR",
			fmt.Sprintf("Payment gateway unavailable: %v", err))
	}

	if err := record.AttachGatewayTransaction(resp.TransactionID); err != nil {
		return nil, err
	}
	if err := s.paymentRepo.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to link gateway transaction: %w", err)
	}
	result.PaymentURL = resp.PaymentURL
	return result, nil
}

// MarkPaid settles a payment. For wallet payments the payer's balance is
// checked first and debited in the same transaction as the status change.
// Re-marking a paid record is a no-op.
func (s *Service) MarkPaid(ctx context.Context, paymentID uuid.UUID) (*payment.PaymentRecord, error) {
	record, err := s.paymentRepo.FindByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if record.Status == payment.PaymentStatusPaid {
		return record, nil
	}

	var w *wallet.Wallet
	if record.Method.IsWalletBased() {
		w, err = s.walletRepo.FindByOwnerID(ctx, record.PayerID)
		if err != nil {
			return nil, err
		}
		needed := record.Amount
		if record.Status == payment.PaymentStatusRefunded {
			needed = record.RefundedAmount
		}
		if !w.HasSufficientBalance(needed) {
			return nil, shared.NewDomainError("INSUFFICIENT_FUNDS",
				fmt.Sprintf("Insufficient wallet balance: available %s, required %s", w.Balance, needed))
		}
	}

	effect, err := record.MarkPaid()
	if err != nil {
		return nil, err
	}

	err = s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.paymentRepo.SaveWithLock(txCtx, record); err != nil {
			return fmt.Errorf("failed to save payment record: %w", err)
		}
		return s.applyWalletEffect(txCtx, w, record, effect)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, record)
	if w != nil {
		s.publishEvents(ctx, w)
	}
	s.logger.Info("payment marked paid",
		zap.String("payment_id", record.ID.String()),
		zap.String("method", record.Method.String()),
		zap.String("amount", record.Amount.String()),
	)
	if s.businessMetrics != nil {
		s.businessMetrics.RecordPayment(ctx, record.Method.String(), telemetry.PaymentStatusSuccess, record.Amount)
	}
	return record, nil
}

// Refund walks back a paid payment, crediting the payer's wallet for wallet
// payments and requesting a gateway refund for gateway payments.
func (s *Service) Refund(ctx context.Context, paymentID uuid.UUID, amount decimal.Decimal, reason string) (*payment.PaymentRecord, error) {
	record, err := s.paymentRepo.FindByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	var w *wallet.Wallet
	if record.Method.IsWalletBased() {
		w, err = s.walletRepo.FindByOwnerID(ctx, record.PayerID)
		if err != nil {
			return nil, err
		}
	}

	effect, err := record.Refund(amount, reason)
	if err != nil {
		return nil, err
	}

	err = s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.paymentRepo.SaveWithLock(txCtx, record); err != nil {
			return fmt.Errorf("failed to save payment record: %w", err)
		}
		return s.applyWalletEffect(txCtx, w, record, effect)
	})
	if err != nil {
		return nil, err
	}

	if record.Method == payment.MethodGateway && record.GatewayTransactionID != "" {
		if _, err := s.gateway.Refund(ctx, payment.RefundRequest{
			TransactionID: record.GatewayTransactionID,
			Amount:        amount,
			Reason:        reason,
		}); err != nil {
			s.logger.Error("gateway refund request failed, refund recorded locally",
				zap.String("payment_id", record.ID.String()),
				zap.Error(err),
			)
		}
	}

	s.publishEvents(ctx, record)
	if w != nil {
		s.publishEvents(ctx, w)
	}
	return record, nil
}

// VerifyGatewayStatus polls the gateway for a pending payment and settles it
// when the gateway reports success. Safe to call repeatedly.
func (s *Service) VerifyGatewayStatus(ctx context.Context, paymentID uuid.UUID) (*payment.PaymentRecord, error) {
	record, err := s.paymentRepo.FindByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if record.GatewayTransactionID == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Payment has no gateway transaction")
	}

	resp, err := s.gateway.QueryPayment(ctx, record.GatewayTransactionID)
	if err != nil {
		return nil, shared.NewDomainError("GATEWAY_ERROR",
			fmt.Sprintf("Payment status verification failed: %v", err))
	}

	switch resp.Status {
	case payment.GatewayStatusSucceeded:
		return s.MarkPaid(ctx, record.ID)
	case payment.GatewayStatusFailed:
		if err := record.MarkFailed("gateway reported failure"); err != nil {
			return nil, err
		}
		if err := s.paymentRepo.SaveWithLock(ctx, record); err != nil {
			return nil, fmt.Errorf("failed to save payment record: %w", err)
		}
		s.publishEvents(ctx, record)
		if s.businessMetrics != nil {
			s.businessMetrics.RecordPayment(ctx, record.Method.String(), telemetry.PaymentStatusFailed, record.Amount)
		}
		return record, nil
	default:
		return record, nil
	}
}

// UpdateProof attaches proof-of-payment without a status change.
func (s *Service) UpdateProof(ctx context.Context, paymentID uuid.UUID, proof, notes string) error {
	record, err := s.paymentRepo.FindByID(ctx, paymentID)
	if err != nil {
		return err
	}
	record.UpdateProof(proof, notes)
	if err := s.paymentRepo.Save(ctx, record); err != nil {
		return fmt.Errorf("failed to save payment record: %w", err)
	}
	return nil
}

// List returns payments matching the filter.
func (s *Service) List(ctx context.Context, filter payment.PaymentFilter) ([]*payment.PaymentRecord, int64, error) {
	return s.paymentRepo.List(ctx, filter)
}

// SumByStatus aggregates payment amounts for reporting.
func (s *Service) SumByStatus(ctx context.Context, status payment.PaymentStatus) (decimal.Decimal, error) {
	return s.paymentRepo.SumByStatus(ctx, status, nil, nil)
}

func (s *Service) applyWalletEffect(ctx context.Context, w *wallet.Wallet, record *payment.PaymentRecord, effect payment.WalletEffect) error {
	if effect.IsZero() || w == nil {
		return nil
	}

	var tx *wallet.Transaction
	var err error
	switch effect.Kind {
	case payment.EffectDebit:
		tx, err = w.Debit(effect.Amount, wallet.SourceTypePayment,
			wallet.WithSourceID(record.ID.String()))
	case payment.EffectCredit:
		tx, err = w.Credit(effect.Amount, wallet.SourceTypePaymentRefund,
			wallet.WithSourceID(record.ID.String()))
	default:
		return nil
	}
	if err != nil {
		return err
	}

	if err := s.walletRepo.SaveWithLock(ctx, w); err != nil {
		return fmt.Errorf("failed to save wallet: %w", err)
	}
	if err := s.walletTxs.Create(ctx, tx); err != nil {
		return fmt.Errorf("failed to save wallet transaction: %w", err)
	}
	return nil
}

func (s *Service) publishEvents(ctx context.Context, aggregate shared.AggregateRoot) {
	for _, event := range aggregate.GetDomainEvents() {
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Error("failed to publish domain event",
				zap.String("event_type", event.EventType()),
				zap.Error(err),
			)
		}
	}
	aggregate.ClearDomainEvents()
}
