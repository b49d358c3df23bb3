package payment

import (
	"context"
	"fmt"

	"github.com/bridgecart/backend/internal/domain/payment"
	"github.com/bridgecart/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// CallbackService processes inbound gateway webhooks. Gateways may deliver
// the same notification more than once; an idempotency store keyed by
// transaction and status makes repeats no-ops.
type CallbackService struct {
	paymentSvc  *Service
	paymentRepo payment.Repository
	gateway     payment.Gateway
	idempotency shared.IdempotencyStore
	logger      *zap.Logger
}

func NewCallbackService(
	paymentSvc *Service,
	paymentRepo payment.Repository,
	gateway payment.Gateway,
	idempotency shared.IdempotencyStore,
	logger *zap.Logger,
) *CallbackService {
	return &CallbackService{
		paymentSvc:  paymentSvc,
		paymentRepo: paymentRepo,
		gateway:     gateway,
		idempotency: idempotency,
		logger:      logger,
	}
}

// HandleWebhook verifies the signature, deduplicates the delivery and
// applies the reported status to the matching payment record.
func (s *CallbackService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	notification, err := s.gateway.VerifyWebhook(payload, signature)
	if err != nil {
		s.logger.Warn("webhook signature verification failed", zap.Error(err))
		return shared.NewDomainError("UNAUTHORIZED", "Invalid webhook signature")
	}

	key := fmt.Sprintf("webhook:%s:%s", notification.TransactionID, notification.Status)
	fresh, err := s.idempotency.MarkProcessed(ctx, key, shared.DefaultIdempotencyConfig().TTL)
	if err != nil {
		return fmt.Errorf("failed to check webhook idempotency: %w", err)
	}
	if !fresh {
		s.logger.Info("duplicate webhook delivery skipped",
			zap.String("transaction_id", notification.TransactionID),
			zap.String("status", string(notification.Status)),
		)
		return nil
	}

	record, err := s.paymentRepo.FindByGatewayTransactionID(ctx, notification.TransactionID)
	if err != nil {
		return err
	}

	switch notification.Status {
	case payment.GatewayStatusSucceeded:
		_, err = s.paymentSvc.MarkPaid(ctx, record.ID)
	case payment.GatewayStatusFailed:
		if markErr := record.MarkFailed("gateway webhook reported failure"); markErr != nil {
			return markErr
		}
		if saveErr := s.paymentRepo.SaveWithLock(ctx, record); saveErr != nil {
			return fmt.Errorf("failed to save payment record: %w", saveErr)
		}
	default:
		s.logger.Info("webhook with non-final status ignored",
			zap.String("transaction_id", notification.TransactionID),
			zap.String("status", string(notification.Status)),
		)
	}
	if err != nil {
		return err
	}

	s.logger.Info("webhook processed",
		zap.String("transaction_id", notification.TransactionID),
		zap.String("status", string(notification.Status)),
		zap.String("payment_id", record.ID.String()),
	)
	return nil
}
