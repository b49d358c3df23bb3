package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/bridgecart/backend/internal/domain/shared"
	"github.com/bridgecart/backend/internal/domain/shared/valueobject"
	"github.com/bridgecart/backend/internal/domain/wallet"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// lockRetries bounds optimistic-lock retry loops on wallet mutations.
const lockRetries = 3

// Service manages wallets and their transaction log.
type Service struct {
	walletRepo wallet.WalletRepository
	txRepo     wallet.TransactionRepository
	publisher  shared.EventPublisher
	logger     *zap.Logger
}

func NewService(
	walletRepo wallet.WalletRepository,
	txRepo wallet.TransactionRepository,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *Service {
	return &Service{
		walletRepo: walletRepo,
		txRepo:     txRepo,
		publisher:  publisher,
		logger:     logger,
	}
}

// Open creates a wallet for the owner if none exists. Idempotent: an
// existing wallet is returned unchanged.
func (s *Service) Open(ctx context.Context, ownerID uuid.UUID, currency valueobject.Currency) (*wallet.Wallet, error) {
	existing, err := s.walletRepo.FindByOwnerID(ctx, ownerID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up wallet: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	number, err := s.walletRepo.NextWalletNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate wallet number: %w", err)
	}

	w, err := wallet.NewWallet(ownerID, number, currency)
	if err != nil {
		return nil, err
	}
	if err := s.walletRepo.Save(ctx, w); err != nil {
		return nil, fmt.Errorf("failed to save wallet: %w", err)
	}

	s.publishEvents(ctx, w)
	s.logger.Info("wallet opened",
		zap.String("wallet_id", w.ID.String()),
		zap.String("owner_id", ownerID.String()),
		zap.String("wallet_number", w.WalletNumber),
	)
	return w, nil
}

// MutationRequest describes one wallet credit or debit.
type MutationRequest struct {
	OwnerID     uuid.UUID
	Amount      decimal.Decimal
	SourceType  wallet.TransactionSourceType
	SourceID    string
	Description string
	OperatorID  *uuid.UUID
}

// MutationResult reports the applied transaction.
type MutationResult struct {
	TransactionID uuid.UUID       `json:"transaction_id"`
	WalletID      uuid.UUID       `json:"wallet_id"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceBefore decimal.Decimal `json:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
}

// Credit adds funds to the owner's wallet.
func (s *Service) Credit(ctx context.Context, req MutationRequest) (*MutationResult, error) {
	return s.mutate(ctx, req, wallet.TransactionKindCredit)
}

// Debit removes funds, rejecting with INSUFFICIENT_FUNDS before any
// mutation when the balance does not cover the amount.
func (s *Service) Debit(ctx context.Context, req MutationRequest) (*MutationResult, error) {
	return s.mutate(ctx, req, wallet.TransactionKindDebit)
}

func (s *Service) mutate(ctx context.Context, req MutationRequest, kind wallet.TransactionKind) (*MutationResult, error) {
	if !req.Amount.IsPositive() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Amount must be positive")
	}

	var lastErr error
	for attempt := 0; attempt < lockRetries; attempt++ {
		w, err := s.walletRepo.FindByOwnerID(ctx, req.OwnerID)
		if err != nil {
			return nil, err
		}

		opts := mutationOptions(req)
		var tx *wallet.Transaction
		if kind.IsDebit() {
			tx, err = w.Debit(req.Amount, req.SourceType, opts...)
		} else {
			tx, err = w.Credit(req.Amount, req.SourceType, opts...)
		}
		if err != nil {
			return nil, err
		}

		if err := s.walletRepo.SaveWithLock(ctx, w); err != nil {
			if errors.Is(err, shared.ErrConcurrencyConflict) {
				lastErr = err
				continue
			}
			return nil, fmt.Errorf("failed to save wallet: %w", err)
		}
		if err := s.txRepo.Create(ctx, tx); err != nil {
			return nil, fmt.Errorf("failed to save transaction: %w", err)
		}

		s.publishEvents(ctx, w)
		return &MutationResult{
			TransactionID: tx.ID,
			WalletID:      w.ID,
			Amount:        req.Amount,
			BalanceBefore: tx.BalanceBefore,
			BalanceAfter:  tx.BalanceAfter,
		}, nil
	}
	return nil, fmt.Errorf("wallet mutation failed after %d attempts: %w", lockRetries, lastErr)
}

func mutationOptions(req MutationRequest) []wallet.TransactionOption {
	var opts []wallet.TransactionOption
	if req.SourceID != "" {
		opts = append(opts, wallet.WithSourceID(req.SourceID))
	}
	if req.Description != "" {
		opts = append(opts, wallet.WithDescription(req.Description))
	}
	if req.OperatorID != nil {
		opts = append(opts, wallet.WithOperatorID(*req.OperatorID))
	}
	return opts
}

// GetBalance returns the owner's current balance.
func (s *Service) GetBalance(ctx context.Context, ownerID uuid.UUID) (decimal.Decimal, error) {
	w, err := s.walletRepo.FindByOwnerID(ctx, ownerID)
	if err != nil {
		return decimal.Zero, err
	}
	return w.Balance, nil
}

// HasSufficientBalance checks whether the owner can cover the amount.
func (s *Service) HasSufficientBalance(ctx context.Context, ownerID uuid.UUID, amount decimal.Decimal) (bool, error) {
	balance, err := s.GetBalance(ctx, ownerID)
	if err != nil {
		return false, err
	}
	return balance.GreaterThanOrEqual(amount), nil
}

// GetStatement returns the ordered, filterable transaction log for
// reporting and export.
func (s *Service) GetStatement(ctx context.Context, filter wallet.TransactionFilter) ([]*wallet.Transaction, int64, error) {
	return s.txRepo.List(ctx, filter)
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
