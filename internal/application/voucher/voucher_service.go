package voucher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bridgecart/backend/internal/domain/shared"
	"github.com/bridgecart/backend/internal/domain/shared/valueobject"
	"github.com/bridgecart/backend/internal/domain/voucher"
	"github.com/bridgecart/backend/internal/domain/wallet"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Service manages redemption code issuance and redemption.
type Service struct {
	codeRepo   voucher.CodeRepository
	walletRepo wallet.WalletRepository
	walletTxs  wallet.TransactionRepository
	generator  *voucher.CodeGenerator
	txManager  shared.TransactionManager
	publisher  shared.EventPublisher
	logger     *zap.Logger
}

func NewService(
	codeRepo voucher.CodeRepository,
	walletRepo wallet.WalletRepository,
	walletTxs wallet.TransactionRepository,
	txManager shared.TransactionManager,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *Service {
	return &Service{
		codeRepo:   codeRepo,
		walletRepo: walletRepo,
		walletTxs:  walletTxs,
		generator:  voucher.NewCodeGenerator(codeRepo),
		txManager:  txManager,
		publisher:  publisher,
		logger:     logger,
	}
}

// GenerateRequest describes a code issuance batch.
type GenerateRequest struct {
	Count      int
	CodeLength int
	Value      decimal.Decimal
	Currency   valueobject.Currency
	ExpiresAt  *time.Time
	Notes      string
	CreatedBy  uuid.UUID
}

// Generate issues one or more codes with the same face value.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) ([]*voucher.RedemptionCode, error) {
	if req.Count <= 0 {
		req.Count = 1
	}
	if req.Count > 1000 {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Cannot generate more than 1000 codes per batch")
	}

	codes := make([]*voucher.RedemptionCode, 0, req.Count)
	for i := 0; i < req.Count; i++ {
		raw, err := s.generator.Generate(ctx, req.CodeLength)
		if err != nil {
			return nil, err
		}

		var opts []voucher.CodeOption
		if req.ExpiresAt != nil {
			opts = append(opts, voucher.WithExpiry(*req.ExpiresAt))
		}
		if req.Notes != "" {
			opts = append(opts, voucher.WithNotes(req.Notes))
		}

		code, err := voucher.NewRedemptionCode(raw, req.Value, req.Currency, req.CreatedBy, opts...)
		if err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}

	if err := s.codeRepo.SaveBatch(ctx, codes); err != nil {
		return nil, fmt.Errorf("failed to save codes: %w", err)
	}

	for _, code := range codes {
		s.publishEvents(ctx, code)
	}
	s.logger.Info("redemption codes generated",
		zap.Int("count", len(codes)),
		zap.String("value", req.Value.String()),
		zap.String("created_by", req.CreatedBy.String()),
	)
	return codes, nil
}

// RedeemResult reports the credit applied for a redeemed code.
type RedeemResult struct {
	CodeID        uuid.UUID       `json:"code_id"`
	Code          string          `json:"code"`
	Value         decimal.Decimal `json:"value"`
	WalletID      uuid.UUID       `json:"wallet_id"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	TransactionID uuid.UUID       `json:"transaction_id"`
}

// Redeem converts an active code into a wallet credit for its face value.
// The code flip and the credit commit in one transaction; neither effect
// can land without the other.
func (s *Service) Redeem(ctx context.Context, rawCode string, ownerID uuid.UUID) (*RedeemResult, error) {
	code, err := s.codeRepo.FindByCode(ctx, rawCode)
	if err != nil {
		return nil, err
	}
	w, opened, err := s.walletForOwner(ctx, ownerID, code.Currency)
	if err != nil {
		return nil, err
	}

	var result *RedeemResult
	err = s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := code.Redeem(ownerID); err != nil {
			return err
		}
		if err := s.codeRepo.SaveWithLock(txCtx, code); err != nil {
			return fmt.Errorf("failed to save code: %w", err)
		}

		tx, err := w.Credit(code.Value, wallet.SourceTypeRedemptionCode,
			wallet.WithSourceID(code.Code),
			wallet.WithDescription(fmt.Sprintf("Redemption of code %s", code.Code)),
		)
		if err != nil {
			return err
		}
		if opened {
			if err := s.walletRepo.Save(txCtx, w); err != nil {
				return fmt.Errorf("failed to save wallet: %w", err)
			}
		} else if err := s.walletRepo.SaveWithLock(txCtx, w); err != nil {
			return fmt.Errorf("failed to save wallet: %w", err)
		}
		if err := s.walletTxs.Create(txCtx, tx); err != nil {
			return fmt.Errorf("failed to save wallet transaction: %w", err)
		}

		result = &RedeemResult{
			CodeID:        code.ID,
			Code:          code.Code,
			Value:         code.Value,
			WalletID:      w.ID,
			BalanceAfter:  tx.BalanceAfter,
			TransactionID: tx.ID,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, code)
	s.publishEvents(ctx, w)
	s.logger.Info("code redeemed",
		zap.String("code", code.Code),
		zap.String("owner_id", ownerID.String()),
		zap.String("value", code.Value.String()),
	)
	return result, nil
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

// Disable permanently retires an active code.
func (s *Service) Disable(ctx context.Context, codeID uuid.UUID, reason string) error {
	code, err := s.codeRepo.FindByID(ctx, codeID)
	if err != nil {
		return err
	}
	if err := code.Disable(reason); err != nil {
		return err
	}
	if err := s.codeRepo.SaveWithLock(ctx, code); err != nil {
		return fmt.Errorf("failed to save code: %w", err)
	}

	s.publishEvents(ctx, code)
	s.logger.Info("code disabled",
		zap.String("code", code.Code),
		zap.String("reason", reason),
	)
	return nil
}

// Get returns one code by its string.
func (s *Service) Get(ctx context.Context, rawCode string) (*voucher.RedemptionCode, error) {
	return s.codeRepo.FindByCode(ctx, rawCode)
}

// List returns codes matching the filter.
func (s *Service) List(ctx context.Context, filter voucher.CodeFilter) ([]*voucher.RedemptionCode, int64, error) {
	return s.codeRepo.List(ctx, filter)
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
