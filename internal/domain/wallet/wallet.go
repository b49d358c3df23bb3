package wallet

import (
	"fmt"
	"strings"
	"time"

	"github.com/bridgecart/backend/internal/domain/shared"
	"github.com/bridgecart/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Wallet is the aggregate root for a per-owner monetary balance.
// One wallet exists per owner; it is created lazily on first use and never
// deleted. The balance always equals the BalanceAfter of the latest
// transaction, or zero when no transaction has been applied.
type Wallet struct {
	shared.BaseAggregateRoot
	OwnerID      uuid.UUID            `gorm:"type:uuid;not null;uniqueIndex"`
	WalletNumber string               `gorm:"type:varchar(30);not null;uniqueIndex"`
	Balance      decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	Currency     valueobject.Currency `gorm:"type:varchar(3);not null"`
}

// TableName returns the table name for GORM
func (Wallet) TableName() string {
	return "wallets"
}

// NewWallet creates a new wallet with a zero balance
func NewWallet(ownerID uuid.UUID, walletNumber string, currency valueobject.Currency) (*Wallet, error) {
	if ownerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_OWNER", "Owner ID cannot be empty")
	}
	if err := validateWalletNumber(walletNumber); err != nil {
		return nil, err
	}
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}

	w := &Wallet{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OwnerID:           ownerID,
		WalletNumber:      strings.ToUpper(walletNumber),
		Balance:           decimal.Zero,
		Currency:          currency,
	}

	w.AddDomainEvent(NewWalletOpenedEvent(w))

	return w, nil
}

// HasSufficientBalance returns true if the wallet can cover amount
func (w *Wallet) HasSufficientBalance(amount decimal.Decimal) bool {
	return w.Balance.GreaterThanOrEqual(amount)
}

// Apply appends a transaction to the wallet and moves the balance.
// This is the only mutation path for the balance. Credits add the amount;
// debits subtract it, clamped at zero. The clamp keeps Apply a pure append:
// call sites performing a debit must pre-check the balance and reject with
// INSUFFICIENT_FUNDS before calling Apply.
func (w *Wallet) Apply(kind TransactionKind, amount decimal.Decimal, sourceType TransactionSourceType, opts ...TransactionOption) (*Transaction, error) {
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_TRANSACTION_KIND", "Invalid wallet transaction kind")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Transaction amount must be positive")
	}
	if !sourceType.IsValid() {
		return nil, shared.NewDomainError("INVALID_SOURCE_TYPE", "Invalid transaction source type")
	}

	before := w.Balance
	var after decimal.Decimal
	if kind.IsCredit() {
		after = before.Add(amount)
	} else {
		after = before.Sub(amount)
		if after.IsNegative() {
			after = decimal.Zero
		}
	}

	tx, err := NewTransaction(w.ID, w.OwnerID, kind, amount, before, after, sourceType, opts...)
	if err != nil {
		return nil, err
	}

	w.Balance = after
	w.UpdatedAt = time.Now()
	w.IncrementVersion()

	w.AddDomainEvent(NewWalletTransactionAppliedEvent(w, tx))

	return tx, nil
}

// Credit is a convenience wrapper for applying a credit transaction
func (w *Wallet) Credit(amount decimal.Decimal, sourceType TransactionSourceType, opts ...TransactionOption) (*Transaction, error) {
	return w.Apply(TransactionKindCredit, amount, sourceType, opts...)
}

// Debit is a convenience wrapper for applying a debit transaction.
// It rejects with INSUFFICIENT_FUNDS before mutating when the balance
// cannot cover the amount.
func (w *Wallet) Debit(amount decimal.Decimal, sourceType TransactionSourceType, opts ...TransactionOption) (*Transaction, error) {
	if amount.GreaterThan(w.Balance) {
		return nil, shared.NewDomainError("INSUFFICIENT_FUNDS",
			fmt.Sprintf("Insufficient wallet balance: available %s, required %s", w.Balance.String(), amount.String()))
	}
	return w.Apply(TransactionKindDebit, amount, sourceType, opts...)
}

func validateWalletNumber(number string) error {
	if number == "" {
		return shared.NewDomainError("INVALID_WALLET_NUMBER", "Wallet number cannot be empty")
	}
	if len(number) > 30 {
		return shared.NewDomainError("INVALID_WALLET_NUMBER", "Wallet number cannot exceed 30 characters")
	}
	return nil
}
